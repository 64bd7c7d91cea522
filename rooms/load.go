package rooms

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"runtime"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultInclude matches the room documents directly inside the directory.
const DefaultInclude = "*.json"

type options struct {
	include string
	jobs    int
	logger  *zap.Logger
}

type Option func(*options)

// WithInclude sets the doublestar pattern, relative to the directory, that
// selects room files. Use "**/*.json" to descend into subdirectories.
func WithInclude(pattern string) Option {
	return func(o *options) {
		if pattern != "" {
			o.include = pattern
		}
	}
}

// WithJobs bounds how many files are read at once.
func WithJobs(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.jobs = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Load reads every room document in dir. A file that cannot be read or parsed
// is recorded in Collection.Failures and skipped; only an unreadable dir or a
// cancelled ctx fails the whole load.
func Load(ctx context.Context, dir string, opts ...Option) (*Collection, error) {
	o := options{
		include: DefaultInclude,
		jobs:    runtime.GOMAXPROCS(0),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if _, err := os.ReadDir(dir); err != nil {
		return nil, &LoadError{Path: dir, Err: err}
	}

	fsys := os.DirFS(dir)
	names, err := doublestar.Glob(fsys, o.include, doublestar.WithFilesOnly())
	if err != nil {
		return nil, &LoadError{Path: dir, Err: err}
	}
	sort.Strings(names)

	loaded := make([]*Room, len(names))
	failed := make([]*LoadError, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.jobs)
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			room, size, err := loadFile(fsys, name)
			if err != nil {
				o.logger.Warn("room failed to load", zap.String("file", name), zap.Error(err))
				failed[i] = &LoadError{Path: name, Err: err}
				return nil
			}
			o.logger.Debug("room loaded",
				zap.String("file", name),
				zap.Int("layers", len(room.Layers)),
				zap.String("size", humanize.Bytes(uint64(size))))
			loaded[i] = room
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c := &Collection{Dir: dir}
	for i := range names {
		if loaded[i] != nil {
			c.Rooms = append(c.Rooms, loaded[i])
		}
		if failed[i] != nil {
			c.Failures = append(c.Failures, failed[i])
		}
	}
	o.logger.Info("rooms loaded",
		zap.String("dir", dir),
		zap.Int("rooms", len(c.Rooms)),
		zap.Int("failures", len(c.Failures)))
	return c, nil
}

var errEmpty = errors.New("empty file")

func loadFile(fsys fs.FS, name string) (*Room, int, error) {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, 0, err
	}
	if len(b) == 0 {
		return nil, 0, errEmpty
	}
	room, err := Parse(name, b)
	if err != nil {
		return nil, len(b), err
	}
	return room, len(b), nil
}
