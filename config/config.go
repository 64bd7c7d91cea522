package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/milk9111/roomcheck/report"
	"github.com/milk9111/roomcheck/rules"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// File is the on-disk shape of a rule set.
type File struct {
	Include    string          `yaml:"include"`
	Rules      []rules.Spec    `yaml:"rules"`
	Aggregates []AggregateSpec `yaml:"aggregates"`
}

type AggregateSpec struct {
	Kind       string             `yaml:"kind"`
	Name       string             `yaml:"name,omitempty"`
	Source     string             `yaml:"source"`
	Normalize  []report.Transform `yaml:"normalize,omitempty"`
	Catalog    string             `yaml:"catalog,omitempty"`
	SkipMarker string             `yaml:"skip_marker,omitempty"`
}

// Config is a rule set ready to run.
type Config struct {
	// Path is the file the rule set came from, empty for the embedded default.
	Path       string
	Include    string
	Registry   *rules.Registry
	Aggregates []report.Aggregate
}

type options struct {
	catalog string
	logger  *zap.Logger
}

type Option func(*options)

// WithCatalog replaces the catalog of every unused-reference aggregate.
func WithCatalog(path string) Option {
	return func(o *options) { o.catalog = path }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// decode reads one YAML document into T, rejecting unknown fields.
func decode[T any](path string, data []byte) (T, error) {
	var zero T
	var spec T
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil && !errors.Is(err, io.EOF) {
		return zero, &ConfigError{Op: "unmarshal", Path: path, Err: err}
	}
	return spec, nil
}

// Load reads and builds the rule set at path. An empty path loads the embedded
// default. Relative script and catalog paths resolve against the directory of
// the file.
func Load(path string, opts ...Option) (*Config, error) {
	data, err := Read(path)
	if err != nil {
		return nil, &ConfigError{Op: "load", Path: path, Err: err}
	}
	name := path
	if name == "" {
		name = DefaultName
	}
	f, err := decode[File](name, data)
	if err != nil {
		return nil, err
	}
	dir := ""
	if path != "" {
		dir = filepath.Dir(path)
	}
	cfg, err := Build(f, dir, opts...)
	if err != nil {
		return nil, err
	}
	cfg.Path = path
	return cfg, nil
}

// Build turns a decoded rule set into rules and aggregates. dir anchors
// relative paths.
func Build(f File, dir string, opts ...Option) (*Config, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := &Config{Include: f.Include, Registry: rules.NewRegistry()}
	for i, s := range f.Rules {
		s.BaseDir = dir
		rule, err := rules.Build(s)
		if err != nil {
			return nil, &ConfigError{Op: fmt.Sprintf("rule %d", i), Err: err}
		}
		if err := cfg.Registry.Register(rule); err != nil {
			return nil, &ConfigError{Op: fmt.Sprintf("rule %d", i), Err: err}
		}
		o.logger.Debug("rule configured", zap.String("id", rule.ID()), zap.String("kind", s.Kind))
	}

	catalogs := 0
	for i, a := range f.Aggregates {
		agg, err := buildAggregate(a, dir, o)
		if err != nil {
			return nil, &ConfigError{Op: fmt.Sprintf("aggregate %d", i), Err: err}
		}
		if _, ok := cfg.Registry.Get(a.Source); !ok {
			return nil, &ConfigError{
				Op:  fmt.Sprintf("aggregate %d", i),
				Err: fmt.Errorf("source %q is not a configured rule", a.Source),
			}
		}
		if _, ok := agg.(*report.Unused); ok {
			catalogs++
		}
		cfg.Aggregates = append(cfg.Aggregates, agg)
		o.logger.Debug("aggregate configured", zap.String("id", agg.ID()))
	}
	if o.catalog != "" && catalogs == 0 {
		o.logger.Warn("catalog given but no unused-reference aggregate is configured", zap.String("catalog", o.catalog))
	}
	return cfg, nil
}

func buildAggregate(a AggregateSpec, dir string, o options) (report.Aggregate, error) {
	if a.Source == "" {
		return nil, fmt.Errorf("%s needs source", a.Kind)
	}
	norm, err := report.NewNormalizer(a.Normalize...)
	if err != nil {
		return nil, err
	}
	switch a.Kind {
	case "duplicates":
		return &report.Duplicates{Source: a.Source, Normalize: norm}, nil
	case "unused":
		path := a.Catalog
		if o.catalog != "" {
			path = o.catalog
		} else if path != "" && !filepath.IsAbs(path) && dir != "" {
			path = filepath.Join(dir, path)
		}
		if path == "" {
			return nil, fmt.Errorf("unused needs catalog")
		}
		name := a.Name
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		return &report.Unused{
			Name:       name,
			Source:     a.Source,
			Normalize:  norm,
			Catalog:    CatalogFile(path),
			SkipMarker: a.SkipMarker,
		}, nil
	default:
		return nil, fmt.Errorf("unknown aggregate kind %q", a.Kind)
	}
}

// CatalogFile reads a flat JSON object of string keys to string values when
// the aggregate runs, so a missing catalog only affects its own section.
func CatalogFile(path string) report.Catalog {
	return func() (map[string]string, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &ConfigError{Op: "catalog", Path: path, Err: err}
		}
		var m map[string]string
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, &ConfigError{Op: "catalog", Path: path, Err: err}
		}
		return m, nil
	}
}
