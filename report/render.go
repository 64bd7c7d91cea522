package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/termenv"
)

type RenderOptions struct {
	// Color styles section headers with ANSI colors regardless of whether w
	// is a terminal.
	Color bool
}

type styles struct {
	header  lipgloss.Style
	config  lipgloss.Style
	summary lipgloss.Style
}

func newStyles(w io.Writer, color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{header: plain, config: plain, summary: plain}
	}
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(termenv.ANSI)
	return styles{
		header:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
		config:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
		summary: r.NewStyle().Faint(true),
	}
}

// Render writes the report as text. Only rules and aggregates that need
// attention produce output after the load summary. A rule whose rooms are
// all pass or na prints nothing; na is neutral.
func (r *Report) Render(w io.Writer, opts RenderOptions) error {
	st := newStyles(w, opts.Color)
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, st.summary.Render(humanize.Comma(int64(r.Rooms))+" rooms loaded."))
	for _, f := range r.Failures {
		fmt.Fprintf(bw, "  %s: %v\n", f.Path, f.Err)
	}

	for _, sec := range r.Sections {
		if len(sec.Attention) == 0 {
			continue
		}
		fmt.Fprintln(bw, st.header.Render(attentionHeader(sec.RuleID, len(sec.Attention))))
		for _, e := range sec.Attention {
			if msg := e.Message(); msg != "" {
				fmt.Fprintf(bw, "  %s: %s\n", e.Filename, msg)
				continue
			}
			fmt.Fprintf(bw, "  %s\n", e.Filename)
		}
	}

	for _, a := range r.Aggregates {
		if a.Err != nil {
			fmt.Fprintln(bw, st.config.Render(fmt.Sprintf("%s: configuration error: %v", a.ID, a.Err)))
			continue
		}
		if len(a.Findings) == 0 {
			continue
		}
		fmt.Fprintln(bw, st.header.Render(attentionHeader(a.ID, len(a.Findings))))
		for _, f := range a.Findings {
			if len(f.Filenames) == 0 {
				fmt.Fprintf(bw, "  %s\n", f.Value)
				continue
			}
			fmt.Fprintf(bw, "  %s: %s\n", f.Value, strings.Join(f.Filenames, ", "))
		}
	}
	return bw.Flush()
}

func attentionHeader(id string, n int) string {
	return fmt.Sprintf("%s: %s need attention", id, humanize.Comma(int64(n)))
}

// String renders the report without color.
func (r *Report) String() string {
	var sb strings.Builder
	_ = r.Render(&sb, RenderOptions{})
	return sb.String()
}
