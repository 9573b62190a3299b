package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mitchellh/go-wordwrap"

	"poolchem/internal/errors"
)

// Format represents output format type
type Format string

const (
	// FormatText is a human-readable boxed report
	FormatText Format = "text"

	// FormatJSON is machine-readable JSON
	FormatJSON Format = "json"
)

// Formatter produces output in a specific format
type Formatter interface {
	// Format returns the format type
	Format() Format

	// Render writes the report to w
	Render(w io.Writer, r *Report) error
}

// Registry holds formatters by format
type Registry struct {
	formatters map[Format]Formatter
}

// NewRegistry creates a registry holding the given formatters
func NewRegistry(formatters ...Formatter) *Registry {
	reg := &Registry{formatters: make(map[Format]Formatter)}
	for _, f := range formatters {
		reg.formatters[f.Format()] = f
	}
	return reg
}

// DefaultRegistry returns the text and JSON formatters
func DefaultRegistry(showRanges bool) *Registry {
	return NewRegistry(&TextFormatter{ShowRanges: showRanges}, &JSONFormatter{Indent: true})
}

// Get returns the formatter for a format
func (r *Registry) Get(format Format) (Formatter, error) {
	f, ok := r.formatters[format]
	if !ok {
		return nil, errors.Newf(errors.TypeInput, "unknown report format %q (available: %s)", format, strings.Join(r.Formats(), ", "))
	}
	return f, nil
}

// Formats lists the registered formats in sorted order
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.formatters))
	for f := range r.formatters {
		out = append(out, string(f))
	}
	sort.Strings(out)
	return out
}

// JSONFormatter renders the report as JSON
type JSONFormatter struct {
	Indent bool
}

func (f *JSONFormatter) Format() Format { return FormatJSON }

func (f *JSONFormatter) Render(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	if f.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(r)
}

// boxWidth is the printable width between "│ " and " │"
const boxWidth = 71

// TextFormatter renders the report as a box-drawn table
type TextFormatter struct {
	// ShowRanges prints the acceptable range under each chemical line
	ShowRanges bool
}

func (f *TextFormatter) Format() Format { return FormatText }

func (f *TextFormatter) Render(w io.Writer, r *Report) error {
	p := &printer{w: w}

	p.rule("┌", "┐")
	p.centered("WATER TEST REPORT")
	if r.Meta.PoolName != "" {
		p.row("Pool", r.Meta.PoolName)
	}
	p.row("Job", r.Meta.JobID)
	p.rule("├", "┤")

	if len(r.Chemical) == 0 && len(r.Observation) == 0 {
		p.text("No results recorded.")
	}
	for _, l := range r.Chemical {
		value := l.Value
		if l.Unit != "" {
			value += " " + l.Unit
		}
		p.row(l.Name, value+" "+string(l.Status))
		if f.ShowRanges && l.Range != nil {
			p.text(fmt.Sprintf("  range %s, target %s", l.Range.String(), l.Range.Target.String()))
		}
		p.recommendation(l)
	}

	if len(r.Observation) > 0 {
		p.rule("├", "┤")
		for _, l := range r.Observation {
			p.row(l.Name, l.Value)
			p.recommendation(l)
		}
	}

	p.rule("└", "┘")
	p.printf("\nReport %s (snapshot v%d, sha256 %s)\n", r.ID, r.Version, truncate(r.Hash, 16))
	return p.err
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) rule(left, right string) {
	p.printf("%s%s%s\n", left, strings.Repeat("─", boxWidth+2), right)
}

func (p *printer) centered(s string) {
	pad := (boxWidth - len(s)) / 2
	p.printf("│ %-*s │\n", boxWidth, strings.Repeat(" ", pad)+s)
}

func (p *printer) row(label, value string) {
	p.printf("│ %-50s %20s │\n", truncate(label, 50), truncate(value, 20))
}

func (p *printer) text(s string) {
	p.printf("│ %-*s │\n", boxWidth, truncate(s, boxWidth))
}

// wrapped prints s under a prefix, continuing lines aligned with the text
func (p *printer) wrapped(prefix, s string) {
	indent := strings.Repeat(" ", len([]rune(prefix)))
	lines := strings.Split(wordwrap.WrapString(s, uint(boxWidth-len([]rune(prefix)))), "\n")
	for i, line := range lines {
		lead := indent
		if i == 0 {
			lead = prefix
		}
		p.text(lead + line)
	}
}

func (p *printer) recommendation(l Line) {
	if l.Action != "" {
		p.wrapped("  └─ ", l.Action)
	}
	if l.Description != "" {
		p.wrapped("     ", l.Description)
	}
	if l.CustomerAction != "" {
		p.wrapped("     Customer: ", l.CustomerAction)
	}
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
