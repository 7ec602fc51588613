package treediff

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// IsColorTerminal reports whether f is an interactive terminal worth
// coloring
func IsColorTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// FormatPrettyString is a convenience wrapper that outputs to a string
// instead of an io.Writer
func FormatPrettyString(changes Changes, colorTTY bool) (string, error) {
	buf := &bytes.Buffer{}
	if err := FormatPretty(buf, changes, colorTTY); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// FormatPretty writes a line-per-change report to w:
//
//	~ for edits (red old value, green new value)
//	+ for added keys & inserted array elements
//	- for removed keys & deleted array elements
//
// String-to-string edits additionally render an inline character diff.
// When colorTTY is false all output is plain text
func FormatPretty(w io.Writer, changes Changes, colorTTY bool) error {
	p := newPrinter(colorTTY)
	for _, c := range changes {
		if err := p.change(w, c); err != nil {
			return err
		}
	}
	return nil
}

type printer struct {
	insert func(a ...any) string
	del    func(a ...any) string
	update func(a ...any) string
	color  bool
}

func newPrinter(colorTTY bool) *printer {
	if !colorTTY {
		plain := fmt.Sprint
		return &printer{insert: plain, del: plain, update: plain}
	}
	return &printer{
		insert: color.New(color.FgGreen).SprintFunc(),
		del:    color.New(color.FgRed).SprintFunc(),
		update: color.New(color.FgBlue).SprintFunc(),
		color:  true,
	}
}

func (p *printer) change(w io.Writer, c *Change) error {
	switch c.Kind {
	case OpEdit:
		lhsStr, rhsStr := formatValue(c.Lhs), formatValue(c.Rhs)
		if ls, ok := c.Lhs.(string); ok {
			if rs, ok := c.Rhs.(string); ok && p.color {
				_, err := fmt.Fprintf(w, "%s %s: %s\n", p.update("~"), c.Path, inlineStringDiff(ls, rs))
				return err
			}
		}
		_, err := fmt.Fprintf(w, "%s %s: %s -> %s\n", p.update("~"), c.Path, p.del(lhsStr), p.insert(rhsStr))
		return err

	case OpAdded:
		_, err := fmt.Fprintf(w, "%s %s: %s\n", p.insert("+"), c.Path, p.insert(formatValue(c.Rhs)))
		return err

	case OpRemoved:
		_, err := fmt.Fprintf(w, "%s %s: %s\n", p.del("-"), c.Path, p.del(formatValue(c.Lhs)))
		return err

	case OpArray:
		if c.Item != nil && c.Item.Kind == OpAdded {
			_, err := fmt.Fprintf(w, "%s %s[%d]: %s\n", p.insert("+"), c.Path, c.Index, p.insert(formatValue(c.Item.Rhs)))
			return err
		}
		if c.Item != nil {
			_, err := fmt.Fprintf(w, "%s %s[%d]: %s\n", p.del("-"), c.Path, c.Index, p.del(formatValue(c.Item.Lhs)))
			return err
		}
	}
	return fmt.Errorf("%w: kind %q", ErrInvalidChange, c.Kind)
}

// inlineStringDiff renders a character-level diff of two strings with
// deletion/insertion coloring
func inlineStringDiff(from, to string) string {
	dmp := diffpatch.New()
	diffs := dmp.DiffMain(from, to, false)
	return dmp.DiffPrettyText(dmp.DiffCleanupSemantic(diffs))
}

func formatValue(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
