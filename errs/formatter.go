// Package errs formats the two error shapes the pipeline can produce —
// lexparse.ParseError (fatal, source-anchored) and balance.Error (a
// non-fatal row in the Balancer's errors table) — for different
// consumers. It separates presentation from domain logic: the text
// formatter renders a caret-pointed source excerpt in bean-check style,
// the JSON formatter renders structured output for scripts or a future
// API, following the same two-implementation split as the teacher's own
// error-formatting package.
package errs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/quietledger/beanledger/balance"
	"github.com/quietledger/beanledger/lexparse"
)

var (
	messageStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"}).Bold(true)
	lineNoStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#888888", Dark: "#888888"})
	caretStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"}).Bold(true)
)

// Formatter renders one or many errors for a particular output surface.
type Formatter interface {
	Format(err error) string
	FormatAll(errs []error) string
}

// TextFormatter renders parse errors with a caret-pointed source excerpt
// and balance errors as a one-line summary, both styled with lipgloss.
type TextFormatter struct {
	styled bool
}

// NewTextFormatter creates a text formatter. Pass styled=false to emit
// plain text (e.g. when stdout is not a terminal).
func NewTextFormatter(styled bool) *TextFormatter {
	return &TextFormatter{styled: styled}
}

func (tf *TextFormatter) Format(err error) string {
	switch e := err.(type) {
	case *lexparse.ParseError:
		return tf.formatParseError(e)
	case balance.Error:
		return tf.formatBalanceError(e)
	default:
		return err.Error()
	}
}

func (tf *TextFormatter) FormatAll(errList []error) string {
	if len(errList) == 0 {
		return ""
	}
	var buf bytes.Buffer
	for i, err := range errList {
		buf.WriteString(tf.Format(err))
		if i < len(errList)-1 {
			buf.WriteString("\n\n")
		}
	}
	return buf.String()
}

func (tf *TextFormatter) formatParseError(e *lexparse.ParseError) string {
	var buf bytes.Buffer
	buf.WriteString(tf.style(messageStyle, e.Pos.String()+": "+e.Message))
	if len(e.SourceRange.Source) == 0 {
		return buf.String()
	}
	buf.WriteByte('\n')
	buf.WriteString(tf.renderExcerpt(e))
	return buf.String()
}

// renderExcerpt prints every line of the error's source excerpt with a
// line-number gutter, plus a caret under the offending column on the
// reported line. The parser's excerpts start two lines above the error
// line, clamped at line 1 (in which case StartOffset is 0), so the first
// line number is derived from those two facts.
func (tf *TextFormatter) renderExcerpt(e *lexparse.ParseError) string {
	lines := strings.Split(string(e.SourceRange.Source), "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	firstLineNo := e.Pos.Line - 2
	if e.SourceRange.StartOffset == 0 || firstLineNo < 1 {
		firstLineNo = 1
	}

	lineNoWidth := len(strconv.Itoa(firstLineNo + len(lines)))

	var buf bytes.Buffer
	for i, line := range lines {
		lineNo := firstLineNo + i
		gutter := fmt.Sprintf("%*d | ", lineNoWidth, lineNo)
		buf.WriteString(tf.style(lineNoStyle, gutter))
		buf.WriteString(line)
		buf.WriteByte('\n')
		if lineNo == e.Pos.Line {
			caret := spaces(lineNoWidth+3+max(e.Pos.Column-1, 0)) + "^"
			buf.WriteString(tf.style(caretStyle, caret))
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}

func (tf *TextFormatter) formatBalanceError(e balance.Error) string {
	return tf.style(messageStyle, e.Error())
}

func (tf *TextFormatter) style(s lipgloss.Style, text string) string {
	if !tf.styled {
		return text
	}
	return s.Render(text)
}

func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(" ", n)
}

// JSONFormatter renders errors as structured JSON, for scripted consumers.
type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter { return &JSONFormatter{} }

type parseErrorJSON struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Filename string `json:"filename"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

type balanceErrorJSON struct {
	Type          string `json:"type"`
	TransactionNo int    `json:"transaction_no"`
	Commodity     string `json:"commodity,omitempty"`
	Total         string `json:"total,omitempty"`
}

func (jf *JSONFormatter) Format(err error) string {
	data, _ := json.Marshal(jf.toJSON(err))
	return string(data)
}

func (jf *JSONFormatter) FormatAll(errList []error) string {
	out := make([]any, len(errList))
	for i, err := range errList {
		out[i] = jf.toJSON(err)
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	return string(data)
}

func (jf *JSONFormatter) toJSON(err error) any {
	switch e := err.(type) {
	case *lexparse.ParseError:
		return parseErrorJSON{
			Type:     "ParseError",
			Message:  e.Message,
			Filename: e.Pos.Filename,
			Line:     e.Pos.Line,
			Column:   e.Pos.Column,
		}
	case balance.Error:
		return balanceErrorJSON{
			Type:          "BalanceError",
			TransactionNo: e.TransactionNo,
			Commodity:     e.Commodity,
			Total:         e.Total.String(),
		}
	default:
		return map[string]string{"type": fmt.Sprintf("%T", err), "message": err.Error()}
	}
}
