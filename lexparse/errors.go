package lexparse

import (
	"encoding/json"
	"fmt"
)

// Position locates a single point in a source file for error reporting.
type Position struct {
	Filename string
	Line     int
	Column   int
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

// SourceRange carries enough of the surrounding source to render a
// caret-pointed error message.
type SourceRange struct {
	StartOffset int
	EndOffset   int
	Source      []byte
}

// ParseError is a single lexing or parsing failure.
type ParseError struct {
	Pos         Position
	Message     string
	SourceRange SourceRange
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

func (e *ParseError) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"type":     "ParseError",
		"message":  e.Error(),
		"position": e.Pos,
	})
}

func newErrorfWithSource(pos Position, rng SourceRange, format string, args ...any) *ParseError {
	return &ParseError{Pos: pos, Message: fmt.Sprintf(format, args...), SourceRange: rng}
}
