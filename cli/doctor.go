package cli

import (
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/quietledger/beanledger/lexparse"
)

// DoctorCmd groups debugging utilities for beanfiles.
type DoctorCmd struct {
	Lex LexCmd `cmd:"" help:"Show lexical tokens from a beanfile."`
}

// LexCmd dumps the token stream lexparse produces for a single file,
// without recursing into include directives (each file is tokenized on
// its own terms).
type LexCmd struct {
	File FileOrStdin `help:"Beanfile input filename (use '-' for stdin, or omit for stdin)." arg:"" optional:""`
}

func (cmd *LexCmd) Run(ctx *kong.Context, globals *Globals) error {
	if err := cmd.File.EnsureContents(); err != nil {
		return err
	}

	content, err := cmd.File.GetSourceContent()
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	lexer := lexparse.NewLexer(content, cmd.File.Filename)
	tokens, err := lexer.ScanAll()
	if err != nil {
		return fmt.Errorf("failed to lex file: %w", err)
	}

	for _, token := range tokens {
		if token.Type == lexparse.EOF {
			continue
		}
		_, _ = fmt.Fprintf(ctx.Stdout, "%-10s %d:%d    %q\n",
			token.Type.String(), token.Line, token.Column, token.String(content))
	}

	return nil
}
