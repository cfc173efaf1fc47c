// Package lexparse implements the beanfile grammar: a zero-copy lexer
// feeding a hand-rolled recursive-descent parser. The parser builds no
// syntax tree — every matched statement is stamped with a statement number
// from state.State and appended directly into one of its five accumulator
// vectors. include directives recurse into the parser itself, sharing the
// same State so statement numbering stays monotonic across the forest of
// files.
package lexparse

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/quietledger/beanledger/civil"
	"github.com/quietledger/beanledger/record"
	"github.com/quietledger/beanledger/state"
)

// FileReader abstracts reading an include target's bytes so the parser
// never imports os directly; loader supplies the real implementation.
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

// parserContext is the token stream and source buffer for the file
// currently being parsed. It is saved and restored around include
// recursion so the call stack naturally threads multiple active files.
type parserContext struct {
	source   []byte
	filename string
	tokens   []Token
	pos      int
}

// Parser drives statement recognition over a token stream and emits
// records into a shared state.State.
type Parser struct {
	ctx      parserContext
	interner *Interner
	st       *state.State
	reader   FileReader
	errs     []*ParseError
}

// NewParser creates a parser that accumulates into st, resolving include
// targets via reader.
func NewParser(st *state.State, reader FileReader) *Parser {
	return &Parser{st: st, reader: reader, interner: NewInterner(1024)}
}

// Errors returns every parse error collected across this parser's run,
// including from recursively-included files.
func (p *Parser) Errors() []*ParseError { return p.errs }

// ParseFile parses path as the root of a ledger, following any includes
// it contains.
func (p *Parser) ParseFile(path string) error {
	return p.parseFile(path)
}

// ParseBytes parses source directly, attributing it to filename. Used for
// in-memory inputs that do not go through a FileReader. Any include
// directives it contains still resolve through reader.
func (p *Parser) ParseBytes(source []byte, filename string) error {
	return p.enterAndRun(source, filename)
}

func (p *Parser) parseFile(path string) error {
	if p.reader == nil {
		return fmt.Errorf("lexparse: no FileReader configured to read %q", path)
	}
	src, err := p.reader.ReadFile(path)
	if err != nil {
		return fmt.Errorf("lexparse: reading %q: %w", path, err)
	}
	return p.enterAndRun(src, path)
}

func (p *Parser) enterAndRun(source []byte, filename string) error {
	p.st.EnterInclude(filename)

	lexer := NewLexer(source, filename)
	tokens, err := lexer.ScanAll()
	if err != nil {
		p.st.FinishedInclude(len(source))
		return err
	}

	saved := p.ctx
	p.ctx = parserContext{source: source, filename: filename, tokens: tokens, pos: 0}
	p.run()
	p.ctx = saved

	p.st.FinishedInclude(len(source))
	return nil
}

// run consumes top-level statements until EOF.
func (p *Parser) run() {
	for !p.isAtEnd() {
		tok := p.peek()
		switch tok.Type {
		case NEWLINE, COMMENT:
			p.advance()
		case DATE:
			p.parseDatedStatement()
		case INCLUDE:
			p.parseInclude()
		case OPTION:
			p.parseOption()
		default:
			p.errorAtToken(tok, "unexpected token %s", tok.Type)
			p.skipLine()
		}
	}
}

func (p *Parser) parseDatedStatement() {
	startTok := p.peek()
	dateTok := p.advance()
	date, err := civil.Parse(dateTok.String(p.ctx.source))
	if err != nil {
		p.errorAtToken(dateTok, "invalid date: %v", err)
		p.skipLine()
		return
	}

	switch p.peek().Type {
	case OPEN:
		p.advance()
		p.parseVerification(startTok, date, record.Open)
	case CLOSE:
		p.advance()
		p.parseVerification(startTok, date, record.Close)
	case BALANCE:
		p.advance()
		p.parseBalance(startTok, date)
	case ASTERISK:
		p.parseTransaction(startTok, date)
	case EVENT:
		p.advance()
		p.parseEvent(startTok, date)
	case CUSTOM:
		p.advance()
		p.parseCustom(startTok, date)
	default:
		p.errorAtToken(p.peek(), "expected open, close, balance, event, custom or '*' after date")
		p.skipLine()
	}
}

func (p *Parser) parseVerification(startTok Token, date civil.Date, action record.VerificationAction) {
	account, ok := p.parseAccount()
	if !ok {
		p.skipLine()
		return
	}
	p.skipTrailingComment()

	stmtNo := p.st.Advance(startTok.Start)
	v := &record.Verification{
		Provenance: p.provenance(stmtNo, startTok),
		Date:       date,
		Action:     action,
		Account:    account,
	}
	p.st.AddVerification(v)
}

func (p *Parser) parseBalance(startTok Token, date civil.Date) {
	account, ok := p.parseAccount()
	if !ok {
		p.skipLine()
		return
	}
	qtyTok := p.expect(NUMBER, "expected quantity")
	if qtyTok.Type == ILLEGAL {
		p.skipLine()
		return
	}
	comTok := p.expect(IDENT, "expected commodity")
	if comTok.Type == ILLEGAL {
		p.skipLine()
		return
	}
	p.skipTrailingComment()

	stmtNo := p.st.Advance(startTok.Start)
	v := &record.Verification{
		Provenance: p.provenance(stmtNo, startTok),
		Date:       date,
		Action:     record.Balance,
		Account:    account,
		Quantity:   qtyTok.String(p.ctx.source),
		Commodity:  p.interner.InternBytes(comTok.Bytes(p.ctx.source)),
	}
	p.st.AddVerification(v)
}

func (p *Parser) parseEvent(startTok Token, date civil.Date) {
	kTok := p.expect(STRING, "expected event key string")
	if kTok.Type == ILLEGAL {
		p.skipLine()
		return
	}
	vTok := p.expect(STRING, "expected event value string")
	if vTok.Type == ILLEGAL {
		p.skipLine()
		return
	}
	p.skipTrailingComment()

	stmtNo := p.st.Advance(startTok.Start)
	info := &record.Informational{
		Provenance: p.provenance(stmtNo, startTok),
		Date:       &date,
		Action:     record.Event,
		Attribute:  p.unquote(kTok),
		Value:      p.unquote(vTok),
	}
	p.st.AddInformational(info)
}

func (p *Parser) parseOption() {
	startTok := p.peek()
	p.advance() // consume OPTION

	kTok := p.expect(STRING, "expected option key string")
	if kTok.Type == ILLEGAL {
		p.skipLine()
		return
	}
	vTok := p.expect(STRING, "expected option value string")
	if vTok.Type == ILLEGAL {
		p.skipLine()
		return
	}
	p.skipTrailingComment()

	stmtNo := p.st.Advance(startTok.Start)
	info := &record.Informational{
		Provenance: p.provenance(stmtNo, startTok),
		Date:       nil,
		Action:     record.Option,
		Attribute:  p.unquote(kTok),
		Value:      p.unquote(vTok),
	}
	p.st.AddInformational(info)
}

func (p *Parser) parseCustom(startTok Token, date civil.Date) {
	line := startTok.Line
	var parts []string
	for !p.isAtEnd() && p.peek().Line == line && p.peek().Type != COMMENT {
		tok := p.advance()
		parts = append(parts, tok.String(p.ctx.source))
	}
	p.skipTrailingComment()

	stmtNo := p.st.Advance(startTok.Start)
	info := &record.Informational{
		Provenance: p.provenance(stmtNo, startTok),
		Date:       &date,
		Action:     record.Custom,
		Value:      strings.TrimSpace(strings.Join(parts, " ")),
	}
	p.st.AddInformational(info)
}

func (p *Parser) parseInclude() {
	startTok := p.peek()
	p.advance() // consume INCLUDE

	pathTok := p.expect(STRING, "expected quoted include path")
	if pathTok.Type == ILLEGAL {
		p.skipLine()
		return
	}
	path := p.unquote(pathTok)
	p.skipTrailingComment()

	stmtNo := p.st.Advance(startTok.Start)
	resolved := p.resolveIncludePath(path)
	prov := p.provenance(stmtNo, startTok)

	if err := p.parseFile(resolved); err != nil {
		p.errorAtToken(pathTok, "include %q: %v", path, err)
	}

	p.st.AddInclude(&record.Include{
		Provenance:   prov,
		Path:         path,
		ResolvedPath: resolved,
	})
}

func (p *Parser) resolveIncludePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	dir := filepath.Dir(p.ctx.filename)
	return filepath.Join(dir, path)
}

func (p *Parser) parseTransaction(startTok Token, date civil.Date) {
	p.advance() // consume ASTERISK

	strTok := p.expect(STRING, "expected narration string")
	if strTok.Type == ILLEGAL {
		p.skipLine()
		return
	}
	narration := p.unquote(strTok)

	var tags []string
	for p.check(TAG) {
		t := p.advance()
		tags = append(tags, strings.TrimPrefix(t.String(p.ctx.source), "#"))
	}
	p.skipTrailingComment()

	stmtNo := p.st.Advance(startTok.Start)
	header := &record.Header{
		Provenance: p.provenance(stmtNo, startTok),
		Date:       date,
		Narration:  narration,
		Tags:       tags,
	}
	p.st.AddTransaction(header)

	count := 0
	for p.check(ACCOUNT) && p.peek().Column > 1 {
		p.parsePosting()
		count++
	}
	if count == 0 {
		p.errorAtToken(startTok, "transaction %q requires at least one posting", narration)
	}
}

func (p *Parser) parsePosting() {
	startTok := p.peek()
	accTok := p.advance()
	account := p.interner.InternBytes(accTok.Bytes(p.ctx.source))

	var cpQty, cpCom, tcQty, tcCom string

	if p.check(NUMBER) {
		qTok := p.advance()
		cTok := p.expect(IDENT, "expected commodity after quantity")
		if cTok.Type != ILLEGAL {
			cpQty = qTok.String(p.ctx.source)
			cpCom = p.interner.InternBytes(cTok.Bytes(p.ctx.source))
		}
	}

	if p.check(ATAT) {
		p.advance()
		q2Tok := p.expect(NUMBER, "expected quantity after '@@'")
		c2Tok := p.expect(IDENT, "expected commodity after '@@' quantity")
		if q2Tok.Type != ILLEGAL && c2Tok.Type != ILLEGAL {
			tcQty = q2Tok.String(p.ctx.source)
			tcCom = p.interner.InternBytes(c2Tok.Bytes(p.ctx.source))
		}
	} else if cpCom != "" {
		tcQty, tcCom = cpQty, cpCom
	}

	p.skipTrailingComment()

	stmtNo := p.st.Advance(startTok.Start)
	post := &record.Posting{
		Provenance:  p.provenance(stmtNo, startTok),
		Account:     account,
		CpQuantity:  cpQty,
		CpCommodity: cpCom,
		TcQuantity:  tcQty,
		TcCommodity: tcCom,
	}
	p.st.AddPosting(post)
}

func (p *Parser) parseAccount() (string, bool) {
	tok := p.expect(ACCOUNT, "expected account")
	if tok.Type == ILLEGAL {
		return "", false
	}
	return p.interner.InternBytes(tok.Bytes(p.ctx.source)), true
}

func (p *Parser) unquote(tok Token) string {
	s := tok.String(p.ctx.source)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	return s[1 : len(s)-1]
}

func (p *Parser) provenance(stmtNo int, startTok Token) record.Provenance {
	end := startTok.End
	if prev := p.previous(); prev.Type != ILLEGAL {
		end = prev.End
	}
	return record.Provenance{
		StatementNo: stmtNo,
		FileNo:      p.st.ActiveFileNo(),
		ByteStart:   startTok.Start,
		ByteEnd:     end,
	}
}

func (p *Parser) skipTrailingComment() {
	if p.check(COMMENT) {
		p.advance()
	}
}

// Token navigation, mirroring the lexer's flat-stream idiom: no AST node
// ever mediates between a matched token and the record it produces.

func (p *Parser) peek() Token {
	if p.ctx.pos >= len(p.ctx.tokens) {
		return Token{Type: EOF}
	}
	return p.ctx.tokens[p.ctx.pos]
}

func (p *Parser) previous() Token {
	if p.ctx.pos == 0 {
		return Token{Type: ILLEGAL}
	}
	return p.ctx.tokens[p.ctx.pos-1]
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == EOF
}

func (p *Parser) check(typ TokenType) bool {
	return p.peek().Type == typ
}

func (p *Parser) advance() Token {
	if !p.isAtEnd() {
		p.ctx.pos++
	}
	return p.previous()
}

func (p *Parser) expect(typ TokenType, message string) Token {
	if p.check(typ) {
		return p.advance()
	}
	tok := p.peek()
	p.errorAtToken(tok, "%s", message)
	return Token{Type: ILLEGAL, Start: tok.Start, End: tok.End, Line: tok.Line, Column: tok.Column}
}

func (p *Parser) skipLine() {
	if p.isAtEnd() {
		return
	}
	line := p.peek().Line
	for !p.isAtEnd() && p.peek().Line == line {
		p.advance()
	}
}

func (p *Parser) errorAtToken(tok Token, format string, args ...any) {
	pos := Position{Filename: p.ctx.filename, Line: tok.Line, Column: tok.Column}
	rng := p.calculateSourceRange(pos)
	p.errs = append(p.errs, newErrorfWithSource(pos, rng, format, args...))
}

func (p *Parser) calculateSourceRange(pos Position) SourceRange {
	lines := strings.Split(string(p.ctx.source), "\n")
	startLine := pos.Line - 3
	if startLine < 0 {
		startLine = 0
	}
	endLine := pos.Line + 1
	if endLine >= len(lines) {
		endLine = len(lines) - 1
	}

	startOffset := 0
	for i := 0; i < startLine; i++ {
		startOffset += len(lines[i]) + 1
	}
	endOffset := startOffset
	for i := startLine; i <= endLine && i < len(lines); i++ {
		endOffset += len(lines[i])
		if i < endLine {
			endOffset++
		}
	}
	if endOffset > len(p.ctx.source) {
		endOffset = len(p.ctx.source)
	}
	return SourceRange{StartOffset: startOffset, EndOffset: endOffset, Source: p.ctx.source[startOffset:endOffset]}
}
