// Package state implements the mutable accumulator threaded through
// parsing (spec §4.1). A State owns the file registry, the stack of
// active include contexts, the monotonic statement counter, and the five
// record accumulator vectors. Both the grammar parser and any external
// producer (a CSV or QFX importer) write into the same State.
package state

import "github.com/quietledger/beanledger/record"

// fileEntry is one row of the dense file registry.
type fileEntry struct {
	path string
}

// frame is one entry of the active-file stack.
type frame struct {
	fileNo int
	path   string
}

// State is the single mutable collector threaded through parsing. It is
// not safe for concurrent use — spec §4.1 requires one monotonic
// statement_no counter, which a concurrent include fan-out would corrupt.
type State struct {
	files   []fileEntry
	byPath  map[string]int // path -> file_no, for dense dedup
	lastPos map[int]int    // file_no -> last parsed byte offset

	fileStack []frame

	statementNo   int
	transactionNo int // snapshot of the enclosing header's statement_no

	Transactions   []*record.Header
	Postings       []*record.Posting
	Verifications  []*record.Verification
	Informationals []*record.Informational
	Includes       []*record.Include
}

// New creates an empty Parser State.
func New() *State {
	return &State{
		byPath:  make(map[string]int),
		lastPos: make(map[int]int),
	}
}

// RegisterFile assigns a dense file_no to path, reusing the existing
// file_no if path was already registered. File registry entries are never
// removed.
func (s *State) RegisterFile(path string) int {
	if no, ok := s.byPath[path]; ok {
		return no
	}
	no := len(s.files)
	s.files = append(s.files, fileEntry{path: path})
	s.byPath[path] = no
	return no
}

// FilePath returns the registered path for a file_no, or "" if unknown.
func (s *State) FilePath(fileNo int) string {
	if fileNo < 0 || fileNo >= len(s.files) {
		return ""
	}
	return s.files[fileNo].path
}

// activeFile returns the file_no of the innermost entry on the file
// stack. Panics if the stack is empty: calling Advance outside of an
// active file is a fatal programmer error (spec §4.1 "Failure").
func (s *State) activeFile() int {
	if len(s.fileStack) == 0 {
		panic("state: Advance called with no active file on the stack")
	}
	return s.fileStack[len(s.fileStack)-1].fileNo
}

// Advance implements the §4.1 contract at a statement boundary:
// statement_no absorbs the byte distance travelled in the active file
// since the last Advance, so statement numbers are strictly increasing
// within a file and strictly larger after an include.
func (s *State) Advance(byteStart int) int {
	fileNo := s.activeFile()
	prev := s.lastPos[fileNo]
	s.statementNo += byteStart - prev
	s.lastPos[fileNo] = byteStart
	return s.statementNo
}

// EnterInclude registers resolvedPath (if new) and pushes it onto the
// file stack as the active file, per spec §4.1.
func (s *State) EnterInclude(resolvedPath string) int {
	fileNo := s.RegisterFile(resolvedPath)
	s.fileStack = append(s.fileStack, frame{fileNo: fileNo, path: resolvedPath})
	s.lastPos[fileNo] = 0
	return fileNo
}

// FinishedInclude absorbs the tail of the included file's bytes into
// statement_no and pops the file stack, per spec §4.1.
func (s *State) FinishedInclude(totalBytes int) {
	s.Advance(totalBytes)
	s.fileStack = s.fileStack[:len(s.fileStack)-1]
}

// ActiveFileNo exposes the innermost file_no for producers that need to
// stamp provenance without calling Advance (e.g. an importer attaching
// records without a source-byte notion of position).
func (s *State) ActiveFileNo() int {
	if len(s.fileStack) == 0 {
		return -1
	}
	return s.activeFile()
}

// SetTransactionNo snapshots the statement_no of the header currently
// being parsed; postings emitted until the next header reference this
// value as their transaction_no.
func (s *State) SetTransactionNo(no int) {
	s.transactionNo = no
}

// TransactionNo returns the statement_no of the enclosing transaction
// header, for use by posting producers.
func (s *State) TransactionNo() int {
	return s.transactionNo
}

// NextStatementNo hands out a fresh, strictly increasing statement
// number without requiring a byte position — the accessor spec §6's
// "Importers interface" describes as "an atomic counter on Parser State".
// It is equivalent to Advance at a synthetic one-byte-per-call cadence,
// keeping imported records interleaved-monotonic with any records already
// accumulated.
func (s *State) NextStatementNo() int {
	s.statementNo++
	return s.statementNo
}

// AddTransaction appends a transaction header and sets it as the current
// transaction_no for subsequent postings.
func (s *State) AddTransaction(h *record.Header) {
	s.Transactions = append(s.Transactions, h)
	s.SetTransactionNo(h.StatementNo)
}

// AddPosting appends a posting, stamping its TransactionNo from the
// current enclosing header.
func (s *State) AddPosting(p *record.Posting) {
	p.TransactionNo = s.transactionNo
	s.Postings = append(s.Postings, p)
}

// AddVerification appends a verification record.
func (s *State) AddVerification(v *record.Verification) {
	s.Verifications = append(s.Verifications, v)
}

// AddInformational appends an informational record.
func (s *State) AddInformational(i *record.Informational) {
	s.Informationals = append(s.Informationals, i)
}

// AddInclude appends an include record.
func (s *State) AddInclude(i *record.Include) {
	s.Includes = append(s.Includes, i)
}
