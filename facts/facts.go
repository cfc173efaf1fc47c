// Package facts materializes the five accumulator vectors of a parsed
// state.State into columnar record batches with a fixed schema (spec
// §4.3). Nothing downstream touches state.State directly — the Balancer,
// Account Hierarchy Builder and Balance Reporter consume only these
// batches, open-coding their relational operators (group-by, join,
// cross-join) over the primitive arrays below, since no embedded columnar
// engine appears anywhere in the surrounding stack.
package facts

import (
	"github.com/quietledger/beanledger/civil"
	"github.com/quietledger/beanledger/state"
)

// TransactionBatch is the columnar form of the transaction-header vector.
type TransactionBatch struct {
	StatementNo []int
	FileNo      []int
	Start       []int
	End         []int
	Date        []civil.Date
	Narration   []string
	Tags        [][]string
}

func (b *TransactionBatch) Len() int { return len(b.StatementNo) }

// PostingBatch is the columnar form of the posting vector, as parsed
// (cp_*/tc_* may be empty strings — the Balancer fills final_* separately).
type PostingBatch struct {
	StatementNo   []int
	TransactionNo []int
	FileNo        []int
	Start         []int
	End           []int
	Account       []string
	CpQuantity    []string
	CpCommodity   []string
	TcQuantity    []string
	TcCommodity   []string
}

func (b *PostingBatch) Len() int { return len(b.StatementNo) }

// VerificationBatch is the columnar form of open/close/balance directives.
type VerificationBatch struct {
	StatementNo []int
	FileNo      []int
	Start       []int
	End         []int
	Date        []civil.Date
	Action      []int // record.VerificationAction
	Account     []string
	Quantity    []string
	Commodity   []string
}

func (b *VerificationBatch) Len() int { return len(b.StatementNo) }

// InformationalBatch is the columnar form of event/option/custom directives.
type InformationalBatch struct {
	StatementNo []int
	FileNo      []int
	Start       []int
	End         []int
	HasDate     []bool
	Date        []civil.Date
	Action      []int // record.InformationalAction
	Attribute   []string
	Value       []string
}

func (b *InformationalBatch) Len() int { return len(b.StatementNo) }

// IncludeBatch is the columnar form of include directives.
type IncludeBatch struct {
	StatementNo  []int
	FileNo       []int
	Start        []int
	End          []int
	Path         []string
	ResolvedPath []string
}

func (b *IncludeBatch) Len() int { return len(b.StatementNo) }

// Tables holds the five materialized record batches for one completed
// parse (including every file reached through include).
type Tables struct {
	Transactions   TransactionBatch
	Postings       PostingBatch
	Verifications  VerificationBatch
	Informationals InformationalBatch
	Includes       IncludeBatch
}

// Materialize snapshots a state.State's accumulator vectors into Tables.
// The source State is not retained or mutated further.
func Materialize(st *state.State) *Tables {
	t := &Tables{}

	for _, h := range st.Transactions {
		t.Transactions.StatementNo = append(t.Transactions.StatementNo, h.StatementNo)
		t.Transactions.FileNo = append(t.Transactions.FileNo, h.FileNo)
		t.Transactions.Start = append(t.Transactions.Start, h.ByteStart)
		t.Transactions.End = append(t.Transactions.End, h.ByteEnd)
		t.Transactions.Date = append(t.Transactions.Date, h.Date)
		t.Transactions.Narration = append(t.Transactions.Narration, h.Narration)
		t.Transactions.Tags = append(t.Transactions.Tags, h.Tags)
	}

	for _, p := range st.Postings {
		t.Postings.StatementNo = append(t.Postings.StatementNo, p.StatementNo)
		t.Postings.TransactionNo = append(t.Postings.TransactionNo, p.TransactionNo)
		t.Postings.FileNo = append(t.Postings.FileNo, p.FileNo)
		t.Postings.Start = append(t.Postings.Start, p.ByteStart)
		t.Postings.End = append(t.Postings.End, p.ByteEnd)
		t.Postings.Account = append(t.Postings.Account, p.Account)
		t.Postings.CpQuantity = append(t.Postings.CpQuantity, p.CpQuantity)
		t.Postings.CpCommodity = append(t.Postings.CpCommodity, p.CpCommodity)
		t.Postings.TcQuantity = append(t.Postings.TcQuantity, p.TcQuantity)
		t.Postings.TcCommodity = append(t.Postings.TcCommodity, p.TcCommodity)
	}

	for _, v := range st.Verifications {
		t.Verifications.StatementNo = append(t.Verifications.StatementNo, v.StatementNo)
		t.Verifications.FileNo = append(t.Verifications.FileNo, v.FileNo)
		t.Verifications.Start = append(t.Verifications.Start, v.ByteStart)
		t.Verifications.End = append(t.Verifications.End, v.ByteEnd)
		t.Verifications.Date = append(t.Verifications.Date, v.Date)
		t.Verifications.Action = append(t.Verifications.Action, int(v.Action))
		t.Verifications.Account = append(t.Verifications.Account, v.Account)
		t.Verifications.Quantity = append(t.Verifications.Quantity, v.Quantity)
		t.Verifications.Commodity = append(t.Verifications.Commodity, v.Commodity)
	}

	for _, i := range st.Informationals {
		t.Informationals.StatementNo = append(t.Informationals.StatementNo, i.StatementNo)
		t.Informationals.FileNo = append(t.Informationals.FileNo, i.FileNo)
		t.Informationals.Start = append(t.Informationals.Start, i.ByteStart)
		t.Informationals.End = append(t.Informationals.End, i.ByteEnd)
		if i.Date != nil {
			t.Informationals.HasDate = append(t.Informationals.HasDate, true)
			t.Informationals.Date = append(t.Informationals.Date, *i.Date)
		} else {
			t.Informationals.HasDate = append(t.Informationals.HasDate, false)
			t.Informationals.Date = append(t.Informationals.Date, civil.Date{})
		}
		t.Informationals.Action = append(t.Informationals.Action, int(i.Action))
		t.Informationals.Attribute = append(t.Informationals.Attribute, i.Attribute)
		t.Informationals.Value = append(t.Informationals.Value, i.Value)
	}

	for _, inc := range st.Includes {
		t.Includes.StatementNo = append(t.Includes.StatementNo, inc.StatementNo)
		t.Includes.FileNo = append(t.Includes.FileNo, inc.FileNo)
		t.Includes.Start = append(t.Includes.Start, inc.ByteStart)
		t.Includes.End = append(t.Includes.End, inc.ByteEnd)
		t.Includes.Path = append(t.Includes.Path, inc.Path)
		t.Includes.ResolvedPath = append(t.Includes.ResolvedPath, inc.ResolvedPath)
	}

	return t
}
