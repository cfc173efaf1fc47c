// Package record declares the normalized fact records that the grammar
// parser (and any other producer, such as a CSV or QFX importer) emits.
// Unlike a traditional parser, nothing in this package builds a syntax
// tree: every record stands alone, addressable by its provenance and,
// for postings, by the statement_no of its enclosing transaction header.
package record

import "github.com/quietledger/beanledger/civil"

// Provenance locates a record in the source file(s) it was parsed from.
type Provenance struct {
	StatementNo int // globally monotonic across the include forest
	FileNo      int // dense index into the file registry
	ByteStart   int
	ByteEnd     int
}

// VerificationAction enumerates the three non-mutating directives.
type VerificationAction int

const (
	Open VerificationAction = iota
	Close
	Balance
)

func (a VerificationAction) String() string {
	switch a {
	case Open:
		return "open"
	case Close:
		return "close"
	case Balance:
		return "balance"
	default:
		return "unknown"
	}
}

// InformationalAction enumerates the non-transactional, non-verification
// directives that carry free-form information.
type InformationalAction int

const (
	Event InformationalAction = iota
	Option
	Custom
)

func (a InformationalAction) String() string {
	switch a {
	case Event:
		return "event"
	case Option:
		return "option"
	case Custom:
		return "custom"
	default:
		return "unknown"
	}
}

// Header is a transaction header: a date, narration, and optional tags,
// identified by the statement_no of the line it was parsed from. Its postings reference this number as their transaction_no.
type Header struct {
	Provenance
	Date      civil.Date
	Narration string
	Tags      []string
}

// Posting is one leg of a transaction. cp_* is the cost-price leg (the
// native-commodity quantity); tc_* is the trade-cost leg (the
// booking-currency value). Either or both may be nil/empty until the
// Balancer fills them.
type Posting struct {
	Provenance
	TransactionNo int // statement_no of the enclosing Header

	Account string

	CpQuantity string // decimal literal as written; "" if omitted
	CpCommodity string

	TcQuantity  string
	TcCommodity string
}

// HasCp reports whether the cost-price leg was present in source.
func (p *Posting) HasCp() bool { return p.CpCommodity != "" }

// HasTc reports whether the posting has a trade-cost leg: from an @@
// clause, or copied from the cost-price leg when the clause is absent.
func (p *Posting) HasTc() bool { return p.TcCommodity != "" }

// Verification is an open/close/balance directive.
type Verification struct {
	Provenance
	Date      civil.Date
	Action    VerificationAction
	Account   string
	Quantity  string // only set for Balance
	Commodity string // only set for Balance
}

// Informational is an event/option/custom directive.
type Informational struct {
	Provenance
	Date      *civil.Date // nil for option, which carries no date
	Action    InformationalAction
	Attribute string // "" for custom, whose payload has no fixed attribute name
	Value     string
}

// Include is an include directive, recorded after the included file has
// been fully recursed into.
type Include struct {
	Provenance
	Path         string // as written in source
	ResolvedPath string
}
