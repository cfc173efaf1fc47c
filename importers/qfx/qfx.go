// Package qfx imports the SGML-like <TAG>value stream used by QFX/OFX bank
// exports into a state.State: one transaction plus two postings (the
// statement account and an Expenses:Unclassified suspense account) per
// <STMTTRN> block, and a balance verification from <LEDGERBAL> when
// present. No OFX/QFX library appears anywhere in the example corpus, so
// this is a hand-rolled scanner over the tag stream — the same
// standard-library carve-out importers/csv relies on.
package qfx

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/quietledger/beanledger/civil"
	"github.com/quietledger/beanledger/record"
	"github.com/quietledger/beanledger/state"
	"github.com/quietledger/beanledger/telemetry"
)

// SuspenseAccount is the contra account used for every imported
// transaction's balancing leg.
const SuspenseAccount = "Expenses:Unclassified"

// Warning records a <STMTTRN> block that could not be imported.
type Warning struct {
	Block int
	Err   error
}

func (w Warning) String() string {
	return fmt.Sprintf("qfx: transaction block %d: %v", w.Block, w.Err)
}

// tag is one <NAME>value line from the SGML stream.
type tag struct {
	name  string
	value string
}

// Import scans r for <STMTTRN> blocks and a trailing <LEDGERBAL>, appending
// a transaction and two postings per block into st under account. A
// malformed block is recorded as a Warning and skipped.
func Import(ctx context.Context, r io.Reader, st *state.State, account string) ([]Warning, error) {
	timer := telemetry.FromContext(ctx).Start("importers.qfx.import")
	defer timer.End()

	tags, err := scan(r)
	if err != nil {
		return nil, fmt.Errorf("qfx: %w", err)
	}

	var warnings []Warning
	blockNo := 0
	fileNo := st.ActiveFileNo()

	for i := 0; i < len(tags); i++ {
		select {
		case <-ctx.Done():
			return warnings, ctx.Err()
		default:
		}

		if tags[i].name != "STMTTRN" {
			continue
		}
		blockNo++
		end := i
		for end < len(tags) && tags[end].name != "/STMTTRN" {
			end++
		}
		block := tags[i+1 : end]
		i = end

		if err := importBlock(st, fileNo, account, block); err != nil {
			warnings = append(warnings, Warning{Block: blockNo, Err: err})
		}
	}

	if bal, ok := findLedgerBalance(tags); ok {
		stmtNo := st.NextStatementNo()
		st.AddVerification(&record.Verification{
			Provenance: record.Provenance{StatementNo: stmtNo, FileNo: fileNo},
			Date:       bal.date,
			Action:     record.Balance,
			Account:    account,
			Quantity:   bal.amount,
			Commodity:  bal.currency,
		})
	}

	return warnings, nil
}

func importBlock(st *state.State, fileNo int, account string, block []tag) error {
	fields := map[string]string{}
	for _, t := range block {
		fields[t.name] = t.value
	}

	dtposted, ok := fields["DTPOSTED"]
	if !ok {
		return fmt.Errorf("missing DTPOSTED")
	}
	date, err := parseOFXDate(dtposted)
	if err != nil {
		return err
	}
	amount, ok := fields["TRNAMT"]
	if !ok || amount == "" {
		return fmt.Errorf("missing TRNAMT")
	}
	currency := fields["CURDEF"]
	if currency == "" {
		currency = "USD"
	}
	narration := fields["NAME"]
	if narration == "" {
		narration = fields["MEMO"]
	}

	stmtNo := st.NextStatementNo()
	header := &record.Header{
		Provenance: record.Provenance{StatementNo: stmtNo, FileNo: fileNo},
		Date:       date,
		Narration:  narration,
	}
	st.AddTransaction(header)

	st.AddPosting(&record.Posting{
		Provenance:  record.Provenance{StatementNo: st.NextStatementNo(), FileNo: fileNo},
		Account:     account,
		CpQuantity:  amount,
		CpCommodity: currency,
		TcQuantity:  amount,
		TcCommodity: currency,
	})
	st.AddPosting(&record.Posting{
		Provenance: record.Provenance{StatementNo: st.NextStatementNo(), FileNo: fileNo},
		Account:    SuspenseAccount,
	})

	return nil
}

type ledgerBalance struct {
	date     civil.Date
	amount   string
	currency string
}

func findLedgerBalance(tags []tag) (ledgerBalance, bool) {
	start := -1
	for i, t := range tags {
		if t.name == "LEDGERBAL" {
			start = i
			break
		}
	}
	if start < 0 {
		return ledgerBalance{}, false
	}
	fields := map[string]string{}
	for i := start + 1; i < len(tags) && tags[i].name != "/LEDGERBAL"; i++ {
		fields[tags[i].name] = tags[i].value
	}
	balamt, ok := fields["BALAMT"]
	if !ok {
		return ledgerBalance{}, false
	}
	dtasof := fields["DTASOF"]
	date, err := parseOFXDate(dtasof)
	if err != nil {
		return ledgerBalance{}, false
	}
	currency := fields["CURDEF"]
	if currency == "" {
		currency = "USD"
	}
	return ledgerBalance{date: date, amount: balamt, currency: currency}, true
}

// parseOFXDate accepts the common YYYYMMDD[HHMMSS[.fff[[+-]TZ]]] form and
// keeps only the calendar date.
func parseOFXDate(s string) (civil.Date, error) {
	if len(s) < 8 {
		return civil.Date{}, fmt.Errorf("invalid OFX date %q", s)
	}
	return civil.Parse(s[0:4] + "-" + s[4:6] + "-" + s[6:8])
}

// scan tokenizes an SGML-like <TAG>value or <TAG> (with a matching </TAG>
// elsewhere) stream into a flat tag slice. Unlike XML, OFX/QFX SGML often
// omits closing tags on leaf elements, so this treats every "<TAG>rest" line
// as either an opening/closing structural tag (rest == "") or a leaf tag
// carrying rest as its value.
func scan(r io.Reader) ([]tag, error) {
	var tags []tag
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "<") {
			continue
		}
		closeIdx := strings.Index(line, ">")
		if closeIdx < 0 {
			continue
		}
		name := line[1:closeIdx]
		value := strings.TrimSpace(line[closeIdx+1:])
		tags = append(tags, tag{name: name, value: value})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return tags, nil
}
