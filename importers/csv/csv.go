// Package csv imports a column-mapped brokerage or bank CSV export into a
// state.State, one transaction header plus two postings per row
// (spec.md §6's "Importers interface"). No third-party CSV library appears
// anywhere in the example corpus, so this uses encoding/csv directly — the
// carve-out the corpus's own standard-library justification policy allows
// at a system boundary parsing an untrusted external file format.
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/quietledger/beanledger/civil"
	"github.com/quietledger/beanledger/record"
	"github.com/quietledger/beanledger/state"
	"github.com/quietledger/beanledger/telemetry"
	"github.com/shopspring/decimal"
)

// importScale is the decimal scale imported amounts are read at; the
// Balancer re-scales everything to its own canonical scale at the final
// projection, so the importer does not need to agree with it.
const importScale = 3

// Config maps CSV columns to the fields of an imported posting. Columns
// are zero-based indices into each row.
type Config struct {
	HasHeader bool

	DateColumn       int
	NarrationColumn  int
	AmountColumn     int
	CommodityColumn  int
	CommodityDefault string // used when CommodityColumn < 0

	// Account is the statement account every row posts against.
	Account string
	// ContraAccount receives the auto-balanced residual leg of every
	// transaction (e.g. "Expenses:Unclassified" or an income account).
	ContraAccount string
}

// Warning records a row that was skipped because it could not be parsed.
type Warning struct {
	Row int
	Err error
}

func (w Warning) String() string {
	return fmt.Sprintf("csv: row %d: %v", w.Row, w.Err)
}

// Import reads CSV rows from r and appends a transaction header plus two
// postings (the statement account leg and the contra leg, left for the
// Balancer to fill in) per row into st. A malformed row is recorded as a
// Warning and skipped; it never produces a posting without its header.
func Import(ctx context.Context, r io.Reader, st *state.State, cfg Config) ([]Warning, error) {
	timer := telemetry.FromContext(ctx).Start("importers.csv.import")
	defer timer.End()

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var warnings []Warning
	rowNo := 0

	if cfg.HasHeader {
		if _, err := reader.Read(); err != nil && err != io.EOF {
			return nil, fmt.Errorf("csv: reading header row: %w", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return warnings, ctx.Err()
		default:
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNo++
		if err != nil {
			warnings = append(warnings, Warning{Row: rowNo, Err: err})
			continue
		}

		if err := importRow(st, cfg, row); err != nil {
			warnings = append(warnings, Warning{Row: rowNo, Err: err})
			continue
		}
	}

	return warnings, nil
}

func importRow(st *state.State, cfg Config, row []string) error {
	if cfg.DateColumn >= len(row) || cfg.NarrationColumn >= len(row) || cfg.AmountColumn >= len(row) {
		return fmt.Errorf("row has %d columns, need at least %d/%d/%d", len(row), cfg.DateColumn, cfg.NarrationColumn, cfg.AmountColumn)
	}

	date, err := civil.Parse(row[cfg.DateColumn])
	if err != nil {
		return err
	}

	commodity := cfg.CommodityDefault
	if cfg.CommodityColumn >= 0 {
		if cfg.CommodityColumn >= len(row) {
			return fmt.Errorf("row has %d columns, need commodity column %d", len(row), cfg.CommodityColumn)
		}
		commodity = row[cfg.CommodityColumn]
	}
	if commodity == "" {
		return fmt.Errorf("no commodity: neither CommodityColumn nor CommodityDefault produced one")
	}

	amount, err := parseAmount(row[cfg.AmountColumn])
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", row[cfg.AmountColumn], err)
	}

	fileNo := st.ActiveFileNo()
	stmtNo := st.NextStatementNo()

	header := &record.Header{
		Provenance: record.Provenance{StatementNo: stmtNo, FileNo: fileNo},
		Date:       date,
		Narration:  row[cfg.NarrationColumn],
	}
	st.AddTransaction(header)

	st.AddPosting(&record.Posting{
		Provenance:  record.Provenance{StatementNo: st.NextStatementNo(), FileNo: fileNo},
		Account:     cfg.Account,
		CpQuantity:  amount,
		CpCommodity: commodity,
		TcQuantity:  amount,
		TcCommodity: commodity,
	})
	st.AddPosting(&record.Posting{
		Provenance: record.Provenance{StatementNo: st.NextStatementNo(), FileNo: fileNo},
		Account:    cfg.ContraAccount,
	})

	return nil
}

// parseAmount validates and normalizes the field to importScale, catching a
// misconfigured amount column before it reaches the Balancer.
func parseAmount(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("empty amount field")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return "", err
	}
	return d.RoundBank(importScale).String(), nil
}
