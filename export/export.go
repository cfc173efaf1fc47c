// Package export serializes fact tables and balance reports to CSV and
// JSON, using encoding/csv and encoding/json directly: no serialization
// library for either format appears anywhere in the example corpus (see
// DESIGN.md).
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/quietledger/beanledger/facts"
	"github.com/quietledger/beanledger/report"
)

// WriteTransactionsCSV writes one row per transaction header.
func WriteTransactionsCSV(w io.Writer, t *facts.TransactionBatch) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()
	if err := cw.Write([]string{"statement_no", "file_no", "date", "narration", "tags"}); err != nil {
		return err
	}
	for i := 0; i < t.Len(); i++ {
		row := []string{
			itoa(t.StatementNo[i]),
			itoa(t.FileNo[i]),
			t.Date[i].String(),
			t.Narration[i],
			joinTags(t.Tags[i]),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return cw.Error()
}

// WritePostingsCSV writes one row per posting.
func WritePostingsCSV(w io.Writer, p *facts.PostingBatch) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()
	if err := cw.Write([]string{
		"statement_no", "transaction_no", "file_no", "account",
		"cp_quantity", "cp_commodity", "tc_quantity", "tc_commodity",
	}); err != nil {
		return err
	}
	for i := 0; i < p.Len(); i++ {
		row := []string{
			itoa(p.StatementNo[i]),
			itoa(p.TransactionNo[i]),
			itoa(p.FileNo[i]),
			p.Account[i],
			p.CpQuantity[i],
			p.CpCommodity[i],
			p.TcQuantity[i],
			p.TcCommodity[i],
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return cw.Error()
}

// WriteReportCSV writes one row per (account, commodity) report total.
func WriteReportCSV(w io.Writer, rows []report.Row) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()
	if err := cw.Write([]string{"account", "commodity", "total"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.Account, r.Commodity, r.Total.String()}); err != nil {
			return err
		}
	}
	return cw.Error()
}

// reportRowJSON is the wire shape for a report.Row, with the total carried
// as a JSON string (decimal.Decimal.String()) so downstream consumers
// never lose precision to a float64 round-trip.
type reportRowJSON struct {
	Account   string `json:"account"`
	Commodity string `json:"commodity"`
	Total     string `json:"total"`
}

// WriteReportJSON writes rows as a JSON array of {account, commodity, total}.
func WriteReportJSON(w io.Writer, rows []report.Row) error {
	out := make([]reportRowJSON, len(rows))
	for i, r := range rows {
		out[i] = reportRowJSON{Account: r.Account, Commodity: r.Commodity, Total: r.Total.String()}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// transactionJSON and postingJSON mirror facts.TransactionBatch and
// facts.PostingBatch row-wise, for consumers that want row-major JSON
// instead of the parser's column-major in-memory representation.
type transactionJSON struct {
	StatementNo int      `json:"statement_no"`
	FileNo      int      `json:"file_no"`
	Date        string   `json:"date"`
	Narration   string   `json:"narration"`
	Tags        []string `json:"tags,omitempty"`
}

type postingJSON struct {
	StatementNo   int    `json:"statement_no"`
	TransactionNo int    `json:"transaction_no"`
	FileNo        int    `json:"file_no"`
	Account       string `json:"account"`
	CpQuantity    string `json:"cp_quantity,omitempty"`
	CpCommodity   string `json:"cp_commodity,omitempty"`
	TcQuantity    string `json:"tc_quantity,omitempty"`
	TcCommodity   string `json:"tc_commodity,omitempty"`
}

// WriteTransactionsJSON writes one JSON object per transaction header.
func WriteTransactionsJSON(w io.Writer, t *facts.TransactionBatch) error {
	out := make([]transactionJSON, t.Len())
	for i := range out {
		out[i] = transactionJSON{
			StatementNo: t.StatementNo[i],
			FileNo:      t.FileNo[i],
			Date:        t.Date[i].String(),
			Narration:   t.Narration[i],
			Tags:        t.Tags[i],
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// WritePostingsJSON writes one JSON object per posting.
func WritePostingsJSON(w io.Writer, p *facts.PostingBatch) error {
	out := make([]postingJSON, p.Len())
	for i := range out {
		out[i] = postingJSON{
			StatementNo:   p.StatementNo[i],
			TransactionNo: p.TransactionNo[i],
			FileNo:        p.FileNo[i],
			Account:       p.Account[i],
			CpQuantity:    p.CpQuantity[i],
			CpCommodity:   p.CpCommodity[i],
			TcQuantity:    p.TcQuantity[i],
			TcCommodity:   p.TcCommodity[i],
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func joinTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	s := tags[0]
	for _, t := range tags[1:] {
		s += ";" + t
	}
	return s
}
