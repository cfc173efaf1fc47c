// Package balance implements the Balancer (spec §4.4): it infers the
// missing leg of under-specified postings by requiring every commodity's
// trade-cost quantities to sum to zero within a transaction, and reports
// any transaction that still fails to balance after that inference.
package balance

import (
	"fmt"
	"sort"

	"github.com/quietledger/beanledger/facts"
	"github.com/shopspring/decimal"
)

// scale is the canonical stored decimal scale; all sums and residuals are
// rounded to it (round-half-even) before being compared or coalesced.
const scale = 2

// FinalPosting is a posting after the Balancer's coalesce pass: both legs
// are guaranteed non-null.
type FinalPosting struct {
	StatementNo      int
	TransactionNo    int
	FileNo           int
	Account          string
	FinalCpQuantity  decimal.Decimal
	FinalCpCommodity string
	FinalTcQuantity  decimal.Decimal
	FinalTcCommodity string
}

// Error reports a transaction/commodity pair that does not sum to zero
// (or has no designated commodity at all) after the coalesce pass.
type Error struct {
	TransactionNo int
	Commodity     string // "" when no commodity could be determined
	Total         decimal.Decimal
}

func (e Error) Error() string {
	if e.Commodity == "" {
		return fmt.Sprintf("transaction %d: indeterminate residual commodity", e.TransactionNo)
	}
	return fmt.Sprintf("transaction %d: %s does not sum to zero (residual %s)", e.TransactionNo, e.Commodity, e.Total)
}

// Result is the output of Balance: the fully-populated postings and any
// balance errors found along the way.
type Result struct {
	FinalPostings []FinalPosting
	Errors        []Error
}

type residual struct {
	commodity string
	total     decimal.Decimal
}

// Balance runs the four-step query plan described in spec §4.4 over a
// postings batch.
func Balance(postings *facts.PostingBatch) (*Result, error) {
	sums := map[int]map[string]decimal.Decimal{} // transaction_no -> commodity -> Σ tc_quantity

	for i := 0; i < postings.Len(); i++ {
		commodity := postings.TcCommodity[i]
		if commodity == "" {
			continue
		}
		qty, err := decimal.NewFromString(postings.TcQuantity[i])
		if err != nil {
			return nil, fmt.Errorf("balance: posting %d: invalid tc_quantity %q: %w", postings.StatementNo[i], postings.TcQuantity[i], err)
		}
		txn := postings.TransactionNo[i]
		if sums[txn] == nil {
			sums[txn] = map[string]decimal.Decimal{}
		}
		sums[txn][commodity] = sums[txn][commodity].Add(qty)
	}

	// Step 2: designated residual commodity per transaction — the
	// lexicographically smallest commodity among those whose sum is
	// non-zero, negated to become the amount that balances the
	// transaction.
	residuals := map[int]residual{}
	for txn, byCommodity := range sums {
		var nonZero []string
		for commodity, total := range byCommodity {
			if !total.RoundBank(scale).IsZero() {
				nonZero = append(nonZero, commodity)
			}
		}
		if len(nonZero) == 0 {
			continue
		}
		sort.Strings(nonZero)
		chosen := nonZero[0]
		residuals[txn] = residual{
			commodity: chosen,
			total:     byCommodity[chosen].Neg().RoundBank(scale),
		}
	}

	// Step 3: coalesce. A posting with no legs at all (cp_commodity ==
	// "", which per the posting emission rule implies tc_commodity == ""
	// too) is filled entirely from its transaction's residual.
	final := make([]FinalPosting, 0, postings.Len())
	for i := 0; i < postings.Len(); i++ {
		txn := postings.TransactionNo[i]
		cpCommodity, cpQuantity := postings.CpCommodity[i], postings.CpQuantity[i]
		tcCommodity, tcQuantity := postings.TcCommodity[i], postings.TcQuantity[i]

		if cpCommodity == "" {
			if res, ok := residuals[txn]; ok {
				cpCommodity, tcCommodity = res.commodity, res.commodity
				fp := FinalPosting{
					StatementNo:      postings.StatementNo[i],
					TransactionNo:    txn,
					FileNo:           postings.FileNo[i],
					Account:          postings.Account[i],
					FinalCpCommodity: cpCommodity,
					FinalCpQuantity:  res.total,
					FinalTcCommodity: tcCommodity,
					FinalTcQuantity:  res.total,
				}
				final = append(final, fp)
				continue
			}
		}

		cpQty, err := parseOrZero(cpQuantity)
		if err != nil {
			return nil, fmt.Errorf("balance: posting %d: invalid cp_quantity %q: %w", postings.StatementNo[i], cpQuantity, err)
		}
		tcQty, err := parseOrZero(tcQuantity)
		if err != nil {
			return nil, fmt.Errorf("balance: posting %d: invalid tc_quantity %q: %w", postings.StatementNo[i], tcQuantity, err)
		}

		final = append(final, FinalPosting{
			StatementNo:      postings.StatementNo[i],
			TransactionNo:    txn,
			FileNo:           postings.FileNo[i],
			Account:          postings.Account[i],
			FinalCpCommodity: cpCommodity,
			FinalCpQuantity:  cpQty.RoundBank(scale),
			FinalTcCommodity: tcCommodity,
			FinalTcQuantity:  tcQty.RoundBank(scale),
		})
	}

	// Step 4: group final_postings by (transaction_no, final_tc_commodity)
	// and flag any group that doesn't sum to zero, or has no commodity.
	type key struct {
		txn       int
		commodity string
	}
	grouped := map[key]decimal.Decimal{}
	order := []key{}
	for _, fp := range final {
		k := key{fp.TransactionNo, fp.FinalTcCommodity}
		if _, seen := grouped[k]; !seen {
			order = append(order, k)
		}
		grouped[k] = grouped[k].Add(fp.FinalTcQuantity)
	}

	var errs []Error
	for _, k := range order {
		total := grouped[k].RoundBank(scale)
		if k.commodity == "" || !total.IsZero() {
			errs = append(errs, Error{TransactionNo: k.txn, Commodity: k.commodity, Total: total})
		}
	}

	return &Result{FinalPostings: final, Errors: errs}, nil
}

func parseOrZero(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
