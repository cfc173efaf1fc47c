// Package report implements the Balance Reporter (spec §4.6): for every
// (ancestor account, commodity) pair it sums the postings of every leaf
// account nested under that ancestor, on either the cost-price or the
// trade-cost basis.
package report

import (
	"sort"

	"github.com/quietledger/beanledger/balance"
	"github.com/shopspring/decimal"
)

// Basis selects which leg of a final posting a report sums.
type Basis int

const (
	CostPrice Basis = iota
	TradeCost
)

// Row is one (account, commodity) total in a report.
type Row struct {
	Account   string
	Commodity string
	Total     decimal.Decimal
}

type leafKey struct {
	account   string
	commodity string
}

// Report groups final postings by the chosen basis and rolls the result
// up through the given account closure (the output of accounts.Closure),
// producing one row per (ancestor, commodity) pair that has at least one
// posting under it, sorted ascending. Pairs with no posting get no row.
func Report(closure []string, finalPostings []balance.FinalPosting, basis Basis) []Row {
	totals := map[leafKey]decimal.Decimal{}
	commoditySet := map[string]struct{}{}

	for _, fp := range finalPostings {
		var account, commodity string
		var qty decimal.Decimal
		switch basis {
		case CostPrice:
			account, commodity, qty = fp.Account, fp.FinalCpCommodity, fp.FinalCpQuantity
		case TradeCost:
			account, commodity, qty = fp.Account, fp.FinalTcCommodity, fp.FinalTcQuantity
		}
		if commodity == "" {
			continue
		}
		k := leafKey{account, commodity}
		totals[k] = totals[k].Add(qty)
		commoditySet[commodity] = struct{}{}
	}

	commodities := make([]string, 0, len(commoditySet))
	for c := range commoditySet {
		commodities = append(commodities, c)
	}
	sort.Strings(commodities)

	type ancestorKey struct {
		ancestor  string
		commodity string
	}
	grouped := map[ancestorKey]decimal.Decimal{}

	for _, ancestor := range closure {
		for _, commodity := range commodities {
			var sum decimal.Decimal
			matched := false
			for _, leaf := range closure {
				if !hasAccountPrefix(leaf, ancestor) {
					continue
				}
				if total, ok := totals[leafKey{leaf, commodity}]; ok {
					sum = sum.Add(total)
					matched = true
				}
			}
			if matched {
				grouped[ancestorKey{ancestor, commodity}] = sum
			}
		}
	}

	rows := make([]Row, 0, len(grouped))
	for k, total := range grouped {
		rows = append(rows, Row{Account: k.ancestor, Commodity: k.commodity, Total: total})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Account != rows[j].Account {
			return rows[i].Account < rows[j].Account
		}
		return rows[i].Commodity < rows[j].Commodity
	})

	return rows
}

// hasAccountPrefix is a textual prefix match, correct only because the
// account closure is already ':'-boundary-closed; it does not itself
// enforce a ':' boundary after the shared prefix (spec §9).
func hasAccountPrefix(leaf, ancestor string) bool {
	return len(leaf) >= len(ancestor) && leaf[:len(ancestor)] == ancestor
}
