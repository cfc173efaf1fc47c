package balance

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/quietledger/beanledger/facts"
	"github.com/quietledger/beanledger/lexparse"
	"github.com/quietledger/beanledger/state"
)

func parsePostings(t *testing.T, src string) *facts.PostingBatch {
	t.Helper()
	st := state.New()
	p := lexparse.NewParser(st, nil)
	assert.NoError(t, p.ParseBytes([]byte(src), "main.beancount"))
	assert.Equal(t, 0, len(p.Errors()))
	return &facts.Materialize(st).Postings
}

func TestBalanceAlreadyBalancedTransactionPassesThrough(t *testing.T) {
	postings := parsePostings(t, "2024-01-01 * \"Coffee\"\n  Assets:Cash  -5.00 USD\n  Expenses:Food  5.00 USD\n")

	result, err := Balance(postings)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(result.Errors))
	assert.Equal(t, 2, len(result.FinalPostings))
	assert.Equal(t, "USD", result.FinalPostings[0].FinalTcCommodity)
}

func TestBalanceAutoFillsMissingLeg(t *testing.T) {
	postings := parsePostings(t, "2024-01-01 * \"Rent\"\n  Assets:Cash  -1000.00 USD\n  Expenses:Rent\n")

	result, err := Balance(postings)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(result.Errors))

	filled := result.FinalPostings[1]
	assert.Equal(t, "USD", filled.FinalCpCommodity)
	assert.Equal(t, "USD", filled.FinalTcCommodity)
	assert.Equal(t, "1000", filled.FinalCpQuantity.String())
	assert.Equal(t, "1000", filled.FinalTcQuantity.String())
}

func TestBalanceCrossCommodityTotalCost(t *testing.T) {
	postings := parsePostings(t, "2024-03-15 * \"Buy stock\"\n  Assets:Broker  10 AAPL @@ 1500.00 USD\n  Assets:Cash  -1500.00 USD\n")

	result, err := Balance(postings)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(result.Errors))

	first := result.FinalPostings[0]
	assert.Equal(t, "AAPL", first.FinalCpCommodity)
	assert.Equal(t, "USD", first.FinalTcCommodity)
	assert.Equal(t, "1500", first.FinalTcQuantity.String())
}

func TestBalanceDetectsUnbalancedTransaction(t *testing.T) {
	postings := parsePostings(t, "2024-01-01 * \"Oops\"\n  Assets:Cash  -5.00 USD\n  Expenses:Food  4.00 USD\n")

	result, err := Balance(postings)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(result.Errors))
	assert.Equal(t, "USD", result.Errors[0].Commodity)
	assert.Equal(t, "-1", result.Errors[0].Total.String())
}

func TestBalanceMultiCommodityTransactionEachSumsIndependently(t *testing.T) {
	postings := parsePostings(t, ""+
		"2024-01-01 * \"Mixed\"\n"+
		"  Assets:Cash      -5.00 USD\n"+
		"  Expenses:Food     5.00 USD\n"+
		"  Assets:Wallet    -3.00 EUR\n"+
		"  Expenses:Coffee   3.00 EUR\n")

	result, err := Balance(postings)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(result.Errors))
}
