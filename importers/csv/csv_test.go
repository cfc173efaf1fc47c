package csv

import (
	"context"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/quietledger/beanledger/balance"
	"github.com/quietledger/beanledger/facts"
	"github.com/quietledger/beanledger/state"
)

func TestImportAppendsBalancedTransactionPerRow(t *testing.T) {
	src := "Date,Description,Amount\n" +
		"2024-01-05,Coffee,-4.50\n" +
		"2024-01-06,Paycheck,2000\n"

	st := state.New()
	st.EnterInclude("import.csv")

	cfg := Config{
		HasHeader:        true,
		DateColumn:       0,
		NarrationColumn:  1,
		AmountColumn:     2,
		CommodityColumn:  -1,
		CommodityDefault: "USD",
		Account:          "Assets:Bank:Checking",
		ContraAccount:    "Expenses:Unclassified",
	}

	warnings, err := Import(context.Background(), strings.NewReader(src), st, cfg)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(warnings))
	assert.Equal(t, 2, len(st.Transactions))
	assert.Equal(t, 4, len(st.Postings))

	tables := facts.Materialize(st)
	result, err := balance.Balance(&tables.Postings)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(result.Errors))
}

func TestImportSkipsMalformedRowAsWarning(t *testing.T) {
	src := "2024-01-05,Coffee,-4.50\n" +
		"not-a-date,Broken,oops\n" +
		"2024-01-06,Paycheck,2000\n"

	st := state.New()
	st.EnterInclude("import.csv")

	cfg := Config{
		DateColumn:       0,
		NarrationColumn:  1,
		AmountColumn:     2,
		CommodityColumn:  -1,
		CommodityDefault: "USD",
		Account:          "Assets:Bank:Checking",
		ContraAccount:    "Expenses:Unclassified",
	}

	warnings, err := Import(context.Background(), strings.NewReader(src), st, cfg)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(warnings))
	assert.Equal(t, 2, warnings[0].Row)
	assert.Equal(t, 2, len(st.Transactions))
}
