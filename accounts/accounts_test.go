package accounts

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestClosureSingleAccount(t *testing.T) {
	result := Closure([]string{"Assets:Bank:Checking"})
	assert.Equal(t, []string{"Assets", "Assets:Bank", "Assets:Bank:Checking"}, result)
}

func TestClosureDeduplicatesSharedAncestors(t *testing.T) {
	result := Closure([]string{"Assets:Bank:Checking", "Assets:Bank:Savings"})
	assert.Equal(t, []string{"Assets", "Assets:Bank", "Assets:Bank:Checking", "Assets:Bank:Savings"}, result)
}

func TestClosureIsPrefixClosed(t *testing.T) {
	result := Closure([]string{"Expenses:Food:Coffee"})
	set := make(map[string]bool, len(result))
	for _, a := range result {
		set[a] = true
	}
	assert.True(t, set["Expenses"])
	assert.True(t, set["Expenses:Food"])
	assert.True(t, set["Expenses:Food:Coffee"])
}

func TestAnnotateComputesLevelAndStopNode(t *testing.T) {
	closure := Closure([]string{"Assets:Bank:Checking", "Assets:Bank:Savings", "Liabilities:CreditCard"})
	nodes := Annotate(closure)

	byAccount := make(map[string]Node, len(nodes))
	for _, n := range nodes {
		byAccount[n.Account] = n
	}

	assert.Equal(t, 1, byAccount["Assets"].Level)
	assert.Equal(t, 2, byAccount["Assets:Bank"].Level)
	assert.Equal(t, 3, byAccount["Assets:Bank:Checking"].Level)

	// Assets' subtree ends where Liabilities (level 1) begins.
	liabilitiesIdx := 0
	for i, n := range nodes {
		if n.Account == "Liabilities" {
			liabilitiesIdx = i + 1 // 1-based node id
		}
	}
	assert.Equal(t, liabilitiesIdx, byAccount["Assets"].StopNode)
}
