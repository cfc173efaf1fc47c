// Package accounts builds the prefix closure of a set of posting accounts
// (spec §4.5): every proper ":'-separated ancestor of every referenced
// account, union'd with the originals, deduplicated and sorted.
package accounts

import (
	"sort"
	"strings"
)

// Closure returns the sorted, deduplicated set of leafAccounts plus every
// proper ancestor along ':' boundaries.
func Closure(leafAccounts []string) []string {
	seen := make(map[string]struct{}, len(leafAccounts)*2)

	for _, account := range leafAccounts {
		segments := strings.Split(account, ":")
		for n := 1; n <= len(segments); n++ {
			ancestor := strings.Join(segments[:n], ":")
			seen[ancestor] = struct{}{}
		}
	}

	result := make([]string, 0, len(seen))
	for account := range seen {
		result = append(result, account)
	}
	sort.Strings(result)
	return result
}

// Node annotates one account in the closure with its tree level and the
// index (1-based, into the sorted closure) of its stop node — the first
// later account whose level is ≤ its own — enabling range-based subtree
// queries (every descendant of node i lies in [i+1, stop_node_i)) without
// recursion.
type Node struct {
	Account  string
	Level    int
	StopNode int
}

// Annotate computes level and stop_node for every account in a
// closure-sorted slice. accounts must already be sorted ascending (the
// output of Closure satisfies this).
func Annotate(accounts []string) []Node {
	nodes := make([]Node, len(accounts))
	for i, account := range accounts {
		nodes[i] = Node{
			Account: account,
			Level:   strings.Count(account, ":") + 1,
		}
	}

	for i := range nodes {
		stop := len(nodes) + 1
		for j := i + 1; j < len(nodes); j++ {
			if nodes[j].Level <= nodes[i].Level {
				stop = j + 1
				break
			}
		}
		nodes[i].StopNode = stop
	}

	return nodes
}
