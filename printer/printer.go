// Package printer renders a balance report as an aligned terminal table,
// adapting the teacher's formatter package's currency-column alignment
// technique (runewidth.StringWidth display-width measurement) to pad
// report columns instead of reformatting beancount source.
package printer

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/quietledger/beanledger/report"
)

// MinimumSpacing is the minimum number of spaces between columns.
const MinimumSpacing = 2

var headerStyle = lipgloss.NewStyle().Bold(true)

// PrintTable writes rows as a left-aligned Account/Commodity table with a
// right-aligned Total column, widths measured by display width so a header
// or account name containing wide runes still lines up.
func PrintTable(w io.Writer, rows []report.Row, basis report.Basis) {
	accountWidth := runewidth.StringWidth("Account")
	commodityWidth := runewidth.StringWidth("Commodity")
	totalWidth := runewidth.StringWidth("Total")

	totals := make([]string, len(rows))
	for i, r := range rows {
		accountWidth = max(accountWidth, runewidth.StringWidth(r.Account))
		commodityWidth = max(commodityWidth, runewidth.StringWidth(r.Commodity))
		totals[i] = r.Total.String()
		totalWidth = max(totalWidth, runewidth.StringWidth(totals[i]))
	}

	basisLabel := "trade cost"
	if basis == report.CostPrice {
		basisLabel = "cost price"
	}
	io.WriteString(w, headerStyle.Render(basisLabel)+"\n")

	writeRow(w, "Account", accountWidth, "Commodity", commodityWidth, "Total", totalWidth)
	writeRule(w, accountWidth, commodityWidth, totalWidth)

	for i, r := range rows {
		writeRow(w, r.Account, accountWidth, r.Commodity, commodityWidth, totals[i], totalWidth)
	}
}

func writeRow(w io.Writer, account string, accountWidth int, commodity string, commodityWidth int, total string, totalWidth int) {
	var b strings.Builder
	b.WriteString(padRight(account, accountWidth))
	b.WriteString(strings.Repeat(" ", MinimumSpacing))
	b.WriteString(padRight(commodity, commodityWidth))
	b.WriteString(strings.Repeat(" ", MinimumSpacing))
	b.WriteString(padLeft(total, totalWidth))
	b.WriteByte('\n')
	io.WriteString(w, b.String())
}

func writeRule(w io.Writer, widths ...int) {
	total := 0
	for _, width := range widths {
		total += width
	}
	total += MinimumSpacing * (len(widths) - 1)
	io.WriteString(w, strings.Repeat("-", total)+"\n")
}

func padRight(s string, width int) string {
	pad := width - runewidth.StringWidth(s)
	if pad <= 0 {
		return s
	}
	return s + strings.Repeat(" ", pad)
}

func padLeft(s string, width int) string {
	pad := width - runewidth.StringWidth(s)
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}
