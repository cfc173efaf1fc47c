package cli

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/alecthomas/kong"

	"github.com/quietledger/beanledger/accounts"
	"github.com/quietledger/beanledger/balance"
	"github.com/quietledger/beanledger/errs"
	"github.com/quietledger/beanledger/export"
	"github.com/quietledger/beanledger/facts"
	"github.com/quietledger/beanledger/printer"
	"github.com/quietledger/beanledger/report"
	"github.com/quietledger/beanledger/telemetry"
)

// ReadAllCmd implements spec §6's "readall <path>" surface: parse, verify
// and print account balances on both the cost-price and trade-cost bases.
type ReadAllCmd struct {
	File       FileOrStdin `help:"Beanfile input filename (use '-' for stdin, or omit for stdin)." arg:"" optional:""`
	ExportCSV  string      `help:"Write the balance report (trade-cost basis) as CSV to this path." name:"export-csv"`
	ExportJSON string      `help:"Write the balance report (trade-cost basis) as JSON to this path." name:"export-json"`
	JSON       bool        `help:"Render errors as JSON instead of styled text."`
}

func (cmd *ReadAllCmd) Run(ctx *kong.Context, globals *Globals) error {
	if err := cmd.File.EnsureContents(); err != nil {
		return err
	}

	runCtx := context.Background()

	var collector telemetry.Collector
	var rootTimer telemetry.Timer
	var once sync.Once
	reportTelemetry := func() {
		once.Do(func() {
			if collector != nil {
				rootTimer.End()
				_, _ = fmt.Fprintln(ctx.Stderr)
				collector.Report(ctx.Stderr)
			}
		})
	}

	if globals.Telemetry {
		collector = telemetry.NewTimingCollector()
		runCtx = telemetry.WithCollector(runCtx, collector)
		rootTimer = collector.Start(fmt.Sprintf("readall %s", cmd.File.Filename))
		runCtx = telemetry.WithRootTimer(runCtx, rootTimer)
		defer reportTelemetry()
	}

	result, err := cmd.File.Load(runCtx)
	if err != nil {
		renderErrs(ctx, cmd.JSON, []error{err})
		reportTelemetry()
		return NewCommandError(1)
	}

	if len(result.Errors) > 0 {
		generic := make([]error, len(result.Errors))
		for i, e := range result.Errors {
			generic[i] = e
		}
		renderErrs(ctx, cmd.JSON, generic)
		printError(ctx.Stderr, fmt.Sprintf("%d parse error(s) found", len(result.Errors)))
		reportTelemetry()
		return NewCommandError(1)
	}

	tables := facts.Materialize(result.State)

	balanceTimer := telemetry.FromContext(runCtx).Start("balance.run")
	balResult, err := balance.Balance(&tables.Postings)
	balanceTimer.End()
	if err != nil {
		return err
	}

	if len(balResult.Errors) > 0 {
		generic := make([]error, len(balResult.Errors))
		for i, e := range balResult.Errors {
			generic[i] = e
		}
		renderErrs(ctx, cmd.JSON, generic)
		printError(ctx.Stderr, fmt.Sprintf("%d unbalanced transaction(s)", len(balResult.Errors)))
	}

	leafAccounts := make([]string, tables.Postings.Len())
	copy(leafAccounts, tables.Postings.Account)
	closure := accounts.Closure(leafAccounts)

	reportTimer := telemetry.FromContext(runCtx).Start("report.run")
	cpReport := report.Report(closure, balResult.FinalPostings, report.CostPrice)
	tcReport := report.Report(closure, balResult.FinalPostings, report.TradeCost)
	reportTimer.End()

	printer.PrintTable(ctx.Stdout, cpReport, report.CostPrice)
	fmt.Fprintln(ctx.Stdout)
	printer.PrintTable(ctx.Stdout, tcReport, report.TradeCost)

	if cmd.ExportCSV != "" {
		if err := writeExport(cmd.ExportCSV, func(f *os.File) error { return export.WriteReportCSV(f, tcReport) }); err != nil {
			return err
		}
	}
	if cmd.ExportJSON != "" {
		if err := writeExport(cmd.ExportJSON, func(f *os.File) error { return export.WriteReportJSON(f, tcReport) }); err != nil {
			return err
		}
	}

	if len(balResult.Errors) > 0 {
		reportTelemetry()
		return NewCommandError(1)
	}

	printSuccess(ctx.Stdout, "readall passed")
	return nil
}

func writeExport(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file %q: %w", path, err)
	}
	defer f.Close()
	return write(f)
}

func renderErrs(ctx *kong.Context, asJSON bool, errList []error) {
	var formatter errs.Formatter
	if asJSON {
		formatter = errs.NewJSONFormatter()
	} else {
		formatter = errs.NewTextFormatter(isTerminal())
	}
	_, _ = fmt.Fprintln(ctx.Stderr, formatter.FormatAll(errList))
}
