package cli

import (
	"bytes"
	"context"
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/quietledger/beanledger/accounts"
	"github.com/quietledger/beanledger/balance"
	"github.com/quietledger/beanledger/errs"
	"github.com/quietledger/beanledger/facts"
	"github.com/quietledger/beanledger/importers/csv"
	"github.com/quietledger/beanledger/importers/qfx"
	"github.com/quietledger/beanledger/printer"
	"github.com/quietledger/beanledger/report"
	"github.com/quietledger/beanledger/state"
)

// ImportCmd groups the third-party statement importers (spec §6's
// "Importers interface"): each populates the same normalized record model
// a beanfile parse would, then runs through the identical Balancer and
// Reporter.
type ImportCmd struct {
	Csv ImportCsvCmd `cmd:"" help:"Import a column-mapped brokerage/bank CSV export."`
	Qfx ImportQfxCmd `cmd:"" help:"Import a QFX/OFX bank statement export."`
}

// ImportCsvCmd maps CSV columns per csv.Config and runs the resulting
// transactions through Balance/accounts/report.
type ImportCsvCmd struct {
	File             FileOrStdin `arg:"" optional:"" help:"CSV file to import (use '-' for stdin, or omit for stdin)."`
	Account          string      `required:"" help:"Statement account every row posts against, e.g. Assets:Bank:Checking."`
	ContraAccount    string      `required:"" help:"Account receiving the auto-balanced residual leg of every row." name:"contra"`
	HasHeader        bool        `help:"First row is a column header and should be skipped." default:"true"`
	DateColumn       int         `default:"0"`
	NarrationColumn  int         `name:"narration-column" default:"1"`
	AmountColumn     int         `name:"amount-column" default:"2"`
	CommodityColumn  int         `name:"commodity-column" default:"-1" help:"Column index for the commodity, or -1 to use --commodity-default."`
	CommodityDefault string      `name:"commodity-default" default:"USD"`
	JSON             bool        `help:"Render errors as JSON instead of styled text."`
}

func (cmd *ImportCsvCmd) Run(ctx *kong.Context, globals *Globals) error {
	if err := cmd.File.EnsureContents(); err != nil {
		return err
	}
	content, err := cmd.File.GetSourceContent()
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	accountStub, err := ensureAccountOpen(cmd.Account)
	if err != nil {
		return err
	}
	if accountStub {
		printInfof(ctx.Stdout, "using account %s for this import", pathStyle.Render(cmd.Account))
	}

	st := state.New()
	warnings, err := csv.Import(context.Background(), bytesReader(content), st, csv.Config{
		HasHeader:        cmd.HasHeader,
		DateColumn:       cmd.DateColumn,
		NarrationColumn:  cmd.NarrationColumn,
		AmountColumn:     cmd.AmountColumn,
		CommodityColumn:  cmd.CommodityColumn,
		CommodityDefault: cmd.CommodityDefault,
		Account:          cmd.Account,
		ContraAccount:    cmd.ContraAccount,
	})
	if err != nil {
		return err
	}
	for _, w := range warnings {
		printInfof(ctx.Stderr, "%s", w.String())
	}

	return runImportedPipeline(ctx, cmd.JSON, st)
}

// ImportQfxCmd imports a QFX/OFX <STMTTRN> stream against a single account.
type ImportQfxCmd struct {
	File    FileOrStdin `arg:"" optional:"" help:"QFX/OFX file to import (use '-' for stdin, or omit for stdin)."`
	Account string      `required:"" help:"Statement account the QFX file belongs to."`
	JSON    bool        `help:"Render errors as JSON instead of styled text."`
}

func (cmd *ImportQfxCmd) Run(ctx *kong.Context, globals *Globals) error {
	if err := cmd.File.EnsureContents(); err != nil {
		return err
	}
	content, err := cmd.File.GetSourceContent()
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	st := state.New()
	warnings, err := qfx.Import(context.Background(), bytesReader(content), st, cmd.Account)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		printInfof(ctx.Stderr, "%s", w.String())
	}

	return runImportedPipeline(ctx, cmd.JSON, st)
}

// runImportedPipeline runs the same Balance/accounts/report sequence a
// beanfile readall does, over records an importer appended directly.
func runImportedPipeline(ctx *kong.Context, asJSON bool, st *state.State) error {
	tables := facts.Materialize(st)

	balResult, err := balance.Balance(&tables.Postings)
	if err != nil {
		return err
	}
	if len(balResult.Errors) > 0 {
		generic := make([]error, len(balResult.Errors))
		for i, e := range balResult.Errors {
			generic[i] = e
		}
		renderErrs(ctx, asJSON, generic)
		printError(ctx.Stderr, fmt.Sprintf("%d unbalanced transaction(s)", len(balResult.Errors)))
	}

	leafAccounts := make([]string, tables.Postings.Len())
	copy(leafAccounts, tables.Postings.Account)
	closure := accounts.Closure(leafAccounts)

	tcReport := report.Report(closure, balResult.FinalPostings, report.TradeCost)
	printer.PrintTable(ctx.Stdout, tcReport, report.TradeCost)

	if len(balResult.Errors) > 0 {
		return NewCommandError(1)
	}
	printSuccess(ctx.Stdout, "import passed")
	return nil
}

// ensureAccountOpen asks, for an interactive terminal only, whether to
// continue with an account that no `open` directive declares, and returns
// the answer (false when stdin is not a terminal). It writes no `open`
// directive, and the import proceeds whatever the answer; a "yes" only
// adds an info line naming the account.
func ensureAccountOpen(account string) (bool, error) {
	if !isTerminal() {
		return false, nil
	}
	return promptYesNo(fmt.Sprintf("Account %q not yet declared with an `open` directive — continue anyway?", account))
}

func bytesReader(b []byte) *bytes.Reader { return bytes.NewReader(b) }
