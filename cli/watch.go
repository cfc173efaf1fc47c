package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/fsnotify/fsnotify"

	"github.com/quietledger/beanledger/accounts"
	"github.com/quietledger/beanledger/balance"
	"github.com/quietledger/beanledger/facts"
	"github.com/quietledger/beanledger/loader"
	"github.com/quietledger/beanledger/printer"
	"github.com/quietledger/beanledger/report"
)

// WatchCmd re-runs the readall pipeline every time the given beanfile is
// written or created on disk, until interrupted. Only the root file is
// watched: a change to a file it includes does not trigger a re-run.
type WatchCmd struct {
	File string `arg:"" help:"Beanfile to watch."`
}

func (cmd *WatchCmd) Run(ctx *kong.Context, globals *Globals) error {
	absPath, err := filepath.Abs(cmd.File)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(absPath), err)
	}

	printInfof(ctx.Stdout, "Watching %s (ctrl-c to stop)", pathStyle.Render(absPath))
	cmd.runOnce(ctx, absPath)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			_, _ = fmt.Fprintln(ctx.Stdout)
			printInfof(ctx.Stdout, "change detected, re-running")
			cmd.runOnce(ctx, absPath)
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			printError(ctx.Stderr, watchErr.Error())
		}
	}
}

func (cmd *WatchCmd) runOnce(ctx *kong.Context, absPath string) {
	result, err := loader.Load(context.Background(), absPath)
	if err != nil {
		printError(ctx.Stderr, err.Error())
		return
	}
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			printError(ctx.Stderr, e.Error())
		}
		return
	}

	tables := facts.Materialize(result.State)
	balResult, err := balance.Balance(&tables.Postings)
	if err != nil {
		printError(ctx.Stderr, err.Error())
		return
	}
	for _, e := range balResult.Errors {
		printError(ctx.Stderr, e.Error())
	}

	leafAccounts := make([]string, tables.Postings.Len())
	copy(leafAccounts, tables.Postings.Account)
	closure := accounts.Closure(leafAccounts)
	tcReport := report.Report(closure, balResult.FinalPostings, report.TradeCost)
	printer.PrintTable(ctx.Stdout, tcReport, report.TradeCost)

	if len(balResult.Errors) == 0 {
		printSuccess(ctx.Stdout, "readall passed")
	}
}
