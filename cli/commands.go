package cli

var (
	Version   = ""
	CommitSHA = ""
)

// Globals defines flags available to every command.
type Globals struct {
	Telemetry bool `help:"Show timing telemetry for pipeline stages."`
}

// Commands is the root kong command tree for the beanledger CLI.
type Commands struct {
	Globals

	ReadAll ReadAllCmd `cmd:"" help:"Parse, balance and report account balances for a beanfile."`
	Import  ImportCmd  `cmd:"" help:"Import a brokerage or bank statement into the normalized record model."`
	Doctor  DoctorCmd  `cmd:"" help:"Doctor utilities for debugging beanfiles."`
	Watch   WatchCmd   `cmd:"" help:"Watch a beanfile and re-run readall on every change."`
}
