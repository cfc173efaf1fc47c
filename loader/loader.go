// Package loader wires lexparse.Parser to the filesystem. Unlike the
// teacher's errgroup-based loader, include resolution here is always on and
// always sequential: a ledger's statement_no counter is one mutable value
// threaded through a single state.State, and concurrent include fan-out
// would race on it. Every include found in the source tree is followed;
// there is no "leave includes unresolved" mode.
package loader

import (
	"context"
	"fmt"
	"os"

	"github.com/quietledger/beanledger/lexparse"
	"github.com/quietledger/beanledger/state"
	"github.com/quietledger/beanledger/telemetry"
)

// Result is everything a Load produces: the populated ledger state plus any
// recoverable parse errors collected along the way. lexparse does not abort
// on the first bad statement; it records an error and resynchronizes at the
// next line, so a non-nil Errors slice does not by itself mean State is
// unusable.
type Result struct {
	State  *state.State
	Errors []*lexparse.ParseError
}

// osFileReader reads include targets from the filesystem.
type osFileReader struct{}

func (osFileReader) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Load reads and parses the ledger rooted at path, following every include
// it finds.
func Load(ctx context.Context, path string) (*Result, error) {
	timer := telemetry.FromContext(ctx).Start(fmt.Sprintf("loader.load %s", path))
	defer timer.End()

	st := state.New()
	p := lexparse.NewParser(st, osFileReader{})

	parseTimer := timer.Child(fmt.Sprintf("loader.parse %s", path))
	err := p.ParseFile(path)
	parseTimer.End()
	if err != nil {
		return nil, fmt.Errorf("loader: %s: %w", path, err)
	}

	return &Result{State: st, Errors: p.Errors()}, nil
}

// LoadBytes parses source held in memory under filename, e.g. data read
// from stdin. filename still anchors any include directives found inside
// source: relative include paths resolve against filepath.Dir(filename).
// For a bare name like "<stdin>" that directory is ".", so such includes
// are read relative to the process's working directory.
func LoadBytes(ctx context.Context, filename string, source []byte) (*Result, error) {
	timer := telemetry.FromContext(ctx).Start(fmt.Sprintf("loader.load %s", filename))
	defer timer.End()

	st := state.New()
	p := lexparse.NewParser(st, osFileReader{})

	parseTimer := timer.Child(fmt.Sprintf("loader.parse %s", filename))
	err := p.ParseBytes(source, filename)
	parseTimer.End()
	if err != nil {
		return nil, fmt.Errorf("loader: %s: %w", filename, err)
	}

	return &Result{State: st, Errors: p.Errors()}, nil
}
