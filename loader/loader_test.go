package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestLoad_SingleFile(t *testing.T) {
	dir := t.TempDir()
	main := filepath.Join(dir, "main.beancount")
	err := os.WriteFile(main, []byte(`2024-01-01 open Assets:Checking

2024-01-01 * "Coffee"
  Assets:Checking  -5.00 USD
  Expenses:Food  5.00 USD
`), 0644)
	assert.NoError(t, err)

	result, err := Load(context.Background(), main)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(result.Errors))
	assert.Equal(t, 1, len(result.State.Transactions))
	assert.Equal(t, 2, len(result.State.Postings))
}

func TestLoad_FollowsInclude(t *testing.T) {
	dir := t.TempDir()
	subDir := filepath.Join(dir, "sub")
	assert.NoError(t, os.MkdirAll(subDir, 0755))

	subFile := filepath.Join(subDir, "a.beancount")
	err := os.WriteFile(subFile, []byte(`2024-02-01 * "Rent"
  Assets:Cash  -1000.00 USD
  Expenses:Rent  1000.00 USD
`), 0644)
	assert.NoError(t, err)

	mainFile := filepath.Join(dir, "main.beancount")
	err = os.WriteFile(mainFile, []byte(`include "sub/a.beancount"

2024-01-01 * "Coffee"
  Assets:Cash  -5.00 USD
  Expenses:Food  5.00 USD
`), 0644)
	assert.NoError(t, err)

	result, err := Load(context.Background(), mainFile)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(result.Errors))
	assert.Equal(t, 2, len(result.State.Transactions))
	assert.Equal(t, 1, len(result.State.Includes))
	assert.Equal(t, subFile, result.State.Includes[0].ResolvedPath)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.beancount"))
	assert.Error(t, err)
}

func TestLoadBytes_RelativeIncludeResolvesAgainstFilename(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "included.beancount"), []byte(`2024-03-01 open Assets:Cash
`), 0644)
	assert.NoError(t, err)

	source := []byte(`include "included.beancount"
`)
	result, err := LoadBytes(context.Background(), filepath.Join(dir, "<stdin>"), source)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(result.Errors))
	assert.Equal(t, 1, len(result.State.Verifications))
}
