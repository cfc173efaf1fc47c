package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestFileOrStdin_GetAbsoluteFilename(t *testing.T) {
	t.Run("stdin sentinel is unchanged", func(t *testing.T) {
		f := &FileOrStdin{Filename: "<stdin>"}
		assert.Equal(t, "<stdin>", f.GetAbsoluteFilename())
	})

	t.Run("relative path resolves to absolute", func(t *testing.T) {
		f := &FileOrStdin{Filename: "main.beancount"}
		abs := f.GetAbsoluteFilename()
		assert.True(t, filepath.IsAbs(abs))
	})
}

func TestFileOrStdin_GetSourceContent(t *testing.T) {
	t.Run("stdin returns captured contents", func(t *testing.T) {
		f := &FileOrStdin{Filename: "<stdin>", Contents: []byte("hello")}
		content, err := f.GetSourceContent()
		assert.NoError(t, err)
		assert.Equal(t, "hello", string(content))
	})

	t.Run("file path reads from disk", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "x.beancount")
		assert.NoError(t, os.WriteFile(path, []byte("option \"a\" \"b\"\n"), 0644))

		f := &FileOrStdin{Filename: path}
		content, err := f.GetSourceContent()
		assert.NoError(t, err)
		assert.Equal(t, "option \"a\" \"b\"\n", string(content))
	})
}

func TestIsTerminal_FalseUnderTest(t *testing.T) {
	// go test's stdin is never an interactive character device.
	assert.False(t, isTerminal())
}

func TestEnsureAccountOpen_NonInteractiveDefaultsToFalse(t *testing.T) {
	stub, err := ensureAccountOpen("Assets:Checking")
	assert.NoError(t, err)
	assert.False(t, stub)
}
