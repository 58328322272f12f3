package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs the root command with args and captures output.
func executeCommand(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errBuf bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errBuf.String(), err
}

// writeLibraryFixture writes a small valid schema and an evolution script
// into temp dirs and returns their paths.
func writeLibraryFixture(t *testing.T) (schemaDir, scriptPath string) {
	t.Helper()
	schemaDir = t.TempDir()
	schema := `package library

class: {
	Library: {
		references: books: {target: "Book", containment: true, upper: -1}
	}
	Book: {
		attributes: title: {type: "string", lower: 1, upper: 1}
	}
}
`
	require.NoError(t, os.WriteFile(filepath.Join(schemaDir, "library.cue"), []byte(schema), 0o644))

	scriptPath = filepath.Join(t.TempDir(), "script.yaml")
	scriptYAML := `
name: add-magazine
steps:
  - change: add
    element: class
    with:
      name: Magazine
  - change: add
    element: attribute
    with:
      class: Magazine
      name: issue
      type: int
`
	require.NoError(t, os.WriteFile(scriptPath, []byte(scriptYAML), 0o644))
	return schemaDir, scriptPath
}

func TestRootRejectsInvalidFormat(t *testing.T) {
	schemaDir, _ := writeLibraryFixture(t)

	_, _, err := executeCommand(t, "--format", "xml", "validate", schemaDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestValidateCommand(t *testing.T) {
	schemaDir, _ := writeLibraryFixture(t)

	stdout, _, err := executeCommand(t, "validate", schemaDir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Schema valid (2 class(es))")
}

func TestValidateCommandJSON(t *testing.T) {
	schemaDir, _ := writeLibraryFixture(t)

	stdout, _, err := executeCommand(t, "--format", "json", "validate", schemaDir)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestValidateCommandVerbose(t *testing.T) {
	schemaDir, _ := writeLibraryFixture(t)

	_, stderr, err := executeCommand(t, "--verbose", "validate", schemaDir)
	require.NoError(t, err)
	assert.Contains(t, stderr, "class Book")
	assert.Contains(t, stderr, "title: string [1..1]")
	assert.Contains(t, stderr, "books -> Book [0..*]")
}

func TestValidateCommandInvalidSchema(t *testing.T) {
	schemaDir := t.TempDir()
	schema := `package library

class: Book: {
	supertypes: ["Missing"]
}
`
	require.NoError(t, os.WriteFile(filepath.Join(schemaDir, "bad.cue"), []byte(schema), 0o644))

	stdout, _, err := executeCommand(t, "validate", schemaDir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "Validation failed")
	assert.Contains(t, stdout, "E102")
}

func TestValidateCommandMissingDir(t *testing.T) {
	_, _, err := executeCommand(t, "validate", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestPlanCommand(t *testing.T) {
	schemaDir, scriptPath := writeLibraryFixture(t)

	stdout, _, err := executeCommand(t, "plan", schemaDir, scriptPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "evolution report: 2 operation(s), 2 pending, 0 ambiguous")
	assert.Contains(t, stdout, "add class (add-class)")
}

func TestPlanCommandReportsAmbiguity(t *testing.T) {
	schemaDir, _ := writeLibraryFixture(t)
	scriptPath := filepath.Join(t.TempDir(), "dup.yaml")
	scriptYAML := `
name: duplicate-book
steps:
  - change: add
    element: class
    with:
      name: Book
`
	require.NoError(t, os.WriteFile(scriptPath, []byte(scriptYAML), 0o644))

	stdout, _, err := executeCommand(t, "plan", schemaDir, scriptPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, `reason: a class named "Book" already exists`)
}

func TestPlanCommandScriptResolutions(t *testing.T) {
	schemaDir, _ := writeLibraryFixture(t)
	scriptPath := filepath.Join(t.TempDir(), "resolved.yaml")
	scriptYAML := `
name: duplicate-book-resolved
steps:
  - change: add
    element: class
    with:
      name: Book
resolutions:
  - step: 1
    with:
      name: Paperback
`
	require.NoError(t, os.WriteFile(scriptPath, []byte(scriptYAML), 0o644))

	stdout, _, err := executeCommand(t, "plan", schemaDir, scriptPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 pending, 0 ambiguous")
}

func TestPlanCommandMissingScript(t *testing.T) {
	schemaDir, _ := writeLibraryFixture(t)

	_, _, err := executeCommand(t, "plan", schemaDir, filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestApplyCommand(t *testing.T) {
	schemaDir, scriptPath := writeLibraryFixture(t)

	stdout, _, err := executeCommand(t, "apply", schemaDir, scriptPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "applied 2, failed 0")
	assert.Contains(t, stdout, "[applied] add class")
}

func TestApplyCommandRefusesAmbiguousBatch(t *testing.T) {
	schemaDir, _ := writeLibraryFixture(t)
	scriptPath := filepath.Join(t.TempDir(), "dup.yaml")
	scriptYAML := `
name: duplicate-book
steps:
  - change: add
    element: class
    with:
      name: Magazine
  - change: add
    element: class
    with:
      name: Book
`
	require.NoError(t, os.WriteFile(scriptPath, []byte(scriptYAML), 0o644))

	stdout, _, err := executeCommand(t, "apply", schemaDir, scriptPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "cannot apply batch: 1 unresolved ambiguous operation(s)")
}

func TestApplyCommandWithJournal(t *testing.T) {
	schemaDir, scriptPath := writeLibraryFixture(t)
	journalPath := filepath.Join(t.TempDir(), "history.db")

	stdout, _, err := executeCommand(t, "apply", schemaDir, scriptPath, "--journal", journalPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "applied 2, failed 0")

	info, err := os.Stat(journalPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestApplyCommandJSON(t *testing.T) {
	schemaDir, scriptPath := writeLibraryFixture(t)

	stdout, _, err := executeCommand(t, "--format", "json", "apply", schemaDir, scriptPath)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestHistoryCommand(t *testing.T) {
	schemaDir, scriptPath := writeLibraryFixture(t)
	journalPath := filepath.Join(t.TempDir(), "history.db")

	stdout, _, err := executeCommand(t, "--format", "json", "apply", schemaDir, scriptPath, "--journal", journalPath)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	sessionID, ok := data["session_id"].(string)
	require.True(t, ok)

	stdout, _, err = executeCommand(t, "history", journalPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "journal: 1 session(s)")
	assert.Contains(t, stdout, sessionID+": 2 operation(s), last seq 2")

	stdout, _, err = executeCommand(t, "history", journalPath, "--session", sessionID)
	require.NoError(t, err)
	assert.Contains(t, stdout, "session "+sessionID+": 2 operation(s)")
	assert.Contains(t, stdout, "[applied] add class")
	assert.Contains(t, stdout, "pending -> applied")

	stdout, _, err = executeCommand(t, "history", journalPath, "--state", "applied")
	require.NoError(t, err)
	assert.Contains(t, stdout, "2 applied operation(s)")

	stdout, _, err = executeCommand(t, "history", journalPath, "--state", "failed")
	require.NoError(t, err)
	assert.Contains(t, stdout, "0 failed operation(s)")
}

func TestHistoryCommandMissingJournal(t *testing.T) {
	_, _, err := executeCommand(t, "history", filepath.Join(t.TempDir(), "nope.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestHistoryCommandInvalidState(t *testing.T) {
	journalPath := filepath.Join(t.TempDir(), "history.db")

	_, _, err := executeCommand(t, "history", journalPath, "--state", "done")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid state "done"`)
}

func TestCoevolveCommand(t *testing.T) {
	schemaDir, _ := writeLibraryFixture(t)

	stdout, _, err := executeCommand(t, "coevolve", schemaDir, t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "model co-evolution is not supported")
}
