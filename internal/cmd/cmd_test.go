package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cworthy-ocean/cstarorc/internal/converter"
	"github.com/cworthy-ocean/cstarorc/internal/model"
)

// cliTestApplication registers an instant-exit converter so run/status
// tests don't wait on the registered "sleep" application's randomized
// 1-10s delay.
const cliTestApplication = "cmd-test-instant"

func init() {
	for _, class := range []string{"local", "batch", "managed"} {
		converter.Register(class, cliTestApplication, func(step *model.Step) string {
			return "exit 0\n"
		})
	}
}

func runCmd(t *testing.T, cmd interface {
	Execute() error
	SetArgs([]string)
	SetOut(w interface{ Write([]byte) (int, error) })
	SetErr(w interface{ Write([]byte) (int, error) })
}, args []string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeCmdTestConfig(t *testing.T, dir string) string {
	t.Helper()
	doc := "cache_path: " + filepath.Join(dir, "cache.db") + "\n" +
		"log_dir: " + filepath.Join(dir, "logs") + "\n" +
		"poll_interval: 10ms\n"
	path := filepath.Join(dir, "cstarorc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))
	return path
}

func writeWorkplan(t *testing.T, dir string) string {
	t.Helper()
	doc := `name: cli-test
description: workplan for cmd package tests
steps:
  - name: A
    application: ` + cliTestApplication + `
    blueprint: a.yaml
  - name: B
    application: ` + cliTestApplication + `
    blueprint: b.yaml
    depends_on:
      - A
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("{}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte("{}"), 0644))

	path := filepath.Join(dir, "workplan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))
	return path
}

func TestWorkplanCheckAcceptsValidDocument(t *testing.T) {
	dir := t.TempDir()
	path := writeWorkplan(t, dir)

	out, _, err := runCmd(t, NewWorkplanCommand(), []string{"check", path})
	require.NoError(t, err)
	require.Contains(t, out, "valid")
}

func TestWorkplanCheckRejectsCycle(t *testing.T) {
	dir := t.TempDir()
	doc := `name: cyclic
description: a cyclic workplan
steps:
  - name: A
    application: ` + cliTestApplication + `
    blueprint: a.yaml
    depends_on: [B]
  - name: B
    application: ` + cliTestApplication + `
    blueprint: b.yaml
    depends_on: [A]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("{}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte("{}"), 0644))

	path := filepath.Join(dir, "cyclic.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	_, _, err := runCmd(t, NewWorkplanCommand(), []string{"check", path})
	require.Error(t, err)
}

func TestWorkplanPlanRendersDOT(t *testing.T) {
	dir := t.TempDir()
	path := writeWorkplan(t, dir)

	out, _, err := runCmd(t, NewWorkplanCommand(), []string{"plan", path})
	require.NoError(t, err)
	require.True(t, strings.Contains(out, `digraph "cli-test"`))
	require.True(t, strings.Contains(out, `"A" -> "B"`))
}

func TestWorkplanRunDrivesToCompletion(t *testing.T) {
	dir := t.TempDir()
	path := writeWorkplan(t, dir)

	configPath := writeCmdTestConfig(t, dir)

	out, _, err := runCmd(t, NewWorkplanCommand(), []string{
		"run", path,
		"--output-dir", dir,
		"--run-id", "cli-run",
		"--config", configPath,
	})
	require.NoError(t, err)
	require.Contains(t, out, "complete:")
	require.Contains(t, out, "A (Done)")
	require.Contains(t, out, "B (Done)")
}

func TestWorkplanStatusReportsCachedSteps(t *testing.T) {
	dir := t.TempDir()
	path := writeWorkplan(t, dir)

	configPath := writeCmdTestConfig(t, dir)

	_, _, err := runCmd(t, NewWorkplanCommand(), []string{
		"run", path,
		"--output-dir", dir,
		"--run-id", "cli-run",
		"--config", configPath,
	})
	require.NoError(t, err)

	out, _, err := runCmd(t, NewWorkplanCommand(), []string{
		"status", path,
		"--run-id", "cli-run",
		"--output-dir", dir,
		"--config", configPath,
	})
	require.NoError(t, err)
	require.Contains(t, out, "complete:")
}

func TestWorkplanDiscoverReportsInvalidDocuments(t *testing.T) {
	dir := t.TempDir()
	writeWorkplan(t, dir)

	badDoc := `name: ""
description: missing a name
steps: []
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte(badDoc), 0644))

	out, errOut, err := runCmd(t, NewWorkplanCommand(), []string{"discover", dir})
	require.Error(t, err)
	require.Contains(t, out, "Validating 2 step(s)")
	require.Contains(t, errOut, "invalid document")
}

func TestWorkplanDiscoverAcceptsAllValidDocuments(t *testing.T) {
	dir := t.TempDir()
	writeWorkplan(t, dir)

	_, _, err := runCmd(t, NewWorkplanCommand(), []string{"discover", dir})
	require.NoError(t, err)
}

func TestBlueprintCheckAcceptsValidDocument(t *testing.T) {
	dir := t.TempDir()
	doc := `application: sleep
runtime_params:
  start_date: "2012-01-01 00:00:00"
  end_date: "2012-02-01 00:00:00"
  output_dir: out
`
	path := filepath.Join(dir, "blueprint.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	out, _, err := runCmd(t, NewBlueprintCommand(), []string{"check", path})
	require.NoError(t, err)
	require.Contains(t, out, "valid")
}

func TestBlueprintCheckRejectsBackwardsRange(t *testing.T) {
	dir := t.TempDir()
	doc := `application: sleep
runtime_params:
  start_date: "2012-02-01 00:00:00"
  end_date: "2012-01-01 00:00:00"
  output_dir: out
`
	path := filepath.Join(dir, "blueprint.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	_, _, err := runCmd(t, NewBlueprintCommand(), []string{"check", path})
	require.Error(t, err)
}

func TestTemplateGenerateWritesDocAndSchema(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "starter.yaml")

	_, _, err := runCmd(t, NewTemplateCommand(), []string{"generate", "--template-type", "workplan", out})
	require.NoError(t, err)

	_, statErr := os.Stat(out)
	require.NoError(t, statErr)
	_, statErr = os.Stat(filepath.Join(dir, "starter.schema.json"))
	require.NoError(t, statErr)
}

func TestTemplateGenerateRejectsUnknownType(t *testing.T) {
	_, _, err := runCmd(t, NewTemplateCommand(), []string{"generate", "--template-type", "nonsense"})
	require.Error(t, err)
}
