package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/evanschultz/gantt/internal/app"
	"github.com/evanschultz/gantt/internal/config"
	"github.com/evanschultz/gantt/internal/tui"
)

// TestMain sets deterministic environment defaults for CLI tests.
func TestMain(m *testing.M) {
	_ = os.Setenv("GANTT_DEV_MODE", "false")
	os.Exit(m.Run())
}

// fakeProgram stands in for the tea program.
type fakeProgram struct {
	runErr error
}

// Run returns the configured error.
func (f fakeProgram) Run() (tea.Model, error) {
	return nil, f.runErr
}

// captureProgram records the model it was built with.
type captureProgram struct {
	model *tea.Model
	in    tea.Model
}

// Run stores the model for inspection.
func (p captureProgram) Run() (tea.Model, error) {
	*p.model = p.in
	return p.in, nil
}

// useFakeProgram swaps programFactory for the test.
func useFakeProgram(t *testing.T, runErr error) {
	t.Helper()
	orig := programFactory
	t.Cleanup(func() { programFactory = orig })
	programFactory = func(_ tea.Model) program { return fakeProgram{runErr: runErr} }
}

// isolatePaths points platform path resolution at temp dirs.
func isolatePaths(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(root, "data"))
	t.Setenv("GANTT_CONFIG", "")
	t.Setenv("GANTT_DB_PATH", "")
	return root
}

// writeConfig writes TOML content to a temp config file.
func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

// TestRunVersion verifies --version prints the build version.
func TestRunVersion(t *testing.T) {
	var out strings.Builder
	if err := run(context.Background(), []string{"--version"}, &out, io.Discard); err != nil {
		t.Fatalf("run(version) error = %v", err)
	}
	if !strings.Contains(out.String(), version) {
		t.Fatalf("expected version output, got %q", out.String())
	}
}

// TestRunStartsProgram verifies the bare command runs the TUI and seeds sample tasks.
func TestRunStartsProgram(t *testing.T) {
	isolatePaths(t)
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "gantt.db")
	cfgPath := filepath.Join(tmp, "config.toml")

	var got tea.Model
	orig := programFactory
	t.Cleanup(func() { programFactory = orig })
	programFactory = func(m tea.Model) program { return captureProgram{model: &got, in: m} }

	if err := run(context.Background(), []string{"--db", dbPath, "--config", cfgPath}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if _, ok := got.(tui.Model); !ok {
		t.Fatalf("expected tui.Model, got %T", got)
	}
	if _, err := os.Stat(cfgPath); err != nil {
		t.Fatalf("expected default config written, stat error %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected sqlite db created, stat error %v", err)
	}

	var out strings.Builder
	if err := run(context.Background(), []string{"--db", dbPath, "--config", cfgPath, "list"}, &out, io.Discard); err != nil {
		t.Fatalf("run(list) error = %v", err)
	}
	if strings.Contains(out.String(), " 0 TASKS") {
		t.Fatalf("expected seeded tasks, got %q", out.String())
	}
}

// TestRunProgramError verifies TUI failures surface from run.
func TestRunProgramError(t *testing.T) {
	isolatePaths(t)
	useFakeProgram(t, io.ErrUnexpectedEOF)
	tmp := t.TempDir()
	err := run(context.Background(), []string{"--db", filepath.Join(tmp, "g.db"), "--config", filepath.Join(tmp, "c.toml")}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "run tui program") {
		t.Fatalf("expected tui program error, got %v", err)
	}
}

// TestRunInvalidFlag verifies unknown flags fail.
func TestRunInvalidFlag(t *testing.T) {
	if err := run(context.Background(), []string{"--unknown-flag"}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected flag parse error")
	}
}

// TestRunUnknownCommand verifies unknown subcommands fail.
func TestRunUnknownCommand(t *testing.T) {
	err := run(context.Background(), []string{"unknown-command"}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

// TestRunExportImportRoundTrip verifies export output feeds import into a fresh store.
func TestRunExportImportRoundTrip(t *testing.T) {
	isolatePaths(t)
	useFakeProgram(t, nil)
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.toml")
	srcDB := filepath.Join(tmp, "src.db")
	if err := run(context.Background(), []string{"--db", srcDB, "--config", cfgPath}, io.Discard, io.Discard); err != nil {
		t.Fatalf("seed run() error = %v", err)
	}

	outPath := filepath.Join(tmp, "out", "snapshot.json")
	if err := run(context.Background(), []string{"--db", srcDB, "--config", cfgPath, "export", "--out", outPath}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run(export) error = %v", err)
	}
	content, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var snap app.Snapshot
	if err := json.Unmarshal(content, &snap); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if snap.Version != app.SnapshotVersion {
		t.Fatalf("unexpected snapshot version %q", snap.Version)
	}
	if len(snap.Tasks) == 0 {
		t.Fatal("expected seeded tasks in snapshot")
	}

	dstDB := filepath.Join(tmp, "dst.db")
	var out strings.Builder
	if err := run(context.Background(), []string{"--db", dstDB, "--config", cfgPath, "import", "--in", outPath}, &out, io.Discard); err != nil {
		t.Fatalf("run(import) error = %v", err)
	}
	if !strings.Contains(out.String(), "imported") {
		t.Fatalf("expected import summary, got %q", out.String())
	}

	var listed strings.Builder
	if err := run(context.Background(), []string{"--db", dstDB, "--config", cfgPath, "list", "--sort", "name"}, &listed, io.Discard); err != nil {
		t.Fatalf("run(list) error = %v", err)
	}
	for _, task := range snap.Tasks {
		if !strings.Contains(listed.String(), task.Name) {
			t.Fatalf("expected %q in imported list, got %q", task.Name, listed.String())
		}
	}
}

// TestRunExportToStdoutAndImportErrors verifies stdout export and import failure paths.
func TestRunExportToStdoutAndImportErrors(t *testing.T) {
	isolatePaths(t)
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "gantt.db")
	cfgPath := filepath.Join(tmp, "missing.toml")

	var out strings.Builder
	if err := run(context.Background(), []string{"--db", dbPath, "--config", cfgPath, "export", "--out", "-"}, &out, io.Discard); err != nil {
		t.Fatalf("run(export stdout) error = %v", err)
	}
	if !strings.Contains(out.String(), "\"version\"") {
		t.Fatalf("expected snapshot json on stdout, got %q", out.String())
	}

	if err := run(context.Background(), []string{"--db", dbPath, "--config", cfgPath, "import"}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected import error for missing default snapshot")
	}

	badIn := filepath.Join(tmp, "bad.json")
	if err := os.WriteFile(badIn, []byte("{"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := run(context.Background(), []string{"--db", dbPath, "--config", cfgPath, "import", "--in", badIn}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected import decode error")
	}
}

// TestRunListFiltersAndRejectsBadFlags verifies list flag parsing.
func TestRunListFiltersAndRejectsBadFlags(t *testing.T) {
	isolatePaths(t)
	tmp := t.TempDir()
	cfgPath := writeConfig(t, tmp, "[storage]\nmode = \"memory\"\n")

	var out strings.Builder
	if err := run(context.Background(), []string{"--config", cfgPath, "list", "--status", "completed"}, &out, io.Discard); err != nil {
		t.Fatalf("run(list) error = %v", err)
	}
	for _, header := range []string{"ID", "NAME", "STATUS", "0 TASKS"} {
		if !strings.Contains(out.String(), header) {
			t.Fatalf("expected %q in table, got %q", header, out.String())
		}
	}

	if err := run(context.Background(), []string{"--config", cfgPath, "list", "--status", "blocked"}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected invalid status error")
	}
	if err := run(context.Background(), []string{"--config", cfgPath, "list", "--sort", "color"}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected invalid sort error")
	}
}

// TestRunStorageOverride verifies --storage switches backends and is validated.
func TestRunStorageOverride(t *testing.T) {
	isolatePaths(t)
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "never.db")
	if err := run(context.Background(), []string{"--db", dbPath, "--config", filepath.Join(tmp, "c.toml"), "--storage", "memory", "list"}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run(list memory) error = %v", err)
	}
	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Fatalf("expected no sqlite file in memory mode, stat error %v", err)
	}
	if err := run(context.Background(), []string{"--storage", "redis", "list"}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected invalid storage mode error")
	}
}

// TestRunConfigAndDBEnvOverrides verifies GANTT_CONFIG and GANTT_DB_PATH.
func TestRunConfigAndDBEnvOverrides(t *testing.T) {
	isolatePaths(t)
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "env.db")
	cfgPath := writeConfig(t, tmp, "[storage]\npath = \"/tmp/ignore-me.db\"\n")

	t.Setenv("GANTT_CONFIG", cfgPath)
	t.Setenv("GANTT_DB_PATH", dbPath)

	if err := run(context.Background(), []string{"export", "--out", filepath.Join(tmp, "out.json")}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run(export with env paths) error = %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected db created at env path, stat error %v", err)
	}
}

// TestRunPathsCommand verifies resolved paths are printed.
func TestRunPathsCommand(t *testing.T) {
	isolatePaths(t)
	var out strings.Builder
	if err := run(context.Background(), []string{"--app", "ganttx", "--dev", "paths"}, &out, io.Discard); err != nil {
		t.Fatalf("run(paths) error = %v", err)
	}
	output := out.String()
	for _, want := range []string{"app: ganttx", "dev_mode: true", "ganttx-dev", "snapshot:"} {
		if !strings.Contains(output, want) {
			t.Fatalf("expected %q in paths output, got %q", want, output)
		}
	}
}

// TestRunRejectsInvalidLoggingLevelFromConfig verifies config validation errors surface.
func TestRunRejectsInvalidLoggingLevelFromConfig(t *testing.T) {
	isolatePaths(t)
	tmp := t.TempDir()
	cfgPath := writeConfig(t, tmp, "[logging]\nlevel = \"verbose\"\n")

	err := run(context.Background(), []string{"--db", filepath.Join(tmp, "g.db"), "--config", cfgPath, "list"}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "invalid logging.level") {
		t.Fatalf("expected logging level validation error, got %v", err)
	}
}

// TestRunTUIModeWritesRuntimeLogsToFileOnly verifies TUI runtime logs stay out of stderr and land in the dev log.
func TestRunTUIModeWritesRuntimeLogsToFileOnly(t *testing.T) {
	isolatePaths(t)
	useFakeProgram(t, nil)
	workspace := t.TempDir()
	t.Chdir(workspace)

	var stderr bytes.Buffer
	args := []string{"--dev", "--db", filepath.Join(workspace, "g.db"), "--config", filepath.Join(workspace, "c.toml")}
	if err := run(context.Background(), args, io.Discard, &stderr); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if got := strings.TrimSpace(stderr.String()); got != "" {
		t.Fatalf("expected no runtime stderr output in TUI mode, got %q", got)
	}

	logDir := filepath.Join(workspace, ".gantt", "log")
	entries, err := os.ReadDir(logDir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	var logPath string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".log") {
			logPath = filepath.Join(logDir, entry.Name())
			break
		}
	}
	if logPath == "" {
		t.Fatalf("expected a .log file in %s", logDir)
	}
	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	for _, want := range []string{"starting tui program loop", "sample tasks seeded"} {
		if !strings.Contains(string(content), want) {
			t.Fatalf("expected %q in dev log, got %q", want, content)
		}
	}
}

// TestParseBoolEnv verifies env bool parsing.
func TestParseBoolEnv(t *testing.T) {
	t.Setenv("GANTT_BOOL_TEST", "true")
	if v, ok := parseBoolEnv("GANTT_BOOL_TEST"); !ok || !v {
		t.Fatalf("parseBoolEnv(true) = %t, %t", v, ok)
	}
	t.Setenv("GANTT_BOOL_TEST", "nope")
	if _, ok := parseBoolEnv("GANTT_BOOL_TEST"); ok {
		t.Fatal("expected unparseable value to report !ok")
	}
	t.Setenv("GANTT_BOOL_TEST", "")
	if _, ok := parseBoolEnv("GANTT_BOOL_TEST"); ok {
		t.Fatal("expected empty value to report !ok")
	}
}

// TestWorkspaceRootFromUsesNearestMarker verifies workspace-root resolution.
func TestWorkspaceRootFromUsesNearestMarker(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/test\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	nested := filepath.Join(root, "cmd", "gantt")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if got := workspaceRootFrom(nested); filepath.Clean(got) != filepath.Clean(root) {
		t.Fatalf("expected workspace root %q, got %q", root, got)
	}
}

// TestDevLogFilePath verifies the dated file name and workspace anchoring.
func TestDevLogFilePath(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/test\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	nested := filepath.Join(root, "internal")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	t.Chdir(nested)

	got, err := devLogFilePath("", "my app", time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("devLogFilePath() error = %v", err)
	}
	normalize := func(p string) string { return strings.TrimPrefix(filepath.Clean(p), "/private") }
	want := filepath.Join(root, ".gantt", "log", "my-app-20260310.log")
	if normalize(got) != normalize(want) {
		t.Fatalf("devLogFilePath() = %q, want %q", got, want)
	}
	if stem := sanitizeLogFileStem(" / "); stem != "gantt" {
		t.Fatalf("sanitizeLogFileStem() = %q, want gantt", stem)
	}
}

// TestRuntimeLoggerCanMuteConsoleSink verifies console muting.
func TestRuntimeLoggerCanMuteConsoleSink(t *testing.T) {
	var console bytes.Buffer
	cfg := config.Default("/tmp/gantt.db").Logging

	logger, err := newRuntimeLogger(&console, "gantt", false, cfg, func() time.Time {
		return time.Date(2026, 2, 23, 12, 0, 0, 0, time.UTC)
	})
	if err != nil {
		t.Fatalf("newRuntimeLogger() error = %v", err)
	}
	logger.Info("before")
	logger.SetConsoleEnabled(false)
	logger.Info("during")
	logger.SetConsoleEnabled(true)
	logger.Debug("hidden")
	logger.Warn("after")

	out := console.String()
	if !strings.Contains(out, "before") || !strings.Contains(out, "after") {
		t.Fatalf("expected console log to include before/after, got %q", out)
	}
	if strings.Contains(out, "during") {
		t.Fatalf("expected muted console log to omit 'during', got %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected debug below info level to be dropped, got %q", out)
	}
	if logger.DevLogPath() != "" {
		t.Fatalf("expected no dev log outside dev mode, got %q", logger.DevLogPath())
	}
}
