package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/evanschultz/gantt/internal/adapters/storage/memory"
	"github.com/evanschultz/gantt/internal/adapters/storage/sqlite"
	"github.com/evanschultz/gantt/internal/app"
	"github.com/evanschultz/gantt/internal/config"
	"github.com/evanschultz/gantt/internal/domain"
	"github.com/evanschultz/gantt/internal/platform"
	"github.com/evanschultz/gantt/internal/tui"
)

// version is stamped at build time.
var version = "dev"

// program is the part of tea.Program the root command drives.
type program interface {
	Run() (tea.Model, error)
}

// programFactory builds the TUI program; tests swap it out.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// run executes the command tree through fang.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	return fang.Execute(ctx, root, fang.WithVersion(version))
}

// cliOptions holds the persistent flags.
type cliOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
	storage    string
}

// newRootCmd wires the command tree. The bare command launches the TUI.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &cliOptions{appName: platform.DefaultAppName, devMode: version == "dev"}
	if envDev, ok := parseBoolEnv("GANTT_DEV_MODE"); ok {
		opts.devMode = envDev
	}
	if envApp := strings.TrimSpace(os.Getenv("GANTT_APP_NAME")); envApp != "" {
		opts.appName = envApp
	}

	root := &cobra.Command{
		Use:   "gantt",
		Short: "Terminal Gantt chart",
		Long: `gantt shows tasks on a scrollable timeline.
Drag bars to reschedule, drag their edge handles to resize, and drag from a
connector dot to another bar to add a dependency.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts, stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML")
	flags.StringVar(&opts.dbPath, "db", "", "path to sqlite database")
	flags.StringVar(&opts.appName, "app", opts.appName, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", opts.devMode, "use dev mode paths (<app>-dev)")
	flags.StringVar(&opts.storage, "storage", "", "storage mode override (memory|sqlite)")

	root.AddCommand(
		newPathsCmd(opts),
		newListCmd(opts, stderr),
		newExportCmd(opts, stderr),
		newImportCmd(opts, stderr),
	)
	return root
}

func newPathsCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config and data paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := opts.paths()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(out, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(out, "config: %s\n", opts.resolveConfigPath(paths))
			_, _ = fmt.Fprintf(out, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(out, "db: %s\n", paths.DBPath)
			_, _ = fmt.Fprintf(out, "snapshot: %s\n", paths.SnapshotPath)
			return nil
		},
	}
}

func newListCmd(opts *cliOptions, stderr io.Writer) *cobra.Command {
	var search, status, sortKey string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print tasks as a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), opts, stderr, false)
			if err != nil {
				return err
			}
			defer s.Close()

			listOpts := app.ListOptions{Search: search, Status: s.cfg.List.DefaultStatus, Sort: app.SortKey(s.cfg.List.DefaultSort)}
			if cmd.Flags().Changed("status") {
				if listOpts.Status, err = app.ParseStatusFilter(status); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("sort") {
				if listOpts.Sort, err = app.ParseSortKey(sortKey); err != nil {
					return err
				}
			}
			s.logger.Info("command flow start", "command", "list", "status", listOpts.Status, "sort", listOpts.Sort)
			writeTaskTable(cmd.OutOrStdout(), s.svc.ListTasks(listOpts))
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "case-insensitive name filter")
	cmd.Flags().StringVar(&status, "status", app.StatusAll, "status filter (all|todo|in-progress|completed|overdue)")
	cmd.Flags().StringVar(&sortKey, "sort", string(app.SortStartDate), "sort key")
	return cmd
}

func newExportCmd(opts *cliOptions, stderr io.Writer) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the task collection as snapshot JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), opts, stderr, false)
			if err != nil {
				return err
			}
			defer s.Close()

			s.logger.Info("command flow start", "command", "export", "out", outPath)
			if err := runExport(s.svc, outPath, cmd.OutOrStdout()); err != nil {
				s.logger.Error("command flow failed", "command", "export", "err", err)
				return fmt.Errorf("run export command: %w", err)
			}
			s.logger.Info("command flow complete", "command", "export")
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	return cmd
}

func newImportCmd(opts *cliOptions, stderr io.Writer) *cobra.Command {
	var inPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the task collection from snapshot JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), opts, stderr, false)
			if err != nil {
				return err
			}
			defer s.Close()

			if inPath == "" {
				inPath = s.paths.SnapshotPath
			}
			s.logger.Info("command flow start", "command", "import", "in", inPath)
			if err := runImport(cmd.Context(), s.svc, inPath); err != nil {
				s.logger.Error("command flow failed", "command", "import", "err", err)
				return fmt.Errorf("run import command: %w", err)
			}
			s.logger.Info("command flow complete", "command", "import", "tasks", len(s.svc.Tasks()))
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d tasks\n", len(s.svc.Tasks()))
			return nil
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "input snapshot JSON file (defaults to the data dir snapshot)")
	return cmd
}

// runTUI resolves the session, seeds sample data when configured and runs the
// program loop.
func runTUI(ctx context.Context, opts *cliOptions, stderr io.Writer) error {
	s, err := openSession(ctx, opts, stderr, true)
	if err != nil {
		return err
	}
	defer s.Close()

	if s.cfg.Storage.Seed {
		seeded, err := s.svc.SeedSample(ctx)
		if err != nil {
			s.logger.Error("sample seed failed", "err", err)
			return fmt.Errorf("seed sample tasks: %w", err)
		}
		if seeded {
			s.logger.Info("sample tasks seeded", "count", len(s.svc.Tasks()))
		}
	}

	m := tui.NewModel(s.svc,
		tui.WithTimelineConfig(tui.TimelineConfig{
			DaysBefore:    s.cfg.Timeline.DaysBefore,
			DaysAfter:     s.cfg.Timeline.DaysAfter,
			Zoom:          domain.ZoomLevel(s.cfg.Timeline.DefaultZoom),
			CellPixels:    s.cfg.Timeline.CellPixels,
			PanelWidth:    s.cfg.Timeline.PanelWidth,
			MinPanelWidth: config.MinPanelWidth,
			MaxPanelWidth: config.MaxPanelWidth,
		}),
		tui.WithListOptions(app.ListOptions{
			Status: s.cfg.List.DefaultStatus,
			Sort:   app.SortKey(s.cfg.List.DefaultSort),
		}),
	)
	s.logger.Info("starting tui program loop")
	if _, err := programFactory(m).Run(); err != nil {
		s.logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	if _, err := s.svc.FlushPending(ctx); err != nil {
		s.logger.Error("pending drag flush failed", "err", err)
		return fmt.Errorf("save pending drags: %w", err)
	}
	s.logger.Info("command flow complete", "command", "tui")
	return nil
}

// session is everything one command needs after startup.
type session struct {
	paths      platform.Paths
	configPath string
	cfg        config.Config
	logger     *runtimeLogger
	svc        *app.Service
	closeRepo  func() error
}

// openSession resolves paths and config, builds the logger and repository,
// and loads the collection.
func openSession(ctx context.Context, opts *cliOptions, stderr io.Writer, interactive bool) (*session, error) {
	paths, err := opts.paths()
	if err != nil {
		return nil, err
	}
	configPath := opts.resolveConfigPath(paths)
	dbPath, dbOverridden := opts.resolveDBPath(paths)

	defaultCfg := config.Default(paths.DBPath)
	if interactive {
		if _, err := config.WriteDefault(configPath, defaultCfg); err != nil {
			return nil, fmt.Errorf("write default config %q: %w", configPath, err)
		}
	}
	cfg, err := config.Load(configPath, defaultCfg)
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Storage.Path = dbPath
	}
	if mode := strings.TrimSpace(opts.storage); mode != "" {
		cfg.Storage.Mode = config.StorageMode(mode)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	logger, err := newRuntimeLogger(stderr, opts.appName, opts.devMode, cfg.Logging, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	if interactive {
		// The TUI owns the terminal; runtime logs go to the dev file only.
		logger.SetConsoleEnabled(false)
	}
	logger.Info("configuration loaded", "config_path", configPath, "storage", cfg.Storage.Mode, "commit", cfg.Storage.Commit, "log_level", cfg.Logging.Level)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	repo, closeRepo, err := openRepository(cfg.Storage, logger)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	commit, _ := app.ParseCommitPolicy(cfg.Storage.Commit)
	svc := app.NewService(repo, uuid.NewString, time.Now, app.ServiceConfig{
		CommitPolicy: commit,
		Locale:       cfg.Timeline.Locale,
		Logger:       logger,
	})
	if err := svc.Load(ctx); err != nil {
		_ = closeRepo()
		_ = logger.Close()
		return nil, err
	}
	return &session{
		paths:      paths,
		configPath: configPath,
		cfg:        cfg,
		logger:     logger,
		svc:        svc,
		closeRepo:  closeRepo,
	}, nil
}

// Close releases the repository and the log file.
func (s *session) Close() {
	if s == nil {
		return
	}
	if err := s.closeRepo(); err != nil {
		s.logger.Warn("repository close failed", "err", err)
	}
	_ = s.logger.Close()
}

// openRepository selects the backend named by cfg.Mode.
func openRepository(cfg config.StorageConfig, logger *runtimeLogger) (app.Repository, func() error, error) {
	switch cfg.Mode {
	case config.StorageModeMemory:
		logger.Info("using in-memory repository")
		return memory.New(), func() error { return nil }, nil
	default:
		logger.Info("opening sqlite repository", "db_path", cfg.Path)
		repo, err := sqlite.Open(cfg.Path)
		if err != nil {
			logger.Error("sqlite open failed", "db_path", cfg.Path, "err", err)
			return nil, nil, fmt.Errorf("open sqlite repository: %w", err)
		}
		return repo, repo.Close, nil
	}
}

func (o *cliOptions) paths() (platform.Paths, error) {
	return platform.DefaultPathsWithOptions(platform.Options{
		AppName: o.appName,
		DevMode: o.devMode,
	})
}

// resolveConfigPath applies flag, then env, then the platform default.
func (o *cliOptions) resolveConfigPath(paths platform.Paths) string {
	if p := strings.TrimSpace(o.configPath); p != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv("GANTT_CONFIG")); p != "" {
		return p
	}
	return paths.ConfigPath
}

// resolveDBPath applies flag, then env, then the platform default. The bool
// reports whether the path overrides the config file.
func (o *cliOptions) resolveDBPath(paths platform.Paths) (string, bool) {
	if p := strings.TrimSpace(o.dbPath); p != "" {
		return p, true
	}
	if p := strings.TrimSpace(os.Getenv("GANTT_DB_PATH")); p != "" {
		return p, true
	}
	return paths.DBPath, false
}

// writeTaskTable renders tasks with one row each.
func writeTaskTable(out io.Writer, tasks []domain.Task) {
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.AppendHeader(table.Row{"ID", "Name", "Status", "Priority", "Start", "End", "Progress", "Assignee", "After"})
	for _, t := range tasks {
		tw.AppendRow(table.Row{
			shortID(t.ID),
			t.Name,
			t.Status,
			t.Priority,
			t.StartDate.Format(time.DateOnly),
			t.EndDate.Format(time.DateOnly),
			fmt.Sprintf("%d%%", t.Progress),
			t.Assignee,
			len(t.Dependencies),
		})
	}
	tw.AppendFooter(table.Row{"", fmt.Sprintf("%d tasks", len(tasks))})
	tw.Render()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// runExport writes the snapshot to outPath, or stdout for "-".
func runExport(svc *app.Service, outPath string, stdout io.Writer) error {
	encoded, err := json.MarshalIndent(svc.ExportSnapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot json: %w", err)
	}
	encoded = append(encoded, '\n')

	if outPath == "-" || outPath == "" {
		if _, err := stdout.Write(encoded); err != nil {
			return fmt.Errorf("write snapshot to stdout: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create export output dir: %w", err)
	}
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}

// runImport replaces the collection with the snapshot at inPath.
func runImport(ctx context.Context, svc *app.Service, inPath string) error {
	content, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}
	var snap app.Snapshot
	if err := json.Unmarshal(content, &snap); err != nil {
		return fmt.Errorf("decode snapshot json: %w", err)
	}
	if err := svc.ImportSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("import snapshot: %w", err)
	}
	return nil
}

// parseBoolEnv reads a boolean env var; the second result is false when unset
// or unparseable.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
