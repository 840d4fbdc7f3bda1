// Censo parroquial: household census for parish surveyors.
//
// A terminal wizard that captures a multi-stage household survey, keeps an
// autosaved draft on the device and submits the finished survey to the
// parish backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/censoparroquial/censo/internal/api"
	"github.com/censoparroquial/censo/internal/config"
	"github.com/censoparroquial/censo/internal/database"
	"github.com/censoparroquial/censo/internal/models"
	"github.com/censoparroquial/censo/internal/repository"
	"github.com/censoparroquial/censo/internal/services/survey"
	"github.com/censoparroquial/censo/internal/tui"
)

// Build information (set via ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// globalOptions are the flags shared by every command.
type globalOptions struct {
	configPath string
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "censo",
		Short: "Censo parroquial: encuesta de hogares por etapas",
		Long: `censo captures the parish household census in six stages:
general information, housing, water services, family, deceased members and
observations with data-use consent.

Run without arguments to start a new survey or resume the saved draft.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSurvey(cmd.Context(), opts, "")
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to configuration file")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	root.AddCommand(newSurveyCmd(opts))
	root.AddCommand(newDraftCmd(opts))
	root.AddCommand(newCatalogCmd(opts))
	root.AddCommand(newMigrateCmd(opts))
	root.AddCommand(newVersionCmd())

	return root
}

func main() {
	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		slog.Info("received shutdown signal", "signal", sig)
		cancel()

		// Force exit after timeout
		time.AfterFunc(10*time.Second, func() {
			slog.Error("forced shutdown after timeout")
			os.Exit(1)
		})
	}()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("application error", "error", err)
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// env holds what every command needs once configuration, logging and the
// local store are set up.
type env struct {
	cfg     *config.Config
	cfgPath string
	db      *database.DB
	closers []func()
}

// Close releases the store and the log file in reverse order.
func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

// setup loads configuration, configures logging and opens the local store.
// Pending migrations are applied when migrate is true.
func setup(ctx context.Context, opts *globalOptions, migrate bool) (*env, error) {
	cfg, cfgPath, err := config.Load(opts.configPath, true)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	e := &env{cfg: cfg, cfgPath: cfgPath}

	closeLog, err := setupLogging(cfg, opts.debug)
	if err != nil {
		return nil, err
	}
	e.closers = append(e.closers, closeLog)

	slog.Info("censo starting",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cfgPath,
	)

	db, err := openStore(cfg)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.db = db
	e.closers = append(e.closers, func() {
		slog.Info("closing database")
		if err := db.Close(); err != nil {
			slog.Error("error closing database", "error", err)
		}
	})

	if migrate {
		if err := migrateUp(ctx, db); err != nil {
			e.Close()
			return nil, err
		}
	}

	return e, nil
}

func setupLogging(cfg *config.Config, debug bool) (func(), error) {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	} else {
		switch cfg.Logging.Level {
		case config.LogLevelDebug:
			logLevel = slog.LevelDebug
		case config.LogLevelWarn:
			logLevel = slog.LevelWarn
		case config.LogLevelError:
			logLevel = slog.LevelError
		}
	}

	logPath, err := config.EnsureLogDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	closeLog := func() {}
	var logHandler slog.Handler
	if logPath != "" {
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		closeLog = func() { logFile.Close() }

		logHandler = slog.NewJSONHandler(logFile, &slog.HandlerOptions{
			Level: logLevel,
		})
	} else {
		logHandler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		})
	}

	slog.SetDefault(slog.New(logHandler))
	return closeLog, nil
}

func openStore(cfg *config.Config) (*database.DB, error) {
	dbPath, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("ensuring data directory: %w", err)
	}

	backupDir, err := config.BackupDir(cfg)
	if err != nil {
		slog.Warn("failed to create backup directory", "error", err)
		backupDir = ""
	}

	// Attempt recovery of an existing store before opening it
	if _, err := os.Stat(dbPath); err == nil {
		report, err := database.AttemptRecovery(dbPath, backupDir)
		if err != nil {
			slog.Error("database recovery failed",
				"path", dbPath,
				"steps", len(report.Steps),
			)
			return nil, fmt.Errorf("database recovery failed: %w", err)
		}

		switch report.Result {
		case database.RecoveryFromBackup:
			slog.Warn("database restored from backup",
				"backup", report.BackupUsed,
			)
		case database.RecoverySuccess:
			slog.Debug("database integrity verified")
		}
	}

	db, err := database.Open(dbPath, &cfg.Database, backupDir)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

func migrateUp(ctx context.Context, db *database.DB) error {
	migrator, err := database.NewMigrator(db)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}

	result, err := migrator.MigrateUp(ctx)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	if len(result.Applied) > 0 {
		slog.Info("applied migrations",
			"count", len(result.Applied),
			"to_version", result.TargetVersion,
		)
	}
	return nil
}

// backend returns the catalog fetcher and survey service for cfg. Without
// a configured backend the fetcher is nil, so catalogs come from the local
// cache, and submissions fail with api.ErrOffline.
func backend(cfg *config.Config) (survey.CatalogFetcher, survey.SurveyService, error) {
	client, err := api.New(cfg.API)
	if errors.Is(err, api.ErrOffline) {
		slog.Warn("no backend configured, working offline")
		return nil, api.Offline{}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("creating api client: %w", err)
	}
	return api.NewCatalogFetcher(client), api.NewSurveyService(client), nil
}

// newWizard assembles the survey engine over the local store and backend.
func newWizard(e *env) (*survey.Wizard, *survey.Catalog, error) {
	fetcher, service, err := backend(e.cfg)
	if err != nil {
		return nil, nil, err
	}

	drafts := repository.NewDraftRepository(e.db.DB)
	catalog := survey.NewCatalog(fetcher, repository.NewCatalogRepository(e.db.DB))

	wizard, err := survey.New(survey.Config{
		Stages:          models.DefaultStages(),
		Store:           drafts,
		Submitter:       survey.NewSubmitter(service, drafts),
		Sources:         catalog,
		Validator:       survey.NewValidator(e.cfg.Survey.LeadershipRoles),
		ConsentField:    e.cfg.Survey.ConsentField,
		DisableAutosave: !e.cfg.Survey.Autosave,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating survey wizard: %w", err)
	}
	return wizard, catalog, nil
}

func runSurvey(ctx context.Context, opts *globalOptions, surveyID string) error {
	e, err := setup(ctx, opts, true)
	if err != nil {
		return err
	}
	defer e.Close()

	wizard, catalog, err := newWizard(e)
	if err != nil {
		return err
	}

	// Set version info for TUI
	tui.Version = Version
	tui.BuildTime = BuildTime

	slog.Info("starting TUI",
		"parish", e.cfg.Parish.Name,
		"survey_id", surveyID,
		"offline", e.cfg.API.Offline(),
	)

	if err := tui.Run(ctx, e.cfg, wizard, catalog, surveyID); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	slog.Info("censo shutdown complete")
	return nil
}
