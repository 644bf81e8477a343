package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/hymnal/internal/models"
	"github.com/desertthunder/hymnal/internal/notion"
	"github.com/desertthunder/hymnal/internal/repositories"
	"github.com/desertthunder/hymnal/internal/services"
	"github.com/desertthunder/hymnal/internal/shared"
	"github.com/desertthunder/hymnal/internal/tasks"
	"github.com/desertthunder/hymnal/internal/ui"
	"github.com/jomei/notionapi"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Dependencies left nil in [RunnerOpts] are built from the configuration before a command runs.
type Runner struct {
	config     *shared.Config
	configPath string
	hymns      services.HymnRepository
	lectionary services.Lectionary
	passages   services.PassageFetcher
	drafter    services.Drafter
	hymnary    *services.HymnaryService
	archives   models.ArchiveStore
	usage      models.UsageStore
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	now        func() time.Time

	db     *sql.DB
	cancel context.CancelFunc
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Hymns      services.HymnRepository
	Lectionary services.Lectionary
	Passages   services.PassageFetcher
	Drafter    services.Drafter
	Hymnary    *services.HymnaryService
	Archive    models.ArchiveStore
	Usage      models.UsageStore
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Now        func() time.Time
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		hymns:      opts.Hymns,
		lectionary: opts.Lectionary,
		passages:   opts.Passages,
		drafter:    opts.Drafter,
		hymnary:    opts.Hymnary,
		archives:   opts.Archive,
		usage:      opts.Usage,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		now:        opts.Now,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, hymnsCommand, lectionaryCommand, suggestCommand, usageCommand, archiveCommand, planCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Configure loads the configuration named by --config and wires every dependency it enables.
//
// A missing config file falls back to the defaults; an unreadable or invalid one is an error.
func (r *Runner) Configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	if d := cmd.Duration("timeout"); d > 0 {
		ctx, r.cancel = context.WithTimeout(ctx, d)
	}

	if r.config == nil {
		if path := cmd.String("config"); path != "" {
			r.configPath = path
		}
		config, err := r.loadConfig()
		if err != nil {
			return ctx, err
		}
		r.config = config
	}

	if err := r.wire(ctx); err != nil {
		return ctx, err
	}
	return ctx, nil
}

// Close releases the database and the command deadline.
func (r *Runner) Close(ctx context.Context, cmd *cli.Command) error {
	if r.cancel != nil {
		r.cancel()
	}
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Runner) loadConfig() (*shared.Config, error) {
	var config *shared.Config
	if _, err := os.Stat(r.configPath); err == nil {
		if config, err = shared.LoadConfig(r.configPath); err != nil {
			return nil, err
		}
		r.logger.Debug("loaded config", "path", r.configPath)
	} else {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
		config = shared.DefaultConfig()
	}

	config.ApplyEnv(os.LookupEnv)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// wire builds the dependencies the configuration allows. Missing credentials leave a dependency
// nil so the commands that need it can report what to configure.
func (r *Runner) wire(ctx context.Context) error {
	cfg := r.config

	var client *notionapi.Client
	if cfg.Notion.APIKey != "" {
		var err error
		client, err = notion.NewClient(notion.Options{
			APIKey:            cfg.Notion.APIKey,
			RequestsPerSecond: cfg.Notion.RequestsPerSecond,
			Transport:         r.httpClient.Transport,
		})
		if err != nil {
			return err
		}
	}

	if r.hymns == nil && client != nil && cfg.Notion.HymnsDatabaseID != "" {
		schema := services.SchemaFromConfig(cfg.Notion.HymnProperties)
		hymns, err := services.NewNotionHymns(client, cfg.Notion.HymnsDatabaseID, schema, r.logger)
		if err != nil {
			return err
		}
		r.hymns = hymns
	}

	lookupClient := &http.Client{Transport: r.httpClient.Transport, Timeout: cfg.LectionaryTimeout()}
	if r.lectionary == nil {
		r.lectionary = services.NewLectionaryService(cfg.Lectionary.BaseURL, cfg.Lectionary.UserAgent, lookupClient)
	}
	if r.passages == nil {
		r.passages = services.NewScriptureService(cfg.Scripture.BaseURL, cfg.Scripture.Translation, lookupClient)
	}
	if r.hymnary == nil {
		r.hymnary = services.NewHymnaryService(cfg.Hymnary, lookupClient, r.logger)
	}

	if r.drafter == nil {
		drafter, err := services.NewDrafter(ctx, cfg.Generation, cfg.GenerationTimeout())
		switch {
		case errors.Is(err, shared.ErrMissingCredentials):
			r.logger.Debug("liturgy drafting disabled", "provider", cfg.Generation.Provider)
		case err != nil:
			return err
		default:
			r.drafter = drafter
		}
	}

	return r.openStores(ctx, client)
}

// openStores picks Notion for the archive and usage log when their databases are configured,
// and the local backend otherwise.
func (r *Runner) openStores(ctx context.Context, client *notionapi.Client) error {
	cfg := r.config

	if r.archives == nil && cfg.UsesNotionArchive() {
		store, err := repositories.NewNotionArchive(client, cfg.Notion.ArchiveDatabaseID)
		if err != nil {
			return err
		}
		r.archives = store
	}
	if r.usage == nil && cfg.UsesNotionUsage() {
		store, err := repositories.NewNotionUsage(client, cfg.Notion.UsageDatabaseID)
		if err != nil {
			return err
		}
		r.usage = store
	}
	if r.archives != nil && r.usage != nil {
		return nil
	}

	switch cfg.Storage.Backend {
	case shared.BackendSQLite:
		db, err := r.openDatabase(ctx)
		if err != nil {
			return err
		}
		if r.archives == nil {
			r.archives = repositories.NewArchiveRepository(db)
		}
		if r.usage == nil {
			r.usage = repositories.NewUsageRepository(db)
		}
	default:
		if r.archives == nil {
			r.archives = repositories.NewArchiveFile(cfg.Storage.DataDir)
		}
		if r.usage == nil {
			r.usage = repositories.NewUsageFile(cfg.Storage.DataDir)
		}
	}
	return nil
}

func (r *Runner) openDatabase(ctx context.Context) (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.NewDatabase(r.config.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRepository, err)
	}
	if r.config.Storage.DatabasePath != ":memory:" {
		shared.ConfigureDatabase(db, r.config.Storage.MaxOpenConns, r.config.Storage.MaxIdleConns)
	}
	if err := shared.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to run migrations: %v", shared.ErrRepository, err)
	}

	r.db = db
	return db, nil
}

func (r *Runner) requireHymns() (services.HymnRepository, error) {
	if r.hymns == nil {
		return nil, fmt.Errorf("%w: hymn catalog needs notion.api_key and notion.hymns_database_id", shared.ErrServiceUnavailable)
	}
	return r.hymns, nil
}

func (r *Runner) archive() *tasks.Archive {
	return tasks.NewArchive(r.archives, r.now)
}

func (r *Runner) usageTracker() *tasks.UsageTracker {
	return tasks.NewUsageTracker(r.usage)
}

func (r *Runner) planner() *tasks.Planner {
	return tasks.NewPlanner(tasks.PlannerOpts{
		Lectionary: r.lectionary,
		Passages:   r.passages,
		Drafter:    r.drafter,
		Logger:     r.logger,
	})
}

// today is the current calendar date.
func (r *Runner) today() time.Time {
	return shared.DateOf(r.now())
}

// dateFlag parses an optional YYYY-MM-DD flag, or returns fallback when unset.
func dateFlag(cmd *cli.Command, name string, fallback time.Time) (time.Time, error) {
	raw := cmd.String(name)
	if raw == "" {
		return fallback, nil
	}
	d, err := shared.ParseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: --%s: %v", shared.ErrInvalidFlag, name, err)
	}
	return d, nil
}

// intFlag returns the flag value, or fallback when it was not given.
func intFlag(cmd *cli.Command, name string, fallback int) (int, error) {
	if !cmd.IsSet(name) {
		return fallback, nil
	}
	n := cmd.Int(name)
	if n < 0 {
		return 0, fmt.Errorf("%w: --%s must not be negative", shared.ErrInvalidFlag, name)
	}
	return n, nil
}

// watchProgress prints updates until the returned stop function is called. Stop may be called more than once.
func (r *Runner) watchProgress() (chan tasks.ProgressUpdate, func()) {
	progress := make(chan tasks.ProgressUpdate, 32)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			switch update.Phase {
			case tasks.LookupReadings:
				r.writePlain("📖 %s\n", update.Message)
			case tasks.FetchPassages:
				r.writePlain("   %s\n", update.Message)
			case tasks.DraftSection:
				r.writePlain("✍  %s\n", update.Message)
			default:
				r.writePlain("%s\n", update.Message)
			}
		}
	}()
	var once sync.Once
	return progress, func() {
		once.Do(func() {
			close(progress)
			<-done
		})
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", ui.Title(title))
	r.writePlain("═══════════════════════════════════════\n")
}
