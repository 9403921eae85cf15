package app

import (
	"context"
	"fmt"
	"io"

	"github.com/a-gn/claude-setup/internal/config"
	"github.com/a-gn/claude-setup/internal/console"
	"github.com/a-gn/claude-setup/internal/environment"
	"github.com/a-gn/claude-setup/internal/fetch"
	"github.com/a-gn/claude-setup/internal/history"
	"github.com/a-gn/claude-setup/internal/logging"
	"github.com/a-gn/claude-setup/internal/safety"
	"github.com/a-gn/claude-setup/internal/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// AppFactory handles the creation and initialization of App instances.
// Its With* methods replace production components, mainly for tests.
type AppFactory struct {
	fileSystem  afero.Fs
	env         *environment.Env
	fetcher     fetch.Fetcher
	cloner      fetch.Cloner
	logWriter   io.Writer
	databaseDSN string
}

// NewAppFactory creates a new instance of AppFactory
func NewAppFactory() *AppFactory {
	return &AppFactory{}
}

func (f *AppFactory) WithFileSystem(fileSystem afero.Fs) *AppFactory {
	f.fileSystem = fileSystem
	return f
}

func (f *AppFactory) WithEnv(env environment.Env) *AppFactory {
	f.env = &env
	return f
}

func (f *AppFactory) WithFetcher(fetcher fetch.Fetcher) *AppFactory {
	f.fetcher = fetcher
	return f
}

func (f *AppFactory) WithCloner(cloner fetch.Cloner) *AppFactory {
	f.cloner = cloner
	return f
}

// WithLogWriter sends the structured log to w instead of the rotated log file.
func (f *AppFactory) WithLogWriter(w io.Writer) *AppFactory {
	f.logWriter = w
	return f
}

// WithDatabase opens the history database at dsn instead of the XDG data path.
func (f *AppFactory) WithDatabase(dsn string) *AppFactory {
	f.databaseDSN = dsn
	return f
}

// FileSystem returns the filesystem apps created by f will use.
func (f *AppFactory) FileSystem() afero.Fs {
	return f.getFileSystem()
}

func (f *AppFactory) getFileSystem() afero.Fs {
	if f.fileSystem != nil {
		return f.fileSystem
	}
	return afero.NewOsFs()
}

// CreateApp refuses to run as root, then loads configuration, attaches a
// logger to the returned context and opens the install history. A history database that cannot be opened
// is logged and replaced by a no-op recorder.
func (f *AppFactory) CreateApp(ctx context.Context, opts AppOptions) (context.Context, *App, error) {
	env, err := f.Environment()
	if err != nil {
		return ctx, nil, err
	}
	if err := safety.RefuseRoot(env); err != nil {
		return ctx, nil, err
	}

	fileSystem := f.getFileSystem()

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = storage.DefaultConfigPath()
	}
	cfg, err := config.LoadOrDefault(fileSystem, configPath)
	if err != nil {
		return ctx, nil, err
	}

	runID := uuid.NewString()
	logCtx, err := logging.New(ctx, fileSystem, f.loggingConfig(cfg, opts, runID))
	if err != nil {
		return ctx, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	ctx = logCtx
	logging.Get(ctx).Debug().Str("config", configPath).Msg("Configuration loaded")

	app := &App{
		fileSystem: fileSystem,
		fetcher:    f.fetcher,
		cloner:     f.cloner,
		recorder:   history.Nop{},
		stdout:     opts.stdout(),
		stdin:      opts.stdin(),
		config:     cfg,
		console:    console.New(opts.stdout()),
		configPath: configPath,
		runID:      runID,
		env:        env,
	}
	if app.fetcher == nil {
		app.fetcher = fetch.NewHTTPFetcher(fileSystem, cfg.Source.Timeout)
	}
	if app.cloner == nil {
		app.cloner = fetch.GitCloner{}
	}

	f.openHistory(ctx, app)
	return ctx, app, nil
}

// Environment returns the injected environment or the process one. It
// reads process state only and touches no files.
func (f *AppFactory) Environment() (environment.Env, error) {
	env := environment.Env{}
	if f.env != nil {
		env = *f.env
	} else {
		var err error
		if env, err = environment.FromOS(); err != nil {
			return environment.Env{}, fmt.Errorf("failed to read environment: %w", err)
		}
	}
	if err := env.Validate(); err != nil {
		return environment.Env{}, fmt.Errorf("invalid environment: %w", err)
	}
	return env, nil
}

func (f *AppFactory) loggingConfig(cfg *config.Config, opts AppOptions, runID string) logging.Config {
	level := logging.ParseLevel(cfg.Logging.Level)
	logConfig := logging.Config{
		Writer:     f.logWriter,
		RunID:      runID,
		MaxSizeMB:  cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAge,
		Level:      level,
	}
	if opts.Verbose {
		logConfig.Console = opts.stderr()
		if level > zerolog.DebugLevel {
			logConfig.Level = zerolog.DebugLevel
		}
	}
	return logConfig
}

func (f *AppFactory) openHistory(ctx context.Context, app *App) {
	logger := logging.Get(ctx)

	dsn := f.databaseDSN
	if dsn == "" {
		path, err := storage.New(app.fileSystem).GetDatabasePath()
		if err != nil {
			logger.Warn().Err(err).Msg("Install history disabled")
			return
		}
		dsn = path
	}

	store, err := history.Open(ctx, dsn, app.env.Now)
	if err != nil {
		logger.Warn().Err(err).Str("dsn", dsn).Msg("Install history disabled")
		return
	}

	app.store = store
	app.recorder = store
}
