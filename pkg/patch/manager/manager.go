package manager

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"latent-hq/callisto/pkg/config"
	"latent-hq/callisto/pkg/lrl/parser"
	"latent-hq/callisto/pkg/patch/engine"
	"latent-hq/callisto/pkg/patch/engine/source"
	"latent-hq/callisto/pkg/patch/git"
)

// Manager ties a rule source to an engine. It loads documents from
// local files or a git checkout, installs them on the engine, and can
// watch the source for changes. A failed load or reload leaves the
// engine's previous program active.
type Manager struct {
	config *config.RulesConfig
	engine *engine.Engine
	source source.RuleSource
	logger *slog.Logger

	gitRepo    *git.Repository
	gitWatcher *git.PollWatcher

	mu           sync.RWMutex
	lastLoadTime time.Time
	lastLoadErr  error
	documents    int
	rules        int

	watchMu     sync.Mutex
	watchCancel context.CancelFunc
}

// Status describes the manager's last load and its source.
type Status struct {
	// Mode is "file" or "git".
	Mode string

	// LastLoadTime is when the last successful load finished. Zero
	// before the first load.
	LastLoadTime time.Time

	// LastError is the error from the most recent load attempt, nil
	// on success.
	LastError error

	// Documents is the number of rule documents in the active program.
	Documents int

	// Rules is the number of compiled rules in the active program.
	Rules int

	// Head is the checkout's commit SHA in git mode, empty otherwise.
	Head string
}

// New creates a manager for cfg and eng. In git mode the repository is
// cloned before New returns, so a manager that exists can always load.
func New(cfg *config.RulesConfig, eng *engine.Engine, logger *slog.Logger) (*Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("rules config is required")
	}
	if eng == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		config: cfg,
		engine: eng,
		logger: logger,
	}

	switch cfg.Mode {
	case "", "file":
		if len(cfg.Paths) == 0 {
			return nil, fmt.Errorf("file mode requires at least one rule path")
		}
		m.source = m.buildFileSource(cfg.Paths)

	case "git":
		if !cfg.Git.Enabled {
			return nil, fmt.Errorf("rules mode is git but git loading is not enabled")
		}

		repo, err := git.NewRepository(&cfg.Git)
		if err != nil {
			return nil, fmt.Errorf("failed to create rule repository: %w", err)
		}
		if err := repo.Clone(context.Background()); err != nil {
			return nil, fmt.Errorf("failed to clone rule repository: %w", err)
		}
		m.gitRepo = repo
		m.source = m.buildFileSource([]string{repo.RulesPath()})

		if cfg.Git.Poll.Enabled {
			m.gitWatcher = git.NewPollWatcher(
				repo,
				cfg.Git.Poll.Interval,
				cfg.Git.Poll.Timeout,
				func(string) error { return m.Reload(context.Background()) },
			)
			m.gitWatcher.SetLogger(logger)
		}

	default:
		return nil, fmt.Errorf("unknown rules mode: %q", cfg.Mode)
	}

	return m, nil
}

// buildFileSource creates a file source over paths with the configured
// strictness and parser options.
func (m *Manager) buildFileSource(paths []string) *source.FileSource {
	p := parser.NewParser().WithBraceSubstitution(m.config.BraceSubstitution)
	return source.NewFileSource(paths, m.logger).
		WithStrict(m.config.Strict).
		WithParser(p)
}

// Load loads rule documents from the source and installs them on the
// engine. Meant for startup; errors should stop the host.
func (m *Manager) Load(ctx context.Context) error {
	docs, ruleCount, err := m.install(ctx)
	if err != nil {
		m.logger.Error("failed to load rules", "error", err)
		return err
	}

	m.logger.Info("rules loaded",
		"mode", m.Mode(),
		"documents", docs,
		"rules", ruleCount,
	)
	return nil
}

// Reload loads rule documents from the source and installs them on the
// engine. On failure the previous program stays active and the error
// is logged and returned; watchers call this and keep watching.
func (m *Manager) Reload(ctx context.Context) error {
	docs, ruleCount, err := m.install(ctx)
	if err != nil {
		m.logger.Error("failed to reload rules, keeping previous program", "error", err)
		return err
	}

	m.logger.Info("rules reloaded",
		"documents", docs,
		"rules", ruleCount,
	)
	return nil
}

// install loads, compiles and swaps in one pass, recording the outcome
// for Status. The engine's Reload only swaps after a clean compile.
func (m *Manager) install(ctx context.Context) (int, int, error) {
	named, err := m.source.Load(ctx)
	if err != nil {
		m.recordLoad(0, 0, err)
		return 0, 0, err
	}

	if err := m.engine.Reload(source.Documents(named)...); err != nil {
		m.recordLoad(0, 0, err)
		return 0, 0, err
	}

	ruleCount := 0
	if p := m.engine.Program(); p != nil {
		ruleCount = p.Len()
	}
	m.recordLoad(len(named), ruleCount, nil)
	return len(named), ruleCount, nil
}

func (m *Manager) recordLoad(docs, rules int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastLoadErr = err
	if err == nil {
		m.lastLoadTime = time.Now()
		m.documents = docs
		m.rules = rules
	}
}

// Check loads and compiles the source's documents without installing
// anything. Used for lint and dry runs.
func (m *Manager) Check(ctx context.Context) error {
	named, err := m.source.Load(ctx)
	if err != nil {
		return err
	}
	if _, err := engine.Compile(source.Documents(named)...); err != nil {
		return err
	}
	return nil
}

// Watch blocks watching the rule source until ctx is cancelled. In
// file mode it watches the configured paths with fsnotify; in git mode
// it polls the remote. Changed rules are installed through Reload.
func (m *Manager) Watch(ctx context.Context) error {
	m.watchMu.Lock()
	if m.watchCancel != nil {
		m.watchMu.Unlock()
		return fmt.Errorf("already watching")
	}
	watchCtx, cancel := context.WithCancel(ctx)
	m.watchCancel = cancel
	m.watchMu.Unlock()

	defer func() {
		cancel()
		m.watchMu.Lock()
		m.watchCancel = nil
		m.watchMu.Unlock()
	}()

	if m.gitRepo != nil {
		return m.watchGit(watchCtx)
	}
	return m.watchFiles(watchCtx)
}

func (m *Manager) watchGit(ctx context.Context) error {
	if m.gitWatcher == nil {
		return fmt.Errorf("git polling is not enabled")
	}

	if err := m.gitWatcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start git watcher: %w", err)
	}

	<-ctx.Done()

	if err := m.gitWatcher.Stop(); err != nil {
		m.logger.Debug("git watcher stop", "error", err)
	}

	stats := m.gitWatcher.Stats()
	m.logger.Info("git rule watching stopped",
		"polls", stats.PollCount,
		"reloads", stats.SuccessfulReloads,
		"failed_reloads", stats.FailedReloads,
	)
	return nil
}

func (m *Manager) watchFiles(ctx context.Context) error {
	if !m.config.Watch {
		return fmt.Errorf("rule watching is not enabled")
	}

	fw, err := NewFileWatcher(&FileWatcherConfig{
		Paths:            m.config.Paths,
		DebounceInterval: m.config.Debounce,
		SkipHidden:       true,
	}, m.logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	return fw.Watch(ctx, func() error {
		return m.Reload(context.Background())
	})
}

// Status returns a snapshot of the manager's load state.
func (m *Manager) Status() Status {
	m.mu.RLock()
	s := Status{
		Mode:         m.Mode(),
		LastLoadTime: m.lastLoadTime,
		LastError:    m.lastLoadErr,
		Documents:    m.documents,
		Rules:        m.rules,
	}
	m.mu.RUnlock()

	if m.gitRepo != nil {
		if head, err := m.gitRepo.Head(); err == nil {
			s.Head = head.SHA
		}
	}
	return s
}

// HealthCheck reports whether the manager can serve evaluations. It
// satisfies health.CheckFunc, so hosts register it on their readiness
// probe:
//
//	checker.RegisterCheck(health.ComponentRules, mgr.HealthCheck)
func (m *Manager) HealthCheck(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.engine.Program() == nil {
		if m.lastLoadErr != nil {
			return fmt.Errorf("no rule program loaded: %w", m.lastLoadErr)
		}
		return fmt.Errorf("no rule program loaded")
	}
	return nil
}

// Mode returns "file" or "git".
func (m *Manager) Mode() string {
	if m.gitRepo != nil {
		return "git"
	}
	return "file"
}

// Repository returns the git repository in git mode, nil otherwise.
func (m *Manager) Repository() *git.Repository {
	return m.gitRepo
}

// Close stops any active watch. The engine is the caller's to close.
func (m *Manager) Close() error {
	m.watchMu.Lock()
	cancel := m.watchCancel
	m.watchMu.Unlock()

	if cancel != nil {
		cancel()
	}

	m.logger.Debug("rule manager closed")
	return nil
}
