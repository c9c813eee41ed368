package suite

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/copyleftdev/stagecheck/internal/browser"
	"github.com/copyleftdev/stagecheck/internal/config"
	"github.com/copyleftdev/stagecheck/internal/flow"
	"github.com/copyleftdev/stagecheck/internal/logging"
	"github.com/copyleftdev/stagecheck/internal/stage"
	"github.com/copyleftdev/stagecheck/internal/summary"
	"github.com/copyleftdev/stagecheck/internal/table"
	"github.com/copyleftdev/stagecheck/internal/wizardtypes"
)

type Options struct {
	MaxParallel     int
	ScenarioTimeout time.Duration
	Flow            flow.Options
	// ClearCookies resets the page's cookies before a scenario starts. Pages
	// that share a browser context also share the wizard's session cookie.
	ClearCookies bool
}

// OptionsFromConfig maps configuration onto suite options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MaxParallel:     cfg.Suite.MaxParallel,
		ScenarioTimeout: cfg.Suite.ScenarioTimeout,
		Flow: flow.Options{
			NavigationTimeout: cfg.Browser.NavigationTimeout,
			SubmitTimeout:     cfg.Browser.SubmitTimeout,
		},
		ClearCookies: !cfg.Browser.IsolatePages,
	}
}

// Manager runs table flows as scenarios, each in its own page of one shared
// browser session.
type Manager struct {
	session browser.Session
	locator *stage.Locator
	embark  table.EmbarkExpectation
	opts    Options
	shots   *browser.Screenshotter
	logger  *zap.Logger

	mu        sync.RWMutex
	scenarios map[uuid.UUID]*wizardtypes.Scenario
	order     []uuid.UUID
}

func NewManager(session browser.Session, locator *stage.Locator, embark table.EmbarkExpectation, opts Options, shots *browser.Screenshotter, logger *zap.Logger) *Manager {
	if opts.MaxParallel < 1 {
		opts.MaxParallel = 1
	}
	return &Manager{
		session:   session,
		locator:   locator,
		embark:    embark,
		opts:      opts,
		shots:     shots,
		logger:    logging.OrNop(logger),
		scenarios: make(map[uuid.UUID]*wizardtypes.Scenario),
	}
}

// Run executes flows with at most MaxParallel scenarios at once and returns
// every scenario in flow order. A failing scenario does not stop its
// siblings; a browser launch failure or a cancelled ctx stops the run.
func (m *Manager) Run(ctx context.Context, flows []table.Flow) ([]wizardtypes.Scenario, error) {
	pending := make([]*wizardtypes.Scenario, len(flows))
	for i, f := range flows {
		pending[i] = m.submit(f.Name)
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	g, gctx := errgroup.WithContext(runCtx)
	sem := semaphore.NewWeighted(int64(m.opts.MaxParallel))

	for i, f := range flows {
		s := pending[i]
		if err := sem.Acquire(gctx, 1); err != nil {
			m.cancelPending(pending[i:])
			break
		}
		if gctx.Err() != nil {
			sem.Release(1)
			m.cancelPending(pending[i:])
			break
		}
		g.Go(func() error {
			err := m.execute(gctx, s, f)
			if err != nil {
				// stop before releasing so no queued scenario starts
				stop()
			}
			sem.Release(1)
			return err
		})
	}

	err := g.Wait()
	m.cancelPending(pending)
	if err == nil {
		err = ctx.Err()
	}
	return m.snapshot(pending), err
}

func (m *Manager) submit(name string) *wizardtypes.Scenario {
	now := time.Now().UTC()
	s := &wizardtypes.Scenario{
		ID:        uuid.New(),
		Flow:      name,
		Status:    wizardtypes.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scenarios[s.ID] = s
	m.order = append(m.order, s.ID)
	return s
}

// execute runs one scenario. Only a launch failure is returned; every other
// error is recorded on the scenario.
func (m *Manager) execute(ctx context.Context, s *wizardtypes.Scenario, f table.Flow) error {
	logger := m.logger.With(zap.String("scenario", s.ID.String()), zap.String("flow", f.Name))
	m.update(s, func(s *wizardtypes.Scenario) { s.Status = wizardtypes.StatusRunning })
	logger.Info("scenario started")

	sctx := ctx
	if m.opts.ScenarioTimeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, m.opts.ScenarioTimeout)
		defer cancel()
	}

	page, err := m.session.NewPage(sctx)
	if err != nil {
		m.finish(s, fmt.Errorf("open page: %w", err), ctx)
		logger.Error("could not open page", zap.Error(err))
		if errors.Is(err, wizardtypes.ErrLaunch) {
			return err
		}
		return nil
	}
	defer func() {
		if err := page.Close(); err != nil {
			logger.Warn("close page", zap.Error(err))
		}
	}()

	if m.opts.ClearCookies {
		if err := page.ClearCookies(sctx); err != nil {
			logger.Warn("clear cookies", zap.Error(err))
		}
	}

	runner := flow.NewRunner(page, m.locator, logger, m.opts.Flow).WithScreenshots(m.shots, f.Name)
	verifier := summary.NewVerifier(runner, logger)
	checks, err := Plan(f, m.embark, runner, verifier)
	if err != nil {
		m.finish(s, err, ctx)
		return nil
	}

	var failed error
	for _, c := range checks {
		if failed != nil {
			m.record(s, wizardtypes.CheckResult{Name: c.Name, Status: wizardtypes.CheckSkipped})
			continue
		}
		start := time.Now()
		err := c.Run(sctx)
		res := wizardtypes.CheckResult{Name: c.Name, Status: wizardtypes.CheckPassed, Duration: time.Since(start)}
		if err != nil {
			res.Status = wizardtypes.CheckFailed
			res.Error = err
			failed = fmt.Errorf("%s: %w", c.Name, err)
			logger.Error("check failed", zap.String("check", c.Name), zap.Error(err))
		} else {
			logger.Debug("check passed", zap.String("check", c.Name), zap.Duration("duration", res.Duration))
		}
		m.record(s, res)
	}

	m.finish(s, failed, ctx)
	logger.Info("scenario finished", zap.String("status", string(m.status(s))))
	return nil
}

func (m *Manager) update(s *wizardtypes.Scenario, fn func(*wizardtypes.Scenario)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(s)
	s.UpdatedAt = time.Now().UTC()
}

func (m *Manager) record(s *wizardtypes.Scenario, res wizardtypes.CheckResult) {
	m.update(s, func(s *wizardtypes.Scenario) { s.Checks = append(s.Checks, res) })
}

// finish settles a scenario. A scenario cut short by its parent context is
// cancelled rather than failed.
func (m *Manager) finish(s *wizardtypes.Scenario, err error, parent context.Context) {
	m.update(s, func(s *wizardtypes.Scenario) {
		switch {
		case err == nil:
			s.Status = wizardtypes.StatusPassed
		case parent.Err() != nil:
			s.Status = wizardtypes.StatusCancelled
			s.Error = err.Error()
		default:
			s.Status = wizardtypes.StatusFailed
			s.Error = err.Error()
		}
		s.FinishedAt = time.Now().UTC()
	})
}

func (m *Manager) cancelPending(list []*wizardtypes.Scenario) {
	for _, s := range list {
		m.update(s, func(s *wizardtypes.Scenario) {
			if s.Status == wizardtypes.StatusPending {
				s.Status = wizardtypes.StatusCancelled
				s.FinishedAt = time.Now().UTC()
			}
		})
	}
}

func (m *Manager) status(s *wizardtypes.Scenario) wizardtypes.ScenarioStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return s.Status
}

func (m *Manager) snapshot(list []*wizardtypes.Scenario) []wizardtypes.Scenario {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]wizardtypes.Scenario, len(list))
	for i, s := range list {
		out[i] = *s
		out[i].Checks = slices.Clone(s.Checks)
	}
	return out
}

// Scenario returns a copy of a scenario by ID.
func (m *Manager) Scenario(id uuid.UUID) (wizardtypes.Scenario, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.scenarios[id]
	if !ok {
		return wizardtypes.Scenario{}, fmt.Errorf("scenario %s not found", id)
	}
	c := *s
	c.Checks = slices.Clone(s.Checks)
	return c, nil
}

// Scenarios returns copies of every scenario in submission order.
func (m *Manager) Scenarios() []wizardtypes.Scenario {
	m.mu.RLock()
	list := make([]*wizardtypes.Scenario, len(m.order))
	for i, id := range m.order {
		list[i] = m.scenarios[id]
	}
	m.mu.RUnlock()
	return m.snapshot(list)
}

// Shutdown marks scenarios that never finished as cancelled.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.scenarios {
		if !s.IsFinal() {
			m.logger.Info("cancelling scenario during shutdown", zap.String("scenario", id.String()))
			s.Status = wizardtypes.StatusCancelled
			s.UpdatedAt = time.Now().UTC()
			s.FinishedAt = s.UpdatedAt
		}
	}
	return ctx.Err()
}
