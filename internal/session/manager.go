package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"station-billing-backend/internal/model"
	"station-billing-backend/internal/store"
)

// Options configures a Manager.
type Options struct {
	// DefaultHourlyRate is applied to stations with no persisted snapshot.
	DefaultHourlyRate string
	// TickInterval is the wake-up period for active sessions.
	TickInterval time.Duration
	// SeedStations is the fleet size created on first run.
	SeedStations int
	// Clock overrides the wall-clock source; nil means time.Now.
	Clock Clock
}

// Manager owns one engine per station and routes intents by station id.
type Manager struct {
	mu      sync.RWMutex
	engines map[int64]*Engine
	order   []int64

	store    store.Store
	notifier Notifier
	deps     engineDeps

	ctx    context.Context
	cancel context.CancelFunc
}

// NewManager seeds the registry on first run, rebuilds an engine per station
// from its persisted snapshot, and resumes tickers for sessions that were
// active when the process last stopped.
func NewManager(ctx context.Context, s store.Store, notifier Notifier, opts Options) (*Manager, error) {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.DefaultHourlyRate == "" {
		opts.DefaultHourlyRate = "50"
	}

	mctx, cancel := context.WithCancel(ctx)
	m := &Manager{
		engines:  make(map[int64]*Engine),
		store:    s,
		notifier: notifier,
		deps: engineDeps{
			clock:        opts.Clock,
			store:        s,
			notifier:     notifier,
			tickInterval: opts.TickInterval,
			defaultRate:  opts.DefaultHourlyRate,
		},
		ctx:    mctx,
		cancel: cancel,
	}

	if opts.SeedStations > 0 {
		if _, err := s.SeedStations(ctx, opts.SeedStations); err != nil {
			cancel()
			return nil, err
		}
	}

	stations, err := s.ListStations(ctx)
	if err != nil {
		cancel()
		return nil, err
	}
	for _, station := range stations {
		snap, err := s.LoadSessionState(ctx, station.ID)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to restore station %d: %w", station.ID, err)
		}
		m.attach(station, snap)
	}
	return m, nil
}

func (m *Manager) attach(station model.Station, snap *model.SessionState) *Engine {
	engine := newEngine(m.ctx, station, snap, m.deps)
	m.mu.Lock()
	m.engines[station.ID] = engine
	m.order = append(m.order, station.ID)
	m.mu.Unlock()
	return engine
}

// Engine returns the engine owning the given station.
func (m *Manager) Engine(stationID int64) (*Engine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	engine, ok := m.engines[stationID]
	if !ok {
		return nil, ErrUnknownStation
	}
	return engine, nil
}

// AddStation registers a new station and attaches a fresh idle engine to it.
// An empty name gets an auto-generated one; identifiers are never reused.
func (m *Manager) AddStation(ctx context.Context, name string) (Status, error) {
	station, err := m.store.CreateStation(ctx, strings.TrimSpace(name))
	if err != nil {
		return Status{}, err
	}
	engine := m.attach(station, nil)
	return engine.Status(), nil
}

// Rename replaces a station's display name. Empty and whitespace-only names
// are rejected; in-flight timing is untouched.
func (m *Manager) Rename(ctx context.Context, stationID int64, name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	engine, err := m.Engine(stationID)
	if err != nil {
		return err
	}
	if err := m.store.RenameStation(ctx, stationID, trimmed); err != nil {
		return err
	}
	engine.setName(trimmed)
	return nil
}

// Statuses reports every engine in station order.
func (m *Manager) Statuses() []Status {
	m.mu.RLock()
	ids := make([]int64, len(m.order))
	copy(ids, m.order)
	m.mu.RUnlock()

	statuses := make([]Status, 0, len(ids))
	for _, id := range ids {
		m.mu.RLock()
		engine, ok := m.engines[id]
		m.mu.RUnlock()
		if ok {
			statuses = append(statuses, engine.Status())
		}
	}
	return statuses
}

// Close tears down every engine, cancelling pending ticks.
func (m *Manager) Close() {
	m.mu.RLock()
	engines := make([]*Engine, 0, len(m.engines))
	for _, e := range m.engines {
		engines = append(engines, e)
	}
	m.mu.RUnlock()

	for _, e := range engines {
		e.close()
	}
	m.cancel()
}
