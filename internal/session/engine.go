package session

import (
	"context"
	"log"
	"sync"
	"time"

	"station-billing-backend/internal/billing"
	"station-billing-backend/internal/model"
	"station-billing-backend/internal/store"
)

// Clock is the wall-clock source sampled on start, tick, and stop.
type Clock func() time.Time

// Notifier receives session lifecycle cues. Implementations must not block:
// dispatch happens on the engine's critical path and failures are swallowed,
// never surfaced to the transition that triggered them.
type Notifier interface {
	SessionStarted(stationID int64, stationName string)
	SessionExpired(stationID int64, stationName string)
}

// Engine owns the billing state machine for a single station.
//
// Elapsed time is always derived from the persisted start instant against the
// clock, never accumulated across ticks, so a restarted process recovers an
// in-flight session with correct elapsed time.
type Engine struct {
	stationID int64

	mu         sync.Mutex
	name       string
	state      model.SessionState
	cancelTick context.CancelFunc

	clock        Clock
	store        store.Store
	notifier     Notifier
	tickInterval time.Duration
	baseCtx      context.Context
}

// Status is a point-in-time view of an engine for rendering.
type Status struct {
	StationID      int64      `json:"station_id"`
	StationName    string     `json:"station_name"`
	Active         bool       `json:"active"`
	Mode           string     `json:"mode"`
	HourlyRate     string     `json:"hourly_rate"`
	CustomerName   string     `json:"customer_name"`
	FixedMinutes   int        `json:"fixed_minutes"`
	Expired        bool       `json:"expired"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	ElapsedSeconds int64      `json:"elapsed_seconds"`
	DisplaySeconds int64      `json:"display_seconds"`
	RunningCost    float64    `json:"running_cost"`
}

// newEngine builds an engine from a station and its persisted snapshot. A nil
// snapshot gets a fresh idle state with the configured default rate. When the
// snapshot says a session was left active, the ticker resumes immediately and
// elapsed time picks up from the persisted start instant.
func newEngine(ctx context.Context, station model.Station, snap *model.SessionState, deps engineDeps) *Engine {
	e := &Engine{
		stationID:    station.ID,
		name:         station.Name,
		clock:        deps.clock,
		store:        deps.store,
		notifier:     deps.notifier,
		tickInterval: deps.tickInterval,
		baseCtx:      ctx,
	}
	if snap != nil {
		e.state = *snap
	} else {
		e.state = model.SessionState{
			StationID:    station.ID,
			HourlyRate:   deps.defaultRate,
			Mode:         model.ModeOpen,
			FixedMinutes: 60,
		}
	}
	if e.state.Active && e.state.StartedAt == nil {
		// Corrupt snapshot; reset to idle rather than guess a start time.
		log.Printf("station %d: active snapshot without start time, resetting to idle", station.ID)
		e.resetLocked()
		e.persistLocked(ctx)
	}
	if e.state.Active {
		e.startTickerLocked()
	}
	return e
}

type engineDeps struct {
	clock        Clock
	store        store.Store
	notifier     Notifier
	tickInterval time.Duration
	defaultRate  string
}

// StationID returns the stable station identifier.
func (e *Engine) StationID() int64 {
	return e.stationID
}

// Start begins a billing session. It is valid only while idle and requires a
// parseable hourly rate; fixed mode additionally requires a positive duration.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Active {
		return ErrAlreadyRunning
	}
	if _, err := billing.ParseRate(e.state.HourlyRate); err != nil {
		return &ValidationError{Field: "hourly_rate", Reason: err.Error()}
	}
	if e.state.Mode == model.ModeFixed && e.state.FixedMinutes <= 0 {
		return &ValidationError{Field: "fixed_minutes", Reason: "must be a positive number of minutes"}
	}

	now := e.clock()
	e.state.Active = true
	e.state.StartedAt = &now
	e.state.Expired = false
	e.state.AlarmFired = false
	e.persistLocked(ctx)
	e.startTickerLocked()

	// Best-effort start cue; the notifier swallows its own failures.
	e.notifier.SessionStarted(e.stationID, e.name)
	return nil
}

// Stop ends the running session, appends the completed record to the ledger,
// and resets the engine to idle. The pending tick is cancelled before the
// start time is cleared so a racing tick can never observe a half-stopped
// session.
func (e *Engine) Stop(ctx context.Context) (*model.SessionRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.Active {
		return nil, ErrNotRunning
	}
	e.stopTickerLocked()

	var rec *model.SessionRecord
	if e.state.StartedAt != nil {
		start := *e.state.StartedAt
		end := e.clock()
		duration := int64(end.Sub(start).Seconds())
		rate := billing.DisplayRate(e.state.HourlyRate)
		rec = &model.SessionRecord{
			StationID:       e.stationID,
			StationName:     e.name,
			StartedAt:       start,
			EndedAt:         end,
			DurationSeconds: duration,
			HourlyRate:      rate,
			TotalCost:       billing.Cost(duration, rate),
		}
		if err := e.store.AppendRecord(ctx, rec); err != nil {
			log.Printf("station %d: failed to append session record: %v", e.stationID, err)
		}
	}

	e.resetLocked()
	e.persistLocked(ctx)
	return rec, nil
}

// SetRate updates the hourly rate. Ignored while a session is running; the UI
// disables the input, but the engine refuses the mutation regardless.
func (e *Engine) SetRate(ctx context.Context, rate string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Active {
		return nil
	}
	e.state.HourlyRate = rate
	e.persistLocked(ctx)
	return nil
}

// SetMode switches between open and fixed billing. Ignored while running.
func (e *Engine) SetMode(ctx context.Context, mode string) error {
	if mode != model.ModeOpen && mode != model.ModeFixed {
		return &ValidationError{Field: "mode", Reason: `must be "open" or "fixed"`}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Active {
		return nil
	}
	e.state.Mode = mode
	e.persistLocked(ctx)
	return nil
}

// SetFixedDuration updates the fixed-mode duration in minutes. Ignored while
// running; a non-positive value is accepted here but blocks Start.
func (e *Engine) SetFixedDuration(ctx context.Context, minutes int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Active {
		return nil
	}
	e.state.FixedMinutes = minutes
	e.persistLocked(ctx)
	return nil
}

// SetCustomerName updates the customer label. Ignored while running.
func (e *Engine) SetCustomerName(ctx context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Active {
		return nil
	}
	e.state.CustomerName = name
	e.persistLocked(ctx)
	return nil
}

// setName updates the display name used for future records and alerts.
// Renaming never disturbs in-flight timing.
func (e *Engine) setName(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.name = name
}

// Status reports the engine's current view. In open mode the display value
// counts up; in fixed mode it counts down and may go negative, since expiry
// flags the session but never force-stops it.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := Status{
		StationID:    e.stationID,
		StationName:  e.name,
		Active:       e.state.Active,
		Mode:         e.state.Mode,
		HourlyRate:   e.state.HourlyRate,
		CustomerName: e.state.CustomerName,
		FixedMinutes: e.state.FixedMinutes,
		Expired:      e.state.Expired,
		StartedAt:    e.state.StartedAt,
	}
	if e.state.Active && e.state.StartedAt != nil {
		elapsed := int64(e.clock().Sub(*e.state.StartedAt).Seconds())
		st.ElapsedSeconds = elapsed
		st.RunningCost = billing.Cost(elapsed, billing.DisplayRate(e.state.HourlyRate))
		if e.state.Mode == model.ModeFixed {
			st.DisplaySeconds = int64(e.state.FixedMinutes)*60 - elapsed
		} else {
			st.DisplaySeconds = elapsed
		}
	}
	return st
}

// Tick recomputes elapsed time and, in fixed mode, raises the one-shot expiry
// alarm when the threshold is crossed. The AlarmFired latch is independent of
// Expired, so ticks after the crossing never re-fire even if Expired is
// manipulated elsewhere.
func (e *Engine) Tick(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.Active || e.state.StartedAt == nil {
		return
	}
	if e.state.Mode != model.ModeFixed {
		return
	}
	elapsed := e.clock().Sub(*e.state.StartedAt)
	threshold := time.Duration(e.state.FixedMinutes) * time.Minute
	if elapsed < threshold || e.state.AlarmFired {
		return
	}
	e.state.Expired = true
	e.state.AlarmFired = true
	e.persistLocked(ctx)
	e.notifier.SessionExpired(e.stationID, e.name)
}

// runTicker is the per-session wake-up loop. Timer+Reset keeps firings from
// overlapping: each tick completes before the next is scheduled.
func (e *Engine) runTicker(ctx context.Context) {
	timer := time.NewTimer(e.tickInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			e.Tick(ctx)
			timer.Reset(e.tickInterval)
		}
	}
}

func (e *Engine) startTickerLocked() {
	ctx, cancel := context.WithCancel(e.baseCtx)
	e.cancelTick = cancel
	go e.runTicker(ctx)
}

func (e *Engine) stopTickerLocked() {
	if e.cancelTick != nil {
		e.cancelTick()
		e.cancelTick = nil
	}
}

func (e *Engine) resetLocked() {
	e.state.Active = false
	e.state.StartedAt = nil
	e.state.CustomerName = ""
	e.state.Expired = false
	e.state.AlarmFired = false
}

// persistLocked writes the full snapshot. A failed write degrades crash
// recovery for the next restart but never blocks the in-memory transition.
func (e *Engine) persistLocked(ctx context.Context) {
	if err := e.store.SaveSessionState(ctx, &e.state); err != nil {
		log.Printf("station %d: failed to persist session state: %v", e.stationID, err)
	}
}

// close tears the engine down, cancelling any pending tick.
func (e *Engine) close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopTickerLocked()
}
