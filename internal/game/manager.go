package game

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/cuetable/backend/internal/config"
	"github.com/cuetable/backend/internal/metrics"
	"github.com/cuetable/backend/internal/store"
)

var ErrSessionNotFound = errors.New("session not found")

// FrameSink receives per-tick snapshots for live distribution.
type FrameSink interface {
	BroadcastFrame(sessionToken string, snap TableSnapshot)
}

// Session is one independently simulated table with its own tick loop.
type Session struct {
	Token     string
	CreatedAt time.Time

	mu        sync.Mutex
	sim       *Simulation
	shotSeq   int
	lastInput time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// SessionManager owns every live table session.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	cfg   *config.Config
	store *store.Store
	rdb   *redis.Client
	sink  FrameSink
}

// Manager is the process-wide session manager.
var Manager *SessionManager

// InitializeManager creates the global session manager. st and rdb may be
// nil; shot history and snapshot caching are then disabled.
func InitializeManager(st *store.Store, rdb *redis.Client, cfg *config.Config) {
	Manager = &SessionManager{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		store:    st,
		rdb:      rdb,
	}
}

// SetFrameSink attaches the live frame distributor (the websocket hub).
func (m *SessionManager) SetFrameSink(sink FrameSink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sink = sink
}

// CreateSession racks a new table and starts its tick loop.
func (m *SessionManager) CreateSession() (*Session, error) {
	sim := NewSimulation(&NopScene{}, nil)
	if err := sim.Init(); err != nil {
		return nil, err
	}

	s := &Session{
		Token:     uuid.NewString(),
		CreatedAt: time.Now(),
		sim:       sim,
		lastInput: time.Now(),
		stop:      make(chan struct{}),
	}

	// Hooks run under the session lock, so shotSeq needs no extra guard.
	// Database writes leave the tick goroutine; they are best-effort.
	sim.OnShot = func(aim Vec2, power float64) {
		s.shotSeq++
		seq := s.shotSeq
		metrics.ShotsTaken.Inc()
		go m.store.RecordShot(s.Token, seq, aim.X, aim.Y, power)
	}
	sim.OnPocket = func(ballIndex int) {
		seq := s.shotSeq
		metrics.BallsPocketed.Inc()
		go m.store.RecordPocket(s.Token, seq, ballIndex)
	}
	sim.OnReset = func() {
		metrics.TableResets.Inc()
	}

	m.mu.Lock()
	m.sessions[s.Token] = s
	m.mu.Unlock()

	metrics.SessionsCreated.Inc()
	metrics.ActiveSessions.Inc()
	log.Printf("[SESSION] Created table session %s", s.Token)

	go m.runSession(s)
	return s, nil
}

// GetSession returns a live session by token.
func (m *SessionManager) GetSession(token string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// HandlePress forwards a pointer-down event to the session's shot machine.
func (m *SessionManager) HandlePress(token string, x, y float64) error {
	s, err := m.GetSession(token)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sim.PressStart(x, y)
	s.lastInput = time.Now()
	return nil
}

// HandleRelease forwards a pointer-up event; the release point aims the shot.
func (m *SessionManager) HandleRelease(token string, x, y float64) error {
	s, err := m.GetSession(token)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sim.PressEnd(x, y)
	s.lastInput = time.Now()
	return nil
}

// Snapshot returns the session's current externally visible state.
func (m *SessionManager) Snapshot(token string) (TableSnapshot, error) {
	s, err := m.GetSession(token)
	if err != nil {
		return TableSnapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim.Snapshot(), nil
}

// ResetSession restores the session's table to the rack layout.
func (m *SessionManager) ResetSession(token string) error {
	s, err := m.GetSession(token)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sim.Deinit()
	err = s.sim.Init()
	snap := s.sim.Snapshot()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	m.mu.RLock()
	sink := m.sink
	m.mu.RUnlock()
	if sink != nil {
		sink.BroadcastFrame(token, snap)
	}
	log.Printf("[SESSION] Reset table session %s", token)
	return nil
}

// RemoveSession stops a session's tick loop, caches its final snapshot, and
// releases its table.
func (m *SessionManager) RemoveSession(token string) error {
	m.mu.Lock()
	s, ok := m.sessions[token]
	if ok {
		delete(m.sessions, token)
	}
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	s.stopOnce.Do(func() { close(s.stop) })

	s.mu.Lock()
	snap := s.sim.Snapshot()
	s.sim.Deinit()
	s.mu.Unlock()

	m.cacheSnapshot(token, snap)
	metrics.ActiveSessions.Dec()
	log.Printf("[SESSION] Removed table session %s", token)
	return nil
}

// runSession is the fixed-timestep tick loop: one Update per tick with a
// constant dt, regardless of wall-clock jitter.
func (m *SessionManager) runSession(s *Session) {
	tickRate := TargetTickRate
	if m.cfg != nil && m.cfg.TickRate > 0 {
		tickRate = m.cfg.TickRate
	}
	dt := 1.0 / float64(tickRate)

	ticker := time.NewTicker(time.Second / time.Duration(tickRate))
	defer ticker.Stop()

	wasMoving := false
	wasCharging := false
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.sim.Update(dt)
			snap := s.sim.Snapshot()
			s.mu.Unlock()
			metrics.TicksProcessed.Inc()

			m.mu.RLock()
			sink := m.sink
			m.mu.RUnlock()

			// Broadcast while anything is visibly changing, plus one final
			// frame on each settle or charge release.
			if sink != nil && (snap.BallsMoving || snap.Charging || wasMoving || wasCharging) {
				sink.BroadcastFrame(s.Token, snap)
			}
			if wasMoving && !snap.BallsMoving {
				m.cacheSnapshot(s.Token, snap)
			}
			wasMoving = snap.BallsMoving
			wasCharging = snap.Charging
		}
	}
}

// cacheSnapshot writes a settled snapshot to Redis with a TTL so state
// survives session expiry.
func (m *SessionManager) cacheSnapshot(token string, snap TableSnapshot) {
	if m.rdb == nil {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		log.Printf("[REDIS] Failed to marshal snapshot for session %s: %v", token, err)
		return
	}

	ttl := time.Hour
	if m.cfg != nil && m.cfg.SnapshotTTLMinutes > 0 {
		ttl = time.Duration(m.cfg.SnapshotTTLMinutes) * time.Minute
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.rdb.SetEx(ctx, "table:"+token+":snapshot", data, ttl).Err(); err != nil {
		log.Printf("[REDIS] Failed to cache snapshot for session %s: %v", token, err)
	}
}

// CachedSnapshot looks up the last settled snapshot of an expired session.
func (m *SessionManager) CachedSnapshot(token string) (TableSnapshot, bool) {
	if m.rdb == nil {
		return TableSnapshot{}, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := m.rdb.Get(ctx, "table:"+token+":snapshot").Bytes()
	if err != nil {
		return TableSnapshot{}, false
	}
	var snap TableSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Printf("[REDIS] Corrupt cached snapshot for session %s: %v", token, err)
		return TableSnapshot{}, false
	}
	return snap, true
}

// StartJanitor starts a background worker that expires idle sessions.
func (m *SessionManager) StartJanitor(ctx context.Context) {
	poll := 60 * time.Second
	expiry := 10 * time.Minute
	if m.cfg != nil {
		if m.cfg.JanitorPollSeconds > 0 {
			poll = time.Duration(m.cfg.JanitorPollSeconds) * time.Second
		}
		if m.cfg.SessionExpiryMinutes > 0 {
			expiry = time.Duration(m.cfg.SessionExpiryMinutes) * time.Minute
		}
	}

	log.Println("[JANITOR] Session janitor started")
	go func() {
		ticker := time.NewTicker(poll)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Println("[JANITOR] Session janitor stopping")
				return
			case <-ticker.C:
				m.expireIdleSessions(expiry)
			}
		}
	}()
}

func (m *SessionManager) expireIdleSessions(expiry time.Duration) {
	now := time.Now()

	m.mu.RLock()
	var expired []string
	for token, s := range m.sessions {
		s.mu.Lock()
		idle := now.Sub(s.lastInput) > expiry && !s.sim.BallsMoving()
		s.mu.Unlock()
		if idle {
			expired = append(expired, token)
		}
	}
	m.mu.RUnlock()

	for _, token := range expired {
		log.Printf("[JANITOR] Expiring idle session %s", token)
		if err := m.RemoveSession(token); err != nil {
			log.Printf("[JANITOR] Failed to expire session %s: %v", token, err)
		}
	}
}

// Shutdown stops every session's tick loop.
func (m *SessionManager) Shutdown() {
	m.mu.RLock()
	tokens := make([]string, 0, len(m.sessions))
	for token := range m.sessions {
		tokens = append(tokens, token)
	}
	m.mu.RUnlock()

	for _, token := range tokens {
		if err := m.RemoveSession(token); err != nil {
			log.Printf("[SESSION] Shutdown removal failed for %s: %v", token, err)
		}
	}
}

// ListShots returns the persisted shot history for a session.
func (m *SessionManager) ListShots(token string, limit int) ([]store.ShotRecord, error) {
	return m.store.ListShots(token, limit)
}

// ListPockets returns the persisted pocket events for a session.
func (m *SessionManager) ListPockets(token string, limit int) ([]store.PocketRecord, error) {
	return m.store.ListPockets(token, limit)
}
