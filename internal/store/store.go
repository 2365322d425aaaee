package store

import (
	"log"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store persists per-session shot history. Every write is best-effort: a nil
// Store or a failed insert only logs, it never blocks the tick loop.
type Store struct {
	db *sqlx.DB
}

// New wraps a database handle; a nil handle yields a nil, no-op Store.
func New(db *sqlx.DB) *Store {
	if db == nil {
		return nil
	}
	return &Store{db: db}
}

// ShotRecord is one released shot.
type ShotRecord struct {
	ID           int       `db:"id" json:"id"`
	SessionToken string    `db:"session_token" json:"session_token"`
	Seq          int       `db:"seq" json:"seq"`
	AimX         float64   `db:"aim_x" json:"aim_x"`
	AimY         float64   `db:"aim_y" json:"aim_y"`
	Power        float64   `db:"power" json:"power"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// PocketRecord is one sunk object ball.
type PocketRecord struct {
	ID           int       `db:"id" json:"id"`
	SessionToken string    `db:"session_token" json:"session_token"`
	ShotSeq      int       `db:"shot_seq" json:"shot_seq"`
	BallIndex    int       `db:"ball_index" json:"ball_index"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// RecordShot inserts a released shot.
func (s *Store) RecordShot(sessionToken string, seq int, aimX, aimY, power float64) {
	if s == nil || s.db == nil {
		return
	}
	_, err := s.db.Exec(
		`INSERT INTO shots (session_token, seq, aim_x, aim_y, power, created_at) VALUES ($1,$2,$3,$4,$5,NOW())`,
		sessionToken, seq, aimX, aimY, power,
	)
	if err != nil {
		log.Printf("[DB] Failed to record shot %d for session %s: %v", seq, sessionToken, err)
	}
}

// RecordPocket inserts a pocket event for the shot that caused it.
func (s *Store) RecordPocket(sessionToken string, shotSeq, ballIndex int) {
	if s == nil || s.db == nil {
		return
	}
	_, err := s.db.Exec(
		`INSERT INTO pocket_events (session_token, shot_seq, ball_index, created_at) VALUES ($1,$2,$3,NOW())`,
		sessionToken, shotSeq, ballIndex,
	)
	if err != nil {
		log.Printf("[DB] Failed to record pocket of ball %d for session %s: %v", ballIndex, sessionToken, err)
	}
}

// ListShots returns a session's shot history, oldest first.
func (s *Store) ListShots(sessionToken string, limit int) ([]ShotRecord, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var shots []ShotRecord
	err := s.db.Select(&shots,
		`SELECT id, session_token, seq, aim_x, aim_y, power, created_at FROM shots WHERE session_token = $1 ORDER BY seq ASC LIMIT $2`,
		sessionToken, limit,
	)
	return shots, err
}

// ListPockets returns a session's pocket events, oldest first.
func (s *Store) ListPockets(sessionToken string, limit int) ([]PocketRecord, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var events []PocketRecord
	err := s.db.Select(&events,
		`SELECT id, session_token, shot_seq, ball_index, created_at FROM pocket_events WHERE session_token = $1 ORDER BY id ASC LIMIT $2`,
		sessionToken, limit,
	)
	return events, err
}
