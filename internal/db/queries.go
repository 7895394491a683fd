package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/hpungsan/carryover/internal/errors"
)

// WatchStore persists per-agent watch timestamps in the state database.
// It satisfies heartbeat.StateStore.
type WatchStore struct {
	db *sql.DB
}

// NewWatchStore wraps an initialized database.
func NewWatchStore(db *sql.DB) *WatchStore {
	return &WatchStore{db: db}
}

// Load returns the stored timestamps for agent. An agent that was never
// saved yields an empty, non-nil map.
func (s *WatchStore) Load(ctx context.Context, agent string) (map[string]float64, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT state_json FROM watch_state WHERE agent = ?`, agent,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return map[string]float64{}, nil
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	state := map[string]float64{}
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		// A corrupt row is treated as "never observed" and overwritten on save.
		return map[string]float64{}, nil
	}
	return state, nil
}

// Save replaces the whole stored record for agent.
func (s *WatchStore) Save(ctx context.Context, agent string, state map[string]float64) error {
	if state == nil {
		state = map[string]float64{}
	}
	data, err := json.Marshal(state)
	if err != nil {
		return errors.NewInternal(err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO watch_state (agent, state_json, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(agent) DO UPDATE SET
			state_json = excluded.state_json,
			updated_at = excluded.updated_at
	`, agent, string(data), time.Now().Unix())
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}
