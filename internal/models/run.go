package models

import (
	"errors"
	"time"
)

// Run summarizes one completed verification pass for persistence.
type Run struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	FastShift uint      `json:"fast_shift"`
	SlowShift uint      `json:"slow_shift"`
	Latency   int       `json:"latency"`
	Ticks     int       `json:"ticks"`
	Compared  int       `json:"compared"`
	Matches   int       `json:"matches"`
	MatchRate float64   `json:"match_rate"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks run field constraints.
func (r *Run) Validate() error {
	if r.ID == "" {
		return errors.New("run ID must not be empty")
	}
	if r.FastShift >= r.SlowShift {
		return errors.New("fast shift must be smaller than slow shift")
	}
	if r.Latency <= 0 {
		return errors.New("latency must be positive")
	}
	if r.Ticks < 0 {
		return errors.New("tick count must not be negative")
	}
	if r.Matches > r.Compared {
		return errors.New("matches must not exceed compared count")
	}
	if r.MatchRate < 0 || r.MatchRate > 1 {
		return errors.New("match rate must be between 0.0 and 1.0")
	}
	return nil
}
