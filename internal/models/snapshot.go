package models

import (
	"time"

	"github.com/google/uuid"
)

// AdherenceSnapshot is a user's cached adherence summary, recomputed by the
// worker whenever dose logs change. Tainted marks the snapshot stale until the
// next refresh job lands.
type AdherenceSnapshot struct {
	UserID         uuid.UUID     `json:"user_id"`
	Stat           AdherenceStat `json:"stat"`
	WindowDays     int           `json:"window_days"`
	Tainted        bool          `json:"tainted"`
	LastComputedAt *time.Time    `json:"last_computed_at,omitempty"`
	ComputeVersion int           `json:"compute_version"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}
