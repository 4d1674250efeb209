package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dosetrack/dosetrack/internal/models"
	"github.com/google/uuid"
)

// AdherenceSnapshotRepository handles adherence snapshot database operations.
// Snapshots are refreshed by the worker; the taint flag and compute version
// coordinate API-side invalidation with worker-side recomputation.
type AdherenceSnapshotRepository struct {
	db *DB
}

// NewAdherenceSnapshotRepository creates a new adherence snapshot repository
func NewAdherenceSnapshotRepository(db *DB) *AdherenceSnapshotRepository {
	return &AdherenceSnapshotRepository{db: db}
}

// GetByUserID retrieves the adherence snapshot for a user
func (r *AdherenceSnapshotRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.AdherenceSnapshot, error) {
	snapshot := &models.AdherenceSnapshot{}
	var statJSON []byte
	var lastComputedAt sql.NullTime

	query := `
		SELECT user_id, stat, window_days, tainted, last_computed_at, compute_version, created_at, updated_at
		FROM adherence_snapshots
		WHERE user_id = $1
	`

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&snapshot.UserID,
		&statJSON,
		&snapshot.WindowDays,
		&snapshot.Tainted,
		&lastComputedAt,
		&snapshot.ComputeVersion,
		&snapshot.CreatedAt,
		&snapshot.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("adherence snapshot not found for user %s", userID)
		}
		return nil, fmt.Errorf("failed to get adherence snapshot: %w", err)
	}

	if len(statJSON) > 0 {
		if err := json.Unmarshal(statJSON, &snapshot.Stat); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stat: %w", err)
		}
	}

	if lastComputedAt.Valid {
		snapshot.LastComputedAt = &lastComputedAt.Time
	}

	return snapshot, nil
}

// GetByUserIDOrCreate retrieves the snapshot or creates a tainted placeholder
// if none exists yet
func (r *AdherenceSnapshotRepository) GetByUserIDOrCreate(ctx context.Context, userID uuid.UUID, windowDays int) (*models.AdherenceSnapshot, error) {
	snapshot, err := r.GetByUserID(ctx, userID)
	if err == nil {
		return snapshot, nil
	}

	snapshot = &models.AdherenceSnapshot{
		UserID:         userID,
		WindowDays:     windowDays,
		Tainted:        true,
		ComputeVersion: 0,
	}

	// Upsert handles the race where another request creates the row between
	// the read above and this write
	if err := r.Upsert(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to create adherence snapshot: %w", err)
	}

	return r.GetByUserID(ctx, userID)
}

// UpdateStatistics atomically stores a freshly computed snapshot with a
// version check. Returns false without error when the version has moved on,
// meaning another worker already recomputed.
func (r *AdherenceSnapshotRepository) UpdateStatistics(ctx context.Context, snapshot *models.AdherenceSnapshot) (bool, error) {
	query := `
		UPDATE adherence_snapshots
		SET stat = $1, window_days = $2, tainted = false, last_computed_at = $3, compute_version = compute_version + 1, updated_at = $4
		WHERE user_id = $5 AND compute_version = $6
		RETURNING compute_version, created_at, updated_at
	`

	statJSON, err := json.Marshal(snapshot.Stat)
	if err != nil {
		return false, fmt.Errorf("failed to marshal stat: %w", err)
	}

	now := time.Now()
	var lastComputedAt sql.NullTime
	if snapshot.LastComputedAt != nil {
		lastComputedAt = sql.NullTime{Time: *snapshot.LastComputedAt, Valid: true}
	} else {
		lastComputedAt = sql.NullTime{Time: now, Valid: true}
	}

	var newVersion int
	err = r.db.QueryRowContext(ctx, query,
		statJSON,
		snapshot.WindowDays,
		lastComputedAt,
		now,
		snapshot.UserID,
		snapshot.ComputeVersion,
	).Scan(&newVersion, &snapshot.CreatedAt, &snapshot.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to update adherence snapshot: %w", err)
	}

	snapshot.ComputeVersion = newVersion
	snapshot.Tainted = false
	if lastComputedAt.Valid {
		snapshot.LastComputedAt = &lastComputedAt.Time
	}

	return true, nil
}

// MarkTainted atomically marks the snapshot stale if it is currently fresh.
// Returns true only on the fresh-to-stale transition, so callers can use it
// to decide whether a refresh job needs enqueueing.
func (r *AdherenceSnapshotRepository) MarkTainted(ctx context.Context, userID uuid.UUID) (bool, error) {
	query := `
		UPDATE adherence_snapshots
		SET tainted = true, updated_at = $1
		WHERE user_id = $2 AND tainted = false
		RETURNING user_id
	`

	var resultID uuid.UUID
	err := r.db.QueryRowContext(ctx, query, time.Now(), userID).Scan(&resultID)

	if err != nil {
		if err == sql.ErrNoRows {
			// Already tainted, or no row yet. Upsert so the row exists either way.
			upsertQuery := `
				INSERT INTO adherence_snapshots (user_id, stat, window_days, tainted, compute_version, created_at, updated_at)
				VALUES ($1, '{}', 90, true, 0, $2, $2)
				ON CONFLICT (user_id) DO UPDATE
				SET tainted = true, updated_at = $2
				WHERE adherence_snapshots.tainted = false
				RETURNING user_id
			`
			err = r.db.QueryRowContext(ctx, upsertQuery, userID, time.Now()).Scan(&resultID)
			if err != nil {
				if err == sql.ErrNoRows {
					return false, nil
				}
				return false, fmt.Errorf("failed to mark snapshot tainted: %w", err)
			}
			return true, nil
		}
		return false, fmt.Errorf("failed to mark snapshot tainted: %w", err)
	}

	return true, nil
}

// Upsert creates or replaces an adherence snapshot
func (r *AdherenceSnapshotRepository) Upsert(ctx context.Context, snapshot *models.AdherenceSnapshot) error {
	query := `
		INSERT INTO adherence_snapshots (user_id, stat, window_days, tainted, last_computed_at, compute_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE
		SET stat = EXCLUDED.stat,
		    window_days = EXCLUDED.window_days,
		    tainted = EXCLUDED.tainted,
		    last_computed_at = EXCLUDED.last_computed_at,
		    compute_version = EXCLUDED.compute_version,
		    updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at
	`

	statJSON, err := json.Marshal(snapshot.Stat)
	if err != nil {
		return fmt.Errorf("failed to marshal stat: %w", err)
	}

	var lastComputedAt sql.NullTime
	if snapshot.LastComputedAt != nil {
		lastComputedAt = sql.NullTime{Time: *snapshot.LastComputedAt, Valid: true}
	}

	now := time.Now()
	err = r.db.QueryRowContext(ctx, query,
		snapshot.UserID,
		statJSON,
		snapshot.WindowDays,
		snapshot.Tainted,
		lastComputedAt,
		snapshot.ComputeVersion,
		now,
		now,
	).Scan(&snapshot.CreatedAt, &snapshot.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert adherence snapshot: %w", err)
	}

	return nil
}
