package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/toolsascode/wildebeest/internal/model"
	"github.com/toolsascode/wildebeest/internal/state"
)

var stateTable = quoteIdentifier(state.DefaultStateTable)

// Store keeps state markers in a table inside the database file
type Store struct{}

func (Store) Markers(ctx context.Context, instance model.Instance, resourceID uuid.UUID) ([]state.Marker, error) {
	inst, err := asInstance(instance)
	if err != nil {
		return nil, err
	}
	exists, err := inst.exists()
	if err != nil || !exists {
		return nil, err
	}

	db, err := inst.open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	exists, err = tableExists(ctx, db, state.DefaultStateTable)
	if err != nil || !exists {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		fmt.Sprintf("SELECT resource_id, state_id, last_migration_instant FROM %s WHERE resource_id = ?", stateTable),
		resourceID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query state table: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var markers []state.Marker
	for rows.Next() {
		var (
			m       state.Marker
			instant string
		)
		if err := rows.Scan(&m.ResourceID, &m.StateID, &instant); err != nil {
			return nil, fmt.Errorf("failed to scan state row: %w", err)
		}
		if m.LastMigrationInstant, err = time.Parse(time.RFC3339Nano, instant); err != nil {
			return nil, fmt.Errorf("invalid migration instant %q: %w", instant, err)
		}
		markers = append(markers, m)
	}
	return markers, rows.Err()
}

func (Store) Record(ctx context.Context, instance model.Instance, resourceID, stateID uuid.UUID, at time.Time) error {
	inst, err := asInstance(instance)
	if err != nil {
		return err
	}

	db, err := inst.open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			resource_id TEXT NOT NULL,
			state_id TEXT NOT NULL,
			last_migration_instant TEXT NOT NULL
		)
	`, stateTable)
	if _, err := db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create state table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE resource_id = ?", stateTable), resourceID.String()); err != nil {
		return fmt.Errorf("failed to clear state: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (resource_id, state_id, last_migration_instant) VALUES (?, ?, ?)", stateTable),
		resourceID.String(), stateID.String(), at.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("failed to insert state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (Store) Clear(ctx context.Context, instance model.Instance, resourceID uuid.UUID) error {
	inst, err := asInstance(instance)
	if err != nil {
		return err
	}
	exists, err := inst.exists()
	if err != nil || !exists {
		return err
	}

	db, err := inst.open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	exists, err = tableExists(ctx, db, state.DefaultStateTable)
	if err != nil || !exists {
		return err
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE resource_id = ?", stateTable), resourceID.String()); err != nil {
		return fmt.Errorf("failed to clear state: %w", err)
	}
	return nil
}
