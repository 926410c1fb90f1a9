package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/toolsascode/wildebeest/internal/model"
	"github.com/toolsascode/wildebeest/internal/state"
)

// Store keeps state markers in a table inside the instance's database
type Store struct{}

func (Store) table(inst *Instance) string {
	return quoteIdentifier(inst.MetaSchemaName) + "." + quoteIdentifier(inst.StateTableName)
}

func (s Store) Markers(ctx context.Context, instance model.Instance, resourceID uuid.UUID) ([]state.Marker, error) {
	inst, err := asInstance(instance)
	if err != nil {
		return nil, err
	}

	exists, err := inst.databaseExists(ctx)
	if err != nil || !exists {
		return nil, err
	}

	db, err := inst.open(ctx, inst.DatabaseName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	exists, err = tableExists(ctx, db, inst.MetaSchemaName, inst.StateTableName)
	if err != nil || !exists {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT resource_id::text, state_id::text, last_migration_instant
		FROM %s
		WHERE resource_id = $1
	`, s.table(inst))
	rows, err := db.QueryContext(ctx, query, resourceID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query state table: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var markers []state.Marker
	for rows.Next() {
		var (
			m       state.Marker
			instant sql.NullTime
		)
		if err := rows.Scan(&m.ResourceID, &m.StateID, &instant); err != nil {
			return nil, fmt.Errorf("failed to scan state row: %w", err)
		}
		m.LastMigrationInstant = instant.Time
		markers = append(markers, m)
	}
	return markers, rows.Err()
}

func (s Store) Record(ctx context.Context, instance model.Instance, resourceID, stateID uuid.UUID, at time.Time) error {
	inst, err := asInstance(instance)
	if err != nil {
		return err
	}

	db, err := inst.open(ctx, inst.DatabaseName)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if _, err := db.ExecContext(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", quoteIdentifier(inst.MetaSchemaName))); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", inst.MetaSchemaName, err)
	}
	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			resource_id UUID NOT NULL,
			state_id UUID NOT NULL,
			last_migration_instant TIMESTAMPTZ NOT NULL
		)
	`, s.table(inst))
	if _, err := db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create state table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE resource_id = $1", s.table(inst)), resourceID.String()); err != nil {
		return fmt.Errorf("failed to clear state: %w", err)
	}
	insert := fmt.Sprintf("INSERT INTO %s (resource_id, state_id, last_migration_instant) VALUES ($1, $2, $3)", s.table(inst))
	if _, err := tx.ExecContext(ctx, insert, resourceID.String(), stateID.String(), at); err != nil {
		return fmt.Errorf("failed to insert state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s Store) Clear(ctx context.Context, instance model.Instance, resourceID uuid.UUID) error {
	inst, err := asInstance(instance)
	if err != nil {
		return err
	}

	exists, err := inst.databaseExists(ctx)
	if err != nil || !exists {
		return err
	}

	db, err := inst.open(ctx, inst.DatabaseName)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	exists, err = tableExists(ctx, db, inst.MetaSchemaName, inst.StateTableName)
	if err != nil || !exists {
		return err
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE resource_id = $1", s.table(inst)), resourceID.String()); err != nil {
		return fmt.Errorf("failed to clear state: %w", err)
	}
	return nil
}
