package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const renderColumns = `input_path, content_hash, output_path, entities, statements, rendered_at, run_id`

// RecordRender stores the render of an input, replacing any earlier one.
func (s *SQLiteStore) RecordRender(ctx context.Context, r *Render) error {
	if s.db == nil {
		return ErrNotOpen
	}
	if r.RenderedAt.IsZero() {
		r.RenderedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO renders (`+renderColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(input_path) DO UPDATE SET
		   content_hash = excluded.content_hash,
		   output_path  = excluded.output_path,
		   entities     = excluded.entities,
		   statements   = excluded.statements,
		   rendered_at  = excluded.rendered_at,
		   run_id       = excluded.run_id`,
		r.InputPath, r.ContentHash, r.OutputPath, r.Entities, r.Statements, r.RenderedAt, nullString(r.RunID),
	)
	if err != nil {
		return fmt.Errorf("failed to record render of %s: %w", r.InputPath, err)
	}
	return nil
}

// GetRender returns the last render of an input.
func (s *SQLiteStore) GetRender(ctx context.Context, inputPath string) (*Render, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+renderColumns+` FROM renders WHERE input_path = ?`, inputPath)
	r, err := scanRender(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("render of %s: %w", inputPath, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get render: %w", err)
	}
	return r, nil
}

// ListRenders returns all recorded renders ordered by input path.
func (s *SQLiteStore) ListRenders(ctx context.Context) ([]*Render, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+renderColumns+` FROM renders ORDER BY input_path`)
	if err != nil {
		return nil, fmt.Errorf("failed to list renders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var renders []*Render
	for rows.Next() {
		r, err := scanRender(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan render: %w", err)
		}
		renders = append(renders, r)
	}
	return renders, rows.Err()
}

func scanRender(sc scanner) (*Render, error) {
	var (
		r     Render
		runID sql.NullString
	)
	if err := sc.Scan(&r.InputPath, &r.ContentHash, &r.OutputPath,
		&r.Entities, &r.Statements, &r.RenderedAt, &runID); err != nil {
		return nil, err
	}
	r.RunID = runID.String
	return &r, nil
}
