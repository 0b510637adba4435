package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Postgres implements MetadataStore on top of a shared *sql.DB pool.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Insert(ctx context.Context, tags string) (int64, error) {
	var id int64
	err := p.db.QueryRowContext(ctx,
		`INSERT INTO images (tags) VALUES ($1) RETURNING id`,
		tags,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert image metadata: %w", err)
	}
	return id, nil
}

func (p *Postgres) Count(ctx context.Context) (int64, error) {
	var n int64
	err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM images`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count images: %w", err)
	}
	return n, nil
}

func (p *Postgres) ScanIDs(ctx context.Context, fn func(id int64) error) error {
	rows, err := p.db.QueryContext(ctx, `SELECT id FROM images ORDER BY id ASC`)
	if err != nil {
		return fmt.Errorf("query image ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan image id: %w", err)
		}
		if err := fn(id); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate image ids: %w", err)
	}
	return nil
}
