package postgres

import (
	"context"
	"database/sql"

	"puttr/internal/model"
	"puttr/internal/repository"
)

// UploadPostgres is a PostgreSQL implementation of repository.UploadRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type UploadPostgres struct {
	db *sql.DB
}

// NewUploadPostgres creates a new UploadPostgres repository.
func NewUploadPostgres(db *sql.DB) *UploadPostgres {
	return &UploadPostgres{db: db}
}

var _ repository.UploadRepository = (*UploadPostgres)(nil)

// Create inserts a new upload row and returns the stored record.
func (r *UploadPostgres) Create(ctx context.Context, u *model.Upload) (*model.Upload, error) {
	const q = `
		INSERT INTO uploads (id, path, token, size, content_type, extension, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, path, token, size, content_type, extension, created_at
	`
	row := r.db.QueryRowContext(ctx, q,
		u.ID,
		u.Path,
		u.Token,
		u.Size,
		u.ContentType,
		u.Extension,
		u.CreatedAt,
	)
	var out model.Upload
	if err := scanUpload(row, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns uploads using LIMIT/OFFSET pagination and a total count.
func (r *UploadPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Upload], error) {
	const qCount = `SELECT COUNT(*) FROM uploads`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT id, path, token, size, content_type, extension, created_at
		FROM uploads
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Upload, 0)
	for rows.Next() {
		var u model.Upload
		if err := scanUpload(rows, &u); err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Upload]{
		Items: items,
		Total: total,
	}, nil
}

// Ping checks the database connection.
func (r *UploadPostgres) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUpload(s scanner, u *model.Upload) error {
	return s.Scan(
		&u.ID,
		&u.Path,
		&u.Token,
		&u.Size,
		&u.ContentType,
		&u.Extension,
		&u.CreatedAt,
	)
}
