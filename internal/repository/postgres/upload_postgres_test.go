package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"puttr/internal/model"
	"puttr/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var uploadColumns = []string{"id", "path", "token", "size", "content_type", "extension", "created_at"}

func TestUploadPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewUploadPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	u := &model.Upload{
		ID:          "test-uuid",
		Path:        "uploads/2026-10/data-20261018T101010Z-abc.txt",
		Token:       "abc",
		Size:        11,
		ContentType: "text/plain",
		Extension:   "txt",
		CreatedAt:   now,
	}

	t.Run("success", func(t *testing.T) {
		rows := sqlmock.NewRows(uploadColumns).
			AddRow(u.ID, u.Path, u.Token, u.Size, u.ContentType, u.Extension, u.CreatedAt)

		mock.ExpectQuery("INSERT INTO uploads").
			WithArgs(u.ID, u.Path, u.Token, u.Size, u.ContentType, u.Extension, u.CreatedAt).
			WillReturnRows(rows)

		result, err := repo.Create(ctx, u)

		require.NoError(t, err)
		assert.Equal(t, u, result)
	})

	t.Run("insert error", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO uploads").
			WillReturnError(errors.New("duplicate key"))

		result, err := repo.Create(ctx, u)

		assert.Error(t, err)
		assert.Nil(t, result)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUploadPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewUploadPostgres(db)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM uploads").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

		rows := sqlmock.NewRows(uploadColumns).
			AddRow("id-2", "p2", "t", 5, "application/json", "json", time.Now()).
			AddRow("id-1", "p1", "t", 3, "text/plain", "txt", time.Now().Add(-time.Minute))

		mock.ExpectQuery("SELECT (.+) FROM uploads ORDER BY").
			WithArgs(10, 0).
			WillReturnRows(rows)

		res, err := repo.List(ctx, repository.PageQuery{Limit: 10, Offset: 0})

		require.NoError(t, err)
		assert.Equal(t, 2, res.Total)
		require.Len(t, res.Items, 2)
		assert.Equal(t, "id-2", res.Items[0].ID)
		assert.Equal(t, "json", res.Items[0].Extension)
	})

	t.Run("count error", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM uploads").
			WillReturnError(errors.New("db down"))

		res, err := repo.List(ctx, repository.PageQuery{Limit: 10})

		assert.Error(t, err)
		assert.Nil(t, res)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUploadPostgres_Ping(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	repo := NewUploadPostgres(db)

	mock.ExpectPing()
	assert.NoError(t, repo.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("unreachable"))
	assert.Error(t, repo.Ping(context.Background()))

	assert.NoError(t, mock.ExpectationsWereMet())
}
