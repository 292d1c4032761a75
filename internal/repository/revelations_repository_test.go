package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	errorvalues "github.com/limbo/prayerbot/internal/error_values"
	"github.com/limbo/prayerbot/internal/repository"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
)

func TestAppendRevelation(t *testing.T) {
	conn, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	repo := repository.NewRevelationsRepoWithConn(conn)
	query := regexp.QuoteMeta(`INSERT INTO revelations (user_id, day, text) VALUES ($1, $2, $3);`)
	t.Run("appended", func(t *testing.T) {
		conn.ExpectExec(query).
			WithArgs(int64(42), "2026-08-27", "ciphertext").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		err := repo.Append(ctx, 42, "2026-08-27", "ciphertext")
		assert.NoError(t, err)
	})
	t.Run("fk violation maps to user not found", func(t *testing.T) {
		conn.ExpectExec(query).
			WithArgs(int64(42), "2026-08-27", "ciphertext").
			WillReturnError(&pgconn.PgError{Code: "23503"})
		err := repo.Append(ctx, 42, "2026-08-27", "ciphertext")
		assert.ErrorIs(t, err, errorvalues.ErrUserNotFound)
	})
	t.Run("db error", func(t *testing.T) {
		conn.ExpectExec(query).
			WithArgs(int64(42), "2026-08-27", "ciphertext").
			WillReturnError(errors.New("db error"))
		err := repo.Append(ctx, 42, "2026-08-27", "ciphertext")
		assert.Error(t, err)
	})
}

func TestListByUser(t *testing.T) {
	conn, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	repo := repository.NewRevelationsRepoWithConn(conn)
	query := regexp.QuoteMeta(`SELECT id, user_id, day, text, created_at FROM revelations WHERE user_id = $1 ORDER BY id ASC;`)
	now := time.Now()
	t.Run("ordered oldest first", func(t *testing.T) {
		conn.ExpectQuery(query).
			WithArgs(int64(42)).
			WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "day", "text", "created_at"}).
				AddRow(1, int64(42), "2026-08-25", "first", now).
				AddRow(2, int64(42), "2026-08-26", "second", now))
		revs, err := repo.ListByUser(ctx, 42)
		assert.NoError(t, err)
		assert.Len(t, revs, 2)
		assert.Equal(t, 1, revs[0].ID)
		assert.Equal(t, "first", revs[0].Text)
		assert.Equal(t, 2, revs[1].ID)
	})
	t.Run("empty", func(t *testing.T) {
		conn.ExpectQuery(query).
			WithArgs(int64(42)).
			WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "day", "text", "created_at"}))
		revs, err := repo.ListByUser(ctx, 42)
		assert.NoError(t, err)
		assert.Empty(t, revs)
	})
	t.Run("db error", func(t *testing.T) {
		conn.ExpectQuery(query).
			WithArgs(int64(42)).
			WillReturnError(errors.New("db error"))
		_, err := repo.ListByUser(ctx, 42)
		assert.Error(t, err)
	})
}

func TestListByUserMonth(t *testing.T) {
	conn, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	repo := repository.NewRevelationsRepoWithConn(conn)
	query := regexp.QuoteMeta(`SELECT id, user_id, day, text, created_at FROM revelations WHERE user_id = $1 AND day LIKE $2 ORDER BY id ASC;`)
	now := time.Now()
	conn.ExpectQuery(query).
		WithArgs(int64(42), "2026-08-%").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "day", "text", "created_at"}).
			AddRow(3, int64(42), "2026-08-27", "august entry", now))
	revs, err := repo.ListByUserMonth(ctx, 42, "2026-08")
	assert.NoError(t, err)
	assert.Len(t, revs, 1)
	assert.Equal(t, "2026-08-27", revs[0].Day)
}
