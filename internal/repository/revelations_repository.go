package repository

import (
	"context"
	"errors"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	errorvalues "github.com/limbo/prayerbot/internal/error_values"
	"github.com/limbo/prayerbot/pkg/cleanup"
	"github.com/limbo/prayerbot/pkg/entity"
)

type RevelationsRepository struct {
	conn PgConnection
}

func NewRevelationsRepo(cfg DBConfig) *RevelationsRepository {
	pool, err := pgxpool.New(context.Background(), cfg.ConnString())
	if err != nil {
		log.Fatal("creating connection for revelationsRepo error: " + err.Error())
	}
	err = pool.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for revelationsRepo: " + err.Error())
	}
	cleanup.Register(&cleanup.Job{
		Name: "closing pgxpool",
		F: func() error {
			pool.Close()
			return nil
		},
	})
	return &RevelationsRepository{
		conn: pool,
	}
}

func NewRevelationsRepoWithConn(conn PgConnection) *RevelationsRepository {
	err := conn.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for revelationsRepo: " + err.Error())
	}
	return &RevelationsRepository{
		conn: conn,
	}
}

func (rr *RevelationsRepository) Append(ctx context.Context, userID int64, day, ciphertext string) error {
	_, err := rr.conn.Exec(ctx, `INSERT INTO revelations (user_id, day, text) VALUES ($1, $2, $3);`,
		userID, day, ciphertext,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			// FK violation
			case "23503":
				return errorvalues.ErrUserNotFound
			}
		}
		return errors.New("appending revelation error: " + err.Error())
	}
	return nil
}

func (rr *RevelationsRepository) ListByUser(ctx context.Context, userID int64) ([]entity.Revelation, error) {
	rows, err := rr.conn.Query(ctx, `SELECT id, user_id, day, text, created_at FROM revelations WHERE user_id = $1 ORDER BY id ASC;`, userID)
	if err != nil {
		return nil, errors.New("listing revelations error: " + err.Error())
	}
	return scanRevelations(rows)
}

func (rr *RevelationsRepository) ListByUserMonth(ctx context.Context, userID int64, month string) ([]entity.Revelation, error) {
	rows, err := rr.conn.Query(ctx, `SELECT id, user_id, day, text, created_at FROM revelations WHERE user_id = $1 AND day LIKE $2 ORDER BY id ASC;`,
		userID, month+"-%",
	)
	if err != nil {
		return nil, errors.New("listing revelations by month error: " + err.Error())
	}
	return scanRevelations(rows)
}

func scanRevelations(rows pgx.Rows) ([]entity.Revelation, error) {
	defer rows.Close()
	result := make([]entity.Revelation, 0)
	for rows.Next() {
		var r entity.Revelation
		if err := rows.Scan(&r.ID, &r.UserID, &r.Day, &r.Text, &r.CreatedAt); err != nil {
			return nil, errors.New("revelation row parsing error: " + err.Error())
		}
		result = append(result, r)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected revelation rows error: " + rows.Err().Error())
	}
	return result, nil
}
