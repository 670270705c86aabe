package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	sqlite3 "github.com/mattn/go-sqlite3"

	"rivergauge-server/internal/db"
	"rivergauge-server/internal/modules/favorites/types"
)

//go:embed sql/sqlite/*.sql sql/postgres/*.sql
var sqlFS embed.FS

type queries struct {
	listByUser     string
	findByUserSite string
	insert         string
	delete         string
}

type FavoritesRepository interface {
	ListByUser(ctx context.Context, userID string) ([]types.Favorite, error)
	// FindByUserAndSite returns nil, nil when the user has no favorite for siteID.
	FindByUserAndSite(ctx context.Context, userID, siteID string) (*types.Favorite, error)
	// Insert returns an error wrapping types.ErrDuplicate when the
	// (user_id, site_id) pair already exists.
	Insert(ctx context.Context, f types.NewFavorite) (types.Favorite, error)
	// Delete removes the favorite with the given id and reports how many rows
	// went away. Unknown or non-numeric ids delete nothing.
	Delete(ctx context.Context, id string) (int64, error)
}

type repositoryImpl struct {
	db *sql.DB
	q  queries
}

func NewRepository(conn *sql.DB, dialect db.Dialect) (FavoritesRepository, error) {
	q, err := loadQueries(dialect)
	if err != nil {
		return nil, err
	}
	return &repositoryImpl{db: conn, q: q}, nil
}

func loadQueries(dialect db.Dialect) (queries, error) {
	dir := "sql/" + string(dialect) + "/"
	read := func(name string) (string, error) {
		b, err := sqlFS.ReadFile(dir + name)
		if err != nil {
			return "", fmt.Errorf("load %s query %s: %w", dialect, name, err)
		}
		return string(b), nil
	}

	var q queries
	var err error
	if q.listByUser, err = read("list-by-user.sql"); err != nil {
		return queries{}, err
	}
	if q.findByUserSite, err = read("find-by-user-site.sql"); err != nil {
		return queries{}, err
	}
	if q.insert, err = read("insert.sql"); err != nil {
		return queries{}, err
	}
	if q.delete, err = read("delete.sql"); err != nil {
		return queries{}, err
	}
	return q, nil
}

func (r *repositoryImpl) ListByUser(ctx context.Context, userID string) ([]types.Favorite, error) {
	rows, err := r.db.QueryContext(ctx, r.q.listByUser, userID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close favorites rows", "error", err)
		}
	}()

	out := []types.Favorite{}
	for rows.Next() {
		f, err := scanFavorite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) FindByUserAndSite(ctx context.Context, userID, siteID string) (*types.Favorite, error) {
	f, err := scanFavorite(r.db.QueryRowContext(ctx, r.q.findByUserSite, userID, siteID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *repositoryImpl) Insert(ctx context.Context, nf types.NewFavorite) (types.Favorite, error) {
	var (
		id        int64
		createdAt any
	)
	err := r.db.QueryRowContext(ctx, r.q.insert,
		nf.UserID, nf.SiteID, nf.SiteName, nullableFloat(nf.Latitude), nullableFloat(nf.Longitude),
	).Scan(&id, &createdAt)
	if err != nil {
		if isUniqueViolation(err) {
			return types.Favorite{}, fmt.Errorf("insert favorite %s/%s: %w", nf.UserID, nf.SiteID, types.ErrDuplicate)
		}
		return types.Favorite{}, fmt.Errorf("insert favorite: %w", err)
	}

	ts, err := parseTimestamp(createdAt)
	if err != nil {
		return types.Favorite{}, err
	}
	return types.Favorite{
		ID:        id,
		UserID:    nf.UserID,
		SiteID:    nf.SiteID,
		SiteName:  nf.SiteName,
		Latitude:  nf.Latitude,
		Longitude: nf.Longitude,
		CreatedAt: ts,
	}, nil
}

func (r *repositoryImpl) Delete(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.q.delete, id)
	if err != nil {
		return 0, fmt.Errorf("delete favorite %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete favorite %s: rows affected: %w", id, err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFavorite(row rowScanner) (types.Favorite, error) {
	var (
		f         types.Favorite
		lat, lon  sql.NullFloat64
		createdAt any
	)
	if err := row.Scan(&f.ID, &f.UserID, &f.SiteID, &f.SiteName, &lat, &lon, &createdAt); err != nil {
		return types.Favorite{}, err
	}
	if lat.Valid {
		f.Latitude = &lat.Float64
	}
	if lon.Valid {
		f.Longitude = &lon.Float64
	}
	ts, err := parseTimestamp(createdAt)
	if err != nil {
		return types.Favorite{}, err
	}
	f.CreatedAt = ts
	return f, nil
}

// parseTimestamp accepts created_at as returned by either driver: pgx yields
// time.Time, sqlite yields the RFC3339 text written by the column default.
func parseTimestamp(v any) (time.Time, error) {
	var s string
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		s = t
	case []byte:
		s = string(t)
	case nil:
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("unexpected created_at type %T", v)
	}

	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		var err2 error
		ts, err2 = time.Parse("2006-01-02 15:04:05", s)
		if err2 != nil {
			return time.Time{}, fmt.Errorf("parse timestamp %q: RFC3339Nano: %w; sqlite datetime: %w", s, err, err2)
		}
	}
	return ts.UTC(), nil
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
