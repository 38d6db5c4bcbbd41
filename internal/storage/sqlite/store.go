package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/Joseda-hg/smarttodo/internal/storage"
)

const kvTable = "kv"

// Store is a storage.KV backed by a single SQLite table.
type Store struct {
	DB *sqlx.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{DB: sqlx.NewDb(db, "sqlite")}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	query, args, err := sq.Select("value").From(kvTable).Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get %s: %w", key, err)
	}

	var value []byte
	if err := s.DB.GetContext(ctx, &value, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	query, args, err := sq.Insert(kvTable).
		Columns("key", "value", "updated_at").
		Values(key, value, sq.Expr("CURRENT_TIMESTAMP")).
		Suffix("ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build put %s: %w", key, err)
	}

	if _, err := s.DB.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	query, args, err := sq.Delete(kvTable).Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete %s: %w", key, err)
	}

	if _, err := s.DB.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	builder := sq.Select("key").From(kvTable).OrderBy("key ASC")
	if prefix != "" {
		builder = builder.Where(sq.Expr(`key LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%"))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build keys %s: %w", prefix, err)
	}

	keys := []string{}
	if err := s.DB.SelectContext(ctx, &keys, query, args...); err != nil {
		return nil, fmt.Errorf("list keys %s: %w", prefix, err)
	}
	return keys, nil
}

func escapeLike(value string) string {
	out := make([]rune, 0, len(value))
	for _, r := range value {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
