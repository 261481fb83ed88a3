package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/hpungsan/spinit/internal/errors"
)

// KV is a whole-value key-value table. Every Set replaces the stored value,
// so repeated or overlapping saves of one key are last-write-wins.
type KV struct {
	x  *sqlx.DB
	sb sq.StatementBuilderType
}

// NewKV wraps an open database. driver selects the placeholder format.
func NewKV(db *sql.DB, driver string) *KV {
	sb := sq.StatementBuilder.PlaceholderFormat(sq.Question)
	if driver == DriverPostgres {
		sb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return &KV{
		x:  sqlx.NewDb(db, driver),
		sb: sb,
	}
}

// Get returns the value stored under key. found is false when the key is absent.
func (k *KV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query, args, err := k.sb.Select("value").From("kv").Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return nil, false, errors.NewInternal(err)
	}

	var value string
	if err := k.x.GetContext(ctx, &value, query, args...); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, errors.NewPersistence("get "+key, err)
	}
	return []byte(value), true, nil
}

// Set stores value under key, replacing any previous value.
func (k *KV) Set(ctx context.Context, key string, value []byte) error {
	query, args, err := k.sb.Insert("kv").
		Columns("key", "value", "updated_at").
		Values(key, string(value), time.Now().UnixMilli()).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return errors.NewInternal(err)
	}

	if _, err := k.x.ExecContext(ctx, query, args...); err != nil {
		return errors.NewPersistence("set "+key, err)
	}
	return nil
}

// RemoveMany deletes every listed key. Missing keys are not an error.
func (k *KV) RemoveMany(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	query, args, err := k.sb.Delete("kv").Where(sq.Eq{"key": keys}).ToSql()
	if err != nil {
		return errors.NewInternal(err)
	}

	if _, err := k.x.ExecContext(ctx, query, args...); err != nil {
		return errors.NewPersistence("remove keys", err)
	}
	return nil
}

// Keys lists every stored key in lexical order.
func (k *KV) Keys(ctx context.Context) ([]string, error) {
	query, args, err := k.sb.Select("key").From("kv").OrderBy("key").ToSql()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	var keys []string
	if err := k.x.SelectContext(ctx, &keys, query, args...); err != nil {
		return nil, errors.NewPersistence("list keys", err)
	}
	return keys, nil
}
