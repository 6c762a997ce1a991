package grantcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/bcaldwell/grantpulse/pkg/postgresutils"
	"github.com/bcaldwell/grantpulse/pkg/reporter"
)

type SQLPeriod struct {
	bun.BaseModel `bun:"table:periods"`
	ID            int64  `bun:",pk,autoincrement"`
	Key           string `bun:",unique"`
	FetchDate     time.Time
	Complete      bool
	Records       []reporter.GrantRecord `bun:"type:jsonb"`
}

// SQLStore is the postgres backed Store, for deployments where the cache
// should outlive the box the job runs on. Same semantics as FileStore,
// rows upserted by period key.
type SQLStore struct {
	db    *bun.DB
	table string
}

func NewSQLStore(db *bun.DB, table string) (*SQLStore, error) {
	_, err := db.NewCreateTable().
		Model((*SQLPeriod)(nil)).
		ModelTableExpr(table).
		IfNotExists().
		Exec(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to create %s table: %w", table, err)
	}

	return &SQLStore{db: db, table: table}, nil
}

func (s *SQLStore) Get(key string) (*PeriodCache, error) {
	row := SQLPeriod{}

	err := s.db.NewSelect().
		Model(&row).
		ModelTableExpr(s.table).
		Where("key = ?", key).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &PeriodCache{
		PeriodKey: row.Key,
		FetchDate: row.FetchDate,
		Complete:  row.Complete,
		Records:   row.Records,
	}, nil
}

func (s *SQLStore) Put(cache *PeriodCache) error {
	row := SQLPeriod{
		Key:       cache.PeriodKey,
		FetchDate: cache.FetchDate,
		Complete:  cache.Complete,
		Records:   cache.Records,
	}

	_, err := s.db.NewInsert().
		Model(&row).
		ModelTableExpr(s.table).
		On("CONFLICT (key) DO UPDATE").
		Set(postgresutils.TableSetString(s.db, (*SQLPeriod)(nil), "id", "key")).
		Exec(context.Background())
	if err != nil {
		return fmt.Errorf("error writing period %s to sql: %w", cache.PeriodKey, err)
	}

	return nil
}
