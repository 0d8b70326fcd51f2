package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/parts-catalog/internal/common"
	"github.com/joseph-ayodele/parts-catalog/internal/entity"
)

var machineInfoSchema = common.MustCompileSchema("machine_info.json", entity.MachineInfoSchema())

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store persists pipeline results. It implements pipeline.Sink and pipeline.DocumentIndex.
type Store struct {
	db     *DB
	b      *entsql.DialectBuilder
	logger *slog.Logger
	now    func() time.Time
}

func NewStore(db *DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, b: entsql.Dialect(db.Dialect), logger: logger, now: time.Now}
}

// inTx runs fn in a transaction and rolls back on error.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.SQL().BeginTx(ctx, nil)
	if err != nil {
		return dbError("begin", err)
	}
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			s.logger.Warn("rollback failed", "error", rerr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return dbError("commit", err)
	}
	return nil
}

func dbError(op string, err error) error {
	return common.NewAppError("DATABASE_ERROR", op, fmt.Errorf("%w: %v", common.ErrDatabase, err))
}

func (s *Store) exec(ctx context.Context, q querier, op, query string, args ...any) (sql.Result, error) {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, dbError(op, err)
	}
	return res, nil
}

// lookupID returns the id of the single row of table matching p.
func (s *Store) lookupID(ctx context.Context, q querier, table string, p *entsql.Predicate) (int64, error) {
	query, args := s.b.Select("id").From(s.b.Table(table)).Where(p).Query()
	var id int64
	if err := q.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, notFound(table)
		}
		return 0, dbError("lookup "+table, err)
	}
	return id, nil
}

func marshalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// count returns the number of rows in table.
func (s *Store) count(ctx context.Context, table string) (int, error) {
	query, args := s.b.Select(entsql.Count("*")).From(s.b.Table(table)).Query()
	var n int
	if err := s.db.SQL().QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, dbError("count "+table, err)
	}
	return n, nil
}

// Counts is a row count per stored table.
type Counts struct {
	Parts      int
	PartImages int
	Guides     int
	GuideParts int
	Documents  int
}

func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	for _, t := range []struct {
		table string
		dst   *int
	}{
		{tableParts, &c.Parts},
		{tablePartImages, &c.PartImages},
		{tableGuides, &c.Guides},
		{tableGuideParts, &c.GuideParts},
		{tableDocuments, &c.Documents},
	} {
		n, err := s.count(ctx, t.table)
		if err != nil {
			return c, err
		}
		*t.dst = n
	}
	return c, nil
}

func notFound(what string) error {
	return common.NewAppError("NOT_FOUND", what, common.ErrNotFound)
}
