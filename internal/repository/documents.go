package repository

import (
	"context"
	"database/sql"
	"errors"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/parts-catalog/constants"
	"github.com/joseph-ayodele/parts-catalog/internal/entity"
)

// Unchanged reports whether the latest successful run of path had the same content hash.
func (s *Store) Unchanged(ctx context.Context, path, hash string) (bool, error) {
	if hash == "" {
		return false, nil
	}
	query, args := s.b.Select("content_hash").
		From(s.b.Table(tableDocuments)).
		Where(entsql.And(
			entsql.EQ("path", path),
			entsql.EQ("status", string(constants.DocumentOK)),
		)).
		OrderBy(entsql.Desc("id")).
		Limit(1).
		Query()
	var last string
	if err := s.db.SQL().QueryRowContext(ctx, query, args...).Scan(&last); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, dbError("document lookup", err)
	}
	return last == hash, nil
}

// RecordRun appends one document run.
func (s *Store) RecordRun(ctx context.Context, run entity.DocumentRun) error {
	var errMsg, finished any
	if run.ErrorMessage != nil {
		errMsg = *run.ErrorMessage
	}
	if run.FinishedAt != nil {
		finished = run.FinishedAt.UTC()
	}
	started := run.StartedAt
	if started.IsZero() {
		started = s.now()
	}
	query, args := s.b.Insert(tableDocuments).
		Columns("run_id", "path", "kind", "content_hash", "status", "pages", "parts", "images", "error_message", "started_at", "finished_at").
		Values(run.RunID.String(), run.Path, string(run.Kind), run.ContentHash, string(run.Status), run.Pages, run.Parts, run.Images, errMsg, started.UTC(), finished).
		Query()
	_, err := s.exec(ctx, s.db.SQL(), "record document run", query, args...)
	return err
}

// RunSummary counts the documents of one run by status.
func (s *Store) RunSummary(ctx context.Context, runID string) (map[constants.DocumentStatus]int, error) {
	query, args := s.b.Select("status", entsql.Count("*")).
		From(s.b.Table(tableDocuments)).
		Where(entsql.EQ("run_id", runID)).
		GroupBy("status").
		Query()
	rows, err := s.db.SQL().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError("run summary", err)
	}
	defer rows.Close()
	out := map[constants.DocumentStatus]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, dbError("scan run summary", err)
		}
		out[constants.DocumentStatus(status)] = n
	}
	return out, rows.Err()
}
