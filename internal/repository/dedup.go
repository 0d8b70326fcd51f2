package repository

import (
	"context"
	"database/sql"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/parts-catalog/internal/dedup"
)

// DedupGroup is one set of stored rows that describe the same part.
type DedupGroup struct {
	Catalog string
	Number  string
	Keep    int64
	Remove  []int64
}

// DedupReport is the impact of a storage-level dedup, computed the same way with or without DryRun.
type DedupReport struct {
	Strategy    dedup.Strategy
	DryRun      bool
	TotalParts  int
	Groups      []DedupGroup
	Removed     int
	ImagesMoved int
}

type dedupKey struct {
	number, description, machine, catalog string
}

// DedupParts finds stored parts sharing (part_number, description, machine_info, catalog_name).
// Unless dryRun is set it keeps one row per group, moves image links to it and deletes the rest.
func (s *Store) DedupParts(ctx context.Context, strategy dedup.Strategy, dryRun bool) (*DedupReport, error) {
	query, args := s.b.Select("id", "part_number", "description", "machine_info", "catalog_name").
		From(s.b.Table(tableParts)).
		OrderBy("id").
		Query()
	rows, err := s.db.SQL().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError("scan parts for duplicates", err)
	}
	groups := map[dedupKey][]int64{}
	var order []dedupKey
	total := 0
	for rows.Next() {
		var (
			id      int64
			k       dedupKey
			machine sql.NullString
		)
		if err := rows.Scan(&id, &k.number, &k.description, &machine, &k.catalog); err != nil {
			rows.Close()
			return nil, dbError("scan part", err)
		}
		k.machine = machine.String
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], id)
		total++
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, dbError("scan parts for duplicates", err)
	}

	report := &DedupReport{Strategy: strategy, DryRun: dryRun, TotalParts: total}
	for _, k := range order {
		ids := groups[k]
		if len(ids) < 2 {
			continue
		}
		keep, remove := dedup.Survivor(ids, strategy)
		report.Groups = append(report.Groups, DedupGroup{Catalog: k.catalog, Number: k.number, Keep: keep, Remove: remove})
		report.Removed += len(remove)
	}
	if dryRun || len(report.Groups) == 0 {
		s.logger.Info("dedup planned", "parts", total, "groups", len(report.Groups), "removable", report.Removed, "dry_run", dryRun)
		return report, nil
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		for _, g := range report.Groups {
			moved, err := s.moveImages(ctx, tx, g.Keep, g.Remove)
			if err != nil {
				return err
			}
			report.ImagesMoved += moved
			query, args := s.b.Delete(tableParts).Where(entsql.In("id", int64Args(g.Remove)...)).Query()
			if _, err := s.exec(ctx, tx, "delete duplicate parts", query, args...); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("dedup applied", "parts", total, "groups", len(report.Groups), "removed", report.Removed, "images_moved", report.ImagesMoved)
	return report, nil
}

// moveImages copies the image links of the removed rows onto keep; links keep already has are skipped.
func (s *Store) moveImages(ctx context.Context, tx *sql.Tx, keep int64, remove []int64) (int, error) {
	query, args := s.b.Select("image_filename", "image_path", "width", "height", "page", "confidence", "fallback").
		From(s.b.Table(tablePartImages)).
		Where(entsql.In("part_id", int64Args(remove)...)).
		OrderBy("id").
		Query()
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, dbError("query duplicate images", err)
	}
	now := s.now().UTC()
	var values [][]any
	for rows.Next() {
		var (
			filename, path    string
			width, height, pg int
			confidence        float64
			fallback          bool
		)
		if err := rows.Scan(&filename, &path, &width, &height, &pg, &confidence, &fallback); err != nil {
			rows.Close()
			return 0, dbError("scan duplicate image", err)
		}
		values = append(values, []any{keep, filename, path, width, height, pg, confidence, fallback, now})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, dbError("query duplicate images", err)
	}

	moved := 0
	for _, v := range values {
		query, args := s.b.Insert(tablePartImages).
			Columns("part_id", "image_filename", "image_path", "width", "height", "page", "confidence", "fallback", "created_at").
			Values(v...).
			OnConflict(entsql.ConflictColumns("part_id", "image_filename"), entsql.DoNothing()).
			Query()
		res, err := s.exec(ctx, tx, "move duplicate image", query, args...)
		if err != nil {
			return moved, err
		}
		if n, err := res.RowsAffected(); err == nil {
			moved += int(n)
		}
	}
	return moved, nil
}

func int64Args(ids []int64) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
