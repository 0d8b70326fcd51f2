package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/parts-catalog/constants"
	"github.com/joseph-ayodele/parts-catalog/internal/entity"
	"github.com/joseph-ayodele/parts-catalog/internal/pipeline"
)

var (
	_ pipeline.Sink          = (*Store)(nil)
	_ pipeline.DocumentIndex = (*Store)(nil)
)

var (
	partInsertColumns = []string{
		"catalog_name", "catalog_type", "part_type", "part_number", "description", "category",
		"section", "page", "image_path", "page_text", "pdf_path", "machine_info", "specifications",
		"oe_numbers", "applications", "features", "created_at", "updated_at",
	}
	// re-extracting a page replaces everything but the key and the creation time
	partUpdateColumns = []string{
		"catalog_type", "part_type", "description", "category", "section", "image_path", "page_text",
		"pdf_path", "machine_info", "specifications", "oe_numbers", "applications", "features", "updated_at",
	}
	partSelectColumns = []string{
		"id", "catalog_name", "catalog_type", "part_type", "part_number", "description", "category",
		"section", "page", "image_path", "pdf_path", "machine_info", "specifications", "oe_numbers",
		"applications", "features",
	}
)

// SaveCatalog upserts the document's parts by (catalog_name, part_number, page) and links their
// images, all in one transaction. Stored ids are written back to res.Parts.
func (s *Store) SaveCatalog(ctx context.Context, res *pipeline.DocumentResult) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		ids := make(map[entity.PartKey]int64, len(res.Parts))
		for i := range res.Parts {
			p := &res.Parts[i]
			id, err := s.upsertPart(ctx, tx, p)
			if err != nil {
				return err
			}
			p.ID = id
			ids[p.Key()] = id
		}
		for _, l := range res.Links {
			id, ok := ids[l.Part]
			if !ok {
				s.logger.Warn("image link without stored part", "part_number", l.Part.Number, "page", l.Part.Page, "image", l.Filename)
				continue
			}
			if err := s.upsertImage(ctx, tx, id, l); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("catalog store failed", "document", res.Job.Path, "error", err)
		return err
	}
	s.logger.Info("catalog stored", "document", res.Job.Path, "parts", len(res.Parts), "images", len(res.Links))
	return nil
}

func (s *Store) upsertPart(ctx context.Context, q querier, p *entity.ExtractedPart) (int64, error) {
	var machine, image any
	if mi := p.MachineInfo(); mi != nil {
		raw, err := machineInfoSchema.Marshal(mi)
		if err != nil {
			s.logger.Warn("machine info rejected", "part_number", p.Number, "page", p.Page, "error", err)
		} else {
			machine = string(raw)
		}
	}
	if p.ImageRef != "" {
		image = p.ImageRef
	}
	specs := p.Specifications
	if specs == nil {
		specs = []entity.SpecPair{}
	}
	oe := p.OENumbers
	if oe == nil {
		oe = []string{}
	}
	specsJSON, err := marshalJSON(specs)
	if err != nil {
		return 0, fmt.Errorf("specifications: %w", err)
	}
	oeJSON, err := marshalJSON(oe)
	if err != nil {
		return 0, fmt.Errorf("oe numbers: %w", err)
	}

	now := s.now().UTC()
	query, args := s.b.Insert(tableParts).
		Columns(partInsertColumns...).
		Values(
			p.Catalog, string(p.Family), string(p.Type), p.Number, p.Description, p.Category,
			p.Section, p.Page, image, p.PageText, p.PDFPath, machine, specsJSON,
			oeJSON, p.Applications, p.Features, now, now,
		).
		OnConflict(
			entsql.ConflictColumns("catalog_name", "part_number", "page"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				for _, c := range partUpdateColumns {
					u.SetExcluded(c)
				}
			}),
		).
		Query()
	if _, err := s.exec(ctx, q, "upsert part", query, args...); err != nil {
		return 0, err
	}
	return s.lookupID(ctx, q, tableParts, partKeyPredicate(p.Key()))
}

func partKeyPredicate(k entity.PartKey) *entsql.Predicate {
	return entsql.And(
		entsql.EQ("catalog_name", k.Catalog),
		entsql.EQ("part_number", k.Number),
		entsql.EQ("page", k.Page),
	)
}

func (s *Store) upsertImage(ctx context.Context, q querier, partID int64, l entity.PartImage) error {
	query, args := s.b.Insert(tablePartImages).
		Columns("part_id", "image_filename", "image_path", "width", "height", "page", "confidence", "fallback", "created_at").
		Values(partID, l.Filename, l.Path, l.Width, l.Height, l.Page, l.Confidence, l.Fallback, s.now().UTC()).
		OnConflict(
			entsql.ConflictColumns("part_id", "image_filename"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("image_path").SetExcluded("width").SetExcluded("height").
					SetExcluded("confidence").SetExcluded("fallback")
			}),
		).
		Query()
	_, err := s.exec(ctx, q, "upsert part image", query, args...)
	return err
}

// PartFilter narrows ListParts. Zero values match everything.
type PartFilter struct {
	Catalog  string
	Category string
	Number   string
	Limit    int
}

// ListParts returns stored parts ordered by catalog, page and part number.
func (s *Store) ListParts(ctx context.Context, f PartFilter) ([]entity.ExtractedPart, error) {
	sel := s.b.Select(partSelectColumns...).From(s.b.Table(tableParts))
	var preds []*entsql.Predicate
	if f.Catalog != "" {
		preds = append(preds, entsql.EQ("catalog_name", f.Catalog))
	}
	if f.Category != "" {
		preds = append(preds, entsql.EQ("category", f.Category))
	}
	if f.Number != "" {
		preds = append(preds, entsql.EQ("part_number", strings.ToUpper(f.Number)))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	sel.OrderBy("catalog_name", "page", "part_number")
	if f.Limit > 0 {
		sel.Limit(f.Limit)
	}
	query, args := sel.Query()
	return s.queryParts(ctx, query, args...)
}

// Search finds parts whose number, description, category or catalog matches text. SQLite uses
// the FTS5 index with prefix terms; Postgres falls back to case-insensitive substring matching.
func (s *Store) Search(ctx context.Context, text string, limit int) ([]entity.ExtractedPart, error) {
	if limit <= 0 {
		limit = 50
	}
	if s.db.Dialect == dialect.SQLite {
		match := ftsQuery(text)
		if match == "" {
			return nil, nil
		}
		cols := make([]string, len(partSelectColumns))
		for i, c := range partSelectColumns {
			cols[i] = "p." + c
		}
		query := fmt.Sprintf(
			"SELECT %s FROM %s JOIN %s p ON p.id = %s.rowid WHERE %s MATCH ? ORDER BY rank LIMIT ?",
			strings.Join(cols, ", "), tablePartsFTS, tableParts, tablePartsFTS, tablePartsFTS,
		)
		return s.queryParts(ctx, query, match, limit)
	}

	var preds []*entsql.Predicate
	for _, term := range strings.Fields(text) {
		preds = append(preds, entsql.Or(
			entsql.ContainsFold("part_number", term),
			entsql.ContainsFold("description", term),
			entsql.ContainsFold("category", term),
			entsql.ContainsFold("catalog_name", term),
		))
	}
	if len(preds) == 0 {
		return nil, nil
	}
	query, args := s.b.Select(partSelectColumns...).
		From(s.b.Table(tableParts)).
		Where(entsql.And(preds...)).
		OrderBy("part_number", "catalog_name", "page").
		Limit(limit).
		Query()
	return s.queryParts(ctx, query, args...)
}

// ftsQuery quotes every term as an FTS5 prefix phrase, so user input is never parsed as syntax.
func ftsQuery(text string) string {
	terms := strings.Fields(text)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"*`
	}
	return strings.Join(terms, " ")
}

func (s *Store) queryParts(ctx context.Context, query string, args ...any) ([]entity.ExtractedPart, error) {
	rows, err := s.db.SQL().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError("query parts", err)
	}
	defer rows.Close()

	var out []entity.ExtractedPart
	for rows.Next() {
		p, err := scanPart(rows)
		if err != nil {
			return nil, dbError("scan part", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("query parts", err)
	}
	return out, nil
}

func scanPart(rows *sql.Rows) (entity.ExtractedPart, error) {
	var (
		p                entity.ExtractedPart
		family, typ      string
		image, machine   sql.NullString
		specs, oeNumbers string
	)
	err := rows.Scan(
		&p.ID, &p.Catalog, &family, &typ, &p.Number, &p.Description, &p.Category,
		&p.Section, &p.Page, &image, &p.PDFPath, &machine, &specs, &oeNumbers,
		&p.Applications, &p.Features,
	)
	if err != nil {
		return p, err
	}
	p.Family, p.Type = constants.CatalogFamily(family), constants.EntityType(typ)
	p.ImageRef = image.String
	if machine.Valid && machine.String != "" {
		var mi entity.MachineInfo
		if err := json.Unmarshal([]byte(machine.String), &mi); err != nil {
			return p, fmt.Errorf("machine_info: %w", err)
		}
		p.Models = mi.Models
	}
	if err := json.Unmarshal([]byte(specs), &p.Specifications); err != nil {
		return p, fmt.Errorf("specifications: %w", err)
	}
	if err := json.Unmarshal([]byte(oeNumbers), &p.OENumbers); err != nil {
		return p, fmt.Errorf("oe_numbers: %w", err)
	}
	return p, nil
}

// PartImages returns the image links of one stored part, best confidence first.
func (s *Store) PartImages(ctx context.Context, partID int64) ([]entity.PartImage, error) {
	query, args := s.b.Select("image_filename", "image_path", "width", "height", "page", "confidence", "fallback").
		From(s.b.Table(tablePartImages)).
		Where(entsql.EQ("part_id", partID)).
		OrderBy(entsql.Desc("confidence"), "image_filename").
		Query()
	rows, err := s.db.SQL().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError("query part images", err)
	}
	defer rows.Close()
	var out []entity.PartImage
	for rows.Next() {
		var l entity.PartImage
		if err := rows.Scan(&l.Filename, &l.Path, &l.Width, &l.Height, &l.Page, &l.Confidence, &l.Fallback); err != nil {
			return nil, dbError("scan part image", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("query part images", err)
	}
	return out, nil
}
