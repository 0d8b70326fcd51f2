package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/parts-catalog/internal/entity"
	"github.com/joseph-ayodele/parts-catalog/internal/pipeline"
)

// SaveGuide upserts the guide by guide_name and replaces its part references.
func (s *Store) SaveGuide(ctx context.Context, res *pipeline.DocumentResult) error {
	g := res.Guide
	if g == nil {
		return nil
	}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		id, err := s.upsertGuide(ctx, tx, g, res.Template)
		if err != nil {
			return err
		}
		g.ID = id
		query, args := s.b.Delete(tableGuideParts).Where(entsql.EQ("guide_id", id)).Query()
		if _, err := s.exec(ctx, tx, "clear guide parts", query, args...); err != nil {
			return err
		}
		for i := range res.GuideLinks {
			l := &res.GuideLinks[i]
			l.GuideID = id
			query, args := s.b.Insert(tableGuideParts).
				Columns("guide_id", "part_number", "confidence").
				Values(id, l.Number, l.Confidence).
				OnConflict(entsql.ConflictColumns("guide_id", "part_number"), entsql.ResolveWithNewValues()).
				Query()
			if _, err := s.exec(ctx, tx, "insert guide part", query, args...); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("guide store failed", "document", res.Job.Path, "error", err)
		return err
	}
	s.logger.Info("guide stored", "guide", g.Name, "related_parts", len(res.GuideLinks))
	return nil
}

func (s *Store) upsertGuide(ctx context.Context, q querier, g *entity.GuideRecord, template []byte) (int64, error) {
	sections := g.Sections
	if sections == nil {
		sections = []entity.Section{}
	}
	specs := g.Specifications
	if specs == nil {
		specs = []entity.SpecPair{}
	}
	sectionsJSON, err := marshalJSON(sections)
	if err != nil {
		return 0, err
	}
	specsJSON, err := marshalJSON(specs)
	if err != nil {
		return 0, err
	}
	var tmpl any
	if len(template) > 0 {
		tmpl = string(template)
	}
	now := s.now().UTC()
	query, args := s.b.Insert(tableGuides).
		Columns("guide_name", "display_name", "description", "category", "pdf_path", "sections", "specifications", "template_fields", "created_at", "updated_at").
		Values(g.Name, g.DisplayName, g.Description, g.Category, g.PDFPath, sectionsJSON, specsJSON, tmpl, now, now).
		OnConflict(
			entsql.ConflictColumns("guide_name"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				for _, c := range []string{"display_name", "description", "category", "pdf_path", "sections", "specifications", "template_fields", "updated_at"} {
					u.SetExcluded(c)
				}
			}),
		).
		Query()
	if _, err := s.exec(ctx, q, "upsert guide", query, args...); err != nil {
		return 0, err
	}
	return s.lookupID(ctx, q, tableGuides, entsql.EQ("guide_name", g.Name))
}

// GetGuide loads a stored guide with its related part numbers.
func (s *Store) GetGuide(ctx context.Context, name string) (*entity.GuideRecord, error) {
	query, args := s.b.Select("id", "guide_name", "display_name", "description", "category", "pdf_path", "sections", "specifications").
		From(s.b.Table(tableGuides)).
		Where(entsql.EQ("guide_name", name)).
		Query()
	var (
		g              entity.GuideRecord
		sections, spec string
	)
	err := s.db.SQL().QueryRowContext(ctx, query, args...).
		Scan(&g.ID, &g.Name, &g.DisplayName, &g.Description, &g.Category, &g.PDFPath, &sections, &spec)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("guide " + name)
		}
		return nil, dbError("get guide", err)
	}
	if err := json.Unmarshal([]byte(sections), &g.Sections); err != nil {
		return nil, dbError("decode sections", err)
	}
	if err := json.Unmarshal([]byte(spec), &g.Specifications); err != nil {
		return nil, dbError("decode specifications", err)
	}

	query, args = s.b.Select("part_number").
		From(s.b.Table(tableGuideParts)).
		Where(entsql.EQ("guide_id", g.ID)).
		OrderBy("id").
		Query()
	rows, err := s.db.SQL().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError("query guide parts", err)
	}
	defer rows.Close()
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, dbError("scan guide part", err)
		}
		g.RelatedParts = append(g.RelatedParts, n)
	}
	return &g, rows.Err()
}

// GuidePartRef is a guide reference resolved against the stored parts. PartID is zero when no
// catalog contains the number.
type GuidePartRef struct {
	Number     string
	Confidence float64
	PartID     int64
	Catalog    string
	Page       int
}

// ResolveGuideParts joins a guide's part references to every stored part with the same number.
func (s *Store) ResolveGuideParts(ctx context.Context, guideName string) ([]GuidePartRef, error) {
	g := s.b.Table(tableGuides).As("g")
	gp := s.b.Table(tableGuideParts).As("gp")
	p := s.b.Table(tableParts).As("p")
	query, args := s.b.Select(gp.C("part_number"), gp.C("confidence"), p.C("id"), p.C("catalog_name"), p.C("page")).
		From(gp).
		Join(g).On(gp.C("guide_id"), g.C("id")).
		LeftJoin(p).On(gp.C("part_number"), p.C("part_number")).
		Where(entsql.EQ(g.C("guide_name"), guideName)).
		OrderBy(gp.C("id"), p.C("id")).
		Query()
	rows, err := s.db.SQL().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError("resolve guide parts", err)
	}
	defer rows.Close()

	var out []GuidePartRef
	for rows.Next() {
		var (
			ref     GuidePartRef
			id      sql.NullInt64
			catalog sql.NullString
			page    sql.NullInt64
		)
		if err := rows.Scan(&ref.Number, &ref.Confidence, &id, &catalog, &page); err != nil {
			return nil, dbError("scan guide part", err)
		}
		ref.PartID, ref.Catalog, ref.Page = id.Int64, catalog.String, int(page.Int64)
		out = append(out, ref)
	}
	return out, rows.Err()
}
