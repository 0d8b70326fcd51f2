package repository

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	tableParts      = "parts"
	tablePartImages = "part_images"
	tableGuides     = "technical_guides"
	tableGuideParts = "guide_parts"
	tableDocuments  = "documents"
	tablePartsFTS   = "parts_fts"
)

var (
	partsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "catalog_name", Type: field.TypeString},
		{Name: "catalog_type", Type: field.TypeString},
		{Name: "part_type", Type: field.TypeString},
		{Name: "part_number", Type: field.TypeString},
		{Name: "description", Type: field.TypeString, Size: 2147483647},
		{Name: "category", Type: field.TypeString},
		{Name: "section", Type: field.TypeString, Default: ""},
		{Name: "page", Type: field.TypeInt},
		{Name: "image_path", Type: field.TypeString, Nullable: true},
		{Name: "page_text", Type: field.TypeString, Size: 2147483647},
		{Name: "pdf_path", Type: field.TypeString},
		{Name: "machine_info", Type: field.TypeJSON, Nullable: true},
		{Name: "specifications", Type: field.TypeJSON},
		{Name: "oe_numbers", Type: field.TypeJSON},
		{Name: "applications", Type: field.TypeString, Size: 2147483647},
		{Name: "features", Type: field.TypeString, Size: 2147483647},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	partsTable = &schema.Table{
		Name:       tableParts,
		Columns:    partsColumns,
		PrimaryKey: []*schema.Column{partsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "parts_catalog_name_part_number_page", Unique: true, Columns: []*schema.Column{partsColumns[1], partsColumns[4], partsColumns[8]}},
			{Name: "parts_part_number", Columns: []*schema.Column{partsColumns[4]}},
			{Name: "parts_category", Columns: []*schema.Column{partsColumns[6]}},
		},
	}

	partImagesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "part_id", Type: field.TypeInt64},
		{Name: "image_filename", Type: field.TypeString},
		{Name: "image_path", Type: field.TypeString, Size: 2147483647},
		{Name: "width", Type: field.TypeInt},
		{Name: "height", Type: field.TypeInt},
		{Name: "page", Type: field.TypeInt},
		{Name: "confidence", Type: field.TypeFloat64},
		{Name: "fallback", Type: field.TypeBool, Default: false},
		{Name: "created_at", Type: field.TypeTime},
	}
	partImagesTable = &schema.Table{
		Name:       tablePartImages,
		Columns:    partImagesColumns,
		PrimaryKey: []*schema.Column{partImagesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{{
			Symbol:     "part_images_parts_images",
			Columns:    []*schema.Column{partImagesColumns[1]},
			RefColumns: []*schema.Column{partsColumns[0]},
			OnDelete:   schema.Cascade,
		}},
		Indexes: []*schema.Index{
			{Name: "part_images_part_id_image_filename", Unique: true, Columns: []*schema.Column{partImagesColumns[1], partImagesColumns[2]}},
		},
	}

	guidesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "guide_name", Type: field.TypeString, Unique: true},
		{Name: "display_name", Type: field.TypeString},
		{Name: "description", Type: field.TypeString, Size: 2147483647},
		{Name: "category", Type: field.TypeString},
		{Name: "pdf_path", Type: field.TypeString},
		{Name: "sections", Type: field.TypeJSON},
		{Name: "specifications", Type: field.TypeJSON},
		{Name: "template_fields", Type: field.TypeJSON, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	guidesTable = &schema.Table{
		Name:       tableGuides,
		Columns:    guidesColumns,
		PrimaryKey: []*schema.Column{guidesColumns[0]},
	}

	guidePartsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "guide_id", Type: field.TypeInt64},
		{Name: "part_number", Type: field.TypeString},
		{Name: "confidence", Type: field.TypeFloat64},
	}
	guidePartsTable = &schema.Table{
		Name:       tableGuideParts,
		Columns:    guidePartsColumns,
		PrimaryKey: []*schema.Column{guidePartsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{{
			Symbol:     "guide_parts_technical_guides_parts",
			Columns:    []*schema.Column{guidePartsColumns[1]},
			RefColumns: []*schema.Column{guidesColumns[0]},
			OnDelete:   schema.Cascade,
		}},
		Indexes: []*schema.Index{
			{Name: "guide_parts_guide_id_part_number", Unique: true, Columns: []*schema.Column{guidePartsColumns[1], guidePartsColumns[2]}},
		},
	}

	documentsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "run_id", Type: field.TypeString},
		{Name: "path", Type: field.TypeString, Size: 2147483647},
		{Name: "kind", Type: field.TypeString},
		{Name: "content_hash", Type: field.TypeString, Default: ""},
		{Name: "status", Type: field.TypeString},
		{Name: "pages", Type: field.TypeInt},
		{Name: "parts", Type: field.TypeInt},
		{Name: "images", Type: field.TypeInt},
		{Name: "error_message", Type: field.TypeString, Nullable: true, Size: 2147483647},
		{Name: "started_at", Type: field.TypeTime},
		{Name: "finished_at", Type: field.TypeTime, Nullable: true},
	}
	documentsTable = &schema.Table{
		Name:       tableDocuments,
		Columns:    documentsColumns,
		PrimaryKey: []*schema.Column{documentsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "documents_path_status", Columns: []*schema.Column{documentsColumns[2], documentsColumns[5]}},
		},
	}

	// Tables in creation order.
	Tables = []*schema.Table{partsTable, partImagesTable, guidesTable, guidePartsTable, documentsTable}
)

func init() {
	partImagesTable.ForeignKeys[0].RefTable = partsTable
	guidePartsTable.ForeignKeys[0].RefTable = guidesTable
}

// sqliteFTS keeps an external-content FTS5 index of the searchable part columns in sync.
var sqliteFTS = []string{
	`CREATE VIRTUAL TABLE IF NOT EXISTS parts_fts USING fts5(part_number, description, category, catalog_name, content='parts', content_rowid='id')`,
	`CREATE TRIGGER IF NOT EXISTS parts_fts_ai AFTER INSERT ON parts BEGIN
		INSERT INTO parts_fts(rowid, part_number, description, category, catalog_name)
		VALUES (new.id, new.part_number, new.description, new.category, new.catalog_name);
	END`,
	`CREATE TRIGGER IF NOT EXISTS parts_fts_ad AFTER DELETE ON parts BEGIN
		INSERT INTO parts_fts(parts_fts, rowid, part_number, description, category, catalog_name)
		VALUES ('delete', old.id, old.part_number, old.description, old.category, old.catalog_name);
	END`,
	`CREATE TRIGGER IF NOT EXISTS parts_fts_au AFTER UPDATE ON parts BEGIN
		INSERT INTO parts_fts(parts_fts, rowid, part_number, description, category, catalog_name)
		VALUES ('delete', old.id, old.part_number, old.description, old.category, old.catalog_name);
		INSERT INTO parts_fts(rowid, part_number, description, category, catalog_name)
		VALUES (new.id, new.part_number, new.description, new.category, new.catalog_name);
	END`,
}

// Migrate creates or updates the tables, and on SQLite the full-text index.
func Migrate(ctx context.Context, db *DB) error {
	m, err := schema.NewMigrate(db.Driver)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if db.Dialect != dialect.SQLite {
		return nil
	}
	for _, stmt := range sqliteFTS {
		if _, err := db.SQL().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate full-text index: %w", err)
		}
	}
	return nil
}
