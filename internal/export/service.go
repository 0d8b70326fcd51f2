// Package export writes stored part listings as XLSX workbooks and Parquet files.
package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/parts-catalog/internal/common"
	"github.com/joseph-ayodele/parts-catalog/internal/entity"
	"github.com/joseph-ayodele/parts-catalog/internal/repository"
)

// excelCellLimit is the maximum number of characters a cell can hold.
const excelCellLimit = 32767

// PartLister is the read side of the repository store.
type PartLister interface {
	ListParts(ctx context.Context, f repository.PartFilter) ([]entity.ExtractedPart, error)
}

// Service is a tiny façade over the store that produces export files.
type Service struct {
	parts  PartLister
	logger *slog.Logger
}

func NewService(parts PartLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{parts: parts, logger: logger}
}

// PartRow is the flat export shape of a part.
type PartRow struct {
	ID           int64    `parquet:"id"`
	Catalog      string   `parquet:"catalog_name"`
	CatalogType  string   `parquet:"catalog_type"`
	Page         int32    `parquet:"page"`
	PartNumber   string   `parquet:"part_number"`
	PartType     string   `parquet:"part_type"`
	Category     string   `parquet:"category"`
	Section      string   `parquet:"section,optional"`
	Description  string   `parquet:"description"`
	Models       []string `parquet:"models,list"`
	Applications string   `parquet:"applications,optional"`
	OENumbers    []string `parquet:"oe_numbers,list"`
	ImagePath    string   `parquet:"image_path,optional"`
	PDFPath      string   `parquet:"pdf_path"`
}

func toRow(p entity.ExtractedPart) PartRow {
	return PartRow{
		ID:           p.ID,
		Catalog:      p.Catalog,
		CatalogType:  string(p.Family),
		Page:         int32(p.Page),
		PartNumber:   p.Number,
		PartType:     string(p.Type),
		Category:     p.Category,
		Section:      p.Section,
		Description:  p.Description,
		Models:       p.Models,
		Applications: p.Applications,
		OENumbers:    p.OENumbers,
		ImagePath:    p.ImageRef,
		PDFPath:      p.PDFPath,
	}
}

var xlsxHeaders = []string{
	"Catalog",
	"Page",
	"Part Number",
	"Type",
	"Category",
	"Section",
	"Description",
	"Models",
	"Applications",
	"OE Numbers",
	"Image",
}

// PartsXLSX returns an XLSX workbook (as bytes) with one row per stored part.
func (s *Service) PartsXLSX(ctx context.Context, filter repository.PartFilter) ([]byte, error) {
	start := time.Now()
	parts, err := s.parts.ListParts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query parts: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	const sheet = "Parts"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	_ = f.DeleteSheet("Sheet1")

	for i, h := range xlsxHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, p := range parts {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, p.Catalog)
		write(2, p.Page)
		write(3, p.Number)
		write(4, string(p.Type))
		write(5, p.Category)
		write(6, p.Section)
		write(7, truncate(p.Description, excelCellLimit))
		write(8, strings.Join(p.Models, ", "))
		write(9, truncate(p.Applications, excelCellLimit))
		write(10, strings.Join(p.OENumbers, ", "))
		write(11, p.ImageRef)
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 24) // catalog
	_ = f.SetColWidth(sheet, "C", "C", 16) // part number
	_ = f.SetColWidth(sheet, "E", "F", 22) // category, section
	_ = f.SetColWidth(sheet, "G", "G", 60) // description
	_ = f.SetColWidth(sheet, "H", "J", 28)
	_ = f.SetColWidth(sheet, "K", "K", 40) // image
	if len(parts) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(xlsxHeaders), len(parts)+1)
		_ = f.AutoFilter(sheet, "A1:"+last, nil)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(parts),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// PartsParquet streams the stored parts to w and returns the row count.
func (s *Service) PartsParquet(ctx context.Context, w io.Writer, filter repository.PartFilter) (int, error) {
	start := time.Now()
	parts, err := s.parts.ListParts(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("query parts: %w", err)
	}
	rows := make([]PartRow, len(parts))
	for i, p := range parts {
		rows[i] = toRow(p)
	}

	pw := parquet.NewGenericWriter[PartRow](w)
	n, err := pw.Write(rows)
	if err != nil {
		return n, fmt.Errorf("parquet write: %w", err)
	}
	if err := pw.Close(); err != nil {
		return n, fmt.Errorf("parquet close: %w", err)
	}
	s.logger.Info("export.parquet.ok",
		"rows", n,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return n, nil
}

// WriteFile exports to path, choosing the format from its extension.
func (s *Service) WriteFile(ctx context.Context, path string, filter repository.PartFilter) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx":
		b, err := s.PartsXLSX(ctx, filter)
		if err != nil {
			return err
		}
		return os.WriteFile(path, b, 0o644)
	case ".parquet":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if _, err := s.PartsParquet(ctx, f, filter); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	default:
		return common.NewAppError("UNSUPPORTED_FORMAT", fmt.Sprintf("export format %q (supported: .xlsx, .parquet)", ext), common.ErrUnsupportedFormat)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
