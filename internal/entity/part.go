package entity

import (
	"github.com/joseph-ayodele/parts-catalog/constants"
)

// PartKey is the uniqueness key of a part record.
type PartKey struct {
	Catalog string
	Number  string
	Page    int
}

// SpecPair is one key/value specification, kept ordered.
type SpecPair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ExtractedPart is one part-number occurrence on one page of one catalog.
type ExtractedPart struct {
	ID             int64                   `json:"id,omitempty"`
	Seq            int                     `json:"-"` // creation order within a document
	Catalog        string                  `json:"catalog_name"`
	Family         constants.CatalogFamily `json:"catalog_type"`
	Type           constants.EntityType    `json:"part_type"`
	Number         string                  `json:"part_number"`
	Description    string                  `json:"description"`
	Category       string                  `json:"category"`
	Section        string                  `json:"section,omitempty"`
	Page           int                     `json:"page"`
	ImageRef       string                  `json:"image_path,omitempty"`
	PageText       string                  `json:"page_text,omitempty"`
	PDFPath        string                  `json:"pdf_path"`
	Models         []string                `json:"models,omitempty"`
	Specifications []SpecPair              `json:"specifications,omitempty"`
	OENumbers      []string                `json:"oe_numbers,omitempty"`
	Applications   string                  `json:"applications,omitempty"`
	Features       string                  `json:"features,omitempty"`
}

// Key returns the (catalog, part number, page) uniqueness key.
func (p *ExtractedPart) Key() PartKey {
	return PartKey{Catalog: p.Catalog, Number: p.Number, Page: p.Page}
}

// MachineInfo is the JSON document stored in parts.machine_info.
type MachineInfo struct {
	Models  []string `json:"models,omitempty"`
	Section string   `json:"section,omitempty"`
}

// MachineInfo projects the part's machine attributes; nil when there is nothing to store.
func (p *ExtractedPart) MachineInfo() *MachineInfo {
	if len(p.Models) == 0 && p.Section == "" {
		return nil
	}
	return &MachineInfo{Models: p.Models, Section: p.Section}
}
