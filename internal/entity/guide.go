package entity

// Section is a titled run of guide text starting on Page.
type Section struct {
	Title   string `json:"title"`
	Page    int    `json:"page"`
	Content string `json:"content"`
}

// GuideRecord is one technical guide document.
type GuideRecord struct {
	ID             int64      `json:"id,omitempty"`
	Name           string     `json:"guide_name"`
	DisplayName    string     `json:"display_name"`
	Description    string     `json:"description"`
	Category       string     `json:"category"`
	PDFPath        string     `json:"pdf_path"`
	Sections       []Section  `json:"sections"`
	Specifications []SpecPair `json:"specifications"`
	RelatedParts   []string   `json:"related_parts"`
}

// TemplateFields is the capped projection used by downstream rendering.
type TemplateFields struct {
	GuideTitle        string            `json:"guide_title"`
	Description       string            `json:"description"`
	Category          string            `json:"category"`
	Sections          []Section         `json:"sections"`
	KeySpecifications map[string]string `json:"key_specifications"`
	RelatedParts      []string          `json:"related_parts"`
	CreatedDate       *string           `json:"created_date"`
	DocumentID        string            `json:"document_id"`
}
