// Package guides mines technical-guide documents for descriptions, sections, specifications
// and the catalog part numbers they mention.
package guides

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/parts-catalog/constants"
	"github.com/joseph-ayodele/parts-catalog/internal/classify"
	"github.com/joseph-ayodele/parts-catalog/internal/common"
	"github.com/joseph-ayodele/parts-catalog/internal/entity"
	"github.com/joseph-ayodele/parts-catalog/internal/extract"
)

const (
	descriptionLines    = 3
	descriptionMinLen   = 20
	descriptionMaxLen   = 500
	headerMaxLen        = 100
	templateSections    = 5
	templateSpecs       = 10
	templateRelated     = 20
	createdDateLayout   = "2006-01-02"
	displayNameFallback = " Technical Guide"
)

var (
	reNumbered  = regexp.MustCompile(`^\d+\.`)
	reTitleCase = regexp.MustCompile(`^[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*$`)

	templateSchema = common.MustCompileSchema("template_fields.json", entity.TemplateFieldsSchema())
)

// PageText is one page of guide text, 1-based.
type PageText struct {
	Number int
	Text   string
}

// Extractor builds GuideRecords. It is stateless apart from its collaborators.
type Extractor struct {
	recognizer *extract.PartRecognizer
	now        func() time.Time
	newID      func() string
}

type Option func(*Extractor)

// WithClock fixes created_date (tests).
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// WithIDSource replaces the document_id generator (tests).
func WithIDSource(f func() string) Option {
	return func(e *Extractor) { e.newID = f }
}

func NewExtractor(r *extract.PartRecognizer, opts ...Option) *Extractor {
	e := &Extractor{recognizer: r, now: time.Now, newID: uuid.NewString}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract builds the guide record for the document at path from its page texts. The description
// comes from page 1 only.
func (e *Extractor) Extract(path string, pages []PageText) entity.GuideRecord {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	g := entity.GuideRecord{
		Name:        name,
		DisplayName: DisplayName(name),
		Category:    string(classify.GuideCategory(path)),
		PDFPath:     path,
	}
	if len(pages) > 0 && pages[0].Number == 1 {
		g.Description = Description(pages[0].Text)
	}

	specs := newSpecCollector()
	seen := map[string]bool{}
	for _, p := range pages {
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		g.Sections = append(g.Sections, Sections(p.Text, p.Number)...)
		specs.collect(p.Text)
		for _, n := range e.recognizer.Numbers(p.Text, constants.FamilyGeneral) {
			if !seen[n] {
				seen[n] = true
				g.RelatedParts = append(g.RelatedParts, n)
			}
		}
	}
	g.Specifications = specs.pairs
	return g
}

// Template projects g onto the capped template fields and returns them with their validated JSON.
func (e *Extractor) Template(g entity.GuideRecord) (entity.TemplateFields, []byte, error) {
	created := e.now().UTC().Format(createdDateLayout)
	tf := entity.TemplateFields{
		GuideTitle:        g.DisplayName,
		Description:       g.Description,
		Category:          g.Category,
		Sections:          append([]entity.Section{}, g.Sections[:min(len(g.Sections), templateSections)]...),
		KeySpecifications: map[string]string{},
		RelatedParts:      append([]string{}, g.RelatedParts[:min(len(g.RelatedParts), templateRelated)]...),
		CreatedDate:       &created,
		DocumentID:        e.newID(),
	}
	for _, s := range g.Specifications[:min(len(g.Specifications), templateSpecs)] {
		tf.KeySpecifications[s.Key] = s.Value
	}
	b, err := templateSchema.Marshal(tf)
	if err != nil {
		return tf, nil, err
	}
	return tf, b, nil
}

// DisplayName turns a file stem into a human title: separators become spaces, words are
// capitalized and " Technical Guide" is appended unless the name already says what it is.
func DisplayName(stem string) string {
	words := strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(stem))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	name := strings.Join(words, " ")
	lower := strings.ToLower(name)
	if !strings.Contains(lower, "guide") && !strings.Contains(lower, "manual") && !strings.Contains(lower, "spec") {
		name += displayNameFallback
	}
	return strings.TrimSpace(name)
}

// Description joins the first three long, non-heading lines of the first page.
func Description(firstPage string) string {
	var picked []string
	for _, line := range strings.Split(firstPage, "\n") {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) <= descriptionMinLen || isUpper(line) || isHeader(line) {
			continue
		}
		picked = append(picked, line)
		if len(picked) == descriptionLines {
			break
		}
	}
	return extract.Truncate(strings.Join(picked, " "), descriptionMaxLen)
}

// Sections splits one page into titled sections. Text before the first header is dropped.
func Sections(text string, page int) []entity.Section {
	var out []entity.Section
	var cur *entity.Section
	var content []string
	flush := func() {
		if cur != nil {
			cur.Content = strings.Join(content, " ")
			out = append(out, *cur)
		}
		content = content[:0]
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if isHeader(line) {
			flush()
			cur = &entity.Section{Title: line, Page: page}
			continue
		}
		if cur != nil {
			content = append(content, line)
		}
	}
	flush()
	return out
}

func isHeader(line string) bool {
	if utf8.RuneCountInString(line) >= headerMaxLen {
		return false
	}
	return isUpper(line) || reNumbered.MatchString(line) || reTitleCase.MatchString(line)
}

// isUpper reports whether s has at least one letter and no lower-case letters.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			cased = true
		}
	}
	return cased
}
