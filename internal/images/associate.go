package images

import (
	"math"
	"sort"

	"github.com/joseph-ayodele/parts-catalog/constants"
	"github.com/joseph-ayodele/parts-catalog/internal/entity"
	"github.com/joseph-ayodele/parts-catalog/internal/extract"
)

// Policy decides what happens to an image that no nearby part number claims.
type Policy string

const (
	// PolicyFirstUnassociated attaches the image to the first page part that has no image yet.
	PolicyFirstUnassociated Policy = "first-unassociated"
	// PolicyDrop discards the image.
	PolicyDrop Policy = "drop"

	DefaultWindow = 200.0
)

// ParsePolicy maps a configuration value to a Policy; unknown values fall back to the default.
func ParsePolicy(s string) Policy {
	if Policy(s) == PolicyDrop {
		return PolicyDrop
	}
	return PolicyFirstUnassociated
}

// Match is a part number seen near an image.
type Match struct {
	Number     string
	Confidence float64
}

// Associator scores the text spans around an image by center distance.
type Associator struct {
	recognizer *extract.PartRecognizer
	window     float64
	policy     Policy
}

func NewAssociator(r *extract.PartRecognizer, window float64, policy Policy) *Associator {
	if window <= 0 {
		window = DefaultWindow
	}
	if policy == "" {
		policy = PolicyFirstUnassociated
	}
	return &Associator{recognizer: r, window: window, policy: policy}
}

func (a *Associator) Policy() Policy { return a.policy }

// Candidates returns the part numbers whose span centers lie within the window of the image
// center, best occurrence per number, highest confidence first.
func (a *Associator) Candidates(box entity.Rect, spans []entity.TextSpan, family constants.CatalogFamily) []Match {
	if box.Empty() {
		return nil
	}
	cx, cy := box.Center()
	best := map[string]float64{}
	for _, s := range spans {
		sx, sy := s.Bounds.Center()
		dx, dy := math.Abs(sx-cx), math.Abs(sy-cy)
		if dx >= a.window || dy >= a.window {
			continue
		}
		conf := Confidence(dx, dy, a.window)
		for _, n := range a.recognizer.Numbers(s.Text, family) {
			if c, ok := best[n]; !ok || conf > c {
				best[n] = conf
			}
		}
	}
	out := make([]Match, 0, len(best))
	for n, c := range best {
		out = append(out, Match{Number: n, Confidence: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Number < out[j].Number
	})
	return out
}

// Confidence is 1 at the image center and falls linearly to 0 at a Manhattan distance of
// twice the window.
func Confidence(dx, dy, window float64) float64 {
	return math.Max(0, 1-(math.Abs(dx)+math.Abs(dy))/(2*window))
}

// Associate links img to every page part whose number is a candidate and sets their image
// reference when it is still empty. With no link the policy applies; an empty result means the
// image should be discarded.
func (a *Associator) Associate(img entity.ExtractedImage, spans []entity.TextSpan, parts []*entity.ExtractedPart, family constants.CatalogFamily) []entity.PartImage {
	var links []entity.PartImage
	seen := map[entity.PartKey]bool{}
	for _, m := range a.Candidates(img.Bounds, spans, family) {
		for _, p := range parts {
			if p.Number != m.Number || seen[p.Key()] {
				continue
			}
			seen[p.Key()] = true
			links = append(links, link(img, p.Key(), m.Confidence, false))
		}
	}
	if len(links) > 0 {
		for _, p := range parts {
			if seen[p.Key()] && p.ImageRef == "" {
				p.ImageRef = img.Filename
			}
		}
		return links
	}

	if a.policy != PolicyFirstUnassociated {
		return nil
	}
	for _, p := range parts {
		if p.ImageRef != "" {
			continue
		}
		key := p.Key()
		for _, q := range parts {
			if q.Key() == key && q.ImageRef == "" {
				q.ImageRef = img.Filename
			}
		}
		return []entity.PartImage{link(img, key, 0, true)}
	}
	return nil
}

func link(img entity.ExtractedImage, key entity.PartKey, conf float64, fallback bool) entity.PartImage {
	return entity.PartImage{
		Part:       key,
		Filename:   img.Filename,
		Path:       img.Path,
		Width:      img.Width,
		Height:     img.Height,
		Page:       img.Page,
		Confidence: conf,
		Fallback:   fallback,
	}
}
