package entity

// PartImage links a part to an image artifact with a proximity confidence.
type PartImage struct {
	Part       PartKey
	Filename   string
	Path       string
	Width      int
	Height     int
	Page       int
	Confidence float64
	Fallback   bool // attached by the fallback policy rather than proximity
}

// GuidePart links a guide to a part number it mentions.
type GuidePart struct {
	GuideID    int64
	Number     string
	Confidence float64
}
