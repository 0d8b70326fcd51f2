// Package dedup collapses duplicate part records and picks survivors for stored duplicates.
package dedup

import (
	"sort"

	"github.com/joseph-ayodele/parts-catalog/internal/entity"
)

// Strategy selects the survivor of a duplicate group.
type Strategy string

const (
	Earliest Strategy = "earliest"
	Latest   Strategy = "latest"
)

// ParseStrategy accepts the strategy names plus the lowest_id/highest_id aliases.
func ParseStrategy(s string) (Strategy, bool) {
	switch s {
	case "", "earliest", "lowest_id", "oldest":
		return Earliest, true
	case "latest", "highest_id", "newest":
		return Latest, true
	}
	return "", false
}

// Deduplicator merges records sharing (catalog, part number, page).
type Deduplicator struct {
	strategy Strategy
}

func New(strategy Strategy) *Deduplicator {
	if strategy != Latest {
		strategy = Earliest
	}
	return &Deduplicator{strategy: strategy}
}

// Stats describes one Dedup call.
type Stats struct {
	Input  int
	Output int
	Groups int // groups that had more than one record
}

// Dedup returns one record per key, in the order each key first appeared. Inputs are not modified.
func (d *Deduplicator) Dedup(parts []entity.ExtractedPart) ([]entity.ExtractedPart, Stats) {
	stats := Stats{Input: len(parts)}
	order := make([]entity.PartKey, 0, len(parts))
	groups := map[entity.PartKey][]int{}
	for i := range parts {
		k := parts[i].Key()
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}

	out := make([]entity.ExtractedPart, 0, len(order))
	for _, k := range order {
		idx := groups[k]
		if len(idx) > 1 {
			stats.Groups++
		}
		members := make([]*entity.ExtractedPart, 0, len(idx))
		for _, i := range idx {
			members = append(members, &parts[i])
		}
		sort.SliceStable(members, func(a, b int) bool { return members[a].Seq < members[b].Seq })
		if d.strategy == Latest {
			last := members[len(members)-1]
			copy(members[1:], members[:len(members)-1])
			members[0] = last
		}
		out = append(out, merge(members))
	}
	stats.Output = len(out)
	return out, stats
}

// merge folds members[1:] into a copy of members[0].
func merge(members []*entity.ExtractedPart) entity.ExtractedPart {
	s := clone(*members[0])
	for _, m := range members[1:] {
		s.Description = appendText(s.Description, m.Description, " ")
		s.Features = appendText(s.Features, m.Features, " ")
		s.Applications = appendText(s.Applications, m.Applications, ";")
		s.Models = unionStrings(s.Models, m.Models, true)
		s.OENumbers = unionStrings(s.OENumbers, m.OENumbers, false)
		s.Specifications = unionSpecs(s.Specifications, m.Specifications)
		if s.ImageRef == "" {
			s.ImageRef = m.ImageRef
		}
		if s.Section == "" {
			s.Section = m.Section
		}
		if s.Category == "" {
			s.Category = m.Category
		}
	}
	s.Description = Clean(s.Description, DescriptionLimit)
	s.Features = Clean(s.Features, TextLimit)
	s.Applications = Clean(s.Applications, TextLimit)
	s.Section = Clean(s.Section, TextLimit)
	return s
}

func clone(p entity.ExtractedPart) entity.ExtractedPart {
	p.Models = append([]string(nil), p.Models...)
	p.OENumbers = append([]string(nil), p.OENumbers...)
	p.Specifications = append([]entity.SpecPair(nil), p.Specifications...)
	return p
}

func unionStrings(a, b []string, sorted bool) []string {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, v := range a {
		seen[v] = struct{}{}
	}
	for _, v := range b {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			a = append(a, v)
		}
	}
	if sorted {
		sort.Strings(a)
	}
	return a
}

// unionSpecs keeps the survivor's value for keys both records carry.
func unionSpecs(a, b []entity.SpecPair) []entity.SpecPair {
	seen := make(map[string]struct{}, len(a))
	for _, p := range a {
		seen[p.Key] = struct{}{}
	}
	for _, p := range b {
		if _, ok := seen[p.Key]; !ok {
			seen[p.Key] = struct{}{}
			a = append(a, p)
		}
	}
	return a
}

// Survivor picks the id to keep from a stored duplicate group and returns the rest for removal.
func Survivor(ids []int64, strategy Strategy) (keep int64, remove []int64) {
	if len(ids) == 0 {
		return 0, nil
	}
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	if strategy == Latest {
		return sorted[len(sorted)-1], sorted[:len(sorted)-1]
	}
	return sorted[0], sorted[1:]
}
