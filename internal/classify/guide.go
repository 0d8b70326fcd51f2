package classify

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/parts-catalog/constants"
)

// guideCategories maps filename keywords to a guide category, first hit wins.
var guideCategories = []KeywordGroup{
	{Category: constants.Engine, Keywords: []string{"engine", "motor", "diesel"}},
	{Category: constants.BrakeSystem, Keywords: []string{"brake", "hydraulic"}},
	{Category: constants.Equipment, Keywords: []string{"crane", "lift", "hoist"}},
	{Category: constants.Electrical, Keywords: []string{"electrical", "wiring"}},
	{Category: constants.Specifications, Keywords: []string{"spec", "specification"}},
}

// GuideCategory classifies a technical guide by its filename.
func GuideCategory(path string) constants.Category {
	name := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	for _, g := range guideCategories {
		for _, kw := range g.Keywords {
			if strings.Contains(name, kw) {
				return g.Category
			}
		}
	}
	return constants.TechnicalDocs
}
