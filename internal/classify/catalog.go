package classify

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/parts-catalog/constants"
)

type familyIndicators struct {
	family     constants.CatalogFamily
	indicators []string
}

// catalogIndicators is checked in order; the first family with a hit wins.
var catalogIndicators = []familyIndicators{
	{constants.FamilyDayton, []string{"dayton", "hydraulic brake"}},
	{constants.FamilyCaterpillar, []string{"caterpillar", "cat ", "fp-"}},
	{constants.FamilyFortPro, []string{"fort pro", "fortpro", "heavy duty"}},
	{constants.FamilyDanaSpicer, []string{"dana", "spicer", "axle"}},
	{constants.FamilyCummins, []string{"cummins", "engine"}},
	{constants.FamilyDetroit, []string{"detroit diesel", "detroit"}},
	{constants.FamilyInternational, []string{"international", "navistar"}},
	{constants.FamilyExhaust, []string{"exhaust", "nelson"}},
	{constants.FamilyLighting, []string{"lighting"}},
	{constants.FamilySprings, []string{"spring", "suspension"}},
	{constants.FamilyBrakes, []string{"brake", "caliper", "rotor"}},
}

// DetectCatalogType classifies a document by its filename, then by its first page text.
func DetectCatalogType(path, firstPage string) constants.CatalogFamily {
	base := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	spaced := strings.NewReplacer("_", " ", "-", " ").Replace(base)
	if f, ok := matchFamily(base, spaced); ok {
		return f
	}
	if f, ok := matchFamily(strings.ToLower(firstPage)); ok {
		return f
	}
	return constants.FamilyGeneral
}

func matchFamily(texts ...string) (constants.CatalogFamily, bool) {
	for _, fi := range catalogIndicators {
		for _, ind := range fi.indicators {
			for _, t := range texts {
				if strings.Contains(t, ind) {
					return fi.family, true
				}
			}
		}
	}
	return "", false
}
