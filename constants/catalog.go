package constants

// CatalogFamily tags the vendor/product family a catalog document belongs to.
type CatalogFamily string

const (
	FamilyDayton        CatalogFamily = "dayton"
	FamilyCaterpillar   CatalogFamily = "caterpillar"
	FamilyFortPro       CatalogFamily = "fort_pro"
	FamilyDanaSpicer    CatalogFamily = "dana_spicer"
	FamilyCummins       CatalogFamily = "cummins"
	FamilyDetroit       CatalogFamily = "detroit"
	FamilyInternational CatalogFamily = "international"
	FamilyExhaust       CatalogFamily = "exhaust"
	FamilyLighting      CatalogFamily = "lighting"
	FamilySprings       CatalogFamily = "springs"
	FamilyBrakes        CatalogFamily = "brakes"
	FamilyGeneral       CatalogFamily = "general"
)

// EntityType is the tag a PatternBank rule assigns to its matches.
type EntityType string

const (
	EntityPart    EntityType = "part"
	EntityKit     EntityType = "kit"
	EntityCaliper EntityType = "caliper"
	EntityModel   EntityType = "model"
)

// DocumentKind separates the catalog pipeline from the guide pipeline.
type DocumentKind string

const (
	KindCatalog DocumentKind = "catalog"
	KindGuide   DocumentKind = "guide"
)
