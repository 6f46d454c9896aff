package services

// UnitOptions returns the list of unit label options. Descriptive only;
// units never participate in arithmetic.
var UnitOptions = []string{
	"sq",
	"lf",
	"ea",
	"roll",
	"bundle",
	"box",
	"sheet",
	"tube",
	"sqft",
	"hr",
	"day",
	"gal",
}

// CategoryOptions returns the fixed category enumeration in display order.
var CategoryOptions = []string{
	CategoryPins,
	CategoryMaterials,
	CategoryShingles,
	CategoryServices,
	CategoryVariables,
}

// MarkupOptions returns the common markup percentage presets.
var MarkupOptions = []int{0, 10, 15, 20, 25, 30, 35, 40, 50}
