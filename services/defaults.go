package services

// Default working catalog seeded into every quote. The literal data here
// is fixture content: any equivalent set with the same shape works, and
// the engine only ever receives it through constructor injection so tests
// can swap it wholesale.

func materialItem(name, unit string, unitCost, markupPct float64, picture string) ItemRecord {
	return ItemRecord{
		Name:                name,
		Unit:                unit,
		Quantity:            1,
		UnitCost:            unitCost,
		MarkupPct:           markupPct,
		Picture:             picture,
		SourceType:          SourceDefault,
		ShowInApp:           true,
		ShowOnEstimate:      true,
		ShowOnContract:      true,
		ShowOnMaterialOrder: true,
	}
}

func serviceItem(name, unit string, unitCost, markupPct float64) ItemRecord {
	return ItemRecord{
		Name:              name,
		Unit:              unit,
		Quantity:          1,
		UnitCost:          unitCost,
		MarkupPct:         markupPct,
		SourceType:        SourceDefault,
		ShowInApp:         true,
		ShowOnEstimate:    true,
		ShowOnContract:    true,
		ShowOnLaborReport: true,
	}
}

// DefaultCatalog returns the canonical default item set per category.
// Supplied to the engine at construction; never referenced as a global by
// the engine itself.
func DefaultCatalog() []CategoryDefaults {
	return []CategoryDefaults{
		{
			Category:     CategoryPins,
			Slug:         "pins",
			MinimumCount: 6,
			Items: []ItemRecord{
				materialItem("Pipe Boot 1-3\"", "ea", 14.50, 40, "img/pipe-boot.png"),
				materialItem("Box Vent", "ea", 22.00, 40, "img/box-vent.png"),
				materialItem("Ridge Vent", "lf", 3.25, 40, "img/ridge-vent.png"),
				materialItem("Chimney Flashing Kit", "ea", 68.00, 35, "img/chimney-flashing.png"),
				materialItem("Skylight Flashing Kit", "ea", 85.00, 35, "img/skylight-flashing.png"),
				materialItem("Attic Fan", "ea", 145.00, 30, "img/attic-fan.png"),
			},
		},
		{
			Category:     CategoryMaterials,
			Slug:         "materials",
			MinimumCount: 10,
			Items: []ItemRecord{
				materialItem("Synthetic Underlayment", "roll", 55.00, 35, "img/synthetic-underlayment.png"),
				materialItem("Ice & Water Shield", "roll", 92.00, 35, "img/ice-water-shield.png"),
				materialItem("Drip Edge", "lf", 1.10, 40, "img/drip-edge.png"),
				materialItem("Starter Strip", "lf", 0.85, 40, "img/starter-strip.png"),
				materialItem("Step Flashing", "ea", 0.75, 45, "img/step-flashing.png"),
				materialItem("Valley Metal", "lf", 2.40, 40, "img/valley-metal.png"),
				materialItem("Roofing Nails 1-1/4\"", "box", 42.00, 25, "img/roofing-nails.png"),
				materialItem("Plastic Cap Nails", "box", 28.00, 25, "img/cap-nails.png"),
				materialItem("Roof Sealant", "tube", 6.50, 50, "img/roof-sealant.png"),
				materialItem("Decking OSB 7/16\"", "sheet", 24.00, 30, "img/osb-decking.png"),
			},
		},
		{
			Category:     CategoryShingles,
			Slug:         "shingles",
			MinimumCount: 5,
			Items: []ItemRecord{
				materialItem("Architectural Shingles", "sq", 112.00, 30, "img/architectural-shingles.png"),
				materialItem("3-Tab Shingles", "sq", 92.00, 30, "img/3-tab-shingles.png"),
				materialItem("Designer Shingles", "sq", 185.00, 28, "img/designer-shingles.png"),
				materialItem("Hip & Ridge Cap Shingles", "bundle", 58.00, 35, "img/hip-ridge-cap.png"),
				materialItem("Starter Shingles", "bundle", 38.00, 35, "img/starter-shingles.png"),
			},
		},
		{
			Category:     CategoryServices,
			Slug:         "services",
			MinimumCount: 6,
			Items: []ItemRecord{
				serviceItem("Tear-Off & Disposal", "sq", 55.00, 20),
				serviceItem("Labor - Shingle Install", "sq", 72.00, 20),
				serviceItem("Steep Pitch Charge", "sq", 25.00, 15),
				serviceItem("Dumpster Rental", "ea", 385.00, 10),
				serviceItem("Building Permit", "ea", 250.00, 0),
				serviceItem("Cleanup & Magnetic Sweep", "ea", 150.00, 10),
			},
		},
	}
}
