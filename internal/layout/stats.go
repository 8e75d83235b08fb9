package layout

import "time"

// LibraryStats counts what happened to the records of one library.
type LibraryStats struct {
	Total  int
	Packed int
	Culled int
	Failed int
}

// Stats summarises a layout pass.
type Stats struct {
	Curves, Surfaces, TrimSets LibraryStats
	Bodies                     LibraryStats
	// SurfacesByCategory counts laid-out surfaces per evaluation category.
	SurfacesByCategory [3]int
	DetailClamped      int
	// DetailNonFinite counts NaN or infinite detail inputs that were
	// replaced before estimation.
	DetailNonFinite int
	Elapsed            time.Duration
}
