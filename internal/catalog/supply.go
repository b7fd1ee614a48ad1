package catalog

// EditionCount is the number of editions in the collection.
const EditionCount = 13

// CapstoneEditionID is the closing edition, which is never offered for claim.
const CapstoneEditionID = 13

// SupplyLimits holds the per-edition supply cap, indexed by id-1.
var SupplyLimits = [EditionCount]uint64{420, 480, 510, 540, 555, 555, 555, 555, 555, 540, 555, 555, 594}

// TotalSupplyFor returns the supply cap of edition id, or 0 for unknown ids.
func TotalSupplyFor(id int) uint64 {
	if id < 1 || id > EditionCount {
		return 0
	}
	return SupplyLimits[id-1]
}

// ValidID reports whether id names an edition.
func ValidID(id int) bool {
	return id >= 1 && id <= EditionCount
}
