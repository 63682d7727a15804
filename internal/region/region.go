// Package region defines the identity of a scanned map region and the
// records kept for regions that qualify as storage hotspots.
package region

import (
	"fmt"
	"strings"
)

// regionSize is the width of a region in world blocks.
const regionSize = 16

// ID identifies a region by its integer (x, z) coordinates.
// IDs are comparable and can be used directly as map keys.
type ID struct {
	X int `json:"x"`
	Z int `json:"z"`
}

// New returns the ID for region (x, z).
func New(x, z int) ID {
	return ID{X: x, Z: z}
}

// String renders the ID as "x, z".
func (id ID) String() string {
	return fmt.Sprintf("%d, %d", id.X, id.Z)
}

// Coords returns the canonical coordinate pair of the region.
func (id ID) Coords() (x, z int) {
	return id.X, id.Z
}

// BlockCenter returns the world block coordinates of the centre of the region.
func (id ID) BlockCenter() (x, z int) {
	return id.X*regionSize + regionSize/2, id.Z*regionSize + regionSize/2
}

// StructureType tags a kind of structure found in a region (e.g. "chest").
type StructureType string

// ParseStructureType normalizes a user or feed supplied tag: trimmed,
// lower-cased, with spaces and dashes folded to underscores.
func ParseStructureType(s string) StructureType {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	return StructureType(s)
}

// Common storage structure types.
const (
	Barrel            StructureType = "barrel"
	BlastFurnace      StructureType = "blast_furnace"
	BrewingStand      StructureType = "brewing_stand"
	Campfire          StructureType = "campfire"
	Chest             StructureType = "chest"
	ChiseledBookshelf StructureType = "chiseled_bookshelf"
	Crafter           StructureType = "crafter"
	DecoratedPot      StructureType = "decorated_pot"
	Dispenser         StructureType = "dispenser"
	Dropper           StructureType = "dropper"
	EnderChest        StructureType = "ender_chest"
	Furnace           StructureType = "furnace"
	Hopper            StructureType = "hopper"
	ShulkerBox        StructureType = "shulker_box"
	Smoker            StructureType = "smoker"
	TrappedChest      StructureType = "trapped_chest"
)

// StorageTypes is the full set of storage structure types, in display order.
var StorageTypes = []StructureType{
	Barrel, BlastFurnace, BrewingStand, Campfire, Chest, ChiseledBookshelf,
	Crafter, DecoratedPot, Dispenser, Dropper, EnderChest, Furnace, Hopper,
	ShulkerBox, Smoker, TrappedChest,
}

// Record is a qualifying region together with the number of matching
// structures counted when it was discovered. Two records describe the same
// stash when their positions are equal; StorageCount is not part of identity.
type Record struct {
	Pos          ID  `json:"pos"`
	StorageCount int `json:"storageCount"`
}
