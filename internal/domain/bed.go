package domain

// BedStatus is the occupancy state of a bed in the registry.
type BedStatus string

const (
	BedStatusOccupied  BedStatus = "occupied"
	BedStatusAvailable BedStatus = "available"
)

// BedRef identifies a bed assigned to a stay. Bed allocation is owned
// by the admission side; this core only reads the reference and, on
// discharge, flips the bed back to available.
type BedRef struct {
	RoomType string
	BedID    string
}
