// Package snapshot provides read-only access to the relational farm data
// snapshot. The snapshot is produced out-of-band by the sync pipeline; this
// package owns opening it, caching row sets in memory, and refreshing them
// when the caller (or the file watcher) asks for it.
//
// The handle is an explicit value with a caller-controlled lifecycle:
// open once, read many, refresh explicitly. There is no package-level
// singleton and no lazy global initialization.
package snapshot

import "strings"

// FieldRecord is one row of the fields table. The engine treats it as
// immutable for the duration of a query.
type FieldRecord struct {
	ID       string
	FarmID   string
	FarmName string
	County   string
	State    string
	Status   string
	Tillable float64
	HELAcres float64
	CRPAcres float64
}

// CountyKey returns the canonical grouping key for a field's county.
// Every component that groups by county must use this key, otherwise the
// same county can land in two buckets ("Sangamon" vs "Sangamon, IL").
func (f FieldRecord) CountyKey() string {
	county := strings.TrimSpace(f.County)
	state := strings.TrimSpace(f.State)
	if county == "" {
		return ""
	}
	if state == "" {
		return county
	}
	return county + ", " + state
}

// IsActive reports whether the field counts as active. The distinction is
// derived, not stored: an absent or empty status is active, and only the
// statuses "archived" and "inactive" (case-insensitive) are excluded.
func (f FieldRecord) IsActive() bool {
	switch strings.ToLower(strings.TrimSpace(f.Status)) {
	case "archived", "inactive":
		return false
	}
	return true
}

// EquipmentRecord is one row of the equipment table.
type EquipmentRecord struct {
	ID       string
	Name     string
	Category string
	Status   string
	Hours    float64
}

// GrainBinRecord is one row of the grain_bins table.
type GrainBinRecord struct {
	ID      string
	Site    string
	Crop    string
	Bushels float64
}

// GrainBagRecord is one row of the grain_bags table.
type GrainBagRecord struct {
	ID      string
	FieldID string
	Crop    string
	Bushels float64
}

// BinMovementRecord is one row of the bin_movements table.
type BinMovementRecord struct {
	ID        string
	BinID     string
	Direction string // "in" or "out"
	Bushels   float64
	MovedAt   string
}

// BoundaryRequestRecord is one row of the boundary_requests table.
type BoundaryRequestRecord struct {
	ID          string
	FieldID     string
	Status      string // "pending", "completed"
	RequestedAt string
}

// TowerRecord is one row of the towers table.
type TowerRecord struct {
	ID     string
	Name   string
	County string
	State  string
}
