package snapshot

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SeedData holds row sets for writing a snapshot file. Used by the demo
// seeder and by tests; the engine itself never writes.
type SeedData struct {
	Fields     []FieldRecord
	Equipment  []EquipmentRecord
	GrainBins  []GrainBinRecord
	GrainBags  []GrainBagRecord
	Movements  []BinMovementRecord
	Boundaries []BoundaryRequestRecord
	Towers     []TowerRecord
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS fields (
	id TEXT PRIMARY KEY,
	farm_id TEXT,
	farm_name TEXT,
	county TEXT,
	state TEXT,
	status TEXT,
	tillable REAL,
	hel_acres REAL,
	crp_acres REAL
);
CREATE TABLE IF NOT EXISTS equipment (
	id TEXT PRIMARY KEY,
	name TEXT,
	category TEXT,
	status TEXT,
	hours REAL
);
CREATE TABLE IF NOT EXISTS grain_bins (
	id TEXT PRIMARY KEY,
	site TEXT,
	crop TEXT,
	bushels REAL
);
CREATE TABLE IF NOT EXISTS grain_bags (
	id TEXT PRIMARY KEY,
	field_id TEXT,
	crop TEXT,
	bushels REAL
);
CREATE TABLE IF NOT EXISTS bin_movements (
	id TEXT PRIMARY KEY,
	bin_id TEXT,
	direction TEXT,
	bushels REAL,
	moved_at TEXT
);
CREATE TABLE IF NOT EXISTS boundary_requests (
	id TEXT PRIMARY KEY,
	field_id TEXT,
	status TEXT,
	requested_at TEXT
);
CREATE TABLE IF NOT EXISTS towers (
	id TEXT PRIMARY KEY,
	name TEXT,
	county TEXT,
	state TEXT
);
CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value TEXT
);
`

// Seed writes a snapshot database at path containing the given rows,
// replacing any existing file.
func Seed(path string, data SeedData) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	for _, f := range data.Fields {
		if _, err := tx.Exec(
			`INSERT INTO fields (id, farm_id, farm_name, county, state, status, tillable, hel_acres, crp_acres)
			 VALUES (?,?,?,?,?,?,?,?,?)`,
			f.ID, f.FarmID, f.FarmName, f.County, f.State, f.Status, f.Tillable, f.HELAcres, f.CRPAcres); err != nil {
			return fmt.Errorf("failed to insert field %s: %w", f.ID, err)
		}
	}
	for _, e := range data.Equipment {
		if _, err := tx.Exec(
			`INSERT INTO equipment (id, name, category, status, hours) VALUES (?,?,?,?,?)`,
			e.ID, e.Name, e.Category, e.Status, e.Hours); err != nil {
			return fmt.Errorf("failed to insert equipment %s: %w", e.ID, err)
		}
	}
	for _, g := range data.GrainBins {
		if _, err := tx.Exec(
			`INSERT INTO grain_bins (id, site, crop, bushels) VALUES (?,?,?,?)`,
			g.ID, g.Site, g.Crop, g.Bushels); err != nil {
			return fmt.Errorf("failed to insert grain bin %s: %w", g.ID, err)
		}
	}
	for _, g := range data.GrainBags {
		if _, err := tx.Exec(
			`INSERT INTO grain_bags (id, field_id, crop, bushels) VALUES (?,?,?,?)`,
			g.ID, g.FieldID, g.Crop, g.Bushels); err != nil {
			return fmt.Errorf("failed to insert grain bag %s: %w", g.ID, err)
		}
	}
	for _, m := range data.Movements {
		if _, err := tx.Exec(
			`INSERT INTO bin_movements (id, bin_id, direction, bushels, moved_at) VALUES (?,?,?,?,?)`,
			m.ID, m.BinID, m.Direction, m.Bushels, m.MovedAt); err != nil {
			return fmt.Errorf("failed to insert bin movement %s: %w", m.ID, err)
		}
	}
	for _, b := range data.Boundaries {
		if _, err := tx.Exec(
			`INSERT INTO boundary_requests (id, field_id, status, requested_at) VALUES (?,?,?,?)`,
			b.ID, b.FieldID, b.Status, b.RequestedAt); err != nil {
			return fmt.Errorf("failed to insert boundary request %s: %w", b.ID, err)
		}
	}
	for _, t := range data.Towers {
		if _, err := tx.Exec(
			`INSERT INTO towers (id, name, county, state) VALUES (?,?,?,?)`,
			t.ID, t.Name, t.County, t.State); err != nil {
			return fmt.Errorf("failed to insert tower %s: %w", t.ID, err)
		}
	}
	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO meta (key, value) VALUES ('built_at', ?)`,
		time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to stamp snapshot: %w", err)
	}

	return tx.Commit()
}

// DemoData returns a small but representative snapshot for trying the chat
// without a real sync pipeline.
func DemoData() SeedData {
	return SeedData{
		Fields: []FieldRecord{
			{ID: "0832-North", FarmID: "F-01", FarmName: "Killam Home", County: "Sangamon", State: "IL", Tillable: 152.3, HELAcres: 12.5, CRPAcres: 0},
			{ID: "0832-South", FarmID: "F-01", FarmName: "Killam Home", County: "Sangamon", State: "IL", Tillable: 98.7, HELAcres: 0, CRPAcres: 4.2},
			{ID: "1120-East", FarmID: "F-02", FarmName: "Riverbend", County: "Christian", State: "IL", Tillable: 210.0, HELAcres: 31.0, CRPAcres: 0},
			{ID: "1120-West", FarmID: "F-02", FarmName: "Riverbend", County: "Christian", State: "IL", Tillable: 187.4, HELAcres: 0, CRPAcres: 11.9},
			{ID: "2204-Home", FarmID: "F-03", FarmName: "Prairie View", County: "Macon", State: "IL", Tillable: 64.2, HELAcres: 2.1, CRPAcres: 0},
			{ID: "2204-Old", FarmID: "F-03", FarmName: "Prairie View", County: "Macon", State: "IL", Status: "archived", Tillable: 40.0, HELAcres: 0, CRPAcres: 0},
		},
		Equipment: []EquipmentRecord{
			{ID: "EQ-100", Name: "John Deere 8R", Category: "tractor", Status: "active", Hours: 2140},
			{ID: "EQ-101", Name: "Case IH 8250", Category: "combine", Status: "active", Hours: 980},
			{ID: "EQ-102", Name: "Hagie STS12", Category: "sprayer", Status: "maintenance", Hours: 1510},
		},
		GrainBins: []GrainBinRecord{
			{ID: "BIN-1", Site: "Home Site", Crop: "corn", Bushels: 42000},
			{ID: "BIN-2", Site: "Home Site", Crop: "soybeans", Bushels: 18000},
			{ID: "BIN-3", Site: "Riverbend Site", Crop: "corn", Bushels: 65000},
		},
		GrainBags: []GrainBagRecord{
			{ID: "BAG-1", FieldID: "1120-East", Crop: "corn", Bushels: 9500},
		},
		Movements: []BinMovementRecord{
			{ID: "MV-1", BinID: "BIN-1", Direction: "in", Bushels: 4200, MovedAt: "2026-08-20"},
			{ID: "MV-2", BinID: "BIN-3", Direction: "out", Bushels: 12000, MovedAt: "2026-08-22"},
		},
		Boundaries: []BoundaryRequestRecord{
			{ID: "BR-1", FieldID: "0832-North", Status: "pending", RequestedAt: "2026-08-15"},
			{ID: "BR-2", FieldID: "1120-West", Status: "completed", RequestedAt: "2026-07-30"},
		},
		Towers: []TowerRecord{
			{ID: "TW-1", Name: "Sangamon Tower", County: "Sangamon", State: "IL"},
		},
	}
}
