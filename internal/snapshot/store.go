package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Handle is an open snapshot database plus in-memory caches of its row sets.
// All reads go through the caches; Refresh reloads every table in one pass.
//
// Concurrent readers are safe. Refresh may run concurrently with readers;
// readers see either the old row sets or the new ones, never a mix within a
// single table.
type Handle struct {
	db     *sql.DB
	path   string
	logger *zap.Logger

	mu         sync.RWMutex
	fields     []FieldRecord
	equipment  []EquipmentRecord
	grainBins  []GrainBinRecord
	grainBags  []GrainBagRecord
	movements  []BinMovementRecord
	boundaries []BoundaryRequestRecord
	towers     []TowerRecord
	buildStamp string
}

// Open opens the snapshot database at path and loads all tables into memory.
func Open(path string, logger *zap.Logger) (*Handle, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("snapshot not found at %s: %w", path, err)
	}

	h := &Handle{path: path, logger: logger}
	if err := h.Refresh(context.Background()); err != nil {
		return nil, err
	}
	return h, nil
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	// Read-only handle; a few connections so Refresh can load tables in parallel.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy_timeout: %w", err)
	}
	return db, nil
}

// Path returns the snapshot file path.
func (h *Handle) Path() string { return h.path }

// Close releases the underlying database connection.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.db == nil {
		return nil
	}
	err := h.db.Close()
	h.db = nil
	return err
}

// BuildStamp returns the snapshot's build timestamp from the meta table,
// or "" when the snapshot carries none.
func (h *Handle) BuildStamp() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.buildStamp
}

// Refresh reloads every table from disk. The sync pipeline replaces the
// snapshot file atomically, so a fresh connection pool is opened for each
// refresh; the old pool can hold connections to the replaced inode.
// Independent tables load in parallel and the caches swap only after every
// loader succeeded.
func (h *Handle) Refresh(ctx context.Context) error {
	var (
		fields     []FieldRecord
		equipment  []EquipmentRecord
		grainBins  []GrainBinRecord
		grainBags  []GrainBagRecord
		movements  []BinMovementRecord
		boundaries []BoundaryRequestRecord
		towers     []TowerRecord
		stamp      string
	)

	db, err := openDB(h.path)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { fields, err = loadFields(gctx, db); return })
	g.Go(func() (err error) { equipment, err = loadEquipment(gctx, db); return })
	g.Go(func() (err error) { grainBins, err = loadGrainBins(gctx, db); return })
	g.Go(func() (err error) { grainBags, err = loadGrainBags(gctx, db); return })
	g.Go(func() (err error) { movements, err = loadMovements(gctx, db); return })
	g.Go(func() (err error) { boundaries, err = loadBoundaries(gctx, db); return })
	g.Go(func() (err error) { towers, err = loadTowers(gctx, db); return })
	g.Go(func() (err error) { stamp, err = loadBuildStamp(gctx, db); return })
	if err := g.Wait(); err != nil {
		_ = db.Close()
		return fmt.Errorf("snapshot refresh failed: %w", err)
	}

	h.mu.Lock()
	old := h.db
	h.db = db
	h.fields = fields
	h.equipment = equipment
	h.grainBins = grainBins
	h.grainBags = grainBags
	h.movements = movements
	h.boundaries = boundaries
	h.towers = towers
	h.buildStamp = stamp
	h.mu.Unlock()

	if old != nil && old != db {
		_ = old.Close()
	}

	h.logger.Info("snapshot refreshed",
		zap.String("path", h.path),
		zap.Int("fields", len(fields)),
		zap.Int("equipment", len(equipment)),
		zap.String("build", stamp))
	return nil
}

// Fields returns the cached field rows. The returned slice must be treated
// as read-only.
func (h *Handle) Fields() []FieldRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.fields
}

// Equipment returns the cached equipment rows.
func (h *Handle) Equipment() []EquipmentRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.equipment
}

// GrainBins returns the cached grain bin rows.
func (h *Handle) GrainBins() []GrainBinRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.grainBins
}

// GrainBags returns the cached grain bag rows.
func (h *Handle) GrainBags() []GrainBagRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.grainBags
}

// BinMovements returns the cached bin movement rows.
func (h *Handle) BinMovements() []BinMovementRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.movements
}

// BoundaryRequests returns the cached boundary request rows.
func (h *Handle) BoundaryRequests() []BoundaryRequestRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.boundaries
}

// Towers returns the cached tower rows.
func (h *Handle) Towers() []TowerRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.towers
}

// DB exposes the underlying read-only connection for collaborators that run
// their own SELECTs (the planner fallback). Callers must not write, and must
// not hold the returned handle across a Refresh.
func (h *Handle) DB() *sql.DB {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.db
}

func loadFields(ctx context.Context, db *sql.DB) ([]FieldRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, COALESCE(farm_id,''), COALESCE(farm_name,''), COALESCE(county,''),
		       COALESCE(state,''), COALESCE(status,''), COALESCE(tillable,0),
		       COALESCE(hel_acres,0), COALESCE(crp_acres,0)
		FROM fields`)
	if err != nil {
		return nil, fmt.Errorf("query fields: %w", err)
	}
	defer rows.Close()

	var out []FieldRecord
	for rows.Next() {
		var f FieldRecord
		if err := rows.Scan(&f.ID, &f.FarmID, &f.FarmName, &f.County, &f.State,
			&f.Status, &f.Tillable, &f.HELAcres, &f.CRPAcres); err != nil {
			return nil, fmt.Errorf("scan field: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func loadEquipment(ctx context.Context, db *sql.DB) ([]EquipmentRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, COALESCE(name,''), COALESCE(category,''), COALESCE(status,''), COALESCE(hours,0)
		FROM equipment`)
	if err != nil {
		return nil, fmt.Errorf("query equipment: %w", err)
	}
	defer rows.Close()

	var out []EquipmentRecord
	for rows.Next() {
		var e EquipmentRecord
		if err := rows.Scan(&e.ID, &e.Name, &e.Category, &e.Status, &e.Hours); err != nil {
			return nil, fmt.Errorf("scan equipment: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func loadGrainBins(ctx context.Context, db *sql.DB) ([]GrainBinRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, COALESCE(site,''), COALESCE(crop,''), COALESCE(bushels,0)
		FROM grain_bins`)
	if err != nil {
		return nil, fmt.Errorf("query grain_bins: %w", err)
	}
	defer rows.Close()

	var out []GrainBinRecord
	for rows.Next() {
		var g GrainBinRecord
		if err := rows.Scan(&g.ID, &g.Site, &g.Crop, &g.Bushels); err != nil {
			return nil, fmt.Errorf("scan grain_bin: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func loadGrainBags(ctx context.Context, db *sql.DB) ([]GrainBagRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, COALESCE(field_id,''), COALESCE(crop,''), COALESCE(bushels,0)
		FROM grain_bags`)
	if err != nil {
		return nil, fmt.Errorf("query grain_bags: %w", err)
	}
	defer rows.Close()

	var out []GrainBagRecord
	for rows.Next() {
		var g GrainBagRecord
		if err := rows.Scan(&g.ID, &g.FieldID, &g.Crop, &g.Bushels); err != nil {
			return nil, fmt.Errorf("scan grain_bag: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func loadMovements(ctx context.Context, db *sql.DB) ([]BinMovementRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, COALESCE(bin_id,''), COALESCE(direction,''), COALESCE(bushels,0), COALESCE(moved_at,'')
		FROM bin_movements ORDER BY moved_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query bin_movements: %w", err)
	}
	defer rows.Close()

	var out []BinMovementRecord
	for rows.Next() {
		var m BinMovementRecord
		if err := rows.Scan(&m.ID, &m.BinID, &m.Direction, &m.Bushels, &m.MovedAt); err != nil {
			return nil, fmt.Errorf("scan bin_movement: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func loadBoundaries(ctx context.Context, db *sql.DB) ([]BoundaryRequestRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, COALESCE(field_id,''), COALESCE(status,''), COALESCE(requested_at,'')
		FROM boundary_requests ORDER BY requested_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query boundary_requests: %w", err)
	}
	defer rows.Close()

	var out []BoundaryRequestRecord
	for rows.Next() {
		var b BoundaryRequestRecord
		if err := rows.Scan(&b.ID, &b.FieldID, &b.Status, &b.RequestedAt); err != nil {
			return nil, fmt.Errorf("scan boundary_request: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func loadTowers(ctx context.Context, db *sql.DB) ([]TowerRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, COALESCE(name,''), COALESCE(county,''), COALESCE(state,'')
		FROM towers`)
	if err != nil {
		return nil, fmt.Errorf("query towers: %w", err)
	}
	defer rows.Close()

	var out []TowerRecord
	for rows.Next() {
		var t TowerRecord
		if err := rows.Scan(&t.ID, &t.Name, &t.County, &t.State); err != nil {
			return nil, fmt.Errorf("scan tower: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func loadBuildStamp(ctx context.Context, db *sql.DB) (string, error) {
	// Older snapshots predate the meta table; absence is not an error.
	var count int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='meta'`).Scan(&count); err != nil {
		return "", fmt.Errorf("query sqlite_master: %w", err)
	}
	if count == 0 {
		return "", nil
	}

	var stamp string
	err := db.QueryRowContext(ctx,
		`SELECT value FROM meta WHERE key = 'built_at'`).Scan(&stamp)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query meta: %w", err)
	}
	return stamp, nil
}
