package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestWatcherRefreshesOnReplace(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"))

	h, path := seedAndOpen(t, SeedData{Fields: []FieldRecord{{ID: "A-1", County: "Sangamon", State: "IL"}}})

	w, err := NewWatcher(h, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, Seed(path, SeedData{Fields: []FieldRecord{
		{ID: "A-1", County: "Sangamon", State: "IL"},
		{ID: "A-2", County: "Macon", State: "IL"},
	}}))

	require.Eventually(t, func() bool {
		return len(h.Fields()) == 2
	}, 5*time.Second, 50*time.Millisecond)
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"))

	h, _ := seedAndOpen(t, SeedData{})

	w, err := NewWatcher(h, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, w.Start())
	require.NoError(t, w.Start())

	w.Stop()
	w.Stop()
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"))

	h, path := seedAndOpen(t, SeedData{Fields: []FieldRecord{{ID: "A-1", County: "Sangamon", State: "IL"}}})

	w, err := NewWatcher(h, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	// A sibling file in the watched directory must not trigger a refresh.
	require.NoError(t, Seed(path+".tmp", SeedData{Fields: []FieldRecord{
		{ID: "X-1"}, {ID: "X-2"}, {ID: "X-3"},
	}}))

	time.Sleep(700 * time.Millisecond)
	assert.Len(t, h.Fields(), 1)
}
