package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/vyra/internal/catalog"
	"github.com/llehouerou/vyra/internal/state"
)

func sampleTracks() []catalog.Track {
	return []catalog.Track{
		{
			ID:       "a",
			Title:    "Alpha",
			Artists:  []catalog.Artist{{Name: "One"}},
			Album:    &catalog.Album{ID: "al", Name: "Album"},
			Duration: 200 * time.Second,
		},
		{ID: "b", Title: "Beta", Thumbnail: "https://img/b.jpg", Explicit: true},
	}
}

func TestPersister_LoadEmpty(t *testing.T) {
	p := NewPersister(state.NewMock())

	snap, err := p.Load()

	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestPersister_RoundTrip(t *testing.T) {
	store := state.NewMock()
	p := NewPersister(store)
	tracks := sampleTracks()
	current := tracks[1]
	savedAt := time.Unix(1700000000, 0)

	err := p.Save(Snapshot{
		Tracks:         tracks,
		Index:          1,
		CurrentTrack:   &current,
		Volume:         0.4,
		Shuffle:        true,
		Repeat:         "all",
		ResumePosition: 42 * time.Second,
		Duration:       3 * time.Minute,
		SavedAt:        savedAt,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, store.Writes(), "save should be a single batch")

	snap, err := p.Load()
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.Equal(t, tracks, snap.Tracks)
	assert.Equal(t, 1, snap.Index)
	require.NotNil(t, snap.CurrentTrack)
	assert.Equal(t, "b", snap.CurrentTrack.ID)
	assert.InDelta(t, 0.4, snap.Volume, 1e-9)
	assert.True(t, snap.Shuffle)
	assert.Equal(t, "all", snap.Repeat)
	assert.Equal(t, 42*time.Second, snap.ResumePosition)
	assert.Equal(t, 3*time.Minute, snap.Duration)
	assert.True(t, snap.SavedAt.Equal(savedAt))
}

func TestPersister_EmptyQueue(t *testing.T) {
	p := NewPersister(state.NewMock())

	require.NoError(t, p.Save(Snapshot{Index: -1, Volume: 1, Repeat: "off"}))

	snap, err := p.Load()
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Empty(t, snap.Tracks)
	assert.Equal(t, -1, snap.Index)
	assert.Nil(t, snap.CurrentTrack)
}

func TestPersister_SaveError(t *testing.T) {
	store := state.NewMock()
	store.SetWriteError(errors.New("disk full"))
	p := NewPersister(store)

	err := p.Save(Snapshot{Tracks: sampleTracks()})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestPersister_CorruptValue(t *testing.T) {
	store := state.NewMock()
	_ = store.Set(KeyQueue, []byte("[]"))
	_ = store.Set(KeyIndex, []byte("not json"))

	_, err := NewPersister(store).Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), KeyIndex)
}

func TestPersister_WithSQLiteStore(t *testing.T) {
	m, err := state.OpenPath(":memory:")
	require.NoError(t, err)
	defer m.Close()

	p := NewPersister(m)
	require.NoError(t, p.Save(Snapshot{Tracks: sampleTracks(), Index: 0, Volume: 0.7, Repeat: "one"}))

	snap, err := p.Load()
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Len(t, snap.Tracks, 2)
	assert.Equal(t, "one", snap.Repeat)
}
