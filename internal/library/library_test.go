package library

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/vyra/internal/catalog"
	"github.com/llehouerou/vyra/internal/state"
	"github.com/llehouerou/vyra/internal/stream"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func tr(id string) catalog.Track {
	return catalog.Track{ID: id, Title: "Song " + id}
}

func ids(tracks []catalog.Track) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.ID
	}
	return out
}

func newTestLibrary(t *testing.T, store *state.Mock) *Library {
	t.Helper()
	lib, err := New(store, nil, testLogger())
	require.NoError(t, err)
	return lib
}

func TestToggleLike(t *testing.T) {
	store := state.NewMock()
	lib := newTestLibrary(t, store)

	liked, err := lib.ToggleLike(tr("a"))
	require.NoError(t, err)
	assert.True(t, liked)
	_, _ = lib.ToggleLike(tr("b"))

	assert.Equal(t, []string{"b", "a"}, ids(lib.Liked()), "newest first")
	assert.True(t, lib.IsLiked("a"))

	liked, err = lib.ToggleLike(tr("a"))
	require.NoError(t, err)
	assert.False(t, liked)
	assert.False(t, lib.IsLiked("a"))

	persisted, _ := store.LoadTrackList(state.ListLiked)
	assert.Equal(t, []string{"b"}, ids(persisted))
}

func TestSetLiked_Idempotent(t *testing.T) {
	store := state.NewMock()
	lib := newTestLibrary(t, store)

	require.NoError(t, lib.SetLiked(tr("a"), true))
	writes := store.Writes()
	require.NoError(t, lib.SetLiked(tr("a"), true))

	assert.Equal(t, writes, store.Writes())
	assert.Len(t, lib.Liked(), 1)

	require.NoError(t, lib.SetLiked(tr("a"), false))
	require.NoError(t, lib.SetLiked(tr("a"), false))
	assert.Empty(t, lib.Liked())
}

func TestToggleLike_SaveErrorRollsBack(t *testing.T) {
	store := state.NewMock()
	lib := newTestLibrary(t, store)
	store.SetWriteError(errors.New("disk full"))

	liked, err := lib.ToggleLike(tr("a"))

	require.Error(t, err)
	assert.False(t, liked)
	assert.False(t, lib.IsLiked("a"))
}

func TestRecordPlayed(t *testing.T) {
	lib := newTestLibrary(t, state.NewMock())

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, lib.RecordPlayed(tr(id)))
	}
	require.NoError(t, lib.RecordPlayed(tr("a")))

	assert.Equal(t, []string{"a", "c", "b"}, ids(lib.Recent()))
}

func TestRecordPlayed_Cap(t *testing.T) {
	lib := newTestLibrary(t, state.NewMock())

	for i := range RecentLimit + 5 {
		require.NoError(t, lib.RecordPlayed(tr(fmt.Sprintf("t%d", i))))
	}

	recent := lib.Recent()
	require.Len(t, recent, RecentLimit)
	assert.Equal(t, fmt.Sprintf("t%d", RecentLimit+4), recent[0].ID)
	assert.Equal(t, "t5", recent[RecentLimit-1].ID)
}

func TestNew_LoadsPersistedLists(t *testing.T) {
	store := state.NewMock()
	_ = store.SaveTrackList(state.ListLiked, []catalog.Track{tr("x")})
	_ = store.SaveTrackList(state.ListRecent, []catalog.Track{tr("y"), tr("z")})

	lib := newTestLibrary(t, store)

	assert.True(t, lib.IsLiked("x"))
	assert.Equal(t, []string{"y", "z"}, ids(lib.Recent()))
}

func TestPlaybackStarted_RecordsPlayed(t *testing.T) {
	lib := newTestLibrary(t, state.NewMock())

	lib.PlaybackStarted(tr("a"), stream.Locator{TrackID: "a"})
	lib.PlaybackEnded(tr("a"), 0)

	assert.Equal(t, []string{"a"}, ids(lib.Recent()))
}
