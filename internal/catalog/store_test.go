package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSongs() []Song {
	return []Song{
		{Title: "Song01", Language: "English", Band: "Band3", URL: "u1", Notes: "video"},
		{Title: "Song02", Language: "Spanish", Band: "Band2", URL: "u2"},
		{Title: "Canción del Mar", Language: "Spanish", Band: "Band1", URL: "u3"},
		{Title: "Song04", Language: "English", Band: "Band2", URL: "u4"},
		{Title: "Song05", Language: "French", Band: "Band3", URL: "u5"},
		{Title: "   ", Language: "French", Band: "Band4", URL: "u6"},
		{Title: "Song07", Language: "French", Band: " ", URL: "u7"},
		{Title: "Song08", Language: "", Band: "Band5", URL: "u8"},
	}
}

func urls(songs []Song) []string {
	out := make([]string, len(songs))
	for i, s := range songs {
		out[i] = s.URL
	}
	return out
}

func TestView_NoFilterExcludesBlankSongs(t *testing.T) {
	store := NewStore(sampleSongs())

	view := store.View(FilterState{})

	assert.Equal(t, []string{"u1", "u2", "u3", "u4", "u5", "u8"}, urls(view))
	assert.Equal(t, 8, store.Len(), "blank songs stay in the catalog")
}

func TestView_EveryRowSatisfiesFilter(t *testing.T) {
	store := NewStore(sampleSongs())
	filters := []FilterState{
		{},
		{Language: "English"},
		{Language: "Spanish", Band: "Band1"},
		{Band: "Band3"},
		{TitleQuery: "song"},
		{Language: "French", TitleQuery: "05"},
		{Language: "German"},
	}

	catalog := map[string]Song{}
	for _, s := range store.Songs() {
		catalog[s.URL] = s
	}

	for _, f := range filters {
		for _, song := range store.View(f) {
			assert.False(t, song.Blank(), "filter %+v returned blank song %+v", f, song)
			if f.Language != "" {
				assert.Equal(t, f.Language, song.Language)
			}
			if f.Band != "" {
				assert.Equal(t, f.Band, song.Band)
			}
			if f.TitleQuery != "" {
				assert.Contains(t, Normalize(song.Title), Normalize(f.TitleQuery))
			}
			assert.Equal(t, catalog[song.URL], song, "view must be a subset of the catalog")
		}
	}
}

func TestView_TitleSearchIgnoresDiacriticsAndCase(t *testing.T) {
	store := NewStore(sampleSongs())

	view := store.View(FilterState{TitleQuery: "CANCION"})
	require.Len(t, view, 1)
	assert.Equal(t, "u3", view[0].URL)

	view = store.View(FilterState{TitleQuery: "canción"})
	require.Len(t, view, 1)
	assert.Equal(t, "u3", view[0].URL)
}

func TestView_TitleMatchDoesNotRescueLanguageMismatch(t *testing.T) {
	store := NewStore(sampleSongs())

	view := store.View(FilterState{Language: "English", TitleQuery: "Canción"})

	assert.Empty(t, view)
}

func TestView_WhitespaceQueryMatchesAll(t *testing.T) {
	store := NewStore(sampleSongs())

	assert.Len(t, store.View(FilterState{TitleQuery: "   "}), 6)
}

func TestLanguageOptions_SortedDistinctNonBlank(t *testing.T) {
	store := NewStore(sampleSongs())

	assert.Equal(t, []string{"English", "French", "Spanish"}, store.LanguageOptions())
}

func TestBandOptions_RestrictedBySelectedLanguage(t *testing.T) {
	store := NewStore(sampleSongs())

	assert.Equal(t, []string{"Band1", "Band2", "Band3", "Band4", "Band5"}, store.BandOptions(FilterState{}))
	assert.Equal(t, []string{"Band2", "Band3"}, store.BandOptions(FilterState{Language: "English"}))
	assert.Equal(t, []string{"Band1", "Band2"}, store.BandOptions(FilterState{Language: "Spanish", Band: "Band2"}))
	assert.Empty(t, store.BandOptions(FilterState{Language: "German"}))
}

func TestStore_LoadCopiesInput(t *testing.T) {
	songs := sampleSongs()
	store := NewStore(songs)

	songs[0].Title = "changed"
	assert.Equal(t, "Song01", store.Songs()[0].Title)

	out := store.Songs()
	out[0].Title = "changed"
	assert.Equal(t, "Song01", store.Songs()[0].Title)
}

func TestFilterState_Active(t *testing.T) {
	assert.False(t, FilterState{}.Active())
	assert.False(t, FilterState{TitleQuery: "  "}.Active())
	assert.True(t, FilterState{Language: "English"}.Active())
	assert.True(t, FilterState{Band: "Band1"}.Active())
	assert.True(t, FilterState{TitleQuery: "x"}.Active())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "cancion", Normalize("Canción"))
	assert.Equal(t, "uber", Normalize("ÜBER"))
	assert.Equal(t, "", Normalize(""))
}
