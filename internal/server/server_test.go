package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/five82/songdeck/internal/catalog"
	"github.com/five82/songdeck/internal/history"
	"github.com/five82/songdeck/internal/picker"
	"github.com/five82/songdeck/internal/state"
)

var testSongs = []catalog.Song{
	{Title: "Song01", Band: "Band1", Language: "English", URL: "https://example.com/1"},
	{Title: "Song02", Band: "Band2", Language: "Spanish", URL: "https://example.com/2"},
	{Title: "Canción", Band: "Band2", Language: "Spanish", URL: "https://example.com/3"},
	{Title: "Song04", Band: "Band3", Language: "English", URL: "https://example.com/4"},
	{Title: "", Band: "Band4", Language: "English", URL: "https://example.com/blank"},
}

func newTestRouter(t *testing.T, songs []catalog.Song, loadErr error) (http.Handler, *history.MemoryStorage, *observer.ObservedLogs) {
	t.Helper()
	var st state.Store
	if songs != nil || loadErr != nil {
		st.Update(songs, loadErr)
	}
	storage := history.NewMemoryStorage()
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)
	router := NewRouter(Options{
		State:  &st,
		Picker: picker.New(picker.Options{Storage: storage, Rand: func(int) int { return 0 }, Logger: logger}),
		Sorter: catalog.NewSorter(catalog.DefaultLanguage),
		Logger: logger,
	})
	return router, storage, logs
}

func serve(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func titles(songs []catalog.Song) []string {
	out := make([]string, len(songs))
	for i, s := range songs {
		out[i] = s.Title
	}
	return out
}

func TestHealthz(t *testing.T) {
	h, _, logs := newTestRouter(t, testSongs, nil)
	rec := serve(t, h, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["loaded"])

	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "/healthz", entries[0].ContextMap()["route"])
	assert.Equal(t, int64(http.StatusOK), entries[0].ContextMap()["status"])
}

func TestListSongs_FiltersAndSorts(t *testing.T) {
	h, _, _ := newTestRouter(t, testSongs, nil)

	rec := serve(t, h, http.MethodGet, "/api/songs")
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode[songListResponse](t, rec)
	assert.Equal(t, 4, all.Count)
	assert.Equal(t, []string{"Song01", "Canción", "Song02", "Song04"}, titles(all.Songs))
	assert.Equal(t, catalog.SortByBand, all.Sort.Key)

	rec = serve(t, h, http.MethodGet, "/api/songs?language=Spanish&sort=title&dir=desc")
	require.Equal(t, http.StatusOK, rec.Code)
	spanish := decode[songListResponse](t, rec)
	assert.Equal(t, []string{"Song02", "Canción"}, titles(spanish.Songs))
	assert.Equal(t, catalog.Descending, spanish.Sort.Direction)

	rec = serve(t, h, http.MethodGet, "/api/songs?q=CANCION")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Canción"}, titles(decode[songListResponse](t, rec).Songs))

	rec = serve(t, h, http.MethodGet, "/api/songs?band=Nobody")
	require.Equal(t, http.StatusOK, rec.Code)
	empty := decode[songListResponse](t, rec)
	assert.Equal(t, 0, empty.Count)
	assert.NotNil(t, empty.Songs)
}

func TestListSongs_RejectsBadSort(t *testing.T) {
	h, _, _ := newTestRouter(t, testSongs, nil)
	for _, target := range []string{"/api/songs?sort=year", "/api/songs?dir=up"} {
		rec := serve(t, h, http.MethodGet, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Equal(t, "invalid_sort", decode[map[string]any](t, rec)["error"])
	}
}

func TestOptions(t *testing.T) {
	h, _, _ := newTestRouter(t, testSongs, nil)

	rec := serve(t, h, http.MethodGet, "/api/options")
	require.Equal(t, http.StatusOK, rec.Code)
	opts := decode[optionsResponse](t, rec)
	assert.Equal(t, []string{"English", "Spanish"}, opts.Languages)
	assert.Equal(t, []string{"Band1", "Band2", "Band3", "Band4"}, opts.Bands)

	rec = serve(t, h, http.MethodGet, "/api/options?language=Spanish")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Band2"}, decode[optionsResponse](t, rec).Bands)
}

func TestRandom_PicksAndRecords(t *testing.T) {
	h, storage, _ := newTestRouter(t, testSongs, nil)

	rec := serve(t, h, http.MethodPost, "/api/random?language=English")
	require.Equal(t, http.StatusOK, rec.Code)
	first := decode[randomResponse](t, rec)
	assert.Equal(t, "Song01", first.Song.Title)

	rec = serve(t, h, http.MethodPost, "/api/random?language=English")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Song04", decode[randomResponse](t, rec).Song.Title)

	raw, err := storage.Get(t.Context(), picker.DefaultHistoryKey)
	require.NoError(t, err)
	var urls []string
	require.NoError(t, json.Unmarshal(raw, &urls))
	assert.ElementsMatch(t, []string{"https://example.com/1", "https://example.com/4"}, urls)
}

func TestRandom_EmptyViewIsNoContent(t *testing.T) {
	h, _, _ := newTestRouter(t, testSongs, nil)
	rec := serve(t, h, http.MethodPost, "/api/random?band=Nobody")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}

func TestUnavailableCatalog(t *testing.T) {
	h, _, logs := newTestRouter(t, nil, errors.New("catalog unavailable: offline"))
	for _, tc := range []struct{ method, target string }{
		{http.MethodGet, "/api/songs"},
		{http.MethodGet, "/api/options"},
		{http.MethodPost, "/api/random"},
	} {
		rec := serve(t, h, tc.method, tc.target)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, tc.target)
		body := decode[map[string]any](t, rec)
		assert.Equal(t, "catalog_unavailable", body["error"])
		assert.Contains(t, body["message"], "offline")
		assert.NotEmpty(t, body["request_id"])
	}
	assert.Equal(t, 3, logs.FilterLevelExact(zap.ErrorLevel).Len())

	pending, _, _ := newTestRouter(t, nil, nil)
	rec := serve(t, pending, http.MethodGet, "/api/songs")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "catalog is still loading", decode[map[string]any](t, rec)["message"])
}

func TestRoutingErrors(t *testing.T) {
	h, _, _ := newTestRouter(t, testSongs, nil)

	rec := serve(t, h, http.MethodGet, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "route_not_found", decode[map[string]any](t, rec)["error"])

	rec = serve(t, h, http.MethodGet, "/api/random")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "method_not_allowed", decode[map[string]any](t, rec)["error"])
}
