package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/five82/songdeck/internal/catalog"
)

type sortPayload struct {
	Key       catalog.SortKey   `json:"key"`
	Direction catalog.Direction `json:"direction"`
}

type songListResponse struct {
	Songs []catalog.Song `json:"songs"`
	Count int            `json:"count"`
	Sort  sortPayload    `json:"sort"`
}

type optionsResponse struct {
	Languages []string `json:"languages"`
	Bands     []string `json:"bands"`
}

type randomResponse struct {
	Song catalog.Song `json:"song"`
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	snap := h.state.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"loaded": snap.Loaded,
	})
}

// loadedStore returns the catalog or writes 503 when it never loaded.
func (h *handlers) loadedStore(w http.ResponseWriter, r *http.Request) (*catalog.Store, bool) {
	snap := h.state.Snapshot()
	if !snap.Loaded {
		message := "catalog is still loading"
		if snap.LastError != nil {
			message = snap.LastError.Error()
		}
		writeError(w, r, "catalog_unavailable", message, http.StatusServiceUnavailable)
		return nil, false
	}
	return catalog.NewStore(snap.Songs), true
}

func (h *handlers) listSongs(w http.ResponseWriter, r *http.Request) {
	sortState, err := parseSort(r)
	if err != nil {
		writeError(w, r, "invalid_sort", err.Error(), http.StatusBadRequest)
		return
	}
	store, ok := h.loadedStore(w, r)
	if !ok {
		return
	}

	view := store.View(parseFilter(r))
	h.sorter.Sort(view, sortState)
	writeJSON(w, http.StatusOK, songListResponse{
		Songs: view,
		Count: len(view),
		Sort:  sortPayload{Key: sortState.Key, Direction: sortState.Direction},
	})
}

func (h *handlers) options(w http.ResponseWriter, r *http.Request) {
	store, ok := h.loadedStore(w, r)
	if !ok {
		return
	}
	filter := catalog.FilterState{Language: strings.TrimSpace(r.URL.Query().Get("language"))}
	resp := optionsResponse{
		Languages: store.LanguageOptions(),
		Bands:     store.BandOptions(filter),
	}
	if resp.Languages == nil {
		resp.Languages = []string{}
	}
	if resp.Bands == nil {
		resp.Bands = []string{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) random(w http.ResponseWriter, r *http.Request) {
	store, ok := h.loadedStore(w, r)
	if !ok {
		return
	}
	view := store.View(parseFilter(r))
	h.sorter.Sort(view, catalog.DefaultSortState())

	song, ok := h.picker.Pick(r.Context(), view, store.View(catalog.FilterState{}))
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, randomResponse{Song: song})
}

func parseFilter(r *http.Request) catalog.FilterState {
	q := r.URL.Query()
	return catalog.FilterState{
		Language:   strings.TrimSpace(q.Get("language")),
		Band:       strings.TrimSpace(q.Get("band")),
		TitleQuery: q.Get("q"),
	}
}

func parseSort(r *http.Request) (catalog.SortState, error) {
	state := catalog.DefaultSortState()
	q := r.URL.Query()
	if raw := q.Get("sort"); raw != "" {
		key, err := catalog.ParseSortKey(raw)
		if err != nil {
			return state, err
		}
		state.Key = key
	}
	if raw := q.Get("dir"); raw != "" {
		dir, err := catalog.ParseDirection(raw)
		if err != nil {
			return state, err
		}
		state.Direction = dir
	}
	return state, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, code, message string, status int) {
	payload := map[string]any{
		"error":   code,
		"message": message,
		"status":  status,
	}
	if id := middleware.GetReqID(r.Context()); id != "" {
		payload["request_id"] = id
	}
	writeJSON(w, status, payload)
}
