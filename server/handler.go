// Package server exposes the run archive over a read-only JSON API.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/yourname/bgp-clock-offset/model"
	"github.com/yourname/bgp-clock-offset/store"
)

// APIHandler serves archived runs and clock error profiles over HTTP.
type APIHandler struct {
	Store      store.Store
	MinSamples int
}

// NewHandler returns a handler reading from s that treats profiles with
// more than minSamples events as reliable.
func NewHandler(s store.Store, minSamples int) *APIHandler {
	return &APIHandler{Store: s, MinSamples: minSamples}
}

// NewRouter registers the API routes.
func NewRouter(h *APIHandler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/experiments/{experiment}/runs", h.GetRuns).Methods(http.MethodGet)
	r.HandleFunc("/experiments/{experiment}/profiles", h.GetProfiles).Methods(http.MethodGet)
	return r
}

// GET /experiments/{experiment}/runs
func (h *APIHandler) GetRuns(w http.ResponseWriter, r *http.Request) {
	experiment := mux.Vars(r)["experiment"]
	runs, err := h.Store.Runs(r.Context(), experiment)
	if err != nil {
		h.fail(w, err)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	writeJSON(w, runs)
}

// GET /experiments/{experiment}/profiles?phase=all|up|down&reliable=true
func (h *APIHandler) GetProfiles(w http.ResponseWriter, r *http.Request) {
	experiment := mux.Vars(r)["experiment"]
	q := r.URL.Query()
	phase, err := model.ParsePhase(q.Get("phase"))
	if err != nil {
		http.Error(w, "invalid phase", http.StatusBadRequest)
		return
	}
	reliable := false
	if v := q.Get("reliable"); v != "" {
		if reliable, err = strconv.ParseBool(v); err != nil {
			http.Error(w, "invalid reliable flag", http.StatusBadRequest)
			return
		}
	}
	profiles, err := h.Store.Profiles(r.Context(), experiment, phase)
	if err != nil {
		h.fail(w, err)
		return
	}
	out := make([]model.ClockErrorProfile, 0, len(profiles))
	for _, p := range profiles {
		if reliable && !p.Reliable(h.MinSamples) {
			continue
		}
		out = append(out, p)
	}
	writeJSON(w, out)
}

func (h *APIHandler) fail(w http.ResponseWriter, err error) {
	log.WithError(err).Error("store query failed")
	http.Error(w, "store unavailable", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("encode response")
	}
}
