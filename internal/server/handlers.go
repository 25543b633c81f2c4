package server

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/pable/go-dota-wards/internal/analysis"
	"github.com/pable/go-dota-wards/internal/model"
	"github.com/pable/go-dota-wards/internal/spatial"
)

// filterParams are the query keys understood by every pass endpoint.
var filterParams = []string{"mode", "team", "player", "time", "min", "top", "metric", "basis", "cluster", "density", "zero", "pins"}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// FilterView is the JSON echo of the filter a pass ran with.
type FilterView struct {
	Label            string   `json:"label"`
	Phase            string   `json:"phase,omitempty"`
	WindowMin        *float64 `json:"windowMin,omitempty"`
	WindowMax        *float64 `json:"windowMax,omitempty"`
	Team             string   `json:"team"`
	Player           int64    `json:"player,omitempty"`
	MinCount         int      `json:"minCount"`
	TopN             int      `json:"topN"`
	Mode             string   `json:"mode"`
	Basis            string   `json:"basis"`
	Metric           string   `json:"metric"`
	ClusterRadiusPct float64  `json:"clusterRadiusPct"`
	DensityRadiusPct float64  `json:"densityRadiusPct"`
	Pins             []string `json:"pins,omitempty"`
}

func viewOf(f model.Filter, densityPct float64) FilterView {
	v := FilterView{
		Label:            f.Describe(),
		Phase:            string(f.Phase),
		Team:             f.Team.String(),
		Player:           f.Player,
		MinCount:         f.MinCount,
		TopN:             f.TopN,
		Mode:             string(f.Mode),
		Basis:            string(f.Basis),
		Metric:           string(f.Metric),
		ClusterRadiusPct: f.ClusterRadiusPct,
		DensityRadiusPct: densityPct,
		Pins:             f.Pins,
	}
	if !math.IsInf(f.Window.Min, 0) {
		lo := f.Window.Min
		v.WindowMin = &lo
	}
	if !math.IsInf(f.Window.Max, 0) {
		hi := f.Window.Max
		v.WindowMax = &hi
	}
	return v
}

// parseFilter applies query parameters over the server's base filter.
func (s *Server) parseFilter(q url.Values) (model.Filter, error) {
	f := s.base
	for _, key := range filterParams {
		if !q.Has(key) {
			continue
		}
		var err error
		if f, err = f.Set(key, q.Get(key)); err != nil {
			return f, err
		}
	}
	return f, nil
}

// HealthCheck reports liveness and dataset size.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ds := s.engine.Dataset()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
		"spots":     len(ds.Spots),
		"sentries":  len(ds.Sentries),
	})
}

// GetSpots runs a pass and returns the ranked spots.
// Query params: mode, team, player, time, min, top, metric, basis, cluster, density, zero, pins
func (s *Server) GetSpots(w http.ResponseWriter, r *http.Request) {
	f, err := s.parseFilter(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	pass := s.engine.Run(f)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"filter":            viewOf(f, pass.DensityRadiusPct),
		"spots":             nonNil(pass.Ranked),
		"count":             len(pass.Ranked),
		"qualifying":        len(pass.Qualifying),
		"totalPlacements":   analysis.TotalCount(pass.Qualifying),
		"clustered":         pass.Clustered,
		"observerRadiusPct": s.engine.ObserverRadiusPct(),
		"sentryRadiusPct":   s.engine.SentryRadiusPct(),
	})
}

// GetClusters is GetSpots with clustering forced on. Without a cluster
// parameter the observer vision radius is used.
func (s *Server) GetClusters(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("cluster") {
		q.Set("cluster", fmt.Sprintf("%g", s.engine.ObserverRadiusPct()))
	}
	f, err := s.parseFilter(q)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if f.ClusterRadiusPct <= 0 {
		respondError(w, http.StatusBadRequest, "cluster radius must be positive", nil)
		return
	}
	pass := s.engine.Run(f)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"filter":   viewOf(f, pass.DensityRadiusPct),
		"clusters": nonNil(pass.Ranked),
		"count":    len(pass.Ranked),
	})
}

// GetEffectiveness scores the spot or cluster named by the spot parameter.
func (s *Server) GetEffectiveness(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	key := q.Get("spot")
	if key == "" {
		respondError(w, http.StatusBadRequest, "spot is required", nil)
		return
	}
	f, err := s.parseFilter(q)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	pass := s.engine.Run(f)
	m, ok := pass.Find(key)
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("spot %s not found", key), nil)
		return
	}
	eff, _ := pass.Effectiveness(key)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"filter":        viewOf(f, pass.DensityRadiusPct),
		"metrics":       m,
		"effectiveness": eff,
	})
}

// SentryView is one sentry entry in map percent.
type SentryView struct {
	Key   string  `json:"spot"`
	UPct  float64 `json:"u"`
	VPct  float64 `json:"v"`
	Count int     `json:"count"`
}

// GetSentries returns the sentries that survive the filter, for the heat layer.
func (s *Server) GetSentries(w http.ResponseWriter, r *http.Request) {
	f, err := s.parseFilter(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	pass := s.engine.Run(f)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"filter":   viewOf(f, pass.DensityRadiusPct),
		"sentries": sentryViews(pass.Sentries),
		"maxCount": pass.Sentries.MaxCount,
	})
}

func sentryViews(idx *spatial.SentryIndex) []SentryView {
	out := make([]SentryView, 0, len(idx.Entries))
	for _, e := range idx.Entries {
		out = append(out, SentryView{Key: e.Key, UPct: e.U * 100, VPct: e.V * 100, Count: e.Count})
	}
	return out
}

// GetMatches lists the stored matches behind the dataset.
func (s *Server) GetMatches(w http.ResponseWriter, r *http.Request) {
	if s.matches == nil {
		respondError(w, http.StatusNotFound, "no match store attached", nil)
		return
	}
	matches, err := s.matches.ListMatches()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list matches", err)
		return
	}
	if matches == nil {
		matches = []model.MatchSummary{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"matches": matches,
		"count":   len(matches),
	})
}

func nonNil(ms []model.SpotMetrics) []model.SpotMetrics {
	if ms == nil {
		return []model.SpotMetrics{}
	}
	return ms
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		fmt.Printf("error encoding response: %v\n", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err != nil {
		fmt.Printf("error: %s - %v\n", message, err)
	}

	resp := ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		fmt.Printf("error encoding error response: %v\n", err)
	}
}
