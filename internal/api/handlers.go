package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/yegors/appgate/internal/approach"
	"github.com/yegors/appgate/internal/config"
	"github.com/yegors/appgate/internal/glidepath"
	"github.com/yegors/appgate/pkg/logger"
)

// Handler contains the API handlers
type Handler struct {
	approachService *approach.Service
	config          *config.Config
	logger          *logger.Logger
	started         time.Time
}

// NewHandler creates a new API handler
func NewHandler(approachService *approach.Service, config *config.Config, logger *logger.Logger) *Handler {
	return &Handler{
		approachService: approachService,
		config:          config,
		logger:          logger.Named("api-handler"),
		started:         time.Now(),
	}
}

// Request bodies. Plain float fields default to 0 when omitted.
type (
	distanceRequest struct {
		Params     approach.Params `json:"params"`
		DistanceKm float64         `json:"distance_km"`
	}

	heightRequest struct {
		Params  approach.Params `json:"params"`
		HeightM float64         `json:"height_m"`
	}

	computeRequest struct {
		Params     approach.Params `json:"params"`
		HeightM    float64         `json:"height_m"`
		DistanceKm float64         `json:"distance_km"`
	}

	profileRequest struct {
		Params  approach.Params `json:"params"`
		MaxKm   float64         `json:"max_km"`
		Samples int             `json:"samples"`
	}

	readoutRequest struct {
		Params     approach.Params `json:"params"`
		DistanceKm float64         `json:"distance_km"`
		MaxKm      float64         `json:"max_km"`
	}

	rateOfDescentRequest struct {
		Params          approach.Params `json:"params"`
		GroundSpeedsKts []float64       `json:"ground_speeds_kts"`
	}
)

// valueResponse answers the single-conversion endpoints
type valueResponse struct {
	Effective approach.Effective `json:"effective"`
	Input     float64            `json:"input"`
	Value     float64            `json:"value"`
	Unit      string             `json:"unit"`
	Display   string             `json:"display"`
}

// GetHealth returns the health status of the API
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"runway_count":   len(h.approachService.Runways()),
	}

	WriteJSON(w, http.StatusOK, response)
}

// GetConfig returns the public configuration
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	maxKm, samples := h.approachService.PlotDefaults()

	publicConfig := map[string]any{
		"approach": map[string]any{
			"descent_angle_deg":        h.config.Approach.DescentAngleDeg,
			"gate_buffer_km":           h.config.Approach.GateBufferKm,
			"reference_datum_height_m": h.config.Approach.ReferenceDatumHeightM,
		},
		"runways": map[string]any{
			"default_id": h.config.Runways.DefaultID,
			"count":      len(h.config.Runways.Entries),
		},
		"plot": map[string]any{
			"max_km":      maxKm,
			"samples":     samples,
			"max_samples": h.config.Plot.MaxSamples,
		},
		"websocket": map[string]any{
			"enabled": h.config.WebSocket.Enabled,
			"path":    h.config.WebSocket.Path,
		},
	}

	WriteJSON(w, http.StatusOK, publicConfig)
}

// GetAllRunways returns the runway catalog
func (h *Handler) GetAllRunways(w http.ResponseWriter, r *http.Request) {
	runways := h.approachService.Runways()

	response := map[string]any{
		"runways": runways,
		"count":   len(runways),
	}

	WriteJSON(w, http.StatusOK, response)
}

// GetRunwayByID returns a single catalog runway
func (h *Handler) GetRunwayByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Missing runway ID")
		return
	}

	runway, err := h.approachService.Runway(id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, runway)
}

// Altitude returns the glide path altitude at a distance from touchdown
func (h *Handler) Altitude(w http.ResponseWriter, r *http.Request) {
	var req distanceRequest
	if !h.decode(w, r, &req) {
		return
	}

	alt, eff, err := h.approachService.Altitude(req.Params, req.DistanceKm)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, valueResponse{
		Effective: eff,
		Input:     req.DistanceKm,
		Value:     alt,
		Unit:      "m",
		Display:   approach.FormatAltitude(alt),
	})
}

// DistanceOnGlide returns the distance from touchdown at which the glide path reaches a height
func (h *Handler) DistanceOnGlide(w http.ResponseWriter, r *http.Request) {
	var req heightRequest
	if !h.decode(w, r, &req) {
		return
	}

	dist, eff, err := h.approachService.DistanceOnGlide(req.Params, req.HeightM)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, valueResponse{
		Effective: eff,
		Input:     req.HeightM,
		Value:     dist,
		Unit:      "km",
		Display:   approach.FormatDistance(dist),
	})
}

// AppGate returns the approach gate distance for an aircraft height
func (h *Handler) AppGate(w http.ResponseWriter, r *http.Request) {
	var req heightRequest
	if !h.decode(w, r, &req) {
		return
	}

	gate, eff, err := h.approachService.AppGate(req.Params, req.HeightM)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, valueResponse{
		Effective: eff,
		Input:     req.HeightM,
		Value:     gate,
		Unit:      "km",
		Display:   approach.FormatDistance(gate),
	})
}

// Compute returns every conversion for one height and one distance
func (h *Handler) Compute(w http.ResponseWriter, r *http.Request) {
	var req computeRequest
	if !h.decode(w, r, &req) {
		return
	}

	conversions, err := h.approachService.Compute(req.Params, req.HeightM, req.DistanceKm)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, conversions)
}

// Profile returns the sampled glide path with plot limits
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !h.decode(w, r, &req) {
		return
	}

	profile, err := h.approachService.Profile(req.Params, req.MaxKm, req.Samples)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, profile)
}

// Readout returns the glide path altitude at a picked distance
func (h *Handler) Readout(w http.ResponseWriter, r *http.Request) {
	var req readoutRequest
	if !h.decode(w, r, &req) {
		return
	}

	readout, err := h.approachService.Readout(req.Params, req.DistanceKm, req.MaxKm)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, readout)
}

// RateOfDescent returns the vertical speeds needed to hold the glide path
func (h *Handler) RateOfDescent(w http.ResponseWriter, r *http.Request) {
	var req rateOfDescentRequest
	if !h.decode(w, r, &req) {
		return
	}

	table, err := h.approachService.RateOfDescent(req.Params, req.GroundSpeedsKts)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, table)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		h.logger.Debug("Failed to decode request body", logger.Error(err), logger.String("path", r.URL.Path))
		WriteError(w, http.StatusBadRequest, "Invalid JSON")
		return false
	}
	return true
}

// writeServiceError maps service errors onto HTTP status codes
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, approach.ErrRunwayNotFound):
		WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, approach.ErrInvalidRequest):
		WriteError(w, http.StatusBadRequest, err.Error())
	case glidepath.IsDomainError(err):
		WriteError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error("Unexpected service error", logger.Error(err))
		WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// WriteJSON writes a JSON response. The body is encoded before the status is
// sent so an unencodable value still yields a JSON 500.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		status = http.StatusInternalServerError
		buf.Reset()
		_ = json.NewEncoder(&buf).Encode(map[string]string{"error": "failed to encode response"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// WriteError writes a JSON error body
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}
