package approach

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yegors/appgate/internal/websocket"
	"github.com/yegors/appgate/pkg/logger"
)

// RecomputeRequest is the payload of a recompute message
type RecomputeRequest struct {
	Params     Params  `json:"params"`
	HeightM    float64 `json:"height_m"`
	DistanceKm float64 `json:"distance_km"`
	MaxKm      float64 `json:"max_km"`
	Samples    int     `json:"samples"`
}

// SelectPointRequest is the payload of a select_point message
type SelectPointRequest struct {
	DistanceKm *float64 `json:"distance_km"`
}

// WebSocketHandler handles incoming WebSocket messages for live glide path sessions
type WebSocketHandler struct {
	service *Service
	logger  *logger.Logger
}

// NewWebSocketHandler creates a new WebSocket message handler
func NewWebSocketHandler(service *Service, logger *logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		service: service,
		logger:  logger.Named("approach-ws-handler"),
	}
}

// HandleMessage handles incoming WebSocket messages
func (h *WebSocketHandler) HandleMessage(client *websocket.Client, messageType string, data map[string]any) error {
	var err error
	switch messageType {
	case websocket.MessageTypeRecompute:
		err = h.handleRecompute(client, data)
	case websocket.MessageTypeSelectPoint:
		err = h.handleSelectPoint(client, data)
	case websocket.MessageTypeClearSelection:
		err = h.handleClearSelection(client)
	default:
		h.logger.Debug("Unhandled message type", logger.String("type", messageType))
		err = fmt.Errorf("%w: unknown message type %q", ErrInvalidRequest, messageType)
	}

	if err != nil {
		client.SendMessage(websocket.ErrorMessage(messageType, err.Error()))
	}
	return err
}

// handleRecompute evaluates every conversion, the profile and the read-out
// for the client's picked point
func (h *WebSocketHandler) handleRecompute(client *websocket.Client, data map[string]any) error {
	var req RecomputeRequest
	if err := decodePayload(data, &req); err != nil {
		return err
	}

	conversions, err := h.service.Compute(req.Params, req.HeightM, req.DistanceKm)
	if err != nil {
		return err
	}
	profile, err := h.service.Profile(req.Params, req.MaxKm, req.Samples)
	if err != nil {
		return err
	}

	session := client.GetSession()
	session.LastRecompute = data

	// Without a picked point the read-out follows the requested distance
	selected := session.SelectedDistanceKm != nil
	readoutKm := req.DistanceKm
	if selected {
		readoutKm = *session.SelectedDistanceKm
	}
	readout, err := h.service.Readout(req.Params, readoutKm, profile.MaxKm)
	if err != nil {
		return err
	}
	if selected {
		session.SelectedDistanceKm = &readout.DistanceKm
	}
	client.UpdateSession(session)

	result := map[string]any{
		"conversions": conversions,
		"profile":     profile,
		"readout":     readout,
		"selected":    selected,
	}

	h.logger.Debug("Recomputed glide path",
		logger.String("runway", conversions.Effective.RunwayID),
		logger.Float64("height_m", req.HeightM),
		logger.Float64("distance_km", req.DistanceKm))

	return h.sendToClient(client, &websocket.Message{
		Type: websocket.MessageTypeRecomputeResult,
		Data: result,
	})
}

// handleSelectPoint stores the picked distance and answers with its read-out,
// evaluated against the parameters of the client's last recompute
func (h *WebSocketHandler) handleSelectPoint(client *websocket.Client, data map[string]any) error {
	var req SelectPointRequest
	if err := decodePayload(data, &req); err != nil {
		return err
	}
	if req.DistanceKm == nil {
		return fmt.Errorf("%w: distance_km is required", ErrInvalidRequest)
	}

	session := client.GetSession()
	last, err := lastRecompute(session)
	if err != nil {
		return err
	}

	readout, err := h.service.Readout(last.Params, *req.DistanceKm, last.MaxKm)
	if err != nil {
		return err
	}
	session.SelectedDistanceKm = &readout.DistanceKm
	client.UpdateSession(session)

	return h.sendToClient(client, &websocket.Message{
		Type: websocket.MessageTypeReadout,
		Data: map[string]any{
			"selected": true,
			"readout":  readout,
		},
	})
}

func (h *WebSocketHandler) handleClearSelection(client *websocket.Client) error {
	session := client.GetSession()
	session.SelectedDistanceKm = nil
	client.UpdateSession(session)

	return h.sendToClient(client, &websocket.Message{
		Type: websocket.MessageTypeReadout,
		Data: map[string]any{
			"selected": false,
		},
	})
}

// sendToClient sends a message to a specific client
func (h *WebSocketHandler) sendToClient(client *websocket.Client, message *websocket.Message) error {
	if !client.SendMessage(message) {
		return errors.New("client send buffer unavailable")
	}
	return nil
}

func lastRecompute(session websocket.ClientSession) (RecomputeRequest, error) {
	var req RecomputeRequest
	if session.LastRecompute == nil {
		return req, nil
	}
	err := decodePayload(session.LastRecompute, &req)
	return req, err
}

// decodePayload converts a generic message payload into a typed request
func decodePayload(data map[string]any, out any) error {
	if data == nil {
		return nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}
