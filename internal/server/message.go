package server

import (
	"encoding/json"
	"time"

	"github.com/lox/omahareader/internal/readmodel"
)

// MessageType represents a WebSocket message type
type MessageType string

const (
	// Client to server
	MessageTypeRefresh MessageType = "refresh"

	// Server to client
	MessageTypeDetectionUpdate MessageType = readmodel.UpdateType
	MessageTypeError           MessageType = "error"
)

func (mt MessageType) String() string {
	return string(mt)
}

// Message is the envelope for every WebSocket frame.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a message stamped with at.
func NewMessage(messageType MessageType, data any, at time.Time) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: at,
	}, nil
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ConfigResponse is served from /api/config for dashboards.
type ConfigResponse struct {
	BackendCaptureInterval int  `json:"backend_capture_interval"`
	ShowTableCards         bool `json:"show_table_cards"`
	ShowPositions          bool `json:"show_positions"`
	ShowMoves              bool `json:"show_moves"`
	ShowSolverLink         bool `json:"show_solver_link"`
}
