package stream

import (
	"encoding/json"
	"time"
)

// Text message types. Video frames travel as binary messages and carry no
// envelope.
const (
	MessageTypeStatus = "status"
	MessageTypeError  = "error"
)

// Message is the JSON envelope for text messages sent beside the frames.
type Message struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// StatusData is the overlay state the viewer shows over the video.
type StatusData struct {
	FPS        float64 `json:"fps"`
	Path       string  `json:"path"`
	Processing bool    `json:"processing"`
	Effect     string  `json:"effect"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

// NewMessage stamps a message with the current time.
func NewMessage(msgType string, data interface{}) Message {
	return Message{Type: msgType, Timestamp: time.Now(), Data: data}
}

// NewStatusMessage wraps overlay state.
func NewStatusMessage(data StatusData) Message {
	return NewMessage(MessageTypeStatus, data)
}

func (m Message) encode() ([]byte, error) {
	return json.Marshal(m)
}
