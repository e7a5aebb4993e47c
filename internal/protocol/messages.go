package protocol

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/b2k4rys/TutorHub/internal/identity"
)

// ErrMalformedFrame marks an inbound frame that cannot become a message.
// The connection survives it; the frame is dropped.
var ErrMalformedFrame = errors.New("malformed frame")

// Inbound is the payload a client sends over an accepted connection.
type Inbound struct {
	Message string `json:"message"`
}

// ParseInbound decodes a text frame. A frame with no usable message text
// fails with ErrMalformedFrame.
func ParseInbound(data []byte) (Inbound, error) {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		return Inbound{}, errors.Join(ErrMalformedFrame, err)
	}
	if strings.TrimSpace(in.Message) == "" {
		return Inbound{}, ErrMalformedFrame
	}
	return in, nil
}

// ChatEvent is fanned out to every session in the conversation's room,
// the sender's own session included.
type ChatEvent struct {
	Message    string        `json:"message"`
	SenderID   int64         `json:"sender_id"`
	SenderName string        `json:"sender_name"`
	SenderType identity.Kind `json:"sender_type"`
	Timestamp  time.Time     `json:"timestamp"`
}
