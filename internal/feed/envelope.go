package feed

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/feedsink/feedsink/internal/store"
)

// EnvelopeNewMessage is the only envelope type the connector handles.
const EnvelopeNewMessage = "NEW_MESSAGE"

// Envelope is the outer frame of every inbound feed event.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// messagePayload mirrors the feed's NEW_MESSAGE payload shape. Required
// non-string fields are pointers so an absent value is distinguishable from
// a zero one (delivered=false must still validate).
type messagePayload struct {
	ID        string `json:"id" validate:"required"`
	DialogID  string `json:"dialogId" validate:"required"`
	SenderID  string `json:"senderId" validate:"required"`
	CreatedAt *int64 `json:"createdAt" validate:"required"`
	Delivered *bool  `json:"delivered" validate:"required"`
	Type      string `json:"type" validate:"required,oneof=text image video"`

	Content      string `json:"content"`
	Caption      string `json:"caption"`
	ImageURL     string `json:"imageUrl"`
	VideoURL     string `json:"videoUrl"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Duration     int64  `json:"duration"`
	UpdatedAt    int64  `json:"updatedAt"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseEnvelope decodes an inbound frame into its envelope.
func ParseEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return &env, nil
}

// ParseMessage validates a NEW_MESSAGE payload and converts it to a store
// message. Validation covers structural correctness only: required fields
// present and correctly typed, type enum-constrained. Which optional content
// fields are present for a given type is not cross-checked.
func ParseMessage(payload json.RawMessage) (*store.Message, error) {
	var p messagePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if err := validate.Struct(&p); err != nil {
		return nil, fmt.Errorf("validate payload: %w", err)
	}

	return &store.Message{
		ID:           p.ID,
		DialogID:     p.DialogID,
		SenderID:     p.SenderID,
		CreatedAt:    *p.CreatedAt,
		Delivered:    *p.Delivered,
		Type:         p.Type,
		Content:      p.Content,
		Caption:      p.Caption,
		ImageURL:     p.ImageURL,
		VideoURL:     p.VideoURL,
		ThumbnailURL: p.ThumbnailURL,
		Duration:     p.Duration,
		UpdatedAt:    p.UpdatedAt,
	}, nil
}
