package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EnvelopeType string

const (
	EnvelopeSample   EnvelopeType = "sample"
	EnvelopeHealth   EnvelopeType = "health"
	EnvelopeAnalysis EnvelopeType = "analysis"
	EnvelopeStatus   EnvelopeType = "status"
)

// Envelope is the frame pushed to dashboard stream clients.
type Envelope struct {
	ID        string       `json:"id"`
	Type      EnvelopeType `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	Payload   any          `json:"payload"`
}

func NewEnvelope(typ EnvelopeType, payload any) *Envelope {
	return &Envelope{
		ID:        uuid.New().String(),
		Type:      typ,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

func (e *Envelope) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EnvelopeFromJSON decodes a frame; Payload is left as generic JSON.
func EnvelopeFromJSON(data []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
