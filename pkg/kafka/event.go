package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CloudEvent is the envelope all events are published in, following the
// CloudEvents 1.0 attribute names.
type CloudEvent struct {
	SpecVersion     string          `json:"specversion"`
	ID              string          `json:"id"`
	Source          string          `json:"source"`
	Type            string          `json:"type"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype"`
	Data            json.RawMessage `json:"data"`
}

// NewCloudEvent wraps the given payload in a CloudEvent envelope.
func NewCloudEvent(source, eventType string, data interface{}) (CloudEvent, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return CloudEvent{}, fmt.Errorf("failed to marshal event data: %w", err)
	}
	return CloudEvent{
		SpecVersion:     "1.0",
		ID:              uuid.NewString(),
		Source:          source,
		Type:            eventType,
		Time:            time.Now().UTC(),
		DataContentType: "application/json",
		Data:            raw,
	}, nil
}

// ParseCloudEvent decodes a raw message body into a CloudEvent envelope.
func ParseCloudEvent(raw []byte) (CloudEvent, error) {
	var e CloudEvent
	if err := json.Unmarshal(raw, &e); err != nil {
		return CloudEvent{}, fmt.Errorf("failed to parse cloud event: %w", err)
	}
	return e, nil
}

// ParseData unmarshals the event payload into out.
func (e CloudEvent) ParseData(out interface{}) error {
	if err := json.Unmarshal(e.Data, out); err != nil {
		return fmt.Errorf("failed to parse event data: %w", err)
	}
	return nil
}
