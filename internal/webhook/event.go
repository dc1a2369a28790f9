package webhook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Event kinds sent by the document-signing provider
const (
	KindDocumentStateChanged      = "document_state_changed"
	KindDocumentCompletedPDFReady = "document_completed_pdf_ready"
)

var validate = validator.New()

// Event is a single provider event. Data holds the kind-specific payload.
type Event struct {
	Type string          `json:"event_type" validate:"required"`
	Data json.RawMessage `json:"data"`
}

// DocumentStateChanged is the payload of a document_state_changed event
type DocumentStateChanged struct {
	DocumentID string `json:"document_id" validate:"required"`
	Status     string `json:"status" validate:"required"`
}

// DocumentCompletedPDFReady is the payload of a document_completed_pdf_ready event
type DocumentCompletedPDFReady struct {
	DocumentID  string `json:"document_id" validate:"required"`
	DownloadURL string `json:"download_url,omitempty" validate:"omitempty,url"`
}

// envelope is the delivery body. Events stays raw so that a missing or null
// "events" member can be told apart from an empty batch.
type envelope struct {
	Events json.RawMessage `json:"events"`
}

// ParseEvents decodes an authenticated body into its ordered events. The
// batch is rejected as a whole if any part of it is malformed.
func ParseEvents(rawBody []byte) ([]Event, error) {
	var env envelope
	if err := json.Unmarshal(rawBody, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	trimmed := bytes.TrimSpace(env.Events)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: \"events\" must be an array", ErrMalformedPayload)
	}

	var events []Event
	if err := json.Unmarshal(trimmed, &events); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	for i := range events {
		if err := events[i].validate(); err != nil {
			return nil, fmt.Errorf("%w: event %d: %v", ErrMalformedPayload, i, err)
		}
	}
	return events, nil
}

func (e Event) validate() error {
	if err := validate.Struct(e); err != nil {
		return err
	}
	switch e.Type {
	case KindDocumentStateChanged:
		_, err := e.DocumentStateChanged()
		return err
	case KindDocumentCompletedPDFReady:
		_, err := e.DocumentCompletedPDFReady()
		return err
	default:
		// Unknown kinds are acknowledged without inspection
		return nil
	}
}

// DocumentStateChanged decodes the payload of a document_state_changed event
func (e Event) DocumentStateChanged() (DocumentStateChanged, error) {
	var p DocumentStateChanged
	if err := e.decode(KindDocumentStateChanged, &p); err != nil {
		return DocumentStateChanged{}, err
	}
	return p, nil
}

// DocumentCompletedPDFReady decodes the payload of a document_completed_pdf_ready event
func (e Event) DocumentCompletedPDFReady() (DocumentCompletedPDFReady, error) {
	var p DocumentCompletedPDFReady
	if err := e.decode(KindDocumentCompletedPDFReady, &p); err != nil {
		return DocumentCompletedPDFReady{}, err
	}
	return p, nil
}

// DocumentID returns the document the event refers to, or "" when the
// payload carries none
func (e Event) DocumentID() string {
	var p struct {
		DocumentID string `json:"document_id"`
	}
	if len(e.Data) == 0 || json.Unmarshal(e.Data, &p) != nil {
		return ""
	}
	return p.DocumentID
}

func (e Event) decode(kind string, out any) error {
	if e.Type != kind {
		return fmt.Errorf("event is %q, not %q", e.Type, kind)
	}
	if len(bytes.TrimSpace(e.Data)) == 0 {
		return errors.New("data is required")
	}
	if err := json.Unmarshal(e.Data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", kind, err)
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("invalid %s data: %w", kind, err)
	}
	return nil
}
