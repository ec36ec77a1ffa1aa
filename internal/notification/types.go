package notification

import (
	"encoding/json"
	"fmt"

	"github.com/sparkinventory/spark-notify/internal/model"
)

// actionItemWire is the backend's representation of one action item,
// nested inside a notification record. The data blob is decoded
// separately according to the declared actionType.
type actionItemWire struct {
	ID          string          `json:"id"`
	ActionType  string          `json:"actionType"`
	Description string          `json:"description"`
	IsCompleted bool            `json:"isCompleted"`
	Data        json.RawMessage `json:"data"`
	CreatedAt   string          `json:"createdAt"`
	CompletedAt string          `json:"completedAt,omitempty"`
}

// notificationWire is the backend's representation of one notification.
type notificationWire struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Text        string           `json:"text"`
	CreatedAt   string           `json:"createdAt"`
	ReadAt      *string          `json:"readAt"`
	ActionItems []actionItemWire `json:"actionItems,omitempty"`
}

// feedPage is the paginated list envelope for the notifications
// endpoint. Some backend versions wrap the page under a value key, so
// both shapes are accepted.
type feedPage struct {
	Data       []notificationWire `json:"data"`
	Page       int                `json:"page"`
	PageSize   int                `json:"pageSize"`
	TotalCount int                `json:"totalCount"`
	TotalPages int                `json:"totalPages"`

	Value *struct {
		Data []notificationWire `json:"data"`
	} `json:"value,omitempty"`
}

// records returns the notification list regardless of which envelope
// shape the backend used.
func (p *feedPage) records() []notificationWire {
	if p.Value != nil && p.Value.Data != nil {
		return p.Value.Data
	}
	return p.Data
}

// ExecutionResult is the backend's answer to an execute call. Success
// false is a business rejection; Message then carries the server's
// explanation and is shown to the user verbatim.
type ExecutionResult struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	ResultID   string          `json:"resultId,omitempty"`
	ResultType string          `json:"resultType,omitempty"`
	ResultData json.RawMessage `json:"resultData,omitempty"`
}

// decodePayload turns the kind tag and raw data blob into the matching
// payload variant. Unknown kinds decode their shared provenance fields
// and keep the raw blob, so new server-side kinds render as view-only
// items instead of failing the fetch. Malformed JSON is an error: a
// half-decoded item must fail the whole page.
func decodePayload(kind model.ActionKind, data json.RawMessage) (model.ActionPayload, error) {
	if len(data) == 0 || string(data) == "null" {
		data = []byte("{}")
	}

	switch kind {
	case model.KindCreateSalesOrder:
		var p model.CreateSalesOrderPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", kind, err)
		}
		return &p, nil

	case model.KindUpdateSalesOrder:
		var p model.UpdateSalesOrderPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", kind, err)
		}
		return &p, nil

	case model.KindNotActionable:
		var p model.NotActionablePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", kind, err)
		}
		return &p, nil

	default:
		var prov model.Provenance
		if err := json.Unmarshal(data, &prov); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", kind, err)
		}
		raw := make([]byte, len(data))
		copy(raw, data)
		return &model.GenericPayload{
			Provenance: prov,
			ActionKind: kind,
			Raw:        raw,
		}, nil
	}
}
