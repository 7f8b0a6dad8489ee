package addition

import "github.com/google/uuid"

// CreateRequestBody is the POST /additions body.
type CreateRequestBody struct {
	ProcessID uuid.UUID `json:"process_id"`
}

// CreateResponseBody is the POST /additions response.
type CreateResponseBody struct {
	ProcessID uuid.UUID `json:"process_id"`
	Input     uint64    `json:"input"`
}

// GetResponseBody is the GET /additions/{id} response.
type GetResponseBody struct {
	ProcessID uuid.UUID `json:"process_id"`
	Input     uint64    `json:"input"`
	Sum       *uint64   `json:"sum"`
}

// PayloadType discriminates the two kinds of peer-to-peer envelopes.
type PayloadType string

const (
	PayloadTypeShare     PayloadType = "share"
	PayloadTypeSharesSum PayloadType = "shares_sum"
)

// ReceiveRequestBody is the POST /additions/{id}/receive body: a tagged
// union over the two message kinds a peer can push.
type ReceiveRequestBody struct {
	Type PayloadType     `json:"type"`
	Data ReceivePayload  `json:"data"`
}

// ReceivePayload carries the single field either message kind needs.
type ReceivePayload struct {
	Value uint64 `json:"value"`
}

// HealthResponseBody is the GET /health response.
type HealthResponseBody struct {
	OK bool `json:"ok"`
}

// ToGetResponseBody projects a Process onto its wire representation.
func ToGetResponseBody(process Process) GetResponseBody {
	preamble := process.Preamble()
	body := GetResponseBody{ProcessID: preamble.ID, Input: preamble.Input}
	if completed, ok := process.(Completed); ok {
		sum := completed.FinalSum
		body.Sum = &sum
	}
	return body
}
