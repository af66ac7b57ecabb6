package prover

import "zk-sampler/shared"

// Message types on the prover node websocket
const (
	MsgProveRequest  = "prove_request"
	MsgProveResponse = "prove_response"
	MsgError         = "error"
)

// Message is the JSON envelope exchanged with a prover node. Input carries the
// serialized input record (base64 in JSON).
type Message struct {
	Type      string  `json:"type"`
	JobID     string  `json:"job_id"`
	Input     []byte  `json:"input,omitempty"`
	Bundle    *Bundle `json:"bundle,omitempty"`
	Error     string  `json:"error,omitempty"`
	ErrorType string  `json:"error_type,omitempty"`
}

// ErrorMessage builds an error reply carrying err's class
func ErrorMessage(jobID string, err error) Message {
	msg := Message{Type: MsgError, JobID: jobID, Error: err.Error(), ErrorType: shared.ErrorTypeOf(err)}
	if msg.ErrorType == "" {
		msg.ErrorType = shared.ErrTypeProver
	}
	return msg
}
