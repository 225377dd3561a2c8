package jsonrpc

import (
	"encoding/json"
	"fmt"
)

// Version is the protocol version carried by every envelope.
const Version = "2.0"

// Request is an outgoing envelope. ID is set for calls and nil for
// notifications.
type Request struct {
	ProtocolVersion string          `json:"protocolVersion"`
	ID              *int64          `json:"id,omitempty"`
	Method          string          `json:"method"`
	Params          json.RawMessage `json:"params,omitempty"`
}

// Message is an incoming envelope. A response to a call carries ID plus
// Result or Error; server-initiated traffic carries Method instead.
type Message struct {
	ProtocolVersion string          `json:"protocolVersion"`
	ID              *int64          `json:"id,omitempty"`
	Method          string          `json:"method,omitempty"`
	Params          json.RawMessage `json:"params,omitempty"`
	Result          json.RawMessage `json:"result,omitempty"`
	Error           *Error          `json:"error,omitempty"`
}

// Error is the error payload of a failed call.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("server error %d: %s", e.Code, e.Message)
}

// newRequest builds an envelope, marshaling params when present. A nil id
// produces a notification.
func newRequest(id *int64, method string, params any) (*Request, error) {
	req := &Request{
		ProtocolVersion: Version,
		ID:              id,
		Method:          method,
	}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("jsonrpc: marshal params: %w", err)
		}
		req.Params = data
	}
	return req, nil
}
