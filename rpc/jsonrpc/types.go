// Package jsonrpc implements the subset of JSON-RPC 2.0 over HTTP that a
// light client needs to talk to full nodes: one-shot request/response calls
// with positional-free (named) params.
package jsonrpc

import (
	"encoding/json"
	"fmt"
)

// RPCRequest is a JSON-RPC 2.0 request envelope.
type RPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// NewRPCRequest returns a request envelope for method with the given named
// params.
func NewRPCRequest(id int, method string, params map[string]interface{}) (RPCRequest, error) {
	var payload json.RawMessage
	if len(params) > 0 {
		var err error
		payload, err = json.Marshal(params)
		if err != nil {
			return RPCRequest{}, err
		}
	}
	return RPCRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  payload,
	}, nil
}

// RPCResponse is a JSON-RPC 2.0 response envelope.
type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is the error object carried in a failed RPCResponse.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

func (err RPCError) Error() string {
	const baseFormat = "RPC error %v - %s"
	if err.Data != "" {
		return fmt.Sprintf(baseFormat+": %s", err.Code, err.Message, err.Data)
	}
	return fmt.Sprintf(baseFormat, err.Code, err.Message)
}
