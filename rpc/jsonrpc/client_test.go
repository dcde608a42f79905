package jsonrpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req RPCRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2.0", req.JSONRPC)
		assert.Equal(t, "echo", req.Method)

		var params map[string]interface{}
		require.NoError(t, json.Unmarshal(req.Params, &params))

		result, err := json.Marshal(params)
		require.NoError(t, err)
		_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: "2.0", ID: req.ID, Result: result})
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	var result map[string]interface{}
	err = c.Call(context.Background(), "echo", map[string]interface{}{"value": "pong"}, &result)
	require.NoError(t, err)
	assert.Equal(t, "pong", result["value"])
}

func TestClientCallError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req RPCRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_ = json.NewEncoder(w).Encode(RPCResponse{
			JSONRPC: "2.0", ID: req.ID,
			Error: &RPCError{Code: -32601, Message: "Method not found", Data: "no such method"},
		})
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	err = c.Call(context.Background(), "nope", nil, nil)
	require.Error(t, err)

	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, -32601, rpcErr.Code)
	assert.Contains(t, rpcErr.Error(), "Method not found")
}

func TestNewValidation(t *testing.T) {
	testCases := []struct {
		remote string
		ok     bool
	}{
		{"127.0.0.1:26657", true},
		{"http://127.0.0.1:26657", true},
		{"https://node.example.com", true},
		{"tcp://127.0.0.1:26657", false},
		{"http://", false},
	}

	for _, tc := range testCases {
		_, err := New(tc.remote)
		if tc.ok {
			assert.NoError(t, err, tc.remote)
		} else {
			assert.Error(t, err, tc.remote)
		}
	}
}
