/*
Package availrpc contains a set of types used for JSON-RPC communication with
Avail nodes. It defines basic request/response types, errors, method names
and the parameters of subscription notifications.
*/
package availrpc

import (
	"encoding/json"
)

const (
	// JSONRPCVersion is the only JSON-RPC protocol version supported.
	JSONRPCVersion = "2.0"
)

type (
	// Request represents JSON-RPC request. Substrate nodes expect params
	// to be an array.
	Request struct {
		// JSONRPC is the protocol version, only valid when it contains JSONRPCVersion.
		JSONRPC string `json:"jsonrpc"`
		// Method is the method being called.
		Method string `json:"method"`
		// Params is a set of method-specific parameters passed to the call.
		Params []any `json:"params"`
		// ID is an identifier associated with this request, the client uses
		// numeric identifiers.
		ID uint64 `json:"id"`
	}

	// Header is a generic JSON-RPC 2.0 response header (ID and JSON-RPC version).
	Header struct {
		ID      json.RawMessage `json:"id,omitempty"`
		JSONRPC string          `json:"jsonrpc"`
	}

	// HeaderAndError adds an Error (that can be empty) to the Header.
	HeaderAndError struct {
		Header
		Error *Error `json:"error,omitempty"`
	}

	// Response represents a standard raw JSON-RPC 2.0 response:
	// http://www.jsonrpc.org/specification#response_object.
	Response struct {
		HeaderAndError
		Result json.RawMessage `json:"result,omitempty"`
	}

	// Notification is a subscription event. It looks like a request without
	// ID, its method is the subscription method name (like chain_newHead).
	Notification struct {
		JSONRPC string             `json:"jsonrpc"`
		Method  string             `json:"method"`
		Params  SubscriptionParams `json:"params"`
	}

	// SubscriptionParams are the parameters of subscription notification.
	SubscriptionParams struct {
		Subscription string          `json:"subscription"`
		Result       json.RawMessage `json:"result"`
	}
)

// NewRequest creates a request with the given ID.
func NewRequest(id uint64, method string, params ...any) *Request {
	if params == nil {
		params = []any{}
	}
	return &Request{
		JSONRPC: JSONRPCVersion,
		Method:  method,
		Params:  params,
		ID:      id,
	}
}
