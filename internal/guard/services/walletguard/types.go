package walletguard

import (
	"context"
	"encoding/json"
)

// Version is the only JSON-RPC version spoken.
const Version = "2.0"

// Request is a JSON-RPC 2.0 request as sent by a dapp to a wallet provider.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 response. Exactly one of Result and Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is the error member of a JSON-RPC response.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *RPCError) Error() string { return e.Message }

// Dispatcher forwards a request to a wallet provider.
type Dispatcher interface {
	Dispatch(ctx context.Context, req Request) (Response, error)
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, req Request) (Response, error)

func (f DispatcherFunc) Dispatch(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}
