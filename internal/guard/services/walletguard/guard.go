// Package walletguard refuses wallet requests that ask for raw message
// signatures, which can authorize actions off-site, and passes every other
// request through unchanged.
package walletguard

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/haukened/crypto-guard/internal/guard/common/log"
)

const (
	// BlockedMessage is the error message surfaced to the requesting page.
	BlockedMessage = "Blocked by Crypto Guard (raw signature)"
	// BlockedBanner is the title shown to the user.
	BlockedBanner = "Raw signature request blocked"

	// CodeUserRejected is the EIP-1193 "user rejected request" code.
	CodeUserRejected = 4001
	// CodeInternal is the JSON-RPC internal error code.
	CodeInternal = -32603
)

// BlockedDetails explain a blocked request to the user.
var BlockedDetails = []string{
	"This kind of signature can authorize actions off-site.",
	"Confirm the site is trusted before signing.",
}

// DefaultBlockedMethods are the raw-signature methods refused by default.
var DefaultBlockedMethods = []string{"eth_sign", "personal_sign"}

// ErrRawSignature matches every *BlockedError via errors.Is.
var ErrRawSignature = errors.New("raw signature request blocked")

// ErrNoDispatcher is returned by New when next is nil.
var ErrNoDispatcher = errors.New("dispatcher is required")

// BlockedError reports a refused request.
type BlockedError struct {
	Method  string
	Banner  string
	Details []string
}

func (e *BlockedError) Error() string { return BlockedMessage }

func (e *BlockedError) Is(target error) bool { return target == ErrRawSignature }

// Guard is a Dispatcher that refuses blocked methods and delegates the rest.
type Guard struct {
	next    Dispatcher
	blocked map[string]struct{}
	logger  log.Logger
}

// New wraps next. Method names match case-insensitively; an empty methods
// list selects DefaultBlockedMethods.
func New(next Dispatcher, methods []string, logger log.Logger) (*Guard, error) {
	if next == nil {
		return nil, ErrNoDispatcher
	}
	if len(methods) == 0 {
		methods = DefaultBlockedMethods
	}
	if logger == nil {
		logger = log.GetLogger()
	}
	g := &Guard{next: next, blocked: make(map[string]struct{}, len(methods)), logger: logger}
	for _, m := range methods {
		m = strings.ToLower(strings.TrimSpace(m))
		if m != "" {
			g.blocked[m] = struct{}{}
		}
	}
	return g, nil
}

// Blocks reports whether method would be refused.
func (g *Guard) Blocks(method string) bool {
	_, ok := g.blocked[strings.ToLower(strings.TrimSpace(method))]
	return ok
}

// Dispatch refuses blocked methods with a *BlockedError and forwards the rest.
func (g *Guard) Dispatch(ctx context.Context, req Request) (Response, error) {
	if g.Blocks(req.Method) {
		g.logger.Warn(map[string]any{
			"method": req.Method,
		}, "raw signature request blocked")
		return Response{}, &BlockedError{
			Method:  req.Method,
			Banner:  BlockedBanner,
			Details: append([]string(nil), BlockedDetails...),
		}
	}
	return g.next.Dispatch(ctx, req)
}

// ErrorResponse renders err as the JSON-RPC error response to req.
func ErrorResponse(req Request, err error) Response {
	resp := Response{JSONRPC: Version, ID: req.ID}
	var be *BlockedError
	var re *RPCError
	switch {
	case errors.As(err, &be):
		resp.Error = &RPCError{
			Code:    CodeUserRejected,
			Message: be.Error(),
			Data: map[string]any{
				"banner":  be.Banner,
				"details": be.Details,
			},
		}
	case errors.As(err, &re):
		resp.Error = re
	default:
		resp.Error = &RPCError{Code: CodeInternal, Message: err.Error()}
	}
	if resp.ID == nil {
		resp.ID = json.RawMessage("null")
	}
	return resp
}
