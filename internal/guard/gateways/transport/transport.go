// Package transport exposes the guard services over HTTP. It owns routing,
// request decoding and response encoding; verdicts come from the service
// layer untouched.
package transport

import (
	"context"

	"github.com/haukened/crypto-guard/internal/guard/domain"
	"github.com/haukened/crypto-guard/internal/guard/services/checker"
	"github.com/haukened/crypto-guard/internal/guard/services/walletguard"
)

// ServerTransport is a network front end for the guard services.
type ServerTransport interface {
	// Start binds the listener and serves in the background.
	Start(ctx context.Context, svc Services) error

	// Stop gracefully shuts the transport down.
	Stop() error

	// Address returns the bound address once started, the configured one before.
	Address() string
}

// URLChecker answers URL risk queries.
type URLChecker interface {
	Check(raw string) domain.RiskResult
	Snapshot() checker.SnapshotInfo
}

// Services are the handlers a transport routes to. Wallet is optional; when
// nil the JSON-RPC endpoint is not mounted.
type Services struct {
	Checker URLChecker
	Wallet  walletguard.Dispatcher
}
