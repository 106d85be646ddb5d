package walletguard

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/haukened/crypto-guard/internal/guard/common/log"
)

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, req Request) (Response, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(Response), args.Error(1)
}

func req(method string) Request {
	return Request{JSONRPC: Version, ID: json.RawMessage("7"), Method: method, Params: json.RawMessage(`["0xabc"]`)}
}

func TestGuard_BlocksRawSignatures(t *testing.T) {
	next := new(MockDispatcher)
	g, err := New(next, nil, log.NewNoopLogger())
	require.NoError(t, err)

	for _, m := range []string{"eth_sign", "personal_sign", "Personal_Sign"} {
		t.Run(m, func(t *testing.T) {
			_, err := g.Dispatch(context.Background(), req(m))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrRawSignature))
			assert.Equal(t, "Blocked by Crypto Guard (raw signature)", err.Error())

			var be *BlockedError
			require.ErrorAs(t, err, &be)
			assert.Equal(t, m, be.Method)
			assert.Equal(t, "Raw signature request blocked", be.Banner)
			assert.Equal(t, []string{
				"This kind of signature can authorize actions off-site.",
				"Confirm the site is trusted before signing.",
			}, be.Details)
		})
	}
	next.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestGuard_ForwardsOtherMethods(t *testing.T) {
	next := new(MockDispatcher)
	want := Response{JSONRPC: Version, ID: json.RawMessage("7"), Result: json.RawMessage(`"0x1"`)}
	next.On("Dispatch", mock.Anything, req("eth_chainId")).Return(want, nil)
	next.On("Dispatch", mock.Anything, req("eth_signTypedData_v4")).Return(want, nil)

	g, err := New(next, nil, log.NewNoopLogger())
	require.NoError(t, err)

	got, err := g.Dispatch(context.Background(), req("eth_chainId"))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = g.Dispatch(context.Background(), req("eth_signTypedData_v4"))
	assert.NoError(t, err)
	next.AssertExpectations(t)
}

func TestGuard_CustomMethods(t *testing.T) {
	next := DispatcherFunc(func(context.Context, Request) (Response, error) {
		return Response{JSONRPC: Version}, nil
	})
	g, err := New(next, []string{" ETH_SIGNTYPEDDATA ", ""}, log.NewNoopLogger())
	require.NoError(t, err)

	assert.True(t, g.Blocks("eth_signTypedData"))
	assert.False(t, g.Blocks("eth_sign"))
	_, err = g.Dispatch(context.Background(), req("personal_sign"))
	assert.NoError(t, err)
}

func TestGuard_PropagatesUpstreamErrors(t *testing.T) {
	boom := errors.New("upstream down")
	next := DispatcherFunc(func(context.Context, Request) (Response, error) {
		return Response{}, boom
	})
	g, err := New(next, nil, nil)
	require.NoError(t, err)
	_, err = g.Dispatch(context.Background(), req("eth_accounts"))
	assert.ErrorIs(t, err, boom)
}

func TestNew_RequiresDispatcher(t *testing.T) {
	_, err := New(nil, nil, nil)
	assert.ErrorIs(t, err, ErrNoDispatcher)
}

func TestErrorResponse(t *testing.T) {
	blocked := ErrorResponse(req("eth_sign"), &BlockedError{Method: "eth_sign", Banner: BlockedBanner, Details: BlockedDetails})
	require.NotNil(t, blocked.Error)
	assert.Equal(t, CodeUserRejected, blocked.Error.Code)
	assert.Equal(t, BlockedMessage, blocked.Error.Message)
	assert.Equal(t, json.RawMessage("7"), blocked.ID)

	raw, err := json.Marshal(blocked)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"jsonrpc": "2.0",
		"id": 7,
		"error": {
			"code": 4001,
			"message": "Blocked by Crypto Guard (raw signature)",
			"data": {
				"banner": "Raw signature request blocked",
				"details": [
					"This kind of signature can authorize actions off-site.",
					"Confirm the site is trusted before signing."
				]
			}
		}
	}`, string(raw))

	passthrough := ErrorResponse(Request{}, &RPCError{Code: -32601, Message: "method not found"})
	assert.Equal(t, -32601, passthrough.Error.Code)
	assert.Equal(t, json.RawMessage("null"), passthrough.ID)

	internal := ErrorResponse(req("x"), errors.New("dial tcp: refused"))
	assert.Equal(t, CodeInternal, internal.Error.Code)
}
