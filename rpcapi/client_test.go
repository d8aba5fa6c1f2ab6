package rpcapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/energywebfoundation/secretstore-go/secretstore"
)

type rpcCall struct {
	Method string
	Params []any
}

// rpcSpy is an httptest JSON-RPC endpoint recording every call and replying
// with a fixed result or error.
type rpcSpy struct {
	srv    *httptest.Server
	result any
	errMsg string
	calls  []rpcCall
}

func newRPCSpy(result any, errMsg string) *rpcSpy {
	spy := &rpcSpy{result: result, errMsg: errMsg}
	spy.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
			Params []any           `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		spy.calls = append(spy.calls, rpcCall{Method: req.Method, Params: req.Params})

		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if spy.errMsg != "" {
			resp["error"] = map[string]any{"code": -32000, "message": spy.errMsg}
		} else {
			resp["result"] = spy.result
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	return spy
}

func (spy *rpcSpy) client(t *testing.T) *Client {
	t.Cleanup(spy.srv.Close)
	c, err := NewClient(spy.srv.URL)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient("")
	assert.ErrorIs(t, err, secretstore.ErrNoTransport)

	_, err = NewClientWithTransport(nil)
	assert.ErrorIs(t, err, secretstore.ErrNoTransport)
}

func TestNewClientWithTransport(t *testing.T) {
	spy := newRPCSpy("0xsig", "")
	transport, err := rpc.Dial(spy.srv.URL)
	require.NoError(t, err)

	c, err := NewClientWithTransport(transport)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	t.Cleanup(spy.srv.Close)

	signature, err := c.SignRawHash(context.Background(), "0xacc", "pwd", "dead")
	require.NoError(t, err)
	assert.Equal(t, "0xsig", signature)
}

func TestSignRawHash(t *testing.T) {
	spy := newRPCSpy("0xsig", "")
	c := spy.client(t)

	signature, err := c.SignRawHash(context.Background(), "0xacc", "pwd", "dead")
	require.NoError(t, err)
	assert.Equal(t, "0xsig", signature)

	require.Len(t, spy.calls, 1)
	assert.Equal(t, "secretstore_signRawHash", spy.calls[0].Method)
	// The hash is prefixed for the wire; the account travels as given.
	assert.Equal(t, []any{"0xacc", "pwd", "0xdead"}, spy.calls[0].Params)
}

func TestGenerateDocumentKey(t *testing.T) {
	spy := newRPCSpy(map[string]string{
		"common_point":    "0xc0",
		"encrypted_key":   "0xee",
		"encrypted_point": "0xe0",
	}, "")
	c := spy.client(t)

	key, err := c.GenerateDocumentKey(context.Background(), "0xacc", "pwd", "aabb")
	require.NoError(t, err)
	assert.Equal(t, &secretstore.EncryptedDocumentKey{
		CommonPoint:    "0xc0",
		EncryptedKey:   "0xee",
		EncryptedPoint: "0xe0",
	}, key)

	require.Len(t, spy.calls, 1)
	assert.Equal(t, "secretstore_generateDocumentKey", spy.calls[0].Method)
	assert.Equal(t, []any{"0xacc", "pwd", "0xaabb"}, spy.calls[0].Params)
}

func TestEncryptParameterOrder(t *testing.T) {
	spy := newRPCSpy("0xencrypted", "")
	c := spy.client(t)

	encrypted, err := c.Encrypt(context.Background(), "0xacc", "pwd", "d0c", "4e7")
	require.NoError(t, err)
	assert.Equal(t, "0xencrypted", encrypted)

	require.Len(t, spy.calls, 1)
	assert.Equal(t, "secretstore_encrypt", spy.calls[0].Method)
	// The node expects the key before the document.
	assert.Equal(t, []any{"0xacc", "pwd", "0x4e7", "0xd0c"}, spy.calls[0].Params)
}

func TestDecryptParameterOrder(t *testing.T) {
	spy := newRPCSpy("0xdecrypted", "")
	c := spy.client(t)

	decrypted, err := c.Decrypt(context.Background(), "0xacc", "pwd", "enc", "4e7")
	require.NoError(t, err)
	assert.Equal(t, "0xdecrypted", decrypted)

	require.Len(t, spy.calls, 1)
	assert.Equal(t, "secretstore_decrypt", spy.calls[0].Method)
	assert.Equal(t, []any{"0xacc", "pwd", "0x4e7", "0xenc"}, spy.calls[0].Params)
}

func TestShadowDecryptCallingConventions(t *testing.T) {
	shadow := &secretstore.DocumentKeyShadow{
		DecryptedSecret: "01",
		CommonPoint:     "02",
		DecryptShadows:  []string{"0x03", "0x04"},
	}

	spy := newRPCSpy("0xdoc", "")
	c := spy.client(t)

	_, err := c.ShadowDecrypt(context.Background(), "0xacc", "pwd", "enc", secretstore.ShadowPortions{Shadow: shadow})
	require.NoError(t, err)
	_, err = c.ShadowDecrypt(context.Background(), "0xacc", "pwd", "enc", secretstore.ShadowPortions{
		DecryptedSecret: "01",
		CommonPoint:     "02",
		DecryptShadows:  []string{"0x03", "0x04"},
	})
	require.NoError(t, err)

	require.Len(t, spy.calls, 2)
	// Structured and discrete forms produce element-wise equal parameters.
	assert.Equal(t, spy.calls[0].Params, spy.calls[1].Params)
	assert.Equal(t, []any{
		"0xacc", "pwd", "0x01", "0x02", []any{"0x03", "0x04"}, "0xenc",
	}, spy.calls[0].Params)
}

func TestShadowDecryptValidatesBeforeRequest(t *testing.T) {
	spy := newRPCSpy("0xdoc", "")
	c := spy.client(t)

	_, err := c.ShadowDecrypt(context.Background(), "0xacc", "pwd", "enc", secretstore.ShadowPortions{})
	assert.ErrorIs(t, err, secretstore.ErrNoDocumentKeyParams)

	_, err = c.ShadowDecrypt(context.Background(), "0xacc", "pwd", "enc", secretstore.ShadowPortions{
		DecryptedSecret: "01",
	})
	assert.ErrorIs(t, err, secretstore.ErrNotEnoughPortions)

	assert.Empty(t, spy.calls)
}

func TestServersSetHash(t *testing.T) {
	spy := newRPCSpy("0xhash", "")
	c := spy.client(t)

	hash, err := c.ServersSetHash(context.Background(), []string{"0xaa", "0xbb"})
	require.NoError(t, err)
	assert.Equal(t, "0xhash", hash)

	require.Len(t, spy.calls, 1)
	assert.Equal(t, "secretstore_serversSetHash", spy.calls[0].Method)
	// The node IDs travel verbatim as a single array parameter.
	assert.Equal(t, []any{[]any{"0xaa", "0xbb"}}, spy.calls[0].Params)
}

func TestRPCErrorSurfaced(t *testing.T) {
	spy := newRPCSpy(nil, "account is locked")
	c := spy.client(t)

	_, err := c.SignRawHash(context.Background(), "0xacc", "pwd", "dead")
	require.Error(t, err)
	assert.EqualError(t, err, "account is locked")

	var rpcErr rpc.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32000, rpcErr.ErrorCode())
}
