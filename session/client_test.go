package session

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/energywebfoundation/secretstore-go/secretstore"
)

// recordedRequest captures one request seen by the spy node.
type recordedRequest struct {
	Method string
	Path   string
	Body   string
	Header http.Header
}

// spyNode is an httptest server recording every request and replying with a
// fixed status and body.
type spyNode struct {
	srv      *httptest.Server
	status   int
	body     string
	requests []recordedRequest
}

func newSpyNode(status int, body string) *spyNode {
	spy := &spyNode{status: status, body: body}
	spy.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqBody, _ := io.ReadAll(r.Body)
		spy.requests = append(spy.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Body:   string(reqBody),
			Header: r.Header.Clone(),
		})
		w.WriteHeader(spy.status)
		w.Write([]byte(spy.body))
	}))
	return spy
}

func (spy *spyNode) client(t *testing.T, opts *ClientOptions) *Client {
	t.Cleanup(spy.srv.Close)
	c, err := NewClient(spy.srv.URL, opts)
	require.NoError(t, err)
	return c
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient("", nil)
	assert.ErrorIs(t, err, secretstore.ErrNoBaseURL)

	c, err := NewClient("http://host:8090/", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://host:8090", c.BaseURL())

	// Only a single trailing slash is stripped.
	c, err = NewClient("http://host:8090//", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://host:8090/", c.BaseURL())
}

func TestGenerateServerKey(t *testing.T) {
	spy := newSpyNode(http.StatusOK, "0xaabb")
	c := spy.client(t, nil)

	serverKey, err := c.GenerateServerKey(context.Background(), "0xdead", "0xbeef", 2)
	require.NoError(t, err)
	assert.Equal(t, "0xaabb", serverKey)

	require.Len(t, spy.requests, 1)
	assert.Equal(t, http.MethodPost, spy.requests[0].Method)
	assert.Equal(t, "/shadow/dead/beef/2", spy.requests[0].Path)
	assert.Empty(t, spy.requests[0].Body)
}

func TestGenerateServerKeyUnquotesResponse(t *testing.T) {
	spy := newSpyNode(http.StatusOK, `"0xaabb"`)
	c := spy.client(t, nil)

	serverKey, err := c.GenerateServerKey(context.Background(), "0xdead", "0xbeef", 2)
	require.NoError(t, err)
	assert.Equal(t, "0xaabb", serverKey)
}

func TestSessionErrorMessage(t *testing.T) {
	spy := newSpyNode(http.StatusInternalServerError, `"boom"`)
	c := spy.client(t, nil)

	_, err := c.GenerateServerKey(context.Background(), "0xdead", "0xbeef", 2)
	require.Error(t, err)

	var sessionErr *secretstore.Error
	require.ErrorAs(t, err, &sessionErr)
	assert.Equal(t, "Internal Server Error (500): boom", sessionErr.Message)

	// Meta carries the request that failed.
	reqInfo, ok := sessionErr.Meta.(secretstore.RequestInfo)
	require.True(t, ok)
	assert.Equal(t, http.MethodPost, reqInfo.Method)
	assert.Equal(t, spy.srv.URL+"/shadow/dead/beef/2", reqInfo.URL)
}

func TestRetrieveServerKeyPublic(t *testing.T) {
	spy := newSpyNode(http.StatusOK, `"0xaabb"`)
	c := spy.client(t, nil)

	serverKey, err := c.RetrieveServerKeyPublic(context.Background(), "0xdead", "0xbeef")
	require.NoError(t, err)
	assert.Equal(t, "0xaabb", serverKey)

	require.Len(t, spy.requests, 1)
	assert.Equal(t, http.MethodGet, spy.requests[0].Method)
	assert.Equal(t, "/server/dead/beef", spy.requests[0].Path)
}

func TestStoreDocumentKeyCallingConventions(t *testing.T) {
	// Both forms must produce an identical outgoing request.
	structured := newSpyNode(http.StatusOK, "")
	c := structured.client(t, nil)
	_, err := c.StoreDocumentKey(context.Background(), "0xdead", "0xbeef", secretstore.StorePortions{
		Key: &secretstore.EncryptedDocumentKey{CommonPoint: "c", EncryptedPoint: "e", EncryptedKey: "k"},
	})
	require.NoError(t, err)

	discrete := newSpyNode(http.StatusOK, "")
	c = discrete.client(t, nil)
	_, err = c.StoreDocumentKey(context.Background(), "0xdead", "0xbeef", secretstore.StorePortions{
		CommonPoint:    "c",
		EncryptedPoint: "e",
	})
	require.NoError(t, err)

	require.Len(t, structured.requests, 1)
	require.Len(t, discrete.requests, 1)
	assert.Equal(t, structured.requests[0], discrete.requests[0])
	assert.Equal(t, "/shadow/dead/beef/c/e", structured.requests[0].Path)
	assert.Equal(t, http.MethodPost, structured.requests[0].Method)
}

func TestStoreDocumentKeyValidatesBeforeRequest(t *testing.T) {
	spy := newSpyNode(http.StatusOK, "")
	c := spy.client(t, nil)

	_, err := c.StoreDocumentKey(context.Background(), "0xdead", "0xbeef", secretstore.StorePortions{
		EncryptedPoint: "pt",
	})
	assert.ErrorIs(t, err, secretstore.ErrNotEnoughPortions)

	_, err = c.StoreDocumentKey(context.Background(), "0xdead", "0xbeef", secretstore.StorePortions{})
	assert.ErrorIs(t, err, secretstore.ErrNoDocumentKeyParams)

	// Malformed input never reaches the network.
	assert.Empty(t, spy.requests)
}

func TestStoreDocumentKeyReturnsRawBody(t *testing.T) {
	spy := newSpyNode(http.StatusOK, `"stored"`)
	c := spy.client(t, nil)

	body, err := c.StoreDocumentKey(context.Background(), "0xdead", "0xbeef", secretstore.StorePortions{
		CommonPoint:    "c",
		EncryptedPoint: "e",
	})
	require.NoError(t, err)
	// Store sessions surface the body as-is, with no unquoting.
	assert.Equal(t, `"stored"`, body)
}

func TestGenerateServerAndDocumentKey(t *testing.T) {
	spy := newSpyNode(http.StatusOK, `"0xdoc"`)
	c := spy.client(t, nil)

	documentKey, err := c.GenerateServerAndDocumentKey(context.Background(), "0xdead", "0xbeef", 3)
	require.NoError(t, err)
	assert.Equal(t, "0xdoc", documentKey)

	require.Len(t, spy.requests, 1)
	assert.Equal(t, http.MethodPost, spy.requests[0].Method)
	assert.Equal(t, "/dead/beef/3", spy.requests[0].Path)
}

func TestShadowRetrieveDocumentKey(t *testing.T) {
	spy := newSpyNode(http.StatusOK, `{"decrypted_secret":"0x01","common_point":"0x02","decrypt_shadows":["0x03","0x04"]}`)
	c := spy.client(t, nil)

	shadow, err := c.ShadowRetrieveDocumentKey(context.Background(), "0xdead", "0xbeef")
	require.NoError(t, err)
	assert.Equal(t, "0x01", shadow.DecryptedSecret)
	assert.Equal(t, "0x02", shadow.CommonPoint)
	assert.Equal(t, []string{"0x03", "0x04"}, shadow.DecryptShadows)

	require.Len(t, spy.requests, 1)
	assert.Equal(t, http.MethodGet, spy.requests[0].Method)
	assert.Equal(t, "/shadow/dead/beef", spy.requests[0].Path)
}

func TestRetrieveDocumentKey(t *testing.T) {
	spy := newSpyNode(http.StatusOK, `"0xkey"`)
	c := spy.client(t, nil)

	documentKey, err := c.RetrieveDocumentKey(context.Background(), "0xdead", "0xbeef")
	require.NoError(t, err)
	assert.Equal(t, "0xkey", documentKey)

	require.Len(t, spy.requests, 1)
	assert.Equal(t, http.MethodGet, spy.requests[0].Method)
	assert.Equal(t, "/dead/beef", spy.requests[0].Path)
}

func TestSigningEmbedsMessageHashVerbatim(t *testing.T) {
	spy := newSpyNode(http.StatusOK, `"0xsig"`)
	c := spy.client(t, nil)

	_, err := c.SignSchnorr(context.Background(), "0xdead", "0xbeef", "0xf00d")
	require.NoError(t, err)
	_, err = c.SignEcdsa(context.Background(), "0xdead", "0xbeef", "0xf00d")
	require.NoError(t, err)

	require.Len(t, spy.requests, 2)
	// The message hash keeps its prefix; only the identifiers are stripped.
	assert.Equal(t, "/schnorr/dead/beef/0xf00d", spy.requests[0].Path)
	assert.Equal(t, "/ecdsa/dead/beef/0xf00d", spy.requests[1].Path)
	assert.Equal(t, http.MethodGet, spy.requests[0].Method)
}

func TestNodesSetChange(t *testing.T) {
	spy := newSpyNode(http.StatusOK, `"migration started"`)
	c := spy.client(t, nil)

	result, err := c.NodesSetChange(context.Background(), []string{"0xaa", "0xbb"}, "0x11", "0x22")
	require.NoError(t, err)
	assert.Equal(t, "migration started", result)

	require.Len(t, spy.requests, 1)
	assert.Equal(t, http.MethodPost, spy.requests[0].Method)
	assert.Equal(t, "/admin/servers_set_change/11/22", spy.requests[0].Path)
	// The new node set travels verbatim as the JSON body.
	assert.JSONEq(t, `["0xaa","0xbb"]`, spy.requests[0].Body)
	assert.Equal(t, "application/json", spy.requests[0].Header.Get("Content-Type"))
}

func TestDefaultHeadersMergedIntoEveryRequest(t *testing.T) {
	spy := newSpyNode(http.StatusOK, `"0xaabb"`)
	c := spy.client(t, &ClientOptions{
		Header: http.Header{"Authorization": []string{"Bearer token"}},
	})

	_, err := c.RetrieveServerKeyPublic(context.Background(), "0xdead", "0xbeef")
	require.NoError(t, err)

	require.Len(t, spy.requests, 1)
	assert.Equal(t, "Bearer token", spy.requests[0].Header.Get("Authorization"))
}
