package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/energywebfoundation/secretstore-go/secretstore"
)

// ClientOptions carries optional transport-level defaults applied to every
// request issued by the client. The request method, URL, and body are always
// set per call and cannot be overridden here.
type ClientOptions struct {
	// HTTPClient issues the requests. Timeouts and other transport limits
	// are configured here; the session client itself imposes none.
	HTTPClient *http.Client

	// Header holds default headers merged into every request.
	Header http.Header
}

// Client talks to a Secret Store cluster node's HTTP session API. It holds no
// per-call state beyond the base URL and transport defaults fixed at
// construction, so a single instance is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	header     http.Header
}

// NewClient creates a session client for the cluster node at baseURL. A
// single trailing slash is stripped. Fails with secretstore.ErrNoBaseURL when
// baseURL is empty. opts may be nil.
func NewClient(baseURL string, opts *ClientOptions) (*Client, error) {
	if baseURL == "" {
		return nil, secretstore.ErrNoBaseURL
	}

	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	if opts != nil {
		if opts.HTTPClient != nil {
			c.httpClient = opts.HTTPClient
		}
		c.header = opts.Header
	}
	return c, nil
}

// BaseURL returns the normalized cluster node URL the client was constructed
// with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GenerateServerKey runs a server key generation session and returns the hex
// public portion of the generated server key.
func (c *Client) GenerateServerKey(ctx context.Context, serverKeyID, signedServerKeyID string, threshold uint) (string, error) {
	url := fmt.Sprintf("%s/shadow/%s/%s/%d", c.baseURL, secretstore.Remove0x(serverKeyID), secretstore.Remove0x(signedServerKeyID), threshold)
	body, err := c.do(ctx, http.MethodPost, url, nil)
	if err != nil {
		return "", err
	}
	return secretstore.StripEnclosingQuotes(body), nil
}

// RetrieveServerKeyPublic retrieves the public portion of a previously
// generated server key.
func (c *Client) RetrieveServerKeyPublic(ctx context.Context, serverKeyID, signedServerKeyID string) (string, error) {
	url := fmt.Sprintf("%s/server/%s/%s", c.baseURL, secretstore.Remove0x(serverKeyID), secretstore.Remove0x(signedServerKeyID))
	body, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	return secretstore.StripEnclosingQuotes(body), nil
}

// StoreDocumentKey binds an externally generated document key to a server
// key. The key material is accepted either as a whole
// secretstore.EncryptedDocumentKey or as discrete common point and encrypted
// point fields; an incomplete combination fails locally before any request is
// issued.
func (c *Client) StoreDocumentKey(ctx context.Context, serverKeyID, signedServerKeyID string, portions secretstore.StorePortions) (string, error) {
	commonPoint, encryptedPoint, err := portions.Normalize()
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/shadow/%s/%s/%s/%s", c.baseURL,
		secretstore.Remove0x(serverKeyID), secretstore.Remove0x(signedServerKeyID),
		secretstore.Remove0x(commonPoint), secretstore.Remove0x(encryptedPoint))
	return c.do(ctx, http.MethodPost, url, nil)
}

// GenerateServerAndDocumentKey runs a combined session generating a server
// key and a document key bound to it, returning the hex document key.
func (c *Client) GenerateServerAndDocumentKey(ctx context.Context, serverKeyID, signedServerKeyID string, threshold uint) (string, error) {
	url := fmt.Sprintf("%s/%s/%s/%d", c.baseURL, secretstore.Remove0x(serverKeyID), secretstore.Remove0x(signedServerKeyID), threshold)
	body, err := c.do(ctx, http.MethodPost, url, nil)
	if err != nil {
		return "", err
	}
	return secretstore.StripEnclosingQuotes(body), nil
}

// ShadowRetrieveDocumentKey retrieves a document key in shadow form: the
// material arrives split into portions that must be combined client-side by a
// shadow decrypt call, so the key is never reconstructed on a single node.
func (c *Client) ShadowRetrieveDocumentKey(ctx context.Context, serverKeyID, signedServerKeyID string) (*secretstore.DocumentKeyShadow, error) {
	url := fmt.Sprintf("%s/shadow/%s/%s", c.baseURL, secretstore.Remove0x(serverKeyID), secretstore.Remove0x(signedServerKeyID))
	body, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	var shadow secretstore.DocumentKeyShadow
	if err := json.Unmarshal([]byte(body), &shadow); err != nil {
		return nil, fmt.Errorf("could not parse shadow retrieval response: %w", err)
	}
	return &shadow, nil
}

// RetrieveDocumentKey retrieves a document key reconstructed by the cluster,
// encrypted with the requester's public key.
func (c *Client) RetrieveDocumentKey(ctx context.Context, serverKeyID, signedServerKeyID string) (string, error) {
	url := fmt.Sprintf("%s/%s/%s", c.baseURL, secretstore.Remove0x(serverKeyID), secretstore.Remove0x(signedServerKeyID))
	body, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	return secretstore.StripEnclosingQuotes(body), nil
}

// SignSchnorr runs a Schnorr signing session over messageHash with the server
// key. The message hash is embedded in the URL exactly as given, with no
// prefix normalization.
func (c *Client) SignSchnorr(ctx context.Context, serverKeyID, signedServerKeyID, messageHash string) (string, error) {
	url := fmt.Sprintf("%s/schnorr/%s/%s/%s", c.baseURL, secretstore.Remove0x(serverKeyID), secretstore.Remove0x(signedServerKeyID), messageHash)
	body, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	return secretstore.StripEnclosingQuotes(body), nil
}

// SignEcdsa runs an ECDSA signing session over messageHash with the server
// key. The message hash is embedded in the URL exactly as given, with no
// prefix normalization.
func (c *Client) SignEcdsa(ctx context.Context, serverKeyID, signedServerKeyID, messageHash string) (string, error) {
	url := fmt.Sprintf("%s/ecdsa/%s/%s/%s", c.baseURL, secretstore.Remove0x(serverKeyID), secretstore.Remove0x(signedServerKeyID), messageHash)
	body, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	return secretstore.StripEnclosingQuotes(body), nil
}

// NodesSetChange starts a servers set change session migrating key shares to
// the given new node set. The signed hashes of the old and new sets are
// expected to be precomputed by the caller (see rpcapi.Client.ServersSetHash
// and SignRawHash).
func (c *Client) NodesSetChange(ctx context.Context, newNodeSet []string, signedOldSetHash, signedNewSetHash string) (string, error) {
	reqBody, err := json.Marshal(newNodeSet)
	if err != nil {
		return "", fmt.Errorf("could not marshal node set: %w", err)
	}

	url := fmt.Sprintf("%s/admin/servers_set_change/%s/%s", c.baseURL,
		secretstore.Remove0x(signedOldSetHash), secretstore.Remove0x(signedNewSetHash))
	body, err := c.do(ctx, http.MethodPost, url, reqBody)
	if err != nil {
		return "", err
	}
	return secretstore.StripEnclosingQuotes(body), nil
}

// do issues a single request and applies the uniform response pipeline: a
// non-2xx status becomes a secretstore.Error carrying the composed message
// and the failing request as Meta, transport failures propagate wrapped, and
// a success body is returned whitespace-trimmed for the caller to transform.
func (c *Client) do(ctx context.Context, method, url string, reqBody []byte) (string, error) {
	var reader io.Reader
	if reqBody != nil {
		reader = bytes.NewReader(reqBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return "", fmt.Errorf("could not initialize request: %w", err)
	}

	for name, values := range c.header {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("could not request secret store node: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("could not read node response: %w", err)
	}
	body := strings.TrimSpace(string(raw))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", &secretstore.Error{
			Message: fmt.Sprintf("%s (%d): %s", http.StatusText(resp.StatusCode), resp.StatusCode, secretstore.StripEnclosingQuotes(body)),
			Meta:    secretstore.RequestInfo{Method: method, URL: url, Body: string(reqBody)},
		}
	}

	return body, nil
}
