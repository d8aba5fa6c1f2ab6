package rpcapi

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/energywebfoundation/secretstore-go/secretstore"
)

// Client talks to the secretstore_* JSON-RPC module of a single trusted node.
// Hex-valued parameters are normalized to carry the "0x" marker before they
// are sent, per the JSON-RPC wire convention. The client holds only the
// transport handle fixed at construction and is safe for concurrent use.
//
// A non-empty error field in any response surfaces as the typed error
// returned by the transport; the client performs no retries.
type Client struct {
	rpc *rpc.Client
}

// NewClient dials the JSON-RPC endpoint at rawurl and wraps it. Fails with
// secretstore.ErrNoTransport when rawurl is empty.
func NewClient(rawurl string) (*Client, error) {
	if rawurl == "" {
		return nil, secretstore.ErrNoTransport
	}

	transport, err := rpc.Dial(rawurl)
	if err != nil {
		return nil, fmt.Errorf("could not dial RPC endpoint: %w", err)
	}
	return &Client{rpc: transport}, nil
}

// NewClientWithTransport wraps an already-dialed JSON-RPC transport. Fails
// with secretstore.ErrNoTransport when transport is nil.
func NewClientWithTransport(transport *rpc.Client) (*Client, error) {
	if transport == nil {
		return nil, secretstore.ErrNoTransport
	}
	return &Client{rpc: transport}, nil
}

// Close closes the underlying transport.
func (c *Client) Close() {
	c.rpc.Close()
}

// SignRawHash signs a 256-bit hash with the account's key, producing the
// signed identifier consumed by session operations.
func (c *Client) SignRawHash(ctx context.Context, account, password, rawHash string) (string, error) {
	var signature string
	err := c.rpc.CallContext(ctx, &signature, "secretstore_signRawHash",
		account, password, secretstore.Ensure0x(rawHash))
	return signature, err
}

// GenerateDocumentKey generates a document key locally, encrypted with the
// given server key for later storage in the cluster.
func (c *Client) GenerateDocumentKey(ctx context.Context, account, password, serverKey string) (*secretstore.EncryptedDocumentKey, error) {
	var key secretstore.EncryptedDocumentKey
	err := c.rpc.CallContext(ctx, &key, "secretstore_generateDocumentKey",
		account, password, secretstore.Ensure0x(serverKey))
	if err != nil {
		return nil, err
	}
	return &key, nil
}

// Encrypt encrypts a hex-encoded document with an encrypted document key.
// The node expects the key before the document on the wire.
func (c *Client) Encrypt(ctx context.Context, account, password, document, encryptedDocumentKey string) (string, error) {
	var encrypted string
	err := c.rpc.CallContext(ctx, &encrypted, "secretstore_encrypt",
		account, password, secretstore.Ensure0x(encryptedDocumentKey), secretstore.Ensure0x(document))
	return encrypted, err
}

// Decrypt decrypts a document with a document key retrieved from the cluster.
func (c *Client) Decrypt(ctx context.Context, account, password, encryptedDocument, encryptedDocumentKey string) (string, error) {
	var decrypted string
	err := c.rpc.CallContext(ctx, &decrypted, "secretstore_decrypt",
		account, password, secretstore.Ensure0x(encryptedDocumentKey), secretstore.Ensure0x(encryptedDocument))
	return decrypted, err
}

// ShadowDecrypt decrypts a document using key material retrieved in shadow
// form. The material is accepted either as a whole
// secretstore.DocumentKeyShadow or as its discrete fields; an incomplete
// combination fails locally before any request is issued. The decrypt
// shadows are passed through in order, unmodified.
func (c *Client) ShadowDecrypt(ctx context.Context, account, password, encryptedDocument string, portions secretstore.ShadowPortions) (string, error) {
	decryptedSecret, commonPoint, decryptShadows, err := portions.Normalize()
	if err != nil {
		return "", err
	}

	var decrypted string
	err = c.rpc.CallContext(ctx, &decrypted, "secretstore_shadowDecrypt",
		account, password,
		secretstore.Ensure0x(decryptedSecret), secretstore.Ensure0x(commonPoint),
		decryptShadows, secretstore.Ensure0x(encryptedDocument))
	return decrypted, err
}

// ServersSetHash computes the hash of a node set, to be signed by the cluster
// admin before a servers set change session. The node IDs are passed through
// verbatim, with no prefix normalization.
func (c *Client) ServersSetHash(ctx context.Context, nodeIDs []string) (string, error) {
	var hash string
	err := c.rpc.CallContext(ctx, &hash, "secretstore_serversSetHash", nodeIDs)
	return hash, err
}
