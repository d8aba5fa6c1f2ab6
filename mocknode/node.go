package mocknode

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/go-chi/chi/v5"

	"github.com/energywebfoundation/secretstore-go/secretstore"
)

// Node is an in-memory stand-in for a Secret Store cluster node. It serves
// both the HTTP session API and the secretstore_* JSON-RPC module with
// deterministic keccak-derived key material, so client code can be exercised
// end to end without a running cluster. None of the material it produces is
// cryptographically meaningful.
type Node struct {
	mu           sync.Mutex
	serverKeys   map[string]serverKeyEntry
	documentKeys map[string]secretstore.EncryptedDocumentKey
	// plaintexts maps mock ciphertexts back to the documents they were
	// derived from, so decrypt and shadowDecrypt can invert encrypt.
	plaintexts map[string]string
}

type serverKeyEntry struct {
	publicKey string
	threshold uint
}

// NewNode creates an empty mock node.
func NewNode() *Node {
	return &Node{
		serverKeys:   make(map[string]serverKeyEntry),
		documentKeys: make(map[string]secretstore.EncryptedDocumentKey),
		plaintexts:   make(map[string]string),
	}
}

// deriveHex produces a deterministic 32-byte hex value from the given parts.
func deriveHex(parts ...string) string {
	return crypto.Keccak256Hash([]byte(strings.Join(parts, "|"))).Hex()
}

// RegisterRoutes attaches the session API and the JSON-RPC endpoint to mux.
// The path shapes mirror the cluster node contract: identifiers arrive as
// bare hex path segments, responses are JSON-encoded strings or objects.
func (n *Node) RegisterRoutes(mux chi.Router) {
	mux.Post("/shadow/{serverKeyID}/{signedServerKeyID}/{threshold}", n.handleGenerateServerKey)
	mux.Get("/server/{serverKeyID}/{signedServerKeyID}", n.handleRetrieveServerKeyPublic)
	mux.Post("/shadow/{serverKeyID}/{signedServerKeyID}/{commonPoint}/{encryptedPoint}", n.handleStoreDocumentKey)
	mux.Post("/{serverKeyID}/{signedServerKeyID}/{threshold}", n.handleGenerateServerAndDocumentKey)
	mux.Get("/shadow/{serverKeyID}/{signedServerKeyID}", n.handleShadowRetrieveDocumentKey)
	mux.Get("/{serverKeyID}/{signedServerKeyID}", n.handleRetrieveDocumentKey)
	mux.Get("/schnorr/{serverKeyID}/{signedServerKeyID}/{messageHash}", n.handleSignSchnorr)
	mux.Get("/ecdsa/{serverKeyID}/{signedServerKeyID}/{messageHash}", n.handleSignEcdsa)
	mux.Post("/admin/servers_set_change/{signedOldSetHash}/{signedNewSetHash}", n.handleNodesSetChange)
	mux.Post("/", n.handleRPC)
}

// writeQuoted writes value as a JSON string body, the way the real node
// returns plain string results.
func writeQuoted(w http.ResponseWriter, value string) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(strconv.Quote(value)))
}

func writeSessionError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(strconv.Quote(msg)))
}

func (n *Node) handleGenerateServerKey(w http.ResponseWriter, r *http.Request) {
	keyID := chi.URLParam(r, "serverKeyID")
	threshold, err := strconv.ParseUint(chi.URLParam(r, "threshold"), 10, 32)
	if err != nil {
		writeSessionError(w, http.StatusBadRequest, "invalid threshold")
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if _, exists := n.serverKeys[keyID]; exists {
		writeSessionError(w, http.StatusForbidden, "Server key with this ID is already stored")
		return
	}

	entry := serverKeyEntry{
		publicKey: deriveHex("server-key", keyID),
		threshold: uint(threshold),
	}
	n.serverKeys[keyID] = entry
	writeQuoted(w, entry.publicKey)
}

func (n *Node) handleRetrieveServerKeyPublic(w http.ResponseWriter, r *http.Request) {
	keyID := chi.URLParam(r, "serverKeyID")

	n.mu.Lock()
	defer n.mu.Unlock()
	entry, exists := n.serverKeys[keyID]
	if !exists {
		writeSessionError(w, http.StatusNotFound, "Server key is not found")
		return
	}
	writeQuoted(w, entry.publicKey)
}

func (n *Node) handleStoreDocumentKey(w http.ResponseWriter, r *http.Request) {
	keyID := chi.URLParam(r, "serverKeyID")
	commonPoint := chi.URLParam(r, "commonPoint")
	encryptedPoint := chi.URLParam(r, "encryptedPoint")

	n.mu.Lock()
	defer n.mu.Unlock()
	if _, exists := n.serverKeys[keyID]; !exists {
		writeSessionError(w, http.StatusNotFound, "Server key is not found")
		return
	}
	if _, exists := n.documentKeys[keyID]; exists {
		writeSessionError(w, http.StatusForbidden, "Document key with this ID is already stored")
		return
	}

	n.documentKeys[keyID] = secretstore.EncryptedDocumentKey{
		CommonPoint:    secretstore.Ensure0x(commonPoint),
		EncryptedKey:   deriveHex("encrypted-key", keyID, commonPoint, encryptedPoint),
		EncryptedPoint: secretstore.Ensure0x(encryptedPoint),
	}
	writeQuoted(w, "")
}

func (n *Node) handleGenerateServerAndDocumentKey(w http.ResponseWriter, r *http.Request) {
	keyID := chi.URLParam(r, "serverKeyID")
	threshold, err := strconv.ParseUint(chi.URLParam(r, "threshold"), 10, 32)
	if err != nil {
		writeSessionError(w, http.StatusBadRequest, "invalid threshold")
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if _, exists := n.serverKeys[keyID]; exists {
		writeSessionError(w, http.StatusForbidden, "Server key with this ID is already stored")
		return
	}

	n.serverKeys[keyID] = serverKeyEntry{
		publicKey: deriveHex("server-key", keyID),
		threshold: uint(threshold),
	}
	docKey := secretstore.EncryptedDocumentKey{
		CommonPoint:    deriveHex("common-point", keyID),
		EncryptedKey:   deriveHex("encrypted-key", keyID),
		EncryptedPoint: deriveHex("encrypted-point", keyID),
	}
	n.documentKeys[keyID] = docKey
	writeQuoted(w, docKey.EncryptedKey)
}

func (n *Node) handleShadowRetrieveDocumentKey(w http.ResponseWriter, r *http.Request) {
	keyID := chi.URLParam(r, "serverKeyID")

	n.mu.Lock()
	defer n.mu.Unlock()
	docKey, exists := n.documentKeys[keyID]
	if !exists {
		writeSessionError(w, http.StatusNotFound, "Document key is not found")
		return
	}

	shadow := secretstore.DocumentKeyShadow{
		DecryptedSecret: deriveHex("decrypted-secret", keyID),
		CommonPoint:     docKey.CommonPoint,
		DecryptShadows: []string{
			deriveHex("decrypt-shadow", keyID, "0"),
			deriveHex("decrypt-shadow", keyID, "1"),
		},
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(shadow)
}

func (n *Node) handleRetrieveDocumentKey(w http.ResponseWriter, r *http.Request) {
	keyID := chi.URLParam(r, "serverKeyID")

	n.mu.Lock()
	defer n.mu.Unlock()
	docKey, exists := n.documentKeys[keyID]
	if !exists {
		writeSessionError(w, http.StatusNotFound, "Document key is not found")
		return
	}
	writeQuoted(w, docKey.EncryptedKey)
}

func (n *Node) handleSignSchnorr(w http.ResponseWriter, r *http.Request) {
	n.handleSign(w, r, "schnorr")
}

func (n *Node) handleSignEcdsa(w http.ResponseWriter, r *http.Request) {
	n.handleSign(w, r, "ecdsa")
}

func (n *Node) handleSign(w http.ResponseWriter, r *http.Request, scheme string) {
	keyID := chi.URLParam(r, "serverKeyID")
	messageHash := chi.URLParam(r, "messageHash")

	n.mu.Lock()
	defer n.mu.Unlock()
	if _, exists := n.serverKeys[keyID]; !exists {
		writeSessionError(w, http.StatusNotFound, "Server key is not found")
		return
	}
	writeQuoted(w, deriveHex(scheme, keyID, messageHash))
}

func (n *Node) handleNodesSetChange(w http.ResponseWriter, r *http.Request) {
	var newNodeSet []string
	if err := json.NewDecoder(r.Body).Decode(&newNodeSet); err != nil {
		writeSessionError(w, http.StatusBadRequest, "invalid node set body")
		return
	}
	if len(newNodeSet) == 0 {
		writeSessionError(w, http.StatusBadRequest, "empty node set")
		return
	}
	writeQuoted(w, fmt.Sprintf("migration to %d nodes started", len(newNodeSet)))
}
