package mocknode

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/energywebfoundation/secretstore-go/secretstore"
)

// rpcMessage is the JSON-RPC 2.0 envelope used by the secretstore_* module.
type rpcMessage struct {
	Version string            `json:"jsonrpc"`
	ID      json.RawMessage   `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	Result  any               `json:"result,omitempty"`
	Error   *rpcError         `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// handleRPC serves the six secretstore_* methods. Results are derived
// deterministically from the parameters; encrypt remembers its input so
// decrypt and shadowDecrypt can return the original document.
func (n *Node) handleRPC(w http.ResponseWriter, r *http.Request) {
	var req rpcMessage
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON-RPC request", http.StatusBadRequest)
		return
	}

	result, err := n.dispatchRPC(&req)

	resp := rpcMessage{Version: "2.0", ID: req.ID}
	if err != nil {
		resp.Error = &rpcError{Code: -32000, Message: err.Error()}
	} else {
		resp.Result = result
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (n *Node) dispatchRPC(req *rpcMessage) (any, error) {
	switch req.Method {
	case "secretstore_signRawHash":
		account, _, rawHash, err := stringParams3(req.Params)
		if err != nil {
			return nil, err
		}
		return deriveHex("raw-signature", account, rawHash), nil

	case "secretstore_generateDocumentKey":
		account, _, serverKey, err := stringParams3(req.Params)
		if err != nil {
			return nil, err
		}
		return secretstore.EncryptedDocumentKey{
			CommonPoint:    deriveHex("common-point", account, serverKey),
			EncryptedKey:   deriveHex("encrypted-key", account, serverKey),
			EncryptedPoint: deriveHex("encrypted-point", account, serverKey),
		}, nil

	case "secretstore_encrypt":
		if len(req.Params) != 4 {
			return nil, fmt.Errorf("expected 4 parameters, got %d", len(req.Params))
		}
		var account, encryptedKey, document string
		if err := unmarshalParams(req.Params, &account, nil, &encryptedKey, &document); err != nil {
			return nil, err
		}
		ciphertext := deriveHex("ciphertext", encryptedKey, document)
		n.mu.Lock()
		n.plaintexts[ciphertext] = document
		n.mu.Unlock()
		return ciphertext, nil

	case "secretstore_decrypt":
		if len(req.Params) != 4 {
			return nil, fmt.Errorf("expected 4 parameters, got %d", len(req.Params))
		}
		var encryptedDocument string
		if err := unmarshalParams(req.Params, nil, nil, nil, &encryptedDocument); err != nil {
			return nil, err
		}
		return n.lookupPlaintext(encryptedDocument)

	case "secretstore_shadowDecrypt":
		if len(req.Params) != 6 {
			return nil, fmt.Errorf("expected 6 parameters, got %d", len(req.Params))
		}
		var shadows []string
		if err := json.Unmarshal(req.Params[4], &shadows); err != nil {
			return nil, fmt.Errorf("invalid decrypt shadows: %w", err)
		}
		if len(shadows) == 0 {
			return nil, fmt.Errorf("no decrypt shadows given")
		}
		var encryptedDocument string
		if err := json.Unmarshal(req.Params[5], &encryptedDocument); err != nil {
			return nil, fmt.Errorf("invalid encrypted document: %w", err)
		}
		return n.lookupPlaintext(encryptedDocument)

	case "secretstore_serversSetHash":
		if len(req.Params) != 1 {
			return nil, fmt.Errorf("expected 1 parameter, got %d", len(req.Params))
		}
		var nodeIDs []string
		if err := json.Unmarshal(req.Params[0], &nodeIDs); err != nil {
			return nil, fmt.Errorf("invalid node ID list: %w", err)
		}
		return deriveHex("set-hash", strings.Join(nodeIDs, ",")), nil

	default:
		return nil, fmt.Errorf("the method %s does not exist/is not available", req.Method)
	}
}

func (n *Node) lookupPlaintext(ciphertext string) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	document, exists := n.plaintexts[ciphertext]
	if !exists {
		return "", fmt.Errorf("document was not encrypted by this node")
	}
	return document, nil
}

func stringParams3(params []json.RawMessage) (a, b, c string, err error) {
	if len(params) != 3 {
		return "", "", "", fmt.Errorf("expected 3 parameters, got %d", len(params))
	}
	err = unmarshalParams(params, &a, &b, &c)
	return a, b, c, err
}

// unmarshalParams decodes positional string parameters; nil targets skip the
// position.
func unmarshalParams(params []json.RawMessage, targets ...*string) error {
	for i, target := range targets {
		if target == nil {
			continue
		}
		if err := json.Unmarshal(params[i], target); err != nil {
			return fmt.Errorf("invalid parameter %d: %w", i, err)
		}
	}
	return nil
}
