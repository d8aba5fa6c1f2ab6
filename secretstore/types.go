// Package secretstore defines the shared types, hex transforms, and error
// taxonomy used by the session and RPC clients of a Secret Store cluster.
//
// All values crossing the wire are opaque hex-encoded strings; this package
// never interprets their cryptographic content. The session transport embeds
// identifiers in URL paths and therefore strips the "0x" marker, while the
// JSON-RPC transport requires it. The two normalization policies are part of
// the cluster's wire contract and must not be unified.
package secretstore

// EncryptedDocumentKey is a document key encrypted for external storage, as
// produced by the node's local document key generation.
type EncryptedDocumentKey struct {
	CommonPoint    string `json:"common_point"`
	EncryptedKey   string `json:"encrypted_key"`
	EncryptedPoint string `json:"encrypted_point"`
}

// DocumentKeyShadow is the three-part shadow representation of a document key
// returned by a shadow retrieval session. DecryptShadows is ordered; the
// order must be preserved when the portions are handed to a shadow decrypt
// call.
type DocumentKeyShadow struct {
	DecryptedSecret string   `json:"decrypted_secret"`
	CommonPoint     string   `json:"common_point"`
	DecryptShadows  []string `json:"decrypt_shadows"`
}

// StorePortions carries the document key material for a store session in
// either structured or discrete form. Set Key to use a generated
// EncryptedDocumentKey whole, or set CommonPoint and EncryptedPoint
// individually. Both forms produce an identical request.
type StorePortions struct {
	Key            *EncryptedDocumentKey
	CommonPoint    string
	EncryptedPoint string
}

// Normalize resolves the dual calling convention into the canonical
// (commonPoint, encryptedPoint) pair. It fails with ErrNoDocumentKeyParams
// when no material was given at all, and with ErrNotEnoughPortions when only
// part of the discrete set was given.
func (p StorePortions) Normalize() (commonPoint, encryptedPoint string, err error) {
	if p.Key != nil {
		return p.Key.CommonPoint, p.Key.EncryptedPoint, nil
	}
	if p.CommonPoint == "" && p.EncryptedPoint == "" {
		return "", "", ErrNoDocumentKeyParams
	}
	if p.CommonPoint == "" || p.EncryptedPoint == "" {
		return "", "", ErrNotEnoughPortions
	}
	return p.CommonPoint, p.EncryptedPoint, nil
}

// ShadowPortions carries the document key material for a shadow decrypt call
// in either structured or discrete form. Set Shadow to use a retrieved
// DocumentKeyShadow whole, or set the three discrete fields individually.
type ShadowPortions struct {
	Shadow          *DocumentKeyShadow
	DecryptedSecret string
	CommonPoint     string
	DecryptShadows  []string
}

// Normalize resolves the dual calling convention into the canonical
// (decryptedSecret, commonPoint, decryptShadows) triple, with the same
// validation rule as StorePortions.Normalize.
func (p ShadowPortions) Normalize() (secret, commonPoint string, shadows []string, err error) {
	if p.Shadow != nil {
		return p.Shadow.DecryptedSecret, p.Shadow.CommonPoint, p.Shadow.DecryptShadows, nil
	}
	if p.DecryptedSecret == "" && p.CommonPoint == "" && len(p.DecryptShadows) == 0 {
		return "", "", nil, ErrNoDocumentKeyParams
	}
	if p.DecryptedSecret == "" || p.CommonPoint == "" || len(p.DecryptShadows) == 0 {
		return "", "", nil, ErrNotEnoughPortions
	}
	return p.DecryptedSecret, p.CommonPoint, p.DecryptShadows, nil
}
