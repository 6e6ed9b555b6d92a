package server

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"rwdledger/crypto"
)

// requestDomain separates request digests from any other signed payload.
var requestDomain = []byte("rwd-request-v1")

var (
	errEnvelopeCaller    = errors.New("envelope: caller must be a rwd address")
	errEnvelopeSignature = errors.New("envelope: signature does not match caller")
	errEnvelopePayload   = errors.New("envelope: payload required")
)

// Envelope wraps every state-changing request. The signature is a 65-byte
// secp256k1 signature over RequestDigest, hex encoded.
type Envelope struct {
	Caller    string          `json:"caller"`
	Nonce     uint64          `json:"nonce"`
	Payload   json.RawMessage `json:"payload"`
	Signature string          `json:"signature"`
}

// RequestDigest binds a payload to the route, caller and nonce it was
// signed for.
func RequestDigest(method, path string, caller [20]byte, nonce uint64, payload []byte) []byte {
	var nonceBytes [8]byte
	binary.BigEndian.PutUint64(nonceBytes[:], nonce)
	return crypto.Keccak256(
		requestDomain,
		[]byte(strings.ToUpper(method)),
		[]byte(path),
		caller[:],
		nonceBytes[:],
		crypto.Keccak256(payload),
	)
}

// SignEnvelope builds a signed envelope for payload on behalf of key.
func SignEnvelope(key *crypto.PrivateKey, method, path string, nonce uint64, payload interface{}) (*Envelope, error) {
	if key == nil {
		return nil, fmt.Errorf("envelope: key required")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("envelope: encode payload: %w", err)
	}
	caller := key.PubKey().Address().Raw()
	sig, err := key.Sign(RequestDigest(method, path, caller, nonce, raw))
	if err != nil {
		return nil, fmt.Errorf("envelope: sign: %w", err)
	}
	return &Envelope{
		Caller:    crypto.Bech32(caller),
		Nonce:     nonce,
		Payload:   raw,
		Signature: hex.EncodeToString(sig),
	}, nil
}

// Verify recovers the signer and checks it matches the declared caller.
func (e *Envelope) Verify(method, path string) ([20]byte, error) {
	caller, err := crypto.ParseAddress(e.Caller)
	if err != nil {
		return [20]byte{}, fmt.Errorf("%w: %v", errEnvelopeCaller, err)
	}
	if len(e.Payload) == 0 {
		return [20]byte{}, errEnvelopePayload
	}
	sig, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(e.Signature), "0x"))
	if err != nil || len(sig) != crypto.SignatureLength {
		return [20]byte{}, fmt.Errorf("envelope: signature must be %d hex bytes", crypto.SignatureLength)
	}
	signer, err := crypto.RecoverAddress(RequestDigest(method, path, caller, e.Nonce, e.Payload), sig)
	if err != nil {
		return [20]byte{}, fmt.Errorf("envelope: recover signer: %w", err)
	}
	if signer != caller {
		return [20]byte{}, errEnvelopeSignature
	}
	return caller, nil
}
