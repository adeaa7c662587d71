/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package local

import (
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/multiformats/go-multibase"
)

const (
	didKeyPrefix = "did:key:"
	// multicodec prefix of an ed25519 public key (varint of 0xed).
	ed25519Codec0 = 0xed
	ed25519Codec1 = 0x01
)

// CreateDIDKey returns the did:key DID of an ed25519 public key and the id of its verification key.
func CreateDIDKey(pub ed25519.PublicKey) (string, string, error) {
	if len(pub) != ed25519.PublicKeySize {
		return "", "", fmt.Errorf("invalid ed25519 public key size %d", len(pub))
	}

	fingerprint, err := multibase.Encode(multibase.Base58BTC, append([]byte{ed25519Codec0, ed25519Codec1}, pub...))
	if err != nil {
		return "", "", fmt.Errorf("encode key fingerprint: %w", err)
	}

	did := didKeyPrefix + fingerprint

	return did, did + "#" + fingerprint, nil
}

// PublicKeyFromDID extracts the ed25519 public key embedded in a did:key DID or key id.
func PublicKeyFromDID(did string) (ed25519.PublicKey, error) {
	if !strings.HasPrefix(did, didKeyPrefix) {
		return nil, fmt.Errorf("not a did:key DID: %q", did)
	}

	fingerprint := strings.TrimPrefix(did, didKeyPrefix)
	if i := strings.IndexByte(fingerprint, '#'); i >= 0 {
		fingerprint = fingerprint[:i]
	}

	enc, data, err := multibase.Decode(fingerprint)
	if err != nil {
		return nil, fmt.Errorf("decode key fingerprint: %w", err)
	}

	if enc != multibase.Base58BTC {
		return nil, fmt.Errorf("unexpected multibase encoding %q", string(rune(enc)))
	}

	if len(data) != ed25519.PublicKeySize+2 || data[0] != ed25519Codec0 || data[1] != ed25519Codec1 {
		return nil, fmt.Errorf("did %s does not carry an ed25519 key", did)
	}

	return ed25519.PublicKey(data[2:]), nil
}
