/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package local

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v3"
	"github.com/go-jose/go-jose/v3/jwt"

	"github.com/credbridge/credbridge/pkg/agent"
)

// Interaction token types.
const (
	CredentialOfferRequestType  = "credentialOfferRequest"
	CredentialOfferResponseType = "credentialOfferResponse"
	CredentialRequestType       = "credentialRequest"
	CredentialResponseType      = "credentialResponse"
	AuthenticationRequestType   = "authenticationRequest"
	AuthenticationResponseType  = "authenticationResponse"
	CredentialsReceiveType      = "credentialsReceive"
)

// ErrInvalidToken is wrapped by every token parsing or verification failure.
var ErrInvalidToken = errors.New("invalid interaction token")

// Token is a signed interaction token. The JWT id is the interaction id.
type Token struct {
	encoded string
	nonce   string
}

// Encode returns the compact JWT.
func (t *Token) Encode() string {
	return t.encoded
}

// Nonce returns the interaction id.
func (t *Token) Nonce() string {
	return t.nonce
}

// Payload is the interaction specific part of a token.
type Payload struct {
	InteractionType        string                        `json:"interactionType"`
	CallbackURL            string                        `json:"callbackURL,omitempty"`
	Description            string                        `json:"description,omitempty"`
	OfferedCredentials     []agent.OfferedCredential     `json:"offeredCredentials,omitempty"`
	SelectedCredentials    []agent.OfferedCredential     `json:"selectedCredentials,omitempty"`
	CredentialRequirements []agent.CredentialRequirement `json:"credentialRequirements,omitempty"`
	SuppliedCredentials    []*agent.SignedCredential     `json:"suppliedCredentials,omitempty"`
	SignedCredentials      []*agent.SignedCredential     `json:"signedCredentials,omitempty"`
}

// ParsedToken is a verified token.
type ParsedToken struct {
	Claims  jwt.Claims
	Payload Payload
	Raw     string
}

// Issuer returns the DID that signed the token.
func (p *ParsedToken) Issuer() string {
	return p.Claims.Issuer
}

type tokenSigner struct {
	signer jose.Signer
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func newTokenSigner(priv ed25519.PrivateKey, issuer, keyID string, ttl time.Duration,
	now func() time.Time) (*tokenSigner, error) {
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.EdDSA, Key: priv},
		(&jose.SignerOptions{}).WithType("JWT").WithHeader("kid", keyID))
	if err != nil {
		return nil, fmt.Errorf("create token signer: %w", err)
	}

	return &tokenSigner{signer: signer, issuer: issuer, ttl: ttl, now: now}, nil
}

func (s *tokenSigner) sign(id, audience string, payload *Payload) (*Token, error) {
	now := s.now()

	claims := jwt.Claims{
		ID:       id,
		Issuer:   s.issuer,
		IssuedAt: jwt.NewNumericDate(now),
		Expiry:   jwt.NewNumericDate(now.Add(s.ttl)),
	}

	if audience != "" {
		claims.Audience = jwt.Audience{audience}
	}

	encoded, err := jwt.Signed(s.signer).Claims(claims).Claims(payload).CompactSerialize()
	if err != nil {
		return nil, fmt.Errorf("sign %s token: %w", payload.InteractionType, err)
	}

	return &Token{encoded: encoded, nonce: id}, nil
}

// ParseToken verifies an interaction token against the did:key of its issuer and checks its
// validity period at now.
func ParseToken(encoded string, now time.Time) (*ParsedToken, error) {
	tok, err := jwt.ParseSigned(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var unverified jwt.Claims

	if err = tok.UnsafeClaimsWithoutVerification(&unverified); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	pub, err := PublicKeyFromDID(unverified.Issuer)
	if err != nil {
		return nil, fmt.Errorf("%w: issuer: %v", ErrInvalidToken, err)
	}

	parsed := &ParsedToken{Raw: encoded}

	if err = tok.Claims(pub, &parsed.Claims, &parsed.Payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if err = parsed.Claims.Validate(jwt.Expected{Time: now}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if parsed.Claims.ID == "" {
		return nil, fmt.Errorf("%w: missing jti", ErrInvalidToken)
	}

	return parsed, nil
}
