/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package local

import (
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v3"
	"github.com/google/uuid"

	"github.com/credbridge/credbridge/pkg/agent"
)

const (
	// ProofType is the proof type of issued credentials.
	ProofType = "Ed25519Signature2018"

	credentialsContext = "https://w3id.org/credentials/v1"
	credentialIDPrefix = "claimId:"
	// DefaultCredentialValidity is how long an issued credential stays valid.
	DefaultCredentialValidity = 365 * 24 * time.Hour
)

// ErrInvalidProof is returned when a credential proof does not verify.
var ErrInvalidProof = errors.New("invalid credential proof")

type credentialSigner struct {
	signer   jose.Signer
	issuer   string
	keyID    string
	validity time.Duration
	now      func() time.Time
}

func newCredentialSigner(priv ed25519.PrivateKey, issuer, keyID string, validity time.Duration,
	now func() time.Time) (*credentialSigner, error) {
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.EdDSA, Key: priv},
		(&jose.SignerOptions{}).WithHeader("kid", keyID))
	if err != nil {
		return nil, fmt.Errorf("create credential signer: %w", err)
	}

	return &credentialSigner{signer: signer, issuer: issuer, keyID: keyID, validity: validity, now: now}, nil
}

func (s *credentialSigner) sign(req *agent.CredentialSigningRequest) (*agent.SignedCredential, error) {
	if req == nil || len(req.Metadata.Type) == 0 {
		return nil, errors.New("credential metadata requires a type")
	}

	if req.Subject == "" {
		return nil, errors.New("credential requires a subject")
	}

	now := s.now().UTC().Truncate(time.Second)
	expires := now.Add(s.validity)

	claim := make(map[string]interface{}, len(req.Claim)+1)
	for k, v := range req.Claim {
		claim[k] = v
	}

	claim["id"] = req.Subject

	cred := &agent.SignedCredential{
		Context:        append([]interface{}{credentialsContext}, req.Metadata.Context...),
		ID:             credentialIDPrefix + uuid.New().String(),
		Name:           req.Metadata.Name,
		Issuer:         s.issuer,
		Type:           req.Metadata.Type,
		Claim:          claim,
		IssuanceDate:   now,
		ExpirationDate: &expires,
	}

	payload, err := signingInput(cred)
	if err != nil {
		return nil, err
	}

	jws, err := s.signer.Sign(payload)
	if err != nil {
		return nil, fmt.Errorf("sign credential: %w", err)
	}

	detached, err := jws.DetachedCompactSerialize()
	if err != nil {
		return nil, fmt.Errorf("serialize credential proof: %w", err)
	}

	cred.Proof = &agent.Proof{
		Type:    ProofType,
		Created: now,
		Creator: s.keyID,
		JWS:     detached,
	}

	return cred, nil
}

// VerifyCredential checks the proof of a credential against the did:key of its issuer.
func VerifyCredential(cred *agent.SignedCredential) error {
	if cred == nil || cred.Proof == nil {
		return fmt.Errorf("%w: missing proof", ErrInvalidProof)
	}

	if cred.Proof.Type != ProofType {
		return fmt.Errorf("%w: unsupported proof type %s", ErrInvalidProof, cred.Proof.Type)
	}

	pub, err := PublicKeyFromDID(cred.Proof.Creator)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}

	issuerKey, err := PublicKeyFromDID(cred.Issuer)
	if err != nil || !issuerKey.Equal(pub) {
		return fmt.Errorf("%w: proof creator is not the issuer", ErrInvalidProof)
	}

	payload, err := signingInput(cred)
	if err != nil {
		return err
	}

	jws, err := jose.ParseDetached(cred.Proof.JWS, payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}

	if _, err := jws.Verify(pub); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}

	return nil
}

// signingInput is the JSON form of the credential without its proof.
func signingInput(cred *agent.SignedCredential) ([]byte, error) {
	unsigned := *cred
	unsigned.Proof = nil

	b, err := json.Marshal(&unsigned)
	if err != nil {
		return nil, fmt.Errorf("marshal credential: %w", err)
	}

	return b, nil
}
