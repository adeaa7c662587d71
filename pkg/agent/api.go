/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package agent declares the contract of the identity agent the bridge delegates to: creating
// interaction tokens, resolving submitted tokens to interactions and signing credentials.
package agent

import (
	"errors"
	"time"
)

// ErrInteractionNotFound is returned when a token or id does not resolve to a known interaction.
var ErrInteractionNotFound = errors.New("interaction not found")

// FlowType is the category of an interaction.
type FlowType string

// Known flow types.
const (
	CredentialOfferFlow FlowType = "CredentialOffer"
	CredentialShareFlow FlowType = "CredentialShare"
	AuthenticationFlow  FlowType = "Authentication"
	AuthorizationFlow   FlowType = "Authorization"
)

// Token is an interaction token created by the agent.
type Token interface {
	// Encode returns the wire form of the token.
	Encode() string
	// Nonce returns the id of the interaction the token belongs to.
	Nonce() string
}

// Interaction is a stateful exchange between the agent and a counterparty.
type Interaction interface {
	ID() string
	FlowType() FlowType
	// Counterparty returns the DID of the remote party, empty until it answered.
	Counterparty() string
	Summary() *Summary
	// CreateCredentialReceiveToken builds the token that hands issued credentials to the counterparty.
	CreateCredentialReceiveToken(credentials []*SignedCredential) (Token, error)
}

// Agent is the identity agent the bridge drives.
type Agent interface {
	// DID of the agent, used as the issuer of credentials.
	DID() string
	CredOfferToken(req *CredentialOfferRequest) (Token, error)
	CredRequestToken(req *CredentialRequest) (Token, error)
	AuthRequestToken(req *AuthenticationRequest) (Token, error)
	// FindInteraction returns the interaction with the given id or ErrInteractionNotFound.
	FindInteraction(id string) (Interaction, error)
	// ProcessJWT verifies a token sent back by a counterparty and advances its interaction.
	// A nil interaction with a nil error means the token did not resolve to anything.
	ProcessJWT(encoded string) (Interaction, error)
	SignedCredential(req *CredentialSigningRequest) (*SignedCredential, error)
}

// OfferedCredential is one entry of a credential offer.
type OfferedCredential struct {
	Type string `json:"type"`
}

// CredentialOfferRequest is the input of CredOfferToken.
type CredentialOfferRequest struct {
	CallbackURL        string              `json:"callbackURL"`
	OfferedCredentials []OfferedCredential `json:"offeredCredentials"`
}

// CredentialRequirement is one entry of a credential request.
type CredentialRequirement struct {
	Type        []string      `json:"type"`
	Constraints []interface{} `json:"constraints,omitempty"`
}

// CredentialRequest is the input of CredRequestToken.
type CredentialRequest struct {
	CallbackURL            string                  `json:"callbackURL"`
	CredentialRequirements []CredentialRequirement `json:"credentialRequirements"`
}

// AuthenticationRequest is the input of AuthRequestToken.
type AuthenticationRequest struct {
	CallbackURL string `json:"callbackURL"`
	Description string `json:"description,omitempty"`
}

// Summary is the flow specific state of an interaction. Exactly one member is set for
// offer and share flows.
type Summary struct {
	Offer *OfferState
	Share *ShareState
}

// OfferState is the state of a credential offer flow.
type OfferState struct {
	// OfferSummary lists what was offered.
	OfferSummary []OfferedCredential
	// Selection lists what the counterparty selected.
	Selection []OfferedCredential
}

// ProvidedCredential pairs a requirement with the credentials supplied for it.
type ProvidedCredential struct {
	Type                []string
	SuppliedCredentials []*SignedCredential
}

// ShareState is the state of a credential share flow.
type ShareState struct {
	ProvidedCredentials []ProvidedCredential
}

// Metadata describes how a credential of some type is issued.
type Metadata struct {
	Type    []string      `json:"type" yaml:"type"`
	Name    string        `json:"name" yaml:"name"`
	Context []interface{} `json:"context" yaml:"context"`
}

// CredentialSigningRequest is the input of SignedCredential.
type CredentialSigningRequest struct {
	Metadata Metadata
	Claim    map[string]interface{}
	Subject  string
}

// Proof is a signature over a credential.
type Proof struct {
	Type    string    `json:"type"`
	Created time.Time `json:"created"`
	Creator string    `json:"creator"`
	JWS     string    `json:"jws"`
}

// SignedCredential is an issued credential in its plain JSON form.
type SignedCredential struct {
	Context        []interface{}          `json:"@context"`
	ID             string                 `json:"id"`
	Name           string                 `json:"name,omitempty"`
	Issuer         string                 `json:"issuer"`
	Type           []string               `json:"type"`
	Claim          map[string]interface{} `json:"claim"`
	IssuanceDate   time.Time              `json:"issued"`
	ExpirationDate *time.Time             `json:"expires,omitempty"`
	Proof          *Proof                 `json:"proof,omitempty"`
}

// Subject returns the id claim of the credential.
func (c *SignedCredential) Subject() string {
	if c == nil || c.Claim == nil {
		return ""
	}

	s, _ := c.Claim["id"].(string) //nolint:errcheck

	return s
}
