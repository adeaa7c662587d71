/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package interaction

import (
	"github.com/credbridge/credbridge/pkg/agent"
	"github.com/credbridge/credbridge/pkg/store/claimdata"
)

// InitiateCredentialOfferArgs model
//
// This is used for creating a credential offer token.
type InitiateCredentialOfferArgs struct {
	// CallbackURL the wallet sends its response to.
	CallbackURL string `json:"callbackURL"`

	// OfferedCredentials lists the credential types on offer.
	OfferedCredentials []agent.OfferedCredential `json:"offeredCredentials"`

	// ClaimData holds the claims issued for each offered type once the offer is accepted.
	ClaimData []claimdata.ClaimData `json:"claimData"`
}

// InitiateCredentialRequestArgs model
//
// This is used for creating a credential request token.
type InitiateCredentialRequestArgs struct {
	CallbackURL            string                        `json:"callbackURL"`
	CredentialRequirements []agent.CredentialRequirement `json:"credentialRequirements"`
}

// InitiateAuthenticationArgs model
//
// This is used for creating an authentication request token.
type InitiateAuthenticationArgs struct {
	CallbackURL string `json:"callbackURL"`
	Description string `json:"description,omitempty"`
}

// InitiationResponse model
//
// Represents the response of the initiate* commands.
type InitiationResponse struct {
	InteractionID    string `json:"interactionId"`
	InteractionToken string `json:"interactionToken"`
}

// ProcessInteractionTokenArgs model
//
// This is used for processing a token sent back by a wallet.
type ProcessInteractionTokenArgs struct {
	InteractionToken string `json:"interactionToken"`
}

// ProcessInteractionTokenResponse model
//
// Represents the response of the processInteractionToken command.
type ProcessInteractionTokenResponse struct {
	InteractionID   string           `json:"interactionId"`
	InteractionInfo *InteractionInfo `json:"interactionInfo"`
}

// InteractionInfo describes the outcome of a processed token. State is one of
// AuthenticationState, OfferState or ShareState depending on Type.
type InteractionInfo struct {
	Type             string      `json:"type"`
	Completed        bool        `json:"completed"`
	InteractionToken string      `json:"interactionToken,omitempty"`
	State            interface{} `json:"state"`
}

// AuthenticationState is the state of a completed authentication.
type AuthenticationState struct {
	Subject string `json:"subject"`
}

// OfferState is the state of a completed credential offer.
type OfferState struct {
	Issuer  string                    `json:"issuer"`
	Subject string                    `json:"subject"`
	Issued  []*agent.SignedCredential `json:"issued"`
}

// ShareState is the state of a completed credential request.
type ShareState struct {
	Subject     string                    `json:"subject"`
	Credentials []*agent.SignedCredential `json:"credentials"`
}
