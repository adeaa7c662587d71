/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package local

import (
	"fmt"

	"github.com/credbridge/credbridge/pkg/agent"
)

// CreateCredentialOfferResponse answers a credential offer request, selecting some of the offered types.
func (a *Agent) CreateCredentialOfferResponse(requestJWT string, selection []agent.OfferedCredential) (*Token, error) {
	req, err := a.parseRequest(requestJWT, CredentialOfferRequestType)
	if err != nil {
		return nil, err
	}

	offered := make(map[string]struct{}, len(req.Payload.OfferedCredentials))
	for _, o := range req.Payload.OfferedCredentials {
		offered[o.Type] = struct{}{}
	}

	for _, s := range selection {
		if _, ok := offered[s.Type]; !ok {
			return nil, fmt.Errorf("credential type %s was not offered", s.Type)
		}
	}

	return a.tokens.sign(req.Claims.ID, req.Issuer(), &Payload{
		InteractionType:     CredentialOfferResponseType,
		CallbackURL:         req.Payload.CallbackURL,
		SelectedCredentials: selection,
	})
}

// CreateCredentialResponse answers a credential request with credentials held by the wallet.
func (a *Agent) CreateCredentialResponse(requestJWT string, credentials []*agent.SignedCredential) (*Token, error) {
	req, err := a.parseRequest(requestJWT, CredentialRequestType)
	if err != nil {
		return nil, err
	}

	return a.tokens.sign(req.Claims.ID, req.Issuer(), &Payload{
		InteractionType:     CredentialResponseType,
		CallbackURL:         req.Payload.CallbackURL,
		SuppliedCredentials: credentials,
	})
}

// CreateAuthenticationResponse answers an authentication request.
func (a *Agent) CreateAuthenticationResponse(requestJWT string) (*Token, error) {
	req, err := a.parseRequest(requestJWT, AuthenticationRequestType)
	if err != nil {
		return nil, err
	}

	return a.tokens.sign(req.Claims.ID, req.Issuer(), &Payload{
		InteractionType: AuthenticationResponseType,
		CallbackURL:     req.Payload.CallbackURL,
	})
}

// ParseCredentialReceive verifies a credentials receive token addressed to this agent and returns
// the credentials it carries.
func (a *Agent) ParseCredentialReceive(encoded string) ([]*agent.SignedCredential, error) {
	tok, err := ParseToken(encoded, a.now())
	if err != nil {
		return nil, err
	}

	if tok.Payload.InteractionType != CredentialsReceiveType {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrInvalidToken, CredentialsReceiveType, tok.Payload.InteractionType)
	}

	if !addressedTo(tok, a.did) {
		return nil, fmt.Errorf("%w: token is not addressed to %s", ErrInvalidToken, a.did)
	}

	for _, cred := range tok.Payload.SignedCredentials {
		if err := VerifyCredential(cred); err != nil {
			return nil, fmt.Errorf("received credential %s: %w", credentialID(cred), err)
		}

		if cred.Subject() != a.did {
			return nil, fmt.Errorf("received credential %s is issued to %s", cred.ID, cred.Subject())
		}
	}

	return tok.Payload.SignedCredentials, nil
}

func (a *Agent) parseRequest(encoded, interactionType string) (*ParsedToken, error) {
	tok, err := ParseToken(encoded, a.now())
	if err != nil {
		return nil, err
	}

	if tok.Payload.InteractionType != interactionType {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrInvalidToken, interactionType, tok.Payload.InteractionType)
	}

	return tok, nil
}
