/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package local

import (
	"errors"
	"fmt"

	"github.com/credbridge/credbridge/pkg/agent"
)

// Interaction is an interaction held by the local agent.
type Interaction struct {
	rec   *record
	agent *Agent
}

// ID of the interaction.
func (i *Interaction) ID() string {
	return i.rec.ID
}

// FlowType of the interaction.
func (i *Interaction) FlowType() agent.FlowType {
	return i.rec.Flow
}

// Counterparty returns the DID of the wallet that answered, empty before that.
func (i *Interaction) Counterparty() string {
	return i.rec.Counterparty
}

// CallbackURL the interaction was created with.
func (i *Interaction) CallbackURL() string {
	return i.rec.CallbackURL
}

// Completed reports whether the wallet answered the interaction.
func (i *Interaction) Completed() bool {
	return i.rec.Completed
}

// Summary returns the flow specific state.
func (i *Interaction) Summary() *agent.Summary {
	switch i.rec.Flow {
	case agent.CredentialOfferFlow:
		return &agent.Summary{Offer: &agent.OfferState{OfferSummary: i.rec.Offered, Selection: i.rec.Selected}}
	case agent.CredentialShareFlow:
		return &agent.Summary{Share: &agent.ShareState{ProvidedCredentials: i.rec.Provided}}
	default:
		return &agent.Summary{}
	}
}

// CreateCredentialReceiveToken signs the token handing credentials issued in an offer flow to the wallet.
func (i *Interaction) CreateCredentialReceiveToken(credentials []*agent.SignedCredential) (agent.Token, error) {
	if i.rec.Flow != agent.CredentialOfferFlow {
		return nil, fmt.Errorf("interaction %s is a %s flow, not a credential offer", i.rec.ID, i.rec.Flow)
	}

	if i.rec.Counterparty == "" {
		return nil, errors.New("credential offer has not been answered")
	}

	token, err := i.agent.tokens.sign(i.rec.ID, i.rec.Counterparty, &Payload{
		InteractionType:   CredentialsReceiveType,
		SignedCredentials: credentials,
	})
	if err != nil {
		return nil, err
	}

	return token, nil
}
