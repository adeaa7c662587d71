/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package interaction

import (
	"errors"
	"fmt"

	"github.com/credbridge/credbridge/pkg/agent"
	"github.com/credbridge/credbridge/pkg/internal/logutil"
	"github.com/credbridge/credbridge/pkg/store/claimdata"
)

// Interaction info types reported by processInteractionToken.
const (
	AuthenticationType    = "authentication"
	CredentialOfferType   = "credentialOffer"
	CredentialRequestType = "credentialRequest"
)

var (
	// ErrUnsupportedFlow is returned for interactions whose flow the bridge cannot complete.
	ErrUnsupportedFlow = errors.New("unsupported flow type")
	// ErrMissingClaimData is returned when no claim data was supplied for a selected credential type.
	ErrMissingClaimData = errors.New("no claim data for credential type")
	// ErrMissingMetadata is returned when a selected credential type has no issuance metadata.
	ErrMissingMetadata = errors.New("no metadata found for issuing credential of type")
	// ErrNotOffered is returned when the wallet selected a credential type that was not offered.
	ErrNotOffered = errors.New("could not find offer for selected type")
)

func (c *Command) complete(interaction agent.Interaction) (*InteractionInfo, error) {
	switch interaction.FlowType() {
	case agent.AuthenticationFlow:
		return &InteractionInfo{
			Type:      AuthenticationType,
			Completed: true,
			State:     &AuthenticationState{Subject: interaction.Counterparty()},
		}, nil
	case agent.CredentialOfferFlow:
		return c.completeOffer(interaction)
	case agent.CredentialShareFlow:
		return completeShare(interaction)
	default:
		return nil, fmt.Errorf("%w: cannot handle %s flow type", ErrUnsupportedFlow, interaction.FlowType())
	}
}

// completeOffer issues one credential per selected type and hands them to the wallet. The claim
// data of the offer is taken up front and put back if issuing fails, so one entry issues once.
func (c *Command) completeOffer(interaction agent.Interaction) (*InteractionInfo, error) {
	summary := interaction.Summary()
	if summary == nil || summary.Offer == nil {
		return nil, fmt.Errorf("interaction %s carries no offer state", interaction.ID())
	}

	claims, err := c.claims.Take(interaction.ID())
	if err != nil {
		if errors.Is(err, claimdata.ErrNotFound) {
			return nil, fmt.Errorf("%w: no claim data registered for interaction %s", ErrMissingClaimData, interaction.ID())
		}

		return nil, err
	}

	info, err := c.issue(interaction, summary.Offer, claims)
	if err != nil {
		if putErr := c.claims.Put(interaction.ID(), claims); putErr != nil {
			logutil.LogError(logger, CommandName, ProcessInteractionToken,
				"failed to restore claim data: "+putErr.Error(),
				logutil.CreateKeyValueString("interactionId", interaction.ID()))
		}

		return nil, err
	}

	return info, nil
}

func (c *Command) issue(interaction agent.Interaction, offer *agent.OfferState,
	claims []claimdata.ClaimData) (*InteractionInfo, error) {
	subject := interaction.Counterparty()
	issued := make([]*agent.SignedCredential, 0, len(offer.Selection))

	for _, selected := range offer.Selection {
		if !offered(offer.OfferSummary, selected.Type) {
			return nil, fmt.Errorf("%w -- %s", ErrNotOffered, selected.Type)
		}

		data, ok := claimsFor(claims, selected.Type)
		if !ok {
			return nil, fmt.Errorf("%w -- %s", ErrMissingClaimData, selected.Type)
		}

		md, err := c.registry.Lookup(selected.Type)
		if err != nil {
			return nil, fmt.Errorf("%w -- %s: %v", ErrMissingMetadata, selected.Type, err)
		}

		cred, err := c.agent.SignedCredential(&agent.CredentialSigningRequest{
			Metadata: md,
			Claim:    data.Claims,
			Subject:  subject,
		})
		if err != nil {
			return nil, fmt.Errorf("sign %s credential: %w", selected.Type, err)
		}

		issued = append(issued, cred)
	}

	token, err := interaction.CreateCredentialReceiveToken(issued)
	if err != nil {
		return nil, fmt.Errorf("create credential receive token: %w", err)
	}

	return &InteractionInfo{
		Type:             CredentialOfferType,
		Completed:        true,
		InteractionToken: token.Encode(),
		State: &OfferState{
			Issuer:  c.agent.DID(),
			Subject: subject,
			Issued:  issued,
		},
	}, nil
}

// completeShare reports the credentials supplied by the wallet, in requirement order.
func completeShare(interaction agent.Interaction) (*InteractionInfo, error) {
	summary := interaction.Summary()
	if summary == nil || summary.Share == nil {
		return nil, fmt.Errorf("interaction %s carries no share state", interaction.ID())
	}

	credentials := []*agent.SignedCredential{}

	for _, provided := range summary.Share.ProvidedCredentials {
		credentials = append(credentials, provided.SuppliedCredentials...)
	}

	return &InteractionInfo{
		Type:      CredentialRequestType,
		Completed: true,
		State: &ShareState{
			Subject:     interaction.Counterparty(),
			Credentials: credentials,
		},
	}, nil
}

func offered(summary []agent.OfferedCredential, credentialType string) bool {
	for _, o := range summary {
		if o.Type == credentialType {
			return true
		}
	}

	return false
}

func claimsFor(data []claimdata.ClaimData, credentialType string) (claimdata.ClaimData, bool) {
	for _, d := range data {
		if d.Type == credentialType {
			return d, true
		}
	}

	return claimdata.ClaimData{}, false
}
