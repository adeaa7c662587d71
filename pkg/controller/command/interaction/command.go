/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package interaction

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/credbridge/credbridge/pkg/agent"
	"github.com/credbridge/credbridge/pkg/controller/command"
	"github.com/credbridge/credbridge/pkg/controller/internal/cmdutil"
	"github.com/credbridge/credbridge/pkg/internal/logutil"
	"github.com/credbridge/credbridge/pkg/store/claimdata"
)

var logger = log.New("credbridge/controller/interaction")

const (
	// InvalidRequestErrorCode is typically a code for validation errors
	// for invalid interaction controller requests.
	InvalidRequestErrorCode = command.Code(iota + command.Interaction)
	// InitiateCredentialOfferErrorCode is for failures in initiate credential offer command.
	InitiateCredentialOfferErrorCode
	// InitiateCredentialRequestErrorCode is for failures in initiate credential request command.
	InitiateCredentialRequestErrorCode
	// InitiateAuthenticationErrorCode is for failures in initiate authentication command.
	InitiateAuthenticationErrorCode
	// ProcessInteractionTokenErrorCode is for failures in process interaction token command.
	ProcessInteractionTokenErrorCode
)

// constants for interaction commands.
const (
	// command name.
	CommandName = "interaction"

	InitiateCredentialOffer   = "initiateCredentialOffer"
	InitiateCredentialRequest = "initiateCredentialRequest"
	InitiateAuthentication    = "initiateAuthentication"
	ProcessInteractionToken   = "processInteractionToken"
)

const (
	// error messages.
	errEmptyCallbackURL            = "empty callbackURL"
	errEmptyOfferedCredentials     = "empty offeredCredentials"
	errEmptyClaimData              = "empty claimData"
	errEmptyCredentialType         = "empty credential type"
	errEmptyCredentialRequirements = "empty credentialRequirements"
	errEmptyInteractionToken       = "empty interactionToken"
	// log constants.
	successString = "success"
)

// MetadataRegistry resolves the issuance metadata of a credential type.
type MetadataRegistry interface {
	Lookup(credentialType string) (agent.Metadata, error)
}

// ClaimStore keeps the claim data of open credential offers.
type ClaimStore interface {
	Put(interactionID string, data []claimdata.ClaimData) error
	Take(interactionID string) ([]claimdata.ClaimData, error)
}

// Command is controller command for interactions with a wallet.
type Command struct {
	agent    agent.Agent
	registry MetadataRegistry
	claims   ClaimStore
}

// New returns new interaction controller command instance.
func New(a agent.Agent, registry MetadataRegistry, claims ClaimStore) *Command {
	return &Command{
		agent:    a,
		registry: registry,
		claims:   claims,
	}
}

// GetHandlers returns list of all commands supported by this controller command.
func (c *Command) GetHandlers() []command.Handler {
	return []command.Handler{
		cmdutil.NewCommandHandler(CommandName, InitiateCredentialOffer, c.InitiateCredentialOffer),
		cmdutil.NewCommandHandler(CommandName, InitiateCredentialRequest, c.InitiateCredentialRequest),
		cmdutil.NewCommandHandler(CommandName, InitiateAuthentication, c.InitiateAuthentication),
		cmdutil.NewCommandHandler(CommandName, ProcessInteractionToken, c.ProcessInteractionToken),
	}
}

// InitiateCredentialOffer creates a credential offer token and remembers the claim data to issue
// once the wallet accepts the offer.
func (c *Command) InitiateCredentialOffer(rw io.Writer, req io.Reader) command.Error {
	var args InitiateCredentialOfferArgs

	if err := json.NewDecoder(req).Decode(&args); err != nil {
		logutil.LogInfo(logger, CommandName, InitiateCredentialOffer, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	if err := validateOffer(&args); err != nil {
		logutil.LogDebug(logger, CommandName, InitiateCredentialOffer, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	token, err := c.agent.CredOfferToken(&agent.CredentialOfferRequest{
		CallbackURL:        args.CallbackURL,
		OfferedCredentials: args.OfferedCredentials,
	})
	if err != nil {
		logutil.LogError(logger, CommandName, InitiateCredentialOffer, err.Error())
		return command.NewExecuteError(InitiateCredentialOfferErrorCode, fmt.Errorf("create offer token: %w", err))
	}

	resp, err := c.initiation(token)
	if err != nil {
		logutil.LogError(logger, CommandName, InitiateCredentialOffer, err.Error())
		return command.NewExecuteError(InitiateCredentialOfferErrorCode, err)
	}

	if err := c.claims.Put(resp.InteractionID, args.ClaimData); err != nil {
		logutil.LogError(logger, CommandName, InitiateCredentialOffer, err.Error())
		return command.NewExecuteError(InitiateCredentialOfferErrorCode, fmt.Errorf("store claim data: %w", err))
	}

	command.WriteNillableResponse(rw, resp, logger)

	logutil.LogDebug(logger, CommandName, InitiateCredentialOffer, successString,
		logutil.CreateKeyValueString("interactionId", resp.InteractionID))

	return nil
}

// InitiateCredentialRequest creates a credential request token.
func (c *Command) InitiateCredentialRequest(rw io.Writer, req io.Reader) command.Error {
	var args InitiateCredentialRequestArgs

	if err := json.NewDecoder(req).Decode(&args); err != nil {
		logutil.LogInfo(logger, CommandName, InitiateCredentialRequest, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	if args.CallbackURL == "" {
		logutil.LogDebug(logger, CommandName, InitiateCredentialRequest, errEmptyCallbackURL)
		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyCallbackURL))
	}

	if len(args.CredentialRequirements) == 0 {
		logutil.LogDebug(logger, CommandName, InitiateCredentialRequest, errEmptyCredentialRequirements)
		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyCredentialRequirements))
	}

	for _, r := range args.CredentialRequirements {
		if len(r.Type) == 0 {
			logutil.LogDebug(logger, CommandName, InitiateCredentialRequest, errEmptyCredentialType)
			return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyCredentialType))
		}
	}

	token, err := c.agent.CredRequestToken(&agent.CredentialRequest{
		CallbackURL:            args.CallbackURL,
		CredentialRequirements: args.CredentialRequirements,
	})
	if err != nil {
		logutil.LogError(logger, CommandName, InitiateCredentialRequest, err.Error())
		return command.NewExecuteError(InitiateCredentialRequestErrorCode, fmt.Errorf("create request token: %w", err))
	}

	resp, err := c.initiation(token)
	if err != nil {
		logutil.LogError(logger, CommandName, InitiateCredentialRequest, err.Error())
		return command.NewExecuteError(InitiateCredentialRequestErrorCode, err)
	}

	command.WriteNillableResponse(rw, resp, logger)

	logutil.LogDebug(logger, CommandName, InitiateCredentialRequest, successString,
		logutil.CreateKeyValueString("interactionId", resp.InteractionID))

	return nil
}

// InitiateAuthentication creates an authentication request token.
func (c *Command) InitiateAuthentication(rw io.Writer, req io.Reader) command.Error {
	var args InitiateAuthenticationArgs

	if err := json.NewDecoder(req).Decode(&args); err != nil {
		logutil.LogInfo(logger, CommandName, InitiateAuthentication, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	if args.CallbackURL == "" {
		logutil.LogDebug(logger, CommandName, InitiateAuthentication, errEmptyCallbackURL)
		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyCallbackURL))
	}

	token, err := c.agent.AuthRequestToken(&agent.AuthenticationRequest{
		CallbackURL: args.CallbackURL,
		Description: args.Description,
	})
	if err != nil {
		logutil.LogError(logger, CommandName, InitiateAuthentication, err.Error())
		return command.NewExecuteError(InitiateAuthenticationErrorCode,
			fmt.Errorf("create authentication token: %w", err))
	}

	resp, err := c.initiation(token)
	if err != nil {
		logutil.LogError(logger, CommandName, InitiateAuthentication, err.Error())
		return command.NewExecuteError(InitiateAuthenticationErrorCode, err)
	}

	command.WriteNillableResponse(rw, resp, logger)

	logutil.LogDebug(logger, CommandName, InitiateAuthentication, successString,
		logutil.CreateKeyValueString("interactionId", resp.InteractionID))

	return nil
}

// ProcessInteractionToken processes a token sent back by a wallet and reports the outcome of the
// interaction it belongs to.
func (c *Command) ProcessInteractionToken(rw io.Writer, req io.Reader) command.Error {
	var args ProcessInteractionTokenArgs

	if err := json.NewDecoder(req).Decode(&args); err != nil {
		logutil.LogInfo(logger, CommandName, ProcessInteractionToken, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	if args.InteractionToken == "" {
		logutil.LogDebug(logger, CommandName, ProcessInteractionToken, errEmptyInteractionToken)
		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyInteractionToken))
	}

	interaction, err := c.agent.ProcessJWT(args.InteractionToken)
	if err != nil {
		logutil.LogError(logger, CommandName, ProcessInteractionToken, err.Error())
		return command.NewExecuteError(ProcessInteractionTokenErrorCode, err)
	}

	if interaction == nil {
		logutil.LogDebug(logger, CommandName, ProcessInteractionToken, agent.ErrInteractionNotFound.Error())
		return command.NewExecuteError(ProcessInteractionTokenErrorCode, agent.ErrInteractionNotFound)
	}

	info, err := c.complete(interaction)
	if err != nil {
		logutil.LogError(logger, CommandName, ProcessInteractionToken, err.Error(),
			logutil.CreateKeyValueString("interactionId", interaction.ID()))
		return command.NewExecuteError(ProcessInteractionTokenErrorCode, err)
	}

	command.WriteNillableResponse(rw, &ProcessInteractionTokenResponse{
		InteractionID:   interaction.ID(),
		InteractionInfo: info,
	}, logger)

	logutil.LogDebug(logger, CommandName, ProcessInteractionToken, successString,
		logutil.CreateKeyValueString("interactionId", interaction.ID()),
		logutil.CreateKeyValueString("flow", string(interaction.FlowType())))

	return nil
}

// initiation resolves the interaction a freshly created token belongs to.
func (c *Command) initiation(token agent.Token) (*InitiationResponse, error) {
	interaction, err := c.agent.FindInteraction(token.Nonce())
	if err != nil {
		return nil, fmt.Errorf("find interaction: %w", err)
	}

	return &InitiationResponse{
		InteractionID:    interaction.ID(),
		InteractionToken: token.Encode(),
	}, nil
}

func validateOffer(args *InitiateCredentialOfferArgs) error {
	if args.CallbackURL == "" {
		return errors.New(errEmptyCallbackURL)
	}

	if len(args.OfferedCredentials) == 0 {
		return errors.New(errEmptyOfferedCredentials)
	}

	if len(args.ClaimData) == 0 {
		return errors.New(errEmptyClaimData)
	}

	for _, o := range args.OfferedCredentials {
		if o.Type == "" {
			return errors.New(errEmptyCredentialType)
		}
	}

	for _, d := range args.ClaimData {
		if d.Type == "" {
			return errors.New(errEmptyCredentialType)
		}
	}

	return nil
}
