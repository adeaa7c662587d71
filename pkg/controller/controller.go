/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package controller

import (
	"errors"

	"github.com/credbridge/credbridge/pkg/agent"
	"github.com/credbridge/credbridge/pkg/config/credtypes"
	"github.com/credbridge/credbridge/pkg/controller/command"
	"github.com/credbridge/credbridge/pkg/controller/command/interaction"
	"github.com/credbridge/credbridge/pkg/store/claimdata"
)

type allOpts struct {
	registry interaction.MetadataRegistry
	claims   interaction.ClaimStore
}

// Opt represents a controller option.
type Opt func(opts *allOpts)

// WithCredentialTypes is an option for setting the metadata of the credential types that can be issued.
func WithCredentialTypes(registry interaction.MetadataRegistry) Opt {
	return func(opts *allOpts) {
		opts.registry = registry
	}
}

// WithClaimStore is an option for setting the store holding the claim data of open offers.
func WithClaimStore(claims interaction.ClaimStore) Opt {
	return func(opts *allOpts) {
		opts.claims = claims
	}
}

// GetCommandHandlers returns all command handlers provided by controller.
func GetCommandHandlers(a agent.Agent, opts ...Opt) ([]command.Handler, error) {
	if a == nil {
		return nil, errors.New("agent is required")
	}

	cmdOpts := &allOpts{}
	// Apply options
	for _, opt := range opts {
		opt(cmdOpts)
	}

	if cmdOpts.registry == nil {
		cmdOpts.registry = credtypes.Default()
	}

	if cmdOpts.claims == nil {
		cmdOpts.claims = claimdata.New()
	}

	interactionCmd := interaction.New(a, cmdOpts.registry, cmdOpts.claims)

	var allHandlers []command.Handler
	allHandlers = append(allHandlers, interactionCmd.GetHandlers()...)

	return allHandlers, nil
}
