/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package credbridge is a JSON-RPC bridge that exposes identity credential interactions to
// wallet style clients over a websocket.
//
// Packages for end developer usage
//
// pkg/rpc/client: Correlates concurrent calls over one websocket and resolves each exactly once.
//
// pkg/rpc/server: Dispatches request envelopes to command handlers, one goroutine per frame.
//
// pkg/controller/command/interaction: The interaction methods (initiateCredentialOffer,
// initiateCredentialRequest, initiateAuthentication, processInteractionToken).
//
// pkg/client/interaction: Typed client for the interaction methods.
//
// pkg/agent/local: In-process did:key agent issuing tokens and credentials.
//
// Basic workflow
//
//	1) Create an agent (pkg/agent/local) and a claim data store (pkg/store/claimdata).
//	2) Build the interaction command and pass its handlers to server.New.
//	3) Serve the server over HTTP, or run "credbridge start".
//	4) Connect with client.New and call the methods, or use pkg/client/interaction.
package credbridge
