/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package interaction is a typed client for the interaction RPC methods of a bridge.
package interaction

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"

	qrcode "github.com/skip2/go-qrcode"

	cmd "github.com/credbridge/credbridge/pkg/controller/command/interaction"
)

// DeepLinkPrefix is the scheme and path wallets register for consent links.
const DeepLinkPrefix = "jolocomwallet://consent/"

const (
	qrDataURLPrefix = "data:image/png;base64,"
	qrSize          = 256
)

// caller issues one RPC call and decodes its result.
type caller interface {
	Call(ctx context.Context, method string, params, result interface{}) error
}

// Client enables access to the interaction RPC methods.
type Client struct {
	rpc caller
}

// New returns a client issuing calls through c, typically a *client.Client.
func New(c caller) *Client {
	return &Client{rpc: c}
}

// InteractionInfo is the outcome of a processed token. State is kept raw since its shape depends on Type.
type InteractionInfo struct {
	Type             string          `json:"type"`
	Completed        bool            `json:"completed"`
	InteractionToken string          `json:"interactionToken,omitempty"`
	State            json.RawMessage `json:"state"`
}

// DecodeState unmarshals the flow specific state into v, one of the cmd *State types.
func (i *InteractionInfo) DecodeState(v interface{}) error {
	if err := json.Unmarshal(i.State, v); err != nil {
		return fmt.Errorf("decode %s state: %w", i.Type, err)
	}

	return nil
}

// ProcessResult is the result of ProcessInteractionToken.
type ProcessResult struct {
	InteractionID   string           `json:"interactionId"`
	InteractionInfo *InteractionInfo `json:"interactionInfo"`
}

// InitiateCredentialOffer creates a credential offer and stores the claims to issue once accepted.
func (c *Client) InitiateCredentialOffer(ctx context.Context,
	args *cmd.InitiateCredentialOfferArgs) (*cmd.InitiationResponse, error) {
	return c.initiate(ctx, cmd.InitiateCredentialOffer, args)
}

// InitiateCredentialRequest creates a credential request.
func (c *Client) InitiateCredentialRequest(ctx context.Context,
	args *cmd.InitiateCredentialRequestArgs) (*cmd.InitiationResponse, error) {
	return c.initiate(ctx, cmd.InitiateCredentialRequest, args)
}

// InitiateAuthentication creates an authentication request.
func (c *Client) InitiateAuthentication(ctx context.Context,
	args *cmd.InitiateAuthenticationArgs) (*cmd.InitiationResponse, error) {
	return c.initiate(ctx, cmd.InitiateAuthentication, args)
}

// ProcessInteractionToken submits a token returned by a wallet.
func (c *Client) ProcessInteractionToken(ctx context.Context, token string) (*ProcessResult, error) {
	res := &ProcessResult{}

	err := c.rpc.Call(ctx, cmd.ProcessInteractionToken, &cmd.ProcessInteractionTokenArgs{InteractionToken: token}, res)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cmd.ProcessInteractionToken, err)
	}

	return res, nil
}

func (c *Client) initiate(ctx context.Context, method string, args interface{}) (*cmd.InitiationResponse, error) {
	res := &cmd.InitiationResponse{}

	if err := c.rpc.Call(ctx, method, args, res); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	return res, nil
}

// EncodeAsDeepLink returns the wallet consent link carrying token.
func EncodeAsDeepLink(token string) string {
	return DeepLinkPrefix + url.PathEscape(token)
}

// EncodeAsQRCode renders token as a PNG QR code for a wallet to scan and returns it as a data URL.
func EncodeAsQRCode(token string) (string, error) {
	png, err := qrcode.Encode(token, qrcode.Medium, qrSize)
	if err != nil {
		return "", fmt.Errorf("encode qr code: %w", err)
	}

	return qrDataURLPrefix + base64.StdEncoding.EncodeToString(png), nil
}
