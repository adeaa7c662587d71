/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package callcmd issues a single RPC call against a running bridge and can answer the
// interaction it creates with a local wallet.
package callcmd

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/spf13/cobra"

	"github.com/credbridge/credbridge/pkg/agent/local"
	"github.com/credbridge/credbridge/pkg/client/interaction"
	cmd "github.com/credbridge/credbridge/pkg/controller/command/interaction"
	rpcclient "github.com/credbridge/credbridge/pkg/rpc/client"
)

const (
	urlFlagName      = "url"
	urlEnvKey        = "CREDBRIDGE_URL"
	urlFlagShorthand = "u"
	urlFlagUsage     = "Websocket URL of the bridge, e.g. ws://localhost:8080/ws." +
		" Alternatively, this can be set with the following environment variable: " + urlEnvKey

	methodFlagName      = "method"
	methodFlagShorthand = "m"
	methodFlagUsage     = "RPC method to call."

	paramsFlagName      = "params"
	paramsFlagShorthand = "p"
	paramsFlagUsage     = "JSON params of the call. Defaults to {}."

	timeoutFlagName  = "timeout"
	timeoutFlagUsage = "How long to wait for each response. Defaults to 30s."
	timeoutDefault   = 30 * time.Second

	dialRetriesFlagName  = "dial-retries"
	dialRetriesEnvKey    = "CREDBRIDGE_DIAL_RETRIES"
	dialRetriesFlagUsage = "Number of times the initial dial is retried, one second apart." +
		" Alternatively, this can be set with the following environment variable: " + dialRetriesEnvKey

	respondFlagName  = "respond"
	respondFlagUsage = "Answer the created interaction with a local wallet and process the answer." +
		" Applies to the initiate methods only."

	walletSeedFlagName  = "wallet-seed"
	walletSeedFlagUsage = "Hex encoded 32 byte seed of the responding wallet. A random key is used if not set."
)

var logger = log.New("credbridge/call")

var errMissingMethod = errors.New("method not provided")

// Cmd returns the Cobra call command.
func Cmd() *cobra.Command {
	callCmd := &cobra.Command{
		Use:   "call",
		Short: "Call a bridge",
		Long:  `Issue one RPC call against a running credential bridge and print its result`,
		RunE:  runCall,
	}

	callCmd.Flags().StringP(urlFlagName, urlFlagShorthand, "", urlFlagUsage)
	callCmd.Flags().StringP(methodFlagName, methodFlagShorthand, "", methodFlagUsage)
	callCmd.Flags().StringP(paramsFlagName, paramsFlagShorthand, "{}", paramsFlagUsage)
	callCmd.Flags().Duration(timeoutFlagName, timeoutDefault, timeoutFlagUsage)
	callCmd.Flags().StringP(dialRetriesFlagName, "", "", dialRetriesFlagUsage)
	callCmd.Flags().Bool(respondFlagName, false, respondFlagUsage)
	callCmd.Flags().StringP(walletSeedFlagName, "", "", walletSeedFlagUsage)

	return callCmd
}

type callParameters struct {
	url        string
	method     string
	params     json.RawMessage
	timeout    time.Duration
	retries    uint64
	respond    bool
	walletSeed []byte
}

func getCallParameters(c *cobra.Command) (*callParameters, error) { //nolint:funlen
	p := &callParameters{}

	var err error

	p.url, err = c.Flags().GetString(urlFlagName)
	if err != nil {
		return nil, err
	}

	if !c.Flags().Changed(urlFlagName) {
		var isSet bool

		p.url, isSet = os.LookupEnv(urlEnvKey)
		if !isSet {
			return nil, errors.New("Neither " + urlFlagName + " (command line flag) nor " + urlEnvKey +
				" (environment variable) have been set.")
		}
	}

	p.method, err = c.Flags().GetString(methodFlagName)
	if err != nil {
		return nil, err
	}

	if p.method == "" {
		return nil, errMissingMethod
	}

	params, err := c.Flags().GetString(paramsFlagName)
	if err != nil {
		return nil, err
	}

	if !json.Valid([]byte(params)) {
		return nil, fmt.Errorf("params are not valid JSON: %s", params)
	}

	p.params = json.RawMessage(params)

	p.timeout, err = c.Flags().GetDuration(timeoutFlagName)
	if err != nil {
		return nil, err
	}

	retries, err := c.Flags().GetString(dialRetriesFlagName)
	if err != nil {
		return nil, err
	}

	if !c.Flags().Changed(dialRetriesFlagName) {
		retries = os.Getenv(dialRetriesEnvKey)
	}

	if retries != "" {
		p.retries, err = strconv.ParseUint(retries, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse dial retries %s: %w", retries, err)
		}
	}

	p.respond, err = c.Flags().GetBool(respondFlagName)
	if err != nil {
		return nil, err
	}

	seed, err := c.Flags().GetString(walletSeedFlagName)
	if err != nil {
		return nil, err
	}

	if seed != "" {
		p.walletSeed, err = hex.DecodeString(seed)
		if err != nil {
			return nil, fmt.Errorf("failed to decode wallet seed: %w", err)
		}
	}

	return p, nil
}

func runCall(c *cobra.Command, _ []string) error {
	p, err := getCallParameters(c)
	if err != nil {
		return err
	}

	rpc := rpcclient.New(p.url, rpcclient.WithDialBackOff(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Second), p.retries)))

	defer func() {
		if closeErr := rpc.Close(); closeErr != nil {
			logger.Warnf("close rpc client: %s", closeErr)
		}
	}()

	ctx, cancel := context.WithTimeout(c.Context(), p.timeout)
	defer cancel()

	var result json.RawMessage

	if err = rpc.Call(ctx, p.method, p.params, &result); err != nil {
		return fmt.Errorf("%s: %w", p.method, err)
	}

	if err = printJSON(c.OutOrStdout(), result); err != nil {
		return err
	}

	if !p.respond {
		return nil
	}

	var initiated cmd.InitiationResponse
	if err = json.Unmarshal(result, &initiated); err != nil || initiated.InteractionToken == "" {
		return fmt.Errorf("--%s applies to the initiate methods only", respondFlagName)
	}

	ctx, cancel = context.WithTimeout(c.Context(), p.timeout)
	defer cancel()

	return respond(ctx, c.OutOrStdout(), interaction.New(rpc), p, initiated.InteractionToken)
}

// respond answers an interaction token as a wallet, submits the answer and prints the outcome.
func respond(ctx context.Context, out io.Writer, client *interaction.Client, p *callParameters,
	token string) error {
	var opts []local.Option
	if p.walletSeed != nil {
		opts = append(opts, local.WithSeed(p.walletSeed))
	}

	wallet, err := local.New(opts...)
	if err != nil {
		return err
	}

	request, err := local.ParseToken(token, time.Now())
	if err != nil {
		return err
	}

	var answer *local.Token

	switch request.Payload.InteractionType {
	case local.CredentialOfferRequestType:
		answer, err = wallet.CreateCredentialOfferResponse(token, request.Payload.OfferedCredentials)
	case local.CredentialRequestType:
		answer, err = wallet.CreateCredentialResponse(token, nil)
	case local.AuthenticationRequestType:
		answer, err = wallet.CreateAuthenticationResponse(token)
	default:
		return fmt.Errorf("cannot respond to %s", request.Payload.InteractionType)
	}

	if err != nil {
		return err
	}

	logger.Infof("wallet %s answering %s", wallet.DID(), request.Payload.InteractionType)

	processed, err := client.ProcessInteractionToken(ctx, answer.Encode())
	if err != nil {
		return err
	}

	if processed.InteractionInfo != nil && processed.InteractionInfo.InteractionToken != "" {
		if _, err = wallet.ParseCredentialReceive(processed.InteractionInfo.InteractionToken); err != nil {
			return fmt.Errorf("verify received credentials: %w", err)
		}
	}

	b, err := json.Marshal(processed)
	if err != nil {
		return err
	}

	return printJSON(out, b)
}

func printJSON(out io.Writer, data []byte) error {
	var v interface{}

	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
