/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package callcmd

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/credbridge/credbridge/pkg/agent/local"
	"github.com/credbridge/credbridge/pkg/config/credtypes"
	"github.com/credbridge/credbridge/pkg/controller/command/interaction"
	"github.com/credbridge/credbridge/pkg/rpc/server"
	"github.com/credbridge/credbridge/pkg/store/claimdata"
)

func startBridge(t *testing.T) string {
	t.Helper()

	a, err := local.New()
	require.NoError(t, err)

	s, err := server.New(interaction.New(a, credtypes.Default(), claimdata.New()).GetHandlers())
	require.NoError(t, err)

	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func runCallCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()

	callCmd := Cmd()

	out := &bytes.Buffer{}
	callCmd.SetOut(out)
	callCmd.SetArgs(args)

	err := callCmd.Execute()

	return out.String(), err
}

// decodeAll splits the indented JSON documents printed by the command.
func decodeAll(t *testing.T, out string) []map[string]interface{} {
	t.Helper()

	var docs []map[string]interface{}

	dec := json.NewDecoder(strings.NewReader(out))
	for dec.More() {
		var doc map[string]interface{}
		require.NoError(t, dec.Decode(&doc))

		docs = append(docs, doc)
	}

	return docs
}

func TestCallCmdContents(t *testing.T) {
	callCmd := Cmd()

	require.Equal(t, "call", callCmd.Use)
	require.NotNil(t, callCmd.Flag(urlFlagName))
	require.Equal(t, "{}", callCmd.Flag(paramsFlagName).Value.String())
	require.Equal(t, "30s", callCmd.Flag(timeoutFlagName).Value.String())
}

func TestCallCmd(t *testing.T) {
	url := startBridge(t)

	t.Run("initiate authentication", func(t *testing.T) {
		out, err := runCallCmd(t, "--url", url, "--method", interaction.InitiateAuthentication,
			"--params", `{"callbackURL":"https://example.com/auth"}`)
		require.NoError(t, err)

		docs := decodeAll(t, out)
		require.Len(t, docs, 1)
		require.NotEmpty(t, docs[0]["interactionId"])
		require.NotEmpty(t, docs[0]["interactionToken"])
	})

	t.Run("respond to authentication", func(t *testing.T) {
		seed := strings.Repeat("01", 32)

		out, err := runCallCmd(t, "--url", url, "--method", interaction.InitiateAuthentication,
			"--params", `{"callbackURL":"https://example.com/auth"}`, "--respond", "--wallet-seed", seed)
		require.NoError(t, err)

		docs := decodeAll(t, out)
		require.Len(t, docs, 2)
		require.Equal(t, docs[0]["interactionId"], docs[1]["interactionId"])

		info, ok := docs[1]["interactionInfo"].(map[string]interface{})
		require.True(t, ok)
		require.Equal(t, interaction.AuthenticationType, info["type"])

		seedBytes := bytes.Repeat([]byte{1}, 32)
		wallet, err := local.New(local.WithSeed(seedBytes))
		require.NoError(t, err)
		require.Equal(t, wallet.DID(), info["state"].(map[string]interface{})["subject"])
	})

	t.Run("respond to credential offer", func(t *testing.T) {
		out, err := runCallCmd(t, "--url", url, "--method", interaction.InitiateCredentialOffer,
			"--params", `{"callbackURL":"https://example.com/offer",`+
				`"offeredCredentials":[{"type":"ProofOfEventOrganizerCredential"}],`+
				`"claimData":[{"type":"ProofOfEventOrganizerCredential","claims":{"name":"Joe"}}]}`,
			"--respond")
		require.NoError(t, err)

		docs := decodeAll(t, out)
		require.Len(t, docs, 2)

		info := docs[1]["interactionInfo"].(map[string]interface{})
		require.Equal(t, interaction.CredentialOfferType, info["type"])
		require.NotEmpty(t, info["interactionToken"])

		issued := info["state"].(map[string]interface{})["issued"].([]interface{})
		require.Len(t, issued, 1)
		require.Equal(t, "Joe", issued[0].(map[string]interface{})["claim"].(map[string]interface{})["name"])
	})

	t.Run("respond to credential request", func(t *testing.T) {
		out, err := runCallCmd(t, "--url", url, "--method", interaction.InitiateCredentialRequest,
			"--params", `{"callbackURL":"https://example.com/share",`+
				`"credentialRequirements":[{"type":["VerifiableCredential","ProofOfEventOrganizerCredential"]}]}`,
			"--respond")
		require.NoError(t, err)

		docs := decodeAll(t, out)
		require.Len(t, docs, 2)

		info := docs[1]["interactionInfo"].(map[string]interface{})
		require.Equal(t, interaction.CredentialRequestType, info["type"])
		require.Equal(t, []interface{}{}, info["state"].(map[string]interface{})["credentials"])
	})

	t.Run("remote error", func(t *testing.T) {
		_, err := runCallCmd(t, "--url", url, "--method", "unknownMethod")
		require.Error(t, err)
		require.Contains(t, err.Error(), `Method "unknownMethod" not found`)
	})

	t.Run("respond to a non initiate method", func(t *testing.T) {
		_, err := runCallCmd(t, "--url", url, "--method", interaction.ProcessInteractionToken,
			"--params", `{"interactionToken":"x"}`, "--respond")
		require.Error(t, err)
	})
}

func TestCallCmdInvalidArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		err  string
	}{
		{
			name: "missing url",
			args: []string{"--method", "m"},
			err:  "Neither url (command line flag) nor CREDBRIDGE_URL (environment variable) have been set.",
		},
		{
			name: "missing method",
			args: []string{"--url", "ws://localhost:1"},
			err:  errMissingMethod.Error(),
		},
		{
			name: "invalid params",
			args: []string{"--url", "ws://localhost:1", "--method", "m", "--params", "{"},
			err:  "params are not valid JSON",
		},
		{
			name: "invalid dial retries",
			args: []string{"--url", "ws://localhost:1", "--method", "m", "--dial-retries", "x"},
			err:  "failed to parse dial retries",
		},
		{
			name: "invalid wallet seed",
			args: []string{"--url", "ws://localhost:1", "--method", "m", "--wallet-seed", "zz"},
			err:  "failed to decode wallet seed",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := runCallCmd(t, tc.args...)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.err)
		})
	}
}

func TestCallCmdDialFailure(t *testing.T) {
	srv := httptest.NewServer(nil)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	_, err := runCallCmd(t, "--url", url, "--method", "m")
	require.Error(t, err)
}
