/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package main is the credbridge binary: a websocket JSON-RPC bridge exposing credential offer,
// credential request and authentication interactions to wallets.
package main

import (
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/spf13/cobra"

	"github.com/credbridge/credbridge/cmd/credbridge/callcmd"
	"github.com/credbridge/credbridge/cmd/credbridge/startcmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use: "credbridge",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	logger := log.New("credbridge")

	startCmd, err := startcmd.Cmd(&startcmd.HTTPServer{})
	if err != nil {
		logger.Fatalf(err.Error())
	}

	rootCmd.AddCommand(startCmd, callcmd.Cmd())

	if err := rootCmd.Execute(); err != nil {
		logger.Fatalf("Failed to run credbridge: %s", err)
	}
}
