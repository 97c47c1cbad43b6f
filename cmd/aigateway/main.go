/*
Package main is the entry point for the aigateway CLI.

aigateway answers questions from the course platform's chat through a local
Ollama server, degrading to canned replies whenever the server or the
required model is unavailable.

Usage:

	aigateway [command]

Available Commands:

	serve       Run the HTTP and websocket API
	ask         Ask one question from the terminal
	status      Show endpoint and model availability
	version     Show version information

Examples:

	# Serve on :8080 with candidates from a config file
	aigateway serve --config /etc/aigateway.yaml --watch

	# Check whether the local Ollama has the model
	aigateway status
*/
package main

import (
	"fmt"
	"os"

	"aigateway/internal/cli"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	root := cli.NewRootCmd(cli.BuildInfo{Version: version, Commit: commit, Date: date})
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
