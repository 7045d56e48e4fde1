// Command refubot is the entry point for the REFU product-support chatbot.
// It serves the chat HTTP API, indexes product datasheets into the vector
// store, and offers a few offline helpers for operators.
package main

import (
	"fmt"
	"os"

	"github.com/54b3r/refubot-go/cmd/refubot/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
