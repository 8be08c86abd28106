// Package main is worldctl, the operator CLI for the simulation engine:
// start the tick loop and HTTP/WS surface, or talk to an already-running
// instance to inject events, send messages, change time_speed, and inspect
// agent status. Grounded on the teacher's cmd/echo.go cobra command style.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "worldctl",
		Short: "Operate the autonomous agent social simulation",
		Long:  "worldctl starts and controls the BDI multi-agent world: its tick loop, external interfaces, and operator status view.",
	}

	rootCmd.AddCommand(
		newRunCommand(),
		newInjectEventCommand(),
		newSendMessageCommand(),
		newSetSpeedCommand(),
		newStatusCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
