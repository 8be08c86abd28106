package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newSetSpeedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-speed MULTIPLIER",
		Short: "Change the tick loop's time_speed",
		Long:  "Sets time_speed, clamped server-side to [0.1, 10.0]; 1.0 is real time.",
		Args:  cobra.ExactArgs(1),
		RunE:  runSetSpeedCommand,
	}
	addServerFlag(cmd)
	return cmd
}

func runSetSpeedCommand(cmd *cobra.Command, args []string) error {
	base, err := serverURL(cmd)
	if err != nil {
		return err
	}
	multiplier, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid multiplier %q: %w", args[0], err)
	}

	result, err := postJSON(base, "/speed", map[string]interface{}{"multiplier": multiplier})
	if err != nil {
		return err
	}
	fmt.Printf("✅ time_speed set to %v\n", result["multiplier"])
	return nil
}
