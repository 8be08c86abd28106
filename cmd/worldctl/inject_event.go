package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInjectEventCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inject-event DESCRIPTION",
		Short: "Inject a world event",
		Long:  "Injects a world-event-log entry, broadcast to every agent unless --agent restricts it to specific ids.",
		Args:  cobra.ExactArgs(1),
		RunE:  runInjectEventCommand,
	}
	addServerFlag(cmd)
	cmd.Flags().StringSlice("agent", nil, "restrict the event to these agent ids (repeatable)")
	return cmd
}

func runInjectEventCommand(cmd *cobra.Command, args []string) error {
	base, err := serverURL(cmd)
	if err != nil {
		return err
	}
	agentIDs, _ := cmd.Flags().GetStringSlice("agent")

	_, err = postJSON(base, "/events", map[string]interface{}{
		"description": args[0],
		"agent_ids":   agentIDs,
	})
	if err != nil {
		return err
	}
	fmt.Println("✅ event injected")
	return nil
}
