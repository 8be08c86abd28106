package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSendMessageCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send-message RECEIVER_ID CONTENT",
		Short: "Send a message into the world as an external sender",
		Long:  "Enqueues a STATEMENT message from the operator (or --as) to an agent, bypassing the normal deliberation cycle's own message generation.",
		Args:  cobra.ExactArgs(2),
		RunE:  runSendMessageCommand,
	}
	addServerFlag(cmd)
	cmd.Flags().String("as", "user", "sender id (default: the reserved user identity)")
	cmd.Flags().String("topic", "", "conversation topic")
	cmd.Flags().Bool("requires-response", false, "mark the message as expecting a reply")
	return cmd
}

func runSendMessageCommand(cmd *cobra.Command, args []string) error {
	base, err := serverURL(cmd)
	if err != nil {
		return err
	}
	sender, _ := cmd.Flags().GetString("as")
	topic, _ := cmd.Flags().GetString("topic")
	requiresResponse, _ := cmd.Flags().GetBool("requires-response")

	_, err = postJSON(base, "/messages", map[string]interface{}{
		"sender_id": sender, "receiver_id": args[0], "content": args[1],
		"topic": topic, "requires_response": requiresResponse,
	})
	if err != nil {
		return err
	}
	fmt.Println("✅ message enqueued")
	return nil
}
