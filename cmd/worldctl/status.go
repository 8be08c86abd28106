package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show every agent's current status",
		Long:  "Displays social battery, active conversation partners, active intention, and dominant emotion for every agent in the running world.",
		RunE:  runStatusCommand,
	}
	addServerFlag(cmd)
	return cmd
}

func runStatusCommand(cmd *cobra.Command, args []string) error {
	base, err := serverURL(cmd)
	if err != nil {
		return err
	}

	result, err := getJSON(base, "/status")
	if err != nil {
		return err
	}

	fmt.Printf("🧠 world tick: %v\n\n", result["tick"])

	agents, _ := result["agents"].([]interface{})
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "Battery", "Partners", "Intention", "Status", "Dominant Emotion"})

	for _, raw := range agents {
		a, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		table.Append([]string{
			stringField(a, "Name"),
			fmt.Sprintf("%.2f", floatField(a, "SocialBattery")),
			joinStrings(a["ActivePartners"]),
			stringField(a, "ActiveIntention"),
			stringField(a, "IntentionStatus"),
			dominantEmotion(a["Emotions"]),
		})
	}

	table.Render()
	return nil
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

func floatField(m map[string]interface{}, key string) float64 {
	f, _ := m[key].(float64)
	return f
}

func joinStrings(raw interface{}) string {
	items, ok := raw.([]interface{})
	if !ok || len(items) == 0 {
		return "-"
	}
	out := ""
	for i, v := range items {
		if i > 0 {
			out += ", "
		}
		s, _ := v.(string)
		out += s
	}
	return out
}

func dominantEmotion(raw interface{}) string {
	emotions, ok := raw.(map[string]interface{})
	if !ok || len(emotions) == 0 {
		return "-"
	}
	type kv struct {
		key string
		val float64
	}
	kvs := make([]kv, 0, len(emotions))
	for k, v := range emotions {
		f, _ := v.(float64)
		kvs = append(kvs, kv{k, f})
	}
	sort.Slice(kvs, func(i, j int) bool { return kvs[i].val > kvs[j].val })
	return fmt.Sprintf("%s (%.2f)", kvs[0].key, kvs[0].val)
}
