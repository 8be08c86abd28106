package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

func addServerFlag(cmd *cobra.Command) {
	cmd.Flags().String("server", "http://localhost:8089", "worldctl server base URL")
}

func serverURL(cmd *cobra.Command) (string, error) {
	return cmd.Flags().GetString("server")
}

var httpClient = &http.Client{Timeout: 10 * time.Second}

func postJSON(baseURL, path string, payload interface{}) (map[string]interface{}, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	resp, err := httpClient.Post(baseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("worldctl server not responding at %s. Is 'worldctl run' running?", baseURL)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result map[string]interface{}
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &result); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}
	return result, nil
}

func getJSON(baseURL, path string) (map[string]interface{}, error) {
	resp, err := httpClient.Get(baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("worldctl server not responding at %s. Is 'worldctl run' running?", baseURL)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return result, nil
}
