// Package transport holds the generic JSON-over-HTTP client helper used
// internally by the CLI healthcheck subcommand talking to a running
// server. Adapted from the teacher's cluster.GetJSON, regeneralized
// from node-to-coordinator calls to any JSON endpoint.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

var httpClient = &http.Client{Timeout: 10 * time.Second}

// GetJSON GETs url and decodes the response into out.
func GetJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %s: status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
