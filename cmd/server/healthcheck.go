package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dreamware/kvsync/internal/transport"
)

var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Probe a running kvsync server's /v1/healthz endpoint",
	Long: `Probe a running kvsync server's /v1/healthz endpoint and exit
non-zero if it does not respond with ok: true. Intended for container
HEALTHCHECK directives and deployment scripts, not for end users.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		return runHealthcheck(addr, timeout)
	},
}

func init() {
	healthcheckCmd.Flags().String("addr", "http://127.0.0.1:8080", "Base URL of the kvsync server")
	healthcheckCmd.Flags().Duration("timeout", 5*time.Second, "Request timeout")
}

func runHealthcheck(addr string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	url := strings.TrimRight(addr, "/") + "/v1/healthz"
	var out struct {
		OK bool `json:"ok"`
	}
	if err := transport.GetJSON(ctx, url, &out); err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	if !out.OK {
		return fmt.Errorf("server reported unhealthy")
	}
	fmt.Println("ok")
	return nil
}
