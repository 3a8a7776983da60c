package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	healthcheckURL     string
	healthcheckTimeout time.Duration
)

// healthcheckCmd probes the running server's /healthz endpoint. Meant for
// container HEALTHCHECK directives, so it exits 0/1 rather than logging.
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check whether a running server is healthy",
	RunE: func(cmd *cobra.Command, args []string) error {
		url := healthcheckURL
		if url == "" {
			port := os.Getenv("SERVER_PORT")
			if port == "" {
				port = "8080"
			}
			url = fmt.Sprintf("http://localhost:%s/healthz", port)
		}

		ctx, cancel := context.WithTimeout(context.Background(), healthcheckTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("building request: %w", err)
		}

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "unhealthy: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "unhealthy: status %d\n", resp.StatusCode)
			os.Exit(1)
		}

		fmt.Println("healthy")
		return nil
	},
}

func init() {
	healthcheckCmd.Flags().StringVar(&healthcheckURL, "url", "", "health endpoint URL (default http://localhost:$SERVER_PORT/healthz)")
	healthcheckCmd.Flags().DurationVar(&healthcheckTimeout, "timeout", 5*time.Second, "request timeout")
	rootCmd.AddCommand(healthcheckCmd)
}
