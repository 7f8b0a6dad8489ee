// Command new-addition originates a brand-new addition process: it mints a
// fresh process id and notifies every peer node about it via POST
// /additions, mirroring a fleet operator kicking off a summation by hand.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/VGLoic/mpc-exploration/internal/addition"
)

var (
	peerURLs []string

	rootCmd = &cobra.Command{
		Use:   "new-addition",
		Short: "Originate a new additive MPC summation across a set of peer nodes",
		Long: `new-addition mints a fresh process id and POSTs it to /additions on
every given peer URL, triggering each peer to generate its input share and
start pushing shares to the rest of the fleet.`,
		RunE: runNewAddition,
	}
)

func init() {
	rootCmd.Flags().StringSliceVarP(&peerURLs, "peer", "p", nil, "peer base URL, e.g. http://localhost:3001 (repeatable)")
	_ = rootCmd.MarkFlagRequired("peer")
}

func runNewAddition(cmd *cobra.Command, args []string) error {
	if len(peerURLs) == 0 {
		return fmt.Errorf("at least one --peer URL is required")
	}

	processID := uuid.New()
	fmt.Printf("generated new process id: %s\n", processID)

	body, err := json.Marshal(addition.CreateRequestBody{ProcessID: processID})
	if err != nil {
		return fmt.Errorf("encoding request body: %w", err)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	failures := 0
	for _, peerURL := range peerURLs {
		url := peerURL + "/additions"
		resp, err := client.Post(url, "application/json", bytes.NewReader(body))
		if err != nil {
			fmt.Fprintf(os.Stderr, "error notifying peer at %s: %v\n", peerURL, err)
			failures++
			continue
		}
		resp.Body.Close()
		if resp.StatusCode/100 != 2 {
			fmt.Fprintf(os.Stderr, "failed to notify peer at %s: %s\n", peerURL, resp.Status)
			failures++
			continue
		}
		fmt.Printf("successfully notified peer at %s: %s\n", peerURL, resp.Status)
	}

	if failures == len(peerURLs) {
		return fmt.Errorf("failed to notify any peer")
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
