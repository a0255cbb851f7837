package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	callbridge "github.com/glimte/callbridge-go"
	"github.com/glimte/callbridge-go/contracts"
	"github.com/glimte/callbridge-go/producer"
)

func main() {
	var (
		unit      time.Duration
		timeout   time.Duration
		callbacks int
		verbose   bool
	)

	rootCmd := &cobra.Command{
		Use:   "callbridge-demo",
		Short: "Demonstrate synchronous calls over the async callback API",
		Long: `callbridge-demo drives the sync bridge with the built-in simulated
producer. It issues two requests: one whose callbacks all resolve within the
deadline, and one whose deadline cuts most callbacks off, showing synthesized
timeout outcomes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			client, err := callbridge.NewClient(
				callbridge.WithLogger(logger),
				callbridge.WithPolicy(producer.NewPrefixPolicy(unit)),
			)
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}
			defer client.Close()

			ctx := context.Background()

			// Deadlines scale with the delay unit unless overridden.
			longTimeout := 10 * unit
			shortTimeout := 2 * unit
			if timeout > 0 {
				longTimeout = timeout
				shortTimeout = timeout
			}

			fmt.Println("=== synchronous call, all callbacks within deadline ===")
			results, err := client.Request(ctx, "req-001", map[string]any{"value": "demo-1"}, callbacks, longTimeout)
			if err != nil {
				return err
			}
			printSummary("req-001", results)

			fmt.Println("=== synchronous call, deadline cuts callbacks off ===")
			results, err = client.Request(ctx, "req-002", map[string]any{"value": "demo-2"}, callbacks, shortTimeout)
			if err != nil {
				return err
			}
			printSummary("req-002", results)

			return nil
		},
	}

	rootCmd.Flags().DurationVar(&unit, "unit", time.Second, "base delay unit for the simulated producer")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 0, "deadline for both requests (default 10x/2x the unit)")
	rootCmd.Flags().IntVar(&callbacks, "callbacks", 4, "number of callbacks per request")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printSummary(requestID string, results []contracts.Outcome) {
	var success, failure, timeout int
	for _, outcome := range results {
		switch {
		case outcome.IsSuccess():
			success++
		case outcome.IsFailure():
			failure++
		case outcome.IsTimedOut():
			timeout++
		}
		fmt.Printf("  [%s] %-8s %s", formatTimeUTC8(outcome.CreatedAt), outcome.Status, outcome.CallbackID)
		if outcome.Error != "" {
			fmt.Printf("  error=%s", outcome.Error)
		}
		fmt.Println()
	}
	fmt.Printf("request %s: %d outcomes (%d success, %d failure, %d timeout)\n\n",
		requestID, len(results), success, failure, timeout)
}

// formatTimeUTC8 renders an instant in UTC+8, the display convention of the
// original demo. Formatting lives only in this driver; the core carries raw
// instants.
func formatTimeUTC8(t time.Time) string {
	return t.In(time.FixedZone("UTC+8", 8*60*60)).Format("2006-01-02 15:04:05")
}
