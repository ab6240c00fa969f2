package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cursorstyle/chat-gateway/loadtest/client"
	"github.com/cursorstyle/chat-gateway/loadtest/stats"
)

// runFlood verifies rate limit behavior under deliberate abuse of the
// per-connection budget. A small number of clients send messages much faster
// than the chat budget allows; the expected outcome is a handful of delivered
// messages per window followed by rate_limited pushes, with no bans and no
// dropped connections, since rate exhaustion is a soft denial.
func runFlood(args []string) {
	fs := flag.NewFlagSet("flood", flag.ExitOnError)
	url := fs.String("url", "ws://localhost:8080/ws", "WebSocket server URL")
	clientCount := fs.Int("clients", 5, "Number of flooding clients")
	duration := fs.Duration("duration", 20*time.Second, "Flood duration")
	msgInterval := fs.Duration("msg-interval", 100*time.Millisecond, "Interval between messages per client")
	fs.Parse(args)

	fmt.Printf("Flood test: %d clients to %s (duration=%s, interval=%s)\n",
		*clientCount, *url, *duration, *msgInterval)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := stats.NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < *clientCount; i++ {
		wg.Add(1)
		userNum := i

		go func() {
			defer wg.Done()

			connCtx, connCancel := context.WithTimeout(ctx, 10*time.Second)
			c, err := client.New(connCtx, *url)
			connCancel()
			if err != nil {
				collector.AddError()
				return
			}
			defer c.Close()

			collector.AddConnect(c.GetMetrics().ConnectLatency)

			c.On(client.TypeBanned, func(json.RawMessage) {
				collector.AddOutcome("banned")
			})

			reqCtx, reqCancel := context.WithTimeout(ctx, 10*time.Second)
			resp, err := c.Register(reqCtx, fmt.Sprintf("flooduser%02d", userNum))
			reqCancel()
			if err != nil || !resp.Success {
				collector.AddError()
				return
			}

			reqCtx, reqCancel = context.WithTimeout(ctx, 10*time.Second)
			resp, err = c.Join(reqCtx, "general")
			reqCancel()
			if err != nil || !resp.Success {
				collector.AddError()
				return
			}

			deadline := time.After(*duration)
			ticker := time.NewTicker(*msgInterval)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return
				case <-deadline:
					return
				case <-c.Done():
					// A flood must never cost the connection.
					collector.AddOutcome("disconnected")
					return
				case <-ticker.C:
					start := time.Now()
					reqCtx, reqCancel := context.WithTimeout(ctx, 10*time.Second)
					resp, err := c.Chat(reqCtx, fmt.Sprintf("flood message %d", time.Now().UnixNano()))
					reqCancel()
					if err != nil {
						collector.AddError()
						return
					}
					collector.AddRequestLatency(time.Since(start))
					switch {
					case resp.Success:
						collector.AddOutcome("delivered")
					case resp.Reason == client.TypeRateLimited:
						collector.AddOutcome("rate_limited")
					default:
						collector.AddOutcome("moderated")
					}
				}
			}
		}()
	}

	wg.Wait()

	fmt.Println("\nFlood complete.")
	collector.Report()
}
