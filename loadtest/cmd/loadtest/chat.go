package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/cursorstyle/chat-gateway/loadtest/client"
	"github.com/cursorstyle/chat-gateway/loadtest/stats"
)

// runChat implements the full chat lifecycle load test. Each simulated user
// goes through the complete flow: connect -> register_user -> join_room ->
// send messages on an interval. The test measures per-request round-trip
// latency through the gateway's full ingress pipeline and counts outcomes
// (delivered, moderated, rate limited).
func runChat(args []string) {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	url := fs.String("url", "ws://localhost:8080/ws", "WebSocket server URL")
	users := fs.Int("users", 200, "Number of simulated users")
	rooms := fs.String("rooms", "general,random,tech", "Comma-separated rooms to spread users across")
	rampUp := fs.Duration("ramp", 10*time.Second, "Ramp-up duration for connection creation")
	chatDuration := fs.Duration("chat-duration", 30*time.Second, "How long each user chats")
	msgInterval := fs.Duration("msg-interval", 3*time.Second, "Interval between messages per user")
	msgSize := fs.Int("msg-size", 128, "Size of each message payload in bytes")
	concurrency := fs.Int("concurrency", 50, "Maximum simultaneous connection attempts during ramp-up")
	metricsURL := fs.String("metrics-url", "http://localhost:8080/metrics", "Prometheus metrics endpoint URL")
	scrapeInterval := fs.Duration("scrape-interval", 2*time.Second, "Interval between metrics scrapes")
	fs.Parse(args)

	roomList := strings.Split(*rooms, ",")

	fmt.Printf("Chat test: %d users to %s across rooms %v (ramp=%s, chat=%s, interval=%s, msg-size=%d)\n",
		*users, *url, roomList, *rampUp, *chatDuration, *msgInterval, *msgSize)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := stats.NewCollector()

	scraper := stats.NewScraper(*metricsURL, *scrapeInterval)
	collector.SetScraper(scraper)
	scraper.Start(ctx)

	// The payload is sized with spaces so the moderation pipeline's length
	// check sees the full text but nothing trips the content filters.
	payload := strings.TrimSpace(strings.Repeat("lorem ipsum ", (*msgSize/12)+1))[:*msgSize]

	interval := *rampUp / time.Duration(*users)
	if interval <= 0 {
		interval = time.Millisecond
	}

	sem := make(chan struct{}, *concurrency)
	var wg sync.WaitGroup

	// -----------------------------------------------------------------------
	// Each user runs its whole lifecycle in one goroutine.
	// -----------------------------------------------------------------------
	fmt.Println("\n--- Running user lifecycles ---")

	for i := 0; i < *users; i++ {
		select {
		case <-ctx.Done():
			i = *users
			continue
		case <-time.After(interval):
		}

		wg.Add(1)
		sem <- struct{}{}
		userNum := i

		go func() {
			defer wg.Done()
			defer func() { <-sem }()

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

			username := fmt.Sprintf("loaduser%04d", userNum)
			reqCtx, reqCancel := context.WithTimeout(ctx, 10*time.Second)
			resp, err := c.Register(reqCtx, username)
			reqCancel()
			if err != nil || !resp.Success {
				collector.AddError()
				return
			}

			room := roomList[userNum%len(roomList)]
			reqCtx, reqCancel = context.WithTimeout(ctx, 10*time.Second)
			resp, err = c.Join(reqCtx, room)
			reqCancel()
			if err != nil || !resp.Success {
				collector.AddError()
				return
			}

			// Chat loop.
			deadline := time.After(*chatDuration)
			ticker := time.NewTicker(*msgInterval)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return
				case <-deadline:
					return
				case <-c.Done():
					collector.AddError()
					return
				case <-ticker.C:
					start := time.Now()
					reqCtx, reqCancel := context.WithTimeout(ctx, 10*time.Second)
					resp, err := c.Chat(reqCtx, payload)
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
	scraper.Stop()

	fmt.Println("\nAll user lifecycles complete.")
	collector.Report()
}
