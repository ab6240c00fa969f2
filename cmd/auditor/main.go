// The auditor is a standalone consumer for moderation audit records. The
// gateway publishes a record whenever the content oracle flags a delivered
// message; this process subscribes and writes a reviewable audit trail.
package main

import (
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cursorstyle/chat-gateway/internal/messaging"
	"github.com/cursorstyle/chat-gateway/internal/moderation"
)

func main() {
	log.Println("starting moderation auditor")

	natsConfig := messaging.DefaultNATSConfig()
	if v := os.Getenv("NATS_URL"); v != "" {
		natsConfig.URL = v
	}
	natsConfig.Name = "chat-gateway-auditor"

	natsClient, err := messaging.NewNATSClient(natsConfig)
	if err != nil {
		log.Fatalf("connect to NATS: %v", err)
	}

	err = natsClient.SubscribeModerationAudit(func(data []byte) {
		var rec moderation.AuditRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			log.Printf("[auditor] unmarshal audit record: %v", err)
			return
		}
		log.Printf("[auditor] FLAGGED message=%s room=%s user=%s category=%s severity=%s text=%q",
			rec.MessageID, rec.RoomID, rec.Username, rec.Verdict.Category, rec.Verdict.Severity, rec.Text)
	})
	if err != nil {
		log.Fatalf("subscribe to audit records: %v", err)
	}

	log.Printf("auditor listening on %s (subject %s)", natsConfig.URL, messaging.SubjectModerationAudit)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("shutting down auditor")
	natsClient.Close()
}
