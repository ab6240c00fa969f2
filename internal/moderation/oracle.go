package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/cursorstyle/chat-gateway/internal/metrics"
)

// Verdict is an asynchronous classification of an already-delivered message.
type Verdict struct {
	Flagged  bool   `json:"flagged"`
	Category string `json:"category,omitempty"`
	Severity string `json:"severity,omitempty"`
}

// AuditRecord is the fire-and-forget event published when the oracle flags a
// message after delivery.
type AuditRecord struct {
	MessageID string    `json:"message_id"`
	RoomID    string    `json:"room_id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	Verdict   Verdict   `json:"verdict"`
	CheckedAt time.Time `json:"checked_at"`
}

// AuditPublisher delivers audit records to interested consumers.
type AuditPublisher interface {
	PublishModerationAudit(data []byte) error
}

// Oracle asks an external LLM endpoint whether a message is abusive. It runs
// out of band, after the message has already been delivered, and it fails
// open: any transport or parse problem yields a clean verdict.
type Oracle struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
	audit    AuditPublisher
}

// oracle request/response bodies follow the OpenAI-compatible chat schema.
type oracleRequest struct {
	Model       string          `json:"model"`
	Messages    []oracleMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
}

type oracleMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type oracleResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

const oracleSystemPrompt = `You are a chat moderation classifier. Decide whether the user message is abusive: harassment, hate speech, sexual content involving minors, threats of violence, or doxxing. Respond with a single JSON object: {"flagged": true|false, "category": "...", "severity": "low"|"medium"|"high"}. Respond with JSON only.`

// NewOracle builds an Oracle. audit may be nil, in which case flagged
// verdicts are only logged.
func NewOracle(endpoint, apiKey, model string, timeout time.Duration, audit AuditPublisher) *Oracle {
	return &Oracle{
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		client:   &http.Client{Timeout: timeout},
		audit:    audit,
	}
}

// Enabled reports whether the oracle has an endpoint and key configured.
// When disabled, Classify returns a clean verdict without a network call.
func (o *Oracle) Enabled() bool {
	return o.endpoint != "" && o.apiKey != ""
}

// Classify asks the LLM endpoint for a verdict on text. Every failure mode
// returns a clean verdict and a non-nil error for the caller to log.
func (o *Oracle) Classify(ctx context.Context, text string) (Verdict, error) {
	if !o.Enabled() {
		return Verdict{}, nil
	}

	body, err := json.Marshal(oracleRequest{
		Model: o.model,
		Messages: []oracleMessage{
			{Role: "system", Content: oracleSystemPrompt},
			{Role: "user", Content: text},
		},
		MaxTokens:   100,
		Temperature: 0,
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("moderation: marshal oracle request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		return Verdict{}, fmt.Errorf("moderation: build oracle request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return Verdict{}, fmt.Errorf("moderation: oracle request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Verdict{}, fmt.Errorf("moderation: oracle status %d", resp.StatusCode)
	}

	var parsed oracleResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Verdict{}, fmt.Errorf("moderation: decode oracle response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return Verdict{}, fmt.Errorf("moderation: oracle response has no choices")
	}

	var verdict Verdict
	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.Content), &verdict); err != nil {
		return Verdict{}, fmt.Errorf("moderation: parse oracle verdict: %w", err)
	}
	return verdict, nil
}

// Review classifies text in the background and, if flagged, publishes an
// audit record. Any error is logged and otherwise swallowed: the message has
// already been delivered and a broken oracle must not affect the gateway.
func (o *Oracle) Review(ctx context.Context, messageID, roomID, username, text string) {
	verdict, err := o.Classify(ctx, text)
	if err != nil {
		metrics.OracleChecks.WithLabelValues("error").Inc()
		log.Printf("[moderation] oracle review failed message=%s: %v", messageID, err)
		return
	}
	if !verdict.Flagged {
		metrics.OracleChecks.WithLabelValues("clean").Inc()
		return
	}
	metrics.OracleChecks.WithLabelValues("flagged").Inc()

	log.Printf("[moderation] oracle FLAGGED message=%s room=%s category=%s severity=%s",
		messageID, roomID, verdict.Category, verdict.Severity)

	if o.audit == nil {
		return
	}
	record := AuditRecord{
		MessageID: messageID,
		RoomID:    roomID,
		Username:  username,
		Text:      text,
		Verdict:   verdict,
		CheckedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		log.Printf("[moderation] marshal audit record: %v", err)
		return
	}
	if err := o.audit.PublishModerationAudit(data); err != nil {
		log.Printf("[moderation] publish audit record: %v", err)
	}
}
