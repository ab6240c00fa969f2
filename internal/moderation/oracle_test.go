package moderation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type captivePublisher struct {
	mu      sync.Mutex
	records [][]byte
}

func (p *captivePublisher) PublishModerationAudit(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = append(p.records, data)
	return nil
}

func (p *captivePublisher) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.records)
}

func oracleServer(t *testing.T, verdict string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer auth, got %q", r.Header.Get("Authorization"))
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": verdict}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestOracleClassify(t *testing.T) {
	srv := oracleServer(t, `{"flagged": true, "category": "harassment", "severity": "high"}`)
	defer srv.Close()

	o := NewOracle(srv.URL, "test-key", "test-model", 2*time.Second, nil)
	verdict, err := o.Classify(context.Background(), "some message")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !verdict.Flagged || verdict.Category != "harassment" || verdict.Severity != "high" {
		t.Errorf("verdict = %+v", verdict)
	}
}

func TestOracleClassify_FailOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	o := NewOracle(srv.URL, "test-key", "test-model", 2*time.Second, nil)
	verdict, err := o.Classify(context.Background(), "some message")
	if err == nil {
		t.Fatal("expected error from failing upstream")
	}
	if verdict.Flagged {
		t.Error("failure must yield a clean verdict")
	}
}

func TestOracleClassify_Disabled(t *testing.T) {
	o := NewOracle("", "", "test-model", 2*time.Second, nil)
	verdict, err := o.Classify(context.Background(), "anything")
	if err != nil || verdict.Flagged {
		t.Errorf("disabled oracle: verdict=%+v err=%v", verdict, err)
	}
}

func TestOracleReview_PublishesAudit(t *testing.T) {
	srv := oracleServer(t, `{"flagged": true, "category": "threats", "severity": "medium"}`)
	defer srv.Close()

	pub := &captivePublisher{}
	o := NewOracle(srv.URL, "test-key", "test-model", 2*time.Second, pub)
	o.Review(context.Background(), "msg-1", "general", "someone", "a flagged message")

	if pub.len() != 1 {
		t.Fatalf("published %d audit records, want 1", pub.len())
	}
	var record AuditRecord
	if err := json.Unmarshal(pub.records[0], &record); err != nil {
		t.Fatalf("unmarshal audit record: %v", err)
	}
	if record.MessageID != "msg-1" || record.Verdict.Category != "threats" {
		t.Errorf("record = %+v", record)
	}
}

func TestOracleReview_CleanNoAudit(t *testing.T) {
	srv := oracleServer(t, `{"flagged": false}`)
	defer srv.Close()

	pub := &captivePublisher{}
	o := NewOracle(srv.URL, "test-key", "test-model", 2*time.Second, pub)
	o.Review(context.Background(), "msg-2", "general", "someone", "a clean message")

	if pub.len() != 0 {
		t.Errorf("published %d audit records, want 0", pub.len())
	}
}
