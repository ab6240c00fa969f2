// Package gateway wires the ingress pipeline: every client request passes
// the ban ledger, its operation's rate budget, and the abuse scan before its
// handler runs. Handlers implement the chat operations on top of the store,
// the room registry, and the moderation stack.
package gateway

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cursorstyle/chat-gateway/internal/abuse"
	"github.com/cursorstyle/chat-gateway/internal/config"
	"github.com/cursorstyle/chat-gateway/internal/history"
	"github.com/cursorstyle/chat-gateway/internal/identity"
	"github.com/cursorstyle/chat-gateway/internal/metrics"
	"github.com/cursorstyle/chat-gateway/internal/moderation"
	"github.com/cursorstyle/chat-gateway/internal/protocol"
	"github.com/cursorstyle/chat-gateway/internal/ratelimit"
	"github.com/cursorstyle/chat-gateway/internal/room"
	"github.com/cursorstyle/chat-gateway/internal/store"
	"github.com/cursorstyle/chat-gateway/internal/ws"
)

// handlerTimeout bounds the backend calls made by a single handler run.
const handlerTimeout = 5 * time.Second

// banLedger is the ban surface the pipeline needs. *ban.Ledger satisfies it.
type banLedger interface {
	RecordViolation(ctx context.Context, origin, reason string) error
	IsBanned(ctx context.Context, origin string) (bool, int, error)
	Duration() time.Duration
}

// rateTracker is the rate budget surface. *ratelimit.Tracker satisfies it.
type rateTracker interface {
	Consume(ctx context.Context, connID string, rule ratelimit.Rule) (bool, error)
}

// Gateway holds every dependency the handlers touch.
type Gateway struct {
	cfg       config.Config
	store     *store.Store
	cipher    *identity.Cipher
	registry  *room.Registry
	history   *history.Cache
	limiter   rateTracker
	ledger    banLedger
	moderator *moderation.Moderator
	oracle    *moderation.Oracle

	// disconnect force-closes a connection after a security violation.
	// Wired to ws.Server.RemoveConnection in production.
	disconnect func(conn *ws.Connection)
}

// New assembles a Gateway. disconnect may be nil, in which case violating
// connections are left open after the ban is recorded.
func New(
	cfg config.Config,
	st *store.Store,
	cipher *identity.Cipher,
	registry *room.Registry,
	hist *history.Cache,
	limiter rateTracker,
	ledger banLedger,
	moderator *moderation.Moderator,
	oracle *moderation.Oracle,
	disconnect func(conn *ws.Connection),
) *Gateway {
	return &Gateway{
		cfg:        cfg,
		store:      st,
		cipher:     cipher,
		registry:   registry,
		history:    hist,
		limiter:    limiter,
		ledger:     ledger,
		moderator:  moderator,
		oracle:     oracle,
		disconnect: disconnect,
	}
}

// SetDisconnect wires the force-close hook after the server exists.
func (g *Gateway) SetDisconnect(fn func(conn *ws.Connection)) {
	g.disconnect = fn
}

// RegisterHandlers binds every operation to the dispatcher, each behind the
// guard pipeline with its operation's rate budget.
func (g *Gateway) RegisterHandlers(d *ws.MessageDispatcher) {
	d.Register(protocol.TypeGetRooms, g.guard("get_rooms", nil, g.handleGetRooms))
	d.Register(protocol.TypeRegisterUser, g.guard("register_user", &ratelimit.RuleRegister, g.handleRegisterUser))
	d.Register(protocol.TypeCheckUsername, g.guard("check_username", &ratelimit.RuleUsernameCheck, g.handleCheckUsername))
	d.Register(protocol.TypeJoinRoom, g.guard("join_room", &ratelimit.RuleJoinRoom, g.handleJoinRoom))
	d.Register(protocol.TypeChatMessage, g.guard("chat_message", &ratelimit.RuleChatMessage, g.handleChatMessage))
	d.Register(protocol.TypeGetHistoryChunk, g.guard("get_history_chunk", &ratelimit.RuleHistory, g.handleGetHistoryChunk))
	d.Register(protocol.TypeCreateRoom, g.guard("create_room", nil, g.handleCreateRoom))
}

// OnConnect registers a fresh session for an accepted connection.
func (g *Gateway) OnConnect(conn *ws.Connection) {
	g.registry.Register(conn.ID, conn)
}

// OnDisconnect tears down the session for a closed connection.
func (g *Gateway) OnDisconnect(connID string) {
	g.registry.Unregister(connID)
}

// guard wraps a handler with the fixed ingress pipeline: ban ledger first,
// then the operation's rate budget (nil rule means unmetered), then the
// abuse scan over the full decoded payload. Only a clean pass reaches the
// handler.
func (g *Gateway) guard(op string, rule *ratelimit.Rule, next ws.MessageHandler) ws.MessageHandler {
	return func(conn *ws.Connection, env protocol.Envelope, msg any) {
		timer := prometheus.NewTimer(metrics.HandlerLatency.WithLabelValues(op))
		defer timer.ObserveDuration()

		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()

		// A banned origin retrying mid-ban is rejected and disconnected.
		// The ban window is not refreshed; only a new violation extends it.
		banned, remaining, err := g.ledger.IsBanned(ctx, conn.OriginKey)
		if err != nil {
			log.Printf("[gateway] ban check failed origin=%s: %v", conn.OriginKey, err)
		}
		if banned {
			metrics.BansTotal.WithLabelValues("banned_retry").Inc()
			g.sendBanned(conn, remaining, "You are still banned")
			if g.disconnect != nil {
				g.disconnect(conn)
			}
			return
		}

		// Rate exhaustion is a soft denial: no side effects, never a ban.
		if rule != nil {
			allowed, _ := g.limiter.Consume(ctx, conn.ID, *rule)
			if !allowed {
				metrics.RateLimitDenials.WithLabelValues(op).Inc()
				g.send(conn, protocol.RateLimitedMsg{
					Type:       protocol.TypeRateLimited,
					Ref:        env.Ref,
					RetryAfter: int(rule.Window.Seconds()),
				})
				return
			}
		}

		// Injection signatures anywhere in the payload, including nested
		// structures, escalate straight to a ban and disconnect.
		var payload any
		if len(env.Raw) > 0 && json.Unmarshal(env.Raw, &payload) == nil && abuse.Scan(payload) {
			log.Printf("[gateway] malicious input origin=%s op=%s", conn.OriginKey, op)
			if err := g.ledger.RecordViolation(ctx, conn.OriginKey, "abuse_signature"); err != nil {
				log.Printf("[gateway] ban write failed origin=%s: %v", conn.OriginKey, err)
			}
			metrics.BansTotal.WithLabelValues("abuse_signature").Inc()
			g.sendBanned(conn, int(g.ledger.Duration().Seconds()),
				"Suspicious input detected. You are banned for 30 seconds.")
			if g.disconnect != nil {
				g.disconnect(conn)
			}
			return
		}

		next(conn, env, msg)
	}
}

func (g *Gateway) send(conn *ws.Connection, payload any) {
	data, err := protocol.NewServerMessage(payload)
	if err != nil {
		log.Printf("[gateway] marshal response conn=%s: %v", conn.ID, err)
		return
	}
	if err := conn.WriteMessage(data); err != nil {
		log.Printf("[gateway] send conn=%s: %v", conn.ID, err)
	}
}

func (g *Gateway) sendBanned(conn *ws.Connection, seconds int, reason string) {
	g.send(conn, protocol.BannedMsg{
		Type:     protocol.TypeBanned,
		Duration: seconds,
		Reason:   reason,
	})
}

// respond sends a request/response frame, echoing the request's ref.
func (g *Gateway) respond(conn *ws.Connection, ref string, success bool, reason string, data any) {
	g.send(conn, protocol.ResponseMsg{
		Type:    protocol.TypeResponse,
		Ref:     ref,
		Success: success,
		Reason:  reason,
		Data:    data,
	})
}

// fail is the ValidationError response: a reason, no side effects.
func (g *Gateway) fail(conn *ws.Connection, ref, reason string) {
	g.respond(conn, ref, false, reason, nil)
}

// serverError is the PersistenceFailure response: the cause is logged, the
// client sees only a generic reason.
func (g *Gateway) serverError(conn *ws.Connection, ref string, err error) {
	log.Printf("[gateway] internal error conn=%s: %v", conn.ID, err)
	g.fail(conn, ref, "Server error")
}
