// Package relay drives one streaming model response into one assistant
// message: it sends the prior conversation to the backend, accumulates the
// returned fragments, and publishes an incrementally re-rendered update event
// per fragment. The session store is written exactly once per stream, at the
// end, with the raw accumulated text; formatting is applied only on emission.
package relay

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/calegann/chatpanel/internal/format"
	"github.com/calegann/chatpanel/internal/models"
	"github.com/calegann/chatpanel/internal/protocol"
)

// FallbackContent replaces the assistant message's content when a stream
// fails, so the bubble never stays in a perpetually loading state. The stored
// content is this fixed string, never the partial accumulation.
const FallbackContent = "Something went wrong while generating a response. " +
	"Please check that the model server is running and try again."

var errEmptyContext = errors.New("no messages to process")

const errLoggerKey = "err"

// LLM is a streaming chat backend. The returned iterator yields text
// fragments in arrival order; iteration ends on stream exhaustion or after
// yielding a single non-nil error.
type LLM interface {
	Chat(ctx context.Context, model string, messages []models.ChatMessage) iter.Seq2[string, error]
}

// Store is the slice of the session registry the relay needs: reading a
// session's history and finalizing the assistant message it streams into.
type Store interface {
	Messages(sessionID string) []models.ChatMessage
	UpdateMessage(sessionID, messageID, content string, loading bool)
}

// Relay streams model responses into assistant messages. Streams address
// their session and message by explicit ids, so they keep landing on the
// right message even when the active session changes mid-stream.
type Relay struct {
	llm    LLM
	store  Store
	events protocol.Publisher
	model  string
	logger *slog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// New creates a Relay that sends requests for the given model identifier.
func New(llm LLM, store Store, events protocol.Publisher, model string, logger *slog.Logger) *Relay {
	return &Relay{
		llm:      llm,
		store:    store,
		events:   events,
		model:    model,
		logger:   logger.With(slog.String("module", "relay")),
		inFlight: make(map[string]struct{}),
	}
}

// Acquire reserves the session's streaming slot. It returns false while a
// previous stream on the same session is still running; otherwise it returns
// a release function the caller must invoke once the stream finishes.
func (r *Relay) Acquire(sessionID string) (func(), bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, busy := r.inFlight[sessionID]; busy {
		return nil, false
	}
	r.inFlight[sessionID] = struct{}{}
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.inFlight, sessionID)
	}, true
}

// Stream sends the session's history to the backend and streams the response
// into the message with messageID. The history is read once at the start; the
// trailing placeholder (messageID itself) is excluded from the prompt
// context. An empty context fails immediately, identically to a backend
// failure: the message content becomes FallbackContent, a final not-loading
// update event is published, and the error is returned so the caller can
// surface a separate error event.
func (r *Relay) Stream(ctx context.Context, sessionID, messageID string) error {
	start := time.Now()
	metricStreamsActive.Inc()
	defer metricStreamsActive.Dec()
	defer func() {
		metricStreamDuration.Observe(time.Since(start).Seconds())
	}()

	history := r.store.Messages(sessionID)
	if n := len(history); n > 0 && history[n-1].ID == messageID {
		history = history[:n-1]
	}
	if len(history) == 0 {
		return r.fail(sessionID, messageID, errEmptyContext)
	}

	var buf strings.Builder
	for fragment, err := range r.llm.Chat(ctx, r.model, history) {
		if err != nil {
			return r.fail(sessionID, messageID, err)
		}
		if fragment == "" {
			continue
		}
		buf.WriteString(fragment)
		metricStreamFragments.Inc()
		r.events.Publish(protocol.NewUpdateMessageEvent(
			sessionID, messageID, format.Format(buf.String()), true))
	}

	r.store.UpdateMessage(sessionID, messageID, buf.String(), false)
	r.events.Publish(protocol.NewUpdateMessageEvent(
		sessionID, messageID, format.Format(buf.String()), false))

	r.logger.Debug("Stream completed",
		slog.String("sessionID", sessionID),
		slog.String("messageID", messageID),
		slog.Int("responseLength", buf.Len()))
	return nil
}

// fail finalizes the assistant message with the fallback content and
// re-signals the cause. The caller surfaces the distinct error event; the UI
// therefore observes both an updated message bubble and an error
// notification for the same failure.
func (r *Relay) fail(sessionID, messageID string, cause error) error {
	metricStreamFailures.Inc()
	r.logger.Error("Stream failed",
		slog.String("sessionID", sessionID),
		slog.String("messageID", messageID),
		slog.String(errLoggerKey, cause.Error()))

	r.store.UpdateMessage(sessionID, messageID, FallbackContent, false)
	r.events.Publish(protocol.NewUpdateMessageEvent(
		sessionID, messageID, format.Format(FallbackContent), false))
	return fmt.Errorf("stream response: %w", cause)
}
