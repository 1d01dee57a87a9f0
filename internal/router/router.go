// Package router dispatches inbound UI commands to the session store and the
// stream relay, and emits the resulting UI events. It is the only component
// that moves the active-session cursor.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/calegann/chatpanel/internal/format"
	"github.com/calegann/chatpanel/internal/models"
	"github.com/calegann/chatpanel/internal/protocol"
)

const errLoggerKey = "err"

// Store is the session registry surface the router drives.
type Store interface {
	CreateSession() models.ChatSession
	Messages(sessionID string) []models.ChatMessage
	AppendMessage(sessionID string, msg models.ChatMessage)
	Summaries() []models.ChatSummary
	SetActive(sessionID string) bool
	ActiveID() string
	Rename(sessionID, title string) bool
}

// Streamer runs one model response stream per session at a time. Acquire
// reserves the session's slot before any message is appended; Stream is then
// run on a background goroutine and the returned release function frees the
// slot when it finishes.
type Streamer interface {
	Acquire(sessionID string) (release func(), ok bool)
	Stream(ctx context.Context, sessionID, messageID string) error
}

// TitleGenerator produces a short session title from the first user message
// of a session. It is optional; without one, sessions keep their numbered
// titles.
type TitleGenerator interface {
	GenerateTitle(ctx context.Context, message string) (string, error)
}

// Router validates and dispatches UI commands. Handle serializes command
// processing with a mutex, so every command observes and produces a
// consistent registry state; the streams it spawns run concurrently and
// address their session and message by explicit ids.
type Router struct {
	store  Store
	relay  Streamer
	events protocol.Publisher
	titles TitleGenerator
	logger *slog.Logger

	mu sync.Mutex
}

// New creates a Router. titles may be nil to disable chat title generation.
func New(store Store, relay Streamer, events protocol.Publisher, titles TitleGenerator, logger *slog.Logger) *Router {
	return &Router{
		store:  store,
		relay:  relay,
		events: events,
		titles: titles,
		logger: logger.With(slog.String("module", "router")),
	}
}

// Handle dispatches one inbound command. Validation failures, unknown
// commands, and unknown session ids are reported as error events carrying the
// currently-active session id; they never mutate the registry.
func (rt *Router) Handle(cmd protocol.Command) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	switch cmd.Command {
	case protocol.CommandNewChat:
		rt.newChat()
	case protocol.CommandChat:
		rt.chat(cmd.Text)
	case protocol.CommandSwitchChat:
		rt.switchChat(cmd.ChatID)
	case protocol.CommandLoadChatList:
		rt.events.Publish(protocol.NewUpdateChatListEvent(rt.store.Summaries()))
	default:
		rt.fail(fmt.Sprintf("unknown command %q", cmd.Command))
	}
}

func (rt *Router) newChat() {
	sess := rt.store.CreateSession()
	rt.logger.Info("Created chat",
		slog.String("sessionID", sess.ID),
		slog.String("title", sess.Title))

	rt.events.Publish(protocol.NewLoadChatEvent(sess.ID, nil))
	rt.events.Publish(protocol.NewUpdateChatListEvent(rt.store.Summaries()))
}

func (rt *Router) chat(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		rt.fail("message text is required")
		return
	}

	sessionID := rt.store.ActiveID()
	if sessionID == "" {
		rt.fail("no active chat")
		return
	}

	release, ok := rt.relay.Acquire(sessionID)
	if !ok {
		rt.fail("a response is already streaming in this chat")
		return
	}

	firstMessage := len(rt.store.Messages(sessionID)) == 0

	userMsg := models.ChatMessage{
		Role:      models.RoleUser,
		Content:   text,
		Timestamp: time.Now(),
	}
	rt.store.AppendMessage(sessionID, userMsg)
	rt.events.Publish(protocol.NewNewMessageEvent(sessionID, userMsg))

	placeholder := models.ChatMessage{
		ID:        uuid.New().String(),
		Role:      models.RoleAssistant,
		Loading:   true,
		Timestamp: time.Now(),
	}
	rt.store.AppendMessage(sessionID, placeholder)
	rt.events.Publish(protocol.NewNewMessageEvent(sessionID, placeholder))

	if rt.titles != nil && firstMessage {
		go rt.generateTitle(sessionID, text)
	}

	// The stream runs on a background context: switching chats or closing the
	// transport must not cancel an in-flight response.
	go func() {
		defer release()
		if err := rt.relay.Stream(context.Background(), sessionID, placeholder.ID); err != nil {
			rt.events.Publish(protocol.NewErrorEvent(rt.store.ActiveID(), err.Error()))
		}
	}()
}

func (rt *Router) switchChat(id string) {
	if id == "" {
		rt.fail("chat id is required")
		return
	}
	if !rt.store.SetActive(id) {
		rt.fail(fmt.Sprintf("unknown chat id %q", id))
		return
	}

	rt.events.Publish(protocol.NewLoadChatEvent(id, rt.presentMessages(id)))
	rt.events.Publish(protocol.NewUpdateChatListEvent(rt.store.Summaries()))
}

// presentMessages renders a session's history for display. Stored assistant
// content is raw model text; formatting is applied on every emission.
func (rt *Router) presentMessages(sessionID string) []models.ChatMessage {
	msgs := rt.store.Messages(sessionID)
	for i := range msgs {
		if msgs[i].Role == models.RoleAssistant {
			msgs[i].Content = format.Format(msgs[i].Content)
		}
	}
	return msgs
}

func (rt *Router) generateTitle(sessionID, message string) {
	title, err := rt.titles.GenerateTitle(context.Background(), message)
	if err != nil {
		rt.logger.Error("Error generating chat title",
			slog.String("sessionID", sessionID),
			slog.String(errLoggerKey, err.Error()))
		return
	}
	if !rt.store.Rename(sessionID, title) {
		return
	}
	rt.events.Publish(protocol.NewUpdateChatListEvent(rt.store.Summaries()))
}

func (rt *Router) fail(message string) {
	rt.logger.Error("Command rejected", slog.String("reason", message))
	rt.events.Publish(protocol.NewErrorEvent(rt.store.ActiveID(), message))
}
