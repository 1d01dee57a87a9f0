package protocol

import "github.com/calegann/chatpanel/internal/models"

// Event is one outbound UI event. Kind returns the value of the "command"
// discriminator so transports can label frames without unmarshaling them.
type Event interface {
	Kind() string
}

// Publisher delivers events to every connected UI shell. Implementations must
// be safe for concurrent use: the router and in-flight streaming relays
// publish from separate goroutines.
type Publisher interface {
	Publish(Event)
}

// UpdateChatListEvent carries refreshed session summaries. It is sent after
// any session create or switch, and whenever the list is requested.
type UpdateChatListEvent struct {
	Command string               `json:"command"`
	Chats   []models.ChatSummary `json:"chats"`
}

// NewUpdateChatListEvent builds an updateChatList event. A nil summary slice
// is normalized to an empty one so the wire value is always an array, never
// null.
func NewUpdateChatListEvent(chats []models.ChatSummary) UpdateChatListEvent {
	if chats == nil {
		chats = []models.ChatSummary{}
	}
	return UpdateChatListEvent{Command: EventUpdateChatList, Chats: chats}
}

// Kind implements Event.
func (UpdateChatListEvent) Kind() string { return EventUpdateChatList }

// NewMessageEvent announces a message appended to a session: the user's own
// message echoed back, or the empty assistant placeholder that subsequent
// updateMessage events will fill in.
type NewMessageEvent struct {
	Command string             `json:"command"`
	ChatID  string             `json:"chatId"`
	Message models.ChatMessage `json:"message"`
}

// NewNewMessageEvent builds a newMessage event.
func NewNewMessageEvent(chatID string, msg models.ChatMessage) NewMessageEvent {
	return NewMessageEvent{Command: EventNewMessage, ChatID: chatID, Message: msg}
}

// Kind implements Event.
func (NewMessageEvent) Kind() string { return EventNewMessage }

// UpdateMessageEvent carries the re-rendered HTML for one assistant message.
// Loading is always present on the wire: the shell relies on the explicit
// false to stop its typing indicator.
type UpdateMessageEvent struct {
	Command   string `json:"command"`
	ChatID    string `json:"chatId"`
	MessageID string `json:"messageId"`
	Content   string `json:"content"`
	Loading   bool   `json:"loading"`
}

// NewUpdateMessageEvent builds an updateMessage event.
func NewUpdateMessageEvent(chatID, messageID, content string, loading bool) UpdateMessageEvent {
	return UpdateMessageEvent{
		Command:   EventUpdateMessage,
		ChatID:    chatID,
		MessageID: messageID,
		Content:   content,
		Loading:   loading,
	}
}

// Kind implements Event.
func (UpdateMessageEvent) Kind() string { return EventUpdateMessage }

// LoadChatEvent carries the full message history of a session, sent when the
// active session changes so the shell can repaint the transcript.
type LoadChatEvent struct {
	Command  string               `json:"command"`
	ChatID   string               `json:"chatId"`
	Messages []models.ChatMessage `json:"messages"`
}

// NewLoadChatEvent builds a loadChat event. A nil message slice is normalized
// to an empty one, matching the array the shell iterates over.
func NewLoadChatEvent(chatID string, messages []models.ChatMessage) LoadChatEvent {
	if messages == nil {
		messages = []models.ChatMessage{}
	}
	return LoadChatEvent{Command: EventLoadChat, ChatID: chatID, Messages: messages}
}

// Kind implements Event.
func (LoadChatEvent) Kind() string { return EventLoadChat }

// ErrorEvent reports a failed command or stream. ChatID is the session active
// at the moment of failure, which may be empty before the first session
// exists.
type ErrorEvent struct {
	Command string `json:"command"`
	ChatID  string `json:"chatId"`
	Message string `json:"message"`
}

// NewErrorEvent builds an error event.
func NewErrorEvent(chatID, message string) ErrorEvent {
	return ErrorEvent{Command: EventError, ChatID: chatID, Message: message}
}

// Kind implements Event.
func (ErrorEvent) Kind() string { return EventError }
