// Package protocol defines the JSON command/event contract between the panel
// core and its host UI shell. Both directions are discriminated by a single
// "command" key; the shapes here are a compatibility surface and must not
// change without coordinating with the shell.
package protocol

// Command names accepted from the UI shell.
const (
	CommandNewChat      = "newChat"
	CommandChat         = "chat"
	CommandSwitchChat   = "switchChat"
	CommandLoadChatList = "loadChatList"
)

// Event names emitted to the UI shell.
const (
	EventUpdateChatList = "updateChatList"
	EventNewMessage     = "newMessage"
	EventUpdateMessage  = "updateMessage"
	EventLoadChat       = "loadChat"
	EventError          = "error"
)

// Command is one inbound UI command. Text is set for "chat"; ChatID is set
// for "switchChat". Unknown command names are rejected by the router with an
// error event rather than dropped silently.
type Command struct {
	Command string `json:"command"`
	Text    string `json:"text,omitempty"`
	ChatID  string `json:"chatId,omitempty"`
}
