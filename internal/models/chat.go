package models

import "time"

// ChatSession is one independent conversation thread with its own message
// history. Sessions live for the lifetime of the process: messages are
// appended, never removed, and assistant messages are mutated in place while
// a response streams.
type ChatSession struct {
	ID       string
	Title    string
	Messages []ChatMessage

	CreatedAt time.Time
}

// ChatSummary is the wire shape of one entry in the session list. Active
// marks the session currently targeted by new user input.
type ChatSummary struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Active bool   `json:"active"`
}
