package types

import "time"

// ChatMessage is one immutable entry of a chat transcript.
type ChatMessage struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatSession is a persisted conversation. Messages are owned by value.
type ChatSession struct {
	ID           SessionID     `json:"id"`
	Title        string        `json:"title"`
	Messages     []ChatMessage `json:"messages"`
	Created      time.Time     `json:"created"`
	LastModified time.Time     `json:"last_modified"`
}
