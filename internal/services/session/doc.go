// Package session is the chat history view over the state store.
//
// Sessions are stored one per key under the "chat_session_" namespace. List
// restores every session it can read and orders them most recently modified
// first; a corrupt or unreadable entry is logged and skipped so one bad file
// never hides the rest of the history. Errors enumerating the store itself
// are returned.
package session
