package types

// Key identifies one persisted entry. It must be a single path component.
type Key string

// String returns the string form of the key.
func (k Key) String() string { return string(k) }

// SessionID is the caller-assigned identifier of a chat session.
type SessionID string

// String returns the string form of the session identifier.
func (id SessionID) String() string { return string(id) }

// SessionKeyPrefix namespaces chat sessions inside the state store.
const SessionKeyPrefix = "chat_session_"

// SessionKey returns the store key a session with id is persisted under.
func SessionKey(id SessionID) Key { return Key(SessionKeyPrefix + string(id)) }
