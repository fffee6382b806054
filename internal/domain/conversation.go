package domain

// Conversation is the ordered transcript owned by a visitor's session.
type Conversation []ChatMessage

// Append returns a new Conversation with msgs added at the end. The receiver
// is never modified, so callers may keep earlier snapshots.
func (c Conversation) Append(msgs ...ChatMessage) Conversation {
	out := make(Conversation, 0, len(c)+len(msgs))
	out = append(out, c...)
	return append(out, msgs...)
}
