package domain

// SendMessageCommand carries a participant's intent to post a message.
type SendMessageCommand struct {
	From string
	To   string
	Text string
	Type MessageType
}

// UpdateMessageCommand overwrites the mutable fields of an existing message.
type UpdateMessageCommand struct {
	From string
	To   string
	Text string
	Type MessageType
}

// ListMessagesQuery asks for the messages visible to Viewer.
// A Limit of zero or less means no limit.
type ListMessagesQuery struct {
	Viewer string
	Limit  int
}

// SearchMessagesQuery asks for the visible messages whose text matches Text.
type SearchMessagesQuery struct {
	Viewer string
	Text   string
	Limit  int
}
