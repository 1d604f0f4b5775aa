package store

// Conversation is a logical chat session of one user.
type Conversation struct {
	ID        int32
	UserID    string
	StartedAt int64
}

type FindConversation struct {
	ID     *int32
	UserID *string
	// Latest limits the result to the most recently started conversation.
	Latest bool
}

// MessageSender identifies who wrote a message: the user, the router, or a module name.
type MessageSender string

const (
	MessageSenderUser   MessageSender = "user"
	MessageSenderRouter MessageSender = "router"
)

// Message is one turn of a conversation. Messages are never updated or deleted.
type Message struct {
	ID             int32
	ConversationID int32
	Sender         MessageSender
	Content        string
	CreatedAt      int64
}

type FindMessage struct {
	ConversationID *int32
	// Limit keeps only the most recent messages.
	Limit *int
}
