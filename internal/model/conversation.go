package model

import "time"

// Conversation is a two-party message thread, typically between a
// buyer and a seller and optionally tied to a package the buyer is
// asking about.  The (InitiatorID, ReceiverID, PackageID) triple is
// unique so repeated enquiries land in the same thread.
//
// Fields:
//  ID          – primary key identifier.
//  InitiatorID – user who opened the thread.
//  ReceiverID  – the other participant.
//  PackageID   – optional package the thread is about.
//  IsActive    – soft-archive flag.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – bumped whenever a message is added, so threads sort
//                by recent activity.
type Conversation struct {
	ID          uint64    // conversations.id
	InitiatorID uint64    // conversations.initiator_id
	ReceiverID  uint64    // conversations.receiver_id
	PackageID   *uint64   // conversations.package_id (nullable)
	IsActive    bool      // conversations.is_active
	CreatedAt   time.Time // conversations.created_at
	UpdatedAt   time.Time // conversations.updated_at
}

// OtherParticipant returns the conversation partner of the given
// user.  The caller must already have verified membership.
func (c Conversation) OtherParticipant(userID uint64) uint64 {
	if userID == c.InitiatorID {
		return c.ReceiverID
	}
	return c.InitiatorID
}

// HasParticipant reports whether the user is one of the two parties.
func (c Conversation) HasParticipant(userID uint64) bool {
	return userID == c.InitiatorID || userID == c.ReceiverID
}

// Message is a single chat message inside a conversation.
//
// Fields:
//  ID             – primary key identifier.
//  ConversationID – owning conversation.
//  SenderID       – author of the message.
//  Content        – message text.
//  AttachmentURL  – optional link to an uploaded file.
//  IsRead         – whether the recipient has seen the message.
//  ReadAt         – when the recipient saw it.
//  CreatedAt      – creation timestamp.
type Message struct {
	ID             uint64     // messages.id
	ConversationID uint64     // messages.conversation_id
	SenderID       uint64     // messages.sender_id
	Content        string     // messages.content
	AttachmentURL  string     // messages.attachment_url
	IsRead         bool       // messages.is_read
	ReadAt         *time.Time // messages.read_at (nullable)
	CreatedAt      time.Time  // messages.created_at
}
