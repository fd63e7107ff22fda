// Package domain contains core concepts of the chat system.
// This file defines Message records and the visibility rules applied to them.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Everyone is the recipient of public and status messages.
const Everyone = "Todos"

// TimeLayout is the wall-clock format stored in Message.Time.
const TimeLayout = "15:04:05"

const (
	JoinText  = "entra na sala..."
	LeaveText = "sai da sala..."
)

type MessageType string

const (
	PublicMessage  MessageType = "message"
	PrivateMessage MessageType = "private_message"
	StatusMessage  MessageType = "status"
)

// IsUserType reports whether participants may author messages of this type.
func (t MessageType) IsUserType() bool {
	return t == PublicMessage || t == PrivateMessage
}

// Message represents a chat record. ID and Time are fixed at creation.
type Message struct {
	ID   uuid.UUID
	From string
	To   string
	Text string
	Type MessageType
	Time string
}

// VisibleTo applies the visibility rule: public and status messages are seen
// by everyone, private messages only by their sender and recipient.
func (m Message) VisibleTo(viewer string) bool {
	switch m.Type {
	case PublicMessage, StatusMessage:
		return true
	case PrivateMessage:
		return m.From == viewer || m.To == viewer
	default:
		return false
	}
}

// OwnedBy reports whether requester may edit or delete the message.
// Status messages belong to the system and are never owned.
func (m Message) OwnedBy(requester string) bool {
	return m.Type != StatusMessage && m.From == requester
}

// NewStatusMessage builds a system join/leave record for participant name.
func NewStatusMessage(name, text string, at time.Time) Message {
	return Message{
		From: name,
		To:   Everyone,
		Text: text,
		Type: StatusMessage,
		Time: at.Format(TimeLayout),
	}
}
