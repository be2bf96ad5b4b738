package database

import (
	"database/sql"
	"time"
)

// TaskStatus is the approval state of a Task.
type TaskStatus string

const (
	// StatusAwaitingApproval is set by the upstream producer when a draft is ready for review.
	StatusAwaitingApproval TaskStatus = "Awaiting_Approval"
	// StatusSent means the final reply was delivered to the customer.
	StatusSent TaskStatus = "Sent"
	// StatusRejected means the operator discarded the task.
	StatusRejected TaskStatus = "Rejected"
)

// Terminal reports whether no further transition is allowed out of s.
func (s TaskStatus) Terminal() bool {
	return s == StatusSent || s == StatusRejected
}

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusAwaitingApproval, StatusSent, StatusRejected:
		return true
	}
	return false
}

// Task is one customer message together with its AI draft and the operator's
// edit, tracked through the approval lifecycle.
type Task struct {
	TaskID        string         `db:"task_id"`
	LineID        string         `db:"line_id"` // customer user id; selects the channel credentials
	UserMessage   string         `db:"user_message"`
	AIResponse    sql.NullString `db:"ai_response"`
	AdminResponse sql.NullString `db:"admin_response"`
	Status        TaskStatus     `db:"status"`
	Timestamp     time.Time      `db:"timestamp"`
}

// Channel identifies the messaging service a customer is reached through.
type Channel string

const (
	ChannelLine     Channel = "line"
	ChannelTelegram Channel = "telegram"
)

// Credentials holds the channel access token used to act on behalf of a customer's channel.
type Credentials struct {
	UserID             string    `db:"user_id"`
	Channel            Channel   `db:"channel"`
	ChannelAccessToken string    `db:"channel_access_token"`
	UpdatedAt          time.Time `db:"updated_at"`
}
