package types

import (
	"time"
)

type User struct {
	Id           int       `json:"id"`
	Username     string    `json:"username"`
	EmailAddress string    `json:"email_address,omitempty"`
	Password     string    `json:"-"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// Public returns the view of u that other users may see.
func (u User) Public() User {
	return User{Id: u.Id, Username: u.Username}
}

// OptionalTime returns nil for the zero time.
func OptionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

type Conversation struct {
	Id           int       `json:"id"`
	ExternalId   string    `json:"external_id"`
	IsGroup      bool      `json:"is_group"`
	Name         string    `json:"name,omitempty"`
	SeqId        int       `json:"seq_id"`
	Participants []User    `json:"participants"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

type MessageType string

const (
	MessageText      MessageType = "text"
	MessageImage     MessageType = "image"
	MessageFile      MessageType = "file"
	MessageSharePost MessageType = "share_post"
	MessageShareReel MessageType = "share_reel"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageText, MessageImage, MessageFile, MessageSharePost, MessageShareReel:
		return true
	}
	return false
}

type Message struct {
	Id             int         `json:"id"`
	SeqId          int         `json:"seq_id"`
	ConversationId string      `json:"conversation_id"`
	Sender         User        `json:"sender"`
	Type           MessageType `json:"type"`
	Content        string      `json:"content,omitempty"`
	AttachmentURL  string      `json:"attachment_url,omitempty"`
	Timestamp      time.Time   `json:"timestamp"`
	ReadAt         *time.Time  `json:"read_at,omitempty"`
}

type NotificationType string

const (
	NotifyLikePost    NotificationType = "like_post"
	NotifyCommentPost NotificationType = "comment_post"
	NotifyLikeReel    NotificationType = "like_reel"
	NotifyCommentReel NotificationType = "comment_reel"
	NotifyLikeComment NotificationType = "like_comment"
	NotifyFollow      NotificationType = "follow"
	NotifyTipPost     NotificationType = "tip_post"
)

type Notification struct {
	Id          int              `json:"id"`
	RecipientId int              `json:"recipient_id"`
	Actor       User             `json:"actor"`
	Type        NotificationType `json:"type"`
	EntityType  string           `json:"entity_type,omitempty"`
	EntityId    int              `json:"entity_id,omitempty"`
	IsRead      bool             `json:"is_read"`
	CreatedAt   time.Time        `json:"created_at"`
}

type LedgerEntry struct {
	Id         string    `json:"id"`
	SenderId   int       `json:"sender_id"`
	ReceiverId int       `json:"receiver_id"`
	Amount     int64     `json:"amount"`
	Type       string    `json:"type"`
	PostId     int       `json:"post_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type Wallet struct {
	UserId  int   `json:"user_id"`
	Balance int64 `json:"balance"`
}

type Comment struct {
	Id        int       `json:"id"`
	PostId    int       `json:"post_id,omitempty"`
	ReelId    int       `json:"reel_id,omitempty"`
	Author    User      `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type PollVote struct {
	Id        int       `json:"id"`
	PollId    int       `json:"poll_id"`
	OptionId  int       `json:"option_id"`
	UserId    int       `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type PollOptionCount struct {
	OptionId int    `json:"option_id"`
	Label    string `json:"label"`
	Votes    int    `json:"votes"`
}

type CallRecord struct {
	Id              int       `json:"id"`
	CallerId        int       `json:"caller_id"`
	ReceiverId      int       `json:"receiver_id"`
	Type            string    `json:"type"`
	Status          string    `json:"status"`
	DurationSeconds int       `json:"duration_seconds"`
	StartedAt       time.Time `json:"started_at"`
	EndedAt         time.Time `json:"ended_at"`
}

type LiveComment struct {
	StreamId  string    `json:"stream_id"`
	Author    User      `json:"author"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
