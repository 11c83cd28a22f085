package database

import "time"

type User struct {
	Id           int
	Username     string
	EmailAddress string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Session struct {
	Id        string
	UserId    int
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

type Conversation struct {
	Id         int
	ExternalId string
	IsGroup    bool
	Name       string
	DirectKey  string
	SeqId      int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Participant struct {
	ConversationId int
	UserId         int
	Username       string
	LastReadSeqId  int
}

type Message struct {
	Id             int
	SeqId          int
	ConversationId int
	SenderId       int
	SenderUsername string
	Type           string
	Content        string
	AttachmentURL  string
	CreatedAt      time.Time
	ReadAt         *time.Time
}

type Notification struct {
	Id            int
	RecipientId   int
	ActorId       int
	ActorUsername string
	Type          string
	EntityType    string
	EntityId      int
	IsRead        bool
	CreatedAt     time.Time
}

type LedgerEntry struct {
	Id         string
	SenderId   int
	ReceiverId int
	Amount     int64
	Type       string
	PostId     int
	CreatedAt  time.Time
}

type Comment struct {
	Id        int
	PostId    int
	ReelId    int
	OwnerId   int
	Content   string
	CreatedAt time.Time
}

type Poll struct {
	Id       int
	OwnerId  int
	PostId   int
	Question string
}

type PollVote struct {
	Id        int
	PollId    int
	OptionId  int
	UserId    int
	CreatedAt time.Time
}

type PollOptionCount struct {
	OptionId int
	Label    string
	Votes    int
}

type CallRecord struct {
	Id              int
	CallerId        int
	ReceiverId      int
	Type            string
	Status          string
	DurationSeconds int
	StartedAt       time.Time
	EndedAt         time.Time
	CreatedAt       time.Time
}

// LikeTarget selects the like table for a toggle. Values map to fixed
// table names and are never taken from user input directly.
type LikeTarget string

const (
	LikePost    LikeTarget = "post"
	LikeReel    LikeTarget = "reel"
	LikeComment LikeTarget = "comment"
)

func (t LikeTarget) table() (string, bool) {
	switch t {
	case LikePost:
		return "post_likes", true
	case LikeReel:
		return "reel_likes", true
	case LikeComment:
		return "comment_likes", true
	}
	return "", false
}

type CreateAccountParams struct {
	Username     string
	EmailAddress string
	PasswordHash string
}

type CreateMessageParams struct {
	ConversationId int
	SeqId          int
	SenderId       int
	Type           string
	Content        string
	AttachmentURL  string
	CreatedAt      time.Time
}

type CreateNotificationParams struct {
	RecipientId int
	ActorId     int
	Type        string
	EntityType  string
	EntityId    int
}

type CreateCommentParams struct {
	PostId  int
	ReelId  int
	OwnerId int
	Content string
}

type CreateCallRecordParams struct {
	CallerId        int
	ReceiverId      int
	Type            string
	Status          string
	DurationSeconds int
	StartedAt       time.Time
	EndedAt         time.Time
}
