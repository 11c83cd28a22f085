package database

import "context"

// Repository is the store used outside of compound writes: session lookups
// for the binder, read endpoints, and WithTx as the only way in for writes
// that must be atomic.
type Repository interface {
	Ping() error
	CreateAccount(ctx context.Context, params CreateAccountParams) (User, error)
	GetAccountById(ctx context.Context, accountId int) (User, error)
	GetAccountByEmail(ctx context.Context, email string) (User, error)
	CreateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, id string) (Session, error)
	DeleteSession(ctx context.Context, id string) error
	GetConversationByExternalId(ctx context.Context, externalId string) (Conversation, error)
	IsParticipant(ctx context.Context, conversationId, accountId int) (bool, error)
	GetMessages(ctx context.Context, conversationId, since, before, limit int) ([]Message, error)
	ListNotifications(ctx context.Context, recipientId, limit int) ([]Notification, error)
	GetBalance(ctx context.Context, accountId int) (int64, error)

	// WithTx runs fn inside a single transaction, committing when fn
	// returns nil and rolling back otherwise. Transient failures are retried
	// by re-running fn from the start, so fn must not have side effects
	// outside of q.
	WithTx(ctx context.Context, fn func(q Queries) error) error
}

// Queries are the statements available inside a transaction.
type Queries interface {
	GetAccount(ctx context.Context, accountId int) (User, error)

	FindDirectConversation(ctx context.Context, directKey string) (Conversation, error)
	InsertDirectConversation(ctx context.Context, externalId, directKey string) (Conversation, bool, error)
	InsertGroupConversation(ctx context.Context, externalId, name string) (Conversation, error)
	LockConversation(ctx context.Context, externalId string) (Conversation, error)
	AddParticipant(ctx context.Context, conversationId, accountId int) error
	ListParticipants(ctx context.Context, conversationId int) ([]Participant, error)
	NextMessageSeq(ctx context.Context, conversationId int) (int, error)
	InsertMessage(ctx context.Context, params CreateMessageParams) (Message, error)
	MarkMessagesRead(ctx context.Context, conversationId, readerId, uptoSeqId int) (int, error)
	UpdateLastReadSeqId(ctx context.Context, conversationId, accountId, seqId int) error

	GetPostOwner(ctx context.Context, postId int) (int, error)
	GetReelOwner(ctx context.Context, reelId int) (int, error)
	GetCommentOwner(ctx context.Context, commentId int) (int, error)

	LockWallet(ctx context.Context, accountId int) (int64, error)
	AdjustBalance(ctx context.Context, accountId int, delta int64) (int64, error)
	InsertLedgerEntry(ctx context.Context, entry LedgerEntry) (LedgerEntry, error)

	InsertNotification(ctx context.Context, params CreateNotificationParams) (Notification, error)
	MarkNotificationRead(ctx context.Context, notificationId, recipientId int) (bool, error)

	GetPoll(ctx context.Context, pollId int) (Poll, error)
	PollOptionExists(ctx context.Context, pollId, optionId int) (bool, error)
	InsertPollVote(ctx context.Context, pollId, optionId, accountId int) (PollVote, bool, error)
	CountPollVotes(ctx context.Context, pollId int) ([]PollOptionCount, error)

	InsertLike(ctx context.Context, target LikeTarget, accountId, targetId int) (bool, error)
	DeleteLike(ctx context.Context, target LikeTarget, accountId, targetId int) (bool, error)
	InsertComment(ctx context.Context, params CreateCommentParams) (Comment, error)
	InsertFollow(ctx context.Context, followerId, followeeId int) (bool, error)
	DeleteFollow(ctx context.Context, followerId, followeeId int) (bool, error)

	InsertCallRecord(ctx context.Context, params CreateCallRecordParams) (CallRecord, error)
}
