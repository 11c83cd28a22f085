package database

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
	Queries *MockQueries
}

func NewMockRepository() *MockRepository {
	return &MockRepository{Queries: &MockQueries{}}
}

func (m *MockRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockRepository) CreateAccount(ctx context.Context, params CreateAccountParams) (User, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) GetAccountById(ctx context.Context, accountId int) (User, error) {
	args := m.Called(ctx, accountId)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) GetAccountByEmail(ctx context.Context, email string) (User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) CreateSession(ctx context.Context, session Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}
func (m *MockRepository) GetSession(ctx context.Context, id string) (Session, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Session), args.Error(1)
}
func (m *MockRepository) DeleteSession(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockRepository) GetConversationByExternalId(ctx context.Context, externalId string) (Conversation, error) {
	args := m.Called(ctx, externalId)
	return args.Get(0).(Conversation), args.Error(1)
}
func (m *MockRepository) IsParticipant(ctx context.Context, conversationId, accountId int) (bool, error) {
	args := m.Called(ctx, conversationId, accountId)
	return args.Bool(0), args.Error(1)
}
func (m *MockRepository) GetMessages(ctx context.Context, conversationId, since, before, limit int) ([]Message, error) {
	args := m.Called(ctx, conversationId, since, before, limit)
	return args.Get(0).([]Message), args.Error(1)
}
func (m *MockRepository) ListNotifications(ctx context.Context, recipientId, limit int) ([]Notification, error) {
	args := m.Called(ctx, recipientId, limit)
	return args.Get(0).([]Notification), args.Error(1)
}
func (m *MockRepository) GetBalance(ctx context.Context, accountId int) (int64, error) {
	args := m.Called(ctx, accountId)
	return args.Get(0).(int64), args.Error(1)
}

// WithTx runs fn against m.Queries. The error registered for the call is
// returned only when fn succeeds, standing in for a failed commit.
func (m *MockRepository) WithTx(ctx context.Context, fn func(q Queries) error) error {
	args := m.Called(ctx)
	if err := fn(m.Queries); err != nil {
		return err
	}
	return args.Error(0)
}

type MockQueries struct {
	mock.Mock
}

func (m *MockQueries) GetAccount(ctx context.Context, accountId int) (User, error) {
	args := m.Called(ctx, accountId)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockQueries) FindDirectConversation(ctx context.Context, directKey string) (Conversation, error) {
	args := m.Called(ctx, directKey)
	return args.Get(0).(Conversation), args.Error(1)
}
func (m *MockQueries) InsertDirectConversation(ctx context.Context, externalId, directKey string) (Conversation, bool, error) {
	args := m.Called(ctx, externalId, directKey)
	return args.Get(0).(Conversation), args.Bool(1), args.Error(2)
}
func (m *MockQueries) InsertGroupConversation(ctx context.Context, externalId, name string) (Conversation, error) {
	args := m.Called(ctx, externalId, name)
	return args.Get(0).(Conversation), args.Error(1)
}
func (m *MockQueries) LockConversation(ctx context.Context, externalId string) (Conversation, error) {
	args := m.Called(ctx, externalId)
	return args.Get(0).(Conversation), args.Error(1)
}
func (m *MockQueries) AddParticipant(ctx context.Context, conversationId, accountId int) error {
	args := m.Called(ctx, conversationId, accountId)
	return args.Error(0)
}
func (m *MockQueries) ListParticipants(ctx context.Context, conversationId int) ([]Participant, error) {
	args := m.Called(ctx, conversationId)
	return args.Get(0).([]Participant), args.Error(1)
}
func (m *MockQueries) NextMessageSeq(ctx context.Context, conversationId int) (int, error) {
	args := m.Called(ctx, conversationId)
	return args.Int(0), args.Error(1)
}
func (m *MockQueries) InsertMessage(ctx context.Context, params CreateMessageParams) (Message, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockQueries) MarkMessagesRead(ctx context.Context, conversationId, readerId, uptoSeqId int) (int, error) {
	args := m.Called(ctx, conversationId, readerId, uptoSeqId)
	return args.Int(0), args.Error(1)
}
func (m *MockQueries) UpdateLastReadSeqId(ctx context.Context, conversationId, accountId, seqId int) error {
	args := m.Called(ctx, conversationId, accountId, seqId)
	return args.Error(0)
}
func (m *MockQueries) GetPostOwner(ctx context.Context, postId int) (int, error) {
	args := m.Called(ctx, postId)
	return args.Int(0), args.Error(1)
}
func (m *MockQueries) GetReelOwner(ctx context.Context, reelId int) (int, error) {
	args := m.Called(ctx, reelId)
	return args.Int(0), args.Error(1)
}
func (m *MockQueries) GetCommentOwner(ctx context.Context, commentId int) (int, error) {
	args := m.Called(ctx, commentId)
	return args.Int(0), args.Error(1)
}
func (m *MockQueries) LockWallet(ctx context.Context, accountId int) (int64, error) {
	args := m.Called(ctx, accountId)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockQueries) AdjustBalance(ctx context.Context, accountId int, delta int64) (int64, error) {
	args := m.Called(ctx, accountId, delta)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockQueries) InsertLedgerEntry(ctx context.Context, entry LedgerEntry) (LedgerEntry, error) {
	args := m.Called(ctx, entry)
	return args.Get(0).(LedgerEntry), args.Error(1)
}
func (m *MockQueries) InsertNotification(ctx context.Context, params CreateNotificationParams) (Notification, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(Notification), args.Error(1)
}
func (m *MockQueries) MarkNotificationRead(ctx context.Context, notificationId, recipientId int) (bool, error) {
	args := m.Called(ctx, notificationId, recipientId)
	return args.Bool(0), args.Error(1)
}
func (m *MockQueries) GetPoll(ctx context.Context, pollId int) (Poll, error) {
	args := m.Called(ctx, pollId)
	return args.Get(0).(Poll), args.Error(1)
}
func (m *MockQueries) PollOptionExists(ctx context.Context, pollId, optionId int) (bool, error) {
	args := m.Called(ctx, pollId, optionId)
	return args.Bool(0), args.Error(1)
}
func (m *MockQueries) InsertPollVote(ctx context.Context, pollId, optionId, accountId int) (PollVote, bool, error) {
	args := m.Called(ctx, pollId, optionId, accountId)
	return args.Get(0).(PollVote), args.Bool(1), args.Error(2)
}
func (m *MockQueries) CountPollVotes(ctx context.Context, pollId int) ([]PollOptionCount, error) {
	args := m.Called(ctx, pollId)
	return args.Get(0).([]PollOptionCount), args.Error(1)
}
func (m *MockQueries) InsertLike(ctx context.Context, target LikeTarget, accountId, targetId int) (bool, error) {
	args := m.Called(ctx, target, accountId, targetId)
	return args.Bool(0), args.Error(1)
}
func (m *MockQueries) DeleteLike(ctx context.Context, target LikeTarget, accountId, targetId int) (bool, error) {
	args := m.Called(ctx, target, accountId, targetId)
	return args.Bool(0), args.Error(1)
}
func (m *MockQueries) InsertComment(ctx context.Context, params CreateCommentParams) (Comment, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(Comment), args.Error(1)
}
func (m *MockQueries) InsertFollow(ctx context.Context, followerId, followeeId int) (bool, error) {
	args := m.Called(ctx, followerId, followeeId)
	return args.Bool(0), args.Error(1)
}
func (m *MockQueries) DeleteFollow(ctx context.Context, followerId, followeeId int) (bool, error) {
	args := m.Called(ctx, followerId, followeeId)
	return args.Bool(0), args.Error(1)
}
func (m *MockQueries) InsertCallRecord(ctx context.Context, params CreateCallRecordParams) (CallRecord, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(CallRecord), args.Error(1)
}
