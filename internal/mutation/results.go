package mutation

import (
	"github.com/npezzotti/gosocial/internal/database"
	"github.com/npezzotti/gosocial/internal/types"
)

// The types below are only produced by Service after a successful commit.
// The dispatcher accepts nothing else, so an event can never describe an
// uncommitted write.

type MessageSent struct {
	Message      types.Message
	Conversation types.Conversation
	// Created is set when the message started a new direct conversation.
	Created bool
}

func (m MessageSent) ParticipantIds() []int {
	return participantIds(m.Conversation)
}

type ConversationCreated struct {
	Conversation types.Conversation
	CreatorId    int
}

func (c ConversationCreated) ParticipantIds() []int {
	return participantIds(c.Conversation)
}

type ConversationRead struct {
	ConversationId string
	Reader         types.User
	UptoSeqId      int
	Marked         int
	ParticipantIds []int
}

type TipSent struct {
	Entry         types.LedgerEntry
	Notification  *types.Notification
	SenderBalance int64
}

type VoteCast struct {
	Vote   types.PollVote
	Counts []types.PollOptionCount
}

type LikeToggled struct {
	Target       database.LikeTarget
	TargetId     int
	Liked        bool
	Notification *types.Notification
}

type CommentAdded struct {
	Comment      types.Comment
	Notification *types.Notification
}

type FollowChanged struct {
	FolloweeId   int
	Following    bool
	Notification *types.Notification
}

type CallRecorded struct {
	Record types.CallRecord
}

func participantIds(c types.Conversation) []int {
	ids := make([]int, 0, len(c.Participants))
	for _, p := range c.Participants {
		ids = append(ids, p.Id)
	}
	return ids
}
