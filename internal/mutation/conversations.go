package mutation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/npezzotti/gosocial/internal/apperr"
	"github.com/npezzotti/gosocial/internal/database"
	"github.com/npezzotti/gosocial/internal/types"
)

type SendMessageParams struct {
	SenderId int
	// ConversationId selects an existing conversation by external id. When
	// empty the message goes to the direct conversation with RecipientId,
	// which is created if the pair has never talked.
	ConversationId string
	RecipientId    int
	Type           types.MessageType
	Content        string
	AttachmentURL  string
}

func (p *SendMessageParams) validate() error {
	if p.Type == "" {
		p.Type = types.MessageText
	}
	if !p.Type.Valid() {
		return apperr.ErrInvalidMessageType
	}

	p.Content = strings.TrimSpace(p.Content)
	if p.Content == "" && p.AttachmentURL == "" {
		return apperr.ErrEmptyMessage
	}

	if p.ConversationId == "" {
		if p.RecipientId <= 0 {
			return apperr.Invalid("recipient or conversation is required")
		}
		if p.RecipientId == p.SenderId {
			return apperr.ErrSelfConversation
		}
	}

	return nil
}

// directKey identifies the direct conversation of an unordered pair.
func directKey(a, b int) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

func (s *Service) SendMessage(ctx context.Context, params SendMessageParams) (MessageSent, error) {
	if err := params.validate(); err != nil {
		return MessageSent{}, err
	}

	var result MessageSent
	err := s.db.WithTx(ctx, func(q database.Queries) error {
		result = MessageSent{}

		sender, err := s.account(ctx, q, params.SenderId)
		if err != nil {
			return err
		}

		var conv database.Conversation
		if params.ConversationId != "" {
			conv, err = q.LockConversation(ctx, params.ConversationId)
			if err != nil {
				return notFound(err, apperr.ErrConversationMissing)
			}
		} else {
			conv, result.Created, err = s.directConversation(ctx, q, params.SenderId, params.RecipientId)
			if err != nil {
				return err
			}
		}

		participants, err := q.ListParticipants(ctx, conv.Id)
		if err != nil {
			return fmt.Errorf("list participants: %w", err)
		}
		if !slices.ContainsFunc(participants, func(p database.Participant) bool {
			return p.UserId == params.SenderId
		}) {
			return apperr.ErrNotParticipant
		}

		seq, err := q.NextMessageSeq(ctx, conv.Id)
		if err != nil {
			return fmt.Errorf("next seq: %w", err)
		}
		conv.SeqId = seq

		msg, err := q.InsertMessage(ctx, database.CreateMessageParams{
			ConversationId: conv.Id,
			SeqId:          seq,
			SenderId:       params.SenderId,
			Type:           string(params.Type),
			Content:        params.Content,
			AttachmentURL:  params.AttachmentURL,
			CreatedAt:      time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("insert message: %w", err)
		}

		// the sender has read everything up to their own message
		if err := q.UpdateLastReadSeqId(ctx, conv.Id, params.SenderId, seq); err != nil {
			return fmt.Errorf("update last read: %w", err)
		}

		result.Conversation = toConversation(conv, participants)
		result.Message = toMessage(msg, conv.ExternalId, sender)
		return nil
	})
	if err != nil {
		return MessageSent{}, err
	}

	if result.Created {
		s.log.Printf("created direct conversation %s", result.Conversation.ExternalId)
	}

	return result, nil
}

// directConversation finds or creates the direct conversation between a and
// b. A concurrent creator of the same pair makes the insert a no-op, after
// which the committed row is read back.
func (s *Service) directConversation(ctx context.Context, q database.Queries, a, b int) (database.Conversation, bool, error) {
	if _, err := s.account(ctx, q, b); err != nil {
		return database.Conversation{}, false, err
	}

	key := directKey(a, b)
	conv, err := q.FindDirectConversation(ctx, key)
	if err == nil {
		return conv, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return database.Conversation{}, false, fmt.Errorf("find direct conversation: %w", err)
	}

	externalId, err := s.newExternalId()
	if err != nil {
		return database.Conversation{}, false, fmt.Errorf("generate id: %w", err)
	}

	conv, created, err := q.InsertDirectConversation(ctx, externalId, key)
	if err != nil {
		return database.Conversation{}, false, fmt.Errorf("insert direct conversation: %w", err)
	}

	if !created {
		conv, err = q.FindDirectConversation(ctx, key)
		if err != nil {
			return database.Conversation{}, false, fmt.Errorf("find direct conversation: %w", err)
		}
		return conv, false, nil
	}

	for _, id := range []int{a, b} {
		if err := q.AddParticipant(ctx, conv.Id, id); err != nil {
			return database.Conversation{}, false, fmt.Errorf("add participant: %w", err)
		}
	}

	return conv, true, nil
}

func (s *Service) CreateGroupConversation(ctx context.Context, creatorId int, name string, memberIds []int) (ConversationCreated, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ConversationCreated{}, apperr.Invalid("group name is required")
	}

	members := []int{creatorId}
	for _, id := range memberIds {
		if !slices.Contains(members, id) {
			members = append(members, id)
		}
	}
	if len(members) < 2 {
		return ConversationCreated{}, apperr.Invalid("a group needs at least one other member")
	}

	var result ConversationCreated
	err := s.db.WithTx(ctx, func(q database.Queries) error {
		for _, id := range members {
			if _, err := s.account(ctx, q, id); err != nil {
				return err
			}
		}

		externalId, err := s.newExternalId()
		if err != nil {
			return fmt.Errorf("generate id: %w", err)
		}

		conv, err := q.InsertGroupConversation(ctx, externalId, name)
		if err != nil {
			return fmt.Errorf("insert group conversation: %w", err)
		}

		for _, id := range members {
			if err := q.AddParticipant(ctx, conv.Id, id); err != nil {
				return fmt.Errorf("add participant: %w", err)
			}
		}

		participants, err := q.ListParticipants(ctx, conv.Id)
		if err != nil {
			return fmt.Errorf("list participants: %w", err)
		}

		result = ConversationCreated{
			Conversation: toConversation(conv, participants),
			CreatorId:    creatorId,
		}
		return nil
	})
	if err != nil {
		return ConversationCreated{}, err
	}

	return result, nil
}

// MarkConversationRead marks messages from other participants as read up to
// uptoSeqId. A non-positive or out of range value means the latest message.
func (s *Service) MarkConversationRead(ctx context.Context, readerId int, conversationId string, uptoSeqId int) (ConversationRead, error) {
	var result ConversationRead
	err := s.db.WithTx(ctx, func(q database.Queries) error {
		conv, err := q.LockConversation(ctx, conversationId)
		if err != nil {
			return notFound(err, apperr.ErrConversationMissing)
		}

		participants, err := q.ListParticipants(ctx, conv.Id)
		if err != nil {
			return fmt.Errorf("list participants: %w", err)
		}

		idx := slices.IndexFunc(participants, func(p database.Participant) bool {
			return p.UserId == readerId
		})
		if idx < 0 {
			return apperr.ErrNotParticipant
		}

		if uptoSeqId <= 0 || uptoSeqId > conv.SeqId {
			uptoSeqId = conv.SeqId
		}

		marked, err := q.MarkMessagesRead(ctx, conv.Id, readerId, uptoSeqId)
		if err != nil {
			return fmt.Errorf("mark messages read: %w", err)
		}

		if err := q.UpdateLastReadSeqId(ctx, conv.Id, readerId, uptoSeqId); err != nil {
			return fmt.Errorf("update last read: %w", err)
		}

		ids := make([]int, 0, len(participants))
		for _, p := range participants {
			ids = append(ids, p.UserId)
		}

		result = ConversationRead{
			ConversationId: conv.ExternalId,
			Reader:         types.User{Id: readerId, Username: participants[idx].Username},
			UptoSeqId:      uptoSeqId,
			Marked:         marked,
			ParticipantIds: ids,
		}
		return nil
	})
	if err != nil {
		return ConversationRead{}, err
	}

	return result, nil
}
