package mutation

import (
	"github.com/npezzotti/gosocial/internal/database"
	"github.com/npezzotti/gosocial/internal/types"
)

func toUser(u database.User) types.User {
	return types.User{
		Id:        u.Id,
		Username:  u.Username,
		CreatedAt: types.OptionalTime(u.CreatedAt),
		UpdatedAt: types.OptionalTime(u.UpdatedAt),
	}
}

func toConversation(c database.Conversation, participants []database.Participant) types.Conversation {
	users := make([]types.User, 0, len(participants))
	for _, p := range participants {
		users = append(users, types.User{Id: p.UserId, Username: p.Username})
	}

	return types.Conversation{
		Id:           c.Id,
		ExternalId:   c.ExternalId,
		IsGroup:      c.IsGroup,
		Name:         c.Name,
		SeqId:        c.SeqId,
		Participants: users,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func toMessage(m database.Message, conversationId string, sender types.User) types.Message {
	return types.Message{
		Id:             m.Id,
		SeqId:          m.SeqId,
		ConversationId: conversationId,
		Sender:         sender,
		Type:           types.MessageType(m.Type),
		Content:        m.Content,
		AttachmentURL:  m.AttachmentURL,
		Timestamp:      m.CreatedAt,
		ReadAt:         m.ReadAt,
	}
}

func toNotification(n database.Notification, actor types.User) types.Notification {
	return types.Notification{
		Id:          n.Id,
		RecipientId: n.RecipientId,
		Actor:       actor,
		Type:        types.NotificationType(n.Type),
		EntityType:  n.EntityType,
		EntityId:    n.EntityId,
		IsRead:      n.IsRead,
		CreatedAt:   n.CreatedAt,
	}
}

func toLedgerEntry(e database.LedgerEntry) types.LedgerEntry {
	return types.LedgerEntry{
		Id:         e.Id,
		SenderId:   e.SenderId,
		ReceiverId: e.ReceiverId,
		Amount:     e.Amount,
		Type:       e.Type,
		PostId:     e.PostId,
		CreatedAt:  e.CreatedAt,
	}
}

func toPollCounts(counts []database.PollOptionCount) []types.PollOptionCount {
	out := make([]types.PollOptionCount, 0, len(counts))
	for _, c := range counts {
		out = append(out, types.PollOptionCount{OptionId: c.OptionId, Label: c.Label, Votes: c.Votes})
	}
	return out
}

func toCallRecord(c database.CallRecord) types.CallRecord {
	return types.CallRecord{
		Id:              c.Id,
		CallerId:        c.CallerId,
		ReceiverId:      c.ReceiverId,
		Type:            c.Type,
		Status:          c.Status,
		DurationSeconds: c.DurationSeconds,
		StartedAt:       c.StartedAt,
		EndedAt:         c.EndedAt,
	}
}
