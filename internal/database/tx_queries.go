package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const (
	conversationColumns = "id, external_id, is_group, name, COALESCE(direct_key, ''), seq_id, created_at, updated_at"
	messageColumns      = "id, seq_id, conversation_id, sender_id, type, content, attachment_url, created_at, read_at"
)

type scanner interface {
	Scan(dest ...any) error
}

func scanConversation(row scanner) (Conversation, error) {
	var c Conversation
	err := row.Scan(
		&c.Id,
		&c.ExternalId,
		&c.IsGroup,
		&c.Name,
		&c.DirectKey,
		&c.SeqId,
		&c.CreatedAt,
		&c.UpdatedAt,
	)

	return c, err
}

func scanMessage(row scanner) (Message, error) {
	var (
		m      Message
		readAt sql.NullTime
	)
	err := row.Scan(
		&m.Id,
		&m.SeqId,
		&m.ConversationId,
		&m.SenderId,
		&m.Type,
		&m.Content,
		&m.AttachmentURL,
		&m.CreatedAt,
		&readAt,
	)
	if readAt.Valid {
		m.ReadAt = &readAt.Time
	}

	return m, err
}

type pgQueries struct {
	q querier
}

func (p *pgQueries) GetAccount(ctx context.Context, id int) (User, error) {
	row := p.q.QueryRowContext(ctx,
		"SELECT id, username, email, created_at, updated_at FROM accounts "+
			"WHERE id = $1 LIMIT 1",
		id,
	)

	var user User
	err := row.Scan(
		&user.Id,
		&user.Username,
		&user.EmailAddress,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	return user, err
}

func (p *pgQueries) FindDirectConversation(ctx context.Context, directKey string) (Conversation, error) {
	row := p.q.QueryRowContext(ctx,
		"SELECT "+conversationColumns+" FROM conversations WHERE direct_key = $1",
		directKey,
	)

	return scanConversation(row)
}

// InsertDirectConversation reports created=false when another transaction
// already holds the direct key. ON CONFLICT waits for that transaction to
// finish, so a following FindDirectConversation sees its row.
func (p *pgQueries) InsertDirectConversation(ctx context.Context, externalId, directKey string) (Conversation, bool, error) {
	now := time.Now().UTC()
	row := p.q.QueryRowContext(ctx,
		"INSERT INTO conversations (external_id, is_group, direct_key, created_at, updated_at) "+
			"VALUES ($1, false, $2, $3, $3) ON CONFLICT (direct_key) DO NOTHING "+
			"RETURNING "+conversationColumns,
		externalId,
		directKey,
		now,
	)

	c, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Conversation{}, false, nil
	}
	if err != nil {
		return Conversation{}, false, err
	}

	return c, true, nil
}

func (p *pgQueries) InsertGroupConversation(ctx context.Context, externalId, name string) (Conversation, error) {
	now := time.Now().UTC()
	row := p.q.QueryRowContext(ctx,
		"INSERT INTO conversations (external_id, is_group, name, created_at, updated_at) "+
			"VALUES ($1, true, $2, $3, $3) RETURNING "+conversationColumns,
		externalId,
		name,
		now,
	)

	return scanConversation(row)
}

func (p *pgQueries) LockConversation(ctx context.Context, externalId string) (Conversation, error) {
	row := p.q.QueryRowContext(ctx,
		"SELECT "+conversationColumns+" FROM conversations WHERE external_id = $1 FOR UPDATE",
		externalId,
	)

	return scanConversation(row)
}

func (p *pgQueries) AddParticipant(ctx context.Context, conversationId, accountId int) error {
	_, err := p.q.ExecContext(ctx,
		"INSERT INTO participants (conversation_id, account_id, joined_at) VALUES ($1, $2, $3) "+
			"ON CONFLICT (conversation_id, account_id) DO NOTHING",
		conversationId,
		accountId,
		time.Now().UTC(),
	)

	return err
}

func (p *pgQueries) ListParticipants(ctx context.Context, conversationId int) ([]Participant, error) {
	rows, err := p.q.QueryContext(ctx,
		"SELECT p.conversation_id, p.account_id, a.username, p.last_read_seq_id FROM participants p "+
			"JOIN accounts a ON a.id = p.account_id WHERE p.conversation_id = $1 ORDER BY p.account_id",
		conversationId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := make([]Participant, 0, 2)
	for rows.Next() {
		var part Participant
		if err := rows.Scan(&part.ConversationId, &part.UserId, &part.Username, &part.LastReadSeqId); err != nil {
			return nil, err
		}
		participants = append(participants, part)
	}

	return participants, rows.Err()
}

// NextMessageSeq increments the conversation sequence. The UPDATE holds the
// conversation row lock until commit, so sequence order is commit order.
func (p *pgQueries) NextMessageSeq(ctx context.Context, conversationId int) (int, error) {
	var seq int
	err := p.q.QueryRowContext(ctx,
		"UPDATE conversations SET seq_id = seq_id + 1, updated_at = $2 WHERE id = $1 RETURNING seq_id",
		conversationId,
		time.Now().UTC(),
	).Scan(&seq)

	return seq, err
}

func (p *pgQueries) InsertMessage(ctx context.Context, params CreateMessageParams) (Message, error) {
	row := p.q.QueryRowContext(ctx,
		"INSERT INTO messages (conversation_id, seq_id, sender_id, type, content, attachment_url, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING "+messageColumns,
		params.ConversationId,
		params.SeqId,
		params.SenderId,
		params.Type,
		params.Content,
		params.AttachmentURL,
		params.CreatedAt,
	)

	return scanMessage(row)
}

func (p *pgQueries) MarkMessagesRead(ctx context.Context, conversationId, readerId, uptoSeqId int) (int, error) {
	res, err := p.q.ExecContext(ctx,
		"UPDATE messages SET read_at = $4 WHERE conversation_id = $1 AND sender_id <> $2 "+
			"AND seq_id <= $3 AND read_at IS NULL",
		conversationId,
		readerId,
		uptoSeqId,
		time.Now().UTC(),
	)
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	return int(n), err
}

func (p *pgQueries) UpdateLastReadSeqId(ctx context.Context, conversationId, accountId, seqId int) error {
	_, err := p.q.ExecContext(ctx,
		"UPDATE participants SET last_read_seq_id = GREATEST(last_read_seq_id, $3) "+
			"WHERE conversation_id = $1 AND account_id = $2",
		conversationId,
		accountId,
		seqId,
	)

	return err
}

func (p *pgQueries) ownerOf(ctx context.Context, table string, id int) (int, error) {
	var owner int
	err := p.q.QueryRowContext(ctx,
		fmt.Sprintf("SELECT owner_id FROM %s WHERE id = $1", table),
		id,
	).Scan(&owner)

	return owner, err
}

func (p *pgQueries) GetPostOwner(ctx context.Context, postId int) (int, error) {
	return p.ownerOf(ctx, "posts", postId)
}

func (p *pgQueries) GetReelOwner(ctx context.Context, reelId int) (int, error) {
	return p.ownerOf(ctx, "reels", reelId)
}

func (p *pgQueries) GetCommentOwner(ctx context.Context, commentId int) (int, error) {
	return p.ownerOf(ctx, "comments", commentId)
}

// LockWallet returns the balance with the wallet row locked until the
// transaction ends. sql.ErrNoRows means the account has no wallet.
func (p *pgQueries) LockWallet(ctx context.Context, accountId int) (int64, error) {
	var balance int64
	err := p.q.QueryRowContext(ctx,
		"SELECT balance FROM wallets WHERE account_id = $1 FOR UPDATE",
		accountId,
	).Scan(&balance)

	return balance, err
}

func (p *pgQueries) AdjustBalance(ctx context.Context, accountId int, delta int64) (int64, error) {
	var balance int64
	err := p.q.QueryRowContext(ctx,
		"INSERT INTO wallets (account_id, balance, updated_at) VALUES ($1, $2, $3) "+
			"ON CONFLICT (account_id) DO UPDATE SET balance = wallets.balance + EXCLUDED.balance, "+
			"updated_at = EXCLUDED.updated_at RETURNING balance",
		accountId,
		delta,
		time.Now().UTC(),
	).Scan(&balance)

	return balance, err
}

func (p *pgQueries) InsertLedgerEntry(ctx context.Context, e LedgerEntry) (LedgerEntry, error) {
	var postId sql.NullInt64
	if e.PostId > 0 {
		postId = sql.NullInt64{Int64: int64(e.PostId), Valid: true}
	}

	err := p.q.QueryRowContext(ctx,
		"INSERT INTO wallet_transactions (id, sender_id, receiver_id, amount, type, post_id, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at",
		e.Id,
		e.SenderId,
		e.ReceiverId,
		e.Amount,
		e.Type,
		postId,
		time.Now().UTC(),
	).Scan(&e.CreatedAt)

	return e, err
}

func (p *pgQueries) InsertNotification(ctx context.Context, params CreateNotificationParams) (Notification, error) {
	row := p.q.QueryRowContext(ctx,
		"INSERT INTO notifications (recipient_id, actor_id, type, entity_type, entity_id, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6) "+
			"RETURNING id, recipient_id, actor_id, type, entity_type, entity_id, is_read, created_at",
		params.RecipientId,
		params.ActorId,
		params.Type,
		params.EntityType,
		params.EntityId,
		time.Now().UTC(),
	)

	var n Notification
	err := row.Scan(
		&n.Id,
		&n.RecipientId,
		&n.ActorId,
		&n.Type,
		&n.EntityType,
		&n.EntityId,
		&n.IsRead,
		&n.CreatedAt,
	)

	return n, err
}

func (p *pgQueries) MarkNotificationRead(ctx context.Context, notificationId, recipientId int) (bool, error) {
	res, err := p.q.ExecContext(ctx,
		"UPDATE notifications SET is_read = true WHERE id = $1 AND recipient_id = $2",
		notificationId,
		recipientId,
	)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n > 0, err
}

func (p *pgQueries) GetPoll(ctx context.Context, pollId int) (Poll, error) {
	var (
		poll   Poll
		postId sql.NullInt64
	)
	err := p.q.QueryRowContext(ctx,
		"SELECT id, owner_id, post_id, question FROM polls WHERE id = $1",
		pollId,
	).Scan(&poll.Id, &poll.OwnerId, &postId, &poll.Question)
	poll.PostId = int(postId.Int64)

	return poll, err
}

func (p *pgQueries) PollOptionExists(ctx context.Context, pollId, optionId int) (bool, error) {
	var exists bool
	err := p.q.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM poll_options WHERE id = $1 AND poll_id = $2)",
		optionId,
		pollId,
	).Scan(&exists)

	return exists, err
}

// InsertPollVote reports inserted=false when the account already voted in
// the poll; the existing vote row is left untouched.
func (p *pgQueries) InsertPollVote(ctx context.Context, pollId, optionId, accountId int) (PollVote, bool, error) {
	var v PollVote
	err := p.q.QueryRowContext(ctx,
		"INSERT INTO poll_votes (poll_id, option_id, account_id, created_at) VALUES ($1, $2, $3, $4) "+
			"ON CONFLICT (poll_id, account_id) DO NOTHING "+
			"RETURNING id, poll_id, option_id, account_id, created_at",
		pollId,
		optionId,
		accountId,
		time.Now().UTC(),
	).Scan(&v.Id, &v.PollId, &v.OptionId, &v.UserId, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return PollVote{}, false, nil
	}
	if err != nil {
		return PollVote{}, false, err
	}

	return v, true, nil
}

func (p *pgQueries) CountPollVotes(ctx context.Context, pollId int) ([]PollOptionCount, error) {
	rows, err := p.q.QueryContext(ctx,
		"SELECT o.id, o.label, COUNT(v.id) FROM poll_options o "+
			"LEFT JOIN poll_votes v ON v.option_id = o.id WHERE o.poll_id = $1 "+
			"GROUP BY o.id, o.label ORDER BY o.id",
		pollId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]PollOptionCount, 0)
	for rows.Next() {
		var c PollOptionCount
		if err := rows.Scan(&c.OptionId, &c.Label, &c.Votes); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}

	return counts, rows.Err()
}

func (p *pgQueries) InsertLike(ctx context.Context, target LikeTarget, accountId, targetId int) (bool, error) {
	table, ok := target.table()
	if !ok {
		return false, fmt.Errorf("unknown like target %q", target)
	}

	res, err := p.q.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (account_id, target_id, created_at) VALUES ($1, $2, $3) "+
			"ON CONFLICT (account_id, target_id) DO NOTHING", table),
		accountId,
		targetId,
		time.Now().UTC(),
	)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n > 0, err
}

func (p *pgQueries) DeleteLike(ctx context.Context, target LikeTarget, accountId, targetId int) (bool, error) {
	table, ok := target.table()
	if !ok {
		return false, fmt.Errorf("unknown like target %q", target)
	}

	res, err := p.q.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE account_id = $1 AND target_id = $2", table),
		accountId,
		targetId,
	)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n > 0, err
}

func (p *pgQueries) InsertComment(ctx context.Context, params CreateCommentParams) (Comment, error) {
	var postId, reelId sql.NullInt64
	if params.PostId > 0 {
		postId = sql.NullInt64{Int64: int64(params.PostId), Valid: true}
	}
	if params.ReelId > 0 {
		reelId = sql.NullInt64{Int64: int64(params.ReelId), Valid: true}
	}

	c := Comment{PostId: params.PostId, ReelId: params.ReelId}
	err := p.q.QueryRowContext(ctx,
		"INSERT INTO comments (post_id, reel_id, owner_id, content, created_at) "+
			"VALUES ($1, $2, $3, $4, $5) RETURNING id, owner_id, content, created_at",
		postId,
		reelId,
		params.OwnerId,
		params.Content,
		time.Now().UTC(),
	).Scan(&c.Id, &c.OwnerId, &c.Content, &c.CreatedAt)

	return c, err
}

func (p *pgQueries) InsertFollow(ctx context.Context, followerId, followeeId int) (bool, error) {
	res, err := p.q.ExecContext(ctx,
		"INSERT INTO follows (follower_id, followee_id, created_at) VALUES ($1, $2, $3) "+
			"ON CONFLICT (follower_id, followee_id) DO NOTHING",
		followerId,
		followeeId,
		time.Now().UTC(),
	)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n > 0, err
}

func (p *pgQueries) DeleteFollow(ctx context.Context, followerId, followeeId int) (bool, error) {
	res, err := p.q.ExecContext(ctx,
		"DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2",
		followerId,
		followeeId,
	)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n > 0, err
}

func (p *pgQueries) InsertCallRecord(ctx context.Context, params CreateCallRecordParams) (CallRecord, error) {
	var c CallRecord
	err := p.q.QueryRowContext(ctx,
		"INSERT INTO call_records (caller_id, receiver_id, type, status, duration_seconds, started_at, ended_at, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7, $8) "+
			"RETURNING id, caller_id, receiver_id, type, status, duration_seconds, started_at, ended_at, created_at",
		params.CallerId,
		params.ReceiverId,
		params.Type,
		params.Status,
		params.DurationSeconds,
		params.StartedAt,
		params.EndedAt,
		time.Now().UTC(),
	).Scan(
		&c.Id,
		&c.CallerId,
		&c.ReceiverId,
		&c.Type,
		&c.Status,
		&c.DurationSeconds,
		&c.StartedAt,
		&c.EndedAt,
		&c.CreatedAt,
	)

	return c, err
}
