package database

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

func (db *PgRepository) CreateAccount(ctx context.Context, params CreateAccountParams) (User, error) {
	res := db.conn.QueryRowContext(ctx,
		"INSERT INTO accounts (username, email, password_hash, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $4) RETURNING id, username, email, created_at, updated_at",
		params.Username,
		params.EmailAddress,
		params.PasswordHash,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Username,
		&u.EmailAddress,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, classify(err)
}

func (db *PgRepository) GetAccountById(ctx context.Context, id int) (User, error) {
	return (&pgQueries{q: db.conn}).GetAccount(ctx, id)
}

func (db *PgRepository) GetAccountByEmail(ctx context.Context, email string) (User, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT id, username, email, password_hash, created_at, updated_at FROM accounts "+
			"WHERE email = $1 LIMIT 1",
		email,
	)

	var user User
	err := row.Scan(
		&user.Id,
		&user.Username,
		&user.EmailAddress,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	return user, err
}

func (db *PgRepository) CreateSession(ctx context.Context, s Session) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO sessions (id, account_id, expires_at, created_at) VALUES ($1, $2, $3, $4)",
		s.Id,
		s.UserId,
		s.ExpiresAt,
		time.Now().UTC(),
	)

	return classify(err)
}

func (db *PgRepository) GetSession(ctx context.Context, id string) (Session, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT id, account_id, expires_at, created_at FROM sessions WHERE id = $1",
		id,
	)

	var s Session
	err := row.Scan(&s.Id, &s.UserId, &s.ExpiresAt, &s.CreatedAt)

	return s, err
}

func (db *PgRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := db.conn.ExecContext(ctx, "DELETE FROM sessions WHERE id = $1", id)

	return err
}

func (db *PgRepository) GetConversationByExternalId(ctx context.Context, externalId string) (Conversation, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT "+conversationColumns+" FROM conversations WHERE external_id = $1",
		externalId,
	)

	return scanConversation(row)
}

func (db *PgRepository) IsParticipant(ctx context.Context, conversationId, accountId int) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM participants WHERE conversation_id = $1 AND account_id = $2)",
		conversationId,
		accountId,
	).Scan(&exists)

	return exists, err
}

// GetMessages returns up to limit messages with since < seq_id < before,
// newest first.
func (db *PgRepository) GetMessages(ctx context.Context, conversationId, since, before, limit int) ([]Message, error) {
	var upper, lower int = 1<<31 - 1, 0
	if before > 0 {
		upper = before - 1
	}

	if since > 0 {
		lower = since + 1
	}

	if limit <= 0 {
		limit = 20
	}

	rows, err := db.conn.QueryContext(ctx,
		"SELECT m.id, m.seq_id, m.conversation_id, m.sender_id, a.username, m.type, m.content, "+
			"m.attachment_url, m.created_at, m.read_at FROM messages m JOIN accounts a ON a.id = m.sender_id "+
			"WHERE m.conversation_id = $1 AND m.seq_id BETWEEN $2 AND $3 ORDER BY m.seq_id DESC LIMIT $4",
		conversationId,
		lower,
		upper,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages = make([]Message, 0, limit)
	for rows.Next() {
		var (
			msg    Message
			readAt sql.NullTime
		)
		err := rows.Scan(
			&msg.Id,
			&msg.SeqId,
			&msg.ConversationId,
			&msg.SenderId,
			&msg.SenderUsername,
			&msg.Type,
			&msg.Content,
			&msg.AttachmentURL,
			&msg.CreatedAt,
			&readAt,
		)
		if err != nil {
			return nil, err
		}
		if readAt.Valid {
			msg.ReadAt = &readAt.Time
		}

		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

func (db *PgRepository) ListNotifications(ctx context.Context, recipientId, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.conn.QueryContext(ctx,
		"SELECT n.id, n.recipient_id, n.actor_id, a.username, n.type, n.entity_type, n.entity_id, n.is_read, n.created_at "+
			"FROM notifications n JOIN accounts a ON a.id = n.actor_id "+
			"WHERE n.recipient_id = $1 ORDER BY n.created_at DESC, n.id DESC LIMIT $2",
		recipientId,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]Notification, 0)
	for rows.Next() {
		var n Notification
		if err := rows.Scan(
			&n.Id,
			&n.RecipientId,
			&n.ActorId,
			&n.ActorUsername,
			&n.Type,
			&n.EntityType,
			&n.EntityId,
			&n.IsRead,
			&n.CreatedAt,
		); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

// GetBalance returns zero for accounts that never held a wallet row.
func (db *PgRepository) GetBalance(ctx context.Context, accountId int) (int64, error) {
	var balance int64
	err := db.conn.QueryRowContext(ctx,
		"SELECT balance FROM wallets WHERE account_id = $1",
		accountId,
	).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}

	return balance, err
}
