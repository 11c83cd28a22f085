package mutation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/npezzotti/gosocial/internal/apperr"
	"github.com/npezzotti/gosocial/internal/database"
	"github.com/npezzotti/gosocial/internal/types"
)

const LedgerTypeTip = "tip"

type TipParams struct {
	SenderId int
	PostId   int
	Amount   int64
}

// TipPost moves Amount from the sender's wallet to the post owner's. Both
// wallet rows stay locked until commit, so concurrent tips from one sender
// are checked against the balance left by the previous one.
func (s *Service) TipPost(ctx context.Context, params TipParams) (TipSent, error) {
	if params.Amount <= 0 {
		return TipSent{}, apperr.ErrInvalidAmount
	}

	var result TipSent
	err := s.db.WithTx(ctx, func(q database.Queries) error {
		ownerId, err := q.GetPostOwner(ctx, params.PostId)
		if err != nil {
			return notFound(err, apperr.ErrPostNotFound)
		}

		if ownerId == params.SenderId {
			return apperr.ErrSelfTipNotAllowed
		}

		balance, err := lockWallets(ctx, q, params.SenderId, ownerId)
		if err != nil {
			return err
		}

		if balance < params.Amount {
			return apperr.ErrInsufficientFunds
		}

		senderBalance, err := q.AdjustBalance(ctx, params.SenderId, -params.Amount)
		if err != nil {
			return fmt.Errorf("debit sender: %w", err)
		}

		if _, err := q.AdjustBalance(ctx, ownerId, params.Amount); err != nil {
			return fmt.Errorf("credit receiver: %w", err)
		}

		entry, err := q.InsertLedgerEntry(ctx, database.LedgerEntry{
			Id:         uuid.NewString(),
			SenderId:   params.SenderId,
			ReceiverId: ownerId,
			Amount:     params.Amount,
			Type:       LedgerTypeTip,
			PostId:     params.PostId,
		})
		if err != nil {
			return fmt.Errorf("insert ledger entry: %w", err)
		}

		n, err := s.notify(ctx, q, database.CreateNotificationParams{
			RecipientId: ownerId,
			ActorId:     params.SenderId,
			Type:        string(types.NotifyTipPost),
			EntityType:  "post",
			EntityId:    params.PostId,
		})
		if err != nil {
			return err
		}

		result = TipSent{
			Entry:         toLedgerEntry(entry),
			Notification:  n,
			SenderBalance: senderBalance,
		}
		return nil
	})
	if err != nil {
		return TipSent{}, err
	}

	return result, nil
}

// lockWallets locks both wallet rows in account id order and returns the
// sender's balance. An account without a wallet row has a zero balance.
func lockWallets(ctx context.Context, q database.Queries, senderId, receiverId int) (int64, error) {
	order := []int{senderId, receiverId}
	if receiverId < senderId {
		order = []int{receiverId, senderId}
	}

	var senderBalance int64
	for _, id := range order {
		balance, err := q.LockWallet(ctx, id)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("lock wallet: %w", err)
		}
		if id == senderId {
			senderBalance = balance
		}
	}

	return senderBalance, nil
}
