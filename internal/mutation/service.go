// Package mutation runs the compound writes of the engine. Every exported
// operation either commits as one transaction and returns a committed
// result, or returns an *apperr.Error and leaves no trace in the store.
package mutation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/npezzotti/gosocial/internal/apperr"
	"github.com/npezzotti/gosocial/internal/database"
	"github.com/npezzotti/gosocial/internal/types"
	"github.com/teris-io/shortid"
)

type Service struct {
	db  database.Repository
	log *log.Logger

	newExternalId func() (string, error)
}

func NewService(db database.Repository, logger *log.Logger) *Service {
	return &Service{
		db:            db,
		log:           logger,
		newExternalId: shortid.Generate,
	}
}

// notFound replaces sql.ErrNoRows with the given typed error.
func notFound(err error, typed *apperr.Error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return typed
	}
	return err
}

func (s *Service) account(ctx context.Context, q database.Queries, id int) (types.User, error) {
	u, err := q.GetAccount(ctx, id)
	if err != nil {
		return types.User{}, notFound(err, apperr.ErrUserNotFound)
	}
	return toUser(u), nil
}

// notify inserts a notification unless the actor is the recipient, in which
// case it returns nil and writes nothing.
func (s *Service) notify(ctx context.Context, q database.Queries, params database.CreateNotificationParams) (*types.Notification, error) {
	if params.ActorId == params.RecipientId {
		return nil, nil
	}

	actor, err := s.account(ctx, q, params.ActorId)
	if err != nil {
		return nil, err
	}

	n, err := q.InsertNotification(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}

	out := toNotification(n, actor)
	return &out, nil
}

func (s *Service) MarkNotificationRead(ctx context.Context, recipientId, notificationId int) error {
	return s.db.WithTx(ctx, func(q database.Queries) error {
		ok, err := q.MarkNotificationRead(ctx, notificationId, recipientId)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.ErrNotificationMissing
		}
		return nil
	})
}
