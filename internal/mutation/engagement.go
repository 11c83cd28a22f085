package mutation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/npezzotti/gosocial/internal/apperr"
	"github.com/npezzotti/gosocial/internal/database"
	"github.com/npezzotti/gosocial/internal/types"
)

type VoteParams struct {
	UserId   int
	PollId   int
	OptionId int
}

// VotePoll records a single vote per user and poll. A repeated vote fails
// with apperr.ErrAlreadyVoted and leaves the first vote as it was.
func (s *Service) VotePoll(ctx context.Context, params VoteParams) (VoteCast, error) {
	var result VoteCast
	err := s.db.WithTx(ctx, func(q database.Queries) error {
		if _, err := q.GetPoll(ctx, params.PollId); err != nil {
			return notFound(err, apperr.ErrPollNotFound)
		}

		exists, err := q.PollOptionExists(ctx, params.PollId, params.OptionId)
		if err != nil {
			return fmt.Errorf("check option: %w", err)
		}
		if !exists {
			return apperr.ErrOptionNotFound
		}

		vote, inserted, err := q.InsertPollVote(ctx, params.PollId, params.OptionId, params.UserId)
		if err != nil {
			return fmt.Errorf("insert vote: %w", err)
		}
		if !inserted {
			return apperr.ErrAlreadyVoted
		}

		counts, err := q.CountPollVotes(ctx, params.PollId)
		if err != nil {
			return fmt.Errorf("count votes: %w", err)
		}

		result = VoteCast{
			Vote: types.PollVote{
				Id:        vote.Id,
				PollId:    vote.PollId,
				OptionId:  vote.OptionId,
				UserId:    vote.UserId,
				CreatedAt: vote.CreatedAt,
			},
			Counts: toPollCounts(counts),
		}
		return nil
	})
	if err != nil {
		return VoteCast{}, err
	}

	return result, nil
}

type likeKind struct {
	owner        func(database.Queries, context.Context, int) (int, error)
	missing      *apperr.Error
	notification types.NotificationType
}

var likeKinds = map[database.LikeTarget]likeKind{
	database.LikePost:    {database.Queries.GetPostOwner, apperr.ErrPostNotFound, types.NotifyLikePost},
	database.LikeReel:    {database.Queries.GetReelOwner, apperr.ErrReelNotFound, types.NotifyLikeReel},
	database.LikeComment: {database.Queries.GetCommentOwner, apperr.ErrCommentNotFound, types.NotifyLikeComment},
}

// ToggleLike removes the actor's like if present and adds it otherwise. When
// two toggles race, the loser of the insert sees the winner's row and both
// report the target as liked.
func (s *Service) ToggleLike(ctx context.Context, target database.LikeTarget, actorId, targetId int) (LikeToggled, error) {
	kind, ok := likeKinds[target]
	if !ok {
		return LikeToggled{}, apperr.Invalid(fmt.Sprintf("cannot like a %q", target))
	}

	var result LikeToggled
	err := s.db.WithTx(ctx, func(q database.Queries) error {
		ownerId, err := kind.owner(q, ctx, targetId)
		if err != nil {
			return notFound(err, kind.missing)
		}

		result = LikeToggled{Target: target, TargetId: targetId}

		removed, err := q.DeleteLike(ctx, target, actorId, targetId)
		if err != nil {
			return fmt.Errorf("delete like: %w", err)
		}
		if removed {
			return nil
		}

		result.Liked = true
		inserted, err := q.InsertLike(ctx, target, actorId, targetId)
		if err != nil {
			return fmt.Errorf("insert like: %w", err)
		}
		if !inserted {
			return nil
		}

		result.Notification, err = s.notify(ctx, q, database.CreateNotificationParams{
			RecipientId: ownerId,
			ActorId:     actorId,
			Type:        string(kind.notification),
			EntityType:  string(target),
			EntityId:    targetId,
		})
		return err
	})
	if err != nil {
		return LikeToggled{}, err
	}

	return result, nil
}

type CommentParams struct {
	AuthorId int
	PostId   int
	ReelId   int
	Content  string
}

func (s *Service) AddComment(ctx context.Context, params CommentParams) (CommentAdded, error) {
	params.Content = strings.TrimSpace(params.Content)
	if params.Content == "" {
		return CommentAdded{}, apperr.Invalid("comment must not be empty")
	}
	if (params.PostId > 0) == (params.ReelId > 0) {
		return CommentAdded{}, apperr.Invalid("comment needs exactly one post or reel")
	}

	var result CommentAdded
	err := s.db.WithTx(ctx, func(q database.Queries) error {
		var (
			ownerId    int
			entityType string
			entityId   int
			notifType  types.NotificationType
			err        error
		)
		if params.PostId > 0 {
			ownerId, err = q.GetPostOwner(ctx, params.PostId)
			if err != nil {
				return notFound(err, apperr.ErrPostNotFound)
			}
			entityType, entityId, notifType = "post", params.PostId, types.NotifyCommentPost
		} else {
			ownerId, err = q.GetReelOwner(ctx, params.ReelId)
			if err != nil {
				return notFound(err, apperr.ErrReelNotFound)
			}
			entityType, entityId, notifType = "reel", params.ReelId, types.NotifyCommentReel
		}

		author, err := s.account(ctx, q, params.AuthorId)
		if err != nil {
			return err
		}

		c, err := q.InsertComment(ctx, database.CreateCommentParams{
			PostId:  params.PostId,
			ReelId:  params.ReelId,
			OwnerId: params.AuthorId,
			Content: params.Content,
		})
		if err != nil {
			return fmt.Errorf("insert comment: %w", err)
		}

		n, err := s.notify(ctx, q, database.CreateNotificationParams{
			RecipientId: ownerId,
			ActorId:     params.AuthorId,
			Type:        string(notifType),
			EntityType:  entityType,
			EntityId:    entityId,
		})
		if err != nil {
			return err
		}

		result = CommentAdded{
			Comment: types.Comment{
				Id:        c.Id,
				PostId:    c.PostId,
				ReelId:    c.ReelId,
				Author:    author,
				Content:   c.Content,
				CreatedAt: c.CreatedAt,
			},
			Notification: n,
		}
		return nil
	})
	if err != nil {
		return CommentAdded{}, err
	}

	return result, nil
}

func (s *Service) Follow(ctx context.Context, followerId, followeeId int) (FollowChanged, error) {
	if followerId == followeeId {
		return FollowChanged{}, apperr.ErrSelfFollow
	}

	var result FollowChanged
	err := s.db.WithTx(ctx, func(q database.Queries) error {
		if _, err := s.account(ctx, q, followeeId); err != nil {
			return err
		}

		inserted, err := q.InsertFollow(ctx, followerId, followeeId)
		if err != nil {
			return fmt.Errorf("insert follow: %w", err)
		}
		if !inserted {
			return apperr.ErrAlreadyFollowing
		}

		n, err := s.notify(ctx, q, database.CreateNotificationParams{
			RecipientId: followeeId,
			ActorId:     followerId,
			Type:        string(types.NotifyFollow),
			EntityType:  "user",
			EntityId:    followerId,
		})
		if err != nil {
			return err
		}

		result = FollowChanged{FolloweeId: followeeId, Following: true, Notification: n}
		return nil
	})
	if err != nil {
		return FollowChanged{}, err
	}

	return result, nil
}

func (s *Service) Unfollow(ctx context.Context, followerId, followeeId int) (FollowChanged, error) {
	err := s.db.WithTx(ctx, func(q database.Queries) error {
		removed, err := q.DeleteFollow(ctx, followerId, followeeId)
		if err != nil {
			return fmt.Errorf("delete follow: %w", err)
		}
		if !removed {
			return apperr.ErrNotFollowing
		}
		return nil
	})
	if err != nil {
		return FollowChanged{}, err
	}

	return FollowChanged{FolloweeId: followeeId}, nil
}

const (
	CallAudio = "audio"
	CallVideo = "video"

	CallCompleted = "completed"
	CallMissed    = "missed"
	CallRejected  = "rejected"
)

type CallParams struct {
	CallerId   int
	ReceiverId int
	Type       string
	Status     string
	StartedAt  time.Time
	EndedAt    time.Time
}

// RecordCall stores the outcome of a call once it has ended. Live signaling
// never writes; this is the only persisted trace of a call.
func (s *Service) RecordCall(ctx context.Context, params CallParams) (CallRecorded, error) {
	switch {
	case params.Type != CallAudio && params.Type != CallVideo:
		return CallRecorded{}, apperr.Invalid("call type must be audio or video")
	case params.Status != CallCompleted && params.Status != CallMissed && params.Status != CallRejected:
		return CallRecorded{}, apperr.Invalid("unknown call status")
	case params.CallerId == params.ReceiverId:
		return CallRecorded{}, apperr.Invalid("cannot call yourself")
	case params.EndedAt.Before(params.StartedAt):
		return CallRecorded{}, apperr.Invalid("call ended before it started")
	}

	var result CallRecorded
	err := s.db.WithTx(ctx, func(q database.Queries) error {
		if _, err := s.account(ctx, q, params.ReceiverId); err != nil {
			return err
		}

		rec, err := q.InsertCallRecord(ctx, database.CreateCallRecordParams{
			CallerId:        params.CallerId,
			ReceiverId:      params.ReceiverId,
			Type:            params.Type,
			Status:          params.Status,
			DurationSeconds: int(params.EndedAt.Sub(params.StartedAt).Seconds()),
			StartedAt:       params.StartedAt.UTC(),
			EndedAt:         params.EndedAt.UTC(),
		})
		if err != nil {
			return fmt.Errorf("insert call record: %w", err)
		}

		result = CallRecorded{Record: toCallRecord(rec)}
		return nil
	})
	if err != nil {
		return CallRecorded{}, err
	}

	return result, nil
}
