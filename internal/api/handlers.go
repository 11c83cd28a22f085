package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/npezzotti/gosocial/internal/apperr"
	"github.com/npezzotti/gosocial/internal/auth"
	"github.com/npezzotti/gosocial/internal/database"
	"github.com/npezzotti/gosocial/internal/mutation"
	"github.com/npezzotti/gosocial/internal/types"
)

type SendMessageRequest struct {
	ConversationId string            `json:"conversation_id"`
	RecipientId    int               `json:"recipient_id"`
	Type           types.MessageType `json:"type"`
	Content        string            `json:"content"`
	AttachmentURL  string            `json:"attachment_url"`
}

type CreateConversationRequest struct {
	Name      string `json:"name"`
	MemberIds []int  `json:"member_ids"`
}

type MarkReadRequest struct {
	UptoSeqId int `json:"upto_seq_id"`
}

type MarkReadResponse struct {
	ConversationId string `json:"conversation_id"`
	UptoSeqId      int    `json:"upto_seq_id"`
	Marked         int    `json:"marked"`
}

type TipRequest struct {
	Amount int64 `json:"amount"`
}

type TipResponse struct {
	Entry   types.LedgerEntry `json:"entry"`
	Balance int64             `json:"balance"`
}

type LikeResponse struct {
	Liked bool `json:"liked"`
}

type CommentRequest struct {
	Content string `json:"content"`
}

type VoteRequest struct {
	OptionId int `json:"option_id"`
}

type VoteResponse struct {
	Vote   types.PollVote          `json:"vote"`
	Counts []types.PollOptionCount `json:"counts"`
}

type FollowResponse struct {
	Following bool `json:"following"`
}

type CallRequest struct {
	ReceiverId int       `json:"receiver_id"`
	Type       string    `json:"type"`
	Status     string    `json:"status"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
}

func (s *App) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func (s *App) writeError(w http.ResponseWriter, err error) {
	errResp := NewAppError(err)
	if errResp.StatusCode >= http.StatusInternalServerError {
		s.log.Printf("request failed: %v", err)
	}
	s.writeJson(w, errResp.StatusCode, errResp)
}

func (s *App) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return false
	}
	return true
}

// identity returns the identity stored by authMiddleware, answering 401
// itself when there is none.
func (s *App) identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
	}
	return id, ok
}

func (s *App) pathId(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func (s *App) healthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.log.Println("health check:", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *App) sendMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}

	var req SendMessageRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.svc.SendMessage(r.Context(), mutation.SendMessageParams{
		SenderId:       id.User.Id,
		ConversationId: req.ConversationId,
		RecipientId:    req.RecipientId,
		Type:           req.Type,
		Content:        req.Content,
		AttachmentURL:  req.AttachmentURL,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.cs.Dispatcher().MessageSent(result)
	s.writeJson(w, http.StatusCreated, result.Message)
}

func (s *App) createConversation(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}

	var req CreateConversationRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.svc.CreateGroupConversation(r.Context(), id.User.Id, req.Name, req.MemberIds)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.cs.Dispatcher().ConversationCreated(result)
	s.writeJson(w, http.StatusCreated, result.Conversation)
}

func (s *App) getMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}

	externalId := r.PathValue("id")
	conv, err := s.db.GetConversationByExternalId(r.Context(), externalId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = apperr.ErrConversationMissing
		}
		s.writeError(w, err)
		return
	}

	member, err := s.db.IsParticipant(r.Context(), conv.Id, id.User.Id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !member {
		s.writeError(w, apperr.ErrNotParticipant)
		return
	}

	since, err := queryInt(r, "since")
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}
	before, err := queryInt(r, "before")
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	messages, err := s.db.GetMessages(r.Context(), conv.Id, since, before, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]types.Message, 0, len(messages))
	for _, msg := range messages {
		out = append(out, types.Message{
			Id:             msg.Id,
			SeqId:          msg.SeqId,
			ConversationId: conv.ExternalId,
			Sender:         types.User{Id: msg.SenderId, Username: msg.SenderUsername},
			Type:           types.MessageType(msg.Type),
			Content:        msg.Content,
			AttachmentURL:  msg.AttachmentURL,
			Timestamp:      msg.CreatedAt,
			ReadAt:         msg.ReadAt,
		})
	}

	s.writeJson(w, http.StatusOK, out)
}

func (s *App) markConversationRead(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}

	var req MarkReadRequest
	if r.ContentLength != 0 && !s.decode(w, r, &req) {
		return
	}

	result, err := s.svc.MarkConversationRead(r.Context(), id.User.Id, r.PathValue("id"), req.UptoSeqId)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.cs.Dispatcher().ConversationRead(result)
	s.writeJson(w, http.StatusOK, MarkReadResponse{
		ConversationId: result.ConversationId,
		UptoSeqId:      result.UptoSeqId,
		Marked:         result.Marked,
	})
}

func (s *App) tipPost(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}

	postId, ok := s.pathId(w, r)
	if !ok {
		return
	}

	var req TipRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.svc.TipPost(r.Context(), mutation.TipParams{
		SenderId: id.User.Id,
		PostId:   postId,
		Amount:   req.Amount,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.cs.Dispatcher().Notification(result.Notification)
	s.writeJson(w, http.StatusCreated, TipResponse{Entry: result.Entry, Balance: result.SenderBalance})
}

func (s *App) getWallet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}

	balance, err := s.db.GetBalance(r.Context(), id.User.Id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, types.Wallet{UserId: id.User.Id, Balance: balance})
}

func (s *App) toggleLike(target database.LikeTarget) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.identity(w, r)
		if !ok {
			return
		}

		targetId, ok := s.pathId(w, r)
		if !ok {
			return
		}

		result, err := s.svc.ToggleLike(r.Context(), target, id.User.Id, targetId)
		if err != nil {
			s.writeError(w, err)
			return
		}

		s.cs.Dispatcher().Notification(result.Notification)
		s.writeJson(w, http.StatusOK, LikeResponse{Liked: result.Liked})
	}
}

type commentTarget int

const (
	commentOnPost commentTarget = iota
	commentOnReel
)

func (s *App) addComment(target commentTarget) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.identity(w, r)
		if !ok {
			return
		}

		targetId, ok := s.pathId(w, r)
		if !ok {
			return
		}

		var req CommentRequest
		if !s.decode(w, r, &req) {
			return
		}

		params := mutation.CommentParams{AuthorId: id.User.Id, Content: req.Content}
		if target == commentOnReel {
			params.ReelId = targetId
		} else {
			params.PostId = targetId
		}

		result, err := s.svc.AddComment(r.Context(), params)
		if err != nil {
			s.writeError(w, err)
			return
		}

		s.cs.Dispatcher().Notification(result.Notification)
		s.writeJson(w, http.StatusCreated, result.Comment)
	}
}

func (s *App) votePoll(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}

	pollId, ok := s.pathId(w, r)
	if !ok {
		return
	}

	var req VoteRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.svc.VotePoll(r.Context(), mutation.VoteParams{
		UserId:   id.User.Id,
		PollId:   pollId,
		OptionId: req.OptionId,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusCreated, VoteResponse{Vote: result.Vote, Counts: result.Counts})
}

func (s *App) follow(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}

	followeeId, ok := s.pathId(w, r)
	if !ok {
		return
	}

	result, err := s.svc.Follow(r.Context(), id.User.Id, followeeId)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.cs.Dispatcher().Notification(result.Notification)
	s.writeJson(w, http.StatusOK, FollowResponse{Following: result.Following})
}

func (s *App) unfollow(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}

	followeeId, ok := s.pathId(w, r)
	if !ok {
		return
	}

	result, err := s.svc.Unfollow(r.Context(), id.User.Id, followeeId)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, FollowResponse{Following: result.Following})
}

func (s *App) recordCall(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}

	var req CallRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.svc.RecordCall(r.Context(), mutation.CallParams{
		CallerId:   id.User.Id,
		ReceiverId: req.ReceiverId,
		Type:       req.Type,
		Status:     req.Status,
		StartedAt:  req.StartedAt,
		EndedAt:    req.EndedAt,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusCreated, result.Record)
}

func (s *App) listNotifications(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}

	limit, err := queryInt(r, "limit")
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	notifications, err := s.db.ListNotifications(r.Context(), id.User.Id, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]types.Notification, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, types.Notification{
			Id:          n.Id,
			RecipientId: n.RecipientId,
			Actor:       types.User{Id: n.ActorId, Username: n.ActorUsername},
			Type:        types.NotificationType(n.Type),
			EntityType:  n.EntityType,
			EntityId:    n.EntityId,
			IsRead:      n.IsRead,
			CreatedAt:   n.CreatedAt,
		})
	}

	s.writeJson(w, http.StatusOK, out)
}

func (s *App) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}

	notificationId, ok := s.pathId(w, r)
	if !ok {
		return
	}

	if err := s.svc.MarkNotificationRead(r.Context(), id.User.Id, notificationId); err != nil {
		s.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
