package apperr

var (
	ErrUnauthenticated     = Unauthenticated("unauthenticated")
	ErrSessionExpired      = Unauthenticated("session expired")
	ErrUserNotFound        = NotFound("user not found")
	ErrConversationMissing = NotFound("conversation not found")
	ErrNotParticipant      = Forbidden("not a participant of this conversation")
	ErrPostNotFound        = NotFound("post not found")
	ErrReelNotFound        = NotFound("reel not found")
	ErrCommentNotFound     = NotFound("comment not found")
	ErrPollNotFound        = NotFound("poll not found")
	ErrOptionNotFound      = NotFound("poll option not found")
	ErrNotificationMissing = NotFound("notification not found")
	ErrAlreadyVoted        = Conflict("already voted in this poll")
	ErrAlreadyFollowing    = Conflict("already following this user")
	ErrNotFollowing        = NotFound("not following this user")
	ErrSelfFollow          = Invalid("cannot follow yourself")
	ErrSelfConversation    = Invalid("cannot start a conversation with yourself")
	ErrInvalidAmount       = Invalid("amount must be positive")
	ErrEmptyMessage        = Invalid("message must have content or an attachment")
	ErrInvalidMessageType  = Invalid("unknown message type")

	ErrInsufficientFunds = New(KindInsufficientFunds, "insufficient funds")
	ErrSelfTipNotAllowed = New(KindSelfTipNotAllowed, "cannot tip your own post")
)
