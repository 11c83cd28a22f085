// Package api serves the HTTP surface: account and session endpoints, the
// write endpoints backed by the mutation service, and the websocket upgrade.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/npezzotti/gosocial/internal/auth"
	"github.com/npezzotti/gosocial/internal/config"
	"github.com/npezzotti/gosocial/internal/database"
	"github.com/npezzotti/gosocial/internal/mutation"
	"github.com/npezzotti/gosocial/internal/server"
)

type App struct {
	log            *log.Logger
	db             database.Repository
	svc            *mutation.Service
	binder         *auth.Binder
	cs             *server.ChatServer
	srv            *http.Server
	allowedOrigins []string
}

func NewApp(mux *http.ServeMux, logger *log.Logger, cs *server.ChatServer, db database.Repository, binder *auth.Binder, cfg *config.Config) *App {
	s := &App{
		log:            logger,
		db:             db,
		svc:            mutation.NewService(db, logger),
		binder:         binder,
		cs:             cs,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)

	mux.HandleFunc("POST /api/auth/register", s.createAccount)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("GET /api/auth/session", s.authMiddleware(s.session))
	mux.HandleFunc("POST /api/auth/logout", s.authMiddleware(s.logout))

	mux.HandleFunc("POST /api/messages", s.authMiddleware(s.sendMessage))
	mux.HandleFunc("POST /api/conversations", s.authMiddleware(s.createConversation))
	mux.HandleFunc("GET /api/conversations/{id}/messages", s.authMiddleware(s.getMessages))
	mux.HandleFunc("POST /api/conversations/{id}/read", s.authMiddleware(s.markConversationRead))

	mux.HandleFunc("POST /api/posts/{id}/tips", s.authMiddleware(s.tipPost))
	mux.HandleFunc("GET /api/wallet", s.authMiddleware(s.getWallet))

	mux.HandleFunc("POST /api/posts/{id}/likes", s.authMiddleware(s.toggleLike(database.LikePost)))
	mux.HandleFunc("POST /api/reels/{id}/likes", s.authMiddleware(s.toggleLike(database.LikeReel)))
	mux.HandleFunc("POST /api/comments/{id}/likes", s.authMiddleware(s.toggleLike(database.LikeComment)))
	mux.HandleFunc("POST /api/posts/{id}/comments", s.authMiddleware(s.addComment(commentOnPost)))
	mux.HandleFunc("POST /api/reels/{id}/comments", s.authMiddleware(s.addComment(commentOnReel)))
	mux.HandleFunc("POST /api/polls/{id}/votes", s.authMiddleware(s.votePoll))
	mux.HandleFunc("POST /api/users/{id}/follow", s.authMiddleware(s.follow))
	mux.HandleFunc("DELETE /api/users/{id}/follow", s.authMiddleware(s.unfollow))
	mux.HandleFunc("POST /api/calls", s.authMiddleware(s.recordCall))

	mux.HandleFunc("GET /api/notifications", s.authMiddleware(s.listNotifications))
	mux.HandleFunc("PUT /api/notifications/{id}/read", s.authMiddleware(s.markNotificationRead))

	mux.HandleFunc("GET /ws", s.authMiddleware(s.serveWs))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept", "Authorization"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)
	h = handlers.CombinedLoggingHandler(logger.Writer(), h)

	s.srv = &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	return s
}

func (s *App) Handler() http.Handler {
	return s.srv.Handler
}

func (s *App) Start() error {
	s.log.Printf("starting server on %s\n", s.srv.Addr)
	return s.srv.ListenAndServe()
}

func (s *App) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
