package api

import (
	"errors"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/npezzotti/gosocial/internal/server"
)

func (s *App) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// only allow connections from allowed origins
			origin := r.Header.Get("Origin")
			if origin == "" {
				// if no origin header, allow the request
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
}

// serveWs upgrades an authenticated request and hands the connection to the
// chat server. The identity is bound once, at the handshake.
func (s *App) serveWs(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}

	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	if _, err := s.cs.Serve(id.User, conn); err != nil {
		if !errors.Is(err, server.ErrServerClosed) {
			s.log.Println("serve websocket:", err)
		}
	}
}
