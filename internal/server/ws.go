package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Entidi89/credstore/internal/auth"
	"github.com/Entidi89/credstore/internal/util"
)

type wsRequest struct {
	Op       string `json:"op"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type wsResponse struct {
	Op        string      `json:"op"`
	SessionID string      `json:"session_id"`
	Result    interface{} `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxBodySize)

	sid := util.NewSessionID()
	log.Printf("ws client connected %s session=%s", r.RemoteAddr, sid)

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("ws read session=%s: %v", sid, err)
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		resp := s.dispatch(data)
		resp.SessionID = sid
		if err := conn.WriteJSON(resp); err != nil {
			log.Printf("ws write session=%s: %v", sid, err)
			return
		}
	}
}

func (s *Server) dispatch(data []byte) wsResponse {
	var req wsRequest
	if err := decode(data, &req); err != nil {
		// a non-string username is simply not a member
		if req.Op != "exists" || !errors.Is(err, auth.ErrInvalidArgumentType) {
			return wsResponse{Op: req.Op, Error: err.Error()}
		}
	}
	resp := wsResponse{Op: req.Op}
	var err error
	switch req.Op {
	case "login":
		resp.Result, err = s.Store.Authenticate(req.Username, req.Password)
	case "register":
		resp.Result, err = s.Store.Register(req.Username, req.Password)
	case "exists":
		resp.Result = s.Store.Exists(req.Username)
	default:
		err = fmt.Errorf("unknown op %q", req.Op)
	}
	if err != nil {
		resp.Result = nil
		resp.Error = err.Error()
	}
	return resp
}
