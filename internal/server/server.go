package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"

	"github.com/Entidi89/credstore/internal/auth"
)

const maxBodySize = 64 << 10

var errMalformed = errors.New("malformed request")

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Server exposes the credential store over HTTP and websocket.
type Server struct {
	Store    *auth.Store
	Upgrader websocket.Upgrader
}

func New(store *auth.Store) *Server {
	return &Server{
		Store:    store,
		Upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/login", s.handleLogin)
	mux.HandleFunc("POST /v1/register", s.handleRegister)
	mux.HandleFunc("GET /v1/users/{username}", s.handleExists)
	mux.HandleFunc("GET /ws", s.handleWS)
	return mux
}

func (s *Server) RunHTTP(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("credstore http listening on %s", addr)
	return srv.ListenAndServe()
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	creds, err := readCredentials(w, r)
	if err != nil {
		writeError(w, requestStatus(err), err)
		return
	}
	res, err := s.Store.Authenticate(creds.Username, creds.Password)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !res.Success {
		writeJSON(w, http.StatusUnauthorized, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	creds, err := readCredentials(w, r)
	if err != nil {
		writeError(w, requestStatus(err), err)
		return
	}
	res, err := s.Store.Register(creds.Username, creds.Password)
	switch {
	case errors.Is(err, auth.ErrDuplicateUsername):
		writeError(w, http.StatusConflict, err)
	case err != nil:
		writeError(w, http.StatusBadRequest, err)
	default:
		log.Printf("user registered: %s", creds.Username)
		writeJSON(w, http.StatusCreated, res)
	}
}

func (s *Server) handleExists(w http.ResponseWriter, r *http.Request) {
	exists := s.Store.Exists(r.PathValue("username"))
	status := http.StatusOK
	if !exists {
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]bool{"exists": exists})
}

func readCredentials(w http.ResponseWriter, r *http.Request) (credentials, error) {
	var creds credentials
	defer r.Body.Close()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return creds, fmt.Errorf("read body: %w", err)
	}
	err = decode(body, &creds)
	return creds, err
}

func requestStatus(err error) int {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// decode unmarshals a JSON request, reporting non-string fields as
// auth.ErrInvalidArgumentType. Invalid UTF-8 is rejected, encoding/json would
// replace it with U+FFFD.
func decode(data []byte, v interface{}) error {
	if !utf8.Valid(data) {
		return fmt.Errorf("%w: invalid utf-8", errMalformed)
	}
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Errorf("%s: %w", typeErr.Field, auth.ErrInvalidArgumentType)
	}
	return fmt.Errorf("%w: %v", errMalformed, err)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
