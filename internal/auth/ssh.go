package auth

import (
	"errors"

	"golang.org/x/crypto/ssh"
)

// ExtUserID is the permissions extension carrying the authenticated user.
const ExtUserID = "user-id"

// PasswordCallback plugs the store into ssh.ServerConfig.
func (s *Store) PasswordCallback(conn ssh.ConnMetadata, password []byte) (*ssh.Permissions, error) {
	res, err := s.Authenticate(conn.User(), string(password))
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, errors.New(res.Message)
	}
	return &ssh.Permissions{
		Extensions: map[string]string{ExtUserID: *res.UserID},
	}, nil
}
