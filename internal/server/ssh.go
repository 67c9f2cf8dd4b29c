package server

import (
	"errors"
	"fmt"
	"log"
	"net"

	"golang.org/x/crypto/ssh"

	"github.com/Entidi89/credstore/internal/auth"
	"github.com/Entidi89/credstore/internal/util"
)

// NewSSHConfig returns a server config that authenticates passwords against store.
func NewSSHConfig(store *auth.Store, hostKey ssh.Signer) *ssh.ServerConfig {
	cfg := &ssh.ServerConfig{
		PasswordCallback: store.PasswordCallback,
	}
	cfg.AddHostKey(hostKey)
	return cfg
}

func StartSSHServer(listen string, cfg *ssh.ServerConfig) error {
	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return err
	}
	log.Printf("credstore ssh listening on %s", listen)
	return ServeSSH(ln, cfg)
}

// ServeSSH accepts connections until ln is closed.
func ServeSSH(ln net.Listener, cfg *ssh.ServerConfig) error {
	for {
		raw, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Printf("accept err: %v", err)
			continue
		}
		go handleConn(raw, cfg)
	}
}

func handleConn(raw net.Conn, cfg *ssh.ServerConfig) {
	sshConn, chans, reqs, err := ssh.NewServerConn(raw, cfg)
	if err != nil {
		log.Printf("ssh handshake failed %s: %v", raw.RemoteAddr(), err)
		raw.Close()
		return
	}
	defer sshConn.Close()

	user := sshConn.Permissions.Extensions[auth.ExtUserID]
	log.Printf("client connected %s user=%s", sshConn.RemoteAddr(), user)
	go ssh.DiscardRequests(reqs)

	for newChan := range chans {
		if newChan.ChannelType() != "session" {
			newChan.Reject(ssh.UnknownChannelType, "unsupported")
			continue
		}
		go handleSession(newChan, user)
	}
}

// handleSession greets the user on the first shell or exec request and exits.
func handleSession(newChan ssh.NewChannel, user string) {
	ch, reqs, err := newChan.Accept()
	if err != nil {
		return
	}
	defer ch.Close()
	defer func() { go ssh.DiscardRequests(reqs) }()

	sid := util.NewSessionID()
	for req := range reqs {
		switch req.Type {
		case "shell", "exec":
			req.Reply(true, nil)
			fmt.Fprintf(ch, "Login successful for user %s\r\nsession %s\r\n", user, sid)
			log.Printf("session %s user=%s", sid, user)
			status := struct{ Status uint32 }{0}
			ch.SendRequest("exit-status", false, ssh.Marshal(&status))
			return
		default:
			if req.WantReply {
				req.Reply(req.Type == "pty-req" || req.Type == "env", nil)
			}
		}
	}
}
