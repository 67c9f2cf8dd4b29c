package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"log"
	"os"

	"github.com/jessevdk/go-flags"
	"golang.org/x/crypto/ssh"

	"github.com/Entidi89/credstore/internal/auth"
	"github.com/Entidi89/credstore/internal/server"
)

type Options struct {
	HTTPAddr string `long:"http" description:"http/ws listen" default:"127.0.0.1:8080"`
	SSHAddr  string `long:"ssh" description:"ssh listen, empty disables" default:"127.0.0.1:3023"`
	HostKey  string `long:"host-key" description:"host private key, generated when empty"`
}

func main() {
	options := &Options{}
	if _, err := flags.ParseArgs(options, os.Args[1:]); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			return
		}
		os.Exit(1)
	}

	// credentials live in memory only and are re-seeded on every start
	store := auth.NewDefault()

	if options.SSHAddr != "" {
		signer, err := loadHostKey(options.HostKey)
		if err != nil {
			log.Fatalf("host key: %v", err)
		}
		cfg := server.NewSSHConfig(store, signer)
		go func() {
			if err := server.StartSSHServer(options.SSHAddr, cfg); err != nil {
				log.Fatalf("ssh server exit: %v", err)
			}
		}()
	}

	if err := server.New(store).RunHTTP(options.HTTPAddr); err != nil {
		log.Fatalf("http server exit: %v", err)
	}
}

func loadHostKey(path string) (ssh.Signer, error) {
	if path == "" {
		log.Printf("no host key given, generating ephemeral ed25519 key")
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, err
		}
		return ssh.NewSignerFromKey(priv)
	}
	kb, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ssh.ParsePrivateKey(kb)
}
