// Package main starts the server after configuring it from supplied or standard arguments
package main

import (
	"context"
	crypto_rand "crypto/rand"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jacobpatterson1549/number-race/server"
	"github.com/jacobpatterson1549/number-race/server/auth"
)

// main configures and runs the server.
func main() {
	ctx := context.Background()
	logFlags := log.Ldate | log.Ltime | log.LUTC | log.Lshortfile | log.Lmsgprefix
	log := log.New(os.Stdout, "", logFlags)
	m := newMainFlags(os.Args, os.LookupEnv)
	if len(m.hashPassword) != 0 {
		if err := printPasswordHash(os.Stdout, m.hashPassword); err != nil {
			log.Fatalf("hashing password: %v", err)
		}
		return
	}
	embedFS, err := unembedFS(embeddedSQLFS)
	if err != nil {
		log.Fatalf("reading embedded files: %v", err)
	}
	backend, err := m.createBackend(ctx, embedFS)
	if err != nil {
		log.Fatalf("setting up database: %v", err)
	}
	if c, ok := backend.(io.Closer); ok {
		defer c.Close()
	}
	server, err := m.createServer(log, backend, crypto_rand.Reader, embedVersion)
	if err != nil {
		log.Fatalf("creating server: %v", err)
	}
	if err := runServer(ctx, server, log); err != nil {
		log.Printf("running server: %v", err)
		return
	}
	log.Println("server run stopped successfully")
}

// printPasswordHash writes the bcrypt hash of the password.
func printPasswordHash(w io.Writer, password string) error {
	ph := auth.NewPasswordHandler()
	hash, err := ph.Hash(password)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(hash))
	return nil
}

// runServer runs the server until it is interrupted or terminated.
func runServer(ctx context.Context, server *server.Server, log *log.Logger) error {
	done := make(chan os.Signal, 2)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(done)
	errC := server.Run(ctx)
	select { // BLOCKING
	case err := <-errC:
		switch {
		case errors.Is(err, http.ErrServerClosed):
			log.Printf("server shutdown triggered")
		default:
			log.Printf("server stopped unexpectedly: %v", err)
		}
	case signal := <-done:
		log.Printf("handled signal: %v", signal)
	}
	if err := server.Stop(ctx); err != nil {
		return fmt.Errorf("stopping server: %v", err)
	}
	return nil
}
