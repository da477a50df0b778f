// Package server runs the http server which lets players join games, claim numbers, and watch games.
package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/jacobpatterson1549/number-race/game"
	"github.com/jacobpatterson1549/number-race/game/store"
	"github.com/jacobpatterson1549/number-race/server/log"
)

type (
	// Server runs the site.
	Server struct {
		log         log.Logger
		HTTPServer  *http.Server
		HTTPSServer *http.Server
		Config
	}

	// Config contains fields which describe the server.
	Config struct {
		// HTTPPort is the TCP port for server http requests.  All traffic is redirected to the https port.
		HTTPPort int
		// HTTPSPORT is the TCP port for server https requests.
		HTTPSPort int
		// StopDur is the maximum duration the server should take to shutdown gracefully.
		StopDur time.Duration
		// Version is the build version of the server, shown with the rules.
		Version string
		// TLSCertFile is the public HTTPS TLS certificate file.
		TLSCertFile string
		// TLSKeyFile is the private HTTPS TLS key file.
		TLSKeyFile string
		// Challenge is used to create ACME certificate.
		Challenge
		// NoTLSRedirect disables redirection to https from http when true.
		NoTLSRedirect bool
		// RequireToken causes claims to be rejected if the request does not have the token given to the player when joining.
		RequireToken bool
		// MonitorPasswordHash is the bcrypt hash of the password to view the monitor.  The monitor is disabled if it is empty.
		MonitorPasswordHash string
	}

	// Parameters contains the interfaces needed to create a new server.
	Parameters struct {
		log.Logger
		Store
		Tokenizer
		Watcher
		PasswordChecker
	}

	// Store creates games and changes them.
	Store interface {
		JoinOrCreate(ctx context.Context, playerID string) (*store.JoinResult, error)
		GetGame(ctx context.Context, id game.ID) (*game.Game, error)
		Claim(ctx context.Context, id game.ID, playerID string, number int) (*game.Game, error)
	}

	// Tokenizer creates and reads the tokens that identify players in games.
	Tokenizer interface {
		Create(playerID string, gameID game.ID) (string, error)
		Read(tokenString string) (playerID string, gameID game.ID, err error)
	}

	// Watcher streams a game to a player over a connection upgraded from the request.
	Watcher interface {
		Watch(ctx context.Context, w http.ResponseWriter, r *http.Request, g game.Game) error
	}

	// PasswordChecker determines if the password matches the hash.
	PasswordChecker interface {
		IsCorrect(hashedPassword []byte, password string) (bool, error)
	}
)

const (
	// HeaderContentType is used to set the document type header on http responses.
	HeaderContentType = "Content-Type"
	// HeaderCacheControl is used to tell browsers how long to cache http responses.
	HeaderCacheControl = "Cache-Control"
	// HeaderAcceptEncoding is specified by the browser to tell the server what types of document encoding it can handle.
	HeaderAcceptEncoding = "Accept-Encoding"
	// HeaderContentEncoding is used to tell browsers how the document is encoded.
	HeaderContentEncoding = "Content-Encoding"
	// HeaderAuthorization is the header clients send their tokens in.
	HeaderAuthorization = "Authorization"
	// HeaderWWWAuthenticate tells clients how to authorize a request.
	HeaderWWWAuthenticate = "WWW-Authenticate"
	// acmeHeader is the path of the endpoint to serve the challenge at.
	acmeHeader = "/.well-known/acme-challenge/"
)

// NewServer creates a Server from the Config.
func (cfg Config) NewServer(p Parameters) (*Server, error) {
	if err := cfg.validate(p); err != nil {
		return nil, fmt.Errorf("creating server: validation: %w", err)
	}
	monitor := runtimeMonitor{
		hasTLS:          cfg.validHTTPAddr(),
		passwordHash:    []byte(cfg.MonitorPasswordHash),
		PasswordChecker: p.PasswordChecker,
		log:             p.Logger,
	}
	httpAddr := fmt.Sprintf(":%d", cfg.HTTPPort)
	httpsAddr := fmt.Sprintf(":%d", cfg.HTTPSPort)
	httpsRedirectHandler := httpsRedirectHandler(cfg.HTTPSPort)
	httpHandler := cfg.httpHandler(httpsRedirectHandler)
	httpsHandler := cfg.httpsHandler(httpHandler, p, monitor)
	s := Server{
		log: p.Logger,
		HTTPServer: &http.Server{
			Addr:         httpAddr,
			Handler:      httpHandler,
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		HTTPSServer: &http.Server{
			Addr:         httpsAddr,
			Handler:      httpsHandler,
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Config: cfg,
	}
	return &s, nil
}

// validate ensures the configuration and parameters have no errors.
func (cfg Config) validate(p Parameters) error {
	if err := p.validate(); err != nil {
		return err
	}
	switch {
	case cfg.StopDur <= 0:
		return fmt.Errorf("stop timeout duration required")
	case cfg.HTTPSPort <= 0:
		return fmt.Errorf("positive https port required")
	case len(cfg.Version) == 0:
		return fmt.Errorf("version required")
	}
	return nil
}

// validate ensures that all of the parameters are present.
func (p Parameters) validate() error {
	switch {
	case p.Logger == nil:
		return fmt.Errorf("log required")
	case p.Store == nil:
		return fmt.Errorf("store required")
	case p.Tokenizer == nil:
		return fmt.Errorf("tokenizer required")
	case p.Watcher == nil:
		return fmt.Errorf("watcher required")
	case p.PasswordChecker == nil:
		return fmt.Errorf("password checker required")
	}
	return nil
}

// validHTTPAddr determines if the HTTP address is valid.
// The HTTP address is valid if and only if the HTTP port is positive
// If the HTTP address is valid, the HTTP server should be started to redirect to HTTPS and handle certificate creation.
func (cfg Config) validHTTPAddr() bool {
	return cfg.HTTPPort > 0
}

// Run the server asynchronously until it receives a shutdown signal.
// When the HTTP/HTTPS servers stop, errors are logged to the error channel.
func (s *Server) Run(ctx context.Context) <-chan error {
	errC := make(chan error, 2)
	s.runHTTPServer(errC)
	s.runHTTPSServer(ctx, errC)
	return errC
}

// runHTTPServer runs the http server asynchronously, adding the return error to the channel when done.
// The server is only run if the HTTP address is valid.
func (s *Server) runHTTPServer(errC chan<- error) {
	if !s.validHTTPAddr() {
		return
	}
	go func() {
		errC <- s.HTTPServer.ListenAndServe()
	}()
}

// runHTTPSServer runs the https server in regards to the configuration, adding the return error to the channel when done.
// Requests are given a context that is cancelled when the server shuts down so that game watches are stopped.
func (s *Server) runHTTPSServer(ctx context.Context, errC chan<- error) {
	ctx, cancelFunc := context.WithCancel(ctx)
	s.HTTPSServer.BaseContext = func(net.Listener) context.Context {
		return ctx
	}
	s.HTTPSServer.RegisterOnShutdown(cancelFunc)
	go func() {
		switch {
		case s.validHTTPAddr():
			if _, err := tls.LoadX509KeyPair(s.TLSCertFile, s.TLSKeyFile); err != nil {
				errC <- fmt.Errorf("loading tls certificate: %w", err)
				return
			}
			s.log.Printf("starting https server at https://127.0.0.1%v", s.HTTPSServer.Addr)
			errC <- s.HTTPSServer.ListenAndServeTLS(s.TLSCertFile, s.TLSKeyFile)
		default:
			if len(s.TLSCertFile) != 0 || len(s.TLSKeyFile) != 0 {
				s.log.Printf("Ignoring TLS_CERT_FILE/TLS_KEY_FILE variables since PORT was specified, using automated certificate management.")
			}
			s.log.Printf("starting server at http://127.0.0.1%v", s.HTTPSServer.Addr)
			errC <- s.HTTPSServer.ListenAndServe()
		}
	}()
}

// Stop asks the server to shutdown and waits for the shutdown to complete.
// An error is returned if the server if the context times out.
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancelFunc := context.WithTimeout(ctx, s.StopDur)
	defer cancelFunc()
	httpsShutdownErr := s.HTTPSServer.Shutdown(ctx)
	httpShutdownErr := s.HTTPServer.Shutdown(ctx)
	switch {
	case httpsShutdownErr != nil:
		return httpsShutdownErr
	case httpShutdownErr != nil:
		return httpShutdownErr
	}
	return nil
}
