package server

import (
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jacobpatterson1549/number-race/server/log"
)

// httpHandler creates a handler for HTTP endpoints.
func (cfg Config) httpHandler(httpsRedirectHandler http.Handler) http.Handler {
	httpMux := http.NewServeMux()
	httpMux.Handle(acmeHeader, acmeChallengeHandler(cfg.Challenge))
	httpMux.Handle("/", httpsRedirectHandler)
	return httpMux
}

// httpsHandler creates a handler for HTTPS endpoints.
// Non-TLS requests are redirected to HTTPS when the http server is running.  GET and POST requests are handled by more specific handlers.
func (cfg Config) httpsHandler(httpHandler http.Handler, p Parameters, monitor http.Handler) http.HandlerFunc {
	getHandler := p.getHandler(cfg, monitor)
	postHandler := p.postHandler(cfg)
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.TLS == nil && cfg.validHTTPAddr() && !cfg.NoTLSRedirect:
			httpHandler.ServeHTTP(w, r)
		case r.Method == "GET":
			getHandler.ServeHTTP(w, r)
		case r.Method == "POST":
			postHandler.ServeHTTP(w, r)
		default:
			httpError(w, http.StatusMethodNotAllowed)
		}
	}
}

// getHandler forwards calls to various endpoints.
func (p Parameters) getHandler(cfg Config, monitor http.Handler) http.Handler {
	getMux := http.NewServeMux()
	getMux.Handle("/api/games/{id}", jsonHandler(gameHandler(p.Store, p.Logger)))
	getMux.Handle("/api/games/{id}/watch", watchHandler(p.Store, p.Watcher, p.Logger))
	getMux.Handle("/api/rules", jsonHandler(rulesHandler(cfg.Version)))
	getMux.Handle("/monitor", monitor)
	return getMux
}

// postHandler forwards calls to endpoints that change games.
func (p Parameters) postHandler(cfg Config) http.Handler {
	postMux := http.NewServeMux()
	postMux.Handle("/api/games/join", jsonHandler(joinHandler(p.Store, p.Tokenizer, p.Logger)))
	postMux.Handle("/api/games/{id}/click", jsonHandler(clickHandler(p.Store, p.Tokenizer, cfg.RequireToken, p.Logger)))
	return postMux
}

// jsonHandler wraps the handling of json responses, adding the content type and gzip compression, if possible.
// Games change often, so responses are never cached.
func jsonHandler(h http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get(HeaderAcceptEncoding), "gzip") {
			w2 := gzip.NewWriter(w)
			defer w2.Close()
			w = wrappedResponseWriter{
				Writer:         w2,
				ResponseWriter: w,
			}
			w.Header().Add(HeaderContentEncoding, "gzip")
		}
		w.Header().Set(HeaderCacheControl, "no-store")
		w.Header().Set(HeaderContentType, "application/json")
		h.ServeHTTP(w, r)
	}
}

// acmeChallengeHandler writes the challenge to the response.
// Writes the concatenation of the token, a period, and the key.
func acmeChallengeHandler(challenge Challenge) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if !challenge.isFor(path) {
			http.NotFound(w, r)
			return
		}
		data := challenge.Token + "." + challenge.Key
		w.Write([]byte(data))
	}
}

// httpsRedirectHandler redirects the request to https.
func httpsRedirectHandler(httpsPort int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		host := r.Host
		// derived from net.SplitHostPort, but does not throw error :
		lastColonIndex := strings.LastIndex(host, ":")
		if lastColonIndex >= 0 {
			host = host[:lastColonIndex]
		}
		if httpsPort != 443 {
			host += fmt.Sprintf(":%d", httpsPort)
		}
		httpsURI := "https://" + host + r.URL.Path
		http.Redirect(w, r, httpsURI, http.StatusTemporaryRedirect)
	}
}

// writeInternalError logs the error and writes a generic internal server error (500).
func writeInternalError(err error, log log.Logger, w http.ResponseWriter) {
	log.Printf("server error: %v", err)
	httpError(w, http.StatusInternalServerError)
}

// httpError writes the error status code.
func httpError(w http.ResponseWriter, statusCode int) {
	http.Error(w, http.StatusText(statusCode), statusCode)
}

// wrappedResponseWriter wraps response writing with another writer.
type wrappedResponseWriter struct {
	io.Writer
	http.ResponseWriter
}

// Write delegates the write to the wrapped writer.
func (wrw wrappedResponseWriter) Write(p []byte) (n int, err error) {
	return wrw.Writer.Write(p)
}
