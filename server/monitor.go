package server

import (
	"fmt"
	"io"
	"net/http"
	"runtime"
	"runtime/pprof"

	"github.com/jacobpatterson1549/number-race/server/log"
)

// runtimeMonitor writes runtime information to the response.
// Requests must use basic authentication with the password of the hash.
type runtimeMonitor struct {
	hasTLS       bool
	passwordHash []byte
	PasswordChecker
	log log.Logger
}

// ServeHTTP checks the password of the request before writing runtime information about the server.
// The monitor is not found if there is no password hash.
func (m runtimeMonitor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if len(m.passwordHash) == 0 {
		http.NotFound(w, r)
		return
	}
	_, password, ok := r.BasicAuth()
	if !ok {
		m.unauthorized(w)
		return
	}
	correct, err := m.IsCorrect(m.passwordHash, password)
	switch {
	case err != nil:
		err = fmt.Errorf("checking monitor password: %w", err)
		writeInternalError(err, m.log, w)
		return
	case !correct:
		m.unauthorized(w)
		return
	}
	ms := new(runtime.MemStats)
	runtime.ReadMemStats(ms)
	p := pprof.Lookup("goroutine")
	w.Header().Set(HeaderContentType, "text/plain; charset=utf-8")
	w.Header().Set(HeaderCacheControl, "no-store")
	writeMemoryStats(w, ms)
	fmt.Fprintln(w)
	writeGoroutineExpectations(w, m.hasTLS)
	fmt.Fprintln(w)
	writeGoroutineStackTraces(w, p)
}

// unauthorized asks the client to authenticate.
func (runtimeMonitor) unauthorized(w http.ResponseWriter) {
	w.Header().Set(HeaderWWWAuthenticate, `Basic realm="monitor"`)
	httpError(w, http.StatusUnauthorized)
}

// writeMemoryStats writes the memory runtime statistics of the server.
func writeMemoryStats(w io.Writer, m *runtime.MemStats) {
	fmt.Fprintln(w, "--- Memory Stats ---")
	fmt.Fprintln(w, "Alloc (bytes on heap)", m.Alloc)
	fmt.Fprintln(w, "TotalAlloc (total heap size)", m.TotalAlloc)
	fmt.Fprintln(w, "Sys (bytes used to run server)", m.Sys)
	fmt.Fprintln(w, "Live object count (Mallocs - Frees)", m.Mallocs-m.Frees)
}

// writeGoroutineExpectations writes a message about the expected goroutines.
func writeGoroutineExpectations(w io.Writer, hasTLS bool) {
	fmt.Fprintln(w, "--- Goroutine Expectations ---")
	if hasTLS {
		fmt.Fprintln(w, "* a goroutine to handle tls connections")
		fmt.Fprintln(w, "* a goroutine to run the http server that redirects to https")
	}
	fmt.Fprintln(w, "* a goroutine listening for interrupt/termination signals so the server can stop gracefully")
	fmt.Fprintln(w, "* a goroutine to run the server")
	fmt.Fprintln(w, "* a goroutine to run the main procedure")
	fmt.Fprintln(w, "* a goroutine to write profiling information about goroutines")
	fmt.Fprintln(w, "* goroutines to manage database connections, depending on the data source")
	fmt.Fprintln(w, "Each game watch should have two (2) goroutines to read and write websocket messages.")
	fmt.Fprintln(w, "Games do not have goroutines.  They are only changed by requests.")
}

// writeGoroutineStackTraces writes the goroutine runtime profile's stack traces.
func writeGoroutineStackTraces(w io.Writer, p *pprof.Profile) {
	fmt.Fprintln(w, "--- Goroutine Stack Traces ---")
	p.WriteTo(w, 1)
}
