// Package log provides an abstraction over log.Logger.
package log

// Logger is the interface over log.Logger used by the store, backends, and server,
// so a single log is shared instead of the default logger of the log package.
type Logger interface {
	// Printf writes the formatted string with values to the logger.
	// Arguments are handled in the manner of fmt.Printf.
	Printf(format string, v ...interface{})
}
