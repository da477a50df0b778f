package server

// Challenge token and key used to get a TLS certificate using the ACME HTTP-01.
type Challenge struct {
	Token string
	Key   string
}

// isFor determines if a path is a request for the challenge.
func (c Challenge) isFor(path string) bool {
	return len(c.Token) > 0 &&
		len(path) == len(acmeHeader)+len(c.Token) &&
		path[:len(acmeHeader)] == acmeHeader &&
		path[len(acmeHeader):] == c.Token
}
