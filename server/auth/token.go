// Package auth creates and reads the tokens given to players when they join games.
package auth

import (
	"fmt"

	jwt "github.com/golang-jwt/jwt/v4"
	"github.com/jacobpatterson1549/number-race/game"
)

type (
	// JwtTokenizer creates and reads Java Web Tokens.
	JwtTokenizer struct {
		method jwt.SigningMethod
		key    interface{}
		TokenizerConfig
	}

	// TokenizerConfig contains fields which describe a Tokenizer.
	TokenizerConfig struct {
		// TimeFunc is a function which should supply the current time since the unix epoch.
		// Used to set the the length of time the token is valid
		TimeFunc func() int64
		// ValidSec is the length of time the token is valid from the issuing time, in seconds
		ValidSec int64
	}

	// jwtPlayerClaims identify a player in a single game.
	jwtPlayerClaims struct {
		GameID             game.ID `json:"gid"`
		jwt.StandardClaims         // player id stored in Subject ("sub") field
	}
)

// NewTokenizer creates a Tokenizer that signs tokens with the key.
func (cfg TokenizerConfig) NewTokenizer(key interface{}) (*JwtTokenizer, error) {
	if err := cfg.validate(key); err != nil {
		return nil, fmt.Errorf("creating tokenizer: validation: %w", err)
	}
	t := JwtTokenizer{
		method:          jwt.SigningMethodHS256,
		key:             key,
		TokenizerConfig: cfg,
	}
	return &t, nil
}

// validate ensures the configuration has no errors.
func (cfg TokenizerConfig) validate(key interface{}) error {
	switch {
	case key == nil:
		return fmt.Errorf("key required")
	case cfg.TimeFunc == nil:
		return fmt.Errorf("time func required")
	case cfg.ValidSec <= 0:
		return fmt.Errorf("positive valid seconds required")
	}
	return nil
}

// Create makes a token for the player in the game.
func (j JwtTokenizer) Create(playerID string, gameID game.ID) (string, error) {
	now := j.TimeFunc()
	expiresAt := now + j.ValidSec
	claims := jwtPlayerClaims{
		GameID: gameID,
		StandardClaims: jwt.StandardClaims{
			Subject:   playerID,
			NotBefore: now,
			ExpiresAt: expiresAt,
		},
	}
	token := jwt.NewWithClaims(j.method, claims)
	return token.SignedString(j.key)
}

// Read extracts the player id and game id from the token string.
func (j JwtTokenizer) Read(tokenString string) (playerID string, gameID game.ID, err error) {
	var claims jwtPlayerClaims
	if _, err := jwt.ParseWithClaims(tokenString, &claims, j.keyFunc); err != nil {
		return "", "", err
	}
	if len(claims.Subject) == 0 || len(claims.GameID) == 0 {
		return "", "", fmt.Errorf("token missing player or game")
	}
	return claims.Subject, claims.GameID, nil
}

// keyFunc ensures the key type (method) of the token is correct before returning the key.
func (j JwtTokenizer) keyFunc(t *jwt.Token) (interface{}, error) {
	if t.Method != j.method {
		return nil, fmt.Errorf("incorrect authorization signing method")
	}
	return j.key, nil
}
