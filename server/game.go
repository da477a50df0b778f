package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jacobpatterson1549/number-race/game"
	"github.com/jacobpatterson1549/number-race/server/log"
)

type (
	// joinRequest is sent by a player to join or create a game.
	joinRequest struct {
		PlayerID string `json:"playerId"`
	}

	// joinResponse tells the player which game they are in.
	joinResponse struct {
		GameID  game.ID   `json:"gameId"`
		Role    game.Role `json:"role"`
		Message string    `json:"message"`
		Token   string    `json:"token"`
		Game    game.Game `json:"game"`
	}

	// clickRequest is sent by a player to claim the number.
	clickRequest struct {
		PlayerID string `json:"playerId"`
		Number   int    `json:"number"`
	}

	// rulesResponse describes how to play.
	rulesResponse struct {
		Version string   `json:"version"`
		Rules   []string `json:"rules"`
	}

	// errorResponse is written when a request is not successful.
	// The reason is a short, stable code clients can switch on.
	errorResponse struct {
		Message string `json:"message"`
		Reason  string `json:"reason"`
	}
)

var (
	errBadRequest   = errors.New("bad request")
	errUnauthorized = errors.New("unauthorized")
)

// maxRequestBytes limits the size of request bodies.
const maxRequestBytes = 1 << 12

// joinHandler adds the player to a waiting game or creates a new game.
func joinHandler(s Store, tokenizer Tokenizer, log log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req joinRequest
		if err := readRequest(w, r, &req); err != nil {
			writeError(w, err, log)
			return
		}
		if len(req.PlayerID) == 0 {
			err := fmt.Errorf("playerId required: %w", errBadRequest)
			writeError(w, err, log)
			return
		}
		result, err := s.JoinOrCreate(r.Context(), req.PlayerID)
		if err != nil {
			writeError(w, err, log)
			return
		}
		token, err := tokenizer.Create(req.PlayerID, result.Game.ID)
		if err != nil {
			err = fmt.Errorf("creating token: %w", err)
			writeError(w, err, log)
			return
		}
		resp := joinResponse{
			GameID:  result.Game.ID,
			Role:    result.Role,
			Message: result.Message,
			Token:   token,
			Game:    result.Game,
		}
		writeResponse(w, resp, log)
	}
}

// gameHandler writes the game with the id in the path.
func gameHandler(s Store, log log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := game.ID(r.PathValue("id"))
		g, err := s.GetGame(r.Context(), id)
		if err != nil {
			writeError(w, err, log)
			return
		}
		writeResponse(w, g, log)
	}
}

// clickHandler claims a number for the player.
// If tokens are required, the request must have the token given to the player when the game was joined.
func clickHandler(s Store, tokenizer Tokenizer, requireToken bool, log log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := game.ID(r.PathValue("id"))
		var req clickRequest
		if err := readRequest(w, r, &req); err != nil {
			writeError(w, err, log)
			return
		}
		switch {
		case len(req.PlayerID) == 0:
			err := fmt.Errorf("playerId required: %w", errBadRequest)
			writeError(w, err, log)
			return
		case req.Number < game.FirstNumber, req.Number > game.LastNumber:
			err := fmt.Errorf("number must be between %d and %d: %w", game.FirstNumber, game.LastNumber, errBadRequest)
			writeError(w, err, log)
			return
		}
		if requireToken {
			if err := checkToken(r, tokenizer, req.PlayerID, id); err != nil {
				writeError(w, err, log)
				return
			}
		}
		g, err := s.Claim(r.Context(), id, req.PlayerID, req.Number)
		if err != nil {
			writeError(w, err, log)
			return
		}
		writeResponse(w, g, log)
	}
}

// watchHandler streams the game with the id in the path over a websocket.
// The game is read first so that missing games are reported before the connection is upgraded.
func watchHandler(s Store, watcher Watcher, log log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := game.ID(r.PathValue("id"))
		g, err := s.GetGame(r.Context(), id)
		if err != nil {
			writeError(w, err, log)
			return
		}
		if err := watcher.Watch(r.Context(), w, r, *g); err != nil {
			log.Printf("watching game: %v", err)
		}
	}
}

// rulesHandler writes the rules of the game.
func rulesHandler(version string) http.HandlerFunc {
	resp := rulesResponse{
		Version: version,
		Rules:   game.Rules(),
	}
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(resp)
	}
}

// checkToken ensures the authorization header has a token for the player in the game.
func checkToken(r *http.Request, tokenizer Tokenizer, playerID string, gameID game.ID) error {
	authorization := r.Header.Get(HeaderAuthorization)
	tokenString := strings.TrimPrefix(authorization, "Bearer ")
	if len(tokenString) == 0 || tokenString == authorization {
		return fmt.Errorf("bearer token required: %w", errUnauthorized)
	}
	tokenPlayerID, tokenGameID, err := tokenizer.Read(tokenString)
	switch {
	case err != nil:
		return fmt.Errorf("reading token: %v: %w", err, errUnauthorized)
	case tokenPlayerID != playerID, tokenGameID != gameID:
		return fmt.Errorf("token is for player %q in game %v: %w", tokenPlayerID, tokenGameID, errUnauthorized)
	}
	return nil
}

// readRequest decodes the json body of the request.
func readRequest(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("decoding request: %v: %w", err, errBadRequest)
	}
	return nil
}

// writeResponse writes the value as json.
func writeResponse(w http.ResponseWriter, v interface{}, log log.Logger) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writing response: %v", err)
	}
}

// writeError writes the status code and reason for the error.
// Errors that are not caused by the request are logged and hidden from the response.
func writeError(w http.ResponseWriter, err error, log log.Logger) {
	statusCode, reason, message := errorStatus(err)
	if statusCode == http.StatusInternalServerError {
		log.Printf("server error: %v", err)
	}
	resp := errorResponse{
		Message: message,
		Reason:  reason,
	}
	w.Header().Set(HeaderContentType, "application/json")
	w.WriteHeader(statusCode)
	writeResponse(w, resp, log)
}

// errorStatus determines the response for the error.
func errorStatus(err error) (statusCode int, reason, message string) {
	switch {
	case errors.Is(err, game.ErrNotFound):
		return http.StatusNotFound, "not_found", game.ErrNotFound.Error()
	case errors.Is(err, game.ErrInvalidState):
		return http.StatusUnprocessableEntity, "invalid_state", game.ErrInvalidState.Error()
	case errors.Is(err, game.ErrNotParticipant):
		return http.StatusForbidden, "not_participant", game.ErrNotParticipant.Error()
	case errors.Is(err, game.ErrStaleClaim):
		return http.StatusConflict, "stale_claim", game.ErrStaleClaim.Error()
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "bad_request", err.Error()
	case errors.Is(err, errUnauthorized):
		return http.StatusUnauthorized, "unauthorized", errUnauthorized.Error()
	}
	return http.StatusInternalServerError, "internal", http.StatusText(http.StatusInternalServerError)
}
