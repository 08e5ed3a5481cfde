package model

import "errors"

// Challenge validation errors. The messages are user-facing: they are sent
// verbatim in challenge_failed replies.
var (
	ErrTargetUnavailable = errors.New("Player is no longer available")
	ErrSelfChallenge     = errors.New("Cannot challenge yourself")
	ErrNotInLobby        = errors.New("You are not in the lobby")
)
