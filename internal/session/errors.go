package session

import "errors"

var (
	ErrDuplicateSession     = errors.New("session already exists for connection")
	ErrSessionNotFound      = errors.New("session not found")
	ErrAlreadyRunning       = errors.New("evaluation already running")
	ErrCorrelationCollision = errors.New("correlation id collision")
	ErrArticleOutOfRange    = errors.New("pending request article index out of range")
)
