package sentinel

import "errors"

// Infrastructure facts returned (optionally wrapped) by stores. Services
// translate them into coded errors from pkg/domain-errors.
//
//   - ErrNotFound: no token with the requested accessor ID
//   - ErrAlreadyUsed: accessor ID already taken
//   - ErrExpired: token is past its expiration time
//   - ErrUnavailable: backing store cannot be reached
var (
	ErrNotFound    = errors.New("not found")
	ErrAlreadyUsed = errors.New("already used")
	ErrExpired     = errors.New("expired")
	ErrUnavailable = errors.New("unavailable")
)
