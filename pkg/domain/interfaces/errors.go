package interfaces

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors returned by every repository implementation
var (
	ErrNotFound      = goerr.New("not found")
	ErrAlreadyExists = goerr.New("already exists")
)
