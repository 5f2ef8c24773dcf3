package model

import "github.com/m-mizutani/goerr/v2"

// Validation errors
var (
	ErrUnknownCategory = goerr.New("unknown category")
	ErrUnknownItem     = goerr.New("unknown item")
	ErrInvalidBand     = goerr.New("invalid band")
	ErrNegativeRating  = goerr.New("rating must not be negative")
)

// Context keys for error values
const (
	WorkspaceIDKey = "workspace_id"
	CategoryIDKey  = "category_id"
	ItemIDKey      = "item_id"
	RatingFieldKey = "rating_field"
	BandKey        = "band"
	ValueKey       = "value"
)
