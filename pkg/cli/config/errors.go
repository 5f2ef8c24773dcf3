package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound         = goerr.New("configuration file not found")
	ErrInvalidConfig          = goerr.New("invalid configuration")
	ErrDuplicateCategoryID    = goerr.New("duplicate category ID")
	ErrDuplicateItemID        = goerr.New("duplicate item ID")
	ErrInvalidThresholds      = goerr.New("category requires exactly five thresholds")
	ErrNonAscendingThresholds = goerr.New("thresholds must be strictly ascending")
	ErrMissingName            = goerr.New("name is required")
	ErrDuplicateWorkspaceID   = goerr.New("duplicate workspace ID")
)

// Context keys for error values
const (
	ConfigPathKey    = "config_path"
	WorkspaceIDKey   = "workspace_id"
	CategoryIDKey    = "category_id"
	ItemIDKey        = "item_id"
	CategoryIndexKey = "category_index"
	ItemIndexKey     = "item_index"
	ThresholdsKey    = "thresholds"
	UnratedPolicyKey = "unrated_policy"
	BackendKey       = "backend"
)
