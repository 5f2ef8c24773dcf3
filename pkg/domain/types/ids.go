package types

import (
	"regexp"

	"github.com/m-mizutani/goerr/v2"
)

var idPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// CategoryID represents a unique identifier for a risk category
type CategoryID string

// Validate checks if the CategoryID is valid
func (c CategoryID) Validate() error {
	if c == "" {
		return goerr.New("category ID cannot be empty")
	}
	if !idPattern.MatchString(string(c)) {
		return goerr.New("category ID must be lowercase alphanumeric with hyphens", goerr.V("id", c))
	}
	return nil
}

// String returns the string representation of CategoryID
func (c CategoryID) String() string {
	return string(c)
}

// ItemID represents a stable identifier for a rated item within a category.
// It is decoupled from the item's display label.
type ItemID string

// Validate checks if the ItemID is valid
func (i ItemID) Validate() error {
	if i == "" {
		return goerr.New("item ID cannot be empty")
	}
	if !idPattern.MatchString(string(i)) {
		return goerr.New("item ID must be lowercase alphanumeric with hyphens", goerr.V("id", i))
	}
	return nil
}

// String returns the string representation of ItemID
func (i ItemID) String() string {
	return string(i)
}

// WorkspaceID identifies a workspace, one risk profile each
type WorkspaceID string

// Validate checks if the WorkspaceID is valid
func (w WorkspaceID) Validate() error {
	if w == "" {
		return goerr.New("workspace ID cannot be empty")
	}
	if !idPattern.MatchString(string(w)) {
		return goerr.New("workspace ID must be lowercase alphanumeric with hyphens", goerr.V("id", w))
	}
	return nil
}

// String returns the string representation of WorkspaceID
func (w WorkspaceID) String() string {
	return string(w)
}
