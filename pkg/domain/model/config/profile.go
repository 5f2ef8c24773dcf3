package config

import "github.com/mentis-app/mentis/pkg/domain/types"

// Item is a rated factor within a category. Label is display text only and is
// never used as a lookup key.
type Item struct {
	ID          types.ItemID
	Label       string
	Description string
}

// Category groups items and carries the threshold table used for automatic banding.
// Thresholds are [none, low, medium, high, very_high] and strictly ascending.
type Category struct {
	ID          types.CategoryID
	Name        string
	Description string
	Items       []Item
	Thresholds  [types.BandCount]float64
}

// HasItem reports whether the category defines the item
func (c *Category) HasItem(id types.ItemID) bool {
	for _, item := range c.Items {
		if item.ID == id {
			return true
		}
	}
	return false
}

// RiskProfile holds the immutable reference data of one workspace
type RiskProfile struct {
	Categories    []Category
	UnratedPolicy types.UnratedPolicy
}

// Category returns the category with the given ID, or nil
func (p *RiskProfile) Category(id types.CategoryID) *Category {
	if p == nil {
		return nil
	}
	for i := range p.Categories {
		if p.Categories[i].ID == id {
			return &p.Categories[i]
		}
	}
	return nil
}
