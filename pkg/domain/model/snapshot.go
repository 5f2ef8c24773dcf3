package model

import "github.com/mentis-app/mentis/pkg/domain/types"

// Snapshot is the input form state: ratings per category and item, plus the
// expert band per category.
type Snapshot struct {
	Ratings     map[types.CategoryID]map[types.ItemID]ItemRating `json:"ratings" yaml:"ratings"`
	ExpertBands map[types.CategoryID]types.Band                  `json:"expert_bands" yaml:"expert_bands"`
}

// Clone returns a deep copy of the snapshot
func (s Snapshot) Clone() Snapshot {
	copied := Snapshot{}
	if s.Ratings != nil {
		copied.Ratings = make(map[types.CategoryID]map[types.ItemID]ItemRating, len(s.Ratings))
		for catID, items := range s.Ratings {
			m := make(map[types.ItemID]ItemRating, len(items))
			for itemID, r := range items {
				m[itemID] = r.Clone()
			}
			copied.Ratings[catID] = m
		}
	}
	if s.ExpertBands != nil {
		copied.ExpertBands = make(map[types.CategoryID]types.Band, len(s.ExpertBands))
		for catID, b := range s.ExpertBands {
			copied.ExpertBands[catID] = b
		}
	}
	return copied
}

// CategorySummary is the derived output for one category
type CategorySummary struct {
	CategoryID    types.CategoryID `json:"category_id"`
	Aggregate     int              `json:"aggregate"`
	RatedItems    int              `json:"rated_items"`
	AutomaticBand types.Band       `json:"automatic_band"`
	ExpertBand    types.Band       `json:"expert_band"`
	Agreement     types.Agreement  `json:"agreement"`
}

// Concordance lists categories where both bands are present, split by equality.
// Categories with a missing side appear in neither list.
type Concordance struct {
	Concordant []types.CategoryID `json:"concordant"`
	Discordant []types.CategoryID `json:"discordant"`
}

// Summary is the derived output exposed for persistence and display
type Summary struct {
	Categories []CategorySummary `json:"categories"`
	Concordance
}

// Category returns the summary of the given category
func (s Summary) Category(id types.CategoryID) (CategorySummary, bool) {
	for _, c := range s.Categories {
		if c.CategoryID == id {
			return c, true
		}
	}
	return CategorySummary{}, false
}

// HasDiscordance reports whether any category is discordant
func (s Summary) HasDiscordance() bool {
	return len(s.Discordant) > 0
}

// Clone returns a deep copy of the summary
func (s Summary) Clone() Summary {
	copied := Summary{
		Categories: make([]CategorySummary, len(s.Categories)),
	}
	copy(copied.Categories, s.Categories)
	copied.Concordant = copyCategoryIDs(s.Concordant)
	copied.Discordant = copyCategoryIDs(s.Discordant)
	return copied
}

func copyCategoryIDs(ids []types.CategoryID) []types.CategoryID {
	copied := make([]types.CategoryID, len(ids))
	copy(copied, ids)
	return copied
}
