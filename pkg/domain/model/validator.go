package model

import (
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mentis-app/mentis/pkg/domain/model/config"
	"github.com/mentis-app/mentis/pkg/domain/types"
)

// SnapshotValidator checks a snapshot against a risk profile. The Evaluator
// silently drops what this validator reports; it is used where stale or
// malformed input should be surfaced instead (strict API input, DB checks).
type SnapshotValidator struct {
	profile *config.RiskProfile
}

// NewSnapshotValidator creates a new SnapshotValidator with the given profile
func NewSnapshotValidator(profile *config.RiskProfile) *SnapshotValidator {
	return &SnapshotValidator{
		profile: profile,
	}
}

// Validate returns the first problem found in s, or nil
func (v *SnapshotValidator) Validate(s Snapshot) error {
	errs := v.ValidateAll(s)
	if len(errs) == 0 {
		return nil
	}
	return errs[0]
}

// ValidateAll returns every problem found in s, in a stable order
func (v *SnapshotValidator) ValidateAll(s Snapshot) []error {
	var errs []error

	for _, catID := range sortedKeys(s.Ratings) {
		cat := v.profile.Category(catID)
		if cat == nil {
			errs = append(errs, goerr.Wrap(ErrUnknownCategory, "rating references unknown category",
				goerr.V(CategoryIDKey, catID)))
			continue
		}

		items := s.Ratings[catID]
		for _, itemID := range sortedKeys(items) {
			if !cat.HasItem(itemID) {
				errs = append(errs, goerr.Wrap(ErrUnknownItem, "rating references unknown item",
					goerr.V(CategoryIDKey, catID),
					goerr.V(ItemIDKey, itemID)))
				continue
			}
			errs = append(errs, v.validateRating(catID, itemID, items[itemID])...)
		}
	}

	for _, catID := range sortedKeys(s.ExpertBands) {
		if v.profile.Category(catID) == nil {
			errs = append(errs, goerr.Wrap(ErrUnknownCategory, "expert band references unknown category",
				goerr.V(CategoryIDKey, catID)))
			continue
		}
		band := s.ExpertBands[catID]
		if band != types.BandNotApplicable && !band.IsValid() {
			errs = append(errs, goerr.Wrap(ErrInvalidBand, "expert band is not assignable",
				goerr.V(CategoryIDKey, catID),
				goerr.V(BandKey, band)))
		}
	}

	return errs
}

// validateRating checks that no sub-score is negative. There is no upper bound.
func (v *SnapshotValidator) validateRating(catID types.CategoryID, itemID types.ItemID, r ItemRating) []error {
	var errs []error
	for _, field := range types.AllRatingFields() {
		value := r.Get(field)
		if value != nil && *value < 0 {
			errs = append(errs, goerr.Wrap(ErrNegativeRating, "negative sub-score",
				goerr.V(CategoryIDKey, catID),
				goerr.V(ItemIDKey, itemID),
				goerr.V(RatingFieldKey, field),
				goerr.V(ValueKey, *value)))
		}
	}
	return errs
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
