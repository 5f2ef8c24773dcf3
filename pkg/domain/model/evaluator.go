package model

import (
	"github.com/mentis-app/mentis/pkg/domain/model/config"
	"github.com/mentis-app/mentis/pkg/domain/types"
)

// AutomaticBandFor maps an aggregate onto a threshold table. Bounds are
// inclusive and the first match wins, so a boundary value belongs to the lower band.
func AutomaticBandFor(thresholds [types.BandCount]float64, aggregate int) types.Band {
	a := float64(aggregate)
	switch {
	case a <= thresholds[0]:
		return types.BandNone
	case a <= thresholds[1]:
		return types.BandLow
	case a <= thresholds[2]:
		return types.BandMedium
	case a <= thresholds[3]:
		return types.BandHigh
	default:
		return types.BandVeryHigh
	}
}

type categoryState struct {
	aggregate int
	rated     int
	band      types.Band
}

// Evaluator keeps the aggregate, automatic band and concordance of a risk
// profile in sync with item ratings and expert bands. Every mutation recomputes
// the derived values before returning.
//
// An Evaluator belongs to a single form; it is not safe for concurrent use.
type Evaluator struct {
	profile       *config.RiskProfile
	unratedPolicy types.UnratedPolicy

	ratings     map[types.CategoryID]map[types.ItemID]*ItemRating
	expertBands map[types.CategoryID]types.Band
	states      map[types.CategoryID]*categoryState
	concordance Concordance
}

// EvaluatorOption configures an Evaluator
type EvaluatorOption func(*Evaluator)

// WithUnratedPolicy overrides the profile's policy for categories without any fully rated item
func WithUnratedPolicy(policy types.UnratedPolicy) EvaluatorOption {
	return func(e *Evaluator) {
		e.unratedPolicy = policy.Normalize()
	}
}

// NewEvaluator creates an Evaluator with every category of profile initialized empty
func NewEvaluator(profile *config.RiskProfile, opts ...EvaluatorOption) *Evaluator {
	if profile == nil {
		profile = &config.RiskProfile{}
	}

	e := &Evaluator{
		profile:       profile,
		unratedPolicy: profile.UnratedPolicy.Normalize(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.reset()
	return e
}

func (e *Evaluator) reset() {
	e.ratings = make(map[types.CategoryID]map[types.ItemID]*ItemRating, len(e.profile.Categories))
	e.expertBands = make(map[types.CategoryID]types.Band)
	e.states = make(map[types.CategoryID]*categoryState, len(e.profile.Categories))

	for _, cat := range e.profile.Categories {
		items := make(map[types.ItemID]*ItemRating, len(cat.Items))
		for _, item := range cat.Items {
			items[item.ID] = &ItemRating{}
		}
		e.ratings[cat.ID] = items
		e.states[cat.ID] = &categoryState{}
	}

	for i := range e.profile.Categories {
		e.recomputeCategory(&e.profile.Categories[i])
	}
	e.recomputeConcordance()
}

// Profile returns the reference data the evaluator was built with
func (e *Evaluator) Profile() *config.RiskProfile {
	return e.profile
}

// SetItemRating sets or clears (value == nil) one sub-score. References to
// unknown categories, items or fields are ignored.
func (e *Evaluator) SetItemRating(categoryID types.CategoryID, itemID types.ItemID, field types.RatingField, value *int) {
	cat := e.profile.Category(categoryID)
	if cat == nil {
		return
	}
	rating, ok := e.ratings[categoryID][itemID]
	if !ok {
		return
	}
	if !rating.set(field, value) {
		return
	}

	e.recomputeCategory(cat)
	e.recomputeConcordance()
}

// ItemRating returns a copy of the current rating of an item
func (e *Evaluator) ItemRating(categoryID types.CategoryID, itemID types.ItemID) (ItemRating, bool) {
	rating, ok := e.ratings[categoryID][itemID]
	if !ok {
		return ItemRating{}, false
	}
	return rating.Clone(), true
}

// CategoryAggregate returns the sum of item totals in the category. Items
// without all three sub-scores contribute 0, as does an unknown category.
func (e *Evaluator) CategoryAggregate(categoryID types.CategoryID) int {
	state, ok := e.states[categoryID]
	if !ok {
		return 0
	}
	return state.aggregate
}

// AutomaticBand returns the band computed from the aggregate, or
// BandNotApplicable for an unknown category.
func (e *Evaluator) AutomaticBand(categoryID types.CategoryID) types.Band {
	state, ok := e.states[categoryID]
	if !ok {
		return types.BandNotApplicable
	}
	return state.band
}

// SetExpertBand sets the expert's band for a category. BandNotApplicable
// clears it. Invalid bands and unknown categories are ignored.
func (e *Evaluator) SetExpertBand(categoryID types.CategoryID, band types.Band) {
	if e.profile.Category(categoryID) == nil {
		return
	}

	switch {
	case band == types.BandNotApplicable:
		delete(e.expertBands, categoryID)
	case band.IsValid():
		e.expertBands[categoryID] = band
	default:
		return
	}

	e.recomputeConcordance()
}

// ExpertBand returns the expert's band for a category, or BandNotApplicable
func (e *Evaluator) ExpertBand(categoryID types.CategoryID) types.Band {
	return e.expertBands[categoryID]
}

// Agreement classifies one category as agree, disagree or indeterminate
func (e *Evaluator) Agreement(categoryID types.CategoryID) types.Agreement {
	auto := e.AutomaticBand(categoryID)
	expert := e.ExpertBand(categoryID)
	switch {
	case auto == types.BandNotApplicable || expert == types.BandNotApplicable:
		return types.AgreementIndeterminate
	case auto == expert:
		return types.AgreementAgree
	default:
		return types.AgreementDisagree
	}
}

// Concordance returns the current concordant and discordant category lists,
// in reference-data order.
func (e *Evaluator) Concordance() Concordance {
	return Concordance{
		Concordant: copyCategoryIDs(e.concordance.Concordant),
		Discordant: copyCategoryIDs(e.concordance.Discordant),
	}
}

// Restore replaces the current state with the snapshot. Ratings and bands
// that reference unknown categories or items are dropped.
func (e *Evaluator) Restore(s Snapshot) {
	e.reset()

	for catID, items := range s.Ratings {
		known, ok := e.ratings[catID]
		if !ok {
			continue
		}
		for itemID, r := range items {
			if _, ok := known[itemID]; !ok {
				continue
			}
			c := r.Clone()
			known[itemID] = &c
		}
	}

	for catID, band := range s.ExpertBands {
		if _, ok := e.states[catID]; !ok || !band.IsValid() {
			continue
		}
		e.expertBands[catID] = band
	}

	for i := range e.profile.Categories {
		e.recomputeCategory(&e.profile.Categories[i])
	}
	e.recomputeConcordance()
}

// Snapshot returns the current input state. Items with no sub-score set are omitted.
func (e *Evaluator) Snapshot() Snapshot {
	s := Snapshot{
		Ratings:     make(map[types.CategoryID]map[types.ItemID]ItemRating),
		ExpertBands: make(map[types.CategoryID]types.Band, len(e.expertBands)),
	}

	for catID, items := range e.ratings {
		for itemID, r := range items {
			if r.IsEmpty() {
				continue
			}
			if _, ok := s.Ratings[catID]; !ok {
				s.Ratings[catID] = make(map[types.ItemID]ItemRating)
			}
			s.Ratings[catID][itemID] = r.Clone()
		}
	}
	for catID, band := range e.expertBands {
		s.ExpertBands[catID] = band
	}

	return s
}

// Summary returns the derived output for every category in reference-data order
func (e *Evaluator) Summary() Summary {
	summary := Summary{
		Categories:  make([]CategorySummary, 0, len(e.profile.Categories)),
		Concordance: e.Concordance(),
	}

	for _, cat := range e.profile.Categories {
		state := e.states[cat.ID]
		summary.Categories = append(summary.Categories, CategorySummary{
			CategoryID:    cat.ID,
			Aggregate:     state.aggregate,
			RatedItems:    state.rated,
			AutomaticBand: state.band,
			ExpertBand:    e.ExpertBand(cat.ID),
			Agreement:     e.Agreement(cat.ID),
		})
	}

	return summary
}

func (e *Evaluator) recomputeCategory(cat *config.Category) {
	state := e.states[cat.ID]
	state.aggregate = 0
	state.rated = 0

	for _, r := range e.ratings[cat.ID] {
		if total, ok := r.Total(); ok {
			state.aggregate = saturatingAdd(state.aggregate, total)
			state.rated++
		}
	}

	if state.rated == 0 && e.unratedPolicy == types.UnratedNotApplicable {
		state.band = types.BandNotApplicable
		return
	}
	state.band = AutomaticBandFor(cat.Thresholds, state.aggregate)
}

func (e *Evaluator) recomputeConcordance() {
	concordant := []types.CategoryID{}
	discordant := []types.CategoryID{}

	for _, cat := range e.profile.Categories {
		switch e.Agreement(cat.ID) {
		case types.AgreementAgree:
			concordant = append(concordant, cat.ID)
		case types.AgreementDisagree:
			discordant = append(discordant, cat.ID)
		}
	}

	e.concordance = Concordance{
		Concordant: concordant,
		Discordant: discordant,
	}
}
