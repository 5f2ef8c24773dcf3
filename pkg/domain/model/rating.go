package model

import (
	"math"

	"github.com/mentis-app/mentis/pkg/domain/types"
)

// ItemRating holds the three sub-scores of one item. A nil field is unset,
// which is distinct from a rating of zero.
type ItemRating struct {
	Frequency *int `json:"frequency" yaml:"frequency"`
	Exposure  *int `json:"exposure" yaml:"exposure"`
	Intensity *int `json:"intensity" yaml:"intensity"`
}

// Total returns the sum of the three sub-scores, saturating at the int range.
// ok is false unless all three are set.
func (r ItemRating) Total() (total int, ok bool) {
	if r.Frequency == nil || r.Exposure == nil || r.Intensity == nil {
		return 0, false
	}
	return saturatingAdd(saturatingAdd(*r.Frequency, *r.Exposure), *r.Intensity), true
}

// saturatingAdd clamps a+b to [math.MinInt, math.MaxInt]
func saturatingAdd(a, b int) int {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return math.MaxInt
	case b < 0 && a < math.MinInt-b:
		return math.MinInt
	default:
		return a + b
	}
}

// IsEmpty reports whether no sub-score is set
func (r ItemRating) IsEmpty() bool {
	return r.Frequency == nil && r.Exposure == nil && r.Intensity == nil
}

// Get returns the sub-score for field, or nil
func (r ItemRating) Get(field types.RatingField) *int {
	switch field {
	case types.RatingFieldFrequency:
		return r.Frequency
	case types.RatingFieldExposure:
		return r.Exposure
	case types.RatingFieldIntensity:
		return r.Intensity
	default:
		return nil
	}
}

// set stores a copy of value into field. Returns false for an unknown field.
func (r *ItemRating) set(field types.RatingField, value *int) bool {
	v := copyInt(value)
	switch field {
	case types.RatingFieldFrequency:
		r.Frequency = v
	case types.RatingFieldExposure:
		r.Exposure = v
	case types.RatingFieldIntensity:
		r.Intensity = v
	default:
		return false
	}
	return true
}

// Clone returns a deep copy
func (r ItemRating) Clone() ItemRating {
	return ItemRating{
		Frequency: copyInt(r.Frequency),
		Exposure:  copyInt(r.Exposure),
		Intensity: copyInt(r.Intensity),
	}
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// IntPtr is a helper to build optional sub-scores
func IntPtr(v int) *int {
	return &v
}
