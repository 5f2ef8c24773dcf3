package types

import "fmt"

// RatingField names one of the three sub-scores of an item rating
type RatingField string

const (
	RatingFieldFrequency RatingField = "frequency"
	RatingFieldExposure  RatingField = "exposure"
	RatingFieldIntensity RatingField = "intensity"
)

// AllRatingFields returns all valid rating fields
func AllRatingFields() []RatingField {
	return []RatingField{
		RatingFieldFrequency,
		RatingFieldExposure,
		RatingFieldIntensity,
	}
}

// IsValid checks if the rating field is valid
func (f RatingField) IsValid() bool {
	switch f {
	case RatingFieldFrequency,
		RatingFieldExposure,
		RatingFieldIntensity:
		return true
	default:
		return false
	}
}

// String returns the string representation of the rating field
func (f RatingField) String() string {
	return string(f)
}

// ParseRatingField parses a string into a RatingField
func ParseRatingField(s string) (RatingField, error) {
	field := RatingField(s)
	if !field.IsValid() {
		return "", fmt.Errorf("invalid rating field: %s", s)
	}
	return field, nil
}

// Agreement is the per-category outcome of comparing the automatic band with the expert band
type Agreement string

const (
	AgreementAgree         Agreement = "AGREE"
	AgreementDisagree      Agreement = "DISAGREE"
	AgreementIndeterminate Agreement = "INDETERMINATE"
)

// AllAgreements returns all agreement values
func AllAgreements() []Agreement {
	return []Agreement{
		AgreementAgree,
		AgreementDisagree,
		AgreementIndeterminate,
	}
}

// String returns the string representation of the agreement
func (a Agreement) String() string {
	return string(a)
}
