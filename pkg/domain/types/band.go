package types

import (
	"encoding/json"
	"fmt"
)

// Band is an ordinal risk band. The zero value is BandNotApplicable, used when
// no band can be assigned (unknown category, unset expert rating).
type Band string

const (
	BandNotApplicable Band = ""
	BandNone          Band = "NONE"
	BandLow           Band = "LOW"
	BandMedium        Band = "MEDIUM"
	BandHigh          Band = "HIGH"
	BandVeryHigh      Band = "VERY_HIGH"
)

// BandCount is the number of assignable bands, and the size of a threshold table.
const BandCount = 5

// AllBands returns all assignable bands in ascending order
func AllBands() []Band {
	return []Band{
		BandNone,
		BandLow,
		BandMedium,
		BandHigh,
		BandVeryHigh,
	}
}

// IsValid checks if the band is one of the assignable bands
func (b Band) IsValid() bool {
	switch b {
	case BandNone,
		BandLow,
		BandMedium,
		BandHigh,
		BandVeryHigh:
		return true
	default:
		return false
	}
}

// IsNotApplicable reports whether b is the not-applicable sentinel
func (b Band) IsNotApplicable() bool {
	return b == BandNotApplicable
}

// Rank returns the ordinal position of the band (NONE=0 ... VERY_HIGH=4), or -1
// for BandNotApplicable and unknown values.
func (b Band) Rank() int {
	switch b {
	case BandNone:
		return 0
	case BandLow:
		return 1
	case BandMedium:
		return 2
	case BandHigh:
		return 3
	case BandVeryHigh:
		return 4
	default:
		return -1
	}
}

// String returns the string representation of the band
func (b Band) String() string {
	return string(b)
}

// MarshalJSON encodes BandNotApplicable as null
func (b Band) MarshalJSON() ([]byte, error) {
	if b == BandNotApplicable {
		return []byte("null"), nil
	}
	return json.Marshal(string(b))
}

// UnmarshalJSON accepts null or one of the assignable band names
func (b *Band) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*b = BandNotApplicable
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseBand(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// ParseBand parses a string into a Band. An empty string yields BandNotApplicable.
func ParseBand(s string) (Band, error) {
	band := Band(s)
	if band == BandNotApplicable || band.IsValid() {
		return band, nil
	}
	return "", fmt.Errorf("invalid band: %s", s)
}

// UnratedPolicy decides which band a category without any complete item gets
type UnratedPolicy string

const (
	// UnratedAsNone reports NONE, since an aggregate of 0 is below every threshold
	UnratedAsNone UnratedPolicy = "none"
	// UnratedNotApplicable reports BandNotApplicable until at least one item is fully rated
	UnratedNotApplicable UnratedPolicy = "not-applicable"
)

// IsValid checks if the policy is valid
func (p UnratedPolicy) IsValid() bool {
	switch p {
	case UnratedAsNone, UnratedNotApplicable:
		return true
	default:
		return false
	}
}

// Normalize treats empty as UnratedAsNone
func (p UnratedPolicy) Normalize() UnratedPolicy {
	if p == "" {
		return UnratedAsNone
	}
	return p
}
