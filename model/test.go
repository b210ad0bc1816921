package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Scale is the measurement scale of a test.
type Scale string

const (
	ScaleQuantitative Scale = "Quantitative"
	ScaleQualitative  Scale = "Qualitative"
)

// Result flags for quantitative values.
const (
	FlagLow    = "L"
	FlagHigh   = "H"
	FlagNormal = "N"
)

// Test is an immutable catalog entry describing an orderable analysis.
type Test struct {
	Code         string   `json:"code" yaml:"code" validate:"required"`
	TMLTCode     string   `json:"tmltCode,omitempty" yaml:"tmltCode,omitempty"`
	TMLTName     string   `json:"tmltName,omitempty" yaml:"tmltName,omitempty"`
	LOINC        string   `json:"loinc,omitempty" yaml:"loinc,omitempty"`
	Label        string   `json:"label" yaml:"label" validate:"required"`
	Specimen     string   `json:"specimen" yaml:"specimen" validate:"required"`
	Method       string   `json:"method" yaml:"method" validate:"required"`
	Scale        Scale    `json:"scale" yaml:"scale" validate:"oneof=Quantitative Qualitative"`
	Unit         string   `json:"unit,omitempty" yaml:"unit,omitempty"`
	RefMin       *float64 `json:"refMin,omitempty" yaml:"refMin,omitempty"`
	RefMax       *float64 `json:"refMax,omitempty" yaml:"refMax,omitempty"`
	ValueChoices []string `json:"valueChoices,omitempty" yaml:"valueChoices,omitempty"`
	Panel        string   `json:"panel,omitempty" yaml:"panel,omitempty"`
	Price        float64  `json:"price,omitempty" yaml:"price,omitempty" validate:"gte=0"`
	Active       bool     `json:"active" yaml:"active"`
}

// IsQuantitative reports whether values of this test are numeric.
func (t *Test) IsQuantitative() bool {
	return t.Scale == ScaleQuantitative
}

// NormalizeValue validates a raw result against the test scale. Quantitative
// values must parse as float; qualitative values must match one of the value
// choices (case-insensitive) when choices are defined.
func (t *Test) NormalizeValue(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	if t.IsQuantitative() {
		if _, ok := parseNumber(value); !ok {
			return "", fmt.Errorf("%w: %q is not numeric for test %s", ErrInvalidValue, value, t.Code)
		}
		return value, nil
	}
	if len(t.ValueChoices) == 0 {
		return value, nil
	}
	for _, choice := range t.ValueChoices {
		if strings.EqualFold(choice, value) {
			return choice, nil
		}
	}
	return "", fmt.Errorf("%w: %q is not one of %v for test %s", ErrInvalidValue, value, t.ValueChoices, t.Code)
}

// Flag classifies a quantitative value against the reference range. It returns
// an empty string for qualitative tests, missing values or missing ranges.
func (t *Test) Flag(value *string) string {
	if value == nil || !t.IsQuantitative() || (t.RefMin == nil && t.RefMax == nil) {
		return ""
	}
	v, ok := parseNumber(*value)
	if !ok {
		return ""
	}
	switch {
	case t.RefMin != nil && v < *t.RefMin:
		return FlagLow
	case t.RefMax != nil && v > *t.RefMax:
		return FlagHigh
	}
	return FlagNormal
}

// ValueString renders a result with its unit, or N/A when there is none.
func (t *Test) ValueString(value *string) string {
	if value == nil || *value == "" {
		return "N/A"
	}
	if t.Unit == "" {
		return *value
	}
	return *value + " " + t.Unit
}

// parseNumber accepts finite decimal values only.
func parseNumber(value string) (float64, bool) {
	if strings.ContainsAny(value, "xXpP") {
		return 0, false
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
