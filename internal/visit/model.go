// Package visit provides the sales and placement visit domain model,
// source adapters and data access.
package visit

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Category identifies which visit book a record belongs to.
type Category string

const (
	Sales     Category = "sales"
	Placement Category = "placement"
)

// ValidCategories is the set of allowed categories.
var ValidCategories = []Category{Sales, Placement}

// IsValid checks if a category is recognized.
func (c Category) IsValid() bool {
	for _, v := range ValidCategories {
		if c == v {
			return true
		}
	}
	return false
}

// Label returns a human-readable label for the category.
func (c Category) Label() string {
	switch c {
	case Sales:
		return "Sales"
	case Placement:
		return "Placement"
	default:
		return string(c)
	}
}

// ParseCategory accepts any casing and surrounding whitespace.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("invalid category: %q", s)
	}
	return c, nil
}

// Visit is one sales or placement visit record.
type Visit struct {
	ID                 string         `json:"id"`
	Category           Category       `json:"category"`
	VisitCode          string         `json:"visitCode"`
	Organization       string         `json:"organization"`
	City               string         `json:"city"`
	State              string         `json:"state"`
	VisitPhase         string         `json:"visitPhase"`
	DateTime           string         `json:"dateTime"`
	ContactName        string         `json:"contactName"`
	ContactDesignation string         `json:"contactDesignation"`
	ContactNumber      string         `json:"contactNumber"`
	ContactEmail       string         `json:"contactEmail"`
	Representative     string         `json:"representative"`
	VisitPurpose       string         `json:"visitPurpose"`
	Courses            string         `json:"courses"`
	StudentCount       Amount         `json:"studentCount"`
	TotalContractValue Amount         `json:"totalContractValue"`
	PerStudentRate     Amount         `json:"perStudentRate"`
	Extra              map[string]any `json:"extra,omitempty"`
	CreatedAt          time.Time      `json:"createdAt"`
}

// Canonical field names, in display order.
const (
	FieldVisitCode          = "visitCode"
	FieldOrganization       = "organization"
	FieldCity               = "city"
	FieldState              = "state"
	FieldVisitPhase         = "visitPhase"
	FieldDateTime           = "dateTime"
	FieldContactName        = "contactName"
	FieldContactDesignation = "contactDesignation"
	FieldContactNumber      = "contactNumber"
	FieldContactEmail       = "contactEmail"
	FieldRepresentative     = "representative"
	FieldVisitPurpose       = "visitPurpose"
	FieldCourses            = "courses"
	FieldStudentCount       = "studentCount"
	FieldTotalContractValue = "totalContractValue"
	FieldPerStudentRate     = "perStudentRate"
)

// Fields lists the canonical data fields of a Visit, excluding id and category.
var Fields = []string{
	FieldVisitCode, FieldOrganization, FieldCity, FieldState, FieldVisitPhase,
	FieldDateTime, FieldContactName, FieldContactDesignation, FieldContactNumber,
	FieldContactEmail, FieldRepresentative, FieldVisitPurpose, FieldCourses,
	FieldStudentCount, FieldTotalContractValue, FieldPerStudentRate,
}

// Field looks a value up by canonical name, by external source key of
// either category, or in Extra. The second result is false when nothing matched.
func (v *Visit) Field(name string) (any, bool) {
	if val, ok := v.canonical(name); ok {
		return val, true
	}
	if canon, ok := canonicalFor(v.Category, name); ok {
		return v.canonical(canon)
	}
	for _, c := range ValidCategories {
		if canon, ok := canonicalFor(c, name); ok {
			return v.canonical(canon)
		}
	}
	val, ok := v.Extra[name]
	return val, ok
}

func (v *Visit) canonical(name string) (any, bool) {
	switch name {
	case FieldVisitCode:
		return v.VisitCode, true
	case FieldOrganization:
		return v.Organization, true
	case FieldCity:
		return v.City, true
	case FieldState:
		return v.State, true
	case FieldVisitPhase:
		return v.VisitPhase, true
	case FieldDateTime:
		return v.DateTime, true
	case FieldContactName:
		return v.ContactName, true
	case FieldContactDesignation:
		return v.ContactDesignation, true
	case FieldContactNumber:
		return v.ContactNumber, true
	case FieldContactEmail:
		return v.ContactEmail, true
	case FieldRepresentative:
		return v.Representative, true
	case FieldVisitPurpose:
		return v.VisitPurpose, true
	case FieldCourses:
		return v.Courses, true
	case FieldStudentCount:
		return v.StudentCount.Raw, true
	case FieldTotalContractValue:
		return v.TotalContractValue.Raw, true
	case FieldPerStudentRate:
		return v.PerStudentRate.Raw, true
	}
	return nil, false
}

// setCanonical assigns val to the named canonical field. Unknown names are ignored.
func (v *Visit) setCanonical(name string, val any) {
	switch name {
	case FieldVisitCode:
		v.VisitCode = text(val)
	case FieldOrganization:
		v.Organization = text(val)
	case FieldCity:
		v.City = text(val)
	case FieldState:
		v.State = text(val)
	case FieldVisitPhase:
		v.VisitPhase = text(val)
	case FieldDateTime:
		v.DateTime = text(val)
	case FieldContactName:
		v.ContactName = text(val)
	case FieldContactDesignation:
		v.ContactDesignation = text(val)
	case FieldContactNumber:
		v.ContactNumber = text(val)
	case FieldContactEmail:
		v.ContactEmail = text(val)
	case FieldRepresentative:
		v.Representative = text(val)
	case FieldVisitPurpose:
		v.VisitPurpose = text(val)
	case FieldCourses:
		v.Courses = text(val)
	case FieldStudentCount:
		v.StudentCount = Amount{Raw: val}
	case FieldTotalContractValue:
		v.TotalContractValue = Amount{Raw: val}
	case FieldPerStudentRate:
		v.PerStudentRate = Amount{Raw: val}
	}
}

// text renders a loosely typed source value as a string field.
func text(val any) string {
	switch t := val.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// Amount is a numeric field kept exactly as it arrived: nil, a number,
// or a string. Float coerces it for arithmetic.
type Amount struct {
	Raw any
}

// Num returns an Amount holding a number.
func Num(f float64) Amount { return Amount{Raw: f} }

// IsNull reports whether the value was absent or null.
func (a Amount) IsNull() bool { return a.Raw == nil }

// Float returns the numeric value. Null, empty, non-numeric and
// non-finite values are 0.
func (a Amount) Float() float64 {
	var f float64
	switch v := a.Raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case int32:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// String renders the raw value for display; null is empty.
func (a Amount) String() string {
	return text(a.Raw)
}

// MarshalJSON writes the raw value back unchanged.
func (a Amount) MarshalJSON() ([]byte, error) {
	switch v := a.Raw.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return []byte("null"), nil
		}
	}
	return json.Marshal(a.Raw)
}

// UnmarshalJSON keeps whatever JSON value was supplied.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding amount: %w", err)
	}
	a.Raw = raw
	return nil
}
