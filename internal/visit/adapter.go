package visit

import "sort"

// Source key names as written by the sales and placement forms.
var sourceKeys = map[Category]map[string]string{
	Sales: {
		FieldVisitCode:          "Visit Code",
		FieldOrganization:       "College Name",
		FieldCity:               "City",
		FieldState:              "State",
		FieldVisitPhase:         "Visit Phase",
		FieldDateTime:           "dateandtime",
		FieldContactName:        "Point of Contact Name",
		FieldContactDesignation: "Point of Contact Designation",
		FieldContactNumber:      "Point of Contact Number",
		FieldContactEmail:       "Point of Contact Email",
		FieldRepresentative:     "Sales Rep",
		FieldVisitPurpose:       "Visit Purpose",
		FieldCourses:            "Courses",
		FieldStudentCount:       "Student Count",
		FieldTotalContractValue: "Total Contract Value",
		FieldPerStudentRate:     "Per Student Rate",
	},
	Placement: {
		FieldVisitCode:          "visitCode",
		FieldOrganization:       "companyName",
		FieldCity:               "city",
		FieldState:              "state",
		FieldVisitPhase:         "visitPhase",
		FieldDateTime:           "dateandtime",
		FieldContactName:        "clientName",
		FieldContactDesignation: "clientDesignation",
		FieldContactNumber:      "clientContact",
		FieldContactEmail:       "clientEmail",
		FieldRepresentative:     "crRep",
		FieldVisitPurpose:       "visitPurpose",
		FieldCourses:            "courses",
	},
}

// SourceKey returns the external key for a canonical field in category c.
func SourceKey(c Category, field string) (string, bool) {
	k, ok := sourceKeys[c][field]
	return k, ok
}

// canonicalFor maps an external key of category c back to its canonical name.
func canonicalFor(c Category, key string) (string, bool) {
	for canon, k := range sourceKeys[c] {
		if k == key {
			return canon, true
		}
	}
	return "", false
}

// FromRaw builds a Visit from a flat source record. Keys the category does
// not map are kept in Extra untouched. An empty id falls back to the visit code.
func FromRaw(c Category, id string, raw map[string]any) Visit {
	v := Visit{ID: id, Category: c}
	keys := sourceKeys[c]
	known := make(map[string]bool, len(keys))
	for canon, key := range keys {
		known[key] = true
		if val, ok := raw[key]; ok {
			v.setCanonical(canon, val)
		}
	}
	for key, val := range raw {
		if known[key] {
			continue
		}
		if v.Extra == nil {
			v.Extra = make(map[string]any)
		}
		v.Extra[key] = val
	}
	if v.ID == "" {
		v.ID = v.VisitCode
	}
	return v
}

// ToRaw flattens v into its category's source shape. Extra keys are written
// first so mapped fields win on collision.
func ToRaw(v Visit) map[string]any {
	raw := make(map[string]any, len(v.Extra)+len(Fields))
	for k, val := range v.Extra {
		raw[k] = val
	}
	for canon, key := range sourceKeys[v.Category] {
		val, _ := v.canonical(canon)
		raw[key] = val
	}
	return raw
}

// ExtraKeys returns the sorted union of Extra keys across visits.
func ExtraKeys(visits []Visit) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, v := range visits {
		for k := range v.Extra {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}
