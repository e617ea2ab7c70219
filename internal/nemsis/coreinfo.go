package nemsis

import "strings"

// IsCoreInfoComplete reports whether the record carries the minimum
// identifying field set needed to trigger downstream record lookups:
// at least one name part, plus address, age and gender.
func IsCoreInfoComplete(r *Record) bool {
	if r == nil {
		return false
	}
	p := r.Patient
	hasName := present(p.NameFirst) || present(p.NameLast)
	return hasName && present(p.Address) && present(p.Age) && present(p.Gender)
}

// FullName joins whichever name parts exist with a single space.
// Returns "Unknown" when neither part is known.
func FullName(r *Record) string {
	if r == nil {
		return "Unknown"
	}
	parts := make([]string, 0, 2)
	if present(r.Patient.NameFirst) {
		parts = append(parts, strings.TrimSpace(*r.Patient.NameFirst))
	}
	if present(r.Patient.NameLast) {
		parts = append(parts, strings.TrimSpace(*r.Patient.NameLast))
	}
	if len(parts) == 0 {
		return "Unknown"
	}
	return strings.Join(parts, " ")
}

func present(v *string) bool {
	return v != nil && strings.TrimSpace(*v) != ""
}
