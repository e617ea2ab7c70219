package nemsis

import "testing"

func completePatient() PatientInfo {
	return PatientInfo{
		NameFirst: Str("John"),
		Address:   Str("123 Main St"),
		Age:       Str("45"),
		Gender:    Str("Male"),
	}
}

func TestIsCoreInfoComplete_AllPresent(t *testing.T) {
	r := NewRecord()
	r.Patient = completePatient()
	if !IsCoreInfoComplete(r) {
		t.Fatal("expected record to be complete")
	}
}

func TestIsCoreInfoComplete_LastNameAlsoCounts(t *testing.T) {
	r := NewRecord()
	r.Patient = completePatient()
	r.Patient.NameFirst = nil
	r.Patient.NameLast = Str("Smith")
	if !IsCoreInfoComplete(r) {
		t.Fatal("expected last name alone to satisfy the name requirement")
	}
}

func TestIsCoreInfoComplete_MissingFields(t *testing.T) {
	cases := map[string]func(*PatientInfo){
		"name":    func(p *PatientInfo) { p.NameFirst = nil },
		"address": func(p *PatientInfo) { p.Address = nil },
		"age":     func(p *PatientInfo) { p.Age = nil },
		"gender":  func(p *PatientInfo) { p.Gender = nil },
	}
	for name, clear := range cases {
		r := NewRecord()
		r.Patient = completePatient()
		clear(&r.Patient)
		if IsCoreInfoComplete(r) {
			t.Fatalf("expected record missing %s to be incomplete", name)
		}
	}
}

func TestIsCoreInfoComplete_BlankCountsAsMissing(t *testing.T) {
	r := NewRecord()
	r.Patient = completePatient()
	r.Patient.Address = Str("   ")
	if IsCoreInfoComplete(r) {
		t.Fatal("expected whitespace-only address to count as missing")
	}
}

func TestIsCoreInfoComplete_EmptyRecord(t *testing.T) {
	if IsCoreInfoComplete(NewRecord()) {
		t.Fatal("expected empty record to be incomplete")
	}
	if IsCoreInfoComplete(nil) {
		t.Fatal("expected nil record to be incomplete")
	}
}

func TestFullName(t *testing.T) {
	tests := []struct {
		first, last string
		want        string
	}{
		{"John", "Smith", "John Smith"},
		{"John", "", "John"},
		{"", "Smith", "Smith"},
		{"", "", "Unknown"},
	}
	for _, tt := range tests {
		r := NewRecord()
		if tt.first != "" {
			r.Patient.NameFirst = Str(tt.first)
		}
		if tt.last != "" {
			r.Patient.NameLast = Str(tt.last)
		}
		if got := FullName(r); got != tt.want {
			t.Fatalf("FullName(first=%q, last=%q) = %q, want %q", tt.first, tt.last, got, tt.want)
		}
	}
}

func TestFullName_NilRecord(t *testing.T) {
	if got := FullName(nil); got != "Unknown" {
		t.Fatalf("unexpected full name for nil record: %q", got)
	}
}
