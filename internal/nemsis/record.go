package nemsis

// Record is the NEMSIS-shaped clinical record built incrementally from the
// live transcript. Every scalar field is a pointer: nil means "not yet
// known", never "known to be empty".
type Record struct {
	Patient     PatientInfo `json:"patient"`
	Vitals      Vitals      `json:"vitals"`
	Situation   Situation   `json:"situation"`
	Procedures  Procedures  `json:"procedures"`
	Medications Medications `json:"medications"`
}

type PatientInfo struct {
	NameFirst *string `json:"patient_name_first"`
	NameLast  *string `json:"patient_name_last"`
	Age       *string `json:"patient_age"`
	Gender    *string `json:"patient_gender"`
	Address   *string `json:"patient_address"`
	City      *string `json:"patient_city"`
	State     *string `json:"patient_state"`
	Zip       *string `json:"patient_zip"`
}

type Vitals struct {
	SystolicBP      *int     `json:"systolic_bp"`
	DiastolicBP     *int     `json:"diastolic_bp"`
	HeartRate       *int     `json:"heart_rate"`
	RespiratoryRate *int     `json:"respiratory_rate"`
	SpO2            *int     `json:"spo2"`
	BloodGlucose    *float64 `json:"blood_glucose"`
	GCSTotal        *int     `json:"gcs_total"`
}

type Situation struct {
	ChiefComplaint    *string `json:"chief_complaint"`
	PrimaryImpression *string `json:"primary_impression"`
}

type Procedures struct {
	Procedures []string `json:"procedures"`
}

type Medications struct {
	Medications []string `json:"medications"`
}

// NewRecord returns an empty record with independent list instances.
func NewRecord() *Record {
	return &Record{
		Procedures:  Procedures{Procedures: []string{}},
		Medications: Medications{Medications: []string{}},
	}
}

// Clone returns a deep copy. Pointer fields are re-allocated so mutating the
// copy never leaks into the original.
func (r *Record) Clone() *Record {
	if r == nil {
		return NewRecord()
	}
	out := &Record{
		Patient: PatientInfo{
			NameFirst: cloneStr(r.Patient.NameFirst),
			NameLast:  cloneStr(r.Patient.NameLast),
			Age:       cloneStr(r.Patient.Age),
			Gender:    cloneStr(r.Patient.Gender),
			Address:   cloneStr(r.Patient.Address),
			City:      cloneStr(r.Patient.City),
			State:     cloneStr(r.Patient.State),
			Zip:       cloneStr(r.Patient.Zip),
		},
		Vitals: Vitals{
			SystolicBP:      cloneInt(r.Vitals.SystolicBP),
			DiastolicBP:     cloneInt(r.Vitals.DiastolicBP),
			HeartRate:       cloneInt(r.Vitals.HeartRate),
			RespiratoryRate: cloneInt(r.Vitals.RespiratoryRate),
			SpO2:            cloneInt(r.Vitals.SpO2),
			BloodGlucose:    cloneFloat(r.Vitals.BloodGlucose),
			GCSTotal:        cloneInt(r.Vitals.GCSTotal),
		},
		Situation: Situation{
			ChiefComplaint:    cloneStr(r.Situation.ChiefComplaint),
			PrimaryImpression: cloneStr(r.Situation.PrimaryImpression),
		},
		Procedures:  Procedures{Procedures: append([]string{}, r.Procedures.Procedures...)},
		Medications: Medications{Medications: append([]string{}, r.Medications.Medications...)},
	}
	return out
}

func cloneStr(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Str is a convenience for building records from literals.
func Str(v string) *string { return &v }

// Int is a convenience for building records from literals.
func Int(v int) *int { return &v }

// Float is a convenience for building records from literals.
func Float(v float64) *float64 { return &v }
