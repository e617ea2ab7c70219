package nemsis

// Merge combines a newly extracted record into the existing authoritative
// one. Scalar fields are monotonic: a non-nil existing value always wins,
// even over a conflicting new value. List fields are unioned preserving
// first-seen order with no duplicates. Neither input is mutated.
func Merge(existing, extracted *Record) *Record {
	if existing == nil {
		existing = NewRecord()
	}
	if extracted == nil {
		return existing.Clone()
	}
	out := existing.Clone()

	mergeStr(&out.Patient.NameFirst, extracted.Patient.NameFirst)
	mergeStr(&out.Patient.NameLast, extracted.Patient.NameLast)
	mergeStr(&out.Patient.Age, extracted.Patient.Age)
	mergeStr(&out.Patient.Gender, extracted.Patient.Gender)
	mergeStr(&out.Patient.Address, extracted.Patient.Address)
	mergeStr(&out.Patient.City, extracted.Patient.City)
	mergeStr(&out.Patient.State, extracted.Patient.State)
	mergeStr(&out.Patient.Zip, extracted.Patient.Zip)

	mergeInt(&out.Vitals.SystolicBP, extracted.Vitals.SystolicBP)
	mergeInt(&out.Vitals.DiastolicBP, extracted.Vitals.DiastolicBP)
	mergeInt(&out.Vitals.HeartRate, extracted.Vitals.HeartRate)
	mergeInt(&out.Vitals.RespiratoryRate, extracted.Vitals.RespiratoryRate)
	mergeInt(&out.Vitals.SpO2, extracted.Vitals.SpO2)
	mergeFloat(&out.Vitals.BloodGlucose, extracted.Vitals.BloodGlucose)
	mergeInt(&out.Vitals.GCSTotal, extracted.Vitals.GCSTotal)

	mergeStr(&out.Situation.ChiefComplaint, extracted.Situation.ChiefComplaint)
	mergeStr(&out.Situation.PrimaryImpression, extracted.Situation.PrimaryImpression)

	out.Procedures.Procedures = unionOrdered(out.Procedures.Procedures, extracted.Procedures.Procedures)
	out.Medications.Medications = unionOrdered(out.Medications.Medications, extracted.Medications.Medications)

	return out
}

func mergeStr(dst **string, src *string) {
	if *dst == nil && src != nil {
		c := *src
		*dst = &c
	}
}

func mergeInt(dst **int, src *int) {
	if *dst == nil && src != nil {
		c := *src
		*dst = &c
	}
}

func mergeFloat(dst **float64, src *float64) {
	if *dst == nil && src != nil {
		c := *src
		*dst = &c
	}
}

func unionOrdered(existing, incoming []string) []string {
	seen := make(map[string]struct{}, len(existing))
	out := make([]string, 0, len(existing)+len(incoming))
	for _, v := range existing {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	for _, v := range incoming {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
