package extract

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/relaylabs/relay/internal/nemsis"
)

// RuleBased is the deterministic fallback extractor: pattern-based field
// recognition over the raw transcript text. Used when no LLM backend is
// configured, or for fully offline operation.
type RuleBased struct{}

func NewRuleBased() *RuleBased {
	return &RuleBased{}
}

func (e *RuleBased) Extract(_ context.Context, increment string, existing *nemsis.Record) (*nemsis.Record, error) {
	return nemsis.Merge(existing, e.parse(increment)), nil
}

var (
	nameRe       = regexp.MustCompile(`(?:named|name is)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`)
	ageRe        = regexp.MustCompile(`(?i)(\d{1,3})[ -]year[ -]old|(\d{1,3})\s+years?\s+old`)
	femaleRe     = regexp.MustCompile(`(?i)\bfemale\b`)
	maleRe       = regexp.MustCompile(`(?i)\bmale\b`)
	addressRe    = regexp.MustCompile(`(?i:located at|address is|lives at|residing at)\s+(\d+)((?:\s+[A-Z][a-z]+)+)`)
	bpRe         = regexp.MustCompile(`(?i)(?:blood pressure|\bbp\b)\D{0,20}(\d{2,3})\s*(?:over|/)\s*(\d{2,3})`)
	heartRateRe  = regexp.MustCompile(`(?i)(?:heart rate|pulse)\D{0,20}(\d{2,3})`)
	respRateRe   = regexp.MustCompile(`(?i)(?:respiratory rate|respirations)\D{0,20}(\d{1,2})`)
	spo2Re       = regexp.MustCompile(`(?i)(?:spo2|sp o2|o2 sat(?:uration)?|oxygen saturation)\D{0,20}(\d{2,3})`)
	glucoseRe    = regexp.MustCompile(`(?i)(?:blood glucose|blood sugar)\D{0,20}(\d+(?:\.\d+)?)`)
	gcsRe        = regexp.MustCompile(`(?i)(?:\bgcs\b|glasgow coma scale)\D{0,20}(\d{1,2})`)
	complaintRe  = regexp.MustCompile(`(?i)chief complaint(?:\s+is)?[:\s]+([^.!?\n]+)`)
	impressionRe = regexp.MustCompile(`(?i)primary impression(?:\s+is)?[:\s]+([^.!?\n]+)`)
	medicationRe = regexp.MustCompile(`(?i)\b(aspirin|nitroglycerin|epinephrine|adrenaline|morphine|fentanyl|naloxone|narcan|albuterol|amiodarone|atropine|midazolam|ondansetron|oral glucose)\b(?:\s*(\d+(?:\.\d+)?\s?(?:mg|mcg|g|ml|units?))\b)?`)
)

// procedurePatterns maps transcript phrases to canonical procedure labels,
// in recognition order.
var procedurePatterns = []struct {
	re    *regexp.Regexp
	label string
}{
	{regexp.MustCompile(`(?i)\biv access\b|\bintravenous access\b`), "IV access"},
	{regexp.MustCompile(`(?i)\b12[- ]lead\s+(?:ecg|ekg)\b`), "12-lead ECG"},
	{regexp.MustCompile(`(?i)catheterization lab|\bcath lab\b`), "Cath lab activation"},
	{regexp.MustCompile(`(?i)\bintubat`), "Intubation"},
	{regexp.MustCompile(`(?i)\bcpr\b|chest compressions`), "CPR"},
	{regexp.MustCompile(`(?i)\bdefibrillat`), "Defibrillation"},
	{regexp.MustCompile(`(?i)cervical collar|\bc[- ]collar\b`), "Cervical collar"},
	{regexp.MustCompile(`(?i)\bbackboard\b`), "Backboard"},
	{regexp.MustCompile(`(?i)\bsplint`), "Splinting"},
	{regexp.MustCompile(`(?i)nasal cannula|non[- ]rebreather|oxygen (?:via|administered|applied)`), "Oxygen administration"},
}

func (e *RuleBased) parse(text string) *nemsis.Record {
	r := nemsis.NewRecord()
	if strings.TrimSpace(text) == "" {
		return r
	}

	e.parsePatient(text, &r.Patient)
	e.parseVitals(text, &r.Vitals)
	e.parseSituation(text, &r.Situation)
	r.Procedures.Procedures = parseProcedures(text)
	r.Medications.Medications = parseMedications(text)
	return r
}

func (e *RuleBased) parsePatient(text string, p *nemsis.PatientInfo) {
	if m := nameRe.FindStringSubmatch(text); m != nil {
		words := strings.Fields(m[1])
		if len(words) == 1 {
			p.NameFirst = nemsis.Str(words[0])
		} else {
			p.NameFirst = nemsis.Str(strings.Join(words[:len(words)-1], " "))
			p.NameLast = nemsis.Str(words[len(words)-1])
		}
	}
	if m := ageRe.FindStringSubmatch(text); m != nil {
		age := m[1]
		if age == "" {
			age = m[2]
		}
		p.Age = nemsis.Str(age)
	}
	if femaleRe.MatchString(text) {
		p.Gender = nemsis.Str("Female")
	} else if maleRe.MatchString(text) {
		p.Gender = nemsis.Str("Male")
	}
	if m := addressRe.FindStringSubmatch(text); m != nil {
		words := strings.Fields(m[2])
		street := len(words)
		if street > 2 {
			street = 2
		}
		p.Address = nemsis.Str(m[1] + " " + strings.Join(words[:street], " "))
		if len(words) > 2 {
			p.City = nemsis.Str(words[2])
		}
		if len(words) > 3 {
			p.State = nemsis.Str(words[3])
		}
	}
}

func (e *RuleBased) parseVitals(text string, v *nemsis.Vitals) {
	if m := bpRe.FindStringSubmatch(text); m != nil {
		v.SystolicBP = atoiPtr(m[1])
		v.DiastolicBP = atoiPtr(m[2])
	}
	if m := heartRateRe.FindStringSubmatch(text); m != nil {
		v.HeartRate = atoiPtr(m[1])
	}
	if m := respRateRe.FindStringSubmatch(text); m != nil {
		v.RespiratoryRate = atoiPtr(m[1])
	}
	if m := spo2Re.FindStringSubmatch(text); m != nil {
		v.SpO2 = atoiPtr(m[1])
	}
	if m := glucoseRe.FindStringSubmatch(text); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			v.BloodGlucose = nemsis.Float(f)
		}
	}
	if m := gcsRe.FindStringSubmatch(text); m != nil {
		v.GCSTotal = atoiPtr(m[1])
	}
}

func (e *RuleBased) parseSituation(text string, s *nemsis.Situation) {
	if m := complaintRe.FindStringSubmatch(text); m != nil {
		s.ChiefComplaint = nemsis.Str(strings.TrimSpace(m[1]))
	}
	if m := impressionRe.FindStringSubmatch(text); m != nil {
		s.PrimaryImpression = nemsis.Str(strings.TrimSpace(m[1]))
	}
}

func parseProcedures(text string) []string {
	out := []string{}
	for _, p := range procedurePatterns {
		if p.re.MatchString(text) {
			out = append(out, p.label)
		}
	}
	return out
}

func parseMedications(text string) []string {
	out := []string{}
	seen := map[string]struct{}{}
	for _, m := range medicationRe.FindAllStringSubmatch(text, -1) {
		name := strings.ToLower(m[1])
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		label := strings.ToUpper(name[:1]) + name[1:]
		if dose := strings.TrimSpace(m[2]); dose != "" {
			label += " " + dose
		}
		out = append(out, label)
	}
	return out
}

func atoiPtr(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return nemsis.Int(n)
}
