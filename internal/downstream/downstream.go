package downstream

import (
	"context"
	"errors"
)

// ErrNotConfigured signals that a lookup source has no credential and
// returned a stub rather than a real result. It maps to a degraded result,
// never to a dispatch failure.
var ErrNotConfigured = errors.New("downstream source not configured")

// Identity carries the demographic fields the lookup sources key on. It is
// built from a record snapshot once core info is complete, so every field is
// populated except possibly the name parts.
type Identity struct {
	FullName  string
	FirstName string
	LastName  string
	Age       string
	Gender    string
	Address   string
}

type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusError    Status = "error"
)

type Result struct {
	Status Status
	Detail string
}

// GPRecordSource contacts the patient's registered GP practice and returns
// a summary of their records.
type GPRecordSource interface {
	FetchRecords(ctx context.Context, patient Identity) (string, error)
}

// MedicalHistorySource queries the shared medical history database.
type MedicalHistorySource interface {
	QueryHistory(ctx context.Context, patient Identity) (string, error)
}
