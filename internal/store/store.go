package store

import (
	"context"
	"time"

	"github.com/relaylabs/relay/internal/nemsis"
)

type CreateCaseInput struct {
	CaseID    string
	CreatedAt time.Time
}

type AppendTranscriptInput struct {
	CaseID       string
	Content      string
	SegmentIndex int
	SpokenAt     time.Time
}

// UpdateRecordInput writes the merged record and the completeness flag in
// one statement so a reader never observes one without the other.
type UpdateRecordInput struct {
	CaseID           string
	Record           *nemsis.Record
	CoreInfoComplete bool
}

type SaveDownstreamResultsInput struct {
	CaseID            string
	GPResponse        string
	MedicalDBResponse string
}

type CaseRepository interface {
	CreateCase(ctx context.Context, input CreateCaseInput) (*Case, error)
	// GetCase returns (nil, nil) when no case exists with the given ID.
	GetCase(ctx context.Context, caseID string) (*Case, error)
	ListActiveCases(ctx context.Context) ([]Case, error)
	UpdateRecord(ctx context.Context, input UpdateRecordInput) error
	UpdateStatus(ctx context.Context, caseID string, status CaseStatus) error
	SaveDownstreamResults(ctx context.Context, input SaveDownstreamResultsInput) error
}

type TranscriptRepository interface {
	AppendTranscript(ctx context.Context, input AppendTranscriptInput) error
	ListTranscripts(ctx context.Context, caseID string) ([]TranscriptSegment, error)
}

type CaseStore interface {
	CaseRepository
	TranscriptRepository
}
