package store

import (
	"time"

	"github.com/relaylabs/relay/internal/nemsis"
)

type CaseStatus string

const (
	CaseStatusActive    CaseStatus = "active"
	CaseStatusCompleted CaseStatus = "completed"
)

type Case struct {
	ID                string
	Status            CaseStatus
	CoreInfoComplete  bool
	Record            *nemsis.Record
	GPResponse        *string
	MedicalDBResponse *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type TranscriptSegment struct {
	ID           string
	CaseID       string
	Content      string
	SegmentIndex int
	SpokenAt     time.Time
	CreatedAt    time.Time
}
