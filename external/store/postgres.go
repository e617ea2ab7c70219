package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/relaylabs/relay/internal/nemsis"
	"github.com/relaylabs/relay/internal/store"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) store.CaseStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) CreateCase(ctx context.Context, input store.CreateCaseInput) (*store.Case, error) {
	record := nemsis.NewRecord()
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO cases (id, status, nemsis_data, created_at)
		 VALUES ($1, 'active', $2, $3)
		 RETURNING id, status, core_info_complete, created_at, updated_at`,
		input.CaseID, data, input.CreatedAt)
	var c store.Case
	if err := row.Scan(&c.ID, &c.Status, &c.CoreInfoComplete, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Record = record
	return &c, nil
}

func (s *PostgresStore) GetCase(ctx context.Context, caseID string) (*store.Case, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, status, core_info_complete, nemsis_data, gp_response, medical_db_response, created_at, updated_at
		 FROM cases WHERE id = $1`,
		caseID)
	c, err := scanCase(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (s *PostgresStore) ListActiveCases(ctx context.Context) ([]store.Case, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, status, core_info_complete, nemsis_data, gp_response, medical_db_response, created_at, updated_at
		 FROM cases WHERE status = 'active' ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []store.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *c)
	}
	return list, rows.Err()
}

func (s *PostgresStore) UpdateRecord(ctx context.Context, input store.UpdateRecordInput) error {
	data, err := json.Marshal(input.Record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`UPDATE cases SET nemsis_data = $2, core_info_complete = $3, updated_at = NOW() WHERE id = $1`,
		input.CaseID, data, input.CoreInfoComplete)
	return err
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, caseID string, status store.CaseStatus) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE cases SET status = $2, updated_at = NOW() WHERE id = $1`,
		caseID, status)
	return err
}

func (s *PostgresStore) SaveDownstreamResults(ctx context.Context, input store.SaveDownstreamResultsInput) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE cases SET gp_response = $2, medical_db_response = $3, updated_at = NOW() WHERE id = $1`,
		input.CaseID, input.GPResponse, input.MedicalDBResponse)
	return err
}

func (s *PostgresStore) AppendTranscript(ctx context.Context, input store.AppendTranscriptInput) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO transcripts (case_id, content, segment_index, spoken_at)
		 VALUES ($1, $2, $3, $4)`,
		input.CaseID, input.Content, input.SegmentIndex, input.SpokenAt)
	return err
}

func (s *PostgresStore) ListTranscripts(ctx context.Context, caseID string) ([]store.TranscriptSegment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, case_id, content, segment_index, spoken_at, created_at
		 FROM transcripts WHERE case_id = $1 ORDER BY segment_index ASC`,
		caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []store.TranscriptSegment
	for rows.Next() {
		var seg store.TranscriptSegment
		if err := rows.Scan(&seg.ID, &seg.CaseID, &seg.Content, &seg.SegmentIndex, &seg.SpokenAt, &seg.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, seg)
	}
	return list, rows.Err()
}

func scanCase(row pgx.Row) (*store.Case, error) {
	var c store.Case
	var data []byte
	if err := row.Scan(&c.ID, &c.Status, &c.CoreInfoComplete, &data, &c.GPResponse, &c.MedicalDBResponse, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	record := nemsis.NewRecord()
	if err := json.Unmarshal(data, record); err != nil {
		return nil, fmt.Errorf("unmarshal record for case %s: %w", c.ID, err)
	}
	c.Record = record
	return &c, nil
}
