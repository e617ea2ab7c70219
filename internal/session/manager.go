package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/relaylabs/relay/internal/config"
	"github.com/relaylabs/relay/internal/downstream"
	"github.com/relaylabs/relay/internal/eventbus"
	"github.com/relaylabs/relay/internal/extract"
	"github.com/relaylabs/relay/internal/nemsis"
	"github.com/relaylabs/relay/internal/store"
	"github.com/relaylabs/relay/internal/transcriber"
)

// committedQueueSize is the fallback committed-segment queue capacity when
// no event queue size is configured.
const committedQueueSize = 32

var (
	ErrCaseNotFound  = errors.New("case not found")
	ErrStreamActive  = errors.New("stream already active for case")
	ErrCaseCompleted = errors.New("case already completed")
)

// gateState tracks whether downstream dispatch has fired for a case. The
// transition incomplete -> pending -> dispatched happens inside the case's
// single worker goroutine, so dispatch can fire at most once per case even
// though completeness stays true for every later merge.
type gateState int

const (
	gateIncomplete gateState = iota
	gatePending
	gateDispatched
)

type liveCase struct {
	id           string
	record       *nemsis.Record
	gate         gateState
	segmentIndex int
	stream       *transcriber.Session
	queue        chan string
	workerDone   chan struct{}
	// stopping marks a drain in progress: the stream fields stay set until
	// the worker has exited, so no new worker can start mid-drain.
	stopping bool
}

// Manager owns the live cases: one record, one optional audio stream and
// one worker goroutine per case. All committed-segment processing for a
// case is serialized through its worker.
type Manager struct {
	cfg        *config.Config
	store      store.CaseStore
	transport  transcriber.Transport
	extractor  extract.Extractor
	dispatcher *downstream.Dispatcher
	bus        *eventbus.Bus

	mu    sync.Mutex
	cases map[string]*liveCase
}

func NewManager(cfg *config.Config, st store.CaseStore, transport transcriber.Transport, ex extract.Extractor, disp *downstream.Dispatcher, bus *eventbus.Bus) *Manager {
	return &Manager{
		cfg:        cfg,
		store:      st,
		transport:  transport,
		extractor:  ex,
		dispatcher: disp,
		bus:        bus,
		cases:      make(map[string]*liveCase),
	}
}

// CreateCase persists a new active case with an empty record and registers
// it in memory.
func (m *Manager) CreateCase(ctx context.Context) (*store.Case, error) {
	caseID := uuid.NewString()
	created, err := m.store.CreateCase(ctx, store.CreateCaseInput{
		CaseID:    caseID,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("create case: %w", err)
	}

	m.mu.Lock()
	m.cases[caseID] = &liveCase{
		id:     caseID,
		record: created.Record,
	}
	m.mu.Unlock()

	slog.Info("case created", "case_id", caseID)
	m.bus.Publish(caseID, eventbus.Event{
		Type: eventbus.TypeCaseCreated,
		Data: map[string]any{"status": created.Status},
	})
	return created, nil
}

func (m *Manager) GetCase(ctx context.Context, caseID string) (*store.Case, error) {
	return m.store.GetCase(ctx, caseID)
}

func (m *Manager) ListActiveCases(ctx context.Context) ([]store.Case, error) {
	return m.store.ListActiveCases(ctx)
}

func (m *Manager) ListTranscripts(ctx context.Context, caseID string) ([]store.TranscriptSegment, error) {
	return m.store.ListTranscripts(ctx, caseID)
}

// StartStream attaches a live transcription stream to a case and starts its
// worker. A case not held in memory is reloaded from the store, so a stream
// can reattach after a process restart.
func (m *Manager) StartStream(ctx context.Context, caseID string) error {
	m.mu.Lock()
	lc, ok := m.cases[caseID]
	m.mu.Unlock()

	if !ok {
		stored, err := m.store.GetCase(ctx, caseID)
		if err != nil {
			return fmt.Errorf("load case: %w", err)
		}
		if stored == nil {
			return ErrCaseNotFound
		}
		if stored.Status == store.CaseStatusCompleted {
			return ErrCaseCompleted
		}
		lc = &liveCase{
			id:     caseID,
			record: stored.Record,
		}
		// A restart after dispatch must not re-trigger downstream.
		if stored.CoreInfoComplete {
			lc.gate = gateDispatched
		}
		// Segment numbering continues where the persisted transcript ends,
		// keeping (case_id, segment_index) unique across restarts.
		segments, err := m.store.ListTranscripts(ctx, caseID)
		if err != nil {
			return fmt.Errorf("load transcripts: %w", err)
		}
		for _, seg := range segments {
			if seg.SegmentIndex > lc.segmentIndex {
				lc.segmentIndex = seg.SegmentIndex
			}
		}
		m.mu.Lock()
		if existing, raced := m.cases[caseID]; raced {
			lc = existing
		} else {
			m.cases[caseID] = lc
		}
		m.mu.Unlock()
	}

	m.mu.Lock()
	if lc.stream != nil || lc.stopping {
		m.mu.Unlock()
		return ErrStreamActive
	}
	queueSize := m.cfg.EventQueueSize
	if queueSize <= 0 {
		queueSize = committedQueueSize
	}
	queue := make(chan string, queueSize)
	done := make(chan struct{})
	lc.queue = queue
	lc.workerDone = done

	stream := transcriber.NewSession(caseID, m.transport, transcriber.Callbacks{
		OnPartial: func(text string) {
			m.bus.Publish(caseID, eventbus.Event{
				Type: eventbus.TypeTranscriptPartial,
				Data: map[string]any{"text": text},
			})
		},
		OnCommitted: func(text string) {
			select {
			case queue <- text:
			default:
				slog.Error("committed segment queue full; segment dropped", "case_id", caseID)
			}
		},
	})
	lc.stream = stream
	m.mu.Unlock()

	go m.runWorker(lc, queue, done)
	stream.Start(ctx)
	slog.Info("stream attached", "case_id", caseID, "transcription", m.transport.Available())
	return nil
}

// SendAudio forwards an audio chunk to the case's live stream. Chunks for
// unknown cases or cases without a stream are dropped.
func (m *Manager) SendAudio(caseID string, chunk []byte) {
	m.mu.Lock()
	lc, ok := m.cases[caseID]
	var stream *transcriber.Session
	if ok {
		stream = lc.stream
	}
	m.mu.Unlock()
	if stream == nil {
		return
	}
	stream.SendAudio(chunk)
}

// StopStream detaches the live stream from a case. It returns after the
// worker has drained every committed segment already received, so the
// persisted record reflects the full stream. The stream fields are cleared
// only once the worker has exited: until then StartStream keeps rejecting
// the case, so two workers can never mutate one case's record.
func (m *Manager) StopStream(caseID string) {
	m.mu.Lock()
	lc, ok := m.cases[caseID]
	if !ok {
		m.mu.Unlock()
		return
	}
	if lc.stopping {
		// Another caller is draining this case; wait for its worker.
		done := lc.workerDone
		m.mu.Unlock()
		if done != nil {
			<-done
		}
		return
	}
	if lc.stream == nil {
		m.mu.Unlock()
		return
	}
	lc.stopping = true
	stream := lc.stream
	queue := lc.queue
	done := lc.workerDone
	m.mu.Unlock()

	// Stop joins the listener, so no further segment can be enqueued.
	stream.Stop()
	close(queue)
	<-done

	m.mu.Lock()
	lc.stream = nil
	lc.queue = nil
	lc.workerDone = nil
	lc.stopping = false
	m.mu.Unlock()
	slog.Info("stream detached", "case_id", caseID)
}

// CompleteCase stops any live stream, marks the case completed and drops it
// from memory.
func (m *Manager) CompleteCase(ctx context.Context, caseID string) error {
	stored, err := m.store.GetCase(ctx, caseID)
	if err != nil {
		return fmt.Errorf("load case: %w", err)
	}
	if stored == nil {
		return ErrCaseNotFound
	}

	m.StopStream(caseID)
	if err := m.store.UpdateStatus(ctx, caseID, store.CaseStatusCompleted); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	m.mu.Lock()
	delete(m.cases, caseID)
	m.mu.Unlock()

	slog.Info("case completed", "case_id", caseID)
	m.bus.Publish(caseID, eventbus.Event{
		Type: eventbus.TypeCaseStatus,
		Data: map[string]any{"status": store.CaseStatusCompleted},
	})
	return nil
}

// StopAll detaches every live stream. Called on shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.cases))
	for id := range m.cases {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	for _, id := range ids {
		m.StopStream(id)
	}
}

func (m *Manager) runWorker(lc *liveCase, queue <-chan string, done chan<- struct{}) {
	defer close(done)
	for text := range queue {
		m.handleCommitted(lc, text)
	}
}

// handleCommitted runs on the case's worker goroutine: persist the segment,
// merge the extraction into the record, persist record and completeness
// flag together, then publish. The gate moves to pending at most once, on
// the merge that first makes core info complete.
func (m *Manager) handleCommitted(lc *liveCase, text string) {
	ctx := context.Background()

	lc.segmentIndex++
	if err := m.store.AppendTranscript(ctx, store.AppendTranscriptInput{
		CaseID:       lc.id,
		Content:      text,
		SegmentIndex: lc.segmentIndex,
		SpokenAt:     time.Now(),
	}); err != nil {
		slog.Error("failed to persist transcript segment", "error", err, "case_id", lc.id)
	}
	m.bus.Publish(lc.id, eventbus.Event{
		Type: eventbus.TypeTranscriptCommitted,
		Data: map[string]any{"text": text},
	})

	merged, err := m.extractor.Extract(ctx, text, lc.record)
	if err != nil {
		slog.Error("extraction failed; record unchanged", "error", err, "case_id", lc.id)
		return
	}
	lc.record = merged

	if lc.gate == gateIncomplete && nemsis.IsCoreInfoComplete(merged) {
		lc.gate = gatePending
		slog.Info("core info complete", "case_id", lc.id, "patient", nemsis.FullName(merged))
	}

	if err := m.store.UpdateRecord(ctx, store.UpdateRecordInput{
		CaseID:           lc.id,
		Record:           merged,
		CoreInfoComplete: lc.gate != gateIncomplete,
	}); err != nil {
		slog.Error("failed to persist record", "error", err, "case_id", lc.id)
	}
	m.bus.Publish(lc.id, eventbus.Event{
		Type: eventbus.TypeNEMSISUpdate,
		Data: map[string]any{
			"record":             merged.Clone(),
			"core_info_complete": lc.gate != gateIncomplete,
		},
	})

	if lc.gate == gatePending {
		lc.gate = gateDispatched
		go m.dispatch(lc.id, identityFromRecord(merged))
	}
}

func (m *Manager) dispatch(caseID string, patient downstream.Identity) {
	slog.Info("downstream dispatch triggered", "case_id", caseID, "patient", patient.FullName)
	results := m.dispatcher.Trigger(context.Background(), patient)

	if err := m.store.SaveDownstreamResults(context.Background(), store.SaveDownstreamResultsInput{
		CaseID:            caseID,
		GPResponse:        results.GP.Detail,
		MedicalDBResponse: results.MedicalDB.Detail,
	}); err != nil {
		slog.Error("failed to persist downstream results", "error", err, "case_id", caseID)
	}

	m.bus.Publish(caseID, eventbus.Event{
		Type: eventbus.TypeDownstreamComplete,
		Data: map[string]any{
			"gp_status":         results.GP.Status,
			"gp_detail":         results.GP.Detail,
			"medical_db_status": results.MedicalDB.Status,
			"medical_db_detail": results.MedicalDB.Detail,
		},
	})
}

func identityFromRecord(r *nemsis.Record) downstream.Identity {
	id := downstream.Identity{FullName: nemsis.FullName(r)}
	if r.Patient.NameFirst != nil {
		id.FirstName = *r.Patient.NameFirst
	}
	if r.Patient.NameLast != nil {
		id.LastName = *r.Patient.NameLast
	}
	if r.Patient.Age != nil {
		id.Age = *r.Patient.Age
	}
	if r.Patient.Gender != nil {
		id.Gender = *r.Patient.Gender
	}
	if r.Patient.Address != nil {
		id.Address = *r.Patient.Address
	}
	return id
}
