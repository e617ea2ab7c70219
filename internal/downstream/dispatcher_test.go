package downstream

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeGP struct {
	detail string
	err    error
	delay  time.Duration
}

func (f *fakeGP) FetchRecords(ctx context.Context, _ Identity) (string, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.detail, f.err
}

type fakeHistory struct {
	detail string
	err    error
	panics bool
}

func (f *fakeHistory) QueryHistory(_ context.Context, _ Identity) (string, error) {
	if f.panics {
		panic("history source blew up")
	}
	return f.detail, f.err
}

func TestDispatcher_BothBranchesSucceed(t *testing.T) {
	d := NewDispatcher(
		&fakeGP{detail: "records from gp"},
		&fakeHistory{detail: "two prior admissions"},
		time.Second,
	)
	results := d.Trigger(context.Background(), Identity{FullName: "John Smith"})
	if results.GP.Status != StatusOK || results.GP.Detail != "records from gp" {
		t.Fatalf("unexpected gp result: %+v", results.GP)
	}
	if results.MedicalDB.Status != StatusOK || results.MedicalDB.Detail != "two prior admissions" {
		t.Fatalf("unexpected medical db result: %+v", results.MedicalDB)
	}
}

func TestDispatcher_BranchesAreIndependent(t *testing.T) {
	d := NewDispatcher(
		&fakeGP{err: errors.New("call failed")},
		&fakeHistory{detail: "clean history"},
		time.Second,
	)
	results := d.Trigger(context.Background(), Identity{})
	if results.GP.Status != StatusError {
		t.Fatalf("expected gp error status, got %+v", results.GP)
	}
	if results.MedicalDB.Status != StatusOK || results.MedicalDB.Detail != "clean history" {
		t.Fatalf("gp failure must not affect medical db branch: %+v", results.MedicalDB)
	}
}

func TestDispatcher_NotConfiguredMapsToDegraded(t *testing.T) {
	d := NewDispatcher(
		&fakeGP{detail: "[GP STUB] no credential", err: ErrNotConfigured},
		&fakeHistory{detail: "[MEDICAL DB STUB] no endpoint", err: ErrNotConfigured},
		time.Second,
	)
	results := d.Trigger(context.Background(), Identity{})
	if results.GP.Status != StatusDegraded || results.GP.Detail != "[GP STUB] no credential" {
		t.Fatalf("unexpected gp result: %+v", results.GP)
	}
	if results.MedicalDB.Status != StatusDegraded {
		t.Fatalf("unexpected medical db result: %+v", results.MedicalDB)
	}
}

func TestDispatcher_PanicInBranchIsContained(t *testing.T) {
	d := NewDispatcher(
		&fakeGP{detail: "fine"},
		&fakeHistory{panics: true},
		time.Second,
	)
	results := d.Trigger(context.Background(), Identity{})
	if results.MedicalDB.Status != StatusError {
		t.Fatalf("expected error status from panicking branch, got %+v", results.MedicalDB)
	}
	if results.GP.Status != StatusOK {
		t.Fatalf("panic must not affect the other branch: %+v", results.GP)
	}
}

func TestDispatcher_TimeoutBoundsSlowBranch(t *testing.T) {
	d := NewDispatcher(
		&fakeGP{detail: "never arrives", delay: 5 * time.Second},
		&fakeHistory{detail: "fast"},
		50*time.Millisecond,
	)
	start := time.Now()
	results := d.Trigger(context.Background(), Identity{})
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("trigger did not respect timeout, took %s", elapsed)
	}
	if results.GP.Status != StatusError {
		t.Fatalf("expected timed-out gp branch to report error, got %+v", results.GP)
	}
	if results.MedicalDB.Status != StatusOK {
		t.Fatalf("fast branch must still succeed: %+v", results.MedicalDB)
	}
}
