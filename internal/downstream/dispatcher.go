package downstream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Results holds the outcome of both lookup branches. A failed branch is
// reported in its own slot and never hides the other branch's result.
type Results struct {
	GP        Result
	MedicalDB Result
}

// Dispatcher runs the GP and medical-history lookups for a case. The two
// branches run concurrently and independently.
type Dispatcher struct {
	gp      GPRecordSource
	history MedicalHistorySource
	timeout time.Duration
}

func NewDispatcher(gp GPRecordSource, history MedicalHistorySource, timeout time.Duration) *Dispatcher {
	return &Dispatcher{gp: gp, history: history, timeout: timeout}
}

// Trigger executes both lookups and returns when both have finished. It
// never returns an error: branch failures land in the per-branch status.
func (d *Dispatcher) Trigger(ctx context.Context, patient Identity) Results {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var results Results
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		results.GP = runBranch(ctx, "gp_records", func() (string, error) {
			return d.gp.FetchRecords(ctx, patient)
		})
	}()
	go func() {
		defer wg.Done()
		results.MedicalDB = runBranch(ctx, "medical_history", func() (string, error) {
			return d.history.QueryHistory(ctx, patient)
		})
	}()
	wg.Wait()
	return results
}

func runBranch(ctx context.Context, name string, fetch func() (string, error)) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("downstream branch panicked", "branch", name, "panic", r)
			result = Result{Status: StatusError, Detail: fmt.Sprintf("internal error in %s lookup", name)}
		}
	}()

	detail, err := fetch()
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			slog.Warn("downstream branch running degraded", "branch", name)
			return Result{Status: StatusDegraded, Detail: detail}
		}
		slog.Error("downstream branch failed", "branch", name, "error", err)
		return Result{Status: StatusError, Detail: err.Error()}
	}
	if ctx.Err() != nil {
		return Result{Status: StatusError, Detail: ctx.Err().Error()}
	}
	return Result{Status: StatusOK, Detail: detail}
}
