package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sparkinventory/spark-notify/internal/api"
	"github.com/sparkinventory/spark-notify/internal/auth"
	"github.com/sparkinventory/spark-notify/internal/model"
)

// Gating failures reported by Begin, all before any network traffic.
var (
	// ErrUnsupportedKind means the registry marks the kind as not
	// executable; the user has to handle the item manually.
	ErrUnsupportedKind = errors.New(
		"this action type is not yet supported; please handle manually",
	)

	// ErrAlreadyExecuting means an execute call for this item id is
	// still in flight.
	ErrAlreadyExecuting = errors.New("action item is already executing")

	// ErrNotActionable means the item has already completed.
	ErrNotActionable = errors.New("action item is not actionable")
)

// RejectedError is a business rejection: the backend answered the
// execute call with success=false. The message is the server's own and
// is shown to the user verbatim.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string { return e.Message }

// Outcome is the reconciled result of one execute cycle. Item always
// holds the post-cycle copy: completed on success, failed otherwise.
type Outcome struct {
	Item   model.ActionItem
	Result *ExecutionResult
	Err    error
}

// Executor invokes the side-effecting execute endpoint for confirmed
// action items. It enforces at most one in-flight call per item id and
// reconciles each of the three outcomes (success, business rejection,
// transport failure) onto the item copy it returns. It never retries;
// retry is the user pressing the affordance again.
type Executor struct {
	client *api.Client

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewExecutor creates an executor over the given backend client.
func NewExecutor(client *api.Client) *Executor {
	return &Executor{
		client:   client,
		inflight: make(map[string]struct{}),
	}
}

// Executing reports whether an execute call for the item id is in flight.
func (e *Executor) Executing(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.inflight[id]
	return ok
}

// Begin gates and reserves an execute cycle for the item. On success it
// returns the optimistic executing copy, which the caller should show
// immediately; the caller must then pass that copy to Finish exactly
// once. No network traffic happens here.
//
// Gates, in order: the registry must mark the kind executable, the item
// must not already have an in-flight call, and it must be actionable
// (pending or failed).
func (e *Executor) Begin(item model.ActionItem) (model.ActionItem, error) {
	if !LookupType(item.Kind).CanExecute {
		return item, ErrUnsupportedKind
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.inflight[item.ID]; ok {
		return item, ErrAlreadyExecuting
	}
	if !item.Actionable() {
		return item, ErrNotActionable
	}

	e.inflight[item.ID] = struct{}{}

	item.Status = model.StatusExecuting
	item.LastError = ""
	return item, nil
}

// Finish issues the execute call for an item previously reserved with
// Begin and reconciles the outcome. The deferred finalizer guarantees
// that exactly one of commit (completed) or rollback (failed) is
// applied to the returned item, and that the in-flight reservation is
// released, however the call terminates.
func (e *Executor) Finish(
	ctx context.Context,
	authCtx auth.Context,
	item model.ActionItem,
) (out Outcome) {
	committed := false

	defer func() {
		e.release(item.ID)

		if committed {
			now := time.Now()
			item.Status = model.StatusCompleted
			item.CompletedAt = &now
			item.LastError = ""
		} else {
			item.Status = model.StatusFailed
			item.CompletedAt = nil
			if out.Err != nil {
				item.LastError = out.Err.Error()
			}
		}
		out.Item = item
	}()

	var result ExecutionResult
	err := e.client.Post(
		ctx, authCtx,
		"/action-items/"+item.ID+"/execute",
		nil, &result,
	)
	if err != nil {
		out.Err = fmt.Errorf("executing action item %s: %w", item.ID, err)
		return out
	}

	out.Result = &result
	if !result.Success {
		out.Err = &RejectedError{Message: result.Message}
		return out
	}

	committed = true
	return out
}

// Execute runs a full Begin/Finish cycle. Callers driving a UI usually
// split the two so the executing state renders before the call lands;
// Execute is the one-shot form for everything else.
func (e *Executor) Execute(
	ctx context.Context,
	authCtx auth.Context,
	item model.ActionItem,
) Outcome {
	executing, err := e.Begin(item)
	if err != nil {
		return Outcome{Item: item, Err: err}
	}
	return e.Finish(ctx, authCtx, executing)
}

// release frees the single-flight slot for an item id.
func (e *Executor) release(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inflight, id)
}
