package bulk

// Status is the outcome of a single bulk entry.
type Status string

// Bulk entry status values.
const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Result is the outcome of one entry in a bulk submission.
type Result struct {
	action Action
	id     string
	status Status
	err    error
}

// NewOK creates a successful entry result.
func NewOK(action Action, id string) Result {
	return Result{action: action, id: id, status: StatusOK}
}

// NewError creates a failed entry result.
func NewError(action Action, id string, err error) Result {
	return Result{action: action, id: id, status: StatusError, err: err}
}

// Action returns the entry action.
func (r Result) Action() Action { return r.action }

// ID returns the document identifier.
func (r Result) ID() string { return r.id }

// Status returns the outcome.
func (r Result) Status() Status { return r.status }

// Err returns the failure, if any.
func (r Result) Err() error { return r.err }

// Failed counts error results.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.status == StatusError {
			n++
		}
	}
	return n
}

// FailAll returns one error result per operation, preserving order.
func FailAll(ops []Operation, err error) []Result {
	out := make([]Result, len(ops))
	for i, op := range ops {
		out[i] = NewError(op.Action(), op.ID(), err)
	}
	return out
}
