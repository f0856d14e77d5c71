package bulk

// Action is the bulk action kind.
type Action string

// Bulk actions.
const (
	ActionIndex  Action = "index"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// DefaultRetryOnConflict bounds engine-side retries of a merge-update on version conflicts.
const DefaultRetryOnConflict = 3

// Script is a server-side script template with its parameters.
type Script struct {
	Lang   string
	Source string
	Params map[string]any
}

// Merge is a merge-update against an existing document. Apply is the pure Go
// form executed in-process; Script is the same merge as an engine-side script.
// Upsert is the body stored when the document does not exist yet.
type Merge interface {
	Apply(existing map[string]any) (map[string]any, error)
	Script() Script
	Upsert() map[string]any
}

// Operation is one queued write: an action header plus an optional body.
type Operation struct {
	action          Action
	index           string
	id              string
	body            map[string]any
	merge           Merge
	retryOnConflict int
}

// NewIndex creates an operation that replaces the document wholesale.
func NewIndex(index, id string, body map[string]any) Operation {
	return Operation{action: ActionIndex, index: index, id: id, body: body}
}

// NewUpdate creates a merge-update operation.
func NewUpdate(index, id string, m Merge, retryOnConflict int) Operation {
	return Operation{action: ActionUpdate, index: index, id: id, merge: m, retryOnConflict: retryOnConflict}
}

// NewDelete creates a delete operation.
func NewDelete(index, id string) Operation {
	return Operation{action: ActionDelete, index: index, id: id}
}

// Action returns the action kind.
func (o Operation) Action() Action { return o.action }

// Index returns the target index.
func (o Operation) Index() string { return o.index }

// ID returns the target document identifier.
func (o Operation) ID() string { return o.id }

// Body returns the replacement body of an index operation.
func (o Operation) Body() map[string]any { return o.body }

// Merge returns the merge of an update operation.
func (o Operation) Merge() Merge { return o.merge }

// RetryOnConflict returns the conflict retry bound of an update operation.
func (o Operation) RetryOnConflict() int { return o.retryOnConflict }

// Header returns the action line of the operation.
func (o Operation) Header() map[string]any {
	meta := map[string]any{"_index": o.index, "_id": o.id}
	if o.action == ActionUpdate && o.retryOnConflict > 0 {
		meta["retry_on_conflict"] = o.retryOnConflict
	}
	return map[string]any{string(o.action): meta}
}

// Payload returns the body line of the operation. Delete has none.
func (o Operation) Payload() (map[string]any, bool) {
	switch o.action {
	case ActionIndex:
		return o.body, true
	case ActionUpdate:
		s := o.merge.Script()
		return map[string]any{
			"script": map[string]any{
				"lang":   s.Lang,
				"source": s.Source,
				"params": s.Params,
			},
			"upsert": o.merge.Upsert(),
		}, true
	default:
		return nil, false
	}
}
