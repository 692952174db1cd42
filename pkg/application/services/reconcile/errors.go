package reconcile

import "fmt"

// ValidationError marks a malformed or unroutable scan update or staff
// intent. The triggering input is dropped without mutating state.
type ValidationError struct {
	ShelfID string
	Reason  string
}

func (e *ValidationError) Error() string {
	if e.ShelfID == "" {
		return fmt.Sprintf("validation: %s", e.Reason)
	}
	return fmt.Sprintf("validation: shelf %s: %s", e.ShelfID, e.Reason)
}

// ScenarioError reports a scripted demo step that kept failing after its
// retry budget. The scenario halts; the rest of the application keeps
// running.
type ScenarioError struct {
	Step        int
	Description string
	Err         error
}

func (e *ScenarioError) Error() string {
	return fmt.Sprintf("scenario step %d (%s): %v", e.Step, e.Description, e.Err)
}

func (e *ScenarioError) Unwrap() error {
	return e.Err
}
