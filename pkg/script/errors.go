package script

import (
	"fmt"
	"strings"
)

// ValidationError describes a sub-step that cannot be played.
// Step and SubStep are 0-based; SubStep counts the label when present.
type ValidationError struct {
	Step    int
	SubStep int
	Command string
	Reason  string
}

func (e *ValidationError) Error() string {
	if e.Command == "" {
		return fmt.Sprintf("step %d, sub-step %d: %s", e.Step, e.SubStep, e.Reason)
	}
	return fmt.Sprintf("step %d, sub-step %d (%s): %s", e.Step, e.SubStep, e.Command, e.Reason)
}

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, err.Error())
	}
	return b.String()
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// ValidationErrors returns all validation errors if err is an AggregateError.
// Otherwise returns nil.
func ValidationErrors(err error) []error {
	if aggr, ok := err.(*AggregateError); ok {
		return aggr.Errors
	}
	return nil
}
