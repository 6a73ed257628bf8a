package cli

import (
	"fmt"

	"github.com/aretw0/beadnet/pkg/config"
	"github.com/aretw0/beadnet/pkg/script"
)

// Validate loads a script file and checks every sub-step.
// It returns the number of steps and, when some are invalid, a *script.AggregateError.
func Validate(path string) (int, error) {
	opts, err := config.Load(path)
	if err != nil {
		return 0, err
	}
	if !opts.HasPresentation() {
		return 0, fmt.Errorf("%s: no presentation steps", path)
	}
	steps, err := script.Parse(opts.Presentation.Steps)
	return len(steps), err
}
