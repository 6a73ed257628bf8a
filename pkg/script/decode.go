package script

import (
	"fmt"
	"math"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// RawStep is a step as found in a configuration file: an optional string
// label followed by {cmd, args} maps.
type RawStep []any

// rawCommand is the shape of a sub-step.
type rawCommand struct {
	Cmd  string `mapstructure:"cmd"`
	Args []any  `mapstructure:"args"`
}

// arity lists the accepted argument counts per command.
var arity = map[string][2]int{
	CmdAddNode:                    {1, 1},
	CmdAddNodes:                   {1, 1},
	CmdRemoveNode:                 {1, 1},
	CmdAddChannel:                 {1, 1},
	CmdAddChannels:                {1, 1},
	CmdRemoveChannel:              {2, 2},
	CmdChangeChannelSourceBalance: {3, 3},
	CmdChangeChannelTargetBalance: {3, 3},
	CmdHighlightChannel:           {2, 3},
	CmdMoveBeads:                  {3, 4},
	CmdUpdateNode:                 {2, 2},
}

// Parse decodes raw steps into typed steps. Invalid sub-steps are left out of
// the result and reported in the returned *AggregateError.
func Parse(raw []RawStep) ([]Step, error) {
	var errs []error
	steps := make([]Step, 0, len(raw))
	for i, rs := range raw {
		step, stepErrs := parseStep(i, rs)
		steps = append(steps, step)
		errs = append(errs, stepErrs...)
	}
	if len(errs) > 0 {
		return steps, &AggregateError{Errors: errs}
	}
	return steps, nil
}

func parseStep(index int, rs RawStep) (Step, []error) {
	var step Step
	var errs []error
	for j, elem := range rs {
		if label, ok := elem.(string); ok && j == 0 {
			step.Label = label
			continue
		}
		cmd, err := parseCommand(elem)
		if err != nil {
			if ve, ok := err.(*ValidationError); ok {
				ve.Step, ve.SubStep = index, j
			}
			errs = append(errs, err)
			continue
		}
		step.Commands = append(step.Commands, cmd)
	}
	return step, errs
}

func parseCommand(elem any) (Command, error) {
	var rc rawCommand
	if err := decode(elem, &rc); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("malformed sub-step: %v", err)}
	}
	bounds, ok := arity[rc.Cmd]
	if !ok {
		return nil, &ValidationError{Command: rc.Cmd, Reason: "invalid command"}
	}
	if len(rc.Args) < bounds[0] || len(rc.Args) > bounds[1] {
		want := fmt.Sprintf("exactly %d", bounds[0])
		if bounds[0] != bounds[1] {
			want = fmt.Sprintf("%d to %d", bounds[0], bounds[1])
		}
		return nil, &ValidationError{Command: rc.Cmd, Reason: fmt.Sprintf("requires %s arguments, got %d", want, len(rc.Args))}
	}

	cmd, err := buildCommand(rc.Cmd, rc.Args)
	if err != nil {
		return nil, &ValidationError{Command: rc.Cmd, Reason: err.Error()}
	}
	return cmd, nil
}

func buildCommand(name string, args []any) (Command, error) {
	a := argReader{args: args}
	var cmd Command
	switch name {
	case CmdAddNode:
		var c AddNode
		a.read(&c.Node)
		cmd = c
	case CmdAddNodes:
		var c AddNodes
		a.read(&c.Nodes)
		cmd = c
	case CmdRemoveNode:
		var c RemoveNode
		a.read(&c.ID)
		cmd = c
	case CmdAddChannel:
		var c AddChannel
		a.read(&c.Channel)
		cmd = c
	case CmdAddChannels:
		var c AddChannels
		a.read(&c.Channels)
		cmd = c
	case CmdRemoveChannel:
		var c RemoveChannel
		a.read(&c.Source, &c.Target)
		cmd = c
	case CmdChangeChannelSourceBalance:
		var c ChangeChannelSourceBalance
		a.read(&c.Source, &c.Target, &c.Amount)
		cmd = c
	case CmdChangeChannelTargetBalance:
		var c ChangeChannelTargetBalance
		a.read(&c.Source, &c.Target, &c.Amount)
		cmd = c
	case CmdHighlightChannel:
		var c HighlightChannel
		a.read(&c.Source, &c.Target)
		if len(args) > 2 {
			var state bool
			a.read(&state)
			c.State = &state
		}
		cmd = c
	case CmdMoveBeads:
		var c MoveBeads
		a.read(&c.Source, &c.Target, &c.Count)
		if len(args) > 3 {
			a.read(&c.Wait)
		}
		cmd = c
	case CmdUpdateNode:
		var c UpdateNode
		a.read(&c.ID, &c.Update)
		cmd = c
	}
	if a.err != nil {
		return nil, a.err
	}
	return cmd, nil
}

// argReader decodes positional arguments in order and keeps the first error.
type argReader struct {
	args []any
	pos  int
	err  error
}

func (a *argReader) read(targets ...any) {
	for _, target := range targets {
		if a.err != nil || a.pos >= len(a.args) {
			return
		}
		if err := decode(a.args[a.pos], target); err != nil {
			a.err = fmt.Errorf("argument %d: %w", a.pos+1, err)
			return
		}
		a.pos++
	}
}

// decode converts loosely typed YAML/JSON values into target. JSON numbers
// decode into ints only when they are whole and in range; strings never
// silently become numbers.
func decode(input, target any) error {
	d, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  wholeNumberHook,
		ErrorUnused: true,
		Result:      target,
	})
	if err != nil {
		return err
	}
	if err := d.Decode(input); err != nil {
		return err
	}
	return nil
}

// wholeNumberHook refuses floats that would be truncated or wrap around when
// stored in an int field.
func wholeNumberHook(from, to reflect.Kind, data any) (any, error) {
	if to != reflect.Int || (from != reflect.Float64 && from != reflect.Float32) {
		return data, nil
	}
	f := reflect.ValueOf(data).Float()
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, fmt.Errorf("%v is not a whole number", data)
	}
	if f < math.MinInt64 || f >= -math.MinInt64 {
		return nil, fmt.Errorf("%v is out of range", data)
	}
	return int(f), nil
}
