package gate

import (
	"context"
	"errors"
	"fmt"

	"github.com/gatelab/gate-controller/internal/gateconsts"
	"github.com/gatelab/gate-controller/internal/gateevent"
)

// ScriptStep waits until the gate has entered Await, then sends Send
// (nothing when Send is 0).
type ScriptStep struct {
	Await gateconsts.State
	Send  rune
}

type ScriptResult struct {
	Sequence        []gateconsts.State //starts with the initial state
	EmergencyClears int
	Events          int
}

// EmergencyScript opens the gate, starts closing it and raises an emergency
// mid-close, ending once the gate reopens.
func EmergencyScript(toggle, emergency rune) []ScriptStep {
	return []ScriptStep{
		{Await: gateconsts.Closed, Send: toggle},
		{Await: gateconsts.Open, Send: toggle},
		{Await: gateconsts.Closing, Send: emergency},
		{Await: gateconsts.Emergency},
		{Await: gateconsts.Opening},
	}
}

// RunScript drives a started gate through steps, writing symbols to keys
// and reading the gate's event channel.
func RunScript(ctx context.Context, gate *Gate, keys chan<- rune, steps []ScriptStep) (ScriptResult, error) {
	result := ScriptResult{Sequence: []gateconsts.State{gateconsts.Closed}}
	if gate.Events == nil {
		return result, errors.New("gate events are disabled")
	}

	for index, step := range steps {
		if err := awaitEntered(ctx, gate, step.Await, &result); err != nil {
			return result, fmt.Errorf("step %d awaiting %v: %w", index, step.Await, err)
		}
		if step.Send == 0 {
			continue
		}

		Logger.Debug().Msgf("Script step %d sending %q", index, step.Send)
		select {
		case keys <- step.Send:
		case <-ctx.Done():
			return result, ctx.Err()
		}
	}
	return result, nil
}

func awaitEntered(ctx context.Context, gate *Gate, target gateconsts.State, result *ScriptResult) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-gate.Done():
			if gate.Err() != nil {
				return gate.Err()
			}
			return errors.New("gate stopped")
		case event := <-gate.Events:
			result.Events++
			switch evnt := event.Value.(type) {
			case gateevent.StateChangeEvent:
				result.Sequence = append(result.Sequence, evnt.To)
			case gateevent.EmergencyClearedEvent:
				result.EmergencyClears++
			case gateevent.StateEnteredEvent:
				if evnt.State == target {
					return nil
				}
			}
		}
	}
}
