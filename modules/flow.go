package modules

import (
	"fmt"
	"strings"

	"gapnode/messages"
)

// ProgramApplicationMarker tags the description of every program application,
// it is how an indexed grant is recognised as one when it is edited later.
const ProgramApplicationMarker = "[funding-program-application]"

type FlowType int

const (
	FlowUnset FlowType = iota
	FlowGrant
	FlowProgram
)

type StepKind int

const (
	StepFlowType StepKind = iota
	StepCommunity
	StepDetails
	StepMilestones
)

var stepLabels = map[StepKind]string{
	StepFlowType:   "Type",
	StepCommunity:  "Community & program",
	StepDetails:    "Details",
	StepMilestones: "Milestones",
}

func (step StepKind) String() string {
	return stepLabels[step]
}

// ------------------------------------------------------------------------------------------------------------------- //
// FLOWS

/*
Everything that differs between the two wizard variants lives in this table, no other code
branches on the flow type. A step's position in steps is its 1-indexed step number minus one,
so the program flow never reaches the details step.
*/
type flowDefinition struct {
	name               string
	steps              []StepKind
	requireProgram     bool
	requireDescription bool
	txType             messages.TransactionType
	failureMessage     string
}

var flows = map[FlowType]flowDefinition{
	FlowUnset: {
		name:  "unset",
		steps: []StepKind{StepFlowType},
	},
	FlowGrant: {
		name:               "grant",
		steps:              []StepKind{StepFlowType, StepCommunity, StepDetails, StepMilestones},
		requireDescription: true,
		txType:             messages.TxCreateGrant,
		failureMessage:     "Grant creation failed, your answers were kept so you can try again.",
	},
	FlowProgram: {
		name:           "program",
		steps:          []StepKind{StepFlowType, StepCommunity, StepMilestones},
		requireProgram: true,
		txType:         messages.TxApplyProgram,
		failureMessage: "Program application failed, your answers were kept so you can try again.",
	},
}

func (flow FlowType) definition() flowDefinition {
	if definition, ok := flows[flow]; ok {
		return definition
	}
	return flows[FlowUnset]
}

func (flow FlowType) String() string {
	return flow.definition().name
}

func ParseFlowType(name string) (FlowType, error) {
	for flow, definition := range flows {
		if flow != FlowUnset && strings.EqualFold(definition.name, strings.TrimSpace(name)) {
			return flow, nil
		}
	}
	return FlowUnset, fmt.Errorf("unknown flow type %q", name)
}

func (flow FlowType) Steps() []StepKind {
	steps := flow.definition().steps
	return append([]StepKind(nil), steps...)
}

func (flow FlowType) StepCount() int {
	return len(flow.definition().steps)
}

// StepAt returns the kind of the 1-indexed step.
func (flow FlowType) StepAt(step int) (StepKind, bool) {
	steps := flow.definition().steps
	if step < 1 || step > len(steps) {
		return 0, false
	}
	return steps[step-1], true
}

func (flow FlowType) StepLabel(step int) string {
	kind, ok := flow.StepAt(step)
	if !ok {
		return ""
	}
	return kind.String()
}

func (flow FlowType) RequiresProgram() bool { return flow.definition().requireProgram }

func (flow FlowType) RequiresDescription() bool { return flow.definition().requireDescription }

func (flow FlowType) TxType() messages.TransactionType { return flow.definition().txType }

func (flow FlowType) FailureMessage() string {
	if message := flow.definition().failureMessage; message != "" {
		return message
	}
	return "Submission failed."
}

// MarkDescription adds the program application marker for flows that require one.
func (flow FlowType) MarkDescription(description string) string {
	if flow != FlowProgram || strings.Contains(description, ProgramApplicationMarker) {
		return description
	}
	if strings.TrimSpace(description) == "" {
		return ProgramApplicationMarker
	}
	return description + "\n\n" + ProgramApplicationMarker
}

// InferFlowType recovers the flow of an already indexed grant from its description.
func InferFlowType(description string) FlowType {
	if strings.Contains(description, ProgramApplicationMarker) {
		return FlowProgram
	}
	return FlowGrant
}
