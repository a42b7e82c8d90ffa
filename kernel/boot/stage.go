package boot

// Stage identifies how far the boot trampoline got.
type Stage uint8

// The trampoline stages in the order they are entered.
const (
	StageLoaderHandoff Stage = iota
	StageLiveness
	StageStack
	StageMasked
	StageFrame
	StageMain
	StageHalted

	stageCount
)

var stageNames = [stageCount]string{
	"loader-handoff",
	"liveness",
	"stack",
	"masked",
	"frame",
	"main",
	"halted",
}

// String returns the stage name.
func (s Stage) String() string {
	if s >= stageCount {
		return "unknown"
	}

	return stageNames[s]
}

// Next returns the stage that follows s. StageHalted is terminal.
func (s Stage) Next() Stage {
	if s >= StageHalted {
		return StageHalted
	}

	return s + 1
}

// Step documents one trampoline step: the stage it records and the machine
// state before and after it runs.
type Step struct {
	Stage Stage
	Pre   string
	Post  string
}

// Sequence lists the trampoline steps in execution order. rt0 records each
// step's stage once its postcondition holds.
var Sequence = [...]Step{
	{StageLiveness, "loader state; no usable stack", "cell 0 shows 'W'; loader magic and info pointer saved"},
	{StageStack, "no usable stack", "SP at the 16-byte aligned top of the boot stack"},
	{StageMasked, "interrupt and direction flags unknown", "DF and IF clear"},
	{StageFrame, "BP unknown; no g", "zero BP pushed as frame sentinel; g0 installed behind FS"},
	{StageMain, "Go code can run", "kernel main running"},
	{StageHalted, "kernel main returned", "interrupts disabled; CPU halted forever"},
}

// stage is updated by rt0 as each step completes.
var stage uint8

// CurrentStage returns the last stage recorded by the trampoline.
func CurrentStage() Stage {
	return Stage(stage)
}
