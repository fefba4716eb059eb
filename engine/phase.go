package engine

// Phase is the top-level state of a session
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhasePlaying
	PhasePaused
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhasePlaying:
		return "Playing"
	case PhasePaused:
		return "Paused"
	case PhaseGameOver:
		return "GameOver"
	default:
		return "Unknown"
	}
}

// InProgress reports whether a run is underway (difficulty is frozen)
func (p Phase) InProgress() bool {
	return p == PhasePlaying || p == PhasePaused
}

// Stage is the substate of PhasePlaying, retained across a pause
type Stage uint8

const (
	StageNone Stage = iota
	StageShowingSequence
	StageAwaitingInput
	StageRoundComplete // Inter-round delay, input ignored
	StageWrongAnswer   // Wrong-answer window before game over
)

func (s Stage) String() string {
	switch s {
	case StageNone:
		return "None"
	case StageShowingSequence:
		return "ShowingSequence"
	case StageAwaitingInput:
		return "AwaitingInput"
	case StageRoundComplete:
		return "RoundComplete"
	case StageWrongAnswer:
		return "WrongAnswer"
	default:
		return "Unknown"
	}
}

// validTransitions lists the phases reachable from each phase
// Reset to Idle is allowed from anywhere and handled separately
var validTransitions = map[Phase][]Phase{
	PhaseIdle:     {PhasePlaying},
	PhasePlaying:  {PhasePaused, PhaseGameOver},
	PhasePaused:   {PhasePlaying},
	PhaseGameOver: {PhasePlaying},
}

// CanTransition checks if a phase transition is valid
func CanTransition(from, to Phase) bool {
	if to == PhaseIdle {
		return true
	}
	for _, phase := range validTransitions[from] {
		if phase == to {
			return true
		}
	}
	return false
}

// validStages lists the stage successors inside PhasePlaying
var validStages = map[Stage][]Stage{
	StageNone:            {StageShowingSequence},
	StageShowingSequence: {StageAwaitingInput},
	StageAwaitingInput:   {StageRoundComplete, StageWrongAnswer},
	StageRoundComplete:   {StageShowingSequence},
	StageWrongAnswer:     {StageNone},
}

// CanAdvanceStage checks if a stage change inside PhasePlaying is valid
func CanAdvanceStage(from, to Stage) bool {
	for _, stage := range validStages[from] {
		if stage == to {
			return true
		}
	}
	return false
}
