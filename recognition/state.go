package recognition

// State 识别状态
type State string

const (
	StateIdle      State = "idle"
	StateListening State = "listening"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// transitions 列出全部合法迁移，状态不允许跳步。
var transitions = map[State][]State{
	StateIdle:      {StateListening},
	StateListening: {StateCompleted, StateFailed, StateIdle},
	StateCompleted: {StateIdle, StateFailed},
	StateFailed:    {StateIdle},
}

// CanTransition 判断 from -> to 是否合法。
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Outcome 一次尝试的结束方式
type Outcome string

const (
	OutcomeCompleted   Outcome = "completed"
	OutcomeNoResult    Outcome = "no_result"
	OutcomeFailed      Outcome = "failed"
	OutcomeUnsupported Outcome = "unsupported"
	OutcomeIgnored     Outcome = "ignored"
)
