package controller

// State 表示一次生成任务在控制器状态机中的位置。
type State string

const (
	StateInitial    State = "initial"
	StateAnalyzing  State = "analyzing"
	StateGenerating State = "generating"
	StateValidating State = "validating"
	StateRetrying   State = "retrying"
	StatePassed     State = "passed"
	StateStopped    State = "stopped"
)

// Terminal 判断状态是否为终态。
func (s State) Terminal() bool {
	return s == StatePassed || s == StateStopped
}

// validTransitions 列出状态机允许的迁移。终态无出边。
var validTransitions = map[State][]State{
	StateInitial:    {StateAnalyzing, StateGenerating, StateStopped},
	StateAnalyzing:  {StateGenerating, StateStopped},
	StateGenerating: {StateValidating, StateStopped},
	StateValidating: {StateRetrying, StatePassed, StateStopped},
	StateRetrying:   {StateGenerating, StateStopped},
}

// CanTransition 判断 from → to 是否为合法迁移。
func CanTransition(from, to State) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
