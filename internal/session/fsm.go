package session

// State is a stage of the booking flow
type State int

const (
	StateCalendar State = iota
	StateTime
	StateForm
	StateConfirmation
)

func (s State) String() string {
	switch s {
	case StateCalendar:
		return "calendar"
	case StateTime:
		return "time"
	case StateForm:
		return "form"
	case StateConfirmation:
		return "confirmation"
	default:
		return "unknown"
	}
}

type event int

const (
	eventSelectDate event = iota
	eventSelectSlot
	eventSubmit
	eventSubmitted
	eventSlotTaken
	eventBack
)

func (e event) String() string {
	switch e {
	case eventSelectDate:
		return "selectDate"
	case eventSelectSlot:
		return "selectSlot"
	case eventSubmit:
		return "submit"
	case eventSubmitted:
		return "submitted"
	case eventSlotTaken:
		return "slotTaken"
	case eventBack:
		return "back"
	default:
		return "unknown"
	}
}

// transitions is the complete table of legal moves. confirmation has no outgoing edges.
// eventSubmit keeps the session in form while the booking call is in flight.
var transitions = map[State]map[event]State{
	StateCalendar: {
		eventSelectDate: StateTime,
	},
	StateTime: {
		eventSelectSlot: StateForm,
		eventBack:       StateCalendar,
	},
	StateForm: {
		eventSubmit:    StateForm,
		eventSubmitted: StateConfirmation,
		eventSlotTaken: StateTime,
		eventBack:      StateTime,
	},
}

func next(from State, e event) (State, bool) {
	to, ok := transitions[from][e]
	return to, ok
}
