package game

import (
	"errors"
	"fmt"
)

// State is a screen of the quiz flow.
type State string

const (
	StateLogin          State = "LOGIN"
	StateAdminLogin     State = "ADMIN_LOGIN"
	StateAdminDashboard State = "ADMIN_DASHBOARD"
	StateLevelSelection State = "LEVEL_SELECTION"
	StatePlaying        State = "PLAYING"
	StateGameOver       State = "GAME_OVER"
	StateFeedback       State = "STUDENT_FEEDBACK"
	StateReportPreview  State = "REPORT_PREVIEW"
)

// Event is a user action that may move the machine to another state.
type Event string

const (
	EventLogin             Event = "login"
	EventOpenAdminLogin    Event = "open_admin_login"
	EventAdminLogin        Event = "admin_login"
	EventBackToLogin       Event = "back_to_login"
	EventAdminLogout       Event = "admin_logout"
	EventSelectLevel       Event = "select_level"
	EventFinish            Event = "finish"
	EventProceedToFeedback Event = "proceed_to_feedback"
	EventSkipFeedback      Event = "skip_feedback"
	EventSubmitFeedback    Event = "submit_feedback"
	EventBackToLevels      Event = "back_to_levels"
	EventLogout            Event = "logout"
	EventReset             Event = "reset"
)

var (
	// ErrInvalidTransition is returned when an event is not legal in the current state.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrUnknownState is returned when the machine holds a state outside the table.
	ErrUnknownState = errors.New("unknown state")
)

type transitionKey struct {
	from  State
	event Event
}

var transitions = map[transitionKey]State{
	{StateLogin, EventLogin}:          StateLevelSelection,
	{StateLogin, EventOpenAdminLogin}: StateAdminLogin,

	{StateAdminLogin, EventAdminLogin}:       StateAdminDashboard,
	{StateAdminLogin, EventBackToLogin}:      StateLogin,
	{StateAdminDashboard, EventAdminLogout}: StateLogin,

	{StateLevelSelection, EventSelectLevel}: StatePlaying,
	{StatePlaying, EventFinish}:             StateGameOver,

	{StateGameOver, EventProceedToFeedback}: StateFeedback,
	{StateGameOver, EventSkipFeedback}:      StateLevelSelection,
	{StateFeedback, EventSubmitFeedback}:    StateReportPreview,
	{StateReportPreview, EventBackToLevels}: StateLevelSelection,

	{StateLevelSelection, EventLogout}: StateLogin,
	{StatePlaying, EventLogout}:        StateLogin,
	{StateGameOver, EventLogout}:       StateLogin,
	{StateFeedback, EventLogout}:       StateLogin,
	{StateReportPreview, EventLogout}:  StateLogin,
}

var knownStates = map[State]bool{
	StateLogin:          true,
	StateAdminLogin:     true,
	StateAdminDashboard: true,
	StateLevelSelection: true,
	StatePlaying:        true,
	StateGameOver:       true,
	StateFeedback:       true,
	StateReportPreview:  true,
}

// Known reports whether s is one of the table's states.
func (s State) Known() bool {
	return knownStates[s]
}

// Machine is the explicit screen state machine. The zero value starts at LOGIN.
type Machine struct {
	State State `json:"state"`
}

// NewMachine returns a machine in LOGIN.
func NewMachine() Machine {
	return Machine{State: StateLogin}
}

// Current returns the active state, treating the zero value as LOGIN.
func (m Machine) Current() State {
	if m.State == "" {
		return StateLogin
	}
	return m.State
}

// Can reports whether event is legal from the current state.
func (m Machine) Can(event Event) bool {
	if event == EventReset {
		return true
	}
	_, ok := transitions[transitionKey{m.Current(), event}]
	return ok
}

// Fire applies event. Reset is always legal and lands in LOGIN.
func (m *Machine) Fire(event Event) error {
	if event == EventReset {
		m.State = StateLogin
		return nil
	}
	from := m.Current()
	if !from.Known() {
		return fmt.Errorf("%w: %s", ErrUnknownState, from)
	}
	next, ok := transitions[transitionKey{from, event}]
	if !ok {
		return fmt.Errorf("%w: %s on %s", ErrInvalidTransition, event, from)
	}
	m.State = next
	return nil
}
