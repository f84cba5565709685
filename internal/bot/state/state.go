package state

// State is one step of the conversation. The current step is persisted on
// the user row; unmatched (state, event) combinations get a "use the menu"
// reply instead of falling through silently.
type State string

const (
	None                   State = "none"
	AwaitingClientName     State = "awaiting_client_name"
	AwaitingClientUsername State = "awaiting_client_username"
	AwaitingLinkUsername   State = "awaiting_link_username"
	AwaitingProgramText    State = "awaiting_program_text"
)

// Scratch keys for payloads that accompany a state.
const (
	KeyClientName     = "client_name"
	KeyPendingClient  = "pending_client_id"
	KeyPendingProgram = "pending_program"
)

var known = map[State]bool{
	None:                   true,
	AwaitingClientName:     true,
	AwaitingClientUsername: true,
	AwaitingLinkUsername:   true,
	AwaitingProgramText:    true,
}

// Parse maps a persisted state string onto a known State. Unknown values
// (e.g. after a deploy that dropped a state) degrade to None.
func Parse(s string) State {
	st := State(s)
	if known[st] {
		return st
	}
	return None
}
