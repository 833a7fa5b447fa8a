package timesheet

import "etmam/internal/domain/auth"

// transition binds a workflow action to its guarded state change. Every action
// is a compare-and-swap on the summary row: the update only lands when the
// current status equals From.
type transition struct {
	From  string
	To    string
	Roles []string
}

var transitions = map[string]transition{
	ActionSubmit:          {From: StatusDraft, To: StatusPending, Roles: auth.TimesheetSubmitRoles},
	ActionApprove:         {From: StatusPending, To: StatusApproved, Roles: auth.TimesheetApproveRoles},
	ActionRequestRevision: {From: StatusPending, To: StatusRevisionRequired, Roles: auth.TimesheetApproveRoles},
	ActionResubmit:        {From: StatusRevisionRequired, To: StatusPending, Roles: auth.TimesheetSubmitRoles},
}

// TransitionFor resolves an action to its expected prior state and target
// state. Unknown actions are rejected up front.
func TransitionFor(action string) (from, to string, err error) {
	t, ok := transitions[action]
	if !ok {
		return "", "", ErrUnknownAction
	}
	return t.From, t.To, nil
}

// RoleAllowed reports whether the caller role may perform the action.
func RoleAllowed(action, role string) bool {
	t, ok := transitions[action]
	if !ok {
		return false
	}
	return auth.RoleIn(role, t.Roles)
}
