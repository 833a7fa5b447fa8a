package timesheet

import (
	"errors"
	"testing"

	"etmam/internal/domain/auth"
)

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		action string
		from   string
		to     string
	}{
		{ActionSubmit, StatusDraft, StatusPending},
		{ActionApprove, StatusPending, StatusApproved},
		{ActionRequestRevision, StatusPending, StatusRevisionRequired},
		{ActionResubmit, StatusRevisionRequired, StatusPending},
	}

	for _, tc := range cases {
		from, to, err := TransitionFor(tc.action)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.action, err)
		}
		if from != tc.from || to != tc.to {
			t.Fatalf("%s: expected %s -> %s, got %s -> %s", tc.action, tc.from, tc.to, from, to)
		}
	}
}

func TestTransitionForUnknownAction(t *testing.T) {
	if _, _, err := TransitionFor("finalize"); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}

func TestRoleGatesPerAction(t *testing.T) {
	if !RoleAllowed(ActionSubmit, auth.RoleOperations) {
		t.Fatal("operations must submit drafts")
	}
	if RoleAllowed(ActionSubmit, auth.RoleFinance) {
		t.Fatal("finance must not submit drafts")
	}
	if !RoleAllowed(ActionApprove, auth.RoleFinance) {
		t.Fatal("finance must approve")
	}
	if RoleAllowed(ActionApprove, auth.RoleOperations) {
		t.Fatal("operations must not approve")
	}
	if !RoleAllowed(ActionRequestRevision, auth.RoleFinance) {
		t.Fatal("finance must be able to request revision")
	}
	if !RoleAllowed(ActionResubmit, auth.RoleOperations) {
		t.Fatal("operations must resubmit after revision")
	}
	if RoleAllowed(ActionResubmit, auth.RoleFinance) {
		t.Fatal("finance must not resubmit")
	}
	for _, action := range []string{ActionSubmit, ActionApprove, ActionRequestRevision, ActionResubmit} {
		if !RoleAllowed(action, auth.RoleSuperAdmin) || !RoleAllowed(action, auth.RoleAdmin) {
			t.Fatalf("admin roles must be allowed for %s", action)
		}
		if RoleAllowed(action, auth.RoleSales) {
			t.Fatalf("sales must not perform %s", action)
		}
	}
}
