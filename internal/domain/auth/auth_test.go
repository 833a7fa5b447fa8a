package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	claims := Claims{
		UserID:          "user-1",
		Email:           "ops@example.com",
		Role:            RoleOperations,
		IsActive:        true,
		AllowedSections: []string{SectionEmployees, SectionTimesheets},
	}

	token, err := GenerateToken("secret", claims, time.Hour)
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}

	parsed, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if parsed.UserID != "user-1" || parsed.Email != "ops@example.com" {
		t.Fatalf("unexpected identity claims: %+v", parsed)
	}
	if parsed.Role != RoleOperations {
		t.Fatalf("expected role %q, got %q", RoleOperations, parsed.Role)
	}
	if !parsed.IsActive {
		t.Fatal("expected isActive claim to survive the round trip")
	}
	if len(parsed.AllowedSections) != 2 {
		t.Fatalf("expected 2 allowed sections, got %v", parsed.AllowedSections)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u"}, time.Hour)
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}
	if _, err := ParseToken("other", token); err == nil {
		t.Fatal("expected token signed with a different secret to be rejected")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u"}, -time.Minute)
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}
	if _, err := ParseToken("secret", token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

// Deactivating an account does not invalidate tokens issued beforehand. The
// active flag travels inside the signed payload, so the token keeps verifying
// until expiry. Documented staleness window.
func TestIssuedTokenSurvivesDeactivation(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u", IsActive: true}, time.Hour)
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}

	parsed, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("expected token issued before deactivation to still verify: %v", err)
	}
	if !parsed.IsActive {
		t.Fatal("expected active flag captured at issuance time")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash password failed: %v", err)
	}
	if err := CheckPassword(hash, "s3cret-pass"); err != nil {
		t.Fatalf("expected password to verify: %v", err)
	}
	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatal("expected wrong password to fail verification")
	}
}

func TestRoleAllowLists(t *testing.T) {
	if !RoleIn(RoleOperations, TimesheetSubmitRoles) {
		t.Fatal("operations must be allowed to submit timesheets")
	}
	if RoleIn(RoleFinance, TimesheetSubmitRoles) {
		t.Fatal("finance must not submit timesheets")
	}
	if !RoleIn(RoleFinance, TimesheetApproveRoles) {
		t.Fatal("finance must be allowed to approve timesheets")
	}
	if RoleIn(RoleOperations, TimesheetApproveRoles) {
		t.Fatal("operations must not approve timesheets")
	}
	if !RoleIn(RoleSuperAdmin, AdminRoles) || !RoleIn(RoleAdmin, AdminRoles) {
		t.Fatal("admin roles allow-list is wrong")
	}
	if ValidRole("manager") {
		t.Fatal("unknown role accepted")
	}
}

func TestHasSection(t *testing.T) {
	user := UserContext{AllowedSections: []string{SectionTimesheets}}
	if !user.HasSection(SectionTimesheets) {
		t.Fatal("expected granted section to match")
	}
	if user.HasSection(SectionAdmin) {
		t.Fatal("expected missing section to be denied")
	}
}

func TestHashTokenStable(t *testing.T) {
	if HashToken("abc") != HashToken("abc") {
		t.Fatal("token hash must be deterministic")
	}
	if HashToken("abc") == HashToken("abd") {
		t.Fatal("token hash must differ for different inputs")
	}
}
