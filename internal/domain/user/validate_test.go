package user_test

import (
	"testing"

	"github.com/geocoder89/userhub/internal/domain/user"
)

func strPtr(s string) *string { return &s }

func TestValidateCreate(t *testing.T) {
	tests := []struct {
		name      string
		req       user.CreateUserRequest
		wantRules map[string]string // field -> rule
		wantDraft user.Draft
	}{
		{
			name:      "valid",
			req:       user.CreateUserRequest{Name: "  Ana Maria ", Email: " ana@example.com"},
			wantDraft: user.Draft{Name: "Ana Maria", Email: "ana@example.com"},
		},
		{
			name:      "empty_name",
			req:       user.CreateUserRequest{Name: "", Email: "ana@example.com"},
			wantRules: map[string]string{"name": "required"},
		},
		{
			name:      "short_name_after_trim",
			req:       user.CreateUserRequest{Name: "  ab  ", Email: "ana@example.com"},
			wantRules: map[string]string{"name": "min"},
		},
		{
			name:      "bad_email",
			req:       user.CreateUserRequest{Name: "Ana", Email: "not-an-email"},
			wantRules: map[string]string{"email": "email"},
		},
		{
			name:      "everything_missing",
			req:       user.CreateUserRequest{},
			wantRules: map[string]string{"name": "required", "email": "required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft, errs := user.ValidateCreate(tt.req)

			if len(tt.wantRules) == 0 {
				if len(errs) != 0 {
					t.Fatalf("unexpected field errors: %+v", errs)
				}
				if draft != tt.wantDraft {
					t.Fatalf("got draft %+v, want %+v", draft, tt.wantDraft)
				}
				return
			}

			if len(errs) != len(tt.wantRules) {
				t.Fatalf("got %d field errors, want %d: %+v", len(errs), len(tt.wantRules), errs)
			}

			for _, fe := range errs {
				rule, ok := tt.wantRules[fe.Field]
				if !ok {
					t.Fatalf("unexpected field %q in %+v", fe.Field, errs)
				}
				if fe.Rule != rule {
					t.Fatalf("field %q: got rule %q, want %q", fe.Field, fe.Rule, rule)
				}
			}
		})
	}
}

func TestValidateEdit_OnlySuppliedFields(t *testing.T) {
	changes, errs := user.ValidateEdit(user.EditUserRequest{Name: strPtr(" Bruno ")})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	if changes.Name == nil || *changes.Name != "Bruno" {
		t.Fatalf("name change not normalized: %+v", changes.Name)
	}
	if changes.Email != nil {
		t.Fatalf("email should be untouched, got %q", *changes.Email)
	}
}

func TestValidateEdit_Empty(t *testing.T) {
	changes, errs := user.ValidateEdit(user.EditUserRequest{})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	if !changes.IsEmpty() {
		t.Fatalf("expected empty change set, got %+v", changes)
	}
}

func TestValidateEdit_InvalidSuppliedFields(t *testing.T) {
	_, errs := user.ValidateEdit(user.EditUserRequest{Name: strPtr("x"), Email: strPtr("nope")})
	if len(errs) != 2 {
		t.Fatalf("got %d errors, want 2: %+v", len(errs), errs)
	}
	if errs[0].Field != "name" || errs[0].Rule != "min" || errs[0].Param != "3" {
		t.Fatalf("unexpected name error: %+v", errs[0])
	}
	if errs[1].Field != "email" || errs[1].Rule != "email" {
		t.Fatalf("unexpected email error: %+v", errs[1])
	}
}

func TestValidateEdit_EmptyStringIsNotOmitted(t *testing.T) {
	_, errs := user.ValidateEdit(user.EditUserRequest{Name: strPtr("")})
	if len(errs) != 1 || errs[0].Rule != "required" {
		t.Fatalf("expected required error for empty name, got %+v", errs)
	}
}

func TestValidateRecord(t *testing.T) {
	ok := user.User{UserID: "u-1", Name: "Ana", Email: "ana@example.com"}
	if errs := user.ValidateRecord(ok); len(errs) != 0 {
		t.Fatalf("valid record rejected: %+v", errs)
	}

	bad := user.User{Name: "Ana", Email: "broken"}
	errs := user.ValidateRecord(bad)
	if len(errs) != 2 {
		t.Fatalf("got %d errors, want 2: %+v", len(errs), errs)
	}
	if errs[0].Field != "userId" {
		t.Fatalf("expected json field name userId, got %q", errs[0].Field)
	}
}

func TestChangesApply(t *testing.T) {
	u := user.User{UserID: "u-1", Name: "Ana", Email: "ana@example.com"}
	got := user.Changes{Name: strPtr("Bia")}.Apply(u)

	if got.Name != "Bia" || got.Email != "ana@example.com" || got.UserID != "u-1" {
		t.Fatalf("unexpected result %+v", got)
	}
}
