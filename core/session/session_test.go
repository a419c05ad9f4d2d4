package session

import (
	"reflect"
	"testing"

	"github.com/pkg/errors"
)

func studentIdentity() Identity {
	return Identity{
		ID:    "5a02058b-9e60-4e6f-9faf-14c57baeb1e3",
		Email: "amina@test.test",
		Role:  RoleStudent,
		Profile: &Profile{
			Name:  "Amina",
			Email: "amina@test.test",
		},
	}
}

func checkInvariants(t *testing.T, s *Session) {
	t.Helper()

	usr, ok := s.User()
	if s.IsAuthenticated() != ok {
		t.Errorf("IsAuthenticated() = %v; user present = %v", s.IsAuthenticated(), ok)
	}
	role, roleOk := s.Role()
	if ok {
		if !roleOk {
			t.Error("authenticated session has no role")
		}
		if role != usr.Role {
			t.Errorf("Role() = %v; currentUser.Role = %v", role, usr.Role)
		}
	} else if roleOk {
		t.Errorf("unauthenticated session has role %v", role)
	}
}

func TestSession_SetUser(t *testing.T) {
	tests := []struct {
		name     string
		identity Identity
		wantErr  error
	}{
		{name: "valid student", identity: studentIdentity()},
		{name: "valid admin", identity: Identity{ID: "id-1", Email: "a@test.test", Role: RoleAdmin}},
		{name: "missing id", identity: Identity{Email: "a@test.test", Role: RoleStudent}, wantErr: ErrMissingID},
		{name: "missing role", identity: Identity{ID: "id-1"}, wantErr: ErrMissingRole},
		{name: "unknown role", identity: Identity{ID: "id-1", Role: "superuser"}, wantErr: ErrMissingRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			err := s.SetUser(tt.identity)
			if errors.Cause(err) != tt.wantErr {
				t.Errorf("SetUser() error = %v, wantErr %v", err, tt.wantErr)
			}
			checkInvariants(t, s)

			if tt.wantErr != nil {
				// a rejected identity must leave the session untouched
				if s.IsAuthenticated() {
					t.Error("session authenticated after rejected SetUser()")
				}
				return
			}

			if !s.IsAuthenticated() {
				t.Error("session not authenticated after SetUser()")
			}
			if role, _ := s.Role(); role != tt.identity.Role {
				t.Errorf("Role() = %v; want %v", role, tt.identity.Role)
			}
			if usr, _ := s.User(); usr.ID != tt.identity.ID {
				t.Errorf("User().ID = %v; want %v", usr.ID, tt.identity.ID)
			}
			if tt.identity.Profile != nil && s.Profile().Name != tt.identity.Profile.Name {
				t.Errorf("Profile().Name = %v; want %v", s.Profile().Name, tt.identity.Profile.Name)
			}
		})
	}
}

func TestSession_SetUser_mergesProfile(t *testing.T) {
	s := New()
	s.UpdateProfile(Profile{Name: "Old Name", Avatar: "/avatars/a.png"})

	if err := s.SetUser(studentIdentity()); err != nil {
		t.Fatalf("SetUser() failed: %v", err)
	}

	prof := s.Profile()
	if prof.Name != "Amina" {
		t.Errorf("Name = %q; want override %q", prof.Name, "Amina")
	}
	if prof.Avatar != "/avatars/a.png" {
		t.Errorf("Avatar = %q; unspecified fields must be retained", prof.Avatar)
	}
	checkInvariants(t, s)
}

func TestSession_UpdateProfile(t *testing.T) {
	s := New()
	if err := s.SetUser(studentIdentity()); err != nil {
		t.Fatalf("SetUser() failed: %v", err)
	}

	s.UpdateProfile(Profile{Name: "X", EnrolledCourses: []string{"c1"}})

	// profile patched...
	prof := s.Profile()
	if prof.Name != "X" {
		t.Errorf("Name = %q; want %q", prof.Name, "X")
	}
	if prof.Email != "amina@test.test" {
		t.Errorf("Email = %q; want retained", prof.Email)
	}
	if len(prof.EnrolledCourses) != 1 || prof.EnrolledCourses[0] != "c1" {
		t.Errorf("EnrolledCourses = %v; want [c1]", prof.EnrolledCourses)
	}

	// ...auth state untouched
	if !s.IsAuthenticated() {
		t.Error("UpdateProfile() changed IsAuthenticated()")
	}
	if role, _ := s.Role(); role != RoleStudent {
		t.Errorf("UpdateProfile() changed role to %v", role)
	}
	checkInvariants(t, s)

	// valid regardless of auth state
	s2 := New()
	s2.UpdateProfile(Profile{Name: "Anonymous"})
	if s2.Profile().Name != "Anonymous" {
		t.Error("UpdateProfile() on unauthenticated session did not patch")
	}
	checkInvariants(t, s2)
}

func TestSession_Logout(t *testing.T) {
	s := New()
	if err := s.SetUser(studentIdentity()); err != nil {
		t.Fatalf("SetUser() failed: %v", err)
	}

	s.Logout()
	if s.IsAuthenticated() {
		t.Error("session still authenticated after Logout()")
	}
	if _, ok := s.Role(); ok {
		t.Error("session still has role after Logout()")
	}
	if _, ok := s.User(); ok {
		t.Error("session still has user after Logout()")
	}
	if !reflect.DeepEqual(s.Profile(), Profile{}) {
		t.Errorf("profile not reset: %+v", s.Profile())
	}
	checkInvariants(t, s)

	// idempotent: logout(); logout() == logout()
	s.Logout()
	if s.IsAuthenticated() || !reflect.DeepEqual(s.Profile(), Profile{}) {
		t.Error("second Logout() changed state")
	}
	checkInvariants(t, s)
}
