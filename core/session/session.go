package session

import "github.com/pkg/errors"

var (
	ErrMissingID   = errors.New("identity has no ID")
	ErrMissingRole = errors.New("identity has no valid role")
)

type (
	// Identity is the authenticated principal as produced by a successful
	// login or registration.
	Identity struct {
		ID      string   `json:"id"`
		Email   string   `json:"email"`
		Role    Role     `json:"role"`
		Profile *Profile `json:"profile,omitempty"` // optional seed profile
	}

	// Profile holds display fields; independently patchable without
	// touching authentication state.
	Profile struct {
		Name             string   `json:"name"`
		Email            string   `json:"email"`
		Avatar           string   `json:"avatar"`
		Phone            string   `json:"phone"`
		Bio              string   `json:"bio"`
		EnrolledCourses  []string `json:"enrolled_courses"`
		CompletedCourses []string `json:"completed_courses"`
	}

	// Session is the in-memory record of who is logged in and as what.
	// It is explicitly constructed and passed by reference; its invariants
	// hold after every operation:
	//
	//	IsAuthenticated() == (current user != nil)
	//	Role() mirrors the current user's role
	Session struct {
		currentUser *Identity
		userRole    Role
		profile     Profile
	}
)

// merge patches p with the set fields of other; unset fields are retained.
func (p *Profile) merge(other Profile) {
	if other.Name != "" {
		p.Name = other.Name
	}
	if other.Email != "" {
		p.Email = other.Email
	}
	if other.Avatar != "" {
		p.Avatar = other.Avatar
	}
	if other.Phone != "" {
		p.Phone = other.Phone
	}
	if other.Bio != "" {
		p.Bio = other.Bio
	}
	if other.EnrolledCourses != nil {
		p.EnrolledCourses = other.EnrolledCourses
	}
	if other.CompletedCourses != nil {
		p.CompletedCourses = other.CompletedCourses
	}
}

func New() *Session {
	return &Session{}
}

// SetUser atomically populates the session from a well-formed identity.
// A malformed identity (missing ID or role outside the closed set) is
// rejected and leaves the session untouched.
func (s *Session) SetUser(identity Identity) error {
	if identity.ID == "" {
		return ErrMissingID
	}
	if !identity.Role.Valid() {
		return errors.Wrap(ErrMissingRole, identity.Role.String())
	}

	s.currentUser = &identity
	s.userRole = identity.Role
	if identity.Profile != nil {
		s.profile.merge(*identity.Profile)
	}
	return nil
}

// UpdateProfile merge-patches the profile. Authentication state is not
// consulted nor affected.
func (s *Session) UpdateProfile(partial Profile) {
	s.profile.merge(partial)
}

// Logout resets the session to its empty shape. Idempotent.
func (s *Session) Logout() {
	s.currentUser = nil
	s.userRole = ""
	s.profile = Profile{}
}

// Selectors; pure reads over the current state.

func (s *Session) IsAuthenticated() bool {
	return s.currentUser != nil
}

func (s *Session) Role() (Role, bool) {
	if s.currentUser == nil {
		return "", false
	}
	return s.userRole, true
}

func (s *Session) User() (Identity, bool) {
	if s.currentUser == nil {
		return Identity{}, false
	}
	return *s.currentUser, true
}

func (s *Session) Profile() Profile {
	return s.profile
}
