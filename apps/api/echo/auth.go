package echoapi

import (
	"context"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/session"
	"github.com/trezcool/darasa/core/user"
	sessionstore "github.com/trezcool/darasa/storage/session"
)

const (
	contextTokenKey   = "userToken"
	contextSessionKey = "session"

	tokenCookieName = "token"
)

// Claims represents the authorization claims transmitted via a JWT.
// Id carries the session key; deleting the stored session invalidates
// the token before it expires.
type Claims struct {
	jwt.StandardClaims
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role,omitempty"`
	IsStudent    bool   `json:"is_student,omitempty"`    // -> STUDENT DASHBOARD
	IsInstructor bool   `json:"is_instructor,omitempty"` // -> INSTRUCTOR DASHBOARD
	IsAdmin      bool   `json:"is_admin,omitempty"`      // -> ADMIN DASHBOARD
}

type auth struct {
	conf      *core.Config
	userSvc   user.ServiceInterface
	courseSvc course.ServiceInterface
	sessions  sessionstore.Registry
	jwtConfig middleware.JWTConfig
}

func newAuth(
	conf *core.Config,
	userSvc user.ServiceInterface,
	courseSvc course.ServiceInterface,
	sessions sessionstore.Registry,
) *auth {
	return &auth{
		conf:      conf,
		userSvc:   userSvc,
		courseSvc: courseSvc,
		sessions:  sessions,
		jwtConfig: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    contextTokenKey,
			Claims:        new(Claims),
		},
	}
}

// jwt returns the JWT auth middleware guarding the authed API groups.
func (a *auth) jwt() echo.MiddlewareFunc {
	return middleware.JWTWithConfig(a.jwtConfig)
}

func (a *auth) GetUserClaims(usr user.User) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.NewString(),
			Issuer:    a.conf.AppName,
			Subject:   usr.ID,
			Audience:  "Darasa",
			ExpiresAt: now.Add(a.conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name:         usr.Name,
		Email:        usr.Email,
		Role:         usr.Role.String(),
		IsStudent:    usr.IsStudent(),
		IsInstructor: usr.IsInstructor(),
		IsAdmin:      usr.IsAdmin(),
	}
}

func (a *auth) authenticate(ctx context.Context, email, pwd string) (user.User, error) {
	usr, err := a.userSvc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errAuthenticationFailed
		}
		return user.User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return user.User{}, errAuthenticationFailed
	}
	if !usr.Active() {
		return user.User{}, errAccountDeactivated
	}
	usr, err = a.userSvc.SetLastLogin(ctx, usr)
	if err != nil {
		return user.User{}, errors.Wrap(err, "setting lastLogin")
	}
	return usr, nil
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func (a *auth) GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(a.jwtConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(a.jwtConfig.SigningKey.([]byte))
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

// openSession mints a token for usr and registers the matching session,
// with the profile hydrated from the user's enrollments.
func (a *auth) openSession(ctx context.Context, usr user.User) (string, *session.Session, error) {
	claims := a.GetUserClaims(usr)
	token, err := a.GenerateToken(claims)
	if err != nil {
		return "", nil, errors.Wrap(err, "generating token")
	}

	sess := session.New()
	if err = sess.SetUser(usr.Identity()); err != nil {
		return "", nil, errors.Wrap(err, "populating session")
	}

	enrolled := make([]string, 0)
	completed := make([]string, 0)
	if enrs, err := a.courseSvc.UserEnrollments(ctx, usr.ID); err == nil {
		for _, enr := range enrs {
			enrolled = append(enrolled, enr.CourseID)
			if enr.Completed() {
				completed = append(completed, enr.CourseID)
			}
		}
	}
	sess.UpdateProfile(session.Profile{EnrolledCourses: enrolled, CompletedCourses: completed})

	if err = a.sessions.Save(ctx, claims.Id, sess); err != nil {
		return "", nil, errors.Wrap(err, "saving session")
	}
	return token, sess, nil
}

func (a *auth) closeSession(ctx context.Context, claims Claims) error {
	return a.sessions.Delete(ctx, claims.Id)
}

func (a *auth) getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// contextSession resolves the live session for an authed API request.
// A valid token whose session was deleted (logout, revocation) is rejected.
func (a *auth) contextSession(ctx echo.Context) (*session.Session, error) {
	if sess, ok := ctx.Get(contextSessionKey).(*session.Session); ok {
		return sess, nil
	}

	claims, err := a.getContextClaims(ctx)
	if err != nil {
		return nil, err
	}
	sess, err := a.sessions.Get(ctx.Request().Context(), claims.Id)
	if err != nil {
		if errors.Cause(err) == sessionstore.ErrNotFound {
			return nil, errUnauthorized
		}
		return nil, errors.Wrap(err, "getting session")
	}
	ctx.Set(contextSessionKey, sess)
	return sess, nil
}

// pageSession resolves the session for a page navigation. Pages take
// anonymous visitors; any token problem degrades to an empty session
// and the route guard decides where to send them.
func (a *auth) pageSession(ctx echo.Context) *session.Session {
	raw := a.pageToken(ctx)
	if raw == "" {
		return session.New()
	}

	claims := new(Claims)
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return a.jwtConfig.SigningKey, nil
	})
	if err != nil || !token.Valid {
		return session.New()
	}

	sess, err := a.sessions.Get(ctx.Request().Context(), claims.Id)
	if err != nil {
		return session.New()
	}
	ctx.Set(contextSessionKey, sess)
	return sess
}

func (a *auth) pageToken(ctx echo.Context) string {
	if cookie, err := ctx.Cookie(tokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := ctx.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}

// refreshToken re-issues a token while the current session is still
// registered; the registry TTL bounds the refresh window.
func (a *auth) refreshToken(ctx echo.Context) (string, error) {
	claims, err := a.getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}
	if _, err = a.contextSession(ctx); err != nil {
		return "", err
	}

	usr, err := a.userSvc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return "", errors.Wrap(err, "finding user by ID")
	}
	if !usr.Active() {
		return "", errAccountDeactivated
	}

	token, _, err := a.openSession(ctx.Request().Context(), usr)
	if err != nil {
		return "", err
	}
	if err = a.closeSession(ctx.Request().Context(), claims); err != nil {
		return "", errors.Wrap(err, "closing previous session")
	}
	return token, nil
}
