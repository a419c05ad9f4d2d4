package echoapi

import (
	"context"
	"net/http"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/chatbot"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/live"
	"github.com/trezcool/darasa/core/payment"
	"github.com/trezcool/darasa/core/session"
	"github.com/trezcool/darasa/core/user"
	sessionstore "github.com/trezcool/darasa/storage/session"
)

type (
	Options struct {
		Conf           *core.Config
		Logger         core.Logger
		DisableReqLogs bool

		UserSvc    user.ServiceInterface
		CourseSvc  course.ServiceInterface
		PaymentSvc payment.ServiceInterface
		Bot        *chatbot.Bot
		Rooms      *live.Registry
		Sessions   sessionstore.Registry

		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
		Errors() <-chan error
	}

	server struct {
		opts *Options
		app  *echo.Echo
		auth *auth
		errs chan error
	}
)

var _ Server = (*server)(nil)

// pageRoutes is the static declaration of guarded pages: who may land
// where. Dashboards are single-role, the live classroom admits both sides
// of the lecture, and checkout only needs a logged-in user.
var pageRoutes = []session.Route{
	{Path: "/student-dashboard", Allowed: []session.Role{session.RoleStudent}},
	{Path: "/instructor-dashboard", Allowed: []session.Role{session.RoleInstructor}},
	{Path: "/admin-dashboard", Allowed: []session.Role{session.RoleAdmin}},
	{Path: "/live-class/:id", Allowed: []session.Role{session.RoleStudent, session.RoleInstructor}},
	{Path: "/learning-center/:id", Allowed: []session.Role{session.RoleStudent}},
	{Path: "/payment/:id", Allowed: nil}, // any authenticated user
}

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
		auth: newAuth(opts.Conf, opts.UserSvc, opts.CourseSvc, opts.Sessions),
		errs: make(chan error, 1),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = s.newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)
	s.app.GET(loginPath, loginPage)
	for _, route := range pageRoutes {
		s.app.GET(route.Path, pageView(route), s.auth.pageGuard(route))
	}
	s.app.GET("/*", fallback)

	v1 := s.app.Group("/v1")
	jwt := s.auth.jwt()

	registerUserAPI(v1, jwt, s.auth, s.opts.UserSvc, s.opts.Validate, s.opts.Translator)
	registerCourseAPI(v1, jwt, s.auth, s.opts.CourseSvc, s.opts.Validate)
	registerPaymentAPI(v1, jwt, s.auth, s.opts.PaymentSvc, s.opts.Validate)
	registerChatbotAPI(v1, s.opts.Bot)
	registerLiveAPI(v1, jwt, s.auth, s.opts.Rooms, s.opts.Logger)
}

func (s *server) Start() {
	go func() {
		s.errs <- s.app.Start(s.opts.Conf.Server.Addr)
	}()
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Errors() <-chan error {
	return s.errs
}

func (s *server) signalShutdown() {
	s.errs <- errors.New("integrity issue: shutting down")
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Darasa API!")
}

func loginPage(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"page": "login"})
}

// fallback sends unmatched pages back to the landing page; the API keeps its 404s.
func fallback(ctx echo.Context) error {
	if strings.HasPrefix(ctx.Request().URL.Path, "/v1") {
		return errHTTPNotFound
	}
	return ctx.Redirect(http.StatusFound, "/")
}

// pageView stands in for the SPA shell: the guard in front of it is the
// interesting part.
func pageView(route session.Route) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, echo.Map{"page": route.Path})
	}
}
