package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/go-playground/locales/en"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/chatbot"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/live"
	"github.com/trezcool/darasa/core/payment"
	"github.com/trezcool/darasa/core/session"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
	logsvc "github.com/trezcool/darasa/services/logger"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
	sessionstore "github.com/trezcool/darasa/storage/session"
)

var (
	testConf = &core.Config{
		Env:      "TEST",
		TestMode: true,

		AppName:         "Darasa",
		SecretKey:       "secret",
		FrontendBaseURL: "http://localhost:3000",
		WorkDir:         core.Getwd(),

		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,

		Server: core.ServerConfig{
			Addr:               ":8000",
			JWTExpirationDelta: 10 * time.Minute,
		},
	}

	usrRepo  user.Repository
	crsRepo  course.Repository
	pmtRepo  payment.Repository
	crsSvc   course.ServiceInterface
	sessions sessionstore.Registry

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

func setup(t *testing.T) Server {
	t.Helper()

	// set up DB & repos
	db := inmemdb.NewDB()
	usrRepo = inmemdb.NewUserRepository(db)
	crsRepo = inmemdb.NewCourseRepository(db)
	pmtRepo = inmemdb.NewPaymentRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(testConf)
	usrSvc := user.NewServiceMock(usrRepo, mailSvc, testConf)
	crsSvc = course.NewService(crsRepo)
	pmtSvc := payment.NewService(pmtRepo, payment.NewSimulatedGateway(), crsSvc)
	sessions = sessionstore.NewInmemRegistry(testConf.Server.JWTExpirationDelta)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	rooms := live.NewRegistry(ctx)

	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "TEST : ", 0), testConf)
	logger.Enable(false)
	core.ParseEmailTemplates(testConf, logger)

	validate := validator.New()
	translator := newTestTranslator(t)
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	payment.InitValidators(validate, translator)

	// set up server
	return NewServer(
		&Options{
			Conf:           testConf,
			Logger:         logger,
			DisableReqLogs: true,

			UserSvc:    usrSvc,
			CourseSvc:  crsSvc,
			PaymentSvc: pmtSvc,
			Bot:        chatbot.New(),
			Rooms:      rooms,
			Sessions:   sessions,

			Validate:   validate,
			Translator: translator,
		},
	)
}

func newTestTranslator(t *testing.T) ut.Translator {
	t.Helper()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, ok := uni.GetTranslator("en")
	if !ok {
		t.Fatal("newTestTranslator() failed")
	}
	return translator
}

func createTestUser(t *testing.T, name, email, pwd string, role session.Role, isActive bool) user.User {
	t.Helper()
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	usr.SetActive(isActive)
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	usr, err := usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func createTestCourse(t *testing.T, title, instructorID string, price float64) course.Course {
	t.Helper()
	crs, err := crsRepo.CreateCourse(context.Background(), course.Course{
		Title:        title,
		Description:  "Everything you need to know, from zero to production.",
		Category:     "programming",
		Level:        course.LevelBeginner,
		Price:        price,
		Duration:     "12 weeks",
		InstructorID: instructorID,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}

// getToken opens a registered session for usr and returns its token,
// same as a successful login does.
func getToken(t *testing.T, srv Server, usr user.User) string {
	t.Helper()
	s := srv.(*server)
	token, _, err := s.auth.openSession(context.Background(), usr)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

// getOrphanToken returns a valid signed token with no session behind it.
func getOrphanToken(t *testing.T, srv Server, usr user.User) string {
	t.Helper()
	s := srv.(*server)
	token, err := s.auth.GenerateToken(s.auth.GetUserClaims(usr))
	if err != nil {
		t.Fatalf("getOrphanToken() failed: %v", err)
	}
	return token
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

// nolint
func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		if rec.Body.Len() > 0 {
			t.Errorf("failed! data = %v; want empty body", rec.Body.String())
		}
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
