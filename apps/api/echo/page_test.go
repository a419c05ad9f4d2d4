package echoapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core/session"
)

func Test_server_pageGuards(t *testing.T) {
	srv := setup(t)

	student := createTestUser(t, "Hero", "hero@test.test", "LolC4t", session.RoleStudent, true)
	teacher := createTestUser(t, "Teacher", "teacher@test.test", "LolC4t", session.RoleInstructor, true)
	admin := createTestUser(t, "Admin", "admin@test.test", "LolC4t", session.RoleAdmin, true)

	studentToken := getToken(t, srv, student)
	teacherToken := getToken(t, srv, teacher)
	adminToken := getToken(t, srv, admin)

	type extraTest struct {
		location string
	}
	tests := []httpTest{
		// anonymous visitors
		{name: "home is open", path: "/", wantCode: http.StatusOK},
		{name: "login page is open", path: "/login", wantCode: http.StatusOK},
		{name: "student dashboard wants login", path: "/student-dashboard", wantCode: http.StatusFound, extra: extraTest{location: "/login"}},
		{name: "instructor dashboard wants login", path: "/instructor-dashboard", wantCode: http.StatusFound, extra: extraTest{location: "/login"}},
		{name: "admin dashboard wants login", path: "/admin-dashboard", wantCode: http.StatusFound, extra: extraTest{location: "/login"}},
		{name: "live class wants login", path: "/live-class/101", wantCode: http.StatusFound, extra: extraTest{location: "/login"}},
		{name: "learning center wants login", path: "/learning-center/101", wantCode: http.StatusFound, extra: extraTest{location: "/login"}},
		{name: "payment wants login", path: "/payment/101", wantCode: http.StatusFound, extra: extraTest{location: "/login"}},

		// students
		{name: "student reaches own dashboard", path: "/student-dashboard", token: studentToken, wantCode: http.StatusOK},
		{name: "student reaches learning center", path: "/learning-center/101", token: studentToken, wantCode: http.StatusOK},
		{name: "student reaches live class", path: "/live-class/101", token: studentToken, wantCode: http.StatusOK},
		{name: "student reaches payment", path: "/payment/101", token: studentToken, wantCode: http.StatusOK},
		{name: "student sent home from instructor dashboard", path: "/instructor-dashboard", token: studentToken, wantCode: http.StatusFound, extra: extraTest{location: "/"}},
		{name: "student sent home from admin dashboard", path: "/admin-dashboard", token: studentToken, wantCode: http.StatusFound, extra: extraTest{location: "/"}},

		// instructors
		{name: "instructor reaches own dashboard", path: "/instructor-dashboard", token: teacherToken, wantCode: http.StatusOK},
		{name: "instructor reaches live class", path: "/live-class/101", token: teacherToken, wantCode: http.StatusOK},
		{name: "instructor sent home from learning center", path: "/learning-center/101", token: teacherToken, wantCode: http.StatusFound, extra: extraTest{location: "/"}},

		// admins are not implicitly allowed everywhere
		{name: "admin reaches own dashboard", path: "/admin-dashboard", token: adminToken, wantCode: http.StatusOK},
		{name: "admin reaches payment", path: "/payment/101", token: adminToken, wantCode: http.StatusOK},
		{name: "admin sent home from student dashboard", path: "/student-dashboard", token: adminToken, wantCode: http.StatusFound, extra: extraTest{location: "/"}},
		{name: "admin sent home from live class", path: "/live-class/101", token: adminToken, wantCode: http.StatusFound, extra: extraTest{location: "/"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			srv.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
			}
			if extra, ok := tt.extra.(extraTest); ok {
				if loc := rec.Header().Get(echo.HeaderLocation); loc != extra.location {
					t.Errorf("failed! location = %s; want %s", loc, extra.location)
				}
			}
		})
	}
}

func Test_server_pageSessionFromCookie(t *testing.T) {
	srv := setup(t)

	student := createTestUser(t, "Hero", "hero@test.test", "LolC4t", session.RoleStudent, true)
	token := getToken(t, srv, student)

	newCookieRequest := func(token string) (*http.Request, *httptest.ResponseRecorder) {
		req := httptest.NewRequest(http.MethodGet, "/student-dashboard", nil)
		if token != "" {
			req.AddCookie(&http.Cookie{Name: tokenCookieName, Value: token})
		}
		return req, httptest.NewRecorder()
	}

	// the browser flow: the token travels in the cookie, no header needed
	req, rec := newCookieRequest(token)
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("cookie auth code = %v; want %v", rec.Code, http.StatusOK)
	}

	// garbage in the cookie degrades to an anonymous visit
	req, rec = newCookieRequest("lol")
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusFound {
		t.Errorf("garbage cookie code = %v; want %v", rec.Code, http.StatusFound)
	}

	// a valid token whose session was revoked is anonymous too
	req, rec = newCookieRequest(getOrphanToken(t, srv, student))
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusFound {
		t.Errorf("orphan token code = %v; want %v", rec.Code, http.StatusFound)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/login" {
		t.Errorf("orphan token location = %s; want /login", loc)
	}
}

func Test_server_home(t *testing.T) {
	srv := setup(t)

	req, rec := newRequest(http.MethodGet, "/")
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("code = %v; want %v", rec.Code, http.StatusOK)
	}
	if got := rec.Body.String(); got != "Welcome to Darasa API!" {
		t.Errorf("body = %q; want %q", got, "Welcome to Darasa API!")
	}
}

func Test_server_fallback(t *testing.T) {
	srv := setup(t)

	// unknown pages land back on the landing page
	req, rec := newRequest(http.MethodGet, "/lol/nope")
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusFound {
		t.Errorf("code = %v; want %v", rec.Code, http.StatusFound)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/" {
		t.Errorf("location = %s; want /", loc)
	}

	// the API keeps its 404s
	req, rec = newRequest(http.MethodGet, "/v1/lol")
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("code = %v; want %v", rec.Code, http.StatusNotFound)
	}
}
