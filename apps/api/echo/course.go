package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/session"
)

type courseAPI struct {
	auth     *auth
	svc      course.ServiceInterface
	validate *validator.Validate
}

func registerCourseAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	auth *auth,
	svc course.ServiceInterface,
	validate *validator.Validate,
) {
	api := courseAPI{
		auth:     auth,
		svc:      svc,
		validate: validate,
	}

	cg := g.Group("/courses")
	// create the sub-groups before registering routes: on creation a group
	// registers Any("") catch-alls that would otherwise overwrite
	// previously registered routes at the same path (echo v4.1.x).
	ig := cg.Group("", jwt, auth.requireRoles(session.RoleInstructor, session.RoleAdmin))
	sg := cg.Group("", jwt, auth.requireRoles(session.RoleStudent))

	// the catalog is public
	cg.GET("", api.query)
	cg.GET("/:id", api.retrieve)

	// instructors manage their own courses
	ig.POST("", api.create)
	ig.PUT("/:id", api.update)
	ig.DELETE("/:id", api.destroy)
	cg.GET("/:id/students", api.queryStudents, jwt, auth.requireRoles(session.RoleInstructor, session.RoleAdmin))

	// students work through the learning center
	sg.POST("/:id/enroll", api.enroll)
	sg.DELETE("/:id/enroll", api.unenroll)
	sg.GET("/:id/progress", api.progress)
	sg.PUT("/:id/progress", api.setProgress)

	g.GET("/enrollments", api.queryEnrollments, jwt, auth.requireRoles(session.RoleStudent))
}

// Handlers

func (api *courseAPI) query(ctx echo.Context) error {
	filter := new(course.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []course.Course{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	courses, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseAPI) retrieve(ctx echo.Context) error {
	crs, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return errHTTPNotFound
		}
		return errors.Wrap(err, "finding course by ID")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseAPI) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := api.auth.getContextClaims(ctx)
	if err != nil {
		return err
	}
	crs, err := api.svc.Create(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseAPI) update(ctx echo.Context) error {
	crs, err := api.ownedCourse(ctx)
	if err != nil {
		return err
	}

	var data course.UpdateCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	crs, err = api.svc.Update(ctx.Request().Context(), crs.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseAPI) destroy(ctx echo.Context) error {
	crs, err := api.ownedCourse(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), crs.ID); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseAPI) enroll(ctx echo.Context) error {
	claims, err := api.auth.getContextClaims(ctx)
	if err != nil {
		return err
	}

	enr, err := api.svc.Enroll(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		switch errors.Cause(err) {
		case course.ErrNotFound:
			return errHTTPNotFound
		case course.ErrAlreadyEnrolled:
			return echo.NewHTTPError(http.StatusConflict, course.ErrAlreadyEnrolled.Error())
		}
		return errors.Wrap(err, "enrolling")
	}
	api.refreshSessionEnrollments(ctx, claims)
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *courseAPI) unenroll(ctx echo.Context) error {
	claims, err := api.auth.getContextClaims(ctx)
	if err != nil {
		return err
	}

	if err = api.svc.Unenroll(ctx.Request().Context(), claims.Subject, ctx.Param("id")); err != nil {
		if errors.Cause(err) == course.ErrNotEnrolled {
			return errHTTPNotFound
		}
		return errors.Wrap(err, "unenrolling")
	}
	api.refreshSessionEnrollments(ctx, claims)
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseAPI) progress(ctx echo.Context) error {
	claims, err := api.auth.getContextClaims(ctx)
	if err != nil {
		return err
	}

	enr, err := api.svc.Progress(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == course.ErrNotEnrolled {
			return errHTTPNotFound
		}
		return errors.Wrap(err, "getting progress")
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *courseAPI) setProgress(ctx echo.Context) error {
	claims, err := api.auth.getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data ProgressRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ProgressRequest")
	}

	enr, err := api.svc.SetProgress(ctx.Request().Context(), claims.Subject, ctx.Param("id"), data.Progress)
	if err != nil {
		if errors.Cause(err) == course.ErrNotEnrolled {
			return errHTTPNotFound
		}
		return errors.Wrap(err, "setting progress")
	}
	if enr.Completed() {
		api.refreshSessionEnrollments(ctx, claims)
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *courseAPI) queryEnrollments(ctx echo.Context) error {
	claims, err := api.auth.getContextClaims(ctx)
	if err != nil {
		return err
	}

	enrs, err := api.svc.UserEnrollments(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	if enrs == nil {
		enrs = []course.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrs)
}

func (api *courseAPI) queryStudents(ctx echo.Context) error {
	crs, err := api.ownedCourse(ctx)
	if err != nil {
		return err
	}

	enrs, err := api.svc.CourseEnrollments(ctx.Request().Context(), crs.ID)
	if err != nil {
		return errors.Wrap(err, "querying course enrollments")
	}
	if enrs == nil {
		enrs = []course.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrs)
}

// ownedCourse loads the target course and checks the caller may manage
// it: its instructor, or an admin.
func (api *courseAPI) ownedCourse(ctx echo.Context) (course.Course, error) {
	claims, err := api.auth.getContextClaims(ctx)
	if err != nil {
		return course.Course{}, err
	}

	crs, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return course.Course{}, errHTTPNotFound
		}
		return course.Course{}, errors.Wrap(err, "finding course by ID")
	}
	if crs.InstructorID != claims.Subject && !claims.IsAdmin {
		return course.Course{}, errHTTPForbidden
	}
	return crs, nil
}

// refreshSessionEnrollments updates the live session's profile after an
// enrollment change; failures are not fatal as the next login rebuilds it.
func (api *courseAPI) refreshSessionEnrollments(ctx echo.Context, claims Claims) {
	sess, err := api.auth.contextSession(ctx)
	if err != nil {
		return
	}

	enrolled := make([]string, 0)
	completed := make([]string, 0)
	if enrs, err := api.svc.UserEnrollments(ctx.Request().Context(), claims.Subject); err == nil {
		for _, enr := range enrs {
			enrolled = append(enrolled, enr.CourseID)
			if enr.Completed() {
				completed = append(completed, enr.CourseID)
			}
		}
	}
	sess.UpdateProfile(session.Profile{EnrolledCourses: enrolled, CompletedCourses: completed})
	_ = api.auth.sessions.Save(ctx.Request().Context(), claims.Id, sess)
}

type ProgressRequest struct {
	Progress int `json:"progress"`
}
