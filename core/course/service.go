package course

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrNotFound        = errors.New("course not found")
	ErrNotEnrolled     = errors.New("student is not enrolled in this course")
	ErrAlreadyEnrolled = errors.New("student is already enrolled in this course")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		// QueryCourses applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Course.Title or Course.Description.
		QueryCourses(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Course, error)
		// UpdateCourse updates the non-zero fields of crs.
		UpdateCourse(ctx context.Context, crs Course) (Course, error)
		DeleteCoursesByID(ctx context.Context, ids ...string) error

		CreateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
		GetEnrollment(ctx context.Context, userID, courseID string) (Enrollment, error)
		QueryUserEnrollments(ctx context.Context, userID string) ([]Enrollment, error)
		QueryCourseEnrollments(ctx context.Context, courseID string) ([]Enrollment, error)
		UpdateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
		DeleteEnrollment(ctx context.Context, userID, courseID string) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, instructorID string, nc NewCourse) (Course, error)
		Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Course, error)
		GetByID(ctx context.Context, id string) (Course, error)
		Update(ctx context.Context, id string, uc UpdateCourse) (Course, error)
		Delete(ctx context.Context, ids ...string) error

		Enroll(ctx context.Context, userID, courseID string) (Enrollment, error)
		Unenroll(ctx context.Context, userID, courseID string) error
		Progress(ctx context.Context, userID, courseID string) (Enrollment, error)
		SetProgress(ctx context.Context, userID, courseID string, progress int) (Enrollment, error)
		UserEnrollments(ctx context.Context, userID string) ([]Enrollment, error)
		CourseEnrollments(ctx context.Context, courseID string) ([]Enrollment, error)
	}

	service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository) ServiceInterface {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, instructorID string, nc NewCourse) (Course, error) {
	now := time.Now().UTC()
	crs := Course{
		Title:        nc.Title,
		Description:  nc.Description,
		Category:     nc.Category,
		Level:        nc.Level,
		Price:        nc.Price,
		Duration:     nc.Duration,
		InstructorID: instructorID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateCourse(ctx, crs)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, filter, ordering...)
}

func (svc *service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

func (svc *service) Update(ctx context.Context, id string, uc UpdateCourse) (Course, error) {
	crs := Course{
		ID:          id,
		Title:       uc.Title,
		Description: uc.Description,
		Category:    uc.Category,
		Level:       uc.Level,
		Duration:    uc.Duration,
		UpdatedAt:   time.Now().UTC(),
	}
	if uc.Price != nil {
		crs.Price = *uc.Price
	}
	return svc.repo.UpdateCourse(ctx, crs)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteCoursesByID(ctx, ids...)
}

func (svc *service) Enroll(ctx context.Context, userID, courseID string) (Enrollment, error) {
	if _, err := svc.repo.GetCourseByID(ctx, courseID); err != nil {
		return Enrollment{}, err
	}
	if _, err := svc.repo.GetEnrollment(ctx, userID, courseID); err == nil {
		return Enrollment{}, ErrAlreadyEnrolled
	} else if errors.Cause(err) != ErrNotEnrolled {
		return Enrollment{}, errors.Wrap(err, "checking enrollment")
	}

	enr := Enrollment{
		UserID:     userID,
		CourseID:   courseID,
		EnrolledAt: time.Now().UTC(),
	}
	return svc.repo.CreateEnrollment(ctx, enr)
}

func (svc *service) Unenroll(ctx context.Context, userID, courseID string) error {
	return svc.repo.DeleteEnrollment(ctx, userID, courseID)
}

func (svc *service) Progress(ctx context.Context, userID, courseID string) (Enrollment, error) {
	return svc.repo.GetEnrollment(ctx, userID, courseID)
}

// SetProgress clamps progress to [0, 100] and stamps completion when the
// course is finished. Progress never goes backwards.
func (svc *service) SetProgress(ctx context.Context, userID, courseID string, progress int) (Enrollment, error) {
	enr, err := svc.repo.GetEnrollment(ctx, userID, courseID)
	if err != nil {
		return Enrollment{}, err
	}

	if progress < 0 {
		progress = 0
	} else if progress > 100 {
		progress = 100
	}
	if progress <= enr.Progress {
		return enr, nil
	}

	enr.Progress = progress
	if progress == 100 && enr.CompletedAt == nil {
		now := time.Now().UTC()
		enr.CompletedAt = &now
	}
	return svc.repo.UpdateEnrollment(ctx, enr)
}

func (svc *service) UserEnrollments(ctx context.Context, userID string) ([]Enrollment, error) {
	return svc.repo.QueryUserEnrollments(ctx, userID)
}

func (svc *service) CourseEnrollments(ctx context.Context, courseID string) ([]Enrollment, error) {
	return svc.repo.QueryCourseEnrollments(ctx, courseID)
}
