package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	crs.ID = uuid.NewString()
	repo.db.courses[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) GetCourseByID(_ context.Context, id string) (course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if crs, ok := repo.db.courses[id]; ok {
		return *crs, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter *course.QueryFilter, ordering ...core.DBOrdering) ([]course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, crs := range repo.db.courses {
		if filter == nil || filter.IsEmpty() || matchCourse(*crs, filter) {
			courses = append(courses, *crs)
		}
	}
	sortCourses(courses, ordering)
	return courses, nil
}

func matchCourse(crs course.Course, filter *course.QueryFilter) bool {
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(crs.Title), search) &&
			!strings.Contains(strings.ToLower(crs.Description), search) {
			return false
		}
	}
	if filter.Category != "" && !strings.EqualFold(crs.Category, filter.Category) {
		return false
	}
	if filter.Level != "" && crs.Level != filter.Level {
		return false
	}
	if filter.InstructorID != "" && crs.InstructorID != filter.InstructorID {
		return false
	}
	return true
}

func sortCourses(courses []course.Course, ordering []core.DBOrdering) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at", Ascending: true}}
	}
	ord := ordering[0]
	sort.SliceStable(courses, func(i, j int) bool {
		var less bool
		switch ord.Field {
		case "title":
			less = courses[i].Title < courses[j].Title
		case "price":
			less = courses[i].Price < courses[j].Price
		case "rating":
			less = courses[i].Rating < courses[j].Rating
		default:
			less = courses[i].CreatedAt.Before(courses[j].CreatedAt)
		}
		if !ord.Ascending {
			return !less
		}
		return less
	})
}

func (repo *courseRepository) UpdateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// only save set fields
	origCrs, ok := repo.db.courses[crs.ID]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	if crs.Title != "" {
		origCrs.Title = crs.Title
	}
	if crs.Description != "" {
		origCrs.Description = crs.Description
	}
	if crs.Category != "" {
		origCrs.Category = crs.Category
	}
	if crs.Level != "" {
		origCrs.Level = crs.Level
	}
	if crs.Price != 0 {
		origCrs.Price = crs.Price
	}
	if crs.Duration != "" {
		origCrs.Duration = crs.Duration
	}
	if crs.Rating != 0 {
		origCrs.Rating = crs.Rating
	}
	if !crs.UpdatedAt.IsZero() {
		origCrs.UpdatedAt = crs.UpdatedAt
	}
	return *origCrs, nil
}

func (repo *courseRepository) DeleteCoursesByID(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.courses, id)
		for key := range repo.db.enrollments {
			if key.courseID == id {
				delete(repo.db.enrollments, key)
			}
		}
	}
	return nil
}

func (repo *courseRepository) CreateEnrollment(_ context.Context, enr course.Enrollment) (course.Enrollment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := enrollmentKey{userID: enr.UserID, courseID: enr.CourseID}
	if _, ok := repo.db.enrollments[key]; ok {
		return course.Enrollment{}, course.ErrAlreadyEnrolled
	}
	repo.db.enrollments[key] = &enr

	if crs, ok := repo.db.courses[enr.CourseID]; ok {
		crs.StudentCount++
	}
	return enr, nil
}

func (repo *courseRepository) GetEnrollment(_ context.Context, userID, courseID string) (course.Enrollment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if enr, ok := repo.db.enrollments[enrollmentKey{userID: userID, courseID: courseID}]; ok {
		return *enr, nil
	}
	return course.Enrollment{}, course.ErrNotEnrolled
}

func (repo *courseRepository) QueryUserEnrollments(_ context.Context, userID string) ([]course.Enrollment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	enrs := make([]course.Enrollment, 0)
	for key, enr := range repo.db.enrollments {
		if key.userID == userID {
			enrs = append(enrs, *enr)
		}
	}
	sort.Slice(enrs, func(i, j int) bool { return enrs[i].EnrolledAt.Before(enrs[j].EnrolledAt) })
	return enrs, nil
}

func (repo *courseRepository) QueryCourseEnrollments(_ context.Context, courseID string) ([]course.Enrollment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	enrs := make([]course.Enrollment, 0)
	for key, enr := range repo.db.enrollments {
		if key.courseID == courseID {
			enrs = append(enrs, *enr)
		}
	}
	sort.Slice(enrs, func(i, j int) bool { return enrs[i].EnrolledAt.Before(enrs[j].EnrolledAt) })
	return enrs, nil
}

func (repo *courseRepository) UpdateEnrollment(_ context.Context, enr course.Enrollment) (course.Enrollment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := enrollmentKey{userID: enr.UserID, courseID: enr.CourseID}
	if _, ok := repo.db.enrollments[key]; !ok {
		return course.Enrollment{}, course.ErrNotEnrolled
	}
	repo.db.enrollments[key] = &enr
	return enr, nil
}

func (repo *courseRepository) DeleteEnrollment(_ context.Context, userID, courseID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := enrollmentKey{userID: userID, courseID: courseID}
	if _, ok := repo.db.enrollments[key]; !ok {
		return course.ErrNotEnrolled
	}
	delete(repo.db.enrollments, key)
	if crs, ok := repo.db.courses[courseID]; ok && crs.StudentCount > 0 {
		crs.StudentCount--
	}
	return nil
}
