package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
)

type courseRow struct {
	ID           string    `db:"id"`
	Title        string    `db:"title"`
	Description  string    `db:"description"`
	Category     string    `db:"category"`
	Level        string    `db:"level"`
	Price        float64   `db:"price"`
	Duration     string    `db:"duration"`
	InstructorID string    `db:"instructor_id"`
	Rating       float64   `db:"rating"`
	StudentCount int       `db:"student_count"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (row courseRow) toCore() course.Course {
	return course.Course(row)
}

type enrollmentRow struct {
	UserID      string    `db:"user_id"`
	CourseID    string    `db:"course_id"`
	Progress    int       `db:"progress"`
	CompletedAt null.Time `db:"completed_at"`
	EnrolledAt  time.Time `db:"enrolled_at"`
}

func (row enrollmentRow) toCore() course.Enrollment {
	enr := course.Enrollment{
		UserID:     row.UserID,
		CourseID:   row.CourseID,
		Progress:   row.Progress,
		EnrolledAt: row.EnrolledAt,
	}
	if row.CompletedAt.Valid {
		completedAt := row.CompletedAt.Time
		enr.CompletedAt = &completedAt
	}
	return enr
}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	crs.ID = uuid.NewString()
	query := `
INSERT INTO courses (id, title, description, category, level, price, duration, instructor_id, rating, student_count, created_at, updated_at)
VALUES (:id, :title, :description, :category, :level, :price, :duration, :instructor_id, :rating, :student_count, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, courseRow(crs)); err != nil {
		return course.Course{}, errors.Wrap(err, "creating course")
	}
	return crs, nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	var row courseRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind(`SELECT * FROM courses WHERE id = ?`), id); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "getting course by ID")
	}
	return row.toCore(), nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter, ordering ...core.DBOrdering) ([]course.Course, error) {
	query := `SELECT * FROM courses`
	var conds []string
	var args []interface{}

	if filter != nil && !filter.IsEmpty() {
		if filter.Search != "" {
			conds = append(conds, `(title ILIKE ? OR description ILIKE ?)`)
			search := "%" + filter.Search + "%"
			args = append(args, search, search)
		}
		if filter.Category != "" {
			conds = append(conds, `category ILIKE ?`)
			args = append(args, filter.Category)
		}
		if filter.Level != "" {
			conds = append(conds, `level = ?`)
			args = append(args, filter.Level)
		}
		if filter.InstructorID != "" {
			conds = append(conds, `instructor_id = ?`)
			args = append(args, filter.InstructorID)
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += orderBy(ordering, map[string]bool{"title": true, "price": true, "rating": true, "created_at": true})

	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.toCore())
	}
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	var sets []string
	var args []interface{}

	set := func(col string, val interface{}) {
		sets = append(sets, fmt.Sprintf("%s = ?", col))
		args = append(args, val)
	}
	if crs.Title != "" {
		set("title", crs.Title)
	}
	if crs.Description != "" {
		set("description", crs.Description)
	}
	if crs.Category != "" {
		set("category", crs.Category)
	}
	if crs.Level != "" {
		set("level", crs.Level)
	}
	if crs.Price != 0 {
		set("price", crs.Price)
	}
	if crs.Duration != "" {
		set("duration", crs.Duration)
	}
	if crs.Rating != 0 {
		set("rating", crs.Rating)
	}
	if !crs.UpdatedAt.IsZero() {
		set("updated_at", crs.UpdatedAt)
	}
	if len(sets) == 0 {
		return repo.GetCourseByID(ctx, crs.ID)
	}

	query := fmt.Sprintf(`UPDATE courses SET %s WHERE id = ?`, strings.Join(sets, ", "))
	args = append(args, crs.ID)
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return repo.GetCourseByID(ctx, crs.ID)
}

func (repo *courseRepository) DeleteCoursesByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM courses WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting courses")
	}
	return nil
}

func (repo *courseRepository) CreateEnrollment(ctx context.Context, enr course.Enrollment) (course.Enrollment, error) {
	query := `
INSERT INTO enrollments (user_id, course_id, progress, completed_at, enrolled_at)
VALUES (:user_id, :course_id, :progress, :completed_at, :enrolled_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, toEnrollmentRow(enr)); err != nil {
		return course.Enrollment{}, errors.Wrap(err, "creating enrollment")
	}

	bump := `UPDATE courses SET student_count = student_count + 1 WHERE id = ?`
	if _, err := repo.db.ExecContext(ctx, repo.db.Rebind(bump), enr.CourseID); err != nil {
		return course.Enrollment{}, errors.Wrap(err, "updating student count")
	}
	return enr, nil
}

func (repo *courseRepository) GetEnrollment(ctx context.Context, userID, courseID string) (course.Enrollment, error) {
	var row enrollmentRow
	query := `SELECT * FROM enrollments WHERE user_id = ? AND course_id = ?`
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind(query), userID, courseID); err != nil {
		if err == sql.ErrNoRows {
			return course.Enrollment{}, course.ErrNotEnrolled
		}
		return course.Enrollment{}, errors.Wrap(err, "getting enrollment")
	}
	return row.toCore(), nil
}

func (repo *courseRepository) QueryUserEnrollments(ctx context.Context, userID string) ([]course.Enrollment, error) {
	query := `SELECT * FROM enrollments WHERE user_id = ? ORDER BY enrolled_at ASC`
	return repo.queryEnrollments(ctx, query, userID)
}

func (repo *courseRepository) QueryCourseEnrollments(ctx context.Context, courseID string) ([]course.Enrollment, error) {
	query := `SELECT * FROM enrollments WHERE course_id = ? ORDER BY enrolled_at ASC`
	return repo.queryEnrollments(ctx, query, courseID)
}

func (repo *courseRepository) queryEnrollments(ctx context.Context, query string, arg interface{}) ([]course.Enrollment, error) {
	var rows []enrollmentRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), arg); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	enrs := make([]course.Enrollment, 0, len(rows))
	for _, row := range rows {
		enrs = append(enrs, row.toCore())
	}
	return enrs, nil
}

func (repo *courseRepository) UpdateEnrollment(ctx context.Context, enr course.Enrollment) (course.Enrollment, error) {
	query := `
UPDATE enrollments SET progress = :progress, completed_at = :completed_at
WHERE user_id = :user_id AND course_id = :course_id`
	res, err := repo.db.NamedExecContext(ctx, query, toEnrollmentRow(enr))
	if err != nil {
		return course.Enrollment{}, errors.Wrap(err, "updating enrollment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Enrollment{}, course.ErrNotEnrolled
	}
	return enr, nil
}

func (repo *courseRepository) DeleteEnrollment(ctx context.Context, userID, courseID string) error {
	query := `DELETE FROM enrollments WHERE user_id = ? AND course_id = ?`
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), userID, courseID)
	if err != nil {
		return errors.Wrap(err, "deleting enrollment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.ErrNotEnrolled
	}

	drop := `UPDATE courses SET student_count = student_count - 1 WHERE id = ? AND student_count > 0`
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(drop), courseID); err != nil {
		return errors.Wrap(err, "updating student count")
	}
	return nil
}

func toEnrollmentRow(enr course.Enrollment) enrollmentRow {
	row := enrollmentRow{
		UserID:     enr.UserID,
		CourseID:   enr.CourseID,
		Progress:   enr.Progress,
		EnrolledAt: enr.EnrolledAt,
	}
	if enr.CompletedAt != nil {
		row.CompletedAt = null.TimeFrom(*enr.CompletedAt)
	}
	return row
}
