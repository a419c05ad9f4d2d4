package course_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/course"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
)

func newTestService(t *testing.T) course.ServiceInterface {
	t.Helper()
	return course.NewService(inmemdb.NewCourseRepository(inmemdb.NewDB()))
}

func createCourse(t *testing.T, svc course.ServiceInterface, title, instructorID string, price float64) course.Course {
	t.Helper()
	crs, err := svc.Create(context.Background(), instructorID, course.NewCourse{
		Title:       title,
		Description: "Everything you need to know, from zero to production.",
		Category:    "programming",
		Level:       course.LevelBeginner,
		Price:       price,
		Duration:    "12 weeks",
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	return crs
}

func Test_service_Create(t *testing.T) {
	svc := newTestService(t)

	crs := createCourse(t, svc, "Go from the Ground Up", "instr-1", 4500)
	if crs.ID == "" {
		t.Error("Create() did not assign an ID")
	}
	if crs.InstructorID != "instr-1" {
		t.Errorf("InstructorID = %s; want instr-1", crs.InstructorID)
	}
	if crs.CreatedAt.IsZero() || crs.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}
	if crs.StudentCount != 0 {
		t.Errorf("StudentCount = %d; want 0", crs.StudentCount)
	}
}

func Test_service_Update(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	crs := createCourse(t, svc, "Go from the Ground Up", "instr-1", 4500)

	newPrice := 5500.0
	updated, err := svc.Update(ctx, crs.ID, course.UpdateCourse{Title: "Go from Zero to Production", Price: &newPrice})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if updated.Title != "Go from Zero to Production" {
		t.Errorf("Title = %s; want the new title", updated.Title)
	}
	if updated.Price != newPrice {
		t.Errorf("Price = %v; want %v", updated.Price, newPrice)
	}
	// untouched fields survive
	if updated.Description != crs.Description {
		t.Errorf("Description = %s; want %s", updated.Description, crs.Description)
	}
	if updated.InstructorID != crs.InstructorID {
		t.Errorf("InstructorID = %s; want %s", updated.InstructorID, crs.InstructorID)
	}

	if _, err = svc.Update(ctx, "lol", course.UpdateCourse{Title: "Nope Nope Nope"}); errors.Cause(err) != course.ErrNotFound {
		t.Errorf("Update(unknown) error = %v; want %v", err, course.ErrNotFound)
	}
}

func Test_service_Query(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	golang := createCourse(t, svc, "Go from the Ground Up", "instr-1", 4500)
	python := createCourse(t, svc, "Data Science with Python", "instr-2", 6500)

	tests := []struct {
		name   string
		filter *course.QueryFilter
		want   []string // course IDs
	}{
		{name: "all", filter: &course.QueryFilter{}, want: []string{golang.ID, python.ID}},
		{name: "search", filter: &course.QueryFilter{Search: "python"}, want: []string{python.ID}},
		{name: "search (unknown)", filter: &course.QueryFilter{Search: "lol"}, want: nil},
		{name: "category", filter: &course.QueryFilter{Category: "PROGRAMMING"}, want: []string{golang.ID, python.ID}},
		{name: "instructor", filter: &course.QueryFilter{InstructorID: "instr-2"}, want: []string{python.ID}},
		{name: "level (unknown)", filter: &course.QueryFilter{Level: course.LevelAdvanced}, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			courses, err := svc.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query() failed: %v", err)
			}
			if len(courses) != len(tt.want) {
				t.Fatalf("Query() returned %d courses; want %d", len(courses), len(tt.want))
			}
			for i, id := range tt.want {
				if courses[i].ID != id {
					t.Errorf("courses[%d].ID = %s; want %s", i, courses[i].ID, id)
				}
			}
		})
	}
}

func Test_service_Enroll(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	crs := createCourse(t, svc, "Go from the Ground Up", "instr-1", 4500)

	if _, err := svc.Enroll(ctx, "user-1", "lol"); errors.Cause(err) != course.ErrNotFound {
		t.Errorf("Enroll(unknown course) error = %v; want %v", err, course.ErrNotFound)
	}

	enr, err := svc.Enroll(ctx, "user-1", crs.ID)
	if err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}
	if enr.Progress != 0 {
		t.Errorf("Progress = %d; want 0", enr.Progress)
	}
	if enr.EnrolledAt.IsZero() {
		t.Error("EnrolledAt not set")
	}
	if enr.Completed() {
		t.Error("fresh enrollment reported as completed")
	}

	if _, err = svc.Enroll(ctx, "user-1", crs.ID); errors.Cause(err) != course.ErrAlreadyEnrolled {
		t.Errorf("second Enroll() error = %v; want %v", err, course.ErrAlreadyEnrolled)
	}

	refreshed, err := svc.GetByID(ctx, crs.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if refreshed.StudentCount != 1 {
		t.Errorf("StudentCount = %d; want 1", refreshed.StudentCount)
	}

	if err = svc.Unenroll(ctx, "user-1", crs.ID); err != nil {
		t.Fatalf("Unenroll() failed: %v", err)
	}
	if err = svc.Unenroll(ctx, "user-1", crs.ID); errors.Cause(err) != course.ErrNotEnrolled {
		t.Errorf("second Unenroll() error = %v; want %v", err, course.ErrNotEnrolled)
	}
	refreshed, err = svc.GetByID(ctx, crs.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if refreshed.StudentCount != 0 {
		t.Errorf("StudentCount = %d; want 0", refreshed.StudentCount)
	}
}

func Test_service_SetProgress(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	crs := createCourse(t, svc, "Go from the Ground Up", "instr-1", 4500)
	if _, err := svc.Enroll(ctx, "user-1", crs.ID); err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}

	if _, err := svc.SetProgress(ctx, "user-2", crs.ID, 50); errors.Cause(err) != course.ErrNotEnrolled {
		t.Errorf("SetProgress(not enrolled) error = %v; want %v", err, course.ErrNotEnrolled)
	}

	enr, err := svc.SetProgress(ctx, "user-1", crs.ID, 40)
	if err != nil {
		t.Fatalf("SetProgress() failed: %v", err)
	}
	if enr.Progress != 40 {
		t.Errorf("Progress = %d; want 40", enr.Progress)
	}

	// progress never goes backwards
	if enr, err = svc.SetProgress(ctx, "user-1", crs.ID, 10); err != nil {
		t.Fatalf("SetProgress() failed: %v", err)
	}
	if enr.Progress != 40 {
		t.Errorf("Progress = %d; want 40", enr.Progress)
	}

	// negative values clamp to 0, which never beats the current progress
	if enr, err = svc.SetProgress(ctx, "user-1", crs.ID, -10); err != nil {
		t.Fatalf("SetProgress() failed: %v", err)
	}
	if enr.Progress != 40 {
		t.Errorf("Progress = %d; want 40", enr.Progress)
	}

	// >100 clamps to 100 and completes the course
	if enr, err = svc.SetProgress(ctx, "user-1", crs.ID, 250); err != nil {
		t.Fatalf("SetProgress() failed: %v", err)
	}
	if enr.Progress != 100 {
		t.Errorf("Progress = %d; want 100", enr.Progress)
	}
	if !enr.Completed() {
		t.Error("enrollment not completed at 100%")
	}
	completedAt := *enr.CompletedAt

	// completion timestamp is stable
	if enr, err = svc.SetProgress(ctx, "user-1", crs.ID, 100); err != nil {
		t.Fatalf("SetProgress() failed: %v", err)
	}
	if !enr.CompletedAt.Equal(completedAt) {
		t.Errorf("CompletedAt = %v; want %v", enr.CompletedAt, completedAt)
	}
}

func Test_service_Delete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	crs := createCourse(t, svc, "Go from the Ground Up", "instr-1", 4500)
	if _, err := svc.Enroll(ctx, "user-1", crs.ID); err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}

	if err := svc.Delete(ctx, crs.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := svc.GetByID(ctx, crs.ID); errors.Cause(err) != course.ErrNotFound {
		t.Errorf("GetByID() error = %v; want %v", err, course.ErrNotFound)
	}
	// enrollments go with the course
	enrs, err := svc.UserEnrollments(ctx, "user-1")
	if err != nil {
		t.Fatalf("UserEnrollments() failed: %v", err)
	}
	if len(enrs) != 0 {
		t.Errorf("len(enrollments) = %d; want 0", len(enrs))
	}
}
