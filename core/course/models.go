package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

// Levels
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

type Course struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Level        string    `json:"level"`
	Price        float64   `json:"price"`
	Duration     string    `json:"duration"`
	InstructorID string    `json:"instructor_id"`
	Rating       float64   `json:"rating"`
	StudentCount int       `json:"student_count"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// Enrollment ties a student to a course, with progress tracked as the
// student works through the learning center.
type Enrollment struct {
	UserID      string     `json:"user_id"`
	CourseID    string     `json:"course_id"`
	Progress    int        `json:"progress"` // 0 - 100
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	EnrolledAt  time.Time  `json:"enrolled_at"` // UTC
}

func (e Enrollment) Completed() bool { return e.CompletedAt != nil }

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Title       string  `json:"title" validate:"required,min=5"`
	Description string  `json:"description" validate:"required,min=20"`
	Category    string  `json:"category" validate:"required,alphanum_"`
	Level       string  `json:"level" validate:"required,oneof=beginner intermediate advanced"`
	Price       float64 `json:"price" validate:"gte=0"`
	Duration    string  `json:"duration" validate:"required"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	nc.Category = core.CleanString(nc.Category)
	nc.Level = core.CleanString(nc.Level, true /* lower */)
	return validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
type UpdateCourse struct {
	Title       string   `json:"title" validate:"omitempty,min=5"`
	Description string   `json:"description" validate:"omitempty,min=20"`
	Category    string   `json:"category" validate:"omitempty,alphanum_"`
	Level       string   `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Duration    string   `json:"duration"`
}

func (uc *UpdateCourse) Validate(validate *validator.Validate) error {
	uc.Title = core.CleanString(uc.Title)
	uc.Description = core.CleanString(uc.Description)
	uc.Category = core.CleanString(uc.Category)
	uc.Level = core.CleanString(uc.Level, true /* lower */)
	return validate.Struct(uc)
}

type QueryFilter struct {
	Search       string `query:"search"`
	Category     string `query:"category"`
	Level        string `query:"level"`
	InstructorID string `query:"instructor"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Category == "" && qf.Level == "" && qf.InstructorID == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Category = core.CleanString(qf.Category)
	qf.Level = core.CleanString(qf.Level, true /* lower */)
}
