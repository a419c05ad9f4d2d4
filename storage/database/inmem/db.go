package inmemdb

import (
	"sync"

	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/payment"
	"github.com/trezcool/darasa/core/user"
)

// DB is a process-local store backing the repositories during tests and
// local development. All tables share one lock to keep cross-table
// operations consistent.
type DB struct {
	mutex sync.RWMutex

	users       map[string]*user.User
	courses     map[string]*course.Course
	enrollments map[enrollmentKey]*course.Enrollment
	payments    map[string]*payment.Payment
}

type enrollmentKey struct {
	userID   string
	courseID string
}

func NewDB() *DB {
	return &DB{
		users:       make(map[string]*user.User),
		courses:     make(map[string]*course.Course),
		enrollments: make(map[enrollmentKey]*course.Enrollment),
		payments:    make(map[string]*payment.Payment),
	}
}
