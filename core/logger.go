package core

// Logger is any leveled logging service the app can report to.
//
// Implementations may inspect args for known types (eg. the logged-in user)
// to enrich reports sent to external trackers.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Critical(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
