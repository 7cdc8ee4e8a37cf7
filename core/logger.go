package core

// Logger is the logging contract used across the application.
// expected args: error, map[string]interface{}, user.User (sets the reported person)
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
