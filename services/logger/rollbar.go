package logsvc

import (
	"strconv"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"github.com/sirupsen/logrus"

	"github.com/azizzt/controlescolar/core"
	"github.com/azizzt/controlescolar/core/user"
)

// RollbarLogger writes through logrus and reports to Rollbar when enabled.
type RollbarLogger struct {
	std *logrus.Entry
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *logrus.Entry, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

// NewStdLogger returns the logrus logger every RollbarLogger of the app writes to.
func NewStdLogger(conf *core.Config) *logrus.Logger {
	std := logrus.New()
	std.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if conf.Debug {
		std.SetLevel(logrus.DebugLevel)
	} else {
		std.SetFormatter(&logrus.JSONFormatter{})
		std.SetLevel(logrus.InfoLevel)
	}
	return std
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// expected fmt: msg | error, map[string]interface{}, user.User
func (l RollbarLogger) prepare(msg string, args []interface{}) ([]interface{}, *logrus.Entry) {
	var usrSet bool
	entry := l.std
	newArgs := make([]interface{}, 0, len(args)+1)
	newArgs = append(newArgs, msg)
	for _, arg := range args {
		switch a := arg.(type) {
		case user.User: // set logged in User
			if !usrSet { // only set one User
				rollbar.SetPerson(strconv.Itoa(a.ID), a.Username, a.Email)
				entry = entry.WithField("user_id", a.ID)
				usrSet = true
			}
		case error:
			entry = entry.WithError(a)
			newArgs = append(newArgs, a)
		case map[string]interface{}:
			entry = entry.WithFields(a)
			newArgs = append(newArgs, a)
		default:
			newArgs = append(newArgs, arg)
		}
	}
	if !usrSet {
		rollbar.ClearPerson()
	}
	return newArgs, entry
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rArgs, entry := l.prepare(msg, args)
	rollbar.Debug(rArgs...)
	entry.Debug(msg)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rArgs, entry := l.prepare(msg, args)
	rollbar.Info(rArgs...)
	entry.Info(msg)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rArgs, entry := l.prepare(msg, args)
	rollbar.Warning(rArgs...)
	entry.Warn(msg)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rArgs, entry := l.prepare(msg, args)
	rollbar.Error(rArgs...)
	entry.Error(msg)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rArgs, entry := l.prepare(msg, args)
	rollbar.Critical(rArgs...)
	rollbar.Wait()
	entry.Fatal(msg)
}
