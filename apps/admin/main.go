package main

import (
	"fmt"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"

	"github.com/azizzt/controlescolar/core"
	"github.com/azizzt/controlescolar/core/profile"
	"github.com/azizzt/controlescolar/core/user"
	logsvc "github.com/azizzt/controlescolar/services/logger"
	"github.com/azizzt/controlescolar/storage/database"
	sqlxrepos "github.com/azizzt/controlescolar/storage/database/sqlx"
)

var logger *logrus.Entry

func main() {
	conf := core.NewConfig()
	logger = logsvc.NewStdLogger(conf).WithField("app", "ADMIN")
	goose.SetLogger(logger)

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)
	defer func() { _ = db.Close() }()
	errAndDie(db.Ping())

	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	usrSvc := user.NewService(db, sqlxrepos.NewUserRepository(db), validate)

	// start CLI
	cli := commandLine{
		db:         db,
		usrSvc:     usrSvc,
		profileSvc: profile.NewService(db, usrSvc, sqlxrepos.NewProfileRepository(db), validate),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(describe(err, translator))
		}
		_ = db.Close()
		os.Exit(1)
	}
}

// describe renders validation errors field by field.
func describe(err error, translator ut.Translator) string {
	switch vErr := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		msg := "invalid input:"
		for _, fe := range vErr {
			msg += fmt.Sprintf(" %s: %s;", fe.Field(), fe.Translate(translator))
		}
		return msg
	case *core.ValidationError:
		msg := "invalid input:"
		for _, fe := range vErr.Fields {
			msg += fmt.Sprintf(" %s: %s;", fe.Field, fe.Error)
		}
		if len(vErr.Fields) == 0 {
			msg += " " + vErr.Error()
		}
		return msg
	}
	return fmt.Sprintf("error: %s", err)
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
