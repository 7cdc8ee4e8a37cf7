package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof on the default mux

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	echoapi "github.com/azizzt/controlescolar/apps/api/echo"
	"github.com/azizzt/controlescolar/core"
	"github.com/azizzt/controlescolar/core/course"
	"github.com/azizzt/controlescolar/core/profile"
	"github.com/azizzt/controlescolar/core/user"
	logsvc "github.com/azizzt/controlescolar/services/logger"
	"github.com/azizzt/controlescolar/storage/database"
	sqlxrepos "github.com/azizzt/controlescolar/storage/database/sqlx"
	redisstore "github.com/azizzt/controlescolar/storage/redis"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	std := logsvc.NewStdLogger(conf)
	logger := logsvc.NewRollbarLogger(std.WithField("app", "API"), conf)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(std.WithField("app", "DB"), conf)
	dbLogger.Enable(!conf.Debug)
	goose.SetLogger(std.WithField("app", "DB"))

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// set up services
	usrSvc := user.NewService(db, sqlxrepos.NewUserRepository(db), validate)
	profileSvc := profile.NewService(db, usrSvc, sqlxrepos.NewProfileRepository(db), validate)
	courseSvc := course.NewService(db, sqlxrepos.NewCourseRepository(db), profileSvc, validate)

	var revoker user.TokenRevoker = sqlxrepos.NewTokenRepository(db)
	if conf.Redis.URL != "" {
		redisRevoker, err := redisstore.NewRevoker(context.Background(), conf.Redis.URL)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up redis: %v", err), err)
		}
		defer func() { _ = redisRevoker.Close() }()
		revoker = redisRevoker
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.
	// /metrics - Prometheus metrics of the API.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugAddress, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			AccessLog:  std.WithField("app", "HTTP"),
			UserSvc:    usrSvc,
			ProfileSvc: profileSvc,
			CourseSvc:  courseSvc,
			Revoker:    revoker,
			Validate:   validate,
			Translator: translator,
			Registry:   registry,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
