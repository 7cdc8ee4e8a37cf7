package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/azizzt/controlescolar/core"
	"github.com/azizzt/controlescolar/core/course"
	"github.com/azizzt/controlescolar/core/profile"
	"github.com/azizzt/controlescolar/core/user"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		AccessLog  logrus.FieldLogger // request logs; none when nil
		UserSvc    *user.Service
		ProfileSvc *profile.Service
		CourseSvc  *course.Service
		Revoker    user.TokenRevoker
		Validate   *validator.Validate
		Translator ut.Translator
		Registry   prometheus.Registerer // defaults to a private registry
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		shutdown chan os.Signal
		errors   chan error
	}

	// resource is a CRUD controller: `GET ?id=`, `POST`, `PUT` (id in body), `DELETE ?id=` & a paginated list.
	resource interface {
		retrieve(ctx echo.Context) error
		create(ctx echo.Context) error
		update(ctx echo.Context) error
		destroy(ctx echo.Context) error
		query(ctx echo.Context) error
	}

	// resourceConfig is the routing & authorization configuration of one resource.
	resourceConfig struct {
		paths     []string
		listPaths []string
		get       user.Policy
		create    user.Policy
		update    user.Policy
		delete    user.Policy
		list      user.Policy
	}
)

func NewServer(deps ServerDeps) *Server {
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		shutdown: make(chan os.Signal, 1),
		errors:   make(chan error, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(newMetrics(s.deps.Registry).middleware)
	if !conf.Server.DisableReqLogs && s.deps.AccessLog != nil {
		s.app.Use(requestLogger(s.deps.AccessLog))
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if len(conf.Server.CORSAllowedOrigins) > 0 {
		s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: conf.Server.CORSAllowedOrigins,
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)

	ta := newTokenAuth(conf)
	auth := authMiddleware(ta, s.deps.UserSvc, s.deps.Revoker)

	account := accountAPI{
		auth:       ta,
		usrSvc:     s.deps.UserSvc,
		profileSvc: s.deps.ProfileSvc,
		revoker:    s.deps.Revoker,
		validate:   s.deps.Validate,
	}
	s.app.POST("/login", account.login)
	s.app.POST("/logout", account.logout, auth)
	s.app.GET("/me", account.me, auth, policyMiddleware(user.IsAuthenticated))
	s.app.GET("/total-usuarios", account.totals, auth, policyMiddleware(user.IsAuthenticated))

	pg := conf.Pagination
	byLastName := []core.DBOrdering{{Field: "user__last_name", Ascending: true}}

	s.registerResource(
		adminAPI{svc: s.deps.ProfileSvc, listing: listConfig{
			pageSize:        pg.PageSize,
			maxPageSize:     pg.MaxPageSize,
			orderingFields:  []string{"id", "clave_admin", "user__first_name", "user__last_name"},
			defaultOrdering: byLastName,
			searchFields:    []string{"user__first_name", "user__last_name", "clave_admin", "rfc"},
		}},
		resourceConfig{
			paths:     []string{"/admin", "/admins"},
			listPaths: []string{"/lista-admins"},
			get:       user.IsAdministrator,
			create:    user.IsAdministrator,
			update:    user.IsAdministrator,
			delete:    user.IsAdministrator,
			list:      user.IsAdministrator,
		},
		auth,
	)

	s.registerResource(
		teacherAPI{svc: s.deps.ProfileSvc, listing: listConfig{
			pageSize:        pg.PageSize,
			maxPageSize:     pg.MaxPageSize,
			orderingFields:  []string{"id", "id_trabajador", "user__first_name", "user__last_name"},
			defaultOrdering: byLastName,
			searchFields:    []string{"user__first_name", "user__last_name", "id_trabajador", "rfc"},
		}},
		resourceConfig{
			paths:     []string{"/maestros", "/teachers"},
			listPaths: []string{"/lista-maestros", "/lista-teachers"},
			get:       user.IsAdministratorOrTeacher,
			create:    user.IsAdministrator,
			update:    user.IsAdministrator,
			delete:    user.IsAdministrator,
			list:      user.IsAdministratorOrTeacher,
		},
		auth,
	)

	s.registerResource(
		studentAPI{svc: s.deps.ProfileSvc, listing: listConfig{
			pageSize:        pg.PageSize,
			maxPageSize:     pg.MaxPageSize,
			orderingFields:  []string{"id", "matricula", "user__first_name", "user__last_name"},
			defaultOrdering: byLastName,
			searchFields:    []string{"user__first_name", "user__last_name", "matricula", "curp"},
		}},
		resourceConfig{
			paths:     []string{"/alumnos", "/students"},
			listPaths: []string{"/lista-alumnos", "/lista-students"},
			get:       user.IsAnyRole,
			create:    user.IsAdministrator,
			update:    user.IsAdministrator,
			delete:    user.IsAdministrator,
			list:      user.IsAnyRole,
		},
		auth,
	)

	s.registerResource(
		courseAPI{svc: s.deps.CourseSvc, listing: listConfig{
			pageSize:        pg.PageSize,
			maxPageSize:     pg.MaxPageSize,
			orderingFields:  []string{"id", "nrc", "nombre"},
			defaultOrdering: []core.DBOrdering{{Field: "nombre", Ascending: true}},
			searchFields:    []string{"nrc", "nombre", "programa_educativo"},
		}},
		resourceConfig{
			paths:     []string{"/materias", "/courses"},
			listPaths: []string{"/lista-materias", "/lista-courses"},
			get:       user.IsAdministratorOrTeacher,
			create:    user.IsAdministratorOrTeacher,
			update:    user.IsAdministratorOrTeacher,
			delete:    user.IsAdministratorOrTeacher,
			list:      user.IsAnyRole,
		},
		auth,
	)
}

func (s *Server) registerResource(res resource, conf resourceConfig, auth echo.MiddlewareFunc) {
	for _, path := range conf.paths {
		s.app.GET(path, res.retrieve, auth, policyMiddleware(conf.get))
		s.app.POST(path, res.create, auth, policyMiddleware(conf.create))
		s.app.PUT(path, res.update, auth, policyMiddleware(conf.update))
		s.app.DELETE(path, res.destroy, auth, policyMiddleware(conf.delete))
	}
	for _, path := range conf.listPaths {
		s.app.GET(path, res.query, auth, policyMiddleware(conf.list))
	}
}

func requestLogger(logger logrus.FieldLogger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		HandleError: true, // logs the status actually sent
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(ctx echo.Context, v middleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"method":    v.Method,
				"uri":       v.URI,
				"status":    v.Status,
				"latency":   v.Latency.String(),
				"remote_ip": v.RemoteIP,
			})
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("request")
			return nil
		},
	})
}

func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.errors <- errors.Wrap(err, "starting server")
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

// Errors reports listener failures.
func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}
