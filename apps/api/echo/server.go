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

	"github.com/trezcool/lyceum/core"
	"github.com/trezcool/lyceum/core/attendance"
	"github.com/trezcool/lyceum/core/course"
	"github.com/trezcool/lyceum/core/enrollment"
	"github.com/trezcool/lyceum/core/exam"
	"github.com/trezcool/lyceum/core/notification"
	"github.com/trezcool/lyceum/core/otp"
	"github.com/trezcool/lyceum/core/payment"
	"github.com/trezcool/lyceum/core/recording"
	"github.com/trezcool/lyceum/core/schedule"
	"github.com/trezcool/lyceum/core/user"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

		UserSvc         user.Service
		OTPSvc          *otp.Service
		CourseSvc       *course.Service
		EnrollmentSvc   *enrollment.Service
		PaymentSvc      *payment.Service
		AttendanceSvc   *attendance.Service
		ScheduleSvc     *schedule.Service
		RecordingSvc    *recording.Service
		ExamSvc         *exam.Service
		NotificationSvc *notification.Service
	}

	Server struct {
		conf     *core.Config
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		conf:     deps.Conf,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup(deps)
	return s
}

func (s *Server) setup(deps ServerDeps) {
	conf := deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	s.app.Use(metricsMiddleware)
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(deps.Logger, deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug
	if conf.Debug {
		s.app.Logger.SetLevel(log.DEBUG)
	}

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(newJWTConfig(conf))
	authed := []echo.MiddlewareFunc{jwt, currentUserMiddleware(deps.UserSvc)}

	registerUserAPI(v1, authed, deps)
	registerCourseAPI(v1, authed, deps)
	registerEnrollmentAPI(v1, authed, deps)
	registerPaymentAPI(v1, authed, deps)
	registerAttendanceAPI(v1, authed, deps)
	registerScheduleAPI(v1, authed, deps)
	registerRecordingAPI(v1, authed, deps)
	registerExamAPI(v1, authed, deps)
	registerNotificationAPI(v1, authed, deps)
}

// Start blocks until the server stops. Failures are reported on Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.conf.AppName+" API!")
}
