package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/lyceum/apps/api/echo"
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
	emailsvc "github.com/trezcool/lyceum/services/email"
	logsvc "github.com/trezcool/lyceum/services/logger"
	paymentsvc "github.com/trezcool/lyceum/services/payment"
	pushsvc "github.com/trezcool/lyceum/services/push"
	smssvc "github.com/trezcool/lyceum/services/sms"
	rediscache "github.com/trezcool/lyceum/storage/cache/redis"
	"github.com/trezcool/lyceum/storage/database"
	inmemdb "github.com/trezcool/lyceum/storage/database/inmem"
	sqlxrepos "github.com/trezcool/lyceum/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type serverParams struct {
	dig.In

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

func newLogger(conf *core.Config) *logsvc.RollbarLogger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sqlx.DB, core.DB) {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db.DB); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db
}

// newOTPStore keeps the codes in memory in DEV; they must survive restarts & scale out everywhere else.
func newOTPStore(conf *core.Config, logger core.Logger) otp.Store {
	if conf.Debug {
		return inmemdb.NewOTPStore()
	}
	client, err := rediscache.NewClient(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("connecting to redis: %v", err), err)
	}
	return rediscache.NewOTPStore(client)
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newSMSService(conf *core.Config, logger core.Logger) core.SMSService {
	if conf.Debug {
		return smssvc.NewConsoleService(logger)
	}
	return smssvc.NewTwilioService(conf)
}

func newPushService(conf *core.Config, logger core.Logger) core.PushService {
	if conf.Debug {
		return pushsvc.NewConsoleService(logger)
	}
	svc, err := pushsvc.NewFCMService(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up FCM: %v", err), err)
	}
	return svc
}

func newPaymentGateway(conf *core.Config, logger core.Logger) core.PaymentGateway {
	if conf.Debug && conf.StripeSecretKey == "" {
		return paymentsvc.NewConsoleGateway(logger)
	}
	return paymentsvc.NewStripeGateway(conf)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:            p.Conf,
		Logger:          p.Logger,
		Validate:        p.Validate,
		Translator:      p.Translator,
		UserSvc:         p.UserSvc,
		OTPSvc:          p.OTPSvc,
		CourseSvc:       p.CourseSvc,
		EnrollmentSvc:   p.EnrollmentSvc,
		PaymentSvc:      p.PaymentSvc,
		AttendanceSvc:   p.AttendanceSvc,
		ScheduleSvc:     p.ScheduleSvc,
		RecordingSvc:    p.RecordingSvc,
		ExamSvc:         p.ExamSvc,
		NotificationSvc: p.NotificationSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	// infra
	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(func(l *logsvc.RollbarLogger) core.Logger { return l }))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newOTPStore))
	must(c.Provide(newEmailService))
	must(c.Provide(newSMSService))
	must(c.Provide(newPushService))
	must(c.Provide(newPaymentGateway))
	must(c.Provide(validator.New))
	must(c.Provide(newTranslator))

	// repositories
	must(c.Provide(sqlxrepos.NewUserRepository, dig.As(new(user.Repository))))
	must(c.Provide(sqlxrepos.NewCourseRepository, dig.As(new(course.Repository))))
	must(c.Provide(sqlxrepos.NewEnrollmentRepository, dig.As(new(enrollment.Repository))))
	must(c.Provide(sqlxrepos.NewAttendanceRepository, dig.As(new(attendance.Repository))))
	must(c.Provide(sqlxrepos.NewScheduleRepository, dig.As(new(schedule.Repository))))
	must(c.Provide(sqlxrepos.NewRecordingRepository, dig.As(new(recording.Repository))))
	must(c.Provide(sqlxrepos.NewExamRepository, dig.As(new(exam.Repository))))
	must(c.Provide(sqlxrepos.NewNotificationRepository, dig.As(new(notification.Repository))))

	// services
	must(c.Provide(user.NewService))
	must(c.Provide(otp.NewService))
	must(c.Provide(notification.NewService))
	must(c.Provide(course.NewService))
	must(c.Provide(enrollment.NewService))
	must(c.Provide(payment.NewService))
	must(c.Provide(attendance.NewService))
	must(c.Provide(schedule.NewService))
	must(c.Provide(recording.NewService))
	must(c.Provide(exam.NewService))

	// services depend on each other through small interfaces
	must(c.Provide(func(svc user.Service) notification.TokenSource { return svc }))
	must(c.Provide(func(svc user.Service) enrollment.UserGetter { return svc }))
	must(c.Provide(func(svc *notification.Service) course.Notifier { return svc }))
	must(c.Provide(func(svc *course.Service) enrollment.CourseGetter { return svc }))
	must(c.Provide(func(svc *course.Service) schedule.CourseGetter { return svc }))
	must(c.Provide(func(svc *enrollment.Service) attendance.EnrollmentQuerier { return svc }))

	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
