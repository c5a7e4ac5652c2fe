package logsvc

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/lyceum/core"
	"github.com/trezcool/lyceum/core/user"
)

var logEntries = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "log_entries_total",
	Help: "Number of log entries written, by level.",
}, []string{"level"})

// RollbarLogger writes to a std logger and mirrors every entry to Rollbar when enabled.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

func (l *RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// Flush blocks until the queued items are sent to Rollbar.
func (l *RollbarLogger) Flush() {
	rollbar.Wait()
}

// log reports msg with its args at level.
// A user.User in args becomes the Rollbar person (the first one only); a staff member
// also tags the item with their role. The other args are forwarded as they are.
func (l *RollbarLogger) log(level, msg string, args []interface{}) {
	logEntries.WithLabelValues(level).Inc()

	var (
		usr    *user.User
		extras map[string]interface{}
	)
	fwd := make([]interface{}, 0, len(args)+2)
	fwd = append(fwd, msg)
	for _, arg := range args {
		switch a := arg.(type) {
		case user.User:
			if usr == nil {
				usr = &a
			}
		case map[string]interface{}:
			extras = a
		default:
			fwd = append(fwd, arg)
		}
	}

	if usr != nil {
		rollbar.SetPerson(usr.ID, usr.Name(), usr.Email)
		if usr.IsStaff() {
			merged := map[string]interface{}{"role": usr.Role}
			for k, v := range extras {
				merged[k] = v
			}
			extras = merged
		}
	} else {
		rollbar.ClearPerson()
	}
	if extras != nil {
		fwd = append(fwd, extras)
	}
	rollbar.Log(level, fwd...)

	l.std.Println(msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) { l.log(rollbar.DEBUG, msg, args) }
func (l *RollbarLogger) Info(msg string, args ...interface{})  { l.log(rollbar.INFO, msg, args) }
func (l *RollbarLogger) Warn(msg string, args ...interface{})  { l.log(rollbar.WARN, msg, args) }
func (l *RollbarLogger) Error(msg string, args ...interface{}) { l.log(rollbar.ERR, msg, args) }

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.CRIT, msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}
