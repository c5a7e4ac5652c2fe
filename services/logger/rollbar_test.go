package logsvc

import (
	"bytes"
	"errors"
	"log"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rollbar/rollbar-go"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/lyceum/core"
	"github.com/trezcool/lyceum/core/user"
)

func TestRollbarLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewRollbarLogger(log.New(&buf, "", 0), &core.Config{})
	logger.Enable(false)

	before := testutil.ToFloat64(logEntries.WithLabelValues(rollbar.WARN))
	teacher := user.User{ID: "t1", FirstName: "Grace", Role: user.RoleTeacher}
	logger.Warn("pushing notification", errors.New("unregistered token"), teacher)

	assert.Equal(t, before+1, testutil.ToFloat64(logEntries.WithLabelValues(rollbar.WARN)))
	out := buf.String()
	assert.Contains(t, out, "pushing notification\n")
	assert.Contains(t, out, "unregistered token\n")
}
