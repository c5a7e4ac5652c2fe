package inmemdb

import (
	"sync"

	"github.com/trezcool/lyceum/core/attendance"
	"github.com/trezcool/lyceum/core/course"
	"github.com/trezcool/lyceum/core/enrollment"
	"github.com/trezcool/lyceum/core/exam"
	"github.com/trezcool/lyceum/core/notification"
	"github.com/trezcool/lyceum/core/recording"
	"github.com/trezcool/lyceum/core/schedule"
	"github.com/trezcool/lyceum/core/user"
)

// DB keeps every table in memory. Rows are returned in insertion order.
type (
	DB struct {
		user         *userTable
		course       *courseTable
		enrollment   *enrollmentTable
		attendance   *attendanceTable
		schedule     *scheduleTable
		recording    *recordingTable
		exam         *examTable
		notification *notificationTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
		order []string
	}

	courseTable struct {
		sync.RWMutex
		table map[string]*course.Course
		order []string
	}

	enrollmentTable struct {
		sync.RWMutex
		table    map[string]*enrollment.Enrollment
		order    []string
		payments []enrollment.Payment
	}

	attendanceTable struct {
		sync.RWMutex
		table map[string]*attendance.Record
		order []string
	}

	scheduleTable struct {
		sync.RWMutex
		rows []schedule.Schedule
	}

	recordingTable struct {
		sync.RWMutex
		table map[string]*recording.Recording
		order []string
	}

	examTable struct {
		sync.RWMutex
		banks     map[string]*exam.QuestionBank
		bankOrder []string
		exams     []exam.MockExam
	}

	notificationTable struct {
		sync.RWMutex
		rows []notification.Notification
	}
)

func Open() *DB {
	return &DB{
		user:         &userTable{table: make(map[string]*user.User)},
		course:       &courseTable{table: make(map[string]*course.Course)},
		enrollment:   &enrollmentTable{table: make(map[string]*enrollment.Enrollment)},
		attendance:   &attendanceTable{table: make(map[string]*attendance.Record)},
		schedule:     &scheduleTable{},
		recording:    &recordingTable{table: make(map[string]*recording.Recording)},
		exam:         &examTable{banks: make(map[string]*exam.QuestionBank)},
		notification: &notificationTable{},
	}
}
