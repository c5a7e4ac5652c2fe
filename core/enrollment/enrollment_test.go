package enrollment_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/lyceum/core"
	"github.com/trezcool/lyceum/core/billing"
	"github.com/trezcool/lyceum/core/course"
	"github.com/trezcool/lyceum/core/enrollment"
	"github.com/trezcool/lyceum/core/user"
	inmemdb "github.com/trezcool/lyceum/storage/database/inmem"
)

const (
	courseID  = "course-1"
	studentID = "student-1"
)

type coursesStub struct{}

func (coursesStub) GetByID(_ context.Context, id string) (course.Course, error) {
	if id != courseID {
		return course.Course{}, course.ErrNotFound
	}
	return course.Course{ID: id, Name: "English"}, nil
}

type usersStub struct{}

func (usersStub) GetByID(_ context.Context, id string) (user.User, error) {
	if id != studentID {
		return user.User{}, user.ErrNotFound
	}
	return user.User{ID: id, Role: user.RoleStudent}, nil
}

func date(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func setup(now string) *enrollment.Service {
	svc := enrollment.NewService(inmemdb.NewEnrollmentRepository(inmemdb.Open()), coursesStub{}, usersStub{})
	svc.NowFunc = func() time.Time { return date(now) }
	return svc
}

func TestService_Enroll(t *testing.T) {
	ctx := context.Background()
	svc := setup("2024-02-10T09:00:00Z")

	_, err := svc.Enroll(ctx, enrollment.NewEnrollment{CourseID: "nope", UserID: studentID})
	assert.Equal(t, course.ErrNotFound, err)

	_, err = svc.Enroll(ctx, enrollment.NewEnrollment{CourseID: courseID, UserID: "nope"})
	assert.Equal(t, user.ErrNotFound, err)

	e, err := svc.Enroll(ctx, enrollment.NewEnrollment{CourseID: courseID, UserID: studentID})
	require.NoError(t, err)
	assert.Equal(t, []billing.MonthID{"2024-02"}, e.PaidMonths, "the enrollment month is paid upfront")

	_, err = svc.Enroll(ctx, enrollment.NewEnrollment{CourseID: courseID, UserID: studentID})
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, enrollment.ErrAlreadyEnrolled, verr.Err)
}

func TestService_RecordMonthlyFee(t *testing.T) {
	ctx := context.Background()
	svc := setup("2024-01-20T09:00:00Z")
	_, err := svc.Enroll(ctx, enrollment.NewEnrollment{CourseID: courseID, UserID: studentID})
	require.NoError(t, err)

	// three months later
	svc.NowFunc = func() time.Time { return date("2024-04-02T09:00:00Z") }

	due, err := svc.DueMonths(ctx, studentID, courseID)
	require.NoError(t, err)
	assert.Equal(t, []billing.MonthID{"2024-02", "2024-03", "2024-04"}, due)

	fee := func(month string) enrollment.NewMonthlyFee {
		return enrollment.NewMonthlyFee{CourseID: courseID, UserID: studentID, Amount: decimal.NewFromInt(50), Month: billing.MonthID(month)}
	}

	tests := []struct {
		name    string
		fee     enrollment.NewMonthlyFee
		wantErr error
	}{
		{name: "before enrollment", fee: fee("2023-12"), wantErr: enrollment.ErrMonthOutOfRange},
		{name: "in the future", fee: fee("2024-05"), wantErr: enrollment.ErrMonthOutOfRange},
		{name: "enrollment month", fee: fee("2024-01"), wantErr: enrollment.ErrMonthAlreadyPaid},
		{name: "paid", fee: fee("2024-03")},
		{name: "paid twice", fee: fee("2024-03"), wantErr: enrollment.ErrMonthAlreadyPaid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := svc.RecordMonthlyFee(ctx, tt.fee)
			if tt.wantErr != nil {
				var verr *core.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.wantErr, verr.Err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.fee.Month, p.Month)
			assert.True(t, p.Amount.Equal(tt.fee.Amount))
		})
	}

	_, err = svc.RecordMonthlyFee(ctx, enrollment.NewMonthlyFee{CourseID: "other", UserID: studentID, Amount: decimal.NewFromInt(50), Month: "2024-03"})
	assert.Equal(t, enrollment.ErrNotFound, err)

	due, err = svc.DueMonths(ctx, studentID, courseID)
	require.NoError(t, err)
	assert.Equal(t, []billing.MonthID{"2024-02", "2024-04"}, due)

	payments, err := svc.Payments(ctx, enrollment.Filter{UserID: studentID})
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestService_missingEnrollmentDate(t *testing.T) {
	ctx := context.Background()
	repo := inmemdb.NewEnrollmentRepository(inmemdb.Open())
	svc := enrollment.NewService(repo, coursesStub{}, usersStub{})
	svc.NowFunc = func() time.Time { return date("2024-04-02T09:00:00Z") }

	_, err := repo.CreateEnrollment(ctx, enrollment.Enrollment{ID: "e1", CourseID: courseID, UserID: studentID})
	require.NoError(t, err)

	assertInvalidDate := func(t *testing.T, err error) {
		var verr *core.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, billing.ErrInvalidEnrollmentDate, verr.Err)
	}

	t.Run("due months", func(t *testing.T) {
		_, err := svc.DueMonths(ctx, studentID, courseID)
		assertInvalidDate(t, err)
	})

	t.Run("monthly fee", func(t *testing.T) {
		_, err := svc.RecordMonthlyFee(ctx, enrollment.NewMonthlyFee{
			CourseID: courseID, UserID: studentID, Amount: decimal.NewFromInt(50), Month: "2024-03",
		})
		assertInvalidDate(t, err)

		payments, err := svc.Payments(ctx, enrollment.Filter{UserID: studentID})
		require.NoError(t, err)
		assert.Empty(t, payments)
	})
}
