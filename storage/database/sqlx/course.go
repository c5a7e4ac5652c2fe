package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/lyceum/core"
	"github.com/trezcool/lyceum/core/course"
)

const courseColumns = "id, name, code, description, status, schedule, start_date, price, created_at"

type courseRepository struct {
	repo
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db core.DB) *courseRepository {
	return &courseRepository{repo{db: db}}
}

func (r courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	q := `INSERT INTO courses (` + courseColumns + `)
		VALUES (:id, :name, :code, :description, :status, :schedule, :start_date, :price, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, q, c); err != nil {
		if isUniqueViolation(err) {
			return course.Course{}, course.ErrCodeExists
		}
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return c, nil
}

func (r courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	var c course.Course
	if err := r.db.GetContext(ctx, &c, "SELECT "+courseColumns+" FROM courses WHERE id = $1", id); err != nil {
		return course.Course{}, r.trapNoRowsErr(err, course.ErrNotFound, "finding course")
	}
	return c, nil
}

func (r courseRepository) QueryCourses(ctx context.Context) ([]course.Course, error) {
	courses := make([]course.Course, 0)
	if err := r.db.SelectContext(ctx, &courses, "SELECT "+courseColumns+" FROM courses ORDER BY created_at"); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	return courses, nil
}
