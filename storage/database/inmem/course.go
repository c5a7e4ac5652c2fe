package inmemdb

import (
	"context"

	"github.com/trezcool/lyceum/core/course"
)

type courseRepository struct {
	db *courseTable
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db.course}
}

func (repo *courseRepository) CreateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.table {
		if existing.Code == c.Code {
			return course.Course{}, course.ErrCodeExists
		}
	}
	repo.db.table[c.ID] = &c
	repo.db.order = append(repo.db.order, c.ID)
	return c, nil
}

func (repo *courseRepository) GetCourse(_ context.Context, id string) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.table[id]; ok {
		return *c, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) QueryCourses(context.Context) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.order))
	for _, id := range repo.db.order {
		courses = append(courses, *repo.db.table[id])
	}
	return courses, nil
}
