package inmemdb

import (
	"context"

	"github.com/trezcool/lyceum/core/exam"
)

type examRepository struct {
	db *examTable
}

var _ exam.Repository = (*examRepository)(nil)

func NewExamRepository(db *DB) *examRepository {
	return &examRepository{db: db.exam}
}

func (repo *examRepository) CreateBank(_ context.Context, b exam.QuestionBank) (exam.QuestionBank, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.banks[b.ID] = &b
	repo.db.bankOrder = append(repo.db.bankOrder, b.ID)
	return b, nil
}

func (repo *examRepository) GetBank(_ context.Context, kind, id string) (exam.QuestionBank, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if b, ok := repo.db.banks[id]; ok && b.Kind == kind {
		return *b, nil
	}
	return exam.QuestionBank{}, exam.NotFoundErr(kind)
}

func (repo *examRepository) QueryBanks(_ context.Context, kind string) ([]exam.QuestionBank, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	banks := make([]exam.QuestionBank, 0)
	for _, id := range repo.db.bankOrder {
		if b := repo.db.banks[id]; b.Kind == kind {
			banks = append(banks, *b)
		}
	}
	return banks, nil
}

func (repo *examRepository) CreateMockExam(_ context.Context, e exam.MockExam) (exam.MockExam, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.exams = append(repo.db.exams, e)
	return e, nil
}

func (repo *examRepository) QueryMockExams(context.Context) ([]exam.MockExam, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return append(make([]exam.MockExam, 0, len(repo.db.exams)), repo.db.exams...), nil
}
