package sqlxrepos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"

	"github.com/trezcool/lyceum/core"
	"github.com/trezcool/lyceum/core/exam"
)

const (
	bankColumns     = "id, kind, title, type, questions, created_at"
	mockExamColumns = "id, title, description, bank_id, audio_bank_id, visibility, created_at"
)

type (
	examRepository struct {
		repo
	}

	bankRow struct {
		ID        string         `db:"id"`
		Kind      string         `db:"kind"`
		Title     string         `db:"title"`
		Type      string         `db:"type"`
		Questions types.JSONText `db:"questions"`
		CreatedAt time.Time      `db:"created_at"`
	}
)

var _ exam.Repository = (*examRepository)(nil)

func NewExamRepository(db core.DB) *examRepository {
	return &examRepository{repo{db: db}}
}

func (row bankRow) bank() (exam.QuestionBank, error) {
	var questions []json.RawMessage
	if err := row.Questions.Unmarshal(&questions); err != nil {
		return exam.QuestionBank{}, errors.Wrap(err, "decoding questions")
	}
	return exam.QuestionBank{
		ID:        row.ID,
		Kind:      row.Kind,
		Title:     row.Title,
		Type:      row.Type,
		Questions: questions,
		CreatedAt: row.CreatedAt,
	}, nil
}

func (r examRepository) CreateBank(ctx context.Context, b exam.QuestionBank) (exam.QuestionBank, error) {
	questions, err := json.Marshal(b.Questions)
	if err != nil {
		return exam.QuestionBank{}, errors.Wrap(err, "encoding questions")
	}
	row := bankRow{
		ID:        b.ID,
		Kind:      b.Kind,
		Title:     b.Title,
		Type:      b.Type,
		Questions: types.JSONText(questions),
		CreatedAt: b.CreatedAt,
	}
	q := `INSERT INTO question_banks (` + bankColumns + `) VALUES (:id, :kind, :title, :type, :questions, :created_at)`
	if _, err = sqlx.NamedExecContext(ctx, r.db, q, row); err != nil {
		return exam.QuestionBank{}, errors.Wrap(err, "inserting question bank")
	}
	return b, nil
}

func (r examRepository) GetBank(ctx context.Context, kind, id string) (exam.QuestionBank, error) {
	var row bankRow
	q := "SELECT " + bankColumns + " FROM question_banks WHERE kind = $1 AND id = $2"
	if err := r.db.GetContext(ctx, &row, q, kind, id); err != nil {
		return exam.QuestionBank{}, r.trapNoRowsErr(err, exam.NotFoundErr(kind), "finding question bank")
	}
	return row.bank()
}

func (r examRepository) QueryBanks(ctx context.Context, kind string) ([]exam.QuestionBank, error) {
	var rows []bankRow
	q := "SELECT " + bankColumns + " FROM question_banks WHERE kind = $1 ORDER BY created_at"
	if err := r.db.SelectContext(ctx, &rows, q, kind); err != nil {
		return nil, errors.Wrap(err, "querying question banks")
	}
	banks := make([]exam.QuestionBank, 0, len(rows))
	for _, row := range rows {
		b, err := row.bank()
		if err != nil {
			return nil, err
		}
		banks = append(banks, b)
	}
	return banks, nil
}

func (r examRepository) CreateMockExam(ctx context.Context, e exam.MockExam) (exam.MockExam, error) {
	q := `INSERT INTO mock_exams (` + mockExamColumns + `)
		VALUES (:id, :title, :description, :bank_id, :audio_bank_id, :visibility, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, q, e); err != nil {
		return exam.MockExam{}, errors.Wrap(err, "inserting mock exam")
	}
	return e, nil
}

func (r examRepository) QueryMockExams(ctx context.Context) ([]exam.MockExam, error) {
	exams := make([]exam.MockExam, 0)
	if err := r.db.SelectContext(ctx, &exams, "SELECT "+mockExamColumns+" FROM mock_exams ORDER BY created_at"); err != nil {
		return nil, errors.Wrap(err, "querying mock exams")
	}
	return exams, nil
}
