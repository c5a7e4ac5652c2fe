// Package exam manages question banks and the mock exams built from them.
package exam

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/lyceum/core"
)

// Bank kinds
const (
	KindMCQ   = "mcq"
	KindAudio = "audio"
)

var (
	// errors
	ErrBankNotFound      = core.NewNotFoundError("question bank not found")
	ErrAudioBankNotFound = core.NewNotFoundError("audio question bank not found")
)

type (
	// QuestionBank holds questions as the clients send them; their shape is not interpreted.
	QuestionBank struct {
		ID        string            `json:"id"`
		Kind      string            `json:"-"`
		Title     string            `json:"title"`
		Type      string            `json:"type,omitempty"`
		Questions []json.RawMessage `json:"questions"`
		CreatedAt time.Time         `json:"createdAt"` // UTC
	}

	MockExam struct {
		ID          string    `json:"id" db:"id"`
		Title       string    `json:"title" db:"title"`
		Description string    `json:"description" db:"description"`
		BankID      string    `json:"bankId" db:"bank_id"`
		AudioBankID string    `json:"audioBankId" db:"audio_bank_id"`
		Visibility  string    `json:"visibility" db:"visibility"`
		CreatedAt   time.Time `json:"createdAt" db:"created_at"` // UTC
	}

	NewQuestionBank struct {
		Title     string            `json:"title" validate:"required"`
		Questions []json.RawMessage `json:"questions" validate:"required"`
	}

	NewAudioBank struct {
		Title     string            `json:"title" validate:"required"`
		Type      string            `json:"type" validate:"required"`
		Questions []json.RawMessage `json:"questions" validate:"required"`
	}

	NewMockExam struct {
		Title       string `json:"title" validate:"required"`
		Description string `json:"description"`
		BankID      string `json:"bankId" validate:"required"`
		AudioBankID string `json:"audioBankId" validate:"required"`
		Visibility  string `json:"visibility" validate:"required,oneof=public private"`
	}

	Repository interface {
		CreateBank(ctx context.Context, b QuestionBank) (QuestionBank, error)
		GetBank(ctx context.Context, kind, id string) (QuestionBank, error)
		QueryBanks(ctx context.Context, kind string) ([]QuestionBank, error)
		CreateMockExam(ctx context.Context, e MockExam) (MockExam, error)
		QueryMockExams(ctx context.Context) ([]MockExam, error)
	}

	Service struct {
		repo             Repository
		questionsPerBank int
	}
)

func (nb *NewQuestionBank) Validate(validate *validator.Validate) error {
	nb.Title = core.CleanString(nb.Title)
	return validate.Struct(nb)
}

func (nb *NewAudioBank) Validate(validate *validator.Validate) error {
	nb.Title = core.CleanString(nb.Title)
	nb.Type = core.CleanString(nb.Type)
	return validate.Struct(nb)
}

func (ne *NewMockExam) Validate(validate *validator.Validate) error {
	ne.Title = core.CleanString(ne.Title)
	ne.Description = core.CleanString(ne.Description)
	ne.BankID = core.CleanString(ne.BankID)
	ne.AudioBankID = core.CleanString(ne.AudioBankID)
	ne.Visibility = core.CleanString(ne.Visibility, true /* lower */)
	return validate.Struct(ne)
}

func NewService(repo Repository, conf *core.Config) *Service {
	return &Service{repo: repo, questionsPerBank: conf.QuestionsPerBank}
}

// checkQuestionCount requires exactly questionsPerBank questions in every bank.
func (svc *Service) checkQuestionCount(questions []json.RawMessage) error {
	if len(questions) != svc.questionsPerBank {
		return core.NewFieldError("questions", fmt.Sprintf("exactly %d questions are required", svc.questionsPerBank))
	}
	return nil
}

func (svc *Service) CreateBank(ctx context.Context, nb NewQuestionBank) (QuestionBank, error) {
	if err := svc.checkQuestionCount(nb.Questions); err != nil {
		return QuestionBank{}, err
	}
	b, err := svc.repo.CreateBank(ctx, QuestionBank{
		ID:        core.NewID(),
		Kind:      KindMCQ,
		Title:     nb.Title,
		Questions: nb.Questions,
		CreatedAt: time.Now().UTC(),
	})
	return b, errors.Wrap(err, "creating question bank")
}

func (svc *Service) CreateAudioBank(ctx context.Context, nb NewAudioBank) (QuestionBank, error) {
	if err := svc.checkQuestionCount(nb.Questions); err != nil {
		return QuestionBank{}, err
	}
	b, err := svc.repo.CreateBank(ctx, QuestionBank{
		ID:        core.NewID(),
		Kind:      KindAudio,
		Title:     nb.Title,
		Type:      nb.Type,
		Questions: nb.Questions,
		CreatedAt: time.Now().UTC(),
	})
	return b, errors.Wrap(err, "creating audio question bank")
}

func (svc *Service) GetBank(ctx context.Context, kind, id string) (QuestionBank, error) {
	return svc.repo.GetBank(ctx, kind, id)
}

func (svc *Service) QueryBanks(ctx context.Context, kind string) ([]QuestionBank, error) {
	return svc.repo.QueryBanks(ctx, kind)
}

// CreateMockExam requires both referenced banks to exist.
func (svc *Service) CreateMockExam(ctx context.Context, ne NewMockExam) (MockExam, error) {
	if _, err := svc.repo.GetBank(ctx, KindMCQ, ne.BankID); err != nil {
		if errors.Cause(err) == ErrBankNotFound {
			return MockExam{}, core.NewFieldError("bankId", err.Error())
		}
		return MockExam{}, errors.Wrap(err, "getting question bank")
	}
	if _, err := svc.repo.GetBank(ctx, KindAudio, ne.AudioBankID); err != nil {
		if errors.Cause(err) == ErrAudioBankNotFound {
			return MockExam{}, core.NewFieldError("audioBankId", err.Error())
		}
		return MockExam{}, errors.Wrap(err, "getting audio question bank")
	}

	e, err := svc.repo.CreateMockExam(ctx, MockExam{
		ID:          core.NewID(),
		Title:       ne.Title,
		Description: ne.Description,
		BankID:      ne.BankID,
		AudioBankID: ne.AudioBankID,
		Visibility:  ne.Visibility,
		CreatedAt:   time.Now().UTC(),
	})
	return e, errors.Wrap(err, "creating mock exam")
}

func (svc *Service) QueryMockExams(ctx context.Context) ([]MockExam, error) {
	return svc.repo.QueryMockExams(ctx)
}

// NotFoundErr returns the not found error of a bank kind.
func NotFoundErr(kind string) error {
	if kind == KindAudio {
		return ErrAudioBankNotFound
	}
	return ErrBankNotFound
}
