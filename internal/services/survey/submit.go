package survey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator"

	"github.com/censoparroquial/censo/internal/models"
)

// Draft store keys.
const (
	// DraftKey holds the autosaved in-progress draft.
	DraftKey = "draft"
	// CompletedKey holds the safety copy written just before submission.
	CompletedKey = "completed"
)

// DraftStore is the key-value persistence port for drafts.
type DraftStore interface {
	// Load returns the blob stored under key; found is false when absent.
	Load(ctx context.Context, key string) (blob []byte, found bool, err error)
	Save(ctx context.Context, key string, blob []byte) error
	Delete(ctx context.Context, key string) error
}

// SurveyService is the backend read/write collaborator. A non-nil error
// means the call did not complete; a completed call that the backend
// rejected returns a Result with Success false.
type SurveyService interface {
	GetByID(ctx context.Context, id string) (*models.SurveyRecord, error)
	Create(ctx context.Context, payload *models.SurveyPayload) (models.Result, error)
	Update(ctx context.Context, id string, payload *models.SurveyPayload) (models.Result, error)
}

// Submitter sends finished surveys to the backend and clears local drafts.
type Submitter struct {
	service  SurveyService
	store    DraftStore
	validate *validator.Validate
	logger   *slog.Logger
}

// payloadRules are the custom tags used on models.SurveyPayload.
var payloadRules = map[string]validator.Func{
	"isodate": func(fl validator.FieldLevel) bool {
		_, err := models.ParseISO(fl.Field().String())
		return err == nil
	},
	"accepted": func(fl validator.FieldLevel) bool {
		return fl.Field().Kind() == reflect.Bool && fl.Field().Bool()
	},
}

func newPayloadValidator(rules map[string]validator.Func) (*validator.Validate, error) {
	v := validator.New()
	v.SetTagName("validate")
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("registering %q rule: %w", tag, err)
		}
	}
	return v, nil
}

// NewSubmitter creates a submission adapter. It panics if the payload
// rules cannot be registered.
func NewSubmitter(service SurveyService, store DraftStore) *Submitter {
	v, err := newPayloadValidator(payloadRules)
	if err != nil {
		panic(err)
	}

	return &Submitter{
		service:  service,
		store:    store,
		validate: v,
		logger:   slog.Default().With("component", "submitter"),
	}
}

// Validate checks a payload before it is sent. Failures are returned as a
// *ValidationError naming the offending fields.
func (s *Submitter) Validate(payload *models.SurveyPayload) error {
	err := s.validate.Struct(payload)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &UnexpectedError{Err: err}
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Namespace())
	}
	return &ValidationError{
		Reason:        "La encuesta tiene datos incompletos o inválidos: " + strings.Join(fields, ", "),
		MissingFields: fields,
	}
}

// Fetch loads an existing survey for edit mode.
func (s *Submitter) Fetch(ctx context.Context, id string) (*models.SurveyRecord, error) {
	rec, err := s.service.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching survey %s: %w", id, err)
	}
	return rec, nil
}

// Create sends a new survey.
func (s *Submitter) Create(ctx context.Context, payload *models.SurveyPayload) models.Result {
	res, err := s.service.Create(ctx, payload)
	return s.outcome("create", res, err)
}

// Update replaces an existing survey.
func (s *Submitter) Update(ctx context.Context, id string, payload *models.SurveyPayload) models.Result {
	res, err := s.service.Update(ctx, id, payload)
	return s.outcome("update", res, err)
}

func (s *Submitter) outcome(op string, res models.Result, err error) models.Result {
	if err != nil {
		s.logger.Error("survey "+op+" failed", "error", err)
		out := models.Result{
			Success:      false,
			Message:      res.Message,
			ErrorDetails: res.ErrorDetails,
		}
		if out.Message == "" {
			out.Message = "No se pudo comunicar con el servidor: " + err.Error()
		}
		return out
	}
	if !res.Success {
		s.logger.Warn("survey "+op+" rejected", "message", res.Message, "details", res.ErrorDetails)
		return res
	}
	s.logger.Info("survey "+op+" succeeded", "survey_id", res.SurveyID)
	return res
}

// ClearPersistedDrafts deletes both the draft and the safety copy.
func (s *Submitter) ClearPersistedDrafts(ctx context.Context) error {
	var errs []error
	for _, key := range []string{DraftKey, CompletedKey} {
		if err := s.store.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("deleting %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
