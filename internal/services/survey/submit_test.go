package survey

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/censoparroquial/censo/internal/models"
	"github.com/censoparroquial/censo/internal/testutil"
)

func validPayload() *models.SurveyPayload {
	return testutil.FixtureSurveyPayload(func(p *models.SurveyPayload) {
		p.FamilyMembers = append(p.FamilyMembers, *testutil.FixtureChild())
	})
}

func TestSubmitter_Validate(t *testing.T) {
	s := NewSubmitter(&fakeService{}, newMemStore())

	tests := []struct {
		name    string
		modify  func(*models.SurveyPayload)
		wantErr string
	}{
		{"valid", func(p *models.SurveyPayload) {}, ""},
		{"missing sector", func(p *models.SurveyPayload) { p.InformacionGeneral.Sector = nil }, "Sector"},
		{"bad date", func(p *models.SurveyPayload) { p.InformacionGeneral.Fecha = "ayer" }, "Fecha"},
		{"no consent", func(p *models.SurveyPayload) { p.Observaciones.AutorizacionDatos = false }, "AutorizacionDatos"},
		{"no family", func(p *models.SurveyPayload) { p.FamilyMembers = nil }, "FamilyMembers"},
		{"long phone", func(p *models.SurveyPayload) {
			p.InformacionGeneral.Telefono = "0123456789012345678901234567890123"
		}, "Telefono"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPayload()
			tt.modify(p)

			err := s.Validate(p)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Error(), tt.wantErr)
		})
	}
}

func TestNewPayloadValidator(t *testing.T) {
	v, err := newPayloadValidator(payloadRules)
	require.NoError(t, err)
	require.NotNil(t, v)

	_, err = newPayloadValidator(map[string]validator.Func{
		"": func(validator.FieldLevel) bool { return true },
	})
	assert.Error(t, err)

	assert.NotPanics(t, func() { NewSubmitter(&fakeService{}, newMemStore()) })
}

func TestSubmitter_CreateOutcome(t *testing.T) {
	ctx := context.Background()

	t.Run("success passes through", func(t *testing.T) {
		svc := &fakeService{result: models.Result{Success: true, SurveyID: "srv-1"}}
		res := NewSubmitter(svc, newMemStore()).Create(ctx, validPayload())
		assert.True(t, res.Success)
		assert.Equal(t, "srv-1", res.SurveyID)
	})

	t.Run("rejection keeps details", func(t *testing.T) {
		details := &models.ErrorDetails{Code: "DUPLICATE", Suggestion: "Busque la encuesta existente"}
		svc := &fakeService{result: models.Result{Message: "Ya existe", ErrorDetails: details}}
		res := NewSubmitter(svc, newMemStore()).Create(ctx, validPayload())
		assert.False(t, res.Success)
		assert.Equal(t, details, res.ErrorDetails)
	})

	t.Run("transport error becomes failed result", func(t *testing.T) {
		svc := &fakeService{err: errors.New("connection refused")}
		res := NewSubmitter(svc, newMemStore()).Update(ctx, "srv-1", validPayload())
		assert.False(t, res.Success)
		assert.Contains(t, res.Message, "connection refused")
		assert.Equal(t, "srv-1", svc.updateID)
	})
}

func TestSubmitter_ClearPersistedDrafts(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	require.NoError(t, store.Save(ctx, DraftKey, []byte("{}")))
	require.NoError(t, store.Save(ctx, CompletedKey, []byte("{}")))

	require.NoError(t, NewSubmitter(&fakeService{}, store).ClearPersistedDrafts(ctx))

	assert.False(t, store.has(DraftKey))
	assert.False(t, store.has(CompletedKey))
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"validation", &ValidationError{Reason: "Falta la fecha"}, "Falta la fecha"},
		{"submission with code", &SubmissionError{
			Message: "Catálogo inválido",
			Details: &models.ErrorDetails{Code: "E42", Suggestion: "Revise el sexo"},
		}, "Catálogo inválido (código E42). Revise el sexo"},
		{"in flight", ErrSubmitInFlight, "La encuesta se está enviando, espere un momento"},
		{"unexpected", errors.New("nil pointer"), "Ocurrió un error inesperado; sus datos locales se conservaron"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}
