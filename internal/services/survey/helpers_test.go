package survey

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/censoparroquial/censo/internal/config"
	"github.com/censoparroquial/censo/internal/models"
)

var fixedNow = time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)

// memStore is an in-memory DraftStore.
type memStore struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	saves   int
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{blobs: make(map[string][]byte)}
}

func (s *memStore) Load(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[key]
	return b, ok, nil
}

func (s *memStore) Save(_ context.Context, key string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.blobs[key] = append([]byte(nil), blob...)
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

func (s *memStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[key]
	return ok
}

// fakeService records calls made by the submitter.
type fakeService struct {
	mu       sync.Mutex
	creates  int
	updates  int
	updateID string
	payload  *models.SurveyPayload
	result   models.Result
	err      error
	record   *models.SurveyRecord
	block    chan struct{}
	started  chan struct{}
}

func (f *fakeService) GetByID(_ context.Context, id string) (*models.SurveyRecord, error) {
	if f.record == nil || f.record.ID != id {
		return nil, fmt.Errorf("survey %s not found", id)
	}
	return f.record, nil
}

func (f *fakeService) Create(_ context.Context, payload *models.SurveyPayload) (models.Result, error) {
	f.mu.Lock()
	f.creates++
	f.payload = payload
	started, block := f.started, f.block
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if block != nil {
		<-block
	}
	return f.result, f.err
}

func (f *fakeService) Update(_ context.Context, id string, payload *models.SurveyPayload) (models.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	f.updateID = id
	f.payload = payload
	return f.result, f.err
}

func (f *fakeService) calls() (creates, updates int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates, f.updates
}

// staticSources serves fixed option sets; dependent sets are keyed by
// configKey and parent value.
type staticSources struct {
	top       map[string]OptionSet
	dependent map[string]map[string]OptionSet
}

func (s staticSources) Options(configKey string) OptionSet {
	return s.top[configKey]
}

func (s staticSources) Dependent(configKey, parentValue string) OptionSet {
	return s.dependent[configKey][parentValue]
}

func testSources() staticSources {
	return staticSources{
		top: map[string]OptionSet{
			models.CatalogMunicipios: {Options: []models.Option{
				{Value: "1", Label: "Medellín"},
				{Value: "2", Label: "Envigado"},
			}},
			models.CatalogTiposVivienda: {Options: []models.Option{
				{Value: "1", Label: "Casa"},
				{Value: "2", Label: "Apartamento"},
			}},
			models.CatalogSistemasAcueducto: {Options: []models.Option{
				{Value: "1", Label: "Acueducto público"},
				{Value: "2", Label: "Pozo"},
			}},
		},
		dependent: map[string]map[string]OptionSet{
			models.CatalogParroquias: {
				"1": {Options: []models.Option{{Value: "10", Label: "San José"}}},
				"2": {Options: []models.Option{{Value: "20", Label: "Santa Gertrudis"}}},
			},
			models.CatalogSectores: {
				"1": {Options: []models.Option{
					{Value: "12", Label: "Centro"},
					{Value: "abc", Label: "X"},
				}},
			},
			models.CatalogVeredas: {
				"1": {Options: []models.Option{{Value: "2", Label: "El Salado"}}},
			},
		},
	}
}

func leaderMember(role string) models.FamilyMember {
	return models.FamilyMember{
		Nombres:         "Carlos Mejía",
		FechaNacimiento: models.NewDate(time.Date(1970, 1, 5, 0, 0, 0, 0, time.UTC)),
		Sexo:            &models.Ref{ID: 1, Nombre: "Masculino"},
		Parentesco:      &models.Ref{ID: 1, Nombre: role},
	}
}

type wizardFixture struct {
	wizard  *Wizard
	store   *memStore
	service *fakeService
}

func newTestWizard(t *testing.T, overrides ...func(*Config)) wizardFixture {
	t.Helper()

	store := newMemStore()
	service := &fakeService{result: models.Result{Success: true, Message: "Encuesta guardada", SurveyID: "srv-1"}}
	ids := 0

	cfg := Config{
		Stages:    models.DefaultStages(),
		Store:     store,
		Submitter: NewSubmitter(service, store),
		Sources:   testSources(),
		Validator: NewValidator(config.Default().Survey.LeadershipRoles),
		Now:       func() time.Time { return fixedNow },
		NewID: func() string {
			ids++
			return fmt.Sprintf("id-%d", ids)
		},
	}
	for _, o := range overrides {
		o(&cfg)
	}

	w, err := New(cfg)
	require.NoError(t, err)

	return wizardFixture{wizard: w, store: store, service: service}
}

func mustInit(t *testing.T, w *Wizard, surveyID string) bool {
	t.Helper()
	restored, err := w.Init(context.Background(), surveyID)
	require.NoError(t, err)
	return restored
}

func mustChange(t *testing.T, w *Wizard, id string, v models.Value) {
	t.Helper()
	_, err := w.FieldChange(id, v)
	require.NoError(t, err)
}

// fillStageOne sets every required field of the first stage.
func fillStageOne(t *testing.T, w *Wizard) {
	t.Helper()
	mustChange(t, w, models.FieldMunicipio, models.Text("1"))
	mustChange(t, w, models.FieldParroquia, models.Text("10"))
	mustChange(t, w, models.FieldSector, models.Text("12"))
	mustChange(t, w, models.FieldApellidoFamiliar, models.Text("Mejía Restrepo"))
	mustChange(t, w, models.FieldDireccion, models.Text("Calle 10 # 20-30"))
}

var errBoom = errors.New("boom")
