package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/censoparroquial/censo/internal/config"
	"github.com/censoparroquial/censo/internal/database/seed"
	"github.com/censoparroquial/censo/internal/models"
	"github.com/censoparroquial/censo/internal/repository"
	"github.com/censoparroquial/censo/internal/services/survey"
	"github.com/censoparroquial/censo/internal/testutil"
)

var testNow = time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)

// fakeService records submissions instead of calling the backend.
type fakeService struct {
	mu      sync.Mutex
	created []*models.SurveyPayload
	result  models.Result
	err     error
}

func (s *fakeService) GetByID(_ context.Context, id string) (*models.SurveyRecord, error) {
	return nil, errors.New("survey " + id + " not found")
}

func (s *fakeService) Create(_ context.Context, payload *models.SurveyPayload) (models.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, payload)
	return s.result, s.err
}

func (s *fakeService) Update(_ context.Context, _ string, payload *models.SurveyPayload) (models.Result, error) {
	return s.Create(context.Background(), payload)
}

func (s *fakeService) submissions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.created)
}

// testEnv holds the collaborators behind a test App.
type testEnv struct {
	wizard  *survey.Wizard
	catalog *survey.Catalog
	drafts  *repository.DraftRepository
	service *fakeService
}

// newTestEnv builds a wizard over an in-memory store with the demo
// catalogs cached and no backend.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewMigratedDB(t)
	drafts := repository.NewDraftRepository(db.DB)
	cache := repository.NewCatalogRepository(db.DB)
	if _, err := seed.NewGenerator(cache, seed.DefaultConfig()).Generate(context.Background()); err != nil {
		t.Fatalf("seeding catalogs: %v", err)
	}

	service := &fakeService{result: models.Result{Success: true, Message: "Encuesta creada", SurveyID: "enc-1"}}
	catalog := survey.NewCatalog(nil, cache)
	cfg := config.Default()

	wizard, err := survey.New(survey.Config{
		Stages:    models.DefaultStages(),
		Store:     drafts,
		Submitter: survey.NewSubmitter(service, drafts),
		Sources:   catalog,
		Validator: survey.NewValidator(cfg.Survey.LeadershipRoles),
		Now:       func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("creating wizard: %v", err)
	}

	return &testEnv{wizard: wizard, catalog: catalog, drafts: drafts, service: service}
}

// saveDraft stores snap as the autosaved draft.
func (e *testEnv) saveDraft(t *testing.T, snap survey.Snapshot) {
	t.Helper()

	codec, err := survey.NewCodec(models.DefaultStages())
	if err != nil {
		t.Fatalf("creating codec: %v", err)
	}
	blob, err := codec.Encode(snap)
	if err != nil {
		t.Fatalf("encoding draft: %v", err)
	}
	if err := e.drafts.Save(context.Background(), survey.DraftKey, blob); err != nil {
		t.Fatalf("saving draft: %v", err)
	}
}

// newTestApp creates an initialized App with a 120x40 window.
func newTestApp(t *testing.T) (*App, *testEnv) {
	t.Helper()
	return newTestAppWithDraft(t, nil)
}

// newTestAppWithDraft stores draft, if any, before initializing the App so
// that the wizard restores it.
func newTestAppWithDraft(t *testing.T, draft *survey.Snapshot) (*App, *testEnv) {
	t.Helper()

	env := newTestEnv(t)
	if draft != nil {
		env.saveDraft(t, *draft)
	}

	app := New(config.Default(), env.wizard, env.catalog, "")
	app.now = func() time.Time { return testNow }

	// Simulate a window size message to make the app ready
	app.width = 120
	app.height = 40
	app.ready = true
	app.updateViewDimensions()

	drain(t, app, app.initWizard())
	if !app.initialized {
		t.Fatal("app did not initialize")
	}
	return app, env
}

// completeDraft returns a draft on the given stage with every required
// answer filled in and a household leader registered.
func completeDraft(stage int) *survey.Snapshot {
	return &survey.Snapshot{
		Stage: stage,
		State: models.FormState{
			models.FieldMunicipio:        models.Text("1"),
			models.FieldParroquia:        models.Text("100"),
			models.FieldSector:           models.Text("104"),
			models.FieldFecha:            models.DateValue(testNow),
			models.FieldApellidoFamiliar: models.Text("Mejía Restrepo"),
			models.FieldDireccion:        models.Text("Calle 10 # 20-30"),
			models.FieldTipoVivienda:     models.Text("1"),
			models.FieldSistemaAcueducto: models.Text("1"),
		},
		Family: []models.FamilyMember{*testutil.FixtureFamilyMember()},
	}
}

// drain runs cmd and every command it produces, feeding the messages back
// into the app. Tick commands are never started.
func drain(t *testing.T, a *App, cmd tea.Cmd) {
	t.Helper()

	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil, tea.QuitMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			_, next := a.Update(msg)
			queue = append(queue, next)
		}
	}
}

// press sends a key to the app and runs the resulting commands.
func press(t *testing.T, a *App, msg tea.KeyMsg) {
	t.Helper()
	_, cmd := a.Update(msg)
	drain(t, a, cmd)
}

// typeText sends each rune of s as a key press.
func typeText(t *testing.T, a *App, s string) {
	t.Helper()
	for _, r := range s {
		press(t, a, keyMsg(string(r)))
	}
}

// keyMsg creates a tea.KeyMsg for a regular character key.
func keyMsg(key string) tea.KeyMsg {
	if key == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

// specialKeyMsg creates a tea.KeyMsg for a special key type.
func specialKeyMsg(keyType tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: keyType}
}
