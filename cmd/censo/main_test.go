package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/censoparroquial/censo/internal/config"
	"github.com/censoparroquial/censo/internal/database"
	"github.com/censoparroquial/censo/internal/models"
	"github.com/censoparroquial/censo/internal/repository"
	"github.com/censoparroquial/censo/internal/services/survey"
	"github.com/censoparroquial/censo/internal/testutil"
)

// writeConfig writes a configuration whose store and log live in a
// temporary directory and returns its path.
func writeConfig(t *testing.T) (cfgPath string, cfg *config.Config) {
	t.Helper()

	dir := t.TempDir()
	cfg = config.Default()
	cfg.Database.Path = filepath.Join(dir, "censo.db")
	cfg.Database.BackupIntervalHours = 0
	cfg.Logging.File = filepath.Join(dir, "censo.log")

	cfgPath = filepath.Join(dir, "censo.toml")
	if err := config.Save(cfg, cfgPath); err != nil {
		t.Fatalf("saving config: %v", err)
	}
	return cfgPath, cfg
}

// execute runs the CLI with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("censo %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

// saveDraft stores snap as the draft in the store configured by cfg.
func saveDraft(t *testing.T, cfg *config.Config, snap survey.Snapshot) {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(cfg.Database.Path, &cfg.Database, "")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if err := migrateUp(ctx, db); err != nil {
		t.Fatalf("migrating: %v", err)
	}

	codec, err := survey.NewCodec(models.DefaultStages())
	if err != nil {
		t.Fatalf("creating codec: %v", err)
	}
	blob, err := codec.Encode(snap)
	if err != nil {
		t.Fatalf("encoding draft: %v", err)
	}
	if err := repository.NewDraftRepository(db.DB).Save(ctx, survey.DraftKey, blob); err != nil {
		t.Fatalf("saving draft: %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	out := mustExecute(t, "version")
	if !strings.Contains(out, "censo version "+Version) {
		t.Errorf("output = %q, want version line", out)
	}
}

func TestCatalogSeedAndShow(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	out := mustExecute(t, "--config", cfgPath, "catalog", "seed")
	if !strings.Contains(out, "opciones escritas") {
		t.Errorf("seed output = %q", out)
	}

	out = mustExecute(t, "--config", cfgPath, "catalog", "seed")
	if !strings.Contains(out, "--force") {
		t.Errorf("second seed output = %q, want skip notice", out)
	}

	out = mustExecute(t, "--config", cfgPath, "catalog", "show")
	for _, want := range []string{"CATÁLOGO", models.CatalogSexos, models.CatalogMunicipios} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}

	out = mustExecute(t, "--config", cfgPath, "catalog", "show", models.CatalogSexos)
	for _, want := range []string{"Masculino", "Femenino", "Página 1 de 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("show sexos output missing %q:\n%s", want, out)
		}
	}

	out = mustExecute(t, "--config", cfgPath, "catalog", "show", models.CatalogSexos, "--page-size", "1", "--page", "2")
	if !strings.Contains(out, "Femenino") || strings.Contains(out, "Masculino") {
		t.Errorf("paged output = %q, want only the second option", out)
	}
}

func TestDraftShowAndClear(t *testing.T) {
	cfgPath, cfg := writeConfig(t)

	out := mustExecute(t, "--config", cfgPath, "draft", "show")
	if !strings.Contains(out, "No hay borradores guardados") {
		t.Errorf("empty show output = %q", out)
	}

	saveDraft(t, cfg, survey.Snapshot{
		Stage: 3,
		State: models.FormState{
			models.FieldMunicipio: models.Text("1"),
			models.FieldDireccion: models.Text("Calle 10"),
		},
		Family: []models.FamilyMember{*testutil.FixtureFamilyMember()},
	})

	out = mustExecute(t, "--config", cfgPath, "draft", "show")
	for _, want := range []string{survey.DraftKey, "3/6 Servicios de Agua", "Respuestas:", "2 de", "Familia:"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}

	out = mustExecute(t, "--config", cfgPath, "draft", "clear")
	if !strings.Contains(out, "Borrador eliminado") {
		t.Errorf("clear output = %q", out)
	}

	out = mustExecute(t, "--config", cfgPath, "draft", "show")
	if !strings.Contains(out, "No hay borradores guardados") {
		t.Errorf("show after clear = %q", out)
	}
}

func TestMigrateCommand(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	out := mustExecute(t, "--config", cfgPath, "migrate")
	if !strings.Contains(out, "1 migraciones aplicadas") {
		t.Errorf("migrate output = %q", out)
	}

	out = mustExecute(t, "--config", cfgPath, "migrate", "--status")
	if !strings.Contains(out, "001") {
		t.Errorf("status output missing migration 001:\n%s", out)
	}

	out = mustExecute(t, "--config", cfgPath, "migrate", "--down")
	if !strings.Contains(out, "Versión actual: 0") {
		t.Errorf("down output = %q", out)
	}

	if _, err := execute(t, "--config", cfgPath, "migrate", "--down", "--status"); err == nil {
		t.Error("expected error for --down with --status")
	}
}

func TestBackend_Offline(t *testing.T) {
	fetcher, service, err := backend(config.Default())
	if err != nil {
		t.Fatalf("backend() error = %v", err)
	}
	if fetcher != nil {
		t.Errorf("fetcher = %v, want nil", fetcher)
	}
	if service == nil {
		t.Fatal("service is nil")
	}
	if _, err := service.Create(context.Background(), &models.SurveyPayload{}); err == nil {
		t.Error("offline Create should fail")
	}
}
