package tui

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/censoparroquial/censo/internal/config"
	"github.com/censoparroquial/censo/internal/models"
	"github.com/censoparroquial/censo/internal/services/survey"
)

func TestApp_InitialState(t *testing.T) {
	app, env := newTestApp(t)

	if got := env.wizard.Stage(); got != 1 {
		t.Errorf("Stage() = %d, want 1", got)
	}
	if app.stageForm == nil {
		t.Fatal("expected a field form on stage 1")
	}
	if app.quitting || app.showConfirm || app.showHelp {
		t.Error("expected no modal state initially")
	}
	if len(app.alerts) != 0 {
		t.Errorf("expected no alerts on a fresh survey, got %v", app.alerts)
	}
	if _, ok := env.wizard.Value(models.FieldFecha).AsDate(); !ok {
		t.Error("expected the survey date to be seeded")
	}
}

func TestApp_View_NotReady(t *testing.T) {
	app, _ := newTestApp(t)
	app.ready = false

	if output := app.View(); !strings.Contains(output, "Inicializando") {
		t.Error("expected initialization message when not ready")
	}
}

func TestApp_View_Quitting(t *testing.T) {
	app, _ := newTestApp(t)
	app.quitting = true

	if output := app.View(); !strings.Contains(output, "Cerrando") {
		t.Error("expected shutdown message when quitting")
	}
}

func TestApp_View_StageOne(t *testing.T) {
	app, _ := newTestApp(t)
	output := app.View()

	for _, want := range []string{"CENSO PARROQUIAL", "Parroquia San José", "Etapa 1/6", "Municipio", "Apellido Familiar", "Sin guardar"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in view output", want)
		}
	}
}

func TestApp_RestoresDraft(t *testing.T) {
	app, env := newTestAppWithDraft(t, completeDraft(3))

	if got := env.wizard.Stage(); got != 3 {
		t.Errorf("Stage() = %d, want 3", got)
	}
	if len(app.alerts) == 0 || !strings.Contains(app.alerts[0].Message, "borrador") {
		t.Errorf("expected a restored draft alert, got %v", app.alerts)
	}
	if !strings.Contains(app.View(), "Etapa 3/6") {
		t.Error("expected stage 3 in view output")
	}
}

func TestApp_NextBlockedOnMissingFields(t *testing.T) {
	app, env := newTestApp(t)

	press(t, app, specialKeyMsg(tea.KeyF3))

	if got := env.wizard.Stage(); got != 1 {
		t.Errorf("Stage() = %d, want 1", got)
	}
	if len(app.alerts) == 0 {
		t.Fatal("expected a warning alert")
	}
	if app.alerts[0].Level != AlertWarning {
		t.Errorf("alert level = %v, want %v", app.alerts[0].Level, AlertWarning)
	}
	if !strings.Contains(app.alerts[0].Message, "Complete los campos obligatorios") {
		t.Errorf("alert message = %q", app.alerts[0].Message)
	}
	if !strings.Contains(app.View(), "Municipio") {
		t.Error("expected the stage form to stay visible")
	}
}

func TestApp_StageNavigation(t *testing.T) {
	app, env := newTestAppWithDraft(t, completeDraft(1))

	press(t, app, specialKeyMsg(tea.KeyF2))
	if got := env.wizard.Stage(); got != 1 {
		t.Errorf("after F2 on first stage, Stage() = %d, want 1", got)
	}

	press(t, app, specialKeyMsg(tea.KeyF3))
	if got := env.wizard.Stage(); got != 2 {
		t.Fatalf("after F3, Stage() = %d, want 2", got)
	}
	if !strings.Contains(app.View(), "Tipo de Vivienda") {
		t.Error("expected stage 2 fields in view output")
	}
	if app.lastSaved.IsZero() {
		t.Error("expected the stage change to be autosaved")
	}

	press(t, app, specialKeyMsg(tea.KeyPgUp))
	if got := env.wizard.Stage(); got != 1 {
		t.Errorf("after PgUp, Stage() = %d, want 1", got)
	}
}

func TestApp_SelectFieldAutosaves(t *testing.T) {
	app, env := newTestApp(t)

	// Municipio is focused first; right selects the first option.
	press(t, app, specialKeyMsg(tea.KeyRight))

	if got := env.wizard.Value(models.FieldMunicipio).AsText(); got != "1" {
		t.Errorf("municipio = %q, want %q", got, "1")
	}
	if app.lastSaved != testNow {
		t.Errorf("lastSaved = %v, want %v", app.lastSaved, testNow)
	}
	if _, found, err := env.drafts.Load(context.Background(), survey.DraftKey); err != nil || !found {
		t.Errorf("expected a stored draft, found=%v err=%v", found, err)
	}
	if !strings.Contains(app.View(), "Guardado") {
		t.Error("expected autosave status in footer")
	}
}

func TestApp_TickAutosaves(t *testing.T) {
	app, env := newTestApp(t)
	if err := env.drafts.Delete(context.Background(), survey.DraftKey); err != nil {
		t.Fatalf("deleting draft: %v", err)
	}
	app.lastSaved = time.Time{}

	_, cmd := app.Update(tickMsg(testNow))
	if cmd == nil {
		t.Fatal("tick returned no command")
	}
	batch, ok := cmd().(tea.BatchMsg)
	if !ok || len(batch) != 2 {
		t.Fatalf("tick command = %T, want autosave and reschedule", cmd())
	}
	// The second command is the 15s reschedule; only the save is run here.
	drain(t, app, batch[0])

	if _, found, err := env.drafts.Load(context.Background(), survey.DraftKey); err != nil || !found {
		t.Errorf("expected a stored draft after tick, found=%v err=%v", found, err)
	}
	if app.lastSaved != testNow {
		t.Errorf("lastSaved = %v, want %v", app.lastSaved, testNow)
	}
}

func TestApp_TickBeforeInitOnlyReschedules(t *testing.T) {
	env := newTestEnv(t)
	app := New(config.Default(), env.wizard, env.catalog, "")

	_, cmd := app.Update(tickMsg(testNow))
	if cmd == nil {
		t.Fatal("tick returned no command")
	}
	if _, found, _ := env.drafts.Load(context.Background(), survey.DraftKey); found {
		t.Error("tick before init should not save a draft")
	}
}

func TestApp_ParentChangeClearsDependents(t *testing.T) {
	app, env := newTestApp(t)

	press(t, app, specialKeyMsg(tea.KeyRight))
	press(t, app, specialKeyMsg(tea.KeyTab))
	press(t, app, specialKeyMsg(tea.KeyRight))

	if env.wizard.Value(models.FieldParroquia).IsEmpty() {
		t.Fatal("expected a parroquia to be selected")
	}

	press(t, app, specialKeyMsg(tea.KeyShiftTab))
	press(t, app, specialKeyMsg(tea.KeyRight))

	if got := env.wizard.Value(models.FieldMunicipio).AsText(); got != "2" {
		t.Errorf("municipio = %q, want %q", got, "2")
	}
	if !env.wizard.Value(models.FieldParroquia).IsEmpty() {
		t.Error("expected parroquia to be cleared when municipio changed")
	}
}

func TestApp_TextFieldTyping(t *testing.T) {
	app, env := newTestApp(t)

	// Apellido Familiar is the eighth field of stage 1.
	for i := 0; i < 7; i++ {
		press(t, app, specialKeyMsg(tea.KeyTab))
	}
	typeText(t, app, "Gómez")

	if got := env.wizard.Value(models.FieldApellidoFamiliar).AsText(); got != "Gómez" {
		t.Errorf("apellido_familiar = %q, want %q", got, "Gómez")
	}

	press(t, app, specialKeyMsg(tea.KeyBackspace))
	if got := env.wizard.Value(models.FieldApellidoFamiliar).AsText(); got != "Góme" {
		t.Errorf("after backspace, apellido_familiar = %q, want %q", got, "Góme")
	}
}

func TestApp_FamilyStageRequiresMember(t *testing.T) {
	draft := completeDraft(4)
	draft.Family = nil
	app, env := newTestAppWithDraft(t, draft)

	if !strings.Contains(app.View(), "Sin miembros registrados") {
		t.Error("expected empty grid message")
	}

	press(t, app, specialKeyMsg(tea.KeyF3))
	if got := env.wizard.Stage(); got != 4 {
		t.Errorf("Stage() = %d, want 4", got)
	}
	if len(app.alerts) == 0 || !strings.Contains(app.alerts[0].Message, "al menos un miembro") {
		t.Errorf("expected member warning, got %v", app.alerts)
	}
}

func TestApp_AddFamilyMember(t *testing.T) {
	draft := completeDraft(4)
	draft.Family = nil
	app, env := newTestAppWithDraft(t, draft)

	press(t, app, keyMsg("a"))
	if app.familyDialog == nil {
		t.Fatal("expected the member dialog to open")
	}

	typeText(t, app, "Ana Gómez")
	press(t, app, specialKeyMsg(tea.KeyTab))
	typeText(t, app, "1980-05-01")
	for i := 0; i < 3; i++ {
		press(t, app, specialKeyMsg(tea.KeyTab))
	}
	press(t, app, specialKeyMsg(tea.KeyRight)) // sexo
	press(t, app, specialKeyMsg(tea.KeyTab))
	press(t, app, specialKeyMsg(tea.KeyRight)) // parentesco
	press(t, app, specialKeyMsg(tea.KeyCtrlS))

	if app.familyDialog != nil {
		t.Fatalf("expected the dialog to close, error: %s", app.familyDialog.Render())
	}
	family := env.wizard.FamilyMembers()
	if len(family) != 1 {
		t.Fatalf("family size = %d, want 1", len(family))
	}
	if family[0].Nombres != "Ana Gómez" {
		t.Errorf("Nombres = %q, want %q", family[0].Nombres, "Ana Gómez")
	}
	if family[0].ID == "" {
		t.Error("expected the wizard to assign an id")
	}
	if !env.wizard.IsLeader(family[0]) {
		t.Errorf("expected %q to be a household leader", family[0].Relationship())
	}

	output := app.View()
	if !strings.Contains(output, "Ana Gómez") || !strings.Contains(output, "★") {
		t.Error("expected the new leader in the grid")
	}

	press(t, app, specialKeyMsg(tea.KeyF3))
	if got := env.wizard.Stage(); got != 5 {
		t.Errorf("Stage() = %d, want 5", got)
	}
}

func TestApp_FamilyDialogRejectsIncomplete(t *testing.T) {
	draft := completeDraft(4)
	draft.Family = nil
	app, env := newTestAppWithDraft(t, draft)

	press(t, app, keyMsg("a"))
	press(t, app, specialKeyMsg(tea.KeyCtrlS))

	if app.familyDialog == nil {
		t.Fatal("expected the dialog to stay open")
	}
	if !strings.Contains(app.View(), "Nombres es obligatorio") {
		t.Error("expected validation message in dialog")
	}
	if n := len(env.wizard.FamilyMembers()); n != 0 {
		t.Errorf("family size = %d, want 0", n)
	}

	press(t, app, specialKeyMsg(tea.KeyEscape))
	if app.familyDialog != nil {
		t.Error("expected esc to close the dialog")
	}
}

func TestApp_EditFamilyMember(t *testing.T) {
	app, env := newTestAppWithDraft(t, completeDraft(4))
	original := env.wizard.FamilyMembers()[0]

	press(t, app, specialKeyMsg(tea.KeyEnter))
	if app.familyDialog == nil {
		t.Fatal("expected the member dialog to open")
	}

	typeText(t, app, " Jr")
	press(t, app, specialKeyMsg(tea.KeyCtrlS))

	if app.familyDialog != nil {
		t.Fatalf("expected the dialog to close: %s", app.familyDialog.Render())
	}
	family := env.wizard.FamilyMembers()
	if len(family) != 1 {
		t.Fatalf("family size = %d, want 1", len(family))
	}
	if family[0].ID != original.ID {
		t.Errorf("ID = %q, want %q", family[0].ID, original.ID)
	}
	if want := original.Nombres + " Jr"; family[0].Nombres != want {
		t.Errorf("Nombres = %q, want %q", family[0].Nombres, want)
	}
}

func TestApp_RemoveFamilyMemberConfirm(t *testing.T) {
	app, env := newTestAppWithDraft(t, completeDraft(4))

	press(t, app, keyMsg("d"))
	if !app.showConfirm || app.confirm != confirmRemove {
		t.Fatal("expected a removal confirmation")
	}
	press(t, app, keyMsg("n"))
	if n := len(env.wizard.FamilyMembers()); n != 1 {
		t.Fatalf("after cancel, family size = %d, want 1", n)
	}

	press(t, app, keyMsg("d"))
	press(t, app, keyMsg("s"))
	if n := len(env.wizard.FamilyMembers()); n != 0 {
		t.Errorf("after confirm, family size = %d, want 0", n)
	}
}

func TestApp_AddDeceasedMember(t *testing.T) {
	app, env := newTestAppWithDraft(t, completeDraft(5))

	press(t, app, keyMsg("a"))
	if app.deceasedDialog == nil {
		t.Fatal("expected the deceased dialog to open")
	}
	typeText(t, app, "Rosa Restrepo")
	press(t, app, specialKeyMsg(tea.KeyCtrlS))

	if app.deceasedDialog != nil {
		t.Fatalf("expected the dialog to close: %s", app.deceasedDialog.Render())
	}
	deceased := env.wizard.DeceasedMembers()
	if len(deceased) != 1 || deceased[0].Nombres != "Rosa Restrepo" {
		t.Errorf("DeceasedMembers() = %+v", deceased)
	}
	if !strings.Contains(app.View(), "Rosa Restrepo") {
		t.Error("expected the deceased member in the grid")
	}
}

func TestApp_SubmitRequiresConsent(t *testing.T) {
	app, env := newTestAppWithDraft(t, completeDraft(6))

	press(t, app, specialKeyMsg(tea.KeyF5))

	if app.result != nil {
		t.Fatal("expected no result without consent")
	}
	if env.service.submissions() != 0 {
		t.Errorf("submissions = %d, want 0", env.service.submissions())
	}
	if len(app.alerts) == 0 || app.alerts[0].Level != AlertCritical {
		t.Fatalf("expected a critical alert, got %v", app.alerts)
	}
	if !strings.Contains(app.alerts[0].Message, "autorizar") {
		t.Errorf("alert message = %q", app.alerts[0].Message)
	}
}

func TestApp_SubmitSuccess(t *testing.T) {
	app, env := newTestAppWithDraft(t, completeDraft(6))

	// Consent is the third field of the last stage.
	press(t, app, specialKeyMsg(tea.KeyTab))
	press(t, app, specialKeyMsg(tea.KeyTab))
	press(t, app, keyMsg(" "))
	if !env.wizard.Value(models.FieldAutorizacionDatos).IsTrue() {
		t.Fatal("expected consent to be recorded")
	}

	press(t, app, specialKeyMsg(tea.KeyF5))

	if app.result == nil {
		t.Fatalf("expected a result, alerts: %v", app.alerts)
	}
	if env.service.submissions() != 1 {
		t.Errorf("submissions = %d, want 1", env.service.submissions())
	}
	if _, found, _ := env.drafts.Load(context.Background(), survey.DraftKey); found {
		t.Error("expected the draft to be removed after submit")
	}

	output := app.View()
	if !strings.Contains(output, "ENCUESTA ENVIADA") || !strings.Contains(output, "enc-1") {
		t.Error("expected the completion screen")
	}

	_, cmd := app.Update(specialKeyMsg(tea.KeyEnter))
	if !app.quitting || cmd == nil {
		t.Error("expected enter to quit from the completion screen")
	}
}

func TestApp_SubmitFailureKeepsDraft(t *testing.T) {
	app, env := newTestAppWithDraft(t, completeDraft(6))
	env.service.result = models.Result{
		Success:      false,
		Message:      "Sector inválido",
		ErrorDetails: &models.ErrorDetails{Code: "SECTOR_INVALIDO"},
	}

	press(t, app, specialKeyMsg(tea.KeyTab))
	press(t, app, specialKeyMsg(tea.KeyTab))
	press(t, app, keyMsg(" "))
	press(t, app, specialKeyMsg(tea.KeyF5))

	if app.result != nil {
		t.Error("expected no completion screen after a rejected submit")
	}
	if app.submitting {
		t.Error("expected submitting to be reset")
	}
	if len(app.alerts) == 0 || !strings.Contains(app.alerts[0].Message, "SECTOR_INVALIDO") {
		t.Errorf("expected the backend code in the alert, got %v", app.alerts)
	}
	if got := env.wizard.Stage(); got != 6 {
		t.Errorf("Stage() = %d, want 6", got)
	}
	if _, found, _ := env.drafts.Load(context.Background(), survey.DraftKey); !found {
		t.Error("expected the draft to be kept")
	}
}

func TestApp_ClearDraft(t *testing.T) {
	app, env := newTestAppWithDraft(t, completeDraft(3))

	press(t, app, specialKeyMsg(tea.KeyF8))
	if !app.showConfirm || app.confirm != confirmClear {
		t.Fatal("expected a clear confirmation")
	}
	if !strings.Contains(app.View(), "DESCARTAR BORRADOR") {
		t.Error("expected the clear dialog")
	}

	press(t, app, keyMsg("s"))

	if got := env.wizard.Stage(); got != 1 {
		t.Errorf("Stage() = %d, want 1", got)
	}
	if len(env.wizard.FamilyMembers()) != 0 {
		t.Error("expected family to be cleared")
	}
	if _, found, _ := env.drafts.Load(context.Background(), survey.DraftKey); found {
		t.Error("expected the stored draft to be deleted")
	}
	if app.stageForm == nil {
		t.Error("expected the stage 1 form after clearing")
	}
}

func TestApp_QuitConfirm(t *testing.T) {
	app, _ := newTestApp(t)

	app.Update(specialKeyMsg(tea.KeyF10))
	if !app.showConfirm || app.confirm != confirmQuit {
		t.Fatal("expected quit confirmation")
	}
	if !strings.Contains(app.View(), "CONFIRMAR SALIDA") {
		t.Error("expected confirm dialog in view")
	}

	app.Update(keyMsg("n"))
	if app.showConfirm || app.quitting {
		t.Error("expected n to dismiss the dialog")
	}

	app.Update(specialKeyMsg(tea.KeyCtrlC))
	_, cmd := app.Update(keyMsg("y"))
	if !app.quitting {
		t.Error("expected quitting after confirm")
	}
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.Quit")
	}
}

func TestApp_HelpToggle(t *testing.T) {
	app, env := newTestApp(t)

	app.Update(specialKeyMsg(tea.KeyF1))
	if !app.showHelp {
		t.Fatal("expected help to open")
	}
	if !strings.Contains(app.View(), "AYUDA") {
		t.Error("expected help screen")
	}

	// Wizard keys are ignored while help is shown.
	app.Update(specialKeyMsg(tea.KeyF3))
	if env.wizard.Stage() != 1 {
		t.Error("expected stage to be unchanged behind help")
	}

	app.Update(specialKeyMsg(tea.KeyEscape))
	if app.showHelp {
		t.Error("expected esc to close help")
	}
}

func TestApp_WindowResize(t *testing.T) {
	app, _ := newTestApp(t)

	app.Update(tea.WindowSizeMsg{Width: 70, Height: 24})
	if app.width != 70 || app.height != 24 {
		t.Errorf("size = %dx%d, want 70x24", app.width, app.height)
	}
	if !app.ready {
		t.Error("expected app to be ready")
	}
}

func TestApp_AddAlert(t *testing.T) {
	app, _ := newTestApp(t)

	app.AddAlert(AlertInfo, "first")
	app.AddAlert(AlertCritical, "second")

	if len(app.alerts) != 2 {
		t.Fatalf("alerts = %d, want 2", len(app.alerts))
	}
	if app.alerts[0].Message != "second" {
		t.Errorf("newest alert = %q, want %q", app.alerts[0].Message, "second")
	}
	if !strings.Contains(app.View(), "ERROR: second") {
		t.Error("expected the newest alert in the alert bar")
	}

	for i := 0; i < 12; i++ {
		app.AddAlert(AlertInfo, fmt.Sprintf("alert %d", i))
	}
	if len(app.alerts) != 10 {
		t.Errorf("alerts = %d, want 10", len(app.alerts))
	}

	app.ClearAlerts()
	if len(app.alerts) != 0 {
		t.Error("expected alerts to be cleared")
	}
}

func TestApp_IgnoresKeysBeforeInit(t *testing.T) {
	env := newTestEnv(t)
	app := New(config.Default(), env.wizard, env.catalog, "")
	app.width, app.height, app.ready = 120, 40, true

	app.Update(specialKeyMsg(tea.KeyF3))
	if env.wizard.Stage() != 1 {
		t.Error("expected no navigation before init")
	}
	if !strings.Contains(app.View(), "Cargando encuesta") {
		t.Error("expected loading message before init")
	}
}
