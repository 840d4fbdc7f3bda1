package members

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/censoparroquial/censo/internal/models"
	"github.com/censoparroquial/censo/internal/services/survey"
	"github.com/censoparroquial/censo/internal/testutil"
)

var dialogNow = time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)

type staticSources struct {
	options map[string][]models.Option
	err     error
}

func (s staticSources) Options(key string) survey.OptionSet {
	return survey.OptionSet{Options: s.options[key], Err: s.err}
}

func (s staticSources) Dependent(string, string) survey.OptionSet {
	return survey.OptionSet{}
}

var memberSources = staticSources{options: map[string][]models.Option{
	models.CatalogTiposIdentificacion: {{Value: "1", Label: "Cédula de Ciudadanía"}},
	models.CatalogSexos:               {{Value: "1", Label: "Masculino"}, {Value: "2", Label: "Femenino"}},
	models.CatalogParentescos:         {{Value: "1", Label: "Jefe de Hogar"}, {Value: "4", Label: "Hijo"}},
	models.CatalogEstadosCiviles:      {{Value: "2", Label: "Casado"}},
	models.CatalogEnfermedades:        {{Value: "7", Label: "Asma"}},
}}

func newFamilyDialog(mode DialogMode) *FamilyDialog {
	d := NewFamilyDialog(mode, "")
	d.now = func() time.Time { return dialogNow }
	d.SyncOptions(memberSources)
	return d
}

type keyHandler interface{ HandleKey(string) }

func typeInto(d keyHandler, s string) {
	for _, r := range s {
		d.HandleKey(string(r))
	}
}

func tabs(d keyHandler, n int) {
	for i := 0; i < n; i++ {
		d.HandleKey("tab")
	}
}

func TestFamilyDialog_Titles(t *testing.T) {
	if out := newFamilyDialog(DialogAdd).Render(); !strings.Contains(out, "Nuevo miembro de la familia") {
		t.Errorf("add Render() missing title:\n%s", out)
	}
	d := newFamilyDialog(DialogEdit)
	if d.Mode() != DialogEdit {
		t.Errorf("Mode() = %v, want DialogEdit", d.Mode())
	}
	if out := d.Render(); !strings.Contains(out, "Editar miembro de la familia") {
		t.Errorf("edit Render() missing title:\n%s", out)
	}
}

func TestFamilyDialog_EmptyMemberListsProblems(t *testing.T) {
	_, err := newFamilyDialog(DialogAdd).Member()
	if err == nil {
		t.Fatal("expected error for empty dialog")
	}
	for _, want := range []string{
		"Nombres es obligatorio",
		"Fecha de nacimiento es obligatoria",
		"Sexo es obligatorio",
		"Parentesco es obligatorio",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

// fillRequired types a name and birth date and picks the first sex and
// relationship.
func fillRequired(d *FamilyDialog, dob string) {
	typeInto(d, "Marta Gómez")
	tabs(d, 1)
	typeInto(d, dob)
	tabs(d, 3)
	d.HandleKey("right")
	tabs(d, 1)
	d.HandleKey("right")
}

func TestFamilyDialog_Member(t *testing.T) {
	d := newFamilyDialog(DialogAdd)
	fillRequired(d, "1985-04-20")

	m, err := d.Member()
	if err != nil {
		t.Fatalf("Member() error = %v", err)
	}
	if m.Nombres != "Marta Gómez" {
		t.Errorf("Nombres = %q, want Marta Gómez", m.Nombres)
	}
	if m.FechaNacimiento == nil || !m.FechaNacimiento.Equal(time.Date(1985, 4, 20, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("FechaNacimiento = %v, want 1985-04-20", m.FechaNacimiento)
	}
	if m.Sexo == nil || m.Sexo.ID != 1 || m.Sexo.Nombre != "Masculino" {
		t.Errorf("Sexo = %+v, want {1 Masculino}", m.Sexo)
	}
	if m.Parentesco == nil || m.Parentesco.Nombre != "Jefe de Hogar" {
		t.Errorf("Parentesco = %+v, want Jefe de Hogar", m.Parentesco)
	}
	if m.TipoIdentificacion != nil {
		t.Errorf("TipoIdentificacion = %+v, want nil", m.TipoIdentificacion)
	}
}

func TestFamilyDialog_FutureBirthDate(t *testing.T) {
	d := newFamilyDialog(DialogAdd)
	fillRequired(d, "2030-01-01")

	_, err := d.Member()
	if err == nil || !strings.Contains(err.Error(), "no puede ser futura") {
		t.Errorf("Member() error = %v, want future date error", err)
	}
}

func TestFamilyDialog_InvalidBirthDate(t *testing.T) {
	d := newFamilyDialog(DialogAdd)
	fillRequired(d, "1990-13-45")

	_, err := d.Member()
	if err == nil || !strings.Contains(err.Error(), "Fecha de nacimiento inválida") {
		t.Errorf("Member() error = %v, want invalid date error", err)
	}
}

func TestFamilyDialog_EditKeepsExistingValues(t *testing.T) {
	existing := testutil.FixtureFamilyMember(func(m *models.FamilyMember) {
		m.FechaNacimiento = models.NewDate(time.Date(1984, 2, 10, 0, 0, 0, 0, time.UTC))
		m.Enfermedades = []models.Ref{{ID: 9, Nombre: "Diabetes"}}
	})

	d := NewFamilyDialog(DialogEdit, "")
	d.now = func() time.Time { return dialogNow }
	d.SetMember(*existing)
	d.SyncOptions(memberSources)

	m, err := d.Member()
	if err != nil {
		t.Fatalf("Member() error = %v", err)
	}
	if m.ID != existing.ID {
		t.Errorf("ID = %q, want %q", m.ID, existing.ID)
	}
	if m.Sexo == nil || m.Sexo.ID != 1 {
		t.Errorf("Sexo = %+v, want id 1", m.Sexo)
	}
	if m.SituacionCivil == nil || m.SituacionCivil.Nombre != "Casado" {
		t.Errorf("SituacionCivil = %+v, want Casado", m.SituacionCivil)
	}
	if len(m.Enfermedades) != 1 || m.Enfermedades[0].Nombre != "Diabetes" {
		t.Errorf("Enfermedades = %+v, want [Diabetes]", m.Enfermedades)
	}
	if m.NumeroIdentificacion != existing.NumeroIdentificacion {
		t.Errorf("NumeroIdentificacion = %q, want %q", m.NumeroIdentificacion, existing.NumeroIdentificacion)
	}
}

func TestFamilyDialog_EditWithoutCatalogsKeepsRefs(t *testing.T) {
	existing := testutil.FixtureFamilyMember()

	d := NewFamilyDialog(DialogEdit, "")
	d.SetMember(*existing)

	m, err := d.Member()
	if err != nil {
		t.Fatalf("Member() error = %v", err)
	}
	if m.Parentesco == nil || m.Parentesco.Nombre != "Jefe de Hogar" {
		t.Errorf("Parentesco = %+v, want Jefe de Hogar", m.Parentesco)
	}
	if m.TipoIdentificacion == nil || m.TipoIdentificacion.ID != 1 {
		t.Errorf("TipoIdentificacion = %+v, want id 1", m.TipoIdentificacion)
	}
}

func TestFamilyDialog_Checklist(t *testing.T) {
	d := newFamilyDialog(DialogAdd)
	fillRequired(d, "1985-04-20")
	tabs(d, 7) // enfermedades
	d.HandleKey(" ")

	m, err := d.Member()
	if err != nil {
		t.Fatalf("Member() error = %v", err)
	}
	if len(m.Enfermedades) != 1 || m.Enfermedades[0].ID != 7 || m.Enfermedades[0].Nombre != "Asma" {
		t.Errorf("Enfermedades = %+v, want [{7 Asma}]", m.Enfermedades)
	}
}

func TestFamilyDialog_Celebrations(t *testing.T) {
	d := newFamilyDialog(DialogAdd)
	tabs(d, 16)
	typeInto(d, "Cumpleaños")
	tabs(d, 1)
	typeInto(d, "12")
	tabs(d, 1)
	typeInto(d, "5")
	d.HandleKey("ctrl+n")

	got := d.Celebrations()
	if len(got) != 1 {
		t.Fatalf("len(Celebrations()) = %d, want 1", len(got))
	}
	if got[0].Motivo != "Cumpleaños" || got[0].Dia != 12 || got[0].Mes != 5 {
		t.Errorf("celebration = %+v, want Cumpleaños 12/5", got[0])
	}
	if got[0].ID == "" {
		t.Error("celebration has no ID")
	}
	if !strings.Contains(d.Render(), "Cumpleaños: 12/05") {
		t.Errorf("Render() missing celebration:\n%s", d.Render())
	}

	d.HandleKey("ctrl+x")
	if len(d.Celebrations()) != 0 {
		t.Errorf("len(Celebrations()) = %d after ctrl+x, want 0", len(d.Celebrations()))
	}
}

func TestFamilyDialog_InvalidCelebration(t *testing.T) {
	d := newFamilyDialog(DialogAdd)
	tabs(d, 16)
	typeInto(d, "Aniversario")
	tabs(d, 1)
	typeInto(d, "31")
	tabs(d, 1)
	typeInto(d, "2")
	d.HandleKey("ctrl+n")

	if len(d.Celebrations()) != 0 {
		t.Error("31 February should be rejected")
	}
	if !strings.Contains(d.Render(), "Celebración inválida") {
		t.Errorf("Render() missing error:\n%s", d.Render())
	}
}

func TestFamilyDialog_SubmitRejectAndCancel(t *testing.T) {
	d := newFamilyDialog(DialogAdd)

	d.HandleKey("ctrl+s")
	if !d.IsSubmitted() {
		t.Fatal("ctrl+s should submit")
	}

	d.Reject("Nombres es obligatorio")
	if d.IsSubmitted() {
		t.Error("Reject should resume editing")
	}
	if !strings.Contains(d.Render(), "Nombres es obligatorio") {
		t.Errorf("Render() missing rejection:\n%s", d.Render())
	}

	d.HandleKey("esc")
	if !d.IsCancelled() {
		t.Error("esc should cancel")
	}
}

func TestFamilyDialog_OptionError(t *testing.T) {
	d := NewFamilyDialog(DialogAdd, "")
	d.SyncOptions(staticSources{err: errors.New("offline")})

	if !strings.Contains(d.Render(), "no se pudieron cargar las opciones") {
		t.Errorf("Render() missing option error:\n%s", d.Render())
	}
}

func newDeceasedDialog(mode DialogMode) *DeceasedDialog {
	d := NewDeceasedDialog(mode, "")
	d.now = func() time.Time { return dialogNow }
	d.SyncOptions(memberSources)
	return d
}

func TestDeceasedDialog_NameRequired(t *testing.T) {
	_, err := newDeceasedDialog(DialogAdd).Member()
	if err == nil || !strings.Contains(err.Error(), "Nombres es obligatorio") {
		t.Errorf("Member() error = %v, want name error", err)
	}
}

func TestDeceasedDialog_Member(t *testing.T) {
	d := newDeceasedDialog(DialogAdd)
	typeInto(d, "Rosa")
	tabs(d, 1)
	typeInto(d, "2019-11-02")
	tabs(d, 1)
	d.HandleKey("right")
	d.HandleKey("right")
	tabs(d, 2)
	typeInto(d, "Vejez")

	m, err := d.Member()
	if err != nil {
		t.Fatalf("Member() error = %v", err)
	}
	if m.Nombres != "Rosa" || m.CausaFallecimiento != "Vejez" {
		t.Errorf("member = %+v", m)
	}
	if m.FechaFallecimiento == nil || !m.FechaFallecimiento.Equal(time.Date(2019, 11, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("FechaFallecimiento = %v, want 2019-11-02", m.FechaFallecimiento)
	}
	if m.Sexo == nil || m.Sexo.Nombre != "Femenino" {
		t.Errorf("Sexo = %+v, want Femenino", m.Sexo)
	}
	if m.Parentesco != nil {
		t.Errorf("Parentesco = %+v, want nil", m.Parentesco)
	}
}

func TestDeceasedDialog_DateOptional(t *testing.T) {
	d := newDeceasedDialog(DialogAdd)
	typeInto(d, "Pedro")

	m, err := d.Member()
	if err != nil {
		t.Fatalf("Member() error = %v", err)
	}
	if m.FechaFallecimiento != nil {
		t.Errorf("FechaFallecimiento = %v, want nil", m.FechaFallecimiento)
	}
}

func TestDeceasedDialog_FutureDate(t *testing.T) {
	d := newDeceasedDialog(DialogAdd)
	typeInto(d, "Pedro")
	tabs(d, 1)
	typeInto(d, "2025-01-01")

	_, err := d.Member()
	if err == nil || !strings.Contains(err.Error(), "no puede ser futura") {
		t.Errorf("Member() error = %v, want future date error", err)
	}
}

func TestDeceasedDialog_Edit(t *testing.T) {
	existing := testutil.FixtureDeceasedMember()

	d := NewDeceasedDialog(DialogEdit, "")
	d.SetMember(*existing)
	d.SyncOptions(memberSources)

	if !strings.Contains(d.Render(), "Editar difunto") {
		t.Errorf("Render() missing title:\n%s", d.Render())
	}

	m, err := d.Member()
	if err != nil {
		t.Fatalf("Member() error = %v", err)
	}
	if m.ID != existing.ID {
		t.Errorf("ID = %q, want %q", m.ID, existing.ID)
	}
	if m.Sexo == nil || m.Sexo.Nombre != "Femenino" {
		t.Errorf("Sexo = %+v, want Femenino", m.Sexo)
	}
	// Abuela (id 5) is not among the loaded parentescos.
	if m.Parentesco != nil {
		t.Errorf("Parentesco = %+v, want nil", m.Parentesco)
	}
}
