package members

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/censoparroquial/censo/internal/models"
	"github.com/censoparroquial/censo/internal/services/survey"
	"github.com/censoparroquial/censo/internal/tui/components"
	"github.com/censoparroquial/censo/internal/util"
)

// DialogMode indicates whether a dialog adds or edits a member.
type DialogMode int

const (
	DialogAdd DialogMode = iota
	DialogEdit
)

// FamilyCatalogs lists the option sets the family dialog draws from.
var FamilyCatalogs = []string{
	models.CatalogTiposIdentificacion,
	models.CatalogSexos,
	models.CatalogParentescos,
	models.CatalogEstadosCiviles,
	models.CatalogEstudios,
	models.CatalogProfesiones,
	models.CatalogEnfermedades,
	models.CatalogHabilidades,
	models.CatalogDestrezas,
}

// DeceasedCatalogs lists the option sets the deceased dialog draws from.
var DeceasedCatalogs = []string{
	models.CatalogSexos,
	models.CatalogParentescos,
}

type optionField struct {
	configKey string
	field     interface {
		SetChoices([]components.Choice)
		SetLoading(bool)
		SetError(string)
	}
}

// selectAdapter and checklistAdapter drop the chaining return values so
// both inputs satisfy optionField.
type selectAdapter struct{ *components.Select }

func (s selectAdapter) SetChoices(c []components.Choice) { s.Select.SetChoices(c) }

type checklistAdapter struct{ *components.Checklist }

func (c checklistAdapter) SetChoices(ch []components.Choice) { c.Checklist.SetChoices(ch) }

func syncOptions(fields []optionField, sources survey.Sources) {
	for _, of := range fields {
		set := sources.Options(of.configKey)
		choices := make([]components.Choice, len(set.Options))
		for i, o := range set.Options {
			choices[i] = components.Choice{Value: o.Value, Label: o.Label}
		}
		of.field.SetChoices(choices)
		of.field.SetLoading(set.Loading)
		if set.Err != nil {
			of.field.SetError("no se pudieron cargar las opciones")
		} else {
			of.field.SetError("")
		}
	}
}

// selectedRef returns the chosen option as a ref. A select whose options
// never loaded keeps previous.
func selectedRef(s *components.Select, previous *models.Ref) *models.Ref {
	if s.Len() == 0 {
		return previous
	}
	c, ok := s.Selected()
	if !ok {
		return nil
	}
	r := models.RefFromOption(models.Option{Value: c.Value, Label: c.Label})
	return &r
}

func refKey(r *models.Ref) string {
	if r == nil {
		return ""
	}
	return r.Key()
}

// checkedRefs converts checked values to refs, naming them from labels or,
// failing that, from the refs the member already had.
func checkedRefs(c *components.Checklist, labels map[string]string, previous []models.Ref) []models.Ref {
	known := make(map[string]models.Ref, len(previous))
	for _, r := range previous {
		known[r.Key()] = r
	}
	vals := c.Values()
	refs := make([]models.Ref, 0, len(vals))
	for _, v := range vals {
		if label, ok := labels[v]; ok {
			refs = append(refs, models.RefFromOption(models.Option{Value: v, Label: label}))
		} else if r, ok := known[v]; ok {
			refs = append(refs, r)
		} else {
			refs = append(refs, models.RefFromOption(models.Option{Value: v}))
		}
	}
	return refs
}

func refKeys(refs []models.Ref) []string {
	keys := make([]string, len(refs))
	for i, r := range refs {
		keys[i] = r.Key()
	}
	return keys
}

// FamilyDialog adds or edits a living family member, including their
// celebration dates.
type FamilyDialog struct {
	mode       DialogMode
	member     models.FamilyMember
	dateLayout string
	now        func() time.Time

	nombres        *components.Input
	nacimiento     *components.Input
	tipoID         *components.Select
	numeroID       *components.Input
	sexo           *components.Select
	parentesco     *components.Select
	situacionCivil *components.Select
	estudio        *components.Select
	profesion      *components.Select
	camisa         *components.Input
	pantalon       *components.Input
	calzado        *components.Input
	enfermedades   *components.Checklist
	habilidades    *components.Checklist
	destrezas      *components.Checklist
	comunion       *components.Checkbox
	motivo         *components.Input
	dia            *components.Input
	mes            *components.Input

	celebraciones []models.Celebration
	options       []optionField
	labels        map[string]map[string]string
	form          *components.Form
}

// NewFamilyDialog creates an empty family member dialog.
func NewFamilyDialog(mode DialogMode, dateLayout string) *FamilyDialog {
	if dateLayout == "" {
		dateLayout = util.DateFormat
	}
	d := &FamilyDialog{
		mode:       mode,
		dateLayout: dateLayout,
		now:        time.Now,

		nombres:        components.NewInput("Nombres").SetRequired(true).SetWidth(32),
		nacimiento:     components.NewInput("Fecha de nacimiento").SetRequired(true).SetWidth(12).SetMaxLength(len(dateLayout)).SetPlaceholder(dateLayout),
		tipoID:         components.NewSelect("Tipo identificación", nil),
		numeroID:       components.NewInput("Número identificación").SetWidth(16).SetMaxLength(20),
		sexo:           components.NewSelect("Sexo", nil).SetRequired(true),
		parentesco:     components.NewSelect("Parentesco", nil).SetRequired(true),
		situacionCivil: components.NewSelect("Situación civil", nil),
		estudio:        components.NewSelect("Estudios", nil),
		profesion:      components.NewSelect("Profesión", nil),
		camisa:         components.NewInput("Talla camisa").SetWidth(6).SetMaxLength(6),
		pantalon:       components.NewInput("Talla pantalón").SetWidth(6).SetMaxLength(6),
		calzado:        components.NewInput("Talla calzado").SetWidth(6).SetMaxLength(6),
		enfermedades:   components.NewChecklist("Enfermedades", nil),
		habilidades:    components.NewChecklist("Habilidades", nil),
		destrezas:      components.NewChecklist("Destrezas", nil),
		comunion:       components.NewCheckbox("Comunión en casa"),
		motivo:         components.NewInput("Celebración: motivo").SetWidth(20).SetMaxLength(60),
		dia:            components.NewInput("Celebración: día").SetWidth(3).SetMaxLength(2).SetPlaceholder("dd"),
		mes:            components.NewInput("Celebración: mes").SetWidth(3).SetMaxLength(2).SetPlaceholder("mm"),
		labels:         make(map[string]map[string]string),
	}

	d.options = []optionField{
		{models.CatalogTiposIdentificacion, selectAdapter{d.tipoID}},
		{models.CatalogSexos, selectAdapter{d.sexo}},
		{models.CatalogParentescos, selectAdapter{d.parentesco}},
		{models.CatalogEstadosCiviles, selectAdapter{d.situacionCivil}},
		{models.CatalogEstudios, selectAdapter{d.estudio}},
		{models.CatalogProfesiones, selectAdapter{d.profesion}},
		{models.CatalogEnfermedades, checklistAdapter{d.enfermedades}},
		{models.CatalogHabilidades, checklistAdapter{d.habilidades}},
		{models.CatalogDestrezas, checklistAdapter{d.destrezas}},
	}

	title := "Nuevo miembro de la familia"
	if mode == DialogEdit {
		title = "Editar miembro de la familia"
	}
	d.form = components.NewForm(title).
		SetHelp("Tab/↓:Siguiente  Ctrl+N:Agregar celebración  Ctrl+X:Quitar última  Ctrl+S:Guardar  Esc:Cancelar")
	for _, f := range []components.FormField{
		d.nombres, d.nacimiento, d.tipoID, d.numeroID, d.sexo, d.parentesco,
		d.situacionCivil, d.estudio, d.profesion, d.camisa, d.pantalon, d.calzado,
		d.enfermedades, d.habilidades, d.destrezas, d.comunion,
		d.motivo, d.dia, d.mes,
	} {
		d.form.AddField(f)
	}

	return d
}

// Mode returns whether the dialog adds or edits.
func (d *FamilyDialog) Mode() DialogMode {
	return d.mode
}

// SetMember populates the dialog with an existing member.
func (d *FamilyDialog) SetMember(m models.FamilyMember) {
	d.member = m
	d.nombres.SetValue(m.Nombres)
	if m.FechaNacimiento != nil {
		d.nacimiento.SetValue(util.FormatDate(m.FechaNacimiento.Time, d.dateLayout))
	}
	d.tipoID.SetSelectedValue(refKey(m.TipoIdentificacion))
	d.numeroID.SetValue(m.NumeroIdentificacion)
	d.sexo.SetSelectedValue(refKey(m.Sexo))
	d.parentesco.SetSelectedValue(refKey(m.Parentesco))
	d.situacionCivil.SetSelectedValue(refKey(m.SituacionCivil))
	d.estudio.SetSelectedValue(refKey(m.Estudio))
	d.profesion.SetSelectedValue(refKey(m.Profesion))
	d.camisa.SetValue(m.Tallas.Camisa)
	d.pantalon.SetValue(m.Tallas.Pantalon)
	d.calzado.SetValue(m.Tallas.Calzado)
	d.enfermedades.SetValues(refKeys(m.Enfermedades))
	d.habilidades.SetValues(refKeys(m.Habilidades))
	d.destrezas.SetValues(refKeys(m.Destrezas))
	d.comunion.SetChecked(m.ComunionEnCasa)
	d.celebraciones = append([]models.Celebration(nil), m.Celebraciones...)
}

// SyncOptions refreshes every option-backed input from sources. Selects
// with nothing chosen yet pick up the edited member's value once its
// option arrives.
func (d *FamilyDialog) SyncOptions(sources survey.Sources) {
	pending := map[*components.Select]string{
		d.tipoID:         refKey(d.member.TipoIdentificacion),
		d.sexo:           refKey(d.member.Sexo),
		d.parentesco:     refKey(d.member.Parentesco),
		d.situacionCivil: refKey(d.member.SituacionCivil),
		d.estudio:        refKey(d.member.Estudio),
		d.profesion:      refKey(d.member.Profesion),
	}
	for s := range pending {
		if s.Value() != "" {
			delete(pending, s)
		}
	}

	syncOptions(d.options, sources)
	for s, v := range pending {
		s.SetSelectedValue(v)
	}
	for _, of := range d.options {
		labels := make(map[string]string)
		for _, o := range sources.Options(of.configKey).Options {
			labels[o.Value] = o.Label
		}
		d.labels[of.configKey] = labels
	}
}

// HandleKey handles dialog input.
func (d *FamilyDialog) HandleKey(key string) {
	switch key {
	case "ctrl+n":
		d.addCelebration()
	case "ctrl+x":
		if n := len(d.celebraciones); n > 0 {
			d.celebraciones = d.celebraciones[:n-1]
		}
	case "ctrl+s":
		d.form.SetError("")
		d.form.HandleKey(key)
	default:
		d.form.HandleKey(key)
	}
}

func (d *FamilyDialog) addCelebration() {
	dia, derr := strconv.Atoi(strings.TrimSpace(d.dia.Value()))
	mes, merr := strconv.Atoi(strings.TrimSpace(d.mes.Value()))
	c := models.Celebration{
		ID:     util.NewID(),
		Motivo: strings.TrimSpace(d.motivo.Value()),
		Dia:    dia,
		Mes:    mes,
	}
	if derr != nil || merr != nil || c.Validate() != nil {
		d.form.SetError("Celebración inválida: indique motivo, día y mes de una fecha real")
		return
	}
	d.celebraciones = append(d.celebraciones, c)
	d.motivo.SetValue("")
	d.dia.SetValue("")
	d.mes.SetValue("")
	d.form.SetError("")
}

// Celebrations returns the celebrations entered so far.
func (d *FamilyDialog) Celebrations() []models.Celebration {
	return append([]models.Celebration(nil), d.celebraciones...)
}

// IsSubmitted returns true if the dialog was submitted.
func (d *FamilyDialog) IsSubmitted() bool {
	return d.form.IsSubmitted()
}

// IsCancelled returns true if the dialog was cancelled.
func (d *FamilyDialog) IsCancelled() bool {
	return d.form.IsCancelled()
}

// Reject shows msg and lets the surveyor keep editing.
func (d *FamilyDialog) Reject(msg string) {
	d.form.SetError(msg)
	d.form.Resume()
}

// Member builds the member from the dialog inputs. The returned error is a
// surveyor-facing message listing every problem.
func (d *FamilyDialog) Member() (models.FamilyMember, error) {
	var problems []string

	m := d.member
	m.Nombres = strings.TrimSpace(d.nombres.Value())
	if m.Nombres == "" {
		problems = append(problems, "Nombres es obligatorio")
	}

	m.FechaNacimiento = nil
	switch raw := strings.TrimSpace(d.nacimiento.Value()); {
	case raw == "":
		problems = append(problems, "Fecha de nacimiento es obligatoria")
	default:
		t, err := util.ParseDate(raw, d.dateLayout)
		switch {
		case err != nil:
			problems = append(problems, "Fecha de nacimiento inválida")
		case t.After(d.now()):
			problems = append(problems, "La fecha de nacimiento no puede ser futura")
		default:
			m.FechaNacimiento = models.NewDate(t)
		}
	}

	m.TipoIdentificacion = selectedRef(d.tipoID, d.member.TipoIdentificacion)
	m.NumeroIdentificacion = strings.TrimSpace(d.numeroID.Value())
	m.Sexo = selectedRef(d.sexo, d.member.Sexo)
	if m.Sexo == nil {
		problems = append(problems, "Sexo es obligatorio")
	}
	m.Parentesco = selectedRef(d.parentesco, d.member.Parentesco)
	if m.Parentesco == nil {
		problems = append(problems, "Parentesco es obligatorio")
	}
	m.SituacionCivil = selectedRef(d.situacionCivil, d.member.SituacionCivil)
	m.Estudio = selectedRef(d.estudio, d.member.Estudio)
	m.Profesion = selectedRef(d.profesion, d.member.Profesion)
	m.Tallas = models.Sizes{
		Camisa:   strings.TrimSpace(d.camisa.Value()),
		Pantalon: strings.TrimSpace(d.pantalon.Value()),
		Calzado:  strings.TrimSpace(d.calzado.Value()),
	}
	m.Enfermedades = checkedRefs(d.enfermedades, d.labels[models.CatalogEnfermedades], d.member.Enfermedades)
	m.Habilidades = checkedRefs(d.habilidades, d.labels[models.CatalogHabilidades], d.member.Habilidades)
	m.Destrezas = checkedRefs(d.destrezas, d.labels[models.CatalogDestrezas], d.member.Destrezas)
	m.ComunionEnCasa = d.comunion.Checked()
	m.Celebraciones = d.Celebrations()

	if len(problems) > 0 {
		return m, fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return m, nil
}

// Render renders the dialog.
func (d *FamilyDialog) Render() string {
	var b strings.Builder
	b.WriteString(d.form.Render())
	b.WriteString("\n\nCelebraciones:")
	if len(d.celebraciones) == 0 {
		b.WriteString(" ninguna")
	}
	for _, c := range d.celebraciones {
		b.WriteString(fmt.Sprintf("\n  • %s: %02d/%02d", c.Motivo, c.Dia, c.Mes))
	}
	return b.String()
}

// DeceasedDialog adds or edits a deceased family member.
type DeceasedDialog struct {
	mode       DialogMode
	member     models.DeceasedMember
	dateLayout string
	now        func() time.Time

	nombres       *components.Input
	fallecimiento *components.Input
	sexo          *components.Select
	parentesco    *components.Select
	causa         *components.Input

	options []optionField
	form    *components.Form
}

// NewDeceasedDialog creates an empty deceased member dialog.
func NewDeceasedDialog(mode DialogMode, dateLayout string) *DeceasedDialog {
	if dateLayout == "" {
		dateLayout = util.DateFormat
	}
	d := &DeceasedDialog{
		mode:       mode,
		dateLayout: dateLayout,
		now:        time.Now,

		nombres:       components.NewInput("Nombres").SetRequired(true).SetWidth(32),
		fallecimiento: components.NewInput("Fecha de fallecimiento").SetWidth(12).SetMaxLength(len(dateLayout)).SetPlaceholder(dateLayout),
		sexo:          components.NewSelect("Sexo", nil),
		parentesco:    components.NewSelect("Parentesco", nil),
		causa:         components.NewInput("Causa").SetWidth(32).SetMaxLength(200),
	}
	d.options = []optionField{
		{models.CatalogSexos, selectAdapter{d.sexo}},
		{models.CatalogParentescos, selectAdapter{d.parentesco}},
	}

	title := "Nuevo difunto"
	if mode == DialogEdit {
		title = "Editar difunto"
	}
	d.form = components.NewForm(title).
		AddField(d.nombres).
		AddField(d.fallecimiento).
		AddField(d.sexo).
		AddField(d.parentesco).
		AddField(d.causa)

	return d
}

// Mode returns whether the dialog adds or edits.
func (d *DeceasedDialog) Mode() DialogMode {
	return d.mode
}

// SetMember populates the dialog with an existing deceased member.
func (d *DeceasedDialog) SetMember(m models.DeceasedMember) {
	d.member = m
	d.nombres.SetValue(m.Nombres)
	if m.FechaFallecimiento != nil {
		d.fallecimiento.SetValue(util.FormatDate(m.FechaFallecimiento.Time, d.dateLayout))
	}
	d.sexo.SetSelectedValue(refKey(m.Sexo))
	d.parentesco.SetSelectedValue(refKey(m.Parentesco))
	d.causa.SetValue(m.CausaFallecimiento)
}

// SyncOptions refreshes the option-backed inputs from sources.
func (d *DeceasedDialog) SyncOptions(sources survey.Sources) {
	sexo, parentesco := d.sexo.Value(), d.parentesco.Value()
	if sexo == "" {
		sexo = refKey(d.member.Sexo)
	}
	if parentesco == "" {
		parentesco = refKey(d.member.Parentesco)
	}
	syncOptions(d.options, sources)
	d.sexo.SetSelectedValue(sexo)
	d.parentesco.SetSelectedValue(parentesco)
}

// HandleKey handles dialog input.
func (d *DeceasedDialog) HandleKey(key string) {
	d.form.HandleKey(key)
}

// IsSubmitted returns true if the dialog was submitted.
func (d *DeceasedDialog) IsSubmitted() bool {
	return d.form.IsSubmitted()
}

// IsCancelled returns true if the dialog was cancelled.
func (d *DeceasedDialog) IsCancelled() bool {
	return d.form.IsCancelled()
}

// Reject shows msg and lets the surveyor keep editing.
func (d *DeceasedDialog) Reject(msg string) {
	d.form.SetError(msg)
	d.form.Resume()
}

// Member builds the deceased member from the dialog inputs.
func (d *DeceasedDialog) Member() (models.DeceasedMember, error) {
	var problems []string

	m := d.member
	m.Nombres = strings.TrimSpace(d.nombres.Value())
	if m.Nombres == "" {
		problems = append(problems, "Nombres es obligatorio")
	}

	m.FechaFallecimiento = nil
	if raw := strings.TrimSpace(d.fallecimiento.Value()); raw != "" {
		t, err := util.ParseDate(raw, d.dateLayout)
		switch {
		case err != nil:
			problems = append(problems, "Fecha de fallecimiento inválida")
		case t.After(d.now()):
			problems = append(problems, "La fecha de fallecimiento no puede ser futura")
		default:
			m.FechaFallecimiento = models.NewDate(t)
		}
	}

	m.Sexo = selectedRef(d.sexo, d.member.Sexo)
	m.Parentesco = selectedRef(d.parentesco, d.member.Parentesco)
	m.CausaFallecimiento = strings.TrimSpace(d.causa.Value())

	if len(problems) > 0 {
		return m, fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return m, nil
}

// Render renders the dialog.
func (d *DeceasedDialog) Render() string {
	return d.form.Render()
}
