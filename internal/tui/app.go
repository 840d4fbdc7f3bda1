package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/censoparroquial/censo/internal/config"
	"github.com/censoparroquial/censo/internal/models"
	"github.com/censoparroquial/censo/internal/services/survey"
	"github.com/censoparroquial/censo/internal/tui/views/members"
	"github.com/censoparroquial/censo/internal/tui/views/stage"
	"github.com/censoparroquial/censo/internal/util"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// MaxContentWidth is the maximum width for content display
const MaxContentWidth = 120

// chromeLines is the number of lines used by header, stage bar, alert bar
// and footer.
const chromeLines = 8

// confirmKind identifies what the confirm dialog is asking about.
type confirmKind int

const (
	confirmQuit confirmKind = iota
	confirmClear
	confirmRemove
)

// App is the main Bubble Tea application model.
type App struct {
	// Dependencies
	config   *config.Config
	wizard   *survey.Wizard
	catalog  *survey.Catalog
	surveyID string
	ctx      context.Context
	logger   *slog.Logger
	now      func() time.Time

	// UI state
	theme       *Theme
	keys        KeyMap
	width       int
	height      int
	ready       bool
	quitting    bool
	showConfirm bool
	confirm     confirmKind
	showHelp    bool

	// Wizard state
	initialized bool
	submitting  bool
	lastSaved   time.Time
	result      *models.Result

	// Views
	stageForm      *stage.Form
	familyGrid     *members.Grid
	deceasedGrid   *members.Grid
	familyDialog   *members.FamilyDialog
	deceasedDialog *members.DeceasedDialog
	pendingRemoval string

	// Alerts
	alerts []Alert
}

// Alert represents a message shown in the alert bar.
type Alert struct {
	Level   AlertLevel
	Message string
	Time    time.Time
}

// AlertLevel indicates the severity of an alert.
type AlertLevel int

const (
	AlertInfo AlertLevel = iota
	AlertWarning
	AlertCritical
)

// tickMsg is sent periodically to autosave the draft.
type tickMsg time.Time

type initMsg struct {
	restored bool
	err      error
}

type optionsMsg struct {
	err error
}

type savedMsg struct {
	saved bool
	err   error
	at    time.Time
}

type submitMsg struct {
	transition survey.Transition
	result     models.Result
	err        error
}

type clearedMsg struct {
	err error
}

// New creates a new App. A non-empty surveyID opens that survey for editing.
func New(cfg *config.Config, wizard *survey.Wizard, catalog *survey.Catalog, surveyID string) *App {
	theme := NewTheme(cfg.Display.ColorScheme)

	a := &App{
		config:       cfg,
		wizard:       wizard,
		catalog:      catalog,
		surveyID:     surveyID,
		ctx:          context.Background(),
		logger:       slog.Default().With("component", "tui"),
		now:          time.Now,
		theme:        theme,
		keys:         DefaultKeyMap(),
		familyGrid:   members.NewFamilyGrid(),
		deceasedGrid: members.NewDeceasedGrid(),
		alerts:       []Alert{},
	}
	for _, g := range []*members.Grid{a.familyGrid, a.deceasedGrid} {
		g.SetStyles(theme.TableHeader, theme.TableRow, theme.TableRowAlt, theme.Selected, theme.Border)
	}
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.initWizard(),
		tickCmd(),
	)
}

// tickCmd returns a command that sends tick messages.
func tickCmd() tea.Cmd {
	return tea.Tick(15*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a *App) dateLayout() string {
	if a.config.Display.DateFormat != "" {
		return a.config.Display.DateFormat
	}
	return util.DateFormat
}

// initWizard restores the draft or loads the survey being edited.
func (a *App) initWizard() tea.Cmd {
	return func() tea.Msg {
		restored, err := a.wizard.Init(a.ctx, a.surveyID)
		return initMsg{restored: restored, err: err}
	}
}

// loadOptions loads the option sets of fields given the current state.
func (a *App) loadOptions(fields []models.FieldDefinition) tea.Cmd {
	if len(fields) == 0 {
		return nil
	}
	return func() tea.Msg {
		state := a.wizard.Snapshot().State
		var errs []error
		for _, f := range fields {
			if err := a.catalog.LoadField(a.ctx, f, state); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", f.ID, err))
			}
		}
		return optionsMsg{err: errors.Join(errs...)}
	}
}

// prefetch loads top-level catalogs used by the member dialogs.
func (a *App) prefetch(configKeys ...string) tea.Cmd {
	return func() tea.Msg {
		return optionsMsg{err: a.catalog.Prefetch(a.ctx, configKeys...)}
	}
}

func (a *App) autosave() tea.Cmd {
	return func() tea.Msg {
		saved, err := a.wizard.Autosave(a.ctx)
		return savedMsg{saved: saved, err: err, at: a.now()}
	}
}

func (a *App) submit() tea.Cmd {
	a.submitting = true
	return func() tea.Msg {
		t, res, err := a.wizard.Submit(a.ctx)
		return submitMsg{transition: t, result: res, err: err}
	}
}

func (a *App) clearDraft() tea.Cmd {
	return func() tea.Msg {
		return clearedMsg{err: a.wizard.ClearDraft(a.ctx)}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.updateViewDimensions()
		return a, nil

	case tickMsg:
		if !a.initialized || a.submitting {
			return a, tickCmd()
		}
		return a, tea.Batch(a.autosave(), tickCmd())

	case initMsg:
		if msg.err != nil {
			a.logger.Error("loading survey failed", "survey_id", a.surveyID, "error", msg.err)
			a.AddAlert(AlertCritical, "No se pudo cargar la encuesta: "+survey.UserMessage(msg.err))
			return a, nil
		}
		a.initialized = true
		switch {
		case a.wizard.EditMode():
			a.AddAlert(AlertInfo, "Editando encuesta "+a.wizard.SurveyID())
		case msg.restored:
			a.AddAlert(AlertInfo, "Se restauró el borrador guardado")
		}
		return a, a.enterStage()

	case optionsMsg:
		if msg.err != nil {
			a.logger.Warn("loading options failed", "error", msg.err)
			a.AddAlert(AlertWarning, "Algunas listas de opciones no se pudieron cargar")
		}
		a.refresh()
		return a, nil

	case savedMsg:
		if msg.err != nil {
			a.logger.Error("autosave failed", "error", msg.err)
			a.AddAlert(AlertWarning, "No se pudo guardar el borrador")
		} else if msg.saved {
			a.lastSaved = msg.at
		}
		return a, nil

	case submitMsg:
		a.submitting = false
		if msg.err != nil {
			a.AddAlert(AlertCritical, survey.UserMessage(msg.err))
			a.refresh()
			return a, nil
		}
		res := msg.result
		a.result = &res
		a.lastSaved = time.Time{}
		message := res.Message
		if message == "" {
			message = "Encuesta enviada correctamente"
		}
		a.AddAlert(AlertInfo, message)
		return a, nil

	case clearedMsg:
		if msg.err != nil {
			a.AddAlert(AlertCritical, "No se pudo descartar el borrador")
			a.logger.Error("clearing draft failed", "error", msg.err)
		} else {
			a.AddAlert(AlertInfo, "Borrador descartado; la encuesta comienza de nuevo")
		}
		a.lastSaved = time.Time{}
		return a, a.enterStage()
	}

	return a, nil
}

// enterStage rebuilds the view for the wizard's current stage.
func (a *App) enterStage() tea.Cmd {
	current := a.wizard.CurrentStage()
	a.stageForm = nil

	switch current.Kind {
	case models.StageFamilyGrid:
		a.refresh()
		return a.prefetch(members.FamilyCatalogs...)
	case models.StageDeceasedGrid:
		a.refresh()
		return a.prefetch(members.DeceasedCatalogs...)
	default:
		a.stageForm = stage.NewForm(current, a.dateLayout())
		a.stageForm.Load(a.wizard.Snapshot().State, a.wizard.Readiness())
		return a.loadOptions(current.Fields)
	}
}

// refresh copies wizard state into the views.
func (a *App) refresh() {
	if a.stageForm != nil {
		a.stageForm.Sync(a.wizard.Snapshot().State, a.wizard.Readiness())
	}
	a.familyGrid.SetFamily(a.wizard.FamilyMembers(), a.wizard.IsLeader, a.now())
	a.deceasedGrid.SetDeceased(a.wizard.DeceasedMembers(), a.dateLayout())
	if a.familyDialog != nil {
		a.familyDialog.SyncOptions(a.catalog)
	}
	if a.deceasedDialog != nil {
		a.deceasedDialog.SyncOptions(a.catalog)
	}
}

// updateViewDimensions fits the grids to the window.
func (a *App) updateViewDimensions() {
	w := ContentWidth(a.width, 40, MaxContentWidth) - 4
	h := ContentHeight(a.height, chromeLines+4)
	a.familyGrid.Resize(w, h)
	a.deceasedGrid.Resize(w, h)
}

// handleKeyPress processes key press events.
func (a *App) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Modal dialogs take priority
	if a.showConfirm {
		return a.handleConfirmKeys(msg)
	}

	if a.result != nil {
		if a.keys.IsQuit(msg) || msg.String() == "enter" {
			a.quitting = true
			return a, tea.Quit
		}
		return a, nil
	}

	if a.showHelp {
		if a.keys.Help.Matches(msg) || a.keys.Cancel.Matches(msg) {
			a.showHelp = false
		}
		return a, nil
	}

	// Dialogs need all input, including keys bound globally
	if a.familyDialog != nil {
		return a.handleFamilyDialogKeys(msg)
	}
	if a.deceasedDialog != nil {
		return a.handleDeceasedDialogKeys(msg)
	}

	if a.keys.IsQuit(msg) {
		a.askConfirm(confirmQuit)
		return a, nil
	}
	if a.keys.Help.Matches(msg) {
		a.showHelp = true
		return a, nil
	}

	if !a.initialized || a.submitting {
		return a, nil
	}

	switch {
	case a.keys.PrevStage.Matches(msg):
		return a, a.previousStage()
	case a.keys.NextStage.Matches(msg):
		return a, a.nextStage()
	case a.keys.Submit.Matches(msg):
		return a, a.submit()
	case a.keys.ClearDraft.Matches(msg):
		if a.wizard.EditMode() {
			a.AddAlert(AlertWarning, "No hay borrador que descartar al editar una encuesta")
			return a, nil
		}
		a.askConfirm(confirmClear)
		return a, nil
	}

	switch a.wizard.CurrentStage().Kind {
	case models.StageFamilyGrid:
		return a.handleFamilyGridKeys(msg)
	case models.StageDeceasedGrid:
		return a.handleDeceasedGridKeys(msg)
	default:
		return a.handleStageKeys(msg)
	}
}

func (a *App) askConfirm(kind confirmKind) {
	a.showConfirm = true
	a.confirm = kind
}

// handleConfirmKeys handles the yes/no confirmation dialog.
func (a *App) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case a.keys.Confirm.Matches(msg):
		a.showConfirm = false
		switch a.confirm {
		case confirmQuit:
			a.quitting = true
			return a, tea.Quit
		case confirmClear:
			a.stageForm = nil
			return a, a.clearDraft()
		case confirmRemove:
			return a, a.removeSelected()
		}
	case a.keys.Cancel.Matches(msg):
		a.showConfirm = false
		a.pendingRemoval = ""
	}
	return a, nil
}

func (a *App) nextStage() tea.Cmd {
	t, verdict := a.wizard.Next()
	if !verdict.OK {
		a.AddAlert(AlertWarning, verdict.Reason)
		if a.stageForm != nil {
			a.stageForm.SetError(verdict.Reason)
		}
		return nil
	}
	if !t.Moved() {
		return nil
	}
	return tea.Batch(a.enterStage(), a.autosave())
}

func (a *App) previousStage() tea.Cmd {
	if !a.wizard.Previous().Moved() {
		return nil
	}
	return tea.Batch(a.enterStage(), a.autosave())
}

// handleStageKeys forwards keys to the field form and records changes.
func (a *App) handleStageKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.stageForm == nil {
		return a, nil
	}
	change, ok := a.stageForm.HandleKey(msg.String())
	if !ok {
		return a, nil
	}

	dependents, err := a.wizard.FieldChange(change.FieldID, change.Value)
	if err != nil {
		a.AddAlert(AlertWarning, survey.UserMessage(err))
		return a, nil
	}
	a.stageForm.SetError("")
	a.refresh()
	return a, tea.Batch(a.loadOptions(dependents), a.autosave())
}

func (a *App) handleFamilyGridKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case a.keys.Add.Matches(msg):
		a.familyDialog = members.NewFamilyDialog(members.DialogAdd, a.dateLayout())
		a.familyDialog.SyncOptions(a.catalog)
		return a, a.prefetch(members.FamilyCatalogs...)
	case a.keys.Edit.Matches(msg):
		id := a.familyGrid.SelectedID()
		for _, m := range a.wizard.FamilyMembers() {
			if m.ID == id {
				a.familyDialog = members.NewFamilyDialog(members.DialogEdit, a.dateLayout())
				a.familyDialog.SetMember(m)
				a.familyDialog.SyncOptions(a.catalog)
				return a, a.prefetch(members.FamilyCatalogs...)
			}
		}
	case a.keys.Remove.Matches(msg):
		if id := a.familyGrid.SelectedID(); id != "" {
			a.pendingRemoval = id
			a.askConfirm(confirmRemove)
		}
	case a.keys.IsNavigation(msg):
		a.familyGrid.HandleKey(msg.String())
	}
	return a, nil
}

func (a *App) handleDeceasedGridKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case a.keys.Add.Matches(msg):
		a.deceasedDialog = members.NewDeceasedDialog(members.DialogAdd, a.dateLayout())
		a.deceasedDialog.SyncOptions(a.catalog)
		return a, a.prefetch(members.DeceasedCatalogs...)
	case a.keys.Edit.Matches(msg):
		id := a.deceasedGrid.SelectedID()
		for _, m := range a.wizard.DeceasedMembers() {
			if m.ID == id {
				a.deceasedDialog = members.NewDeceasedDialog(members.DialogEdit, a.dateLayout())
				a.deceasedDialog.SetMember(m)
				a.deceasedDialog.SyncOptions(a.catalog)
				return a, a.prefetch(members.DeceasedCatalogs...)
			}
		}
	case a.keys.Remove.Matches(msg):
		if id := a.deceasedGrid.SelectedID(); id != "" {
			a.pendingRemoval = id
			a.askConfirm(confirmRemove)
		}
	case a.keys.IsNavigation(msg):
		a.deceasedGrid.HandleKey(msg.String())
	}
	return a, nil
}

// removeSelected removes the member awaiting confirmation.
func (a *App) removeSelected() tea.Cmd {
	id := a.pendingRemoval
	a.pendingRemoval = ""
	if id == "" {
		return nil
	}

	var err error
	if a.wizard.CurrentStage().Kind == models.StageDeceasedGrid {
		err = a.wizard.RemoveDeceasedMember(id)
	} else {
		err = a.wizard.RemoveFamilyMember(id)
	}
	if err != nil {
		a.AddAlert(AlertWarning, survey.UserMessage(err))
		return nil
	}
	a.refresh()
	return a.autosave()
}

// handleFamilyDialogKeys handles key presses while the member dialog is open.
func (a *App) handleFamilyDialogKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := a.familyDialog
	d.HandleKey(msg.String())

	if d.IsCancelled() {
		a.familyDialog = nil
		return a, nil
	}
	if !d.IsSubmitted() {
		return a, nil
	}

	m, err := d.Member()
	if err != nil {
		d.Reject(err.Error())
		return a, nil
	}
	if d.Mode() == members.DialogAdd {
		_, err = a.wizard.AddFamilyMember(m)
	} else {
		err = a.wizard.UpdateFamilyMember(m)
	}
	if err != nil {
		d.Reject(survey.UserMessage(err))
		return a, nil
	}

	a.familyDialog = nil
	a.AddAlert(AlertInfo, "Miembro guardado: "+m.Nombres)
	a.refresh()
	return a, a.autosave()
}

// handleDeceasedDialogKeys handles key presses while the deceased dialog is
// open.
func (a *App) handleDeceasedDialogKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := a.deceasedDialog
	d.HandleKey(msg.String())

	if d.IsCancelled() {
		a.deceasedDialog = nil
		return a, nil
	}
	if !d.IsSubmitted() {
		return a, nil
	}

	m, err := d.Member()
	if err != nil {
		d.Reject(err.Error())
		return a, nil
	}
	if d.Mode() == members.DialogAdd {
		_, err = a.wizard.AddDeceasedMember(m)
	} else {
		err = a.wizard.UpdateDeceasedMember(m)
	}
	if err != nil {
		d.Reject(survey.UserMessage(err))
		return a, nil
	}

	a.deceasedDialog = nil
	a.AddAlert(AlertInfo, "Difunto guardado: "+m.Nombres)
	a.refresh()
	return a, a.autosave()
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Inicializando..."
	}

	if a.quitting {
		return a.theme.Title.Render("Cerrando el censo parroquial...")
	}

	var b strings.Builder

	// Header
	b.WriteString(a.renderHeader())
	b.WriteString("\n")

	// Stage bar
	b.WriteString(a.renderStageBar())
	b.WriteString("\n")

	// Alert bar
	b.WriteString(a.renderAlertBar())
	b.WriteString("\n")

	// Main content area
	contentHeight := ContentHeight(a.height, chromeLines)
	if a.showConfirm {
		b.WriteString(a.renderConfirmDialog(contentHeight))
	} else {
		b.WriteString(a.renderContent(contentHeight))
	}

	// Footer/status bar
	b.WriteString("\n")
	b.WriteString(a.renderFooter())

	return b.String()
}

// renderHeader renders the top header bar.
func (a *App) renderHeader() string {
	title := fmt.Sprintf("CENSO PARROQUIAL v%s", Version)

	mode := "Nueva encuesta"
	if a.wizard.EditMode() {
		mode = "Editando " + a.wizard.SurveyID()
	}
	info := a.config.Parish.Name + " | " + mode

	spacing := a.width - lipgloss.Width(title) - lipgloss.Width(info) - 4
	if spacing < 1 {
		spacing = 1
	}

	header := a.theme.Header.Render(title) +
		strings.Repeat(" ", spacing) +
		a.theme.Header.Render(info)

	return header + "\n" + a.theme.DrawDoubleLine(a.width)
}

// renderStageBar renders the stage progress line.
func (a *App) renderStageBar() string {
	stages := a.wizard.Stages()
	current := a.wizard.Stage()
	if !a.initialized {
		return a.theme.Muted.Render(" Cargando encuesta...")
	}

	title := ""
	var tabs []string
	for _, s := range stages {
		label := fmt.Sprintf("%d", s.ID)
		switch {
		case s.ID < current:
			tabs = append(tabs, a.theme.StageDone.Render(label))
		case s.ID == current:
			title = s.Title
			tabs = append(tabs, a.theme.StageCurrent.Render(label))
		default:
			tabs = append(tabs, a.theme.StagePending.Render(label))
		}
	}

	progress := a.theme.ProgressBar(float64(current), float64(stages.Len()), 22)
	caption := a.theme.Title.Render(fmt.Sprintf("Etapa %d/%d · %s", current, stages.Len(), title))
	return " " + strings.Join(tabs, " ") + "  " + progress + " " + caption
}

// renderAlertBar renders the most recent alert.
func (a *App) renderAlertBar() string {
	today := a.theme.Value.Render(util.FormatDate(a.now(), a.dateLayout()))

	var alertText string
	if len(a.alerts) > 0 {
		alert := a.alerts[0]
		switch alert.Level {
		case AlertCritical:
			alertText = a.theme.AlertCrit.Render("ERROR: " + alert.Message)
		case AlertWarning:
			alertText = a.theme.AlertWarn.Render("AVISO: " + alert.Message)
		default:
			alertText = a.theme.Alert.Render(alert.Message)
		}
	} else {
		alertText = a.theme.Muted.Render("Listo")
	}

	return today + a.theme.StatusDivider.Render() + alertText
}

// renderContent renders the main content area for the current stage.
func (a *App) renderContent(height int) string {
	contentWidth := ContentWidth(a.width, 40, MaxContentWidth)

	var content string
	switch {
	case a.result != nil:
		content = a.renderCompleted()
	case a.showHelp:
		content = a.renderHelp()
	case !a.initialized:
		content = a.theme.Muted.Render("Cargando encuesta...")
	case a.familyDialog != nil:
		content = a.theme.Panel("", a.familyDialog.Render(), contentWidth)
	case a.deceasedDialog != nil:
		content = a.theme.Panel("", a.deceasedDialog.Render(), contentWidth)
	default:
		content = a.renderStage(contentWidth)
	}

	style := lipgloss.NewStyle().
		Width(a.width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Top)

	return style.Render(lipgloss.NewStyle().Width(contentWidth).Render(content))
}

// renderStage renders the current stage inside a titled panel.
func (a *App) renderStage(width int) string {
	current := a.wizard.CurrentStage()

	var body string
	switch current.Kind {
	case models.StageFamilyGrid:
		body = a.familyGrid.Render() + "\n\n" +
			a.theme.Muted.Render(fmt.Sprintf("★ %s", strings.Join(a.config.Survey.LeadershipRoles, ", "))) + "\n" +
			a.theme.Label.Render(a.keys.GridHelp())
	case models.StageDeceasedGrid:
		body = a.deceasedGrid.Render() + "\n\n" +
			a.theme.Label.Render(a.keys.GridHelp())
	default:
		if a.stageForm != nil {
			body = a.stageForm.Render()
		}
	}

	header := a.theme.Subtitle.Render(current.Description)
	return a.theme.Panel(current.Title, header+"\n\n"+body, width)
}

// renderCompleted renders the confirmation shown after a successful submit.
func (a *App) renderCompleted() string {
	var b strings.Builder

	b.WriteString(a.theme.Title.Render("═══ ENCUESTA ENVIADA ═══"))
	b.WriteString("\n\n")
	if a.result.Message != "" {
		b.WriteString(a.theme.Base.Render(a.result.Message))
		b.WriteString("\n")
	}
	if a.result.SurveyID != "" {
		b.WriteString(a.theme.Label.Render("Identificador: "))
		b.WriteString(a.theme.Value.Render(a.result.SurveyID))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(a.theme.Muted.Render("Presione Enter o F10 para salir"))

	return b.String()
}

// renderHelp renders the help screen.
func (a *App) renderHelp() string {
	var b strings.Builder

	b.WriteString(a.theme.Title.Render("═══ AYUDA ═══"))
	b.WriteString("\n\n")

	b.WriteString(a.theme.Subtitle.Render("ENCUESTA"))
	b.WriteString("\n\n")

	items := [][2]string{
		{"F1", "Ayuda"},
		{"F2/PgUp", "Etapa anterior"},
		{"F3/PgDn", "Etapa siguiente"},
		{"F5", "Enviar encuesta"},
		{"F8", "Descartar borrador"},
		{"F10", "Salir"},
	}
	for _, item := range items {
		line := fmt.Sprintf("    %-8s  %s", item[0], item[1])
		b.WriteString(a.theme.Primary.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(a.theme.Subtitle.Render("CAMPOS"))
	b.WriteString("\n\n")

	ctrlItems := [][2]string{
		{"Tab/↓", "Campo siguiente"},
		{"↑", "Campo anterior"},
		{"←/→", "Cambiar opción"},
		{"Espacio", "Marcar casilla"},
		{"a/e/d", "Agregar, editar o eliminar miembros"},
		{"Ctrl+S", "Guardar diálogo"},
		{"Esc", "Cancelar diálogo"},
	}
	for _, item := range ctrlItems {
		line := fmt.Sprintf("    %-8s  %s", item[0], item[1])
		b.WriteString(a.theme.Primary.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(a.theme.Muted.Render("Presione Esc para volver"))

	return b.String()
}

// renderConfirmDialog renders the yes/no confirmation dialog.
func (a *App) renderConfirmDialog(height int) string {
	var title, question string
	switch a.confirm {
	case confirmClear:
		title = "DESCARTAR BORRADOR"
		question = "Se borrarán todos los datos de la encuesta en curso. ¿Continuar?"
	case confirmRemove:
		title = "ELIMINAR REGISTRO"
		question = "¿Desea eliminar el registro seleccionado?"
	default:
		title = "CONFIRMAR SALIDA"
		question = "¿Desea salir? El borrador queda guardado."
	}

	dialog := a.theme.Box.Render(
		a.theme.Title.Render(title) + "\n\n" +
			a.theme.Base.Render(question) + "\n\n" +
			a.theme.Label.Render("[S]í  [N]o"),
	)

	style := lipgloss.NewStyle().
		Width(a.width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center)

	return style.Render(dialog)
}

// renderFooter renders the bottom status bar.
func (a *App) renderFooter() string {
	separator := a.theme.DrawHorizontalLine(a.width)

	var status string
	switch {
	case a.submitting:
		status = a.theme.Warning.Render("Enviando...")
	case a.wizard.EditMode():
		status = a.theme.Muted.Render("Edición: sin autoguardado")
	case !a.lastSaved.IsZero():
		status = a.theme.Success.Render("Guardado " + util.RelativeTimeString(a.lastSaved, a.now()))
	default:
		status = a.theme.Muted.Render("Sin guardar")
	}

	help := a.keys.StatusBarHelp()
	return separator + "\n" + a.theme.Footer.Render(help) + a.theme.StatusDivider.Render() + status
}

// AddAlert adds a new alert to the display.
func (a *App) AddAlert(level AlertLevel, message string) {
	a.alerts = append([]Alert{{
		Level:   level,
		Message: message,
		Time:    a.now(),
	}}, a.alerts...)

	// Keep only last 10 alerts
	if len(a.alerts) > 10 {
		a.alerts = a.alerts[:10]
	}
}

// ClearAlerts removes all alerts.
func (a *App) ClearAlerts() {
	a.alerts = []Alert{}
}

// Run starts the TUI application.
func Run(ctx context.Context, cfg *config.Config, wizard *survey.Wizard, catalog *survey.Catalog, surveyID string) error {
	app := New(cfg, wizard, catalog, surveyID)
	app.ctx = ctx

	p := tea.NewProgram(app, tea.WithAltScreen())

	// Handle context cancellation
	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	_, err := p.Run()
	return err
}
