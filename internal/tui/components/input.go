package components

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8FA9C8")).Width(24)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E8E2C8"))
	focusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F2C14E")).Bold(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F56"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5C6B7A"))
)

// FormField is implemented by every input a Form can hold.
type FormField interface {
	Focus(bool)
	IsFocused() bool
	HandleKey(string)
	Render() string
}

// Input is a single-line text input. Editing works on runes so accented
// characters count as one position.
type Input struct {
	label       string
	value       []rune
	placeholder string
	width       int
	focused     bool
	cursorPos   int
	maxLength   int
	required    bool
	err         string
}

// NewInput creates a new input field.
func NewInput(label string) *Input {
	return &Input{
		label:     label,
		width:     20,
		maxLength: 100,
	}
}

// SetValue sets the input value and moves the cursor to the end.
func (i *Input) SetValue(v string) *Input {
	i.value = []rune(v)
	i.cursorPos = len(i.value)
	return i
}

// SetPlaceholder sets the placeholder text.
func (i *Input) SetPlaceholder(p string) *Input {
	i.placeholder = p
	return i
}

// SetWidth sets the input width.
func (i *Input) SetWidth(w int) *Input {
	i.width = w
	return i
}

// SetMaxLength sets the maximum input length in runes.
func (i *Input) SetMaxLength(m int) *Input {
	i.maxLength = m
	return i
}

// SetRequired marks the field as required.
func (i *Input) SetRequired(r bool) *Input {
	i.required = r
	return i
}

// SetError sets an error message.
func (i *Input) SetError(e string) *Input {
	i.err = e
	return i
}

// Label returns the field label.
func (i *Input) Label() string {
	return i.label
}

// Focus sets the focus state.
func (i *Input) Focus(focused bool) {
	i.focused = focused
	if focused && i.cursorPos > len(i.value) {
		i.cursorPos = len(i.value)
	}
}

// IsFocused returns the focus state.
func (i *Input) IsFocused() bool {
	return i.focused
}

// Value returns the current value.
func (i *Input) Value() string {
	return string(i.value)
}

// HandleKey handles a key press.
func (i *Input) HandleKey(key string) {
	if !i.focused {
		return
	}

	switch key {
	case "backspace":
		if i.cursorPos > 0 {
			i.value = append(i.value[:i.cursorPos-1], i.value[i.cursorPos:]...)
			i.cursorPos--
		}
	case "delete":
		if i.cursorPos < len(i.value) {
			i.value = append(i.value[:i.cursorPos], i.value[i.cursorPos+1:]...)
		}
	case "left":
		if i.cursorPos > 0 {
			i.cursorPos--
		}
	case "right":
		if i.cursorPos < len(i.value) {
			i.cursorPos++
		}
	case "home", "ctrl+a":
		i.cursorPos = 0
	case "end", "ctrl+e":
		i.cursorPos = len(i.value)
	case "ctrl+u":
		i.value = i.value[:0]
		i.cursorPos = 0
	default:
		r, size := utf8.DecodeRuneInString(key)
		if size != len(key) || !unicode.IsPrint(r) || len(i.value) >= i.maxLength {
			return
		}
		i.value = append(i.value[:i.cursorPos], append([]rune{r}, i.value[i.cursorPos:]...)...)
		i.cursorPos++
	}
}

// Validate validates the input.
func (i *Input) Validate() bool {
	if i.required && strings.TrimSpace(string(i.value)) == "" {
		i.err = "Obligatorio"
		return false
	}
	i.err = ""
	return true
}

// Render renders the input field.
func (i *Input) Render() string {
	label := i.label
	if i.required {
		label += "*"
	}
	label += ":"

	var display string
	switch {
	case len(i.value) == 0 && i.placeholder != "" && !i.focused:
		display = mutedStyle.Render(i.placeholder)
	case i.focused:
		before := string(i.value[:i.cursorPos])
		after := string(i.value[i.cursorPos:])
		display = focusStyle.Render(before + "_" + after)
	default:
		display = valueStyle.Render(string(i.value))
	}

	displayLen := len(i.value)
	if i.focused {
		displayLen++
	}
	if displayLen < i.width {
		display += strings.Repeat(" ", i.width-displayLen)
	}

	result := labelStyle.Render(label) + " " + display
	if i.err != "" {
		result += " " + errStyle.Render(i.err)
	}
	return result
}

// Choice is one entry of a Select or Checklist.
type Choice struct {
	Value string
	Label string
}

// optionState is the load status shared by option-backed inputs.
type optionState struct {
	loading bool
	err     string
}

func (o optionState) render() (string, bool) {
	switch {
	case o.err != "":
		return errStyle.Render(o.err), true
	case o.loading:
		return mutedStyle.Render("cargando…"), true
	default:
		return "", false
	}
}

// Select picks one choice. Nothing is selected until the user moves
// through the list.
type Select struct {
	optionState
	label    string
	choices  []Choice
	selected int
	focused  bool
	required bool
}

// NewSelect creates a new select input.
func NewSelect(label string, choices []Choice) *Select {
	return &Select{
		label:    label,
		choices:  choices,
		selected: -1,
	}
}

// SetChoices replaces the choices, keeping the selected value when it is
// still offered.
func (s *Select) SetChoices(choices []Choice) *Select {
	current := s.Value()
	s.choices = choices
	s.selected = -1
	s.SetSelectedValue(current)
	return s
}

// SetSelected sets the selected index; -1 clears the selection.
func (s *Select) SetSelected(idx int) *Select {
	if idx >= -1 && idx < len(s.choices) {
		s.selected = idx
	}
	return s
}

// SetSelectedValue selects the choice with the given value, or clears the
// selection when none matches.
func (s *Select) SetSelectedValue(v string) *Select {
	s.selected = -1
	for i, c := range s.choices {
		if c.Value == v {
			s.selected = i
			break
		}
	}
	return s
}

// SetRequired marks the field as required.
func (s *Select) SetRequired(r bool) *Select {
	s.required = r
	return s
}

// SetLoading marks the choices as being fetched.
func (s *Select) SetLoading(l bool) {
	s.loading = l
}

// SetError sets an error message shown in place of the choices.
func (s *Select) SetError(e string) {
	s.err = e
}

// Focus sets the focus state.
func (s *Select) Focus(focused bool) {
	s.focused = focused
}

// IsFocused returns the focus state.
func (s *Select) IsFocused() bool {
	return s.focused
}

// Value returns the selected value, or "" when nothing is selected.
func (s *Select) Value() string {
	if c, ok := s.Selected(); ok {
		return c.Value
	}
	return ""
}

// Selected returns the selected choice.
func (s *Select) Selected() (Choice, bool) {
	if s.selected >= 0 && s.selected < len(s.choices) {
		return s.choices[s.selected], true
	}
	return Choice{}, false
}

// SelectedIndex returns the selected index.
func (s *Select) SelectedIndex() int {
	return s.selected
}

// Len returns the number of choices.
func (s *Select) Len() int {
	return len(s.choices)
}

// HandleKey handles a key press.
func (s *Select) HandleKey(key string) {
	if !s.focused || len(s.choices) == 0 {
		return
	}

	switch key {
	case "left", "h":
		if s.selected > 0 {
			s.selected--
		} else if s.selected < 0 {
			s.selected = len(s.choices) - 1
		}
	case "right", "l", " ":
		if s.selected < len(s.choices)-1 {
			s.selected++
		}
	case "home":
		s.selected = 0
	case "end":
		s.selected = len(s.choices) - 1
	case "backspace", "delete":
		s.selected = -1
	}
}

// Render renders the select as the current choice with its position.
func (s *Select) Render() string {
	label := s.label
	if s.required {
		label += "*"
	}

	var b strings.Builder
	b.WriteString(labelStyle.Render(label + ":"))
	b.WriteString(" ")

	if status, ok := s.render(); ok {
		b.WriteString(status)
		return b.String()
	}

	style := valueStyle
	if s.focused {
		style = focusStyle
	}

	c, ok := s.Selected()
	switch {
	case len(s.choices) == 0:
		b.WriteString(mutedStyle.Render("(sin opciones)"))
	case !ok:
		b.WriteString(style.Render("< seleccione >"))
	default:
		b.WriteString(style.Render("< " + c.Label + " >"))
		b.WriteString(mutedStyle.Render(fmt.Sprintf(" %d/%d", s.selected+1, len(s.choices))))
	}
	return b.String()
}

// Checkbox is a yes/no toggle.
type Checkbox struct {
	label   string
	checked bool
	focused bool
}

// NewCheckbox creates an unchecked checkbox.
func NewCheckbox(label string) *Checkbox {
	return &Checkbox{label: label}
}

// SetChecked sets the checked state.
func (c *Checkbox) SetChecked(v bool) *Checkbox {
	c.checked = v
	return c
}

// Checked returns the checked state.
func (c *Checkbox) Checked() bool {
	return c.checked
}

// Focus sets the focus state.
func (c *Checkbox) Focus(focused bool) {
	c.focused = focused
}

// IsFocused returns the focus state.
func (c *Checkbox) IsFocused() bool {
	return c.focused
}

// HandleKey toggles on space or x.
func (c *Checkbox) HandleKey(key string) {
	if !c.focused {
		return
	}
	switch key {
	case " ", "x":
		c.checked = !c.checked
	}
}

// Render renders the checkbox.
func (c *Checkbox) Render() string {
	mark := "[ ]"
	if c.checked {
		mark = "[x]"
	}
	style := valueStyle
	if c.focused {
		style = focusStyle
	}
	return labelStyle.Render(c.label+":") + " " + style.Render(mark)
}

// Checklist toggles any number of choices.
type Checklist struct {
	optionState
	label   string
	choices []Choice
	checked map[string]bool
	cursor  int
	focused bool
}

// NewChecklist creates a checklist with nothing checked.
func NewChecklist(label string, choices []Choice) *Checklist {
	return &Checklist{
		label:   label,
		choices: choices,
		checked: make(map[string]bool),
	}
}

// SetChoices replaces the choices. Checked values that are no longer
// offered are kept so that a reload does not lose answers.
func (c *Checklist) SetChoices(choices []Choice) *Checklist {
	c.choices = choices
	if c.cursor >= len(choices) {
		c.cursor = 0
	}
	return c
}

// SetValues replaces the checked values.
func (c *Checklist) SetValues(values []string) *Checklist {
	c.checked = make(map[string]bool, len(values))
	for _, v := range values {
		c.checked[v] = true
	}
	return c
}

// Values returns the checked values in choice order, followed by any
// checked values not among the current choices.
func (c *Checklist) Values() []string {
	var out []string
	seen := make(map[string]bool, len(c.choices))
	for _, ch := range c.choices {
		seen[ch.Value] = true
		if c.checked[ch.Value] {
			out = append(out, ch.Value)
		}
	}
	var extra []string
	for v, on := range c.checked {
		if on && !seen[v] {
			extra = append(extra, v)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

// SetLoading marks the choices as being fetched.
func (c *Checklist) SetLoading(l bool) {
	c.loading = l
}

// SetError sets an error message shown in place of the choices.
func (c *Checklist) SetError(e string) {
	c.err = e
}

// Focus sets the focus state.
func (c *Checklist) Focus(focused bool) {
	c.focused = focused
}

// IsFocused returns the focus state.
func (c *Checklist) IsFocused() bool {
	return c.focused
}

// HandleKey moves the cursor with left/right and toggles with space or x.
func (c *Checklist) HandleKey(key string) {
	if !c.focused || len(c.choices) == 0 {
		return
	}
	switch key {
	case "left", "h":
		if c.cursor > 0 {
			c.cursor--
		}
	case "right", "l":
		if c.cursor < len(c.choices)-1 {
			c.cursor++
		}
	case " ", "x":
		v := c.choices[c.cursor].Value
		if c.checked[v] {
			delete(c.checked, v)
		} else {
			c.checked[v] = true
		}
	}
}

// Render renders every choice with its mark.
func (c *Checklist) Render() string {
	var b strings.Builder
	b.WriteString(labelStyle.Render(c.label + ":"))
	b.WriteString(" ")

	if status, ok := c.render(); ok {
		b.WriteString(status)
		return b.String()
	}
	if len(c.choices) == 0 {
		b.WriteString(mutedStyle.Render("(sin opciones)"))
		return b.String()
	}

	for i, ch := range c.choices {
		if i > 0 {
			b.WriteString("  ")
		}
		mark := "[ ] "
		if c.checked[ch.Value] {
			mark = "[x] "
		}
		style := valueStyle
		if c.focused && i == c.cursor {
			style = focusStyle
		}
		b.WriteString(style.Render(mark + ch.Label))
	}
	return b.String()
}

var (
	_ FormField = (*Input)(nil)
	_ FormField = (*Select)(nil)
	_ FormField = (*Checkbox)(nil)
	_ FormField = (*Checklist)(nil)
)

// Form holds fields and moves focus between them.
type Form struct {
	title      string
	help       string
	fields     []FormField
	focusIndex int
	submitted  bool
	cancelled  bool
	err        string
}

// NewForm creates a new form.
func NewForm(title string) *Form {
	return &Form{
		title: title,
		help:  "Tab/↓:Siguiente  Shift+Tab/↑:Anterior  Ctrl+S:Guardar  Esc:Cancelar",
	}
}

// SetHelp replaces the help line shown under the fields.
func (f *Form) SetHelp(help string) *Form {
	f.help = help
	return f
}

// AddField adds a field to the form.
func (f *Form) AddField(field FormField) *Form {
	f.fields = append(f.fields, field)
	if len(f.fields) == 1 {
		field.Focus(true)
	}
	return f
}

// HandleKey handles form navigation and forwards everything else to the
// focused field.
func (f *Form) HandleKey(key string) {
	switch key {
	case "tab", "down":
		f.nextField()
	case "shift+tab", "up":
		f.prevField()
	case "ctrl+s":
		f.submitted = true
	case "esc":
		f.cancelled = true
	case "enter":
		if f.focusIndex == len(f.fields)-1 {
			f.submitted = true
		} else {
			f.nextField()
		}
	default:
		if f.focusIndex < len(f.fields) {
			f.fields[f.focusIndex].HandleKey(key)
		}
	}
}

func (f *Form) nextField() {
	if len(f.fields) == 0 {
		return
	}
	f.fields[f.focusIndex].Focus(false)
	f.focusIndex = (f.focusIndex + 1) % len(f.fields)
	f.fields[f.focusIndex].Focus(true)
}

func (f *Form) prevField() {
	if len(f.fields) == 0 {
		return
	}
	f.fields[f.focusIndex].Focus(false)
	f.focusIndex--
	if f.focusIndex < 0 {
		f.focusIndex = len(f.fields) - 1
	}
	f.fields[f.focusIndex].Focus(true)
}

// FocusIndex returns the index of the focused field.
func (f *Form) FocusIndex() int {
	return f.focusIndex
}

// Focused returns the focused field, or nil for an empty form.
func (f *Form) Focused() FormField {
	if f.focusIndex < len(f.fields) {
		return f.fields[f.focusIndex]
	}
	return nil
}

// IsSubmitted returns true if form was submitted.
func (f *Form) IsSubmitted() bool {
	return f.submitted
}

// IsCancelled returns true if form was cancelled.
func (f *Form) IsCancelled() bool {
	return f.cancelled
}

// Resume clears the submitted flag so that a rejected form can be edited
// and submitted again.
func (f *Form) Resume() {
	f.submitted = false
}

// SetError sets an error message.
func (f *Form) SetError(err string) {
	f.err = err
}

// Error returns the current error message.
func (f *Form) Error() string {
	return f.err
}

// Render renders the form.
func (f *Form) Render() string {
	titleStyle := focusStyle
	helpStyle := mutedStyle

	var b strings.Builder

	if f.title != "" {
		b.WriteString(titleStyle.Render(fmt.Sprintf("=== %s ===", f.title)))
		b.WriteString("\n\n")
	}

	for _, field := range f.fields {
		b.WriteString(field.Render())
		b.WriteString("\n")
	}

	if f.err != "" {
		b.WriteString("\n")
		b.WriteString(errStyle.Render("Error: " + f.err))
		b.WriteString("\n")
	}

	if f.help != "" {
		b.WriteString("\n")
		b.WriteString(helpStyle.Render(f.help))
	}

	return b.String()
}
