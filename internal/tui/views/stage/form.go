// Package stage renders the field stages of the survey wizard.
package stage

import (
	"strings"

	"github.com/censoparroquial/censo/internal/models"
	"github.com/censoparroquial/censo/internal/services/survey"
	"github.com/censoparroquial/censo/internal/tui/components"
	"github.com/censoparroquial/censo/internal/util"
)

// Change is an edit of one field made through the form.
type Change struct {
	FieldID string
	Value   models.Value
}

type input struct {
	def   models.FieldDefinition
	field components.FormField
}

// Form holds one input per field of a stage.
type Form struct {
	stage      models.FormStage
	dateLayout string
	form       *components.Form
	inputs     []input
}

// NewForm builds the inputs for a field stage. Dates are entered and shown
// with dateLayout.
func NewForm(stage models.FormStage, dateLayout string) *Form {
	if dateLayout == "" {
		dateLayout = util.DateFormat
	}
	f := &Form{
		stage:      stage,
		dateLayout: dateLayout,
		form: components.NewForm("").
			SetHelp("Tab/↓:Siguiente campo  Shift+Tab/↑:Anterior  ←→:Opciones  Espacio:Marcar"),
	}

	for _, def := range stage.Fields {
		field := newField(def, dateLayout)
		f.inputs = append(f.inputs, input{def: def, field: field})
		f.form.AddField(field)
	}
	return f
}

func newField(def models.FieldDefinition, dateLayout string) components.FormField {
	switch def.Type {
	case models.FieldSelect:
		return components.NewSelect(def.Label, nil).SetRequired(def.Required)
	case models.FieldMultiCheckbox:
		return components.NewChecklist(def.Label, nil)
	case models.FieldBoolean:
		return components.NewCheckbox(def.Label)
	case models.FieldDate:
		return components.NewInput(def.Label).
			SetRequired(def.Required).
			SetWidth(12).
			SetMaxLength(len(dateLayout)).
			SetPlaceholder(strings.ToUpper(placeholder(dateLayout)))
	case models.FieldTextarea:
		return components.NewInput(def.Label).SetRequired(def.Required).SetWidth(48).SetMaxLength(1000)
	default:
		return components.NewInput(def.Label).SetRequired(def.Required).SetWidth(32).SetMaxLength(200)
	}
}

func placeholder(layout string) string {
	return strings.NewReplacer("2006", "aaaa", "01", "mm", "02", "dd").Replace(layout)
}

// Stage returns the stage the form was built for.
func (f *Form) Stage() models.FormStage {
	return f.stage
}

// FocusedField returns the definition of the focused field.
func (f *Form) FocusedField() (models.FieldDefinition, bool) {
	i := f.form.FocusIndex()
	if i < len(f.inputs) {
		return f.inputs[i].def, true
	}
	return models.FieldDefinition{}, false
}

// Load writes every input from state, including the focused one.
func (f *Form) Load(state models.FormState, ready survey.Readiness) {
	f.sync(state, ready, true)
}

// Sync refreshes option lists and the values of unfocused inputs. The
// focused input keeps what the surveyor is typing.
func (f *Form) Sync(state models.FormState, ready survey.Readiness) {
	f.sync(state, ready, false)
}

func (f *Form) sync(state models.FormState, ready survey.Readiness, all bool) {
	for _, in := range f.inputs {
		v := state.Get(in.def.ID)
		overwrite := all || !in.field.IsFocused()

		switch field := in.field.(type) {
		case *components.Select:
			set := ready.OptionsFor(in.def.ID)
			field.SetChoices(toChoices(set.Options))
			field.SetLoading(set.Loading)
			field.SetError(optionError(set.Err))
			field.SetSelectedValue(survey.ParentKey(v))
		case *components.Checklist:
			set := ready.OptionsFor(in.def.ID)
			field.SetChoices(toChoices(set.Options))
			field.SetLoading(set.Loading)
			field.SetError(optionError(set.Err))
			if overwrite {
				field.SetValues(v.AsList())
			}
		case *components.Checkbox:
			field.SetChecked(v.IsTrue())
		case *components.Input:
			if overwrite {
				field.SetValue(f.display(in.def, v))
			}
		}
	}
}

func (f *Form) display(def models.FieldDefinition, v models.Value) string {
	if def.Type == models.FieldDate {
		if t, ok := v.AsDate(); ok {
			return util.FormatDate(t, f.dateLayout)
		}
	}
	if v.Kind() == models.KindText {
		return v.AsText()
	}
	return ""
}

func toChoices(opts []models.Option) []components.Choice {
	out := make([]components.Choice, len(opts))
	for i, o := range opts {
		out[i] = components.Choice{Value: o.Value, Label: o.Label}
	}
	return out
}

func optionError(err error) string {
	if err == nil {
		return ""
	}
	return "no se pudieron cargar las opciones"
}

// HandleKey forwards a key to the form. When the focused field's value
// changed the new value is returned.
func (f *Form) HandleKey(key string) (Change, bool) {
	if len(f.inputs) == 0 {
		return Change{}, false
	}
	if key == "enter" {
		key = "tab"
	}

	in := f.inputs[f.form.FocusIndex()]
	before := f.value(in)
	f.form.HandleKey(key)
	after := f.value(in)

	if before.Equal(after) {
		return Change{}, false
	}
	return Change{FieldID: in.def.ID, Value: after}, true
}

// value converts the input's content to a form value. Unparseable dates
// stay as text so that validation can report them.
func (f *Form) value(in input) models.Value {
	switch field := in.field.(type) {
	case *components.Select:
		if v := field.Value(); v != "" {
			return models.Text(v)
		}
	case *components.Checklist:
		if vals := field.Values(); len(vals) > 0 {
			return models.List(vals...)
		}
	case *components.Checkbox:
		return models.Bool(field.Checked())
	case *components.Input:
		s := field.Value()
		if strings.TrimSpace(s) == "" {
			return models.Empty()
		}
		if in.def.Type == models.FieldDate {
			if t, err := util.ParseDate(strings.TrimSpace(s), f.dateLayout); err == nil {
				return models.DateValue(t)
			}
		}
		return models.Text(s)
	}
	return models.Empty()
}

// SetError shows a message under the fields.
func (f *Form) SetError(msg string) {
	f.form.SetError(msg)
}

// Render renders the stage fields.
func (f *Form) Render() string {
	return f.form.Render()
}
