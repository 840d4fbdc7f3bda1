package survey

import (
	"strings"

	"github.com/censoparroquial/censo/internal/models"
)

// OptionSet is the resolved option list for a field with its fetch status.
type OptionSet struct {
	Options []models.Option
	Loading bool
	Err     error
}

// Find returns the option whose value equals value.
func (s OptionSet) Find(value string) (models.Option, bool) {
	for _, opt := range s.Options {
		if opt.Value == value {
			return opt, true
		}
	}
	return models.Option{}, false
}

// Sources exposes catalog option sets. Implementations own fetching and
// caching; Dependent must only ever return options belonging to
// parentValue.
type Sources interface {
	Options(configKey string) OptionSet
	Dependent(configKey, parentValue string) OptionSet
}

// ParentKey returns the string form of a parent field value used to scope
// dependent option sets.
func ParentKey(v models.Value) string {
	switch v.Kind() {
	case models.KindText:
		return strings.TrimSpace(v.AsText())
	case models.KindRef:
		ref, _ := v.AsRef()
		return ref.Key()
	case models.KindEmpty:
		return ""
	default:
		return v.String()
	}
}

// Resolve returns the options applicable to field given the current state.
// A dependent field with no parent selection resolves to an empty set that
// is neither loading nor failed.
func Resolve(field models.FieldDefinition, state models.FormState, sources Sources) OptionSet {
	if field.ConfigKey == "" || sources == nil {
		return OptionSet{}
	}
	if !field.Dependent() {
		return sources.Options(field.ConfigKey)
	}

	parent := ParentKey(state.Get(field.DependsOn))
	if parent == "" {
		return OptionSet{}
	}
	return sources.Dependent(field.ConfigKey, parent)
}

// Readiness aggregates the option status of every select field of a stage.
type Readiness struct {
	sets map[string]OptionSet
}

// NewReadiness resolves every option-backed field in fields.
func NewReadiness(fields []models.FieldDefinition, state models.FormState, sources Sources) Readiness {
	r := Readiness{sets: make(map[string]OptionSet, len(fields))}
	for _, f := range fields {
		if f.ConfigKey == "" {
			continue
		}
		r.sets[f.ID] = Resolve(f, state, sources)
	}
	return r
}

// IsReady reports whether the field's options are loaded without error.
// Fields without an option source are always ready.
func (r Readiness) IsReady(fieldID string) bool {
	set, ok := r.sets[fieldID]
	if !ok {
		return true
	}
	return !set.Loading && set.Err == nil
}

// ErrorFor returns the fetch error for a field, if any.
func (r Readiness) ErrorFor(fieldID string) error {
	return r.sets[fieldID].Err
}

// OptionsFor returns the resolved options for a field.
func (r Readiness) OptionsFor(fieldID string) OptionSet {
	return r.sets[fieldID]
}

// AllReady reports whether every field is ready.
func (r Readiness) AllReady() bool {
	for id := range r.sets {
		if !r.IsReady(id) {
			return false
		}
	}
	return true
}
