package models

import (
	"fmt"
	"maps"
)

// FieldType is the input control used for a field.
type FieldType string

const (
	FieldText          FieldType = "text"
	FieldDate          FieldType = "date"
	FieldBoolean       FieldType = "boolean"
	FieldTextarea      FieldType = "textarea"
	FieldSelect        FieldType = "select"
	FieldMultiCheckbox FieldType = "multiple-checkbox"
)

// Valid returns true if the field type is valid.
func (f FieldType) Valid() bool {
	switch f {
	case FieldText, FieldDate, FieldBoolean, FieldTextarea, FieldSelect, FieldMultiCheckbox:
		return true
	default:
		return false
	}
}

// HasOptions reports whether the field draws from an option set.
func (f FieldType) HasOptions() bool {
	return f == FieldSelect || f == FieldMultiCheckbox
}

// StageKind distinguishes field-list stages from the member grids.
type StageKind string

const (
	StageFields       StageKind = "fields"
	StageFamilyGrid   StageKind = "family_grid"
	StageDeceasedGrid StageKind = "deceased_grid"
)

// Valid returns true if the stage kind is valid.
func (k StageKind) Valid() bool {
	switch k {
	case StageFields, StageFamilyGrid, StageDeceasedGrid:
		return true
	default:
		return false
	}
}

// FieldDefinition describes one input of a field stage.
type FieldDefinition struct {
	ID       string
	Label    string
	Type     FieldType
	Required bool
	// ConfigKey names the catalog option set the field draws from.
	ConfigKey string
	// DependsOn names the parent field whose value scopes the options.
	DependsOn string
	// Shadow marks fields whose resolved {id, nombre} pair is kept under
	// ShadowKey(ID).
	Shadow bool
}

// Dependent reports whether the field is scoped by a parent field.
func (f FieldDefinition) Dependent() bool {
	return f.DependsOn != ""
}

// ShadowKey returns the form state key of a field's resolved shadow object.
func ShadowKey(fieldID string) string {
	return fieldID + "_data"
}

// FormStage is one numbered step of the wizard.
type FormStage struct {
	ID          int
	Title       string
	Description string
	Kind        StageKind
	// Section is the draft envelope key holding this stage's field values.
	Section string
	Fields  []FieldDefinition
}

// Stages is an ordered stage catalog.
type Stages []FormStage

// Validate checks that ids are contiguous from 1 and fields are well formed.
func (s Stages) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("stage catalog is empty")
	}

	seen := make(map[string]bool)
	for i, stage := range s {
		if stage.ID != i+1 {
			return fmt.Errorf("stage %d has id %d; ids must be contiguous from 1", i+1, stage.ID)
		}
		if !stage.Kind.Valid() {
			return fmt.Errorf("stage %d has invalid kind %q", stage.ID, stage.Kind)
		}
		if stage.Kind != StageFields && len(stage.Fields) > 0 {
			return fmt.Errorf("stage %d is a %s and cannot declare fields", stage.ID, stage.Kind)
		}
		for _, f := range stage.Fields {
			if f.ID == "" {
				return fmt.Errorf("stage %d has a field without id", stage.ID)
			}
			if seen[f.ID] {
				return fmt.Errorf("field %s is declared twice", f.ID)
			}
			if !f.Type.Valid() {
				return fmt.Errorf("field %s has invalid type %q", f.ID, f.Type)
			}
			seen[f.ID] = true
		}
	}

	for _, stage := range s {
		for _, f := range stage.Fields {
			if f.Dependent() && !seen[f.DependsOn] {
				return fmt.Errorf("field %s depends on unknown field %s", f.ID, f.DependsOn)
			}
		}
	}

	return nil
}

// Len returns the number of stages.
func (s Stages) Len() int {
	return len(s)
}

// ByID returns the stage with the given id.
func (s Stages) ByID(id int) (FormStage, bool) {
	if id < 1 || id > len(s) {
		return FormStage{}, false
	}
	return s[id-1], true
}

// Field looks up a field definition across all stages.
func (s Stages) Field(id string) (FieldDefinition, bool) {
	for _, stage := range s {
		for _, f := range stage.Fields {
			if f.ID == id {
				return f, true
			}
		}
	}
	return FieldDefinition{}, false
}

// Dependents returns the fields whose options are scoped by parent.
func (s Stages) Dependents(parent string) []FieldDefinition {
	var deps []FieldDefinition
	for _, stage := range s {
		for _, f := range stage.Fields {
			if f.DependsOn == parent {
				deps = append(deps, f)
			}
		}
	}
	return deps
}

// DateFields returns the ids of every date-typed field.
func (s Stages) DateFields() []string {
	var ids []string
	for _, stage := range s {
		for _, f := range stage.Fields {
			if f.Type == FieldDate {
				ids = append(ids, f.ID)
			}
		}
	}
	return ids
}

// Sections returns the distinct envelope sections in stage order.
func (s Stages) Sections() []string {
	var out []string
	seen := make(map[string]bool)
	for _, stage := range s {
		if stage.Section == "" || seen[stage.Section] {
			continue
		}
		seen[stage.Section] = true
		out = append(out, stage.Section)
	}
	return out
}

// SectionOf returns the envelope section holding key. Shadow keys live with
// their field; unknown keys fall back to the first section.
func (s Stages) SectionOf(key string) string {
	for _, stage := range s {
		for _, f := range stage.Fields {
			if f.ID == key || (f.Shadow && ShadowKey(f.ID) == key) {
				return stage.Section
			}
		}
	}
	if sections := s.Sections(); len(sections) > 0 {
		return sections[0]
	}
	return ""
}

// FormState maps field ids (and shadow keys) to values.
type FormState map[string]Value

// Get returns the value for id, or the empty value.
func (fs FormState) Get(id string) Value {
	if fs == nil {
		return Empty()
	}
	return fs[id]
}

// Clone returns a shallow copy of the state.
func (fs FormState) Clone() FormState {
	out := make(FormState, len(fs))
	maps.Copy(out, fs)
	return out
}

// Equal compares two states by value, treating missing and empty keys alike.
func (fs FormState) Equal(o FormState) bool {
	for k, v := range fs {
		if !v.Equal(o.Get(k)) {
			return false
		}
	}
	for k, v := range o {
		if !v.Equal(fs.Get(k)) {
			return false
		}
	}
	return true
}
