package survey

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/censoparroquial/censo/internal/models"
)

// DraftVersion is written to metadata.version of every encoded draft.
const DraftVersion = 2

var (
	//go:embed schemas/draft_structured.json
	structuredSchemaJSON []byte

	//go:embed schemas/draft_legacy.json
	legacySchemaJSON []byte
)

// Snapshot is the normalized in-memory form of a draft.
type Snapshot struct {
	Stage     int
	State     models.FormState
	Family    []models.FamilyMember
	Deceased  []models.DeceasedMember
	Completed bool
	SavedAt   time.Time
}

type draftMetadata struct {
	Completed    bool   `json:"completed"`
	CurrentStage int    `json:"currentStage"`
	Version      int    `json:"version"`
	SavedAt      string `json:"savedAt,omitempty"`
}

type structuredDraft struct {
	Metadata        draftMetadata           `json:"metadata"`
	FamilyMembers   []models.FamilyMember   `json:"familyMembers"`
	DeceasedMembers []models.DeceasedMember `json:"deceasedMembers"`
}

type legacyDraft struct {
	Stage           int                     `json:"stage"`
	Data            models.FormState        `json:"data"`
	FamilyMembers   []models.FamilyMember   `json:"familyMembers"`
	DeceasedMembers []models.DeceasedMember `json:"deceasedMembers"`
}

// Codec encodes wizard state into the structured draft envelope and
// decodes both the structured and the legacy flat shapes.
type Codec struct {
	stages     models.Stages
	structured *jsonschema.Schema
	legacy     *jsonschema.Schema
}

// NewCodec compiles the draft schemas for the given stage catalog.
func NewCodec(stages models.Stages) (*Codec, error) {
	structured, err := compileSchema("draft_structured.json", structuredSchemaJSON)
	if err != nil {
		return nil, err
	}
	legacy, err := compileSchema("draft_legacy.json", legacySchemaJSON)
	if err != nil {
		return nil, err
	}
	return &Codec{stages: stages, structured: structured, legacy: legacy}, nil
}

func compileSchema(name string, raw []byte) (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing schema %s: %w", name, err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, doc); err != nil {
		return nil, fmt.Errorf("adding schema %s: %w", name, err)
	}
	sch, err := c.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compiling schema %s: %w", name, err)
	}
	return sch, nil
}

// Encode writes s as a structured envelope. Field values are partitioned
// into the section of the stage that declares them.
func (c *Codec) Encode(s Snapshot) ([]byte, error) {
	sections := map[string]models.FormState{
		models.SectionInformacionGeneral: {},
	}
	for _, name := range c.stages.Sections() {
		sections[name] = models.FormState{}
	}
	for key, v := range s.State {
		section := c.stages.SectionOf(key)
		if section == "" {
			section = models.SectionInformacionGeneral
		}
		sections[section][key] = v
	}

	meta := draftMetadata{
		Completed:    s.Completed,
		CurrentStage: max(s.Stage, 1),
		Version:      DraftVersion,
	}
	if !s.SavedAt.IsZero() {
		meta.SavedAt = models.FormatISO(s.SavedAt)
	}

	doc := make(map[string]any, len(sections)+3)
	for name, state := range sections {
		doc[name] = state
	}
	doc["metadata"] = meta
	doc["familyMembers"] = nonNil(s.Family)
	doc["deceasedMembers"] = nonNil(s.Deceased)

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding draft: %w", err)
	}
	return out, nil
}

// Decode restores a draft of either historical shape. The structured
// schema is tried first, then the legacy one.
func (c *Codec) Decode(blob []byte) (Snapshot, error) {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(blob))
	if err != nil {
		return Snapshot{}, &DecodeError{Reason: DecodeCorrupt, Err: err}
	}

	structErr := c.structured.Validate(inst)
	if structErr == nil {
		return c.decodeStructured(blob)
	}

	legacyErr := c.legacy.Validate(inst)
	if legacyErr == nil {
		return c.decodeLegacy(blob)
	}

	return Snapshot{}, &DecodeError{
		Reason: DecodeUnrecognized,
		Err: errors.Join(
			fmt.Errorf("structured shape: %w", structErr),
			fmt.Errorf("legacy shape: %w", legacyErr),
		),
	}
}

func (c *Codec) decodeStructured(blob []byte) (Snapshot, error) {
	var draft structuredDraft
	if err := json.Unmarshal(blob, &draft); err != nil {
		return Snapshot{}, &DecodeError{Reason: DecodeUnrecognized, Err: err}
	}

	var sections map[string]json.RawMessage
	if err := json.Unmarshal(blob, &sections); err != nil {
		return Snapshot{}, &DecodeError{Reason: DecodeUnrecognized, Err: err}
	}

	state := models.FormState{}
	names := append([]string{models.SectionInformacionGeneral}, c.stages.Sections()...)
	for _, name := range names {
		raw, ok := sections[name]
		if !ok {
			continue
		}
		var part models.FormState
		if err := json.Unmarshal(raw, &part); err != nil {
			return Snapshot{}, &DecodeError{Reason: DecodeUnrecognized, Err: fmt.Errorf("section %s: %w", name, err)}
		}
		for k, v := range part {
			state[k] = v
		}
	}

	snap := Snapshot{
		Stage:     draft.Metadata.CurrentStage,
		State:     state,
		Family:    draft.FamilyMembers,
		Deceased:  draft.DeceasedMembers,
		Completed: draft.Metadata.Completed,
	}
	if draft.Metadata.SavedAt != "" {
		if t, err := models.ParseISO(draft.Metadata.SavedAt); err == nil {
			snap.SavedAt = t
		}
	}
	return c.normalize(snap), nil
}

func (c *Codec) decodeLegacy(blob []byte) (Snapshot, error) {
	var draft legacyDraft
	if err := json.Unmarshal(blob, &draft); err != nil {
		return Snapshot{}, &DecodeError{Reason: DecodeUnrecognized, Err: err}
	}

	return c.normalize(Snapshot{
		Stage:    draft.Stage,
		State:    draft.Data,
		Family:   draft.FamilyMembers,
		Deceased: draft.DeceasedMembers,
	}), nil
}

// normalize rehydrates date fields, clamps the stage into range and
// replaces nil collections.
func (c *Codec) normalize(s Snapshot) Snapshot {
	if s.State == nil {
		s.State = models.FormState{}
	}
	for _, id := range c.stages.DateFields() {
		if v, ok := s.State[id]; ok {
			s.State[id] = v.RehydrateDate()
		}
	}

	s.Stage = clampStage(s.Stage, c.stages.Len())
	s.Family = nonNil(s.Family)
	s.Deceased = nonNil(s.Deceased)
	return s
}

func clampStage(stage, n int) int {
	if stage < 1 {
		return 1
	}
	if n > 0 && stage > n {
		return n
	}
	return stage
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
