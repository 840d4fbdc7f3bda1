// Package survey implements the census wizard engine: option resolution,
// draft persistence, stage validation, the wizard state machine and the
// submission adapter.
package survey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/censoparroquial/censo/internal/models"
	"github.com/censoparroquial/censo/internal/util"
)

// Phase is the lifecycle state of a wizard.
type Phase int

const (
	// PhaseLoading lasts until the initial restore attempt completes.
	PhaseLoading Phase = iota
	// PhaseReady accepts edits and autosaves drafts.
	PhaseReady
	// PhaseSubmitted suppresses autosave after a submit or explicit clear.
	PhaseSubmitted
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseSubmitted:
		return "submitted"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Transition describes a stage change for the presentation layer.
type Transition struct {
	From int
	To   int
	// ScrollTop asks the view to return to the top of the new stage.
	ScrollTop bool
	// Navigate asks the view to leave the wizard.
	Navigate bool
}

// Moved reports whether the stage changed.
func (t Transition) Moved() bool {
	return t.From != t.To
}

// Config wires a wizard to its collaborators.
type Config struct {
	Stages    models.Stages
	Store     DraftStore
	Submitter *Submitter
	Sources   Sources
	Validator *Validator
	Codec     *Codec

	// ConsentField must hold boolean true before Submit calls the backend.
	ConsentField string
	// DisableAutosave turns Autosave into a no-op.
	DisableAutosave bool

	Now   func() time.Time
	NewID func() string
}

// Wizard is the survey wizard state machine. All methods are safe for
// concurrent use.
type Wizard struct {
	stages    models.Stages
	store     DraftStore
	submitter *Submitter
	sources   Sources
	validator *Validator
	codec     *Codec
	consent   string
	autosave  bool
	now       func() time.Time
	newID     func() string
	logger    *slog.Logger

	mu         sync.Mutex
	phase      Phase
	editMode   bool
	surveyID   string
	stage      int
	state      models.FormState
	family     []models.FamilyMember
	deceased   []models.DeceasedMember
	submitting bool
	seq        uint64

	saveMu   sync.Mutex
	savedSeq uint64
}

// New creates a wizard in the loading phase. Call Init before use.
func New(cfg Config) (*Wizard, error) {
	if cfg.Stages == nil {
		cfg.Stages = models.DefaultStages()
	}
	if err := cfg.Stages.Validate(); err != nil {
		return nil, fmt.Errorf("invalid stage catalog: %w", err)
	}
	if cfg.Store == nil {
		return nil, errors.New("draft store is required")
	}
	if cfg.Submitter == nil {
		return nil, errors.New("submitter is required")
	}
	if cfg.Validator == nil {
		return nil, errors.New("validator is required")
	}
	if cfg.Codec == nil {
		codec, err := NewCodec(cfg.Stages)
		if err != nil {
			return nil, err
		}
		cfg.Codec = codec
	}
	if cfg.ConsentField == "" {
		cfg.ConsentField = models.FieldAutorizacionDatos
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = util.NewID
	}

	return &Wizard{
		stages:    cfg.Stages,
		store:     cfg.Store,
		submitter: cfg.Submitter,
		sources:   cfg.Sources,
		validator: cfg.Validator,
		codec:     cfg.Codec,
		consent:   cfg.ConsentField,
		autosave:  !cfg.DisableAutosave,
		now:       cfg.Now,
		newID:     cfg.NewID,
		logger:    slog.Default().With("component", "wizard"),
		phase:     PhaseLoading,
		stage:     1,
		state:     models.FormState{},
	}, nil
}

// Init loads the starting state. A non-empty surveyID opens the existing
// survey in edit mode; otherwise the autosaved draft is restored if one
// decodes. A corrupt draft is deleted and a fresh survey started. The
// returned flag reports whether prior state was loaded.
func (w *Wizard) Init(ctx context.Context, surveyID string) (bool, error) {
	if surveyID != "" {
		rec, err := w.submitter.Fetch(ctx, surveyID)
		if err != nil {
			return false, err
		}
		snap := RecordToSnapshot(rec, w.stages)

		w.mu.Lock()
		defer w.mu.Unlock()
		w.editMode = true
		w.surveyID = surveyID
		w.restoreLocked(snap)
		w.phase = PhaseReady
		return true, nil
	}

	snap, restored := w.restoreDraft(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	if restored {
		w.restoreLocked(snap)
	} else {
		w.resetLocked(true)
	}
	w.phase = PhaseReady
	return restored, nil
}

func (w *Wizard) restoreDraft(ctx context.Context) (Snapshot, bool) {
	blob, found, err := w.store.Load(ctx, DraftKey)
	if err != nil {
		w.logger.Warn("reading draft failed", "error", err)
		return Snapshot{}, false
	}
	if !found {
		return Snapshot{}, false
	}

	snap, err := w.codec.Decode(blob)
	if err != nil {
		w.logger.Warn("discarding unreadable draft", "error", err)
		if derr := w.store.Delete(ctx, DraftKey); derr != nil {
			w.logger.Error("deleting unreadable draft failed", "error", derr)
		}
		return Snapshot{}, false
	}

	w.logger.Info("draft restored", "stage", snap.Stage, "family", len(snap.Family), "deceased", len(snap.Deceased))
	return snap, true
}

func (w *Wizard) restoreLocked(s Snapshot) {
	w.stage = clampStage(s.Stage, w.stages.Len())
	w.state = s.State.Clone()
	w.family = slices.Clone(s.Family)
	w.deceased = slices.Clone(s.Deceased)
	w.seq++
}

func (w *Wizard) resetLocked(seedDate bool) {
	w.stage = 1
	w.state = models.FormState{}
	w.family = nil
	w.deceased = nil
	if seedDate {
		w.state[models.FieldFecha] = models.DateValue(w.now())
	}
	w.seq++
}

// FieldChange records a new value for field id. Changing a parent field
// clears every field scoped by it, transitively, together with their
// shadow objects. Selecting a value in a shadowed field stores the
// resolved {id, nombre} pair from the field's current options. The
// returned fields have new parent values and need their options loaded.
func (w *Wizard) FieldChange(id string, v models.Value) ([]models.FieldDefinition, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.phase == PhaseLoading {
		return nil, ErrNotReady
	}

	old := w.state.Get(id)
	if v.IsEmpty() {
		delete(w.state, id)
	} else {
		w.state[id] = v
	}

	field, known := w.stages.Field(id)
	if known && field.Shadow {
		w.storeShadowLocked(field, v)
	}
	w.seq++

	if old.Equal(v) {
		return nil, nil
	}
	return w.cascadeLocked(id), nil
}

func (w *Wizard) cascadeLocked(parent string) []models.FieldDefinition {
	var reload []models.FieldDefinition
	queue := []string{parent}
	visited := map[string]bool{parent: true}

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, dep := range w.stages.Dependents(p) {
			if visited[dep.ID] {
				continue
			}
			visited[dep.ID] = true
			delete(w.state, dep.ID)
			delete(w.state, models.ShadowKey(dep.ID))
			queue = append(queue, dep.ID)
			if p == parent {
				reload = append(reload, dep)
			}
		}
	}
	return reload
}

// storeShadowLocked resolves the selected option of a shadowed field. An
// option value that is not numeric is kept as the original item.
func (w *Wizard) storeShadowLocked(field models.FieldDefinition, v models.Value) {
	key := models.ShadowKey(field.ID)
	selected := ParentKey(v)
	if selected == "" {
		delete(w.state, key)
		return
	}

	opt, ok := Resolve(field, w.state, w.sources).Find(selected)
	if !ok {
		w.logger.Debug("selected value not in current options", "field", field.ID, "value", selected)
		delete(w.state, key)
		return
	}
	w.state[key] = models.RefValue(models.RefFromOption(opt))
}

// Next advances one stage when the current stage passes validation.
func (w *Wizard) Next() (Transition, Verdict) {
	w.mu.Lock()
	defer w.mu.Unlock()

	from := w.stage
	stage, _ := w.stages.ByID(from)
	verdict := w.validator.CanAdvance(stage, w.state, w.family)
	if !verdict.OK {
		return Transition{From: from, To: from}, verdict
	}

	w.stage = min(from+1, w.stages.Len())
	w.seq++
	return Transition{From: from, To: w.stage, ScrollTop: w.stage != from}, verdict
}

// Previous moves back one stage, stopping at the first.
func (w *Wizard) Previous() Transition {
	w.mu.Lock()
	defer w.mu.Unlock()

	from := w.stage
	w.stage = max(from-1, 1)
	w.seq++
	return Transition{From: from, To: w.stage, ScrollTop: w.stage != from}
}

// Autosave persists the current state under DraftKey. It does nothing
// before Init completes, after a submit or clear, and in edit mode. The
// reported flag is true when a draft was written. A save that captured an
// older state than one already written is skipped.
func (w *Wizard) Autosave(ctx context.Context) (bool, error) {
	w.mu.Lock()
	if !w.autosave || w.phase != PhaseReady || w.editMode {
		w.mu.Unlock()
		return false, nil
	}
	snap := w.snapshotLocked()
	snap.SavedAt = models.TruncateISO(w.now())
	seq := w.seq
	w.mu.Unlock()

	blob, err := w.codec.Encode(snap)
	if err != nil {
		return false, err
	}

	w.saveMu.Lock()
	defer w.saveMu.Unlock()
	if seq < w.savedSeq {
		return false, nil
	}
	if err := w.store.Save(ctx, DraftKey, blob); err != nil {
		return false, fmt.Errorf("saving draft: %w", err)
	}
	w.savedSeq = seq
	return true, nil
}

// ClearDraft discards the in-progress survey: autosave is suppressed, the
// stored draft is deleted and the wizard restarts at stage 1 with today's
// date.
func (w *Wizard) ClearDraft(ctx context.Context) error {
	w.mu.Lock()
	w.phase = PhaseSubmitted
	w.resetLocked(true)
	seq := w.seq
	w.mu.Unlock()

	w.saveMu.Lock()
	defer w.saveMu.Unlock()
	w.savedSeq = seq
	if err := w.store.Delete(ctx, DraftKey); err != nil {
		return fmt.Errorf("deleting draft: %w", err)
	}
	return nil
}

// Submit sends the survey. The consent field must be true and the payload
// must validate before any backend call. While a submission is in flight
// further calls return ErrSubmitInFlight. On success both stored drafts
// are removed, the in-memory survey is cleared and the transition asks
// the view to navigate away. On failure all local state and the safety
// copy are kept.
func (w *Wizard) Submit(ctx context.Context) (Transition, models.Result, error) {
	w.mu.Lock()
	if w.phase == PhaseLoading {
		w.mu.Unlock()
		return Transition{}, models.Result{}, ErrNotReady
	}
	if w.submitting {
		w.mu.Unlock()
		return Transition{}, models.Result{}, ErrSubmitInFlight
	}
	here := Transition{From: w.stage, To: w.stage}
	if !w.state.Get(w.consent).IsTrue() {
		w.mu.Unlock()
		return here, models.Result{}, &ValidationError{
			Reason:        "Debe autorizar el tratamiento de datos antes de enviar la encuesta",
			MissingFields: []string{w.consent},
		}
	}

	snap := w.snapshotLocked()
	payload := BuildPayload(snap, w.stages, w.sources)
	if err := w.submitter.Validate(payload); err != nil {
		w.mu.Unlock()
		return here, models.Result{}, err
	}

	w.submitting = true
	editMode, surveyID := w.editMode, w.surveyID
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.submitting = false
		w.mu.Unlock()
	}()

	snap.Completed = true
	snap.SavedAt = models.TruncateISO(w.now())
	if blob, err := w.codec.Encode(snap); err != nil {
		return here, models.Result{}, &UnexpectedError{Err: err}
	} else if err := w.store.Save(ctx, CompletedKey, blob); err != nil {
		w.logger.Error("saving safety copy failed", "error", err)
	}

	var res models.Result
	if editMode {
		res = w.submitter.Update(ctx, surveyID, payload)
	} else {
		res = w.submitter.Create(ctx, payload)
	}
	if !res.Success {
		return here, res, &SubmissionError{Message: res.Message, Details: res.ErrorDetails}
	}

	w.mu.Lock()
	w.phase = PhaseSubmitted
	w.resetLocked(false)
	seq := w.seq
	w.mu.Unlock()

	w.saveMu.Lock()
	w.savedSeq = seq
	if err := w.submitter.ClearPersistedDrafts(ctx); err != nil {
		w.logger.Error("clearing drafts after submit failed", "error", err)
	}
	w.saveMu.Unlock()

	return Transition{From: here.From, To: 1, Navigate: true}, res, nil
}

// AddFamilyMember validates m, assigns an id if it has none and appends it.
func (w *Wizard) AddFamilyMember(m models.FamilyMember) (models.FamilyMember, error) {
	if err := m.Validate(); err != nil {
		return m, &ValidationError{Reason: err.Error()}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if m.ID == "" {
		m.ID = w.newID()
	}
	w.family = append(w.family, m)
	w.seq++
	return m, nil
}

// UpdateFamilyMember replaces the member with the same id.
func (w *Wizard) UpdateFamilyMember(m models.FamilyMember) error {
	if err := m.Validate(); err != nil {
		return &ValidationError{Reason: err.Error()}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	i := slices.IndexFunc(w.family, func(x models.FamilyMember) bool { return x.ID == m.ID })
	if i < 0 {
		return fmt.Errorf("family member %s not found", m.ID)
	}
	w.family[i] = m
	w.seq++
	return nil
}

// RemoveFamilyMember deletes the member with the given id.
func (w *Wizard) RemoveFamilyMember(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := slices.IndexFunc(w.family, func(x models.FamilyMember) bool { return x.ID == id })
	if i < 0 {
		return fmt.Errorf("family member %s not found", id)
	}
	w.family = slices.Delete(w.family, i, i+1)
	w.seq++
	return nil
}

// AddDeceasedMember validates d, assigns an id if it has none and appends it.
func (w *Wizard) AddDeceasedMember(d models.DeceasedMember) (models.DeceasedMember, error) {
	if err := d.Validate(); err != nil {
		return d, &ValidationError{Reason: err.Error()}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if d.ID == "" {
		d.ID = w.newID()
	}
	w.deceased = append(w.deceased, d)
	w.seq++
	return d, nil
}

// UpdateDeceasedMember replaces the deceased member with the same id.
func (w *Wizard) UpdateDeceasedMember(d models.DeceasedMember) error {
	if err := d.Validate(); err != nil {
		return &ValidationError{Reason: err.Error()}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	i := slices.IndexFunc(w.deceased, func(x models.DeceasedMember) bool { return x.ID == d.ID })
	if i < 0 {
		return fmt.Errorf("deceased member %s not found", d.ID)
	}
	w.deceased[i] = d
	w.seq++
	return nil
}

// RemoveDeceasedMember deletes the deceased member with the given id.
func (w *Wizard) RemoveDeceasedMember(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := slices.IndexFunc(w.deceased, func(x models.DeceasedMember) bool { return x.ID == id })
	if i < 0 {
		return fmt.Errorf("deceased member %s not found", id)
	}
	w.deceased = slices.Delete(w.deceased, i, i+1)
	w.seq++
	return nil
}

func (w *Wizard) snapshotLocked() Snapshot {
	return Snapshot{
		Stage:    w.stage,
		State:    w.state.Clone(),
		Family:   slices.Clone(w.family),
		Deceased: slices.Clone(w.deceased),
	}
}

// Snapshot returns a copy of the current wizard state.
func (w *Wizard) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// Value returns the current value of a field.
func (w *Wizard) Value(id string) models.Value {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Get(id)
}

// Stage returns the current stage id.
func (w *Wizard) Stage() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stage
}

// CurrentStage returns the definition of the current stage.
func (w *Wizard) CurrentStage() models.FormStage {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, _ := w.stages.ByID(w.stage)
	return s
}

// Stages returns the stage catalog.
func (w *Wizard) Stages() models.Stages {
	return w.stages
}

// Phase returns the lifecycle phase.
func (w *Wizard) Phase() Phase {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.phase
}

// EditMode reports whether an existing survey is being edited.
func (w *Wizard) EditMode() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.editMode
}

// SurveyID returns the id of the survey being edited.
func (w *Wizard) SurveyID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.surveyID
}

// Submitting reports whether a submission is in flight.
func (w *Wizard) Submitting() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitting
}

// FamilyMembers returns a copy of the family list.
func (w *Wizard) FamilyMembers() []models.FamilyMember {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.family)
}

// DeceasedMembers returns a copy of the deceased list.
func (w *Wizard) DeceasedMembers() []models.DeceasedMember {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.deceased)
}

// Options resolves the options of a field against the current state.
func (w *Wizard) Options(field models.FieldDefinition) OptionSet {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Resolve(field, w.state, w.sources)
}

// Readiness reports the option status of the current stage's fields.
func (w *Wizard) Readiness() Readiness {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, _ := w.stages.ByID(w.stage)
	return NewReadiness(s.Fields, w.state, w.sources)
}

// IsLeader reports whether a member satisfies the leadership rule.
func (w *Wizard) IsLeader(m models.FamilyMember) bool {
	return w.validator.IsLeader(m)
}
