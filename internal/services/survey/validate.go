package survey

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/censoparroquial/censo/internal/models"
)

// Verdict is the outcome of a stage advancement check.
type Verdict struct {
	OK            bool
	Reason        string
	MissingFields []string
}

// Err returns the verdict as a *ValidationError, or nil when it passed.
func (v Verdict) Err() error {
	if v.OK {
		return nil
	}
	return &ValidationError{Reason: v.Reason, MissingFields: v.MissingFields}
}

func pass() Verdict {
	return Verdict{OK: true}
}

// Validator decides whether the surveyor may leave a stage.
type Validator struct {
	roles      []string
	normalized map[string]bool
}

// NewValidator creates a validator that accepts the given relationship
// names as household leadership roles.
func NewValidator(leadershipRoles []string) *Validator {
	v := &Validator{
		roles:      append([]string(nil), leadershipRoles...),
		normalized: make(map[string]bool, len(leadershipRoles)),
	}
	for _, role := range leadershipRoles {
		v.normalized[foldRole(role)] = true
	}
	return v
}

// LeadershipRoles returns the configured qualifying relationship names.
func (v *Validator) LeadershipRoles() []string {
	return append([]string(nil), v.roles...)
}

// IsLeader reports whether the member holds a qualifying relationship.
// Matching ignores case, accents and repeated spaces.
func (v *Validator) IsLeader(m models.FamilyMember) bool {
	name := m.Relationship()
	if name == "" {
		return false
	}
	return v.normalized[foldRole(name)]
}

// CanAdvance checks the completion rules of stage against the current state.
func (v *Validator) CanAdvance(stage models.FormStage, state models.FormState, family []models.FamilyMember) Verdict {
	switch stage.Kind {
	case models.StageFamilyGrid:
		return v.checkFamily(family)
	case models.StageDeceasedGrid:
		return pass()
	default:
		return checkFields(stage.Fields, state)
	}
}

func checkFields(fields []models.FieldDefinition, state models.FormState) Verdict {
	var (
		missing []string
		labels  []string
		invalid []string
	)

	for _, f := range fields {
		if !f.Required {
			continue
		}
		val := state.Get(f.ID)

		if f.Type == models.FieldDate {
			if _, ok := val.AsDate(); ok {
				continue
			}
			missing = append(missing, f.ID)
			if val.IsEmpty() {
				labels = append(labels, f.Label)
			} else {
				invalid = append(invalid, f.Label)
			}
			continue
		}

		if val.IsEmpty() {
			missing = append(missing, f.ID)
			labels = append(labels, f.Label)
		}
	}

	if len(missing) == 0 {
		return pass()
	}

	var parts []string
	if len(labels) > 0 {
		parts = append(parts, "Complete los campos obligatorios: "+strings.Join(labels, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "Ingrese una fecha válida en: "+strings.Join(invalid, ", "))
	}
	return Verdict{Reason: strings.Join(parts, ". "), MissingFields: missing}
}

func (v *Validator) checkFamily(family []models.FamilyMember) Verdict {
	if len(family) == 0 {
		return Verdict{Reason: "Debe agregar al menos un miembro de la familia"}
	}
	for _, m := range family {
		if v.IsLeader(m) {
			return pass()
		}
	}
	return Verdict{
		Reason: fmt.Sprintf("Al menos un miembro debe tener un rol de liderazgo del hogar (%s)",
			strings.Join(v.roles, ", ")),
	}
}

func foldRole(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.Join(strings.Fields(folded), " "))
}
