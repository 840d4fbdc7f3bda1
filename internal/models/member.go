package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Celebration is a repeatable family date (birthday, anniversary, saint's day).
type Celebration struct {
	ID     string `json:"id"`
	Motivo string `json:"motivo"`
	Dia    int    `json:"dia"`
	Mes    int    `json:"mes"`
}

// Validate checks that the celebration is a real day of the year.
func (c Celebration) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Motivo) == "" {
		errs = append(errs, errors.New("motivo is required"))
	}
	if c.Mes < 1 || c.Mes > 12 {
		errs = append(errs, fmt.Errorf("mes must be between 1 and 12, got %d", c.Mes))
	} else {
		// 2024 is a leap year so 29 February is accepted.
		last := time.Date(2024, time.Month(c.Mes)+1, 0, 0, 0, 0, 0, time.UTC).Day()
		if c.Dia < 1 || c.Dia > last {
			errs = append(errs, fmt.Errorf("dia must be between 1 and %d, got %d", last, c.Dia))
		}
	}

	return errors.Join(errs...)
}

// Sizes holds clothing sizes used for parish donation drives.
type Sizes struct {
	Camisa   string `json:"camisa"`
	Pantalon string `json:"pantalon"`
	Calzado  string `json:"calzado"`
}

// FamilyMember is one living member of the surveyed household.
type FamilyMember struct {
	ID                   string        `json:"id"`
	Nombres              string        `json:"nombres"`
	FechaNacimiento      *Date         `json:"fechaNacimiento"`
	TipoIdentificacion   *Ref          `json:"tipoIdentificacion"`
	NumeroIdentificacion string        `json:"numeroIdentificacion"`
	Sexo                 *Ref          `json:"sexo"`
	Parentesco           *Ref          `json:"parentesco"`
	SituacionCivil       *Ref          `json:"situacionCivil"`
	Estudio              *Ref          `json:"estudio"`
	Profesion            *Ref          `json:"profesion"`
	Tallas               Sizes         `json:"tallas"`
	Enfermedades         []Ref         `json:"enfermedades"`
	Habilidades          []Ref         `json:"habilidades"`
	Destrezas            []Ref         `json:"destrezas"`
	Liderazgo            []Ref         `json:"liderazgo"`
	ComunionEnCasa       bool          `json:"comunionEnCasa"`
	Celebraciones        []Celebration `json:"celebraciones"`
}

// Validate checks the fields the member dialog requires.
func (m *FamilyMember) Validate() error {
	var errs []error

	if strings.TrimSpace(m.Nombres) == "" {
		errs = append(errs, errors.New("nombres is required"))
	}
	if m.FechaNacimiento == nil || m.FechaNacimiento.IsZero() {
		errs = append(errs, errors.New("fechaNacimiento is required"))
	} else if m.FechaNacimiento.After(time.Now()) {
		errs = append(errs, errors.New("fechaNacimiento cannot be in the future"))
	}
	if m.Parentesco == nil {
		errs = append(errs, errors.New("parentesco is required"))
	}
	if m.Sexo == nil {
		errs = append(errs, errors.New("sexo is required"))
	}
	for i, c := range m.Celebraciones {
		if err := c.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("celebraciones[%d]: %w", i, err))
		}
	}

	return errors.Join(errs...)
}

// Relationship returns the display name of the member's relationship.
func (m *FamilyMember) Relationship() string {
	if m.Parentesco == nil {
		return ""
	}
	return m.Parentesco.Nombre
}

// Age returns the member's age in whole years at asOf, or -1 when unknown.
func (m *FamilyMember) Age(asOf time.Time) int {
	if m.FechaNacimiento == nil || m.FechaNacimiento.IsZero() {
		return -1
	}
	dob := m.FechaNacimiento.Time
	years := asOf.Year() - dob.Year()
	if asOf.Month() < dob.Month() || (asOf.Month() == dob.Month() && asOf.Day() < dob.Day()) {
		years--
	}
	return years
}

// DeceasedMember is a household member who has died.
type DeceasedMember struct {
	ID                 string `json:"id"`
	Nombres            string `json:"nombres"`
	FechaFallecimiento *Date  `json:"fechaFallecimiento"`
	Sexo               *Ref   `json:"sexo"`
	Parentesco         *Ref   `json:"parentesco"`
	CausaFallecimiento string `json:"causaFallecimiento"`
}

// Validate checks the fields the deceased dialog requires.
func (d *DeceasedMember) Validate() error {
	var errs []error

	if strings.TrimSpace(d.Nombres) == "" {
		errs = append(errs, errors.New("nombres is required"))
	}
	if d.FechaFallecimiento != nil && d.FechaFallecimiento.After(time.Now()) {
		errs = append(errs, errors.New("fechaFallecimiento cannot be in the future"))
	}

	return errors.Join(errs...)
}
