package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/censoparroquial/censo/internal/models"
)

// FixtureFamilyMember creates a head of household with sensible defaults.
func FixtureFamilyMember(overrides ...func(*models.FamilyMember)) *models.FamilyMember {
	dob := time.Now().UTC().AddDate(-40, 0, 0)

	member := &models.FamilyMember{
		ID:                   uuid.New().String(),
		Nombres:              "Carlos Mejía",
		FechaNacimiento:      models.NewDate(dob),
		TipoIdentificacion:   &models.Ref{ID: 1, Nombre: "Cédula de Ciudadanía"},
		NumeroIdentificacion: "71234567",
		Sexo:                 &models.Ref{ID: 1, Nombre: "Masculino"},
		Parentesco:           &models.Ref{ID: 1, Nombre: "Jefe de Hogar"},
		SituacionCivil:       &models.Ref{ID: 2, Nombre: "Casado"},
	}

	for _, override := range overrides {
		override(member)
	}

	return member
}

// FixtureChild creates a child member without a leadership role.
func FixtureChild(overrides ...func(*models.FamilyMember)) *models.FamilyMember {
	return FixtureFamilyMember(append([]func(*models.FamilyMember){
		func(m *models.FamilyMember) {
			m.Nombres = "Sofía Mejía"
			m.FechaNacimiento = models.NewDate(time.Now().UTC().AddDate(-8, 0, 0))
			m.Sexo = &models.Ref{ID: 2, Nombre: "Femenino"}
			m.Parentesco = &models.Ref{ID: 3, Nombre: "Hija"}
			m.SituacionCivil = nil
			m.TipoIdentificacion = &models.Ref{ID: 3, Nombre: "Tarjeta de Identidad"}
		},
	}, overrides...)...)
}

// FixtureDeceasedMember creates a deceased member with sensible defaults.
func FixtureDeceasedMember(overrides ...func(*models.DeceasedMember)) *models.DeceasedMember {
	member := &models.DeceasedMember{
		ID:                 uuid.New().String(),
		Nombres:            "Rosa Restrepo",
		FechaFallecimiento: models.NewDate(time.Now().UTC().AddDate(-2, 0, 0)),
		Sexo:               &models.Ref{ID: 2, Nombre: "Femenino"},
		Parentesco:         &models.Ref{ID: 5, Nombre: "Abuela"},
		CausaFallecimiento: "Enfermedad",
	}

	for _, override := range overrides {
		override(member)
	}

	return member
}

// FixtureSurveyPayload creates a payload that passes submission
// validation.
func FixtureSurveyPayload(overrides ...func(*models.SurveyPayload)) *models.SurveyPayload {
	payload := &models.SurveyPayload{
		InformacionGeneral: models.InformacionGeneral{
			Municipio:        &models.Ref{ID: 1, Nombre: "Medellín"},
			Parroquia:        &models.Ref{ID: 10, Nombre: "San José"},
			Sector:           &models.Ref{ID: 12, Nombre: "Centro"},
			Fecha:            models.FormatISO(time.Now()),
			ApellidoFamiliar: "Mejía Restrepo",
			Direccion:        "Calle 10 # 20-30",
		},
		Vivienda:        models.Vivienda{TipoVivienda: &models.Ref{ID: 1, Nombre: "Casa"}},
		ServiciosAgua:   models.ServiciosAgua{SistemaAcueducto: &models.Ref{ID: 1, Nombre: "Acueducto público"}},
		Observaciones:   models.Observaciones{AutorizacionDatos: true},
		FamilyMembers:   []models.FamilyMember{*FixtureFamilyMember()},
		DeceasedMembers: []models.DeceasedMember{},
	}

	for _, override := range overrides {
		override(payload)
	}

	return payload
}
