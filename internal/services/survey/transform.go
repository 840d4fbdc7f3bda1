package survey

import (
	"strings"

	"github.com/censoparroquial/censo/internal/models"
)

// BuildPayload converts wizard state into the document expected by the
// survey service. Select values are resolved to {id, nombre} pairs from
// their shadow field, the current option list, or the raw value.
func BuildPayload(snap Snapshot, stages models.Stages, sources Sources) *models.SurveyPayload {
	b := payloadBuilder{state: snap.State, stages: stages, sources: sources}

	return &models.SurveyPayload{
		InformacionGeneral: models.InformacionGeneral{
			Municipio:         b.ref(models.FieldMunicipio),
			Parroquia:         b.ref(models.FieldParroquia),
			Sector:            b.ref(models.FieldSector),
			Vereda:            b.ref(models.FieldVereda),
			Corregimiento:     b.ref(models.FieldCorregimiento),
			CentroPoblado:     b.ref(models.FieldCentroPoblado),
			Fecha:             b.date(models.FieldFecha),
			ApellidoFamiliar:  b.text(models.FieldApellidoFamiliar),
			Direccion:         b.text(models.FieldDireccion),
			Telefono:          b.text(models.FieldTelefono),
			NumeroContratoEPM: b.text(models.FieldContratoEPM),
			ComunidadCultural: b.ref(models.FieldComunidadCultural),
		},
		Vivienda: models.Vivienda{
			TipoVivienda:       b.ref(models.FieldTipoVivienda),
			DisposicionBasuras: b.refs(models.FieldDisposicionBasura),
		},
		ServiciosAgua: models.ServiciosAgua{
			SistemaAcueducto: b.ref(models.FieldSistemaAcueducto),
			AguasResiduales:  b.refs(models.FieldAguasResiduales),
		},
		Observaciones: models.Observaciones{
			SustentoFamilia:          b.text(models.FieldSustentoFamilia),
			ObservacionesEncuestador: b.text(models.FieldObservaciones),
			AutorizacionDatos:        snap.State.Get(models.FieldAutorizacionDatos).IsTrue(),
		},
		FamilyMembers:   nonNil(snap.Family),
		DeceasedMembers: nonNil(snap.Deceased),
	}
}

type payloadBuilder struct {
	state   models.FormState
	stages  models.Stages
	sources Sources
}

func (b payloadBuilder) text(id string) string {
	return strings.TrimSpace(b.state.Get(id).AsText())
}

func (b payloadBuilder) date(id string) string {
	v := b.state.Get(id)
	if t, ok := v.AsDate(); ok {
		return models.FormatISO(t)
	}
	return strings.TrimSpace(v.AsText())
}

func (b payloadBuilder) ref(id string) *models.Ref {
	v := b.state.Get(id)
	if v.IsEmpty() {
		return nil
	}
	if r, ok := v.AsRef(); ok {
		return &r
	}

	field, known := b.stages.Field(id)
	if known && field.Shadow {
		if r, ok := b.state.Get(models.ShadowKey(id)).AsRef(); ok {
			return &r
		}
	}

	r := b.lookup(field, known, ParentKey(v))
	return &r
}

func (b payloadBuilder) refs(id string) []models.Ref {
	items := b.state.Get(id).AsList()
	if len(items) == 0 {
		return nil
	}
	field, known := b.stages.Field(id)

	out := make([]models.Ref, 0, len(items))
	for _, item := range items {
		out = append(out, b.lookup(field, known, item))
	}
	return out
}

func (b payloadBuilder) lookup(field models.FieldDefinition, known bool, key string) models.Ref {
	if known && b.sources != nil {
		if opt, ok := Resolve(field, b.state, b.sources).Find(key); ok {
			return models.RefFromOption(opt)
		}
	}
	return models.RefFromOption(models.Option{Value: key})
}

// RecordToSnapshot converts a stored survey into wizard state for editing.
func RecordToSnapshot(rec *models.SurveyRecord, stages models.Stages) Snapshot {
	state := models.FormState{}
	info := rec.InformacionGeneral

	setRef(state, stages, models.FieldMunicipio, info.Municipio)
	setRef(state, stages, models.FieldParroquia, info.Parroquia)
	setRef(state, stages, models.FieldSector, info.Sector)
	setRef(state, stages, models.FieldVereda, info.Vereda)
	setRef(state, stages, models.FieldCorregimiento, info.Corregimiento)
	setRef(state, stages, models.FieldCentroPoblado, info.CentroPoblado)
	setRef(state, stages, models.FieldComunidadCultural, info.ComunidadCultural)
	setText(state, models.FieldApellidoFamiliar, info.ApellidoFamiliar)
	setText(state, models.FieldDireccion, info.Direccion)
	setText(state, models.FieldTelefono, info.Telefono)
	setText(state, models.FieldContratoEPM, info.NumeroContratoEPM)
	if info.Fecha != "" {
		state[models.FieldFecha] = models.Text(info.Fecha).RehydrateDate()
	}

	setRef(state, stages, models.FieldTipoVivienda, rec.Vivienda.TipoVivienda)
	setRefs(state, models.FieldDisposicionBasura, rec.Vivienda.DisposicionBasuras)
	setRef(state, stages, models.FieldSistemaAcueducto, rec.ServiciosAgua.SistemaAcueducto)
	setRefs(state, models.FieldAguasResiduales, rec.ServiciosAgua.AguasResiduales)

	setText(state, models.FieldSustentoFamilia, rec.Observaciones.SustentoFamilia)
	setText(state, models.FieldObservaciones, rec.Observaciones.ObservacionesEncuestador)
	state[models.FieldAutorizacionDatos] = models.Bool(rec.Observaciones.AutorizacionDatos)

	return Snapshot{
		Stage:    1,
		State:    state,
		Family:   nonNil(rec.FamilyMembers),
		Deceased: nonNil(rec.DeceasedMembers),
	}
}

func setText(state models.FormState, id, s string) {
	if s != "" {
		state[id] = models.Text(s)
	}
}

func setRef(state models.FormState, stages models.Stages, id string, ref *models.Ref) {
	if ref == nil {
		return
	}
	state[id] = models.Text(ref.Key())
	if f, ok := stages.Field(id); ok && f.Shadow {
		state[models.ShadowKey(id)] = models.RefValue(*ref)
	}
}

func setRefs(state models.FormState, id string, refs []models.Ref) {
	if len(refs) == 0 {
		return
	}
	keys := make([]string, 0, len(refs))
	for _, r := range refs {
		keys = append(keys, r.Key())
	}
	state[id] = models.List(keys...)
}
