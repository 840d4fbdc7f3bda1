package survey

import (
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/censoparroquial/censo/internal/models"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	codec, err := NewCodec(models.DefaultStages())
	require.NoError(t, err)
	return codec
}

func sampleSnapshot() Snapshot {
	birth := time.Date(1982, 11, 3, 0, 0, 0, 0, time.UTC)
	death := time.Date(2019, 8, 21, 0, 0, 0, 0, time.UTC)

	return Snapshot{
		Stage: 4,
		State: models.FormState{
			models.FieldMunicipio:                models.Text("1"),
			models.FieldSector:                   models.Text("12"),
			models.ShadowKey(models.FieldSector): models.RefValue(models.Ref{ID: 12, Nombre: "Centro"}),
			models.FieldFecha:                    models.DateValue(time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)),
			models.FieldDireccion:                models.Text("Calle 10 # 20-30"),
			models.FieldDisposicionBasura:        models.List("1", "3"),
			models.FieldSistemaAcueducto:         models.Text("2"),
			models.FieldAutorizacionDatos:        models.Bool(true),
			models.FieldObservaciones:            models.Text("Familia muy colaboradora"),
		},
		Family: []models.FamilyMember{{
			ID:              "m1",
			Nombres:         "Ana Restrepo",
			FechaNacimiento: models.NewDate(birth),
			Parentesco:      &models.Ref{ID: 1, Nombre: "Jefa de Hogar"},
			Habilidades:     []models.Ref{{ID: 4, Nombre: "Costura"}},
			ComunionEnCasa:  true,
			Celebraciones:   []models.Celebration{{ID: "c1", Motivo: "Cumpleaños", Dia: 3, Mes: 11}},
		}},
		Deceased: []models.DeceasedMember{{
			ID:                 "d1",
			Nombres:            "Luis Restrepo",
			FechaFallecimiento: models.NewDate(death),
			CausaFallecimiento: "Enfermedad",
		}},
	}
}

func assertSnapshotsEqual(t *testing.T, want, got Snapshot) {
	t.Helper()

	assert.Equal(t, want.Stage, got.Stage)
	assert.True(t, want.State.Equal(got.State), "state mismatch:\nwant %v\ngot  %v", want.State, got.State)

	require.Len(t, got.Family, len(want.Family))
	for i := range want.Family {
		w, g := want.Family[i], got.Family[i]
		assert.Equal(t, w.ID, g.ID)
		assert.Equal(t, w.Nombres, g.Nombres)
		require.NotNil(t, g.FechaNacimiento)
		assert.True(t, w.FechaNacimiento.Equal(g.FechaNacimiento.Time), "birth date mismatch")
		assert.Equal(t, w.Relationship(), g.Relationship())
		assert.Equal(t, w.ComunionEnCasa, g.ComunionEnCasa)
		assert.Equal(t, w.Celebraciones, g.Celebraciones)
	}

	require.Len(t, got.Deceased, len(want.Deceased))
	for i := range want.Deceased {
		w, g := want.Deceased[i], got.Deceased[i]
		assert.Equal(t, w.ID, g.ID)
		require.NotNil(t, g.FechaFallecimiento)
		assert.True(t, w.FechaFallecimiento.Equal(g.FechaFallecimiento.Time), "death date mismatch")
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	codec := newTestCodec(t)
	want := sampleSnapshot()

	blob, err := codec.Encode(want)
	require.NoError(t, err)

	got, err := codec.Decode(blob)
	require.NoError(t, err)

	assertSnapshotsEqual(t, want, got)

	fecha, ok := got.State.Get(models.FieldFecha).AsDate()
	require.True(t, ok, "fecha should be rehydrated to a date")
	assert.True(t, fecha.Equal(time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)))
}

func TestCodec_EncodeStructuredSections(t *testing.T) {
	codec := newTestCodec(t)

	blob, err := codec.Encode(sampleSnapshot())
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(blob, &raw))

	doc := make(map[string]map[string]any)
	for _, section := range []string{"metadata", "informacionGeneral", "vivienda", "servicios_agua", "observaciones"} {
		require.Contains(t, raw, section)
		var m map[string]any
		require.NoError(t, json.Unmarshal(raw[section], &m))
		doc[section] = m
	}

	assert.Contains(t, doc["informacionGeneral"], models.FieldMunicipio)
	assert.Contains(t, doc["informacionGeneral"], models.ShadowKey(models.FieldSector))
	assert.Contains(t, doc["vivienda"], models.FieldDisposicionBasura)
	assert.Contains(t, doc["servicios_agua"], models.FieldSistemaAcueducto)
	assert.Contains(t, doc["observaciones"], models.FieldAutorizacionDatos)
	assert.Equal(t, float64(4), doc["metadata"]["currentStage"])
	assert.Equal(t, false, doc["metadata"]["completed"])
	assert.Equal(t, float64(DraftVersion), doc["metadata"]["version"])
	assert.Equal(t, "2024-06-15T10:30:00.000Z", doc["informacionGeneral"][models.FieldFecha])
}

func TestCodec_LegacyCompatibility(t *testing.T) {
	codec := newTestCodec(t)

	legacy := `{
		"stage": 3,
		"data": {
			"municipio": "1",
			"sector": "12",
			"sector_data": {"id": "12", "nombre": "Centro"},
			"fecha": "2024-06-15T10:30:00.000Z",
			"direccion": "Calle 10 # 20-30",
			"disposicion_basuras": ["1", "3"]
		},
		"familyMembers": [{
			"id": "m1",
			"nombres": "Ana Restrepo",
			"fechaNacimiento": "1982-11-03T00:00:00.000Z",
			"parentesco": {"id": "1", "nombre": "Jefa de Hogar"}
		}]
	}`

	structured, err := codec.Encode(Snapshot{
		Stage: 3,
		State: models.FormState{
			models.FieldMunicipio:                models.Text("1"),
			models.FieldSector:                   models.Text("12"),
			models.ShadowKey(models.FieldSector): models.RefValue(models.Ref{ID: 12, Nombre: "Centro"}),
			models.FieldFecha:                    models.DateValue(time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)),
			models.FieldDireccion:                models.Text("Calle 10 # 20-30"),
			models.FieldDisposicionBasura:        models.List("1", "3"),
		},
		Family: []models.FamilyMember{{
			ID:              "m1",
			Nombres:         "Ana Restrepo",
			FechaNacimiento: models.NewDate(time.Date(1982, 11, 3, 0, 0, 0, 0, time.UTC)),
			Parentesco:      &models.Ref{ID: 1, Nombre: "Jefa de Hogar"},
		}},
	})
	require.NoError(t, err)

	fromLegacy, err := codec.Decode([]byte(legacy))
	require.NoError(t, err)
	fromStructured, err := codec.Decode(structured)
	require.NoError(t, err)

	assertSnapshotsEqual(t, fromStructured, fromLegacy)
	assert.Empty(t, fromLegacy.Deceased)
	assert.False(t, fromLegacy.Completed)

	parentesco := fromLegacy.Family[0].Parentesco
	require.NotNil(t, parentesco)
	assert.True(t, parentesco.Coerced())
	assert.Equal(t, 1, parentesco.ID)
}

func TestCodec_ShadowCoercionOnDecode(t *testing.T) {
	codec := newTestCodec(t)

	blob := `{"stage":1,"data":{
		"vereda_data": {"id": "7", "nombre": "La Mesa"},
		"corregimiento_data": {"id": "abc", "nombre": "X"}
	}}`

	snap, err := codec.Decode([]byte(blob))
	require.NoError(t, err)

	vereda, ok := snap.State.Get(models.ShadowKey(models.FieldVereda)).AsRef()
	require.True(t, ok)
	assert.Equal(t, 7, vereda.ID)

	corr, ok := snap.State.Get(models.ShadowKey(models.FieldCorregimiento)).AsRef()
	require.True(t, ok)
	assert.False(t, corr.Coerced())
	out, err := corr.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": "abc", "nombre": "X"}`, string(out))
}

func TestCodec_DecodeErrors(t *testing.T) {
	codec := newTestCodec(t)

	tests := []struct {
		name   string
		blob   string
		reason DecodeReason
	}{
		{"not json", "esto no es JSON", DecodeCorrupt},
		{"empty", "", DecodeCorrupt},
		{"truncated", `{"metadata": {"currentStage": 2}`, DecodeCorrupt},
		{"array", `[1, 2, 3]`, DecodeUnrecognized},
		{"unknown object", `{"foo": "bar"}`, DecodeUnrecognized},
		{"structured without section", `{"metadata": {"currentStage": 2}}`, DecodeUnrecognized},
		{"legacy with string stage", `{"stage": "3", "data": {}}`, DecodeUnrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Decode([]byte(tt.blob))

			var derr *DecodeError
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, tt.reason, derr.Reason)
		})
	}
}

func TestCodec_InvalidDateStaysText(t *testing.T) {
	codec := newTestCodec(t)

	snap, err := codec.Decode([]byte(`{"stage":1,"data":{"fecha":"pronto"}}`))
	require.NoError(t, err)

	v := snap.State.Get(models.FieldFecha)
	assert.Equal(t, models.KindText, v.Kind())

	stage, _ := models.DefaultStages().ByID(1)
	verdict := NewValidator([]string{"Jefe de Hogar"}).CanAdvance(stage, snap.State, nil)
	assert.False(t, verdict.OK)
	assert.Contains(t, verdict.MissingFields, models.FieldFecha)
}

func TestCodec_StageClamped(t *testing.T) {
	codec := newTestCodec(t)

	snap, err := codec.Decode([]byte(`{"stage": 42, "data": {}}`))
	require.NoError(t, err)
	assert.Equal(t, 6, snap.Stage)
	assert.NotNil(t, snap.Family)
	assert.NotNil(t, snap.Deceased)
}

func TestCodec_RoundTripKeepsSubMillisecondTimes(t *testing.T) {
	codec := newTestCodec(t)
	at := time.Date(2024, 6, 15, 10, 30, 0, 123456789, time.Local)

	want := Snapshot{
		Stage: 1,
		State: models.FormState{models.FieldFecha: models.DateValue(at)},
		Family: []models.FamilyMember{{
			ID:              "m1",
			Nombres:         "Ana Restrepo",
			FechaNacimiento: models.NewDate(at.AddDate(-40, 0, 0)),
		}},
		Deceased: []models.DeceasedMember{},
	}

	blob, err := codec.Encode(want)
	require.NoError(t, err)
	got, err := codec.Decode(blob)
	require.NoError(t, err)

	assertSnapshotsEqual(t, want, got)
}

func TestCodec_StructuredWithoutCurrentStage(t *testing.T) {
	codec := newTestCodec(t)

	blob := `{
		"metadata": {"completed": false},
		"informacionGeneral": {"direccion": "Calle 1"},
		"familyMembers": [],
		"deceasedMembers": []
	}`

	snap, err := codec.Decode([]byte(blob))
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Stage)
	assert.Equal(t, "Calle 1", snap.State.Get(models.FieldDireccion).AsText())
}

func TestCodec_LegacyBareRefs(t *testing.T) {
	codec := newTestCodec(t)

	blob := `{"stage": 4, "data": {}, "familyMembers": [{
		"id": "m1",
		"nombres": "Ana Restrepo",
		"sexo": "2",
		"parentesco": "Jefa de Hogar"
	}]}`

	snap, err := codec.Decode([]byte(blob))
	require.NoError(t, err)
	require.Len(t, snap.Family, 1)

	sexo := snap.Family[0].Sexo
	require.NotNil(t, sexo)
	assert.Equal(t, 2, sexo.ID)

	parentesco := snap.Family[0].Parentesco
	require.NotNil(t, parentesco)
	assert.False(t, parentesco.Coerced())
	assert.Equal(t, "Jefa de Hogar", parentesco.Key())
}
