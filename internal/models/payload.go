package models

// InformacionGeneral is the location and contact section of a survey.
type InformacionGeneral struct {
	Municipio         *Ref   `json:"municipio" validate:"required"`
	Parroquia         *Ref   `json:"parroquia" validate:"required"`
	Sector            *Ref   `json:"sector" validate:"required"`
	Vereda            *Ref   `json:"vereda"`
	Corregimiento     *Ref   `json:"corregimiento"`
	CentroPoblado     *Ref   `json:"centro_poblado"`
	Fecha             string `json:"fecha" validate:"required,isodate"`
	ApellidoFamiliar  string `json:"apellido_familiar" validate:"required"`
	Direccion         string `json:"direccion" validate:"required"`
	Telefono          string `json:"telefono" validate:"omitempty,max=30"`
	NumeroContratoEPM string `json:"numero_contrato_epm" validate:"omitempty,max=40"`
	ComunidadCultural *Ref   `json:"comunidad_cultural"`
}

// Vivienda is the housing section of a survey.
type Vivienda struct {
	TipoVivienda       *Ref  `json:"tipo_vivienda" validate:"required"`
	DisposicionBasuras []Ref `json:"disposicion_basuras"`
}

// ServiciosAgua is the water services section of a survey.
type ServiciosAgua struct {
	SistemaAcueducto *Ref  `json:"sistema_acueducto" validate:"required"`
	AguasResiduales  []Ref `json:"aguas_residuales"`
}

// Observaciones is the closing section of a survey.
type Observaciones struct {
	SustentoFamilia          string `json:"sustento_familia"`
	ObservacionesEncuestador string `json:"observaciones_encuestador"`
	AutorizacionDatos        bool   `json:"autorizacion_datos" validate:"accepted"`
}

// SurveyPayload is the structured document sent to the survey service.
type SurveyPayload struct {
	InformacionGeneral InformacionGeneral `json:"informacionGeneral"`
	Vivienda           Vivienda           `json:"vivienda"`
	ServiciosAgua      ServiciosAgua      `json:"servicios_agua"`
	Observaciones      Observaciones      `json:"observaciones"`
	FamilyMembers      []FamilyMember     `json:"familyMembers" validate:"required,min=1"`
	DeceasedMembers    []DeceasedMember   `json:"deceasedMembers"`
}

// SurveyRecord is a stored survey as returned by the survey service.
type SurveyRecord struct {
	ID string `json:"id"`
	SurveyPayload
	CreatedAt *Date `json:"createdAt,omitempty"`
	UpdatedAt *Date `json:"updatedAt,omitempty"`
}
