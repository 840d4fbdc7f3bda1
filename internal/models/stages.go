package models

// Field ids of the census stage catalog.
const (
	FieldMunicipio         = "municipio"
	FieldParroquia         = "parroquia"
	FieldSector            = "sector"
	FieldVereda            = "vereda"
	FieldCorregimiento     = "corregimiento"
	FieldCentroPoblado     = "centro_poblado"
	FieldFecha             = "fecha"
	FieldApellidoFamiliar  = "apellido_familiar"
	FieldDireccion         = "direccion"
	FieldTelefono          = "telefono"
	FieldContratoEPM       = "numero_contrato_epm"
	FieldComunidadCultural = "comunidad_cultural"
	FieldTipoVivienda      = "tipo_vivienda"
	FieldDisposicionBasura = "disposicion_basuras"
	FieldSistemaAcueducto  = "sistema_acueducto"
	FieldAguasResiduales   = "aguas_residuales"
	FieldSustentoFamilia   = "sustento_familia"
	FieldObservaciones     = "observaciones_encuestador"
	FieldAutorizacionDatos = "autorizacion_datos"
)

// Catalog option set names served by the configuration data source.
const (
	CatalogMunicipios            = "municipios"
	CatalogParroquias            = "parroquias"
	CatalogSectores              = "sectores"
	CatalogVeredas               = "veredas"
	CatalogCorregimientos        = "corregimientos"
	CatalogCentrosPoblados       = "centros_poblados"
	CatalogTiposVivienda         = "tipos_vivienda"
	CatalogDisposicionBasuras    = "disposicion_basuras"
	CatalogAguasResiduales       = "aguas_residuales"
	CatalogSistemasAcueducto     = "sistemas_acueducto"
	CatalogSexos                 = "sexos"
	CatalogParentescos           = "parentescos"
	CatalogEstadosCiviles        = "estados_civiles"
	CatalogEstudios              = "estudios"
	CatalogProfesiones           = "profesiones"
	CatalogEnfermedades          = "enfermedades"
	CatalogComunidadesCulturales = "comunidades_culturales"
	CatalogHabilidades           = "habilidades"
	CatalogDestrezas             = "destrezas"
	CatalogTiposIdentificacion   = "tipos_identificacion"
)

// Draft envelope sections.
const (
	SectionInformacionGeneral = "informacionGeneral"
	SectionVivienda           = "vivienda"
	SectionServiciosAgua      = "servicios_agua"
	SectionObservaciones      = "observaciones"
)

// Stage ids of the member grids in the default catalog.
const (
	StageIDFamily   = 4
	StageIDDeceased = 5
)

// DefaultStages returns the six-stage parish census catalog.
func DefaultStages() Stages {
	return Stages{
		{
			ID:          1,
			Title:       "Información General",
			Description: "Ubicación y datos de contacto del hogar",
			Kind:        StageFields,
			Section:     SectionInformacionGeneral,
			Fields: []FieldDefinition{
				{ID: FieldMunicipio, Label: "Municipio", Type: FieldSelect, Required: true, ConfigKey: CatalogMunicipios},
				{ID: FieldParroquia, Label: "Parroquia", Type: FieldSelect, Required: true, ConfigKey: CatalogParroquias, DependsOn: FieldMunicipio},
				{ID: FieldSector, Label: "Sector", Type: FieldSelect, Required: true, ConfigKey: CatalogSectores, DependsOn: FieldMunicipio, Shadow: true},
				{ID: FieldVereda, Label: "Vereda", Type: FieldSelect, ConfigKey: CatalogVeredas, DependsOn: FieldMunicipio, Shadow: true},
				{ID: FieldCorregimiento, Label: "Corregimiento", Type: FieldSelect, ConfigKey: CatalogCorregimientos, DependsOn: FieldMunicipio, Shadow: true},
				{ID: FieldCentroPoblado, Label: "Centro Poblado", Type: FieldSelect, ConfigKey: CatalogCentrosPoblados, DependsOn: FieldMunicipio, Shadow: true},
				{ID: FieldFecha, Label: "Fecha", Type: FieldDate, Required: true},
				{ID: FieldApellidoFamiliar, Label: "Apellido Familiar", Type: FieldText, Required: true},
				{ID: FieldDireccion, Label: "Dirección", Type: FieldText, Required: true},
				{ID: FieldTelefono, Label: "Teléfono", Type: FieldText},
				{ID: FieldContratoEPM, Label: "Número Contrato EPM", Type: FieldText},
				{ID: FieldComunidadCultural, Label: "Comunidad Cultural", Type: FieldSelect, ConfigKey: CatalogComunidadesCulturales},
			},
		},
		{
			ID:          2,
			Title:       "Vivienda",
			Description: "Tipo de vivienda y manejo de basuras",
			Kind:        StageFields,
			Section:     SectionVivienda,
			Fields: []FieldDefinition{
				{ID: FieldTipoVivienda, Label: "Tipo de Vivienda", Type: FieldSelect, Required: true, ConfigKey: CatalogTiposVivienda},
				{ID: FieldDisposicionBasura, Label: "Disposición de Basuras", Type: FieldMultiCheckbox, ConfigKey: CatalogDisposicionBasuras},
			},
		},
		{
			ID:          3,
			Title:       "Servicios de Agua",
			Description: "Acueducto y aguas residuales",
			Kind:        StageFields,
			Section:     SectionServiciosAgua,
			Fields: []FieldDefinition{
				{ID: FieldSistemaAcueducto, Label: "Sistema de Acueducto", Type: FieldSelect, Required: true, ConfigKey: CatalogSistemasAcueducto},
				{ID: FieldAguasResiduales, Label: "Aguas Residuales", Type: FieldMultiCheckbox, ConfigKey: CatalogAguasResiduales},
			},
		},
		{
			ID:          StageIDFamily,
			Title:       "Familia",
			Description: "Miembros vivos del hogar",
			Kind:        StageFamilyGrid,
		},
		{
			ID:          StageIDDeceased,
			Title:       "Difuntos",
			Description: "Familiares fallecidos",
			Kind:        StageDeceasedGrid,
		},
		{
			ID:          6,
			Title:       "Observaciones y Autorización",
			Description: "Sustento, observaciones y consentimiento de tratamiento de datos",
			Kind:        StageFields,
			Section:     SectionObservaciones,
			Fields: []FieldDefinition{
				{ID: FieldSustentoFamilia, Label: "Sustento de la Familia", Type: FieldTextarea},
				{ID: FieldObservaciones, Label: "Observaciones del Encuestador", Type: FieldTextarea},
				{ID: FieldAutorizacionDatos, Label: "Autorizo el tratamiento de mis datos", Type: FieldBoolean},
			},
		},
	}
}
