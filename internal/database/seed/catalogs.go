// Package seed fills the local catalog cache with demo option lists so the
// survey wizard can run without a backend.
package seed

import "github.com/censoparroquial/censo/internal/models"

// Municipios are the demo municipalities; ids are the option values.
var Municipios = []string{
	"Medellín", "Envigado", "Bello", "Itagüí", "Rionegro", "La Estrella",
}

// ParroquiaNames is the pool parishes are drawn from.
var ParroquiaNames = []string{
	"San José", "Nuestra Señora del Carmen", "Santa Gertrudis", "San Juan Bautista",
	"La Candelaria", "San Antonio de Padua", "Sagrado Corazón", "Santa Bárbara",
	"San Nicolás", "María Auxiliadora", "Santo Domingo", "San Francisco de Asís",
}

// SectorNames is the pool urban sectors are drawn from.
var SectorNames = []string{
	"Centro", "La Paz", "El Poblado", "Los Naranjos", "San Fernando", "El Dorado",
	"La Floresta", "Villa Nueva", "Primavera", "Las Palmas", "El Rosario", "Guayabal",
}

// VeredaNames is the pool rural settlements are drawn from.
var VeredaNames = []string{
	"El Salado", "La Mosca", "Pantanillo", "El Tablazo", "Las Lomitas", "Piedras Blancas",
	"La Clara", "El Vallano", "Perico", "La Miel", "Santa Elena", "El Plan",
}

// CorregimientoNames is the pool corregimientos are drawn from.
var CorregimientoNames = []string{
	"San Cristóbal", "Altavista", "San Antonio de Prado", "Palmitas", "Santa Elena", "San Sebastián",
}

// CentroPobladoNames is the pool population centres are drawn from.
var CentroPobladoNames = []string{
	"El Hatillo", "La Ceja del Tambo", "Llanogrande", "San Félix", "Ovejas", "Potrerito",
}

// Fixed top-level catalogs keyed by their configuration key.
var fixed = map[string][]string{
	models.CatalogTiposVivienda:         {"Casa", "Apartamento", "Habitación", "Rancho", "Finca"},
	models.CatalogDisposicionBasuras:    {"Recolección municipal", "Quema", "Entierro", "Reciclaje", "Río o quebrada"},
	models.CatalogAguasResiduales:       {"Alcantarillado", "Pozo séptico", "Letrina", "Campo abierto"},
	models.CatalogSistemasAcueducto:     {"Acueducto público", "Acueducto veredal", "Pozo", "Río o quebrada", "Agua lluvia"},
	models.CatalogSexos:                 {"Masculino", "Femenino"},
	models.CatalogParentescos:           {"Jefe de Hogar", "Jefa de Hogar", "Cónyuge", "Hijo", "Hija", "Padre", "Madre", "Abuelo", "Abuela", "Nieto", "Nieta", "Otro"},
	models.CatalogEstadosCiviles:        {"Soltero", "Casado", "Unión libre", "Separado", "Viudo"},
	models.CatalogEstudios:              {"Ninguno", "Primaria", "Secundaria", "Técnico", "Tecnólogo", "Universitario", "Posgrado"},
	models.CatalogProfesiones:           {"Agricultor", "Comerciante", "Docente", "Enfermero", "Estudiante", "Hogar", "Independiente", "Pensionado"},
	models.CatalogEnfermedades:          {"Ninguna", "Diabetes", "Hipertensión", "Asma", "Artritis", "Discapacidad física"},
	models.CatalogComunidadesCulturales: {"Ninguna", "Afrodescendiente", "Indígena", "Raizal", "Rom"},
	models.CatalogHabilidades:           {"Música", "Deporte", "Cocina", "Artesanía", "Liderazgo comunitario"},
	models.CatalogDestrezas:             {"Carpintería", "Costura", "Mecánica", "Electricidad", "Sistemas"},
	models.CatalogTiposIdentificacion:   {"Cédula de Ciudadanía", "Cédula de Extranjería", "Tarjeta de Identidad", "Registro Civil", "Pasaporte"},
}
