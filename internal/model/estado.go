package model

// Lifecycle states shared by every catalog entity. Rows are never
// physically deleted; deactivation flips this flag.
const (
	EstadoActivo   = "activo"
	EstadoInactivo = "inactivo"
)
