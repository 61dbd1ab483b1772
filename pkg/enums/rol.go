package enums

import "fmt"

// Rol represents a system-level permissions role.
type Rol string

const (
	RolAdmin    Rol = "admin"
	RolContador Rol = "contador"
	RolUsuario  Rol = "usuario"
)

var validRoles = []Rol{
	RolAdmin,
	RolContador,
	RolUsuario,
}

// String implements fmt.Stringer.
func (r Rol) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Rol.
func (r Rol) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRol converts raw input into a Rol.
func ParseRol(value string) (Rol, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rol %q", value)
}
