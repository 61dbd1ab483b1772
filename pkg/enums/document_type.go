package enums

import "fmt"

// DocumentType enumerates the identity documents accepted for personas.
type DocumentType string

const (
	DocumentTypeCC  DocumentType = "CC"  // cédula de ciudadanía
	DocumentTypeTI  DocumentType = "TI"  // tarjeta de identidad
	DocumentTypeCE  DocumentType = "CE"  // cédula de extranjería
	DocumentTypePAS DocumentType = "PAS" // pasaporte
	DocumentTypeRC  DocumentType = "RC"  // registro civil
	DocumentTypeNIT DocumentType = "NIT"
)

var validDocumentTypes = []DocumentType{
	DocumentTypeCC,
	DocumentTypeTI,
	DocumentTypeCE,
	DocumentTypePAS,
	DocumentTypeRC,
	DocumentTypeNIT,
}

// String implements fmt.Stringer.
func (d DocumentType) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DocumentType.
func (d DocumentType) IsValid() bool {
	for _, candidate := range validDocumentTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDocumentType converts raw input into a DocumentType.
func ParseDocumentType(value string) (DocumentType, error) {
	for _, candidate := range validDocumentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid document type %q", value)
}
