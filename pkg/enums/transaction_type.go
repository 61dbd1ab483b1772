package enums

import "fmt"

// TransactionType distinguishes income from expense movements. Categorias
// share the same axis, so the type doubles as the categoria scope.
type TransactionType string

const (
	TransactionTypeIngreso TransactionType = "ingreso"
	TransactionTypeEgreso  TransactionType = "egreso"
)

var validTransactionTypes = []TransactionType{
	TransactionTypeIngreso,
	TransactionTypeEgreso,
}

// String implements fmt.Stringer.
func (t TransactionType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TransactionType.
func (t TransactionType) IsValid() bool {
	for _, candidate := range validTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// NumberPrefix returns the sequence prefix used for human-readable numbers.
func (t TransactionType) NumberPrefix() string {
	if t == TransactionTypeEgreso {
		return "EGR"
	}
	return "ING"
}

// ParseTransactionType converts raw input into a TransactionType.
func ParseTransactionType(value string) (TransactionType, error) {
	for _, candidate := range validTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction type %q", value)
}
