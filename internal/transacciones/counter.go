package transacciones

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/casadefe/iglesia-backend/pkg/enums"
)

// nextNumberSQL bumps the per-tipo counter atomically. Running it inside the
// same transaction as the insert guarantees two concurrent creates never see
// the same value, and a failed insert rolls the bump back.
const nextNumberSQL = `
INSERT INTO transaction_counters (tipo, ultimo)
VALUES (?, 1)
ON CONFLICT (tipo) DO UPDATE SET ultimo = transaction_counters.ultimo + 1
RETURNING ultimo`

func nextNumber(tx *gorm.DB, tipo enums.TransactionType) (int64, error) {
	var ultimo int64
	if err := tx.Raw(nextNumberSQL, tipo).Scan(&ultimo).Error; err != nil {
		return 0, fmt.Errorf("bumping %s counter: %w", tipo, err)
	}
	return ultimo, nil
}

// formatNumero renders the human-readable sequence number. The suffix is
// padded to three digits but keeps growing past 999 (ING1000, ING1001, ...).
func formatNumero(tipo enums.TransactionType, n int64) string {
	return fmt.Sprintf("%s%03d", tipo.NumberPrefix(), n)
}
