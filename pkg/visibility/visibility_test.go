package visibility

import (
	"testing"

	"github.com/casadefe/iglesia-backend/pkg/enums"
	"github.com/casadefe/iglesia-backend/pkg/errors"
	"github.com/google/uuid"
)

func TestScopeFor(t *testing.T) {
	adminID := uuid.New()
	userID := uuid.New()

	t.Run("admin unrestricted", func(t *testing.T) {
		scope := ScopeFor(Actor{UserID: adminID, Rol: enums.RolAdmin})
		if scope.Restricted {
			t.Fatal("expected unrestricted scope for admin")
		}
	})
	t.Run("contador restricted to own rows", func(t *testing.T) {
		scope := ScopeFor(Actor{UserID: userID, Rol: enums.RolContador})
		if !scope.Restricted {
			t.Fatal("expected restricted scope for contador")
		}
		if scope.OwnerID != userID {
			t.Fatalf("expected owner %s, got %s", userID, scope.OwnerID)
		}
	})
	t.Run("usuario restricted to own rows", func(t *testing.T) {
		scope := ScopeFor(Actor{UserID: userID, Rol: enums.RolUsuario})
		if !scope.Restricted || scope.OwnerID != userID {
			t.Fatalf("expected restricted scope owned by %s", userID)
		}
	})
}

func TestEnsureCanAccess(t *testing.T) {
	ownerID := uuid.New()
	otherID := uuid.New()

	t.Run("admin can access any record", func(t *testing.T) {
		err := EnsureCanAccess(Actor{UserID: otherID, Rol: enums.RolAdmin}, ownerID, "persona")
		if err != nil {
			t.Fatalf("expected access, got %v", err)
		}
	})
	t.Run("owner can access own record", func(t *testing.T) {
		err := EnsureCanAccess(Actor{UserID: ownerID, Rol: enums.RolUsuario}, ownerID, "persona")
		if err != nil {
			t.Fatalf("expected access, got %v", err)
		}
	})
	t.Run("denial reads as not found", func(t *testing.T) {
		err := EnsureCanAccess(Actor{UserID: otherID, Rol: enums.RolUsuario}, ownerID, "persona")
		if err == nil {
			t.Fatal("expected error")
		}
		if errors.As(err).Code() != errors.CodeNotFound {
			t.Fatalf("expected not found code, got %s", errors.As(err).Code())
		}
	})
}
