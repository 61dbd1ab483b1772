package visibility

import (
	"github.com/casadefe/iglesia-backend/pkg/enums"
	pkgerrors "github.com/casadefe/iglesia-backend/pkg/errors"
	"github.com/google/uuid"
)

// Actor identifies the authenticated caller for ownership checks.
type Actor struct {
	UserID uuid.UUID
	Rol    enums.Rol
}

// Scope describes the row filter a repository must apply for an actor.
// When Restricted is false the actor sees every row; otherwise queries
// must be limited to rows owned by OwnerID.
type Scope struct {
	Restricted bool
	OwnerID    uuid.UUID
}

// ScopeFor returns the query scope for the actor. Administrators see all
// records; every other role is limited to its own.
func ScopeFor(actor Actor) Scope {
	if actor.Rol == enums.RolAdmin {
		return Scope{}
	}
	return Scope{Restricted: true, OwnerID: actor.UserID}
}

// CanAccess reports whether the actor may read or mutate a record owned
// by ownerID.
func CanAccess(actor Actor, ownerID uuid.UUID) bool {
	if actor.Rol == enums.RolAdmin {
		return true
	}
	return actor.UserID == ownerID
}

// EnsureCanAccess rejects access to records outside the actor's scope.
// The denial surfaces as a not-found so restricted rows never leak their
// existence to other users.
func EnsureCanAccess(actor Actor, ownerID uuid.UUID, resource string) error {
	if CanAccess(actor, ownerID) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, resource+" not found")
}
