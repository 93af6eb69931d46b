// Package roles defines the capability-check collaborator consumed by the
// ledger. Role administration itself is out of scope for the ledger core;
// the ledger only ever asks "does principal P hold role R" at the top of a
// mutating operation.
package roles

// Role identifiers recognized by the ledger.
const (
	// Admin may perform every administrative mutation, including granting
	// further roles on implementations that support it.
	Admin = "admin"
	// Signer may authorize claims by signature.
	Signer = "signer"
)

// Authority answers capability checks for principals.
type Authority interface {
	// HasRole reports whether principal holds role.
	HasRole(role, principal string) bool
}

// Table is an in-memory Authority with admin-gated grants. The zero value is
// unusable; construct with NewTable, which seeds the initial admin.
type Table struct {
	grants map[string]map[string]bool // role -> principal -> held
}

// NewTable returns a Table with initialAdmin holding the Admin role.
func NewTable(initialAdmin string) (*Table, error) {
	if initialAdmin == "" {
		return nil, ErrEmptyPrincipal
	}
	t := &Table{grants: map[string]map[string]bool{
		Admin: {initialAdmin: true},
	}}
	return t, nil
}

// HasRole reports whether principal holds role.
func (t *Table) HasRole(role, principal string) bool {
	return t.grants[role][principal]
}

// Grant gives principal the role. The granter must hold Admin.
func (t *Table) Grant(granter, role, principal string) error {
	if principal == "" {
		return ErrEmptyPrincipal
	}
	if !t.HasRole(Admin, granter) {
		return ErrUnauthorized
	}
	if t.grants[role] == nil {
		t.grants[role] = make(map[string]bool)
	}
	t.grants[role][principal] = true
	return nil
}

// Revoke removes the role from principal. The revoker must hold Admin.
func (t *Table) Revoke(revoker, role, principal string) error {
	if !t.HasRole(Admin, revoker) {
		return ErrUnauthorized
	}
	delete(t.grants[role], principal)
	return nil
}

// MockAuthority is a test double for Authority. The function field must be
// set before HasRole is called.
type MockAuthority struct {
	HasRoleFn func(role, principal string) bool
}

func (m *MockAuthority) HasRole(role, principal string) bool {
	return m.HasRoleFn(role, principal)
}
