package authz

import (
	"testing"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"

	"property-system/internal/domain"
	"property-system/internal/entities"
)

func makeWorld() (owner, tenant, reporter, stranger, admin *entities.User, providerUser *entities.User, property *entities.Property, provider *entities.Provider, ticket *entities.Ticket) {
	owner = &entities.User{ID: 1, Email: "dueno@example.com", Role: domain.RolePropietario}
	tenant = &entities.User{ID: 2, Email: "inquilino@example.com", Role: domain.RoleInquilino}
	reporter = tenant
	stranger = &entities.User{ID: 9, Email: "otro@example.com", Role: domain.RolePropietario}
	admin = &entities.User{ID: 100, Email: "admin@example.com", Role: domain.RoleAdmin}
	providerUser = &entities.User{ID: 50, Email: "plomero@example.com", Role: domain.RoleProveedor}

	property = &entities.Property{
		ID:       10,
		OwnerID:  owner.ID,
		TenantID: null.Uint64From(tenant.ID),
	}
	provider = &entities.Provider{ID: 5, UserID: null.Uint64From(providerUser.ID)}
	ticket = &entities.Ticket{
		ID:         77,
		PropertyID: property.ID,
		ReporterID: reporter.ID,
		ProviderID: null.Uint64From(provider.ID),
		Status:     domain.StatusAsignado,
	}
	return
}

func TestIsOwnerOrTenant(t *testing.T) {
	owner, tenant, _, stranger, _, _, property, _, _ := makeWorld()

	assert.True(t, IsOwnerOrTenant(owner, property))
	assert.True(t, IsOwnerOrTenant(tenant, property))
	assert.False(t, IsOwnerOrTenant(stranger, property))
	assert.False(t, IsOwnerOrTenant(nil, property))
	assert.False(t, IsOwnerOrTenant(owner, nil))
}

// El inquilino puede no tener cuenta vinculada: también empareja por el email
// guardado en la propiedad, sin importar mayúsculas.
func TestIsOwnerOrTenantByEmail(t *testing.T) {
	property := &entities.Property{
		ID:          10,
		OwnerID:     1,
		TenantEmail: null.StringFrom("Inquilino@Example.com"),
	}
	byEmail := &entities.User{ID: 42, Email: "inquilino@example.com", Role: domain.RoleInquilino}
	assert.True(t, IsOwnerOrTenant(byEmail, property))

	otherEmail := &entities.User{ID: 43, Email: "nadie@example.com", Role: domain.RoleInquilino}
	assert.False(t, IsOwnerOrTenant(otherEmail, property))
}

func TestAdminCanDoEverything(t *testing.T) {
	_, _, _, _, admin, _, property, provider, ticket := makeWorld()

	for _, cap := range []Capability{CapView, CapEdit, CapComment, CapApprove, CapAssign, CapForceStatus} {
		assert.True(t, CanActOnTicket(admin, ticket, property, provider, cap), "admin debería poder %s", cap)
	}
}

func TestAssignAndForceStatusAreAdminOnly(t *testing.T) {
	owner, tenant, _, _, _, providerUser, property, provider, ticket := makeWorld()

	for _, actor := range []*entities.User{owner, tenant, providerUser} {
		assert.False(t, CanActOnTicket(actor, ticket, property, provider, CapAssign))
		assert.False(t, CanActOnTicket(actor, ticket, property, provider, CapForceStatus))
	}
}

func TestViewAndComment(t *testing.T) {
	owner, tenant, _, stranger, _, providerUser, property, provider, ticket := makeWorld()

	assert.True(t, CanActOnTicket(owner, ticket, property, nil, CapView))
	assert.True(t, CanActOnTicket(tenant, ticket, property, nil, CapComment))
	// el proveedor asignado participa del ticket
	assert.True(t, CanActOnTicket(providerUser, ticket, property, provider, CapView))
	assert.True(t, CanActOnTicket(providerUser, ticket, property, provider, CapComment))

	assert.False(t, CanActOnTicket(stranger, ticket, property, nil, CapView))
	// un proveedor NO asignado tampoco ve el ticket
	otherProvider := &entities.Provider{ID: 6}
	assert.False(t, CanActOnTicket(providerUser, ticket, property, otherProvider, CapView))
}

func TestEditAndApprove(t *testing.T) {
	owner, tenant, _, stranger, _, providerUser, property, provider, ticket := makeWorld()

	assert.True(t, CanActOnTicket(owner, ticket, property, nil, CapEdit))
	assert.True(t, CanActOnTicket(tenant, ticket, property, nil, CapApprove))

	assert.False(t, CanActOnTicket(stranger, ticket, property, nil, CapEdit))
	// el proveedor asignado no califica su propio trabajo
	assert.False(t, CanActOnTicket(providerUser, ticket, property, provider, CapApprove))
	assert.False(t, CanActOnTicket(providerUser, ticket, property, provider, CapEdit))
}
