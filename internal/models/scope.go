package models

// TenantScope is the (owner, organization) pair every task and meeting
// query is filtered by.
type TenantScope struct {
	OwnerID        uint64
	OrganizationID uint64
}
