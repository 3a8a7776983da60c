package auth

import "strings"

type AccountType string

const (
	AccountUser         AccountType = "user"
	AccountOrganization AccountType = "organization"
)

// NormalizeAccountType maps free-form input to a known account type,
// defaulting to a regular user account.
func NormalizeAccountType(value string) AccountType {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(AccountOrganization):
		return AccountOrganization
	default:
		return AccountUser
	}
}

// IsOrganization reports whether the claims identify an organization
// account. Organization-only operations (create/edit/delete events) check
// this before touching the store.
func IsOrganization(accountType string) bool {
	return NormalizeAccountType(accountType) == AccountOrganization
}
