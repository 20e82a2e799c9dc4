package models

// IdentityProfile is the subset of the identity provider's user info used to sign users in
type IdentityProfile struct {
	Subject string
	Email   string
	Name    string
	Picture string
}
