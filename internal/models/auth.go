package models

// TokenResponse is the client credentials grant response of the identity provider.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// KeycloakConfig identifies this service as an M2M client of the realm.
type KeycloakConfig struct {
	KeycloakURL   string
	KeycloakRealm string
	ClientID      string
	ClientSecret  string
}

// OwnershipResponse is accepted from event services that wrap the boolean.
type OwnershipResponse struct {
	IsOwner bool `json:"isOwner"`
}
