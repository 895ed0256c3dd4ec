package api

type OAuth2Provider string

const ProviderGoogle OAuth2Provider = "google"

type BasicAuthentication struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type OAuth2Authentication struct {
	Provider          OAuth2Provider `json:"provider"`
	AuthorizationCode string         `json:"authorization_code"`
}

// AuthenticateUserRequest carries exactly one credential kind. It encodes
// as {"basic": {...}} or {"oauth2": {...}}.
type AuthenticateUserRequest struct {
	Basic  *BasicAuthentication  `json:"basic,omitempty"`
	OAuth2 *OAuth2Authentication `json:"oauth2,omitempty"`
}

func BasicRequest(username, password string) AuthenticateUserRequest {
	return AuthenticateUserRequest{
		Basic: &BasicAuthentication{Username: username, Password: password},
	}
}

func OAuth2Request(provider OAuth2Provider, code string) AuthenticateUserRequest {
	return AuthenticateUserRequest{
		OAuth2: &OAuth2Authentication{Provider: provider, AuthorizationCode: code},
	}
}

type AuthenticateUserResponse struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token"`
}

type CreateUserRequest struct {
	Username string               `json:"username"`
	OAuth2   OAuth2Authentication `json:"oauth2"`
}
