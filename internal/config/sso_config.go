package config

// SsoConfig configures the optional OIDC single sign-on integration.
// SSO is disabled unless an issuer URL is configured.
type SsoConfig interface {
	GetSsoIssuerURL() string
	GetSsoClientID() string
	GetSsoClientSecret() string
	GetSsoRedirectURL() string
	GetSsoScopes() []string
}

type Sso struct{}

var _ SsoConfig = Sso{}

func (Sso) GetSsoIssuerURL() string {
	return GetEnv("SSO_ISSUER_URL", "")
}

func (Sso) GetSsoClientID() string {
	return GetEnv("SSO_CLIENT_ID", "")
}

func (Sso) GetSsoClientSecret() string {
	return GetEnv("SSO_CLIENT_SECRET", "")
}

func (Sso) GetSsoRedirectURL() string {
	return GetEnv("SSO_REDIRECT_URL", "http://localhost:8080/api/auth/sso/callback")
}

func (Sso) GetSsoScopes() []string {
	return []string{"openid", "profile", "email"}
}
