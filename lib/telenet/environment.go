package telenet

import (
	"net/url"
	"slices"
	"strings"
	"time"
)

const (
	DefaultLanguage = "en"
	DefaultTimeout  = 10 * time.Second

	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/111.0.0.0 Safari/537.36"

	xsrfCookie = "TOKEN-XSRF"
	xsrfHeader = "X-TOKEN-XSRF"
)

// Languages are the locales the product catalog carries names for.
var Languages = []string{"en", "nl", "fr"}

// Environment is the set of base urls of one deployment of the portal.
type Environment struct {
	Ocapi          string `json:"ocapi"`
	OcapiPublic    string `json:"ocapi_public"`
	OcapiPublicAPI string `json:"ocapi_public_api"`
	OcapiOAuth     string `json:"ocapi_oauth"`
	OpenID         string `json:"openid"`
	Referer        string `json:"referer"`
	AltReferer     string `json:"x_alt_referer"`
}

var DefaultEnvironment = Environment{
	Ocapi:          "https://api.prd.telenet.be/ocapi",
	OcapiPublic:    "https://api.prd.telenet.be/ocapi/public",
	OcapiPublicAPI: "https://api.prd.telenet.be/ocapi/public/api",
	OcapiOAuth:     "https://api.prd.telenet.be/ocapi/oauth",
	OpenID:         "https://login.prd.telenet.be/openid",
	Referer:        "https://www2.telenet.be/residential/nl/mijn-telenet",
	AltReferer:     "https://www2.telenet.be/",
}

// DefaultHeaders are the headers every request carries unless overridden.
func DefaultHeaders(env Environment) map[string]string {
	return map[string]string{
		"User-Agent":    UserAgent,
		"Referer":       env.Referer,
		"x-alt-referer": env.AltReferer,
	}
}

func (e Environment) urls() []string {
	return []string{
		e.Ocapi,
		e.OcapiPublic,
		e.OcapiPublicAPI,
		e.OcapiOAuth,
		e.OpenID,
		e.Referer,
		e.AltReferer,
	}
}

// hostnames returns every distinct hostname the environment points at, these are
// the only hosts the login redirects are allowed to go through.
func (e Environment) hostnames() []string {
	var hosts []string
	for _, raw := range e.urls() {
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Hostname() == "" {
			continue
		}
		host := strings.ToLower(parsed.Hostname())
		if !slices.Contains(hosts, host) {
			hosts = append(hosts, host)
		}
	}
	return hosts
}

func normalizeLanguage(language string) string {
	language = strings.ToLower(strings.TrimSpace(language))
	if slices.Contains(Languages, language) {
		return language
	}
	return DefaultLanguage
}
