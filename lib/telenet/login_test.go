package telenet

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"telenetapi/internal/telemetry"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, time.May, 16, 0, 0, 0, 0, time.FixedZone("CEST", 2*60*60))

func TestLoginExistingSession(t *testing.T) {
	portal := newFakePortal(t)
	portal.loggedIn = true
	portal.details = map[string]any{
		"customer_number": "123456",
		"bss_system":      SystemNextGen,
		"scopes":          []any{"a"},
	}
	client := portal.client(&telemetry.TestAPI{}, testNow)

	details, err := client.Login(context.Background())
	require.NoError(t, err)
	require.Equal(t, UserDetails{
		"customer_number": "123456",
		"bss_system":      SystemNextGen,
		"scopes":          []any{"a"},
	}, details)
	require.Len(t, portal.recorded(), 1)

	// the stored copy no longer carries the scopes
	require.Equal(t, UserDetails{
		"customer_number": "123456",
		"bss_system":      SystemNextGen,
	}, client.UserDetails())
	require.Equal(t, []string{"a"}, client.Scopes())
}

func TestLoginFlow(t *testing.T) {
	portal := newFakePortal(t)
	client := portal.client(&telemetry.TestAPI{}, testNow)

	details, err := client.Login(context.Background())
	require.NoError(t, err)
	require.Equal(t, "123456", details.CustomerNumber())
	require.Equal(t, SystemLegacy, details.System())
	require.Equal(t, []string{"contactdetails", "accounts"}, client.Scopes())

	var paths []string
	for _, r := range portal.recorded() {
		paths = append(paths, r.Method+" "+r.Path)
	}
	require.Equal(t, []string{
		"GET /ocapi/oauth/userdetails",
		"GET /openid/oauth/authorize",
		"GET /openid/login",
		"POST /openid/login.do",
		"GET /residential",
		"GET /ocapi/oauth/userdetails",
	}, paths)

	authorize, err := url.ParseQuery(portal.recorded()[1].Query)
	require.NoError(t, err)
	require.Equal(t, "state-abc", authorize.Get("state"))
	require.Equal(t, "nonce-def", authorize.Get("nonce"))
	require.Equal(t, "ocapi", authorize.Get("client_id"))
	require.Equal(t, "code", authorize.Get("response_type"))
	require.Equal(t, "login", authorize.Get("prompt"))
	require.JSONEq(t, idTokenClaims, authorize.Get("claims"))

	// a second login finds the session valid
	_, err = client.Login(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, portal.count("/ocapi/oauth/userdetails"))
}

func TestLoginBadCredentials(t *testing.T) {
	portal := newFakePortal(t)
	portal.password = "something-else"
	client := portal.client(&telemetry.TestAPI{}, testNow)

	_, err := client.Login(context.Background())
	require.ErrorIs(t, err, ErrBadCredentials)

	var credentialsErr *BadCredentialsError
	require.True(t, errors.As(err, &credentialsErr))
	require.Equal(t, "Invalid username or password", credentialsErr.Message)
	require.Nil(t, client.UserDetails())
}

func TestLoginMissingCustomerNumber(t *testing.T) {
	portal := newFakePortal(t)
	portal.details = map[string]any{"bss_system": SystemLegacy}
	client := portal.client(&telemetry.TestAPI{}, testNow)

	_, err := client.Login(context.Background())
	require.ErrorIs(t, err, ErrBadCredentials)
	require.Contains(t, err.Error(), "Missing customer number")
}

func TestLoginProbeFailures(t *testing.T) {
	cases := []struct {
		name   string
		code   int
		body   string
		target error
	}{
		{name: "three tokens", code: http.StatusUnauthorized, body: "a,b,c"},
		{name: "one token", code: http.StatusUnauthorized, body: "garbage"},
		{name: "server error", code: http.StatusInternalServerError, body: "oops"},
		{name: "bad gateway", code: http.StatusBadGateway, target: ErrBadGateway},
		{name: "gateway timeout", code: http.StatusGatewayTimeout, target: ErrGatewayTimeout},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			portal := newFakePortal(t)
			portal.probeCode = tc.code
			portal.probeBody = tc.body
			tel := &telemetry.TestAPI{}
			client := portal.client(tel, testNow)

			_, err := client.Login(context.Background())
			require.Error(t, err)

			var serviceErr *ServiceError
			require.True(t, errors.As(err, &serviceErr))
			require.Equal(t, tc.code, serviceErr.StatusCode)
			require.Contains(t, serviceErr.URL, "/ocapi/oauth/userdetails")
			if tc.target != nil {
				require.ErrorIs(t, err, tc.target)
			}
			require.Len(t, portal.recorded(), 1)
			require.NotEmpty(t, tel.Broken("login.probe"))
		})
	}
}

func TestLoginForbiddenProbe(t *testing.T) {
	t.Run("completes the login", func(t *testing.T) {
		portal := newFakePortal(t)
		portal.probeCode = http.StatusForbidden
		portal.probeBody = "state-abc,nonce-def"
		client := portal.client(&telemetry.TestAPI{}, testNow)

		details, err := client.Login(context.Background())
		require.NoError(t, err)
		require.Equal(t, "123456", details.CustomerNumber())
		require.Equal(t, 2, portal.count("/ocapi/oauth/userdetails"))

		authorize, err := url.ParseQuery(portal.recorded()[1].Query)
		require.NoError(t, err)
		require.Equal(t, "state-abc", authorize.Get("state"))
		require.Equal(t, "nonce-def", authorize.Get("nonce"))
	})

	t.Run("malformed tokens", func(t *testing.T) {
		portal := newFakePortal(t)
		portal.probeCode = http.StatusForbidden
		portal.probeBody = "12,5,0"
		tel := &telemetry.TestAPI{}
		client := portal.client(tel, testNow)

		_, err := client.Login(context.Background())
		var serviceErr *ServiceError
		require.ErrorAs(t, err, &serviceErr)
		require.Equal(t, http.StatusForbidden, serviceErr.StatusCode)
		require.Len(t, portal.recorded(), 1)
		require.NotEmpty(t, tel.Broken("login.probe"))
	})
}

func TestLoginRedirectOffPortal(t *testing.T) {
	portal := newFakePortal(t)
	portal.authorizeTo = "https://phishing.example.com/openid/login"
	tel := &telemetry.TestAPI{}
	client := portal.client(tel, testNow)

	_, err := client.Login(context.Background())
	var serviceErr *ServiceError
	require.ErrorAs(t, err, &serviceErr)
	require.Equal(t, http.StatusFound, serviceErr.StatusCode)
	require.Equal(t, "https://phishing.example.com/openid/login", serviceErr.URL)
	require.Nil(t, client.UserDetails())

	// the refused location is never requested
	require.Equal(t, 0, portal.count("/openid/login"))
}

func TestTokenFollowsEveryResponse(t *testing.T) {
	portal := newFakePortal(t)
	portal.loggedIn = true
	portal.details = map[string]any{
		"customer_number": "123456",
		"bss_system":      SystemNextGen,
	}
	client := portal.client(&telemetry.TestAPI{}, testNow)

	_, err := client.Login(context.Background())
	require.NoError(t, err)

	// the first call answers 404, its token must still be used by the next one
	_, ok, err := client.OCAPI(context.Background(), Call{Service: "customer", Method: "appointments"})
	require.NoError(t, err)
	require.False(t, ok)
	_, ok, err = client.OCAPI(context.Background(), Call{Service: "customer", Method: "appointments"})
	require.NoError(t, err)
	require.False(t, ok)

	requests := portal.recorded()
	require.Len(t, requests, 3)
	require.Equal(t, "", requests[0].Token)
	require.Equal(t, "tok-1", requests[1].Token)
	require.Equal(t, "tok-2", requests[2].Token)
}
