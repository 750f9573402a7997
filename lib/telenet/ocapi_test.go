package telenet

import (
	"context"
	"net/url"
	"telenetapi/internal/telemetry"
	"testing"

	"github.com/stretchr/testify/require"
)

func loggedInClient(t *testing.T, portal *fakePortal, tel *telemetry.TestAPI, details map[string]any) *Client {
	t.Helper()
	portal.loggedIn = true
	portal.details = details
	client := portal.client(tel, testNow)
	_, err := client.Login(context.Background())
	require.NoError(t, err)
	return client
}

func TestOCAPIScopeGate(t *testing.T) {
	portal := newFakePortal(t)
	portal.legacy["a"] = map[string]any{"hello": "world"}
	tel := &telemetry.TestAPI{}
	client := loggedInClient(t, portal, tel, map[string]any{
		"customer_number": "1",
		"bss_system":      SystemLegacy,
		"scopes":          []any{"a"},
	})

	before := len(portal.recorded())
	result, ok, err := client.OCAPI(context.Background(), Call{Service: "a,b"})
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, result)
	require.Len(t, portal.recorded(), before)
	require.Len(t, tel.Broken("ocapi.scope"), 1)

	res, err := client.OCAPIResponse(context.Background(), Call{Service: "b"})
	require.NoError(t, err)
	require.Nil(t, res)
	require.Len(t, portal.recorded(), before)

	result, ok, err = client.OCAPI(context.Background(), Call{Service: "a"})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, Record{"hello": "world"}, result)
	require.Equal(t, "p=a", portal.recorded()[before].Query)
}

func TestOCAPINextGen(t *testing.T) {
	portal := newFakePortal(t)
	portal.nextgen["mobile-service/v2/simdetails"] = []any{
		map[string]any{"msisdn": "0470000000"},
	}
	client := loggedInClient(t, portal, &telemetry.TestAPI{}, map[string]any{
		"customer_number": "1",
		"bss_system":      SystemNextGen,
	})

	list, ok, err := client.OCAPIList(context.Background(), Call{
		Service: "mobile",
		Method:  "simdetails",
		Version: 2,
		Params:  url.Values{"lang": {"en"}},
	})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []Record{{"msisdn": "0470000000"}}, list)

	last := portal.recorded()[len(portal.recorded())-1]
	require.Equal(t, "/ocapi/public/api/mobile-service/v2/simdetails", last.Path)
	require.Equal(t, "lang=en", last.Query)

	res, err := client.OCAPIResponse(context.Background(), Call{Service: "billing", Method: "accounts"})
	require.NoError(t, err)
	require.Equal(t, 404, res.StatusCode())
	require.Contains(t, res.Request.URL, "/billing-service/v1/accounts")
}

func TestOCAPIMalformedJSON(t *testing.T) {
	portal := newFakePortal(t)
	portal.legacy["a"] = "not an object"
	client := loggedInClient(t, portal, &telemetry.TestAPI{}, map[string]any{
		"customer_number": "1",
		"bss_system":      SystemLegacy,
		"scopes":          []any{"a"},
	})

	_, ok, err := client.OCAPI(context.Background(), Call{Service: "a"})
	require.False(t, ok)
	var serviceErr *ServiceError
	require.ErrorAs(t, err, &serviceErr)
	require.Equal(t, 200, serviceErr.StatusCode)
}

func TestOCAPIUnknownBackend(t *testing.T) {
	portal := newFakePortal(t)
	client := loggedInClient(t, portal, &telemetry.TestAPI{}, map[string]any{
		"customer_number": "1",
		"bss_system":      "SOMETHING_ELSE",
	})

	before := len(portal.recorded())
	_, _, err := client.OCAPI(context.Background(), Call{Service: "a"})
	require.ErrorIs(t, err, ErrUnknownBackend)

	_, err = client.GetData(context.Background())
	require.ErrorIs(t, err, ErrUnknownBackend)
	require.Len(t, portal.recorded(), before)
}

func TestNotAuthenticated(t *testing.T) {
	portal := newFakePortal(t)
	client := portal.client(&telemetry.TestAPI{}, testNow)

	_, _, err := client.OCAPI(context.Background(), Call{Service: "a"})
	require.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = client.GetData(context.Background())
	require.ErrorIs(t, err, ErrNotAuthenticated)
	require.Empty(t, portal.recorded())
}

func TestProductSpecCache(t *testing.T) {
	portal := newFakePortal(t)
	portal.catalogs["internet-spec"] = internetCatalog
	client := portal.client(&telemetry.TestAPI{}, testNow)

	first, err := client.productCatalog(context.Background(), portal.srv.URL+"/catalog/internet-spec")
	require.NoError(t, err)
	second, err := client.productCatalog(context.Background(), portal.srv.URL+"/catalog/internet-spec")
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, 1, portal.count("/catalog/internet-spec"))

	_, err = client.productCatalog(context.Background(), portal.srv.URL+"/catalog/missing")
	var serviceErr *ServiceError
	require.ErrorAs(t, err, &serviceErr)
	require.Equal(t, 404, serviceErr.StatusCode)
}

func TestProductSpecs(t *testing.T) {
	portal := newFakePortal(t)
	portal.catalogs["bundle-spec"] = bundleCatalog
	client := portal.client(&telemetry.TestAPI{}, testNow)

	specs, err := client.productSpecs(context.Background(), portal.srv.URL+"/catalog/bundle-spec", false)
	require.NoError(t, err)
	require.Equal(t, ProductSpecs{
		ProductType: "bundle",
		Price:       map[string]any{"currency": "EUR", "value": "79.50"},
		PriceType:   "monthly",
		Name:        "Whop",
	}, specs)

	child, err := client.productSpecs(context.Background(), portal.srv.URL+"/catalog/bundle-spec", true)
	require.NoError(t, err)
	require.Nil(t, child.Price)
	require.Nil(t, child.PriceType)
	require.Equal(t, 1, portal.count("/catalog/bundle-spec"))
}
