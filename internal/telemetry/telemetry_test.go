package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestScopedAPI(t *testing.T) {
	inner := &TestAPI{}
	scoped := NewScopedAPI("telenet", inner)

	scoped.ReportBroken("login.probe", errors.New("boom"))
	scoped.ReportWarning("legacy.tv", "unavailable")
	scoped.ReportCount("get-data.products", 3)

	broken := inner.Broken("login.probe")
	require.Len(t, broken, 1)
	require.Equal(t, "telenet: login.probe", broken[0].ID)
	require.Empty(t, inner.Broken("legacy.tv"))
}

func TestInstrumentResty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	tel := &TestAPI{}
	client := resty.New()
	InstrumentResty(client, "test", tel)

	res, err := client.R().Get(srv.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusTeapot, res.StatusCode())
	require.Empty(t, tel.Broken(""))

	srv.Close()
	_, err = client.R().Get(srv.URL)
	require.Error(t, err)
	require.Len(t, tel.Broken(report_resty_response), 1)
}

func TestInstrumentRestyEarlierHookFails(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	ctx, caller := provider.Tracer("test").Start(context.Background(), "caller")

	tel := &TestAPI{}
	client := resty.New()
	client.OnBeforeRequest(func(*resty.Client, *resty.Request) error {
		return errors.New("rate limited")
	})
	InstrumentResty(client, "test", tel)

	_, err := client.R().SetContext(ctx).Get("http://127.0.0.1:1/")
	require.ErrorContains(t, err, "rate limited")
	require.Len(t, tel.Broken(report_resty_request), 1)
	require.Empty(t, tel.Broken(report_resty_response))

	// the span of the caller is left alone
	require.Empty(t, recorder.Ended())
	caller.End()
	ended := recorder.Ended()
	require.Len(t, ended, 1)
	require.Equal(t, "caller", ended[0].Name())
}
