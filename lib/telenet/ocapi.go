package telenet

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	report_ocapi_scope  = "ocapi.scope"
	report_ocapi_decode = "ocapi.decode"
)

// Call describes one OCAPI request independently of the backend that serves it.
//
// On the legacy backend Service is a comma separated list of scopes, Method, Version
// and Params are ignored. On the next-gen backend the request goes to
// <service>-service/v<version>/<method>?<params>.
type Call struct {
	Service string
	Method  string
	// Version defaults to 1.
	Version int
	Params  url.Values
}

func (call Call) version() int {
	if call.Version <= 0 {
		return 1
	}
	return call.Version
}

func (call Call) scopes() []string {
	return strings.Split(call.Service, ",")
}

// OCAPI performs a call and decodes the JSON object it answers with. ok is false when the
// portal answered with anything but 200 or when a legacy scope is missing.
func (c *Client) OCAPI(ctx context.Context, call Call) (result Record, ok bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ok, err = c.ocapiDecode(ctx, call, &result)
	return result, ok, err
}

// OCAPIList is OCAPI for endpoints that answer with a JSON array.
func (c *Client) OCAPIList(ctx context.Context, call Call) (result []Record, ok bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ok, err = c.ocapiDecode(ctx, call, &result)
	return result, ok, err
}

// OCAPIResponse performs a call and returns the raw response, for callers interested
// in the status rather than the content. A nil response with a nil error means a
// legacy scope was missing and no request was made.
func (c *Client) OCAPIResponse(ctx context.Context, call Call) (*resty.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ocapi(ctx, call)
}

func (c *Client) ocapi(ctx context.Context, call Call) (*resty.Response, error) {
	ctx, span := tracer.Start(ctx, "client:OCAPI")
	defer span.End()
	span.SetAttributes(
		attribute.String("ocapi.service", call.Service),
		attribute.String("ocapi.method", call.Method),
	)

	if !c.session.authenticated() {
		return nil, ErrNotAuthenticated
	}
	if c.backend == nil {
		err := fmt.Errorf("%w: %q", ErrUnknownBackend, c.session.userDetails.System())
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	target, allowed := c.backend.endpoint(call)
	if !allowed {
		span.SetStatus(codes.Error, "scope not granted")
		return nil, nil
	}

	res, err := c.session.request(ctx, target, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, err
	}
	return res, nil
}

func (c *Client) ocapiDecode(ctx context.Context, call Call, out any) (bool, error) {
	res, err := c.ocapi(ctx, call)
	if err != nil {
		return false, err
	}
	if res == nil || res.StatusCode() != http.StatusOK {
		return false, nil
	}
	err = json.Unmarshal(res.Body(), out)
	if err != nil {
		c.tel.ReportBroken(report_ocapi_decode, err, call.Service, call.Method)
		return false, &ServiceError{
			StatusCode: res.StatusCode(),
			URL:        finalURL(res),
			Message:    fmt.Sprintf("malformed json: %s", err),
		}
	}
	return true, nil
}
