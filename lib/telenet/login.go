package telenet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

const (
	report_login_probe       = "login.probe"
	report_login_authorize   = "login.authorize"
	report_login_credentials = "login.credentials"
	report_login_userdetails = "login.userdetails"
)

const idTokenClaims = `{"id_token":{"http://telenet.be/claims/roles":null,"http://telenet.be/claims/licenses":null}}`

// Login authenticates with the username and password given at construction and returns
// the user details. When the session is already valid the identity record is returned
// as-is without logging in again.
func (c *Client) Login(ctx context.Context) (UserDetails, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	details, err := c.login(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		return nil, err
	}
	return details, nil
}

func (c *Client) userDetailsURL() string {
	return c.env.OcapiOAuth + "/userdetails"
}

func (c *Client) login(ctx context.Context) (UserDetails, error) {
	c.tel.ReportDebug("login start")

	res, err := c.session.request(ctx, c.userDetailsURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("probe userdetails: %w", err)
	}
	if res.StatusCode() == http.StatusOK {
		var details UserDetails
		err = json.Unmarshal(res.Body(), &details)
		if err != nil {
			c.tel.ReportBroken(report_login_probe, err)
			return nil, &ServiceError{
				StatusCode: res.StatusCode(),
				URL:        finalURL(res),
				Message:    fmt.Sprintf("malformed userdetails: %s", err),
			}
		}
		c.storeUserDetails(details)
		return details, nil
	}
	if res.StatusCode() != http.StatusUnauthorized && res.StatusCode() != http.StatusForbidden {
		err := &ServiceError{StatusCode: res.StatusCode(), URL: finalURL(res), Message: "error while authenticating"}
		c.tel.ReportBroken(report_login_probe, err)
		return nil, err
	}

	tokens := strings.SplitN(res.String(), ",", 3)
	if len(tokens) != 2 {
		err := &ServiceError{
			StatusCode: res.StatusCode(),
			URL:        finalURL(res),
			Message:    "not returning the state and nonce tokens",
		}
		c.tel.ReportBroken(report_login_probe, err)
		return nil, err
	}
	state, nonce := tokens[0], tokens[1]

	res, err = c.session.request(ctx, c.authorizeURL(state, nonce), nil)
	if err != nil {
		return nil, fmt.Errorf("authorize: %w", err)
	}
	if res.StatusCode() != http.StatusOK || !strings.Contains(finalURL(res), "openid/login") {
		err := &ServiceError{StatusCode: res.StatusCode(), URL: finalURL(res), Message: res.String()}
		c.tel.ReportBroken(report_login_authorize, err)
		return nil, err
	}

	res, err = c.session.request(ctx, c.env.OpenID+"/login.do", map[string]string{
		"j_username": c.username,
		"j_password": c.password,
		"rememberme": "true",
	})
	if err != nil {
		return nil, fmt.Errorf("submit credentials: %w", err)
	}
	if strings.Contains(finalURL(res), "authentication_error") {
		err := &BadCredentialsError{Message: loginErrorMessage(res)}
		c.tel.ReportWarning(report_login_credentials, err)
		return nil, err
	}

	res, err = c.session.request(ctx, c.userDetailsURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch userdetails: %w", err)
	}
	var details UserDetails
	err = json.Unmarshal(res.Body(), &details)
	if err != nil || !Record(details).Has("customer_number") {
		err := &BadCredentialsError{Message: fmt.Sprintf("HTTP %d Missing customer number", res.StatusCode())}
		c.tel.ReportBroken(report_login_userdetails, err)
		return nil, err
	}

	c.storeUserDetails(details)
	return details, nil
}

func (c *Client) authorizeURL(state, nonce string) string {
	query := url.Values{}
	query.Set("client_id", "ocapi")
	query.Set("response_type", "code")
	query.Set("claims", idTokenClaims)
	query.Set("lang", "nl")
	query.Set("state", state)
	query.Set("nonce", nonce)
	query.Set("prompt", "login")
	return c.env.OpenID + "/oauth/authorize?" + query.Encode()
}

// storeUserDetails keeps a copy of the identity record with the scopes moved onto the
// session, the backend follows from the record so it is selected here as well.
func (c *Client) storeUserDetails(details UserDetails) {
	record := Record(details)
	c.session.scopes = nil
	if record.Has("scopes") {
		c.session.scopes = parseScopes(record["scopes"])
		record = record.Without("scopes")
	}
	c.session.userDetails = UserDetails(record)

	b, err := c.selectBackend(c.session.userDetails.System())
	if err != nil {
		c.tel.ReportWarning("login.backend", err, c.session.userDetails.System())
	}
	c.backend = b
}

func parseScopes(raw any) []string {
	var out []string
	switch v := raw.(type) {
	case []any:
		for _, s := range v {
			if str, ok := s.(string); ok {
				out = append(out, str)
			}
		}
	case string:
		for _, s := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' }) {
			out = append(out, s)
		}
	}
	return out
}

// loginErrorMessage extracts the error shown on the login page, falling back to the raw body.
func loginErrorMessage(res *resty.Response) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err == nil {
		text := strings.TrimSpace(doc.Find(".error, .alert-danger, #error").First().Text())
		if text != "" {
			return text
		}
	}
	return res.String()
}
