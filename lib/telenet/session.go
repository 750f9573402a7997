package telenet

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"slices"
	"telenetapi/internal/telemetry"
	"telenetapi/lib/restyutil"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const (
	report_session_redirect = "session.redirect"
	report_session_token    = "session.token"
)

type sessionOptions struct {
	env              Environment
	headers          map[string]string
	timeout          time.Duration
	rateLimit        rate.Limit
	rateBurst        int
	cloudflareBypass bool
	dump             restyutil.Output
	tel              telemetry.API
}

// session holds the cookies and the rotating anti-forgery token, every exchange with the
// portal goes through request so the token of a response is applied before the next
// request is sent.
type session struct {
	http *resty.Client
	jar  http.CookieJar
	tel  telemetry.API

	// urls the token cookie may be scoped to
	tokenURLs []*url.URL
	token     string

	userDetails UserDetails
	scopes      []string
}

func newSession(opts sessionOptions) (*session, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetCookieJar(jar)
	client.SetHeaders(opts.headers)
	client.SetTimeout(opts.timeout)
	client.SetRedirectPolicy(portalRedirectPolicy(
		resty.FlexibleRedirectPolicy(10),
		resty.DomainCheckRedirectPolicy(opts.env.hostnames()...),
	))
	if opts.cloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	if opts.rateLimit > 0 {
		limiter := rate.NewLimiter(opts.rateLimit, max(opts.rateBurst, 1))
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}
	telemetry.InstrumentResty(client, "telenetapi.lib.telenet.http", opts.tel)
	restyutil.DumpMessages(client, opts.dump)

	s := &session{
		http: client,
		jar:  jar,
		tel:  opts.tel,
	}
	for _, raw := range opts.env.urls() {
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Host == "" {
			continue
		}
		s.tokenURLs = append(s.tokenURLs, parsed)
	}
	return s, nil
}

// request issues a GET, or a form POST when form is non-nil, and then refreshes the
// anti-forgery token whatever the outcome was.
func (s *session) request(ctx context.Context, target string, form map[string]string) (*resty.Response, error) {
	req := s.http.R().SetContext(ctx)

	var res *resty.Response
	var err error
	if form == nil {
		s.tel.ReportDebug("calling GET", target)
		res, err = req.Get(target)
	} else {
		s.tel.ReportDebug("calling POST", target)
		res, err = req.SetFormData(form).Post(target)
	}
	s.refreshToken(res)

	if errors.Is(err, errRedirectBlocked) {
		s.tel.ReportWarning(report_session_redirect, err, target)
		return res, blockedRedirectError(res, err)
	}
	return res, err
}

var errRedirectBlocked = errors.New("redirect blocked")

// portalRedirectPolicy applies the policies in order and marks their refusals with
// errRedirectBlocked.
func portalRedirectPolicy(policies ...resty.RedirectPolicy) resty.RedirectPolicy {
	return resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
		for _, p := range policies {
			err := p.Apply(req, via)
			if err != nil {
				return fmt.Errorf("%w: %w", errRedirectBlocked, err)
			}
		}
		return nil
	})
}

// blockedRedirectError is the portal sending the client somewhere it may not follow,
// URL is the refused location.
func blockedRedirectError(res *resty.Response, err error) *ServiceError {
	serviceErr := &ServiceError{URL: finalURL(res), Message: err.Error()}
	if res != nil {
		serviceErr.StatusCode = res.StatusCode()
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		serviceErr.URL = urlErr.URL
	}
	return serviceErr
}

func (s *session) lookupToken(res *resty.Response) string {
	if res != nil && res.RawResponse != nil {
		for _, c := range res.Cookies() {
			if c.Name == xsrfCookie && c.Value != "" {
				return c.Value
			}
		}
	}
	for _, u := range s.tokenURLs {
		for _, c := range s.jar.Cookies(u) {
			if c.Name == xsrfCookie && c.Value != "" {
				return c.Value
			}
		}
	}
	return ""
}

func (s *session) refreshToken(res *resty.Response) {
	token := s.lookupToken(res)
	if token == s.token {
		return
	}
	s.token = token
	if token == "" {
		s.http.Header.Del(xsrfHeader)
		s.tel.ReportDebug(report_session_token, "cleared")
		return
	}
	s.http.SetHeader(xsrfHeader, token)
	s.tel.ReportDebug(report_session_token, "rotated")
}

// missingScope returns the first of the requested scopes the session was not granted.
func (s *session) missingScope(scopes []string) (string, bool) {
	for _, scope := range scopes {
		if !slices.Contains(s.scopes, scope) {
			return scope, true
		}
	}
	return "", false
}

func (s *session) authenticated() bool {
	return s.userDetails != nil
}

// finalURL is the url the response was served from after redirects.
func finalURL(res *resty.Response) string {
	if res == nil {
		return ""
	}
	if res.RawResponse != nil && res.RawResponse.Request != nil && res.RawResponse.Request.URL != nil {
		return res.RawResponse.Request.URL.String()
	}
	if res.Request != nil {
		return res.Request.URL
	}
	return ""
}
