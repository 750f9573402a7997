package telenet

import (
	"sync"
	"telenetapi/internal/chrono"
	"telenetapi/internal/telemetry"
	"telenetapi/lib/restyutil"
	"time"

	"golang.org/x/time/rate"
)

var tracer = telemetry.Tracer("telenetapi.lib.telenet")

type ClientOptions struct {
	Username string
	Password string
	// Language is one of Languages, anything else falls back to DefaultLanguage.
	Language string
	// Headers replaces DefaultHeaders when set.
	Headers map[string]string
	// Environment defaults to DefaultEnvironment when left zero.
	Environment Environment
	// Timeout is applied to every request, defaults to DefaultTimeout.
	Timeout time.Duration
	// RateLimit is the max requests per second, 0 disables throttling.
	RateLimit rate.Limit
	RateBurst int
	// CloudflareBypass wraps the transport with browser-like TLS settings.
	CloudflareBypass bool
	// HTTPDump receives every request and response exchanged with the portal when set.
	HTTPDump restyutil.Output

	Telemetry telemetry.API
	Time      chrono.TimeAPI
}

// Client talks to the customer portal on behalf of a single account. It is safe for
// concurrent use, calls are serialized since each one depends on the token rotated by
// the previous one.
type Client struct {
	mu sync.Mutex

	username string
	password string
	language string
	env      Environment

	session *session
	backend backend
	specs   specCache

	tel  telemetry.API
	time chrono.TimeAPI
}

func NewClient(opts ClientOptions) (*Client, error) {
	env := opts.Environment
	if env == (Environment{}) {
		env = DefaultEnvironment
	}
	headers := opts.Headers
	if headers == nil {
		headers = DefaultHeaders(env)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	tel := telemetry.NewScopedAPI("telenet", opts.Telemetry)
	clock := opts.Time
	if clock == nil {
		clock = chrono.NewStandardTime()
	}

	s, err := newSession(sessionOptions{
		env:              env,
		headers:          headers,
		timeout:          timeout,
		rateLimit:        opts.RateLimit,
		rateBurst:        opts.RateBurst,
		cloudflareBypass: opts.CloudflareBypass,
		dump:             opts.HTTPDump,
		tel:              tel,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		username: opts.Username,
		password: opts.Password,
		language: normalizeLanguage(opts.Language),
		env:      env,
		session:  s,
		specs:    newSpecCache(),
		tel:      tel,
		time:     clock,
	}, nil
}

// Language is the locale product names are resolved in.
func (c *Client) Language() string {
	return c.language
}

// UserDetails returns the identity record stored by the last successful Login, or nil.
func (c *Client) UserDetails() UserDetails {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.userDetails
}

// Scopes returns the legacy services the account may call.
func (c *Client) Scopes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.session.scopes...)
}
