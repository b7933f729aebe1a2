// Package shop assembles one client context: persisted state, feedback,
// the backend client and the cart, session and catalog services bound to
// them.
package shop

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"shopfront/apiclient"
	"shopfront/cart"
	"shopfront/catalog"
	"shopfront/session"
	"shopfront/state"
	"shopfront/ui"
)

// DefaultBaseURL is the backend root used when Options.BaseURL is empty.
const DefaultBaseURL = "http://localhost:8080/api"

// Options configures New. Zero values are valid.
type Options struct {
	BaseURL      string
	Store        state.Store
	Root         ui.Root
	HTTPClient   *http.Client
	ToastDisplay time.Duration
	ToastExit    time.Duration
	Logger       *slog.Logger
}

// Context is a fully wired client.
type Context struct {
	State    *state.State
	Feedback *ui.Feedback
	API      *apiclient.Client
	Cart     *cart.Manager
	Session  *session.Controller
	Catalog  *catalog.Catalog
}

// New wires a Context. A 401 on an authenticated call logs the user out, and
// every cart change refreshes the badge.
func New(opts Options) *Context {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Store == nil {
		opts.Store = state.NewMemoryStore()
	}
	if opts.Root == nil {
		opts.Root = ui.NewDocument()
	}

	fb := ui.New(opts.Root, ui.Options{ToastDisplay: opts.ToastDisplay, ToastExit: opts.ToastExit})
	st := state.New(opts.Store, fb.Badge)
	api := apiclient.New(opts.BaseURL, st, apiclient.Options{
		HTTPClient: opts.HTTPClient,
		Overlay:    fb.Loader,
		Alerter:    fb,
		Logger:     opts.Logger,
	})
	sess := session.NewController(st, api, opts.Root, fb.Loader)
	api.OnSessionExpired(sess.Expire)

	return &Context{
		State:    st,
		Feedback: fb,
		API:      api,
		Cart:     cart.NewManager(st, fb),
		Session:  sess,
		Catalog:  catalog.New(api, fb),
	}
}

// Load runs the page-load work: the badge is drawn from the stored cart.
func (c *Context) Load(ctx context.Context) error {
	return c.Feedback.Badge.Update(ctx, c.State)
}
