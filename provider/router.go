package provider

import (
	"context"
	"sync"

	"github.com/tubedl-cli/tubedl/fault"
	"github.com/tubedl-cli/tubedl/source"
)

// Router is a source.Extractor that hands every URL to the provider claiming it.
// Extractors are created on first use and reused afterwards.
type Router struct {
	env     Env
	lookup  func(string) (*Provider, bool)
	wrap    func(source.Extractor) source.Extractor
	mu      sync.Mutex
	created map[string]source.Extractor
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithCache puts every routed extractor behind store.
func WithCache(store *Cache) RouterOption {
	return func(r *Router) {
		r.wrap = func(e source.Extractor) source.Extractor {
			return store.Wrap(e)
		}
	}
}

// WithLookup replaces ForURL as the way providers are found.
func WithLookup(lookup func(string) (*Provider, bool)) RouterOption {
	return func(r *Router) {
		r.lookup = lookup
	}
}

// NewRouter returns a router creating extractors with env.
func NewRouter(env Env, opts ...RouterOption) *Router {
	r := &Router{
		env:     env,
		lookup:  ForURL,
		wrap:    func(e source.Extractor) source.Extractor { return e },
		created: make(map[string]source.Extractor),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *Router) Name() string {
	return "router"
}

// For returns the extractor responsible for rawURL.
func (r *Router) For(rawURL string) (source.Extractor, error) {
	p, ok := r.lookup(rawURL)
	if !ok {
		return nil, fault.Wrapf(fault.Contract, "route", "no extractor for %s", rawURL)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.created[p.Name]; ok {
		return e, nil
	}

	e, err := p.CreateExtractor(r.env)
	if err != nil {
		return nil, fault.Wrap(fault.Contract, "load "+p.Name, err)
	}

	e = r.wrap(e)
	r.created[p.Name] = e
	return e, nil
}

func (r *Router) Extract(ctx context.Context, url string) (source.Extraction, error) {
	e, err := r.For(url)
	if err != nil {
		return source.Extraction{}, err
	}

	return e.Extract(ctx, url)
}

func (r *Router) Resolve(ctx context.Context, ref source.Reference) (*source.Media, error) {
	e, err := r.For(ref.URL)
	if err != nil {
		return nil, err
	}

	return e.Resolve(ctx, ref)
}
