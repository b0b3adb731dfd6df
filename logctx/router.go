package logctx

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// routerEntry pairs a sink with the name it was attached under.
// Attach order is preserved so records reach sinks deterministically.
type routerEntry struct {
	name string
	sink Sink
}

// Router is a slog.Handler that fans records out to named sinks. Sinks are
// attached and detached by name, never by scanning handler internals, so a
// component can always remove exactly what it installed.
type Router struct {
	mu      sync.RWMutex
	entries []routerEntry
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{}
}

// Attach adds a sink under the given name. If a sink with that name is
// already attached it is superseded: the old sink is closed and replaced in
// place. Attaching is therefore idempotent, not an error.
func (r *Router) Attach(name string, s Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, e := range r.entries {
		if e.name == name {
			_ = e.sink.Close()
			r.entries[i].sink = s
			return
		}
	}
	r.entries = append(r.entries, routerEntry{name: name, sink: s})
}

// Detach removes and closes the sink attached under name.
// Returns false if no such sink exists.
func (r *Router) Detach(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, e := range r.entries {
		if e.name == name {
			_ = e.sink.Close()
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

// DetachFileSinks removes and closes every file sink, whoever attached it.
// This is the one sanctioned removal of sinks by kind rather than by name:
// it guarantees single-file-per-run semantics when a run starts in a process
// that already routed logs to a file. Returns the number removed.
func (r *Router) DetachFileSinks() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.entries[:0]
	removed := 0
	for _, e := range r.entries {
		if e.sink.Kind() == KindFile {
			_ = e.sink.Close()
			removed++
			continue
		}
		kept = append(kept, e)
	}
	r.entries = kept
	return removed
}

// Has reports whether a sink is attached under name.
func (r *Router) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if e.name == name {
			return true
		}
	}
	return false
}

// Get returns the sink attached under name.
func (r *Router) Get(name string) (Sink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if e.name == name {
			return e.sink, true
		}
	}
	return nil, false
}

// Names returns the attached sink names in attach order.
func (r *Router) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.name
	}
	return names
}

// SinksOf returns the names of attached sinks of the given kind.
func (r *Router) SinksOf(kind SinkKind) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for _, e := range r.entries {
		if e.sink.Kind() == kind {
			names = append(names, e.name)
		}
	}
	return names
}

// Len returns the number of attached sinks.
func (r *Router) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Close detaches and closes every sink.
func (r *Router) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	for _, e := range r.entries {
		err = errors.Join(err, e.sink.Close())
	}
	r.entries = nil
	return err
}

// Enabled implements slog.Handler. A record is worth building if any sink
// would accept it.
func (r *Router) Enabled(ctx context.Context, level slog.Level) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if e.sink.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle implements slog.Handler, delivering the record to every sink whose
// level accepts it.
func (r *Router) Handle(ctx context.Context, rec slog.Record) error {
	r.mu.RLock()
	sinks := make([]Sink, 0, len(r.entries))
	for _, e := range r.entries {
		if e.sink.Enabled(ctx, rec.Level) {
			sinks = append(sinks, e.sink)
		}
	}
	r.mu.RUnlock()

	var err error
	for _, s := range sinks {
		err = errors.Join(err, s.Handle(ctx, rec.Clone()))
	}
	return err
}

// WithAttrs implements slog.Handler. The returned handler carries the attrs
// and still routes through this Router, so sinks attached later see them too.
func (r *Router) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return r
	}
	return &routedHandler{router: r, attrs: attrs}
}

// WithGroup implements slog.Handler.
func (r *Router) WithGroup(name string) slog.Handler {
	if name == "" {
		return r
	}
	return &routedHandler{router: r, groups: []string{name}}
}

// routedHandler is a Router view carrying accumulated attrs and groups.
// Attrs are folded into each record at delivery time so that sink
// attach/detach after logger construction keeps working.
type routedHandler struct {
	router *Router
	attrs  []slog.Attr
	groups []string
}

func (h *routedHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.router.Enabled(ctx, level)
}

func (h *routedHandler) Handle(ctx context.Context, rec slog.Record) error {
	out := rec.Clone()
	out.AddAttrs(h.attrs...)
	return h.router.Handle(ctx, out)
}

func (h *routedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := h.clone()
	h2.attrs = append(h2.attrs, h.qualified(attrs)...)
	return h2
}

func (h *routedHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := h.clone()
	h2.groups = append(h2.groups, name)
	return h2
}

func (h *routedHandler) clone() *routedHandler {
	return &routedHandler{
		router: h.router,
		attrs:  append([]slog.Attr{}, h.attrs...),
		groups: append([]string{}, h.groups...),
	}
}

// qualified prefixes attr keys with the open group names.
func (h *routedHandler) qualified(attrs []slog.Attr) []slog.Attr {
	if len(h.groups) == 0 {
		return attrs
	}
	prefix := ""
	for _, g := range h.groups {
		prefix += g + "."
	}
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: prefix + a.Key, Value: a.Value}
	}
	return out
}
