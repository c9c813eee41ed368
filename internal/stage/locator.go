package stage

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/copyleftdev/stagecheck/internal/wizardtypes"
)

var ErrUnknownStage = errors.New("unknown stage")

type routeKey struct {
	kind    wizardtypes.StageKind
	variant string
}

// Locator maps (kind, variant) pairs to stage descriptors. It never touches
// the network.
type Locator struct {
	base   *url.URL
	routes []Route
	byKey  map[routeKey]Route
	byPath map[string]Route
}

func NewLocator(baseURL string, routes []Route) (*Locator, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	l := &Locator{
		base:   base,
		routes: make([]Route, 0, len(routes)),
		byKey:  make(map[routeKey]Route, len(routes)),
		byPath: make(map[string]Route, len(routes)),
	}
	for _, r := range routes {
		if r.Kind == wizardtypes.StageQuestion && r.Variant == "" {
			return nil, fmt.Errorf("question route %s has no variant", r.Path)
		}
		if r.Kind != wizardtypes.StageQuestion && r.Variant != "" {
			return nil, fmt.Errorf("%s route %s cannot have a variant", r.Kind, r.Path)
		}
		key := routeKey{r.Kind, r.Variant}
		if _, dup := l.byKey[key]; dup {
			return nil, fmt.Errorf("duplicate route %s %s", r.Kind, r.Variant)
		}
		path := normalizePath(r.Path)
		if _, dup := l.byPath[path]; dup {
			return nil, fmt.Errorf("duplicate route path %s", r.Path)
		}
		l.byKey[key] = r
		l.byPath[path] = r
		l.routes = append(l.routes, r)
	}
	return l, nil
}

// Resolve returns the descriptor for a stage.
func (l *Locator) Resolve(kind wizardtypes.StageKind, variant string) (wizardtypes.StageDescriptor, error) {
	r, ok := l.byKey[routeKey{kind, variant}]
	if !ok {
		if variant != "" {
			return wizardtypes.StageDescriptor{}, fmt.Errorf("%w: %s %s", ErrUnknownStage, kind, variant)
		}
		return wizardtypes.StageDescriptor{}, fmt.Errorf("%w: %s", ErrUnknownStage, kind)
	}
	return l.describe(r), nil
}

// Question is shorthand for Resolve(StageQuestion, variant).
func (l *Locator) Question(variant string) (wizardtypes.StageDescriptor, error) {
	return l.Resolve(wizardtypes.StageQuestion, variant)
}

// Match finds the stage served at rawURL. Query and fragment are ignored.
func (l *Locator) Match(rawURL string) (wizardtypes.StageDescriptor, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return wizardtypes.StageDescriptor{}, false
	}
	if u.Host != "" && u.Host != l.base.Host {
		return wizardtypes.StageDescriptor{}, false
	}
	path := strings.TrimPrefix(u.Path, strings.TrimRight(l.base.Path, "/"))
	r, ok := l.byPath[normalizePath(path)]
	if !ok {
		return wizardtypes.StageDescriptor{}, false
	}
	return l.describe(r), true
}

// URL resolves a path against the base URL.
func (l *Locator) URL(path string) string {
	u := *l.base
	u.Path = strings.TrimRight(l.base.Path, "/") + "/" + strings.TrimLeft(path, "/")
	return u.String()
}

// Routes returns the table in declaration order.
func (l *Locator) Routes() []Route {
	return append([]Route(nil), l.routes...)
}

func (l *Locator) describe(r Route) wizardtypes.StageDescriptor {
	return wizardtypes.StageDescriptor{
		Kind:    r.Kind,
		Variant: r.Variant,
		URL:     l.URL(r.Path),
		Heading: r.Heading,
	}
}

func normalizePath(p string) string {
	p = "/" + strings.Trim(p, "/")
	return p
}
