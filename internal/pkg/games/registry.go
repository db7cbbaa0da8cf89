package games

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Vodeneev/lottostats/internal/pkg/models"
)

// Game is a known game type and the page its draw history is scraped from.
type Game struct {
	Key       string
	Name      string
	SourceURL string
	Config    models.GameConfig

	// DrawSelectors are site-specific draw container selectors, tried before the generic ones.
	DrawSelectors []string
	// WaitCondition is the selector the renderer waits for before reading the page.
	WaitCondition string
}

// Override replaces parts of a built-in game definition from configuration.
type Override struct {
	SourceURL     string   `yaml:"source_url"`
	WaitCondition string   `yaml:"wait_condition"`
	DrawSelectors []string `yaml:"draw_selectors"`
}

// Registry holds game definitions keyed by normalized game key.
type Registry struct {
	mu    sync.RWMutex
	games map[string]Game
}

func NewRegistry(gs ...Game) *Registry {
	r := &Registry{games: make(map[string]Game, len(gs))}
	for _, g := range gs {
		r.Register(g)
	}
	return r
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func (r *Registry) Register(g Game) {
	k := normalizeKey(g.Key)
	if k == "" {
		panic("games: empty key in Register")
	}
	if g.Config.NumbersPerDraw <= 0 || g.Config.MaxValue < g.Config.NumbersPerDraw {
		panic("games: invalid config for " + k)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.games[k]; exists {
		panic("games: duplicate registration for " + k)
	}
	g.Key = k
	r.games[k] = g
}

func (r *Registry) Lookup(key string) (Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.games[normalizeKey(key)]
	return g, ok
}

// Keys returns the registered game keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.games))
	for k := range r.games {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) All() []Game {
	keys := r.Keys()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Game, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.games[k])
	}
	return out
}

// Apply merges configured overrides into the registry. Unknown keys are an error.
func (r *Registry) Apply(overrides map[string]Override) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var unknown []string
	for key, o := range overrides {
		k := normalizeKey(key)
		g, ok := r.games[k]
		if !ok {
			unknown = append(unknown, k)
			continue
		}
		if o.SourceURL != "" {
			g.SourceURL = o.SourceURL
		}
		if o.WaitCondition != "" {
			g.WaitCondition = o.WaitCondition
		}
		if len(o.DrawSelectors) > 0 {
			g.DrawSelectors = append([]string(nil), o.DrawSelectors...)
		}
		r.games[k] = g
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown games in overrides: %v", unknown)
	}
	return nil
}
