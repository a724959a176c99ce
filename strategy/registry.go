package strategy

import (
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"

	"github.com/hupe1980/negomesh/core"
	"gopkg.in/yaml.v3"
)

// DefaultSampleSize is the number of suggestions offered per run.
const DefaultSampleSize = 4

// Strategy is one entry of the pool. Only id, name, and summary are required;
// the rest enriches prompts and filtering.
type Strategy struct {
	StrategyID       string            `yaml:"strategy_id"`
	Name             string            `yaml:"name"`
	Category         string            `yaml:"category,omitempty"`
	Summary          string            `yaml:"summary"`
	Goal             string            `yaml:"goal,omitempty"`
	Tags             []string          `yaml:"tags,omitempty"`
	Domains          []core.Domain     `yaml:"domains,omitempty"`
	PreferredActions []core.ActionType `yaml:"preferred_actions,omitempty"`
}

// Suggestion converts the pool entry into the compact form attached to turns.
func (s Strategy) Suggestion() core.StrategySuggestion {
	return core.StrategySuggestion{
		StrategyID: s.StrategyID,
		Name:       s.Name,
		Summary:    s.Summary,
		Category:   s.Category,
		Goal:       s.Goal,
	}
}

// AppliesTo reports whether the strategy is usable for the given domain. An
// empty domain list means the strategy is domain-agnostic.
func (s Strategy) AppliesTo(domain core.Domain) bool {
	if len(s.Domains) == 0 {
		return true
	}
	for _, d := range s.Domains {
		if d == domain || d == core.DomainGeneral {
			return true
		}
	}
	return false
}

// pool is the YAML document shape of a strategy file.
type pool struct {
	Strategies []Strategy `yaml:"strategies"`
}

// Registry is a thread-safe strategy pool.
type Registry struct {
	mu         sync.RWMutex
	strategies []Strategy
	byID       map[string]int
}

// NewRegistry creates a registry preloaded with the given strategies.
func NewRegistry(strategies ...Strategy) *Registry {
	r := &Registry{byID: make(map[string]int)}
	for _, s := range strategies {
		r.register(s)
	}
	return r
}

func (r *Registry) register(s Strategy) {
	if idx, ok := r.byID[s.StrategyID]; ok {
		r.strategies[idx] = s
		return
	}
	r.byID[s.StrategyID] = len(r.strategies)
	r.strategies = append(r.strategies, s)
}

// Register adds or replaces a strategy by id.
func (r *Registry) Register(s Strategy) error {
	if s.StrategyID == "" {
		return fmt.Errorf("strategy id must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.register(s)
	return nil
}

// LoadYAML merges strategies from a YAML document into the registry.
func (r *Registry) LoadYAML(data []byte) error {
	var p pool
	if err := yaml.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("parse strategy pool: %w", err)
	}
	for _, s := range p.Strategies {
		if err := r.Register(s); err != nil {
			return err
		}
	}
	return nil
}

// LoadYAMLFile merges strategies from a YAML file into the registry.
func (r *Registry) LoadYAMLFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read strategy pool %s: %w", path, err)
	}
	return r.LoadYAML(data)
}

// List returns the strategies in registration order.
func (r *Registry) List() []Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Strategy(nil), r.strategies...)
}

// Get looks up a strategy by id.
func (r *Registry) Get(strategyID string) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.byID[strategyID]
	if !ok {
		return Strategy{}, false
	}
	return r.strategies[idx], true
}

// Sample returns up to k suggestions for the domain, drawn without
// replacement from the applicable strategies using the seeded source. The
// same seed always yields the same suggestions.
func (r *Registry) Sample(seed int64, domain core.Domain, k int) []core.StrategySuggestion {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if k <= 0 {
		k = DefaultSampleSize
	}

	applicable := make([]Strategy, 0, len(r.strategies))
	for _, s := range r.strategies {
		if s.AppliesTo(domain) {
			applicable = append(applicable, s)
		}
	}
	sort.Slice(applicable, func(i, j int) bool {
		return applicable[i].StrategyID < applicable[j].StrategyID
	})

	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(len(applicable))
	if k > len(perm) {
		k = len(perm)
	}

	out := make([]core.StrategySuggestion, 0, k)
	for _, idx := range perm[:k] {
		out = append(out, applicable[idx].Suggestion())
	}
	return out
}
