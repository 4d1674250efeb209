package insights

import (
	"context"

	"github.com/dosetrack/dosetrack/internal/models"
)

// InsightProvider generates natural-language adherence insights
type InsightProvider interface {
	// GenerateAdherenceInsight turns an adherence summary into a short,
	// encouraging insight for the user
	GenerateAdherenceInsight(ctx context.Context, stat models.AdherenceStat, daily []models.DailyAdherence, windowDays int) (string, error)
}

// ProviderFactory creates an insight provider from config
type ProviderFactory func(config map[string]string) (InsightProvider, error)

// ProviderRegistry stores available insight providers
type ProviderRegistry struct {
	providers map[string]ProviderFactory
}

// NewProviderRegistry creates a new provider registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ProviderFactory),
	}
}

// Register registers a provider factory
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[name] = factory
}

// GetProvider gets a provider by name
func (r *ProviderRegistry) GetProvider(name string, config map[string]string) (InsightProvider, error) {
	factory, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}

	return factory(config)
}

// ErrProviderNotFound is returned when a provider is not found
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return "insight provider not found: " + e.Name
}
