package llmfactory

import (
	"slices"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/llmfn/pkg/llms"
	"github.com/effective-security/llmfn/pkg/llms/anthropic"
	"github.com/effective-security/llmfn/pkg/llms/openai"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/llmfn", "llmfactory")

// NewTransport is a wrapper for CreateTransport to allow for overriding the default implementation.
var NewTransport = CreateTransport

// Factory is the interface for creating and managing completion transports.
type Factory interface {
	// DefaultTransport returns the transport of the default provider.
	DefaultTransport() (llms.Transport, error)
	// TransportByType returns a transport by its provider type, e.g.
	// OPENAI, PERPLEXITY, ANTHROPIC
	TransportByType(providerType string) (llms.Transport, error)
	// TransportByName returns a transport serving one of the preferred
	// models, falling back to the default provider.
	TransportByName(preferredModels ...string) (llms.Transport, error)
	// FunctionModel returns the transport configured for the named
	// function.
	FunctionModel(functionName string, preferredModels ...string) (llms.Transport, error)
}

// Load returns a factory configured from a YAML file
func Load(location string) (Factory, error) {
	cfg, err := LoadConfig(location)
	if err != nil {
		return nil, err
	}
	return New(cfg), nil
}

type factory struct {
	cfg *Config

	defaultProvider *ProviderConfig
	functionModels  map[string][]string
	byType          map[string]llms.Transport
	byName          map[string]llms.Transport
	lock            sync.Mutex
}

// New creates a new transport factory
func New(cfg *Config) Factory {
	f := &factory{
		cfg:            cfg,
		byType:         make(map[string]llms.Transport),
		byName:         make(map[string]llms.Transport),
		functionModels: make(map[string][]string),
	}

	for k, v := range cfg.FunctionModels {
		f.functionModels[k] = slices.Clone(v)
	}

	if cfg.DefaultProvider != "" {
		for _, provider := range cfg.Providers {
			if provider.Name == cfg.DefaultProvider {
				f.defaultProvider = provider
				break
			}
		}
	}

	if f.defaultProvider == nil && len(f.cfg.Providers) > 0 {
		f.defaultProvider = f.cfg.Providers[0]
	}

	return f
}

func CreateTransport(cfg *ProviderConfig, preferredModels ...string) (llms.Transport, error) {
	provType := strings.ToUpper(cfg.APIType)
	switch provType {
	case "OPENAI", "OPEN_AI", "PERPLEXITY":
		return newOpenAI(cfg, preferredModels...)
	case "ANTHROPIC":
		return newAnthropic(cfg, preferredModels...)
	}
	return nil, errors.Errorf("unsupported provider type: %s", provType)
}

func newOpenAI(cfg *ProviderConfig, preferredModels ...string) (llms.Transport, error) {
	var opts []openai.Option
	model := cfg.FindModel(preferredModels...)
	opts = append(opts, openai.WithModel(model))

	if cfg.Token != "" {
		opts = append(opts, openai.WithToken(cfg.Token))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if cfg.OrgID != "" {
		opts = append(opts, openai.WithOrganization(cfg.OrgID))
	}
	return openai.New(opts...)
}

func newAnthropic(cfg *ProviderConfig, preferredModels ...string) (llms.Transport, error) {
	var opts []anthropic.Option
	model := cfg.FindModel(preferredModels...)
	opts = append(opts, anthropic.WithModel(model))
	if cfg.Token != "" {
		opts = append(opts, anthropic.WithToken(cfg.Token))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}
	return anthropic.New(opts...)
}

// DefaultTransport returns the transport of the default provider
func (f *factory) DefaultTransport() (llms.Transport, error) {
	if len(f.cfg.Providers) == 0 || f.defaultProvider == nil {
		return nil, errors.New("no providers configured")
	}

	return NewTransport(f.defaultProvider, f.defaultProvider.DefaultModel)
}

func (f *factory) TransportByType(providerType string) (llms.Transport, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if client, ok := f.byType[providerType]; ok {
		return client, nil
	}

	for _, cfg := range f.cfg.Providers {
		if cfg.APIType == providerType {
			tr, err := NewTransport(cfg)
			if err != nil {
				return nil, err
			}

			logger.KV(xlog.DEBUG,
				"status", "created_transport",
				"type", cfg.APIType,
				"name", cfg.Name)

			f.byType[providerType] = tr
			return tr, nil
		}
	}
	return nil, errors.Errorf("provider not found for type: %s", providerType)
}

func (f *factory) TransportByName(modelNames ...string) (llms.Transport, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	for _, modelName := range modelNames {
		if client, ok := f.byName[modelName]; ok {
			return client, nil
		}

		for _, cfg := range f.cfg.Providers {
			if slices.Contains(cfg.AvailableModels, modelName) {
				tr, err := NewTransport(cfg, modelNames...)
				if err != nil {
					logger.KV(xlog.ERROR,
						"reason", "NewTransport",
						"type", cfg.APIType,
						"models", modelNames,
					)
					continue
				}

				logger.KV(xlog.DEBUG,
					"status", "created_transport",
					"type", cfg.APIType,
					"name", cfg.Name)

				f.byName[modelName] = tr
				return tr, nil
			}
		}
	}
	return f.DefaultTransport()
}

// FunctionModel returns the transport configured for the named function.
func (f *factory) FunctionModel(functionName string, preferredModels ...string) (llms.Transport, error) {
	// Check if we have a specific model mapping for this function
	if modelNames, ok := f.functionModels[functionName]; ok {
		return f.TransportByName(modelNames...)
	}

	// Check for default model mapping
	if modelNames, ok := f.functionModels["default"]; ok {
		return f.TransportByName(modelNames...)
	}

	// Fallback to default provider
	return f.TransportByName(preferredModels...)
}
