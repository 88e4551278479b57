package models

// Provider is an upstream LLM API endpoint.
type Provider struct {
	Name    string `yaml:"name"`
	APIBase string `yaml:"apiBase"`
	APIKey  string `yaml:"apiKey"`
}

// LLM is a priced model served by a provider.
type LLM struct {
	Name                      string  `yaml:"name"`
	Provider                  string  `yaml:"provider"`
	CostPerMillionInputToken  float64 `yaml:"costPerMillionInputToken"`
	CostPerMillionOutputToken float64 `yaml:"costPerMillionOutputToken"`
}

// Catalog is the full provider and model listing.
type Catalog struct {
	Providers []Provider `yaml:"providers"`
	Models    []LLM      `yaml:"models"`
}

// Provider returns the provider with the given name.
func (c *Catalog) Provider(name string) (Provider, bool) {
	for _, p := range c.Providers {
		if p.Name == name {
			return p, true
		}
	}
	return Provider{}, false
}

// ModelsFor returns the models served by the named provider, in catalog order.
func (c *Catalog) ModelsFor(provider string) []LLM {
	var out []LLM
	for _, m := range c.Models {
		if m.Provider == provider {
			out = append(out, m)
		}
	}
	return out
}

// Price is the per-million-token price of a model in micro-USD.
type Price struct {
	InputPerMillion  int64
	OutputPerMillion int64
}

// Cost returns the micro-USD cost of the given token counts, rounded half up.
func (p Price) Cost(inputTokens, outputTokens int64) (input, output int64) {
	return scaleMillion(inputTokens, p.InputPerMillion), scaleMillion(outputTokens, p.OutputPerMillion)
}

func scaleMillion(tokens, perMillion int64) int64 {
	if tokens <= 0 || perMillion <= 0 {
		return 0
	}
	return (tokens*perMillion + 500_000) / 1_000_000
}
