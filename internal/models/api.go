package models

import "time"

// UsageResponse is the JSON body of GET /api/usage. Money is in dollars.
type UsageResponse struct {
	AllTimeSpending SpendingJSON     `json:"all_time_spending"`
	CurrentSpending SpendingJSON     `json:"current_spending"`
	Usages          []UsageGroupJSON `json:"usages"`
}

// SpendingJSON is the wire form of Spending.
type SpendingJSON struct {
	Money float64 `json:"money"`
	Token int64   `json:"token"`
}

// UsageGroupJSON is the wire form of UsageGroup.
type UsageGroupJSON struct {
	Provider  string           `json:"provider"`
	ModelName string           `json:"model_name"`
	Usages    []UsageEventJSON `json:"usages"`
}

// UsageEventJSON is the wire form of UsageEvent.
type UsageEventJSON struct {
	TS              time.Time `json:"ts"`
	RequestID       string    `json:"request_id,omitempty"`
	Provider        string    `json:"provider"`
	ModelName       string    `json:"model_name"`
	ID              int64     `json:"id"`
	InputToken      int64     `json:"input_token"`
	OutputToken     int64     `json:"output_token"`
	TotalToken      int64     `json:"total_token"`
	InputTokenCost  float64   `json:"input_token_cost"`
	OutputTokenCost float64   `json:"output_token_cost"`
	TotalTokenCost  float64   `json:"total_token_cost"`
}

// NewUsageResponse converts a snapshot to its wire form.
func NewUsageResponse(s Snapshot) UsageResponse {
	resp := UsageResponse{
		AllTimeSpending: NewSpendingJSON(s.AllTime),
		CurrentSpending: NewSpendingJSON(s.Current),
		Usages:          make([]UsageGroupJSON, 0, len(s.Groups)),
	}
	for _, g := range s.Groups {
		wg := UsageGroupJSON{
			Provider:  g.Provider,
			ModelName: g.Model,
			Usages:    make([]UsageEventJSON, 0, len(g.Events)),
		}
		for _, e := range g.Events {
			wg.Usages = append(wg.Usages, UsageEventJSON{
				TS:              e.Timestamp,
				RequestID:       e.RequestID,
				Provider:        e.Provider,
				ModelName:       e.Model,
				ID:              e.ID,
				InputToken:      e.InputTokens,
				OutputToken:     e.OutputTokens,
				TotalToken:      e.TotalTokens,
				InputTokenCost:  MicroUSDToUSD(e.InputCost),
				OutputTokenCost: MicroUSDToUSD(e.OutputCost),
				TotalTokenCost:  MicroUSDToUSD(e.TotalCost),
			})
		}
		resp.Usages = append(resp.Usages, wg)
	}
	return resp
}

// Snapshot converts the wire form back. Dollar amounts are rounded to the
// nearest micro-dollar.
func (r UsageResponse) Snapshot() Snapshot {
	s := Snapshot{
		AllTime: r.AllTimeSpending.spending(),
		Current: r.CurrentSpending.spending(),
		Groups:  make([]UsageGroup, 0, len(r.Usages)),
	}
	for _, wg := range r.Usages {
		g := UsageGroup{Provider: wg.Provider, Model: wg.ModelName}
		for _, we := range wg.Usages {
			provider, model := we.Provider, we.ModelName
			if provider == "" {
				provider = wg.Provider
			}
			if model == "" {
				model = wg.ModelName
			}
			g.Events = append(g.Events, UsageEvent{
				Timestamp:    we.TS,
				RequestID:    we.RequestID,
				Provider:     provider,
				Model:        model,
				ID:           we.ID,
				InputTokens:  we.InputToken,
				OutputTokens: we.OutputToken,
				TotalTokens:  we.TotalToken,
				InputCost:    USDToMicroUSD(we.InputTokenCost),
				OutputCost:   USDToMicroUSD(we.OutputTokenCost),
				TotalCost:    USDToMicroUSD(we.TotalTokenCost),
			})
		}
		s.Groups = append(s.Groups, g)
	}
	return s
}

// NewSpendingJSON converts s to its wire form.
func NewSpendingJSON(s Spending) SpendingJSON {
	return SpendingJSON{Money: s.USD(), Token: s.Tokens}
}

func (s SpendingJSON) spending() Spending {
	return Spending{Money: USDToMicroUSD(s.Money), Tokens: s.Token}
}

// ProviderJSON is one entry of GET /api/llm. The API key is never part of it.
type ProviderJSON struct {
	Name    string      `json:"name"`
	APIBase string      `json:"apiBase"`
	Models  []ModelJSON `json:"models"`
}

// ModelJSON is a priced model on the wire. Prices are dollars per million
// tokens.
type ModelJSON struct {
	Name                      string  `json:"name"`
	CostPerMillionInputToken  float64 `json:"costPerMillionInputToken"`
	CostPerMillionOutputToken float64 `json:"costPerMillionOutputToken"`
}

// NewProviderResponses groups the catalog by provider in catalog order.
// Providers without models are left out.
func NewProviderResponses(c *Catalog) []ProviderJSON {
	out := make([]ProviderJSON, 0, len(c.Providers))
	for _, p := range c.Providers {
		llms := c.ModelsFor(p.Name)
		if len(llms) == 0 {
			continue
		}
		pj := ProviderJSON{Name: p.Name, APIBase: p.APIBase, Models: make([]ModelJSON, len(llms))}
		for i, m := range llms {
			pj.Models[i] = ModelJSON{
				Name:                      m.Name,
				CostPerMillionInputToken:  m.CostPerMillionInputToken,
				CostPerMillionOutputToken: m.CostPerMillionOutputToken,
			}
		}
		out = append(out, pj)
	}
	return out
}

// CatalogFromProviders rebuilds a catalog from its wire form.
func CatalogFromProviders(providers []ProviderJSON) Catalog {
	var c Catalog
	for _, p := range providers {
		c.Providers = append(c.Providers, Provider{Name: p.Name, APIBase: p.APIBase})
		for _, m := range p.Models {
			c.Models = append(c.Models, LLM{
				Name:                      m.Name,
				Provider:                  p.Name,
				CostPerMillionInputToken:  m.CostPerMillionInputToken,
				CostPerMillionOutputToken: m.CostPerMillionOutputToken,
			})
		}
	}
	return c
}
