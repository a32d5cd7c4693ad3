package plans

// Plan is a catalog entry. Pricing is whole USD per interval.
type Plan struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Monthly     float64  `json:"monthly"`
	Annual      float64  `json:"annual"`
	Seats       string   `json:"seats"`
	Features    []string `json:"features"`
}

// Catalog is the static plan list. Stripe price ids live in config, not here,
// so the catalog stays environment-independent.
var Catalog = []Plan{
	{
		ID:          "starter",
		Name:        "Starter",
		Description: "Solo builders and small agents.",
		Monthly:     19,
		Annual:      190,
		Seats:       "1-2 seats",
		Features: []string{
			"HTTP-preferred MCP",
			"Private memory bank",
			"Qdrant recall",
			"Basic observability",
		},
	},
	{
		ID:          "team",
		Name:        "Team",
		Description: "Product teams shipping agent workflows.",
		Monthly:     79,
		Annual:      790,
		Seats:       "Up to 10 seats",
		Features: []string{
			"Everything in Starter",
			"Shared workspaces",
			"Usage dashboards",
			"Priority support",
		},
	},
	{
		ID:          "enterprise",
		Name:        "Enterprise",
		Description: "Security, compliance, and scale.",
		Monthly:     249,
		Annual:      2490,
		Seats:       "Custom seats",
		Features: []string{
			"SSO / SAML",
			"Private networking",
			"Custom retention",
			"Dedicated support",
		},
	},
}

// Find returns the catalog plan with the given id, or nil.
func Find(id string) *Plan {
	for i := range Catalog {
		if Catalog[i].ID == id {
			return &Catalog[i]
		}
	}
	return nil
}

// NormalizeInterval folds arbitrary input into "monthly" | "annual".
func NormalizeInterval(interval string) string {
	if interval == "annual" {
		return "annual"
	}
	return "monthly"
}

// Price returns the plan price for a normalized interval.
func (p *Plan) Price(interval string) float64 {
	if interval == "annual" {
		return p.Annual
	}
	return p.Monthly
}
