package plans

// Entitlements are per-plan limits enforced by the console. Nil means
// unlimited.
type Entitlements struct {
	PlanID        string `json:"plan_id"`
	MaxAPIKeys    *int   `json:"max_api_keys"`
	MaxProjects   *int   `json:"max_projects"`
	MaxWriteBytes *int   `json:"max_write_bytes"`
}

const DefaultPlanID = "starter"

func limit(n int) *int { return &n }

var planLimits = map[string]Entitlements{
	"starter": {
		PlanID:        "starter",
		MaxAPIKeys:    limit(3),
		MaxProjects:   limit(5),
		MaxWriteBytes: limit(50_000),
	},
	"team": {
		PlanID:        "team",
		MaxAPIKeys:    limit(10),
		MaxProjects:   limit(25),
		MaxWriteBytes: limit(200_000),
	},
	"enterprise": {
		PlanID: "enterprise",
	},
}

// GetEntitlements resolves a plan id to its limits, falling back to the
// default plan for unknown or empty ids.
func GetEntitlements(planID string) Entitlements {
	if e, ok := planLimits[planID]; ok {
		return e
	}
	return planLimits[DefaultPlanID]
}
