package core

// Action is the decision taken for one product in a plan.
type Action string

const (
	ActionOrder       Action = "ORDER"
	ActionInvestigate Action = "INVESTIGATE"
	ActionMonitor     Action = "MONITOR"
)

// Valid reports whether a is one of the three known actions.
func (a Action) Valid() bool {
	switch a {
	case ActionOrder, ActionInvestigate, ActionMonitor:
		return true
	}
	return false
}

// ActionPlanItem is one ranked line of an action plan. Never persisted.
type ActionPlanItem struct {
	Code           string `json:"code"`
	Action         Action `json:"action"`
	ActionQuantity int    `json:"action_quantity"`
	Justification  string `json:"justification"`
	PriorityRank   int    `json:"priority_rank"`
}

// PlanItemWire is the shape the reasoning service must return for each plan line.
// The jsonschema tags drive the strict output schema sent with every request.
type PlanItemWire struct {
	Code           string  `json:"code" jsonschema_description:"The exact product code from the input list"`
	Action         string  `json:"action" jsonschema:"enum=ORDER,enum=INVESTIGATE,enum=MONITOR" jsonschema_description:"The final action for this product"`
	ActionQuantity float64 `json:"action_quantity" jsonschema_description:"Units to order for ORDER; 0 for INVESTIGATE and MONITOR"`
	Justification  string  `json:"justification" jsonschema_description:"Short reason for the action"`
}

// PlanEnvelope wraps the ordered plan, since strict structured output needs an object root.
type PlanEnvelope struct {
	Items []PlanItemWire `json:"items" jsonschema_description:"Action plan ordered by priority: highest consumption rate first, then highest reorder quantity"`
}

// RankedRecord pairs a record with its computed reorder quantity.
type RankedRecord struct {
	Record          StockRecord
	ReorderQuantity int
}

// delegateItem is the per-record payload sent to the reasoning service.
type delegateItem struct {
	Code             string   `json:"code"`
	ABC              ABCClass `json:"abc,omitempty"`
	CurrentStock     int      `json:"current_stock"`
	MaxStock         float64  `json:"max_stock"`
	ConsumptionRate  float64  `json:"consumption_rate"`
	PendingPurchases int      `json:"pending_purchases"`
	ReorderQuantity  int      `json:"reorder_quantity"`
}
