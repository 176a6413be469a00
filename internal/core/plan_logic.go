package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// planLine mirrors PlanItemWire with pointer fields so missing keys can be told apart
// from zero values.
type planLine struct {
	Code           *string  `json:"code"`
	Action         *string  `json:"action"`
	ActionQuantity *float64 `json:"action_quantity"`
	Justification  *string  `json:"justification"`
}

// ParsePlanPayload decodes a reasoning-service response into ranked plan items.
// The payload may be the {"items": [...]} envelope or a bare array. Every element is
// normalized and validated; codes must come from requested. Any mismatch yields a
// *ValidationError carrying the raw payload.
func ParsePlanPayload(raw string, requested map[string]bool) ([]ActionPlanItem, error) {
	lines, err := decodePlanLines(raw)
	if err != nil {
		return nil, &ValidationError{Reason: err.Error(), Raw: raw}
	}

	seen := make(map[string]bool, len(lines))
	items := make([]ActionPlanItem, 0, len(lines))
	for i, line := range lines {
		item, err := line.toItem()
		if err != nil {
			return nil, &ValidationError{Reason: fmt.Sprintf("element %d: %v", i, err), Raw: raw}
		}
		if requested != nil && !requested[item.Code] {
			return nil, &ValidationError{Reason: fmt.Sprintf("element %d: code %q was not in the request", i, item.Code), Raw: raw}
		}
		if seen[item.Code] {
			return nil, &ValidationError{Reason: fmt.Sprintf("element %d: duplicate code %q", i, item.Code), Raw: raw}
		}
		seen[item.Code] = true
		item.PriorityRank = i
		items = append(items, item)
	}
	return items, nil
}

func decodePlanLines(raw string) ([]planLine, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("empty response content")
	}

	switch trimmed[0] {
	case '[':
		var lines []planLine
		if err := json.Unmarshal([]byte(trimmed), &lines); err != nil {
			return nil, fmt.Errorf("failed to parse plan array: %w", err)
		}
		return lines, nil
	case '{':
		var env struct {
			Items *[]planLine `json:"items"`
		}
		if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
			return nil, fmt.Errorf("failed to parse plan object: %w", err)
		}
		if env.Items == nil {
			return nil, fmt.Errorf("plan object has no items field")
		}
		return *env.Items, nil
	default:
		return nil, fmt.Errorf("response is not JSON")
	}
}

// toItem normalizes formatting noise (case, whitespace, blank justification) and then
// enforces the plan contract.
func (l planLine) toItem() (ActionPlanItem, error) {
	if l.Code == nil || l.Action == nil || l.ActionQuantity == nil || l.Justification == nil {
		return ActionPlanItem{}, fmt.Errorf("missing one of code, action, action_quantity, justification")
	}

	code := strings.TrimSpace(*l.Code)
	if code == "" {
		return ActionPlanItem{}, fmt.Errorf("code must not be empty")
	}

	action := Action(strings.ToUpper(strings.TrimSpace(*l.Action)))
	if !action.Valid() {
		return ActionPlanItem{}, fmt.Errorf("unknown action %q for %s", *l.Action, code)
	}

	qty := *l.ActionQuantity
	if math.IsNaN(qty) || math.IsInf(qty, 0) || qty < 0 {
		return ActionPlanItem{}, fmt.Errorf("action quantity for %s must be a non-negative number, got %v", code, qty)
	}
	if qty > MaxReorderQuantity {
		return ActionPlanItem{}, fmt.Errorf("action quantity for %s exceeds %d", code, MaxReorderQuantity)
	}
	quantity := int(math.Round(qty))
	if err := checkQuantity(code, action, quantity); err != nil {
		return ActionPlanItem{}, err
	}

	justification := strings.TrimSpace(*l.Justification)
	if justification == "" {
		justification = "no justification given"
	}

	return ActionPlanItem{
		Code:           code,
		Action:         action,
		ActionQuantity: quantity,
		Justification:  justification,
	}, nil
}

func checkQuantity(code string, action Action, quantity int) error {
	switch {
	case quantity < 0:
		return fmt.Errorf("action quantity for %s must not be negative, got %d", code, quantity)
	case action == ActionOrder && quantity == 0:
		return fmt.Errorf("ORDER for %s must carry a positive quantity", code)
	case action != ActionOrder && quantity != 0:
		return fmt.Errorf("%s for %s must have quantity 0, got %d", action, code, quantity)
	}
	return nil
}

// ValidatePlan checks a caller-supplied plan: every line has a code and a known action,
// quantities follow the action, codes are unique and priority ranks are exactly 0..n-1.
// Violations wrap ErrInvalidInput.
func ValidatePlan(items []ActionPlanItem) error {
	codes := make(map[string]bool, len(items))
	ranks := make(map[int]bool, len(items))
	for i, it := range items {
		code := strings.TrimSpace(it.Code)
		if code == "" {
			return fmt.Errorf("%w: item %d has no code", ErrInvalidInput, i)
		}
		if !it.Action.Valid() {
			return fmt.Errorf("%w: unknown action %q for %s", ErrInvalidInput, it.Action, code)
		}
		if err := checkQuantity(code, it.Action, it.ActionQuantity); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if codes[code] {
			return fmt.Errorf("%w: duplicate code %s", ErrInvalidInput, code)
		}
		codes[code] = true
		if it.PriorityRank < 0 || it.PriorityRank >= len(items) || ranks[it.PriorityRank] {
			return fmt.Errorf("%w: priority ranks must be unique and run from 0 to %d, got %d for %s",
				ErrInvalidInput, len(items)-1, it.PriorityRank, code)
		}
		ranks[it.PriorityRank] = true
	}
	return nil
}
