package bundles

import (
	"github.com/distroflow/cartcore/internal/cartstore"
)

// EligibleBundle is one satisfied rule: how many times it was earned and
// the rewards scaled accordingly.
type EligibleBundle struct {
	RuleID         string
	Multiplier     int
	GrantedRewards []Reward
}

// Entitlement maps reward product ids to the total granted free quantity
// across all eligible bundles. Individual rule attribution is not retained
// past the merge.
type Entitlement map[string]int

// Result is the outcome of one evaluation pass.
type Result struct {
	Eligible    []EligibleBundle
	Entitlement Entitlement
}

// EligibleProductIDs reports the condition products of satisfied rules,
// used for per-line scheme badges.
func (r Result) EligibleProductIDs(rules []Rule) map[string]bool {
	satisfied := make(map[string]bool, len(r.Eligible))
	for _, bundle := range r.Eligible {
		satisfied[bundle.RuleID] = true
	}
	out := map[string]bool{}
	for _, rule := range rules {
		if !satisfied[rule.ID] {
			continue
		}
		for _, condition := range rule.Conditions {
			out[condition.ProductID] = true
		}
	}
	return out
}

// Evaluate computes the merged free-goods entitlement for the given cart
// contents. It is pure and recomputes from scratch on every call; rule sets
// are small and cart changes are human-paced, so correctness wins over
// incremental bookkeeping.
//
// Per rule: multiplier = min over conditions of floor(cartQty / minQty),
// with absent products counting as zero. A condition with a non-positive
// minimum quantity zeroes the whole rule: a malformed rule never grants a
// reward. Editing lines contribute nothing.
func Evaluate(lines []cartstore.Line, rules []Rule) Result {
	quantities := make(map[string]int, len(lines))
	for _, line := range lines {
		if value, ok := line.Quantity.Value(); ok {
			quantities[line.ProductID] = value
		}
	}

	result := Result{Entitlement: Entitlement{}}
	for _, rule := range rules {
		multiplier := ruleMultiplier(rule, quantities)
		if multiplier <= 0 {
			continue
		}

		granted := make([]Reward, len(rule.Rewards))
		for i, reward := range rule.Rewards {
			granted[i] = Reward{ProductID: reward.ProductID, Quantity: reward.Quantity * multiplier}
			result.Entitlement[reward.ProductID] += granted[i].Quantity
		}
		result.Eligible = append(result.Eligible, EligibleBundle{
			RuleID:         rule.ID,
			Multiplier:     multiplier,
			GrantedRewards: granted,
		})
	}
	return result
}

func ruleMultiplier(rule Rule, quantities map[string]int) int {
	if len(rule.Conditions) == 0 {
		return 0
	}
	multiplier := 0
	for i, condition := range rule.Conditions {
		if condition.MinQuantity <= 0 {
			return 0
		}
		factor := quantities[condition.ProductID] / condition.MinQuantity
		if i == 0 || factor < multiplier {
			multiplier = factor
		}
		if multiplier == 0 {
			return 0
		}
	}
	return multiplier
}
