package bundles

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strings"

	pkgerrors "github.com/distroflow/cartcore/pkg/errors"
	"github.com/go-playground/validator/v10"
)

// Condition is one purchase requirement of a bundle rule. All of a rule's
// conditions must be met simultaneously.
type Condition struct {
	ProductID   string
	MinQuantity int
}

// Reward is one free-goods grant, per earned multiplier.
type Reward struct {
	ProductID string
	Quantity  int
}

// Rule is an active "buy X get Y" promotion as supplied by the rule
// catalog service. Rules are read for the duration of one evaluation pass
// and never cached across cart changes.
type Rule struct {
	ID         string
	Name       string
	Conditions []Condition
	Rewards    []Reward
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// RuleInput mirrors the wire shape delivered by the rule catalog service.
type RuleInput struct {
	ID         string           `json:"id" validate:"required"`
	Name       string           `json:"name"`
	Conditions []ConditionInput `json:"conditions" validate:"required,min=1,dive"`
	Rewards    []RewardInput    `json:"rewards" validate:"required,min=1,dive"`
}

type ConditionInput struct {
	ProductID   string `json:"product_id" validate:"required"`
	MinQuantity int    `json:"min_quantity" validate:"required,min=1"`
}

type RewardInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

// ParseRules validates raw rule records and converts them into Rules.
// A rule with no conditions or no rewards is rejected here, loudly,
// rather than silently skipped at evaluation time.
func ParseRules(inputs []RuleInput) ([]Rule, error) {
	rules := make([]Rule, 0, len(inputs))
	for i, input := range inputs {
		if err := validate.Struct(input); err != nil {
			return nil, formatValidationErrors(i, input.ID, err)
		}

		rule := Rule{
			ID:         input.ID,
			Name:       input.Name,
			Conditions: make([]Condition, len(input.Conditions)),
			Rewards:    make([]Reward, len(input.Rewards)),
		}
		for j, c := range input.Conditions {
			rule.Conditions[j] = Condition{ProductID: c.ProductID, MinQuantity: c.MinQuantity}
		}
		for j, r := range input.Rewards {
			rule.Rewards[j] = Reward{ProductID: r.ProductID, Quantity: r.Quantity}
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// LoadRulesFile reads a JSON rule fixture.
func LoadRulesFile(path string) ([]Rule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	var inputs []RuleInput
	if err := json.Unmarshal(raw, &inputs); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rules file")
	}
	return ParseRules(inputs)
}

func formatValidationErrors(index int, ruleID string, err error) *pkgerrors.Error {
	if errs, ok := err.(validator.ValidationErrors); ok {
		fields := map[string]string{}
		for _, fieldErr := range errs {
			fields[fieldErr.Field()] = validationMessage(fieldErr)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid bundle rule").WithDetails(map[string]any{
			"index":   index,
			"rule_id": ruleID,
			"fields":  fields,
		})
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid bundle rule")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must have at least %s", fe.Param())
	}
	return "is invalid"
}
