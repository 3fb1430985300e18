package assistant

import (
	"sort"
	"strings"
)

// Intent is the entity kind an utterance asks to create.
type Intent string

const (
	IntentNone      Intent = "none"
	IntentCustomer  Intent = "customer"
	IntentWorkOrder Intent = "work_order"
	IntentProduct   Intent = "product"
)

var intentPriority = map[Intent]int{
	IntentCustomer:  0,
	IntentWorkOrder: 1,
	IntentProduct:   2,
}

var intentModes = map[Intent]Mode{
	IntentCustomer:  ModeCustomer,
	IntentWorkOrder: ModeWorkOrder,
	IntentProduct:   ModeProduct,
}

// IntentRule lists the trigger phrases that start one kind of flow.
type IntentRule struct {
	Intent  Intent
	Phrases []string
}

// DefaultIntentRules is used when no phrase table is configured.
var DefaultIntentRules = []IntentRule{
	{
		Intent: IntentCustomer,
		Phrases: []string{
			"novo cliente", "cadastrar cliente", "criar cliente", "adicionar cliente",
			"add customer", "new customer", "register customer", "create customer",
		},
	},
	{
		Intent: IntentWorkOrder,
		Phrases: []string{
			"nova os", "nova ordem de serviço", "nova ordem de servico", "abrir os", "criar os",
			"new work order", "add work order", "create work order",
		},
	},
	{
		Intent: IntentProduct,
		Phrases: []string{
			"novo produto", "cadastrar produto", "adicionar produto",
			"add product", "new product", "register product", "create product",
		},
	},
}

// Classifier maps an utterance to the first intent whose phrase it contains.
type Classifier struct {
	rules []IntentRule
}

// NewClassifier normalizes rules and orders them customer, work order, product.
// Unknown intents and blank phrases are dropped.
func NewClassifier(rules []IntentRule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultIntentRules
	}

	normalized := make([]IntentRule, 0, len(rules))
	for _, rule := range rules {
		if _, ok := intentPriority[rule.Intent]; !ok {
			continue
		}

		phrases := make([]string, 0, len(rule.Phrases))
		for _, phrase := range rule.Phrases {
			phrase = strings.ToLower(strings.TrimSpace(phrase))
			if phrase != "" {
				phrases = append(phrases, phrase)
			}
		}
		if len(phrases) > 0 {
			normalized = append(normalized, IntentRule{Intent: rule.Intent, Phrases: phrases})
		}
	}

	sort.SliceStable(normalized, func(i, j int) bool {
		return intentPriority[normalized[i].Intent] < intentPriority[normalized[j].Intent]
	})

	return &Classifier{rules: normalized}
}

// Classify expects a lowercased utterance.
func (c *Classifier) Classify(lowered string) Intent {
	if c == nil {
		return IntentNone
	}

	for _, rule := range c.rules {
		for _, phrase := range rule.Phrases {
			if strings.Contains(lowered, phrase) {
				return rule.Intent
			}
		}
	}

	return IntentNone
}
