// Package classify assigns categories to normalized transactions using
// an ordered rule table: exact MCC match first, then description
// patterns in declaration order, then the uncategorized fallback. The
// same inputs always produce the same category.
package classify

import (
	"context"
	"fmt"
	"regexp"

	"github.com/vesta-fin/vesta/internal/model"
)

// RuleSource supplies the ordered rule table and the fallback leaf.
// Rule order is configuration owned by the store; the classifier never
// mutates the category tree.
type RuleSource interface {
	CategoryRules(ctx context.Context) ([]model.Rule, error)
	EnsureUncategorized(ctx context.Context, t model.CategoryType) (int, error)
}

// Classifier evaluates the rule table snapshotted at construction.
type Classifier struct {
	src      RuleSource
	rules    []model.Rule
	patterns []*regexp.Regexp // compiled per rule, nil for MCC-only rules
}

// New snapshots the rule table and compiles its patterns. Patterns are
// matched case-insensitively against the raw description.
func New(ctx context.Context, src RuleSource) (*Classifier, error) {
	rules, err := src.CategoryRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading category rules: %w", err)
	}

	patterns := make([]*regexp.Regexp, len(rules))
	for i, r := range rules {
		if r.Pattern == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d: compiling pattern %q: %w", i, r.Pattern, err)
		}
		patterns[i] = re
	}
	return &Classifier{src: src, rules: rules, patterns: patterns}, nil
}

// Classify returns a category id for the transaction. It is total:
// when no rule matches, the uncategorized leaf for the transaction's
// direction is returned (created by the store on first use).
func (c *Classifier) Classify(ctx context.Context, txn model.CanonicalTransaction) (int, error) {
	// Stage 1: exact MCC match, highest priority.
	if txn.MCC != "" {
		for _, r := range c.rules {
			if r.MCC != "" && r.MCC == txn.MCC {
				return r.CategoryID, nil
			}
		}
	}

	// Stage 2: pattern rules in declaration order; first match wins.
	for i, r := range c.rules {
		if c.patterns[i] == nil {
			continue
		}
		if c.patterns[i].MatchString(txn.Description) {
			return r.CategoryID, nil
		}
	}

	// Stage 3: fallback.
	id, err := c.src.EnsureUncategorized(ctx, fallbackType(txn))
	if err != nil {
		return 0, fmt.Errorf("ensuring uncategorized category: %w", err)
	}
	return id, nil
}

func fallbackType(txn model.CanonicalTransaction) model.CategoryType {
	if txn.Direction == model.DirectionCredit {
		return model.CategoryIncome
	}
	return model.CategoryExpense
}
