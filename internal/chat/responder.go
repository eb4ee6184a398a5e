// Package chat turns free-text messages into canned replies by matching
// keywords against an ordered rule list.
package chat

import (
	"fmt"
	"strings"

	"github.com/rookguy/healthbot/internal/profile"
)

// Engine is the profile access the rules need. Implemented by plan.Engine.
type Engine interface {
	// Current returns the stored profile, or the default one if none exists.
	Current() (*profile.Profile, error)
	// RegeneratePlan replaces the stored plan and returns the new tasks.
	RegeneratePlan() ([]string, error)
}

// Reply is a responder answer together with the rule that produced it.
type Reply struct {
	Text string `json:"reply"`
	Rule string `json:"rule"`
}

// Responder matches messages against rules in order.
type Responder struct {
	engine Engine
	rules  []Rule
}

// NewResponder creates a Responder using DefaultRules.
func NewResponder(e Engine) *Responder {
	return NewResponderWithRules(e, DefaultRules())
}

// NewResponderWithRules creates a Responder with a custom rule list.
func NewResponderWithRules(e Engine, rules []Rule) *Responder {
	return &Responder{engine: e, rules: rules}
}

// Match returns the first rule whose predicate accepts message, compared
// case-insensitively.
func Match(rules []Rule, message string) (Rule, bool) {
	msg := strings.ToLower(message)
	for _, r := range rules {
		if r.Match(msg) {
			return r, true
		}
	}
	return Rule{}, false
}

// Respond answers message with the first matching rule.
func (r *Responder) Respond(message string) (Reply, error) {
	rule, ok := Match(r.rules, message)
	if !ok {
		return Reply{}, fmt.Errorf("no rule matched message")
	}
	text, err := rule.Handle(r.engine)
	if err != nil {
		return Reply{}, fmt.Errorf("rule %s: %w", rule.Name, err)
	}
	return Reply{Text: text, Rule: rule.Name}, nil
}
