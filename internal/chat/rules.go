package chat

import (
	"fmt"
	"strings"

	"github.com/rookguy/healthbot/internal/research"
)

// Rule names, also recorded in the interaction journal.
const (
	RulePlan     = "plan"
	RuleStatus   = "status"
	RuleResearch = "research"
	RuleGreeting = "greeting"
	RuleFallback = "fallback"
)

// Rule pairs a predicate over the lowercased message with the handler that
// produces the reply. Rules are evaluated in order and the first match wins.
type Rule struct {
	Name   string
	Match  func(msg string) bool
	Handle func(e Engine) (string, error)
}

// ContainsAny returns a predicate matching messages that contain any of the
// given keywords as a substring.
func ContainsAny(keywords ...string) func(msg string) bool {
	return func(msg string) bool {
		for _, kw := range keywords {
			if strings.Contains(msg, kw) {
				return true
			}
		}
		return false
	}
}

// DefaultRules returns the standard rule list. Order matters: a message
// containing both "plan" and "status" gets a new plan.
func DefaultRules() []Rule {
	return []Rule{
		{Name: RulePlan, Match: ContainsAny("plan"), Handle: handlePlan},
		{Name: RuleStatus, Match: ContainsAny("status", "check"), Handle: handleStatus},
		{Name: RuleResearch, Match: ContainsAny("update", "research"), Handle: handleResearch},
		{Name: RuleGreeting, Match: ContainsAny("hello", "hi"), Handle: handleGreeting},
		{Name: RuleFallback, Match: func(string) bool { return true }, Handle: handleFallback},
	}
}

func handlePlan(e Engine) (string, error) {
	tasks, err := e.RegeneratePlan()
	if err != nil {
		return "", err
	}
	return "Here’s your new plan for today:\n- " + strings.Join(tasks, "\n- "), nil
}

func handleStatus(e Engine) (string, error) {
	p, err := e.Current()
	if err != nil {
		return "", err
	}
	last, ok := p.LastCheckIn()
	if !ok {
		return "No previous check-ins yet.", nil
	}
	return fmt.Sprintf("Last check-in: mood=%s, completed=%s", last.Mood, last.Completed), nil
}

func handleResearch(Engine) (string, error) {
	return "✅ Integrated new strategies: " + strings.Join(research.Strategies(), ", "), nil
}

func handleGreeting(e Engine) (string, error) {
	p, err := e.Current()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Hello %s! How are you today?", p.Name), nil
}

func handleFallback(Engine) (string, error) {
	return "I didn’t understand that. Try asking about your plan, status, or research.", nil
}
