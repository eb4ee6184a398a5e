package chat

import (
	"errors"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rookguy/healthbot/internal/plan"
	"github.com/rookguy/healthbot/internal/profile"
)

type mockEngine struct {
	profile    *profile.Profile
	loadErr    error
	tasks      []string
	regenCalls int
}

func (m *mockEngine) Current() (*profile.Profile, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.profile == nil {
		return profile.Default(), nil
	}
	return m.profile, nil
}

func (m *mockEngine) RegeneratePlan() ([]string, error) {
	m.regenCalls++
	return m.tasks, nil
}

func TestMatch_Precedence(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		message string
		want    string
	}{
		{"plan", RulePlan},
		{"Give me a PLAN", RulePlan},
		{"plan status", RulePlan},
		{"what's my status", RuleStatus},
		{"check in", RuleStatus},
		{"status update", RuleStatus},
		{"any research news?", RuleResearch},
		{"update me", RuleResearch},
		{"hello there", RuleGreeting},
		{"Hi", RuleGreeting},
		{"thinking", RuleGreeting},
		{"bye", RuleFallback},
		{"", RuleFallback},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			got, ok := Match(rules, tt.message)
			if !ok {
				t.Fatalf("Match(%q) found no rule", tt.message)
			}
			if got.Name != tt.want {
				t.Errorf("Match(%q) = %s, want %s", tt.message, got.Name, tt.want)
			}
		})
	}
}

func TestMatch_NoRules(t *testing.T) {
	if _, ok := Match(nil, "plan"); ok {
		t.Error("expected no match against an empty rule list")
	}
}

func TestRespond_StatusEmptyHistory(t *testing.T) {
	r := NewResponder(&mockEngine{})

	got, err := r.Respond("status")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if got.Text != "No previous check-ins yet." {
		t.Errorf("reply = %q", got.Text)
	}
	if got.Rule != RuleStatus {
		t.Errorf("rule = %q, want %q", got.Rule, RuleStatus)
	}
}

func TestRespond_StatusLastCheckIn(t *testing.T) {
	r := NewResponder(&mockEngine{profile: &profile.Profile{
		Name: "Ada",
		History: []profile.CheckIn{
			{Date: "2026-10-14", Mood: "happy", Completed: "yes"},
			{Date: "2026-10-15", Mood: "sad", Completed: "no"},
		},
	}})

	got, err := r.Respond("check")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if !strings.Contains(got.Text, "mood=sad, completed=no") {
		t.Errorf("reply = %q, want last check-in", got.Text)
	}
}

func TestRespond_Greeting(t *testing.T) {
	r := NewResponder(&mockEngine{profile: &profile.Profile{Name: "Ada"}})

	got, err := r.Respond("hi")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if got.Text != "Hello Ada! How are you today?" {
		t.Errorf("reply = %q", got.Text)
	}
}

func TestRespond_GreetingDefaultName(t *testing.T) {
	r := NewResponder(&mockEngine{})

	got, err := r.Respond("hello")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if !strings.Contains(got.Text, "User") {
		t.Errorf("reply = %q, want default name", got.Text)
	}
}

func TestRespond_Plan(t *testing.T) {
	e := &mockEngine{tasks: []string{"a", "b", "c"}}
	r := NewResponder(e)

	got, err := r.Respond("plan please")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	want := "Here’s your new plan for today:\n- a\n- b\n- c"
	if got.Text != want {
		t.Errorf("reply = %q, want %q", got.Text, want)
	}
	if e.regenCalls != 1 {
		t.Errorf("RegeneratePlan called %d times, want 1", e.regenCalls)
	}
}

func TestRespond_ResearchDoesNotTouchProfile(t *testing.T) {
	e := &mockEngine{loadErr: errors.New("must not load")}
	r := NewResponder(e)

	got, err := r.Respond("research")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	want := "✅ Integrated new strategies: Progressive muscle relaxation, Mindful 3-minute meditation, Digital detox hour"
	if got.Text != want {
		t.Errorf("reply = %q, want %q", got.Text, want)
	}
	if e.regenCalls != 0 {
		t.Error("research must not regenerate the plan")
	}
}

func TestRespond_Fallback(t *testing.T) {
	r := NewResponder(&mockEngine{})

	got, err := r.Respond("what?")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if !strings.HasPrefix(got.Text, "I didn’t understand that.") {
		t.Errorf("reply = %q", got.Text)
	}
}

func TestRespond_LoadErrorPropagates(t *testing.T) {
	boom := errors.New("corrupt profile")
	r := NewResponder(&mockEngine{loadErr: boom})

	_, err := r.Respond("status")
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped %v", err, boom)
	}
}

func TestRespond_CustomRules(t *testing.T) {
	rules := []Rule{
		{Name: "ping", Match: ContainsAny("ping"), Handle: func(Engine) (string, error) { return "pong", nil }},
	}
	r := NewResponderWithRules(&mockEngine{}, rules)

	got, err := r.Respond("PING")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if got.Text != "pong" || got.Rule != "ping" {
		t.Errorf("reply = %+v", got)
	}

	if _, err := r.Respond("nothing"); err == nil {
		t.Error("expected error when no rule matches")
	}
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// TestRespond_WithPlanEngine runs the default rules against a real engine
// and file store.
func TestRespond_WithPlanEngine(t *testing.T) {
	store := profile.NewFileStore(filepath.Join(t.TempDir(), "user_profile.json"))
	e := plan.NewEngineWith(store, fixedClock{time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)}, rand.NewPCG(1, 2))
	r := NewResponder(e)

	got, err := r.Respond("status")
	if err != nil {
		t.Fatalf("Respond(status): %v", err)
	}
	if got.Text != "No previous check-ins yet." {
		t.Errorf("status reply = %q", got.Text)
	}

	if _, err := r.Respond("plan"); err != nil {
		t.Fatalf("Respond(plan): %v", err)
	}
	p, err := store.Load()
	if err != nil {
		t.Fatalf("plan message should persist a profile: %v", err)
	}
	if len(p.Plan) != plan.Size {
		t.Errorf("stored plan = %v", p.Plan)
	}

	if _, err := e.DailyCheckIn("sad", "no"); err != nil {
		t.Fatalf("DailyCheckIn: %v", err)
	}
	got, err = r.Respond("Status?")
	if err != nil {
		t.Fatalf("Respond(status): %v", err)
	}
	if !strings.Contains(got.Text, "mood=sad, completed=no") {
		t.Errorf("status reply = %q", got.Text)
	}
}
