package plan

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/rookguy/healthbot/internal/profile"
)

// ErrProfileExists is returned by Intake when a profile is already stored.
var ErrProfileExists = errors.New("profile already exists")

// Store defines the profile persistence the Engine needs.
// Implemented by profile.FileStore.
type Store interface {
	Load() (*profile.Profile, error)
	Update(fn profile.UpdateFunc) (*profile.Profile, error)
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// IntakeAnswers are the first-session answers that seed a new profile.
type IntakeAnswers struct {
	Name   string `json:"name"`
	Mood   string `json:"mood"`
	Stress string `json:"stress"`
	Sleep  string `json:"sleep"`
}

// CheckInResult describes what a daily check-in recorded and decided.
type CheckInResult struct {
	Reply string          `json:"reply"`
	Entry profile.CheckIn `json:"entry"`
	Plan  []string        `json:"plan"`
}

// Engine owns the profile lifecycle: intake, plan generation and daily
// check-ins. All mutations go through Store.Update.
type Engine struct {
	store Store
	clock Clock

	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine creates an Engine with a time-seeded random source.
func NewEngine(store Store) *Engine {
	seed := uint64(time.Now().UnixNano())
	return NewEngineWith(store, realClock{}, rand.NewPCG(seed, seed>>1))
}

// NewEngineWith creates an Engine with a custom clock and random source
// (for testing).
func NewEngineWith(store Store, clock Clock, src rand.Source) *Engine {
	return &Engine{
		store: store,
		clock: clock,
		rng:   rand.New(src),
	}
}

// GeneratePlan picks Size distinct catalog tasks uniformly at random and
// replaces p.Plan with them. It does not persist; see RegeneratePlan.
func (e *Engine) GeneratePlan(p *profile.Profile) []string {
	e.mu.Lock()
	perm := e.rng.Perm(len(catalog))
	e.mu.Unlock()

	tasks := make([]string, Size)
	for i := range tasks {
		tasks[i] = catalog[perm[i]]
	}
	p.Plan = tasks
	return append([]string(nil), tasks...)
}

// RegeneratePlan replaces the stored plan with a fresh random one and
// persists it. With nothing stored, the default profile is used and saved.
func (e *Engine) RegeneratePlan() ([]string, error) {
	var tasks []string
	_, err := e.store.Update(func(cur *profile.Profile) (*profile.Profile, error) {
		if cur == nil {
			cur = profile.Default()
		}
		tasks = e.GeneratePlan(cur)
		return cur, nil
	})
	if err != nil {
		return nil, fmt.Errorf("regenerating plan: %w", err)
	}
	slog.Info("plan regenerated", "tasks", len(tasks))
	return tasks, nil
}

// Current returns the stored profile, or the default profile when none is
// stored. Any other load error is returned.
func (e *Engine) Current() (*profile.Profile, error) {
	p, err := e.store.Load()
	if errors.Is(err, profile.ErrNotFound) {
		return profile.Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	return p, nil
}

// Profile returns the stored profile. It returns profile.ErrNotFound when
// intake has not happened yet.
func (e *Engine) Profile() (*profile.Profile, error) {
	return e.store.Load()
}

// Intake creates the profile from first-session answers and generates its
// first plan.
func (e *Engine) Intake(a IntakeAnswers) (*profile.Profile, error) {
	p, err := e.store.Update(func(cur *profile.Profile) (*profile.Profile, error) {
		if cur != nil {
			return nil, ErrProfileExists
		}
		name := strings.TrimSpace(a.Name)
		if name == "" {
			name = profile.DefaultName
		}
		p := &profile.Profile{
			Name:      name,
			CreatedAt: e.today(),
			MentalHealth: profile.MentalHealth{
				Mood:   a.Mood,
				Stress: a.Stress,
				Sleep:  a.Sleep,
			},
			History: []profile.CheckIn{},
		}
		e.GeneratePlan(p)
		return p, nil
	})
	if err != nil {
		return nil, fmt.Errorf("intake: %w", err)
	}
	slog.Info("profile created", "name", p.Name)
	return p, nil
}

// DailyCheckIn appends today's entry to the history and picks tomorrow's
// plan from the completion answer: "no" gets small steps, "partly" a
// balanced plan, anything else a fresh random plan.
func (e *Engine) DailyCheckIn(mood, completed string) (CheckInResult, error) {
	var res CheckInResult
	_, err := e.store.Update(func(cur *profile.Profile) (*profile.Profile, error) {
		if cur == nil {
			return nil, profile.ErrNotFound
		}

		entry := profile.CheckIn{
			Date:      e.today(),
			Mood:      mood,
			Completed: completed,
		}
		cur.History = append(cur.History, entry)

		var reply string
		switch strings.ToLower(completed) {
		case "no":
			reply = "That’s okay 💙 Let’s try smaller steps tomorrow."
			cur.Plan = SmallStepsPlan()
		case "partly":
			reply = "Nice effort 🌱 Tomorrow we’ll balance things better."
			cur.Plan = BalancedPlan()
		default:
			reply = "Amazing 🌟 Let’s keep building on this progress."
			e.GeneratePlan(cur)
		}

		res = CheckInResult{
			Reply: reply,
			Entry: entry,
			Plan:  append([]string(nil), cur.Plan...),
		}
		return cur, nil
	})
	if err != nil {
		return CheckInResult{}, fmt.Errorf("daily check-in: %w", err)
	}
	slog.Info("check-in recorded", "mood", mood, "completed", completed)
	return res, nil
}

func (e *Engine) today() string {
	return e.clock.Now().Format(profile.DateLayout)
}
