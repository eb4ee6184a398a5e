package profile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "user_profile.json"))
}

func TestLoad_NoFile(t *testing.T) {
	s := newTestStore(t)

	p, err := s.Load()
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load() error = %v, want ErrNotFound", err)
	}
	if p != nil {
		t.Errorf("Load() profile = %+v, want nil", p)
	}
}

func TestSaveAndLoad(t *testing.T) {
	s := newTestStore(t)

	in := &Profile{
		Name:         "Ada",
		CreatedAt:    "2026-10-16",
		MentalHealth: MentalHealth{Mood: "neutral", Stress: "4", Sleep: "7"},
		Plan:         []string{"Do 10 gentle stretches"},
		History:      []CheckIn{{Date: "2026-10-16", Mood: "happy", Completed: "yes"}},
	}
	if err := s.Save(in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out.Name != "Ada" {
		t.Errorf("Name = %q, want %q", out.Name, "Ada")
	}
	if out.MentalHealth.Stress != "4" {
		t.Errorf("Stress = %q, want %q", out.MentalHealth.Stress, "4")
	}
	if len(out.Plan) != 1 || out.Plan[0] != "Do 10 gentle stretches" {
		t.Errorf("Plan = %v", out.Plan)
	}
	if len(out.History) != 1 || out.History[0].Mood != "happy" {
		t.Errorf("History = %v", out.History)
	}
}

func TestSave_WritesIndentedJSONWithSnakeCaseKeys(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save(&Profile{Name: "Ada", CreatedAt: "2026-10-16"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	for _, want := range []string{`"created_at"`, `"mental_health"`, `"plan": []`, `"history": []`, "\n  "} {
		if !strings.Contains(string(data), want) {
			t.Errorf("profile file missing %q:\n%s", want, data)
		}
	}
}

func TestLoad_DefaultsMissingName(t *testing.T) {
	s := newTestStore(t)
	if err := os.WriteFile(s.Path(), []byte(`{"plan":null}`), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Name != DefaultName {
		t.Errorf("Name = %q, want %q", p.Name, DefaultName)
	}
	if p.Plan == nil || p.History == nil {
		t.Errorf("expected non-nil plan and history, got %v / %v", p.Plan, p.History)
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	s := newTestStore(t)
	if err := os.WriteFile(s.Path(), []byte(`{"name":`), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := s.Load()
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
	if errors.Is(err, ErrNotFound) {
		t.Errorf("malformed JSON must not be reported as ErrNotFound")
	}
}

func TestSave_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "profile.json")
	s := NewFileStore(path)

	if err := s.Save(Default()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected profile file at %s: %v", path, err)
	}
}

func TestSave_LeavesNoTempFiles(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 3; i++ {
		if err := s.Save(Default()); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected only the profile file, got %v", names)
	}
}

func TestUpdate_AbsentProfileSeesNil(t *testing.T) {
	s := newTestStore(t)

	var sawNil bool
	p, err := s.Update(func(cur *Profile) (*Profile, error) {
		sawNil = cur == nil
		return &Profile{Name: "Grace"}, nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !sawNil {
		t.Error("expected nil current profile on first update")
	}
	if p.Name != "Grace" {
		t.Errorf("Name = %q, want %q", p.Name, "Grace")
	}

	stored, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if stored.Name != "Grace" {
		t.Errorf("stored Name = %q, want %q", stored.Name, "Grace")
	}
}

func TestUpdate_ErrorAbortsWrite(t *testing.T) {
	s := newTestStore(t)
	boom := errors.New("boom")

	_, err := s.Update(func(cur *Profile) (*Profile, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update error = %v, want boom", err)
	}
	if _, err := s.Load(); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected nothing stored, Load error = %v", err)
	}
}

func TestUpdate_ConcurrentAppendsAreNotLost(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save(Default()); err != nil {
		t.Fatal(err)
	}

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Update(func(cur *Profile) (*Profile, error) {
				cur.History = append(cur.History, CheckIn{Date: "2026-10-16", Mood: "ok", Completed: "yes"})
				return cur, nil
			})
			if err != nil {
				t.Errorf("Update: %v", err)
			}
		}()
	}
	wg.Wait()

	p, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(p.History) != n {
		t.Errorf("history length = %d, want %d", len(p.History), n)
	}
}

func TestSummary(t *testing.T) {
	if got := Summary(nil); !strings.Contains(got, "not yet created") {
		t.Errorf("Summary(nil) = %q", got)
	}

	p := &Profile{
		Name:         "Ada",
		MentalHealth: MentalHealth{Mood: "sad"},
		Plan:         []string{"a", "b"},
		History:      []CheckIn{{Date: "2026-10-15", Mood: "sad", Completed: "no"}},
	}
	got := Summary(p)
	for _, want := range []string{"Ada.", "mood sad", "Plan: a; b.", "mood=sad, completed=no"} {
		if !strings.Contains(got, want) {
			t.Errorf("Summary() = %q, missing %q", got, want)
		}
	}
}
