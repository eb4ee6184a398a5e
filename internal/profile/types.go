package profile

// DefaultName is used whenever a profile has no name.
const DefaultName = "User"

// DateLayout is the format of every date string stored in a profile.
const DateLayout = "2006-01-02"

// Profile is the single persisted user record: intake answers, the current
// plan, and the check-in history.
type Profile struct {
	Name         string       `json:"name"`
	CreatedAt    string       `json:"created_at,omitempty"`
	MentalHealth MentalHealth `json:"mental_health"`
	Plan         []string     `json:"plan"`
	History      []CheckIn    `json:"history"`
}

// MentalHealth holds the free-text answers collected at intake.
type MentalHealth struct {
	Mood   string `json:"mood"`
	Stress string `json:"stress"`
	Sleep  string `json:"sleep"`
}

// CheckIn is one day's logged mood and task completion.
type CheckIn struct {
	Date      string `json:"date"`
	Mood      string `json:"mood"`
	Completed string `json:"completed"`
}

// Default returns the transient profile used when nothing is stored yet.
func Default() *Profile {
	return &Profile{
		Name:    DefaultName,
		Plan:    []string{},
		History: []CheckIn{},
	}
}

// LastCheckIn returns the most recent history entry, if any.
func (p *Profile) LastCheckIn() (CheckIn, bool) {
	if len(p.History) == 0 {
		return CheckIn{}, false
	}
	return p.History[len(p.History)-1], true
}

// normalize fills defaults so the rest of the code never sees a nameless
// profile or null lists.
func (p *Profile) normalize() {
	if p.Name == "" {
		p.Name = DefaultName
	}
	if p.Plan == nil {
		p.Plan = []string{}
	}
	if p.History == nil {
		p.History = []CheckIn{}
	}
}

// Clone returns a deep copy of p.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Plan = append([]string(nil), p.Plan...)
	cp.History = append([]CheckIn(nil), p.History...)
	cp.normalize()
	return &cp
}
