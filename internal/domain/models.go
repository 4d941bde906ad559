package domain

import "time"

// User is a participant identified by a client-generated UUID.
type User struct {
	ID           int64     `json:"id"`
	ClientUUID   string    `json:"clientUuid"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActiveAt time.Time `json:"lastActiveAt"`
}

// Option is one lettered choice of a dilemma.
type Option struct {
	ID       int64  `json:"id"`
	Letter   string `json:"letter"`
	Feedback string `json:"feedback,omitempty"`
}

// Dilemma is a named scenario with 2-10 ordered options.
type Dilemma struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	OptionsCount int      `json:"optionsCount"`
	Active       bool     `json:"active"`
	Options      []Option `json:"options"`
}

// Feedback returns the static feedback text for a letter, or "" if none.
func (d Dilemma) Feedback(letter string) string {
	for _, opt := range d.Options {
		if opt.Letter == letter {
			return opt.Feedback
		}
	}
	return ""
}

// DilemmaUpdate carries the administrative fields that may change after seeding.
// Nil fields are left untouched.
type DilemmaUpdate struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Active      *bool   `json:"active"`
}

// Empty reports whether the update changes nothing.
func (u DilemmaUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Active == nil
}

// DilemmaSummary is a dilemma together with its completed participant count.
type DilemmaSummary struct {
	Dilemma
	ParticipantCount int `json:"participantCount"`
}

// Decision is one user's participation in one dilemma.
type Decision struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"userId"`
	DilemmaID     int64      `json:"dilemmaId"`
	DilemmaName   string     `json:"dilemmaName,omitempty"`
	InitialChoice string     `json:"initialChoice"`
	FinalChoice   *string    `json:"finalChoice"`
	ChangedMind   *bool      `json:"changedMind"`
	InitialAt     time.Time  `json:"initialAt"`
	FinalAt       *time.Time `json:"finalAt"`
	TimeToDecide  *int       `json:"timeToDecide"`
}

// Completed reports whether the final choice has been recorded.
func (d Decision) Completed() bool {
	return d.FinalChoice != nil
}

// Finalize returns a copy of d with the final choice and derived fields set.
func (d Decision) Finalize(letter string, at time.Time) Decision {
	changed := d.InitialChoice != letter
	elapsed := TimeToDecide(d.InitialAt, at)
	d.FinalChoice = &letter
	d.ChangedMind = &changed
	d.FinalAt = &at
	d.TimeToDecide = &elapsed
	return d
}

// InitialResult is returned after an initial choice is recorded.
type InitialResult struct {
	DecisionID int64  `json:"decisionId"`
	Feedback   string `json:"feedback"`
}

// FinalResult is returned after a final choice is recorded.
type FinalResult struct {
	DecisionID    int64  `json:"decisionId"`
	InitialChoice string `json:"initialChoice"`
	FinalChoice   string `json:"finalChoice"`
	ChangedMind   bool   `json:"changedMind"`
	Path          string `json:"path"`
	TimeToDecide  int    `json:"timeToDecide"`
}

// PathCount is a grouped count of completed decisions sharing a path.
type PathCount struct {
	InitialChoice string
	FinalChoice   string
	Count         int
}

// PathStats is the per-dilemma transition grid.
type PathStats struct {
	DilemmaName    string         `json:"dilemmaName"`
	PathCounts     map[string]int `json:"pathCounts"`
	OptionCounts   map[string]int `json:"optionCounts"`
	TotalCompleted int            `json:"totalCompleted"`
}
