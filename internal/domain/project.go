package domain

// Member is a student assigned to a project, identified by login.
type Member struct {
	// Login is the student identifier used as the roster key.
	Login string
	// Contribution is this member's individual contribution score.
	// It is nil when the configuration lists the member without a score.
	Contribution *float64
}

// Project is a named group of students sharing a presentation score and
// a single mark set, with contribution scores held per member.
type Project struct {
	Name         string
	Members      []Member
	Presentation float64
}

// Logins returns the member logins in configuration order.
func (p Project) Logins() []string {
	out := make([]string, len(p.Members))
	for i, m := range p.Members {
		out[i] = m.Login
	}
	return out
}
