package shoal

// An Infection records a contamination event.
type Infection struct {
	Agent  int // newly contaminated agent
	Source int // contaminator, equal to Agent for the seeded leader
}

// A Propagator spreads contamination through a school.
type Propagator struct {
	Contagion
	Dim  int     // dimension of the simulation
	Vmax float64 // maximum speed enforced on perturbed velocities
	RNG  *RNG
}

// Seed contaminates the agent at index leader using its own velocity
// as the source and tags it as the leader.
func (p *Propagator) Seed(school []Agent, leader int) Infection {
	a := &school[leader]
	if a.Contaminate(a.Vel, p.Scale, p.Mode, p.Dim, p.RNG) {
		a.SetVelocity(a.Vel, p.Vmax)
	}
	a.Tag = Leader
	return Infection{Agent: leader, Source: leader}
}

// Propagate contaminates every clean agent strictly closer than Distance
// to an agent that was contaminated before the call. Clean agents are
// visited in index order and, when several contaminators are in range,
// the one with the lowest index provides the source velocity, so the
// noise drawn from RNG is reproducible. Agents contaminated by this call
// only spread contamination on the next one.
// idx must index the current positions of school.
func (p *Propagator) Propagate(school []Agent, idx *Index) []Infection {
	sick := make([]bool, len(school))
	seeded := false
	for i := range school {
		sick[i] = school[i].Contaminated
		seeded = seeded || sick[i]
	}
	if !seeded {
		return nil
	}

	var out []Infection
	for i := range school {
		if sick[i] {
			continue
		}
		src := -1
		for _, n := range idx.Radius(school[i].Pos, p.Distance) {
			if sick[n.Index] && (src < 0 || n.Index < src) {
				src = n.Index
			}
		}
		if src < 0 {
			continue
		}
		a := &school[i]
		if a.Contaminate(school[src].Vel, p.Scale, p.Mode, p.Dim, p.RNG) {
			a.SetVelocity(a.Vel, p.Vmax)
			out = append(out, Infection{Agent: i, Source: src})
		}
	}
	return out
}
