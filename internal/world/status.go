package world

// AgentStatus is an operator-facing read model of one agent, consumed by
// internal/api's GET /status and the worldctl status table.
type AgentStatus struct {
	ID                 string
	Name               string
	SocialBattery      float64
	ActivePartners     []string
	ActiveIntention    string
	IntentionStatus    string
	Emotions           map[string]float64
}

// Snapshot returns a point-in-time, insertion-ordered view of every agent in
// the world. Safe to call concurrently with a running tick loop; it only
// reads state already owned by completed ticks.
func (w *World) Snapshot() []AgentStatus {
	w.mu.Lock()
	order := append([]string(nil), w.order...)
	agents := make(map[string]*AgentStatus, len(order))
	for _, id := range order {
		ag := w.agents[id]
		if ag == nil {
			continue
		}
		st := AgentStatus{
			ID: ag.ID, Name: ag.Name, SocialBattery: ag.SocialBattery,
			ActivePartners: append([]string(nil), ag.ActivePartners...),
			Emotions: map[string]float64{
				"happiness": ag.Emotions.Happiness, "sadness": ag.Emotions.Sadness,
				"anger": ag.Emotions.Anger, "fear": ag.Emotions.Fear,
				"loneliness": ag.Emotions.Loneliness, "comfort": ag.Emotions.Comfort,
			},
		}
		if in := ag.ActiveIntention(); in != nil {
			st.ActiveIntention = in.DesireDescription
			st.IntentionStatus = string(in.Status)
		}
		agents[id] = &st
	}
	w.mu.Unlock()

	out := make([]AgentStatus, 0, len(order))
	for _, id := range order {
		if st := agents[id]; st != nil {
			out = append(out, *st)
		}
	}
	return out
}

// TickCount returns the number of ticks executed so far.
func (w *World) TickCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tickCount
}
