package feed

// Refresher is anything that can be asked to refresh out of cadence.
type Refresher interface {
	Refresh()
}

// Coordinator fans a refresh out to several feeds. It does not wait for
// them and one feed never affects another.
type Coordinator struct {
	feeds []Refresher
}

// NewCoordinator creates a coordinator over feeds.
func NewCoordinator(feeds ...Refresher) *Coordinator {
	return &Coordinator{feeds: feeds}
}

// RefreshAll asks every feed to refresh.
func (c *Coordinator) RefreshAll() {
	for _, f := range c.feeds {
		f.Refresh()
	}
}

// Len returns the number of feeds.
func (c *Coordinator) Len() int {
	return len(c.feeds)
}
