package engine

import "github.com/bft-labs/tracescope/internal/domain"

// progressStep is the minimum advance, in percent, between progress events.
const progressStep = 5

// progress throttles progress events for one loading pass. Reports are
// non-decreasing and 100 is reported exactly once, by finish.
type progress struct {
	last int
	emit func(domain.Event)
}

func newProgress(emit func(domain.Event)) *progress {
	return &progress{emit: emit}
}

func (p *progress) update(percent int) {
	if percent >= 100 || percent-p.last < progressStep {
		return
	}
	p.last = percent
	p.emit(domain.Event{Kind: domain.EventProgress, Percent: percent})
}

func (p *progress) finish() {
	p.last = 100
	p.emit(domain.Event{Kind: domain.EventProgress, Percent: 100})
}
