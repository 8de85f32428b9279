package runtime

import "sync/atomic"

// Probe is an observation point on the dataflow reporting the smallest
// epoch still in flight past it (spec §4.1/GLOSSARY). The runtime
// advances it only once every worker has fully drained a batch,
// including the writer flush for that epoch.
type Probe struct {
	frontier atomic.Uint64
}

// Frontier returns the lowest epoch still in flight.
func (p *Probe) Frontier() uint64 {
	return p.frontier.Load()
}

func (p *Probe) advance(epoch uint64) {
	p.frontier.Store(epoch)
}
