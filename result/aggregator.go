package result

import "sync"

// Aggregator collects link results from concurrent workers into per-input
// slots while keeping per-input and global totals. Results are placed by
// index, so each input keeps its original link order regardless of the
// order in which checks complete.
type Aggregator struct {
	mu     sync.Mutex
	inputs []InputResult
	filled [][]bool
	stats  Stats
}

// NewAggregator pre-sizes one InputResult per input. sizes[i] is the number
// of links of input i.
func NewAggregator(names []string, sizes []int) *Aggregator {
	agg := &Aggregator{
		inputs: make([]InputResult, len(names)),
		filled: make([][]bool, len(names)),
	}
	for i, name := range names {
		agg.inputs[i] = InputResult{
			FilenameOrURL: name,
			Results:       make([]LinkResult, sizes[i]),
		}
		agg.filled[i] = make([]bool, sizes[i])
	}
	return agg
}

// Add stores r as link idx of input doc and updates the totals. It returns
// false if the slot was already filled; the totals are left untouched then.
func (a *Aggregator) Add(doc, idx int, r LinkResult) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.filled[doc][idx] {
		return false
	}
	a.filled[doc][idx] = true
	a.inputs[doc].Results[idx] = r
	a.inputs[doc].Stats.Add(r)
	a.stats.Add(r)
	return true
}

// Stats returns a snapshot of the global totals.
func (a *Aggregator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// Complete reports whether every slot of every input has been filled.
func (a *Aggregator) Complete() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, slots := range a.filled {
		for _, ok := range slots {
			if !ok {
				return false
			}
		}
	}
	return true
}

// Results returns a copy of the per-input results and the global totals.
func (a *Aggregator) Results() ([]InputResult, Stats) {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]InputResult, len(a.inputs))
	for i, in := range a.inputs {
		results := make([]LinkResult, len(in.Results))
		copy(results, in.Results)
		out[i] = InputResult{
			FilenameOrURL: in.FilenameOrURL,
			Results:       results,
			Stats:         in.Stats,
		}
	}
	return out, a.stats
}
