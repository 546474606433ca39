package logging

const defaultProgressStep = 10

// ProgressSampler thins "n of N complete" logging to one line per percentage
// step. The first sample and the final unit are always reported.
type ProgressSampler struct {
	step int
	last int
}

// NewProgressSampler reports once per step percent. Steps outside 1..100
// fall back to 10.
func NewProgressSampler(step int) *ProgressSampler {
	if step <= 0 || step > 100 {
		step = defaultProgressStep
	}
	return &ProgressSampler{step: step, last: -1}
}

// Sample returns the completion percentage and whether it starts a new step.
// A nil sampler reports every sample.
func (s *ProgressSampler) Sample(done, total int) (int, bool) {
	if total <= 0 {
		return 100, true
	}
	done = min(max(done, 0), total)
	percent := done * 100 / total
	if s == nil {
		return percent, true
	}

	mark := percent / s.step
	if done == total {
		// Lands past every regular step so 100% logs even when it shares
		// a step with the previous sample.
		mark = 100/s.step + 1
	}
	if mark <= s.last {
		return percent, false
	}
	s.last = mark
	return percent, true
}

// Reset forgets the last reported step.
func (s *ProgressSampler) Reset() {
	if s != nil {
		s.last = -1
	}
}
