// Package retry re-runs fallible actions under composable strategies.
package retry

// Action is a unit of work that may be attempted more than once.
type Action func() error

// Retrier applies the same strategies to every action it runs.
type Retrier struct {
	strategies []Strategy
}

// NewRetrier returns a Retrier over strategies. With none, it retries until
// the action succeeds.
func NewRetrier(strategies ...Strategy) *Retrier {
	return &Retrier{strategies: strategies}
}

func (r *Retrier) Retry(action Action) (uint, error) {
	return Retry(action, r.strategies...)
}

// Retry runs action until it succeeds or a strategy declines another attempt,
// returning the number of attempts made and the last error.
//
// Strategies are consulted in order and the first refusal wins, so strategies
// with side effects such as sleeping belong at the end.
func Retry(action Action, strategies ...Strategy) (attempts uint, err error) {
	for attempts = 1; ; attempts++ {
		if err = action(); err == nil {
			return attempts, nil
		}

		for _, s := range strategies {
			if !s(attempts, err) {
				return attempts, err
			}
		}
	}
}
