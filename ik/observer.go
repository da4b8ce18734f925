package ik

// Observer receives the result of every targeted chain solve
// Calls happen synchronously on the solving goroutine
type Observer interface {
	ChainSolved(chain string, r SolveResult)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(chain string, r SolveResult)

func (f ObserverFunc) ChainSolved(chain string, r SolveResult) {
	f(chain, r)
}

type multiObserver []Observer

func (m multiObserver) ChainSolved(chain string, r SolveResult) {
	for _, o := range m {
		o.ChainSolved(chain, r)
	}
}

// Observers fans out to every non-nil observer
func Observers(obs ...Observer) Observer {
	var m multiObserver
	for _, o := range obs {
		switch v := o.(type) {
		case nil:
		case multiObserver:
			m = append(m, v...)
		default:
			m = append(m, o)
		}
	}
	switch len(m) {
	case 0:
		return nil
	case 1:
		return m[0]
	}
	return m
}
