// Package health serves liveness and readiness probes.
//
// Every probe runs on its own ticker. A probe turns unhealthy only after
// FailureThreshold consecutive failures and recovers after SuccessThreshold
// consecutive successes.
package health

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
)

// CheckFunc reports a problem with a dependency, or nil.
type CheckFunc func(ctx context.Context) error

// Kind selects the endpoint a probe contributes to.
type Kind int

const (
	Liveness Kind = iota
	Readiness
)

// Probe describes one periodic check.
type Probe struct {
	Name    string
	Timeout time.Duration
	Check   CheckFunc
	// FailureThreshold defaults to 3.
	FailureThreshold int
	// SuccessThreshold defaults to 1.
	SuccessThreshold int
}

type probeState struct {
	Probe

	healthy atomic.Bool
	lastErr atomic.Pointer[string]

	// Touched only by the probe's own goroutine.
	fails, oks int
}

func (s *probeState) observe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	if err := s.Check(ctx); err != nil {
		msg := err.Error()
		s.lastErr.Store(&msg)
		s.oks = 0
		s.fails++
		if s.fails >= s.FailureThreshold {
			s.healthy.Store(false)
		}
		return
	}

	s.lastErr.Store(nil)
	s.fails = 0
	s.oks++
	if s.oks >= s.SuccessThreshold {
		s.healthy.Store(true)
	}
}

func (s *probeState) failure() (string, bool) {
	if s.healthy.Load() {
		return "", false
	}
	if msg := s.lastErr.Load(); msg != nil {
		return *msg, true
	}
	return "check is unhealthy", true
}

// Registry holds the probes of one process.
type Registry struct {
	ready atomic.Bool

	mu     sync.RWMutex
	probes map[Kind][]*probeState
}

// New returns an empty Registry. It reports not ready until SetReady(true).
func New() *Registry {
	return &Registry{probes: make(map[Kind][]*probeState)}
}

// Register adds a probe. Probes start healthy. Register must be called
// before Run.
func (r *Registry) Register(kind Kind, p Probe) {
	if p.FailureThreshold <= 0 {
		p.FailureThreshold = 3
	}
	if p.SuccessThreshold <= 0 {
		p.SuccessThreshold = 1
	}
	if p.Timeout <= 0 {
		p.Timeout = time.Second
	}
	s := &probeState{Probe: p}
	s.healthy.Store(true)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.probes[kind] = append(r.probes[kind], s)
}

func (r *Registry) snapshot(kind Kind) []*probeState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.probes[kind])
}

// Run executes every probe immediately and then once per interval until ctx
// is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	all := append(r.snapshot(Liveness), r.snapshot(Readiness)...)

	var wg sync.WaitGroup
	for _, s := range all {
		wg.Add(1)
		go func() {
			defer wg.Done()

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				s.observe(ctx)
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
			}
		}()
	}
	wg.Wait()
	return nil
}

// SetReady flips the manual readiness gate, used to drain traffic before
// shutdown.
func (r *Registry) SetReady(ready bool) {
	r.ready.Store(ready)
}

// Ready reports whether the gate is open and every readiness probe passes.
func (r *Registry) Ready() bool {
	if !r.ready.Load() {
		return false
	}
	for _, s := range r.snapshot(Readiness) {
		if _, failed := s.failure(); failed {
			return false
		}
	}
	return true
}

// Handler serves the probes of the given kind. It responds 200 with
// {"status":"ok"} or 503 with the failing probes under "checks".
func (r *Registry) Handler(kind Kind) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		failures := make(map[string]string)
		for _, s := range r.snapshot(kind) {
			if msg, failed := s.failure(); failed {
				failures[s.Name] = msg
			}
		}
		if kind == Readiness && !r.ready.Load() {
			failures["_readiness"] = "service is not ready"
		}
		writeStatus(w, failures)
	})
}

func writeStatus(w http.ResponseWriter, failures map[string]string) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	status := http.StatusOK
	e.ObjStart()
	e.FieldStart("status")
	if len(failures) == 0 {
		e.Str("ok")
	} else {
		status = http.StatusServiceUnavailable
		e.Str("unhealthy")
		e.FieldStart("checks")
		e.ObjStart()
		names := make([]string, 0, len(failures))
		for name := range failures {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			e.FieldStart(name)
			e.Str(failures[name])
		}
		e.ObjEnd()
	}
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
