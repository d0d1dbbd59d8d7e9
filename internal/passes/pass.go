// Package passes holds the optimization passes and the pipeline that
// schedules them over a module.
package passes

import (
	"sync"

	"github.com/tliron/commonlog"

	"kaizen/internal/ir"
)

// Pass is a single optimization transformation, applied per function.
type Pass interface {
	Name() string
	Description() string

	// FunctionParallel reports whether the pass may run on many functions
	// concurrently. A parallel pass must keep all mutable state local to
	// one Run invocation.
	FunctionParallel() bool

	// Run mutates the function body in place and reports whether it
	// changed anything.
	Run(module *ir.Module, fn *ir.Function) bool
}

// Pipeline manages the sequence of passes.
type Pipeline struct {
	passes []Pass
	log    commonlog.Logger
}

// NewPipeline creates a pipeline with the default passes in order.
func NewPipeline() *Pipeline {
	p := &Pipeline{log: commonlog.GetLogger("kaizen.passes")}
	p.Add(&Vacuum{})
	p.Add(&PushCode{})
	return p
}

// NewEmptyPipeline creates a pipeline with no passes.
func NewEmptyPipeline() *Pipeline {
	return &Pipeline{log: commonlog.GetLogger("kaizen.passes")}
}

// Add appends a pass to the pipeline.
func (p *Pipeline) Add(pass Pass) {
	p.passes = append(p.passes, pass)
}

// Run executes all passes over the module and reports whether any of them
// changed anything.
func (p *Pipeline) Run(m *ir.Module) bool {
	changed := false
	for _, pass := range p.passes {
		p.log.Debugf("running %s: %s", pass.Name(), pass.Description())
		if p.runPass(pass, m) {
			p.log.Debugf("%s changed the module", pass.Name())
			changed = true
		}
	}
	return changed
}

// runPass applies one pass to every function. Function-parallel passes fan
// out with one goroutine per function; each invocation owns its function
// exclusively, so no locking is needed.
func (p *Pipeline) runPass(pass Pass, m *ir.Module) bool {
	if !pass.FunctionParallel() || len(m.Functions) < 2 {
		changed := false
		for _, fn := range m.Functions {
			if pass.Run(m, fn) {
				changed = true
			}
		}
		return changed
	}

	results := make([]bool, len(m.Functions))
	var wg sync.WaitGroup
	for i, fn := range m.Functions {
		wg.Add(1)
		go func(i int, fn *ir.Function) {
			defer wg.Done()
			results[i] = pass.Run(m, fn)
		}(i, fn)
	}
	wg.Wait()

	for _, r := range results {
		if r {
			return true
		}
	}
	return false
}
