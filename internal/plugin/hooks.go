// Package plugin runs user-provided Lua hooks in response to proof
// verdicts. A hook script defines
//
//	function on_proof_state(uri, counts) ... end
//
// which is called after each applied verdict batch with the document
// URI and a table mapping verdict-kind names to marker counts. Hooks
// are best-effort: a script error is logged and the hook skipped, and
// an empty hook list leaves the subsystem inert.
package plugin

import (
	"fmt"
	"log"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/proofpane/internal/verdict"
)

const hookFunction = "on_proof_state"

// hook is one loaded script with its own Lua state. gopher-lua states
// are not goroutine-safe; the Hooks mutex serializes all calls.
type hook struct {
	path string
	L    *lua.LState
}

// Hooks manages the loaded hook scripts.
type Hooks struct {
	mu    sync.Mutex
	hooks []*hook
}

// Load compiles the given scripts. A script that fails to load is
// logged and skipped; the rest still run.
func Load(paths []string) *Hooks {
	h := &Hooks{}
	for _, path := range paths {
		L := lua.NewState()
		if err := L.DoFile(path); err != nil {
			log.Printf("hook %s: %v", path, err)
			L.Close()
			continue
		}
		if L.GetGlobal(hookFunction).Type() != lua.LTFunction {
			log.Printf("hook %s: no %s function, skipping", path, hookFunction)
			L.Close()
			continue
		}
		h.hooks = append(h.hooks, &hook{path: path, L: L})
	}
	return h
}

// Len returns the number of active hooks.
func (h *Hooks) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.hooks)
}

// OnBatch invokes every hook for an applied batch. Hook errors never
// propagate to the caller.
func (h *Hooks) OnBatch(b verdict.Batch) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.hooks) == 0 {
		return
	}

	counts := make(map[verdict.Kind]int, len(verdict.Kinds()))
	for _, m := range b.Markers {
		if m.State != verdict.KindUnknown {
			counts[m.State]++
		}
	}

	for _, hk := range h.hooks {
		if err := hk.call(b.URI, counts); err != nil {
			log.Printf("hook %s: %v", hk.path, err)
		}
	}
}

// call runs the hook function with (uri, counts).
func (hk *hook) call(uri string, counts map[verdict.Kind]int) error {
	L := hk.L
	fn := L.GetGlobal(hookFunction)
	if fn.Type() != lua.LTFunction {
		return fmt.Errorf("%s is no longer a function", hookFunction)
	}

	tbl := L.NewTable()
	for kind, n := range counts {
		L.SetField(tbl, kind.String(), lua.LNumber(n))
	}

	L.Push(fn)
	L.Push(lua.LString(uri))
	L.Push(tbl)
	return L.PCall(2, 0, nil)
}

// Close releases every Lua state. Idempotent.
func (h *Hooks) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, hk := range h.hooks {
		hk.L.Close()
	}
	h.hooks = nil
}
