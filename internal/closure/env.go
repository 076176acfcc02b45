package closure

import (
	"fmt"
	"sync"

	"github.com/chic-lang/chic/internal/mir"
	"github.com/chic-lang/chic/internal/sid"
)

// BuildEnv synthesizes a mir.ClosureEnvDescriptor for a lambda whose
// free variables are names, given callbacks to resolve each capture's
// type and by-reference mode. Capture order follows names, which
// FreeVars already returns sorted, so the env layout is deterministic
// independent of source-text capture order.
func BuildEnv(envTypeName string, names []string, typeOf func(name string) *mir.Ty, byRef func(name string) bool) *mir.ClosureEnvDescriptor {
	captures := make([]mir.CapturedVar, len(names))
	for i, n := range names {
		captures[i] = mir.CapturedVar{
			Name:  n,
			Type:  typeOf(n),
			ByRef: byRef(n),
		}
	}
	return &mir.ClosureEnvDescriptor{EnvTypeName: envTypeName, Captures: captures}
}

// CaptureCache memoizes capture analysis results, keyed on the
// enclosing function's name, the lambda's encoded form, and an
// optional list of generic bindings (see Key). A lambda's
// free-variable set can differ across generic instantiations of its
// enclosing function; the body builder keeps those apart through the
// enclosing name, which for a specialization is its mangled name, and
// passes no binding list. See DESIGN.md Open Question resolution 3.
type CaptureCache struct {
	mu      sync.RWMutex
	entries map[sid.Hash]*mir.ClosureEnvDescriptor
}

// NewCaptureCache creates an empty cache.
func NewCaptureCache() *CaptureCache {
	return &CaptureCache{entries: make(map[sid.Hash]*mir.ClosureEnvDescriptor)}
}

// Key computes the cache key for a lambda given its source span-stable
// textual form and the sorted "name=bound" pairs of the enclosing
// generics environment.
func Key(namespace string, lambdaText string, sortedGenericsEnv []string) sid.Hash {
	env := make([]byte, 0, 64)
	for i, kv := range sortedGenericsEnv {
		if i > 0 {
			env = append(env, ',')
		}
		env = append(env, kv...)
	}
	return sid.ContentHash(namespace, []byte(lambdaText), env)
}

// Get returns the cached descriptor for key, if present.
func (c *CaptureCache) Get(key sid.Hash) (*mir.ClosureEnvDescriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.entries[key]
	return d, ok
}

// Put records the descriptor for key.
func (c *CaptureCache) Put(key sid.Hash, d *mir.ClosureEnvDescriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = d
}

// EnvTypeName produces a deterministic synthesized environment type
// name for a lambda identified by its enclosing function name and an
// ordinal (the Nth lambda lowered within that function), following the
// teacher's convention of deriving synthesized names from the
// enclosing declaration rather than gensym counters alone.
func EnvTypeName(enclosingFunc string, ordinal int) string {
	return fmt.Sprintf("%s$closure%d$Env", enclosingFunc, ordinal)
}
