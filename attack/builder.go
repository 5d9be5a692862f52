package attack

import (
	"log"

	"github.com/matthewm101/yacc-cpack-cache-attack/yacc"
)

// A Builder can build attack controllers.
type Builder struct {
	target        Target
	cache         *yacc.Set
	logger        *log.Logger
	associativity int
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		associativity: 8,
	}
}

// WithTarget sets the victim the controller attacks.
func (b Builder) WithTarget(t Target) Builder {
	b.target = t
	return b
}

// WithCache sets the cache set shared with the victim.
func (b Builder) WithCache(c *yacc.Set) Builder {
	b.cache = c
	return b
}

// WithLogger sets a logger for per-phase progress output. Without one the
// controller runs silently.
func (b Builder) WithLogger(l *log.Logger) Builder {
	b.logger = l
	return b
}

// WithAssociativity sets how many lines the controller flushes to clear
// the set. It must match the cache's associativity.
func (b Builder) WithAssociativity(n int) Builder {
	b.associativity = n
	return b
}

// Build creates a controller with the given name.
func (b Builder) Build(name string) *Controller {
	if b.target == nil {
		panic("attack controller must have a target")
	}

	if b.cache == nil {
		panic("attack controller must have a cache")
	}

	return &Controller{
		name:          name,
		target:        b.target,
		cache:         b.cache,
		logger:        b.logger,
		associativity: b.associativity,
	}
}
