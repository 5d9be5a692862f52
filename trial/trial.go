// Package trial wires a fresh cache, victim, and attacker together for one
// independent run of the extraction attack.
package trial

import (
	"errors"
	"log"

	"github.com/matthewm101/yacc-cpack-cache-attack/attack"
	"github.com/matthewm101/yacc-cpack-cache-attack/mem"
	"github.com/matthewm101/yacc-cpack-cache-attack/victim"
	"github.com/matthewm101/yacc-cpack-cache-attack/yacc"
)

// ErrInvalidConfiguration is returned when a trial is configured with an
// unsupported secret length.
var ErrInvalidConfiguration = errors.New(
	"secret length must be 4 or 8 bytes")

// Setup builds the components of one trial: a victim buffer holding a
// fresh secret drawn from src, and an attacker controller sharing the
// victim's cache. Nothing persists between trials.
func Setup(
	secretLength int,
	src victim.Source,
) (*victim.Buffer, *attack.Controller, error) {
	return SetupWithLogger(secretLength, src, nil)
}

// SetupWithLogger is Setup with a logger attached to the attacker.
func SetupWithLogger(
	secretLength int,
	src victim.Source,
	logger *log.Logger,
) (*victim.Buffer, *attack.Controller, error) {
	if secretLength != 4 && secretLength != 8 {
		return nil, nil, ErrInvalidConfiguration
	}

	cache := yacc.MakeBuilder().
		WithStorage(mem.NewStorage()).
		Build("Cache")

	buffer, err := victim.MakeBuilder().
		WithCache(cache).
		WithSource(src).
		WithSecretLength(secretLength).
		Build("Victim")
	if err != nil {
		return nil, nil, err
	}

	controller := attack.MakeBuilder().
		WithTarget(buffer).
		WithCache(cache).
		WithLogger(logger).
		Build("Attacker")

	return buffer, controller, nil
}
