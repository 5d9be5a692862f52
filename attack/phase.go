package attack

// A Phase names the controller's position in its state machine. Phases only
// advance; no phase is revisited once a byte is resolved, except the second
// ordered guess during disambiguation.
type Phase int

// The attack phases, in order.
const (
	PhaseIdle Phase = iota
	PhasePriming
	PhaseProbing
	PhaseResolving
	PhaseDisambiguating
	PhaseVerifying
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePriming:
		return "priming"
	case PhaseProbing:
		return "probing"
	case PhaseResolving:
		return "resolving"
	case PhaseDisambiguating:
		return "disambiguating"
	case PhaseVerifying:
		return "verifying"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}
