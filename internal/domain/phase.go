package domain

// Phase is the single lifecycle state derived from an account snapshot.
// It governs which operations are legal; every mutating operation declares
// the minimum phase it requires.
type Phase string

const (
	PhaseNoAccount Phase = "NO_ACCOUNT"
	PhaseCreated   Phase = "CREATED"
	PhasePending   Phase = "PENDING"
	PhaseApproved  Phase = "APPROVED"
	PhaseRejected  Phase = "REJECTED"
)

// PhaseOf derives the verification phase from a snapshot. Pure: identical
// snapshots always produce the same phase.
//
// REJECTED is intentionally coarse. It is reachable with zero outstanding
// requirements when the processor never received a details submission,
// mirroring the upstream binary signal.
func PhaseOf(account *ConnectedAccount) Phase {
	switch {
	case account == nil || account.ProcessorAccountID == "":
		return PhaseNoAccount
	case account.ChargesEnabled && account.PayoutsEnabled:
		return PhaseApproved
	case account.DetailsSubmitted:
		return PhasePending
	default:
		return PhaseRejected
	}
}

// AtLeast reports whether p satisfies the minimum phase min.
// Ordering is NO_ACCOUNT < CREATED < REJECTED < PENDING < APPROVED;
// only CREATED, PENDING and APPROVED are used as operation minimums.
func (p Phase) AtLeast(min Phase) bool {
	return phaseRank(p) >= phaseRank(min)
}

func phaseRank(p Phase) int {
	switch p {
	case PhaseNoAccount:
		return 0
	case PhaseCreated:
		return 1
	case PhaseRejected:
		return 2
	case PhasePending:
		return 3
	case PhaseApproved:
		return 4
	default:
		return 0
	}
}
