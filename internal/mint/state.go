package mint

import "where-money-moves/internal/domain"

// transitions lists the valid exits of each state.
// Close bypasses this table and may reset any state to Idle.
var transitions = map[domain.MintState][]domain.MintState{
	domain.MintIdle:           {domain.MintSelecting},
	domain.MintSelecting:      {domain.MintAwaitingWallet, domain.MintIdle},
	domain.MintAwaitingWallet: {domain.MintAwaitingWallet, domain.MintSubmitting, domain.MintIdle},
	domain.MintSubmitting:     {domain.MintConfirming, domain.MintFailed},
	domain.MintConfirming:     {domain.MintSucceeded, domain.MintFailed, domain.MintTimedOut},
	domain.MintSucceeded:      {domain.MintIdle},
	domain.MintFailed:         {domain.MintIdle},
	domain.MintTimedOut:       {domain.MintIdle},
}

// canTransition reports whether from -> to is a valid lifecycle step.
func canTransition(from, to domain.MintState) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
