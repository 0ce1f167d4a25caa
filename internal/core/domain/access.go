package domain

const (
	SideSource = "source"
	SideTarget = "target"
)

// SwapAccessGuard decides who may read or act on a swap.
type SwapAccessGuard struct{}

// CanView returns whether the user is the owner or the proposer of the swap,
// or whether the swap is publicly browsable.
func (SwapAccessGuard) CanView(swap *SwapOffer, userID string) bool {
	if swap.Status == SwapStatusPending {
		return true
	}
	return isParty(swap, userID)
}

// CanMutate returns whether the user is the owner or the proposer of the
// swap, regardless of its status.
func (SwapAccessGuard) CanMutate(swap *SwapOffer, userID string) bool {
	return isParty(swap, userID)
}

// AuthorizeCompatibility requires the user to be able to view both swaps and
// returns an *AccessDeniedError naming the first denied side otherwise.
func (g SwapAccessGuard) AuthorizeCompatibility(
	source, target *SwapOffer, userID string,
) error {
	if !g.CanView(source, userID) {
		return &AccessDeniedError{Side: SideSource, SwapID: source.ID}
	}
	if !g.CanView(target, userID) {
		return &AccessDeniedError{Side: SideTarget, SwapID: target.ID}
	}
	return nil
}

func isParty(swap *SwapOffer, userID string) bool {
	if userID == "" {
		return false
	}
	return swap.OwnerID == userID || swap.ProposerID == userID
}
