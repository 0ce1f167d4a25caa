package ports

import "github.com/tdex-network/bookswap/internal/core/domain"

// RepoManager interface defines the methods for swap and auction
// repositories.
type RepoManager interface {
	SwapRepository() domain.SwapRepository
	AuctionRepository() domain.AuctionRepository

	Close()
}
