package inmemory

import (
	"github.com/tdex-network/bookswap/internal/core/domain"
	"github.com/tdex-network/bookswap/internal/core/ports"
)

type RepoManager struct {
	swapRepository    domain.SwapRepository
	auctionRepository domain.AuctionRepository
}

func NewRepoManager() ports.RepoManager {
	return &RepoManager{
		swapRepository:    NewSwapRepositoryImpl(),
		auctionRepository: NewAuctionRepositoryImpl(),
	}
}

func (d *RepoManager) SwapRepository() domain.SwapRepository {
	return d.swapRepository
}

func (d *RepoManager) AuctionRepository() domain.AuctionRepository {
	return d.auctionRepository
}

func (d *RepoManager) Close() {}
