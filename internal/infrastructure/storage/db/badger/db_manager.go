package dbbadger

import (
	"encoding/gob"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/bookswap/internal/core/domain"
	"github.com/tdex-network/bookswap/internal/core/ports"
	"github.com/timshannon/badgerhold/v4"
)

const (
	maxUpdateAttempts = 10
	gcInterval        = 30 * time.Minute
)

func init() {
	// Proposal bodies are stored behind an interface.
	gob.Register(domain.BookingProposal{})
	gob.Register(domain.CashProposal{})
}

type repoManager struct {
	store       *badgerhold.Store
	swapRepo    domain.SwapRepository
	auctionRepo domain.AuctionRepository
	quit        chan struct{}
}

// NewRepoManager opens (or creates if not exists) the badger store in the
// given datadir. An empty datadir makes the store in-memory.
func NewRepoManager(
	baseDbDir string, logger badger.Logger,
) (ports.RepoManager, error) {
	var mainDir string
	if len(baseDbDir) > 0 {
		mainDir = filepath.Join(baseDbDir, "main")
	}

	quit := make(chan struct{})
	store, err := createDb(mainDir, logger, quit)
	if err != nil {
		return nil, fmt.Errorf("opening main db: %w", err)
	}

	return &repoManager{
		store:       store,
		swapRepo:    NewSwapRepositoryImpl(store),
		auctionRepo: NewAuctionRepositoryImpl(store),
		quit:        quit,
	}, nil
}

func (d *repoManager) SwapRepository() domain.SwapRepository {
	return d.swapRepo
}

func (d *repoManager) AuctionRepository() domain.AuctionRepository {
	return d.auctionRepo
}

func (d *repoManager) Close() {
	close(d.quit)
	if err := d.store.Close(); err != nil {
		log.WithError(err).Warn("failed to close badger store")
	}
}

func createDb(
	dbDir string, logger badger.Logger, quit chan struct{},
) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, err
	}

	if !isInMemory {
		ticker := time.NewTicker(gcInterval)

		go func() {
			defer ticker.Stop()
			for {
				select {
				case <-quit:
					return
				case <-ticker.C:
					if err := db.Badger().RunValueLogGC(0.5); err != nil &&
						err != badger.ErrNoRewrite {
						log.Error(err)
					}
				}
			}
		}()
	}

	return db, nil
}

// update runs txBody in a read-write transaction and retries it when the
// commit conflicts with a concurrent one.
func update(store *badgerhold.Store, txBody func(tx *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err = store.Badger().Update(txBody)
		if err != badger.ErrConflict {
			return err
		}
		log.Debugf("badger transaction conflict, retrying (%d)", attempt+1)
	}
	return err
}
