package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/bookswap/internal/core/domain"
	"github.com/tdex-network/bookswap/internal/core/ports"
)

const (
	postgresDriver             = "postgres"
	insecureDataSourceTemplate = "postgresql://%s:%s@%s:%d/%s?sslmode=disable"

	uniqueViolation = "23505"

	connectAttempts = 10
	connectBackoff  = 2 * time.Second
)

type repoManager struct {
	db *sql.DB

	swapRepository    domain.SwapRepository
	auctionRepository domain.AuctionRepository
}

// DbConfig holds the coordinates of the postgres instance. DataSource, if
// defined, takes precedence over the other fields.
type DbConfig struct {
	DataSource string
	DbUser     string
	DbPassword string
	DbHost     string
	DbPort     int
	DbName     string
}

func NewService(dbConfig DbConfig) (ports.RepoManager, error) {
	dataSource := dbConfig.DataSource
	if dataSource == "" {
		dataSource = insecureDataSourceStr(dbConfig)
	}

	db, err := connect(dataSource)
	if err != nil {
		return nil, err
	}

	if err := migrateDb(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating db: %w", err)
	}

	rm := &repoManager{db: db}
	rm.swapRepository = NewSwapRepositoryImpl(db, rm.execTx)
	rm.auctionRepository = NewAuctionRepositoryImpl(db, rm.execTx)

	return rm, nil
}

func (r *repoManager) SwapRepository() domain.SwapRepository {
	return r.swapRepository
}

func (r *repoManager) AuctionRepository() domain.AuctionRepository {
	return r.auctionRepository
}

func (r *repoManager) Close() {
	if err := r.db.Close(); err != nil {
		log.WithError(err).Warn("failed to close postgres connection")
	}
}

type txBody func(ctx context.Context, tx *sql.Tx) error

type execTxFn func(ctx context.Context, body txBody) error

func (r *repoManager) execTx(ctx context.Context, body txBody) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	// Rollback is a no-op once the tx committed.
	defer func() {
		err := tx.Rollback()
		switch {
		case errors.Is(err, sql.ErrTxDone):
			return
		case err != nil:
			log.Errorf("unable to rollback db tx: %v", err)
		}
	}()

	if err := body(ctx, tx); err != nil {
		return err
	}

	return tx.Commit()
}

func connect(dataSource string) (*sql.DB, error) {
	db, err := sql.Open(postgresDriver, dataSource)
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}

	for i := 0; i < connectAttempts; i++ {
		if err = db.Ping(); err == nil {
			return db, nil
		}
		log.Debugf("postgres not reachable yet, retrying in %s", connectBackoff)
		time.Sleep(connectBackoff)
	}
	db.Close()
	return nil, fmt.Errorf("ping failed after %d attempts: %w", connectAttempts, err)
}

func insecureDataSourceStr(dbConfig DbConfig) string {
	return fmt.Sprintf(
		insecureDataSourceTemplate,
		dbConfig.DbUser,
		dbConfig.DbPassword,
		dbConfig.DbHost,
		dbConfig.DbPort,
		dbConfig.DbName,
	)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}
