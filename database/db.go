package database

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/dnldd/trendbracket/position"
	rqlitehttp "github.com/rqlite/rqlite-go-http"
	"github.com/rs/zerolog"
)

const (
	// SQL statements.
	createPositionTableSQL   = "CREATE TABLE IF NOT EXISTS position (id TEXT PRIMARY KEY, market TEXT, timeframe TEXT, direction TEXT, stoploss REAL, takeprofit REAL, pnlpercent REAL, entryprice REAL, entryindex INTEGER, exitprice REAL, exitindex INTEGER, status TEXT, createdon INTEGER, closedon INTEGER)"
	createMetadataSQL        = "CREATE TABLE IF NOT EXISTS metadata (id TEXT PRIMARY KEY, market TEXT, total INTEGER, wins INTEGER, winpnl REAL, losses INTEGER, losspnl REAL, createdon INTEGER)"
	findPositionSQL          = "SELECT id FROM position WHERE id = ?"
	persistClosedPositionSQL = "INSERT INTO position(id, market, timeframe, direction, stoploss, takeprofit, pnlpercent, entryprice, entryindex, exitprice, exitindex, status, createdon, closedon) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?)"
	upsertMetadataSQL        = "INSERT INTO metadata(id, market, total, wins, winpnl, losses, losspnl, createdon) VALUES(?,?,1,?,?,?,?,?) ON CONFLICT(id) DO UPDATE SET total = total + 1, wins = wins + excluded.wins, winpnl = winpnl + excluded.winpnl, losses = losses + excluded.losses, losspnl = losspnl + excluded.losspnl"
)

// PositionStorer defines the requirements for storing positions.
type PositionStorer interface {
	// PersistClosedPosition stores the provided closed position to the database.
	PersistClosedPosition(ctx context.Context, position *position.Position) error
}

// DatabaseConfig is the configuration for the database.
type DatabaseConfig struct {
	// Endpoint represents the database connection endpoint.
	Endpoint string
	// User is the database user.
	User string
	// Pass is the database user pass.
	Pass string
	// Logger is the database logger.
	Logger *zerolog.Logger
}

// Database represents the database connection.
type Database struct {
	cfg    *DatabaseConfig
	client *rqlitehttp.Client
}

// Ensure the database implements the PositionStorer interface.
var _ PositionStorer = (*Database)(nil)

// NewDatabase initializes a new database connection.
func NewDatabase(ctx context.Context, cfg *DatabaseConfig) (*Database, error) {
	httpc := &http.Client{Timeout: time.Second * 5}
	client, err := rqlitehttp.NewClient(cfg.Endpoint, httpc)
	if err != nil {
		return nil, fmt.Errorf("creating database client: %w", err)
	}

	if cfg.User != "" {
		client.SetBasicAuth(cfg.User, cfg.Pass)
	}

	db := &Database{
		cfg:    cfg,
		client: client,
	}

	err = db.bootstrap(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrapping database: %w", err)
	}

	return db, nil
}

// bootstrap initializes the database.
func (db *Database) bootstrap(ctx context.Context) error {
	resp, err := db.client.Execute(ctx, rqlitehttp.SQLStatements{
		{SQL: createMetadataSQL},
		{SQL: createPositionTableSQL},
	}, &rqlitehttp.ExecuteOptions{
		Transaction: true,
		Timings:     true,
	})
	if err != nil {
		return err
	}

	has, idx, errStr := resp.HasError()
	if has {
		return fmt.Errorf("creating tables: %d -> %s", idx, errStr)
	}

	return nil
}

// generateMetadataID generates deterministic ids for metadata using the
// month, week of the month and market of the provided time.
func generateMetadataID(t time.Time, market string) string {
	month := t.Month().String()
	week := (t.Day()-1)/7 + 1

	id := fmt.Sprintf("%d-%s-Week-%d-%s", t.Year(), month, week, market)
	return id
}

// outcome returns the metadata contribution of the provided closed position.
func outcome(pos *position.Position) (wins int, winPNL float64, losses int, lossPNL float64, err error) {
	if pos.Status == position.Active {
		return 0, 0, 0, 0, fmt.Errorf("position %s is still active", pos.ID)
	}

	switch {
	case pos.PNLPercent > 0:
		return 1, pos.PNLPercent, 0, 0, nil
	default:
		return 0, 0, 1, pos.PNLPercent, nil
	}
}

// PersistClosedPosition stores the provided closed position to the database and
// adds it to the weekly metadata of its market. Positions already stored are ignored.
func (db *Database) PersistClosedPosition(ctx context.Context, pos *position.Position) error {
	wins, winPNL, losses, lossPNL, err := outcome(pos)
	if err != nil {
		db.cfg.Logger.Error().Msgf("unexpected position state for metadata calculations: %s", spew.Sdump(pos))
		return err
	}

	found, err := db.client.QuerySingle(ctx, findPositionSQL, pos.ID)
	if err != nil {
		return fmt.Errorf("finding position %s: %w", pos.ID, err)
	}

	if len(found.GetQueryResultsAssoc()) > 0 {
		db.cfg.Logger.Debug().Msgf("position %s already persisted", pos.ID)
		return nil
	}

	closedOn := time.Unix(int64(pos.ClosedOn), 0).UTC()
	id := generateMetadataID(closedOn, pos.Market)

	resp, err := db.client.Execute(ctx, rqlitehttp.SQLStatements{
		{
			SQL: persistClosedPositionSQL,
			PositionalParams: []any{pos.ID, pos.Market, pos.Timeframe.String(), pos.Direction.String(),
				pos.StopLoss, pos.TakeProfit, pos.PNLPercent, pos.EntryPrice, pos.EntryIndex,
				pos.ExitPrice, pos.ExitIndex, pos.Status.String(), pos.CreatedOn, pos.ClosedOn},
		},
		{
			SQL:              upsertMetadataSQL,
			PositionalParams: []any{id, pos.Market, wins, winPNL, losses, lossPNL, time.Now().Unix()},
		},
	}, &rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
	if err != nil {
		return err
	}

	has, idx, errStr := resp.HasError()
	if has {
		return fmt.Errorf("persisting position %s: %d -> %s", pos.ID, idx, errStr)
	}

	return nil
}
