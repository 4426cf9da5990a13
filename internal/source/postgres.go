package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/quantlayer/tradecache/pkg/types"
)

// PostgresStore implements Store against a PostgreSQL trade archive.
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL connection configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStore opens and pings a PostgreSQL trade store.
func NewPostgresStore(cfg *PostgresConfig) (*PostgresStore, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-trade-store-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresStore{
		db:     db,
		logger: cfg.Logger,
	}, nil
}

// newPostgresStoreWithDB wires an existing handle, used by sqlmock tests.
func newPostgresStoreWithDB(db *sql.DB, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

// FetchRange returns the ordered trades for instrumentID in [start, end).
func (p *PostgresStore) FetchRange(ctx context.Context, instrumentID string, start, end time.Time) ([]types.Trade, error) {
	timer := prometheus.NewTimer(FetchDuration)
	defer timer.ObserveDuration()

	query := `
		SELECT ts, price, volume, seq, direction
		FROM trades
		WHERE instrument_id = $1 AND ts >= $2 AND ts < $3
		ORDER BY ts, seq
	`

	rows, err := p.db.QueryContext(ctx, query, instrumentID, start, end)
	if err != nil {
		FetchesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("query trades: %w: %v", types.ErrSourceUnavailable, err)
	}
	defer rows.Close()

	var trades []types.Trade
	for rows.Next() {
		t := types.Trade{InstrumentID: instrumentID}
		err = rows.Scan(&t.Timestamp, &t.Price, &t.Volume, &t.Sequence, &t.Direction)
		if err != nil {
			FetchesTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("scan trade: %w: %v", types.ErrSourceUnavailable, err)
		}
		trades = append(trades, t)
	}

	err = rows.Err()
	if err != nil {
		FetchesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("iterate trades: %w: %v", types.ErrSourceUnavailable, err)
	}

	// An empty range is valid for a known instrument; distinguish it from an
	// unknown instrument so the caller sees not-found, not an empty bucket.
	if len(trades) == 0 {
		known, err := p.instrumentExists(ctx, instrumentID)
		if err != nil {
			FetchesTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		if !known {
			FetchesTotal.WithLabelValues("not_found").Inc()
			return nil, fmt.Errorf("instrument %q: %w", instrumentID, types.ErrInstrumentNotFound)
		}
	}

	FetchesTotal.WithLabelValues("ok").Inc()
	TradesFetched.Add(float64(len(trades)))

	p.logger.Debug("trades-fetched",
		zap.String("instrument-id", instrumentID),
		zap.Time("start", start),
		zap.Time("end", end),
		zap.Int("count", len(trades)))

	return trades, nil
}

// Bounds returns the instrument's earliest and latest trade timestamps.
func (p *PostgresStore) Bounds(ctx context.Context, instrumentID string) (time.Time, time.Time, error) {
	query := `
		SELECT MIN(ts), MAX(ts)
		FROM trades
		WHERE instrument_id = $1
	`

	var earliest, latest sql.NullTime
	err := p.db.QueryRowContext(ctx, query, instrumentID).Scan(&earliest, &latest)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("query bounds: %w: %v", types.ErrSourceUnavailable, err)
	}

	if !earliest.Valid || !latest.Valid {
		return time.Time{}, time.Time{}, fmt.Errorf("instrument %q: %w", instrumentID, types.ErrInstrumentNotFound)
	}

	return earliest.Time, latest.Time, nil
}

func (p *PostgresStore) instrumentExists(ctx context.Context, instrumentID string) (bool, error) {
	var exists bool
	err := p.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM instruments WHERE id = $1)`, instrumentID,
	).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("instrument lookup: %w: %v", types.ErrSourceUnavailable, err)
	}
	return exists, nil
}

// Ping checks database connectivity. Used by the readiness probe.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the database connection.
func (p *PostgresStore) Close() error {
	p.logger.Info("closing-postgres-trade-store")
	return p.db.Close()
}
