package clickhouse

import (
	"context"
	sqldriver "database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/rs/zerolog"

	"github.com/leshachaplin/exmanalytics/internal/domain"
)

type Config struct {
	Addr     string `envconfig:"ADDR" default:"localhost:9000"`
	DB       string `envconfig:"DB" default:"exm"`
	Username string `envconfig:"USERNAME" default:"default"`
	Password string `envconfig:"PASSWORD"`
	Debug    bool   `envconfig:"DEBUG"`
}

type Clickhouse struct {
	conn   driver.Conn
	logger zerolog.Logger
}

func New(ctx context.Context, cfg Config, logger zerolog.Logger) (*Clickhouse, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.DB,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: cfg.Debug,
		Debugf: func(format string, v ...any) {
			logger.Debug().Msgf(format, v...)
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		DialTimeout:     time.Second * 30,
		MaxOpenConns:    5,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Duration(10) * time.Minute,
	})
	if err != nil {
		return nil, err
	}

	if err = conn.Ping(ctx); err != nil {
		var exception *clickhouse.Exception
		if errors.As(err, &exception) {
			logger.Error().
				Int32("code", exception.Code).
				Str("stack_trace", exception.StackTrace).
				Msg(exception.Message)
		}
		return nil, err
	}

	return &Clickhouse{
		conn:   conn,
		logger: logger,
	}, nil
}

func (c *Clickhouse) Close() error {
	return c.conn.Close()
}

func (c *Clickhouse) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS interactions
		(
			id          UUID,
			contact_id  UUID,
			campaign_id UUID,
			channel_id  UUID,
			saved_at    DateTime64(3)
		) Engine = ReplacingMergeTree
		ORDER BY id`,
		`CREATE TABLE IF NOT EXISTS interaction_events
		(
			interaction_id   UUID,
			id               UUID,
			kind             String,
			parent_event_id  UUID,
			definition_id    UUID,
			timestamp        DateTime64(3),
			engagement_value Int32,
			duration_ms      Int64,
			message_id       UUID,
			instance_id      UUID,
			manager_root_id  UUID
		) Engine = ReplacingMergeTree
		ORDER BY (interaction_id, id)`,
		`CREATE TABLE IF NOT EXISTS interaction_ip_info
		(
			interaction_id UUID,
			ip             String,
			country        String,
			region         String,
			city           String
		) Engine = ReplacingMergeTree
		ORDER BY interaction_id`,
		`CREATE TABLE IF NOT EXISTS dimensions
		(
			interaction_id UUID,
			dimension_key  String,
			visits         Int32,
			page_views     Int32,
			bounces        Int32,
			value          Int64,
			time_on_site   Int64,
			conversions    Int32,
			count          Int32,
			computed_at    DateTime64(3)
		) Engine = MergeTree
		ORDER BY (dimension_key, computed_at)`,
	}
	for _, stmt := range statements {
		if err := c.conn.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// storeErr marks connection level failures as domain.ErrStoreUnavailable.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	switch {
	case errors.As(err, &netErr),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, sqldriver.ErrBadConn),
		errors.Is(err, clickhouse.ErrAcquireConnTimeout),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET):
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	default:
		return err
	}
}
