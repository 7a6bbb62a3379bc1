package data

import (
	"context"
	"fmt"
	"time"

	"moviereview/internal/biz"
	"moviereview/internal/conf"

	"github.com/glebarez/sqlite"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(
	NewData,
	NewMovieRepo,
	NewReviewRepo,
	NewUserRepo,
	NewOmdbClient,
	NewSessionStore,
	wire.Bind(new(biz.HealthRepo), new(*Data)),
)

// Data encapsulates database and redis connections
type Data struct {
	db  *gorm.DB
	rdb *redis.Client
	log *log.Helper
}

// NewData creates Data instance with database and Redis connections
func NewData(c *conf.Data, logger log.Logger) (*Data, func(), error) {
	l := log.NewHelper(logger)

	dialector, err := openDialector(c.Database)
	if err != nil {
		return nil, nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  newGormLogger(logger),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		l.Errorf("failed to connect to database: %v", err)
		return nil, nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		l.Errorf("failed to get database instance: %v", err)
		return nil, nil, err
	}

	// Configure connection pool
	if c.Database.Driver == "sqlite" {
		// each in-memory connection would otherwise be a separate database
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := migrate(db); err != nil {
		l.Errorf("failed to migrate database: %v", err)
		return nil, nil, err
	}

	l.Infof("%s database connected successfully", c.Database.Driver)

	data := &Data{
		db:  db,
		rdb: newRedis(c.Redis, l),
		log: l,
	}

	cleanup := func() {
		l.Info("closing data resources")
		if data.rdb != nil {
			if err := data.rdb.Close(); err != nil {
				l.Errorf("failed to close redis: %v", err)
			}
		}
		if err := sqlDB.Close(); err != nil {
			l.Errorf("failed to close database: %v", err)
		}
	}

	return data, cleanup, nil
}

func openDialector(c *conf.Data_Database) (gorm.Dialector, error) {
	switch c.Driver {
	case "postgres", "postgresql", "":
		return postgres.Open(c.Source), nil
	case "sqlite":
		return sqlite.Open(c.Source), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.Driver)
	}
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &ProfileImage{}, &Movie{}, &Review{})
}

// newRedis connects to redis; it returns nil when redis is not configured or unreachable.
func newRedis(c *conf.Data_Redis, l *log.Helper) *redis.Client {
	if c == nil || c.Addr == "" {
		l.Info("redis not configured")
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Network:      c.Network,
		Addr:         c.Addr,
		Password:     c.Password,
		ReadTimeout:  c.ReadTimeout.AsDuration(),
		WriteTimeout: c.WriteTimeout.AsDuration(),
	})

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		l.Warnf("failed to connect to redis: %v", err)
		// Redis is optional, sessions fall back to signed cookies
		_ = rdb.Close()
		return nil
	}

	l.Info("redis connected successfully")
	return rdb
}

// Ping reports whether the database answers.
func (d *Data) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return biz.StorageError(err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return biz.StorageError(err)
	}
	return nil
}

type gormWriter struct {
	log *log.Helper
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Warnf(format, args...)
}

func newGormLogger(logger log.Logger) glogger.Interface {
	return glogger.New(gormWriter{log: log.NewHelper(log.With(logger, "module", "gorm"))}, glogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  glogger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}
