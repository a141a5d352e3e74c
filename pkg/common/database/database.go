package database

import (
	"fmt"
	"sync"

	"github.com/synaptica-ai/conceptsync/pkg/common/config"
	"github.com/synaptica-ai/conceptsync/pkg/common/logger"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var (
	db     *gorm.DB
	dbErr  error
	dbOnce sync.Once
)

// Dialector picks the gorm dialector for the configured terminology store.
// OpenMRS and Bahmni ship on MySQL; postgres is supported for migrated stores.
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case "postgres", "postgresql", "":
		dsn := fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			cfg.PostgresHost,
			cfg.PostgresUser,
			cfg.PostgresPassword,
			cfg.PostgresDB,
			cfg.PostgresPort,
			cfg.PostgresSSLMode,
		)
		return postgres.Open(dsn), nil
	case "mysql", "mariadb":
		return mysql.Open(cfg.MySQLDSN), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

// GetStore returns the process-wide connection to the terminology store. The
// first caller's configuration wins.
func GetStore(cfg *config.Config) (*gorm.DB, error) {
	dbOnce.Do(func() {
		var dialector gorm.Dialector
		dialector, dbErr = Dialector(cfg)
		if dbErr != nil {
			return
		}

		db, dbErr = gorm.Open(dialector, &gorm.Config{
			Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		})
		if dbErr != nil {
			logger.Log.WithError(dbErr).Error("Failed to connect to terminology store")
			return
		}

		logger.Log.WithField("driver", cfg.DBDriver).Info("Connected to terminology store")
	})

	return db, dbErr
}

func CloseStore() error {
	if db != nil {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}
