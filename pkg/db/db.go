package db

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/codeoc/dashboard/pkg/db/models"
)

type DB struct {
	DB *gorm.DB
}

func New(dsn string, logLevel logger.LogLevel) (*DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	return &DB{
		DB: db,
	}, nil
}

// UpdateSchema creates or migrates the tables the dashboard owns.
func (d *DB) UpdateSchema() error {
	log.Info("migrating database schema")
	if err := d.DB.AutoMigrate(&models.ReportSnapshot{}); err != nil {
		return errors.Wrap(err, "could not migrate report snapshots")
	}
	return nil
}
