package repositories

import (
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/miciek335/vinted-listing-tracker/internal/entities"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// WAL journal with a 5s busy timeout.
const sqlitePragmas = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

type DbContext struct {
	DB *gorm.DB
}

func NewDbContext(path string) (*DbContext, error) {
	db, err := gorm.Open(sqlite.Open(withPragmas(path)), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	return &DbContext{DB: db}, nil
}

func withPragmas(path string) string {
	if strings.Contains(path, "_pragma=") {
		return path
	}
	if strings.Contains(path, "?") {
		return path + "&" + sqlitePragmas
	}
	return path + "?" + sqlitePragmas
}

func (c *DbContext) Migrate() error {
	return errors.Wrap(c.DB.AutoMigrate(&entities.SeenRecord{}), "migrate seen_listings")
}

func (c *DbContext) Close() error {
	db, err := c.DB.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
