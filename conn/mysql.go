package conn

import (
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"fundfinder-backend/config"
)

// NewMySQL opens the MySQL pool, creating the database first when it does not
// exist yet.
func NewMySQL(cfg *config.Config) (*sql.DB, error) {
	base := mysql.NewConfig()
	base.User = cfg.DBUser
	base.Passwd = cfg.DBPassword
	base.Net = "tcp"
	base.Addr = fmt.Sprintf("%s:%s", cfg.DBHost, cfg.DBPort)
	base.ParseTime = true

	adminDB, err := sql.Open("mysql", base.FormatDSN())
	if err != nil {
		return nil, err
	}
	if err := adminDB.Ping(); err != nil {
		adminDB.Close()
		return nil, err
	}
	if _, err := adminDB.Exec("CREATE DATABASE IF NOT EXISTS `" + cfg.DBName + "` DEFAULT CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci"); err != nil {
		adminDB.Close()
		return nil, err
	}
	adminDB.Close()

	base.DBName = cfg.DBName
	// migration files hold several statements each
	base.MultiStatements = true
	db, err := sql.Open("mysql", base.FormatDSN())
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
