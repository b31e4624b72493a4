package database

import (
	"fmt"
	"net/url"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose"

	"github.com/classcheck/classcheck/core"
)

func connURL(conf core.DatabaseConfig, asAdmin bool, dbName string) string {
	sslMode := "require"
	if conf.DisableTLS {
		sslMode = "disable"
	}
	usr, pwd := conf.User, conf.Password
	if asAdmin {
		usr, pwd = conf.AdminUser, conf.AdminPassword
	}
	u := url.URL{
		Scheme:   conf.Engine,
		User:     url.UserPassword(usr, pwd),
		Host:     conf.Address(),
		Path:     dbName,
		RawQuery: url.Values{"sslmode": []string{sslMode}}.Encode(),
	}
	return u.String()
}

// Open connects to the application database and pings it.
func Open() (*sqlx.DB, error) {
	conf := core.Conf.Database
	db, err := sqlx.Connect(conf.Engine, connURL(conf, false, conf.Name))
	return db, errors.Wrap(err, "connecting to database")
}

// CreateIfNotExist provisions the application role and database using the
// admin credentials. Intended for local and CI setups.
func CreateIfNotExist() error {
	conf := core.Conf.Database
	adminDB, err := sqlx.Connect(conf.Engine, connURL(conf, true, conf.Engine))
	if err != nil {
		return errors.Wrap(err, "connecting as admin")
	}
	defer adminDB.Close()

	var exists bool
	if err := adminDB.Get(&exists,
		"SELECT EXISTS(SELECT 1 FROM pg_roles WHERE rolname = $1)", conf.User); err != nil {
		return errors.Wrap(err, "checking role")
	}
	if !exists {
		stmt := fmt.Sprintf("CREATE USER %s WITH PASSWORD '%s'", conf.User, conf.Password)
		if _, err := adminDB.Exec(stmt); err != nil {
			return errors.Wrap(err, "creating role")
		}
	}

	if err := adminDB.Get(&exists,
		"SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", conf.Name); err != nil {
		return errors.Wrap(err, "checking database")
	}
	if !exists {
		stmt := fmt.Sprintf("CREATE DATABASE %s OWNER %s", conf.Name, conf.User)
		if _, err := adminDB.Exec(stmt); err != nil {
			return errors.Wrap(err, "creating database")
		}
	}
	return nil
}

// Migrate runs a goose command ("up", "down", "status", ...) against the
// configured migrations dir.
func Migrate(db *sqlx.DB, command string, args ...string) error {
	if err := goose.SetDialect(core.Conf.Database.Engine); err != nil {
		return errors.Wrap(err, "setting dialect")
	}
	return errors.Wrapf(
		goose.Run(command, db.DB, core.Conf.Database.MigrationsDir, args...),
		"goose %s", command)
}
