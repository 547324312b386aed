// Package postgresql owns the shared database handle every repository embeds.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"reflect"

	"classroom/backend/foundation/web"
	"classroom/backend/internal/auth"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
)

type Database struct {
	*bun.DB
}

// NewDatabase opens a postgres connection through pgdriver and wraps it with
// bun. Query logging is enabled with the BUNDEBUG env variable.
func NewDatabase(username, password, host, port, name string, disableTLS bool) *Database {
	sslMode := "require"
	if disableTLS {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", username, password, host, port, name, sslMode)

	sqlDB := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqlDB, pgdialect.New())

	db.AddQueryHook(bundebug.NewQueryHook(bundebug.FromEnv("BUNDEBUG")))

	return &Database{DB: db}
}

// CheckClaims pulls the authenticated claims the middleware stored on the
// context. Repositories call it so every mutation is attributed to a user.
func (d *Database) CheckClaims(ctx context.Context) (auth.Claims, error) {
	claims, ok := ctx.Value(auth.Key).(auth.Claims)
	if !ok {
		return auth.Claims{}, web.NewRequestError(errors.New("claims missing from context"), http.StatusUnauthorized)
	}

	return claims, nil
}

// ValidateStruct checks the named fields of a request struct are present
// (non-nil pointers, non-zero values) and reports the missing ones together.
func (d *Database) ValidateStruct(s interface{}, requiredFields ...string) error {
	v := reflect.ValueOf(s)
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return errors.New("validate: expected a struct")
	}

	fields := map[string]string{}
	for _, name := range requiredFields {
		f := v.FieldByName(name)
		if !f.IsValid() {
			fields[name] = "unknown field"
			continue
		}
		switch f.Kind() {
		case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface:
			if f.IsNil() {
				fields[name] = "required"
			}
		default:
			if f.IsZero() {
				fields[name] = "required"
			}
		}
	}

	if len(fields) > 0 {
		err := web.NewRequestError(errors.New("required field is missing"), http.StatusBadRequest)
		err.(*web.Error).Fields = fields
		return err
	}

	return nil
}
