package repositories

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"cloud.google.com/go/civil"
	"github.com/lib/pq"

	"taskcal/internal/apperr"
)

// ErrEmailTaken is returned by UserRepository.Create on a duplicate email.
var ErrEmailTaken = errors.New("email already registered")

// postgres error classes that mean "try again later"
var transientClasses = map[pq.ErrorClass]bool{
	"08": true, // connection exception
	"53": true, // insufficient resources
	"57": true, // operator intervention (admin shutdown, query canceled)
	"40": true, // transaction rollback (serialization failure, deadlock)
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return transientClasses[pqErr.Code.Class()]
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// wrapErr tags collaborator failures as transient and adds op context to the rest.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if isTransient(err) {
		return apperr.Transient(fmt.Errorf("%s: %w", op, err), "storage temporarily unavailable")
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nullDate(d *civil.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func scanDate(nt sql.NullTime) *civil.Date {
	if !nt.Valid {
		return nil
	}
	d := civil.DateOf(nt.Time)
	return &d
}
