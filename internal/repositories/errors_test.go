package repositories

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/lib/pq"

	"taskcal/internal/apperr"
)

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"deadline", context.DeadlineExceeded, true},
		{"canceled wrapped", fmt.Errorf("query: %w", context.Canceled), true},
		{"bad conn", driver.ErrBadConn, true},
		{"conn done", sql.ErrConnDone, true},
		{"connection failure", &pq.Error{Code: "08006"}, true},
		{"too many connections", &pq.Error{Code: "53300"}, true},
		{"admin shutdown", &pq.Error{Code: "57P01"}, true},
		{"serialization", &pq.Error{Code: "40001"}, true},
		{"net op error", &net.OpError{Op: "dial", Err: errors.New("refused")}, true},
		{"unique violation", &pq.Error{Code: "23505"}, false},
		{"check violation", &pq.Error{Code: "23514"}, false},
		{"no rows", sql.ErrNoRows, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isTransient(tc.err); got != tc.want {
				t.Errorf("isTransient(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestWrapErr(t *testing.T) {
	if wrapErr("op", nil) != nil {
		t.Fatal("nil must stay nil")
	}

	err := wrapErr("list tasks", context.DeadlineExceeded)
	if !apperr.Is(err, apperr.KindTransient) {
		t.Errorf("deadline: kind = %s", apperr.KindOf(err))
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("cause must stay in the chain")
	}

	err = wrapErr("store task", errors.New("boom"))
	if apperr.KindOf(err) != apperr.KindInternal {
		t.Errorf("plain: kind = %s", apperr.KindOf(err))
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(fmt.Errorf("x: %w", &pq.Error{Code: "23505"})) {
		t.Error("23505 should be a unique violation")
	}
	if isUniqueViolation(&pq.Error{Code: "23503"}) {
		t.Error("23503 is not a unique violation")
	}
}
