package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors. Callers match them with errors.Is.
var (
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrProductNotFound      = errors.New("product not found")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrDuplicateOrderNumber = errors.New("duplicate order number")
	ErrNotFound             = errors.New("not found")
	ErrInvalidTransition    = errors.New("invalid status transition")
)

// ValidationError describes why a single order line cannot be committed.
type ValidationError struct {
	Err       error
	Line      int // 1-based position in the submitted items
	ProductID int
	Details   string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("line %d: %s", e.Line, e.Err.Error())
	if e.Details != "" {
		msg += ": " + e.Details
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidationErrors is the full list of line failures for a rejected batch.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return "order rejected: " + strings.Join(msgs, "; ")
}

// Unwrap exposes every line failure so errors.Is matches any of their sentinels.
func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, len(v))
	for i, e := range v {
		errs[i] = e
	}
	return errs
}

// Postgres SQLSTATE codes mapped onto domain errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

const orderNumberConstraint = "sale_orders_order_number_key"

func pgErrorCode(err error) (code, constraint string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}

func isOrderNumberConflict(err error) bool {
	code, constraint := pgErrorCode(err)
	return code == pgUniqueViolation && constraint == orderNumberConstraint
}

func isForeignKeyViolation(err error) bool {
	code, _ := pgErrorCode(err)
	return code == pgForeignKeyViolation
}

func isCheckViolation(err error) bool {
	code, _ := pgErrorCode(err)
	return code == pgCheckViolation
}
