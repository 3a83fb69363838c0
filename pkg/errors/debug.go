package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Violation names the kind of integrity constraint a database error broke.
type Violation string

const (
	ViolationNone       Violation = ""
	ViolationUnique     Violation = "unique"
	ViolationCheck      Violation = "check"
	ViolationForeignKey Violation = "foreign_key"
	ViolationNotNull    Violation = "not_null"
)

var pgViolations = map[string]Violation{
	"23505": ViolationUnique,
	"23514": ViolationCheck,
	"23503": ViolationForeignKey,
	"23502": ViolationNotNull,
}

var sqliteViolations = map[sqlite3.ErrNoExtended]Violation{
	sqlite3.ErrConstraintUnique:     ViolationUnique,
	sqlite3.ErrConstraintPrimaryKey: ViolationUnique,
	sqlite3.ErrConstraintCheck:      ViolationCheck,
	sqlite3.ErrConstraintForeignKey: ViolationForeignKey,
	sqlite3.ErrConstraintNotNull:    ViolationNotNull,
}

// ErrorDump flattens an error chain for logging. Driver fields are filled
// for whichever of pgx, lib/pq or sqlite3 produced the root cause.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Chain      []string `json:"chain,omitempty"`

	Violation  Violation `json:"violation,omitempty"`
	Constraint string    `json:"constraint,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`

	SQLiteCode         int `json:"sqlite_code,omitempty"`
	SQLiteExtendedCode int `json:"sqlite_extended_code,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	var liteErr sqlite3.Error
	switch {
	case errors.As(err, &pgxErr):
		d.fillPG(pgxErr.Code, pgxErr.ConstraintName, pgxErr.TableName, pgxErr.Detail)
	case errors.As(err, &pqErr):
		d.fillPG(string(pqErr.Code), pqErr.Constraint, pqErr.Table, pqErr.Detail)
	case errors.As(err, &liteErr):
		d.SQLiteCode = int(liteErr.Code)
		d.SQLiteExtendedCode = int(liteErr.ExtendedCode)
		d.Violation = sqliteViolations[liteErr.ExtendedCode]
		if d.Violation != ViolationNone {
			// sqlite reports the offending columns as "constraint failed: table.col, ..."
			if _, target, ok := strings.Cut(liteErr.Error(), "constraint failed: "); ok {
				d.Constraint = target
			}
		}
	}
	return d
}

func (d *ErrorDump) fillPG(code, constraint, table, detail string) {
	d.PGCode = code
	d.PGConstraint = constraint
	d.PGTable = table
	d.PGDetail = detail
	d.Violation = pgViolations[code]
	d.Constraint = constraint
}
