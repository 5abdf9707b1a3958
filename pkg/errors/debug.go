package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorDump flattens an error for request logs. Domain rejections carry the rule that
// fired and the aggregate it fired on; storage failures carry the postgres diagnostics.
type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`
	HTTPStatus int    `json:"http_status,omitempty"`
	Retryable  bool   `json:"retryable,omitempty"`

	Rule          string `json:"rule,omitempty"`
	AggregateType string `json:"aggregate_type,omitempty"`
	AggregateID   string `json:"aggregate_id,omitempty"`
	FromStatus    string `json:"from_status,omitempty"`
	Step          string `json:"step,omitempty"`

	Chain []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGCondition  string `json:"pg_condition,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGColumn     string `json:"pg_column,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`
}

// SQLSTATEs the stock and dispatch writes can realistically hit.
var pgConditions = map[string]string{
	"23505": "unique_violation",
	"23503": "foreign_key_violation",
	"23514": "check_violation",
	"23502": "not_null_violation",
	"40001": "serialization_failure",
	"40P01": "deadlock_detected",
	"55P03": "lock_not_available",
	"57014": "query_canceled",
}

// aggregate detail keys, checked in order
var aggregateKeys = []struct {
	key           string
	aggregateType string
}{
	{"dispatch_order_id", "dispatch_order"},
	{"batch_id", "batch"},
	{"sku_id", "sku"},
	{"rider_id", "rider"},
	{"alert_id", "alert"},
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}

	if te := As(err); te != nil {
		meta := MetadataFor(te.Code())
		d.Code = te.Code()
		d.HTTPStatus = meta.HTTPStatus
		d.Retryable = meta.Retryable
		d.Rule = ruleFor(te.Code())
		d.readDetails(te.Details())
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		d.setPG(pgxErr.Code, pgxErr.ConstraintName, pgxErr.TableName, pgxErr.ColumnName, pgxErr.Detail, pgxErr.Message)
		return d
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		d.setPG(string(pqErr.Code), pqErr.Constraint, pqErr.Table, pqErr.Column, pqErr.Detail, pqErr.Message)
	}
	return d
}

func ruleFor(code Code) string {
	switch code {
	case CodeInvalidTransition:
		return "dispatch_lifecycle"
	case CodeInvalidOperation:
		return "inventory_operation"
	case CodeIdempotency:
		return "idempotency_replay"
	default:
		return ""
	}
}

func (d *ErrorDump) readDetails(details any) {
	fields, ok := details.(map[string]any)
	if !ok {
		return
	}
	for _, candidate := range aggregateKeys {
		if v, ok := fields[candidate.key]; ok && v != nil {
			d.AggregateType = candidate.aggregateType
			d.AggregateID = fmt.Sprint(v)
			break
		}
	}
	if v, ok := fields["status"]; ok && v != nil {
		d.FromStatus = fmt.Sprint(v)
	}
	if v, ok := fields["step"]; ok && v != nil {
		d.Step = fmt.Sprint(v)
	}
}

func (d *ErrorDump) setPG(code, constraint, table, column, detail, message string) {
	d.PGCode = code
	d.PGCondition = pgConditions[code]
	d.PGConstraint = constraint
	d.PGTable = table
	d.PGColumn = column
	d.PGDetail = detail
	d.PGMessage = message
}
