// Package service contains the domain services sitting between the HTTP
// handlers and the repositories: ride creation with its schema-variant
// fallback cascade, and the inbox conversation derivation.
package service

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/convoiexpress95-beep/Fleetcheeckss-sub003/internal/model"
	"github.com/convoiexpress95-beep/Fleetcheeckss-sub003/internal/repository"
)

// RideStore is the single store operation the ride creator needs. The
// concrete implementation is repository.RideRepo; tests substitute a
// fake with call counting.
type RideStore interface {
	InsertRide(ctx context.Context, fields []repository.Field) (uint64, error)
}

// ValidationError reports a request that failed a precondition before
// any store call was made. Handlers translate it into HTTP 400.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// RideService creates rides against a store whose rides-table layout is
// not reliably known at compile time. Deployments differ in column
// naming (driver_id vs user_id, departure vs from_city), in how the
// departure moment is stored (timestamp, bare TIME, or split date+time
// columns) and in the seat-count column name. Rather than probing the
// schema, Create walks a fixed ordered list of payload shapes until the
// store accepts one.
type RideService struct {
	store RideStore
}

// NewRideService returns a RideService bound to the given store.
func NewRideService(store RideStore) *RideService {
	if store == nil {
		panic("nil store passed to NewRideService")
	}
	return &RideService{store: store}
}

// rideDraft is the normalized, fully derived form of a creation
// request. Every value a variant builder might need is computed once
// here so the builders themselves stay pure and deterministic.
type rideDraft struct {
	driverID     string
	departure    string
	destination  string
	timestampISO string // RFC 3339 UTC, e.g. 2025-01-15T08:00:00Z
	dateOnly     string // YYYY-MM-DD
	timeOnly     string // HH:MM:SS
	price        float64
	seats        int
	description  any // nil or string
	optionsJSON  string
	vehicleModel any // nil or string
}

// schemaVariant is one hypothesized backend layout: a stable name, a
// deterministic payload builder, and a classifier predicate telling
// whether a previous attempt's error is the failure this variant
// exists to recover from. Create uses the predicate to jump ahead in
// the static order when a rejection clearly points at a later layout.
type schemaVariant struct {
	name    string
	matches func(msg string) bool
	build   func(d *rideDraft) []repository.Field
}

func missingAny(msg string, columns ...string) bool {
	for _, col := range columns {
		if repository.MissingColumn(msg, col) {
			return true
		}
	}
	return false
}

func currentHead(d *rideDraft) []repository.Field {
	return []repository.Field{
		{Name: "driver_id", Value: d.driverID},
		{Name: "departure", Value: d.departure},
		{Name: "destination", Value: d.destination},
	}
}

func legacyHead(d *rideDraft) []repository.Field {
	return []repository.Field{
		{Name: "user_id", Value: d.driverID},
		{Name: "from_city", Value: d.departure},
		{Name: "to_city", Value: d.destination},
	}
}

// tail appends price, the requested seat column(s) and the optional
// descriptive fields shared by every variant.
func tail(d *rideDraft, seatColumns ...string) []repository.Field {
	fields := []repository.Field{{Name: "price", Value: d.price}}
	for _, col := range seatColumns {
		fields = append(fields, repository.Field{Name: col, Value: d.seats})
	}
	return append(fields,
		repository.Field{Name: "description", Value: d.description},
		repository.Field{Name: "options", Value: d.optionsJSON},
		repository.Field{Name: "vehicle_model", Value: d.vehicleModel},
	)
}

func withTime(head []repository.Field, name string, value string) []repository.Field {
	return append(head, repository.Field{Name: name, Value: value})
}

func splitDateTime(d *rideDraft, withDate, withTimeCol bool) []repository.Field {
	fields := legacyHead(d)
	if withDate {
		fields = append(fields, repository.Field{Name: "date", Value: d.dateOnly})
	}
	if withTimeCol {
		fields = append(fields, repository.Field{Name: "time", Value: d.timeOnly})
	}
	return fields
}

// rideSchemaVariants is the fallback cascade: a static, ordered,
// exhaustive list of the layouts we are prepared to target. Order is
// load-bearing — the first variant that yields an id wins and nothing
// after it is ever attempted.
var rideSchemaVariants = []schemaVariant{
	{
		name: "current+timestamp",
		build: func(d *rideDraft) []repository.Field {
			return append(withTime(currentHead(d), "departure_time", d.timestampISO), tail(d, "seats_total")...)
		},
	},
	{
		name:    "current+time-only",
		matches: repository.TimeTypeMismatch,
		build: func(d *rideDraft) []repository.Field {
			return append(withTime(currentHead(d), "departure_time", d.timeOnly), tail(d, "seats_total")...)
		},
	},
	{
		name: "current+seats",
		matches: func(msg string) bool {
			return repository.MissingColumn(msg, "seats_total") || repository.NotNullColumn(msg, "seats")
		},
		build: func(d *rideDraft) []repository.Field {
			return append(withTime(currentHead(d), "departure_time", d.timestampISO), tail(d, "seats")...)
		},
	},
	{
		name: "current+seats-both",
		matches: func(msg string) bool {
			return repository.NotNullColumn(msg, "seats_total") || repository.NotNullColumn(msg, "seats")
		},
		build: func(d *rideDraft) []repository.Field {
			return append(withTime(currentHead(d), "departure_time", d.timestampISO), tail(d, "seats", "seats_total")...)
		},
	},
	{
		name: "legacy+timestamp",
		matches: func(msg string) bool {
			return missingAny(msg, "driver_id", "departure", "destination")
		},
		build: func(d *rideDraft) []repository.Field {
			return append(withTime(legacyHead(d), "departure_time", d.timestampISO), tail(d, "seats_total")...)
		},
	},
	{
		name:    "legacy+time-only",
		matches: repository.TimeTypeMismatch,
		build: func(d *rideDraft) []repository.Field {
			return append(withTime(legacyHead(d), "departure_time", d.timeOnly), tail(d, "seats_total")...)
		},
	},
	{
		name: "legacy+seats",
		matches: func(msg string) bool {
			return repository.MissingColumn(msg, "seats_total") || repository.NotNullColumn(msg, "seats")
		},
		build: func(d *rideDraft) []repository.Field {
			return append(withTime(legacyHead(d), "departure_time", d.timestampISO), tail(d, "seats")...)
		},
	},
	{
		name: "legacy+split-date-time",
		matches: func(msg string) bool {
			return repository.MissingColumn(msg, "departure_time") ||
				repository.NotNullColumn(msg, "date") || repository.NotNullColumn(msg, "time")
		},
		build: func(d *rideDraft) []repository.Field {
			return append(splitDateTime(d, true, true), tail(d, "seats_total")...)
		},
	},
	{
		name: "legacy+split+departure-iso",
		matches: func(msg string) bool {
			return repository.NotNullColumn(msg, "departure_time")
		},
		build: func(d *rideDraft) []repository.Field {
			return append(withTime(splitDateTime(d, true, true), "departure_time", d.timestampISO), tail(d, "seats_total")...)
		},
	},
	{
		name:    "legacy+split+departure-time-only",
		matches: repository.TimeTypeMismatch,
		build: func(d *rideDraft) []repository.Field {
			return append(withTime(splitDateTime(d, true, true), "departure_time", d.timeOnly), tail(d, "seats_total")...)
		},
	},
	{
		name: "legacy+split-no-time",
		matches: func(msg string) bool {
			return repository.MissingColumn(msg, "time")
		},
		build: func(d *rideDraft) []repository.Field {
			return append(withTime(splitDateTime(d, true, false), "departure_time", d.timestampISO), tail(d, "seats_total")...)
		},
	},
	{
		name: "legacy+split-no-date",
		matches: func(msg string) bool {
			return repository.MissingColumn(msg, "date")
		},
		build: func(d *rideDraft) []repository.Field {
			return append(withTime(splitDateTime(d, false, true), "departure_time", d.timestampISO), tail(d, "seats_total")...)
		},
	},
	{
		name: "legacy+split+seats",
		matches: func(msg string) bool {
			return repository.MissingColumn(msg, "seats_total") || repository.NotNullColumn(msg, "seats")
		},
		build: func(d *rideDraft) []repository.Field {
			return append(splitDateTime(d, true, true), tail(d, "seats")...)
		},
	},
	{
		name: "legacy+split+departure-iso+seats",
		matches: func(msg string) bool {
			return repository.MissingColumn(msg, "seats_total") || repository.NotNullColumn(msg, "seats")
		},
		build: func(d *rideDraft) []repository.Field {
			return append(withTime(splitDateTime(d, true, true), "departure_time", d.timestampISO), tail(d, "seats")...)
		},
	},
}

// Create validates the input and walks the fallback cascade. At most
// one insert is ever treated as authoritative: the first variant the
// store accepts ends the loop and its id is returned. After each
// rejection the error is classified; when a later variant's rationale
// matches the classification the cascade jumps straight to it,
// otherwise it advances one step. When every variant is rejected, the
// error of the *last* attempt is returned untouched, since it is the
// most specific diagnostic available.
//
// Attempts are strictly sequential; the context is consulted between
// attempts only, so a caller that abandons mid-cascade may still see
// the in-flight insert commit.
func (s *RideService) Create(ctx context.Context, driverID string, input model.CreateRideInput) (uint64, error) {
	draft, err := normalizeRide(driverID, input)
	if err != nil {
		return 0, err
	}

	var lastErr error
	attempts := 0
	for i := 0; i < len(rideSchemaVariants); {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		variant := rideSchemaVariants[i]
		attempts++
		id, err := s.store.InsertRide(ctx, variant.build(draft))
		if err == nil {
			if attempts > 1 {
				log.Printf("rides: created id=%d via fallback variant %q after %d attempts", id, variant.name, attempts)
			}
			return id, nil
		}
		lastErr = err

		// Classify the rejection: when a later variant exists precisely
		// to recover from this failure, jump straight to it; otherwise
		// continue down the static order.
		msg := repository.ErrorMessage(err)
		next := i + 1
		for j := i + 1; j < len(rideSchemaVariants); j++ {
			if rideSchemaVariants[j].matches != nil && rideSchemaVariants[j].matches(msg) {
				next = j
				break
			}
		}
		if next > i+1 {
			log.Printf("rides: variant %q rejected (%s); classification selects %q", variant.name, msg, rideSchemaVariants[next].name)
		} else {
			log.Printf("rides: variant %q rejected: %s", variant.name, msg)
		}
		i = next
	}
	return 0, lastErr
}

// normalizeRide enforces the creation preconditions and derives every
// representation of the departure moment the variant builders need.
// A violation returns *ValidationError before any store call.
func normalizeRide(driverID string, input model.CreateRideInput) (*rideDraft, error) {
	if strings.TrimSpace(driverID) == "" {
		return nil, &ValidationError{Reason: "not authenticated"}
	}
	departure := strings.TrimSpace(input.Departure)
	destination := strings.TrimSpace(input.Destination)
	if departure == "" || destination == "" {
		return nil, &ValidationError{Reason: "departure and destination are required"}
	}
	rawTS := strings.TrimSpace(input.DepartureTime)
	if rawTS == "" {
		return nil, &ValidationError{Reason: "departure_time is required"}
	}
	if input.SeatsTotal <= 0 {
		return nil, &ValidationError{Reason: "seats_total must be greater than zero"}
	}
	if input.Price < 0 {
		return nil, &ValidationError{Reason: "price must not be negative"}
	}
	ts, err := time.Parse(time.RFC3339, rawTS)
	if err != nil {
		return nil, &ValidationError{Reason: "departure_time must be an RFC 3339 timestamp"}
	}
	ts = ts.UTC()

	// The raw wall-clock string, when supplied, wins over the time
	// extracted from the timestamp: it is what the user actually typed.
	timeOnly := ts.Format("15:04:05")
	if raw := strings.TrimSpace(input.DepartureRawTime); raw != "" {
		if t, err := time.Parse("15:04", raw); err == nil {
			timeOnly = t.Format("15:04:05")
		}
	}

	options := input.Options
	if options == nil {
		options = []string{}
	}
	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return nil, &ValidationError{Reason: "options could not be encoded"}
	}

	draft := &rideDraft{
		driverID:     strings.TrimSpace(driverID),
		departure:    departure,
		destination:  destination,
		timestampISO: ts.Format(time.RFC3339),
		dateOnly:     ts.Format("2006-01-02"),
		timeOnly:     timeOnly,
		price:        input.Price,
		seats:        input.SeatsTotal,
		optionsJSON:  string(optionsJSON),
	}
	if desc := strings.TrimSpace(input.Description); desc != "" {
		draft.description = desc
	}
	if vm := strings.TrimSpace(input.VehicleModel); vm != "" {
		draft.vehicleModel = vm
	}
	return draft, nil
}
