package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convoiexpress95-beep/Fleetcheeckss-sub003/internal/model"
	"github.com/convoiexpress95-beep/Fleetcheeckss-sub003/internal/repository"
)

// fakeRideStore scripts one result per insert call and records every
// payload so tests can assert on call counts and field sets.
type fakeRideStore struct {
	results  []error // nil means success
	id       uint64
	calls    int
	payloads [][]repository.Field
}

func (f *fakeRideStore) InsertRide(_ context.Context, fields []repository.Field) (uint64, error) {
	f.payloads = append(f.payloads, fields)
	var err error
	if f.calls < len(f.results) {
		err = f.results[f.calls]
	}
	f.calls++
	if err != nil {
		return 0, err
	}
	return f.id, nil
}

func validInput() model.CreateRideInput {
	return model.CreateRideInput{
		Departure:     "Paris",
		Destination:   "Lyon",
		DepartureTime: "2025-01-15T08:00:00Z",
		Price:         25,
		SeatsTotal:    3,
	}
}

func TestCreateRejectsInvalidInputWithoutStoreCall(t *testing.T) {
	cases := []struct {
		name     string
		driverID string
		mutate   func(*model.CreateRideInput)
	}{
		{name: "not authenticated", driverID: "", mutate: func(*model.CreateRideInput) {}},
		{name: "blank departure", driverID: "driver-1", mutate: func(in *model.CreateRideInput) { in.Departure = "   " }},
		{name: "blank destination", driverID: "driver-1", mutate: func(in *model.CreateRideInput) { in.Destination = "" }},
		{name: "missing departure time", driverID: "driver-1", mutate: func(in *model.CreateRideInput) { in.DepartureTime = "" }},
		{name: "unparseable departure time", driverID: "driver-1", mutate: func(in *model.CreateRideInput) { in.DepartureTime = "tomorrow" }},
		{name: "zero seats", driverID: "driver-1", mutate: func(in *model.CreateRideInput) { in.SeatsTotal = 0 }},
		{name: "negative price", driverID: "driver-1", mutate: func(in *model.CreateRideInput) { in.Price = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeRideStore{}
			svc := NewRideService(store)
			input := validInput()
			tc.mutate(&input)

			_, err := svc.Create(context.Background(), tc.driverID, input)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, 0, store.calls, "precondition failures must not reach the store")
		})
	}
}

func TestVariantBuildersAreDeterministic(t *testing.T) {
	require.GreaterOrEqual(t, len(rideSchemaVariants), 12)

	input := validInput()
	input.Description = "via A6"
	input.Options = []string{"non_smoking", "pets_ok"}
	input.VehicleModel = "Renault Clio"

	draft, err := normalizeRide("driver-1", input)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, variant := range rideSchemaVariants {
		assert.False(t, seen[variant.name], "duplicate variant name %q", variant.name)
		seen[variant.name] = true
		first := variant.build(draft)
		second := variant.build(draft)
		assert.Equal(t, first, second, "variant %q must build identical payloads on repeated calls", variant.name)
	}
}

func TestFirstVariantMatchesWireContract(t *testing.T) {
	input := validInput()
	input.Options = []string{"non_smoking"}
	draft, err := normalizeRide("driver-1", input)
	require.NoError(t, err)

	fields := rideSchemaVariants[0].build(draft)
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	assert.Equal(t, []string{
		"driver_id", "departure", "destination", "departure_time",
		"price", "seats_total", "description", "options", "vehicle_model",
	}, names)

	byName := map[string]any{}
	for _, f := range fields {
		byName[f.Name] = f.Value
	}
	assert.Equal(t, "driver-1", byName["driver_id"])
	assert.Equal(t, "2025-01-15T08:00:00Z", byName["departure_time"])
	assert.Equal(t, 3, byName["seats_total"])
	assert.Equal(t, `["non_smoking"]`, byName["options"])
	assert.Nil(t, byName["description"])
}

func TestCreateStopsAtFirstSuccess(t *testing.T) {
	// An unclassifiable rejection advances one step; the second variant
	// commits and nothing after the success is ever attempted.
	store := &fakeRideStore{
		id: 42,
		results: []error{
			errors.New("store temporarily unavailable"),
			nil,
			errors.New("must never be reached"),
		},
	}
	svc := NewRideService(store)

	id, err := svc.Create(context.Background(), "driver-1", validInput())
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
	assert.Equal(t, 2, store.calls)

	// The second attempt is the TIME fallback of the same layout.
	byName := map[string]any{}
	for _, f := range store.payloads[1] {
		byName[f.Name] = f.Value
	}
	assert.Equal(t, "08:00:00", byName["departure_time"])
}

func TestCreateSeatsFallbackScenario(t *testing.T) {
	// The store rejects the missing seats_total column; classification
	// jumps the cascade straight to the seats fallback, which commits on
	// the second call. No third call is issued.
	store := &fakeRideStore{
		id: 7,
		results: []error{
			errors.New("Could not find the 'seats_total' column of 'rides' in the schema cache"),
			nil,
		},
	}
	svc := NewRideService(store)

	id, err := svc.Create(context.Background(), "driver-1", validInput())
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)
	assert.Equal(t, 2, store.calls)

	names := make([]string, len(store.payloads[1]))
	for i, f := range store.payloads[1] {
		names[i] = f.Name
	}
	assert.Contains(t, names, "seats")
	assert.NotContains(t, names, "seats_total")
}

func TestCreateJumpsToLegacyLayout(t *testing.T) {
	// A missing driver_id column means the deployment uses the legacy
	// user/city naming; the cascade skips the remaining current-layout
	// variants.
	store := &fakeRideStore{
		id: 9,
		results: []error{
			errors.New(`column "driver_id" of relation "rides" does not exist`),
			nil,
		},
	}
	svc := NewRideService(store)

	id, err := svc.Create(context.Background(), "driver-1", validInput())
	require.NoError(t, err)
	assert.Equal(t, uint64(9), id)
	assert.Equal(t, 2, store.calls)

	byName := map[string]any{}
	for _, f := range store.payloads[1] {
		byName[f.Name] = f.Value
	}
	assert.Equal(t, "driver-1", byName["user_id"])
	assert.Contains(t, byName, "from_city")
	assert.Contains(t, byName, "to_city")
}

func TestCreateExhaustedReturnsLastError(t *testing.T) {
	results := make([]error, len(rideSchemaVariants))
	for i := range results {
		results[i] = errors.New("attempt failed")
	}
	lastErr := errors.New(`null value in column "driver_id" violates not-null constraint`)
	results[len(results)-1] = lastErr

	store := &fakeRideStore{results: results}
	svc := NewRideService(store)

	_, err := svc.Create(context.Background(), "driver-1", validInput())
	require.Error(t, err)
	assert.Same(t, lastErr, err, "the last underlying store error must be surfaced untouched")
	assert.Equal(t, len(rideSchemaVariants), store.calls)
}

func TestTimeFallbackUsesRawWallClock(t *testing.T) {
	input := validInput()
	input.DepartureRawTime = "09:15"
	draft, err := normalizeRide("driver-1", input)
	require.NoError(t, err)
	assert.Equal(t, "09:15:00", draft.timeOnly, "the raw wall-clock string wins over the timestamp")

	input.DepartureRawTime = ""
	draft, err = normalizeRide("driver-1", input)
	require.NoError(t, err)
	assert.Equal(t, "08:00:00", draft.timeOnly)
	assert.Equal(t, "2025-01-15", draft.dateOnly)
}

func TestSplitVariantsCoverMissingColumns(t *testing.T) {
	draft, err := normalizeRide("driver-1", validInput())
	require.NoError(t, err)

	byName := map[string][]repository.Field{}
	for _, v := range rideSchemaVariants {
		byName[v.name] = v.build(draft)
	}

	names := func(fields []repository.Field) []string {
		out := make([]string, len(fields))
		for i, f := range fields {
			out[i] = f.Name
		}
		return out
	}

	split := names(byName["legacy+split-date-time"])
	assert.Contains(t, split, "date")
	assert.Contains(t, split, "time")
	assert.NotContains(t, split, "departure_time")

	noTime := names(byName["legacy+split-no-time"])
	assert.Contains(t, noTime, "date")
	assert.NotContains(t, noTime, "time")
	assert.Contains(t, noTime, "departure_time")

	noDate := names(byName["legacy+split-no-date"])
	assert.NotContains(t, noDate, "date")
	assert.Contains(t, noDate, "time")
	assert.Contains(t, noDate, "departure_time")
}
