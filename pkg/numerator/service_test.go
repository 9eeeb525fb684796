package numerator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates the sys_sequences UPSERT: every call advances the
// counter by the increment argument (1 for strict, RangeSize for cached).
type mockQuerier struct {
	mu           sync.Mutex
	currentValue int64
	calls        int
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	var increment int64 = 1
	if len(args) == 2 {
		if val, ok := args[1].(int64); ok {
			increment = val
		}
	}

	m.currentValue += increment
	m.calls++

	return &mockRow{val: m.currentValue}
}

func TestGetNextNumber_Strict(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("TEST")

	num, err := svc.GetNextNumber(ctx, nil, cfg, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "TEST-00001", num)

	num, err = svc.GetNextNumber(ctx, nil, cfg, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "TEST-00002", num)
}

func TestGetNextNumber_PadWidth(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()

	invoices := Config{Prefix: "INV", PadWidth: 4, ResetPeriod: "never"}
	references := Config{Prefix: "REF", PadWidth: 3, ResetPeriod: "never"}

	num, err := svc.GetNextNumber(ctx, nil, invoices, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "INV-0001", num)

	num, err = svc.GetNextNumber(ctx, nil, references, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "REF-002", num) // mock counter is shared across keys

	// Padding is a minimum, not a cap.
	q.currentValue = 99999
	num, err = svc.GetNextNumber(ctx, nil, invoices, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "INV-100000", num)
}

func TestGetNextNumber_QuerierOverride(t *testing.T) {
	base := &mockQuerier{}
	override := &mockQuerier{currentValue: 500}
	svc := New(base)
	ctx := context.Background()
	cfg := DefaultConfig("TEST")

	num, err := svc.GetNextNumber(ctx, override, cfg, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "TEST-00501", num)
	assert.Equal(t, 0, base.calls, "base querier must not be touched when overridden")
	assert.Equal(t, 1, override.calls)
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("ORD")

	opts := &Options{
		Strategy:  StrategyCached,
		RangeSize: 10,
	}

	// First call reserves 1..10 in a single round trip.
	num, err := svc.GetNextNumber(ctx, nil, cfg, opts, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "ORD-00001", num)
	assert.Equal(t, int64(10), q.currentValue)

	// Second call is served from memory.
	num, err = svc.GetNextNumber(ctx, nil, cfg, opts, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "ORD-00002", num)
	assert.Equal(t, int64(10), q.currentValue)

	// Exhaust the range; the next draw reserves 11..20.
	for i := 0; i < 8; i++ {
		_, err = svc.GetNextNumber(ctx, nil, cfg, opts, time.Now())
		require.NoError(t, err)
	}

	num, err = svc.GetNextNumber(ctx, nil, cfg, opts, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "ORD-00011", num)
	assert.Equal(t, int64(20), q.currentValue)
}

func TestBuildKey_ResetPeriods(t *testing.T) {
	svc := New(&mockQuerier{})
	period := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "INV", svc.buildKey(Config{Prefix: "INV", ResetPeriod: "never"}, period))
	assert.Equal(t, "INV_2026", svc.buildKey(Config{Prefix: "INV", ResetPeriod: "year"}, period))
	assert.Equal(t, "INV_2026_03", svc.buildKey(Config{Prefix: "INV", ResetPeriod: "month"}, period))
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, int64(42), ParseNumber("INV-0042"))
	assert.Equal(t, int64(7), ParseNumber("REF-007"))
	assert.Equal(t, int64(13), ParseNumber("INV-2026-00013"))
	assert.Equal(t, int64(-1), ParseNumber("garbage"))
	assert.Equal(t, int64(-1), ParseNumber("INV-"))
	assert.Equal(t, int64(-1), ParseNumber(""))
}
