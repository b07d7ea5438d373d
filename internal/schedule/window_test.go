package schedule

import (
	"testing"
	"time"
)

var testDate = time.Date(2025, time.June, 14, 0, 0, 0, 0, time.UTC)

func at(t *testing.T, hhmm string) time.Time {
	t.Helper()
	calc := NewCalculator(time.UTC)
	ts, ok := calc.TimeOn(testDate, hhmm)
	if !ok {
		t.Fatalf("bad test time %q", hhmm)
	}
	return ts
}

func TestWindow_DefaultBuffers(t *testing.T) {
	calc := NewCalculator(time.UTC)

	w := calc.Window(testDate, "18:00", "20:00", nil, nil, nil)

	if !w.Usable() {
		t.Fatal("expected usable window")
	}
	if got, want := w.ActualCheckin, at(t, "17:45"); !got.Equal(want) {
		t.Errorf("actual checkin = %v, want %v", got, want)
	}
	if got, want := w.ActualCheckout, at(t, "21:15"); !got.Equal(want) {
		t.Errorf("actual checkout = %v, want %v", got, want)
	}

	// actual_checkin <= planned_checkin <= planned_checkout <= actual_checkout
	if w.ActualCheckin.After(w.Checkin) || w.Checkin.After(w.Checkout) || w.Checkout.After(w.ActualCheckout) {
		t.Errorf("window ordering violated: %+v", w)
	}
}

func TestWindow_Idempotent(t *testing.T) {
	calc := NewCalculator(time.UTC)

	first := calc.Window(testDate, "12:00", "14:30", nil, nil, nil)
	second := calc.Window(testDate, "12:00", "14:30", nil, nil, nil)

	if first != second {
		t.Errorf("window not idempotent: %+v vs %+v", first, second)
	}
}

func TestWindow_CleanupCompletionOverrides(t *testing.T) {
	calc := NewCalculator(time.UTC)

	cleanup := at(t, "19:05")
	w := calc.Window(testDate, "18:00", "20:00", nil, nil, &cleanup)

	if !w.ActualCheckout.Equal(cleanup) {
		t.Errorf("actual checkout = %v, want cleanup completion %v", w.ActualCheckout, cleanup)
	}
}

func TestWindow_RecordedActuals(t *testing.T) {
	calc := NewCalculator(time.UTC)

	checkin := at(t, "18:10")
	checkout := at(t, "19:40")
	w := calc.Window(testDate, "18:00", "20:00", &checkin, &checkout, nil)

	if !w.ActualCheckin.Equal(checkin) {
		t.Errorf("actual checkin = %v, want recorded %v", w.ActualCheckin, checkin)
	}
	// Recorded checkout before planned checkout still gets the full buffer.
	if got, want := w.ActualCheckout, at(t, "20:55"); !got.Equal(want) {
		t.Errorf("actual checkout = %v, want %v", got, want)
	}
}

func TestWindow_BufferAlreadyIncluded(t *testing.T) {
	calc := NewCalculator(time.UTC)

	// Recorded checkout is 80 minutes past planned: over the 75 minute
	// expected buffer, so it is used unmodified.
	checkout := at(t, "21:20")
	w := calc.Window(testDate, "18:00", "20:00", nil, &checkout, nil)

	if !w.ActualCheckout.Equal(checkout) {
		t.Errorf("actual checkout = %v, want unmodified %v", w.ActualCheckout, checkout)
	}
}

func TestWindow_MissingCheckin_Unusable(t *testing.T) {
	calc := NewCalculator(time.UTC)

	w := calc.Window(testDate, "", "20:00", nil, nil, nil)
	if w.Usable() {
		t.Error("window without a check-in must not be usable")
	}

	w = calc.Window(testDate, "not a time", "20:00", nil, nil, nil)
	if w.Usable() {
		t.Error("window with invalid check-in must not be usable")
	}
}

func TestWindow_MissingCheckout_Unusable(t *testing.T) {
	calc := NewCalculator(time.UTC)

	w := calc.Window(testDate, "18:00", "", nil, nil, nil)
	if w.Usable() {
		t.Error("window without any checkout source must not be usable")
	}
}

func TestOverlaps_HalfOpen(t *testing.T) {
	calc := NewCalculator(time.UTC)

	a := calc.Window(testDate, "12:00", "14:00", nil, nil, nil)

	// b starts exactly when a's effective window ends: no conflict.
	start := a.ActualCheckout
	end := start.Add(2 * time.Hour)
	b := Window{ActualCheckin: start, ActualCheckout: end}

	if a.Overlaps(b) || b.Overlaps(a) {
		t.Error("touching endpoints must not conflict")
	}

	// Shift b one minute earlier: conflict.
	b.ActualCheckin = b.ActualCheckin.Add(-time.Minute)
	if !a.Overlaps(b) || !b.Overlaps(a) {
		t.Error("expected conflict for overlapping windows")
	}
}

func TestNormalizeTime(t *testing.T) {
	calc := NewCalculator(time.UTC)

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"18:00", "18:00:00", true},
		{"18:00:30", "18:00:30", true},
		{"09:05", "09:05:00", true},
		{"", "", false},
		{"25:00", "", false},
		{"banana", "", false},
	}

	for _, tt := range tests {
		got, ok := calc.NormalizeTime(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("NormalizeTime(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
