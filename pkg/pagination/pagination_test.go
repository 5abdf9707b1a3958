package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCursorRoundTrip(t *testing.T) {
	want := Cursor{CreatedAt: time.Date(2026, 3, 1, 8, 30, 0, 123, time.UTC), ID: uuid.New()}
	got, err := ParseCursor(EncodeCursor(want))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) || got.ID != want.ID {
		t.Fatalf("expected %+v got %+v", want, got)
	}

	empty, err := ParseCursor("  ")
	if err != nil || empty != nil {
		t.Fatalf("blank cursor should parse to nil, got %+v %v", empty, err)
	}
	if _, err := ParseCursor("not-base64!"); err == nil {
		t.Fatalf("expected garbage cursor to fail")
	}
}

func TestNormalizeLimit(t *testing.T) {
	cases := map[int]int{0: DefaultLimit, -5: DefaultLimit, 10: 10, MaxLimit + 50: MaxLimit}
	for in, want := range cases {
		if got := NormalizeLimit(in); got != want {
			t.Fatalf("NormalizeLimit(%d) = %d, want %d", in, got, want)
		}
	}
	if LimitWithBuffer(10) != 11 {
		t.Fatalf("expected buffer of one")
	}
}

func TestTrim(t *testing.T) {
	type row struct {
		id uuid.UUID
		at time.Time
	}
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := []row{
		{id: uuid.New(), at: base.Add(3 * time.Minute)},
		{id: uuid.New(), at: base.Add(2 * time.Minute)},
		{id: uuid.New(), at: base.Add(time.Minute)},
	}
	cursorOf := func(r row) Cursor { return Cursor{CreatedAt: r.at, ID: r.id} }

	page, next := Trim(rows, 2, cursorOf)
	if len(page) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(page))
	}
	parsed, err := ParseCursor(next)
	if err != nil || parsed == nil || parsed.ID != rows[1].id {
		t.Fatalf("next cursor should point at the last row on the page, got %+v %v", parsed, err)
	}

	page, next = Trim(rows, 5, cursorOf)
	if len(page) != 3 || next != "" {
		t.Fatalf("expected final page without cursor, got %d rows cursor %q", len(page), next)
	}
}
