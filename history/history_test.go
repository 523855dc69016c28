package history

import (
	"context"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Bitte-ein-Git/wiimmfi-api/dbopen"
	"github.com/Bitte-ein-Git/wiimmfi-api/wiimmfi"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	db := dbopen.OpenMemory(t)
	store := NewStore(db)
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}
	return store
}

func snapshotAt(ts time.Time, source string, rooms []wiimmfi.Room) *wiimmfi.Snapshot {
	return &wiimmfi.Snapshot{Rooms: rooms, FetchedAt: ts, Source: source}
}

func TestStore_Init(t *testing.T) {
	// WHAT: Init creates the fetch_cycles table.
	db := dbopen.OpenMemory(t)
	store := NewStore(db)
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='fetch_cycles'").Scan(&count)
	if count != 1 {
		t.Fatal("fetch_cycles table not created")
	}
}

func TestStore_RecordAndRecent(t *testing.T) {
	// WHAT: Recorded cycles come back newest first with counts intact.
	store := setupStore(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	rooms := []wiimmfi.Room{
		{RoomID: "r12", Players: []wiimmfi.Player{{PID: "1"}, {PID: "2"}}},
		{RoomID: "r13", Players: []wiimmfi.Player{{PID: "3"}}},
	}

	if err := store.Record(snapshotAt(base, wiimmfi.SourceLive, rooms)); err != nil {
		t.Fatal(err)
	}
	if err := store.Record(snapshotAt(base.Add(time.Minute), wiimmfi.SourceFallback, rooms[:1])); err != nil {
		t.Fatal(err)
	}

	cycles, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(cycles) != 2 {
		t.Fatalf("cycles: got %d, want 2", len(cycles))
	}

	// Newest first.
	if cycles[0].Source != wiimmfi.SourceFallback {
		t.Errorf("newest source = %q, want %q", cycles[0].Source, wiimmfi.SourceFallback)
	}
	if cycles[0].RoomCount != 1 || cycles[0].PlayerCount != 2 {
		t.Errorf("newest counts = %d rooms / %d players, want 1/2", cycles[0].RoomCount, cycles[0].PlayerCount)
	}
	if cycles[1].Source != wiimmfi.SourceLive {
		t.Errorf("oldest source = %q, want %q", cycles[1].Source, wiimmfi.SourceLive)
	}
	if cycles[1].RoomCount != 2 || cycles[1].PlayerCount != 3 {
		t.Errorf("oldest counts = %d rooms / %d players, want 2/3", cycles[1].RoomCount, cycles[1].PlayerCount)
	}
	if !cycles[1].FetchedAt.Equal(base) {
		t.Errorf("fetched_at = %v, want %v", cycles[1].FetchedAt, base)
	}
}

func TestStore_RecentLimit(t *testing.T) {
	// WHAT: The limit caps the result set; <=0 falls back to a sane default.
	store := setupStore(t)

	base := time.Now().UTC().Truncate(time.Microsecond)
	for i := 0; i < 5; i++ {
		snap := snapshotAt(base.Add(time.Duration(i)*time.Minute), wiimmfi.SourceLive, nil)
		if err := store.Record(snap); err != nil {
			t.Fatal(err)
		}
	}

	cycles, err := store.Recent(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(cycles) != 3 {
		t.Fatalf("cycles: got %d, want 3", len(cycles))
	}

	cycles, err = store.Recent(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(cycles) != 5 {
		t.Fatalf("cycles with default limit: got %d, want 5", len(cycles))
	}
}

func TestStore_Body(t *testing.T) {
	// WHAT: The stored snapshot body is retrievable per cycle id.
	store := setupStore(t)

	snap := snapshotAt(time.Now().UTC(), wiimmfi.SourceLive, nil)
	snap.JSON = []byte("[]")
	if err := store.Record(snap); err != nil {
		t.Fatal(err)
	}

	cycles, err := store.Recent(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	body, err := store.Body(context.Background(), cycles[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if body != "[]" {
		t.Errorf("body = %q, want []", body)
	}

	if _, err := store.Body(context.Background(), 99999); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing cycle: err = %v, want ErrNotFound", err)
	}
}

func TestStore_RecentEmpty(t *testing.T) {
	// WHAT: No cycles recorded yields an empty (non-nil) slice.
	store := setupStore(t)

	cycles, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if cycles == nil || len(cycles) != 0 {
		t.Fatalf("cycles = %#v, want empty slice", cycles)
	}
}
