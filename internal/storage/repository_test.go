package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"expensedash/internal/core"
)

func newRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "records.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sample(name string, cents int64) core.OutboundRecord {
	return core.ToOutbound(core.ExpenseRecord{
		Name:          name,
		Category:      "Groceries",
		Amount:        core.Money{Cents: cents},
		Date:          core.NewDate(2024, time.January, 15),
		PaymentMethod: "Credit Card",
		BillingCycle:  "Dec 25 - Jan 25",
	}, time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC))
}

func TestAppendAndFetch(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	ref, err := repo.Append(ctx, sample("Veggies", 25050))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if len(ref) != 36 {
		t.Fatalf("ref = %q, want uuid", ref)
	}
	if _, err := repo.Append(ctx, sample("Milk", 6000)); err != nil {
		t.Fatal(err)
	}

	rows, err := repo.FetchRecords(ctx)
	if err != nil {
		t.Fatalf("FetchRecords: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	first := rows[0]
	if first["expenseName"] != "Veggies" || first["amount"] != 250.5 || first["billingCycle"] != "Dec 25 - Jan 25" {
		t.Fatalf("first row = %v", first)
	}
	if first["timeStamp"] != "2024-01-15 09:30:00" || first["month"] != "January" {
		t.Fatalf("first row = %v", first)
	}
}

func TestFetchEmpty(t *testing.T) {
	rows, err := newRepo(t).FetchRecords(context.Background())
	if err != nil || rows == nil || len(rows) != 0 {
		t.Fatalf("FetchRecords = %#v, %v", rows, err)
	}
}

func TestAppendRejectsInvalidAmount(t *testing.T) {
	rec := sample("Broken", 100)
	rec.Amount = 0
	if _, err := newRepo(t).Append(context.Background(), rec); err == nil {
		t.Fatalf("expected error for zero amount")
	}
}

func TestSyncLifecycle(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	id1, _, err := repo.Insert(ctx, sample("one", 100))
	if err != nil {
		t.Fatal(err)
	}
	id2, _, err := repo.Insert(ctx, sample("two", 200))
	if err != nil {
		t.Fatal(err)
	}

	pending, err := repo.PendingSync(ctx, 10)
	if err != nil || len(pending) != 2 || pending[0].ID != id1 {
		t.Fatalf("PendingSync = %+v, %v", pending, err)
	}

	if err := repo.MarkSynced(ctx, id1); err != nil {
		t.Fatal(err)
	}
	if err := repo.MarkSyncError(ctx, id2, errors.New("quota")); err != nil {
		t.Fatal(err)
	}

	rec, err := repo.GetRecord(ctx, id2)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if rec.SyncStatus != StatusError || rec.SyncAttempts != 1 || rec.LastSyncError != "quota" {
		t.Fatalf("record = %+v", rec)
	}
	if rec.Record.ExpenseName != "two" || rec.Record.Amount != 2 {
		t.Fatalf("record payload = %+v", rec.Record)
	}

	pending, _ = repo.PendingSync(ctx, 10)
	if len(pending) != 1 || pending[0].ID != id2 {
		t.Fatalf("PendingSync after mark = %+v", pending)
	}

	for i := 1; i < MaxSyncAttempts; i++ {
		if err := repo.MarkSyncError(ctx, id2, errors.New("quota")); err != nil {
			t.Fatal(err)
		}
	}
	pending, _ = repo.PendingSync(ctx, 10)
	if len(pending) != 0 {
		t.Fatalf("record still pending after %d attempts", MaxSyncAttempts)
	}

	counts, err := repo.SyncCounts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts[StatusSynced] != 1 || counts[StatusError] != 1 {
		t.Fatalf("counts = %v", counts)
	}
}

func TestClaimSync(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	id, _, err := repo.Insert(ctx, sample("one", 100))
	if err != nil {
		t.Fatal(err)
	}

	steps := []struct {
		name string
		prep func() error
		want bool
	}{
		{name: "first claim", want: true},
		{name: "held claim", want: false},
		{name: "released by sync error", prep: func() error { return repo.MarkSyncError(ctx, id, errors.New("quota")) }, want: true},
		{name: "released by sync", prep: func() error { return repo.MarkSynced(ctx, id) }, want: false},
	}
	for _, st := range steps {
		if st.prep != nil {
			if err := st.prep(); err != nil {
				t.Fatalf("%s: prep: %v", st.name, err)
			}
		}
		got, err := repo.ClaimSync(ctx, id)
		if err != nil {
			t.Fatalf("%s: ClaimSync: %v", st.name, err)
		}
		if got != st.want {
			t.Errorf("%s: ClaimSync = %v, want %v", st.name, got, st.want)
		}
	}

	if _, err := repo.ClaimSync(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("ClaimSync(missing) error = %v, want ErrNotFound", err)
	}
}

func TestClaimSyncExpiredLeaseIsTakenOver(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	id, _, err := repo.Insert(ctx, sample("one", 100))
	if err != nil {
		t.Fatal(err)
	}
	if ok, _ := repo.ClaimSync(ctx, id); !ok {
		t.Fatal("first claim refused")
	}
	if _, err := repo.db.ExecContext(ctx,
		`UPDATE records SET sync_claimed_at = datetime('now', '-1 hour') WHERE id = ?`, id); err != nil {
		t.Fatal(err)
	}
	if ok, err := repo.ClaimSync(ctx, id); err != nil || !ok {
		t.Errorf("ClaimSync after lease = %v, %v, want true", ok, err)
	}
}

func TestGetRecordNotFound(t *testing.T) {
	_, err := newRepo(t).GetRecord(context.Background(), 99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestRunMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	for i := 0; i < 2; i++ {
		if err := RunMigrations(path); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
}
