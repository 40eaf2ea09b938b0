package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"expensedash/internal/config"
	"expensedash/internal/core"
	applog "expensedash/internal/log"
	"expensedash/internal/sheets"
	"expensedash/internal/sheets/memory"
	"expensedash/internal/storage"
)

type failingFetcher struct{ err error }

func (f failingFetcher) FetchRecords(context.Context) ([]core.RawRecord, error) { return nil, f.err }

func testEnv(fetcher sheets.RecordFetcher) env {
	return env{
		config: func() (*config.Config, error) { return &config.Config{}, nil },
		store: func(context.Context, *config.Config, *applog.Logger) (sheets.RecordFetcher, func() error, error) {
			return fetcher, nil, nil
		},
		syncCounts: func(context.Context, *config.Config) (map[storage.SyncStatus]int, error) {
			return map[storage.SyncStatus]int{storage.StatusPending: 2, storage.StatusSynced: 7}, nil
		},
	}
}

func seededStore() *memory.Store {
	return memory.New(
		core.RawRecord{"date": "2024-01-03", "expenseName": "Market", "amount": 100, "category": "Groceries", "paymentMethod": "Cash"},
		core.RawRecord{"date": "2024-01-10", "expenseName": "Pizza", "amount": "30", "category": "Eating out", "paymentMethod": "Credit Card"},
		core.RawRecord{"date": "2024-02-02", "expenseName": "Bus", "amount": 5, "category": "Public transport", "paymentMethod": "UPI"},
	)
}

func run(t *testing.T, e env, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(e)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestDashboard(t *testing.T) {
	out, err := run(t, testEnv(seededStore()), "dashboard", "--month", "1", "--year", "2024")
	if err != nil {
		t.Fatalf("dashboard error = %v", err)
	}
	for _, want := range []string{"Total:", "130.00 (2 records)", "Top category:"} {
		if !strings.Contains(out, want) {
			t.Errorf("dashboard output missing %q:\n%s", want, out)
		}
	}
}

func TestDashboardFetchFailure(t *testing.T) {
	fetcher := failingFetcher{err: sheets.TransportError("fetch", errors.New("connection refused"))}
	out, err := run(t, testEnv(fetcher), "dashboard")
	if err != nil {
		t.Fatalf("dashboard error = %v", err)
	}
	if !strings.Contains(out, "No data to display (transport error") {
		t.Errorf("output = %q", out)
	}
}

func TestSummaryAndTrends(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "by payment method",
			args: []string{"summary", "payment-method"},
			want: []string{"Cash", "Credit Card", "UPI", "Total"},
		},
		{
			name: "weekly",
			args: []string{"trends", "weekly", "--month", "jan", "--year", "2024"},
			want: []string{"PERIOD", "01-07", "08-14"},
		},
		{
			name: "monthly pivot",
			args: []string{"trends", "monthly", "--year", "2024"},
			want: []string{"PERIOD", "Groceries", "Public transport"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, testEnv(seededStore()), tt.args...)
			if err != nil {
				t.Fatalf("run %v error = %v", tt.args, err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestInvalidArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown dimension", []string{"summary", "merchant"}},
		{"unknown trend", []string{"trends", "daily"}},
		{"bad month", []string{"dashboard", "--month", "13"}},
		{"unknown export kind", []string{"export", "--kind", "xml"}},
		{"bad date", []string{"billing-cycle", "2024-02-30"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, testEnv(seededStore()), tt.args...); err == nil {
				t.Errorf("run %v succeeded, want error", tt.args)
			}
		})
	}
}

func TestExportSummaryToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.csv")
	if _, err := run(t, testEnv(seededStore()), "export", "--kind", "summary", "--month", "1", "-o", path); err != nil {
		t.Fatalf("export error = %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	want := "key,amount,count,percentage\nGroceries,100.00,1,76.92\nEating out,30.00,1,23.08\n"
	if string(got) != want {
		t.Errorf("export = %q, want %q", got, want)
	}
}

func TestExportFetchFailure(t *testing.T) {
	fetcher := failingFetcher{err: sheets.FormatError("decode", errors.New("bad json"))}
	if _, err := run(t, testEnv(fetcher), "export"); err == nil || !strings.Contains(err.Error(), "format error") {
		t.Errorf("export error = %v, want format failure", err)
	}
}

func TestBillingCycle(t *testing.T) {
	out, err := run(t, testEnv(nil), "billing-cycle", "2024-02-10", "2024-02-16")
	if err != nil {
		t.Fatalf("billing-cycle error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[1], "Jan 25 - Feb 25") || !strings.Contains(lines[1], "08-14") {
		t.Errorf("line 1 = %q", lines[1])
	}
	if !strings.Contains(lines[2], "Feb 25 - Mar 25") || !strings.Contains(lines[2], "15-21") {
		t.Errorf("line 2 = %q", lines[2])
	}
}

func TestClassifyWithoutPredictor(t *testing.T) {
	out, err := run(t, testEnv(nil), "classify", "weekly", "groceries")
	if err != nil {
		t.Fatalf("classify error = %v", err)
	}
	if !strings.HasPrefix(out, string(core.Miscellaneous)) {
		t.Errorf("classify output = %q, want fallback category", out)
	}
}

func TestSyncStatus(t *testing.T) {
	out, err := run(t, testEnv(nil), "sync-status")
	if err != nil {
		t.Fatalf("sync-status error = %v", err)
	}
	for _, want := range []string{"pending  2", "synced   7", "error    0"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
