package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"expensedash/internal/aggregate"
	"expensedash/internal/config"
	"expensedash/internal/core"
	applog "expensedash/internal/log"
	"expensedash/internal/sheets/memory"
	"expensedash/internal/taxonomy"
)

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Level: slog.LevelError, Output: io.Discard})
}

func TestLoadTaxonomy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taxonomy.yaml")
	body := "name: flatmates\ncategories: [Rent, Food, Miscellaneous]\npayment_methods: [Cash, Card]\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		cfg      config.Config
		wantName string
		wantErr  bool
	}{
		{name: "default preset", cfg: config.Config{}, wantName: taxonomy.PresetPersonal},
		{name: "household preset", cfg: config.Config{TaxonomyPreset: "household"}, wantName: taxonomy.PresetHousehold},
		{name: "file wins over preset", cfg: config.Config{TaxonomyPreset: "household", TaxonomyFile: path}, wantName: "flatmates"},
		{name: "unknown preset", cfg: config.Config{TaxonomyPreset: "nope"}, wantErr: true},
		{name: "missing file", cfg: config.Config{TaxonomyFile: filepath.Join(dir, "missing.yaml")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tax, err := LoadTaxonomy(&tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("LoadTaxonomy() succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadTaxonomy() error = %v", err)
			}
			if tax.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", tax.Name(), tt.wantName)
			}
		})
	}
}

func TestNewClassifierWithoutKeyFallsBack(t *testing.T) {
	tax, err := taxonomy.Preset(taxonomy.PresetPersonal)
	if err != nil {
		t.Fatal(err)
	}
	c := NewClassifier(context.Background(), &config.Config{}, tax, quietLogger())
	if got := c.Classify(context.Background(), "Pizza"); got != core.Miscellaneous {
		t.Errorf("Classify() = %q, want %q", got, core.Miscellaneous)
	}
}

func TestNewAnalyticsExcludesTopCategories(t *testing.T) {
	tax, err := taxonomy.Preset(taxonomy.PresetPersonal)
	if err != nil {
		t.Fatal(err)
	}
	store := memory.New(
		core.RawRecord{"date": "2024-01-03", "expenseName": "Market", "amount": 100, "category": "Groceries", "paymentMethod": "Cash"},
		core.RawRecord{"date": "2024-01-10", "expenseName": "Pizza", "amount": 30, "category": "Eating out", "paymentMethod": "Cash"},
	)
	cfg := &config.Config{TopCategoryExclude: []string{"groceries", "Not a category"}}

	view := NewAnalytics(cfg, tax, store, quietLogger()).Dashboard(context.Background(), aggregate.All)
	if view.TopCategory == nil {
		t.Fatal("TopCategory = nil")
	}
	if view.TopCategory.Key != "Eating out" {
		t.Errorf("TopCategory = %q, want Eating out", view.TopCategory.Key)
	}
	if view.Total.String() != "130.00" {
		t.Errorf("Total = %s, want 130.00", view.Total)
	}
}
