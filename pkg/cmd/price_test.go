/*
Copyright 2025 David Arnold
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at
    http://www.apache.org/licenses/LICENSE-2.0
Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"gitlab.com/davidxarnold/cloudconsole/pkg/core"
	"gitlab.com/davidxarnold/cloudconsole/pkg/pricing"
)

func TestParsePoolSpec(t *testing.T) {
	tests := []struct {
		spec    string
		want    core.NodePool
		wantErr bool
	}{
		{"g6-standard-2=3", core.NodePool{ID: "g6-standard-2", Type: "g6-standard-2", Count: 3}, false},
		{"workers:g6-standard-4=1", core.NodePool{ID: "workers", Type: "g6-standard-4", Count: 1}, false},
		{" g6-nanode-1 = 0", core.NodePool{ID: "g6-nanode-1", Type: "g6-nanode-1", Count: 0}, false},
		{"g6-standard-2", core.NodePool{}, true},
		{"g6-standard-2=x", core.NodePool{}, true},
		{"g6-standard-2=-1", core.NodePool{}, true},
		{"pool:=2", core.NodePool{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := parsePoolSpec(tt.spec)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parsePoolSpec(%q) error = %v, wantErr %v", tt.spec, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parsePoolSpec(%q) = %+v, want %+v", tt.spec, got, tt.want)
			}
		})
	}
}

func TestHighAvailabilityPrice(t *testing.T) {
	table, err := pricing.DefaultTable()
	if err != nil {
		t.Fatalf("DefaultTable() error: %v", err)
	}

	got, err := highAvailabilityPrice(table, "us-east", pricing.Flags{}, false, "")
	if err != nil || got.Valid {
		t.Errorf("disabled HA = (%v, %v), want absent", got, err)
	}

	got, err = highAvailabilityPrice(table, "us-east", pricing.Flags{}, true, "")
	if err != nil || !got.Valid || !got.Decimal.Equal(decimal.NewFromInt(60)) {
		t.Errorf("table HA = (%v, %v), want 60", got, err)
	}

	got, err = highAvailabilityPrice(table, "us-east", pricing.Flags{}, true, "12.50")
	if err != nil || !got.Decimal.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("override HA = (%v, %v), want 12.50", got, err)
	}

	if _, err := highAvailabilityPrice(table, "us-east", pricing.Flags{}, true, "cheap"); err == nil {
		t.Errorf("expected error for invalid --ha-price")
	}
}

func runPriceJSON(t *testing.T, args ...string) pricing.Quote {
	t.Helper()
	out, err := executeConsole(t, append([]string{"price", "-o", "json"}, args...)...)
	if err != nil {
		t.Fatalf("price %v returned error: %v", args, err)
	}
	var q pricing.Quote
	if err := json.Unmarshal([]byte(out), &q); err != nil {
		t.Fatalf("price output is not a quote: %v\n%s", err, out)
	}
	return q
}

func TestPriceCmdOfflinePools(t *testing.T) {
	q := runPriceJSON(t, "--pool", "g6-standard-2=3", "--pool", "g6-standard-4=1", "--region", "us-east")

	if !q.Total.Equal(decimal.NewFromInt(120)) {
		t.Errorf("Total = %s, want 120", q.Total)
	}
	if q.Region != "us-east" {
		t.Errorf("Region = %q, want %q", q.Region, "us-east")
	}
	if len(q.Lines) != 2 {
		t.Fatalf("Lines = %d, want 2", len(q.Lines))
	}
	if !q.Lines[0].Monthly.Decimal.Equal(decimal.NewFromInt(72)) {
		t.Errorf("first pool monthly = %s, want 72", q.Lines[0].Monthly.Decimal)
	}
}

func TestPriceCmdHighAvailability(t *testing.T) {
	q := runPriceJSON(t, "--pool", "g6-standard-2=3", "--pool", "g6-standard-4=1", "--region", "us-east", "--ha")
	if !q.Total.Equal(decimal.NewFromInt(180)) {
		t.Errorf("Total with HA = %s, want 180", q.Total)
	}

	q = runPriceJSON(t, "--pool", "g6-standard-2=3", "--pool", "g6-standard-4=1", "--region", "us-east", "--ha-price", "10")
	if !q.Total.Equal(decimal.NewFromInt(130)) {
		t.Errorf("Total with --ha-price = %s, want 130", q.Total)
	}
}

func TestPriceCmdDCSpecificPricing(t *testing.T) {
	q := runPriceJSON(t, "--pool", "g6-standard-2=3", "--pool", "g6-standard-4=1",
		"--region", "br-gru", "--dc-specific-pricing")
	if !q.Total.Equal(decimal.RequireFromString("168")) {
		t.Errorf("Total = %s, want 168", q.Total)
	}
}

func TestPriceCmdPriceFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.yaml")
	data := []byte(`
types:
  - id: g6-standard-2
    price: {monthly: 10}
  - id: g6-standard-4
    price: {monthly: 40}
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	q := runPriceJSON(t, "--pool", "g6-standard-2=3", "--pool", "g6-standard-4=1", "--pool", "mystery=5",
		"--region", "region-a", "--price-file", path)
	if !q.Total.Equal(decimal.NewFromInt(70)) {
		t.Errorf("Total = %s, want 70", q.Total)
	}
	if diff := cmp.Diff([]string{"mystery"}, q.Unpriced); diff != "" {
		t.Errorf("Unpriced mismatch (-want +got):\n%s", diff)
	}
}

func TestPriceCmdRequiresRegion(t *testing.T) {
	_, err := executeConsole(t, "price", "--pool", "g6-standard-2=1", "--region", "")
	if !errors.Is(err, errNoRegion) {
		t.Errorf("price without region error = %v, want %v", err, errNoRegion)
	}
}

func TestPriceCmdTextOutput(t *testing.T) {
	out, err := executeConsole(t, "price", "-o", "txt", "--pool", "g6-standard-2=1", "--region", "us-east")
	if err != nil {
		t.Fatalf("price returned error: %v", err)
	}
	for _, want := range []string{"Region: us-east", "g6-standard-2", "$24.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("price output missing %q:\n%s", want, out)
		}
	}
}
