package plans

import "testing"

func TestLookupKnownPlan(t *testing.T) {
	def, ok := Lookup("1month")
	if !ok {
		t.Fatal("expected 1month plan to exist")
	}
	if def.PriceMinorUnits != 25000 {
		t.Fatalf("expected price 25000, got %d", def.PriceMinorUnits)
	}
	if def.DurationDays != 30 {
		t.Fatalf("expected duration 30 days, got %d", def.DurationDays)
	}
}

func TestLookupUnknownPlanReturnsMiss(t *testing.T) {
	if _, ok := Lookup("lifetime"); ok {
		t.Fatal("expected unknown plan to miss")
	}
	if _, ok := Lookup(""); ok {
		t.Fatal("expected empty plan id to miss")
	}
}

func TestListReturnsStableOrder(t *testing.T) {
	all := List()
	if len(all) != 4 {
		t.Fatalf("expected 4 plans, got %d", len(all))
	}
	if all[0].ID != "1month" || all[3].ID != "12month" {
		t.Fatalf("unexpected order: first=%s last=%s", all[0].ID, all[3].ID)
	}
	for _, def := range all {
		if def.PriceMinorUnits <= 0 || def.DurationDays <= 0 {
			t.Fatalf("plan %s has invalid price/duration", def.ID)
		}
	}
}
