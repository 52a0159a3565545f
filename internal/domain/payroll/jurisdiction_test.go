package payroll

import "testing"

func TestProfessionalTaxSlabs(t *testing.T) {
	j := DefaultJurisdiction()
	cases := []struct {
		state string
		gross float64
		want  float64
	}{
		{"GJ", 8500, 80},
		{"GJ", 20000, 200},
		{"GJ", 5000, 0},
		{"MH", 15000, 200},
		{"MH", 7500, 0},
		{"MH", 7500.5, 175},
		{"mh", 9000, 175},
		{"KA", 24000, 0},
		{"KA", 30000, 200},
		{"ZZ", 0, 200},
		{"ZZ", 50000, 200},
		{"", 12000, 200},
	}
	for _, tc := range cases {
		if got := j.ProfessionalTax(tc.gross, tc.state); got != tc.want {
			t.Fatalf("ProfessionalTax(%v, %q) = %v, want %v", tc.gross, tc.state, got, tc.want)
		}
	}
}

func TestProfessionalTaxFallsBackToMaxPT(t *testing.T) {
	j := DefaultJurisdiction().WithPTTable("XX", PTTable{
		Slabs: []PTSlab{{Min: 0, Max: 5000, Amount: 0}, {Min: 5001, Max: 10000, Amount: 100}},
		MaxPT: 250,
	})
	if got := j.ProfessionalTax(5000.5, "XX"); got != 250 {
		t.Fatalf("expected MaxPT for gap, got %v", got)
	}
	if got := j.ProfessionalTax(12000, "XX"); got != 250 {
		t.Fatalf("expected MaxPT above last slab, got %v", got)
	}
	if got := j.ProfessionalTax(7000, "XX"); got != 100 {
		t.Fatalf("expected slab amount, got %v", got)
	}
}

func TestLWFLookup(t *testing.T) {
	j := DefaultJurisdiction()
	if got := j.LWF("GJ"); got != (LWFRate{Employee: 6, Employer: 12}) {
		t.Fatalf("unexpected GJ LWF: %+v", got)
	}
	if got := j.LWF("ZZ"); got != (LWFRate{}) {
		t.Fatalf("expected zero LWF for unknown state, got %+v", got)
	}
	if got := j.LWF(DefaultState); got != (LWFRate{}) {
		t.Fatalf("expected no DEFAULT LWF, got %+v", got)
	}
}

func TestJurisdictionDerivationsDoNotMutate(t *testing.T) {
	base := DefaultJurisdiction()

	rates := base.Rates()
	rates.ESIWageCeiling = 25000
	derived := base.WithRates(rates).
		WithLWFRate("MH", LWFRate{Employee: 1, Employer: 2}).
		WithPTTable("MH", PTTable{Slabs: []PTSlab{{Min: 0, Max: Unbounded, Amount: 300}}, MaxPT: 300})

	if base.Rates().ESIWageCeiling != 21000 {
		t.Fatalf("base rates mutated: %v", base.Rates().ESIWageCeiling)
	}
	if base.LWF("MH").Employee != 12 {
		t.Fatalf("base LWF mutated: %+v", base.LWF("MH"))
	}
	if base.ProfessionalTax(15000, "MH") != 200 {
		t.Fatal("base PT table mutated")
	}
	if derived.ProfessionalTax(15000, "MH") != 300 || derived.LWF("MH").Employer != 2 {
		t.Fatal("derived jurisdiction missing overrides")
	}
}

func TestPTTableReturnsCopy(t *testing.T) {
	j := DefaultJurisdiction()
	table := j.PTTable("GJ")
	table.Slabs[1].Amount = 999
	if got := j.ProfessionalTax(8500, "GJ"); got != 80 {
		t.Fatalf("expected table copy, jurisdiction now returns %v", got)
	}
}

func TestNewJurisdictionAddsDefaultTable(t *testing.T) {
	j := NewJurisdiction(defaultRates, map[string]PTTable{
		"mh": {Slabs: []PTSlab{{Min: 0, Max: Unbounded, Amount: 175}}, MaxPT: 175},
	}, nil)
	if got := j.ProfessionalTax(1000, "MH"); got != 175 {
		t.Fatalf("expected normalised state key, got %v", got)
	}
	if got := j.ProfessionalTax(1000, "GJ"); got != 200 {
		t.Fatalf("expected DEFAULT fallback, got %v", got)
	}
	states := j.PTStates()
	if len(states) != 2 || states[0] != DefaultState || states[1] != "MH" {
		t.Fatalf("unexpected states: %v", states)
	}
}

func TestZeroJurisdictionDoesNotPanic(t *testing.T) {
	var j Jurisdiction
	result := Calculate(j, Input{
		Salary:        SalaryComponents{Basic: 10000},
		Applicability: Applicability{PF: true, ESI: true, PT: true, LWF: true},
		State:         "MH",
	})
	if result.GrossEarnings != 10000 || result.ProfessionalTax != 0 {
		t.Fatalf("unexpected result for zero jurisdiction: %+v", result)
	}
}
