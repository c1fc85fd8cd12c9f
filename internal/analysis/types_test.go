package analysis

import "testing"

func TestParseDepth(t *testing.T) {
	tests := []struct {
		in   string
		want Depth
		ok   bool
	}{
		{"surface", DepthSurface, true},
		{"standard", DepthStandard, true},
		{"deep", DepthDeep, true},
		{"", DepthStandard, true},
		{"shallow", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseDepth(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseDepth(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestModuleTypePriority(t *testing.T) {
	order := []ModuleType{ModuleCore, ModuleUtil, ModuleConfig, ModuleUnknown, ModuleTest}
	for i := 1; i < len(order); i++ {
		if order[i-1].Priority() >= order[i].Priority() {
			t.Errorf("%s should sort before %s", order[i-1], order[i])
		}
	}
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		score int
		want  ComplexityTier
	}{
		{0, TierLow},
		{29, TierLow},
		{30, TierMedium},
		{70, TierMedium},
		{71, TierHigh},
		{100, TierHigh},
	}
	for _, tt := range tests {
		if got := TierFor(tt.score); got != tt.want {
			t.Errorf("TierFor(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestReportsStructuralFor(t *testing.T) {
	r := Reports{Structural: []StructuralReport{{ModulePath: "src"}, {ModulePath: "lib"}}}
	if got, ok := r.StructuralFor("lib"); !ok || got.ModulePath != "lib" {
		t.Errorf("StructuralFor(lib) = %v, %v", got, ok)
	}
	if _, ok := r.StructuralFor("docs"); ok {
		t.Error("StructuralFor(docs) should miss")
	}
}
