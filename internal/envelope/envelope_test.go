package envelope

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	archerrors "archlens/internal/errors"
)

func TestBuilder(t *testing.T) {
	created := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	resp := New().
		Data(map[string]int{"modules": 3}).
		WithTruncation(true, 10, 25, "max-sections").
		WithCache(true, "a-1", created, created.Add(90*time.Second)).
		Warning("focus matched nothing").
		Suggest("expand_section", "inspect the largest module", map[string]any{"sectionId": "module_core"}).
		Build()

	if resp.SchemaVersion != CurrentSchemaVersion {
		t.Errorf("SchemaVersion = %q", resp.SchemaVersion)
	}
	if resp.Meta.Truncation == nil || resp.Meta.Truncation.Shown != 10 || resp.Meta.Truncation.Total != 25 {
		t.Errorf("Truncation = %+v", resp.Meta.Truncation)
	}
	if resp.Meta.Cache == nil || !resp.Meta.Cache.Hit || resp.Meta.Cache.Age != "1m30s" {
		t.Errorf("Cache = %+v", resp.Meta.Cache)
	}
	if len(resp.Warnings) != 1 || len(resp.SuggestedNextCalls) != 1 {
		t.Errorf("unexpected warnings/suggestions: %+v", resp)
	}
}

func TestBuilder_NoTruncationLeavesMetaEmpty(t *testing.T) {
	resp := New().Data("x").WithTruncation(false, 1, 1, "").Build()
	if resp.Meta != nil {
		t.Errorf("Meta = %+v, want nil", resp.Meta)
	}
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "meta") || strings.Contains(string(data), "error") {
		t.Errorf("empty optional fields should be omitted: %s", data)
	}
}

func TestFromError(t *testing.T) {
	resp := FromError(archerrors.NewAnalysisNotFoundError("gone"))
	if resp.Error == nil || resp.Error.Code != archerrors.AnalysisNotFound {
		t.Fatalf("Error = %+v", resp.Error)
	}
	if len(resp.SuggestedNextCalls) == 0 || resp.SuggestedNextCalls[0].Tool != "analyze_repository" {
		t.Errorf("drilldowns should become suggestions: %+v", resp.SuggestedNextCalls)
	}

	plain := FromError(errors.New("boom"))
	if plain.Error.Code != archerrors.InternalError || plain.Error.Message != "boom" {
		t.Errorf("plain error = %+v", plain.Error)
	}
}
