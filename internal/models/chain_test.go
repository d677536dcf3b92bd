package models

import "testing"

func TestConditionEvaluate(t *testing.T) {
	ctx := map[string]string{
		"status": "shipped to prod",
		"lang":   "go",
		"empty":  "",
	}

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"presence check", Condition{Variable: "lang"}, true},
		{"presence of empty value", Condition{Variable: "empty"}, true},
		{"absent variable", Condition{Variable: "missing"}, false},
		{"equals match", Condition{Variable: "lang", Equals: "go"}, true},
		{"equals mismatch", Condition{Variable: "lang", Equals: "rust"}, false},
		{"equals on absent variable", Condition{Variable: "missing", Equals: "x"}, false},
		{"contains match", Condition{Variable: "status", Contains: "prod"}, true},
		{"contains mismatch", Condition{Variable: "status", Contains: "staging"}, false},
		{"matches regexp", Condition{Variable: "status", Matches: `^shipped\b`}, true},
		{"matches mismatch", Condition{Variable: "status", Matches: `^failed`}, false},
		{"invalid regexp is false", Condition{Variable: "status", Matches: `[`}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cond.Evaluate(ctx); got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPromptTagHelpers(t *testing.T) {
	p := &Prompt{Tags: []string{"Dev", "review"}}

	if !p.HasTag("dev") {
		t.Error("HasTag should be case-insensitive")
	}
	if p.HasTag("ops") {
		t.Error("HasTag matched an absent tag")
	}
	if !p.HasAllTags([]string{"dev", "REVIEW"}) {
		t.Error("HasAllTags should match the full set case-insensitively")
	}
	if p.HasAllTags([]string{"dev", "ops"}) {
		t.Error("HasAllTags matched despite a missing tag")
	}
	if !p.HasAllTags(nil) {
		t.Error("empty tag filter should match everything")
	}
}

func TestPromptVersionLookup(t *testing.T) {
	p := &Prompt{
		CurrentVersion: 2,
		Versions: []VersionRecord{
			{Version: 1, Content: "first"},
			{Version: 2, Content: "second"},
		},
	}
	if rec := p.Version(1); rec == nil || rec.Content != "first" {
		t.Errorf("Version(1) = %+v", rec)
	}
	if rec := p.Version(3); rec != nil {
		t.Errorf("Version(3) = %+v, want nil", rec)
	}
}
