package rubric

import "testing"

func TestRegisteredVersions(t *testing.T) {
	cases := []struct {
		version  string
		criteria int
		mode     ScoringMode
		maxScore int
	}{
		{"v1", 8, ScoringModeModel, 10},
		{"v2", 10, ScoringModeDerived, 10},
		{"v3", 12, ScoringModeDerived, 12},
	}

	for _, tc := range cases {
		t.Run(tc.version, func(t *testing.T) {
			r, ok := Get(tc.version)
			if !ok {
				t.Fatalf("rubric %s not registered", tc.version)
			}
			if len(r.Criteria) != tc.criteria {
				t.Errorf("criteria count = %d, want %d", len(r.Criteria), tc.criteria)
			}
			if r.ScoringMode != tc.mode {
				t.Errorf("scoring mode = %s, want %s", r.ScoringMode, tc.mode)
			}
			if r.MaxScore != tc.maxScore {
				t.Errorf("max score = %d, want %d", r.MaxScore, tc.maxScore)
			}
		})
	}
}

func TestGetUnknownVersion(t *testing.T) {
	if _, ok := Get("v99"); ok {
		t.Fatal("expected unknown version to be rejected")
	}
}

func TestDefaultIsLatest(t *testing.T) {
	r := Default()
	if r.Version != "v3" {
		t.Fatalf("default rubric = %s, want v3", r.Version)
	}
}

func TestKeysUniqueAndOrdered(t *testing.T) {
	for _, version := range Versions() {
		r := MustGet(version)
		seen := make(map[string]struct{})
		for _, key := range r.Keys() {
			if _, dup := seen[key]; dup {
				t.Errorf("rubric %s has duplicate key %s", version, key)
			}
			seen[key] = struct{}{}
		}
	}
}

func TestLaterVersionsExtendEarlier(t *testing.T) {
	v1 := MustGet("v1")
	v3 := MustGet("v3")
	v3Keys := make(map[string]struct{})
	for _, k := range v3.Keys() {
		v3Keys[k] = struct{}{}
	}
	for _, k := range v1.Keys() {
		if _, ok := v3Keys[k]; !ok {
			t.Errorf("v1 key %s missing from v3", k)
		}
	}
}

func TestBandThresholds(t *testing.T) {
	v3 := MustGet("v3")
	cases := []struct {
		score int
		want  string
	}{
		{12, BandHire},
		{11, BandHire},
		{10, BandMaybe},
		{9, BandMaybe},
		{8, BandMaybe},
		{7, BandNoHire},
		{0, BandNoHire},
	}
	for _, tc := range cases {
		if got := v3.Band(tc.score); got != tc.want {
			t.Errorf("v3.Band(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}

	v1 := MustGet("v1")
	if got := v1.Band(8); got != BandHire {
		t.Errorf("v1.Band(8) = %s, want %s", got, BandHire)
	}
	if got := v1.Band(7); got != BandMaybe {
		t.Errorf("v1.Band(7) = %s, want %s", got, BandMaybe)
	}
	if got := v1.Band(6); got != BandMaybe {
		t.Errorf("v1.Band(6) = %s, want %s", got, BandMaybe)
	}
	if got := v1.Band(5); got != BandNoHire {
		t.Errorf("v1.Band(5) = %s, want %s", got, BandNoHire)
	}
}
