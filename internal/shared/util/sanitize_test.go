package util

import "testing"

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"accents stripped", "Currículum Vitae.pdf", "curriculum_vitae.pdf"},
		{"spaces and symbols", "My CV (final)!.pdf", "my_cv_final_.pdf"},
		{"multiple underscores collapsed", "a   b___c.pdf", "a_b_c.pdf"},
		{"multiple dots collapsed", "cv...pdf", "cv.pdf"},
		{"leading trailing trimmed", "_cv_.pdf", "cv_.pdf"},
		{"uppercase lowered", "RESUME.PDF", "resume.pdf"},
		{"enye", "José Muñoz CV.pdf", "jose_munoz_cv.pdf"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SanitizeFileName(tc.in)
			if err != nil {
				t.Fatalf("SanitizeFileName(%q): %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSanitizeFileNameRejectsTraversal(t *testing.T) {
	if _, err := SanitizeFileName("../../etc/passwd"); err == nil {
		t.Fatal("expected error for traversal file name")
	}
	if _, err := SanitizeFileName("   "); err == nil {
		t.Fatal("expected error for blank file name")
	}
}

func TestOwnerKeyStable(t *testing.T) {
	a := OwnerKey("user-1")
	b := OwnerKey("user-1")
	if a != b {
		t.Fatalf("OwnerKey not stable: %q vs %q", a, b)
	}
	if a == OwnerKey("user-2") {
		t.Fatal("OwnerKey collision for different owners")
	}
	if len(a) != 64 {
		t.Fatalf("unexpected key length %d", len(a))
	}
}
