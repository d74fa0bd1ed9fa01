package services

import "testing"

func TestValidatePhone(t *testing.T) {
	valid := []string{
		"89991234567",
		"+7 (999) 123-45-67",
		"9991234567",
		"8 (912) 345-67-89",
		"7-999-123-45-67",
		"999-123-45-67",
		"  +79991234567 ",
	}
	for _, raw := range valid {
		if !ValidatePhone(raw) {
			t.Fatalf("expected %q to be valid", raw)
		}
	}

	invalid := []string{
		"",
		"12345",
		"+1 999 123 4567",
		"8991234567",
		"+7 (199) 123-45-67",
		"899912345678",
		"phone: 89991234567",
	}
	for _, raw := range invalid {
		if ValidatePhone(raw) {
			t.Fatalf("expected %q to be invalid", raw)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"89991234567":        "+7 (999) 123-45-67",
		"+7 (999) 123-45-67": "+7 (999) 123-45-67",
		"9991234567":         "+7 (999) 123-45-67",
		"7 912 345 67 89":    "+7 (912) 345-67-89",
		"12345":              "12345",
		"+1 999 123 4567":    "+1 999 123 4567",
	}
	for raw, want := range cases {
		if got := NormalizePhone(raw); got != want {
			t.Fatalf("NormalizePhone(%q) = %q, want %q", raw, got, want)
		}
	}
}
