package redact

import "testing"

func TestReplacement(t *testing.T) {
	t.Run("PartialKeepsLastFour", func(t *testing.T) {
		got := Replacement("credit_card", "4111-1111-1111-1111")
		if got != "XXXX-XXXX-XXXX-1111" {
			t.Errorf("credit_card replacement = %q", got)
		}

		got = Replacement("ssn", "123-45-6789")
		if got != "XXX-XX-6789" {
			t.Errorf("ssn replacement = %q", got)
		}

		got = Replacement("phone_number", "(555) 123-4567")
		if got != "(XXX) XXX-4567" {
			t.Errorf("phone_number replacement = %q", got)
		}
	})

	t.Run("ShortMatchFallsBack", func(t *testing.T) {
		got := Replacement("ssn", "12")
		if got != "XXX-XX-1234" {
			t.Errorf("short match replacement = %q", got)
		}
	})

	t.Run("FullTokens", func(t *testing.T) {
		cases := map[string]string{
			"email":      "email@redacted.com",
			"ip_address": "XXX.XXX.XXX.XXX",
			"password":   "password: [REDACTED]",
			"uk_nino":    "[REDACTED NATIONAL ID]",
		}
		for category, want := range cases {
			if got := Replacement(category, "anything"); got != want {
				t.Errorf("Replacement(%q) = %q, want %q", category, got, want)
			}
		}
	})

	t.Run("UnknownCategoryBracketed", func(t *testing.T) {
		got := Replacement("employee_id", "EMP-12345")
		if got != "[REDACTED EMPLOYEE_ID]" {
			t.Errorf("unknown category replacement = %q", got)
		}
	})
}

func TestIsToken(t *testing.T) {
	tokens := []string{
		"email@redacted.com",
		"XXX.XXX.XXX.XXX",
		"XX/XX/XXXX",
		"password: [REDACTED]",
		"[REDACTED API KEY]",
		"[REDACTED EMPLOYEE_ID]",
		"XXXX-XXXX-XXXX-1111",
		"XXX-XX-6789",
		"(XXX) XXX-4567",
	}
	for _, token := range tokens {
		if !IsToken(token) {
			t.Errorf("IsToken(%q) = false, want true", token)
		}
	}

	notTokens := []string{
		"alice@example.com",
		"123-45-6789",
		"4111-1111-1111-1111",
		"[NOT A TOKEN",
		"plain text",
	}
	for _, literal := range notTokens {
		if IsToken(literal) {
			t.Errorf("IsToken(%q) = true, want false", literal)
		}
	}
}
