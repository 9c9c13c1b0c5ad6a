package domain

import "testing"

func TestDedupKeyNormalization(t *testing.T) {
	cases := []struct {
		name   string
		email  string
		phone  string
		region string
		want   string
	}{
		{"email only", "a@x.com", "", "NL", "a@x.com|no-phone"},
		{"email case folded", "A@X.Com", "", "NL", "a@x.com|no-phone"},
		{"email trimmed", "  a@x.com  ", "", "NL", "a@x.com|no-phone"},
		{"phone only national", "", "0612345678", "NL", "no-email|+31612345678"},
		{"both missing placeholders differ", "", "", "NL", "no-email|no-phone"},
		{"organization email with phone", "Sales@Acme.NL", "+31612345678", "NL", "sales@acme.nl|+31612345678"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DedupKey(tc.email, tc.phone, tc.region); got != tc.want {
				t.Errorf("DedupKey(%q, %q, %q) = %q, want %q", tc.email, tc.phone, tc.region, got, tc.want)
			}
		})
	}
}

// TestDedupKeyCollapsesPhoneFormats verifies that national and international
// renderings of the same number produce the same key.
func TestDedupKeyCollapsesPhoneFormats(t *testing.T) {
	national := DedupKey("", "06 1234 5678", "NL")
	international := DedupKey("", "+31612345678", "NL")
	if national != international {
		t.Errorf("phone formats must collapse: %q vs %q", national, international)
	}
	if national == "no-email|no-phone" {
		t.Errorf("valid phone must not produce the empty placeholder key, got %q", national)
	}
}

// TestDedupKeyUnparseablePhoneKeptVerbatim documents that an unparseable
// phone is carried into the key as typed (minus spaces) rather than dropped,
// so distinct garbage inputs stay distinct.
func TestDedupKeyUnparseablePhoneKeptVerbatim(t *testing.T) {
	got := DedupKey("", "not-a-number", "NL")
	if got != "no-email|not-a-number" {
		t.Errorf("DedupKey garbage phone = %q, want %q", got, "no-email|not-a-number")
	}
}

func TestHasContact(t *testing.T) {
	cases := []struct {
		email string
		phone string
		want  bool
	}{
		{"a@x.com", "", true},
		{"", "0612345678", true},
		{"a@x.com", "0612345678", true},
		{"", "", false},
		{"   ", "   ", false},
	}

	for _, tc := range cases {
		if got := HasContact(tc.email, tc.phone); got != tc.want {
			t.Errorf("HasContact(%q, %q) = %v, want %v", tc.email, tc.phone, got, tc.want)
		}
	}
}
