package flow

import "testing"

func TestMatchesExistingIntent(t *testing.T) {
	tests := []struct {
		utterance string
		want      bool
	}{
		{"existing", true},
		{"i'm an existing customer", true},
		{"current account holder", true},
		{"returning user", true},
		{"old customer here", true},
		{"new", false},
		{"hello", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := matchesExistingIntent(tt.utterance); got != tt.want {
			t.Errorf("matchesExistingIntent(%q) = %v, want %v", tt.utterance, got, tt.want)
		}
	}
}

func TestMatchesNewIntent(t *testing.T) {
	tests := []struct {
		utterance string
		want      bool
	}{
		{"new", true},
		{"i'd like to sign up", true},
		{"open an account", true},
		{"can i join", true},
		{"newbie", true},
		{"existing", false},
		{"hello", false},
	}
	for _, tt := range tests {
		if got := matchesNewIntent(tt.utterance); got != tt.want {
			t.Errorf("matchesNewIntent(%q) = %v, want %v", tt.utterance, got, tt.want)
		}
	}
}

func TestMatchesExitIntent(t *testing.T) {
	tests := []struct {
		utterance string
		want      bool
	}{
		{"bye", true},
		{"goodbye", false}, // stem match requires a word boundary before "bye"
		{"exit", true},
		{"please close my chat", true},
		{"thanks, that's all", true},
		{"thank you", true},
		{"what's my balance", false},
	}
	for _, tt := range tests {
		if got := matchesExitIntent(tt.utterance); got != tt.want {
			t.Errorf("matchesExitIntent(%q) = %v, want %v", tt.utterance, got, tt.want)
		}
	}
}

func TestMatchesAffirmative(t *testing.T) {
	for _, yes := range []string{"yes", "yes please", "yep", "y", "  yes  "} {
		if !matchesAffirmative(yes) {
			t.Errorf("matchesAffirmative(%q) = false, want true", yes)
		}
	}
	for _, no := range []string{"yeah sure", "no", "maybe", "yessir", ""} {
		if matchesAffirmative(no) {
			t.Errorf("matchesAffirmative(%q) = true, want false", no)
		}
	}
}

func TestMatchesConfirmation(t *testing.T) {
	for _, yes := range []string{"yes", "yep", "yeah", "y", " yup "} {
		if !matchesConfirmation(yes) {
			t.Errorf("matchesConfirmation(%q) = false, want true", yes)
		}
	}
	for _, no := range []string{"no", "nope", "cancel", ""} {
		if matchesConfirmation(no) {
			t.Errorf("matchesConfirmation(%q) = true, want false", no)
		}
	}
}

func TestTitleCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"john smith", "John Smith"},
		{"JOHN SMITH", "John Smith"},
		{"  maria   garcia  ", "Maria Garcia"},
		{"éric dupont", "Éric Dupont"},
		{"ÉRIC", "Éric"},
		{"o", "O"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := titleCase(tt.in); got != tt.want {
			t.Errorf("titleCase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{12500.5, "$12,500.50"},
		{0, "$0.00"},
		{999.99, "$999.99"},
		{1000, "$1,000.00"},
		{1234567.89, "$1,234,567.89"},
		{-1234.5, "-$1,234.50"},
	}
	for _, tt := range tests {
		if got := formatUSD(tt.amount); got != tt.want {
			t.Errorf("formatUSD(%v) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}
