package engine

import "testing"

func TestEvaluateCondition(t *testing.T) {
	cases := []struct {
		name      string
		condition string
		input     string
		want      bool
	}{
		{"literal true", "true", "", true},
		{"literal true ignores input", "true", "anything", true},
		{"contains match", "contains('urgent')", "This is URGENT please", true},
		{"contains case insensitive", "contains('HELP')", "i need help", true},
		{"contains miss", "contains('refund')", "just saying hi", false},
		{"contains empty term", "contains('')", "anything", false},
		{"contains with spaces", "contains( 'order' )", "my order arrived", true},
		{"unknown expression", "input.length > 5", "long enough text", false},
		{"empty condition", "", "anything", false},
		{"false literal", "false", "anything", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := evaluateCondition(tc.condition, tc.input); got != tc.want {
				t.Errorf("evaluateCondition(%q, %q) = %t, want %t", tc.condition, tc.input, got, tc.want)
			}
		})
	}
}
