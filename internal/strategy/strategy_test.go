package strategy_test

import (
	"strings"
	"testing"

	"smartcollect/internal/strategy"
)

func TestEvaluateSevereAccountClampsAtHundred(t *testing.T) {
	ev := strategy.Evaluate(strategy.Input{
		DaysOverdue:    65,
		Amount:         12000,
		RepeatOffender: true,
		History:        "bad",
	})
	if ev.Score != 100 {
		t.Fatalf("score = %d, want 100", ev.Score)
	}
	if ev.Tier != strategy.TierCritical {
		t.Fatalf("tier = %s, want Critical", ev.Tier)
	}
	if ev.SuccessProbability != 95 {
		t.Fatalf("probability = %d, want 95", ev.SuccessProbability)
	}
	if ev.RecommendedChannel != "Direct call" {
		t.Fatalf("channel = %q", ev.RecommendedChannel)
	}
}

func TestEvaluateFreshSmallAccount(t *testing.T) {
	ev := strategy.Evaluate(strategy.Input{DaysOverdue: 0, Amount: 50, History: "good"})
	if ev.Score != 35 {
		t.Fatalf("score = %d, want 35", ev.Score)
	}
	if ev.Tier != strategy.TierLow {
		t.Fatalf("tier = %s, want Low", ev.Tier)
	}
	if ev.SuccessProbability != 42 {
		t.Fatalf("probability = %d, want 42", ev.SuccessProbability)
	}
}

func TestEvaluateTierBreakpoints(t *testing.T) {
	cases := []struct {
		name string
		in   strategy.Input
		want string
	}{
		{"eight days lands on medium edge", strategy.Input{DaysOverdue: 8}, strategy.TierMedium},
		{"fifteen days stays medium", strategy.Input{DaysOverdue: 15}, strategy.TierMedium},
		{"fifteen days with amount is high", strategy.Input{DaysOverdue: 15, Amount: 300}, strategy.TierHigh},
		{"thirty days is critical edge", strategy.Input{DaysOverdue: 30}, strategy.TierCritical},
		{"attempt penalty drops below critical", strategy.Input{DaysOverdue: 30, ContactAttempts: 1}, strategy.TierHigh},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := strategy.Evaluate(tc.in).Tier; got != tc.want {
				t.Fatalf("tier = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestEvaluateNeverGoesNegative(t *testing.T) {
	ev := strategy.Evaluate(strategy.Input{ContactAttempts: 20})
	if ev.Score != 0 {
		t.Fatalf("score = %d, want 0", ev.Score)
	}
	if ev.SuccessProbability != 10 {
		t.Fatalf("probability = %d, want 10", ev.SuccessProbability)
	}
}

func TestEvaluateCoercesGarbage(t *testing.T) {
	ev := strategy.Evaluate(strategy.Input{DaysOverdue: -5, Amount: -100, ContactAttempts: -2, History: "weird"})
	if ev.Score != 35 {
		t.Fatalf("score = %d, want base score for all-neutral input", ev.Score)
	}
}

func TestFormatMoney(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "R$ 0,00"},
		{1234.56, "R$ 1.234,56"},
		{1000000, "R$ 1.000.000,00"},
		{-5, "R$ 0,00"},
		{999.995, "R$ 1.000,00"},
	}
	for _, tc := range cases {
		if got := strategy.FormatMoney(tc.in); got != tc.want {
			t.Errorf("FormatMoney(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBuildMessageUsesFirstName(t *testing.T) {
	msg := strategy.BuildMessage(strategy.TierHigh, "Maria Souza Lima", 1500)
	if !strings.Contains(msg, "Maria") || strings.Contains(msg, "Souza") {
		t.Fatalf("message should address the first name only: %q", msg)
	}
	if !strings.Contains(msg, "R$ 1.500,00") {
		t.Fatalf("message should carry the formatted amount: %q", msg)
	}
}

func TestFirstName(t *testing.T) {
	if got := strategy.FirstName("  João Pedro "); got != "João" {
		t.Fatalf("FirstName = %q", got)
	}
	if got := strategy.FirstName(""); got != "" {
		t.Fatalf("FirstName of empty = %q", got)
	}
}
