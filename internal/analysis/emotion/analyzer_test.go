package emotion

import "testing"

func TestAnalyzeGriefIsBoosted(t *testing.T) {
	decision := Analyze("My father passed away last week and I feel so empty")
	if decision.Label != Grief && decision.Label != Sadness {
		t.Fatalf("expected grief or sadness, got %s", decision.Label)
	}
	if decision.Confidence < 0.6 {
		t.Fatalf("expected boosted confidence, got %f", decision.Confidence)
	}
	if decision.Emoji == "" || decision.Color == "" {
		t.Fatalf("expected emoji and color, got %+v", decision)
	}
}

func TestAnalyzeAnger(t *testing.T) {
	decision := Analyze("I am so angry and frustrated with my boss")
	if decision.Label != Anger && decision.Label != Annoyance {
		t.Fatalf("expected anger family, got %s", decision.Label)
	}
}

func TestAnalyzeNervousness(t *testing.T) {
	decision := Analyze("I'm anxious about tomorrow's exam")
	if decision.Label != Nervousness {
		t.Fatalf("expected nervousness, got %s", decision.Label)
	}
	if decision.Emoji != "😰" {
		t.Fatalf("unexpected emoji %q", decision.Emoji)
	}
}

func TestAnalyzeNeutralFallback(t *testing.T) {
	for _, text := range []string{"", "   ", "the sky is a color"} {
		decision := Analyze(text)
		if decision.Label != Neutral || decision.Confidence != 0.5 {
			t.Fatalf("expected neutral 0.5 for %q, got %+v", text, decision)
		}
	}
}

func TestAnalyzeConfidenceBounded(t *testing.T) {
	decision := Analyze("grief mourning funeral died death devastated passed away, lonely and empty")
	if decision.Confidence > 0.95 {
		t.Fatalf("confidence exceeds cap: %f", decision.Confidence)
	}
}

func TestStyleOfUnknownLabel(t *testing.T) {
	emoji, color := StyleOf("bewilderment")
	if emoji != "😐" || color != "#F3F4F6" {
		t.Fatalf("expected neutral style, got %s %s", emoji, color)
	}
	if Known("bewilderment") {
		t.Fatal("unknown label reported as known")
	}
}
