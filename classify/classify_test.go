package classify

import "testing"

func TestKeywordClassifier(t *testing.T) {
	c := NewKeywordClassifier()
	tests := []struct {
		text string
		want string
	}{
		{"The quadratic EQUATION has two roots.", Mathematics},
		{"Kinetic Energy depends on velocity.", Physics},
		{"A molecule of water has three atoms.", Chemistry},
		{"The CELL membrane protects the cell.", Biology},
		{"The Roman Empire fell in 476.", History},
		{"Sorting algorithms compare keys.", ComputerScience},
		{"Each election renews the parliament.", PoliticalScience},
		{"Bread is made of flour and water.", General},
		{"", General},
	}
	for _, tt := range tests {
		if got := c.Classify(tt.text); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestPriorityOrder(t *testing.T) {
	// 同时命中数学与生物时，数学优先。
	if got := NewKeywordClassifier().Classify("A theorem about gene frequencies"); got != Mathematics {
		t.Fatalf("got %q, want %q", got, Mathematics)
	}
}

func TestCustomRules(t *testing.T) {
	c := KeywordClassifier{Rules: []Rule{{Label: "Music", Keywords: []string{"Chord"}}}}
	if got := c.Classify("a minor chord"); got != "Music" {
		t.Fatalf("got %q", got)
	}
}

func TestLabelsContainDefault(t *testing.T) {
	for _, l := range Labels {
		if l == General {
			return
		}
	}
	t.Fatalf("Labels must contain %q", General)
}
