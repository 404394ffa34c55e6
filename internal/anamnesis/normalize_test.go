package anamnesis

import "testing"

// TestPhototypePoints tests the answer-to-points lookup and its fallbacks
func TestPhototypePoints(t *testing.T) {
	testCases := []struct {
		name   string
		answer string
		points int
	}{
		{name: "Table hit", answer: "Bege", points: 8},
		{name: "Table hit with accent", answer: "Nunca bronzeia", points: 0},
		{name: "Table hit lowercase", answer: "morena clara", points: 12},
		{name: "Table hit with surrounding spaces", answer: "  branca  ", points: 2},
		{name: "Literal number", answer: "3", points: 3},
		{name: "Unknown answer falls back to default", answer: "pele clara demais", points: DefaultPhototypePoints},
		{name: "Empty answer falls back to default", answer: "", points: DefaultPhototypePoints},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := PhototypePoints(tc.answer); got != tc.points {
				t.Errorf("PhototypePoints(%q) = %d, expected %d", tc.answer, got, tc.points)
			}
		})
	}
}

// TestParseYesNo tests the Portuguese yes/no token conversion
func TestParseYesNo(t *testing.T) {
	testCases := []struct {
		answer string
		want   bool
	}{
		{"sim", true},
		{"Sim", true},
		{" SIM ", true},
		{"s", true},
		{"não", false},
		{"nao", false},
		{"Não", false},
		{"", false},
		{"talvez", false},
	}

	for _, tc := range testCases {
		t.Run(tc.answer, func(t *testing.T) {
			if got := ParseYesNo(tc.answer); got != tc.want {
				t.Errorf("ParseYesNo(%q) = %v, expected %v", tc.answer, got, tc.want)
			}
		})
	}
}

// TestClassifyPhototype tests the score band mapping
func TestClassifyPhototype(t *testing.T) {
	testCases := []struct {
		points int
		want   string
	}{
		{0, "I"},
		{7, "I"},
		{8, "II"},
		{16, "II"},
		{17, "III"},
		{25, "III"},
		{26, "IV"},
		{30, "IV"},
		{31, "V"},
	}

	for _, tc := range testCases {
		if got := ClassifyPhototype(tc.points); got != tc.want {
			t.Errorf("ClassifyPhototype(%d) = %s, expected %s", tc.points, got, tc.want)
		}
	}
}
