package knowledge

import "testing"

func TestVectorLiteral(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		vec  []float32
		want string
	}{
		{name: "empty", vec: nil, want: "[]"},
		{name: "single", vec: []float32{1}, want: "[1]"},
		{name: "fractions", vec: []float32{0.5, -0.25, 2}, want: "[0.5,-0.25,2]"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := vectorLiteral(tc.vec); got != tc.want {
				t.Fatalf("vectorLiteral(%v) = %q, want %q", tc.vec, got, tc.want)
			}
		})
	}
}

func TestDocumentIDIsStablePerContent(t *testing.T) {
	t.Parallel()

	const text = "invoice #4521 for the cement order"
	if documentID(text) != documentID(text) {
		t.Fatal("same text must yield the same document id")
	}
	if documentID(text) == documentID(text+" updated") {
		t.Fatal("different text must yield different document ids")
	}
}
