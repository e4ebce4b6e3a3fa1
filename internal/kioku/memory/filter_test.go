package memory

import "testing"

// vec returns a 3-dim embedding; cosine against the query vector {1,0,0}
// equals the first component when the vector is unit length.
func vec(x, y, z float32) []float32 { return []float32{x, y, z} }

var queryVec = vec(1, 0, 0)

func TestSelectRelevant_Empty(t *testing.T) {
	if got := SelectRelevant(nil, queryVec, FilterConfig{Threshold: 0.15, TopN: 8}); got != nil {
		t.Fatalf("expected nil for empty candidate set, got %v", got)
	}
}

func TestSelectRelevant_ChronologicalOutput(t *testing.T) {
	candidates := []Record{
		{Index: 2, Text: "newest", Role: RoleUser, Embedding: vec(0.9, 0.1, 0)},
		{Index: 0, Text: "oldest", Role: RoleUser, Embedding: vec(0.95, 0, 0)},
		{Index: 1, Text: "middle", Role: RoleAssistant, Embedding: vec(0.92, 0, 0.1)},
	}
	got := SelectRelevant(candidates, queryVec, FilterConfig{Threshold: 0.15, TopN: 8})
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Index <= got[i-1].Index {
			t.Fatalf("output not in ascending index order: %v", got)
		}
	}
}

func TestSelectRelevant_ThresholdIsStrict(t *testing.T) {
	// Both candidates score exactly at the threshold; only the newest
	// survives, and only through the continuity rule.
	emb := vec(1, 1, 0)
	candidates := []Record{
		{Index: 0, Embedding: emb},
		{Index: 1, Embedding: emb},
	}
	threshold := cosine(queryVec, emb)
	got := SelectRelevant(candidates, queryVec, FilterConfig{Threshold: threshold, TopN: 8})
	if len(got) != 1 {
		t.Fatalf("expected only the forced-recent record, got %d: %v", len(got), got)
	}
	if got[0].Index != 1 {
		t.Fatalf("expected the newest record (idx 1), got idx %d", got[0].Index)
	}
}

func TestSelectRelevant_ContinuityRule(t *testing.T) {
	// The newest candidate is orthogonal to the query (similarity 0) but
	// must still be included.
	candidates := []Record{
		{Index: 0, Embedding: vec(1, 0, 0)},
		{Index: 5, Embedding: vec(0, 1, 0)},
	}
	got := SelectRelevant(candidates, queryVec, FilterConfig{Threshold: 0.15, TopN: 8})
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[len(got)-1].Index != 5 {
		t.Fatalf("expected newest record last, got %v", got)
	}
}

func TestSelectRelevant_TopNBound(t *testing.T) {
	// Five relevant candidates but TopN 2: only the two best survive the
	// cut, plus the forced newest.
	candidates := []Record{
		{Index: 0, Embedding: vec(0.99, 0, 0)},
		{Index: 1, Embedding: vec(0.98, 0, 0)},
		{Index: 2, Embedding: vec(0.97, 0, 0)},
		{Index: 3, Embedding: vec(0.96, 0, 0)},
		{Index: 4, Embedding: vec(0.2, 0.9, 0)},
	}
	got := SelectRelevant(candidates, queryVec, FilterConfig{Threshold: 0.15, TopN: 2})
	if len(got) != 3 {
		t.Fatalf("expected 3 records (top 2 + forced newest), got %d: %v", len(got), got)
	}
	want := []int64{0, 1, 4}
	for i, w := range want {
		if got[i].Index != w {
			t.Fatalf("expected indexes %v, got record %d with idx %d", want, i, got[i].Index)
		}
	}
}

func TestSelectRelevant_NonPositiveTopN(t *testing.T) {
	// A misconfigured bound must not blow up; the continuity rule still
	// carries the newest record through.
	candidates := []Record{
		{Index: 0, Embedding: vec(0.99, 0, 0)},
		{Index: 1, Embedding: vec(0.98, 0, 0)},
	}
	for _, topN := range []int{0, -1, -8} {
		got := SelectRelevant(candidates, queryVec, FilterConfig{Threshold: 0.15, TopN: topN})
		if len(got) != 1 || got[0].Index != 1 {
			t.Fatalf("TopN=%d: expected only the newest record, got %v", topN, got)
		}
	}
}

func TestSelectRelevant_GreetingScenario(t *testing.T) {
	// memories = [("hi", user, idx 0), ("hello", assistant, idx 1)],
	// threshold 0.15, top_n 8, query "hi": both survive, chronological.
	hi := vec(0.97, 0.17, 0.17)     // near-identical to the query
	hello := vec(0.85, 0.5, 0.17)   // similar greeting
	candidates := []Record{
		{Index: 1, Role: RoleAssistant, Text: "hello", Embedding: hello},
		{Index: 0, Role: RoleUser, Text: "hi", Embedding: hi},
	}
	got := SelectRelevant(candidates, queryVec, FilterConfig{Threshold: 0.15, TopN: 8})
	if len(got) != 2 {
		t.Fatalf("expected both records, got %d: %v", len(got), got)
	}
	if got[0].Index != 0 || got[1].Index != 1 {
		t.Fatalf("expected order [idx0, idx1], got [%d, %d]", got[0].Index, got[1].Index)
	}
}

func TestSelectRelevant_DeterministicTieBreak(t *testing.T) {
	same := vec(0.8, 0.6, 0)
	candidates := []Record{
		{Index: 3, Embedding: same},
		{Index: 1, Embedding: same},
		{Index: 2, Embedding: same},
	}
	first := SelectRelevant(candidates, queryVec, FilterConfig{Threshold: 0.15, TopN: 2})
	for i := 0; i < 10; i++ {
		again := SelectRelevant(candidates, queryVec, FilterConfig{Threshold: 0.15, TopN: 2})
		if len(again) != len(first) {
			t.Fatalf("non-deterministic output size: %d vs %d", len(again), len(first))
		}
		for j := range again {
			if again[j].Index != first[j].Index {
				t.Fatalf("non-deterministic output: %v vs %v", again, first)
			}
		}
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", vec(1, 0, 0), vec(1, 0, 0), 1},
		{"orthogonal", vec(1, 0, 0), vec(0, 1, 0), 0},
		{"opposite", vec(1, 0, 0), vec(-1, 0, 0), -1},
		{"zero vector", vec(0, 0, 0), vec(1, 0, 0), 0},
		{"dimension mismatch", []float32{1, 0}, vec(1, 0, 0), 0},
		{"nil", nil, vec(1, 0, 0), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosine(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Fatalf("cosine = %v, want %v", got, tt.want)
			}
		})
	}
}
