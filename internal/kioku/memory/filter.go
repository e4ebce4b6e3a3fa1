package memory

import (
	"log/slog"
	"math"
	"sort"
)

// FilterConfig tunes the relevance filter.
type FilterConfig struct {
	// Threshold is the cosine-similarity floor. Candidates must score
	// strictly above it to survive (the boundary itself excludes).
	Threshold float64
	// TopN bounds how many of the best-scoring candidates are even
	// considered before thresholding.
	TopN int
}

// scored pairs a candidate with its similarity to the query.
type scored struct {
	rec Record
	sim float64
}

// SelectRelevant ranks the candidate set against the query vector and trims
// it to the turns worth injecting into the prompt:
//
//  1. Score every candidate by cosine similarity to queryVec.
//  2. Rank by similarity, ties broken by ascending insertion index so the
//     output is reproducible.
//  3. Of the top TopN, keep those scoring strictly above Threshold.
//  4. Force-include the newest candidate (largest index) regardless of its
//     score, so the reply never loses the thread of the immediately
//     preceding exchange.
//  5. Return the survivors in chronological order, since downstream consumers
//     get a timeline, not a ranking.
func SelectRelevant(candidates []Record, queryVec []float32, cfg FilterConfig) []Record {
	if len(candidates) == 0 {
		return nil
	}

	ranked := make([]scored, 0, len(candidates))
	newest := candidates[0]
	for _, c := range candidates {
		ranked = append(ranked, scored{rec: c, sim: cosine(queryVec, c.Embedding)})
		if c.Index > newest.Index {
			newest = c
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].sim != ranked[j].sim {
			return ranked[i].sim > ranked[j].sim
		}
		return ranked[i].rec.Index < ranked[j].rec.Index
	})

	topN := cfg.TopN
	if topN < 0 {
		topN = 0
	}
	if topN > len(ranked) {
		topN = len(ranked)
	}

	keep := make(map[int64]Record, topN+1)
	for _, s := range ranked[:topN] {
		if s.sim > cfg.Threshold {
			keep[s.rec.Index] = s.rec
		}
		slog.Debug("memory: candidate scored",
			"idx", s.rec.Index, "similarity", s.sim, "kept", s.sim > cfg.Threshold)
	}

	// Continuity rule: the most recent memory stays in even below threshold.
	keep[newest.Index] = newest

	out := make([]Record, 0, len(keep))
	for _, rec := range keep {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// cosine returns the cosine similarity of two vectors, 0 when either has no
// magnitude or the dimensions disagree.
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
