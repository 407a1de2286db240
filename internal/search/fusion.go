// Package search implements hybrid retrieval: parallel lexical and
// semantic search fused with Reciprocal Rank Fusion.
package search

import (
	"sort"
)

// rrfK is the RRF smoothing constant. 60 is the standard value from the
// literature and is not configurable: it dampens the difference between
// adjacent top ranks without letting any single list dominate.
const rrfK = 60

// Candidate is one fused result before enrichment.
type Candidate struct {
	ChunkID string

	// Score is the RRF score: the sum over lists of 1/(rrfK + rank),
	// 1-based ranks, with absent lists contributing zero.
	Score float64

	// LexicalRank and SemanticRank are the 1-based ranks in each input
	// list, or 0 when the chunk did not appear in that list.
	LexicalRank  int
	SemanticRank int
}

// rankSum is the tie-break key: the sum of ranks in the lists where the
// chunk appears. Lower means the chunk sat higher overall.
func (c Candidate) rankSum() int {
	return c.LexicalRank + c.SemanticRank
}

// Fuse combines two ranked chunk ID lists with Reciprocal Rank Fusion
// and returns at most topN candidates, best first.
//
// Rank-based scores make lexical BM25 scores and semantic similarity
// scores comparable without calibration. Ties on the fused score break
// on lower rank sum, then on ascending chunk index (via chunkIndex), so
// output order is deterministic for identical inputs.
func Fuse(lexicalIDs, semanticIDs []string, topN int, chunkIndex func(chunkID string) int) []Candidate {
	if topN <= 0 {
		return []Candidate{}
	}

	byID := make(map[string]*Candidate, len(lexicalIDs)+len(semanticIDs))

	for i, id := range lexicalIDs {
		rank := i + 1
		c, ok := byID[id]
		if !ok {
			c = &Candidate{ChunkID: id}
			byID[id] = c
		}
		if c.LexicalRank == 0 {
			c.LexicalRank = rank
			c.Score += 1.0 / float64(rrfK+rank)
		}
	}

	for i, id := range semanticIDs {
		rank := i + 1
		c, ok := byID[id]
		if !ok {
			c = &Candidate{ChunkID: id}
			byID[id] = c
		}
		if c.SemanticRank == 0 {
			c.SemanticRank = rank
			c.Score += 1.0 / float64(rrfK+rank)
		}
	}

	candidates := make([]Candidate, 0, len(byID))
	for _, c := range byID {
		candidates = append(candidates, *c)
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.rankSum() != b.rankSum() {
			return a.rankSum() < b.rankSum()
		}
		return chunkIndex(a.ChunkID) < chunkIndex(b.ChunkID)
	})

	if len(candidates) > topN {
		candidates = candidates[:topN]
	}
	return candidates
}
