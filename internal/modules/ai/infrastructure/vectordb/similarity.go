package vectordb

import (
	"fmt"
	"math"
	"sort"
)

// cosineSimilarity 零向量与任意向量的相似度为 0
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

type scored struct {
	idx   int
	score float32
}

// topK 按分数降序取前 k 个，分数相同时保持插入顺序
func topK(scores []float32, k int) []scored {
	out := make([]scored, len(scores))
	for i, s := range scores {
		out[i] = scored{idx: i, score: s}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })
	if k < len(out) {
		out = out[:k]
	}
	return out
}

func checkBatch(nDocs, nVectors int) error {
	if nDocs != nVectors {
		return fmt.Errorf("got %d documents but %d vectors", nDocs, nVectors)
	}
	return nil
}
