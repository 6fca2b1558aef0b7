package hybrid

import (
	"math"

	"github.com/clemens865/phago/pkg/core"
	"github.com/clemens865/phago/pkg/textanalyzer"
	"github.com/clemens865/phago/pkg/topology"
)

// tfidfIndex scores nodes lexically against a query. Each node's
// "document" is its label plus the labels of its direct neighbors, so
// a node can match a query term it co-occurs with even when its own
// label does not contain it.
type tfidfIndex struct {
	docs  map[core.NodeID]map[string]int // term frequencies per node
	df    map[string]int                 // document frequency per term
	total int
}

// buildIndex materializes the lexical index from the current graph.
// The index is rebuilt per query; queries run between ticks, and the
// graph changes every tick, so caching would only serve stale data.
func buildIndex(g *topology.Graph) *tfidfIndex {
	idx := &tfidfIndex{
		docs: make(map[core.NodeID]map[string]int),
		df:   make(map[string]int),
	}
	for _, n := range g.Nodes() {
		tf := make(map[string]int)
		for _, term := range textanalyzer.Terms(n.Label) {
			tf[term]++
		}
		for _, nb := range g.Neighbors(n.ID) {
			if nbNode, ok := g.GetNode(nb); ok {
				for _, term := range textanalyzer.Terms(nbNode.Label) {
					tf[term]++
				}
			}
		}
		if len(tf) == 0 {
			continue
		}
		idx.docs[n.ID] = tf
		for term := range tf {
			idx.df[term]++
		}
		idx.total++
	}
	return idx
}

// score returns the raw tf-idf relevance of one node for the query
// terms.
func (idx *tfidfIndex) score(id core.NodeID, terms []string) float64 {
	tf, ok := idx.docs[id]
	if !ok || idx.total == 0 {
		return 0
	}
	var sum float64
	for _, term := range terms {
		n, ok := tf[term]
		if !ok {
			continue
		}
		idf := math.Log(1.0 + float64(idx.total)/float64(idx.df[term]))
		sum += float64(n) * idf
	}
	return sum
}
