package mcp

// --- Tool Arguments ---

type RememberArgs struct {
	Title   string `json:"title" jsonschema:"Short title for the document,required"`
	Content string `json:"content" jsonschema:"The text content to digest into the knowledge graph,required"`
	Ticks   uint64 `json:"ticks,omitempty" jsonschema:"Simulation ticks to run after ingesting (default 15)"`
}

type RememberResult struct {
	DocumentID   string `json:"document_id"`
	NodesCreated int    `json:"nodes_created"`
	EdgesCreated int    `json:"edges_created"`
	Tick         uint64 `json:"tick"`
}

type RecallArgs struct {
	Query      string   `json:"query" jsonschema:"The query text to search for,required"`
	MaxResults int      `json:"max_results,omitempty" jsonschema:"Max number of results (default 10)"`
	Alpha      *float64 `json:"alpha,omitempty" jsonschema:"Lexical/graph mix: 1.0 is pure text match, 0.0 is pure graph structure. Default 0.5."`
}

type RecallEntry struct {
	Label      string  `json:"label"`
	TFIDFScore float64 `json:"tfidf_score"`
	GraphScore float64 `json:"graph_score"`
	FinalScore float64 `json:"final_score"`
}

type RecallResult struct {
	Results    []RecallEntry `json:"results"`
	TotalNodes int           `json:"total_nodes"`
	TotalEdges int           `json:"total_edges"`
}

type ExploreArgs struct {
	Type string `json:"type" jsonschema:"Kind of exploration,required,enum=path,enum=centrality,enum=bridges,enum=stats"`
	From string `json:"from,omitempty" jsonschema:"Start concept label (path only)"`
	To   string `json:"to,omitempty" jsonschema:"End concept label (path only)"`
	TopK int    `json:"top_k,omitempty" jsonschema:"How many entries to return for centrality/bridges (default 10)"`
}

type ExplorePathEntry struct {
	Found bool     `json:"found"`
	Path  []string `json:"path"`
	Cost  float64  `json:"cost"`
}

type ExploreCentralityEntry struct {
	Label      string  `json:"label"`
	Centrality float64 `json:"centrality"`
}

type ExploreBridgeEntry struct {
	Label     string  `json:"label"`
	Fragility float64 `json:"fragility"`
}

type ExploreStatsEntry struct {
	TotalNodes          int    `json:"total_nodes"`
	TotalEdges          int    `json:"total_edges"`
	ConnectedComponents int    `json:"connected_components"`
	Tick                uint64 `json:"tick"`
	AgentsAlive         int    `json:"agents_alive"`
}

type ExploreResult struct {
	Type       string                   `json:"type"`
	Path       *ExplorePathEntry        `json:"path,omitempty"`
	Centrality []ExploreCentralityEntry `json:"centrality,omitempty"`
	Bridges    []ExploreBridgeEntry     `json:"bridges,omitempty"`
	Stats      *ExploreStatsEntry       `json:"stats,omitempty"`
}
