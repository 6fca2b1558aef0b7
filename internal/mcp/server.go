// Package mcp exposes the colony over the Model Context Protocol so
// an LLM client can feed documents in and query the grown graph.
package mcp

import (
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/clemens865/phago/pkg/colony"
)

// Version is reported in the MCP handshake.
const Version = "0.1.0"

func NewMCPServer(c *colony.Colony, logger *slog.Logger) *mcp.Server {
	service := NewService(c, logger)

	s := mcp.NewServer(&mcp.Implementation{
		Name:    "Phago Colony",
		Version: Version,
	}, nil)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "phago_remember",
		Description: "Ingest a document into the living knowledge graph. Agents digest it over a number of simulation ticks, extracting concepts and wiring associations.",
	}, service.Remember)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "phago_recall",
		Description: "Search the knowledge graph with a hybrid lexical+structural query. Alpha mixes text match against graph connectivity.",
	}, service.Recall)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "phago_explore",
		Description: "Explore graph structure: shortest concept paths, centrality ranking, bridge concepts, or overall stats.",
	}, service.Explore)

	return s
}
