package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/batchmates/batchmates/internal/agent"
	"github.com/batchmates/batchmates/internal/graph"
	"github.com/batchmates/batchmates/internal/profile"
	"github.com/batchmates/batchmates/internal/storage"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store        *storage.Store
	Agent        *agent.Agent
	ProfilesPath string // profiles artifact backing the batchmates://profiles resource
	GraphPath    string // graph artifact backing the batchmates://graph resource
}

// NewMCPServer creates an MCP server exposing the batchmates lookups as
// tools and the pipeline artifacts as resources.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"batchmates",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("batchmates — who's who in the batch: people, their interests, and the canonical tags connecting them."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("list_person_interests",
			mcp.WithDescription("List the interests a specific person mentioned in their intro."),
			mcp.WithString("person", mcp.Description("The person's full name"), mcp.Required()),
		),
		mcpPersonInterests(deps),
	)

	s.AddTool(
		mcp.NewTool("find_people_by_interest",
			mcp.WithDescription("Find everyone in the batch whose interests match a canonical tag."),
			mcp.WithString("interest", mcp.Description("Canonical interest tag, e.g. \"rust\" or \"music\""), mcp.Required()),
		),
		mcpPeopleWithInterest(deps),
	)

	s.AddTool(
		mcp.NewTool("list_tags",
			mcp.WithDescription("List the canonical interest tags in the vocabulary."),
		),
		mcpListTags(deps),
	)

	s.AddTool(
		mcp.NewTool("ask",
			mcp.WithDescription("Answer a free-form question about people in the batch and their interests."),
			mcp.WithString("question", mcp.Description("The question in plain English"), mcp.Required()),
		),
		mcpAsk(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"batchmates://profiles",
			"Extracted Profiles",
			mcp.WithResourceDescription("All extracted profiles as JSON, keyed by person name"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceProfiles(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"batchmates://graph",
			"Shared Interest Graph",
			mcp.WithResourceDescription("Undirected graph linking people who share canonical interests"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceGraph(deps),
	)

	return s
}

func mcpPersonInterests(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		person, err := req.RequireString("person")
		if err != nil {
			return mcpError("person is required"), nil
		}

		interests, err := deps.Agent.PersonInterests(ctx, person)
		if err != nil {
			return mcpError(fmt.Sprintf("lookup failed: %v", err)), nil
		}

		b, err := json.Marshal(interests)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal interests: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpPeopleWithInterest(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		interest, err := req.RequireString("interest")
		if err != nil {
			return mcpError("interest is required"), nil
		}

		people, err := deps.Agent.PeopleWithInterest(ctx, interest)
		if err != nil {
			return mcpError(fmt.Sprintf("lookup failed: %v", err)), nil
		}

		b, err := json.Marshal(people)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal people: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpListTags(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tags, err := deps.Store.ListTags(ctx)
		if err != nil {
			return mcpError(fmt.Sprintf("listing tags: %v", err)), nil
		}
		if tags == nil {
			tags = []string{}
		}

		b, err := json.Marshal(tags)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal tags: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpAsk(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil {
			return mcpError("question is required"), nil
		}

		answer, err := deps.Agent.Ask(ctx, question)
		if err != nil {
			return mcpError(fmt.Sprintf("answering failed: %v", err)), nil
		}
		return mcpText(answer), nil
	}
}

func mcpResourceProfiles(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		set, err := profile.LoadSet(deps.ProfilesPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load profiles: %w", err)
		}

		b, err := json.Marshal(set)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal profiles: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpResourceGraph(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		g, err := graph.ReadFile(deps.GraphPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load graph: %w", err)
		}

		b, err := json.Marshal(g)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal graph: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
