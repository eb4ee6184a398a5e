package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rookguy/healthbot/internal/chat"
	"github.com/rookguy/healthbot/internal/plan"
	"github.com/rookguy/healthbot/internal/profile"
	"github.com/rookguy/healthbot/internal/research"
	"github.com/rookguy/healthbot/internal/storage"
)

const recentInteractions = 10

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Engine    *plan.Engine
	Responder *chat.Responder
	Journal   *storage.Store // optional; research_refresh and user://recent need it
}

// NewMCPServer creates an MCP server exposing the companion's operations as
// tools and the profile plus recent chat as resources.
func NewMCPServer(deps MCPDeps, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"healthbot",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("healthbot: a wellbeing companion that keeps a daily self-care plan, check-in history and coping strategies."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("chat",
			mcp.WithDescription("Send a chat message and get the companion's reply."),
			mcp.WithString("message", mcp.Description("The user's message"), mcp.Required()),
		),
		mcpChat(deps),
	)

	s.AddTool(
		mcp.NewTool("generate_plan",
			mcp.WithDescription("Draw a fresh three-task self-care plan and store it on the profile."),
		),
		mcpGeneratePlan(deps),
	)

	s.AddTool(
		mcp.NewTool("daily_checkin",
			mcp.WithDescription("Record today's check-in and adapt tomorrow's plan."),
			mcp.WithString("mood", mcp.Description("How the user feels today"), mcp.Required()),
			mcp.WithString("completed", mcp.Description("Whether the plan was completed: yes, partly or no"), mcp.Required()),
		),
		mcpDailyCheckIn(deps),
	)

	s.AddTool(
		mcp.NewTool("intake",
			mcp.WithDescription("Create the user's profile from first-session answers. Fails if a profile exists."),
			mcp.WithString("name", mcp.Description("Preferred name; defaults to User")),
			mcp.WithString("mood", mcp.Description("Current mood")),
			mcp.WithString("stress", mcp.Description("Stress level (low/medium/high)")),
			mcp.WithString("sleep", mcp.Description("Typical hours of sleep")),
		),
		mcpIntake(deps),
	)

	s.AddTool(
		mcp.NewTool("research_refresh",
			mcp.WithDescription("Queue a research refresh that integrates new coping strategies."),
		),
		mcpResearchRefresh(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"user://profile",
			"User Profile",
			mcp.WithResourceDescription("Current user profile as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceProfile(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"user://recent",
			"Recent Interactions",
			mcp.WithResourceDescription("Last 10 chat exchanges"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceRecent(deps),
	)

	return s
}

func mcpChat(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}

		reply, err := deps.Responder.Respond(message)
		if err != nil {
			return mcpError(fmt.Sprintf("reply failed: %v", err)), nil
		}
		journal(deps.Journal, message, reply)

		return mcpText(reply.Text), nil
	}
}

func mcpGeneratePlan(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tasks, err := deps.Engine.RegeneratePlan()
		if err != nil {
			return mcpError(fmt.Sprintf("generating plan: %v", err)), nil
		}
		return mcpText("- " + strings.Join(tasks, "\n- ")), nil
	}
}

func mcpDailyCheckIn(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		mood, err := req.RequireString("mood")
		if err != nil {
			return mcpError("mood is required"), nil
		}
		completed, err := req.RequireString("completed")
		if err != nil {
			return mcpError("completed is required"), nil
		}

		res, err := deps.Engine.DailyCheckIn(mood, completed)
		if errors.Is(err, profile.ErrNotFound) {
			return mcpError("no profile yet, run intake first"), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("check-in failed: %v", err)), nil
		}

		return mcpText(res.Reply + "\nTomorrow's plan:\n- " + strings.Join(res.Plan, "\n- ")), nil
	}
}

func mcpIntake(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		p, err := deps.Engine.Intake(plan.IntakeAnswers{
			Name:   req.GetString("name", ""),
			Mood:   req.GetString("mood", ""),
			Stress: req.GetString("stress", ""),
			Sleep:  req.GetString("sleep", ""),
		})
		if errors.Is(err, plan.ErrProfileExists) {
			return mcpError("a profile already exists"), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("intake failed: %v", err)), nil
		}

		return mcpText(fmt.Sprintf("Profile created for %s. Your first plan:\n- %s", p.Name, strings.Join(p.Plan, "\n- "))), nil
	}
}

func mcpResearchRefresh(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if deps.Journal == nil {
			return mcpError("research refresh not available: no journal configured"), nil
		}
		id, err := research.Enqueue(deps.Journal, time.Now(), "mcp")
		if err != nil {
			return mcpError(fmt.Sprintf("queueing refresh: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Queued research refresh %s", id)), nil
	}
}

func mcpResourceProfile(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		p, err := deps.Engine.Current()
		if err != nil {
			return nil, fmt.Errorf("failed to get profile: %w", err)
		}

		b, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal profile: %w", err)
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

func mcpResourceRecent(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		if deps.Journal == nil {
			return nil, fmt.Errorf("no journal configured")
		}
		interactions, err := deps.Journal.GetRecentInteractions(recentInteractions)
		if err != nil {
			return nil, fmt.Errorf("failed to get recent interactions: %w", err)
		}

		type exchange struct {
			CreatedAt string `json:"created_at"`
			Message   string `json:"message"`
			Reply     string `json:"reply"`
			Rule      string `json:"rule"`
		}

		out := make([]exchange, len(interactions))
		for i, ix := range interactions {
			out[i] = exchange{
				CreatedAt: ix.CreatedAt.Format(time.RFC3339),
				Message:   truncateRunes(ix.Message, 200),
				Reply:     truncateRunes(ix.Reply, 200),
				Rule:      ix.Rule,
			}
		}

		b, err := json.Marshal(out)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal interactions: %w", err)
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

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
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
