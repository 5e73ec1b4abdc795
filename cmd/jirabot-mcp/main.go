// Command jirabot-mcp serves the Jira assistant as MCP tools over stdio.
//
// Usage:
//
//	jirabot-mcp            # start the stdio server
//	jirabot-mcp version    # print the version
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/samhotchkiss/jirabot/internal/app"
	"github.com/samhotchkiss/jirabot/internal/config"
	"github.com/samhotchkiss/jirabot/internal/mcpserver"
)

var version = "dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("jirabot-mcp %s\n", version)
			return
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
			os.Exit(1)
		}
	}

	// stdout carries the protocol.
	log.SetOutput(os.Stderr)

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	return server.ServeStdio(newServer(a))
}

func newServer(a *app.App) *server.MCPServer {
	return mcpserver.New(mcpserver.Dependencies{
		Replier:    a.Router,
		Checker:    a.Jira,
		ProjectKey: a.Config.Jira.ProjectKey,
		Version:    version,
	})
}
