package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"github.com/samhotchkiss/jirabot/internal/app"
	"github.com/samhotchkiss/jirabot/internal/assistant"
	"github.com/samhotchkiss/jirabot/internal/chat"
	"github.com/samhotchkiss/jirabot/internal/config"
)

const (
	tokenSetupCommand = "jirabot token set --email <you@company.com>"
	tokenUsage        = "usage: jirabot token set|delete [--email <email>] [--token <token>]"
	askUsage          = "usage: jirabot ask [--json] <text>"
)

// answerer is the routed chat surface. *chat.Router satisfies it.
type answerer interface {
	Reply(ctx context.Context, text string) string
	Answer(ctx context.Context, text string) assistant.Reply
}

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "ask":
		handleAsk(os.Args[2:])
	case "repl":
		handleREPL(os.Args[2:])
	case "check":
		handleCheck(os.Args[2:])
	case "token":
		handleToken(os.Args[2:])
	case "version":
		fmt.Println("jirabot " + version)
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`jirabot <command> [args]

Commands:
  ask <text>       Ask one question or request a change
  repl             Interactive session (exit with "quit")
  check            Test the Jira connection
  token set        Store the Jira API token in the OS keychain
  token delete     Remove the stored Jira API token
  version          Show CLI version`)
}

func handleAsk(args []string) {
	flags := flag.NewFlagSet("ask", flag.ExitOnError)
	jsonOut := flags.Bool("json", false, "JSON output")
	_ = flags.Parse(args)

	text := strings.TrimSpace(strings.Join(flags.Args(), " "))
	if *jsonOut && text == "" {
		die(askUsage)
	}
	a := mustApp()
	ctx, stop := signalContext()
	defer stop()

	dieIf(runAsk(ctx, os.Stdout, a.Router, text, *jsonOut))
}

// runAsk answers one request. JSON output carries the operation details when
// the assistant ran, and only the text for help or connection checks.
func runAsk(ctx context.Context, out io.Writer, router answerer, text string, jsonOut bool) error {
	if !jsonOut {
		fmt.Fprintln(out, router.Reply(ctx, text))
		return nil
	}
	if strings.TrimSpace(text) == "" {
		return errors.New(askUsage)
	}
	return writeJSON(out, router.Answer(ctx, text))
}

func handleREPL(args []string) {
	flags := flag.NewFlagSet("repl", flag.ExitOnError)
	_ = flags.Parse(args)

	a := mustApp()
	ctx, stop := signalContext()
	defer stop()

	fmt.Println(color.CyanString("Jira bot for project %s. Type \"help\" for examples, \"quit\" to exit.", a.Config.Jira.ProjectKey))
	dieIf(runREPL(ctx, os.Stdin, os.Stdout, a.Router))
}

// runREPL answers one line at a time until EOF, "quit" or "exit".
func runREPL(ctx context.Context, in io.Reader, out io.Writer, replier interface {
	Reply(ctx context.Context, text string) string
}) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, color.GreenString("> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			return nil
		case "help":
			line = ""
		}

		fmt.Fprintln(out, replier.Reply(ctx, line))
		if ctx.Err() != nil {
			return nil
		}
	}
}

func handleCheck(args []string) {
	flags := flag.NewFlagSet("check", flag.ExitOnError)
	jsonOut := flags.Bool("json", false, "JSON output")
	_ = flags.Parse(args)

	a := mustApp()
	ctx, stop := signalContext()
	defer stop()

	report := a.Jira.CheckConnection(ctx, a.Config.Jira.ProjectKey)
	if *jsonOut {
		printJSON(report)
	} else {
		text := chat.ConnectionReportText(report, a.Config.Jira.ProjectKey)
		if report.OK {
			fmt.Println(color.GreenString("%s", text))
		} else {
			fmt.Println(color.RedString("%s", text))
		}
	}
	if !report.OK {
		os.Exit(1)
	}
}

func handleToken(args []string) {
	dieIf(runToken(args, bufio.NewReader(os.Stdin), os.Stdout))
}

// runToken stores or removes the keychain token. Missing flags are prompted
// for on in.
func runToken(args []string, in *bufio.Reader, out io.Writer) error {
	if len(args) == 0 || (args[0] != "set" && args[0] != "delete") {
		return errors.New(tokenUsage)
	}

	flags := flag.NewFlagSet("token "+args[0], flag.ContinueOnError)
	flags.SetOutput(out)
	email := flags.String("email", os.Getenv("JIRA_EMAIL"), "Jira account email")
	token := flags.String("token", "", "Jira API token")
	if err := flags.Parse(args[1:]); err != nil {
		return err
	}

	if strings.TrimSpace(*email) == "" {
		*email = promptFrom(in, out, "Jira email: ")
	}

	if args[0] == "delete" {
		if err := config.DeleteJiraToken(*email); err != nil {
			return err
		}
		fmt.Fprintln(out, "Removed Jira token for", strings.TrimSpace(*email))
		return nil
	}

	if strings.TrimSpace(*token) == "" {
		*token = promptFrom(in, out, "Jira API token: ")
	}
	if err := config.StoreJiraToken(*email, *token); err != nil {
		return err
	}
	fmt.Fprintln(out, color.GreenString("Stored Jira token for %s in the OS keychain", strings.TrimSpace(*email)))
	return nil
}

func mustApp() *app.App {
	cfg, err := config.Load()
	dieIf(err)
	a, err := app.New(cfg)
	dieIf(err)
	return a
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func promptFrom(in *bufio.Reader, out io.Writer, label string) string {
	fmt.Fprint(out, label)
	text, _ := in.ReadString('\n')
	return strings.TrimSpace(text)
}

func die(msg string) {
	fmt.Fprintln(os.Stderr, color.RedString("%s", msg))
	os.Exit(1)
}

func dieIf(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	die(formatCLIError(err))
}

func formatCLIError(err error) string {
	if err == nil {
		return ""
	}
	message := strings.TrimSpace(err.Error())
	if strings.Contains(message, "JIRA_TOKEN is required") {
		return fmt.Sprintf("No Jira token found. Set JIRA_TOKEN or run:\n\n  %s", tokenSetupCommand)
	}
	return message
}

func printJSON(v interface{}) {
	dieIf(writeJSON(os.Stdout, v))
}

func writeJSON(out io.Writer, v interface{}) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(payload))
	return err
}
