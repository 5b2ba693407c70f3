package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/sgaunet/review-importer/pkg/app/importer"
	"github.com/sgaunet/review-importer/pkg/constants"
)

const (
	passwordEnv    = "REVIEW_IMPORTER_PASSWORD"
	separatorWidth = constants.SeparatorWidth
)

func initTrace(debugLevel string, noLogTime, toStderr bool) *slog.Logger {
	handlerOptions := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	if noLogTime {
		handlerOptions.ReplaceAttr = func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		}
	}

	switch debugLevel {
	case "debug":
		handlerOptions.Level = slog.LevelDebug
		handlerOptions.AddSource = true
	case "info":
		handlerOptions.Level = slog.LevelInfo
	case "warn":
		handlerOptions.Level = slog.LevelWarn
	case "error":
		handlerOptions.Level = slog.LevelError
	default:
		handlerOptions.Level = slog.LevelInfo
	}

	var w io.Writer = os.Stdout
	if toStderr {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, handlerOptions))
}

var (
	secretsMu sync.Mutex
	secrets   []string
)

// resolvePassword returns the password flag, or the environment password when the flag is
// empty. The result is redacted from every printed error.
func resolvePassword(flagValue string) string {
	password := flagValue
	if password == "" {
		password = os.Getenv(passwordEnv)
	}
	if password != "" {
		secretsMu.Lock()
		secrets = append(secrets, password)
		secretsMu.Unlock()
	}
	return password
}

// redactSecrets removes the passwords in use from message.
func redactSecrets(message string) string {
	secretsMu.Lock()
	defer secretsMu.Unlock()
	for _, s := range secrets {
		message = strings.ReplaceAll(message, s, constants.RedactedValue)
	}
	return message
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}

func printResults(results []*importer.Result) {
	if jsonOutput {
		_ = printJSON(results)
		return
	}
	for _, r := range results {
		if r != nil {
			printResult(r)
		}
	}
}

// printResult displays the outcome of one run.
func printResult(result *importer.Result) {
	fmt.Println("\n" + strings.Repeat("=", separatorWidth))
	if result.Success {
		fmt.Printf("✓ IMPORT SUCCESSFUL: %s\n", result.Project)
	} else {
		fmt.Printf("✗ IMPORT FAILED: %s\n", result.Project)
	}
	fmt.Println(strings.Repeat("=", separatorWidth))

	fmt.Println("\nMetrics:")
	fmt.Printf("  Duration: %ds\n", int(result.Duration.Seconds()))
	fmt.Printf("  Changes: %d created, %d updated, %d unchanged\n",
		result.ChangesCreated, result.ChangesUpdated, result.ChangesUnchanged)
	if result.PatchSetsCreated > 0 || result.RevisionsSkipped > 0 {
		fmt.Printf("  Patch sets: %d created, %d skipped\n", result.PatchSetsCreated, result.RevisionsSkipped)
	}
	if result.CommentsUpserted > 0 || result.CommentsDeleted > 0 {
		fmt.Printf("  Comments: %d written, %d deleted\n", result.CommentsUpserted, result.CommentsDeleted)
	}
	if result.MessagesInserted > 0 {
		fmt.Printf("  Messages: %d\n", result.MessagesInserted)
	}
	if result.ApprovalsUpserted > 0 {
		fmt.Printf("  Approvals: %d\n", result.ApprovalsUpserted)
	}
	if len(result.GroupsCreated) > 0 {
		fmt.Printf("  Groups created: %s\n", strings.Join(result.GroupsCreated, ", "))
	}

	if len(result.Errors) > 0 {
		fmt.Println("\nErrors:")
		for _, err := range result.Errors {
			fatalStr := ""
			if err.Fatal {
				fatalStr = " [FATAL]"
			}
			fmt.Printf("  [%s]%s %s: %s\n", err.Phase, fatalStr, err.Component, redactSecrets(err.Message))
		}
	}

	if len(result.Warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, warning := range result.Warnings {
			fmt.Printf("  %s\n", redactSecrets(warning))
		}
	}

	fmt.Println(strings.Repeat("=", separatorWidth))
}
