package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/chartchat/chartchat/internal/agent"
	"github.com/chartchat/chartchat/internal/dependency"
	"github.com/chartchat/chartchat/internal/schema"
	"github.com/chartchat/chartchat/internal/shared/cmdutils"
)

var (
	chatMessage string
	chatSession string
	chatModel   string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant in the terminal",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatMessage, "message", "m", "", "Send a single message and exit")
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "cli:direct", "Session ID")
	chatCmd.Flags().StringVar(&chatModel, "model", "", "Model override for this run")
}

var exitCommands = map[string]bool{
	"exit":  true,
	"quit":  true,
	"/exit": true,
	"/quit": true,
	":q":    true,
}

func runChat(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	container, err := dependency.New(cfg)
	if err != nil {
		return err
	}
	orch := container.Orchestrator()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if chatMessage != "" {
		if !submitAndPrint(ctx, orch, os.Stdout, chatMessage) {
			return errors.New("turn failed")
		}
		return nil
	}

	return runInteractive(ctx, orch, os.Stdin, os.Stdout)
}

// runInteractive reads lines from in and submits each one as a turn,
// printing the prompt only when in is a terminal.
func runInteractive(ctx context.Context, orch *agent.Orchestrator, in *os.File, out io.Writer) error {
	interactive := term.IsTerminal(int(in.Fd()))
	if interactive {
		fmt.Fprintf(out, "%s Interactive mode (type 'exit' or Ctrl+C to quit)\n\n", logo)
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		if interactive {
			fmt.Fprint(out, "You: ")
		}

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nGoodbye!")
			return nil
		case l, ok := <-lines:
			if !ok {
				if interactive {
					fmt.Fprintln(out, "\nGoodbye!")
				}
				return nil
			}
			line = strings.TrimSpace(l)
		}

		if line == "" {
			continue
		}
		if exitCommands[strings.ToLower(line)] {
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}

		submitAndPrint(ctx, orch, out, line)
	}
}

// submitAndPrint runs one turn, echoing tool progress as it happens.
func submitAndPrint(ctx context.Context, orch *agent.Orchestrator, out io.Writer, text string) bool {
	reply, err := orch.Submit(ctx, agent.Request{
		SessionID: chatSession,
		Text:      text,
		Model:     chatModel,
		OnEvent: func(ev agent.Event) {
			if ev.Type == agent.EventToolCall {
				cmdutils.PrintProgress(out, "%s", ev.Hint)
			}
		},
	})
	if err != nil {
		kind := string(schema.KindOf(err))
		if errors.Is(err, agent.ErrEmptyMessage) {
			kind = "EmptyMessage"
		}
		cmdutils.PrintError(out, kind, err)
		return false
	}
	cmdutils.PrintResponse(out, reply.Answer)
	return true
}
