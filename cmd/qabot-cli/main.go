package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/deepgram/qabot/internal/config"
	"github.com/deepgram/qabot/internal/infrastructure/openai"
	"github.com/deepgram/qabot/internal/services/assistant"
	"github.com/deepgram/qabot/internal/services/conversation"
	"github.com/deepgram/qabot/pkg/logger"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/term"
)

const resetCommand = "/reset"

func main() {
	_ = godotenv.Load()
	// keep log lines off the conversation unless asked for
	if os.Getenv("LOG_LEVEL") == "" {
		os.Setenv("LOG_LEVEL", "warn")
	}
	logger.Configure(os.Stderr)

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		color.NoColor = true
	}

	driver, err := newDriver()
	if err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, conversation.Display(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, driver, os.Stdin, os.Stdout); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newDriver() (*conversation.Driver, error) {
	key, err := config.GetOpenAIKey()
	if err != nil {
		return nil, &conversation.Error{Kind: conversation.KindConfiguration, Op: "load credential", Err: err}
	}
	persona, err := config.GetAssistantConfig()
	if err != nil {
		return nil, &conversation.Error{Kind: conversation.KindConfiguration, Op: "load assistant config", Err: err}
	}
	openAIService, err := openai.NewService(key, config.GetOpenAIBaseURL())
	if err != nil {
		return nil, &conversation.Error{Kind: conversation.KindClientInit, Op: "create client", Err: err}
	}

	return conversation.NewDriver(
		assistant.NewOpenAIClient(openAIService.GetClient()),
		assistant.Persona{Name: persona.Name, Instructions: persona.Instructions, Model: persona.Model},
		config.GetPollConfig(),
	), nil
}

// run reads questions line by line and prints each reply until in is exhausted
func run(ctx context.Context, driver *conversation.Driver, in io.Reader, out io.Writer) error {
	title := color.New(color.FgCyan, color.Bold)
	userTag := color.New(color.FgGreen, color.Bold)
	assistantTag := color.New(color.FgBlue, color.Bold)
	status := color.New(color.FgYellow)
	errText := color.New(color.FgRed)

	sess := conversation.NewSession(uuid.New().String())
	if err := driver.EnsureSession(ctx, sess); err != nil {
		errText.Fprintln(out, conversation.Display(err))
	}

	title.Fprintln(out, config.GetPageTitle())
	fmt.Fprintf(out, "Enter your question (%s starts over, Ctrl-D quits)\n", resetCommand)

	scanner := bufio.NewScanner(in)
	for {
		userTag.Fprint(out, "user> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := scanner.Text()

		if strings.TrimSpace(line) == resetCommand {
			sess.Reset()
			status.Fprintln(out, "Conversation reset.")
			continue
		}

		observe := func(ev conversation.Event) {
			if ev.State == conversation.StatePolling {
				status.Fprintf(out, "  waiting for a response... (%s)\n", ev.Status)
			}
		}

		reply, err := driver.SubmitTurn(ctx, sess, line, observe)
		if err != nil {
			errText.Fprintln(out, conversation.Display(err))
			if ctx.Err() != nil {
				return nil
			}
			continue
		}

		assistantTag.Fprint(out, "assistant> ")
		fmt.Fprintln(out, reply.Content)
	}
}
