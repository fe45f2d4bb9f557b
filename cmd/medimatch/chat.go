package main

import (
	"bufio"
	"context"
	"io"
	"slices"
	"strings"

	"github.com/fwojciec/medimatch"
	"github.com/fwojciec/medimatch/match"
	"golang.org/x/sync/errgroup"
)

// quitCommands end a chat session.
var quitCommands = []string{"/quit", "/exit", "quit", "exit"}

// Run executes the chat command. Each line read from stdin is one utterance.
// A new utterance cancels the run still in flight; only the newest run's
// reply is shown. The session ends at EOF or on a quit command.
func (c *ChatCmd) Run(deps *Dependencies) error {
	session := medimatch.NewSession()
	assistant := &match.Assistant{Parser: deps.Parser, Finder: deps.Finder, Now: deps.Now}
	out := deps.renderer()

	assistant.Greet(session)
	if err := out.Turn(session.History()[0]); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(deps.Ctx)
	lines := readLines(ctx, deps.Stdin)

	cancelRun := context.CancelFunc(func() {})
	defer func() { cancelRun() }()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case line, ok := <-lines:
			if !ok {
				break loop
			}
			if isQuit(line) {
				cancelRun()
				break loop
			}

			ticket := assistant.Begin(session, line)
			cancelRun()
			runCtx, cancel := context.WithCancel(ctx)
			cancelRun = cancel
			g.Go(func() error {
				defer cancel()
				reply := assistant.Reply(runCtx, line)
				_, err := session.CommitFunc(ticket, reply, out.Turn)
				return err
			})
		}
	}

	return g.Wait()
}

// readLines delivers lines from r until EOF or until ctx is done.
// The reader goroutine may outlive ctx while blocked on a read.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

func isQuit(line string) bool {
	return slices.Contains(quitCommands, strings.ToLower(strings.TrimSpace(line)))
}
