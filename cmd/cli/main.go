package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/sitecheck/internal/app"
	"github.com/hamed0406/sitecheck/internal/command"
	"github.com/hamed0406/sitecheck/internal/config"
	"github.com/hamed0406/sitecheck/internal/logging"
	"github.com/hamed0406/sitecheck/internal/notify"
	"github.com/hamed0406/sitecheck/internal/report"
)

// Usage: cli <url1> <url2> ... [options]   or   cli help
func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

func run(args []string, in io.Reader, out io.Writer) int {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(out, "Error:", err)
		return 1
	}
	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		logger = zap.NewNop()
	}
	defer logger.Sync()

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger, nil)
	if err != nil {
		fmt.Fprintln(out, "Error:", err)
		return 1
	}
	defer a.Close()

	res, err := a.Commands.Execute(ctx, strings.Join(args, " "))
	if err != nil {
		fmt.Fprintln(out, "Error")
		fmt.Fprintln(out, err.Error())
		var ie *command.InputError
		if errors.As(err, &ie) {
			return 2
		}
		return 1
	}
	if res.Help {
		fmt.Fprint(out, res.Text)
		return 0
	}

	if s := notify.NewSlack(cfg.SlackWebhookURL); s != nil {
		if err := notify.PublishPages(ctx, s, res.Pages); err != nil {
			logger.Warn("notify_failed", zap.Error(err))
			fmt.Fprintln(out, "Slack publish failed:", err)
		}
	}

	nav, err := report.NewNavigator(res.Pages, cfg.NavigatorIdle)
	if err != nil {
		fmt.Fprintln(out, err)
		return 1
	}
	browse(nav, in, out, cfg.NavigatorIdle)
	return 0
}

// browse prints the current page and reads f/p/n/l/q commands until the
// navigator expires, input ends or the user quits.
func browse(nav *report.Navigator, in io.Reader, out io.Writer, idle time.Duration) {
	fmt.Fprint(out, nav.Current().Text())
	if nav.Controls() == (report.Controls{}) {
		return
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	keys := map[string]report.Action{"f": report.First, "p": report.Prev, "n": report.Next, "l": report.Last}
	for {
		fmt.Fprint(out, prompt(nav.Controls()))
		select {
		case <-time.After(idle):
			nav.Expired()
			fmt.Fprintln(out, "\nnavigation expired")
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			line = strings.ToLower(strings.TrimSpace(line))
			if line == "q" {
				return
			}
			action, known := keys[line]
			if !known {
				if action, known = report.ParseAction(line); !known {
					continue
				}
			}
			page, err := nav.Do(action)
			switch {
			case errors.Is(err, report.ErrExpired):
				fmt.Fprintln(out, "navigation expired")
				return
			case errors.Is(err, report.ErrDisabled):
				continue
			}
			fmt.Fprint(out, page.Text())
		}
	}
}

func prompt(c report.Controls) string {
	var opts []string
	if c.First {
		opts = append(opts, "[f]irst")
	}
	if c.Prev {
		opts = append(opts, "[p]rev")
	}
	if c.Next {
		opts = append(opts, "[n]ext")
	}
	if c.Last {
		opts = append(opts, "[l]ast")
	}
	opts = append(opts, "[q]uit")
	return strings.Join(opts, " ") + "> "
}
