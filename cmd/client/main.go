package main

import (
	"batepapo/client"
	"batepapo/domain"
	transport "batepapo/infrastructure/http"
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

type Config struct {
	ServerURL         string        `env:"CHAT_SERVER_URL,default=http://localhost:5000"`
	Name              string        `env:"CHAT_NAME,required=true"`
	HeartbeatInterval time.Duration `env:"CHAT_HEARTBEAT_INTERVAL,default=5s"`
	PollInterval      time.Duration `env:"CHAT_POLL_INTERVAL,default=3s"`
	RequestTimeout    time.Duration `env:"CHAT_REQUEST_TIMEOUT,default=5s"`
	LogLevel          string        `env:"LOG_LEVEL,default=INFO"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run joins the room, keeps the participant alive and prints new messages.
// Lines typed on stdin are posted to everyone, "@name text" sends privately.
func run() (int, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.New(config.ServerURL, config.RequestTimeout)
	if _, err := c.Register(ctx, config.Name); err != nil {
		return exitRuntime, fmt.Errorf("could not join as %s: %w", config.Name, err)
	}
	log.Info("Joined the room", "server", config.ServerURL, "name", config.Name)

	go heartbeat(ctx, c, config, log)
	go readInput(ctx, c, config.Name, log)

	seen := make(map[string]struct{})
	ticker := time.NewTicker(config.PollInterval)
	defer ticker.Stop()
	for {
		printNew(ctx, c, config.Name, seen, log)
		select {
		case <-ctx.Done():
			log.Info("Stopping client...")
			return exitOK, nil
		case <-ticker.C:
		}
	}
}

func heartbeat(ctx context.Context, c *client.Client, config Config, log *slog.Logger) {
	ticker := time.NewTicker(config.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Heartbeat(ctx, config.Name); err != nil && ctx.Err() == nil {
				log.Warn("Heartbeat failed", "err", err)
			}
		}
	}
}

func readInput(ctx context.Context, c *client.Client, name string, log *slog.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		req := transport.MessageRequest{To: domain.Everyone, Text: line, Type: string(domain.PublicMessage)}
		if to, text, ok := strings.Cut(line, " "); ok && strings.HasPrefix(to, "@") && len(to) > 1 {
			req = transport.MessageRequest{To: to[1:], Text: text, Type: string(domain.PrivateMessage)}
		}
		if _, err := c.Send(ctx, name, req); err != nil {
			log.Warn("Send failed", "err", err)
		}
	}
}

func printNew(ctx context.Context, c *client.Client, name string, seen map[string]struct{}, log *slog.Logger) {
	messages, err := c.Messages(ctx, name, 100)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn("Polling failed", "err", err)
		}
		return
	}
	for _, m := range messages {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		switch domain.MessageType(m.Type) {
		case domain.StatusMessage:
			fmt.Printf("(%s) %s %s\n", m.Time, m.From, m.Text)
		case domain.PrivateMessage:
			fmt.Printf("(%s) %s reservadamente para %s: %s\n", m.Time, m.From, m.To, m.Text)
		default:
			fmt.Printf("(%s) %s para %s: %s\n", m.Time, m.From, m.To, m.Text)
		}
	}
}
