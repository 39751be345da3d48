package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/relaychat/relaychat/client/internal/chat"
)

func main() {
	serverURL := flag.String("server", "ws://localhost:8080/chat", "chat server URL")
	userID := flag.String("user", "", "user id to declare on connect")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := chat.New(*serverURL)

	// Queued before Connect — flushed in order once the connection opens.
	if *userID != "" {
		client.DeclareUserID(*userID) //nolint:errcheck
	}

	if err := client.Connect(ctx); err != nil {
		slog.Error("connect failed", "server", *serverURL, "err", err)
		os.Exit(1)
	}
	defer client.Close()

	// Print everything the server sends.
	go func() {
		for msg := range client.Messages() {
			fmt.Println(msg)
		}
		cancel()
	}()

	go readStdin(client, cancel)

	<-ctx.Done()
}

// readStdin turns console lines into chat or control sends until EOF.
//
//	/id <id>               declare user id
//	/set <key> <value>     set one attribute
//	/batch <k=v> [k=v...]  set several attributes in one command
//	/attrs                 list own attributes
//	/quit                  exit
//
// anything else is sent as chat content.
func readStdin(client *chat.Client, cancel context.CancelFunc) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		var err error
		switch {
		case line == "/quit":
			cancel()
			return
		case line == "/attrs":
			_, err = client.RequestAttributes()
		case strings.HasPrefix(line, "/id "):
			_, err = client.DeclareUserID(strings.TrimPrefix(line, "/id "))
		case strings.HasPrefix(line, "/set "):
			fields := strings.SplitN(strings.TrimPrefix(line, "/set "), " ", 2)
			if len(fields) != 2 {
				fmt.Fprintln(os.Stderr, "usage: /set <key> <value>")
				continue
			}
			_, err = client.SetAttribute(fields[0], fields[1])
		case strings.HasPrefix(line, "/batch "):
			attrs := make(map[string]string)
			for _, pair := range strings.Fields(strings.TrimPrefix(line, "/batch ")) {
				k, v, ok := strings.Cut(pair, "=")
				if !ok || k == "" {
					fmt.Fprintln(os.Stderr, "usage: /batch <key=value> [key=value ...]")
					attrs = nil
					break
				}
				attrs[k] = v
			}
			if attrs == nil {
				continue
			}
			_, err = client.SetAttributes(attrs)
		default:
			_, err = client.Send(line)
		}
		if err != nil {
			slog.Error("send failed", "err", err)
			cancel()
			return
		}
	}
	cancel()
}
