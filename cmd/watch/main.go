package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/charleschow/bankroll-calc/internal/core/display"
	"github.com/charleschow/bankroll-calc/internal/events"
	"github.com/charleschow/bankroll-calc/internal/fanout"
	"github.com/charleschow/bankroll-calc/internal/telemetry"
)

func main() {
	addr := flag.String("addr", "localhost:8090", "host:port of the bankroll service")
	session := flag.String("session", fanout.AllSessions, "session ID to follow, or * for everything")
	logLevel := flag.String("log", "info", "log level")
	flag.Parse()

	telemetry.Init(telemetry.ParseLogLevel(*logLevel))

	bus := events.NewBus()
	display.NewObserver(os.Stdout).Attach(bus)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetry.Infof("Watching session %q on %s", *session, *addr)
	fanout.NewClient(*addr, *session, bus).ConnectWithRetry(ctx)
	telemetry.Infof("Watcher stopped")
}
