package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"euphoria.io/scope"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"postpunk.chat/punk/client"
	"postpunk.chat/punk/proto/logging"
)

var configPath = flag.String("config", "", "path to local config file")

var version string

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	if *configPath != "" {
		if err := client.Config.LoadFromFile(*configPath); err != nil {
			return fmt.Errorf("config error: %s", err)
		}
	}
	if err := client.Config.Validate(); err != nil {
		return fmt.Errorf("config error: %s", err)
	}
	if client.Config.Room.WSURL == "" {
		return fmt.Errorf("no room given (use -ws or a config file)")
	}

	ctx := logging.LoggingContext(scope.New(), os.Stdout, "[punk-client] ")
	defer ctx.WaitGroup().Wait()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signals
		ctx.Cancel()
	}()

	transport, err := client.DialRoom(ctx, client.Config.Room.WSURL)
	if err != nil {
		return fmt.Errorf("dial error: %s", err)
	}
	defer transport.Close()

	session := client.NewSession(ctx, client.Config, transport)
	session.OnDiff = func(diff client.Diff) {
		logging.Printf(ctx, "timeline: +%d inserted, %d updated", len(diff.Inserted), len(diff.Updated))
	}
	session.OnNotice = func(notice client.Notice) {
		logging.Printf(ctx, "notice: %s", notice.Text)
	}

	if client.Config.HTTP.Listen != "" {
		r := mux.NewRouter().StrictSlash(true)
		r.Path("/metrics").Handler(promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(client.Config.HTTP.Listen, r); err != nil {
				logging.Printf(ctx, "metrics listener error: %s", err)
			}
		}()
	}

	logging.Printf(ctx, "joined %s (version %s)", client.Config.Room.WSURL, version)
	return session.Serve()
}
