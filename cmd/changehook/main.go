package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/hashicorp/go-multierror"
	"github.com/jenkins-x/changehook/pkg/config"
	"github.com/jenkins-x/changehook/pkg/ingest"
	"github.com/jenkins-x/changehook/pkg/logrusutil"
	"github.com/jenkins-x/changehook/pkg/util"
	"github.com/jenkins-x/changehook/pkg/version"
	"github.com/jenkins-x/changehook/pkg/webhook"
	"github.com/sirupsen/logrus"
)

const (
	// HealthPath is the URL path for the HTTP endpoint that returns Health status.
	HealthPath = "/health"
	// ReadyPath URL path for the HTTP endpoint that returns Ready status.
	ReadyPath = "/ready"

	shutdownTimeout = 5 * time.Second
)

type options struct {
	bindAddress    string
	path           string
	port           int
	metricsPort    int
	jsonLog        bool
	configFilename string
}

func (o *options) Validate() error {
	var result *multierror.Error
	if o.port <= 0 || o.port > 65535 {
		result = multierror.Append(result, fmt.Errorf("invalid port %d", o.port))
	}
	if o.metricsPort < 0 || o.metricsPort > 65535 {
		result = multierror.Append(result, fmt.Errorf("invalid metrics port %d", o.metricsPort))
	}
	if o.metricsPort != 0 && o.metricsPort == o.port {
		result = multierror.Append(result, fmt.Errorf("the metrics port must differ from the port %d", o.port))
	}
	if o.path == "" || o.path[0] != '/' {
		result = multierror.Append(result, fmt.Errorf("path %q must start with /", o.path))
	}
	return result.ErrorOrNil()
}

func gatherOptions(fs *flag.FlagSet, args ...string) options {
	var o options
	fs.BoolVar(&o.jsonLog, "json", true, "Enable JSON logging")
	fs.IntVar(&o.port, "port", 8080, "The TCP port to listen on.")
	fs.IntVar(&o.metricsPort, "metrics-port", 2112, "The TCP port to serve prometheus metrics on, 0 to disable.")
	fs.StringVar(&o.bindAddress, "bind", "",
		"The interface address to bind to (by default, will listen on all interfaces/addresses).")
	fs.StringVar(&o.path, "path", "/hook",
		"The path to listen on for push webhooks.")
	fs.StringVar(&o.configFilename, "config-file", "", "Path to the config.yaml file. The defaults are used if not specified")

	err := fs.Parse(args)
	if err != nil {
		logrus.WithError(err).Fatal("Invalid options")
	}

	return o
}

func newQueue(cfg *config.Config) ingest.Queue {
	if cfg.Ingest.URL == "" {
		logrus.Warn("no ingest url configured so changes will only be logged")
		return ingest.NewLoggingQueue(logrus.WithField("queue", "logging"))
	}
	return ingest.NewHTTPQueue(cfg.Ingest.URL, ingest.HTTPOptions{
		MaxRetries: cfg.Ingest.MaxRetries,
		Timeout:    cfg.Ingest.TimeoutDuration(),
		Logger:     logrus.WithField("queue", "http"),
	})
}

func newMux(o *options, controller *webhook.WebhooksController) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(HealthPath, http.HandlerFunc(controller.Health))
	mux.Handle(ReadyPath, http.HandlerFunc(controller.Ready))

	mux.Handle("/", http.HandlerFunc(controller.DefaultHandler))
	mux.Handle(o.path, http.HandlerFunc(controller.HandleWebhookRequests))
	return mux
}

// Entrypoint for the command
func main() {
	o := gatherOptions(flag.NewFlagSet(os.Args[0], flag.ExitOnError), os.Args[1:]...)
	if err := o.Validate(); err != nil {
		logrus.WithError(err).Fatal("Invalid options")
	}

	if o.jsonLog {
		logrusutil.ComponentInit("changehook", version.Version)
	}

	configAgent := &config.Agent{}
	if err := configAgent.Load(o.configFilename); err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}
	cfg := configAgent.Config()
	cfg.ApplyLogLevel()

	stop := util.Stopper()
	util.OnHangup(stop, func() {
		if err := configAgent.Reload(); err != nil {
			logrus.WithError(err).Error("failed to reload config, keeping the previous one")
			return
		}
		configAgent.Config().ApplyLogLevel()
	})

	controller := webhook.NewWebhooksController(o.path, configAgent, newQueue(cfg))

	if o.metricsPort != 0 {
		go serveMetrics(o.bindAddress, o.metricsPort, http.HandlerFunc(controller.Metrics))
	}

	server := &http.Server{
		Addr:    o.bindAddress + ":" + strconv.Itoa(o.port),
		Handler: gziphandler.GzipHandler(newMux(&o, controller)),
	}
	go func() {
		<-stop
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logrus.WithError(err).Error("failed to shut down the server")
		}
	}()

	logrus.Infof("changehook %s is now listening on path %s and port %d for WebHooks", version.Version, o.path, o.port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logrus.WithError(err).Fatal("failed to serve HTTP")
	}
}

func serveMetrics(bindAddress string, port int, metricsHandler http.Handler) {
	logrus.Infof("changehook is serving prometheus metrics on port %d", port)
	err := http.ListenAndServe(bindAddress+":"+strconv.Itoa(port), metricsHandler)
	logrus.WithError(err).Errorf("failed to serve HTTP")
}
