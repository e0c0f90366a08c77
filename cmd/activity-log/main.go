// activity-log drains the domain event exchange into an append-only
// activity log file.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/iliyamo/condo-manager/internal/config"
	"github.com/iliyamo/condo-manager/internal/queue"
	"github.com/iliyamo/condo-manager/internal/utils"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	utils.InitLogger("condo-activity-log")
	config.LoadDotEnv()
	amqpCfg := config.LoadAMQPConfig()

	cfg := queue.ConsumerConfig{
		URL:        amqpCfg.URL,
		Exchange:   amqpCfg.Exchange,
		Queue:      "condo.activity-log",
		BindingKey: "#",
		Prefetch:   20,
	}
	out := "logs/activity.log"

	fs := pflag.NewFlagSet("activity-log", pflag.ContinueOnError)
	fs.StringVar(&cfg.URL, "amqp-url", cfg.URL, "broker URL")
	fs.StringVar(&cfg.Exchange, "exchange", cfg.Exchange, "topic exchange to bind")
	fs.StringVar(&cfg.Queue, "queue", cfg.Queue, "durable queue name")
	fs.StringVar(&cfg.BindingKey, "binding-key", cfg.BindingKey, "routing key pattern")
	fs.IntVar(&cfg.Prefetch, "prefetch", cfg.Prefetch, "unacknowledged deliveries in flight")
	fs.StringVarP(&out, "output", "o", out, "activity log file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	file, err := os.OpenFile(out, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	activity := logrus.New()
	activity.SetOutput(file)
	activity.SetFormatter(&logrus.JSONFormatter{})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	utils.Logger.WithField("queue", cfg.Queue).WithField("output", out).Info("activity log consumer started")
	err = queue.Consume(ctx, cfg, utils.Logger, queue.ActivityLogger(activity))
	if errors.Is(err, context.Canceled) {
		utils.Logger.Info("activity log consumer stopped")
		return nil
	}
	return err
}
