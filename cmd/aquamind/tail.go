package main

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/totegamma/aquamind/client"
	"github.com/totegamma/aquamind/internal/domain"
	"github.com/totegamma/aquamind/internal/infra/kafka"
)

type tailOptions struct {
	Server  string
	Kafka   bool
	GroupID string
}

func newTailCommand(root *rootOptions) *cobra.Command {
	opts := &tailOptions{}

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "print live events as JSON lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			emit := func(event domain.Event) error {
				line, err := json.Marshal(event)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(line))
				return err
			}

			if opts.Kafka {
				conf, err := root.load()
				if err != nil {
					return err
				}
				if len(conf.Server.KafkaBrokers) == 0 {
					return fmt.Errorf("server.kafkaBrokers is not configured")
				}
				return kafka.Tail(ctx, conf.Server.KafkaBrokers, conf.Server.KafkaTopic, opts.GroupID, emit)
			}

			return client.New(opts.Server).Subscribe(ctx, nil, emit)
		},
	}

	cmd.Flags().StringVarP(&opts.Server, "server", "s", "http://localhost:3000", "server base URL")
	cmd.Flags().BoolVar(&opts.Kafka, "kafka", false, "read the exported topic instead of the websocket")
	cmd.Flags().StringVar(&opts.GroupID, "group", "", "kafka consumer group (empty reads without committing)")

	return cmd
}
