package main

import (
	"fmt"
	"os"

	favtypes "rivergauge-server/internal/modules/favorites/types"
	"rivergauge-server/internal/mqtt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func eventsCommand(opts *options) *cobra.Command {
	var mo mqtt.Options
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print favorite added/removed events as the server publishes them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if mo.ClientID == "" {
				mo.ClientID = "rivergauge-explorer-" + uuid.NewString()[:8]
			}
			sub := mqtt.NewSubscriber(mo, opts.logger)
			out := cmd.OutOrStdout()
			sub.SetMessageHandler(func(ev favtypes.Event) error {
				return printEvent(out, ev)
			})

			if err := sub.Connect(cmd.Context()); err != nil {
				return fmt.Errorf("connect to %s:%d: %w", mo.Broker, mo.Port, err)
			}
			defer sub.Disconnect()
			fmt.Fprintf(cmd.ErrOrStderr(), "listening on %s (ctrl-c to stop)\n", mqtt.EventFilter(mo.TopicPrefix))

			<-cmd.Context().Done()
			return nil
		},
	}
	cmd.Flags().StringVar(&mo.Broker, "broker", envDefault("MQTT_BROKER", "localhost"), "MQTT broker host")
	cmd.Flags().IntVar(&mo.Port, "port", 1883, "MQTT broker port")
	cmd.Flags().StringVar(&mo.ClientID, "client-id", os.Getenv("MQTT_CLIENT_ID"), "MQTT client id (random when empty)")
	cmd.Flags().StringVar(&mo.TopicPrefix, "prefix", envDefault("MQTT_TOPIC_PREFIX", "rivergauge"), "topic prefix")
	return cmd
}
