package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/farmbot/app"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream device messages until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			svc.Start(ctx)
			ch := svc.Broker.Messages()
			defer svc.Broker.Unsubscribe(ch)
			out := cmd.OutOrStdout()
			for {
				select {
				case <-ctx.Done():
					return nil
				case msg, ok := <-ch:
					if !ok {
						return nil
					}
					fmt.Fprintf(out, "%s %s %s\n", msg.Received.Format("15:04:05.000"), msg.Channel, msg.Payload)
				}
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
