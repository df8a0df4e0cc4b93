package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kilianp07/farmbot/app"
	"github.com/kilianp07/farmbot/core/frame"
)

var homeSpeed int

var moveCmd = &cobra.Command{
	Use:   "move <x> <y> <z>",
	Short: "Move to absolute coordinates",
	Long:  "Move to absolute coordinates. Put -- before the coordinates when x is negative.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		xyz, err := parseFloats(args)
		if err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			return svc.Bot.Move(ctx, xyz[0], xyz[1], xyz[2])
		})
	},
}

var homeCmd = &cobra.Command{
	Use:   "home",
	Short: "Set or find the home position",
}

var homeSetCmd = &cobra.Command{
	Use:   "set [axis]",
	Short: "Mark the current position as home",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		axis := axisArg(args)
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			return svc.Bot.SetHome(ctx, axis)
		})
	},
}

var homeFindCmd = &cobra.Command{
	Use:   "find [axis]",
	Short: "Search for home using the encoders or end stops",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		axis := axisArg(args)
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			return svc.Bot.FindHome(ctx, axis, homeSpeed)
		})
	},
}

func deviceCommand(use, short string, fn func(ctx context.Context, svc *app.Service) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, fn)
		},
	}
}

func init() {
	// negative coordinates after the first are not flags
	moveCmd.Flags().SetInterspersed(false)
	homeFindCmd.Flags().IntVar(&homeSpeed, "speed", 100, "homing speed in percent (1-100)")
	homeCmd.AddCommand(homeSetCmd, homeFindCmd)
	rootCmd.AddCommand(moveCmd, homeCmd,
		deviceCommand("estop", "Emergency stop the device", func(ctx context.Context, svc *app.Service) error {
			return svc.Bot.EStop(ctx)
		}),
		deviceCommand("unlock", "Unlock the device after an emergency stop", func(ctx context.Context, svc *app.Service) error {
			return svc.Bot.Unlock(ctx)
		}),
		deviceCommand("reboot", "Reboot FarmBot OS", func(ctx context.Context, svc *app.Service) error {
			return svc.Bot.Reboot(ctx)
		}),
		deviceCommand("shutdown", "Power the device off", func(ctx context.Context, svc *app.Service) error {
			return svc.Bot.Shutdown(ctx)
		}),
	)
}

func axisArg(args []string) frame.Axis {
	if len(args) == 0 {
		return frame.AxisAll
	}
	return frame.Axis(args[0])
}

func parseFloats(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", a)
		}
		out[i] = v
	}
	return out, nil
}
