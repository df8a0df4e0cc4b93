package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kilianp07/farmbot/app"
	"github.com/kilianp07/farmbot/core/rest"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Read and edit web API resources",
}

var infoGetCmd = &cobra.Command{
	Use:   "get <endpoint> [id]",
	Short: "Print an endpoint or one of its resources",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := idArg(args, 1)
		if err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			res, err := svc.Bot.GetInfo(ctx, args[0], id)
			if err != nil {
				return err
			}
			return printResource(cmd, res)
		})
	},
}

var infoSetCmd = &cobra.Command{
	Use:   "set <endpoint> <field> <value> [id]",
	Short: "Change one field of a resource",
	Long:  "Change one field of a resource. The value is decoded as JSON when possible and sent as a string otherwise.",
	Args:  cobra.RangeArgs(3, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := idArg(args, 3)
		if err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			res, err := svc.Bot.SetInfo(ctx, args[0], args[1], jsonValue(args[2]), id)
			if err != nil {
				return err
			}
			return printResource(cmd, res)
		})
	},
}

var gardenCmd = &cobra.Command{
	Use:   "garden",
	Short: "Print the usable garden size",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			size, err := svc.Bot.GardenSize(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "length x: %g mm\nlength y: %g mm\narea: %g mm2\n", size.LengthX, size.LengthY, size.Area)
			return nil
		})
	},
}

var sensorCmd = &cobra.Command{
	Use:   "sensor <id>",
	Short: "Read a sensor peripheral",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := idArg(args, 0)
		if err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			v, err := svc.Bot.ReadSensor(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%g\n", v)
			return nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the device status tree",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			tree, err := svc.Bot.ReadStatus(ctx)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(tree)
		})
	},
}

var positionCmd = &cobra.Command{
	Use:   "position",
	Short: "Print the current position",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			pos, err := svc.Bot.GetXYZ(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), pos)
			return nil
		})
	},
}

var positionCheckCmd = &cobra.Command{
	Use:   "check <x> <y> <z> <tolerance>",
	Short: "Check the device is within tolerance of a position",
	Long:  "Check the device is within tolerance of a position. Put -- before the arguments when x is negative.",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := parseFloats(args)
		if err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			_, err := svc.Bot.CheckPosition(ctx, v[0], v[1], v[2], v[3])
			return err
		})
	},
}

func init() {
	infoCmd.AddCommand(infoGetCmd, infoSetCmd)
	positionCheckCmd.Flags().SetInterspersed(false)
	positionCmd.AddCommand(positionCheckCmd)
	rootCmd.AddCommand(infoCmd, gardenCmd, sensorCmd, statusCmd, positionCmd)
}

func idArg(args []string, i int) (rest.ID, error) {
	if len(args) <= i {
		return rest.NoID, nil
	}
	n, err := strconv.Atoi(args[i])
	if err != nil || n < 0 {
		return rest.NoID, fmt.Errorf("invalid id %q", args[i])
	}
	return rest.ID(n), nil
}

func jsonValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}

func printResource(cmd *cobra.Command, res rest.Resource) error {
	var v any
	if err := res.Decode(&v); err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
