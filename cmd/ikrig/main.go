// Command ikrig validates, solves, renders and serves rig files
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// errInvalid reports a failed validation after the report has been printed
var errInvalid = errors.New("rig is invalid")

func main() {
	if err := rootCmd().Execute(); err != nil {
		if !errors.Is(err, errInvalid) {
			fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
		}
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ikrig",
		Short:         "Multi-chain FABRIK inverse kinematics rigs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(validateCmd())
	root.AddCommand(solveCmd())
	root.AddCommand(snapshotCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(presetCmd())
	return root
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <rig>",
		Short: "Check a rig file or preset for every configuration problem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.OutOrStdout(), args[0])
		},
	}
}

func solveCmd() *cobra.Command {
	var opts solveOptions

	cmd := &cobra.Command{
		Use:   "solve <rig>",
		Short: "Solve toward targets and print the resulting pose",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.targets, "target", "t", nil, "chain=x,y,z target, repeatable; overrides the rig's targets")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "output format: text, json, toml or yaml")
	cmd.Flags().IntVarP(&opts.ticks, "ticks", "n", 1, "number of structure solves to run")
	return cmd
}

func snapshotCmd() *cobra.Command {
	var opts snapshotOptions

	cmd := &cobra.Command{
		Use:   "snapshot <rig>",
		Short: "Solve toward targets and render the pose to PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.targets, "target", "t", nil, "chain=x,y,z target, repeatable; overrides the rig's targets")
	cmd.Flags().IntVarP(&opts.ticks, "ticks", "n", 1, "number of structure solves to run")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "pose.png", "PNG output path")
	cmd.Flags().IntVar(&opts.width, "width", 800, "image width in pixels")
	cmd.Flags().IntVar(&opts.height, "height", 600, "image height in pixels")
	cmd.Flags().Float64Var(&opts.yaw, "yaw", 30, "camera yaw in degrees")
	cmd.Flags().Float64Var(&opts.pitch, "pitch", 15, "camera pitch in degrees")
	cmd.Flags().BoolVar(&opts.grid, "grid", true, "draw the floor grid")
	return cmd
}

func serveCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve <rig>",
		Short: "Stream solved poses over websocket with a JSON and metrics API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().IntVarP(&opts.port, "port", "p", 8080, "HTTP server port")
	cmd.Flags().IntVar(&opts.tickRate, "tick-rate", 30, "solves per second")
	cmd.Flags().Float64Var(&opts.targetRate, "target-rate", 60, "inbound target messages per second per client")
	return cmd
}

func presetCmd() *cobra.Command {
	var output, format string

	cmd := &cobra.Command{
		Use:   "preset [name]",
		Short: "List built-in rigs, or write one out as a starting point",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runPresetList(cmd.OutOrStdout())
			}
			return runPreset(cmd.OutOrStdout(), args[0], output, format)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file; the extension picks the format")
	cmd.Flags().StringVarP(&format, "format", "f", "toml", "format for standard output: toml, yaml or json")
	return cmd
}
