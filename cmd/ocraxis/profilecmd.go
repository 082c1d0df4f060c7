package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ocraxis/ocraxis/pkg/profile"
)

func NewProfileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "profile",
		Short:   "Inspect calibration profiles",
		GroupID: gCalibration,
	}

	var rotation bool
	show := &cobra.Command{
		Use:   "show [path]",
		Short: "Print a calibration profile",
		RunE: func(_ *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			} else {
				conf, err := loadConfig()
				if err != nil {
					return err
				}
				if rotation {
					path = conf.RotationProfilePath()
				} else {
					path = conf.ProfilePath()
				}
			}

			table, err := profile.Load(path)
			if err != nil {
				return err
			}

			header := color.New(color.Bold)
			header.Printf("%-12s %-12s %s\n", "STEP", "HOLD", "MODIFIER")
			for _, e := range table {
				fmt.Printf("%-12g %-12s %s\n", e.Step, e.Duration.Round(time.Millisecond), e.Modifier)
			}
			return nil
		},
	}
	show.Flags().BoolVar(&rotation, "rotation", false, "show the rotation profile")

	cmd.AddCommand(show)
	return cmd
}
