package cmd

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gophertribe/devtool/build"
)

func BuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the sht31 cli",
		RunE: func(cmd *cobra.Command, args []string) error {
			os := cmd.Flag("os").Value.String()
			arch := cmd.Flag("arch").Value.String()
			version := cmd.Flag("version").Value.String()
			if os == "" {
				os = runtime.GOOS
			}
			if arch == "" {
				arch = runtime.GOARCH
			}
			return build.GoBuild("dist/sht31", "./cmd/sht31", build.GoBuildOpts{
				Version:       version,
				InjectVersion: true,
				EnableCgo:     true,
				Arch:          arch,
				OS:            os,
			})
		},
	}
	cmd.Flags().String("os", runtime.GOOS, "target os")
	cmd.Flags().String("arch", runtime.GOARCH, "target arch")
	cmd.Flags().String("version", "latest", "version of the cli")
	return cmd
}
