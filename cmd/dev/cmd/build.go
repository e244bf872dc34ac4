package cmd

import (
	"fmt"
	"runtime"

	"github.com/gophertribe/devtool/build"
	"github.com/spf13/cobra"
)

const (
	binary      = "dist/fancy"
	mainPackage = "./cmd/fancy"
)

func BuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the fancy binary",
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := cmd.Flags().GetString("version")
			if err != nil {
				return fmt.Errorf("could not get version flag: %w", err)
			}
			goos, err := cmd.Flags().GetString("os")
			if err != nil {
				return fmt.Errorf("could not get os flag: %w", err)
			}
			arch, err := cmd.Flags().GetString("arch")
			if err != nil {
				return fmt.Errorf("could not get arch flag: %w", err)
			}
			crossOS, _ := cmd.Flags().GetString("cross-os")
			crossArch, _ := cmd.Flags().GetString("cross-arch")
			// native builds run go build, other targets build in a container
			if goos == runtime.GOOS && arch == runtime.GOARCH {
				if crossOS != "" && crossArch != "" {
					goos = crossOS
					arch = crossArch
				}
				return build.GoBuild(binary, mainPackage, build.GoBuildOpts{
					Version:       version,
					InjectVersion: true,
					ConfigPackage: "main",
					OS:            goos,
					Arch:          arch,
				})
			}
			noCache, err := cmd.Flags().GetBool("no-cache")
			if err != nil {
				return fmt.Errorf("could not get no-cache flag: %w", err)
			}
			return build.Docker(cmd.Context(), fmt.Sprintf("./dev-%s-%s", goos, arch), []string{"build", "--version", version, "--cross-os", goos, "--cross-arch", arch}, build.DockerBuildOpts{
				NoCache: noCache,
				Image:   "gophertribe/gobuild:1.25-bookworm",
			})
		},
	}
	cmd.Flags().Bool("no-cache", false, "do not use cache when building in docker")
	cmd.Flags().String("version", "latest", "version injected into the binary")
	cmd.Flags().String("os", runtime.GOOS, "os to build for")
	cmd.Flags().String("arch", runtime.GOARCH, "arch to build for")
	cmd.Flags().String("cross-os", "", "os to cross-compile for")
	cmd.Flags().String("cross-arch", "", "arch to cross-compile for")
	return cmd
}
