package cli

import (
	"github.com/spf13/cobra"

	"github.com/ivlev/meet2video/internal/version"
)

// Dependencies lets tests replace the collaborators the build command
// constructs from configuration.
type Dependencies struct {
	// NewRenderer is called when a render target is configured. Nil uses
	// ges-launch-1.0.
	NewRenderer RendererFactory
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	if deps == nil {
		deps = &Dependencies{}
	}

	rootCmd := &cobra.Command{
		Use:   "meet2video",
		Short: "Assemble recorded web meetings into editing projects",
		Long: "meet2video turns the separately recorded streams of a web meeting (webcams, screenshare,\n" +
			"slides, whiteboard annotations) into one multi-track project for a non-linear editing renderer.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(version.Full() + "\n")

	rootCmd.AddCommand(NewBuildCmd(deps))
	rootCmd.AddCommand(NewInspectCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := cmd.OutOrStdout().Write([]byte(version.Full() + "\n"))
			return err
		},
	}
}
