package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/psantana5/procbox/pkg/versionfile"
)

// Version is the human-readable release; Build is the integer persisted in
// the state file so upgrades can be detected across runs.
const (
	Version = "0.3.0"
	Build   = 3
)

var versionStateFile string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the procbox version",
	Long: `Version prints the release string. With --state-file it also compares the
persisted build number against this binary and records the current one, so
wrapper scripts can detect upgrades.`,
	RunE: showVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringVar(&versionStateFile, "state-file", "", "persist the build number here (default $HOME/.procbox/build)")
}

func showVersion(cmd *cobra.Command, args []string) error {
	fmt.Printf("procbox %s (build %d)\n", Version, Build)

	path := versionStateFile
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		path = filepath.Join(home, ".procbox", "build")
		// Older releases kept the state file directly in $HOME.
		legacy := filepath.Join(home, ".procbox_build")
		if _, err := versionfile.MoveIfExists(legacy, path); err != nil {
			return fmt.Errorf("migrating legacy state file: %w", err)
		}
	}

	previous, ok, err := versionfile.Load(path)
	if err != nil {
		return err
	}
	if ok && previous != Build {
		fmt.Printf("previous build was %d\n", previous)
	}
	return versionfile.Save(path, Build)
}
