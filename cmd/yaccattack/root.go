package main

import (
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use: "yaccattack",
	Short: "yaccattack simulates a compression side-channel attack on a " +
		"compressed cache.",
	Long: `yaccattack models a superblock-compressed cache set shared by a ` +
		`victim holding a secret and an attacker limited to the victim's ` +
		`public accessors. It runs repeated extraction trials and reports ` +
		`how many probes and guesses the attacker needed.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}
}
