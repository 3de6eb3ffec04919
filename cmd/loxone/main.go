package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "loxone",
	Short: "Loxone Miniserver Control CLI",
	Long: `A command line interface for controlling Loxone Miniservers.

Settings are read from LOXONE_* environment variables and can be
overridden with flags.`,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		stop()
		os.Exit(1)
	}
}
