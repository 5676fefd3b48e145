package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type globalFlags struct {
	configPath string
	envFile    string
	addr       string
	protocol   int32
	logLevel   string
}

func main() {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:   "mcping",
		Short: "Query and join game servers from the command line",
		Long: `mcping speaks the length-prefixed game protocol directly.

  status  asks a server for its status document and round-trip time
  login   joins in offline mode and stays connected for a while

Settings come from an optional TOML file, a .env file and MCCLIENT_*
variables, in increasing priority. Flags win over all of them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "TOML config file")
	pf.StringVar(&flags.envFile, "env-file", ".env", "dotenv file with MCCLIENT_* overrides")
	pf.StringVarP(&flags.addr, "addr", "a", "", "server address (host[:port])")
	pf.Int32VarP(&flags.protocol, "protocol", "p", 0, "protocol version number")
	pf.StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error")

	rootCmd.AddCommand(
		statusCmd(&flags),
		loginCmd(&flags),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
