package main

import (
	"fmt"
	"io"
	"relay-chat/domain"
	"relay-chat/infrastructure/storage"
	"relay-chat/internal"
	"strconv"
	"strings"

	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create the credentials file if needed and show the current settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := internal.LoadConfig()
			if err != nil {
				return err
			}
			store := storage.NewCredentialFile(config.CredentialsPath, logs.GetLoggerFromString(config.LogLevel))
			if err := store.Init(); err != nil {
				return err
			}
			creds, err := store.Load()
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
			}
			printSettings(cmd.OutOrStdout(), config, store.Path(), creds, store.HasValid())
			return nil
		},
	}
}

func printSettings(w io.Writer, config internal.Config, path string, creds domain.Credentials, ready bool) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Setting", "Value"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	table.Append([]string{"Credentials file", path})
	table.Append([]string{"API key", maskKey(creds.APIKey)})
	table.Append([]string{"Secret", maskSecret(creds.Secret)})
	table.Append([]string{"Ready to connect", readiness(ready)})
	table.Append([]string{"Transport", config.Transport})
	if config.Transport == internal.TransportRedis {
		table.Append([]string{"Relay address", config.RelayAddr})
		table.Append([]string{"Relay database", strconv.Itoa(config.RelayDB)})
	}
	table.Append([]string{"Muted words", strconv.Itoa(len(config.MutedWordList()))})
	table.Append([]string{"Log file", config.LogFile})
	table.Render()
}

// maskKey keeps the first characters so that keys can be told apart.
func maskKey(key string) string {
	if key == "" {
		return "(missing)"
	}
	runes := []rune(key)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:4]) + strings.Repeat("*", len(runes)-4)
}

func readiness(ready bool) string {
	if ready {
		return "yes"
	}
	return "no, fill in the credentials file"
}

func maskSecret(secret string) string {
	if secret == "" {
		return "(missing)"
	}
	return "********"
}
