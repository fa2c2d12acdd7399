package main

import (
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"relay-chat/client"
	"relay-chat/contract"
	"relay-chat/infrastructure/relay"
	"relay-chat/infrastructure/storage"
	"relay-chat/internal"
	"relay-chat/moderation"
	"relay-chat/session"
	"relay-chat/ui"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gookit/color"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

type flags struct {
	name      string
	room      string
	transport string
	plain     bool
}

func newRootCmd() *cobra.Command {
	var f flags
	root := &cobra.Command{
		Use:           "relay-chat",
		Short:         "Chat in rooms over a Relay pub/sub network",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), f)
		},
	}
	root.Flags().StringVar(&f.name, "name", "", "your username (prefills the prompt)")
	root.Flags().StringVar(&f.room, "room", "", "room to join in --plain mode")
	root.Flags().StringVar(&f.transport, "transport", "", "relay transport: redis or memory (overrides RELAY_TRANSPORT)")
	root.Flags().BoolVar(&f.plain, "plain", false, "line mode instead of the full-screen interface")
	root.AddCommand(newConfigCmd())
	return root
}

// run wires the configuration, the credential file and the transport, then
// hands over to the chosen front-end. Deferred cleanups run before the
// process exits.
func run(ctx context.Context, f flags) error {
	// 1. Configuration & Logger
	config, err := loadConfig(f.transport)
	if err != nil {
		return err
	}
	log, closeLog, err := internal.NewLogger(config.LogLevel, config.LogFile, !f.plain)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	// 2. Credentials
	store := storage.NewCredentialFile(config.CredentialsPath, log)
	if err := store.Init(); err != nil {
		return err
	}

	// 3. Transport & session options
	dialer := newDialer(config, log)
	opts, err := sessionOptions(config, store)
	if err != nil {
		return err
	}

	// 4. Front-end
	if f.plain {
		if f.room == "" || f.name == "" {
			return fmt.Errorf("--plain needs --room and --name")
		}
		runner := client.NewRunner(log, dialer, store, os.Stdin, os.Stdout, color.SupportColor(), opts...)
		return runner.Run(ctx, f.room, f.name)
	}

	model := ui.NewModel(ctx, ui.Deps{
		Log:         log,
		Dialer:      dialer,
		Credentials: store,
		Options:     opts,
	}, f.name)
	final, err := tea.NewProgram(model, tea.WithContext(ctx)).Run()
	if m, ok := final.(ui.Model); ok {
		m.Close()
	}
	if err != nil && !goerrors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("terminal interface: %w", err)
	}
	log.Info("Program stopped cleanly")
	return nil
}

func loadConfig(transport string) (internal.Config, error) {
	config, err := internal.LoadConfig()
	if err != nil {
		return internal.Config{}, err
	}
	if transport != "" {
		config.Transport = transport
		if err := config.Validate(); err != nil {
			return internal.Config{}, err
		}
	}
	return config, nil
}

func newDialer(config internal.Config, log *slog.Logger) contract.Dialer {
	if config.Transport == internal.TransportMemory {
		log.Info("Using the in-process relay, messages stay on this machine")
		return relay.NewMemoryDialer(relay.NewBroker(), nil, log)
	}
	return relay.NewRedisDialer(config.Redis(), log)
}

func sessionOptions(config internal.Config, store contract.CredentialStore) ([]session.Option, error) {
	opts := []session.Option{session.WithCredentialsHint(store.Path())}
	words := config.MutedWordList()
	if len(words) == 0 {
		return opts, nil
	}
	mask, err := internal.CharacterRune(config.CensorCharacter)
	if err != nil {
		return nil, err
	}
	filter, err := moderation.NewFilter(words, mask)
	if err != nil {
		return nil, fmt.Errorf("MUTED_WORDS: %w", err)
	}
	return append(opts, session.WithCensor(filter)), nil
}
