package main

import (
	"chat-relay/client"
	"fmt"
	"os"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type Config struct {
	ServerURL string `env:"CHAT_RELAY_URL,default=http://localhost:8080"`
	Token     string `env:"CHAT_RELAY_TOKEN"`
}

type options struct {
	serverURL string
	token     string
}

// client builds an API client from the global flags.
func (o *options) client() (*client.Client, error) {
	c, err := client.New(o.serverURL, nil)
	if err != nil {
		return nil, err
	}
	return c.WithToken(o.token), nil
}

func (o *options) authenticated() (*client.Client, error) {
	if o.token == "" {
		return nil, fmt.Errorf("no token: run `chatctl login` and export CHAT_RELAY_TOKEN, or pass --token")
	}
	return o.client()
}

func NewChatctlCommand(config Config) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "chatctl",
		Short:         "Command line client for a chat-relay server",
		Example:       "chatctl login --email alice@example.com --password secret1",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.serverURL, "server", config.ServerURL, "Server base URL")
	cmd.PersistentFlags().StringVar(&opts.token, "token", config.Token, "Session token")

	cmd.AddCommand(
		newRegisterCommand(opts),
		newLoginCommand(opts),
		newUsersCommand(opts),
		newRoomsCommand(opts),
		newHistoryCommand(opts),
		newListenCommand(opts),
		newSendCommand(opts),
	)
	return cmd
}

func main() {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(2)
	}
	if err := NewChatctlCommand(config).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
