package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/example/todo-tracker/client"
	domain "github.com/example/todo-tracker/domain/todo"
	"github.com/spf13/cobra"
)

// App carries the resolved config between commands.
type App struct {
	ConfigPath string
	ServerURL  string

	cfg    *Config
	client *client.Client
}

func newRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "todoctl",
		Short:        "Personal todo tracker client",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Log in once; the session is kept in the config file
  todoctl login --email me@example.com

  # Interactive list
  todoctl

  # Scriptable commands
  todoctl add "Buy milk" --description "2 liters"
  todoctl list --filter active --search milk
  todoctl done 3f2a
`),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, app)
		},
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", envOr("TODOCTL_CONFIG", defaultConfigPath()), "Path to the config file")
	cmd.PersistentFlags().StringVar(&app.ServerURL, "server", envOr("TODOCTL_SERVER", ""), "API base URL (overrides server_url in the config file)")

	cmd.AddCommand(newRegisterCmd(app))
	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newWhoamiCmd(app))
	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newEditCmd(app))
	cmd.AddCommand(newDoneCmd(app, true))
	cmd.AddCommand(newDoneCmd(app, false))
	cmd.AddCommand(newRmCmd(app))
	cmd.AddCommand(newImageCmd(app))
	cmd.AddCommand(newStatsCmd(app))
	cmd.AddCommand(newActivityCmd(app))
	cmd.AddCommand(newTUICmd(app))

	return cmd
}

func (a *App) load() error {
	cfg, err := loadConfig(a.ConfigPath)
	if err != nil {
		return err
	}
	if a.ServerURL != "" {
		cfg.ServerURL = a.ServerURL
	}
	a.cfg = cfg
	a.client = client.New(cfg.ServerURL,
		client.WithSession(cfg.Session),
		client.OnRefresh(func(s client.Session) {
			a.cfg.Session = s
			if err := saveConfig(a.ConfigPath, a.cfg); err != nil {
				fmt.Fprintln(os.Stderr, "warning:", err)
			}
		}),
	)
	return nil
}

// resolveID accepts a full id or a unique prefix of one.
func (a *App) resolveID(ctx context.Context, prefix string) (string, error) {
	t, err := a.findTodo(ctx, prefix)
	if err != nil {
		return "", err
	}
	return t.ID, nil
}

func (a *App) findTodo(ctx context.Context, prefix string) (domain.Todo, error) {
	todos, err := a.client.List(ctx)
	if err != nil {
		return domain.Todo{}, a.explain(err)
	}
	return matchPrefix(todos, prefix)
}

func matchPrefix(todos []domain.Todo, prefix string) (domain.Todo, error) {
	var match *domain.Todo
	for i := range todos {
		if todos[i].ID == prefix {
			return todos[i], nil
		}
		if strings.HasPrefix(todos[i].ID, prefix) {
			if match != nil {
				return domain.Todo{}, fmt.Errorf("id prefix %q is ambiguous", prefix)
			}
			match = &todos[i]
		}
	}
	if match == nil || prefix == "" {
		return domain.Todo{}, fmt.Errorf("%w: %s", domain.ErrTodoNotFound, prefix)
	}
	return *match, nil
}

// explain turns the login redirect into a hint.
func (a *App) explain(err error) error {
	if errors.Is(err, domain.ErrUnauthenticated) {
		return errors.New("not logged in: run `todoctl login`")
	}
	return err
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
