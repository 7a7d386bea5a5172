package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ccastromar/movie-nlu/internal/app"
	"github.com/ccastromar/movie-nlu/internal/config"
	"github.com/ccastromar/movie-nlu/internal/logx"
)

// runner is the minimal interface our app must satisfy for running.
type runner interface{ Run(context.Context) error }

// appCtor is a constructor indirection to enable testing without launching the real app.
var appCtor = func(ctx context.Context, env *config.EnvVars) (runner, error) { return app.New(ctx, env) }

// fatalf indirection allows testing fatal paths without exiting the test process.
var fatalf = log.Fatalf

func run(ctx context.Context, env *config.EnvVars) {
	a, err := appCtor(ctx, env)
	if err != nil {
		fatalf("error initializing app: %v", err)
		return
	}
	if err := a.Run(ctx); err != nil {
		fatalf("error running app: %v", err)
		return
	}
}

// loadEnv reads .env when present, then the process environment.
func loadEnv() (*config.EnvVars, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	env, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}
	if err := logx.Init(logx.Options{
		Level:  env.LogLevel,
		Format: env.LogFormat,
		Output: env.LogOutput,
		Color:  env.LogColor,
	}); err != nil {
		return nil, err
	}
	return env, nil
}

func newRootCmd() *cobra.Command {
	var definitions string

	root := &cobra.Command{
		Use:           "movienlu",
		Short:         "Rule-based natural language understanding for movie recommendation dialogues",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&definitions, "definitions", "", "definitions dir (overrides DEFINITIONS_DIR)")

	envFor := func() (*config.EnvVars, error) {
		env, err := loadEnv()
		if err != nil {
			return nil, err
		}
		if definitions != "" {
			env.DefinitionsDir = definitions
		}
		return env, nil
	}

	root.AddCommand(
		newServeCmd(envFor),
		newParseCmd(envFor),
		newIndexCmd(envFor),
		newLinkCmd(envFor),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fatalf("%v", err)
	}
}
