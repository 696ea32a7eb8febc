package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"pagesmith/internal/config"
)

var (
	cfg    *config.Config
	logger zerolog.Logger
	userID string

	rootCmd = &cobra.Command{
		Use:           "pagesmith",
		Short:         "Generate multi-file HTML projects from natural-language prompts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded
			logger = newLogger(cfg)
			if userID == "" {
				userID = cfg.Server.DefaultUserID
			}
			return nil
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	generateCmd = &cobra.Command{
		Use:   "generate [prompt]",
		Short: "Analyze a prompt, plan its files and generate all of them",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runGenerate,
	}

	keysCmd = &cobra.Command{
		Use:   "keys",
		Short: "Manage provider API keys in the keyring",
	}
	keysSetCmd = &cobra.Command{
		Use:   "set [provider] [key]",
		Short: "Store the API key for a provider",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, app *App, args []string) error {
			if err := app.Keys.StoreApiKey(strings.ToLower(args[0]), []byte(args[1])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored API key for %s\n", args[0])
			return nil
		}),
	}
	keysDeleteCmd = &cobra.Command{
		Use:   "delete [provider]",
		Short: "Remove the stored API key for a provider",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, app *App, args []string) error {
			if err := app.Keys.DeleteApiKey(strings.ToLower(args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted API key for %s\n", args[0])
			return nil
		}),
	}
	keysListCmd = &cobra.Command{
		Use:   "list",
		Short: "List providers with a stored API key",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, app *App, args []string) error {
			keys, err := app.Keys.ListApiKeys()
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k.Provider)
			}
			return nil
		}),
	}

	modelsCmd = &cobra.Command{
		Use:   "models",
		Short: "Inspect and toggle catalog models",
	}
	modelsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List catalog models by provider",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, app *App, args []string) error {
			groups, err := app.Catalog.ListModelGroups()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tNAME\tENABLED")
			for _, g := range groups {
				for _, m := range g.Models {
					fmt.Fprintf(tw, "%s\t%s\t%t\n", m.Key, m.DisplayName, m.Enabled)
				}
			}
			return tw.Flush()
		}),
	}
	modelsEnableCmd = &cobra.Command{
		Use:   "enable [modelKey]",
		Short: "Enable a catalog model",
		Args:  cobra.ExactArgs(1),
		RunE:  toggleModel(true),
	}
	modelsDisableCmd = &cobra.Command{
		Use:   "disable [modelKey]",
		Short: "Disable a catalog model",
		Args:  cobra.ExactArgs(1),
		RunE:  toggleModel(false),
	}

	settingsCmd = &cobra.Command{
		Use:   "settings",
		Short: "Show or change the active provider and model",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, app *App, args []string) error {
			s, err := app.Settings.Get(cmd.Context(), userID)
			if err != nil {
				return err
			}
			model := s.ModelKey
			if model == "" {
				model = "(provider default)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s: provider=%s model=%s\n", s.UserID, s.Provider, model)
			return nil
		}),
	}
	settingsUseCmd = &cobra.Command{
		Use:   "use [provider] [modelKey]",
		Short: "Select the provider and optionally the model",
		Args:  cobra.RangeArgs(1, 2),
		RunE: withApp(func(cmd *cobra.Command, app *App, args []string) error {
			modelKey := ""
			if len(args) == 2 {
				modelKey = args[1]
			}
			s, err := app.Settings.Update(cmd.Context(), userID, args[0], modelKey)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "now using %s %s\n", s.Provider, s.ModelKey)
			return nil
		}),
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&userID, "user", "", "user whose settings apply (default DEFAULT_USER_ID)")

	keysCmd.AddCommand(keysSetCmd, keysDeleteCmd, keysListCmd)
	modelsCmd.AddCommand(modelsListCmd, modelsEnableCmd, modelsDisableCmd)
	settingsCmd.AddCommand(settingsUseCmd)
	rootCmd.AddCommand(serveCmd, generateCmd, keysCmd, modelsCmd, settingsCmd)
}

// withApp starts the application around fn and shuts it down afterwards.
func withApp(fn func(cmd *cobra.Command, app *App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		app := NewApp(cfg, logger)
		defer app.shutdown(ctx)
		if err := app.startup(ctx); err != nil {
			return err
		}
		return fn(cmd, app, args)
	}
}

func toggleModel(enabled bool) func(*cobra.Command, []string) error {
	return withApp(func(cmd *cobra.Command, app *App, args []string) error {
		m, err := app.Catalog.SetModelEnabled(cmd.Context(), args[0], enabled)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s enabled=%t\n", m.Key, m.Enabled)
		return nil
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := NewApp(cfg, logger)
	defer app.shutdown(context.Background())
	if err := app.startup(ctx); err != nil {
		return err
	}
	return app.serve(ctx)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	return withApp(func(cmd *cobra.Command, app *App, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		started, err := app.Generation.StartChat(ctx, userID, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "project %s, session %s\n", started.ProjectID, started.ChatSessionID)
		fmt.Fprintf(out, "pages: %s\n", strings.Join(started.AnalysisResult.Pages, ", "))

		planned, err := app.Generation.GenerateStructure(ctx, userID, started.ChatSessionID, nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "files: %s\n", strings.Join(planned.FileStructure.FileNames(), ", "))

		report, err := app.Generation.RunPipeline(ctx, userID, started.ChatSessionID, nil)
		if err != nil {
			return err
		}

		listed, err := app.Files.List(ctx, started.ProjectID)
		if err != nil {
			return err
		}
		urls := make(map[string]string, len(listed.Files))
		for _, f := range listed.Files {
			urls[f.FileName] = f.URL
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "FILE\tSTATUS\tURL / ERROR")
		for _, r := range report.Results {
			detail := urls[r.FileName]
			if r.Error != "" {
				detail = r.Error
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", r.FileName, r.Status, detail)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(out, "%d succeeded, %d failed\n", report.Succeeded, report.Failed)
		return nil
	})(cmd, args)
}
