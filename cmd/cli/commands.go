package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/toolsascode/wildebeest/internal/config"
	"github.com/toolsascode/wildebeest/internal/events"
	"github.com/toolsascode/wildebeest/internal/executor"
	"github.com/toolsascode/wildebeest/internal/loader"
	"github.com/toolsascode/wildebeest/internal/logger"
	"github.com/toolsascode/wildebeest/internal/model"
	"github.com/toolsascode/wildebeest/internal/plugins"
	"github.com/toolsascode/wildebeest/internal/registry"
	"github.com/toolsascode/wildebeest/migrations"
)

// app holds what the operation commands share once the root command has
// loaded the configuration.
type app struct {
	reg    registry.Registry
	cfg    *config.Config
	loader *loader.Loader
	exec   *executor.Executor

	resourcePath string
	instancePath string
	instanceName string
	target       string
}

func newRootCmd(reg registry.Registry) *cobra.Command {
	a := &app{reg: reg}

	rootCmd := &cobra.Command{
		Use:   "wb",
		Short: "Wildebeest - state-driven resource migrations",
		Long: `Wildebeest drives resources through the states declared in a resource
document. Each state is verified by assertions and states are connected by
migrations; wb finds the unique migration path to a target state and runs it.

Supports PostgreSQL, SQLite and etcd resources.`,
		Version:           version,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	stateCmd := &cobra.Command{
		Use:   "state",
		Short: "Print the current state of a resource instance and its assertion results",
		Args:  cobra.NoArgs,
		RunE:  a.runState,
	}
	assertCmd := &cobra.Command{
		Use:   "assert",
		Short: "Evaluate the assertions of the current state",
		Args:  cobra.NoArgs,
		RunE:  a.runAssert,
	}
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate a resource instance to a target state",
		Long: `Migrate finds the unique path from the current state to the target state
and performs its migrations in order. The target defaults to the resource's
defaultTarget. Assertions are checked after every migration; a failure stops
the run without rolling back earlier migrations.

Example:
  wb migrate -r orders.yaml -i local.yaml -t Ready
  wb migrate -r orders.yaml --instance-name staging`,
		Args: cobra.NoArgs,
		RunE: a.runMigrate,
	}
	jumpStateCmd := &cobra.Command{
		Use:   "jumpstate",
		Short: "Record a target state without running migrations",
		Long: `JumpState verifies the assertions of the target state against the instance
and records it as current when all of them hold.`,
		Args: cobra.NoArgs,
		RunE: a.runJumpState,
	}
	for _, cmd := range []*cobra.Command{stateCmd, assertCmd, migrateCmd, jumpStateCmd} {
		cmd.Flags().StringVarP(&a.resourcePath, "resource", "r", "", "Path to the resource document")
		cmd.Flags().StringVarP(&a.instancePath, "instance", "i", "", "Path to the instance document")
		cmd.Flags().StringVar(&a.instanceName, "instance-name", "", "Instance configured through WB_INSTANCE_<NAME>_* variables")
		_ = cmd.MarkFlagRequired("resource")
	}
	for _, cmd := range []*cobra.Command{migrateCmd, jumpStateCmd} {
		cmd.Flags().StringVarP(&a.target, "target-state", "t", "", "Target state label or id")
	}

	pluginsCmd := &cobra.Command{
		Use:   "plugins",
		Short: "List the registered plugin groups",
		Args:  cobra.NoArgs,
		RunE:  a.runPlugins,
	}

	var resourceType, outputFile string
	newCmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Scaffold a resource document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := migrations.NewResourceDocument(args[0], model.ResourceType(resourceType))
			if err != nil {
				return &usageError{msg: err.Error()}
			}
			if outputFile == "" {
				_, err = cmd.OutOrStdout().Write(doc)
				return err
			}
			if err := os.WriteFile(outputFile, doc, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outputFile, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", outputFile)
			return nil
		},
	}
	newCmd.Flags().StringVar(&resourceType, "type", string(model.ResourceTypePostgreSQL), "Resource type (postgresql, sqlite, etcd)")
	newCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "wb version %s\n", version)
		},
	}

	rootCmd.AddCommand(stateCmd, assertCmd, migrateCmd, jumpStateCmd, pluginsCmd, newCmd, versionCmd)
	return rootCmd
}

// setup loads the configuration and registers the built-in plugins
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return &configError{err: err}
	}
	logger.SetLevel(cfg.Log.Level)
	logger.SetFormat(cfg.Log.Format)
	a.cfg = cfg

	a.loader = loader.New(a.reg,
		loader.WithConnections(cfg.Instances),
		loader.WithBaseDir(cfg.ResourceDir),
	)
	a.exec = executor.NewExecutor(a.reg,
		executor.WithSink(events.NewLogSink(logger.L())),
		executor.WithLoader(a.loader),
	)
	if err := plugins.RegisterDefaults(a.reg, a.loader, a.exec); err != nil {
		return &configError{err: fmt.Errorf("failed to register plugins: %w", err)}
	}
	return nil
}

func (a *app) documents() (*model.Resource, model.Instance, error) {
	if a.instancePath == "" && a.instanceName == "" {
		return nil, nil, &usageError{msg: "either --instance or --instance-name is required"}
	}
	if a.instancePath != "" && a.instanceName != "" {
		return nil, nil, &usageError{msg: "--instance and --instance-name are mutually exclusive"}
	}

	resource, err := a.loader.LoadResource(a.resourcePath)
	if err != nil {
		return nil, nil, err
	}

	var instance model.Instance
	if a.instanceName != "" {
		instance, err = a.loader.NamedInstance(a.instanceName)
	} else {
		instance, err = a.loader.LoadInstance(a.instancePath)
	}
	if err != nil {
		return nil, nil, err
	}
	return resource, instance, nil
}

func (a *app) execContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	executedBy := os.Getenv("USER")
	if executedBy == "" {
		executedBy = "cli_user"
	}
	return executor.SetExecutionContext(ctx, executedBy, "cli", map[string]interface{}{
		"command": cmd.Name(),
	})
}

func (a *app) runState(cmd *cobra.Command, args []string) error {
	resource, instance, err := a.documents()
	if err != nil {
		return err
	}

	report, err := a.exec.State(a.execContext(cmd), resource, instance)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printState(out, report.State)
	printResults(out, report.Results)
	return nil
}

func (a *app) runAssert(cmd *cobra.Command, args []string) error {
	resource, instance, err := a.documents()
	if err != nil {
		return err
	}

	ctx := a.execContext(cmd)
	report, err := a.exec.State(ctx, resource, instance)
	if err != nil {
		return err
	}

	printResults(cmd.OutOrStdout(), report.Results)
	if !model.AllPassed(report.Results) {
		return model.NewAssertionFailed(report.State.ID, report.Results)
	}
	return nil
}

func (a *app) runMigrate(cmd *cobra.Command, args []string) error {
	resource, instance, err := a.documents()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	report, err := a.exec.Migrate(a.execContext(cmd), resource, instance, a.target)
	if report != nil {
		for _, id := range report.Applied {
			fmt.Fprintf(out, "Applied migration %s\n", id)
		}
	}
	if err != nil {
		printResults(out, model.AssertionResultsOf(err))
		return err
	}

	printState(out, resource.StateForID(report.ToStateID))
	return nil
}

func (a *app) runJumpState(cmd *cobra.Command, args []string) error {
	resource, instance, err := a.documents()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := a.exec.JumpState(a.execContext(cmd), resource, instance, a.target); err != nil {
		printResults(out, model.AssertionResultsOf(err))
		return err
	}

	report, err := a.exec.State(a.execContext(cmd), resource, instance)
	if err != nil {
		return err
	}
	printState(out, report.State)
	return nil
}

func (a *app) runPlugins(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "URI\tNAME\tDESCRIPTION")
	for _, g := range a.reg.Groups() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", g.URI, g.Name, g.Description)
	}
	return w.Flush()
}

func printState(out io.Writer, s *model.State) {
	if s == nil || s.ID == uuid.Nil {
		fmt.Fprintln(out, "Current state: non-existent")
		return
	}
	fmt.Fprintf(out, "Current state: %s\n", s.DisplayName())
}

func printResults(out io.Writer, results []model.AssertionResult) {
	for _, r := range results {
		mark := "PASS"
		if !r.Result {
			mark = "FAIL"
		}
		fmt.Fprintf(out, "  [%s] %s: %s\n", mark, r.Description, r.Message)
	}
}
