package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mercari/go-circuitbreaker"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/sanLimbu/todo-app/internal"
	"github.com/sanLimbu/todo-app/internal/client"
	"github.com/sanLimbu/todo-app/internal/state"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

type app struct {
	stdout io.Writer
	stderr io.Writer

	server  string
	timeout time.Duration
	trace   bool
	verbose bool

	client     *client.Client
	controller *state.Controller
	shutdown   func(context.Context) error
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{
		stdout:   stdout,
		stderr:   stderr,
		shutdown: func(context.Context) error { return nil },
	}

	server := os.Getenv("TODO_SERVER")
	if server == "" {
		server = "http://localhost:9234"
	}

	cmd := &cobra.Command{
		Use:           "todo",
		Short:         "Manage tasks stored by the todo-app REST server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.shutdown(cmd.Context())
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.server, "server", server, "REST server base URL")
	flags.DurationVar(&a.timeout, "timeout", 5*time.Second, "Timeout of each command")
	flags.BoolVar(&a.trace, "trace", false, "Print OpenTelemetry spans to stderr")
	flags.BoolVar(&a.verbose, "verbose", false, "Log warnings to stderr")

	cmd.AddCommand(
		a.listCmd(),
		a.addCmd(),
		a.toggleCmd(),
		a.deleteCmd(),
		a.searchCmd(),
	)

	return cmd
}

func (a *app) setup() error {
	logger := zap.NewNop()

	if a.verbose {
		cfg := zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{"stderr"}

		l, err := cfg.Build()
		if err != nil {
			return fmt.Errorf("zap.Build: %w", err)
		}

		logger = l
	}

	opts := []client.Option{
		client.WithCircuitBreaker(circuitbreaker.New(
			circuitbreaker.WithTripFunc(circuitbreaker.NewTripFuncConsecutiveFailures(3)),
		)),
	}

	if a.trace {
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(a.stderr), stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("stdouttrace.New: %w", err)
		}

		tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

		a.shutdown = tp.Shutdown

		opts = append(opts, client.WithTracing())
	}

	cl, err := client.New(a.server, opts...)
	if err != nil {
		return fmt.Errorf("client.New: %w", err)
	}

	a.client = cl
	a.controller = state.New(cl, state.NotifierFunc(a.toast), logger)

	return nil
}

func (a *app) toast(n state.Notification) {
	prefix := "info"
	if n.Level == state.LevelError {
		prefix = "error"
	}

	fmt.Fprintf(a.stderr, "%s: %s\n", prefix, n.Message)
}

func (a *app) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithTimeout(ctx, a.timeout)
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tasks, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			if err := a.controller.Refresh(ctx); err != nil {
				return fmt.Errorf("couldn't load tasks: %w", err)
			}

			a.printTasks(a.controller.Snapshot().Tasks)

			return nil
		},
	}
}

func (a *app) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			title := strings.Join(args, " ")

			a.controller.SetInput(title)

			if err := a.controller.SubmitCreate(ctx, title); err != nil {
				if msg := a.controller.Snapshot().InputError; msg != "" {
					return fmt.Errorf("%s", msg)
				}

				return err
			}

			a.printTasks(a.controller.Snapshot().Tasks)

			return nil
		},
	}
}

func (a *app) toggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip the completed flag of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := a.context(cmd)
			defer cancel()

			if err := a.controller.Refresh(ctx); err != nil {
				return fmt.Errorf("couldn't load tasks: %w", err)
			}

			task, ok := findTask(a.controller.Snapshot().Tasks, id)
			if !ok {
				return internal.NewErrorf(internal.ErrorCodeNotFound, "task %d not found", id)
			}

			if err := a.controller.SubmitToggle(ctx, task.ID, task.Completed); err != nil {
				return err
			}

			a.printTasks(a.controller.Snapshot().Tasks)

			return nil
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := a.context(cmd)
			defer cancel()

			if err := a.controller.SubmitDelete(ctx, id); err != nil {
				return err
			}

			a.printTasks(a.controller.Snapshot().Tasks)

			return nil
		},
	}
}

func (a *app) searchCmd() *cobra.Command {
	var (
		title     string
		completed bool
		from      int64
		size      int64
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search tasks, requires search to be enabled on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			args := internal.SearchParams{From: from, Size: size}

			if cmd.Flags().Changed("title") {
				args.Title = &title
			}

			if cmd.Flags().Changed("completed") {
				args.Completed = &completed
			}

			res, err := a.client.Search(ctx, args)
			if err != nil {
				return err
			}

			a.printTasks(res.Tasks)
			fmt.Fprintf(a.stdout, "%d total\n", res.Total)

			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Match tasks by title")
	cmd.Flags().BoolVar(&completed, "completed", false, "Match tasks by completed flag")
	cmd.Flags().Int64Var(&from, "from", 0, "Offset of the first result")
	cmd.Flags().Int64Var(&size, "size", 10, "Maximum number of results")

	return cmd
}

func (a *app) printTasks(tasks []internal.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(a.stdout, "No tasks")
		return
	}

	for _, t := range tasks {
		mark := " "
		if t.Completed {
			mark = "x"
		}

		fmt.Fprintf(a.stdout, "[%s] %d\t%s\n", mark, t.ID, t.Title)
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "invalid id %q", s)
	}

	return id, nil
}

func findTask(tasks []internal.Task, id int64) (internal.Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}

	return internal.Task{}, false
}
