package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/js-runtime/bridge"
	"github.com/wippyai/js-runtime/session"
)

func main() {
	var (
		expr        = flag.String("e", "", "Expression to evaluate")
		interactive = flag.Bool("i", false, "Interactive REPL")
		verbose     = flag.Bool("v", false, "Verbose logging")
		memPages    = flag.Uint("mem-pages", 0, "Engine memory limit in 64KB pages (0 = default)")
	)
	flag.Parse()

	logger := zap.NewNop()
	if *verbose {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	defer logger.Sync()

	if *interactive {
		if err := runInteractive(logger, uint32(*memPages)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *expr == "" && flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: jsrun -e <expression>")
		fmt.Fprintln(os.Stderr, "       jsrun <file.js>")
		fmt.Fprintln(os.Stderr, "       jsrun -i  (interactive REPL)")
		os.Exit(1)
	}

	if err := run(logger, uint32(*memPages), *expr, flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(logger *zap.Logger, memPages uint32, expr, file string) error {
	ctx := context.Background()

	source := expr
	filename := "<input>"
	if source == "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read file: %w", err)
		}
		source = string(data)
		filename = file
	}

	opts := []session.Option{
		session.WithLogger(logger),
		session.WithFilename(filename),
	}
	if memPages > 0 {
		opts = append(opts, session.WithMemoryLimitPages(memPages))
	}

	sess, err := session.New(ctx, opts...)
	if err != nil {
		return err
	}
	defer sess.Close(ctx)

	result, err := sess.Evaluate(ctx, source)
	if err != nil {
		return err
	}
	fmt.Println(formatValue(result))
	return nil
}

// formatValue renders a host value the way a REPL would.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "undefined"
	case bool:
		return strconv.FormatBool(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case string:
		return val
	case *bridge.Object:
		return "[object handle]"
	default:
		return fmt.Sprintf("%v", val)
	}
}
