// Command analyze prints quick, human-readable heuristics about the game
// presets in the project's configs directory. It validates each preset,
// summarizes board size and auto-reset settings, and shows how many squares
// start with each number of knight moves so the hard corners are obvious.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/knightstour/game/engine"
)

func main() {
	_ = godotenv.Load()

	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Inspect Knight's Tour presets and board geometry",
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "Validate preset files and print a summary of each",
				ArgsUsage: "[file.json ...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config-dir",
						Value:   "configs",
						Usage:   "directory scanned when no files are given",
						Sources: cli.EnvVars("CONFIG_DIR"),
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					files := cmd.Args().Slice()
					if len(files) == 0 {
						var err error
						files, err = presetFiles(cmd.String("config-dir"))
						if err != nil {
							return err
						}
					}

					invalid := 0
					for _, file := range files {
						fmt.Fprintf(out, "\n=== Analyzing %s ===\n", filepath.Base(file))
						if err := analyzeConfig(out, file); err != nil {
							fmt.Fprintf(out, "❌ %v\n", err)
							invalid++
						}
					}

					if invalid > 0 {
						return fmt.Errorf("%d of %d presets are invalid", invalid, len(files))
					}
					return nil
				},
			},
			{
				Name:  "degrees",
				Usage: "Print how many squares have k legal knight moves on an empty board",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "size",
						Usage: "board size; 0 prints every supported size",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					size := int(cmd.Int("size"))
					if size != 0 {
						return printDegrees(out, size)
					}
					for n := engine.MinBoardSize; n <= engine.MaxBoardSize; n++ {
						if err := printDegrees(out, n); err != nil {
							return err
						}
					}
					return nil
				},
			},
		},
	}
}

// presetFiles lists the *.json files in dir in name order.
func presetFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no presets found in %s", dir)
	}
	sort.Strings(files)
	return files, nil
}

func analyzeConfig(out io.Writer, path string) error {
	config, err := engine.LoadGameConfig(path)
	if err != nil {
		return fmt.Errorf("invalid preset: %w", err)
	}

	fmt.Fprintf(out, "Name: %s\n", config.Name)
	fmt.Fprintf(out, "Board Size: %d x %d (%d squares)\n", config.BoardSize, config.BoardSize, config.BoardSize*config.BoardSize)
	if config.AutoResetMs > 0 {
		fmt.Fprintf(out, "Auto-reset: %dms after a failed run\n", config.AutoResetMs)
	} else {
		fmt.Fprintf(out, "Auto-reset: off\n")
	}

	table, err := engine.DegreeTable(config.BoardSize)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Degrees: %s\n", formatDegrees(table))

	// A tour alternates square colours, so on odd boards it has to start on
	// the colour with one extra square
	if config.BoardSize%2 == 1 {
		fmt.Fprintf(out, "⚠️  Odd board: tours must start on a square with even row+col (%d of %d)\n",
			(config.BoardSize*config.BoardSize+1)/2, config.BoardSize*config.BoardSize)
	} else {
		fmt.Fprintf(out, "✅ Even board: any starting square can lead to a tour\n")
	}
	return nil
}

func printDegrees(out io.Writer, size int) error {
	if size < engine.MinBoardSize || size > engine.MaxBoardSize {
		return fmt.Errorf("%w: %d (must be between %d and %d)",
			engine.ErrInvalidBoardSize, size, engine.MinBoardSize, engine.MaxBoardSize)
	}
	table, err := engine.DegreeTable(size)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%2dx%-2d  %s\n", size, size, formatDegrees(table))
	return nil
}

// formatDegrees renders a degree table as "2:4 3:8 ..." in ascending degree.
func formatDegrees(table map[int]int) string {
	degrees := make([]int, 0, len(table))
	for d := range table {
		degrees = append(degrees, d)
	}
	sort.Ints(degrees)

	parts := make([]string, len(degrees))
	for i, d := range degrees {
		parts[i] = fmt.Sprintf("%d:%d", d, table[d])
	}
	return strings.Join(parts, " ")
}
