// Command analyze inspects the city configurations in the configs directory.
// It validates every file, renders generated cities, prints street speed
// limits and delivery addresses, and answers fastest-route queries.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/amolgorithm/delivery-deluxe/game/citymap"
	"github.com/amolgorithm/delivery-deluxe/game/config"
	"github.com/amolgorithm/delivery-deluxe/game/engine"
	"github.com/amolgorithm/delivery-deluxe/game/router"
)

// errInvalidConfigs is returned by validate when at least one file fails.
var errInvalidConfigs = errors.New("invalid configurations found")

func main() {
	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newCommand(out io.Writer) *cli.Command {
	seedFlag := &cli.StringFlag{
		Name:  "seed",
		Usage: "override the config's map seed",
	}

	return &cli.Command{
		Name:   "analyze",
		Usage:  "inspect Delivery Deluxe city configurations",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config-dir",
				Value: "configs",
				Usage: "directory holding the configuration files",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "list the loadable configurations",
				Action: listAction,
			},
			{
				Name:      "validate",
				Usage:     "validate configuration files and the cities they generate",
				ArgsUsage: "[config...]",
				Action:    validateAction,
			},
			{
				Name:      "generate",
				Usage:     "generate a config's city and print it",
				ArgsUsage: "<config>",
				Flags: []cli.Flag{
					seedFlag,
					&cli.StringFlag{
						Name:  "format",
						Value: "text",
						Usage: "output format: text, yaml or json",
					},
				},
				Action: generateAction,
			},
			{
				Name:      "inspect",
				Usage:     "print streets, speed limits and delivery addresses",
				ArgsUsage: "<config>",
				Flags:     []cli.Flag{seedFlag},
				Action:    inspectAction,
			},
			{
				Name:      "route",
				Usage:     "print the fastest route between two intersections",
				ArgsUsage: "<config>",
				Flags: []cli.Flag{
					seedFlag,
					&cli.StringFlag{Name: "from", Value: "0,0", Usage: "start cell as row,col"},
					&cli.StringFlag{Name: "to", Required: true, Usage: "goal cell as row,col"},
				},
				Action: routeAction,
			},
		},
	}
}

func manager(cmd *cli.Command) (*config.Manager, error) {
	return config.NewManager(cmd.String("config-dir"))
}

// loadEngine builds an engine for the config named by the first argument.
func loadEngine(cmd *cli.Command) (*engine.GameEngine, error) {
	name := cmd.Args().First()
	if name == "" {
		return nil, fmt.Errorf("missing config name")
	}
	mgr, err := manager(cmd)
	if err != nil {
		return nil, err
	}
	loaded, err := mgr.LoadConfig(name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}

	cfg := *loaded
	if s := cmd.String("seed"); s != "" {
		seed, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad seed %q: %w", s, err)
		}
		cfg.Seed = seed
	}
	return engine.NewEngine(&cfg)
}

func listAction(ctx context.Context, cmd *cli.Command) error {
	mgr, err := manager(cmd)
	if err != nil {
		return err
	}
	configs, err := mgr.ListConfigs()
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	for _, c := range configs {
		fmt.Fprintf(out, "%-12s %-20s %2dx%-2d %d locations, %d vehicles\n",
			c.ConfigID, c.Name, c.Rows, c.Cols, c.DeliveryLocations, c.Vehicles)
	}
	return nil
}

// ValidationResult captures the outcome of validating a single config.
// Notes are informational; Errors make the config invalid.
type ValidationResult struct {
	Config string
	Errors []string
	Notes  []string
}

func (r ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// configNames returns the ids of every config file in dir.
func configNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".json" && ext != ".yaml" && ext != ".yml" {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ext)
		if !seen[id] {
			seen[id] = true
			names = append(names, id)
		}
	}
	sort.Strings(names)
	return names, nil
}

// validateConfig loads a config, generates its city and checks that every
// delivery location and fuel stop can be reached by road from the start.
func validateConfig(mgr *config.Manager, name string) ValidationResult {
	result := ValidationResult{Config: name}

	cfg, err := mgr.LoadConfig(name)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	eng, err := engine.NewEngine(cfg)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("generate city: %v", err))
		return result
	}
	city := eng.Map()

	if cfg.Seed == 0 {
		result.Notes = append(result.Notes, "no seed, the city differs per session")
	}
	if len(cfg.Vehicles) == 0 {
		result.Notes = append(result.Notes, "no vehicles, the stock garage is used")
	}

	targets := append(city.DeliveryLocations(), city.FuelStops()...)
	for _, target := range targets {
		label, _ := city.LabelAt(target.Row, target.Col)
		route := eng.Route(citymap.Cell{}, clampToRoads(city, target))
		if !route.Found() {
			result.Errors = append(result.Errors,
				fmt.Sprintf("%c at (%d,%d) is unreachable", label, target.Row, target.Col))
		}
	}

	result.Notes = append(result.Notes, fmt.Sprintf("%dx%d, %d streets, %d delivery locations, %d fuel stops",
		city.Rows(), city.Cols(), city.StreetCount(), len(city.DeliveryLocations()), len(city.FuelStops())))
	return result
}

func validateAction(ctx context.Context, cmd *cli.Command) error {
	mgr, err := manager(cmd)
	if err != nil {
		return err
	}

	names := cmd.Args().Slice()
	if len(names) == 0 {
		if names, err = configNames(cmd.String("config-dir")); err != nil {
			return err
		}
	}

	out := cmd.Root().Writer
	invalid := 0
	for _, name := range names {
		result := validateConfig(mgr, name)
		if result.Valid() {
			fmt.Fprintf(out, "✓ %s\n", name)
		} else {
			invalid++
			fmt.Fprintf(out, "✗ %s\n", name)
		}
		for _, e := range result.Errors {
			fmt.Fprintf(out, "    error: %s\n", e)
		}
		for _, n := range result.Notes {
			fmt.Fprintf(out, "    %s\n", n)
		}
	}

	fmt.Fprintf(out, "\n%d of %d configurations valid\n", len(names)-invalid, len(names))
	if invalid > 0 {
		return errInvalidConfigs
	}
	return nil
}

func generateAction(ctx context.Context, cmd *cli.Command) error {
	eng, err := loadEngine(cmd)
	if err != nil {
		return err
	}
	city := eng.Map()
	out := cmd.Root().Writer

	switch format := cmd.String("format"); format {
	case "text":
		_, err = io.WriteString(out, city.Render())
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		err = enc.Encode(city.Snapshot())
		if cerr := enc.Close(); err == nil {
			err = cerr
		}
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		err = enc.Encode(city.Snapshot())
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	return err
}

func inspectAction(ctx context.Context, cmd *cli.Command) error {
	eng, err := loadEngine(cmd)
	if err != nil {
		return err
	}
	city := eng.Map()
	out := cmd.Root().Writer

	fmt.Fprintf(out, "%s (%dx%d)\n\nStreets:\n", eng.GetConfig().Name, city.Rows(), city.Cols())
	for idx, street := range city.Streets() {
		if len(street) == 0 {
			continue
		}
		limit, _ := city.SpeedLimitAt(street[0].Row, street[0].Col)
		fmt.Fprintf(out, "  %-16s row %d, %.0f kmph\n", engine.StreetName(idx), street[0].Row, limit)
	}

	fmt.Fprintln(out, "\nDelivery locations:")
	for _, loc := range city.DeliveryLocations() {
		label, _ := city.LabelAt(loc.Row, loc.Col)
		route := eng.Route(citymap.Cell{}, clampToRoads(city, loc))
		fmt.Fprintf(out, "  %c (%d,%d) %-22s %s\n", label, loc.Row, loc.Col,
			engine.Address(city, loc, string(label)), costText(route))
	}

	fmt.Fprintln(out, "\nFuel stops:")
	for _, stop := range city.FuelStops() {
		route := eng.Route(citymap.Cell{}, clampToRoads(city, stop))
		fmt.Fprintf(out, "  (%d,%d) %s\n", stop.Row, stop.Col, costText(route))
	}
	return nil
}

func costText(route router.Route) string {
	if !route.Found() {
		return "unreachable"
	}
	return fmt.Sprintf("%.3f h from start", route.Cost)
}

func routeAction(ctx context.Context, cmd *cli.Command) error {
	eng, err := loadEngine(cmd)
	if err != nil {
		return err
	}
	from, err := parseCell(cmd.String("from"))
	if err != nil {
		return err
	}
	to, err := parseCell(cmd.String("to"))
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	route := eng.Route(from, to)
	if !route.Found() {
		fmt.Fprintf(out, "No route from (%d,%d) to (%d,%d)\n", from.Row, from.Col, to.Row, to.Col)
		return nil
	}

	fmt.Fprintf(out, "Route (%d,%d) -> (%d,%d): %d steps, cost %.4f\n",
		from.Row, from.Col, to.Row, to.Col, len(route.Path)-1, route.Cost)
	for i := 1; i < len(route.Path); i++ {
		prev, cell := route.Path[i-1], route.Path[i]
		heading, err := router.HeadingForStep(prev, cell)
		if err != nil {
			return err
		}
		limit, _ := eng.Map().SpeedLimitAt(cell.Row, cell.Col)
		fmt.Fprintf(out, "  %-5s (%d,%d) %.0f kmph\n", heading, cell.Row, cell.Col, limit)
	}
	return nil
}

// parseCell reads "row,col".
func parseCell(s string) (citymap.Cell, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return citymap.Cell{}, fmt.Errorf("bad cell %q, want row,col", s)
	}
	row, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return citymap.Cell{}, fmt.Errorf("bad row in %q: %w", s, err)
	}
	col, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return citymap.Cell{}, fmt.Errorf("bad column in %q: %w", s, err)
	}
	return citymap.Cell{Row: row, Col: col}, nil
}

// clampToRoads maps a building cell onto the nearest intersection the car
// can drive from.
func clampToRoads(city *citymap.GridMap, c citymap.Cell) citymap.Cell {
	rows, cols := city.IntersectionSize()
	c.Row = max(0, min(c.Row, rows-1))
	c.Col = max(0, min(c.Col, cols-1))
	return c
}
