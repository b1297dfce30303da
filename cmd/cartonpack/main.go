package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/eugenenazirov/carton-planner/internal/catalog"
	"github.com/eugenenazirov/carton-planner/internal/config"
	"github.com/eugenenazirov/carton-planner/internal/diagram"
	"github.com/eugenenazirov/carton-planner/internal/logging"
	"github.com/eugenenazirov/carton-planner/internal/packing"
	"github.com/eugenenazirov/carton-planner/internal/quote"
	"github.com/eugenenazirov/carton-planner/internal/ranking"
	"github.com/eugenenazirov/carton-planner/internal/shipment"
)

var errCannotPack = errors.New("the product does not fit the carton in any allowed orientation")

func main() {
	_ = godotenv.Load()
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type productFlags struct {
	dims   *string
	weight *float64
	cost   *float64
}

func addProductFlags(cmd *kingpin.CmdClause) productFlags {
	return productFlags{
		dims:   cmd.Flag("product", "Product dimensions in mm as LxWxH").Required().String(),
		weight: cmd.Flag("weight", "Unit weight in kg").Default("0").Float64(),
		cost:   cmd.Flag("cost", "Unit cost").Default("0").Float64(),
	}
}

func (f productFlags) product() (quote.Product, error) {
	d, err := parseDimensions(*f.dims)
	if err != nil {
		return quote.Product{}, fmt.Errorf("--product: %w", err)
	}
	if *f.weight < 0 || *f.cost < 0 {
		return quote.Product{}, errors.New("--weight and --cost must be zero or positive")
	}
	return quote.Product{Dimensions: d, UnitWeight: *f.weight, UnitCost: *f.cost}, nil
}

// run parses args and executes one command. It returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	app := kingpin.New("cartonpack", "Plan how many units fit a carton and which carton packs them cheapest.")
	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)
	exited := false
	app.Terminate(func(int) { exited = true })

	configFile := app.Flag("config", "Path to YAML configuration file with the carton catalog").String()
	locale := app.Flag("locale", "Locale used to format numbers").Default("en").String()
	logLevel := app.Flag("log-level", "Log level (debug, info, warn, error)").Default("error").Enum("debug", "info", "warn", "error")

	optimizeCmd := app.Command("optimize", "Find the best grid for one carton.")
	optCarton := optimizeCmd.Flag("carton", "Catalog carton name").String()
	optInterior := optimizeCmd.Flag("interior", "Carton interior in mm as LxWxH").String()
	optProduct := addProductFlags(optimizeCmd)
	optDivider := optimizeCmd.Flag("divider", "Divider thickness in mm between layers").Default("-1").Float64()
	optOrientation := optimizeCmd.Flag("orientation", "Pin the product orientation").Enum("flat", "side", "upright")
	optSVG := optimizeCmd.Flag("svg", "Write the top view of one layer to this SVG file").String()
	optSize := optimizeCmd.Flag("size", "SVG canvas size in px").Default("280").Int()

	recommendCmd := app.Command("recommend", "Rank every catalog carton by packaging cost per unit.")
	recProduct := addProductFlags(recommendCmd)
	recDivider := recommendCmd.Flag("divider", "Divider thickness in mm between layers").Default("-1").Float64()
	recMaxWeight := recommendCmd.Flag("max-weight", "Maximum shipping weight in kg (0 disables)").Default("0").Float64()
	recLimit := recommendCmd.Flag("limit", "Show at most this many cartons (0 shows all)").Default("0").Int()
	recOrder := recommendCmd.Flag("order", "Also plan the cheapest carton mix for this many units").Default("0").Int()

	cartonsCmd := app.Command("cartons", "List the carton catalog.")

	command, err := app.Parse(args)
	if exited {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "cartonpack: %v\n", err)
		return 2
	}

	logger, err := logging.New(*logLevel)
	if err != nil {
		fmt.Fprintf(stderr, "cartonpack: %v\n", err)
		return 1
	}
	defer func() {
		_ = logger.Sync()
	}()

	cfg, err := config.Load(&config.CLIOverrides{ConfigFile: *configFile})
	if err != nil {
		fmt.Fprintf(stderr, "cartonpack: %v\n", err)
		return 1
	}
	logger.Debug("configuration loaded",
		zap.String("config", *configFile),
		zap.Int("cartons", len(cfg.Cartons)),
	)

	tag, err := language.Parse(*locale)
	if err != nil {
		fmt.Fprintf(stderr, "cartonpack: --locale: %v\n", err)
		return 2
	}
	p := message.NewPrinter(tag)

	store := catalog.NewMemoryStorage()
	if err := store.Replace(cfg.Cartons); err != nil {
		fmt.Fprintf(stderr, "cartonpack: %v\n", err)
		return 1
	}

	switch command {
	case optimizeCmd.FullCommand():
		divider := cfg.DividerThickness
		if *optDivider >= 0 {
			divider = *optDivider
		}
		err = runOptimize(p, stdout, store, cfg.Deduction, optimizeArgs{
			carton:      *optCarton,
			interior:    *optInterior,
			product:     optProduct,
			divider:     divider,
			orientation: *optOrientation,
			svgPath:     *optSVG,
			svgSize:     *optSize,
		})
	case recommendCmd.FullCommand():
		divider := cfg.DividerThickness
		if *recDivider >= 0 {
			divider = *recDivider
		}
		err = runRecommend(p, stdout, store, cfg, recommendArgs{
			product:   recProduct,
			divider:   divider,
			maxWeight: *recMaxWeight,
			limit:     *recLimit,
			order:     *recOrder,
		})
	case cartonsCmd.FullCommand():
		err = runCartons(p, stdout, store)
	}

	if err != nil {
		logger.Debug("command failed", zap.String("command", command), zap.Error(err))
		fmt.Fprintf(stderr, "cartonpack: %v\n", err)
		return 1
	}
	return 0
}

type optimizeArgs struct {
	carton      string
	interior    string
	product     productFlags
	divider     float64
	orientation string
	svgPath     string
	svgSize     int
}

func runOptimize(p *message.Printer, w io.Writer, store catalog.Storage, deduction catalog.Deduction, args optimizeArgs) error {
	if (args.carton == "") == (args.interior == "") {
		return errors.New("exactly one of --carton or --interior is required")
	}

	product, err := args.product.product()
	if err != nil {
		return err
	}

	var carton catalog.Carton
	var interior packing.Dimensions
	if args.interior != "" {
		interior, err = parseDimensions(args.interior)
		if err != nil {
			return fmt.Errorf("--interior: %w", err)
		}
	} else {
		carton, err = store.Get(args.carton)
		if err != nil {
			return err
		}
		interior = carton.Interior(deduction)
	}

	result, ok, err := packing.New().Optimize(packing.Request{
		Carton:           interior,
		Product:          product.Dimensions,
		DividerThickness: args.divider,
		Orientation:      packing.Orientation(args.orientation),
	})
	if err != nil {
		return err
	}
	if !ok {
		return errCannotPack
	}

	q, err := quote.Build(result, carton, interior, product)
	if err != nil {
		return err
	}

	writeReport(p, w, carton, interior, result, q)

	if args.svgPath != "" {
		if err := writeDiagram(args.svgPath, interior, result, args.svgSize); err != nil {
			return err
		}
		p.Fprintf(w, "%-16s %s\n", "Diagram", args.svgPath)
	}
	return nil
}

func writeReport(p *message.Printer, w io.Writer, carton catalog.Carton, interior packing.Dimensions, result packing.Result, q quote.Quote) {
	if carton.Name != "" {
		p.Fprintf(w, "%-16s %s\n", "Carton", carton.Name)
	}
	p.Fprintf(w, "%-16s %v × %v × %v mm\n", "Interior", interior.Length, interior.Width, interior.Height)
	p.Fprintf(w, "%-16s %s\n", "Orientation", result.Orientation)
	p.Fprintf(w, "%-16s %d × %d = %d per layer\n", "Grid", result.Columns, result.Rows, result.PerLayer)
	p.Fprintf(w, "%-16s %d (%d dividers, stack %v mm)\n", "Layers", result.Layers, result.Dividers, result.StackHeight)
	p.Fprintf(w, "%-16s %d\n", "Total units", result.TotalCount)
	if carton.Name != "" {
		p.Fprintf(w, "%-16s %.2f\n", "Material cost", q.MaterialCost)
		p.Fprintf(w, "%-16s %.4f\n", "Cost per unit", q.PackagingCostPerUnit)
	}
	if q.GoodsValue > 0 {
		p.Fprintf(w, "%-16s %.4f\n", "Landed per unit", q.LandedCostPerUnit)
	}
	if q.ShippingWeight > 0 {
		p.Fprintf(w, "%-16s %.2f kg\n", "Shipping weight", q.ShippingWeight)
	}
	p.Fprintf(w, "%-16s %.1f%%\n", "Utilization", q.UtilizationPercent)
}

func writeDiagram(path string, interior packing.Dimensions, result packing.Result, size int) error {
	layout, err := diagram.TopView(interior, result, diagram.Options{Size: float64(size)})
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create diagram: %w", err)
	}
	if err := diagram.WriteSVG(f, layout); err != nil {
		_ = f.Close()
		return fmt.Errorf("write diagram: %w", err)
	}
	return f.Close()
}

type recommendArgs struct {
	product   productFlags
	divider   float64
	maxWeight float64
	limit     int
	order     int
}

func runRecommend(p *message.Printer, w io.Writer, store catalog.Storage, cfg config.Config, args recommendArgs) error {
	product, err := args.product.product()
	if err != nil {
		return err
	}
	if args.order < 0 {
		return errors.New("--order must be zero or positive")
	}

	cartons, err := store.List()
	if err != nil {
		return err
	}

	ranker := ranking.New(packing.New(), ranking.WithConcurrency(cfg.MaxConcurrency))
	opts := ranking.Options{
		Product:          product,
		DividerThickness: args.divider,
		Deduction:        cfg.Deduction,
		MaxWeight:        args.maxWeight,
	}
	rec, err := ranker.Recommend(context.Background(), cartons, opts)
	if err != nil {
		return err
	}
	feasible := rec.Options
	if args.limit > 0 && len(rec.Options) > args.limit {
		rec.Options = rec.Options[:args.limit]
	}

	if len(rec.Options) == 0 {
		p.Fprintf(w, "No carton can hold the product.\n")
	} else {
		p.Fprintf(w, "%-12s %-8s %7s %12s %10s %7s\n", "CARTON", "ORIENT", "UNITS", "COST/UNIT", "WEIGHT", "UTIL")
		for _, o := range rec.Options {
			p.Fprintf(w, "%-12s %-8s %7d %12.4f %10.2f %6.1f%%\n",
				o.Carton.Name, o.Packing.Orientation, o.Packing.TotalCount,
				o.Quote.PackagingCostPerUnit, o.Quote.ShippingWeight, o.Quote.UtilizationPercent)
		}
	}

	for _, r := range rec.Rejected {
		if r.Detail != "" {
			p.Fprintf(w, "rejected %s: %s (%s)\n", r.Carton, r.Reason, r.Detail)
			continue
		}
		p.Fprintf(w, "rejected %s: %s\n", r.Carton, r.Reason)
	}

	if args.order == 0 {
		return nil
	}
	plan, err := shipment.New().Plan(args.order, shipment.FromOptions(feasible))
	if err != nil {
		return err
	}
	writePlan(p, w, plan)
	return nil
}

func writePlan(p *message.Printer, w io.Writer, plan shipment.Plan) {
	p.Fprintf(w, "\nShipment for %d units: %d cartons, material cost %.2f, spare %d\n",
		plan.Order, plan.TotalCartons, plan.MaterialCost, plan.Spare)
	for _, l := range plan.Lines {
		p.Fprintf(w, "  %4d × %-12s %6d units each %10.2f\n", l.Count, l.Carton, l.UnitsPerCarton, l.Cost)
	}
}

func runCartons(p *message.Printer, w io.Writer, store catalog.Storage) error {
	cartons, err := store.List()
	if err != nil {
		return err
	}

	p.Fprintf(w, "%-12s %18s %8s %8s %8s\n", "NAME", "SIZE (MM)", "PRICE", "DIVIDER", "TARE")
	for _, c := range cartons {
		size := fmt.Sprintf("%gx%gx%g", c.Length, c.Width, c.Height)
		p.Fprintf(w, "%-12s %18s %8.2f %8.2f %8.2f\n", c.Name, size, c.Price, c.DividerPrice, c.TareWeight)
	}
	return nil
}

// parseDimensions reads "LxWxH"; "×", "*" and "," are accepted as separators.
func parseDimensions(raw string) (packing.Dimensions, error) {
	fields := strings.FieldsFunc(strings.ToLower(raw), func(r rune) bool {
		return r == 'x' || r == '×' || r == '*' || r == ','
	})
	if len(fields) != 3 {
		return packing.Dimensions{}, fmt.Errorf("expected LxWxH, got %q", raw)
	}

	var values [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return packing.Dimensions{}, fmt.Errorf("invalid number %q", f)
		}
		values[i] = v
	}
	return packing.Dimensions{Length: values[0], Width: values[1], Height: values[2]}, nil
}
