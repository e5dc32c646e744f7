// Command pickcheck is a demo batch-run driver for the pickcheck engine:
// it runs a library of registered properties for a number of iterations
// each, reports the first failing rep_key it finds, shrinks it, and can
// later reproduce (and hand-edit) a stored rep_key on its own.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Knetic/govaluate"
	"github.com/geofffranks/simpleyaml"
	"github.com/mattn/go-isatty"
	"github.com/starkandwayne/goutils/ansi"
	"github.com/voxelbrain/goptions"

	pc "github.com/pickcheck/pickcheck/pkg/pickcheck"
	"github.com/pickcheck/pickcheck/internal"
	"github.com/pickcheck/pickcheck/internal/cache"
	"github.com/pickcheck/pickcheck/internal/config"
	"github.com/pickcheck/pickcheck/internal/diffreport"
	"github.com/pickcheck/pickcheck/internal/override"
	"github.com/pickcheck/pickcheck/internal/reporting"
	"github.com/pickcheck/pickcheck/log"
)

// Version holds the current version of pickcheck.
var Version = "(development)"

// engineMaxTries is the configured Dispatch retry ceiling, set once in
// cmdRun from the loaded Config and read by every registered property's
// Generate/Dispatch call via dispatchOpts.
var engineMaxTries = pc.DefaultMaxTries

func dispatchOpts() pc.DispatchOpts {
	return pc.DispatchOpts{MaxTries: engineMaxTries}
}

var printfStdOut = func(format string, args ...interface{}) {
	fmt.Fprintf(os.Stdout, format, args...)
}

var getopts = func(o interface{}) {
	if err := goptions.Parse(o); err != nil {
		usage()
	}
}

var exit = func(code int) {
	os.Exit(code)
}

var usage = func() {
	goptions.PrintHelp()
	exit(1)
}

func envFlag(varname string) bool {
	val := os.Getenv(varname)
	return val != "" && strings.ToLower(val) != "false" && val != "0"
}

type runOpts struct {
	Property    string `goptions:"--property, -p, description='registered property to run (default: all)'"`
	Filter      string `goptions:"--filter, description='govaluate tag expression selecting properties, e.g. \"fast && !slow\"'"`
	Iterations  int    `goptions:"--iterations, -n, description='override each selected property iteration count'"`
	Seed        int64  `goptions:"--seed, description='base random seed'"`
	Workers     int    `goptions:"--workers, -w, description='worker pool size for running properties concurrently'"`
	RateLimit   int    `goptions:"--rate-limit, description='max property-batches started per second, 0 for unlimited'"`
	Config      string `goptions:"--config, -c, description='path to a YAML or TOML config file'"`
	NatsURL     string `goptions:"--nats-url, description='NATS server URL to publish batch summaries to'"`
	NatsSubject string `goptions:"--nats-subject, description='NATS subject for batch summaries (default: pickcheck.batches)'"`
	Help        bool   `goptions:"--help, -h"`
}

type reproOpts struct {
	Property string   `goptions:"--property, -p, obligatory, description='property the rep_key was produced by'"`
	RepKey   string   `goptions:"--rep-key, -r, obligatory, description='comma-separated pick sequence from a failed run'"`
	Set      []string `goptions:"--set, description='go-patch /path=value override applied to the decoded value (repeatable)'"`
	Help     bool     `goptions:"--help, -h"`
}

func main() {
	var options struct {
		Debug   bool         `goptions:"-D, --debug, description='Enable debugging'"`
		Trace   bool         `goptions:"-T, --trace, description='Enable trace mode debugging (very verbose)'"`
		Version bool         `goptions:"-v, --version, description='Display version information'"`
		Color   string       `goptions:"--color, description='Control color output (on/off/auto, default: auto)'"`
		Action  goptions.Verbs
		Run     runOpts   `goptions:"run"`
		Repro   reproOpts `goptions:"repro"`
	}
	getopts(&options)

	if envFlag("DEBUG") || options.Debug {
		log.SetLevel(log.LevelDebug)
	}
	if envFlag("TRACE") || options.Trace {
		log.SetLevel(log.LevelTrace)
	}

	if options.Run.Help || options.Repro.Help {
		usage()
		return
	}

	if options.Version {
		printfStdOut("%s - Version %s\n", os.Args[0], Version)
		exit(0)
		return
	}

	shouldEnableColor := false
	switch options.Color {
	case "on":
		shouldEnableColor = true
	case "off":
		shouldEnableColor = false
	case "auto", "":
		shouldEnableColor = isatty.IsTerminal(os.Stderr.Fd())
	default:
		log.ERROR("Invalid --color option: %s. Must be 'on', 'off', or 'auto'.", options.Color)
		exit(1)
		return
	}
	log.Colorize(shouldEnableColor)
	ansi.Color(shouldEnableColor)

	switch options.Action {
	case "run":
		if err := cmdRun(options.Run); err != nil {
			log.ERROR("%s", err.Error())
			exit(2)
			return
		}
	case "repro":
		if err := cmdRepro(options.Repro); err != nil {
			log.ERROR("%s", err.Error())
			exit(2)
			return
		}
	default:
		usage()
	}
}

// propertyResult is what a single seeded attempt at a registered property
// produced.
type propertyResult struct {
	exhausted bool
	failed    bool
	value     interface{}
	repKey    string
	shrunk    interface{}
	shrunkRep string
}

type registeredProperty struct {
	name       string
	tags       []string
	iterations int
	run        func(seed int64, sc *cache.ScriptCache) propertyResult
}

func registry() []registeredProperty {
	return []registeredProperty{
		arrayRoundTripProperty(),
		intRoundTripProperty(),
		uniqueBoolArrayProperty(),
		shrinkToMinProperty(),
		tableUniquenessProperty(),
	}
}

// arrayRoundTripProperty exercises generate + Domain round-trip over an
// array of bools (spec.md §8's "array min=2/max=4-of-bits" scenario).
func arrayRoundTripProperty() registeredProperty {
	dom := pc.ArrayDomain("bits", pc.BoolDomain("bit"), 2, 4)
	return domainRoundTripProperty("array_roundtrip", []string{"array", "roundtrip", "fast"}, 200, dom)
}

// intRoundTripProperty exercises spec.md §8's "int(-3,5) round-trip"
// scenario directly.
func intRoundTripProperty() registeredProperty {
	dom := pc.IntDomain("bounded_int_small", -3, 5)
	return domainRoundTripProperty("int_roundtrip", []string{"int", "roundtrip", "fast"}, 200, dom)
}

// uniqueBoolArrayProperty exercises spec.md §8's "unique-array-of-bool"
// scenario: only two distinct bool values exist, so a length above 2 can
// never be filled.
func uniqueBoolArrayProperty() registeredProperty {
	dom := pc.UniqueArrayDomain("unique_bits", pc.BoolDomain("bit"), 1, 2, func(b bool) interface{} { return b })
	return registeredProperty{
		name: "unique_bool_array", tags: []string{"array", "unique", "fast"}, iterations: 200,
		run: func(seed int64, sc *cache.ScriptCache) propertyResult {
			gen, ok := pc.Generate(dom.Build(), seed, dispatchOpts())
			if !ok {
				return propertyResult{exhausted: true}
			}
			if ok, err := cachedParse(sc, dom, gen); !ok {
				return propertyResult{failed: true, value: gen.Value(), repKey: repKeyOf(gen.Log())}
			} else if err != nil {
				return propertyResult{failed: true, value: gen.Value(), repKey: repKeyOf(gen.Log())}
			}
			return propertyResult{}
		},
	}
}

// shrinkToMinProperty exercises spec.md §8's "shrink to minimum" scenario:
// v < 100 fails for v >= 100, and a random failing v shrinks toward 100.
func shrinkToMinProperty() registeredProperty {
	dom := pc.IntDomain("bounded_int", 0, 1000)
	isFailing := func(v int) bool { return v >= 100 }
	return registeredProperty{
		name: "shrink_to_min", tags: []string{"shrink", "slow"}, iterations: 300,
		run: func(seed int64, sc *cache.ScriptCache) propertyResult {
			gen, ok := pc.Generate(dom.Build(), seed, dispatchOpts())
			if !ok {
				return propertyResult{exhausted: true}
			}
			if !isFailing(gen.Value()) {
				return propertyResult{}
			}
			shrunk := pc.Shrink(gen, isFailing)
			return propertyResult{
				failed: true, value: gen.Value(), repKey: repKeyOf(gen.Log()),
				shrunk: shrunk.Value(), shrunkRep: repKeyOf(shrunk.Log()),
			}
		},
	}
}

// tableUniquenessProperty exercises spec.md §8's "table uniqueness"
// scenario: a table of 3 distinct ids drawn from int(1,3) can supply at
// most 3 rows, so demanding exactly 4 rows raises "only 3 unique values" the
// instant the table is constructed, before any seed ever generates a value.
// That panic is expected here, not a bug to let crash the registry: every
// seeded attempt reports the same construction failure as exhausted.
func tableUniquenessProperty() registeredProperty {
	constructErr := func() (err string) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Sprint(r)
			}
		}()
		row := pc.IntDomain("row_id", 1, 3)
		pc.TableDomain("table_of_4", row, 4, 4, func(v int) interface{} { return v })
		return ""
	}()
	return registeredProperty{
		name: "table_uniqueness", tags: []string{"table", "slow"}, iterations: 20,
		run: func(seed int64, sc *cache.ScriptCache) propertyResult {
			if constructErr != "" {
				return propertyResult{exhausted: true}
			}
			return propertyResult{}
		},
	}
}

func domainRoundTripProperty[T any](name string, tags []string, iterations int, dom *pc.Domain[T]) registeredProperty {
	return registeredProperty{
		name: name, tags: tags, iterations: iterations,
		run: func(seed int64, sc *cache.ScriptCache) propertyResult {
			gen, ok := pc.Generate(dom.Build(), seed, dispatchOpts())
			if !ok {
				return propertyResult{exhausted: true}
			}
			if ok, _ := cachedParse(sc, dom, gen); !ok {
				return propertyResult{failed: true, value: gen.Value(), repKey: repKeyOf(gen.Log())}
			}
			return propertyResult{}
		},
	}
}

// cachedParse memoizes a Domain.Parse round-trip check by (script ID,
// replies), so a property run that meets a previously-seen reply sequence
// doesn't redo the same round trip.
func cachedParse[T any](sc *cache.ScriptCache, dom *pc.Domain[T], gen pc.Gen[T]) (bool, error) {
	if sc == nil {
		_, err := dom.Parse(gen.Value())
		return err == nil, err
	}
	key := cache.Key{ScriptID: gen.Script().ID(), Replies: cache.EncodeReplies(gen.Log().Replies())}
	if v, ok := sc.Get(key); ok {
		if v == nil {
			return true, nil
		}
		return false, v.(error)
	}
	_, err := dom.Parse(gen.Value())
	if err != nil {
		sc.Set(key, err)
		return false, err
	}
	sc.Set(key, nil)
	return true, nil
}

func repKeyOf(callLog *pc.CallLog) string {
	return repliesToKey(callLog.Replies())
}

func repliesFromKey(key string) ([]pc.Reply, error) {
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("empty rep_key")
	}
	parts := strings.Split(key, ",")
	out := make([]pc.Reply, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid rep_key segment %q: %w", p, err)
		}
		out[i] = pc.Reply(n)
	}
	return out, nil
}

func matchesFilter(tags []string, filterExpr string) (bool, error) {
	if strings.TrimSpace(filterExpr) == "" {
		return true, nil
	}
	expr, err := govaluate.NewEvaluableExpression(filterExpr)
	if err != nil {
		return false, fmt.Errorf("parsing --filter: %w", err)
	}
	params := make(map[string]interface{}, len(tags))
	for _, t := range tags {
		params[t] = true
	}
	for _, v := range expr.Vars() {
		if _, ok := params[v]; !ok {
			params[v] = false
		}
	}
	result, err := expr.Evaluate(params)
	if err != nil {
		return false, fmt.Errorf("evaluating --filter: %w", err)
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("--filter must evaluate to a boolean, got %v", result)
	}
	return b, nil
}

// batchOutcome is what running a property's whole iteration budget, or
// stopping early on first failure, produced.
type batchOutcome struct {
	property   string
	iterations int
	result     propertyResult
}

// checkConfigNotEmpty guards against a --config file that parses to an
// empty YAML document (a bare comment file, or an accidentally-truncated
// one): a silently-empty doc would make config.Manager.Load fall through to
// DefaultConfig without telling the caller why their file had no effect.
func checkConfigNotEmpty(path string) error {
	if strings.HasSuffix(path, ".toml") {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	y, err := simpleyaml.NewYaml(data)
	if err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	empty, _ := simpleyaml.NewYaml([]byte{})
	if *y == *empty {
		return fmt.Errorf("config file %s parses to an empty document", path)
	}
	return nil
}

func cmdRun(opts runOpts) error {
	mgr := config.NewManager()
	if opts.Config != "" {
		if err := checkConfigNotEmpty(opts.Config); err != nil {
			return err
		}
		if err := mgr.Load(opts.Config); err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	}
	cfg := mgr.Get()
	engineMaxTries = cfg.Engine.MaxTries

	seed := opts.Seed
	if seed == 0 {
		seed = 1
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}

	var publisher *reporting.Publisher
	if opts.NatsURL != "" {
		subject := opts.NatsSubject
		if subject == "" {
			subject = "pickcheck.batches"
		}
		p, err := reporting.Connect(opts.NatsURL, subject)
		if err != nil {
			log.WARN("could not connect to nats at %s: %s (continuing without reporting)", opts.NatsURL, err)
		} else {
			publisher = p
			defer publisher.Close()
		}
	}

	selected := make([]registeredProperty, 0)
	for _, p := range registry() {
		if opts.Property != "" && opts.Property != p.name {
			continue
		}
		match, err := matchesFilter(p.tags, opts.Filter)
		if err != nil {
			return err
		}
		if match {
			selected = append(selected, p)
		}
	}
	if len(selected) == 0 {
		return fmt.Errorf("no registered property matched --property=%q --filter=%q", opts.Property, opts.Filter)
	}

	sc := cache.NewScriptCache(16, 4096)
	pool := internal.NewWorkerPool[batchOutcome](internal.WorkerPoolConfig{
		Name: "pickcheck-batch", Workers: workers, QueueSize: len(selected), RateLimit: opts.RateLimit,
	})
	defer pool.Shutdown()

	for i, p := range selected {
		prop := p
		iterations := prop.iterations
		if opts.Iterations > 0 {
			iterations = opts.Iterations
		}
		propSeed := seed + int64(i)*1_000_000
		task := taskFunc{
			id: prop.name,
			fn: func() (batchOutcome, error) {
				start := time.Now()
				outcome := runBatch(prop, iterations, propSeed, sc)
				log.DEBUG("property %s ran %d iterations in %s", prop.name, outcome.iterations, time.Since(start))
				return outcome, nil
			},
		}
		if err := pool.Submit(task); err != nil {
			return fmt.Errorf("submitting property %s: %w", prop.name, err)
		}
	}

	anyFailed := false
	for i := 0; i < len(selected); i++ {
		res := <-pool.Results()
		if res.Err != nil {
			log.ERROR("property task failed: %s", res.Err)
			continue
		}
		reportOutcome(res.Value, publisher)
		if res.Value.result.failed {
			anyFailed = true
		}
	}
	if anyFailed {
		exit(1)
	}
	return nil
}

// taskFunc adapts a plain closure to internal.Task[batchOutcome].
type taskFunc struct {
	id string
	fn func() (batchOutcome, error)
}

func (t taskFunc) Execute(ctx context.Context) (batchOutcome, error) { return t.fn() }
func (t taskFunc) ID() string                                       { return t.id }

func runBatch(p registeredProperty, iterations int, seedBase int64, sc *cache.ScriptCache) batchOutcome {
	for i := 0; i < iterations; i++ {
		res := p.run(seedBase+int64(i), sc)
		if res.failed {
			return batchOutcome{property: p.name, iterations: i + 1, result: res}
		}
	}
	return batchOutcome{property: p.name, iterations: iterations}
}

func reportOutcome(o batchOutcome, publisher *reporting.Publisher) {
	if o.result.failed {
		log.ERROR("%s: FAILED after %d iterations, rep_key=%s", o.property, o.iterations, o.result.repKey)
		printfStdOut("%s\n", ansi.Sprintf("@R{FAIL} %s (rep_key=%s)\n", o.property, o.result.repKey))
		if o.result.shrunk != nil {
			before := map[string]interface{}{"value": o.result.value}
			after := map[string]interface{}{"value": o.result.shrunk}
			report, differs, err := diffreport.Compare("original", before, "shrunk", after)
			if err == nil && differs {
				printfStdOut("shrunk to rep_key=%s:\n%s\n", o.result.shrunkRep, report)
			}
		}
	} else if o.result.exhausted {
		log.WARN("%s: exhausted max_tries over %d iterations without producing a value", o.property, o.iterations)
	} else {
		log.INFO("%s: %d iterations, no failures", o.property, o.iterations)
	}

	if publisher == nil {
		return
	}
	summary := reporting.BatchSummary{
		Property: o.property, Iterations: o.iterations, FirstRepKey: o.result.repKey,
	}
	if o.result.failed {
		summary.Failures = 1
	}
	if err := publisher.Publish(summary); err != nil {
		log.WARN("publishing batch summary for %s: %s", o.property, err)
	}
}

func cmdRepro(opts reproOpts) error {
	known := false
	for _, p := range registry() {
		if p.name == opts.Property {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown property %q", opts.Property)
	}

	replies, err := repliesFromKey(opts.RepKey)
	if err != nil {
		return err
	}

	switch opts.Property {
	case "array_roundtrip":
		return reproArray(pc.ArrayDomain("bits", pc.BoolDomain("bit"), 2, 4), replies, opts.Set)
	case "int_roundtrip":
		return reproScalar(pc.IntDomain("bounded_int_small", -3, 5), replies, opts.Set)
	default:
		return fmt.Errorf("property %q has no reproduction/override wiring", opts.Property)
	}
}

// reproArray replays replies through dom's ArrayDomain-shaped script,
// applies any --set overrides to the decoded []interface{} via go-patch,
// and re-derives a fresh pick sequence through the domain's own Pickify so
// the edited value can be replayed again deterministically.
func reproArray(dom *pc.Domain[[]bool], replies []pc.Reply, sets []string) error {
	val, built, ok := pc.Dispatch(dom.Build(), pc.NewPlaybackResponder(replies), pc.DispatchOpts{})
	if !ok {
		return fmt.Errorf("rep_key did not reproduce (filtered)")
	}
	printfStdOut("reproduced value: %v (picks=%d)\n", val, built.Len())

	if len(sets) == 0 {
		return nil
	}

	raw := make([]interface{}, len(val))
	for i, v := range val {
		raw[i] = v
	}

	ops, err := override.ParseSets(sets)
	if err != nil {
		return err
	}
	patched, err := override.Apply(ops, raw)
	if err != nil {
		return err
	}
	patchedList, ok := patched.([]interface{})
	if !ok {
		return fmt.Errorf("override did not produce an array")
	}
	newVal := make([]bool, len(patchedList))
	for i, v := range patchedList {
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("override element %d is not a bool: %v", i, v)
		}
		newVal[i] = b
	}

	newReplies, err := dom.Pickify(newVal)
	if err != nil {
		return fmt.Errorf("re-encoding overridden value: %w", err)
	}
	report, differs, err := diffreport.Compare("original", val, "overridden", newVal)
	if err == nil && differs {
		printfStdOut("%s\n", report)
	}
	printfStdOut("new rep_key: %s\n", repliesToKey(newReplies))
	return nil
}

func repliesToKey(replies []pc.Reply) string {
	parts := make([]string, len(replies))
	for i, r := range replies {
		parts[i] = strconv.Itoa(int(r))
	}
	return strings.Join(parts, ",")
}

// reproScalar replays replies through an IntDomain, printing the value; a
// bare int has no go-patch path structure, so --set overrides are rejected
// for scalar properties (array_roundtrip is the --set-capable demo).
func reproScalar(dom *pc.Domain[int], replies []pc.Reply, sets []string) error {
	val, _, ok := pc.Dispatch(dom.Build(), pc.NewPlaybackResponder(replies), pc.DispatchOpts{})
	if !ok {
		return fmt.Errorf("rep_key did not reproduce (filtered)")
	}
	printfStdOut("reproduced value: %d\n", val)
	if len(sets) > 0 {
		return fmt.Errorf("--set overrides need a structured value; %q is scalar", dom.Name())
	}
	return nil
}
