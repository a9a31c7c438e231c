package cli

import (
	"io"
	"regexp"
	"strings"

	"github.com/spf13/pflag"

	runerrors "github.com/mysticatea/npm-run-all-sub000/internal/errors"
	"github.com/mysticatea/npm-run-all-sub000/internal/model"
)

// packageConfigPattern matches --pkg:key or --pkg:key=value
var packageConfigPattern = regexp.MustCompile(`^--([^:=\s]+):([^=\s]+)(?:=(.*))?$`)

// flagValues holds every option a command line can set
type flagValues struct {
	continueOnError bool
	printLabel      bool
	printName       bool
	race            bool
	maxParallel     int
	aggregateOutput bool
	silent          bool
	npmPath         string
	config          string
	report          string
	junit           string
	summary         bool
	noColor         bool
	verbose         bool
	help            bool
	version         bool
}

// cliArgs is a parsed command line
type cliArgs struct {
	groups        []model.Group
	flags         flagValues
	set           *pflag.FlagSet
	packageConfig map[string]map[string]string
	arguments     []string
}

// changed reports whether the flag was given on the command line
func (a *cliArgs) changed(name string) bool {
	f := a.set.Lookup(name)
	return f != nil && f.Changed
}

// groupSwitch is a flag that starts a new task group where it appears
type groupSwitch struct {
	parallel bool
	start    func(parallel bool)
}

func (g *groupSwitch) Set(string) error {
	g.start(g.parallel)
	return nil
}

func (g *groupSwitch) String() string { return "false" }
func (g *groupSwitch) Type() string   { return "bool" }

// newFlagSet registers the options of command into a fresh FlagSet
func newFlagSet(command string, v *flagValues, start func(parallel bool)) *pflag.FlagSet {
	fs := pflag.NewFlagSet(command, pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.SortFlags = false

	if command == CommandRunAll {
		addGroupSwitch(fs, "parallel", "p", "Run the following tasks in parallel", true, start)
		addGroupSwitch(fs, "sequential", "s", "Run the following tasks sequentially", false, start)
		addGroupSwitch(fs, "serial", "", "Synonym of --sequential", false, start)
	}

	fs.BoolVarP(&v.continueOnError, "continue-on-error", "c", false, "Keep running other tasks after one fails")
	fs.BoolVarP(&v.printLabel, "print-label", "l", false, "Prefix every output line with the task name")
	fs.BoolVarP(&v.printName, "print-name", "n", false, "Print a header before each task")
	if command != CommandRunS {
		fs.BoolVarP(&v.race, "race", "r", false, "Abort the other parallel tasks once one exits with code 0")
		fs.IntVar(&v.maxParallel, "max-parallel", 0, "Maximum number of tasks run at once in parallel groups")
		fs.BoolVar(&v.aggregateOutput, "aggregate-output", false, "Print each parallel task's output when it finishes")
	}
	fs.BoolVar(&v.silent, "silent", false, "Pass --silent to the script runner")
	fs.StringVar(&v.npmPath, "npm-path", "", "Script runner used to run tasks")
	fs.StringVar(&v.config, "config", "", "Path to config file (default: "+configDefaultName+")")
	fs.StringVar(&v.report, "report", "", "Write a JSON run record to this file")
	fs.StringVar(&v.junit, "junit", "", "Write a JUnit XML report to this file")
	fs.BoolVar(&v.summary, "summary", false, "Print a status table after the run")
	fs.BoolVar(&v.noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&v.verbose, "verbose", false, "Verbose logging")
	fs.BoolVarP(&v.help, "help", "h", false, "Show this help")
	fs.BoolVarP(&v.version, "version", "v", false, "Show the version")
	return fs
}

func addGroupSwitch(fs *pflag.FlagSet, name, short, usage string, parallel bool, start func(bool)) {
	f := fs.VarPF(&groupSwitch{parallel: parallel, start: start}, name, short, usage)
	f.NoOptDefVal = "true"
}

// parseArgs turns argv into task groups and options. Group switches (-p, -s)
// keep their position; every other option applies to the whole run.
func parseArgs(command string, argv []string) (*cliArgs, error) {
	a := &cliArgs{packageConfig: make(map[string]map[string]string)}

	before := argv
	for i, arg := range argv {
		if arg == "--" {
			before = argv[:i]
			a.arguments = append([]string{}, argv[i+1:]...)
			break
		}
	}

	before, err := a.extractPackageConfig(before)
	if err != nil {
		return nil, err
	}

	current := &model.Group{Parallel: command == CommandRunP}
	flush := func() {
		if len(current.Patterns) > 0 {
			a.groups = append(a.groups, *current)
		}
	}
	start := func(parallel bool) {
		flush()
		current = &model.Group{Parallel: parallel}
	}
	a.set = newFlagSet(command, &a.flags, start)

	rest := before
	for len(rest) > 0 {
		if isOption(rest[0]) {
			if err := a.set.Parse(rest); err != nil {
				return nil, runerrors.Validationf("Invalid Option: %s", optionError(err))
			}
			rest = a.set.Args()
			continue
		}
		current.Patterns = append(current.Patterns, rest[0])
		rest = rest[1:]
	}
	flush()

	if a.changed("max-parallel") && a.flags.maxParallel < 1 {
		return nil, runerrors.Validationf("Invalid Option: --max-parallel %d (it must be at least 1)", a.flags.maxParallel)
	}
	return a, nil
}

// extractPackageConfig removes --pkg:key=value options from args
func (a *cliArgs) extractPackageConfig(args []string) ([]string, error) {
	var rest []string
	for i := 0; i < len(args); i++ {
		m := packageConfigPattern.FindStringSubmatch(args[i])
		if m == nil {
			rest = append(rest, args[i])
			continue
		}

		pkg, key, value := m[1], m[2], m[3]
		if !strings.Contains(args[i], "=") {
			if i+1 >= len(args) {
				return nil, runerrors.Validationf("Invalid Option: %s requires a value", args[i])
			}
			i++
			value = args[i]
		}
		if a.packageConfig[pkg] == nil {
			a.packageConfig[pkg] = make(map[string]string)
		}
		a.packageConfig[pkg][key] = value
	}
	return rest, nil
}

func isOption(arg string) bool {
	return len(arg) > 1 && arg[0] == '-'
}

// optionError trims pflag's wording down to the offending option
func optionError(err error) string {
	msg := err.Error()
	for _, prefix := range []string{"unknown flag: ", "unknown shorthand flag: "} {
		if rest, ok := strings.CutPrefix(msg, prefix); ok {
			return rest
		}
	}
	return msg
}
