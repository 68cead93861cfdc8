/*
Minnow generates and exercises scanners and parsers from a TOML language
specification.

Usage:

	minnow [flags] COMMAND [ARGS...]

The commands are:

	tokens TEXT
		Scan TEXT and print the resulting tokens.

	tree TEXT
		Scan and parse TEXT and print the parse tree.

	oracle TEXT
		Parse TEXT with the recursive-descent debugging parser instead of
		the generated table and print the tree, for grammar sanity checks.

	table
		Print the generated action/goto table.

	dfa
		Print the generated scanner DFA in graphviz format.

	check
		Run self-checks over the spec: shadowed patterns and table
		conflicts.

	repl
		Start an interactive session reading input lines and printing
		their parse trees.

	optimize [FILE]
		Read a basic block of quadruples from FILE (or stdin) and print
		the optimized block. Does not require a spec file.

The flags are:

	-s, --spec FILE
		The language specification to use. Defaults to "lang.toml" in the
		current directory.

	-l, --live VARS
		For optimize: comma-separated variables whose final values must
		survive. All writes survive when not given.

	-v, --verbose
		Enable debug logging, including a trace of parser actions.

	--version
		Give the current version of minnow and then exit.
*/
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/dekarrin/minnow"
	"github.com/dekarrin/minnow/internal/spec"
	"github.com/dekarrin/minnow/internal/version"
	"github.com/dekarrin/minnow/lex"
	"github.com/dekarrin/minnow/optimize"
	"github.com/dekarrin/minnow/parse"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

const (
	// ExitSuccess indicates a successful program execution.
	ExitSuccess = iota

	// ExitUsageError indicates an unsuccessful program execution due to bad
	// invocation.
	ExitUsageError

	// ExitSpecError indicates an unsuccessful program execution due to a
	// problem generating from the spec.
	ExitSpecError

	// ExitInputError indicates an unsuccessful program execution due to
	// input that does not scan, parse, or optimize.
	ExitInputError
)

var (
	returnCode          = ExitSuccess
	flagSpec    *string = pflag.StringP("spec", "s", "lang.toml", "The language specification file to generate from")
	flagLive    *string = pflag.StringP("live", "l", "", "Comma-separated live variables for optimize")
	flagVerbose *bool   = pflag.BoolP("verbose", "v", false, "Enable debug logging and parser traces")
	flagVersion *bool   = pflag.Bool("version", false, "Give the current version of minnow and exit")
)

func main() {
	defer func() {
		os.Exit(returnCode)
	}()

	pflag.Parse()
	args := pflag.Args()

	if *flagVersion {
		fmt.Printf("minnow %s\n", version.Current)
		return
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	if *flagVerbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if len(args) < 1 {
		log.Error("no command given; see minnow --help")
		returnCode = ExitUsageError
		return
	}
	command := args[0]

	// optimize works on quadruples alone; everything else needs a spec
	if command == "optimize" {
		returnCode = runOptimize(log, args[1:])
		return
	}

	f, err := spec.Load(*flagSpec)
	if err != nil {
		log.Errorf("loading spec: %v", err)
		returnCode = ExitSpecError
		return
	}

	fe, err := buildFrontend(log, f)
	if err != nil {
		log.Errorf("generating from spec: %v", err)
		returnCode = ExitSpecError
		return
	}

	switch command {
	case "tokens":
		returnCode = runTokens(log, fe, strings.Join(args[1:], " "))
	case "tree":
		returnCode = runTree(log, fe, strings.Join(args[1:], " "))
	case "oracle":
		returnCode = runOracle(log, fe, strings.Join(args[1:], " "))
	case "table":
		returnCode = runTable(log, fe)
	case "dfa":
		fmt.Println(fe.Scanner.DFA().DOT())
	case "check":
		returnCode = runCheck(log, fe)
	case "repl":
		returnCode = runRepl(log, fe)
	default:
		log.Errorf("unknown command %q; see minnow --help", command)
		returnCode = ExitUsageError
	}
}

// buildFrontend generates a frontend from the spec file. A spec with no
// grammar gets a scanner-only frontend.
func buildFrontend(log *logrus.Logger, f *spec.File) (*minnow.Frontend, error) {
	algo, err := f.ParserAlgorithm()
	if err != nil {
		return nil, err
	}

	if !f.HasGrammar() {
		log.Debug("spec has no grammar; parser commands will be unavailable")
		sc, err := lex.NewScanner(f.LexPatterns())
		if err != nil {
			return nil, err
		}
		return &minnow.Frontend{Scanner: sc}, nil
	}

	log.Debugf("generating %s frontend from %d patterns and %d rules", algo, len(f.Patterns), len(f.Rules))

	fe, err := minnow.NewFrontend(f.LexPatterns(), f.RuleSpecs(), f.Start, algo)
	if err != nil {
		return nil, err
	}

	for _, conf := range fe.Conflicts {
		log.Warnf("%v", conf)
	}

	if *flagVerbose {
		fe.Parser.RegisterTraceListener(func(s string) {
			log.Debug(s)
		})
	}

	return fe, nil
}

func runTokens(log *logrus.Logger, fe *minnow.Frontend, input string) int {
	tokens, err := fe.Scanner.Tokenize(input)
	if err != nil {
		log.Errorf("%v", err)
		return ExitInputError
	}

	for _, tok := range tokens {
		fmt.Println(tok.String())
	}
	return ExitSuccess
}

func runTree(log *logrus.Logger, fe *minnow.Frontend, input string) int {
	if fe.Parser == nil {
		log.Error("spec has no grammar")
		return ExitUsageError
	}

	tree, err := fe.Analyze(input)
	if err != nil {
		log.Errorf("%v", err)
		return ExitInputError
	}

	fmt.Println(tree.String())
	return ExitSuccess
}

func runOracle(log *logrus.Logger, fe *minnow.Frontend, input string) int {
	if fe.Parser == nil {
		log.Error("spec has no grammar")
		return ExitUsageError
	}

	tree, err := fe.DebugParse(input)
	if err != nil {
		log.Errorf("%v", err)
		return ExitInputError
	}
	if tree == nil {
		log.Error("no derivation found")
		return ExitInputError
	}

	fmt.Println(tree.String())
	return ExitSuccess
}

func runTable(log *logrus.Logger, fe *minnow.Frontend) int {
	if fe.Parser == nil {
		log.Error("spec has no grammar")
		return ExitUsageError
	}
	fmt.Println(fe.Parser.TableString())
	return ExitSuccess
}

func runCheck(log *logrus.Logger, fe *minnow.Frontend) int {
	problems := 0

	for _, err := range fe.Scanner.Check() {
		log.Warnf("scanner: %v", err)
		problems++
	}

	if fe.Parser != nil {
		for _, conf := range fe.Conflicts {
			log.Warnf("parser: %v", conf)
			problems++
		}
	}

	if problems > 0 {
		if fe.Parser != nil && len(fe.Conflicts) > 0 {
			fmt.Println(parse.DescribeConflicts(fe.Conflicts))
		}
		log.Warnf("found %d problem(s)", problems)
		return ExitSpecError
	}

	fmt.Println("no problems found")
	return ExitSuccess
}

func runRepl(log *logrus.Logger, fe *minnow.Frontend) int {
	rl, err := readline.New("minnow> ")
	if err != nil {
		log.Errorf("initializing readline: %v", err)
		return ExitUsageError
	}
	defer rl.Close()

	fmt.Println("enter input to parse; \":tokens INPUT\" to scan only, \":quit\" to exit")

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt || err == io.EOF {
			return ExitSuccess
		} else if err != nil {
			log.Errorf("reading input: %v", err)
			return ExitInputError
		}

		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case line == ":quit" || line == ":q":
			return ExitSuccess
		case strings.HasPrefix(line, ":tokens "):
			runTokens(log, fe, strings.TrimPrefix(line, ":tokens "))
		case strings.HasPrefix(line, ":oracle "):
			runOracle(log, fe, strings.TrimPrefix(line, ":oracle "))
		default:
			if fe.Parser == nil {
				runTokens(log, fe, line)
			} else {
				runTree(log, fe, line)
			}
		}
	}
}

func runOptimize(log *logrus.Logger, args []string) int {
	var input []byte
	var err error

	if len(args) > 0 {
		input, err = os.ReadFile(args[0])
	} else {
		input, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		log.Errorf("reading quadruples: %v", err)
		return ExitInputError
	}

	block, err := optimize.ParseQuadruples(strings.Split(string(input), "\n"))
	if err != nil {
		log.Errorf("%v", err)
		return ExitInputError
	}

	var live map[string]bool
	if *flagLive != "" {
		live = map[string]bool{}
		for _, name := range strings.Split(*flagLive, ",") {
			live[strings.TrimSpace(name)] = true
		}
	}

	optimized := optimize.Optimize(block, live)
	for _, q := range optimized {
		fmt.Println(q.String())
	}

	log.Debugf("%d quadruples in, %d out", len(block), len(optimized))
	return ExitSuccess
}
