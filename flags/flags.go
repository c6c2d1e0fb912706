package flags

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/brandonbloom/spie/exchange"
	"github.com/brandonbloom/spie/input"
	"github.com/brandonbloom/spie/output"
	"github.com/pborman/getopt"
	"github.com/pkg/errors"
)

var reNumber = regexp.MustCompile(`^[0-9.]+$`)

type FlagSet interface {
	Args() []string
	PrintUsage(w io.Writer)
}

// UsageError reports a bad command line.
type UsageError string

func (e *UsageError) Error() string {
	return string(*e)
}

func usageErrorf(format string, args ...interface{}) error {
	u := UsageError(fmt.Sprintf(format, args...))
	return errors.WithStack(&u)
}

type OptionSet struct {
	InputOptions    input.Options
	ExchangeOptions exchange.Options
	OutputOptions   output.Options

	BodyMode exchange.BodyMode
	// RawBody is set by --raw. "--raw @-" sets RawFromStdin instead.
	RawBody      *exchange.RawBody
	RawFromStdin bool

	IgnoreStdin bool
	CheckStatus bool
	Quiet       int
	Debug       bool

	ShowHelp     bool
	ShowVersion  bool
	ShowLicenses bool
}

type terminalInfo struct {
	stdoutIsTerminal bool
}

// Defaults are applied before the command line is parsed.
type Defaults struct {
	Scheme       string
	BaseURL      *url.URL
	MaxRedirects int
}

// Parse parses args, whose first element is the program name. It returns
// the positional arguments.
func Parse(args []string, defaults Defaults, stdoutIsTerminal bool) ([]string, FlagSet, *OptionSet, error) {
	return parse(args, defaults, terminalInfo{
		stdoutIsTerminal: stdoutIsTerminal,
	})
}

func parse(args []string, defaults Defaults, terminal terminalInfo) ([]string, FlagSet, *OptionSet, error) {
	var (
		jsonFlag     bool
		formFlag     bool
		rawFlag      string
		follow       bool
		maxRedirects string
		authFlag     string
		authTypeFlag string
		timeout      = "30s"
		verify       = "yes"
		http1        bool
		ignoreStdin  bool
		ssl          bool
		baseURL      string
		pretty       string
		printFlag    string
		verbose      bool
		quiet        int
		download     bool
		outputFile   string
		overwrite    bool
		checkStatus  bool
		debug        bool
		showVersion  bool
		showLicenses bool
		showHelp     bool
	)

	flagSet := getopt.New()
	flagSet.SetParameters("[METHOD] URL [REQUEST_ITEM [REQUEST_ITEM ...]]")
	flagSet.BoolVarLong(&jsonFlag, "json", 'j', "serialize data items as a JSON object (default)")
	flagSet.BoolVarLong(&formFlag, "form", 'f', "serialize body in application/x-www-form-urlencoded")
	rawOption := flagSet.StringVarLong(&rawFlag, "raw", 0, "send TEXT, @FILE or @- (stdin) as the request body", "TEXT")
	flagSet.BoolVarLong(&follow, "follow", 'F', "follow 30x Location redirects")
	maxRedirectsOption := flagSet.StringVarLong(&maxRedirects, "max-redirects", 0, "maximum number of redirects followed with --follow", "N")
	flagSet.BoolVarLong(&checkStatus, "check-status", 0, "exit with an error status for 3xx, 4xx and 5xx responses")
	authOption := flagSet.StringVarLong(&authFlag, "auth", 'a', "credentials: USER[:PASS] for basic auth, TOKEN for bearer", "USER[:PASS]")
	authTypeOption := flagSet.StringVarLong(&authTypeFlag, "auth-type", 0, "basic (default) or bearer", "TYPE")
	flagSet.StringVarLong(&timeout, "timeout", 0, "seconds (or a duration) to wait for a response", "SEC")
	flagSet.StringVarLong(&verify, "verify", 0, "verify TLS certificates: yes or no", "yes|no")
	flagSet.BoolVarLong(&http1, "http1", 0, "use HTTP/1.1 only")
	flagSet.BoolVarLong(&ignoreStdin, "ignore-stdin", 'I', "do not attempt to read stdin")
	flagSet.BoolVarLong(&ssl, "ssl", 0, "use https:// when the URL has no scheme")
	flagSet.StringVarLong(&baseURL, "base-url", 0, "resolve URLs starting with / against this URL", "URL")
	prettyOption := flagSet.StringVarLong(&pretty, "pretty", 0, "output processing: all, colors, format or none", "STYLE")
	printOption := flagSet.StringVarLong(&printFlag, "print", 'p', "specifies what the output should contain (HBhb)", "WHAT")
	flagSet.BoolVarLong(&verbose, "verbose", 'v', "print the whole request as well as the response")
	flagSet.CounterVarLong(&quiet, "quiet", 'q', "do not print to stdout; repeat to silence warnings too")
	flagSet.BoolVarLong(&download, "download", 'd', "save the response body to a file")
	flagSet.StringVarLong(&outputFile, "output", 'o', "file to save the response body to", "FILE")
	flagSet.BoolVarLong(&overwrite, "overwrite", 0, "overwrite an existing download file")
	flagSet.BoolVarLong(&debug, "debug", 0, "log debugging information to stderr")
	flagSet.BoolVarLong(&showVersion, "version", 0, "print version and exit")
	flagSet.BoolVarLong(&showLicenses, "licenses", 0, "print third-party licenses and exit")
	flagSet.BoolVarLong(&showHelp, "help", 'h', "print this help and exit")

	positional, err := getoptInterspersed(flagSet, args)
	if err != nil {
		return nil, nil, nil, err
	}

	optionSet := &OptionSet{
		IgnoreStdin:  ignoreStdin,
		CheckStatus:  checkStatus,
		Quiet:        quiet,
		Debug:        debug,
		ShowHelp:     showHelp,
		ShowVersion:  showVersion,
		ShowLicenses: showLicenses,
	}

	// Input
	optionSet.InputOptions.DefaultScheme = defaults.Scheme
	if ssl {
		optionSet.InputOptions.DefaultScheme = "https"
	}
	optionSet.InputOptions.BaseURL = defaults.BaseURL
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, nil, nil, usageErrorf("invalid base URL '%s'", baseURL)
		}
		optionSet.InputOptions.BaseURL = u
	}

	// Body
	switch {
	case rawOption.Seen() && (jsonFlag || formFlag):
		return nil, nil, nil, usageErrorf("--raw cannot be combined with --json or --form")
	case jsonFlag && formFlag:
		return nil, nil, nil, usageErrorf("--json and --form cannot be combined")
	case rawOption.Seen():
		optionSet.BodyMode = exchange.RawMode
		if rawFlag == "@-" {
			optionSet.RawFromStdin = true
		} else {
			optionSet.RawBody = parseRawFlag(rawFlag)
		}
	case formFlag:
		optionSet.BodyMode = exchange.FormMode
	default:
		optionSet.BodyMode = exchange.JSONMode
	}

	// Exchange
	exchangeOptions := &optionSet.ExchangeOptions
	exchangeOptions.AcceptJSON = jsonFlag
	d, err := parseDurationOrSeconds(timeout)
	if err != nil {
		return nil, nil, nil, err
	}
	exchangeOptions.Transport.Timeout = d
	if exchangeOptions.Transport.Verify, err = parseVerifyFlag(verify); err != nil {
		return nil, nil, nil, err
	}
	if http1 {
		exchangeOptions.Transport.HTTPVersion = exchange.HTTP1Only
	}
	exchangeOptions.Redirect = exchange.DefaultRedirectOptions()
	exchangeOptions.Redirect.Follow = follow
	if defaults.MaxRedirects > 0 {
		exchangeOptions.Redirect.MaxRedirects = defaults.MaxRedirects
	}
	if maxRedirectsOption.Seen() {
		n, err := strconv.Atoi(maxRedirects)
		if err != nil || n < 0 {
			return nil, nil, nil, usageErrorf("invalid max redirects value '%s'", maxRedirects)
		}
		exchangeOptions.Redirect.MaxRedirects = n
	}
	if err := parseAuthFlags(authOption.Seen(), authFlag, authTypeOption.Seen(), authTypeFlag, &exchangeOptions.Auth); err != nil {
		return nil, nil, nil, err
	}

	// Output
	outputOptions := &optionSet.OutputOptions
	if err := parsePrettyFlag(prettyOption.Seen(), pretty, terminal, outputOptions); err != nil {
		return nil, nil, nil, err
	}
	switch {
	case printOption.Seen():
		if err := parsePrintFlag(printFlag, outputOptions); err != nil {
			return nil, nil, nil, err
		}
	case verbose:
		outputOptions.PrintRequestHeader = true
		outputOptions.PrintRequestBody = true
		outputOptions.PrintResponseHeader = true
		outputOptions.PrintResponseBody = true
	case quiet > 0:
		// Nothing goes to stdout
	case terminal.stdoutIsTerminal:
		outputOptions.PrintResponseHeader = true
		outputOptions.PrintResponseBody = true
	default:
		outputOptions.PrintResponseBody = true
	}
	outputOptions.Download = download
	outputOptions.OutputFile = outputFile
	outputOptions.Overwrite = overwrite
	if download {
		// The body goes to the file
		outputOptions.PrintResponseBody = false
	}

	return positional, flagSet, optionSet, nil
}

// getoptInterspersed parses args with options allowed between positional
// arguments, as in "spie example.com -v". Everything after "--" is
// positional.
func getoptInterspersed(flagSet *getopt.Set, args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, nil
	}
	program := args[0]
	rest := args[1:]

	var tail []string
	for i, arg := range rest {
		if arg == "--" {
			tail = rest[i+1:]
			rest = rest[:i]
			break
		}
	}

	var positional []string
	for {
		if err := flagSet.Getopt(append([]string{program}, rest...), nil); err != nil {
			return nil, usageErrorf("%s", strings.TrimPrefix(err.Error(), program+": "))
		}
		remaining := flagSet.Args()
		if len(remaining) == 0 {
			break
		}
		positional = append(positional, remaining[0])
		rest = remaining[1:]
	}
	return append(positional, tail...), nil
}

func parseRawFlag(raw string) *exchange.RawBody {
	if strings.HasPrefix(raw, "@") && len(raw) > 1 {
		return exchange.FileRawBody(raw[1:])
	}
	return exchange.InlineRawBody(raw)
}

func parsePrettyFlag(seen bool, pretty string, terminal terminalInfo, outputOptions *output.Options) error {
	if !seen {
		outputOptions.EnableFormat = true
		outputOptions.EnableColor = terminal.stdoutIsTerminal
		return nil
	}
	switch pretty {
	case "all":
		outputOptions.EnableFormat = true
		outputOptions.EnableColor = true
	case "colors":
		outputOptions.EnableColor = true
	case "format":
		outputOptions.EnableFormat = true
	case "none":
	default:
		return usageErrorf("invalid --pretty value '%s' (must be all, colors, format or none)", pretty)
	}
	return nil
}

func parsePrintFlag(printFlag string, outputOptions *output.Options) error {
	for _, c := range printFlag {
		switch c {
		case 'H':
			outputOptions.PrintRequestHeader = true
		case 'B':
			outputOptions.PrintRequestBody = true
		case 'h':
			outputOptions.PrintResponseHeader = true
		case 'b':
			outputOptions.PrintResponseBody = true
		default:
			return usageErrorf("invalid char in --print value (must be consist of HBhb): %c", c)
		}
	}
	return nil
}

func parseDurationOrSeconds(timeout string) (time.Duration, error) {
	value := timeout
	if reNumber.MatchString(value) {
		value += "s"
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return time.Duration(0), usageErrorf("invalid timeout value '%s'", timeout)
	}
	return d, nil
}

func parseVerifyFlag(verify string) (exchange.Verification, error) {
	switch strings.ToLower(verify) {
	case "true", "yes", "1":
		return exchange.VerifyEnforced, nil
	case "false", "no", "0":
		return exchange.VerifyDisabled, nil
	default:
		return exchange.VerifyEnforced, usageErrorf("invalid verify value '%s'", verify)
	}
}

func parseAuthFlags(authSeen bool, auth string, authTypeSeen bool, authType string, options *exchange.AuthOptions) error {
	if authTypeSeen {
		t, err := exchange.ParseAuthType(authType)
		if err != nil {
			return usageErrorf("%s", err.Error())
		}
		options.Type = t
	}
	if !authSeen {
		if authTypeSeen {
			return usageErrorf("--auth-type requires --auth")
		}
		return nil
	}

	options.Enabled = true
	if options.Type == exchange.BearerAuth {
		options.UserName = auth
		return nil
	}
	if i := strings.Index(auth, ":"); i >= 0 {
		options.UserName = auth[:i]
		options.Password = auth[i+1:]
		options.HasPassword = true
	} else {
		options.UserName = auth
	}
	return nil
}
