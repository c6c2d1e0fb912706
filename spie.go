package spie

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/brandonbloom/spie/config"
	"github.com/brandonbloom/spie/exchange"
	"github.com/brandonbloom/spie/flags"
	"github.com/brandonbloom/spie/input"
	"github.com/brandonbloom/spie/logging"
	"github.com/brandonbloom/spie/output"
	"github.com/brandonbloom/spie/version"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
)

// Options distinguish the binaries built from this package.
type Options struct {
	// DefaultScheme is used for URLs given without a scheme. Defaults to
	// "http".
	DefaultScheme string
}

// Context is everything a run touches outside of its arguments.
type Context struct {
	Stdout           io.Writer
	Stderr           io.Writer
	StdoutIsTerminal bool
	Stdin            input.StdinSource
	// Transport sends the hops. Defaults to an exchange.HTTPTransport.
	Transport   exchange.Transport
	Getenv      func(string) string
	AskPassword flags.PasswordPrompter
}

// DefaultContext connects a run to the process.
func DefaultContext() *Context {
	return &Context{
		Stdout:           os.Stdout,
		Stderr:           os.Stderr,
		StdoutIsTerminal: isatty.IsTerminal(os.Stdout.Fd()),
		Stdin:            NewStdin(os.Stdin),
		Getenv:           os.Getenv,
		AskPassword:      flags.AskPassword,
	}
}

func Main(options *Options) int {
	return Run(os.Args, DefaultContext(), options)
}

// Run executes the command line args and returns the exit code.
func Run(args []string, c *Context, options *Options) int {
	r := &runner{ctx: c, options: options}
	code, err := r.run(context.Background(), args)
	if err != nil {
		var message string
		code, message = classifyError(err)
		fmt.Fprintln(c.Stderr, message)
	}
	return code
}

type runner struct {
	ctx     *Context
	options *Options
	logger  *slog.Logger
	quiet   int
}

func (r *runner) defaultScheme() string {
	if r.options != nil && r.options.DefaultScheme != "" {
		return r.options.DefaultScheme
	}
	return "http"
}

func (r *runner) run(ctx context.Context, args []string) (int, error) {
	getenv := r.ctx.Getenv
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	cfg, err := config.Load(config.Dir(getenv))
	if err != nil {
		return ExitUsage, err
	}

	if len(args) == 0 {
		args = []string{"spie"}
	}
	argv := append([]string{args[0]}, cfg.DefaultOptions...)
	argv = append(argv, args[1:]...)

	defaults := flags.Defaults{
		Scheme:       r.defaultScheme(),
		BaseURL:      cfg.ParsedBaseURL(),
		MaxRedirects: cfg.MaxRedirects,
	}
	if cfg.DefaultScheme != "" {
		defaults.Scheme = cfg.DefaultScheme
	}
	positional, flagSet, optionSet, err := flags.Parse(argv, defaults, r.ctx.StdoutIsTerminal)
	if err != nil {
		return ExitUsage, err
	}

	switch {
	case optionSet.ShowVersion:
		fmt.Fprintf(r.ctx.Stdout, "spie %s\n", version.Current())
		return ExitSuccess, nil
	case optionSet.ShowLicenses:
		version.PrintLicenses(r.ctx.Stdout)
		return ExitSuccess, nil
	case optionSet.ShowHelp || len(positional) == 0:
		flagSet.PrintUsage(r.ctx.Stdout)
		return ExitSuccess, nil
	}

	var closeLog func() error
	r.quiet = optionSet.Quiet
	r.logger, closeLog = logging.New(logging.Options{
		Debug:  optionSet.Debug,
		Stderr: r.ctx.Stderr,
		File:   cfg.LogFile,
	})
	defer closeLog()

	return r.send(ctx, positional, optionSet)
}

func (r *runner) send(ctx context.Context, positional []string, optionSet *flags.OptionSet) (int, error) {
	req, err := input.ParseArgs(positional, &optionSet.InputOptions)
	if err != nil {
		return ExitUsage, err
	}
	r.logger.Debug("parsed request",
		"method", req.Method,
		"url", req.URL.String(),
		"headers", len(req.Items.Headers),
		"data", len(req.Items.Data),
		"files", len(req.Items.Files))

	var stdin input.StdinSource
	if !optionSet.IgnoreStdin && r.ctx.Stdin != nil {
		stdin = &onceStdin{src: r.ctx.Stdin}
	}

	stdinItems := req.UsesStdin()
	req, err = input.ExpandStdin(req, stdin)
	if err != nil {
		return ExitUsage, err
	}
	mode, raw, err := r.resolveBody(req, optionSet, stdin, stdinItems)
	if err != nil {
		return ExitUsage, err
	}
	if mode == exchange.RawMode && !req.ExplicitMethod {
		inferred := *req
		inferred.Method = "POST"
		req = &inferred
	}

	p, err := exchange.BuildPayload(req, mode, raw)
	if err != nil {
		return ExitUsage, err
	}

	exchangeOptions := optionSet.ExchangeOptions
	if err := r.authorize(&exchangeOptions, req, optionSet, stdin); err != nil {
		return ExitUsage, err
	}
	if exchangeOptions.Auth.Enabled {
		p = exchange.ApplyAuthorization(p, exchange.AuthorizationValue(exchangeOptions.Auth))
	}
	if exchangeOptions.AcceptJSON {
		p = exchange.ApplyAcceptJSON(p)
	}
	r.logger.Debug("built payload", "method", p.Request.Method, "body_mode", p.BodyMode.String())

	transport := r.ctx.Transport
	if transport == nil {
		httpTransport := exchange.NewHTTPTransport(r.logger)
		defer httpTransport.CloseIdleConnections()
		transport = httpTransport
	}
	result, sendErr := exchange.Exchange(ctx, transport, p, exchangeOptions.Transport, exchangeOptions.Redirect)
	r.logger.Debug("exchange done", "summary", exchange.RedirectSummary(result), "error", sendErr)

	if err := r.print(ctx, result, optionSet); err != nil {
		return ExitError, err
	}
	if sendErr != nil {
		return ExitError, sendErr
	}

	final := result.Final()
	if optionSet.OutputOptions.Download {
		if err := r.download(result, optionSet); err != nil {
			return ExitError, err
		}
	}
	if optionSet.CheckStatus {
		if code := statusExitCode(final.Status); code != ExitSuccess {
			r.warn("warning: HTTP %d %s", final.Status, final.Reason)
			return code, nil
		}
	}
	return ExitSuccess, nil
}

// resolveBody decides the body mode. Piped stdin becomes the raw body
// when no item describes a body and no item already read it.
func (r *runner) resolveBody(req *input.ParsedRequest, optionSet *flags.OptionSet, stdin input.StdinSource, stdinItems bool) (exchange.BodyMode, *exchange.RawBody, error) {
	if optionSet.RawFromStdin {
		if stdin == nil {
			return exchange.RawMode, nil, flagsUsageError("--raw @- cannot read stdin when --ignore-stdin is set")
		}
		b, err := stdin.ReadAll()
		if err != nil {
			return exchange.RawMode, nil, err
		}
		return exchange.RawMode, exchange.DataRawBody(b), nil
	}
	if optionSet.BodyMode == exchange.RawMode {
		return exchange.RawMode, optionSet.RawBody, nil
	}

	if stdin == nil || stdin.IsInteractive() || stdinItems ||
		len(req.Items.Data) > 0 || len(req.Items.Files) > 0 {
		return optionSet.BodyMode, nil, nil
	}
	b, err := stdin.ReadAll()
	if err != nil {
		return optionSet.BodyMode, nil, err
	}
	if len(b) == 0 {
		return optionSet.BodyMode, nil, nil
	}
	r.logger.Debug("using stdin as request body", "bytes", len(b))
	return exchange.RawMode, exchange.DataRawBody(b), nil
}

func flagsUsageError(message string) error {
	u := flags.UsageError(message)
	return errors.WithStack(&u)
}

// authorize completes the credentials: the password of "-a user" is
// asked for, and credentials embedded in the URL are used when -a is not
// given.
func (r *runner) authorize(options *exchange.Options, req *input.ParsedRequest, optionSet *flags.OptionSet, stdin input.StdinSource) error {
	if !options.Auth.Enabled {
		if user := req.URL.User; user != nil {
			password, _ := user.Password()
			options.Auth = exchange.AuthOptions{
				Enabled:     true,
				Type:        exchange.BasicAuth,
				UserName:    user.Username(),
				Password:    password,
				HasPassword: true,
			}
		}
		return nil
	}

	interactive := stdin != nil && stdin.IsInteractive()
	prompt := r.ctx.AskPassword
	if prompt == nil {
		prompt = flags.AskPassword
	}
	return flags.CompleteAuth(&options.Auth, optionSet.IgnoreStdin, interactive, prompt)
}

func (r *runner) print(ctx context.Context, result *exchange.Result, optionSet *flags.OptionSet) error {
	outputOptions := optionSet.OutputOptions
	out := r.ctx.Stdout
	terminal := r.ctx.StdoutIsTerminal
	if outputOptions.OutputFile != "" && !outputOptions.Download {
		file, err := os.Create(outputOptions.OutputFile)
		if err != nil {
			return errors.Wrapf(err, "creating %s", outputOptions.OutputFile)
		}
		defer file.Close()
		out, terminal = file, false
		outputOptions = outputOptions.ForFile()
	}

	writer := bufio.NewWriter(out)
	defer writer.Flush()
	w := output.NewWriter(writer, &outputOptions, terminal)
	if err := w.WriteExchange(ctx, result, optionSet.ExchangeOptions.Transport); err != nil {
		return err
	}
	return errors.Wrap(writer.Flush(), "flushing output")
}

func (r *runner) download(result *exchange.Result, optionSet *flags.OptionSet) error {
	final := result.Final()
	if final.Status < 200 || final.Status >= 300 {
		r.warn("warning: not downloading the body of HTTP %d %s", final.Status, final.Reason)
		return nil
	}
	u, err := result.Requests[len(result.Responses)-1].Request.URL()
	if err != nil {
		return err
	}
	report, err := output.NewFileWriter(u, &optionSet.OutputOptions).Download(final.Body.Bytes())
	if err != nil {
		return err
	}
	r.warn("%s", report)
	return nil
}

// warn prints to stderr unless -qq is given.
func (r *runner) warn(format string, args ...interface{}) {
	if r.quiet >= 2 {
		return
	}
	fmt.Fprintf(r.ctx.Stderr, format+"\n", args...)
}
