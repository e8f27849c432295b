// Command hdlcheckerd drives one internal/engine.Engine per invocation.
// It does not speak LSP or HTTP itself (spec §1 scopes the transport
// layer out of this core); --lsp only picks which thin framing this
// process reads requests with off stdin and writes responses to on
// stdout (--host/--port are only logged, --attach-to-pid stops serving
// once the editor is gone), exactly as spec §6's "transports are
// expected to marshal requests into those calls" describes. Grounded on
// the teacher's cmd/vhdl-lint/main.go command set (init/-v/-c/-h),
// rebuilt on top of the pack's github.com/urfave/cli/v2 framework per
// standardbeagle-lci's cmd/lci/main.go.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hdl-checker/hdl-checker/internal/diag"
	"github.com/hdl-checker/hdl-checker/internal/engine"
	"github.com/hdl-checker/hdl-checker/internal/hdllog"
)

const appVersion = "0.1.0"

func main() {
	app := &cli.App{
		Name:    "hdlcheckerd",
		Usage:   "VHDL/Verilog/SystemVerilog language-server core",
		Version: appVersion,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "HTTP mode bind host (stored, no HTTP server started — see §1 non-goals)"},
			&cli.IntFlag{Name: "port", Usage: "HTTP mode bind port"},
			&cli.BoolFlag{Name: "lsp", Usage: "frame stdin/stdout requests as LSP Content-Length messages instead of newline-delimited JSON"},
			&cli.IntFlag{Name: "attach-to-pid", Usage: "stop serving once the editor process with this pid is gone"},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "debug, info, warn, or error"},
			&cli.StringFlag{Name: "log-stream", Usage: "file to write logs to instead of stderr"},
			&cli.StringFlag{Name: "stdout", Usage: "file to redirect stdout to"},
			&cli.StringFlag{Name: "stderr", Usage: "file to redirect stderr to"},
			&cli.StringFlag{Name: "config", Value: "hdl_checker.json", Usage: "project configuration path"},
		},
		Action: runServe,
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "write a default hdl_checker.json in the current directory",
				Action: runInit,
			},
			{
				Name:      "check",
				Usage:     "configure the engine and print diagnostics for one file",
				ArgsUsage: "<path>",
				Action:    runCheck,
			},
			{
				Name:      "watch",
				Usage:     "configure the engine, then recheck every known file on each filesystem change",
				ArgsUsage: "",
				Action:    runWatch,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "hdlcheckerd:", err)
		os.Exit(1)
	}
}

func setupLogger(c *cli.Context) (*hdllog.Logger, func(), error) {
	level := hdllog.ParseLevel(c.String("log-level"))
	w := os.Stderr
	var closers []func()
	if stream := c.String("log-stream"); stream != "" {
		f, err := os.OpenFile(stream, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open --log-stream %s: %w", stream, err)
		}
		closers = append(closers, func() { f.Close() })
		return hdllog.New(f, level), combine(closers), nil
	}
	return hdllog.New(w, level), combine(closers), nil
}

func combine(closers []func()) func() {
	return func() {
		for _, c := range closers {
			c()
		}
	}
}

func redirectStreams(c *cli.Context) (func(), error) {
	var closers []func()
	if path := c.String("stdout"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open --stdout %s: %w", path, err)
		}
		os.Stdout = f
		closers = append(closers, func() { f.Close() })
	}
	if path := c.String("stderr"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open --stderr %s: %w", path, err)
		}
		os.Stderr = f
		closers = append(closers, func() { f.Close() })
	}
	return combine(closers), nil
}

func runInit(c *cli.Context) error {
	path := "hdl_checker.json"
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("%s already exists, leaving it alone\n", path)
		return nil
	}
	const template = `{
  "sources": [],
  "include": [],
  "vhdl": {"flags": {"single": [], "dependencies": [], "global": []}},
  "verilog": {"flags": {"single": [], "dependencies": [], "global": []}},
  "systemverilog": {"flags": {"single": [], "dependencies": [], "global": []}}
}
`
	if err := os.WriteFile(path, []byte(template), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func runCheck(c *cli.Context) error {
	if c.Args().Len() < 1 {
		return fmt.Errorf("usage: hdlcheckerd check <path>")
	}
	log, closeLog, err := setupLogger(c)
	if err != nil {
		return err
	}
	defer closeLog()

	target := c.Args().First()
	root, err := os.Getwd()
	if err != nil {
		return err
	}
	e := engine.New(root, log)
	ctx := context.Background()
	if err := e.Configure(ctx, c.String("config")); err != nil {
		return err
	}
	defer e.Shutdown()

	diags, err := e.GetDiagnostics(ctx, target)
	if err != nil {
		return err
	}
	return printDiagnostics(diags)
}

func runWatch(c *cli.Context) error {
	log, closeLog, err := setupLogger(c)
	if err != nil {
		return err
	}
	defer closeLog()

	root, err := os.Getwd()
	if err != nil {
		return err
	}
	e := engine.New(root, log)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := e.Configure(ctx, c.String("config")); err != nil {
		return err
	}
	defer e.Shutdown()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		cancel()
	}()

	recheck := func() {
		for _, p := range e.Paths() {
			diags, err := e.GetDiagnostics(ctx, p)
			if err != nil {
				log.Errorf("recheck %s: %v", p, err)
				continue
			}
			if err := printDiagnostics(diags); err != nil {
				log.Errorf("print diagnostics for %s: %v", p, err)
			}
		}
	}

	recheck()
	return e.Watch(ctx, recheck)
}

// serveRequest is the thin JSON-lines wire request spec §1 assigns to
// whichever transport sits in front of this core.
type serveRequest struct {
	ID   int    `json:"id"`
	Op   string `json:"op"`
	Path string `json:"path"`
	Line int    `json:"line,omitempty"`
	Col  int    `json:"col,omitempty"`
}

type serveResponse struct {
	ID          int               `json:"id"`
	Diagnostics []wireDiagnostic  `json:"diagnostics,omitempty"`
	Locations   []engine.Location `json:"locations,omitempty"`
	Hover       string            `json:"hover,omitempty"`
	Error       string            `json:"error,omitempty"`
}

func runServe(c *cli.Context) error {
	closeStreams, err := redirectStreams(c)
	if err != nil {
		return err
	}
	defer closeStreams()

	log, closeLog, err := setupLogger(c)
	if err != nil {
		return err
	}
	defer closeLog()

	log.Infof("starting: lsp=%v host=%q port=%d attach-to-pid=%d", c.Bool("lsp"), c.String("host"), c.Int("port"), c.Int("attach-to-pid"))

	root, err := os.Getwd()
	if err != nil {
		return err
	}
	e := engine.New(root, log)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if pid := c.Int("attach-to-pid"); pid != 0 {
		go watchAttachedPID(ctx, pid, cancel, log)
	}

	if err := e.Configure(ctx, c.String("config")); err != nil {
		return err
	}
	defer e.Shutdown()

	if c.Bool("lsp") {
		return serveLSPFraming(ctx, e, log)
	}
	return serveJSONLines(ctx, e, log)
}

// serveJSONLines reads one serveRequest per line from stdin and writes
// one serveResponse per line to stdout, until stdin closes or ctx is
// canceled (spec §1: "transports are expected to marshal requests into
// those calls").
func serveJSONLines(ctx context.Context, e *engine.Engine, log *hdllog.Logger) error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	enc := json.NewEncoder(os.Stdout)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var req serveRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Warnf("malformed request: %v", err)
			continue
		}
		resp := dispatch(ctx, e, req)
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
	return scanner.Err()
}

// serveLSPFraming reads Content-Length-framed JSON bodies carrying the
// same serveRequest payload, writing Content-Length-framed responses
// back — the minimal LSP transport framing, with no method routing or
// capability negotiation (out of scope per spec §1).
func serveLSPFraming(ctx context.Context, e *engine.Engine, log *hdllog.Logger) error {
	r := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		length, err := readContentLength(r)
		if err != nil {
			return nil
		}
		body := make([]byte, length)
		if _, err := readFull(r, body); err != nil {
			return fmt.Errorf("read LSP body: %w", err)
		}
		var req serveRequest
		if err := json.Unmarshal(body, &req); err != nil {
			log.Warnf("malformed LSP body: %v", err)
			continue
		}
		resp := dispatch(ctx, e, req)
		out, err := json.Marshal(resp)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Content-Length: %d\r\n\r\n%s", len(out), out)
	}
}

func readContentLength(r *bufio.Reader) (int, error) {
	length := -1
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return 0, err
		}
		line = trimCRLF(line)
		if line == "" {
			break
		}
		if n, ok := parseContentLengthHeader(line); ok {
			length = n
		}
	}
	if length < 0 {
		return 0, fmt.Errorf("missing Content-Length header")
	}
	return length, nil
}

func parseContentLengthHeader(line string) (int, bool) {
	const prefix = "Content-Length:"
	if len(line) <= len(prefix) || line[:len(prefix)] != prefix {
		return 0, false
	}
	n, err := strconv.Atoi(trimLeadingSpace(line[len(prefix):]))
	if err != nil {
		return 0, false
	}
	return n, true
}

func trimLeadingSpace(s string) string {
	for len(s) > 0 && (s[0] == ' ' || s[0] == '\t') {
		s = s[1:]
	}
	return s
}

func trimCRLF(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func dispatch(ctx context.Context, e *engine.Engine, req serveRequest) serveResponse {
	switch req.Op {
	case "diagnostics":
		diags, err := e.GetDiagnostics(ctx, req.Path)
		if err != nil {
			return serveResponse{ID: req.ID, Error: err.Error()}
		}
		return serveResponse{ID: req.ID, Diagnostics: toWireDiagnostics(diags)}
	case "definition":
		locs, err := e.GetDefinition(req.Path, req.Line, req.Col)
		if err != nil {
			return serveResponse{ID: req.ID, Error: err.Error()}
		}
		return serveResponse{ID: req.ID, Locations: locs}
	case "hover":
		hover, err := e.GetHover(req.Path, req.Line, req.Col)
		if err != nil {
			return serveResponse{ID: req.ID, Error: err.Error()}
		}
		return serveResponse{ID: req.ID, Hover: hover}
	default:
		return serveResponse{ID: req.ID, Error: fmt.Sprintf("unknown op %q", req.Op)}
	}
}

// pidPollInterval bounds how quickly hdlcheckerd notices its attached
// editor process has exited.
const pidPollInterval = 2 * time.Second

// watchAttachedPID cancels ctx once the editor at pid is gone; the serve
// loop returns when it next sees the canceled context. This is the
// --attach-to-pid liveness contract editors rely on so an orphaned core
// doesn't outlive the client that spawned it.
func watchAttachedPID(ctx context.Context, pid int, cancel context.CancelFunc, log *hdllog.Logger) {
	ticker := time.NewTicker(pidPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !pidAlive(pid) {
				log.Infof("attached pid %d is gone, shutting down", pid)
				cancel()
				return
			}
		}
	}
}

func pidAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// wireDiagnostic mirrors diag.Diagnostic with Severity rendered as its
// string name, since diag.Severity has no MarshalJSON of its own (spec
// §4.6's diagnostic type is an internal value, not a wire one).
type wireDiagnostic struct {
	Path     string `json:"path"`
	Line     int    `json:"line"`
	Col      int    `json:"col"`
	Severity string `json:"severity"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message"`
}

func toWireDiagnostics(diags []diag.Diagnostic) []wireDiagnostic {
	out := make([]wireDiagnostic, len(diags))
	for i, d := range diags {
		out[i] = wireDiagnostic{Path: d.Path, Line: d.Line, Col: d.Col, Severity: d.Severity.String(), Code: d.Code, Message: d.Message}
	}
	return out
}

func printDiagnostics(diags []diag.Diagnostic) error {
	enc := json.NewEncoder(os.Stdout)
	for _, d := range toWireDiagnostics(diags) {
		if err := enc.Encode(d); err != nil {
			return err
		}
	}
	return nil
}

