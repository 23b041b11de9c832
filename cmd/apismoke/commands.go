package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-apismoke"
	"github.com/goliatone/go-apismoke/internal/loader"
	"github.com/goliatone/go-apismoke/internal/scaffold"
	"github.com/goliatone/go-apismoke/internal/testapp"
	"github.com/goliatone/go-apismoke/pkg/schema"
	"github.com/goliatone/go-apismoke/pkg/validation"
)

// headerFlags collects repeated "Key: Value" flags.
type headerFlags http.Header

func (h headerFlags) String() string {
	parts := make([]string, 0, len(h))
	for key, values := range h {
		for _, value := range values {
			parts = append(parts, key+": "+value)
		}
	}
	return strings.Join(parts, ", ")
}

func (h headerFlags) Set(raw string) error {
	key, value, ok := strings.Cut(raw, ":")
	if !ok || strings.TrimSpace(key) == "" {
		return fmt.Errorf("header %q must look like \"Key: Value\"", raw)
	}
	http.Header(h).Add(strings.TrimSpace(key), strings.TrimSpace(value))
	return nil
}

type shapeFlags struct {
	array      bool
	paginated  bool
	resultsKey string
}

func (s *shapeFlags) register(e *env, fs *flag.FlagSet) {
	fs.BoolVar(&s.array, "array", false, "the payload is a list of objects")
	fs.BoolVar(&s.paginated, "paginated", false, "the payload is a page envelope around a list of objects")
	fs.StringVar(&s.resultsKey, "results-key", e.cfg.ResultsKey, "page key holding the objects")
}

func (s shapeFlags) strict(c schema.Compact) schema.Schema {
	switch {
	case s.paginated:
		return schema.PageSchema(schema.Pagination(), s.resultsKey, schema.ArrayOf(c))
	case s.array:
		return schema.ArrayOf(c)
	default:
		return schema.ObjectSchema(c)
	}
}

func (s shapeFlags) loose(c schema.Compact) schema.Schema {
	field := schema.Object(c)
	switch {
	case s.paginated:
		field = schema.Object(schema.Pagination().With(s.resultsKey, schema.Array(field)))
	case s.array:
		field = schema.Array(field)
	}
	return schema.Build(field, schema.Loose())
}

func loaderOptions(e *env) []schema.LoaderOption {
	opts := []schema.LoaderOption{schema.WithHTTPFallback(e.cfg.Timeout)}
	for key, value := range e.cfg.Headers {
		opts = append(opts, schema.WithRequestHeader(key, value))
	}
	return opts
}

func loadCompact(ctx context.Context, e *env, location string) (schema.Compact, error) {
	if strings.TrimSpace(location) == "" {
		return nil, errors.New("-schema is required")
	}
	src, err := schema.ParseSource(location)
	if err != nil {
		return nil, err
	}
	return apismoke.LoadCompact(ctx, src, loaderOptions(e)...)
}

func writeJSON(w io.Writer, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func runExpand(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "expand")
	schemaPath := fs.String("schema", "", "compact schema: file path, fs:name or URL")
	loose := fs.Bool("loose", false, "emit the schema as declared, without strict rules")
	var shape shapeFlags
	shape.register(e, fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	compact, err := loadCompact(ctx, e, *schemaPath)
	if err != nil {
		return err
	}
	if *loose {
		return writeJSON(e.stdout, shape.loose(compact))
	}
	return writeJSON(e.stdout, shape.strict(compact))
}

func runCheck(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "check")
	schemaPath := fs.String("schema", "", "compact schema: file path, fs:name or URL")
	openapiPath := fs.String("openapi", "", "OpenAPI document to take the response schema from")
	operation := fs.String("operation", "", "operationId used with -openapi")
	status := fs.Int("status", 0, "expected status code; with -openapi also selects the response")
	payloadPath := fs.String("payload", "", "payload file, - for stdin")
	target := fs.String("url", "", "fetch the payload with GET; relative to base_url when configured")
	asJSON := fs.Bool("json", false, "print the result as JSON")
	headers := headerFlags{}
	fs.Var(headers, "H", "request header \"Key: Value\" (repeatable)")
	var shape shapeFlags
	shape.register(e, fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if (*payloadPath == "") == (*target == "") {
		return errors.New("exactly one of -payload or -url is required")
	}
	if (*schemaPath == "") == (*openapiPath == "") {
		return errors.New("exactly one of -schema or -openapi is required")
	}

	var (
		payload []byte
		code    = *status
		err     error
	)
	if *target != "" {
		var got int
		got, payload, err = fetch(ctx, e, *target, http.Header(headers))
		if err != nil {
			return err
		}
		if *status != 0 && got != *status {
			fmt.Fprintf(e.stdout, "invalid: expected status %d, got %d\n", *status, got)
			return errInvalid
		}
		code = got
	} else {
		if payload, err = readInput(e, *payloadPath); err != nil {
			return err
		}
	}
	if code == 0 {
		code = http.StatusOK
	}

	var s schema.Schema
	if *openapiPath != "" {
		if *operation == "" {
			return errors.New("-operation is required with -openapi")
		}
		src, err := schema.ParseSource(*openapiPath)
		if err != nil {
			return err
		}
		contracts, err := apismoke.LoadContracts(ctx, src, loaderOptions(e)...)
		if err != nil {
			return err
		}
		if s, err = contracts.ResponseSchema(*operation, code, true); err != nil {
			return err
		}
	} else {
		compact, err := loadCompact(ctx, e, *schemaPath)
		if err != nil {
			return err
		}
		s = shape.strict(compact)
	}

	result := validation.New().Check(s, payload)
	e.logger.Debug().Bool("valid", result.Valid).Int("issues", len(result.Issues)).Msg("check finished")
	if *asJSON {
		if err := writeJSON(e.stdout, result); err != nil {
			return err
		}
	} else {
		printResult(e.stdout, result)
	}
	if !result.Valid {
		return errInvalid
	}
	return nil
}

func printResult(w io.Writer, result validation.Result) {
	if result.Valid {
		fmt.Fprintln(w, "ok")
		return
	}
	fmt.Fprintf(w, "invalid: %d issue(s)\n", len(result.Issues))
	for _, issue := range result.Issues {
		field := issue.Field
		if field == "" {
			field = "(root)"
		}
		fmt.Fprintf(w, "  %s: %s\n", field, issue.Message)
	}
}

func fetch(ctx context.Context, e *env, target string, headers http.Header) (int, []byte, error) {
	location := e.cfg.resolveURL(target)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for key, value := range e.cfg.Headers {
		req.Header.Set(key, value)
	}
	for key, values := range headers {
		req.Header[key] = append([]string(nil), values...)
	}

	start := time.Now()
	resp, err := (&http.Client{Timeout: e.cfg.Timeout}).Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("GET %s: %w", location, err)
	}
	defer resp.Body.Close()

	data, err := loader.ReadLimited(resp.Body, loader.MaxDocumentSize)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	e.logger.Debug().
		Str("url", location).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("fetched payload")
	return resp.StatusCode, data, nil
}

func runScaffold(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "scaffold")
	payloadPath := fs.String("payload", "", "sample response file, - for stdin")
	target := fs.String("url", "", "fetch the sample with GET")
	interactive := fs.Bool("interactive", false, "ask about nullability and string formats")
	resultsKey := fs.String("results-key", e.cfg.ResultsKey, "page key holding the objects")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if (*payloadPath == "") == (*target == "") {
		return errors.New("exactly one of -payload or -url is required")
	}

	var (
		data   []byte
		err    error
		source = *payloadPath
	)
	if *target != "" {
		source = *target
		var code int
		if code, data, err = fetch(ctx, e, *target, nil); err != nil {
			return err
		}
		if code < 200 || code > 299 {
			return fmt.Errorf("GET %s: unexpected status %d", *target, code)
		}
	} else if data, err = readInput(e, *payloadPath); err != nil {
		return err
	}

	sample, err := decodeSample(source, data)
	if err != nil {
		return err
	}
	opts := scaffold.Options{ResultsKey: *resultsKey}
	if *interactive {
		opts.Driver = scaffold.NewSurveyDriver()
	}
	result, err := scaffold.Scaffold(ctx, sample, opts)
	if err != nil {
		return err
	}

	out, err := schema.FormatCompact(result.Compact)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "# Inferred from %s (%s).\n%s", source, result.Shape, out)
	return nil
}

// decodeSample reads a JSON sample, or a YAML one re-encoded as JSON so
// numbers decode the same way.
func decodeSample(source string, data []byte) (any, error) {
	src, err := schema.ParseSource(source)
	if err != nil {
		return nil, err
	}
	doc, err := schema.NewDocument(src, data)
	if err != nil {
		return nil, err
	}
	if doc.IsJSON() {
		return validation.Decode(doc.Raw())
	}
	var sample any
	if err := yaml.Unmarshal(doc.Raw(), &sample); err != nil {
		return nil, fmt.Errorf("%s: parse sample: %w", source, err)
	}
	encoded, err := json.Marshal(sample)
	if err != nil {
		return nil, fmt.Errorf("%s: encode sample: %w", source, err)
	}
	return validation.Decode(encoded)
}

func runDemo(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "demo")
	addr := fs.String("addr", "127.0.0.1:8000", "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler, db, err := testapp.NewDemo(ctx, e.logger)
	if err != nil {
		return err
	}
	defer db.Close()

	srv := &http.Server{
		Addr:              *addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	e.logger.Info().Str("addr", *addr).Msg("serving sample API under /api (token: ada-token)")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
