// Command hashtree builds hash trees over command-line or file inputs,
// and generates and checks inclusion proofs against them.
package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gordian-engine/hashtree"
	"github.com/gordian-engine/hashtree/hthash"
	"github.com/gordian-engine/hashtree/internal/dtrace"
	"github.com/gordian-engine/hashtree/internal/htconfig"
	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cliApp holds the state resolved from global flags
// before any command runs.
type cliApp struct {
	cfg htconfig.Config

	leafHasher hthash.Hasher
	buildCfg   hashtree.BuildConfig

	log *slog.Logger

	// Only set with --trace; nil otherwise.
	tp     *sdktrace.TracerProvider
	tracer dtrace.Tracer
}

func newApp(out, errOut io.Writer) *cli.App {
	app := new(cliApp)
	return &cli.App{
		Name:      "hashtree",
		Usage:     "build hash trees and check inclusion proofs",
		Writer:    out,
		ErrWriter: errOut,
		Flags:     globalFlags(),
		Before:    app.initCfg,
		After:     app.shutdownTracing,
		Commands:  app.commands(),
	}
}

func (app *cliApp) initCfg(c *cli.Context) error {
	cfg := htconfig.Default()
	if path := c.String(flagConfig); path != "" {
		var err error
		cfg, err = htconfig.Load(path)
		if err != nil {
			return err
		}
	}

	if c.IsSet(flagHash) {
		cfg.Hash = c.String(flagHash)
	}
	if c.IsSet(flagLeafHash) {
		cfg.LeafHash = c.String(flagLeafHash)
	}
	if c.IsSet(flagOdd) {
		cfg.OddNodes = c.String(flagOdd)
	}
	if c.IsSet(flagSorted) {
		cfg.Sorted = c.Bool(flagSorted)
	}
	if c.IsSet(flagPrefixed) {
		cfg.Prefixed = c.Bool(flagPrefixed)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level := slog.LevelWarn
	if c.Bool(flagVerbose) {
		level = slog.LevelDebug
	}
	app.log = slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))

	if c.Bool(flagTrace) {
		exp, err := stdouttrace.New(stdouttrace.WithWriter(c.App.ErrWriter))
		if err != nil {
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}
		app.tp = sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
		app.tracer = app.tp.Tracer("hashtree")
	} else {
		app.tracer = dtrace.NopTracerProvider().Tracer("hashtree")
	}

	leaf, _, err := cfg.Hashers()
	if err != nil {
		return err
	}
	bc, err := cfg.BuildConfig(app.log)
	if err != nil {
		return err
	}

	app.cfg = cfg
	app.leafHasher = leaf
	app.buildCfg = bc
	return nil
}

func (app *cliApp) shutdownTracing(c *cli.Context) error {
	if app.tp == nil {
		return nil
	}
	if err := app.tp.Shutdown(c.Context); err != nil {
		return fmt.Errorf("failed to shut down tracer provider: %w", err)
	}
	return nil
}

// inputs returns the raw inputs for a command:
// the lines of --file if given, otherwise the positional arguments.
func (app *cliApp) inputs(c *cli.Context) ([][]byte, error) {
	path := c.String(flagFile)
	if path == "" {
		args := c.Args().Slice()
		out := make([][]byte, len(args))
		for i, a := range args {
			out[i] = []byte(a)
		}
		return out, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inputs: %w", err)
	}

	var out [][]byte
	s := bufio.NewScanner(bytes.NewReader(raw))
	s.Buffer(nil, len(raw)+1)
	for s.Scan() {
		out = append(out, bytes.Clone(s.Bytes()))
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("failed to split inputs: %w", err)
	}
	return out, nil
}

func (app *cliApp) buildTree(c *cli.Context) (*hashtree.Tree, error) {
	in, err := app.inputs(c)
	if err != nil {
		return nil, err
	}

	t, err := hashtree.Build(hashtree.LeafDigests(app.leafHasher, in...), app.buildCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build tree: %w", err)
	}
	return t, nil
}

// leaf resolves the --leaf or --leaf-hex flag to a digest.
func (app *cliApp) leaf(c *cli.Context) (hashtree.Digest, error) {
	switch {
	case c.IsSet(flagLeafHex):
		d, err := hashtree.ParseDigest(c.String(flagLeafHex))
		if err != nil {
			return nil, fmt.Errorf("invalid --%s: %w", flagLeafHex, err)
		}
		return d, nil
	case c.IsSet(flagLeaf):
		return hashtree.Digest(app.leafHasher.Hash([]byte(c.String(flagLeaf)), nil)), nil
	default:
		return nil, fmt.Errorf("one of --%s or --%s is required", flagLeaf, flagLeafHex)
	}
}

var errInvalidProof = errors.New("proof is not valid for the given root and leaf")
