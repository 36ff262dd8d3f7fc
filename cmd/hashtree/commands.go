package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/gordian-engine/hashtree"
	"github.com/gordian-engine/hashtree/internal/htshard"
	"github.com/urfave/cli/v2"
)

func (app *cliApp) commands() cli.Commands {
	return []*cli.Command{
		{
			Name:      "root",
			Usage:     "print the root digest of a tree over the inputs",
			ArgsUsage: "[inputs...]",
			Flags:     inputFlags(),
			Action:    app.rootCmd,
		},
		{
			Name:      "prove",
			Usage:     "print the hex-encoded inclusion proof for one input",
			ArgsUsage: "[inputs...]",
			Flags:     append(inputFlags(), leafFlags()...),
			Action:    app.proveCmd,
		},
		{
			Name:  "verify",
			Usage: "check an inclusion proof; exits non-zero if it is invalid",
			Flags: append([]cli.Flag{
				&cli.StringFlag{
					Name:     flagRoot,
					Aliases:  []string{"r"},
					Usage:    "hex-encoded root digest",
					Required: true,
				},
				&cli.StringFlag{
					Name:     flagProof,
					Aliases:  []string{"p"},
					Usage:    "hex-encoded proof, as printed by prove",
					Required: true,
				},
			}, leafFlags()...),
			Action: app.verifyCmd,
		},
		{
			Name:      "build",
			Usage:     "write a tree file over the inputs",
			ArgsUsage: "[inputs...]",
			Flags: append([]cli.Flag{
				&cli.StringFlag{
					Name:     flagOut,
					Aliases:  []string{"o"},
					Usage:    "path of the tree file to write",
					Required: true,
				},
			}, inputFlags()...),
			Action: app.buildCmd,
		},
		{
			Name:      "inspect",
			Usage:     "print every level of a tree file",
			ArgsUsage: "<tree file>",
			Action:    app.inspectCmd,
		},
		{
			Name:  "shard",
			Usage: "erasure-code a file, commit to its shards, and check reconstruction",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     flagIn,
					Aliases:  []string{"i"},
					Usage:    "path of the file to shard",
					Required: true,
				},
				&cli.Float64Flag{
					Name:  flagParityRatio,
					Usage: "parity shards per data shard (default from config)",
				},
				&cli.IntFlag{
					Name:  flagMaxShardSize,
					Usage: "maximum bytes per shard (default from config)",
				},
				&cli.IntFlag{
					Name:  flagDrop,
					Usage: "drop this many leading shards before reconstructing",
				},
			},
			Action: app.shardCmd,
		},
	}
}

func (app *cliApp) rootCmd(c *cli.Context) error {
	t, err := app.buildTree(c)
	if err != nil {
		return err
	}

	root, err := t.RootHash()
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, root)
	return nil
}

func (app *cliApp) proveCmd(c *cli.Context) error {
	leaf, err := app.leaf(c)
	if err != nil {
		return err
	}

	t, err := app.buildTree(c)
	if err != nil {
		return err
	}

	proof, err := t.Proof(leaf)
	if err != nil {
		return err
	}

	b, err := proof.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to encode proof: %w", err)
	}

	idx, _ := t.IndexOf(leaf)
	app.log.Debug("Generated proof", "leaf", leaf.String(), "index", idx, "steps", proof.Len())

	fmt.Fprintln(c.App.Writer, hex.EncodeToString(b))
	return nil
}

func (app *cliApp) verifyCmd(c *cli.Context) error {
	leaf, err := app.leaf(c)
	if err != nil {
		return err
	}

	root, err := hashtree.ParseDigest(c.String(flagRoot))
	if err != nil {
		return fmt.Errorf("invalid --%s: %w", flagRoot, err)
	}

	raw, err := hex.DecodeString(c.String(flagProof))
	if err != nil {
		return fmt.Errorf("invalid --%s: %w", flagProof, err)
	}
	var proof hashtree.Proof
	if err := proof.UnmarshalBinary(raw); err != nil {
		return fmt.Errorf("invalid --%s: %w", flagProof, err)
	}

	h := app.buildCfg.Hasher
	if !proof.Validate(h, root, leaf) {
		app.log.Debug(
			"Proof did not validate",
			"expected_root", root.String(),
			"computed_root", proof.Root(h, leaf).String(),
		)
		return errInvalidProof
	}

	fmt.Fprintln(c.App.Writer, "valid")
	return nil
}

func (app *cliApp) buildCmd(c *cli.Context) error {
	t, err := app.buildTree(c)
	if err != nil {
		return err
	}

	f, err := os.Create(c.String(flagOut))
	if err != nil {
		return fmt.Errorf("failed to create tree file: %w", err)
	}

	if _, err := t.WriteTo(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close tree file: %w", err)
	}

	root, _ := t.RootHash()
	fmt.Fprintln(c.App.Writer, root)
	return nil
}

func (app *cliApp) inspectCmd(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("inspect takes exactly one tree file (got %d arguments)", c.NArg())
	}

	f, err := os.Open(c.Args().First())
	if err != nil {
		return fmt.Errorf("failed to open tree file: %w", err)
	}
	defer f.Close()

	t, err := hashtree.ReadTree(f, app.buildCfg)
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "leaves: %d\nheight: %d\nodd nodes: %s\n", t.Len(), t.Height(), t.OddNodes())
	for k := t.Height() - 1; k >= 0; k-- {
		level := t.Level(k)
		fmt.Fprintf(w, "level %d (%d nodes)\n", k, len(level))
		for i, d := range level {
			fmt.Fprintf(w, "  %d: %s\n", i, d)
		}
	}
	return nil
}

func (app *cliApp) shardCmd(c *cli.Context) error {
	data, err := os.ReadFile(c.String(flagIn))
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	maxShardSize := app.cfg.Shard.MaxShardSize
	if c.IsSet(flagMaxShardSize) {
		maxShardSize = c.Int(flagMaxShardSize)
	}
	parityRatio := app.cfg.Shard.ParityRatio
	if c.IsSet(flagParityRatio) {
		parityRatio = float32(c.Float64(flagParityRatio))
	}
	if maxShardSize <= 0 || parityRatio < 0 {
		return fmt.Errorf(
			"invalid shard settings: max shard size %d, parity ratio %g",
			maxShardSize, parityRatio,
		)
	}

	p, err := htshard.Prepare(c.Context, data, htshard.PrepareConfig{
		MaxShardSize: maxShardSize,
		ParityRatio:  parityRatio,
		LeafHasher:   app.leafHasher,
		NodeHasher:   app.buildCfg.Hasher,
		OddNodes:     app.buildCfg.OddNodes,
		Log:          app.log,
		Tracer:       app.tracer,
	})
	if err != nil {
		return err
	}

	shards := make([]htshard.Shard, 0, len(p.Shards))
	for i := max(0, c.Int(flagDrop)); i < len(p.Shards); i++ {
		shards = append(shards, htshard.Shard{
			Index: i,
			Data:  p.Shards[i],
			Proof: p.Proofs[i],
		})
	}

	res, err := htshard.Reconstruct(c.Context, shards, htshard.ReconstructConfig{
		NumData:    p.NumData,
		NumParity:  p.NumParity,
		DataLen:    p.DataLen,
		Root:       p.Root,
		LeafHasher: app.leafHasher,
		NodeHasher: app.buildCfg.Hasher,
		OddNodes:   app.buildCfg.OddNodes,
		Log:        app.log,
		Tracer:     app.tracer,
	})
	if err != nil {
		return err
	}
	if !bytes.Equal(res.Data, data) {
		return fmt.Errorf("reconstructed %d bytes do not match input", len(res.Data))
	}

	w := c.App.Writer
	fmt.Fprintf(w, "root: %s\n", p.Root)
	fmt.Fprintf(w, "data shards: %d\nparity shards: %d\nshard size: %d\n",
		p.NumData, p.NumParity, len(p.Shards[0]))
	fmt.Fprintf(w, "verified shards: %d\nreconstructed: ok\n", res.Verified.Count())
	return nil
}
