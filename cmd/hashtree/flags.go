package main

import "github.com/urfave/cli/v2"

const (
	flagConfig   = "config"
	flagHash     = "hash"
	flagLeafHash = "leaf-hash"
	flagOdd      = "odd"
	flagSorted   = "sorted"
	flagPrefixed = "prefixed"
	flagVerbose  = "verbose"
	flagTrace    = "trace"

	flagFile         = "file"
	flagLeaf         = "leaf"
	flagLeafHex      = "leaf-hex"
	flagRoot         = "root"
	flagProof        = "proof"
	flagOut          = "out"
	flagIn           = "in"
	flagParityRatio  = "parity-ratio"
	flagMaxShardSize = "max-shard-size"
	flagDrop         = "drop"
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    flagConfig,
			Aliases: []string{"c"},
			EnvVars: []string{"HASHTREE_CONFIG"},
			Usage:   "path to YAML configuration; flags override its values",
		},
		&cli.StringFlag{
			Name:  flagHash,
			Usage: "hasher for interior nodes (sha256, sha3-256, sha3-512, keccak256, blake3)",
		},
		&cli.StringFlag{
			Name:  flagLeafHash,
			Usage: "hasher for leaf data, defaults to --hash",
		},
		&cli.StringFlag{
			Name:  flagOdd,
			Usage: "odd node policy: duplicate or promote",
		},
		&cli.BoolFlag{
			Name:  flagSorted,
			Usage: "combine each pair with the larger digest first",
		},
		&cli.BoolFlag{
			Name:  flagPrefixed,
			Usage: "prefix leaves with 0x00 and nodes with 0x01 before hashing",
		},
		&cli.BoolFlag{
			Name:    flagVerbose,
			Aliases: []string{"v"},
			Usage:   "log debug output to stderr",
		},
		&cli.BoolFlag{
			Name:  flagTrace,
			Usage: "write OpenTelemetry spans to stderr as JSON",
		},
	}
}

func inputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    flagFile,
			Aliases: []string{"f"},
			Usage:   "read inputs from file, one per line, instead of arguments",
		},
	}
}

func leafFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    flagLeaf,
			Aliases: []string{"l"},
			Usage:   "input whose leaf digest is proven",
		},
		&cli.StringFlag{
			Name:  flagLeafHex,
			Usage: "hex-encoded leaf digest, instead of --leaf",
		},
	}
}
