package main

// node.go – the `qfcd node` command: an interactive session holding one
// in-memory ledger for the lifetime of the process and exposing submit,
// mine, balance, and shard as REPL verbs. Split into its own file
// following the teacher's cmd/cli/<concern>.go layout (data.go,
// replication.go, rollups.go each own one command group).
//
// The ledger carries no on-disk state (see DESIGN.md, Non-goals), so
// submit/mine/balance can only share state within a single running
// process; a REPL is the natural shape for that rather than one-shot
// subcommands that would each start from an empty ledger.

import (
	"bufio"
	"context"
	"crypto/rsa"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"qfc-ledger/core"
	"qfc-ledger/pkg/config"
)

// session holds the REPL's live state: one ledger and a keyring of named
// RSA key pairs so commands can refer to accounts by a short alias
// instead of a full hex address.
type session struct {
	ledger  *core.Ledger
	keyring map[string]*rsa.PrivateKey
	log     *logrus.Entry
}

func newSession(cfg *config.Config) (*session, error) {
	ledger, err := core.NewLedger(cfg.Ledger.ShardCount, cfg.Ledger.InitialDifficulty)
	if err != nil {
		return nil, err
	}
	return &session{
		ledger:  ledger,
		keyring: make(map[string]*rsa.PrivateKey),
		log:     logrus.WithField("component", "node"),
	}, nil
}

func (s *session) resolve(name string) (*rsa.PrivateKey, core.Address, error) {
	priv, ok := s.keyring[name]
	if !ok {
		return nil, core.Address{}, fmt.Errorf("unknown account %q: run 'genkey %s' first", name, name)
	}
	addr, err := core.AddressFromPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, core.Address{}, err
	}
	return priv, addr, nil
}

// dispatch runs a single whitespace-tokenized REPL line against the
// session, writing results to out.
func (s *session) dispatch(out io.Writer, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	verb, args := fields[0], fields[1:]

	switch verb {
	case "genkey":
		if len(args) != 1 {
			return fmt.Errorf("usage: genkey <name>")
		}
		priv, err := core.GenerateKey()
		if err != nil {
			return err
		}
		s.keyring[args[0]] = priv
		addr, err := core.AddressFromPublicKey(&priv.PublicKey)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s -> %s\n", args[0], addr.Hex())
		return nil

	case "seed":
		if len(args) != 2 {
			return fmt.Errorf("usage: seed <name> <amount>")
		}
		_, addr, err := s.resolve(args[0])
		if err != nil {
			return err
		}
		amount, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[1], err)
		}
		s.ledger.SeedBalance(addr, core.NativeAsset, amount)
		fmt.Fprintf(out, "%s balance=%.2f\n", args[0], s.ledger.Balance(addr, core.NativeAsset))
		return nil

	case "submit":
		if len(args) != 3 {
			return fmt.Errorf("usage: submit <from> <to> <amount>")
		}
		fromPriv, fromAddr, err := s.resolve(args[0])
		if err != nil {
			return err
		}
		_, toAddr, err := s.resolve(args[1])
		if err != nil {
			return err
		}
		amount, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[2], err)
		}
		tx, err := core.NewTransaction(fromAddr, toAddr, amount, core.NativeAsset)
		if err != nil {
			return err
		}
		if err := tx.Sign(fromPriv); err != nil {
			return err
		}
		accepted, err := s.ledger.Submit(tx, &fromPriv.PublicKey)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "accepted=%v\n", accepted)
		return nil

	case "mine":
		if len(args) != 1 {
			return fmt.Errorf("usage: mine <miner>")
		}
		_, minerAddr, err := s.resolve(args[0])
		if err != nil {
			return err
		}
		block, err := s.ledger.Mine(context.Background(), minerAddr)
		if err != nil {
			return err
		}
		if block == nil {
			fmt.Fprintln(out, "no pending transactions")
			return nil
		}
		fmt.Fprintf(out, "block index=%d hash=%s energy_source=%s txs=%d\n",
			block.Index, block.Hash, block.EnergySource, len(block.Transactions))
		return nil

	case "balance":
		if len(args) != 1 {
			return fmt.Errorf("usage: balance <name>")
		}
		_, addr, err := s.resolve(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%.2f\n", s.ledger.Balance(addr, core.NativeAsset))
		return nil

	case "shard":
		if len(args) != 1 {
			return fmt.Errorf("usage: shard <id>")
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid shard id %q: %w", args[0], err)
		}
		shard, err := s.ledger.Shard(core.ShardID(id))
		if err != nil {
			return err
		}
		blocks := shard.Blocks()
		fmt.Fprintf(out, "shard %d height=%d pending=%d\n", id, len(blocks), shard.PendingCount())
		for _, b := range blocks {
			fmt.Fprintf(out, "  block %d hash=%s txs=%d\n", b.Index, b.Hash, len(b.Transactions))
		}
		return nil

	default:
		return fmt.Errorf("unknown command %q", verb)
	}
}

// nodeCmd runs an interactive line-oriented session over stdin/stdout,
// reading REPL verbs until EOF or an "exit" line.
func nodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "node",
		Short: "start an interactive session over one in-memory ledger",
		Long: "node starts a REPL exposing genkey, seed, submit, mine, balance, " +
			"and shard verbs against a single ledger that lives for the duration " +
			"of the process (the ledger keeps no on-disk state).",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return err
			}
			s, err := newSession(cfg)
			if err != nil {
				return err
			}
			s.log.WithFields(logrus.Fields{
				"shard_count": cfg.Ledger.ShardCount,
				"difficulty":  cfg.Ledger.InitialDifficulty,
			}).Info("node session started")

			scanner := bufio.NewScanner(cmd.InOrStdin())
			out := cmd.OutOrStdout()
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "exit" || line == "quit" {
					return nil
				}
				if err := s.dispatch(out, line); err != nil {
					fmt.Fprintf(out, "error: %v\n", err)
				}
			}
			return scanner.Err()
		},
	}
}
