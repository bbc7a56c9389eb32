package main

// cmd/qfcd – command-line entrypoint for the sharded ledger, mirroring the
// teacher's cmd/synnergy/main.go root-command-with-subcommand-groups shape.
// Because this ledger keeps no on-disk state (see DESIGN.md, Non-goals),
// every subcommand here is self-contained within a single process run
// rather than operating on state left behind by a previous invocation.

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"qfc-ledger/core"
	"qfc-ledger/pkg/config"
)

func main() {
	rootCmd := &cobra.Command{Use: "qfcd", Short: "sharded QFC ledger node"}
	rootCmd.AddCommand(genKeyCmd())
	rootCmd.AddCommand(demoCmd())
	rootCmd.AddCommand(shardCmd())
	rootCmd.AddCommand(nodeCmd())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func genKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "genkey",
		Short: "generate an RSA signing key pair and print its address",
		RunE: func(cmd *cobra.Command, args []string) error {
			mnemonic, _ := cmd.Flags().GetString("from-mnemonic")

			var priv *rsa.PrivateKey
			var err error
			if mnemonic == "" {
				mnemonic, err = core.NewMnemonic()
				if err != nil {
					return err
				}
				fmt.Printf("mnemonic: %s\n", mnemonic)
			}
			priv, err = core.GenerateKeyFromMnemonic(mnemonic, "")
			if err != nil {
				return err
			}

			addr, err := core.AddressFromPublicKey(&priv.PublicKey)
			if err != nil {
				return err
			}
			fingerprint, err := core.Fingerprint(&priv.PublicKey)
			if err != nil {
				return err
			}
			der, err := x509.MarshalPKCS8PrivateKey(priv)
			if err != nil {
				return err
			}
			block := &pem.Block{Type: "PRIVATE KEY", Bytes: der}
			fmt.Printf("address: %s\n", addr.Hex())
			fmt.Printf("fingerprint: %s\n", fingerprint)
			fmt.Print(string(pem.EncodeToMemory(block)))
			return nil
		},
	}
	cmd.Flags().String("from-mnemonic", "", "derive the key deterministically from an existing BIP-39 mnemonic")
	return cmd
}

func shardCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "shard", Short: "shard routing utilities"}
	routeCmd := &cobra.Command{
		Use:   "route [address] [shard-count]",
		Short: "print which shard an address routes to",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := core.AddressFromHex(args[0])
			if err != nil {
				return err
			}
			var shardCount int
			if _, err := fmt.Sscanf(args[1], "%d", &shardCount); err != nil {
				return fmt.Errorf("invalid shard count %q: %w", args[1], err)
			}
			id, err := core.ShardForAddress(addr, shardCount)
			if err != nil {
				return err
			}
			fmt.Printf("%s -> shard %d\n", addr.Hex(), id)
			return nil
		},
	}
	cmd.AddCommand(routeCmd)
	return cmd
}

// demoCmd runs the scenario described in the ledger's test suite end to
// end inside one process: fund one account, submit a transfer from it to
// a second, freshly generated account (intra- or cross-shard depending on
// where the two addresses route), mine the sender's shard, and print the
// resulting balances and mined block.
func demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "run a scripted submit/mine/balance scenario",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return err
			}
			logrus.WithFields(logrus.Fields{
				"shard_count": cfg.Ledger.ShardCount,
				"difficulty":  cfg.Ledger.InitialDifficulty,
			}).Info("starting demo ledger")

			ledger, err := core.NewLedger(cfg.Ledger.ShardCount, cfg.Ledger.InitialDifficulty)
			if err != nil {
				return err
			}

			aliceKey, err := core.GenerateKey()
			if err != nil {
				return err
			}
			bobKey, err := core.GenerateKey()
			if err != nil {
				return err
			}
			alice, err := core.AddressFromPublicKey(&aliceKey.PublicKey)
			if err != nil {
				return err
			}
			bob, err := core.AddressFromPublicKey(&bobKey.PublicKey)
			if err != nil {
				return err
			}

			ledger.SeedBalance(alice, core.NativeAsset, 100)

			tx, err := core.NewTransaction(alice, bob, 10, core.NativeAsset)
			if err != nil {
				return err
			}
			if err := tx.Sign(aliceKey); err != nil {
				return err
			}
			accepted, err := ledger.Submit(tx, &aliceKey.PublicKey)
			if err != nil {
				return err
			}
			fmt.Printf("submit accepted=%v alice_balance=%.2f bob_balance=%.2f\n",
				accepted, ledger.Balance(alice, core.NativeAsset), ledger.Balance(bob, core.NativeAsset))

			block, err := ledger.Mine(context.Background(), alice)
			if err != nil {
				return err
			}
			if block == nil {
				fmt.Println("mine: no pending transactions")
				return nil
			}
			fmt.Printf("mined block index=%d hash=%s energy_source=%s alice_balance=%.2f\n",
				block.Index, block.Hash, block.EnergySource, ledger.Balance(alice, core.NativeAsset))
			return nil
		},
	}
}
