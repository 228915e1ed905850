// Command ghostclass conceals and reveals payloads inside JVM class
// files using the strategies registered in internal/stratconceal.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/hailam/ghostclass/internal/adapters/verifier"
	"github.com/hailam/ghostclass/internal/application"
	"github.com/hailam/ghostclass/internal/ports"
	"github.com/hailam/ghostclass/internal/stratconceal"

	// Blank imports so each strategy's init() registers itself with
	// stratconceal before main runs.
	_ "github.com/hailam/ghostclass/internal/adapters/attrconceal"
	_ "github.com/hailam/ghostclass/internal/adapters/sboxconceal"
)

var (
	classPath   string
	payloadPath string
	outPath     string
	verify      bool
	verifyClass string
	verifyEntry string
)

func main() {
	service := application.NewGhostService(stratconceal.For, verifier.New())

	rootCmd := &cobra.Command{
		Use:   "ghostclass",
		Short: "Conceals and reveals payloads inside JVM class files.",
		Long: `ghostclass splices an arbitrary byte payload into a JVM .class file
using one of two strategies — a dedicated GhostPayload attribute, or a
payload smeared into a synthesized S-Box-shaped static table — and
reveals it back out.`,
	}

	rootCmd.AddCommand(newConcealCmd(service), newRevealCmd(service))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newConcealCmd(service *application.GhostService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conceal",
		Short: "Conceal a payload inside a class file carrier.",
	}
	cmd.PersistentFlags().StringVarP(&classPath, "class", "c", "", "path to the carrier .class file (required)")
	cmd.PersistentFlags().StringVarP(&payloadPath, "payload", "p", "", "path to the payload file (required)")
	cmd.PersistentFlags().StringVarP(&outPath, "output", "o", "", "path to write the concealed .class file (required)")
	cmd.PersistentFlags().BoolVar(&verify, "verify", false, "run the class through the Verifier Gateway after concealment")
	cmd.PersistentFlags().StringVar(&verifyClass, "verify-class", "", "binary class name to load for runtime verification")
	cmd.PersistentFlags().StringVar(&verifyEntry, "verify-entry", "", "argument passed to the class's main method for runtime verification")

	cmd.AddCommand(
		newConcealModeCmd(service, ports.ModeAttribute, "attribute", "Conceal via a GhostPayload attribute."),
		newConcealModeCmd(service, ports.ModeSbox, "sbox", "Conceal via an S-Box-shaped static table."),
	)
	return cmd
}

func newConcealModeCmd(service *application.GhostService, mode ports.ConcealMode, use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if classPath == "" || payloadPath == "" || outPath == "" {
				return fmt.Errorf("--class, --payload, and --output are all required")
			}
			classBytes, err := os.ReadFile(classPath)
			if err != nil {
				return fmt.Errorf("read carrier: %w", err)
			}
			payload, err := os.ReadFile(payloadPath)
			if err != nil {
				return fmt.Errorf("read payload: %w", err)
			}

			sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
			sp.Prefix = fmt.Sprintf("Concealing %s into %s (%s mode)... ", payloadPath, classPath, mode)
			sp.Start()
			var out []byte
			if verify {
				out, err = service.ConcealAndVerify(mode, classBytes, payload, verifyClass, verifyEntry)
			} else {
				out, err = service.Conceal(mode, classBytes, payload)
			}
			sp.Stop()
			if err != nil {
				return fmt.Errorf("conceal: %w", err)
			}

			if err := os.WriteFile(outPath, out, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Printf("Wrote %s (%d bytes)\n", outPath, len(out))
			return nil
		},
	}
}

func newRevealCmd(service *application.GhostService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reveal",
		Short: "Reveal a payload previously concealed in a class file.",
	}
	cmd.PersistentFlags().StringVarP(&classPath, "class", "c", "", "path to the concealed .class file (required)")
	cmd.PersistentFlags().StringVarP(&outPath, "output", "o", "", "path to write the recovered payload (required)")

	cmd.AddCommand(
		newRevealModeCmd(func(b []byte) ([]byte, error) { return service.Reveal(ports.ModeAttribute, b) }, "attribute", "Reveal a GhostPayload attribute."),
		newRevealModeCmd(func(b []byte) ([]byte, error) { return service.Reveal(ports.ModeSbox, b) }, "sbox", "Reveal an S-Box-concealed payload."),
		newRevealModeCmd(service.RevealAuto, "auto", "Try S-Box first, then fall back to attribute."),
	)
	return cmd
}

func newRevealModeCmd(reveal func([]byte) ([]byte, error), use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if classPath == "" || outPath == "" {
				return fmt.Errorf("--class and --output are both required")
			}
			classBytes, err := os.ReadFile(classPath)
			if err != nil {
				return fmt.Errorf("read carrier: %w", err)
			}

			payload, err := reveal(classBytes)
			if err != nil {
				return fmt.Errorf("reveal: %w", err)
			}

			if err := os.WriteFile(outPath, payload, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Printf("Wrote %s (%d bytes)\n", outPath, len(payload))
			return nil
		},
	}
}
