package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mycitadel/citadel/internal/classify"
)

func newClassifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "classify [text]",
		Short: "Recognize an address, invoice, key, script or identifier",
		Long:  "Classify the given text, or each non-blank line of stdin when no text is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var inputs []string
			if len(args) > 0 {
				inputs = args
			} else {
				lines, err := readLines(cmd.InOrStdin())
				if err != nil {
					return err
				}
				inputs = lines
			}

			failed := 0
			for _, in := range inputs {
				r := classify.Classify(in)
				printResult(cmd.OutOrStdout(), r)
				if !r.Recognized() {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d inputs", ErrUnrecognized, failed, len(inputs))
			}
			return nil
		},
	}
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return lines, nil
}

func printResult(w io.Writer, r classify.Result) {
	fmt.Fprintf(w, "%s: %s\n", r.Kind(), r.Report)
	for _, line := range describe(r.Data) {
		fmt.Fprintf(w, "  %s\n", line)
	}
}

// describe lists the notable fields of recognized data.
func describe(d classify.Data) []string {
	switch v := d.(type) {
	case classify.BitcoinAddress:
		out := []string{"address: " + v.Address, "network: " + v.Network, "type: " + string(v.Type)}
		if v.HasAmount {
			out = append(out, fmt.Sprintf("amount: %d sats", v.AmountSats))
		}
		if v.Label != "" {
			out = append(out, "label: "+v.Label)
		}
		if v.Message != "" {
			out = append(out, "message: "+v.Message)
		}
		return out
	case classify.Bolt11Invoice:
		out := []string{"network: " + v.Network}
		if v.HasAmount {
			out = append(out, fmt.Sprintf("amount: %d msat", v.AmountMsat))
		}
		if v.Description != "" {
			out = append(out, "description: "+v.Description)
		}
		return out
	case classify.StructuredInvoice:
		out := []string{"beneficiary: " + v.Record.Beneficiary}
		if v.Record.AssetID != "" {
			out = append(out, "asset: "+v.Record.AssetID)
		}
		if v.Record.Amount != 0 {
			out = append(out, fmt.Sprintf("amount: %d atomic", v.Record.Amount))
		}
		return out
	case classify.RGB20Asset:
		return []string{
			"asset: " + v.Asset.AssetID(),
			"ticker: " + v.Asset.Ticker,
			"name: " + v.Asset.Name,
			fmt.Sprintf("precision: %d", v.Asset.Precision),
		}
	case classify.ExtendedPublicKey:
		return []string{"prefix: " + v.Prefix, "network: " + v.Network, fmt.Sprintf("depth: %d", v.Depth)}
	case classify.ExtendedPrivateKey:
		return []string{"prefix: " + v.Prefix, "network: " + v.Network, fmt.Sprintf("depth: %d", v.Depth)}
	case classify.RawTransaction:
		return []string{"txid: " + v.TxID, fmt.Sprintf("inputs: %d, outputs: %d", v.Inputs, v.Outputs)}
	case classify.PSBT:
		return []string{"txid: " + v.TxID, fmt.Sprintf("inputs: %d, outputs: %d", v.Inputs, v.Outputs)}
	case classify.Script:
		return []string{"asm: " + v.Asm, "class: " + v.Class}
	case classify.OutPoint:
		return []string{fmt.Sprintf("txid: %s, vout: %d", v.TxID, v.Vout)}
	case classify.GenesisHash:
		return []string{"network: " + v.Network}
	default:
		return nil
	}
}
