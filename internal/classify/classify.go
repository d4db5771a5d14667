// Package classify recognizes user-supplied or scanned strings: addresses,
// invoices, RGB identifiers, keys, scripts and binary encodings.
//
// Classification never fails. Input nothing recognizes yields Unknown with a
// diagnostic naming every decoding that was attempted and why it failed.
package classify

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
)

// Result is the outcome of classifying one input.
type Result struct {
	Input  string
	Data   Data
	Report string
}

// Kind returns the kind of the classified data.
func (r Result) Kind() Kind {
	return r.Data.Kind()
}

// Recognized reports whether the input was placed in a known kind.
func (r Result) Recognized() bool {
	return r.Data.Kind() != KindUnknown
}

// step inspects the input and either claims it (ok=true) or records why it
// does not apply and passes.
type step func(s string, tried *attempts) (Data, bool)

// Steps run in priority order: some encodings are prefixes or subsets of
// others, so the first claim wins.
var pipeline = []step{
	classifyURI,
	classifyBech32,
	classifyBase58,
	classifyBase64PSBT,
	classifyHex,
	classifyGrammar,
	classifyBase64,
}

// Classify recognizes input. It is safe for concurrent use.
func Classify(input string) Result {
	s := strings.TrimSpace(input)
	if s == "" {
		return unknown(s, "empty input")
	}

	var tried attempts
	for _, st := range pipeline {
		if d, ok := st(s, &tried); ok {
			return result(s, d)
		}
	}
	return unknown(s, "unrecognized input: "+tried.String())
}

func result(s string, d Data) Result {
	if u, ok := d.(Unknown); ok {
		return Result{Input: s, Data: u, Report: u.Diagnostic}
	}
	return Result{Input: s, Data: d, Report: "recognized as " + d.Kind().Label()}
}

func unknown(s, diagnostic string) Result {
	return result(s, Unknown{Diagnostic: diagnostic})
}

type attempts []string

func (a *attempts) fail(encoding, format string, args ...any) {
	*a = append(*a, "not valid "+encoding+": "+fmt.Sprintf(format, args...))
}

func (a attempts) String() string {
	return strings.Join(a, "; ")
}

type network struct {
	name   string
	params *chaincfg.Params
}

// Shared version bytes and hrps resolve to the first matching entry.
var networks = []network{
	{"mainnet", &chaincfg.MainNetParams},
	{"testnet", &chaincfg.TestNet3Params},
	{"signet", &chaincfg.SigNetParams},
	{"regtest", &chaincfg.RegressionNetParams},
}

func networkBySegwitHRP(hrp string) (network, bool) {
	for _, n := range networks {
		if n.params.Bech32HRPSegwit == hrp {
			return n, true
		}
	}
	return network{}, false
}
