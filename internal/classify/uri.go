package classify

import (
	"net/url"
	"strings"

	"github.com/mycitadel/citadel/internal/amount"
)

const (
	bitcoinScheme   = "bitcoin:"
	lightningScheme = "lightning:"
	btcPrecision    = 8
)

func classifyURI(s string, _ *attempts) (Data, bool) {
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, bitcoinScheme):
		return parseBIP21(s[len(bitcoinScheme):]), true
	case strings.HasPrefix(lower, lightningScheme):
		return parseLightningURI(s[len(lightningScheme):]), true
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		u, err := url.Parse(s)
		if err != nil || u.Host == "" {
			return Unknown{Diagnostic: "not a valid URL"}, true
		}
		return URL{URL: s, Host: u.Host}, true
	}
	return nil, false
}

// parseBIP21 parses the part of a bitcoin: URI after the scheme. Unknown
// query keys are ignored.
func parseBIP21(rest string) Data {
	addrPart, query, _ := strings.Cut(rest, "?")

	var tried attempts
	addr, ok := decodeAddress(addrPart, &tried)
	if !ok {
		return Unknown{Diagnostic: "bitcoin: URI does not carry a valid address: " + tried.String()}
	}

	params, err := url.ParseQuery(query)
	if err != nil {
		return Unknown{Diagnostic: "bitcoin: URI has malformed parameters: " + err.Error()}
	}

	addr.BIP21 = true
	if v := params.Get("amount"); v != "" {
		sats, err := amount.ToAtomic(v, btcPrecision)
		if err != nil {
			return Unknown{Diagnostic: "bitcoin: URI has invalid amount: " + err.Error()}
		}
		addr.HasAmount = true
		addr.AmountSats = sats
	}
	addr.Label = params.Get("label")
	addr.Message = params.Get("message")
	addr.Lightning = params.Get("lightning")
	return addr
}

func parseLightningURI(rest string) Data {
	var tried attempts
	d, ok := classifyBech32(rest, &tried)
	if !ok {
		return Unknown{Diagnostic: "lightning: URI does not carry a BOLT-11 invoice: " + tried.String()}
	}
	switch v := d.(type) {
	case Bolt11Invoice, Unknown:
		return v
	}
	return Unknown{Diagnostic: "lightning: URI carries " + d.Kind().Label() + ", not a BOLT-11 invoice"}
}

// decodeAddress accepts only on-chain addresses.
func decodeAddress(s string, tried *attempts) (BitcoinAddress, bool) {
	for _, st := range []step{classifyBech32, classifyBase58} {
		d, ok := st(s, tried)
		if !ok {
			continue
		}
		switch v := d.(type) {
		case BitcoinAddress:
			return v, true
		case Unknown:
			*tried = append(*tried, v.Diagnostic)
		default:
			*tried = append(*tried, "recognized "+v.Kind().Label()+", not an address")
		}
		return BitcoinAddress{}, false
	}
	return BitcoinAddress{}, false
}
