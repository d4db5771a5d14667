package classify

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/txscript"

	"github.com/mycitadel/citadel/internal/model"
)

func classifyGrammar(s string, tried *attempts) (Data, bool) {
	if d, ok := classifyOutPoint(s, tried); ok {
		return d, true
	}
	if d, ok := classifyDerivationPath(s, tried); ok {
		return d, true
	}
	if d, ok := classifyDescriptor(s, tried); ok {
		return d, true
	}
	if d, ok := classifyMiniscript(s, tried); ok {
		return d, true
	}
	return classifyScript(s, tried)
}

func classifyOutPoint(s string, tried *attempts) (Data, bool) {
	if !strings.Contains(s, ":") {
		tried.fail("outpoint", "no ':' separator")
		return nil, false
	}
	op, err := model.ParseOutPoint(s)
	if err != nil {
		tried.fail("outpoint", "%v", err)
		return nil, false
	}
	return OutPoint{TxID: op.TxID.String(), Vout: op.Vout}, true
}

const hardenedKeyStart = 0x80000000

func classifyDerivationPath(s string, tried *attempts) (Data, bool) {
	components, err := parseDerivationPath(s)
	if err != nil {
		tried.fail("derivation path", "%v", err)
		return nil, false
	}
	return DerivationPath{Path: s, Components: components}, true
}

func parseDerivationPath(s string) ([]uint32, error) {
	if s == "" || (s[0] != 'm' && s[0] != 'M') {
		return nil, errors.New("must start with 'm'")
	}
	if s == "m" || s == "M" {
		return []uint32{}, nil
	}
	if s[1] != '/' {
		return nil, errors.New("expected '/' after 'm'")
	}

	parts := strings.Split(s[2:], "/")
	out := make([]uint32, 0, len(parts))
	for _, p := range parts {
		hardened := false
		if n := len(p); n > 0 && (p[n-1] == '\'' || p[n-1] == 'h' || p[n-1] == 'H') {
			hardened = true
			p = p[:n-1]
		}
		if p == "" || strings.TrimLeft(p, "0123456789") != "" {
			return nil, fmt.Errorf("invalid component %q", p)
		}
		v, err := strconv.ParseUint(p, 10, 32)
		if err != nil || v >= hardenedKeyStart {
			return nil, fmt.Errorf("component %q out of range", p)
		}
		if hardened {
			v += hardenedKeyStart
		}
		out = append(out, uint32(v))
	}
	return out, nil
}

// descriptorTops are the functions allowed at the top of a descriptor.
var descriptorTops = map[string]bool{
	"sh": true, "wsh": true, "pk": true, "pkh": true, "wpkh": true,
	"combo": true, "multi": true, "sortedmulti": true, "multi_a": true,
	"sortedmulti_a": true, "tr": true, "rawtr": true, "addr": true, "raw": true,
}

var miniscriptFragments = map[string]bool{
	"pk": true, "pk_k": true, "pk_h": true, "pkh": true, "older": true,
	"after": true, "sha256": true, "hash256": true, "ripemd160": true,
	"hash160": true, "andor": true, "and_v": true, "and_b": true,
	"and_n": true, "or_b": true, "or_c": true, "or_d": true, "or_i": true,
	"thresh": true, "multi": true, "multi_a": true, "and": true, "or": true,
}

const miniscriptWrappers = "asctdvjnlu"

func classifyDescriptor(s string, tried *attempts) (Data, bool) {
	body, checksum, hasChecksum := strings.Cut(s, "#")
	root, err := parseExpr(body)
	if err != nil {
		tried.fail("descriptor", "%v", err)
		return nil, false
	}
	if root.wrappers != "" || !descriptorTops[root.name] {
		tried.fail("descriptor", "unknown top-level function %q", root.name)
		return nil, false
	}
	if err := root.check(true); err != nil {
		tried.fail("descriptor", "%v", err)
		return nil, false
	}
	if hasChecksum {
		want, err := descriptorChecksum(body)
		if err != nil {
			tried.fail("descriptor", "%v", err)
			return nil, false
		}
		if checksum != want {
			return Unknown{Diagnostic: fmt.Sprintf("descriptor checksum mismatch: got %q, want %q", checksum, want)}, true
		}
	}
	return Descriptor{Descriptor: body, Checksum: checksum, Top: root.name}, true
}

func classifyMiniscript(s string, tried *attempts) (Data, bool) {
	root, err := parseExpr(s)
	if err != nil {
		tried.fail("miniscript", "%v", err)
		return nil, false
	}
	if err := root.check(false); err != nil {
		tried.fail("miniscript", "%v", err)
		return nil, false
	}
	return Miniscript{Expression: s, Top: root.name}, true
}

// expr is one node of a descriptor or miniscript expression. Leaves carry no
// name and no parentheses.
type expr struct {
	wrappers string
	name     string
	leaf     string
	call     bool
	args     []expr
	tree     bool
}

// check validates function names: descriptor functions are accepted when
// inDescriptor is set, miniscript fragments always.
func (e expr) check(inDescriptor bool) error {
	if e.tree {
		for _, a := range e.args {
			if err := a.check(inDescriptor); err != nil {
				return err
			}
		}
		return nil
	}
	if !e.call {
		if e.leaf == "" {
			return errors.New("empty argument")
		}
		return nil
	}
	if strings.Trim(e.wrappers, miniscriptWrappers) != "" {
		return fmt.Errorf("unknown wrapper %q", e.wrappers)
	}
	if !miniscriptFragments[e.name] && !(inDescriptor && descriptorTops[e.name]) {
		return fmt.Errorf("unknown function %q", e.name)
	}
	for _, a := range e.args {
		if err := a.check(inDescriptor); err != nil {
			return err
		}
	}
	return nil
}

type exprParser struct {
	s   string
	pos int
}

func parseExpr(s string) (expr, error) {
	if s == "" {
		return expr{}, errors.New("empty expression")
	}
	p := &exprParser{s: s}
	e, err := p.parse()
	if err != nil {
		return expr{}, err
	}
	if p.pos != len(s) {
		return expr{}, fmt.Errorf("unexpected %q at offset %d", s[p.pos], p.pos)
	}
	if !e.call {
		return expr{}, errors.New("not a function expression")
	}
	return e, nil
}

func (p *exprParser) parse() (expr, error) {
	if p.pos < len(p.s) && p.s[p.pos] == '{' {
		p.pos++
		args, err := p.list('}')
		if err != nil {
			return expr{}, err
		}
		return expr{tree: true, args: args}, nil
	}

	start := p.pos
	for p.pos < len(p.s) && !strings.ContainsRune("(){},", rune(p.s[p.pos])) {
		if c := p.s[p.pos]; c == ' ' || c == '\t' || c == '\n' {
			return expr{}, fmt.Errorf("unexpected whitespace at offset %d", p.pos)
		}
		p.pos++
	}
	token := p.s[start:p.pos]
	if p.pos >= len(p.s) || p.s[p.pos] != '(' {
		return expr{leaf: token}, nil
	}

	wrappers, name, _ := strings.Cut(token, ":")
	if name == "" {
		wrappers, name = "", token
	}
	if !isIdent(name) {
		return expr{}, fmt.Errorf("invalid function name %q", name)
	}
	p.pos++
	args, err := p.list(')')
	if err != nil {
		return expr{}, err
	}
	return expr{wrappers: wrappers, name: name, call: true, args: args}, nil
}

func (p *exprParser) list(closing byte) ([]expr, error) {
	var args []expr
	for {
		a, err := p.parse()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if p.pos >= len(p.s) {
			return nil, fmt.Errorf("missing %q", closing)
		}
		switch p.s[p.pos] {
		case ',':
			p.pos++
		case closing:
			p.pos++
			return args, nil
		default:
			return nil, fmt.Errorf("unexpected %q at offset %d", p.s[p.pos], p.pos)
		}
	}
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_') {
			return false
		}
	}
	return true
}

const (
	checksumInputCharset = "0123456789()[],'/*abcdefgh@:$%{}" +
		"IJKLMNOPQRSTUVWXYZ&+-.;<=>?!^_|~" +
		"ijklmnopqrstuvwxyzABCDEFGH`#\"\\ "
	checksumCharset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"
)

var checksumGenerators = [5]uint64{0xf5dee51989, 0xa9fdca3312, 0x1bab10e32d, 0x3706b1677a, 0x644d626ffd}

func checksumPolymod(c, v uint64) uint64 {
	top := c >> 35
	c = (c&0x7ffffffff)<<5 ^ v
	for i, g := range checksumGenerators {
		if top>>uint(i)&1 != 0 {
			c ^= g
		}
	}
	return c
}

// descriptorChecksum computes the eight-character checksum of a descriptor
// body.
func descriptorChecksum(s string) (string, error) {
	c := uint64(1)
	cls, count := 0, 0
	for i := 0; i < len(s); i++ {
		pos := strings.IndexByte(checksumInputCharset, s[i])
		if pos < 0 {
			return "", fmt.Errorf("character %q not allowed in descriptor", s[i])
		}
		c = checksumPolymod(c, uint64(pos&31))
		cls = cls*3 + pos>>5
		count++
		if count == 3 {
			c = checksumPolymod(c, uint64(cls))
			cls, count = 0, 0
		}
	}
	if count > 0 {
		c = checksumPolymod(c, uint64(cls))
	}
	for i := 0; i < 8; i++ {
		c = checksumPolymod(c, 0)
	}
	c ^= 1

	var out [8]byte
	for i := range out {
		out[i] = checksumCharset[c>>(5*(7-uint(i)))&31]
	}
	return string(out[:]), nil
}

func classifyScript(s string, tried *attempts) (Data, bool) {
	tokens := strings.Fields(s)
	b := txscript.NewScriptBuilder()
	sawOpcode := false
	for _, tok := range tokens {
		if op, ok := txscript.OpcodeByName[strings.ToUpper(tok)]; ok && strings.HasPrefix(strings.ToUpper(tok), "OP_") {
			b.AddOp(op)
			sawOpcode = true
			continue
		}
		data, err := hex.DecodeString(tok)
		if err != nil {
			tried.fail("script", "unknown token %q", tok)
			return nil, false
		}
		b.AddData(data)
	}
	if !sawOpcode {
		tried.fail("script", "no opcodes")
		return nil, false
	}
	script, err := b.Script()
	if err != nil {
		tried.fail("script", "%v", err)
		return nil, false
	}
	asm, err := txscript.DisasmString(script)
	if err != nil {
		tried.fail("script", "%v", err)
		return nil, false
	}
	return Script{Asm: asm, Bytes: script, Class: txscript.GetScriptClass(script).String()}, true
}
