package dice

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/json"
	"os"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

//go:embed idl/dice.json
var defaultIDL []byte

// IDL is the subset of an Anchor interface description needed to encode
// instructions and check account layouts.
type IDL struct {
	Version      string           `json:"version"`
	Name         string           `json:"name"`
	Instructions []IdlInstruction `json:"instructions"`
	Accounts     []IdlTypeDef     `json:"accounts"`
	Errors       []IdlErrorCode   `json:"errors"`
}

type IdlInstruction struct {
	Name     string           `json:"name"`
	Accounts []IdlAccountItem `json:"accounts"`
	Args     []IdlField       `json:"args"`
}

type IdlAccountItem struct {
	Name     string `json:"name"`
	IsMut    bool   `json:"isMut"`
	IsSigner bool   `json:"isSigner"`
}

type IdlField struct {
	Name string  `json:"name"`
	Type IdlType `json:"type"`
}

type IdlTypeDef struct {
	Name string `json:"name"`
	Type struct {
		Kind   string     `json:"kind"`
		Fields []IdlField `json:"fields"`
	} `json:"type"`
}

type IdlErrorCode struct {
	Code uint32 `json:"code"`
	Name string `json:"name"`
	Msg  string `json:"msg"`
}

// IdlType is either a primitive ("u64", "publicKey"), a fixed array, a
// reference to a defined type, or a container kind this package does not
// encode.
type IdlType struct {
	Primitive string
	Array     *IdlArray
	Defined   string
	Other     string
}

type IdlArray struct {
	Elem IdlType
	Len  int
}

func (t *IdlType) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &t.Primitive)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return errors.Wrap(err, "invalid idl type")
	}

	if raw, ok := obj["array"]; ok {
		var parts []json.RawMessage
		if err := json.Unmarshal(raw, &parts); err != nil {
			return errors.Wrap(err, "invalid idl array type")
		}
		if len(parts) != 2 {
			return errors.New("idl array type must have an element type and a length")
		}

		arr := &IdlArray{}
		if err := arr.Elem.UnmarshalJSON(parts[0]); err != nil {
			return err
		}
		if err := json.Unmarshal(parts[1], &arr.Len); err != nil {
			return errors.Wrap(err, "invalid idl array length")
		}
		t.Array = arr
		return nil
	}

	if raw, ok := obj["defined"]; ok {
		return json.Unmarshal(raw, &t.Defined)
	}

	for k := range obj {
		t.Other = k
		return nil
	}
	return errors.New("empty idl type")
}

func (t IdlType) String() string {
	switch {
	case t.Primitive != "":
		return t.Primitive
	case t.Array != nil:
		return "[" + t.Array.Elem.String() + "]"
	case t.Defined != "":
		return t.Defined
	default:
		return t.Other
	}
}

var primitiveSizes = map[string]int{
	"bool":      1,
	"u8":        1,
	"i8":        1,
	"u16":       2,
	"i16":       2,
	"u32":       4,
	"i32":       4,
	"u64":       8,
	"i64":       8,
	"u128":      16,
	"i128":      16,
	"publicKey": 32,
	"pubkey":    32,
}

// size returns the fixed borsh size of t.
func (t IdlType) size() (int, error) {
	switch {
	case t.Primitive != "":
		size, ok := primitiveSizes[t.Primitive]
		if !ok {
			return 0, errors.Wrap(ErrUnsupportedType, t.Primitive)
		}
		return size, nil
	case t.Array != nil:
		elem, err := t.Array.Elem.size()
		if err != nil {
			return 0, err
		}
		return elem * t.Array.Len, nil
	default:
		return 0, errors.Wrap(ErrUnsupportedType, t.String())
	}
}

func LoadIDL(data []byte) (*IDL, error) {
	var idl IDL
	if err := json.Unmarshal(data, &idl); err != nil {
		return nil, errors.Wrap(err, "failed to parse idl")
	}
	return &idl, nil
}

func LoadIDLFile(path string) (*IDL, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read idl %s", path)
	}
	return LoadIDL(data)
}

// DefaultIDL returns the interface description bundled with this package.
func DefaultIDL() (*IDL, error) {
	return LoadIDL(defaultIDL)
}

// Instruction finds the instruction known by any of names.
func (idl *IDL) Instruction(names ...string) (*IdlInstruction, bool) {
	for _, name := range names {
		for i := range idl.Instructions {
			if normalizeName(idl.Instructions[i].Name) == normalizeName(name) {
				return &idl.Instructions[i], true
			}
		}
	}
	return nil, false
}

func (idl *IDL) Account(name string) (*IdlTypeDef, bool) {
	for i := range idl.Accounts {
		if idl.Accounts[i].Name == name {
			return &idl.Accounts[i], true
		}
	}
	return nil, false
}

// ErrorByCode resolves a program custom error code.
func (idl *IDL) ErrorByCode(code uint32) (*IdlErrorCode, bool) {
	for i := range idl.Errors {
		if idl.Errors[i].Code == code {
			return &idl.Errors[i], true
		}
	}
	return nil, false
}

func (idl *IDL) validate() error {
	for _, op := range AllOperations {
		spec := operations[op]

		ix, ok := idl.Instruction(spec.names...)
		if !ok {
			return errors.Wrapf(ErrUnknownInstruction, "%s", op)
		}

		for _, account := range ix.Accounts {
			if !spec.hasAccount(account.Name) {
				return errors.Wrapf(ErrUnknownAccount, "%s.%s", ix.Name, account.Name)
			}
		}

		for _, arg := range ix.Args {
			if !spec.hasArg(arg.Name) {
				return errors.Wrapf(ErrUnknownArgument, "%s.%s", ix.Name, arg.Name)
			}
			if _, ok := unsignedMax[arg.Type.Primitive]; !ok {
				return errors.Wrapf(ErrUnsupportedType, "%s.%s: %s", ix.Name, arg.Name, arg.Type)
			}
		}
	}

	for name, expected := range map[string]int{
		GlobalPoolAccountName: GlobalPoolAccountSize - 8,
		UserPoolAccountName:   UserPoolAccountSize - 8,
	} {
		def, ok := idl.Account(name)
		if !ok {
			return errors.Wrapf(ErrIdlMismatch, "missing account %s", name)
		}

		var size int
		for _, field := range def.Type.Fields {
			fieldSize, err := field.Type.size()
			if err != nil {
				return errors.Wrapf(err, "%s.%s", name, field.Name)
			}
			size += fieldSize
		}
		if size != expected {
			return errors.Wrapf(ErrIdlMismatch, "account %s is %d bytes, expected %d", name, size, expected)
		}
	}

	return nil
}

// instructionDiscriminator is Anchor's sighash for a global instruction.
func instructionDiscriminator(name string) []byte {
	h := sha256.Sum256([]byte("global:" + toSnakeCase(name)))
	return h[:8]
}

func accountDiscriminator(name string) []byte {
	h := sha256.Sum256([]byte("account:" + name))
	return h[:8]
}

func toSnakeCase(name string) string {
	var sb strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// normalizeName lets camelCase and snake_case idl names match.
func normalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "_", "")
}
