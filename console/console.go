// Package console decodes console-style log records emitted during contract
// execution into human readable strings. Contracts compiled with a console
// helper library route their output through a well-known pseudo address; the
// record payload is a selector-prefixed abi encoding of the logged values.
package console

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// ConsoleAddress is the pseudo address console helper libraries target.
var ConsoleAddress = common.HexToAddress("0x000000000000000000636F6e736F6c652e6c6f67")

var signatures = []string{
	"log()",
	"log(string)",
	"log(uint256)",
	"log(int256)",
	"log(bool)",
	"log(address)",
	"log(bytes)",
	"log(bytes32)",
	"log(string,string)",
	"log(string,uint256)",
	"log(string,address)",
	"log(string,bool)",
	"log(uint256,uint256)",
	"log(address,uint256)",
	"log(string,string,string)",
	"log(string,uint256,uint256)",
	"log(string,address,uint256)",
}

type decoder struct {
	signature string
	arguments abi.Arguments
}

var decoders map[[4]byte]decoder

func init() {
	decoders = make(map[[4]byte]decoder, len(signatures))
	for _, sig := range signatures {
		args, err := parseArguments(sig)
		if err != nil {
			panic(fmt.Sprintf("invalid console signature %q: %v", sig, err))
		}
		var selector [4]byte
		copy(selector[:], crypto.Keccak256([]byte(sig))[:4])
		decoders[selector] = decoder{signature: sig, arguments: args}
	}
}

func parseArguments(signature string) (abi.Arguments, error) {
	open := strings.IndexByte(signature, '(')
	inner := signature[open+1 : len(signature)-1]
	if inner == "" {
		return nil, nil
	}
	var args abi.Arguments
	for _, name := range strings.Split(inner, ",") {
		typ, err := abi.NewType(name, "", nil)
		if err != nil {
			return nil, err
		}
		args = append(args, abi.Argument{Type: typ})
	}
	return args, nil
}

// Decode extracts the console records from the given log list, in order.
// Records from other addresses are ignored; records with an unknown selector
// or a broken payload are rendered as raw hex rather than dropped.
func Decode(logs []*types.Log) []string {
	var out []string
	for _, log := range logs {
		if log.Address != ConsoleAddress {
			continue
		}
		out = append(out, decodeRecord(log.Data))
	}
	return out
}

func decodeRecord(data []byte) string {
	if len(data) < 4 {
		return rawRecord(data)
	}
	var selector [4]byte
	copy(selector[:], data[:4])
	dec, ok := decoders[selector]
	if !ok {
		return rawRecord(data)
	}
	values, err := dec.arguments.Unpack(data[4:])
	if err != nil {
		return rawRecord(data)
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatValue(v)
	}
	return strings.Join(parts, " ")
}

func formatValue(v interface{}) string {
	switch value := v.(type) {
	case common.Address:
		return value.Hex()
	case []byte:
		return hexutil.Encode(value)
	case [32]byte:
		return hexutil.Encode(value[:])
	case bool:
		return fmt.Sprintf("%t", value)
	default:
		return fmt.Sprintf("%v", value)
	}
}

func rawRecord(data []byte) string {
	return fmt.Sprintf("console.log: %s", hexutil.Encode(data))
}
