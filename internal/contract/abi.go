package contract

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// DefaultAddress is the deployed Where Money Moves collection on Plasma.
var DefaultAddress = common.HexToAddress("0xCBE6dF9722be9c40d18ed3d6263e42C74312C441")

// Contract method names.
const (
	MethodCurrentTokenID     = "getCurrentTokenId"
	MethodUserMintedCount    = "getUserMintedCount"
	MethodMintRandomEditions = "mintRandomEditions"
)

const collectionABIJSON = `[
  {"type":"function","name":"getCurrentTokenId","stateMutability":"view",
   "inputs":[],
   "outputs":[{"internalType":"uint256","name":"","type":"uint256"}]},
  {"type":"function","name":"mintRandomEditions","stateMutability":"nonpayable",
   "inputs":[{"internalType":"uint256","name":"quantity","type":"uint256"}],
   "outputs":[]},
  {"type":"function","name":"getUserMintedCount","stateMutability":"view",
   "inputs":[{"internalType":"address","name":"user","type":"address"}],
   "outputs":[{"internalType":"uint256","name":"","type":"uint256"}]}
]`

// CollectionABI is the parsed read/write surface of the collection contract.
var CollectionABI = mustParseABI(collectionABIJSON)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(fmt.Sprintf("parse collection abi: %v", err))
	}
	return parsed
}

// Selector returns the 4-byte method id for name.
func Selector(name string) []byte {
	return CollectionABI.Methods[name].ID
}

// unpackUint reads a single uint256 return value.
func unpackUint(method string, data []byte) (uint64, error) {
	out, err := CollectionABI.Unpack(method, data)
	if err != nil {
		return 0, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(out) != 1 {
		return 0, fmt.Errorf("unpack %s: expected 1 value, got %d", method, len(out))
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("unpack %s: unexpected type %T", method, out[0])
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("unpack %s: value %s overflows uint64", method, v)
	}
	return v.Uint64(), nil
}

// EncodeUint packs v as the return data of a uint256 view method.
// Used by stubs and tests that fake eth_call.
func EncodeUint(method string, v uint64) []byte {
	data, err := CollectionABI.Methods[method].Outputs.Pack(new(big.Int).SetUint64(v))
	if err != nil {
		panic(fmt.Sprintf("pack %s output: %v", method, err))
	}
	return data
}
