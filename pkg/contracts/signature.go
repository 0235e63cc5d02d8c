package contracts

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// CanonicalSignature renders name(type1,type2,...) with tuples expanded
// recursively, e.g. Batch((address,uint256)[],uint8).
func CanonicalSignature(name string, inputs abi.Arguments) string {
	types := make([]string, 0, len(inputs))
	for _, input := range inputs {
		types = append(types, FormatType(input.Type))
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(types, ","))
}

func FormatType(t abi.Type) string {
	switch t.T {
	case abi.TupleTy:
		elems := make([]string, 0, len(t.TupleElems))
		for _, elem := range t.TupleElems {
			elems = append(elems, FormatType(*elem))
		}
		return "(" + strings.Join(elems, ",") + ")"
	case abi.SliceTy:
		return FormatType(*t.Elem) + "[]"
	case abi.ArrayTy:
		return fmt.Sprintf("%s[%d]", FormatType(*t.Elem), t.Size)
	default:
		return t.String()
	}
}

func TopicForSignature(signature string) common.Hash {
	return crypto.Keccak256Hash([]byte(signature))
}
