package chainPoller

import (
	"math"
	"strings"
)

type ScanWindow struct {
	StartBlock uint64
	EndBlock   uint64
	// Empty is set when there is nothing new to scan; the window is then
	// collapsed onto the head.
	Empty bool
}

// ComputeScanWindow returns the next inclusive block range to scan. The end is
// capped at start+batchSize and at head, so StartBlock <= EndBlock always holds.
func ComputeScanWindow(lastScanned *uint64, genesisBlock uint64, head uint64, batchSize uint64) ScanWindow {
	start := genesisBlock
	if lastScanned != nil {
		if *lastScanned == math.MaxUint64 {
			return ScanWindow{StartBlock: head, EndBlock: head, Empty: true}
		}
		start = *lastScanned + 1
	}
	if start > head {
		return ScanWindow{StartBlock: head, EndBlock: head, Empty: true}
	}
	end := head
	if batchSize < head-start {
		end = start + batchSize
	}
	return ScanWindow{StartBlock: start, EndBlock: end}
}

// NormalizeTransactionHash drops anything before the first "0x" and lowercases
// the remainder. Hashes without a prefix are returned lowercased.
func NormalizeTransactionHash(txHash string) string {
	txHash = strings.TrimSpace(txHash)
	if idx := strings.Index(strings.ToLower(txHash), "0x"); idx >= 0 {
		txHash = txHash[idx:]
	}
	return strings.ToLower(txHash)
}

func ExplorerTxUrl(explorerUrl string, txHash string) string {
	if explorerUrl == "" {
		return ""
	}
	return strings.TrimRight(explorerUrl, "/") + "/tx/" + txHash
}
