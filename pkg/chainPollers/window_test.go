package chainPoller

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(v uint64) *uint64 { return &v }

func TestComputeScanWindow(t *testing.T) {
	tests := []struct {
		name     string
		last     *uint64
		genesis  uint64
		head     uint64
		batch    uint64
		expected ScanWindow
	}{
		{"first scan from genesis", nil, 1, 1000, 500, ScanWindow{StartBlock: 1, EndBlock: 501}},
		{"second scan clamps to head", ptr(501), 1, 1000, 500, ScanWindow{StartBlock: 502, EndBlock: 1000}},
		{"caught up", ptr(1000), 1, 1000, 500, ScanWindow{StartBlock: 1000, EndBlock: 1000, Empty: true}},
		{"cursor ahead of head", ptr(1200), 1, 1000, 500, ScanWindow{StartBlock: 1000, EndBlock: 1000, Empty: true}},
		{"genesis beyond head", nil, 2000, 1000, 500, ScanWindow{StartBlock: 1000, EndBlock: 1000, Empty: true}},
		{"single block", ptr(999), 1, 1000, 500, ScanWindow{StartBlock: 1000, EndBlock: 1000}},
		{"zero batch", ptr(10), 1, 1000, 0, ScanWindow{StartBlock: 11, EndBlock: 11}},
		{"exact fit", ptr(0), 0, 501, 500, ScanWindow{StartBlock: 1, EndBlock: 501}},
		{"cursor at max block does not wrap", ptr(math.MaxUint64), 1, 1000, 500, ScanWindow{StartBlock: 1000, EndBlock: 1000, Empty: true}},
		{"cursor at max block with max head", ptr(math.MaxUint64), 1, math.MaxUint64, 500, ScanWindow{StartBlock: math.MaxUint64, EndBlock: math.MaxUint64, Empty: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			window := ComputeScanWindow(tt.last, tt.genesis, tt.head, tt.batch)
			assert.Equal(t, tt.expected, window)
			assert.LessOrEqual(t, window.StartBlock, window.EndBlock)
		})
	}
}

func TestNormalizeTransactionHash(t *testing.T) {
	assert.Equal(t, "0xabcdef", NormalizeTransactionHash("0xABCDEF"))
	assert.Equal(t, "0xabc", NormalizeTransactionHash("prefix-0xabc"))
	assert.Equal(t, "0xabc", NormalizeTransactionHash("  0XAbc "))
	assert.Equal(t, "abc", NormalizeTransactionHash("ABC"))
}

func TestExplorerTxUrl(t *testing.T) {
	assert.Equal(t, "https://sepolia.etherscan.io/tx/0xabc", ExplorerTxUrl("https://sepolia.etherscan.io/", "0xabc"))
	assert.Equal(t, "https://sepolia.etherscan.io/tx/0xabc", ExplorerTxUrl("https://sepolia.etherscan.io", "0xabc"))
	assert.Equal(t, "", ExplorerTxUrl("", "0xabc"))
}
