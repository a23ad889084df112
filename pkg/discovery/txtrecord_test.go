package discovery_test

import (
	"errors"
	"testing"

	"github.com/lvarbridge/lvarbridge-go/pkg/discovery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeTXT(t *testing.T) {
	info := &discovery.BridgeInfo{
		Port:      4710,
		Capacity:  10,
		ScanEvery: 4,
		Host:      "sim-1",
	}

	txt := discovery.EncodeTXT(info)

	assert.Equal(t, "1", txt[discovery.TXTKeyVersion])
	assert.Equal(t, "10", txt[discovery.TXTKeyCapacity])
	assert.Equal(t, "4", txt[discovery.TXTKeyScanEvery])
	assert.Equal(t, "sim-1", txt[discovery.TXTKeyHost])
}

func TestEncodeTXTOmitsEmptyHost(t *testing.T) {
	txt := discovery.EncodeTXT(&discovery.BridgeInfo{Capacity: 10, ScanEvery: 4})

	_, ok := txt[discovery.TXTKeyHost]
	assert.False(t, ok)
}

func TestDecodeTXTRoundTrip(t *testing.T) {
	in := &discovery.BridgeInfo{Capacity: 10, ScanEvery: 4, Host: "sim-1"}

	strs := discovery.TXTRecordsToStrings(discovery.EncodeTXT(in))
	assert.Equal(t, []string{"h=sim-1", "k=10", "n=4", "v=1"}, strs)

	out, err := discovery.DecodeTXT(discovery.StringsToTXTRecords(strs))
	require.NoError(t, err)
	assert.Equal(t, uint8(discovery.ProtocolVersion), out.Version)
	assert.Equal(t, uint16(10), out.Capacity)
	assert.Equal(t, uint16(4), out.ScanEvery)
	assert.Equal(t, "sim-1", out.Host)
}

func TestDecodeTXTErrors(t *testing.T) {
	tests := []struct {
		name string
		txt  discovery.TXTRecordMap
		want error
	}{
		{"missing version", discovery.TXTRecordMap{"k": "10", "n": "4"}, discovery.ErrMissingRequired},
		{"missing capacity", discovery.TXTRecordMap{"v": "1", "n": "4"}, discovery.ErrMissingRequired},
		{"missing scan", discovery.TXTRecordMap{"v": "1", "k": "10"}, discovery.ErrMissingRequired},
		{"bad capacity", discovery.TXTRecordMap{"v": "1", "k": "ten", "n": "4"}, discovery.ErrInvalidTXTRecord},
		{"capacity overflow", discovery.TXTRecordMap{"v": "1", "k": "70000", "n": "4"}, discovery.ErrInvalidTXTRecord},
		{"future version", discovery.TXTRecordMap{"v": "2", "k": "10", "n": "4"}, discovery.ErrInvalidVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := discovery.DecodeTXT(tt.txt)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestStringsToTXTRecords(t *testing.T) {
	txt := discovery.StringsToTXTRecords([]string{"a=1", "flag", "b=x=y", ""})

	assert.Equal(t, discovery.TXTRecordMap{"a": "1", "flag": "", "b": "x=y"}, txt)
}

func TestBridgeInfoInstanceName(t *testing.T) {
	assert.Equal(t, "LVarBridge-sim-1", (&discovery.BridgeInfo{Host: "sim-1"}).InstanceName())
	assert.Equal(t, "Cockpit", (&discovery.BridgeInfo{Instance: "Cockpit", Host: "sim-1"}).InstanceName())
}
