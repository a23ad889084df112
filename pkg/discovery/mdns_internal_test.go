package discovery

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/enbility/zeroconf/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntry(instance string, ips ...string) *zeroconf.ServiceEntry {
	e := &zeroconf.ServiceEntry{}
	e.Instance = instance
	e.HostName = "sim.local."
	e.Port = 4710
	e.Text = []string{"v=1", "k=10", "n=4", "h=sim"}
	for _, s := range ips {
		ip := net.ParseIP(s)
		if ip.To4() != nil {
			e.AddrIPv4 = append(e.AddrIPv4, ip)
		} else {
			e.AddrIPv6 = append(e.AddrIPv6, ip)
		}
	}
	return e
}

func TestEntryToService(t *testing.T) {
	svc := entryToService(testEntry("LVarBridge-sim", "192.168.1.10", "fe80::1"))
	require.NotNil(t, svc)

	assert.Equal(t, "LVarBridge-sim", svc.InstanceName)
	assert.Equal(t, "sim.local.", svc.Host)
	assert.Equal(t, uint16(4710), svc.Port)
	assert.Equal(t, []string{"192.168.1.10", "fe80::1"}, svc.Addresses)
	assert.Equal(t, uint16(10), svc.Capacity)
	assert.Equal(t, uint16(4), svc.ScanEvery)
	assert.Equal(t, "sim", svc.HostName)
	assert.Equal(t, "192.168.1.10:4710", svc.DialAddress())
}

func TestEntryToServiceRejectsBadTXT(t *testing.T) {
	e := testEntry("other", "10.0.0.1")
	e.Text = []string{"v=9"}

	assert.Nil(t, entryToService(e))
}

func TestMergeAndRemoveAddresses(t *testing.T) {
	addrs := mergeAddresses([]string{"10.0.0.1"}, []string{"10.0.0.1", "10.0.0.2"})
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, addrs)

	addrs = removeAddresses(addrs, testEntry("x", "10.0.0.1"))
	assert.Equal(t, []string{"10.0.0.2"}, addrs)
}

func TestAggregateEmitsEachInstanceOnce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)
	out := make(chan *BridgeService, 4)
	done := make(chan struct{})

	go func() {
		aggregate(ctx, entries, removed, out)
		close(done)
	}()

	entries <- testEntry("A", "10.0.0.1")
	entries <- testEntry("A", "10.0.0.2")
	entries <- testEntry("B", "10.0.0.3")
	close(entries)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("aggregate did not return after entries closed")
	}
	close(out)

	var got []*BridgeService
	for svc := range out {
		got = append(got, svc)
	}
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].InstanceName)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, got[0].Addresses)
	assert.Equal(t, "B", got[1].InstanceName)
}

func TestAggregateForgetsRemovedInstance(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)
	out := make(chan *BridgeService, 4)
	done := make(chan struct{})

	go func() {
		aggregate(ctx, entries, removed, out)
		close(done)
	}()

	entries <- testEntry("A", "10.0.0.1")
	removed <- testEntry("A", "10.0.0.1")
	entries <- testEntry("A", "10.0.0.1")

	assert.Eventually(t, func() bool { return len(out) == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestAdvertiserStopWithoutAdvertise(t *testing.T) {
	adv, err := NewMDNSAdvertiser(DefaultAdvertiserConfig())
	require.NoError(t, err)

	assert.ErrorIs(t, adv.Stop(), ErrNotAdvertising)
	assert.False(t, adv.Advertising())
}

func TestAdvertiseRejectsLongInstance(t *testing.T) {
	adv, err := NewMDNSAdvertiser(DefaultAdvertiserConfig())
	require.NoError(t, err)

	long := make([]byte, MaxInstanceNameLength+1)
	for i := range long {
		long[i] = 'x'
	}

	err = adv.Advertise(context.Background(), &BridgeInfo{Instance: string(long)})
	assert.ErrorIs(t, err, ErrInstanceNameTooLong)
}

func TestBrowseAfterStop(t *testing.T) {
	b, err := NewMDNSBrowser(DefaultBrowserConfig())
	require.NoError(t, err)

	b.Stop()
	_, err = b.Browse(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
}
