package discovery

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeTXT creates TXT records for bridge discovery.
func EncodeTXT(info *BridgeInfo) TXTRecordMap {
	txt := make(TXTRecordMap)

	version := info.Version
	if version == 0 {
		version = ProtocolVersion
	}

	txt[TXTKeyVersion] = strconv.FormatUint(uint64(version), 10)
	txt[TXTKeyCapacity] = strconv.FormatUint(uint64(info.Capacity), 10)
	txt[TXTKeyScanEvery] = strconv.FormatUint(uint64(info.ScanEvery), 10)

	if info.Host != "" {
		txt[TXTKeyHost] = info.Host
	}

	return txt
}

// DecodeTXT parses TXT records from bridge discovery.
func DecodeTXT(txt TXTRecordMap) (*BridgeInfo, error) {
	info := &BridgeInfo{}

	v, err := requiredUint(txt, TXTKeyVersion, 8)
	if err != nil {
		return nil, err
	}
	if v != ProtocolVersion {
		return nil, fmt.Errorf("%w: %d", ErrInvalidVersion, v)
	}
	info.Version = uint8(v)

	k, err := requiredUint(txt, TXTKeyCapacity, 16)
	if err != nil {
		return nil, err
	}
	info.Capacity = uint16(k)

	n, err := requiredUint(txt, TXTKeyScanEvery, 16)
	if err != nil {
		return nil, err
	}
	info.ScanEvery = uint16(n)

	info.Host = txt[TXTKeyHost]

	return info, nil
}

func requiredUint(txt TXTRecordMap, key string, bits int) (uint64, error) {
	s, ok := txt[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingRequired, key)
	}
	n, err := strconv.ParseUint(s, 10, bits)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidTXTRecord, key, s)
	}
	return n, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to a sorted slice of
// "key=value" strings, the format zeroconf expects.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, k+"="+v)
	}
	sort.Strings(result)
	return result
}

// StringsToTXTRecords parses a slice of "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		key, value, found := strings.Cut(s, "=")
		if found {
			txt[key] = value
		} else if key != "" {
			// Key without value (boolean flag)
			txt[key] = ""
		}
	}
	return txt
}
