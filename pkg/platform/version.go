package platform

import (
	"context"
	"fmt"

	"golang.org/x/mod/semver"
)

// BridgeProtocolVersion is the bridge protocol version this package speaks.
const BridgeProtocolVersion = "v1.1.0"

// MinBridgeProtocolVersion is the oldest native bridge protocol still accepted.
const MinBridgeProtocolVersion = "v1.0.0"

// ErrBridgeIncompatible indicates the native bridge speaks an unsupported
// protocol version.
var ErrBridgeIncompatible = fmt.Errorf("native bridge protocol incompatible")

var bridgeChannel = NewMethodChannel("geokit/bridge")

// VerifyBridge queries the native side for its bridge protocol version and
// checks it against the supported range. Call once at startup after
// SetNativeBridge; a mismatch means the Go and native halves of the kit were
// built from incompatible releases.
// The ctx parameter is currently unused and reserved for future cancellation support.
func VerifyBridge(ctx context.Context) error {
	result, err := bridgeChannel.Invoke("protocolVersion", nil)
	if err != nil {
		return err
	}
	m := parseMap(result)
	if m == nil {
		return fmt.Errorf("%w: malformed version response %T", ErrBridgeIncompatible, result)
	}
	reported := parseString(m["version"])
	return checkBridgeVersion(reported)
}

// checkBridgeVersion validates a reported protocol version string.
// Versions may be reported with or without the leading "v".
func checkBridgeVersion(reported string) error {
	v := reported
	if v != "" && v[0] != 'v' {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return fmt.Errorf("%w: invalid version %q", ErrBridgeIncompatible, reported)
	}
	if semver.Major(v) != semver.Major(BridgeProtocolVersion) {
		return fmt.Errorf("%w: native %s, supported major %s", ErrBridgeIncompatible, v, semver.Major(BridgeProtocolVersion))
	}
	if semver.Compare(v, MinBridgeProtocolVersion) < 0 {
		return fmt.Errorf("%w: native %s older than minimum %s", ErrBridgeIncompatible, v, MinBridgeProtocolVersion)
	}
	return nil
}
