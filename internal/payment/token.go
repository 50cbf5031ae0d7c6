package payment

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strconv"
)

// AuthToken builds the Auth-Token header value:
// base64("app_code;timestamp;sha256hex(app_key + timestamp)").
func AuthToken(appCode, appKey string, unixTimestamp int64) string {
	ts := strconv.FormatInt(unixTimestamp, 10)
	sum := sha256.Sum256([]byte(appKey + ts))
	raw := appCode + ";" + ts + ";" + hex.EncodeToString(sum[:])
	return base64.StdEncoding.EncodeToString([]byte(raw))
}
