package utils

import (
	"crypto/md5"
	"encoding/hex"
)

// BytesMD5 returns the hex MD5 of data, used to correlate uploads in logs
func BytesMD5(data []byte) string {
	hash := md5.Sum(data)
	return hex.EncodeToString(hash[:])
}
