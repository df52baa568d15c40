package historydb

import (
	"hash/crc32"
	"io"
	"os"
)

// TraceCRC computes the CRC32 (IEEE) of trace content. Two analyses of
// byte-identical traces share a CRC, which lets LatestForTrace spot
// re-analysis of an unchanged file.
func TraceCRC(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// FileCRC computes the CRC32 (IEEE) of the file at path.
func FileCRC(path string) (uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	hash := crc32.NewIEEE()
	if _, err := io.Copy(hash, f); err != nil {
		return 0, err
	}
	return hash.Sum32(), nil
}
