package cmd

import (
	"bufio"
	"fmt"
	"os"

	"discord-gif/gifopt"
)

// readPath loads one gif from disk
func readPath(p string) ([]byte, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("opening '%s': %w", p, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("'%s' is a directory, pass a single gif file", p)
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("reading '%s': %w", p, err)
	}
	return data, nil
}

// saveGif writes the accepted animation to outPath
func saveGif(outPath string, anim *gifopt.EncodedAnimation) error {
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	// Use buffered writer for better I/O performance
	writer := bufio.NewWriter(out)
	if _, err := writer.Write(anim.Data); err != nil {
		return err
	}
	if err := writer.Flush(); err != nil {
		return err
	}
	return out.Close()
}
