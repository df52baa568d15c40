// Package util holds small helpers shared by the command line and the
// service layer.
package util

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// AskYN writes prompt to out and reads a yes/no answer from in. An empty
// answer or end of input selects defaultYes.
func AskYN(in io.Reader, out io.Writer, prompt string, defaultYes bool) bool {
	if defaultYes {
		fmt.Fprintf(out, "%s [Y/n]: ", prompt)
	} else {
		fmt.Fprintf(out, "%s [y/N]: ", prompt)
	}

	var response string
	fmt.Fscanln(in, &response)
	response = strings.ToLower(strings.TrimSpace(response))

	if response == "" {
		return defaultYes
	}

	return response == "y" || response == "yes"
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// DirExists checks if a directory exists
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
