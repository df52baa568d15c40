package log

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/term"
)

// ViewLog copies the log at path to w. When w is the terminal and a pager
// is available the file is shown through it instead.
func ViewLog(w io.Writer, path string) error {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if pager, ok := findPager(); ok {
			return viewWithPager(pager, path)
		}
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("error opening log file: %w", err)
	}
	defer file.Close()

	_, err = io.Copy(w, file)
	return err
}

// findPager resolves $PAGER (default less) on PATH
func findPager() (string, bool) {
	pager := os.Getenv("PAGER")
	if pager == "" {
		pager = "less"
	}
	p, err := exec.LookPath(pager)
	return p, err == nil
}

// viewWithPager views a file using a pager
func viewWithPager(pager, path string) error {
	cmd := exec.Command(pager, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// TailLog writes the last n lines of the log at path to w.
func TailLog(w io.Writer, path string, n int) error {
	lines, err := readLines(path)
	if err != nil {
		return err
	}

	start := max(0, len(lines)-n)
	for _, line := range lines[start:] {
		fmt.Fprintln(w, line)
	}
	return nil
}

// GrepLog writes the numbered lines containing pattern to w and returns
// the number of matches.
func GrepLog(w io.Writer, path, pattern string) (int, error) {
	lines, err := readLines(path)
	if err != nil {
		return 0, err
	}

	matches := 0
	for i, line := range lines {
		if strings.Contains(line, pattern) {
			fmt.Fprintf(w, "%d: %s\n", i+1, line)
			matches++
		}
	}
	return matches, nil
}

// LogSummary counts the entries of each level in the log at path.
func LogSummary(path string) (map[string]int, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}

	summary := make(map[string]int)
	for _, line := range lines {
		for _, level := range []string{LevelDebug, LevelInfo, LevelWarn, LevelError} {
			if strings.Contains(line, " "+level+": ") {
				summary[level]++
				break
			}
		}
	}
	return summary, nil
}

func readLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening log file: %w", err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}
