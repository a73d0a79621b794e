package source

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadSeedList reads extra feed URLs from a file, one per line. Blank lines
// and #-comments are skipped. The scanner buffer is widened because pasted
// lines in these lists can be huge.
func LoadSeedList(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed list: %w", err)
	}
	defer file.Close()

	var urls []string
	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read seed list: %w", err)
	}
	return urls, nil
}
