package audit

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Tail returns the last n lines of a trail, oldest first.
// A trail that has not been written yet has no lines.
func (t *Trail) Tail(name Name, n int) ([]string, error) {
	path, err := t.Path(name)
	if err != nil || path == "" || n <= 0 {
		return nil, err
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	// The ring grows with the lines actually read, so n only bounds it.
	var ring []string
	count := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if len(ring) < n {
			ring = append(ring, scanner.Text())
		} else {
			ring[count%n] = scanner.Text()
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if count <= n {
		return ring[:count], nil
	}
	start := count % n
	return append(ring[start:], ring[:start]...), nil
}

// Full returns the whole current trail file.
func (t *Trail) Full(name Name) (string, error) {
	path, err := t.Path(name)
	if err != nil || path == "" {
		return "", err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}
