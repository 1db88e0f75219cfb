package tokenization

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadVocabLines reads a line-oriented vocabulary, one piece per line. The
// line number defines the id.
func LoadVocabLines(r io.Reader) (*Vocab, error) {
	var pieces []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		pieces = append(pieces, strings.TrimRight(scanner.Text(), "\r\n"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vocabulary: %w", err)
	}
	return NewVocab(pieces), nil
}

// LoadVocabJSON reads a JSON object mapping pieces to ids, as found in
// vocab.json files. Ids that are absent stay unmapped.
func LoadVocabJSON(r io.Reader) (*Vocab, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary: %w", err)
	}
	var raw map[string]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary JSON: %w", err)
	}
	return vocabFromIDMap(raw), nil
}

func vocabFromIDMap(raw map[string]int) *Vocab {
	maxID := -1
	for _, id := range raw {
		if id > maxID {
			maxID = id
		}
	}
	pieces := make([]string, maxID+1)
	for piece, id := range raw {
		if id >= 0 {
			pieces[id] = piece
		}
	}
	return NewVocab(pieces)
}

// LoadMerges reads a line-oriented merge table with two space-separated
// pieces per line. The line order defines merge priority. Comment lines
// starting with '#' (like the "#version" header) are skipped.
func LoadMerges(r io.Reader) ([][2]string, error) {
	var merges [][2]string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid merge rule %q", line)
		}
		merges = append(merges, [2]string{parts[0], parts[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read merges: %w", err)
	}
	return merges, nil
}

func loadVocabLinesFile(path string) (*Vocab, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vocabulary %q: %w", path, err)
	}
	defer f.Close()
	return LoadVocabLines(f)
}

func loadVocabJSONFile(path string) (*Vocab, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vocabulary %q: %w", path, err)
	}
	defer f.Close()
	return LoadVocabJSON(f)
}

func loadMergesFile(path string) ([][2]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open merges %q: %w", path, err)
	}
	defer f.Close()
	return LoadMerges(f)
}
