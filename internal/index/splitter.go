package index

import "strings"

// Default separator preference: paragraph, line, sentence, word, then
// anywhere.
var defaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter breaks document text into chunks of at most chunkSize
// characters, overlapping by roughly overlap characters. It prefers to
// split at the coarsest boundary available and only falls back to
// finer ones when a piece is still too long.
type Splitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		chunkSize:  chunkSize,
		overlap:    overlap,
		separators: defaultSeparators,
	}
}

// Split returns the non-empty chunks of text, in order.
func (s *Splitter) Split(text string) []string {
	return s.split(text, s.separators)
}

func (s *Splitter) split(text string, separators []string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if len(text) <= s.chunkSize {
		return []string{strings.TrimSpace(text)}
	}

	sep, rest := pickSeparator(text, separators)
	if sep == "" {
		return s.hardSplit(text)
	}

	var chunks []string
	var pending []string
	for _, piece := range strings.Split(text, sep) {
		if strings.TrimSpace(piece) == "" {
			continue
		}
		if len(piece) <= s.chunkSize {
			pending = append(pending, piece)
			continue
		}
		// Flush what fits, then break the oversized piece at a finer
		// boundary.
		chunks = append(chunks, s.merge(pending, sep)...)
		pending = nil
		chunks = append(chunks, s.split(piece, rest)...)
	}
	chunks = append(chunks, s.merge(pending, sep)...)
	return chunks
}

// pickSeparator returns the first separator present in the text and the
// finer separators remaining after it. The empty separator always
// matches.
func pickSeparator(text string, separators []string) (string, []string) {
	for i, sep := range separators {
		if sep == "" {
			return "", nil
		}
		if strings.Contains(text, sep) {
			return sep, separators[i+1:]
		}
	}
	return "", nil
}

// merge greedily joins pieces back together up to the chunk size,
// carrying trailing pieces into the next chunk as overlap.
func (s *Splitter) merge(pieces []string, sep string) []string {
	var chunks []string
	var current []string
	total := 0

	emit := func() {
		joined := strings.TrimSpace(strings.Join(current, sep))
		if joined != "" {
			chunks = append(chunks, joined)
		}
	}

	for _, piece := range pieces {
		if total > 0 && total+len(sep)+len(piece) > s.chunkSize {
			emit()
			// Keep a tail of previous pieces within the overlap budget.
			for total > s.overlap && len(current) > 0 {
				total -= len(current[0]) + len(sep)
				current = current[1:]
			}
			if total < 0 {
				total = 0
			}
		}
		if total > 0 {
			total += len(sep)
		}
		current = append(current, piece)
		total += len(piece)
	}
	if len(current) > 0 {
		emit()
	}
	return chunks
}

// hardSplit slices text with no boundary preference, stepping by
// chunkSize minus overlap.
func (s *Splitter) hardSplit(text string) []string {
	step := s.chunkSize - s.overlap
	if step <= 0 {
		step = s.chunkSize
	}

	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + s.chunkSize
		if end > len(text) {
			end = len(text)
		}
		chunk := strings.TrimSpace(text[start:end])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(text) {
			break
		}
	}
	return chunks
}
