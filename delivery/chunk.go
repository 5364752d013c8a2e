package delivery

import (
	"context"
	"fmt"
	"unicode/utf8"
)

// Chunk splits text into segments of at most max runes. Slicing happens at fixed
// rune offsets without looking for word boundaries, so concatenating the segments
// reproduces text exactly and every segment but the last holds exactly max runes.
// Empty text yields no segments; max <= 0 disables splitting.
func Chunk(text string, max int) []string {
	if text == "" {
		return nil
	}
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return []string{text}
	}

	segments := make([]string, 0, utf8.RuneCountInString(text)/max+1)
	start, n := 0, 0
	for i := range text {
		if n == max {
			segments = append(segments, text[start:i])
			start, n = i, 0
		}
		n++
	}
	return append(segments, text[start:])
}

// SendChunks chunks text and sends the segments in order, stopping at the first failure.
func SendChunks(ctx context.Context, sink Sink, text string, max int) (int, error) {
	segments := Chunk(text, max)
	for i, s := range segments {
		if err := sink.SendText(ctx, s); err != nil {
			return i, fmt.Errorf("send segment %d/%d failed, err: %w", i+1, len(segments), err)
		}
	}
	return len(segments), nil
}
