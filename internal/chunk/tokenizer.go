package chunk

import "strings"

// Tokenize splits text into whitespace-delimited tokens.
//
// The same tokenizer is used for chunk windowing and for measuring chunk
// sizes, so a chunk's token count is exactly the number of words it holds.
// Tokens keep their original case; lowercasing is the lexical index's
// analyzer's job.
func Tokenize(text string) []string {
	return strings.Fields(text)
}
