package room

import "math/rand"

// codeAlphabet excludes visually confusable characters (0/O, 1/I).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength is the fixed size of a room code.
const CodeLength = 6

func randomCode() string {
	code := make([]byte, CodeLength)
	for i := range code {
		code[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(code)
}
