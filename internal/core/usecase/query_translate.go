package usecase

import (
	"strings"
	"unicode"
)

// MatchAllQuery is the lexical expression matching every document.
const MatchAllQuery = "*"

const lexicalReservedChars = `+-=!(){}[]^~?:\/`

// TranslateLexicalQuery rewrites free-form user input into BM25 query syntax.
// Quoted phrases stay atomic, AND/OR are re-emitted uppercase, consecutive terms are
// joined with an implicit OR and reserved characters are escaped (the prefix wildcard *
// survives). It never fails: input without any term yields MatchAllQuery.
func TranslateLexicalQuery(raw string) string {
	parts := make([]string, 0, 8)
	lastWasTerm := false
	for _, token := range tokenizeLexicalQuery(raw) {
		if op, ok := booleanOperator(token); ok {
			// Dangling or repeated operators carry no meaning.
			if lastWasTerm {
				parts = append(parts, op)
				lastWasTerm = false
			}
			continue
		}
		if lastWasTerm {
			parts = append(parts, "OR")
		}
		if token.phrase {
			parts = append(parts, `"`+token.text+`"`)
		} else {
			parts = append(parts, escapeLexicalTerm(token.text))
		}
		lastWasTerm = true
	}
	if len(parts) > 0 && !lastWasTerm {
		parts = parts[:len(parts)-1]
	}
	if len(parts) == 0 {
		return MatchAllQuery
	}
	return strings.Join(parts, " ")
}

type lexicalToken struct {
	text   string
	phrase bool
}

func tokenizeLexicalQuery(raw string) []lexicalToken {
	var (
		tokens   []lexicalToken
		current  strings.Builder
		inQuotes bool
	)
	flush := func(phrase bool) {
		text := current.String()
		current.Reset()
		if phrase {
			text = strings.TrimSpace(text)
		}
		if text == "" {
			return
		}
		tokens = append(tokens, lexicalToken{text: text, phrase: phrase})
	}

	for _, r := range raw {
		switch {
		case r == '"':
			flush(inQuotes)
			inQuotes = !inQuotes
		case unicode.IsSpace(r) && !inQuotes:
			flush(false)
		default:
			current.WriteRune(r)
		}
	}
	// An unterminated quote still yields a phrase.
	flush(inQuotes)
	return tokens
}

func booleanOperator(token lexicalToken) (string, bool) {
	if token.phrase {
		return "", false
	}
	switch strings.ToUpper(token.text) {
	case "AND":
		return "AND", true
	case "OR":
		return "OR", true
	}
	return "", false
}

func escapeLexicalTerm(term string) string {
	var b strings.Builder
	b.Grow(len(term))
	for _, r := range term {
		if strings.ContainsRune(lexicalReservedChars, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
