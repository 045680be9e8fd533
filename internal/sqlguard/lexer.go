package sqlguard

import (
	"fmt"
	"strings"
)

// tokenType discriminates the token kinds the guard cares about.
type tokenType int

const (
	tokenEOF tokenType = iota
	tokenKeyword
	tokenIdent
	tokenString
	tokenNumber
	tokenSemicolon
	tokenSymbol
)

// token is one lexical unit of the statement.
type token struct {
	typ     tokenType
	literal string
}

// lexer tokenizes a SQL statement just far enough to classify it: it
// understands comments, quoted strings, and quoted identifiers, so keywords
// inside literals are never mistaken for verbs.
type lexer struct {
	input      string
	pos        int
	readPos    int
	ch         byte
	sawComment bool
}

func newLexer(input string) *lexer {
	l := &lexer{input: input}
	l.readChar()
	return l
}

func (l *lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

func (l *lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// next returns the next token, or an error on unterminated strings or
// comments.
func (l *lexer) next() (token, error) {
	if err := l.skipWhitespaceAndComments(); err != nil {
		return token{}, err
	}

	switch {
	case l.ch == 0:
		return token{typ: tokenEOF}, nil
	case l.ch == ';':
		l.readChar()
		return token{typ: tokenSemicolon, literal: ";"}, nil
	case l.ch == '\'':
		s, err := l.readString('\'')
		if err != nil {
			return token{}, err
		}
		return token{typ: tokenString, literal: s}, nil
	case l.ch == '"':
		s, err := l.readString('"')
		if err != nil {
			return token{}, err
		}
		return token{typ: tokenIdent, literal: s}, nil
	case isLetter(l.ch):
		word := l.readWord()
		if isKeyword(word) {
			return token{typ: tokenKeyword, literal: strings.ToUpper(word)}, nil
		}
		return token{typ: tokenIdent, literal: word}, nil
	case isDigit(l.ch):
		return token{typ: tokenNumber, literal: l.readNumber()}, nil
	default:
		ch := l.ch
		l.readChar()
		return token{typ: tokenSymbol, literal: string(ch)}, nil
	}
}

func (l *lexer) skipWhitespaceAndComments() error {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r':
			l.readChar()
		case l.ch == '-' && l.peekChar() == '-':
			l.sawComment = true
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		case l.ch == '/' && l.peekChar() == '*':
			l.sawComment = true
			l.readChar()
			l.readChar()
			for {
				if l.ch == 0 {
					return fmt.Errorf("unterminated block comment")
				}
				if l.ch == '*' && l.peekChar() == '/' {
					l.readChar()
					l.readChar()
					break
				}
				l.readChar()
			}
		default:
			return nil
		}
	}
}

// readString consumes a quoted region. Doubled quote characters escape the
// quote, per SQL.
func (l *lexer) readString(quote byte) (string, error) {
	l.readChar() // consume opening quote
	var b strings.Builder
	for {
		if l.ch == 0 {
			return "", fmt.Errorf("unterminated quoted %s", quoteKind(quote))
		}
		if l.ch == quote {
			if l.peekChar() == quote {
				b.WriteByte(quote)
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar() // consume closing quote
			return b.String(), nil
		}
		b.WriteByte(l.ch)
		l.readChar()
	}
}

func quoteKind(quote byte) string {
	if quote == '\'' {
		return "string"
	}
	return "identifier"
}

func (l *lexer) readWord() string {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

func (l *lexer) readNumber() string {
	start := l.pos
	for isDigit(l.ch) || l.ch == '.' || l.ch == 'e' || l.ch == 'E' ||
		((l.ch == '+' || l.ch == '-') && (l.input[l.pos-1] == 'e' || l.input[l.pos-1] == 'E')) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

func isLetter(ch byte) bool {
	return ch == '_' || ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
