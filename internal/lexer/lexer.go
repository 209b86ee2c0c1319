package lexer

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"fortio.org/safecast"

	"strata/internal/diag"
	"strata/internal/source"
	"strata/internal/token"
)

// Lexer splits a module source file into tokens. Whitespace and `//` line
// comments are skipped.
type Lexer struct {
	file     *source.File
	off      uint32
	limit    uint32
	reporter diag.Reporter
	look     *token.Token // 1 элементный буфер для токена
}

func New(file *source.File, reporter diag.Reporter) *Lexer {
	limit, err := safecast.Conv[uint32](len(file.Content))
	if err != nil {
		panic(fmt.Errorf("len file content overflow: %w", err))
	}
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	return &Lexer{file: file, limit: limit, reporter: reporter}
}

// Next возвращает следующий значимый токен. После EOF всегда возвращает EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}
	for {
		lx.skipTrivia()
		if lx.eof() {
			return token.Token{Kind: token.EOF, Span: lx.spanFrom(lx.off)}
		}
		if tok, ok := lx.scan(); ok {
			return tok
		}
	}
}

// Peek возвращает следующий токен, не потребляя его.
func (lx *Lexer) Peek() token.Token {
	t := lx.Next()
	lx.look = &t
	return t
}

func (lx *Lexer) eof() bool { return lx.off >= lx.limit }

func (lx *Lexer) peekByte(ahead uint32) byte {
	if lx.off+ahead >= lx.limit {
		return 0
	}
	return lx.file.Content[lx.off+ahead]
}

func (lx *Lexer) spanFrom(start uint32) source.Span {
	return source.Span{File: lx.file.ID, Start: start, End: lx.off}
}

func (lx *Lexer) make(kind token.Kind, start uint32) token.Token {
	sp := lx.spanFrom(start)
	return token.Token{Kind: kind, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
}

func (lx *Lexer) skipTrivia() {
	for !lx.eof() {
		ch := lx.peekByte(0)
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			lx.off++
		case ch == '/' && lx.peekByte(1) == '/':
			for !lx.eof() && lx.peekByte(0) != '\n' {
				lx.off++
			}
		default:
			return
		}
	}
}

var punct = map[byte]token.Kind{
	'@': token.At, '<': token.Lt, '>': token.Gt, '+': token.Plus,
	',': token.Comma, '(': token.LParen, ')': token.RParen, ';': token.Semicolon,
}

// scan reads one token; ok is false when an invalid character was skipped.
func (lx *Lexer) scan() (token.Token, bool) {
	start := lx.off
	ch := lx.peekByte(0)

	if kind, ok := punct[ch]; ok {
		lx.off++
		return lx.make(kind, start), true
	}

	switch {
	case ch == ':':
		lx.off++
		if lx.peekByte(0) == ':' {
			lx.off++
			return lx.make(token.ColonColon, start), true
		}
		return lx.make(token.Colon, start), true
	case ch >= '0' && ch <= '9':
		for !lx.eof() && lx.peekByte(0) >= '0' && lx.peekByte(0) <= '9' {
			lx.off++
		}
		return lx.make(token.IntLit, start), true
	case ch == '"':
		return lx.scanString(start), true
	}

	r, size := utf8.DecodeRune(lx.file.Content[lx.off:lx.limit])
	if r == '_' || unicode.IsLetter(r) {
		return lx.scanIdent(start), true
	}

	lx.off += uint32(size) //nolint:gosec // size is at most 4
	diag.ReportError(lx.reporter, diag.LexUnknownChar, lx.spanFrom(start),
		fmt.Sprintf("unexpected character %q", r)).Emit()
	return token.Token{}, false
}

func (lx *Lexer) scanIdent(start uint32) token.Token {
	for !lx.eof() {
		r, size := utf8.DecodeRune(lx.file.Content[lx.off:lx.limit])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		lx.off += uint32(size) //nolint:gosec // size is at most 4
	}
	tok := lx.make(token.Ident, start)
	if kw, ok := token.Keywords[tok.Text]; ok {
		tok.Kind = kw
	}
	return tok
}

func (lx *Lexer) scanString(start uint32) token.Token {
	lx.off++ // opening quote
	for !lx.eof() {
		switch lx.peekByte(0) {
		case '\\':
			lx.off += 2
			continue
		case '"':
			lx.off++
			return lx.make(token.StringLit, start)
		case '\n':
			diag.ReportError(lx.reporter, diag.LexUnknownChar, lx.spanFrom(start), "unterminated string literal").Emit()
			return lx.make(token.StringLit, start)
		}
		lx.off++
	}
	lx.off = lx.limit
	diag.ReportError(lx.reporter, diag.LexUnknownChar, lx.spanFrom(start), "unterminated string literal").Emit()
	return lx.make(token.StringLit, start)
}
