package parser

import (
	"fmt"
	"strings"

	"strata/internal/ast"
	"strata/internal/diag"
	"strata/internal/lexer"
	"strata/internal/source"
	"strata/internal/token"
)

// Parser builds ast.File values from trait declaration sources:
//
//	@attr @attr(arg, "arg")
//	trait Name<X, Y: Bound + module::Other>;
//
// It is error tolerant: a broken declaration is reported and skipped, while a
// broken bound is kept as an ast.TypeParamBound with a missing path so that
// semantic analysis can diagnose it against its trait.
type Parser struct {
	lx       *lexer.Lexer
	fs       *source.FileSet
	file     *source.File
	strings  *source.Interner
	reporter diag.Reporter
	tok      token.Token
}

// ParseFile parses the file registered in fs under id.
func ParseFile(fs *source.FileSet, id source.FileID, strs *source.Interner, reporter diag.Reporter) *ast.File {
	file := fs.Get(id)
	if file == nil {
		panic(fmt.Sprintf("parser: unknown file %d", id))
	}
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	p := &Parser{
		lx:       lexer.New(file, reporter),
		fs:       fs,
		file:     file,
		strings:  strs,
		reporter: reporter,
	}
	p.advance()
	return p.parseFile()
}

func (p *Parser) advance() token.Token {
	prev := p.tok
	p.tok = p.lx.Next()
	return prev
}

func (p *Parser) at(k token.Kind) bool { return p.tok.Kind == k }

func (p *Parser) eat(k token.Kind) (token.Token, bool) {
	if !p.at(k) {
		return p.tok, false
	}
	return p.advance(), true
}

func (p *Parser) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	diag.ReportError(p.reporter, code, sp, fmt.Sprintf(format, args...)).Emit()
}

func (p *Parser) unexpected(what string) {
	p.errorf(diag.SynUnexpectedToken, p.tok.Span, "expected %s, found %s", what, p.tok.Kind)
}

func (p *Parser) parseFile() *ast.File {
	out := &ast.File{Source: p.file.ID}
	for !p.at(token.EOF) {
		attrs := p.parseAttrs()
		if !p.at(token.KwTrait) {
			if len(attrs) > 0 {
				p.errorf(diag.SynAttributeNotAllowed, attrs[0].Span, "attribute is not followed by a trait declaration")
			}
			if !p.at(token.EOF) {
				p.unexpected("'trait'")
				p.recover()
			}
			continue
		}
		if item := p.parseTrait(attrs); item != nil {
			out.Traits = append(out.Traits, item)
		}
	}
	out.Span = source.Span{File: p.file.ID, Start: 0, End: p.tok.Span.End}
	return out
}

// recover skips to the start of the next plausible declaration.
func (p *Parser) recover() {
	for !p.at(token.EOF) {
		switch p.tok.Kind {
		case token.Semicolon:
			p.advance()
			return
		case token.KwTrait, token.At:
			return
		}
		p.advance()
	}
}

func (p *Parser) parseAttrs() []ast.Attr {
	var attrs []ast.Attr
	for p.at(token.At) {
		at := p.advance()
		name, ok := p.eat(token.Ident)
		if !ok {
			p.errorf(diag.SynExpectIdentifier, p.tok.Span, "expected attribute name after '@'")
			continue
		}
		attr := ast.Attr{
			Name: p.strings.Intern(name.Text),
			Span: at.Span.Cover(name.Span),
		}
		if lp, ok := p.eat(token.LParen); ok {
			var end source.Span
			attr.Args, end = p.parseAttrArgs(lp)
			attr.Span = attr.Span.Cover(end)
		}
		attrs = append(attrs, attr)
	}
	return attrs
}

// hereSpan is an empty span at the start of the current token.
func (p *Parser) hereSpan() source.Span {
	return source.Span{File: p.file.ID, Start: p.tok.Span.Start, End: p.tok.Span.Start}
}

// parseAttrArgs reads raw arguments up to the closing paren and returns the
// span of the last consumed token.
func (p *Parser) parseAttrArgs(lp token.Token) ([]ast.AttrArg, source.Span) {
	var args []ast.AttrArg
	var cur source.Span
	end := lp.Span
	flush := func() {
		if cur.File != 0 {
			args = append(args, ast.AttrArg{Text: strings.TrimSpace(p.fs.Text(cur)), Span: cur})
		}
		cur = source.Span{}
	}
	for {
		switch p.tok.Kind {
		case token.RParen:
			flush()
			return args, p.advance().Span
		case token.Comma:
			flush()
			end = p.advance().Span
		case token.EOF, token.Semicolon, token.KwTrait:
			flush()
			p.errorf(diag.SynUnclosedParen, lp.Span, "attribute arguments are not closed")
			return args, end
		default:
			if cur.File == 0 {
				cur = p.tok.Span
			} else {
				cur = cur.Cover(p.tok.Span)
			}
			end = p.advance().Span
		}
	}
}

func (p *Parser) parseTrait(attrs []ast.Attr) *ast.TraitItem {
	kw := p.advance()
	name, ok := p.eat(token.Ident)
	if !ok {
		p.errorf(diag.SynExpectIdentifier, p.tok.Span, "expected trait name, found %s", p.tok.Kind)
		p.recover()
		return nil
	}
	item := &ast.TraitItem{
		Name:     p.strings.Intern(name.Text),
		NameSpan: name.Span,
		Attrs:    attrs,
		Span:     kw.Span.Cover(name.Span),
	}
	if len(attrs) > 0 {
		item.Span = item.Span.Cover(attrs[0].Span)
	}
	if lt, ok := p.eat(token.Lt); ok {
		item.GenericParams = p.parseTypeParams()
		gt, closed := p.eat(token.Gt)
		if !closed {
			p.errorf(diag.SynUnclosedAngleBracket, lt.Span, "generic parameter list is not closed")
			item.GenericsSpan = lt.Span.Cover(p.hereSpan())
			p.recover()
			return item
		}
		item.GenericsSpan = lt.Span.Cover(gt.Span)
		item.Span = item.Span.Cover(gt.Span)
	}
	semi, ok := p.eat(token.Semicolon)
	if !ok {
		p.errorf(diag.SynExpectSemicolon, p.tok.Span, "expected ';' after trait declaration, found %s", p.tok.Kind)
		p.recover()
		return item
	}
	item.Span = item.Span.Cover(semi.Span)
	return item
}

func (p *Parser) parseTypeParams() []ast.TypeParam {
	var params []ast.TypeParam
	for !p.at(token.Gt) {
		name, ok := p.eat(token.Ident)
		if !ok {
			p.unexpected("generic parameter name")
			p.skipParam()
			if _, ok := p.eat(token.Comma); !ok {
				return params
			}
			continue
		}
		param := ast.TypeParam{
			Name:     p.strings.Intern(name.Text),
			NameSpan: name.Span,
			Span:     name.Span,
		}
		if colon, ok := p.eat(token.Colon); ok {
			param.ColonSpan = colon.Span
			p.parseBounds(&param)
			param.Span = param.Span.Cover(colon.Span).Cover(param.BoundsSpan)
		}
		params = append(params, param)

		if p.at(token.Gt) {
			break
		}
		if _, ok := p.eat(token.Comma); !ok {
			p.unexpected("',' or '>'")
			p.skipParam()
			if _, ok := p.eat(token.Comma); !ok {
				return params
			}
		}
	}
	return params
}

// skipParam skips to the next ',' or '>' inside a parameter list.
func (p *Parser) skipParam() {
	for {
		switch p.tok.Kind {
		case token.Comma, token.Gt, token.Semicolon, token.EOF, token.KwTrait:
			return
		}
		p.advance()
	}
}

func (p *Parser) parseBounds(param *ast.TypeParam) {
	param.BoundsSpan = p.hereSpan()
	for {
		bound := p.parseBound()
		param.Bounds = append(param.Bounds, bound)
		param.BoundsSpan = param.BoundsSpan.Cover(bound.Span)
		plus, ok := p.eat(token.Plus)
		if !ok {
			break
		}
		param.PlusSpans = append(param.PlusSpans, plus.Span)
	}
	// `X:` with nothing after the colon has no bounds at all.
	if len(param.Bounds) == 1 && param.Bounds[0].Missing() && param.Bounds[0].Span.Empty() {
		param.Bounds = nil
	}
}

func (p *Parser) parseBound() ast.TypeParamBound {
	if !p.at(token.Ident) {
		sp := p.hereSpan()
		if p.tok.IsLiteral() {
			sp = p.advance().Span
		}
		return ast.TypeParamBound{Path: source.NoStringID, Span: sp}
	}
	first := p.advance()
	sp := first.Span
	parts := []string{first.Text}
	for p.at(token.ColonColon) {
		sep := p.advance()
		seg, ok := p.eat(token.Ident)
		if !ok {
			p.errorf(diag.SynExpectIdentifier, sep.Span, "expected path segment after '::'")
			return ast.TypeParamBound{Path: source.NoStringID, Span: sp.Cover(sep.Span)}
		}
		parts = append(parts, seg.Text)
		sp = sp.Cover(seg.Span)
	}
	return ast.TypeParamBound{Path: p.strings.Intern(strings.Join(parts, "::")), Span: sp}
}
