package hydra

import "github.com/hashicorp/go-multierror"

// This file implements spec §4.2. The shape — a cursor over a token
// stream with peek/match/expect helpers and a recursive-descent
// statement dispatch — is the same shape clarete-langlang/go's
// grammar_parser.go and grammar_parser_wirth.go use for a PEG grammar
// source; here the grammar itself is fixed (Hydra's own), and the
// token stream is pre-split into indentation-bearing Lines (spec
// §3.2) rather than a flat rune stream, so layout (§4.2.1) replaces
// that PEG parser's `{` `}` grammar-rule delimiters entirely.

// Parser consumes a slice of non-blank Lines destructively: advancing
// past a line drops it, mirroring spec §4.2.1's "advance_line drops
// the current line".
type Parser struct {
	path  string
	lines []Line
	li    int
	ti    int
}

// Parse runs the lexer then the parser over source text, producing a
// Chunk (spec §6.3's `parse` entry point, used by api.go's
// RunWithGlobals).
func Parse(path, source string) (*Chunk, error) {
	lx := NewLexer(path, source)
	rawLines, err := lx.Lex()
	if err != nil {
		return nil, err
	}
	lines := make([]Line, 0, len(rawLines))
	for _, l := range rawLines {
		if !l.Empty() {
			lines = append(lines, l)
		}
	}

	p := &Parser{path: path, lines: lines}
	stmts, err := p.parseTopLevelBody(0)
	if err != nil {
		return nil, err
	}
	if !p.eof() {
		return nil, p.unexpected()
	}

	lnEnd := 0
	if len(lines) > 0 {
		lnEnd = lines[len(lines)-1].Ln
	}
	return &Chunk{Body: &Block{Stmts: stmts, Pos: Span(path, 0, lnEnd, 0, 0)}, Path: path}, nil
}

// ---- cursor primitives (spec §4.2.1) ----

func (p *Parser) eof() bool { return p.li >= len(p.lines) }

func (p *Parser) curLine() *Line { return &p.lines[p.li] }

func (p *Parser) eol() bool { return p.eof() || p.ti >= len(p.curLine().Tokens) }

func (p *Parser) advanceLine() {
	p.li++
	p.ti = 0
}

func (p *Parser) peek() (Token, bool) {
	if p.eol() {
		return Token{}, false
	}
	return p.curLine().Tokens[p.ti].Value, true
}

func (p *Parser) peekKind() TokenKind {
	t, ok := p.peek()
	if !ok {
		return -1
	}
	return t.Kind
}

func (p *Parser) advance() Token {
	t := p.curLine().Tokens[p.ti].Value
	p.ti++
	return t
}

func (p *Parser) check(k TokenKind) bool {
	t, ok := p.peek()
	return ok && t.Kind == k
}

func (p *Parser) match(k TokenKind) (Token, bool) {
	if p.check(k) {
		return p.advance(), true
	}
	return Token{}, false
}

// here returns the position of the next unconsumed token, or a
// synthetic end-of-line/end-of-file position when none remains.
func (p *Parser) here() Position {
	if !p.eol() {
		return p.curLine().Tokens[p.ti].Value.Pos
	}
	if !p.eof() {
		return NewPosition(p.path, p.curLine().Ln, p.curLine().Indent)
	}
	ln := 0
	if len(p.lines) > 0 {
		ln = p.lines[len(p.lines)-1].Ln
	}
	return NewPosition(p.path, ln, 0)
}

func (p *Parser) unexpected() *ParseError {
	if p.eof() {
		return &ParseError{K: UnexpectedEOF, Pos: p.here()}
	}
	if p.eol() {
		return &ParseError{K: UnexpectedEOL, Pos: p.here()}
	}
	t, _ := p.peek()
	return &ParseError{K: UnexpectedToken, Got: t.String(), Pos: p.here()}
}

func (p *Parser) expect(k TokenKind) (Token, error) {
	if t, ok := p.match(k); ok {
		return t, nil
	}
	if p.eof() {
		return Token{}, &ParseError{K: UnexpectedEOF, Expected: k.String(), Pos: p.here()}
	}
	if p.eol() {
		return Token{}, &ParseError{K: UnexpectedEOL, Expected: k.String(), Pos: p.here()}
	}
	t, _ := p.peek()
	return Token{}, &ParseError{K: ExpectedToken, Expected: k.String(), Got: t.String(), Pos: p.here()}
}

func (p *Parser) expectEOL() error {
	if p.eol() {
		return nil
	}
	t, _ := p.peek()
	return &ParseError{K: ExpectedNewLine, Got: t.String(), Pos: t.Pos}
}

func spanOf(a, b Position) Position {
	return Span(a.Path, a.LnStart, b.LnEnd, a.ColStart, b.ColEnd)
}

// ---- block rule (spec §4.2.1) ----

// parseBlock implements "a block is introduced by expect_eol +
// advance_line; the new line's indent must be strictly greater than
// the parent's indent ... the block ends when the next line's indent
// falls back to <= parent indent."
func (p *Parser) parseBlock(parentIndent int) (*Block, error) {
	if err := p.expectEOL(); err != nil {
		return nil, err
	}
	headerLn := 0
	if !p.eof() {
		headerLn = p.curLine().Ln
	}
	p.advanceLine()
	if p.eof() || p.curLine().Indent <= parentIndent {
		return nil, &ParseError{K: ExpectedIndentedBlock, Pos: NewPosition(p.path, headerLn, 0)}
	}
	blockIndent := p.curLine().Indent
	stmts, err := p.parseBlockBody(blockIndent)
	if err != nil {
		return nil, err
	}
	endLn := headerLn
	if len(stmts) > 0 {
		endLn = stmts[len(stmts)-1].Position().LnEnd
	}
	return &Block{Stmts: stmts, Pos: Span(p.path, headerLn, endLn, 0, 0)}, nil
}

func (p *Parser) parseBlockBody(indent int) ([]Statement, error) {
	var stmts []Statement
	for !p.eof() && p.curLine().Indent == indent {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

// parseTopLevelBody is parseBlockBody for the chunk's outermost scope,
// except it doesn't stop at the first bad statement: it resyncs to the
// next sibling line and keeps going, aggregating every error it finds.
// This is the same error-accumulation spirit as clarete-langlang's PEG
// parser, which keeps trying alternatives past a failure so it can
// report the furthest one reached; Hydra's grammar has no alternatives
// to retry, so recovery instead means skipping to the next statement
// boundary. Nested blocks (if/while/fn bodies, via parseBlock) still
// stop at the first error, since a single bad line inside a block
// usually desyncs the surrounding indentation too badly to recover
// from productively.
func (p *Parser) parseTopLevelBody(indent int) ([]Statement, error) {
	var stmts []Statement
	var errs *multierror.Error
	for !p.eof() && p.curLine().Indent == indent {
		startLi := p.li
		stmt, err := p.parseStatement()
		if err != nil {
			errs = multierror.Append(errs, err)
			p.resync(indent, startLi)
			continue
		}
		stmts = append(stmts, stmt)
	}
	if errs != nil {
		// A lone error is returned as is, not wrapped.
		if len(errs.Errors) == 1 {
			return nil, errs.Errors[0]
		}
		return nil, errs
	}
	return stmts, nil
}

// resync skips to the next sibling line at indent, guaranteeing
// progress even when parseStatement failed without consuming any
// tokens.
func (p *Parser) resync(indent, startLi int) {
	if p.li == startLi {
		p.li++
		p.ti = 0
	}
	for !p.eof() && p.curLine().Indent > indent {
		p.li++
		p.ti = 0
	}
}

// matchElse consumes a sibling `else` line at parentIndent, if
// present, leaving the parser positioned to call parseBlock next.
func (p *Parser) matchElse(parentIndent int) bool {
	if p.eof() || p.curLine().Indent != parentIndent || p.peekKind() != TElse {
		return false
	}
	p.advance()
	return true
}

// ---- statements (spec §4.2.2) ----

func (p *Parser) parseStatement() (Statement, error) {
	parentIndent := p.curLine().Indent
	startPos := p.here()

	switch p.peekKind() {
	case TLet:
		return p.parseLet(startPos)
	case TFn:
		return p.parseFn(startPos, parentIndent)
	case TReturn:
		return p.parseReturn(startPos)
	case TIf:
		return p.parseIf(startPos, parentIndent)
	case TWhile:
		return p.parseWhile(startPos, parentIndent)
	case TFor:
		return p.parseFor(startPos, parentIndent)
	case TContinue:
		p.advance()
		if err := p.expectEOL(); err != nil {
			return nil, err
		}
		p.advanceLine()
		return &ContinueStmt{Pos: startPos}, nil
	case TBreak:
		p.advance()
		if err := p.expectEOL(); err != nil {
			return nil, err
		}
		p.advanceLine()
		return &BreakStmt{Pos: startPos}, nil
	case TIdent:
		return p.parseIdentStatement(startPos)
	}
	return nil, p.unexpected()
}

func (p *Parser) parseLet(startPos Position) (Statement, error) {
	p.advance() // 'let'
	param, err := p.parseParameter()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TAssign); err != nil {
		return nil, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	end := expr.Position()
	if err := p.expectEOL(); err != nil {
		return nil, err
	}
	p.advanceLine()
	return &LetBinding{Param: param, Expr: expr, Pos: spanOf(startPos, end)}, nil
}

func (p *Parser) parseFn(startPos Position, parentIndent int) (Statement, error) {
	p.advance() // 'fn'
	nameTok, err := p.expect(TIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TLParen); err != nil {
		return nil, err
	}
	var params []Parameter
	varargs := ""
	for !p.check(TRParen) {
		if _, ok := p.match(TDotDotDot); ok {
			id, err := p.expect(TIdent)
			if err != nil {
				return nil, err
			}
			varargs = id.Text
			break
		}
		param, err := p.parseParameter()
		if err != nil {
			return nil, err
		}
		params = append(params, param)
		if _, ok := p.match(TComma); !ok {
			break
		}
	}
	if _, err := p.expect(TRParen); err != nil {
		return nil, err
	}
	body, err := p.parseBlock(parentIndent)
	if err != nil {
		return nil, err
	}
	return &FnStmt{Name: nameTok.Text, Params: params, Varargs: varargs, Body: body, Pos: spanOf(startPos, body.Pos)}, nil
}

func (p *Parser) parseReturn(startPos Position) (Statement, error) {
	p.advance() // 'return'
	var expr Expression
	if !p.eol() {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		expr = e
	}
	end := startPos
	if expr != nil {
		end = expr.Position()
	}
	if err := p.expectEOL(); err != nil {
		return nil, err
	}
	p.advanceLine()
	return &ReturnStmt{Expr: expr, Pos: spanOf(startPos, end)}, nil
}

func (p *Parser) parseIf(startPos Position, parentIndent int) (Statement, error) {
	p.advance() // 'if'
	if _, ok := p.match(TLet); ok {
		param, err := p.parseParameter()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TAssign); err != nil {
			return nil, err
		}
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		caseBlock, err := p.parseBlock(parentIndent)
		if err != nil {
			return nil, err
		}
		var elseBlock *Block
		if p.matchElse(parentIndent) {
			elseBlock, err = p.parseBlock(parentIndent)
			if err != nil {
				return nil, err
			}
		}
		end := caseBlock.Pos
		if elseBlock != nil {
			end = elseBlock.Pos
		}
		return &IfLetStmt{Param: param, Expr: expr, Case: caseBlock, Else: elseBlock, Pos: spanOf(startPos, end)}, nil
	}

	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	caseBlock, err := p.parseBlock(parentIndent)
	if err != nil {
		return nil, err
	}
	var elseBlock *Block
	if p.matchElse(parentIndent) {
		elseBlock, err = p.parseBlock(parentIndent)
		if err != nil {
			return nil, err
		}
	}
	end := caseBlock.Pos
	if elseBlock != nil {
		end = elseBlock.Pos
	}
	return &IfStmt{Cond: cond, Case: caseBlock, Else: elseBlock, Pos: spanOf(startPos, end)}, nil
}

func (p *Parser) parseWhile(startPos Position, parentIndent int) (Statement, error) {
	p.advance() // 'while'
	if _, ok := p.match(TLet); ok {
		param, err := p.parseParameter()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TAssign); err != nil {
			return nil, err
		}
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		body, err := p.parseBlock(parentIndent)
		if err != nil {
			return nil, err
		}
		return &WhileLetStmt{Param: param, Expr: expr, Body: body, Pos: spanOf(startPos, body.Pos)}, nil
	}

	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock(parentIndent)
	if err != nil {
		return nil, err
	}
	return &WhileStmt{Cond: cond, Body: body, Pos: spanOf(startPos, body.Pos)}, nil
}

func (p *Parser) parseFor(startPos Position, parentIndent int) (Statement, error) {
	p.advance() // 'for'
	param, err := p.parseParameter()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TIn); err != nil {
		return nil, err
	}
	iter, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock(parentIndent)
	if err != nil {
		return nil, err
	}
	return &ForStmt{Param: param, Iter: iter, Body: body, Pos: spanOf(startPos, body.Pos)}, nil
}

// parseIdentStatement implements "identifier-initial -> parse a Path;
// then if the next token is an assign-operator parse Assign; if `(`
// parse Call; if `:` parse SelfCall" (spec §4.2.2).
func (p *Parser) parseIdentStatement(startPos Position) (Statement, error) {
	path, err := p.parsePath()
	if err != nil {
		return nil, err
	}

	switch {
	case p.isAssignOp():
		op := p.advanceAssignOp()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		end := expr.Position()
		if err := p.expectEOL(); err != nil {
			return nil, err
		}
		p.advanceLine()
		return &Assign{Op: op, Target: path, Expr: expr, Pos: spanOf(startPos, end)}, nil

	case p.check(TLParen):
		p.advance()
		args, end, err := p.parseExprList(TRParen)
		if err != nil {
			return nil, err
		}
		call := &CallExpr{Head: path, Args: args, Pos: spanOf(startPos, end)}
		if err := p.expectEOL(); err != nil {
			return nil, err
		}
		p.advanceLine()
		return &CallStmt{Call: call, Pos: call.Pos}, nil

	case p.check(TColon):
		p.advance()
		fieldTok, err := p.expect(TIdent)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TLParen); err != nil {
			return nil, err
		}
		args, end, err := p.parseExprList(TRParen)
		if err != nil {
			return nil, err
		}
		call := &SelfCallExpr{Head: path, Field: fieldTok.Text, Args: args, Pos: spanOf(startPos, end)}
		if err := p.expectEOL(); err != nil {
			return nil, err
		}
		p.advanceLine()
		return &SelfCallStmt{Call: call, Pos: call.Pos}, nil
	}
	return nil, p.unexpected()
}

// parsePath parses spec §3.3's restricted Ident|Field|Index shape
// used as an assignment target (no call/self-call in the chain).
func (p *Parser) parsePath() (Expression, error) {
	startPos := p.here()
	idTok, err := p.expect(TIdent)
	if err != nil {
		return nil, err
	}
	var expr Expression = &IdentExpr{Name: idTok.Text, Pos: idTok.Pos}
	for {
		if _, ok := p.match(TDot); ok {
			fieldTok, err := p.expect(TIdent)
			if err != nil {
				return nil, err
			}
			expr = &FieldExpr{Head: expr, Field: fieldTok.Text, Pos: spanOf(startPos, fieldTok.Pos)}
			continue
		}
		if _, ok := p.match(TLBracket); ok {
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			end, err := p.expect(TRBracket)
			if err != nil {
				return nil, err
			}
			expr = &IndexExpr{Head: expr, Index: idx, Pos: spanOf(startPos, end.Pos)}
			continue
		}
		return expr, nil
	}
}

func (p *Parser) isAssignOp() bool {
	switch p.peekKind() {
	case TAssign, TPlusEq, TMinusEq, TStarEq, TSlashEq, TPercentEq, TCaretEq:
		return true
	}
	return false
}

func (p *Parser) advanceAssignOp() AssignOp {
	switch p.advance().Kind {
	case TAssign:
		return ANone
	case TPlusEq:
		return AAdd
	case TMinusEq:
		return ASub
	case TStarEq:
		return AMul
	case TSlashEq:
		return ADiv
	case TPercentEq:
		return AMod
	case TCaretEq:
		return APow
	}
	panic("unreachable assign token")
}

func (p *Parser) parseExprList(close TokenKind) ([]Expression, Position, error) {
	var exprs []Expression
	for !p.check(close) {
		e, err := p.parseExpr()
		if err != nil {
			return nil, Position{}, err
		}
		exprs = append(exprs, e)
		if _, ok := p.match(TComma); !ok {
			break
		}
	}
	end, err := p.expect(close)
	if err != nil {
		return nil, Position{}, err
	}
	return exprs, end.Pos, nil
}

// ---- parameter patterns (spec §4.2.4) ----

func (p *Parser) parseParameter() (Parameter, error) {
	startPos := p.here()
	switch p.peekKind() {
	case TIdent:
		t := p.advance()
		return &IdentParam{Name: t.Text, Pos: t.Pos}, nil

	case TLParen:
		p.advance()
		names, end, err := p.parseParamList(TRParen)
		if err != nil {
			return nil, err
		}
		return &TupleParam{Names: names, Pos: spanOf(startPos, end)}, nil

	case TLBracket:
		p.advance()
		names, end, err := p.parseParamList(TRBracket)
		if err != nil {
			return nil, err
		}
		return &VectorParam{Names: names, Pos: spanOf(startPos, end)}, nil

	case TLBrace:
		p.advance()
		var names []string
		for !p.check(TRBrace) {
			id, err := p.expect(TIdent)
			if err != nil {
				return nil, err
			}
			names = append(names, id.Text)
			if _, ok := p.match(TComma); !ok {
				break
			}
		}
		end, err := p.expect(TRBrace)
		if err != nil {
			return nil, err
		}
		return &MapParam{Names: names, Pos: spanOf(startPos, end.Pos)}, nil
	}
	return nil, p.unexpected()
}

func (p *Parser) parseParamList(close TokenKind) ([]Parameter, Position, error) {
	var params []Parameter
	for !p.check(close) {
		param, err := p.parseParameter()
		if err != nil {
			return nil, Position{}, err
		}
		params = append(params, param)
		if _, ok := p.match(TComma); !ok {
			break
		}
	}
	end, err := p.expect(close)
	if err != nil {
		return nil, Position{}, err
	}
	return params, end.Pos, nil
}

// ---- expressions — precedence climb (spec §4.2.3) ----

func (p *Parser) parseExpr() (Expression, error) { return p.parseOr() }

// tier 1: and/or
func (p *Parser) parseOr() (Expression, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for {
		var op BinOp
		switch p.peekKind() {
		case TAnd:
			op = BAnd
		case TOr:
			op = BOr
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, L: left, R: right, Pos: spanOf(left.Position(), right.Position())}
	}
}

// tier 2: == != < > <= >= is in
func (p *Parser) parseComparison() (Expression, error) {
	left, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	for {
		var op BinOp
		switch p.peekKind() {
		case TEq:
			op = BEq
		case TNeq:
			op = BNeq
		case TLt:
			op = BLt
		case TGt:
			op = BGt
		case TLe:
			op = BLe
		case TGe:
			op = BGe
		case TIs:
			op = BIs
		case TIn:
			op = BIn
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseAdd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, L: left, R: right, Pos: spanOf(left.Position(), right.Position())}
	}
}

// tier 3: + -
func (p *Parser) parseAdd() (Expression, error) {
	left, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for {
		var op BinOp
		switch p.peekKind() {
		case TPlus:
			op = BAdd
		case TMinus:
			op = BSub
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseMul()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, L: left, R: right, Pos: spanOf(left.Position(), right.Position())}
	}
}

// tier 4: * / %
func (p *Parser) parseMul() (Expression, error) {
	left, err := p.parseExp()
	if err != nil {
		return nil, err
	}
	for {
		var op BinOp
		switch p.peekKind() {
		case TStar:
			op = BMul
		case TSlash:
			op = BDiv
		case TPercent:
			op = BMod
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseExp()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, L: left, R: right, Pos: spanOf(left.Position(), right.Position())}
	}
}

// tier 5: ^
func (p *Parser) parseExp() (Expression, error) {
	left, err := p.parseAs()
	if err != nil {
		return nil, err
	}
	for p.check(TCaret) {
		p.advance()
		right, err := p.parseAs()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: BPow, L: left, R: right, Pos: spanOf(left.Position(), right.Position())}
	}
	return left, nil
}

// tier 6: as
func (p *Parser) parseAs() (Expression, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.check(TAs) {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: BAs, L: left, R: right, Pos: spanOf(left.Position(), right.Position())}
	}
	return left, nil
}

// unary layer 1: not (looser, applied outermost)
func (p *Parser) parseNot() (Expression, error) {
	if t, ok := p.match(TNot); ok {
		r, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: UNot, R: r, Pos: spanOf(t.Pos, r.Position())}, nil
	}
	return p.parseNeg()
}

// unary layer 2: - (tighter, closest to postfix)
func (p *Parser) parseNeg() (Expression, error) {
	if t, ok := p.match(TMinus); ok {
		r, err := p.parseNeg()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: UNeg, R: r, Pos: spanOf(t.Pos, r.Position())}, nil
	}
	return p.parsePostfix()
}

// postfix loop: call, self-call, field, index
func (p *Parser) parsePostfix() (Expression, error) {
	startPos := p.here()
	expr, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.check(TLParen):
			p.advance()
			args, end, err := p.parseExprList(TRParen)
			if err != nil {
				return nil, err
			}
			expr = &CallExpr{Head: expr, Args: args, Pos: spanOf(startPos, end)}

		case p.check(TColon):
			p.advance()
			fieldTok, err := p.expect(TIdent)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TLParen); err != nil {
				return nil, err
			}
			args, end, err := p.parseExprList(TRParen)
			if err != nil {
				return nil, err
			}
			expr = &SelfCallExpr{Head: expr, Field: fieldTok.Text, Args: args, Pos: spanOf(startPos, end)}

		case p.check(TDot):
			p.advance()
			fieldTok, err := p.expect(TIdent)
			if err != nil {
				return nil, err
			}
			expr = &FieldExpr{Head: expr, Field: fieldTok.Text, Pos: spanOf(startPos, fieldTok.Pos)}

		case p.check(TLBracket):
			p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			end, err := p.expect(TRBracket)
			if err != nil {
				return nil, err
			}
			expr = &IndexExpr{Head: expr, Index: idx, Pos: spanOf(startPos, end.Pos)}

		default:
			return expr, nil
		}
	}
}

// atoms (spec §4.2.3)
func (p *Parser) parseAtom() (Expression, error) {
	startPos := p.here()
	if p.eol() {
		return nil, p.unexpected()
	}
	switch p.peekKind() {
	case TNull:
		p.advance()
		return &NullAtom{Pos: startPos}, nil
	case TInt:
		t := p.advance()
		return &IntAtom{Value: t.Int, Pos: t.Pos}, nil
	case TFloat:
		t := p.advance()
		return &FloatAtom{Value: t.Float, Pos: t.Pos}, nil
	case TBool:
		t := p.advance()
		return &BoolAtom{Value: t.Bool, Pos: t.Pos}, nil
	case TChar:
		t := p.advance()
		return &CharAtom{Value: t.Char, Pos: t.Pos}, nil
	case TString:
		t := p.advance()
		return &StringAtom{Value: t.Str, Pos: t.Pos}, nil
	case TIdent:
		t := p.advance()
		return &IdentExpr{Name: t.Text, Pos: t.Pos}, nil

	case TLParen:
		p.advance()
		if t, ok := p.match(TRParen); ok {
			return &TupleAtom{Pos: spanOf(startPos, t.Pos)}, nil
		}
		first, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, ok := p.match(TComma); ok {
			items := []Expression{first}
			for !p.check(TRParen) {
				e, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				items = append(items, e)
				if _, ok := p.match(TComma); !ok {
					break
				}
			}
			end, err := p.expect(TRParen)
			if err != nil {
				return nil, err
			}
			return &TupleAtom{Items: items, Pos: spanOf(startPos, end.Pos)}, nil
		}
		if _, err := p.expect(TRParen); err != nil {
			return nil, err
		}
		return first, nil

	case TLBracket:
		p.advance()
		items, end, err := p.parseExprList(TRBracket)
		if err != nil {
			return nil, err
		}
		return &VectorAtom{Items: items, Pos: spanOf(startPos, end)}, nil

	case TLBrace:
		p.advance()
		var entries []MapEntry
		for !p.check(TRBrace) {
			keyTok, err := p.expect(TIdent)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TAssign); err != nil {
				return nil, err
			}
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			entries = append(entries, MapEntry{Key: keyTok.Text, Value: val})
			if _, ok := p.match(TComma); !ok {
				break
			}
		}
		end, err := p.expect(TRBrace)
		if err != nil {
			return nil, err
		}
		return &MapAtom{Entries: entries, Pos: spanOf(startPos, end.Pos)}, nil
	}
	return nil, p.unexpected()
}
