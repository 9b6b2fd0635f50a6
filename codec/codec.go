// Package codec converts playfields and matches to and from the comma
// separated text records exchanged between host and peers.
//
// A playfield record is
//
//	playerNameStart,<name>,playerNameEnd,
//	scoreStart,<int>,scoreEnd,
//	playfieldStart,<210 tile codes>,playfieldEnd,
//	currentPieceStart,<piece|null>,currentPieceEnd,
//	heldPieceStart,<piece|null>,heldPieceEnd,
//	pieceQueueStart,(PieceData,<piece>,)*pieceQueueEnd
//
// and a piece is <side>,<side*side tile codes>,<x>,<y>,<phase>.
package codec

import (
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/wfunc/kolortris/piece"
	"github.com/wfunc/kolortris/playfield"
)

const (
	sep = ","

	markNameStart    = "playerNameStart"
	markNameEnd      = "playerNameEnd"
	markScoreStart   = "scoreStart"
	markScoreEnd     = "scoreEnd"
	markGridStart    = "playfieldStart"
	markGridEnd      = "playfieldEnd"
	markCurrentStart = "currentPieceStart"
	markCurrentEnd   = "currentPieceEnd"
	markHeldStart    = "heldPieceStart"
	markHeldEnd      = "heldPieceEnd"
	markQueueStart   = "pieceQueueStart"
	markQueueEntry   = "PieceData"
	markQueueEnd     = "pieceQueueEnd"
	markNull         = "null"

	markMatchStart  = "matchStart"
	markMatchEnd    = "matchEnd"
	markPlayerStart = "playerStart"
	markPlayerEnd   = "playerEnd"
)

type encoder struct {
	b     strings.Builder
	first bool
}

func newEncoder() *encoder {
	return &encoder{first: true}
}

func (e *encoder) token(s string) {
	if !e.first {
		e.b.WriteString(sep)
	}
	e.first = false
	e.b.WriteString(s)
}

func (e *encoder) int(n int) {
	e.token(strconv.Itoa(n))
}

func (e *encoder) piece(p *piece.Piece) {
	if p == nil {
		e.token(markNull)
		return
	}
	e.int(p.Size)
	for _, row := range p.Cells {
		for _, t := range row {
			e.int(int(t))
		}
	}
	e.int(p.X)
	e.int(p.Y)
	e.int(int(p.Rotation))
}

func (e *encoder) playfield(s playfield.State) {
	e.token(markNameStart)
	e.token(playfield.SanitizeName(s.Name))
	e.token(markNameEnd)

	e.token(markScoreStart)
	e.int(s.Score)
	e.token(markScoreEnd)

	e.token(markGridStart)
	for r := range playfield.Rows {
		for c := range playfield.Cols {
			e.int(int(s.Grid[r][c]))
		}
	}
	e.token(markGridEnd)

	e.token(markCurrentStart)
	e.piece(s.Current)
	e.token(markCurrentEnd)

	e.token(markHeldStart)
	e.piece(s.Held)
	e.token(markHeldEnd)

	e.token(markQueueStart)
	for _, p := range s.Queue {
		e.token(markQueueEntry)
		e.piece(p)
	}
	e.token(markQueueEnd)
}

// EncodePlayfield serializes s. The name is sanitized first.
func EncodePlayfield(s playfield.State) string {
	e := newEncoder()
	e.playfield(s)
	return e.b.String()
}

type decoder struct {
	tokens []string
	pos    int
}

func newDecoder(s string) *decoder {
	return &decoder{tokens: strings.Split(s, sep)}
}

func (d *decoder) peek() (string, bool) {
	if d.pos >= len(d.tokens) {
		return "", false
	}
	return d.tokens[d.pos], true
}

func (d *decoder) fail(kind error, want string, err error) *DecodeError {
	tok, _ := d.peek()
	return &DecodeError{Kind: kind, Offset: d.pos, Token: tok, Want: want, Err: err}
}

func (d *decoder) expect(marker string) error {
	tok, ok := d.peek()
	if !ok || tok != marker {
		return d.fail(ErrMissingMarker, marker, nil)
	}
	d.pos++
	return nil
}

// optional consumes marker if it is next.
func (d *decoder) optional(marker string) bool {
	if tok, ok := d.peek(); ok && tok == marker {
		d.pos++
		return true
	}
	return false
}

func (d *decoder) text(want string) (string, error) {
	tok, ok := d.peek()
	if !ok {
		return "", d.fail(ErrMissingMarker, want, io.ErrUnexpectedEOF)
	}
	d.pos++
	return tok, nil
}

func (d *decoder) int(want string) (int, error) {
	tok, ok := d.peek()
	if !ok {
		return 0, d.fail(ErrBadNumber, want, io.ErrUnexpectedEOF)
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, d.fail(ErrBadNumber, want, err)
	}
	d.pos++
	return n, nil
}

// ranged reads an integer in [lo, hi]. Out of range values are reported at
// their own offset.
func (d *decoder) ranged(want string, lo, hi int) (int, error) {
	n, err := d.int(want)
	if err != nil {
		return 0, err
	}
	if n < lo || n > hi {
		d.pos--
		return 0, d.fail(ErrBadValue, want, nil)
	}
	return n, nil
}

func (d *decoder) tile() (piece.Tile, error) {
	n, err := d.ranged("tile code", int(piece.None), int(piece.Purple))
	return piece.Tile(n), err
}

func (d *decoder) piece() (*piece.Piece, error) {
	if d.optional(markNull) {
		return nil, nil
	}
	size, err := d.ranged("piece size", 2, 4)
	if err != nil {
		return nil, err
	}
	p := &piece.Piece{Size: size, Cells: make([][]piece.Tile, size)}
	for i := range size {
		p.Cells[i] = make([]piece.Tile, size)
		for j := range size {
			if p.Cells[i][j], err = d.tile(); err != nil {
				return nil, err
			}
		}
	}
	if p.X, err = d.int("piece x"); err != nil {
		return nil, err
	}
	if p.Y, err = d.int("piece y"); err != nil {
		return nil, err
	}
	rot, err := d.ranged("rotation phase", int(piece.Spawn), int(piece.CCW))
	if err != nil {
		return nil, err
	}
	p.Rotation = piece.Rotation(rot)
	return p, nil
}

func (d *decoder) playfield() (playfield.State, error) {
	var s playfield.State
	var err error

	if err = d.expect(markNameStart); err != nil {
		return s, err
	}
	if s.Name, err = d.text("player name"); err != nil {
		return s, err
	}
	if err = d.expect(markNameEnd); err != nil {
		return s, err
	}

	if err = d.expect(markScoreStart); err != nil {
		return s, err
	}
	if s.Score, err = d.ranged("score", 0, math.MaxInt); err != nil {
		return s, err
	}
	if err = d.expect(markScoreEnd); err != nil {
		return s, err
	}

	if err = d.expect(markGridStart); err != nil {
		return s, err
	}
	for r := range playfield.Rows {
		for c := range playfield.Cols {
			if s.Grid[r][c], err = d.tile(); err != nil {
				return s, err
			}
		}
	}
	if err = d.expect(markGridEnd); err != nil {
		return s, err
	}

	if err = d.expect(markCurrentStart); err != nil {
		return s, err
	}
	if s.Current, err = d.piece(); err != nil {
		return s, err
	}
	if err = d.expect(markCurrentEnd); err != nil {
		return s, err
	}

	if err = d.expect(markHeldStart); err != nil {
		return s, err
	}
	if s.Held, err = d.piece(); err != nil {
		return s, err
	}
	if err = d.expect(markHeldEnd); err != nil {
		return s, err
	}

	if err = d.expect(markQueueStart); err != nil {
		return s, err
	}
	for !d.optional(markQueueEnd) {
		if err = d.expect(markQueueEntry); err != nil {
			return s, err
		}
		p, err := d.piece()
		if err != nil {
			return s, err
		}
		s.Queue = append(s.Queue, p)
	}
	return s, nil
}

func (d *decoder) end() error {
	if d.pos != len(d.tokens) {
		return d.fail(ErrBadValue, "end of record", nil)
	}
	return nil
}

// DecodePlayfield parses a record produced by EncodePlayfield. Errors are
// *DecodeError.
func DecodePlayfield(s string) (playfield.State, error) {
	d := newDecoder(s)
	st, err := d.playfield()
	if err != nil {
		return playfield.State{}, err
	}
	if err := d.end(); err != nil {
		return playfield.State{}, err
	}
	return st, nil
}
