package codec

import (
	"errors"
	"math/rand/v2"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/kolortris/piece"
	"github.com/wfunc/kolortris/playfield"
)

func newState(seed uint64) playfield.State {
	rng := rand.New(rand.NewPCG(seed, seed*7+1))
	pf := playfield.NewWithRand("alice", playfield.DefaultConfig(), rng)
	return pf.Snapshot()
}

func TestPlayfieldRoundTrip(t *testing.T) {
	cases := map[string]func(*playfield.State){
		"fresh": func(s *playfield.State) {},
		"held and scored": func(s *playfield.State) {
			s.Held = s.Queue[0].Clone()
			s.Score = 1230
		},
		"no active piece": func(s *playfield.State) {
			s.Current = nil
		},
		"rotated and moved": func(s *playfield.State) {
			s.Current.Rotation = piece.Flip
			s.Current.X, s.Current.Y = -1, 17
		},
		"busy grid": func(s *playfield.State) {
			for r := 10; r < playfield.Rows; r++ {
				for c := range playfield.Cols {
					s.Grid[r][c] = piece.Tile((r*3 + c) % 6)
				}
			}
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			want := newState(uint64(len(name)))
			mutate(&want)

			got, err := DecodePlayfield(EncodePlayfield(want))
			require.NoError(t, err)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncodePlayfieldLayout(t *testing.T) {
	var s playfield.State
	s.Name = "bob"
	s.Score = 40
	s.Grid[0][0] = piece.Green
	s.Queue = []*piece.Piece{{
		Size:  2,
		Cells: [][]piece.Tile{{1, 2}, {3, 4}},
		X:     4,
		Y:     0,
	}}

	got := EncodePlayfield(s)
	assert.True(t, strings.HasPrefix(got, "playerNameStart,bob,playerNameEnd,scoreStart,40,scoreEnd,playfieldStart,4,0,"))
	assert.True(t, strings.HasSuffix(got,
		",playfieldEnd,currentPieceStart,null,currentPieceEnd,heldPieceStart,null,heldPieceEnd,"+
			"pieceQueueStart,PieceData,2,1,2,3,4,4,0,0,pieceQueueEnd"))
	assert.Equal(t, playfield.Rows*playfield.Cols+25, len(strings.Split(got, ",")))
}

func TestEncodeSanitizesName(t *testing.T) {
	s := newState(3)
	s.Name = "a,very,long,name"

	got, err := DecodePlayfield(EncodePlayfield(s))
	require.NoError(t, err)
	assert.Equal(t, "averylongn", got.Name)
}

func TestDecodePlayfieldErrors(t *testing.T) {
	valid := EncodePlayfield(newState(4))
	tokens := strings.Split(valid, ",")

	replace := func(i int, tok string) string {
		c := append([]string(nil), tokens...)
		c[i] = tok
		return strings.Join(c, ",")
	}

	cases := []struct {
		name  string
		input string
		kind  error
	}{
		{"empty", "", ErrMissingMarker},
		{"missing name end", replace(2, "oops"), ErrMissingMarker},
		{"bad score", replace(4, "12x"), ErrBadNumber},
		{"negative score", replace(4, "-5"), ErrBadValue},
		{"bad tile", replace(7, "red"), ErrBadNumber},
		{"tile out of range", replace(7, "9"), ErrBadValue},
		{"truncated", strings.Join(tokens[:100], ","), ErrBadNumber},
		{"truncated at marker", strings.Join(tokens[:len(tokens)-1], ","), ErrMissingMarker},
		{"trailing data", valid + ",extra", ErrBadValue},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodePlayfield(tc.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.kind)

			var de *DecodeError
			require.True(t, errors.As(err, &de))
			assert.NotEmpty(t, de.Want)
		})
	}
}

func TestDecodePieceErrors(t *testing.T) {
	var s playfield.State
	s.Name = "x"
	prefix := strings.TrimSuffix(EncodePlayfield(s),
		"currentPieceStart,null,currentPieceEnd,heldPieceStart,null,heldPieceEnd,pieceQueueStart,pieceQueueEnd")

	withCurrent := func(rec string) string {
		return prefix + "currentPieceStart," + rec +
			",currentPieceEnd,heldPieceStart,null,heldPieceEnd,pieceQueueStart,pieceQueueEnd"
	}

	_, err := DecodePlayfield(withCurrent("2,1,1,1,1,4,0,3"))
	require.NoError(t, err)

	_, err = DecodePlayfield(withCurrent("5,1,1,1,1,4,0,0"))
	assert.ErrorIs(t, err, ErrBadValue)

	_, err = DecodePlayfield(withCurrent("2,1,1,1,1,4,0,4"))
	assert.ErrorIs(t, err, ErrBadValue)

	_, err = DecodePlayfield(withCurrent("2,1,1,1,1,four,0,0"))
	assert.ErrorIs(t, err, ErrBadNumber)

	_, err = DecodePlayfield(withCurrent("2,1,1,1,1,4,0"))
	assert.ErrorIs(t, err, ErrBadNumber)
}

func TestMatchRoundTrip(t *testing.T) {
	want := MatchState{
		Phase: PhasePlaying,
		Players: []Player{
			{ID: 1, Playfield: newState(10)},
			{ID: 7, Playfield: newState(11)},
		},
	}
	got, err := DecodeMatch(EncodeMatch(want))
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("match round trip mismatch (-want +got):\n%s", diff)
	}

	p, ok := got.Player(7)
	require.True(t, ok)
	assert.Equal(t, "alice", p.Playfield.Name)
	_, ok = got.Player(3)
	assert.False(t, ok)
}

func TestEmptyMatch(t *testing.T) {
	want := MatchState{Phase: PhaseWaiting}
	enc := EncodeMatch(want)
	assert.Equal(t, "matchStart,waiting,0,matchEnd", enc)

	got, err := DecodeMatch(enc)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeMatchErrors(t *testing.T) {
	one := EncodeMatch(MatchState{Phase: PhasePlaying, Players: []Player{{ID: 2, Playfield: newState(5)}}})

	cases := map[string]struct {
		input string
		kind  error
	}{
		"bad phase":      {strings.Replace(one, "playing", "paused", 1), ErrBadValue},
		"bad count":      {strings.Replace(one, "playing,1,", "playing,x,", 1), ErrBadNumber},
		"count too high": {strings.Replace(one, "playing,1,", "playing,2,", 1), ErrMissingMarker},
		"huge count":     {strings.Replace(one, "playing,1,", "playing,"+strconv.Itoa(1<<20)+",", 1), ErrBadValue},
		"bad id":         {strings.Replace(one, "playerStart,2,", "playerStart,two,", 1), ErrBadNumber},
		"missing end":    {strings.TrimSuffix(one, ",matchEnd"), ErrMissingMarker},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeMatch(tc.input)
			assert.ErrorIs(t, err, tc.kind)
		})
	}
}
