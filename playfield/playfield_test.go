package playfield

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/kolortris/piece"
)

func newTestPlayfield(seed uint64) *Playfield {
	return NewWithRand("tester", DefaultConfig(), rand.New(rand.NewPCG(seed, seed+1)))
}

// tickUntil ticks p until it reaches mode, failing after max ticks.
func tickUntil(t *testing.T, p *Playfield, mode Mode, max int) int {
	t.Helper()
	for i := 1; i <= max; i++ {
		p.Tick()
		if p.Mode() == mode {
			return i
		}
	}
	t.Fatalf("playfield did not reach %s within %d ticks (mode %s)", mode, max, p.Mode())
	return 0
}

// relock puts p into Reload without a piece to merge.
func relock(p *Playfield) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.current = nil
	p.enter(Reload)
}

// paint recolors every occupied cell of pc, cycling through colors.
func paint(pc *piece.Piece, colors ...piece.Tile) {
	i := 0
	for r := range pc.Cells {
		for c := range pc.Cells[r] {
			if pc.Cells[r][c] != piece.None {
				pc.Cells[r][c] = colors[i%len(colors)]
				i++
			}
		}
	}
}

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"":                 DefaultName,
		"   ":              DefaultName,
		"alice":            "alice",
		"a,b,c":            "abc",
		"abcdefghijklmno":  "abcdefghij",
		" ,,, ":            DefaultName,
		"ünïcødé-ñåmé-xyz": "ünïcødé-ñå",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeName(in), "input %q", in)
	}
}

func TestNewPlayfield(t *testing.T) {
	p := newTestPlayfield(1)

	assert.Equal(t, "tester", p.Name())
	assert.Equal(t, Normal, p.Mode())
	assert.True(t, p.HoldEnabled())
	assert.Zero(t, p.Score())
	assert.Nil(t, p.Held())
	require.NotNil(t, p.Current())
	assert.GreaterOrEqual(t, len(p.Queue()), minQueue)

	g := p.Grid()
	assert.True(t, g.Empty())
}

func TestGravity(t *testing.T) {
	p := newTestPlayfield(2)
	y := p.Current().Y

	for range p.cfg.GravityTicks - 1 {
		p.Tick()
	}
	assert.Equal(t, y, p.Current().Y)

	p.Tick()
	assert.Equal(t, y+1, p.Current().Y)
}

func TestLockDelay(t *testing.T) {
	p := newTestPlayfield(3)
	paint(p.current, piece.Red, piece.Blue)

	for p.MoveDown() {
	}
	p.Tick()
	require.Equal(t, Grounded, p.Mode())

	for range p.cfg.LockDelayTicks - 1 {
		p.Tick()
		require.Equal(t, Grounded, p.Mode())
	}
	p.Tick()
	assert.Equal(t, Reload, p.Mode())
	assert.Nil(t, p.Current())

	tickUntil(t, p, Normal, 10)
	assert.NotNil(t, p.Current())

	filled := 0
	g := p.Grid()
	for r := range Rows {
		for c := range Cols {
			if g[r][c] != piece.None {
				filled++
			}
		}
	}
	assert.Equal(t, 4, filled)
}

func TestGroundedReturnsToNormal(t *testing.T) {
	p := newTestPlayfield(4)
	for p.MoveDown() {
	}
	p.Tick()
	require.Equal(t, Grounded, p.Mode())

	require.True(t, p.MoveUp())
	p.Tick()
	assert.Equal(t, Normal, p.Mode())
}

func TestRowClearScoresAndShifts(t *testing.T) {
	p := newTestPlayfield(5)
	for c := range Cols {
		p.grid[Rows-1][c] = piece.Red + piece.Tile(c%2)
	}
	p.grid[Rows-2][0] = piece.Green
	p.grid[Rows-2][5] = piece.Yellow
	p.grid[Rows-3][0] = piece.Purple

	relock(p)
	assert.True(t, p.Clearing())
	tickUntil(t, p, Normal, 50)

	assert.Equal(t, 10*Cols, p.Score())

	var want Grid
	want[Rows-1][0] = piece.Green
	want[Rows-1][5] = piece.Yellow
	want[Rows-2][0] = piece.Purple
	got := p.Grid()
	assert.Empty(t, cmp.Diff(want, got))
}

func TestColorGroupAcrossRows(t *testing.T) {
	p := newTestPlayfield(6)
	p.grid[20][0] = piece.Green
	p.grid[20][1] = piece.Green
	p.grid[19][1] = piece.Green
	p.grid[18][1] = piece.Green
	p.grid[17][1] = piece.Blue
	p.grid[20][2] = piece.Red

	relock(p)
	tickUntil(t, p, Normal, 50)

	assert.Equal(t, 40, p.Score())

	var want Grid
	want[20][1] = piece.Blue
	want[20][2] = piece.Red
	got := p.Grid()
	assert.Empty(t, cmp.Diff(want, got))
}

func TestChainClear(t *testing.T) {
	p := newTestPlayfield(7)
	for c := range 4 {
		p.grid[20][c] = piece.Green
	}
	p.grid[19][2] = piece.Red
	p.grid[19][3] = piece.Red
	p.grid[20][4] = piece.Red
	p.grid[20][5] = piece.Red

	relock(p)
	tickUntil(t, p, Normal, 100)

	assert.Equal(t, 80, p.Score())
	g := p.Grid()
	assert.True(t, g.Empty())
}

func TestSmallGroupsStay(t *testing.T) {
	p := newTestPlayfield(8)
	p.grid[20][0] = piece.Blue
	p.grid[20][1] = piece.Blue
	p.grid[19][0] = piece.Blue
	p.grid[20][5] = piece.Blue

	relock(p)
	assert.False(t, p.Clearing())
	tickUntil(t, p, Normal, 5)
	assert.Zero(t, p.Score())
}

func TestGarbageInjection(t *testing.T) {
	for seed := uint64(0); seed < 20; seed++ {
		p := newTestPlayfield(seed)
		p.AddGarbage(1)
		p.AddGarbage(0)
		p.AddGarbage(-3)
		require.Equal(t, 1, p.PendingGarbage())

		relock(p)
		tickUntil(t, p, Normal, 5)
		assert.Zero(t, p.PendingGarbage())

		g := p.Grid()
		row := g[Rows-1]
		empty := 0
		for c, tile := range row {
			if tile == piece.None {
				empty++
				continue
			}
			assert.True(t, tile.Valid())
			if c > 0 && row[c-1] != piece.None {
				assert.NotEqual(t, row[c-1], tile, "seed %d col %d", seed, c)
			}
		}
		assert.Equal(t, 1, empty, "seed %d", seed)
		for r := 0; r < Rows-1; r++ {
			assert.True(t, g.rowEmpty(r))
		}
	}
}

func TestGarbageAvoidsColorBelow(t *testing.T) {
	for seed := uint64(0); seed < 20; seed++ {
		p := newTestPlayfield(seed)
		for c := 0; c < Cols-1; c++ {
			p.grid[Rows-1][c] = piece.Red
		}
		p.garbage = 1
		require.True(t, p.spawnGarbage())

		for c := 0; c < Cols-1; c++ {
			assert.Equal(t, piece.Red, p.grid[Rows-2][c])
			assert.NotEqual(t, piece.Red, p.grid[Rows-1][c])
		}
	}
}

func TestGarbageBatchSharesColumn(t *testing.T) {
	p := newTestPlayfield(9)
	p.garbage = 3
	require.True(t, p.spawnGarbage())

	hole := -1
	for r := Rows - 3; r < Rows; r++ {
		for c := range Cols {
			if p.grid[r][c] == piece.None {
				if hole == -1 {
					hole = c
				}
				assert.Equal(t, hole, c)
			}
		}
	}
	assert.NotEqual(t, -1, hole)
}

func TestGarbageOverflow(t *testing.T) {
	p := newTestPlayfield(10)
	p.grid[0][0] = piece.Red
	p.AddGarbage(2)

	relock(p)
	tickUntil(t, p, GameOver, 5)

	g := p.Grid()
	assert.True(t, g.Empty())
	assert.Zero(t, p.PendingGarbage())

	p.Tick()
	assert.Equal(t, Normal, p.Mode())
}

func TestHardDropIntoFullStackIsGameOver(t *testing.T) {
	p := newTestPlayfield(11)
	for r := range Rows {
		for c := 3; c <= 6; c++ {
			p.grid[r][c] = piece.Red + piece.Tile((r+c)%2)
		}
	}

	require.True(t, p.HardDrop())
	assert.Equal(t, GameOver, p.Mode())
	assert.Nil(t, p.Current())

	p.Tick()
	assert.Equal(t, Normal, p.Mode())
	g := p.Grid()
	assert.True(t, g.Empty())

	tickUntil(t, p, Normal, 10)
	assert.NotNil(t, p.Current())
}

func TestHold(t *testing.T) {
	p := newTestPlayfield(12)
	first := p.Current()
	next := p.Queue()[0]

	require.True(t, p.MoveRight())
	require.True(t, p.Hold())
	assert.False(t, p.HoldEnabled())

	held := p.Held()
	require.NotNil(t, held)
	first.ResetToSpawn(Cols)
	assert.True(t, first.Equal(held))
	assert.True(t, next.Equal(p.Current()))

	assert.False(t, p.Hold(), "second hold before locking must be rejected")

	require.True(t, p.HardDrop())
	tickUntil(t, p, Normal, 50)
	assert.True(t, p.HoldEnabled())

	require.True(t, p.Hold())
	assert.True(t, first.Equal(p.Current()), "hold should swap in the held piece")
	assert.NotNil(t, p.Held())
}

func TestInputIgnoredWhileLocking(t *testing.T) {
	p := newTestPlayfield(13)
	p.mutex.Lock()
	p.enter(Reload)
	p.mutex.Unlock()

	assert.False(t, p.MoveLeft())
	assert.False(t, p.MoveRight())
	assert.False(t, p.MoveDown())
	assert.False(t, p.Rotate())
	assert.False(t, p.Hold())
	assert.False(t, p.HardDrop())
}

func TestGhost(t *testing.T) {
	p := newTestPlayfield(14)
	ghost := p.Ghost()
	require.NotNil(t, ghost)

	cur := p.Current()
	g := p.Grid()
	assert.Equal(t, cur.X, ghost.X)
	assert.True(t, ghost.IsGrounded(&g))
}

func TestSnapshotRestore(t *testing.T) {
	src := newTestPlayfield(15)
	src.grid[20][3] = piece.Blue
	src.score = 250
	src.Hold()
	src.MoveLeft()

	snap := src.Snapshot()
	dst := newTestPlayfield(16)
	dst.Restore(snap)

	if diff := cmp.Diff(snap, dst.Snapshot()); diff != "" {
		t.Errorf("restored state mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, Normal, dst.Mode())

	// the snapshot is a copy
	snap.Grid[0][0] = piece.Red
	g := src.Grid()
	assert.Equal(t, piece.None, g[0][0])
}

func TestStartStop(t *testing.T) {
	p := newTestPlayfield(17)
	p.Start()
	assert.True(t, p.Running())
	p.Stop()
	assert.False(t, p.Running())
	p.Stop()
}

func TestReset(t *testing.T) {
	p := newTestPlayfield(18)
	p.grid[20][3] = piece.Blue
	p.score = 320
	p.AddGarbage(4)
	p.Hold()
	p.HardDrop()

	p.Reset()
	assert.Equal(t, "tester", p.Name())
	assert.Zero(t, p.Score())
	assert.Zero(t, p.PendingGarbage())
	assert.Nil(t, p.Held())
	assert.True(t, p.HoldEnabled())
	assert.Equal(t, Normal, p.Mode())
	g := p.Grid()
	assert.True(t, g.Empty())
	require.NotNil(t, p.Current())
	assert.GreaterOrEqual(t, len(p.Queue()), minQueue)
}
