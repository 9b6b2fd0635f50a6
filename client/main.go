package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/wfunc/kolortris/codec"
	"github.com/wfunc/kolortris/config"
	"github.com/wfunc/kolortris/logger"
	"github.com/wfunc/kolortris/network"
	"github.com/wfunc/kolortris/peer"
	"github.com/wfunc/kolortris/piece"
	"github.com/wfunc/kolortris/playfield"
)

func main() {
	configPath := pflag.StringP("config", "c", ".", "directory holding config.yaml")
	addr := pflag.StringP("addr", "a", "127.0.0.1:1337", "host address, host:port or ws:// URL")
	name := pflag.StringP("name", "n", "", "player name (defaults to player.name)")
	id := pflag.Int("id", 0, "requested player id, 0 lets the host pick")
	pflag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Log.Level); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *name == "" {
		*name = cfg.Player.Name
	}
	c := peer.New(peer.Config{
		RequestedID: *id,
		Name:        *name,
		Authority:   cfg.Game.Authority,
		Playfield: playfield.Config{
			TickInterval:   cfg.Game.TickInterval,
			GravityTicks:   cfg.Game.GravityTicks,
			LockDelayTicks: cfg.Game.LockDelayTicks,
		},
		GarbageMilestone: cfg.Game.GarbageMilestone,
		ReadTimeout:      cfg.Server.ReadTimeout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = c.Connect(dialCtx, *addr)
	cancel()
	if err != nil {
		logger.Log.Errorf("Connect to %s: %v", *addr, err)
		return
	}
	defer c.Close()

	fmt.Printf("Joined as player %d. Commands: %s, name <x>, show, scores, quit\n", c.ID(), strings.Join(commandNames(), ", "))

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.Done():
			logger.Log.Infof("Host closed the connection: %v", c.Err())
			return
		case line, ok := <-lines:
			if !ok || line == "quit" {
				return
			}
			handle(c, line)
		}
	}
}

func commandNames() []string {
	return []string{
		string(network.MoveLeft), string(network.MoveRight), string(network.MoveDown),
		string(network.Rotate), string(network.Hold), string(network.HardDrop),
	}
}

func handle(c *peer.Client, line string) {
	switch {
	case line == "":
	case line == "show":
		fmt.Print(render(c.Field()))
	case line == "scores":
		printScores(c.Mirror())
	case strings.HasPrefix(line, "name "):
		c.SetName(strings.TrimPrefix(line, "name "))
	default:
		if err := c.Send(network.Command(line)); err != nil {
			fmt.Println(err)
		}
	}
}

// render draws the field with the active piece, its ghost and the
// queue, one letter per color.
func render(pf *playfield.Playfield) string {
	grid := pf.Grid()
	var overlay [playfield.Rows][playfield.Cols]byte
	if ghost := pf.Ghost(); ghost != nil {
		for _, b := range ghost.Blocks() {
			overlay[b.Row][b.Col] = '+'
		}
	}
	if cur := pf.Current(); cur != nil {
		for _, b := range cur.Blocks() {
			overlay[b.Row][b.Col] = letter(b.Tile)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s  score %d  mode %s  pending %d\n", pf.Name(), pf.Score(), pf.Mode(), pf.PendingGarbage())
	for r := range playfield.Rows {
		sb.WriteByte('|')
		for col := range playfield.Cols {
			switch {
			case overlay[r][col] != 0:
				sb.WriteByte(overlay[r][col])
			case grid[r][col] != piece.None:
				sb.WriteByte(letter(grid[r][col]))
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteString("|\n")
	}
	if held := pf.Held(); held != nil {
		fmt.Fprintf(&sb, "hold: %d cells\n", len(held.Blocks()))
	}
	fmt.Fprintf(&sb, "next: %d pieces\n", len(pf.Queue()))
	return sb.String()
}

func letter(t piece.Tile) byte {
	if t == piece.None {
		return '.'
	}
	return strings.ToUpper(t.String())[0]
}

func printScores(ms codec.MatchState) {
	fmt.Printf("phase %s\n", ms.Phase)
	for _, p := range ms.Players {
		fmt.Printf("  %2d %-10s %d\n", p.ID, p.Playfield.Name, p.Playfield.Score)
	}
}
