package network

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// EOM terminates every message.
const EOM = "EOM"

const (
	tagClientID      = "clientID"
	tagSnapshotStart = "GameInstanceStart"
	tagSnapshotEnd   = "GameInstanceEnd"
	tagPeerStart     = "PlayfieldDataBegin"
	tagPeerEnd       = "PlayfieldDataEnd"
	tagSendGarbage   = "sendGarbage"
	tagSetName       = "setName"
	tagGarbage       = "garbage"
)

var (
	ErrMalformed      = errors.New("network: malformed message")
	ErrUnknownCommand = errors.New("network: unknown command")
)

// Command is a player input sent as <playerID>,<command>.
type Command string

const (
	MoveLeft   Command = "moveLeft"
	MoveRight  Command = "moveRight"
	MoveDown   Command = "moveDown"
	Rotate     Command = "rotate"
	Hold       Command = "hold"
	HardDrop   Command = "hardDrop"
	MoveUp     Command = "moveUp"
	SaveState  Command = "saveState"
	LoadState  Command = "loadState"
	AddGarbage Command = "addGarbage"
)

var commands = map[Command]bool{
	MoveLeft: false, MoveRight: false, MoveDown: false,
	Rotate: false, Hold: false, HardDrop: false,
	MoveUp: true, SaveState: true, LoadState: true, AddGarbage: true,
}

// Known reports whether c is part of the command vocabulary.
func (c Command) Known() bool {
	_, ok := commands[c]
	return ok
}

// Debug reports whether c is a debugging command.
func (c Command) Debug() bool {
	return commands[c]
}

// Kind classifies a peer to host line.
type Kind int

const (
	KindCommand Kind = iota
	KindSendGarbage
	KindSetName
	KindPeerState
)

// Inbound is one parsed peer to host line.
type Inbound struct {
	PlayerID int
	Kind     Kind
	Command  Command
	Count    int
	Name     string
	Payload  string
}

func FormatJoin(id int) string {
	return strconv.Itoa(id)
}

func ParseJoin(line string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || id < 0 {
		return 0, fmt.Errorf("%w: join %q", ErrMalformed, line)
	}
	return id, nil
}

func FormatClientID(id int) string {
	return tagClientID + "," + strconv.Itoa(id)
}

func ParseClientID(line string) (int, error) {
	rest, ok := strings.CutPrefix(line, tagClientID+",")
	if !ok {
		return 0, fmt.Errorf("%w: client id %q", ErrMalformed, line)
	}
	id, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("%w: client id %q", ErrMalformed, line)
	}
	return id, nil
}

func FormatCommand(id int, c Command) string {
	return strconv.Itoa(id) + "," + string(c)
}

func FormatSendGarbage(id, n int) string {
	return strconv.Itoa(id) + "," + tagSendGarbage + "," + strconv.Itoa(n)
}

func FormatSetName(id int, name string) string {
	return strconv.Itoa(id) + "," + tagSetName + "," + strings.ReplaceAll(name, ",", "")
}

func FormatPeerState(id int, playfield string) string {
	return strconv.Itoa(id) + "," + tagPeerStart + "," + playfield + "," + tagPeerEnd
}

// ParseInbound decodes a command, garbage report, name change or peer
// snapshot line.
func ParseInbound(line string) (Inbound, error) {
	idText, rest, ok := strings.Cut(line, ",")
	if !ok {
		return Inbound{}, fmt.Errorf("%w: %q", ErrMalformed, line)
	}
	id, err := strconv.Atoi(idText)
	if err != nil {
		return Inbound{}, fmt.Errorf("%w: player id %q", ErrMalformed, idText)
	}
	in := Inbound{PlayerID: id}

	tag, arg, hasArg := strings.Cut(rest, ",")
	switch tag {
	case tagSendGarbage:
		n, err := strconv.Atoi(arg)
		if !hasArg || err != nil {
			return Inbound{}, fmt.Errorf("%w: garbage count %q", ErrMalformed, arg)
		}
		in.Kind, in.Count = KindSendGarbage, n
	case tagSetName:
		in.Kind, in.Name = KindSetName, arg
	case tagPeerStart:
		payload, ok := strings.CutSuffix(arg, ","+tagPeerEnd)
		if !hasArg || !ok {
			return Inbound{}, fmt.Errorf("%w: peer state without %s", ErrMalformed, tagPeerEnd)
		}
		in.Kind, in.Payload = KindPeerState, payload
	default:
		c := Command(rest)
		if !c.Known() {
			return Inbound{}, fmt.Errorf("%w: %q", ErrUnknownCommand, rest)
		}
		in.Kind, in.Command = KindCommand, c
	}
	return in, nil
}

func FormatSnapshot(match string) string {
	return tagSnapshotStart + "," + match + "," + tagSnapshotEnd
}

// ParseSnapshot returns the match record inside a snapshot line.
func ParseSnapshot(line string) (string, bool) {
	rest, ok := strings.CutPrefix(line, tagSnapshotStart+",")
	if !ok {
		return "", false
	}
	return strings.CutSuffix(rest, ","+tagSnapshotEnd)
}

func FormatGarbage(n int) string {
	return tagGarbage + "," + strconv.Itoa(n)
}

// ParseGarbage decodes a host to peer garbage line.
func ParseGarbage(line string) (int, bool) {
	rest, ok := strings.CutPrefix(line, tagGarbage+",")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}
