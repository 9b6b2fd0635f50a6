package session

import (
	"net"
	"testing"
	"time"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct {
	Sent   [][]string
	Closed bool
}

func (m *MockConnection) Send(lines ...string) error {
	m.Sent = append(m.Sent, lines)
	return nil
}
func (m *MockConnection) ReadMessage() ([]string, error) { return nil, nil }
func (m *MockConnection) SetReadTimeout(d time.Duration) {}
func (m *MockConnection) RemoteAddr() net.Addr           { return &net.TCPAddr{} }
func (m *MockConnection) Close() error {
	m.Closed = true
	return nil
}

func TestNewManager(t *testing.T) {
	manager := NewManager()
	if manager == nil {
		t.Fatal("NewManager should not return nil")
	}
	if manager.sessions == nil {
		t.Fatal("NewManager should initialize the sessions map")
	}
}

func TestNewSession_UniqueIDs(t *testing.T) {
	a := NewSession(&MockConnection{}, 0, 0)
	b := NewSession(&MockConnection{}, 0, 0)
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("expected distinct non-empty ids, got %q and %q", a.ID, b.ID)
	}
}

func TestManager_Add_Get_Remove(t *testing.T) {
	manager := NewManager()
	sess := NewSession(&MockConnection{}, 0, 0)
	sessionID := sess.ID

	// Test Add
	manager.Add(sess)
	if manager.Count() != 1 {
		t.Fatalf("Expected session count to be 1, got %d", manager.Count())
	}

	// Test Get
	retrievedSess, exists := manager.Get(sessionID)
	if !exists {
		t.Fatal("Get should find the added session")
	}
	if retrievedSess != sess {
		t.Fatal("Get should return the same session instance")
	}

	// Test Remove
	manager.Remove(sessionID)
	if manager.Count() != 0 {
		t.Fatalf("Expected session count to be 0 after removal, got %d", manager.Count())
	}

	_, exists = manager.Get(sessionID)
	if exists {
		t.Fatal("Get should not find the removed session")
	}
}

func TestManager_GetByPlayerID(t *testing.T) {
	manager := NewManager()

	sess1 := NewSession(&MockConnection{}, 0, 0)
	sess1.PlayerID = 1
	sess2 := NewSession(&MockConnection{}, 0, 0)
	sess2.PlayerID = 2

	manager.Add(sess1)
	manager.Add(sess2)

	got, ok := manager.GetByPlayerID(2)
	if !ok || got != sess2 {
		t.Errorf("Expected session for player 2, got %v", got)
	}

	if _, ok := manager.GetByPlayerID(3); ok {
		t.Error("Expected no session for player 3")
	}
}

func TestManager_CloseAll(t *testing.T) {
	manager := NewManager()
	conns := []*MockConnection{{}, {}}
	for _, c := range conns {
		manager.Add(NewSession(c, 0, 0))
	}

	manager.CloseAll()
	for i, c := range conns {
		if !c.Closed {
			t.Errorf("connection %d was not closed", i)
		}
	}
}

func TestSession_Set_Get(t *testing.T) {
	sess := NewSession(&MockConnection{}, 0, 0)
	key := "test_key"
	value := "test_value"

	sess.Set(key, value)

	retrievedValue := sess.Get(key)
	if retrievedValue != value {
		t.Errorf("Expected value %v, got %v", value, retrievedValue)
	}

	nilValue := sess.Get("non_existent_key")
	if nilValue != nil {
		t.Errorf("Expected nil for non-existent key, got %v", nilValue)
	}
}

func TestSession_Send(t *testing.T) {
	conn := &MockConnection{}
	sess := NewSession(conn, 0, 0)

	if err := sess.Send("clientID,1"); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if len(conn.Sent) != 1 || conn.Sent[0][0] != "clientID,1" {
		t.Errorf("unexpected sent messages: %v", conn.Sent)
	}
}

func TestSession_Allow(t *testing.T) {
	unlimited := NewSession(&MockConnection{}, 0, 0)
	for i := 0; i < 100; i++ {
		if !unlimited.Allow() {
			t.Fatal("session without a limit should always allow")
		}
	}

	limited := NewSession(&MockConnection{}, 1, 2)
	if !limited.Allow() || !limited.Allow() {
		t.Fatal("burst of 2 should be allowed")
	}
	if limited.Allow() {
		t.Error("third command inside the same second should be rejected")
	}
}

func TestSession_IdleResetsOnSend(t *testing.T) {
	sess := NewSession(&MockConnection{}, 0, 0)
	sess.LastActive = time.Now().Add(-time.Minute)
	if sess.Idle() < time.Minute {
		t.Fatalf("Expected at least a minute idle, got %v", sess.Idle())
	}

	sess.Send("ping")
	if idle := sess.Idle(); idle >= time.Minute {
		t.Errorf("Send should reset the idle time, got %v", idle)
	}
}
