package core

import (
	"errors"
	"testing"

	"spibus/protocol"
)

func TestCommandRegistry(t *testing.T) {
	registry := NewCommandRegistry()

	var called bool
	handler := func(data *[]byte) error {
		called = true
		return nil
	}

	id := registry.Register("test_command", "arg=%u", handler)
	if id != 0 {
		t.Errorf("Expected first command to have ID 0, got %d", id)
	}

	cmd, ok := registry.GetCommand(id)
	if !ok {
		t.Fatal("Failed to retrieve registered command")
	}
	if cmd.Name != "test_command" {
		t.Errorf("Expected command name 'test_command', got '%s'", cmd.Name)
	}

	var data []byte
	if err := registry.Dispatch(id, &data); err != nil {
		t.Errorf("Dispatch failed: %v", err)
	}
	if !called {
		t.Error("Command handler was not called")
	}

	if err := registry.Dispatch(999, &data); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("Expected ErrUnknownCommand for unknown command ID, got %v", err)
	}
}

func TestCommandRegistryMultiple(t *testing.T) {
	registry := NewCommandRegistry()

	id1 := registry.Register("command1", "arg1=%u", func(data *[]byte) error { return nil })
	id2 := registry.Register("command2", "arg2=%u", func(data *[]byte) error { return nil })
	id3 := registry.Register("command3", "arg3=%u", func(data *[]byte) error { return nil })

	if id1 != 0 || id2 != 1 || id3 != 2 {
		t.Errorf("Command IDs not sequential: %d, %d, %d", id1, id2, id3)
	}
	if again := registry.Register("command2", "", nil); again != id2 {
		t.Errorf("Re-registering returned ID %d, expected %d", again, id2)
	}
	if registry.Count() != 3 {
		t.Errorf("Expected 3 commands, got %d", registry.Count())
	}
}

func TestCommandRegistryResponse(t *testing.T) {
	registry := NewCommandRegistry()
	id := registry.Register("peek_response", "addr=%u value=%c", nil)

	var data []byte
	if err := registry.Dispatch(id, &data); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("Dispatching a response should fail, got %v", err)
	}
}

func TestCommandRegistryDictionary(t *testing.T) {
	registry := NewCommandRegistry()
	registry.Register("identify", "", func(data *[]byte) error { return nil })
	registry.Register("peek", "addr=%u", func(data *[]byte) error { return nil })

	want := "identify\npeek addr=%u\n"
	if dict := registry.Dictionary(); dict != want {
		t.Errorf("Dictionary = %q, expected %q", dict, want)
	}
}

func TestCommandWithArguments(t *testing.T) {
	registry := NewCommandRegistry()

	var receivedValue uint32
	handler := func(data *[]byte) error {
		val, err := protocol.DecodeVLQUint(data)
		if err != nil {
			return err
		}
		receivedValue = val
		return nil
	}

	id := registry.Register("test_args", "value=%u", handler)

	output := protocol.NewScratchOutput()
	protocol.EncodeVLQUint(output, 12345)
	data := output.Result()

	if err := registry.Dispatch(id, &data); err != nil {
		t.Errorf("Dispatch failed: %v", err)
	}
	if receivedValue != 12345 {
		t.Errorf("Expected value 12345, got %d", receivedValue)
	}
}

func TestMonitorCommandIDs(t *testing.T) {
	reg := NewMonitor().Registry()

	testCases := []struct {
		id   uint16
		name string
	}{
		{protocol.CmdPeek, "peek"},
		{protocol.CmdPoke, "poke"},
		{protocol.CmdPeekResponse, "peek_response"},
		{protocol.CmdPokeResponse, "poke_response"},
		{protocol.CmdErrorResponse, "error_response"},
	}
	for _, tc := range testCases {
		cmd, ok := reg.GetCommand(tc.id)
		if !ok || cmd.Name != tc.name {
			t.Errorf("Command %d: expected %s, got %+v", tc.id, tc.name, cmd)
		}
	}
}
